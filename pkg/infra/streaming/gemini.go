package streaming

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/valyala/fastjson"

	"github.com/promptgate/promptgate/pkg/domain/connection"
	"github.com/promptgate/promptgate/pkg/infra/metrics"
)

const geminiBaseURL = "https://generativelanguage.googleapis.com"

type geminiAdapter struct {
	baseURL string
	client  *http.Client
}

func NewGeminiAdapter(baseURL string, client *http.Client) Adapter {
	return &geminiAdapter{baseURL: baseURL, client: client}
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role"`
	Parts []geminiPart `json:"parts"`
}

type geminiStreamRequest struct {
	Contents          []geminiContent `json:"contents"`
	SystemInstruction *geminiContent  `json:"systemInstruction,omitempty"`
}

// Stream speaks the accumulating-document format: the response body is not
// SSE but a JSON document that arrives in fragments. Bytes are buffered
// until the buffer parses as complete JSON, the candidate texts are emitted,
// and the buffer resets for the next document.
func (a *geminiAdapter) Stream(
	ctx context.Context,
	apiKey, model string,
	messages []Message,
) (<-chan Chunk, error) {
	reqBody := geminiStreamRequest{}
	for _, m := range messages {
		part := []geminiPart{{Text: m.Content}}
		switch m.Role {
		case "system":
			reqBody.SystemInstruction = &geminiContent{Parts: part}
		case "assistant":
			reqBody.Contents = append(reqBody.Contents, geminiContent{Role: "model", Parts: part})
		default:
			reqBody.Contents = append(reqBody.Contents, geminiContent{Role: m.Role, Parts: part})
		}
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal stream request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:streamGenerateContent?key=%s",
		a.baseURL, model, url.QueryEscape(apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create stream request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		metrics.UpstreamErrorsTotal.WithLabelValues(connection.ProviderGemini).Inc()
		return nil, fmt.Errorf("stream request failed: %w", err)
	}
	if err := checkStatus(resp); err != nil {
		resp.Body.Close()
		metrics.UpstreamErrorsTotal.WithLabelValues(connection.ProviderGemini).Inc()
		return nil, err
	}

	streamBody := newIdleBody(resp.Body, streamIdleTimeout)

	out := make(chan Chunk)
	go func() {
		defer close(out)
		defer streamBody.Close()

		var p fastjson.Parser
		var acc []byte
		buf := make([]byte, 8*1024)
		for {
			n, err := streamBody.Read(buf)
			if n > 0 {
				acc = append(acc, buf[:n]...)
				if v, perr := p.ParseBytes(acc); perr == nil {
					for _, text := range candidateTexts(v) {
						select {
						case <-ctx.Done():
							return
						case out <- Chunk{Text: text}:
						}
					}
					acc = acc[:0]
				}
			}
			if err != nil {
				if !benignClose(err) {
					metrics.UpstreamErrorsTotal.WithLabelValues(connection.ProviderGemini).Inc()
					select {
					case <-ctx.Done():
					case out <- Chunk{Err: fmt.Errorf("stream read failed: %w", err)}:
					}
				}
				return
			}
		}
	}()
	return out, nil
}

// candidateTexts walks a complete response document, which is either one
// response object or an array of them, and collects the part texts in order.
func candidateTexts(v *fastjson.Value) []string {
	docs := []*fastjson.Value{v}
	if v.Type() == fastjson.TypeArray {
		docs = v.GetArray()
	}

	var texts []string
	for _, doc := range docs {
		for _, candidate := range doc.GetArray("candidates") {
			for _, part := range candidate.GetArray("content", "parts") {
				if text := string(part.GetStringBytes("text")); text != "" {
					texts = append(texts, text)
				}
			}
		}
	}
	return texts
}
