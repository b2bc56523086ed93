package streaming

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/valyala/fastjson"

	"github.com/promptgate/promptgate/pkg/domain/connection"
	"github.com/promptgate/promptgate/pkg/infra/metrics"
)

const openAIBaseURL = "https://api.openai.com"

type openAIAdapter struct {
	baseURL string
	client  *http.Client
}

func NewOpenAIAdapter(baseURL string, client *http.Client) Adapter {
	return &openAIAdapter{baseURL: baseURL, client: client}
}

type openAIStreamRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
}

func (a *openAIAdapter) Stream(
	ctx context.Context,
	apiKey, model string,
	messages []Message,
) (<-chan Chunk, error) {
	body, err := json.Marshal(openAIStreamRequest{Model: model, Messages: messages, Stream: true})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal stream request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create stream request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := a.client.Do(req)
	if err != nil {
		metrics.UpstreamErrorsTotal.WithLabelValues(connection.ProviderOpenAI).Inc()
		return nil, fmt.Errorf("stream request failed: %w", err)
	}
	if err := checkStatus(resp); err != nil {
		resp.Body.Close()
		metrics.UpstreamErrorsTotal.WithLabelValues(connection.ProviderOpenAI).Inc()
		return nil, err
	}

	streamBody := newIdleBody(resp.Body, streamIdleTimeout)

	out := make(chan Chunk)
	go func() {
		defer close(out)
		defer streamBody.Close()

		var p fastjson.Parser
		sc := newSSEScanner(streamBody)
		for sc.Scan() {
			line := sc.Text()
			if !strings.HasPrefix(line, "data:") {
				continue
			}
			data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if data == "[DONE]" {
				return
			}

			v, err := p.Parse(data)
			if err != nil {
				continue
			}
			text := string(v.GetStringBytes("choices", "0", "delta", "content"))
			if text == "" {
				continue
			}
			select {
			case <-ctx.Done():
				return
			case out <- Chunk{Text: text}:
			}
		}

		if err := sc.Err(); err != nil && !benignClose(err) {
			metrics.UpstreamErrorsTotal.WithLabelValues(connection.ProviderOpenAI).Inc()
			select {
			case <-ctx.Done():
			case out <- Chunk{Err: fmt.Errorf("stream read failed: %w", err)}:
			}
		}
	}()
	return out, nil
}
