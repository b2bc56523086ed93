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

const (
	anthropicBaseURL   = "https://api.anthropic.com"
	anthropicVersion   = "2023-06-01"
	anthropicMaxTokens = 4096
)

type anthropicAdapter struct {
	baseURL string
	client  *http.Client
}

func NewAnthropicAdapter(baseURL string, client *http.Client) Adapter {
	return &anthropicAdapter{baseURL: baseURL, client: client}
}

type anthropicStreamRequest struct {
	Model     string    `json:"model"`
	Messages  []Message `json:"messages"`
	System    string    `json:"system,omitempty"`
	Stream    bool      `json:"stream"`
	MaxTokens int       `json:"max_tokens"`
}

// Stream speaks the event-typed SSE format: every data line carries a typed
// event and only content_block_delta events contribute text. The stream
// ends with a message_stop event followed by the server closing the body.
func (a *anthropicAdapter) Stream(
	ctx context.Context,
	apiKey, model string,
	messages []Message,
) (<-chan Chunk, error) {
	reqBody := anthropicStreamRequest{
		Model:     model,
		Stream:    true,
		MaxTokens: anthropicMaxTokens,
	}
	// The system turn travels in its own field on this wire format.
	for _, m := range messages {
		if m.Role == "system" {
			reqBody.System = m.Content
			continue
		}
		reqBody.Messages = append(reqBody.Messages, m)
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal stream request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create stream request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := a.client.Do(req)
	if err != nil {
		metrics.UpstreamErrorsTotal.WithLabelValues(connection.ProviderAnthropic).Inc()
		return nil, fmt.Errorf("stream request failed: %w", err)
	}
	if err := checkStatus(resp); err != nil {
		resp.Body.Close()
		metrics.UpstreamErrorsTotal.WithLabelValues(connection.ProviderAnthropic).Inc()
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

			v, err := p.Parse(strings.TrimSpace(strings.TrimPrefix(line, "data:")))
			if err != nil {
				continue
			}
			if string(v.GetStringBytes("type")) != "content_block_delta" {
				continue
			}
			text := string(v.GetStringBytes("delta", "text"))
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
			metrics.UpstreamErrorsTotal.WithLabelValues(connection.ProviderAnthropic).Inc()
			select {
			case <-ctx.Done():
			case out <- Chunk{Err: fmt.Errorf("stream read failed: %w", err)}:
			}
		}
	}()
	return out, nil
}
