// Package recognizer calls the external statistical NER service used by the
// policy evaluator's entity layer.
package recognizer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	analyzePath = "/v1/analyze"

	// AcceptanceThreshold is the minimum confidence for a detection to count
	// as a match. A hit at exactly the threshold is accepted. Lowering this
	// is a policy decision made here, not in rules.
	AcceptanceThreshold = 0.85

	requestTimeout = 10 * time.Second
)

// Hit is one accepted statistical detection.
type Hit struct {
	EntityType string  `json:"entity_type"`
	Score      float64 `json:"score"`
	Start      int     `json:"start"`
	End        int     `json:"end"`
}

//go:generate mockery --name=Client --dir=. --output=./mocks --filename=client_mock.go --case=underscore --with-expecter

type Client interface {
	// Analyze returns the accepted detections for the given entity types.
	Analyze(ctx context.Context, text string, entities []string) ([]Hit, error)
}

type analyzeRequest struct {
	Text     string   `json:"text"`
	Entities []string `json:"entities"`
	Language string   `json:"language"`
}

type httpClient struct {
	baseURL string
	token   string
	client  *http.Client
	logger  *logrus.Logger
}

func NewHTTPClient(baseURL, token string, logger *logrus.Logger) Client {
	return &httpClient{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: requestTimeout},
		logger:  logger,
	}
}

func (c *httpClient) Analyze(ctx context.Context, text string, entities []string) ([]Hit, error) {
	body, err := json.Marshal(analyzeRequest{
		Text:     text,
		Entities: entities,
		Language: "en",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal analyze request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+analyzePath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create analyze request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Token", c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("recognizer request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var preview bytes.Buffer
		_, _ = io.CopyN(&preview, resp.Body, 4096)
		return nil, fmt.Errorf("recognizer returned status %d: %s", resp.StatusCode, preview.String())
	}

	var raw []Hit
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("invalid recognizer response: %w", err)
	}

	return Accepted(raw), nil
}

// Accepted filters detections by the acceptance threshold.
func Accepted(hits []Hit) []Hit {
	var accepted []Hit
	for _, h := range hits {
		if h.Score >= AcceptanceThreshold {
			accepted = append(accepted, h)
		}
	}
	return accepted
}
