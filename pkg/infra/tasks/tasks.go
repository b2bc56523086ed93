// Package tasks carries post-turn enrichment jobs from the gateway to the
// worker over kafka.
package tasks

import (
	"context"
	"fmt"

	"github.com/mitchellh/mapstructure"
)

const (
	JobProcessAnalytics     = "process_analytics"
	JobGenerateSuggestions  = "generate_suggestions"
	JobGenerateSessionTitle = "generate_session_title"
)

// Job is one enrichment unit of work. Payload shape depends on Type; use
// the Decode helpers to get the typed form.
type Job struct {
	Type    string                 `json:"type"`
	Schema  string                 `json:"schema"`
	Payload map[string]interface{} `json:"payload"`
}

type AnalyticsPayload struct {
	EventType string                 `mapstructure:"event_type"`
	UserID    string                 `mapstructure:"user_id"`
	SessionID string                 `mapstructure:"session_id"`
	Metadata  map[string]interface{} `mapstructure:"metadata"`
}

type SuggestionsPayload struct {
	SessionID  string `mapstructure:"session_id"`
	UserID     string `mapstructure:"user_id"`
	Vertical   string `mapstructure:"vertical"`
	DocContext string `mapstructure:"doc_context"`
}

type TitlePayload struct {
	SessionID string `mapstructure:"session_id"`
}

func (j Job) DecodeAnalytics() (AnalyticsPayload, error) {
	var p AnalyticsPayload
	if err := mapstructure.Decode(j.Payload, &p); err != nil {
		return p, fmt.Errorf("invalid %s payload: %w", j.Type, err)
	}
	return p, nil
}

func (j Job) DecodeSuggestions() (SuggestionsPayload, error) {
	var p SuggestionsPayload
	if err := mapstructure.Decode(j.Payload, &p); err != nil {
		return p, fmt.Errorf("invalid %s payload: %w", j.Type, err)
	}
	return p, nil
}

func (j Job) DecodeTitle() (TitlePayload, error) {
	var p TitlePayload
	if err := mapstructure.Decode(j.Payload, &p); err != nil {
		return p, fmt.Errorf("invalid %s payload: %w", j.Type, err)
	}
	return p, nil
}

//go:generate mockery --name=Publisher --dir=. --output=./mocks --filename=publisher_mock.go --case=underscore --with-expecter

// Publisher hands a job to the queue. Publishing happens after the turn's
// stream has finished; failures must not affect the chat path.
type Publisher interface {
	Publish(ctx context.Context, job Job) error
}
