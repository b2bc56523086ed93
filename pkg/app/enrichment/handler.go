// Package enrichment runs the asynchronous post-turn jobs: analytics
// recording, follow-up suggestions and session titles.
package enrichment

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/promptgate/promptgate/pkg/domain/chat"
	"github.com/promptgate/promptgate/pkg/infra/tasks"
)

const (
	suggestionSourceLimit = 10
	titleSourceMessages   = 4

	eventSuggestionGenerated = "suggestion_generated"
)

type Handler struct {
	chats     chat.Repository
	generator Generator
	logger    *logrus.Logger
}

func NewHandler(chats chat.Repository, generator Generator, logger *logrus.Logger) *Handler {
	return &Handler{chats: chats, generator: generator, logger: logger}
}

func (h *Handler) Handle(ctx context.Context, job tasks.Job) error {
	switch job.Type {
	case tasks.JobProcessAnalytics:
		return h.processAnalytics(ctx, job)
	case tasks.JobGenerateSuggestions:
		return h.generateSuggestions(ctx, job)
	case tasks.JobGenerateSessionTitle:
		return h.generateSessionTitle(ctx, job)
	default:
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
}

func (h *Handler) processAnalytics(ctx context.Context, job tasks.Job) error {
	payload, err := job.DecodeAnalytics()
	if err != nil {
		return err
	}
	userID, err := uuid.Parse(payload.UserID)
	if err != nil {
		return fmt.Errorf("invalid user id: %w", err)
	}
	sessionID, err := uuid.Parse(payload.SessionID)
	if err != nil {
		return fmt.Errorf("invalid session id: %w", err)
	}

	metadata, err := json.Marshal(payload.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	return h.chats.SaveEvent(ctx, job.Schema, &chat.AnalyticsEvent{
		ID:        uuid.New(),
		EventType: payload.EventType,
		UserID:    userID,
		SessionID: sessionID,
		Metadata:  string(metadata),
	})
}

func (h *Handler) generateSuggestions(ctx context.Context, job tasks.Job) error {
	payload, err := job.DecodeSuggestions()
	if err != nil {
		return err
	}
	userID, err := uuid.Parse(payload.UserID)
	if err != nil {
		return fmt.Errorf("invalid user id: %w", err)
	}
	sessionID, err := uuid.Parse(payload.SessionID)
	if err != nil {
		return fmt.Errorf("invalid session id: %w", err)
	}

	conversation, err := h.chats.RecentMessages(ctx, job.Schema, sessionID, suggestionSourceLimit)
	if err != nil {
		return err
	}
	if len(conversation) == 0 {
		return nil
	}

	orgContext := fmt.Sprintf("Industry vertical: %s.", payload.Vertical)
	if payload.DocContext != "" {
		orgContext += "\n" + payload.DocContext
	}

	suggestions, err := h.generator.Suggestions(ctx, conversation, orgContext)
	if err != nil {
		return err
	}

	for _, suggestion := range suggestions {
		metadata, err := json.Marshal(map[string]string{"suggestion": suggestion})
		if err != nil {
			continue
		}
		event := &chat.AnalyticsEvent{
			ID:        uuid.New(),
			EventType: eventSuggestionGenerated,
			UserID:    userID,
			SessionID: sessionID,
			Metadata:  string(metadata),
		}
		if err := h.chats.SaveEvent(ctx, job.Schema, event); err != nil {
			h.logger.WithError(err).Warn("failed to record suggestion")
		}
	}
	return nil
}

func (h *Handler) generateSessionTitle(ctx context.Context, job tasks.Job) error {
	payload, err := job.DecodeTitle()
	if err != nil {
		return err
	}
	sessionID, err := uuid.Parse(payload.SessionID)
	if err != nil {
		return fmt.Errorf("invalid session id: %w", err)
	}

	conversation, err := h.chats.ListMessages(ctx, job.Schema, sessionID)
	if err != nil {
		return err
	}
	if len(conversation) == 0 {
		return nil
	}
	if len(conversation) > titleSourceMessages {
		conversation = conversation[:titleSourceMessages]
	}

	title, err := h.generator.SessionTitle(ctx, conversation)
	if err != nil {
		return err
	}
	if title == "" {
		return nil
	}
	return h.chats.SetSessionTitle(ctx, job.Schema, sessionID, title)
}
