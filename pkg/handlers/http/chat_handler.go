package http

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/promptgate/promptgate/pkg/app/turn"
	domain "github.com/promptgate/promptgate/pkg/domain/errors"
)

type chatRequest struct {
	Message   string    `json:"message"`
	Provider  string    `json:"gpt_target"`
	SessionID uuid.UUID `json:"session_id"`
}

type chatHandler struct {
	logger       *logrus.Logger
	orchestrator turn.Orchestrator
}

func NewChatHandler(logger *logrus.Logger, orchestrator turn.Orchestrator) Handler {
	return &chatHandler{logger: logger, orchestrator: orchestrator}
}

// Handle runs one chat turn and streams the result as SSE. Policy and
// session errors surface as JSON statuses before the stream starts;
// anything after the first byte arrives as an SSE error event.
func (h *chatHandler) Handle(c *fiber.Ctx) error {
	t, err := tenantFromRequest(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	}

	var req chatRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.Message == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "message is required"})
	}

	events, err := h.orchestrator.CompleteTurn(c.Context(), turn.Request{
		Schema:    t.Schema,
		UserID:    t.UserID,
		SessionID: req.SessionID,
		Provider:  req.Provider,
		Message:   req.Message,
	})
	if err != nil {
		return h.turnError(c, err)
	}

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		for evt := range events {
			writeSSE(w, eventPayload(evt))
		}
	})
	return nil
}

func (h *chatHandler) turnError(c *fiber.Ctx, err error) error {
	var unsupported *domain.UnsupportedProviderError
	switch {
	case errors.As(err, &unsupported):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case domain.IsNotFound(err):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "session not found"})
	default:
		h.logger.WithError(err).Error("failed to start chat turn")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}
}

func eventPayload(evt turn.Event) map[string]interface{} {
	switch {
	case evt.Blocked:
		return map[string]interface{}{"blocked": true, "reason": evt.Reason}
	case evt.Err != nil:
		return map[string]interface{}{"error": evt.Err.Error()}
	case evt.Done:
		return map[string]interface{}{"done": true, "session_id": evt.SessionID.String()}
	default:
		return map[string]interface{}{"chunk": evt.Chunk}
	}
}

func writeSSE(w *bufio.Writer, payload map[string]interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
	_ = w.Flush()
}
