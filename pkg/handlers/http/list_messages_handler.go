package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/promptgate/promptgate/pkg/domain/chat"
	domain "github.com/promptgate/promptgate/pkg/domain/errors"
)

type listMessagesHandler struct {
	logger *logrus.Logger
	chats  chat.Repository
}

func NewListMessagesHandler(logger *logrus.Logger, chats chat.Repository) Handler {
	return &listMessagesHandler{logger: logger, chats: chats}
}

func (h *listMessagesHandler) Handle(c *fiber.Ctx) error {
	t, err := tenantFromRequest(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	}

	sessionID, err := uuid.Parse(c.Params("session_id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid session id"})
	}

	// Ownership check before listing: a session that belongs to another
	// user looks identical to one that does not exist.
	if _, err := h.chats.GetSession(c.Context(), t.Schema, sessionID, t.UserID); err != nil {
		if domain.IsNotFound(err) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "session not found"})
		}
		h.logger.WithError(err).Error("failed to load session")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	messages, err := h.chats.ListMessages(c.Context(), t.Schema, sessionID)
	if err != nil {
		h.logger.WithError(err).Error("failed to list messages")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}
	if messages == nil {
		messages = []chat.Message{}
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"messages": messages})
}
