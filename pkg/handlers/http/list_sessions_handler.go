package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/promptgate/promptgate/pkg/domain/chat"
)

type listSessionsHandler struct {
	logger *logrus.Logger
	chats  chat.Repository
}

func NewListSessionsHandler(logger *logrus.Logger, chats chat.Repository) Handler {
	return &listSessionsHandler{logger: logger, chats: chats}
}

func (h *listSessionsHandler) Handle(c *fiber.Ctx) error {
	t, err := tenantFromRequest(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	}

	sessions, err := h.chats.ListSessions(c.Context(), t.Schema, t.UserID)
	if err != nil {
		h.logger.WithError(err).Error("failed to list sessions")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}
	if sessions == nil {
		sessions = []chat.Session{}
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"sessions": sessions})
}
