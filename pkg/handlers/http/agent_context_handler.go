package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/promptgate/promptgate/pkg/domain/org"
)

type agentContextHandler struct {
	logger *logrus.Logger
	orgs   org.Repository
}

func NewAgentContextHandler(logger *logrus.Logger, orgs org.Repository) Handler {
	return &agentContextHandler{logger: logger, orgs: orgs}
}

// Handle returns the caller's assigned agent, or a JSON null when the user
// has no active assignment.
func (h *agentContextHandler) Handle(c *fiber.Ctx) error {
	t, err := tenantFromRequest(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	}

	agent, err := h.orgs.AgentForUser(c.Context(), t.Schema, t.UserID)
	if err != nil {
		h.logger.WithError(err).Error("failed to load agent assignment")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	return c.Status(fiber.StatusOK).JSON(agent)
}
