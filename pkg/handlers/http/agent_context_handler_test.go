package http_test

import (
	"context"
	"errors"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/promptgate/promptgate/pkg/domain/org"
	handlers "github.com/promptgate/promptgate/pkg/handlers/http"
)

type stubOrgRepo struct {
	org.Repository

	agent    *org.Agent
	agentErr error
}

func (s *stubOrgRepo) AgentForUser(_ context.Context, _ string, _ uuid.UUID) (*org.Agent, error) {
	return s.agent, s.agentErr
}

func TestAgentContextHandler_ReturnsAssignedAgent(t *testing.T) {
	orgs := &stubOrgRepo{agent: &org.Agent{
		ID:           uuid.New(),
		Name:         "Paralegal",
		SystemPrompt: "You are Paralegal.",
		Provider:     "openai",
		Model:        "gpt-4o",
		Active:       true,
	}}
	app := fiber.New()
	app.Get("/chat/agent-context", handlers.NewAgentContextHandler(logrus.New(), orgs).Handle)

	status, body := doGet(t, app, "/chat/agent-context", tenantHeaders(uuid.New()))

	assert.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, body, `"name":"Paralegal"`)
	assert.Contains(t, body, `"system_prompt":"You are Paralegal."`)
}

func TestAgentContextHandler_NoAssignmentReturnsNull(t *testing.T) {
	app := fiber.New()
	app.Get("/chat/agent-context", handlers.NewAgentContextHandler(logrus.New(), &stubOrgRepo{}).Handle)

	status, body := doGet(t, app, "/chat/agent-context", tenantHeaders(uuid.New()))

	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "null", body)
}

func TestAgentContextHandler_RepositoryFailure(t *testing.T) {
	orgs := &stubOrgRepo{agentErr: errors.New("connection refused")}
	app := fiber.New()
	app.Get("/chat/agent-context", handlers.NewAgentContextHandler(logrus.New(), orgs).Handle)

	status, _ := doGet(t, app, "/chat/agent-context", tenantHeaders(uuid.New()))

	assert.Equal(t, fiber.StatusInternalServerError, status)
}

func TestAgentContextHandler_MissingHeaders(t *testing.T) {
	app := fiber.New()
	app.Get("/chat/agent-context", handlers.NewAgentContextHandler(logrus.New(), &stubOrgRepo{}).Handle)

	status, _ := doGet(t, app, "/chat/agent-context", nil)

	assert.Equal(t, fiber.StatusUnauthorized, status)
}
