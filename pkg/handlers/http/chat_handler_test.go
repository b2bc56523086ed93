package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptgate/promptgate/pkg/app/turn"
	domain "github.com/promptgate/promptgate/pkg/domain/errors"
	handlers "github.com/promptgate/promptgate/pkg/handlers/http"
)

type stubOrchestrator struct {
	req    turn.Request
	events []turn.Event
	err    error
}

func (s *stubOrchestrator) CompleteTurn(_ context.Context, req turn.Request) (<-chan turn.Event, error) {
	s.req = req
	if s.err != nil {
		return nil, s.err
	}
	out := make(chan turn.Event, len(s.events))
	for _, evt := range s.events {
		out <- evt
	}
	close(out)
	return out, nil
}

func newChatApp(orch *stubOrchestrator) *fiber.App {
	app := fiber.New()
	app.Post("/chat", handlers.NewChatHandler(logrus.New(), orch).Handle)
	return app
}

func doChat(t *testing.T, app *fiber.App, body map[string]interface{}, headers map[string]string) (int, string) {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/chat", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(raw)
}

func tenantHeaders(userID uuid.UUID) map[string]string {
	return map[string]string{
		handlers.OrgSchemaHeader: "org_acme",
		handlers.UserIDHeader:    userID.String(),
	}
}

func TestChatHandler_StreamsEventsAsSSE(t *testing.T) {
	userID := uuid.New()
	sessionID := uuid.New()
	orch := &stubOrchestrator{events: []turn.Event{
		{Chunk: "Hel"},
		{Chunk: "lo"},
		{Done: true, SessionID: sessionID},
	}}
	app := newChatApp(orch)

	status, body := doChat(t, app, map[string]interface{}{
		"message":    "hi there",
		"gpt_target": "openai",
	}, tenantHeaders(userID))

	assert.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, body, `data: {"chunk":"Hel"}`)
	assert.Contains(t, body, `data: {"chunk":"lo"}`)
	assert.Contains(t, body, `"done":true`)
	assert.Contains(t, body, sessionID.String())

	assert.Equal(t, "org_acme", orch.req.Schema)
	assert.Equal(t, userID, orch.req.UserID)
	assert.Equal(t, "openai", orch.req.Provider)
	assert.Equal(t, "hi there", orch.req.Message)
	assert.Equal(t, uuid.Nil, orch.req.SessionID)
}

func TestChatHandler_BlockedTurn(t *testing.T) {
	orch := &stubOrchestrator{events: []turn.Event{
		{Blocked: true, Reason: "Matched blocked keyword"},
	}}
	app := newChatApp(orch)

	status, body := doChat(t, app, map[string]interface{}{
		"message":    "secret stuff",
		"gpt_target": "openai",
	}, tenantHeaders(uuid.New()))

	assert.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, body, `"blocked":true`)
	assert.Contains(t, body, "Matched blocked keyword")
	assert.NotContains(t, body, `"done"`)
}

func TestChatHandler_StreamError(t *testing.T) {
	orch := &stubOrchestrator{events: []turn.Event{
		{Chunk: "par"},
		{Err: assert.AnError},
	}}
	app := newChatApp(orch)

	status, body := doChat(t, app, map[string]interface{}{
		"message":    "hi",
		"gpt_target": "openai",
	}, tenantHeaders(uuid.New()))

	assert.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, body, `"chunk":"par"`)
	assert.Contains(t, body, `"error"`)
}

func TestChatHandler_UnsupportedProvider(t *testing.T) {
	orch := &stubOrchestrator{err: domain.NewUnsupportedProviderError("cohere")}
	app := newChatApp(orch)

	status, body := doChat(t, app, map[string]interface{}{
		"message":    "hi",
		"gpt_target": "cohere",
	}, tenantHeaders(uuid.New()))

	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, body, "unsupported provider")
}

func TestChatHandler_ForeignSessionNotFound(t *testing.T) {
	orch := &stubOrchestrator{err: domain.NewNotFoundError("session", uuid.New())}
	app := newChatApp(orch)

	status, body := doChat(t, app, map[string]interface{}{
		"message":    "hi",
		"gpt_target": "openai",
		"session_id": uuid.New().String(),
	}, tenantHeaders(uuid.New()))

	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Contains(t, body, "session not found")
}

func TestChatHandler_MissingTenantHeaders(t *testing.T) {
	orch := &stubOrchestrator{}
	app := newChatApp(orch)

	status, body := doChat(t, app, map[string]interface{}{
		"message":    "hi",
		"gpt_target": "openai",
	}, nil)

	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Contains(t, body, handlers.OrgSchemaHeader)
}

func TestChatHandler_RejectsInvalidSchema(t *testing.T) {
	orch := &stubOrchestrator{}
	app := newChatApp(orch)

	status, _ := doChat(t, app, map[string]interface{}{
		"message":    "hi",
		"gpt_target": "openai",
	}, map[string]string{
		handlers.OrgSchemaHeader: `org";drop table`,
		handlers.UserIDHeader:    uuid.New().String(),
	})

	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestChatHandler_EmptyMessage(t *testing.T) {
	orch := &stubOrchestrator{}
	app := newChatApp(orch)

	status, body := doChat(t, app, map[string]interface{}{
		"message":    "",
		"gpt_target": "openai",
	}, tenantHeaders(uuid.New()))

	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, body, "message is required")
}
