package orgcontext_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptgate/promptgate/pkg/app/orgcontext"
	"github.com/promptgate/promptgate/pkg/domain/org"
)

type stubOrgs struct {
	vertical    string
	verticalErr error
	docs        []org.Document
	docsErr     error
	agent       *org.Agent
	agentErr    error
}

func (s *stubOrgs) Vertical(_ context.Context, _ string) (string, error) {
	return s.vertical, s.verticalErr
}

func (s *stubOrgs) Documents(_ context.Context, _ string, _ int) ([]org.Document, error) {
	return s.docs, s.docsErr
}

func (s *stubOrgs) AgentForUser(_ context.Context, _ string, _ uuid.UUID) (*org.Agent, error) {
	return s.agent, s.agentErr
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestContext_ResolvesVerticalAndDocuments(t *testing.T) {
	cache, mock := redismock.NewClientMock()
	mock.ExpectGet("orgcontext:org_acme").RedisNil()
	mock.Regexp().ExpectSet("orgcontext:org_acme", `.*`, 5*time.Minute).SetVal("OK")

	orgs := &stubOrgs{
		vertical: "legal",
		docs: []org.Document{
			{Filename: "handbook.pdf", ContentText: "Our firm handles corporate law."},
		},
	}
	provider := orgcontext.NewCachedProvider(orgs, cache, quietLogger())

	oc := provider.Context(context.Background(), "org_acme", uuid.Nil)

	assert.Equal(t, "legal", oc.Vertical)
	assert.Contains(t, oc.SystemPrompt, "legal research AI assistant")
	assert.Contains(t, oc.SystemPrompt, "--- handbook.pdf ---")
	assert.Contains(t, oc.SystemPrompt, "Our firm handles corporate law.")
	assert.Equal(t, "Our firm handles corporate law.", oc.DocContext)
}

func TestContext_CacheHitSkipsRepository(t *testing.T) {
	cached := orgcontext.Context{
		Vertical:     "finance",
		SystemPrompt: "cached prompt",
	}
	data, err := json.Marshal(cached)
	require.NoError(t, err)

	cache, mock := redismock.NewClientMock()
	mock.ExpectGet("orgcontext:org_acme").SetVal(string(data))

	orgs := &stubOrgs{verticalErr: errors.New("repository must not be called")}
	provider := orgcontext.NewCachedProvider(orgs, cache, quietLogger())

	oc := provider.Context(context.Background(), "org_acme", uuid.Nil)

	assert.Equal(t, "finance", oc.Vertical)
	assert.Equal(t, "cached prompt", oc.SystemPrompt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContext_RepositoryFailureFallsBackToGeneral(t *testing.T) {
	cache, mock := redismock.NewClientMock()
	mock.ExpectGet("orgcontext:org_acme").RedisNil()
	mock.Regexp().ExpectSet("orgcontext:org_acme", `.*`, 5*time.Minute).SetVal("OK")

	orgs := &stubOrgs{verticalErr: errors.New("connection refused")}
	provider := orgcontext.NewCachedProvider(orgs, cache, quietLogger())

	oc := provider.Context(context.Background(), "org_acme", uuid.Nil)

	assert.Equal(t, "general", oc.Vertical)
	assert.Contains(t, oc.SystemPrompt, "helpful, accurate, and concise")
	assert.Empty(t, oc.Docs)
}

func TestContext_AgentPromptLeadsSystemPrompt(t *testing.T) {
	cache, mock := redismock.NewClientMock()
	mock.ExpectGet("orgcontext:org_acme").RedisNil()
	mock.Regexp().ExpectSet("orgcontext:org_acme", `.*`, 5*time.Minute).SetVal("OK")

	orgs := &stubOrgs{
		vertical: "legal",
		agent: &org.Agent{
			ID:           uuid.New(),
			Name:         "Paralegal",
			SystemPrompt: "You are Paralegal, the firm's research assistant.",
			Active:       true,
		},
	}
	provider := orgcontext.NewCachedProvider(orgs, cache, quietLogger())

	oc := provider.Context(context.Background(), "org_acme", uuid.New())

	assert.Equal(t, "Paralegal", oc.AgentName)
	assert.True(t, strings.HasPrefix(oc.SystemPrompt,
		"You are Paralegal, the firm's research assistant.\n\n"))
	assert.Contains(t, oc.SystemPrompt, "legal research AI assistant")
}

func TestContext_AgentNotCachedWithSchemaContext(t *testing.T) {
	// A cache hit on the schema-level context must still go through the
	// per-user agent lookup.
	cached := orgcontext.Context{Vertical: "finance", SystemPrompt: "cached prompt"}
	data, err := json.Marshal(cached)
	require.NoError(t, err)

	cache, mock := redismock.NewClientMock()
	mock.ExpectGet("orgcontext:org_acme").SetVal(string(data))

	orgs := &stubOrgs{agent: &org.Agent{Name: "Analyst", SystemPrompt: "You are Analyst."}}
	provider := orgcontext.NewCachedProvider(orgs, cache, quietLogger())

	oc := provider.Context(context.Background(), "org_acme", uuid.New())

	assert.Equal(t, "You are Analyst.\n\ncached prompt", oc.SystemPrompt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContext_AgentLookupFailureLeavesPromptUnchanged(t *testing.T) {
	cache, mock := redismock.NewClientMock()
	mock.ExpectGet("orgcontext:org_acme").RedisNil()
	mock.Regexp().ExpectSet("orgcontext:org_acme", `.*`, 5*time.Minute).SetVal("OK")

	orgs := &stubOrgs{vertical: "tech", agentErr: errors.New("connection refused")}
	provider := orgcontext.NewCachedProvider(orgs, cache, quietLogger())

	oc := provider.Context(context.Background(), "org_acme", uuid.New())

	assert.Empty(t, oc.AgentName)
	assert.Equal(t, "tech", oc.Vertical)
}

func TestContext_UnknownVerticalUsesGeneralPrompt(t *testing.T) {
	assert.Equal(t, orgcontext.VerticalPrompt("general"), orgcontext.VerticalPrompt("aerospace"))
}

func TestBuildSystemPrompt_TruncatesLongDocuments(t *testing.T) {
	long := strings.Repeat("x", 3000)
	prompt := orgcontext.BuildSystemPrompt("tech", []orgcontext.DocumentExcerpt{
		{Filename: "spec.txt", Text: long},
	})

	assert.Contains(t, prompt, "--- spec.txt ---")
	assert.Less(t, len(prompt), 3000)
}
