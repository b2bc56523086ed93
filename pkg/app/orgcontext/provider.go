// Package orgcontext resolves the per-tenant context folded into every
// upstream conversation: the industry vertical's system prompt plus excerpts
// of the organization's reference documents.
package orgcontext

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/promptgate/promptgate/pkg/domain/org"
)

const (
	cacheKeyPrefix = "orgcontext:"
	cacheTTL       = 5 * time.Minute

	maxDocuments    = 5
	docContextLimit = 500
	docContextTopN  = 2
)

// Context is the resolved tenant context for one turn.
type Context struct {
	Vertical     string            `json:"vertical"`
	Docs         []DocumentExcerpt `json:"docs"`
	SystemPrompt string            `json:"system_prompt"`
	// DocContext is the condensed document text handed to enrichment jobs.
	DocContext string `json:"doc_context"`
	// AgentName is set when the calling user has an active agent assigned;
	// the agent's prompt then leads SystemPrompt. Never cached: agents are
	// per-user, the rest of the context is per-schema.
	AgentName string `json:"-"`
}

//go:generate mockery --name=Provider --dir=. --output=./mocks --filename=provider_mock.go --case=underscore --with-expecter

// Provider resolves a tenant's context. Resolution never fails the chat
// path: lookup errors degrade to the general vertical with no documents.
type Provider interface {
	Context(ctx context.Context, schema string, userID uuid.UUID) Context
}

type cachedProvider struct {
	orgs   org.Repository
	cache  *redis.Client
	logger *logrus.Logger
}

func NewCachedProvider(orgs org.Repository, cache *redis.Client, logger *logrus.Logger) Provider {
	return &cachedProvider{orgs: orgs, cache: cache, logger: logger}
}

func (p *cachedProvider) Context(ctx context.Context, schema string, userID uuid.UUID) Context {
	oc := p.orgContext(ctx, schema)

	agent, err := p.orgs.AgentForUser(ctx, schema, userID)
	if err != nil {
		p.logger.WithError(err).WithField("schema", schema).
			Warn("failed to load agent assignment, continuing without it")
		return oc
	}
	if agent != nil && agent.SystemPrompt != "" {
		oc.AgentName = agent.Name
		oc.SystemPrompt = agent.SystemPrompt + "\n\n" + oc.SystemPrompt
	}
	return oc
}

// orgContext returns the per-schema part of the context, cached for a
// short TTL.
func (p *cachedProvider) orgContext(ctx context.Context, schema string) Context {
	key := cacheKeyPrefix + schema

	if cached, err := p.cache.Get(ctx, key).Result(); err == nil {
		var oc Context
		if err := json.Unmarshal([]byte(cached), &oc); err == nil {
			return oc
		}
	}

	oc := p.resolve(ctx, schema)

	if data, err := json.Marshal(oc); err == nil {
		if err := p.cache.Set(ctx, key, data, cacheTTL).Err(); err != nil {
			p.logger.WithError(err).Debug("failed to cache org context")
		}
	}
	return oc
}

func (p *cachedProvider) resolve(ctx context.Context, schema string) Context {
	general := Context{
		Vertical:     VerticalGeneral,
		SystemPrompt: BuildSystemPrompt(VerticalGeneral, nil),
	}

	vertical, err := p.orgs.Vertical(ctx, schema)
	if err != nil {
		p.logger.WithError(err).WithField("schema", schema).
			Warn("failed to resolve vertical, using general context")
		return general
	}
	if vertical == "" {
		vertical = VerticalGeneral
	}

	documents, err := p.orgs.Documents(ctx, schema, maxDocuments)
	if err != nil {
		p.logger.WithError(err).WithField("schema", schema).
			Warn("failed to load documents, continuing without them")
		documents = nil
	}

	docs := make([]DocumentExcerpt, 0, len(documents))
	for _, d := range documents {
		docs = append(docs, DocumentExcerpt{Filename: d.Filename, Text: d.ContentText})
	}

	return Context{
		Vertical:     vertical,
		Docs:         docs,
		SystemPrompt: BuildSystemPrompt(vertical, docs),
		DocContext:   condenseDocs(docs),
	}
}

// condenseDocs produces the short document digest attached to enrichment
// jobs.
func condenseDocs(docs []DocumentExcerpt) string {
	var parts []string
	for i, d := range docs {
		if i >= docContextTopN {
			break
		}
		text := d.Text
		if len(text) > docContextLimit {
			text = text[:docContextLimit]
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, "\n")
}
