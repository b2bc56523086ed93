// Package proxy resolves a tenant's provider credentials and opens the
// upstream token stream for a conversation.
package proxy

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/promptgate/promptgate/pkg/domain/connection"
	"github.com/promptgate/promptgate/pkg/infra/secrets"
	"github.com/promptgate/promptgate/pkg/infra/streaming"
)

// defaultModels is the model used when a connection does not pin one.
var defaultModels = map[string]string{
	connection.ProviderOpenAI:    "gpt-4o",
	connection.ProviderAnthropic: "claude-3-5-sonnet-20241022",
	connection.ProviderGemini:    "gemini-1.5-pro",
}

//go:generate mockery --name=Proxy --dir=. --output=./mocks --filename=proxy_mock.go --case=underscore --with-expecter

type Proxy interface {
	// Open looks up the tenant's active credential for the provider,
	// decrypts it and starts the upstream stream. The decrypted key lives
	// only on this call's stack.
	Open(
		ctx context.Context,
		schema, provider string,
		messages []streaming.Message,
		systemPrompt string,
	) (<-chan streaming.Chunk, error)
}

type streamProxy struct {
	connections connection.Repository
	cipher      *secrets.Cipher
	adapters    streaming.AdapterLocator
	logger      *logrus.Logger
}

func NewProxy(
	connections connection.Repository,
	cipher *secrets.Cipher,
	adapters streaming.AdapterLocator,
	logger *logrus.Logger,
) Proxy {
	return &streamProxy{
		connections: connections,
		cipher:      cipher,
		adapters:    adapters,
		logger:      logger,
	}
}

func (p *streamProxy) Open(
	ctx context.Context,
	schema, provider string,
	messages []streaming.Message,
	systemPrompt string,
) (<-chan streaming.Chunk, error) {
	adapter, err := p.adapters.Get(provider)
	if err != nil {
		return nil, err
	}

	conn, err := p.connections.ActiveByProvider(ctx, schema, provider)
	if err != nil {
		return nil, err
	}

	apiKey, err := p.cipher.Decrypt(conn.EncryptedAPIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt credential for provider %s: %w", provider, err)
	}

	model := conn.Model
	if model == "" {
		model = defaultModels[provider]
	}

	final := messages
	if systemPrompt != "" {
		final = append([]streaming.Message{{Role: "system", Content: systemPrompt}}, messages...)
	}

	p.logger.WithFields(logrus.Fields{
		"provider": provider,
		"model":    model,
		"messages": len(final),
	}).Debug("opening upstream stream")

	return adapter.Stream(ctx, apiKey, model, final)
}
