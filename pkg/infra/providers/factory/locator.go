package factory

import (
	"fmt"

	"github.com/promptgate/promptgate/pkg/domain/connection"
	"github.com/promptgate/promptgate/pkg/infra/providers"
	"github.com/promptgate/promptgate/pkg/infra/providers/anthropic"
	"github.com/promptgate/promptgate/pkg/infra/providers/gemini"
	"github.com/promptgate/promptgate/pkg/infra/providers/openai"
)

//go:generate mockery --name=ProviderLocator --dir=. --output=./mocks --filename=provider_locator_mock.go --case=underscore --with-expecter

type ProviderLocator interface {
	Get(provider string) (providers.Client, error)
}

type providerLocator struct {
	openai    providers.Client
	anthropic providers.Client
	gemini    providers.Client
}

func NewProviderLocator() ProviderLocator {
	return &providerLocator{
		openai:    openai.NewOpenaiClient(),
		anthropic: anthropic.NewAnthropicClient(),
		gemini:    gemini.NewGeminiClient(),
	}
}

func (f *providerLocator) Get(provider string) (providers.Client, error) {
	switch provider {
	case connection.ProviderOpenAI:
		return f.openai, nil
	case connection.ProviderAnthropic:
		return f.anthropic, nil
	case connection.ProviderGemini:
		return f.gemini, nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}
