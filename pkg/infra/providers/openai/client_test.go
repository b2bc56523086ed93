package openai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptgate/promptgate/pkg/infra/providers"
)

func TestBuildParams_TemperatureZeroIsSent(t *testing.T) {
	params := buildParams(&providers.Config{Model: "gpt-4o-mini"}, "judge this")

	require.True(t, params.Temperature.Valid(), "temperature 0 must be encoded, not omitted")
	assert.Equal(t, 0.0, params.Temperature.Value)
}

func TestBuildParams_NonZeroTemperatureAndMaxTokens(t *testing.T) {
	params := buildParams(&providers.Config{
		Model:       "gpt-4o-mini",
		Temperature: 0.7,
		MaxTokens:   256,
	}, "suggest")

	assert.Equal(t, 0.7, params.Temperature.Value)
	require.True(t, params.MaxTokens.Valid())
	assert.Equal(t, int64(256), params.MaxTokens.Value)
}

func TestBuildParams_SystemPromptAddsMessage(t *testing.T) {
	params := buildParams(&providers.Config{
		Model:        "gpt-4o-mini",
		SystemPrompt: "be terse",
	}, "hello")

	assert.Len(t, params.Messages, 2)
}
