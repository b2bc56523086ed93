package anthropic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptgate/promptgate/pkg/infra/providers"
)

func TestBuildParams_TemperatureZeroIsSent(t *testing.T) {
	params := buildParams(&providers.Config{Model: "claude-3-5-sonnet-20241022"}, "judge this")

	require.True(t, params.Temperature.Valid(), "temperature 0 must be encoded, not omitted")
	assert.Equal(t, 0.0, params.Temperature.Value)
	assert.Equal(t, int64(defaultMaxTokens), params.MaxTokens)
}

func TestBuildParams_SystemPromptUsesSystemField(t *testing.T) {
	params := buildParams(&providers.Config{
		Model:        "claude-3-5-sonnet-20241022",
		SystemPrompt: "be terse",
	}, "hello")

	require.Len(t, params.System, 1)
	assert.Equal(t, "be terse", params.System[0].Text)
	assert.Len(t, params.Messages, 1)
}
