package enrichment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/promptgate/promptgate/pkg/domain/chat"
	"github.com/promptgate/promptgate/pkg/infra/providers"
)

const (
	maxSuggestions        = 3
	suggestionHistory     = 6
	suggestionTurnLimit   = 300
	titleSourceLimit      = 200
	suggestionTemperature = 0.7

	fallbackTitle = "New conversation"
)

//go:generate mockery --name=Generator --dir=. --output=./mocks --filename=generator_mock.go --case=underscore --with-expecter

// Generator produces the post-turn artifacts: follow-up suggestions and
// session titles.
type Generator interface {
	Suggestions(ctx context.Context, conversation []chat.Message, orgContext string) ([]string, error)
	SessionTitle(ctx context.Context, conversation []chat.Message) (string, error)
}

type llmGenerator struct {
	client providers.Client
	config providers.Config
}

func NewLLMGenerator(client providers.Client, config providers.Config) Generator {
	return &llmGenerator{client: client, config: config}
}

func (g *llmGenerator) Suggestions(
	ctx context.Context,
	conversation []chat.Message,
	orgContext string,
) ([]string, error) {
	recent := conversation
	if len(recent) > suggestionHistory {
		recent = recent[len(recent)-suggestionHistory:]
	}

	var history []string
	for _, m := range recent {
		content := m.Content
		if len(content) > suggestionTurnLimit {
			content = content[:suggestionTurnLimit]
		}
		history = append(history, strings.ToUpper(m.Role)+": "+content)
	}

	contextLine := ""
	if orgContext != "" {
		contextLine = "Organization context: " + orgContext
	}

	prompt := fmt.Sprintf(`Based on this conversation, suggest 3 short follow-up questions or prompts the user could ask next.
%s

Conversation:
%s

Respond ONLY with a JSON array of 3 strings, no extra text:
["suggestion 1", "suggestion 2", "suggestion 3"]`, contextLine, strings.Join(history, "\n"))

	config := g.config
	config.Temperature = suggestionTemperature

	resp, err := g.client.Ask(ctx, &config, prompt)
	if err != nil {
		return nil, fmt.Errorf("suggestion generation failed: %w", err)
	}

	var suggestions []string
	if err := json.Unmarshal([]byte(strings.TrimSpace(resp.Response)), &suggestions); err != nil {
		return nil, nil
	}
	if len(suggestions) > maxSuggestions {
		suggestions = suggestions[:maxSuggestions]
	}
	return suggestions, nil
}

func (g *llmGenerator) SessionTitle(ctx context.Context, conversation []chat.Message) (string, error) {
	var firstUser string
	for _, m := range conversation {
		if m.Role == chat.RoleUser {
			firstUser = m.Content
			break
		}
	}
	if firstUser == "" {
		return fallbackTitle, nil
	}
	if len(firstUser) > titleSourceLimit {
		firstUser = firstUser[:titleSourceLimit]
	}

	prompt := fmt.Sprintf(`Summarize this message in 5 words or less as a chat title:
"%s"
Respond with only the title, no punctuation.`, firstUser)

	config := g.config
	config.Temperature = 0

	resp, err := g.client.Ask(ctx, &config, prompt)
	if err != nil {
		return "", fmt.Errorf("title generation failed: %w", err)
	}
	return strings.TrimSpace(resp.Response), nil
}
