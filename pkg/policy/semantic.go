package policy

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/promptgate/promptgate/pkg/domain/rule"
	"github.com/promptgate/promptgate/pkg/infra/providers"
)

//go:generate mockery --name=SemanticJudge --dir=. --output=./mocks --filename=semantic_judge_mock.go --case=underscore --with-expecter

// SemanticJudge evaluates a message against semantic rules in one batched
// model call and returns the model's verdict.
type SemanticJudge interface {
	Judge(ctx context.Context, content string, rules []rule.Rule) (Verdict, error)
}

type llmJudge struct {
	client  providers.Client
	config  *providers.Config
	breaker *gobreaker.CircuitBreaker
}

func NewLLMJudge(client providers.Client, config *providers.Config) SemanticJudge {
	return &llmJudge{
		client: client,
		config: config,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "semantic-judge",
			MaxRequests: 5,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
		}),
	}
}

const judgePromptFormat = `You are a strict content filter for an organization. Evaluate whether the user message violates any of the rules below.

Rules:
%s

User message to evaluate:
"""%s"""

Instructions:
- For PII rules: look for names, addresses, phone numbers, emails, IDs, account numbers, dates of birth, medical info, or any personal details even if written informally (e.g. "my name is John", "I live at 5 Main St").
- For other rules: apply them strictly.
- If the message violates a rule with action=modify, rewrite it with the sensitive parts replaced with [REDACTED].
- If no rules are violated, respond with allow.

Respond ONLY with valid JSON, no extra text:
{"action": "allow", "reason": null, "modified_content": null}
{"action": "block", "reason": "specific reason", "modified_content": null}
{"action": "modify", "reason": "specific reason", "modified_content": "cleaned message with [REDACTED] replacing sensitive data"}`

func (j *llmJudge) Judge(ctx context.Context, content string, rules []rule.Rule) (Verdict, error) {
	lines := make([]string, 0, len(rules))
	for _, r := range rules {
		if r.Pattern == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("- [%s]: %s", r.Name, r.Pattern))
	}
	if len(lines) == 0 {
		return Allowed(), nil
	}

	prompt := fmt.Sprintf(judgePromptFormat, strings.Join(lines, "\n"), content)

	result, err := j.breaker.Execute(func() (interface{}, error) {
		return j.client.Ask(ctx, j.config, prompt)
	})
	if err != nil {
		return Verdict{}, fmt.Errorf("semantic judge call failed: %w", err)
	}

	resp, ok := result.(*providers.CompletionResponse)
	if !ok || resp == nil {
		return Verdict{}, fmt.Errorf("semantic judge returned no completion")
	}
	return parseJudgeResponse(resp.Response), nil
}

// parseJudgeResponse decodes the model's JSON verdict. Anything the model
// emits that is not a well-formed block or modify verdict resolves to allow.
func parseJudgeResponse(raw string) Verdict {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	var v Verdict
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return Allowed()
	}
	switch v.Action {
	case rule.ActionBlock:
		v.ModifiedContent = ""
		return v
	case rule.ActionModify:
		return v
	default:
		return Allowed()
	}
}
