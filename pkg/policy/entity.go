package policy

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/promptgate/promptgate/pkg/domain/rule"
	"github.com/promptgate/promptgate/pkg/infra/recognizer"
	"github.com/promptgate/promptgate/pkg/pii"
)

// evaluatePII applies one pii rule. The fast structured-pattern pass runs
// first; the statistical recognizer is consulted only when no structured
// pattern matched. Either sub-layer matching triggers the rule's action.
func (e *evaluator) evaluatePII(ctx context.Context, content string, r rule.Rule) (Verdict, bool) {
	pattern := r.Pattern
	if strings.TrimSpace(pattern) == "" {
		pattern = "ALL"
	}

	if found := detectStructured(content, pattern); len(found) > 0 {
		v := Verdict{
			Action: r.Action,
			Reason: fmt.Sprintf("PII detected: %s", joinLabels(found)),
		}
		if r.Action == rule.ActionModify {
			v.ModifiedContent = redactStructured(content, pattern)
		}
		return v, true
	}

	hits := e.analyze(ctx, content, pii.ResolveEntities(pattern))
	if len(hits) == 0 {
		return Verdict{}, false
	}

	v := Verdict{
		Action: r.Action,
		Reason: fmt.Sprintf("PII detected by NER: %s", strings.Join(hitTypes(hits), ", ")),
	}
	if r.Action == rule.ActionModify {
		v.ModifiedContent = redactHits(content, hits)
	}
	return v, true
}

// detectStructured returns the labels whose fast pattern matches.
func detectStructured(content, pattern string) []pii.Label {
	var found []pii.Label
	for _, label := range pii.ResolveLabels(pattern) {
		if pii.Patterns[label].MatchString(content) {
			found = append(found, label)
		}
	}
	return found
}

// redactStructured replaces every structured-pattern match with the label's
// placeholder in one bulk substitution pass per label, so replacements do
// not shift other patterns' matches.
func redactStructured(content, pattern string) string {
	modified := content
	for _, label := range pii.ResolveLabels(pattern) {
		modified = pii.Patterns[label].ReplaceAllString(modified, pii.Placeholder(label))
	}
	return modified
}

// redactHits replaces recognizer spans right-to-left so earlier
// replacements do not shift later spans' offsets.
func redactHits(content string, hits []recognizer.Hit) string {
	ordered := make([]recognizer.Hit, len(hits))
	copy(ordered, hits)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].Start > ordered[j].Start
	})

	modified := content
	for _, h := range ordered {
		if h.Start < 0 || h.End > len(modified) || h.Start >= h.End {
			continue
		}
		modified = modified[:h.Start] + pii.EntityPlaceholder(h.EntityType) + modified[h.End:]
	}
	return modified
}

func joinLabels(labels []pii.Label) string {
	names := make([]string, len(labels))
	for i, l := range labels {
		names[i] = string(l)
	}
	return strings.Join(names, ", ")
}

func hitTypes(hits []recognizer.Hit) []string {
	seen := make(map[string]bool)
	var types []string
	for _, h := range hits {
		if !seen[h.EntityType] {
			seen[h.EntityType] = true
			types = append(types, h.EntityType)
		}
	}
	return types
}
