package policy

import (
	"fmt"
	"regexp"

	"github.com/promptgate/promptgate/pkg/domain/rule"
)

const redactedPlaceholder = "[REDACTED]"

// matchKeyword applies a keyword rule: exact case-insensitive substring
// match against the raw message. The keyword is matched as a quoted
// case-insensitive pattern so redaction offsets always line up with the
// original bytes, whatever the surrounding runes are.
func matchKeyword(content string, r rule.Rule) (Verdict, bool) {
	if r.Pattern == "" {
		return Verdict{}, false
	}
	re := regexp.MustCompile("(?i)" + regexp.QuoteMeta(r.Pattern))
	if !re.MatchString(content) {
		return Verdict{}, false
	}

	v := Verdict{
		Action: r.Action,
		Reason: fmt.Sprintf("Matched keyword: %s", r.Pattern),
	}
	if r.Action == rule.ActionModify {
		v.ModifiedContent = re.ReplaceAllString(content, redactedPlaceholder)
	}
	return v, true
}

// matchRegex applies a regex rule. A pattern that does not compile is a
// policy authoring mistake, not an evaluation failure: the rule is skipped.
func matchRegex(content string, r rule.Rule) (Verdict, bool, error) {
	if r.Pattern == "" {
		return Verdict{}, false, nil
	}
	re, err := regexp.Compile("(?i)" + r.Pattern)
	if err != nil {
		return Verdict{}, false, err
	}
	if !re.MatchString(content) {
		return Verdict{}, false, nil
	}

	v := Verdict{
		Action: r.Action,
		Reason: fmt.Sprintf("Matched pattern: %s", r.Name),
	}
	if r.Action == rule.ActionModify {
		v.ModifiedContent = re.ReplaceAllString(content, redactedPlaceholder)
	}
	return v, true, nil
}
