// Package policy implements the rule evaluation pipeline that gates every
// chat message before it reaches a model provider.
package policy

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/promptgate/promptgate/pkg/domain/rule"
	"github.com/promptgate/promptgate/pkg/infra/metrics"
	"github.com/promptgate/promptgate/pkg/infra/recognizer"
)

//go:generate mockery --name=Evaluator --dir=. --output=./mocks --filename=evaluator_mock.go --case=underscore --with-expecter

type Evaluator interface {
	// Evaluate scans the rules in evaluation order and returns the first
	// matching rule's verdict. A message no rule matches is allowed.
	Evaluate(ctx context.Context, content string, rules []rule.Rule) Verdict
}

type evaluator struct {
	recognizer recognizer.Client
	judge      SemanticJudge
	logger     *logrus.Logger
}

func NewEvaluator(rec recognizer.Client, judge SemanticJudge, logger *logrus.Logger) Evaluator {
	return &evaluator{
		recognizer: rec,
		judge:      judge,
		logger:     logger,
	}
}

func (e *evaluator) Evaluate(ctx context.Context, content string, rules []rule.Rule) Verdict {
	ordered := rule.ByEvaluationOrder(rules)

	// Semantic rules are collected during the scan and judged in a single
	// batched model call only if no cheaper rule matched first.
	var semantic []rule.Rule

	for _, r := range ordered {
		switch r.Kind {
		case rule.KindKeyword:
			if v, ok := matchKeyword(content, r); ok {
				return e.record(v)
			}
		case rule.KindRegex:
			v, ok, err := matchRegex(content, r)
			if err != nil {
				e.ruleConfigError(r, err)
				continue
			}
			if ok {
				return e.record(v)
			}
		case rule.KindPII:
			if v, ok := e.evaluatePII(ctx, content, r); ok {
				return e.record(v)
			}
		case rule.KindSemantic:
			semantic = append(semantic, r)
		default:
			e.ruleConfigError(r, nil)
		}
	}

	if len(semantic) > 0 {
		v, err := e.judge.Judge(ctx, content, semantic)
		if err != nil {
			metrics.SemanticFailuresTotal.Inc()
			e.logger.WithError(err).Warn("semantic judge unavailable, allowing message")
			return e.record(Allowed())
		}
		if !v.IsAllow() {
			return e.record(v)
		}
	}

	return e.record(Allowed())
}

func (e *evaluator) analyze(ctx context.Context, content string, entities []string) []recognizer.Hit {
	hits, err := e.recognizer.Analyze(ctx, content, entities)
	if err != nil {
		metrics.RecognizerFailuresTotal.Inc()
		e.logger.WithError(err).Warn("statistical recognizer unavailable, treating as no-match")
		return nil
	}
	return hits
}

func (e *evaluator) record(v Verdict) Verdict {
	metrics.VerdictsTotal.WithLabelValues(v.Action).Inc()
	return v
}

func (e *evaluator) ruleConfigError(r rule.Rule, err error) {
	metrics.RuleConfigErrorsTotal.Inc()
	entry := e.logger.WithFields(logrus.Fields{
		"rule_id":   r.ID,
		"rule_name": r.Name,
		"rule_kind": r.Kind,
	})
	if err != nil {
		entry = entry.WithError(err)
	}
	entry.Warn("skipping malformed filtering rule")
}
