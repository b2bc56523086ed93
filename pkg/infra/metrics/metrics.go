// Package metrics exposes the gateway's prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// VerdictsTotal counts policy evaluator verdicts by action.
	VerdictsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "promptgate",
		Name:      "verdicts_total",
		Help:      "Policy evaluation verdicts by action.",
	}, []string{"action"})

	// TurnsTotal counts chat turns by terminal state.
	TurnsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "promptgate",
		Name:      "turns_total",
		Help:      "Chat turns by outcome (blocked, completed, failed).",
	}, []string{"outcome"})

	// UpstreamErrorsTotal counts transport failures surfaced mid-stream.
	UpstreamErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "promptgate",
		Name:      "upstream_errors_total",
		Help:      "Provider transport errors by provider.",
	}, []string{"provider"})

	// RuleConfigErrorsTotal counts malformed rules skipped fail-open.
	RuleConfigErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "promptgate",
		Name:      "rule_config_errors_total",
		Help:      "Malformed policy rules skipped during evaluation.",
	})

	// RecognizerFailuresTotal distinguishes recognizer outages from clean
	// negatives: both return no hits to the evaluator.
	RecognizerFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "promptgate",
		Name:      "recognizer_failures_total",
		Help:      "Statistical recognizer calls that failed and were treated as no-match.",
	})

	// SemanticFailuresTotal counts semantic judge calls that failed open.
	SemanticFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "promptgate",
		Name:      "semantic_failures_total",
		Help:      "Semantic judge calls that failed or returned an unparsable verdict.",
	})
)
