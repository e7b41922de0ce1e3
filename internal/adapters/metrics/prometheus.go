// Package metrics exporta as decisões do rate limiter para o Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/AmirSarvestani/API-Rate-Limiter/internal/core/domain"
	"github.com/AmirSarvestani/API-Rate-Limiter/internal/core/ports"
)

const (
	labelEndpoint    = "endpoint"
	labelStrategy    = "strategy"
	labelOutcome     = "outcome"
	labelLimitSource = "limit_source"
)

// Collector conta decisões por endpoint, estratégia, resultado e origem do teto.
type Collector struct {
	Decisions *prometheus.CounterVec
}

var _ ports.DecisionRecorder = (*Collector)(nil)

func NewCollector(namespace string) *Collector {
	return &Collector{
		Decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limit_decisions_total",
			Help:      "Number of rate limit decisions by outcome.",
		}, []string{labelEndpoint, labelStrategy, labelOutcome, labelLimitSource}),
	}
}

func (c *Collector) MustRegister(registerer prometheus.Registerer) {
	registerer.MustRegister(c.Decisions)
}

func (c *Collector) Unregister(registerer prometheus.Registerer) {
	registerer.Unregister(c.Decisions)
}

func (c *Collector) RecordDecision(decision domain.Decision) {
	source := string(decision.LimitSource)
	if source == "" {
		source = "none"
	}
	c.Decisions.With(prometheus.Labels{
		labelEndpoint:    decision.Key.Endpoint,
		labelStrategy:    string(decision.Strategy),
		labelOutcome:     decision.Outcome.String(),
		labelLimitSource: source,
	}).Inc()
}
