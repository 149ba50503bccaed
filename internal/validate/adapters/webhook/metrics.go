package webhook

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/nathantilsley/issue-validator/internal/validate/app"
	"github.com/nathantilsley/issue-validator/internal/validate/domain"
)

// Metrics holds the Prometheus collectors for webhook processing. A nil
// *Metrics records nothing.
type Metrics struct {
	deliveries *prometheus.CounterVec
	runs       *prometheus.CounterVec
	problems   *prometheus.CounterVec
}

// NewMetrics registers the webhook collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		deliveries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "issue_validator_webhook_deliveries_total",
			Help: "Webhook deliveries received, by event type and result.",
		}, []string{"event", "result"}),
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "issue_validator_runs_total",
			Help: "Validator runs, by issue action and comment outcome.",
		}, []string{"action", "outcome"}),
		problems: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "issue_validator_problems_total",
			Help: "Section problems reported, by kind.",
		}, []string{"kind"}),
	}
}

func (m *Metrics) delivery(event, result string) {
	if m == nil {
		return
	}
	m.deliveries.WithLabelValues(event, result).Inc()
}

func (m *Metrics) run(action domain.Action, result app.Result, err error) {
	if m == nil {
		return
	}

	outcome := result.Outcome.Action.String()
	switch {
	case err != nil:
		outcome = "error"
	case result.Skipped:
		outcome = "skipped"
	}
	m.runs.WithLabelValues(string(action), outcome).Inc()

	for _, p := range result.Problems {
		kind := "not_found"
		if p.Kind == domain.ProblemEmpty {
			kind = "empty"
		}
		m.problems.WithLabelValues(kind).Inc()
	}
}
