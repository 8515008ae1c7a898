package workflow

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/semgraph/errors"
)

// executorMetrics holds the Prometheus collectors for workflow executions.
// A nil receiver disables all recording.
type executorMetrics struct {
	executions *prometheus.CounterVec
	duration   prometheus.Histogram
}

// WithMetrics registers execution metrics with the given registerer.
func WithMetrics(registerer prometheus.Registerer) Option {
	return func(e *Executor) error {
		m, err := newExecutorMetrics(registerer)
		if err != nil {
			return err
		}
		e.metrics = m
		return nil
	}
}

func newExecutorMetrics(registerer prometheus.Registerer) (*executorMetrics, error) {
	m := &executorMetrics{
		executions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "semgraph_workflow_executions_total",
			Help: "Total workflow executions by outcome",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "semgraph_workflow_duration_seconds",
			Help:    "Workflow execution duration",
			Buckets: prometheus.DefBuckets,
		}),
	}

	for _, c := range []prometheus.Collector{m.executions, m.duration} {
		if err := registerer.Register(c); err != nil {
			return nil, errors.Wrap(err, "WorkflowExecutor", "WithMetrics", "collector registration")
		}
	}
	return m, nil
}

func (m *executorMetrics) recordExecution(success bool, d time.Duration) {
	if m == nil {
		return
	}
	outcome := "failure"
	if success {
		outcome = "success"
	}
	m.executions.WithLabelValues(outcome).Inc()
	m.duration.Observe(d.Seconds())
}
