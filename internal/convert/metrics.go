package convert

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts codec operations by outcome.
type Metrics struct {
	operations *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ss58",
			Name:      "operations_total",
			Help:      "Address codec operations by operation and result.",
		}, []string{"op", "result"}),
	}
	reg.MustRegister(m.operations)
	return m
}

// observe is safe on a nil receiver so the Service can run without metrics.
func (m *Metrics) observe(op string, err error) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(op, ErrorKind(err)).Inc()
}
