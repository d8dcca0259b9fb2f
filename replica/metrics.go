package replica

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hldb/welo-sub001/replica/closure"
)

// WithPrometheus registers replica metrics in reg. The namespace may contain dots.
func WithPrometheus(reg *prometheus.Registry, namespace string) Option {
	if reg == nil {
		return nil
	}
	namespace = strings.ReplaceAll(namespace, ".", "_")
	const subsystem = "replica"
	return func(r *Replica) {
		m := &metrics{
			recordsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "records_total",
				Help:      "ingested records by outcome",
			}, []string{"status"}),
			appliedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "applied_total",
				Help:      "records passed to the materializer",
			}, []string{"mode"}),
			heads: prometheus.NewGaugeFunc(prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "heads",
				Help:      "current number of heads",
			}, func() float64 {
				return float64(len(r.Heads()))
			}),
			missing: prometheus.NewGaugeFunc(prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "missing",
				Help:      "referenced records not known yet",
			}, func() float64 {
				r.mu.RLock()
				defer r.mu.RUnlock()
				return float64(r.index.Count(closure.StateMissing))
			}),
		}
		reg.MustRegister(m.recordsTotal, m.appliedTotal, m.heads, m.missing)
		r.metrics = m
	}
}

type metrics struct {
	recordsTotal *prometheus.CounterVec
	appliedTotal *prometheus.CounterVec
	heads        prometheus.GaugeFunc
	missing      prometheus.GaugeFunc
}

func (m *metrics) ingested(s Status) {
	if m == nil {
		return
	}
	m.recordsTotal.WithLabelValues(s.String()).Inc()
}

func (m *metrics) duplicate() {
	m.ingested(StatusDuplicate)
}

func (m *metrics) rejected() {
	if m == nil {
		return
	}
	m.recordsTotal.WithLabelValues("rejected").Inc()
}

func (m *metrics) applied(mode Mode, count int) {
	if m == nil {
		return
	}
	m.appliedTotal.WithLabelValues(mode.String()).Add(float64(count))
}
