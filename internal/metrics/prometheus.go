package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusCollector implements Collector backed by Prometheus.
type PrometheusCollector struct {
	reg       prometheus.Registerer
	namespace string
	once      sync.Once

	intents         *prometheus.CounterVec
	intentLatency   *prometheus.HistogramVec
	lockWait        prometheus.Histogram
	sweepExpired    prometheus.Counter
	sweepFailures   prometheus.Counter
	websocketClient prometheus.Gauge
}

var _ Collector = (*PrometheusCollector)(nil)

// NewPrometheus creates a collector registering on reg (the default
// registerer when nil) under namespace ("roster" when empty).
func NewPrometheus(reg prometheus.Registerer, namespace string) *PrometheusCollector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "roster"
	}
	return &PrometheusCollector{reg: reg, namespace: namespace}
}

func (p *PrometheusCollector) ensureRegistered() {
	p.once.Do(func() {
		p.intents = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "dispatcher",
			Name:      "intents_total",
			Help:      "Submitted intents by roster kind, intent and result.",
		}, []string{"kind", "intent", "result"})

		p.intentLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "dispatcher",
			Name:      "intent_duration_seconds",
			Help:      "Time from submission to outcome, including lock wait.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms .. ~2s
		}, []string{"kind", "intent"})

		p.lockWait = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "dispatcher",
			Name:      "lock_wait_seconds",
			Help:      "Time spent waiting for the per-roster section.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		})

		p.sweepExpired = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "expiry",
			Name:      "expired_total",
			Help:      "Rosters deactivated by the expiry sweep.",
		})

		p.sweepFailures = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "expiry",
			Name:      "failures_total",
			Help:      "Rosters the expiry sweep failed to deactivate.",
		})

		p.websocketClient = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: p.namespace,
			Subsystem: "socket",
			Name:      "clients",
			Help:      "Connected websocket clients.",
		})

		p.reg.MustRegister(p.intents, p.intentLatency, p.lockWait, p.sweepExpired, p.sweepFailures, p.websocketClient)
	})
}

func (p *PrometheusCollector) RecordIntent(kind, intent, result string, seconds float64) {
	p.ensureRegistered()
	p.intents.WithLabelValues(kind, intent, result).Inc()
	p.intentLatency.WithLabelValues(kind, intent).Observe(seconds)
}

func (p *PrometheusCollector) RecordLockWait(seconds float64) {
	p.ensureRegistered()
	p.lockWait.Observe(seconds)
}

func (p *PrometheusCollector) RecordExpirySweep(expired, failed int) {
	p.ensureRegistered()
	p.sweepExpired.Add(float64(expired))
	p.sweepFailures.Add(float64(failed))
}

func (p *PrometheusCollector) SetWebsocketClients(n int) {
	p.ensureRegistered()
	p.websocketClient.Set(float64(n))
}
