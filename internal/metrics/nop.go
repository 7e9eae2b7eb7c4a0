package metrics

// NopMetrics discards every measurement. Used in tests and when /metrics is
// not exposed.
type NopMetrics struct{}

var _ Collector = (*NopMetrics)(nil)

func NewNop() *NopMetrics {
	return &NopMetrics{}
}

func (n *NopMetrics) RecordIntent(_, _, _ string, _ float64) {}

func (n *NopMetrics) RecordLockWait(_ float64) {}

func (n *NopMetrics) RecordExpirySweep(_, _ int) {}

func (n *NopMetrics) SetWebsocketClients(_ int) {}
