// Package metrics records roster dispatcher and push-hub activity.
package metrics

// Collector receives roster service measurements.
type Collector interface {
	// RecordIntent counts one submitted intent. result is the outcome result
	// or the error class ("rejected", "not_found", "store_error", ...).
	RecordIntent(kind, intent, result string, seconds float64)
	// RecordLockWait observes how long a submission waited for its roster.
	RecordLockWait(seconds float64)
	// RecordExpirySweep counts rosters expired and failures in one sweep.
	RecordExpirySweep(expired, failed int)
	// SetWebsocketClients reports connected push clients.
	SetWebsocketClients(n int)
}
