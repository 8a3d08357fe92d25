package metrics

// Metrics defines the interface for collecting application metrics.
// This decouples the handlers from the specific metrics implementation (e.g. Prometheus).
type Metrics interface {
	IncVerificationSuccess()
	IncVerificationConflict()
	IncVerificationFailed()
	IncBestTimeUpdated()
	IncBestTimeSkipped()
	IncHistoryRebuilds()
	ObserveRebuildDuration(seconds float64)
	SetStartupTime(seconds float64)
}
