package metrics

import "github.com/prometheus/client_golang/prometheus"

// Service holds all the Prometheus metrics for the application.
// By defining them all in one place, we ensure consistency in naming and labeling.
type Service struct {
	VerificationSuccess  prometheus.Counter
	VerificationConflict prometheus.Counter
	VerificationFailed   prometheus.Counter
	BestTimeUpdated      prometheus.Counter
	BestTimeSkipped      prometheus.Counter
	HistoryRebuilds      prometheus.Counter
	RebuildDuration      prometheus.Histogram
	StartupTimeSeconds   prometheus.Gauge
}
