package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var _ Metrics = (*Service)(nil)

// NewMetricsHandler returns an http.Handler for the given Gatherer.
// If no gatherer is provided, it uses the default one.
func NewMetricsHandler(gatherer ...prometheus.Gatherer) http.Handler {
	gath := prometheus.DefaultGatherer
	if len(gatherer) > 0 {
		gath = gatherer[0]
	}
	return promhttp.HandlerFor(gath, promhttp.HandlerOpts{})
}

// NewService creates and registers the Prometheus metrics.
// If no registerer is provided, it uses the default Prometheus registerer.
func NewService(registerer ...prometheus.Registerer) *Service {
	reg := prometheus.DefaultRegisterer
	if len(registerer) > 0 {
		reg = registerer[0]
	}

	s := &Service{
		VerificationSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stacking_verifications_success_total",
			Help: "The total number of team member verifications that succeeded.",
		}),
		VerificationConflict: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stacking_verifications_conflict_total",
			Help: "The total number of verifications rejected for an event conflict.",
		}),
		VerificationFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stacking_verifications_failed_total",
			Help: "The total number of verifications that failed for any other reason.",
		}),
		BestTimeUpdated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stacking_best_time_updates_total",
			Help: "The total number of personal best times written.",
		}),
		BestTimeSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stacking_best_time_skipped_total",
			Help: "The total number of record writes that did not improve a best time.",
		}),
		HistoryRebuilds: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stacking_history_rebuilds_total",
			Help: "The total number of athlete history rebuilds performed.",
		}),
		RebuildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "stacking_history_rebuild_duration_seconds",
			Help:    "The duration of individual athlete history rebuilds.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		StartupTimeSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "stacking_startup_duration_seconds",
			Help: "The duration of the application startup in seconds.",
		}),
	}

	reg.MustRegister(
		s.VerificationSuccess,
		s.VerificationConflict,
		s.VerificationFailed,
		s.BestTimeUpdated,
		s.BestTimeSkipped,
		s.HistoryRebuilds,
		s.RebuildDuration,
		s.StartupTimeSeconds,
	)

	return s
}

func (s *Service) IncVerificationSuccess() {
	s.VerificationSuccess.Inc()
}

func (s *Service) IncVerificationConflict() {
	s.VerificationConflict.Inc()
}

func (s *Service) IncVerificationFailed() {
	s.VerificationFailed.Inc()
}

func (s *Service) IncBestTimeUpdated() {
	s.BestTimeUpdated.Inc()
}

func (s *Service) IncBestTimeSkipped() {
	s.BestTimeSkipped.Inc()
}

func (s *Service) IncHistoryRebuilds() {
	s.HistoryRebuilds.Inc()
}

func (s *Service) ObserveRebuildDuration(seconds float64) {
	s.RebuildDuration.Observe(seconds)
}

func (s *Service) SetStartupTime(seconds float64) {
	s.StartupTimeSeconds.Set(seconds)
}
