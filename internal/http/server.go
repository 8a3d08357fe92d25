package http

import (
	"net/http"

	"github.com/KJiShou/Sport-Stacking-Website-sub001/internal/besttime"
	"github.com/KJiShou/Sport-Stacking-Website-sub001/internal/config"
	"github.com/KJiShou/Sport-Stacking-Website-sub001/internal/events"
	"github.com/KJiShou/Sport-Stacking-Website-sub001/internal/history"
	"github.com/KJiShou/Sport-Stacking-Website-sub001/internal/metrics"
	"github.com/KJiShou/Sport-Stacking-Website-sub001/internal/pubsub"
	"github.com/KJiShou/Sport-Stacking-Website-sub001/internal/store"
	"github.com/KJiShou/Sport-Stacking-Website-sub001/internal/verification"
)

func NewServer(st store.Store, metricsSvc metrics.Metrics, metricsHandler http.Handler, cfg config.Config, verifier *verification.Verifier, resolver *events.Resolver, bestTime *besttime.Updater, historyAgg *history.Aggregator, pubsub pubsub.PubSubClient) *Server {
	server := &Server{
		Store:          st,
		Metrics:        metricsSvc,
		MetricsHandler: metricsHandler,
		Cfg:            cfg,
		Verifier:       verifier,
		Resolver:       resolver,
		BestTime:       bestTime,
		History:        historyAgg,
		Router:         http.NewServeMux(),
		pubsub:         pubsub,
	}

	server.routes()
	return server
}

func (s *Server) routes() {
	auth := authMiddleware(s.Cfg.Auth.BearerToken)

	s.Router.Handle("/metrics", s.MetricsHandler)
	s.Router.Handle("/health", Chain(s.HealthCheckHandler(), paramsMiddleware))

	// Request surface. Callers present the externally-issued bearer token.
	s.Router.Handle("/teams/verify-member", Chain(s.VerifyMemberHandler(), paramsMiddleware, auth))
	s.Router.Handle("/teams/event-labels", Chain(s.EventLabelsHandler(), paramsMiddleware, auth))
	s.Router.Handle("/history", Chain(s.GetHistoryHandler(), paramsMiddleware, auth))
	s.Router.Handle("/history/rebuild", Chain(s.RequestRebuildHandler(), paramsMiddleware, auth))

	// Push subscriptions. Delivery is at-least-once and unordered; both
	// handlers are safe to re-run.
	s.Router.Handle("/triggers/best-times", Chain(s.BestTimeTriggerHandler(), paramsMiddleware))
	s.Router.Handle("/triggers/history", Chain(s.HistoryTriggerHandler(), paramsMiddleware))
	s.Router.Handle("/triggers/rebuild", Chain(s.RebuildTriggerHandler(), paramsMiddleware))
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}
