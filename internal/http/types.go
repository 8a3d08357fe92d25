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

type Server struct {
	Store          store.Store
	Metrics        metrics.Metrics
	MetricsHandler http.Handler
	Cfg            config.Config
	Verifier       *verification.Verifier
	Resolver       *events.Resolver
	BestTime       *besttime.Updater
	History        *history.Aggregator
	Router         *http.ServeMux
	pubsub         pubsub.PubSubClient
}
