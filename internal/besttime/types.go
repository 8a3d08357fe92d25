package besttime

import (
	"time"

	"github.com/KJiShou/Sport-Stacking-Website-sub001/internal/metrics"
	"github.com/KJiShou/Sport-Stacking-Website-sub001/internal/store"
)

// Updater maintains the keep-minimum best_times map on user documents.
type Updater struct {
	store   store.Store
	metrics metrics.Metrics
	now     func() time.Time
}

// eventTypes are the canonical stacking disciplines a free-text event field
// is matched against when a record carries no explicit code.
var eventTypes = []string{"3-3-3", "3-6-3", "cycle"}
