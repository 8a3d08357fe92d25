// Package besttime applies record writes to athletes' personal bests. The
// stored time for an event type only ever decreases; a slower or invalid
// time is a no-op.
package besttime

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/KJiShou/Sport-Stacking-Website-sub001/internal/metrics"
	"github.com/KJiShou/Sport-Stacking-Website-sub001/internal/store"
	"github.com/KJiShou/Sport-Stacking-Website-sub001/internal/tournament"
)

// New creates an Updater using the real clock.
func New(s store.Store, m metrics.Metrics) *Updater {
	return &Updater{store: s, metrics: m, now: time.Now}
}

// NewWithClock creates an Updater with an injected clock, used by tests to
// pin the season label.
func NewWithClock(s store.Store, m metrics.Metrics, now func() time.Time) *Updater {
	return &Updater{store: s, metrics: m, now: now}
}

// Apply folds one written record into the athlete's best_times map. It is a
// plain read-modify-write, not a transaction: two concurrent applications
// for the same athlete and event race, and the later write wins regardless
// of value. Sequential redelivery of the same record is idempotent.
func (u *Updater) Apply(ctx context.Context, record map[string]any) error {
	globalID := tournament.Str(record["participant_global_id"])
	if globalID == "" {
		// Team records carry no individual participant; nothing to upsert.
		return nil
	}

	eventType := EventTypeFor(record)
	if eventType == "" {
		log.Debug("Record matches no known event type, skipping", "globalID", globalID)
		return nil
	}

	newTime, ok := recordTime(record)
	if !ok {
		// Absent, non-finite, zero (DNF) or negative times never become bests.
		log.Debug("Record carries no usable time, skipping", "globalID", globalID, "eventType", eventType)
		return nil
	}

	userDocs, err := u.store.Query(ctx, store.Users, store.Eq("global_id", globalID))
	if err != nil {
		return fmt.Errorf("looking up user %q: %w", globalID, err)
	}
	if len(userDocs) == 0 {
		log.Warn("No user for record, skipping best time", "globalID", globalID)
		return nil
	}
	user := tournament.UserFromDoc(userDocs[0])

	if current, exists := user.BestTimes[eventType]; exists && newTime >= current.Time {
		u.metrics.IncBestTimeSkipped()
		log.Debug("Best time not improved", "globalID", globalID, "eventType", eventType,
			"current", current.Time, "candidate", newTime)
		return nil
	}

	now := u.now().UTC()
	err = u.store.Set(ctx, store.Users, user.ID, map[string]any{
		"best_times": map[string]any{
			eventType: map[string]any{
				"time":       newTime,
				"updated_at": now,
				"season":     Season(now),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("writing best time for %q: %w", globalID, err)
	}
	u.metrics.IncBestTimeUpdated()
	log.Info("Best time updated", "globalID", globalID, "eventType", eventType, "time", newTime)
	return nil
}

// EventTypeFor derives the event type of a record: the explicit code field
// when present, otherwise a substring match of the free-text event field
// against the known disciplines. Returns "" when neither applies.
func EventTypeFor(record map[string]any) string {
	if code := tournament.Str(record["code"]); code != "" {
		return code
	}
	event := strings.ToLower(tournament.Str(record["event"]))
	if event == "" {
		return ""
	}
	for _, candidate := range eventTypes {
		if strings.Contains(event, candidate) {
			return candidate
		}
	}
	return ""
}

// Season labels a competition year pair with a July boundary: July through
// December belong to "{Y}-{Y+1}", January through June to "{Y-1}-{Y}".
func Season(t time.Time) string {
	year := t.UTC().Year()
	if t.UTC().Month() < time.July {
		year--
	}
	return fmt.Sprintf("%d-%d", year, year+1)
}

func recordTime(record map[string]any) (float64, bool) {
	value, ok := tournament.Num(record["best_time"])
	if !ok {
		value, ok = tournament.Num(record["overall_time"])
	}
	if !ok || value <= 0 {
		return 0, false
	}
	return value, true
}
