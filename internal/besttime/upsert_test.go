package besttime

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KJiShou/Sport-Stacking-Website-sub001/internal/metrics"
	"github.com/KJiShou/Sport-Stacking-Website-sub001/internal/store"
	"github.com/KJiShou/Sport-Stacking-Website-sub001/internal/tournament"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func seedAthlete(mem *store.Memory, bestTimes map[string]any) {
	data := map[string]any{"global_id": "STK-1"}
	if bestTimes != nil {
		data["best_times"] = bestTimes
	}
	mem.Seed(store.Users, "user-1", data)
}

func record(fields map[string]any) map[string]any {
	base := map[string]any{
		"participant_global_id": "STK-1",
		"code":                  "3-3-3",
		"best_time":             5.9,
	}
	for k, v := range fields {
		base[k] = v
	}
	return base
}

func bestTimeFor(t *testing.T, mem *store.Memory, eventType string) (tournament.BestTime, bool) {
	t.Helper()
	doc, err := mem.Get(context.Background(), store.Users, "user-1")
	require.NoError(t, err)
	bt, ok := tournament.UserFromDoc(doc).BestTimes[eventType]
	return bt, ok
}

func TestApply_MonotoneMinimum(t *testing.T) {
	now := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)

	t.Run("slower time leaves the stored best unchanged", func(t *testing.T) {
		mem := store.NewMemory()
		seedAthlete(mem, map[string]any{"3-3-3": map[string]any{"time": 6.0}})
		metr := metrics.NewMock()
		u := NewWithClock(mem, metr, fixedClock(now))

		require.NoError(t, u.Apply(context.Background(), record(map[string]any{"best_time": 6.5})))

		bt, ok := bestTimeFor(t, mem, "3-3-3")
		require.True(t, ok)
		assert.Equal(t, 6.0, bt.Time)
		assert.Equal(t, 1, metr.BestTimeSkippedCount)
		assert.Zero(t, metr.BestTimeUpdatedCount)
	})

	t.Run("equal time does not rewrite", func(t *testing.T) {
		mem := store.NewMemory()
		seedAthlete(mem, map[string]any{"3-3-3": map[string]any{"time": 6.0}})
		u := NewWithClock(mem, metrics.NewMock(), fixedClock(now))

		require.NoError(t, u.Apply(context.Background(), record(map[string]any{"best_time": 6.0})))
		assert.Empty(t, mem.SetCalls)
	})

	t.Run("faster time updates and stamps the season", func(t *testing.T) {
		mem := store.NewMemory()
		seedAthlete(mem, map[string]any{"3-3-3": map[string]any{"time": 6.0}})
		metr := metrics.NewMock()
		u := NewWithClock(mem, metr, fixedClock(now))

		require.NoError(t, u.Apply(context.Background(), record(map[string]any{"best_time": 5.9})))

		bt, ok := bestTimeFor(t, mem, "3-3-3")
		require.True(t, ok)
		assert.Equal(t, 5.9, bt.Time)
		assert.Equal(t, "2023-2024", bt.Season)
		assert.Equal(t, now, bt.UpdatedAt)
		assert.Equal(t, 1, metr.BestTimeUpdatedCount)
	})

	t.Run("legacy raw-number bests are read correctly", func(t *testing.T) {
		mem := store.NewMemory()
		seedAthlete(mem, map[string]any{"3-3-3": 6.0})
		u := NewWithClock(mem, metrics.NewMock(), fixedClock(now))

		require.NoError(t, u.Apply(context.Background(), record(map[string]any{"best_time": 6.5})))
		_, ok := bestTimeFor(t, mem, "3-3-3")
		require.True(t, ok)
		doc, err := mem.Get(context.Background(), store.Users, "user-1")
		require.NoError(t, err)
		assert.Equal(t, 6.0, doc.Data["best_times"].(map[string]any)["3-3-3"],
			"raw-number best survives when not beaten")
	})

	t.Run("first time for an event is always stored", func(t *testing.T) {
		mem := store.NewMemory()
		seedAthlete(mem, nil)
		u := NewWithClock(mem, metrics.NewMock(), fixedClock(now))

		require.NoError(t, u.Apply(context.Background(), record(nil)))
		bt, ok := bestTimeFor(t, mem, "3-3-3")
		require.True(t, ok)
		assert.Equal(t, 5.9, bt.Time)
	})

	t.Run("updating one event keeps the others", func(t *testing.T) {
		mem := store.NewMemory()
		seedAthlete(mem, map[string]any{"cycle": map[string]any{"time": 7.5, "season": "2022-2023"}})
		u := NewWithClock(mem, metrics.NewMock(), fixedClock(now))

		require.NoError(t, u.Apply(context.Background(), record(nil)))
		cycle, ok := bestTimeFor(t, mem, "cycle")
		require.True(t, ok)
		assert.Equal(t, 7.5, cycle.Time)
		assert.Equal(t, "2022-2023", cycle.Season)
	})
}

func TestApply_RejectsUnusableTimes(t *testing.T) {
	for _, tc := range []struct {
		name   string
		fields map[string]any
	}{
		{"absent", map[string]any{"best_time": nil}},
		{"zero means did not finish", map[string]any{"best_time": 0.0}},
		{"negative", map[string]any{"best_time": -1.2}},
		{"non-numeric", map[string]any{"best_time": "fast"}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			mem := store.NewMemory()
			seedAthlete(mem, nil)
			u := New(mem, metrics.NewMock())
			require.NoError(t, u.Apply(context.Background(), record(tc.fields)))
			assert.Empty(t, mem.SetCalls)
		})
	}
}

func TestApply_OverallTimeFallback(t *testing.T) {
	mem := store.NewMemory()
	seedAthlete(mem, nil)
	u := New(mem, metrics.NewMock())

	rec := record(map[string]any{"best_time": nil, "overall_time": 12.3})
	require.NoError(t, u.Apply(context.Background(), rec))
	bt, ok := bestTimeFor(t, mem, "3-3-3")
	require.True(t, ok)
	assert.Equal(t, 12.3, bt.Time)
}

func TestApply_SkipsRecordsWithoutParticipant(t *testing.T) {
	mem := store.NewMemory()
	u := New(mem, metrics.NewMock())
	rec := record(map[string]any{"participant_global_id": nil, "team_id": "team-1"})
	require.NoError(t, u.Apply(context.Background(), rec))
	assert.Empty(t, mem.SetCalls)
}

func TestApply_MissingUserIsSwallowed(t *testing.T) {
	mem := store.NewMemory()
	u := New(mem, metrics.NewMock())
	require.NoError(t, u.Apply(context.Background(), record(nil)))
	assert.Empty(t, mem.SetCalls)
}

func TestEventTypeFor(t *testing.T) {
	for _, tc := range []struct {
		name     string
		record   map[string]any
		expected string
	}{
		{"explicit code wins", map[string]any{"code": "3-6-3", "event": "cycle relay"}, "3-6-3"},
		{"substring match on event", map[string]any{"event": "Individual 3-3-3 Final"}, "3-3-3"},
		{"cycle anywhere in the text", map[string]any{"event": "Blindfolded Cycle"}, "cycle"},
		{"no match is a no-op", map[string]any{"event": "Team Relay"}, ""},
		{"nothing at all", map[string]any{}, ""},
	} {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, EventTypeFor(tc.record))
		})
	}
}

func TestSeason(t *testing.T) {
	for _, tc := range []struct {
		date     time.Time
		expected string
	}{
		{time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC), "2023-2024"},
		{time.Date(2024, time.June, 30, 23, 59, 59, 0, time.UTC), "2023-2024"},
		{time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC), "2024-2025"},
		{time.Date(2024, time.August, 1, 0, 0, 0, 0, time.UTC), "2024-2025"},
		{time.Date(2024, time.December, 31, 0, 0, 0, 0, time.UTC), "2024-2025"},
	} {
		assert.Equal(t, tc.expected, Season(tc.date), "date %s", tc.date)
	}
}
