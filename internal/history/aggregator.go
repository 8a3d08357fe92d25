// Package history maintains the per-athlete denormalized competition history
// view. Every relevant record write triggers a full recomputation of the
// affected athletes' documents; there is no incremental patching, so the
// view is self-healing under redelivery and reordering.
package history

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/KJiShou/Sport-Stacking-Website-sub001/internal/metrics"
	"github.com/KJiShou/Sport-Stacking-Website-sub001/internal/pubsub"
	"github.com/KJiShou/Sport-Stacking-Website-sub001/internal/store"
	"github.com/KJiShou/Sport-Stacking-Website-sub001/internal/tournament"
)

// New creates an Aggregator using the real clock.
func New(s store.Store, m metrics.Metrics) *Aggregator {
	return &Aggregator{store: s, metrics: m, now: time.Now}
}

// NewWithClock creates an Aggregator with an injected clock for tests.
func NewWithClock(s store.Store, m metrics.Metrics, now func() time.Time) *Aggregator {
	return &Aggregator{store: s, metrics: m, now: now}
}

// HandleRecordWrite rebuilds the history of every athlete the written record
// touches. A team record write fans out to the leader and every member, in
// parallel with no ordering guarantee. Failures are logged and swallowed;
// the next write for the same athlete repairs the view.
func (a *Aggregator) HandleRecordWrite(ctx context.Context, ev pubsub.RecordEvent) {
	if ev.After == nil {
		// Deletions carry no after snapshot and never trigger recomputation.
		log.Debug("Record event without after snapshot, ignoring", "collection", ev.Collection, "id", ev.ID, "kind", ev.Kind)
		return
	}
	ids := AffectedGlobalIDs(ev.After)
	if len(ids) == 0 {
		log.Debug("Record write affects no athletes", "collection", ev.Collection, "id", ev.ID)
		return
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, globalID := range ids {
		g.Go(func() error {
			if err := a.Rebuild(ctx, globalID); err != nil {
				log.Error("History rebuild failed", "globalID", globalID, "error", err)
			}
			return nil
		})
	}
	g.Wait() //nolint:errcheck // rebuild errors are logged above, never propagated
}

// AffectedGlobalIDs collects the athlete ids a record write touches: the
// individual participant, the team leader, and every team member.
func AffectedGlobalIDs(record map[string]any) []string {
	var ids []string
	seen := make(map[string]struct{})
	add := func(id string) {
		if id == "" {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	add(tournament.Str(record["participant_global_id"]))
	add(tournament.Str(record["leader_id"]))
	for _, id := range tournament.StrSlice(record["member_global_ids"]) {
		add(id)
	}
	return ids
}

// Rebuild recomputes one athlete's full history document from the current
// contents of the record collections and merge-writes it, keyed by the
// athlete's global id.
func (a *Aggregator) Rebuild(ctx context.Context, globalID string) error {
	start := time.Now()
	defer func() {
		a.metrics.ObserveRebuildDuration(time.Since(start).Seconds())
	}()

	userDocs, err := a.store.Query(ctx, store.Users, store.Eq("global_id", globalID))
	if err != nil {
		return fmt.Errorf("looking up user %q: %w", globalID, err)
	}
	if len(userDocs) == 0 {
		log.Warn("No user for history rebuild, skipping", "globalID", globalID)
		return nil
	}
	user := tournament.UserFromDoc(userDocs[0])

	records, err := a.fetchRecords(ctx, globalID)
	if err != nil {
		return fmt.Errorf("fetching records for %q: %w", globalID, err)
	}

	summaries, recordCount, err := a.summarize(ctx, globalID, records)
	if err != nil {
		return err
	}

	encoded := make([]any, 0, len(summaries))
	for _, s := range summaries {
		encoded = append(encoded, s.toMap())
	}
	payload := map[string]any{
		"globalId":        globalID,
		"userId":          user.ID,
		"updatedAt":       a.now().UTC(),
		"tournamentCount": len(summaries),
		"recordCount":     recordCount,
		"tournaments":     encoded,
	}
	if err := a.store.Set(ctx, store.UserHistory, globalID, payload); err != nil {
		return fmt.Errorf("writing history for %q: %w", globalID, err)
	}
	a.metrics.IncHistoryRebuilds()
	log.Info("History rebuilt", "globalID", globalID, "tournaments", len(summaries), "records", recordCount)
	return nil
}

// fetchRecords issues the seven collection queries concurrently and
// deduplicates the results by document key: a record can satisfy more than
// one predicate (hypothetically even leader and member at once) but must
// contribute exactly one result.
func (a *Aggregator) fetchRecords(ctx context.Context, globalID string) ([]*store.Doc, error) {
	queries := []struct {
		collection string
		filter     store.Filter
	}{
		{store.Records, store.Eq("participant_global_id", globalID)},
		{store.Records, store.Eq("leader_id", globalID)},
		{store.Records, store.Contains("member_global_ids", globalID)},
		{store.PrelimRecords, store.Eq("participant_global_id", globalID)},
		{store.PrelimRecords, store.Eq("leader_id", globalID)},
		{store.PrelimRecords, store.Contains("member_global_ids", globalID)},
		{store.OverallRecords, store.Eq("participant_global_id", globalID)},
	}

	var mu sync.Mutex
	deduped := make(map[store.Key]*store.Doc)
	g, ctx := errgroup.WithContext(ctx)
	for _, q := range queries {
		g.Go(func() error {
			docs, err := a.store.Query(ctx, q.collection, q.filter)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			for _, doc := range docs {
				deduped[doc.Ref()] = doc
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	docs := make([]*store.Doc, 0, len(deduped))
	for _, doc := range deduped {
		docs = append(docs, doc)
	}
	return docs, nil
}

// summarize groups results by tournament, attaches display metadata (fetched
// once per tournament per rebuild), and orders everything by recency.
func (a *Aggregator) summarize(ctx context.Context, globalID string, docs []*store.Doc) ([]Summary, int, error) {
	grouped := make(map[string][]Result)
	for _, doc := range docs {
		tournamentID := tournament.Str(doc.Data["tournament_id"])
		if tournamentID == "" {
			continue
		}
		grouped[tournamentID] = append(grouped[tournamentID], deriveResult(globalID, doc))
	}

	infoCache := make(map[string]*tournament.Info)
	summaries := make([]Summary, 0, len(grouped))
	recordCount := 0
	for tournamentID, results := range grouped {
		sort.Slice(results, func(i, j int) bool {
			if results[i].activityAt != results[j].activityAt {
				return results[i].activityAt > results[j].activityAt
			}
			return results[i].Path < results[j].Path
		})

		info, ok := infoCache[tournamentID]
		if !ok {
			doc, err := a.store.Get(ctx, store.Tournaments, tournamentID)
			switch err {
			case nil:
				info = tournament.InfoFromDoc(doc)
			case store.ErrNotFound:
				info = &tournament.Info{ID: tournamentID}
			default:
				return nil, 0, fmt.Errorf("fetching tournament %q: %w", tournamentID, err)
			}
			infoCache[tournamentID] = info
		}

		var lastActivity int64
		for _, r := range results {
			if r.activityAt > lastActivity {
				lastActivity = r.activityAt
			}
		}
		recordCount += len(results)
		summaries = append(summaries, Summary{
			TournamentID:   tournamentID,
			Name:           info.Name,
			StartDate:      info.StartDate,
			EndDate:        info.EndDate,
			Country:        info.Country,
			Venue:          info.Venue,
			LastActivityAt: lastActivity,
			Results:        results,
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].LastActivityAt != summaries[j].LastActivityAt {
			return summaries[i].LastActivityAt > summaries[j].LastActivityAt
		}
		return summaries[i].TournamentID < summaries[j].TournamentID
	})
	return summaries, recordCount, nil
}

// deriveResult normalizes one source record into a history result.
func deriveResult(globalID string, doc *store.Doc) Result {
	data := doc.Data
	r := Result{
		Path:           doc.Path(),
		Event:          tournament.Str(data["event"]),
		Status:         tournament.Str(data["status"]),
		Classification: tournament.Str(data["classification"]),
		VideoURL:       tournament.Str(data["video_url"]),
		Try1:           numPtr(data["try1"]),
		Try2:           numPtr(data["try2"]),
		Try3:           numPtr(data["try3"]),
		SubmittedAt:    data["submitted_at"],
		VerifiedAt:     data["verified_at"],
		CreatedAt:      data["created_at"],
		UpdatedAt:      data["updated_at"],
	}

	r.Round = deriveRound(data)
	r.BestTime = numPtr(data["best_time"])
	if r.BestTime == nil {
		r.BestTime = numPtr(data["overall_time"])
	}
	r.EventKey = deriveEventKey(data)
	r.EventCategory = deriveCategory(r.Event)

	if teamID := tournament.Str(data["team_id"]); teamID != "" {
		r.ResultType = ResultTeam
		r.LeaderID = tournament.Str(data["leader_id"])
		r.MemberIDs = tournament.StrSlice(data["member_global_ids"])
		switch {
		case r.LeaderID == globalID:
			r.Role = RoleLeader
		case contains(r.MemberIDs, globalID):
			r.Role = RoleMember
		default:
			r.Role = RoleParticipant
		}
	} else {
		r.ResultType = ResultIndividual
		r.Role = RoleParticipant
	}

	r.activityAt = activityAt(data)
	return r
}

// deriveRound infers the stage of a record: an explicit round wins, a
// "prelim" classification means the preliminary round, any other non-empty
// classification means the final, and with neither the round is unknown.
func deriveRound(data map[string]any) *string {
	if round := tournament.Str(data["round"]); round != "" {
		return &round
	}
	classification := tournament.Str(data["classification"])
	if classification == "" {
		return nil
	}
	round := "final"
	if strings.EqualFold(classification, "prelim") {
		round = "prelim"
	}
	return &round
}

func deriveEventKey(data map[string]any) string {
	code := tournament.Str(data["code"])
	event := tournament.Str(data["event"])
	switch {
	case code != "" && event != "":
		return code + "-" + event
	case code != "":
		return code
	default:
		return event
	}
}

func deriveCategory(event string) string {
	if category, ok := eventCategories[strings.ToLower(strings.TrimSpace(event))]; ok {
		return category
	}
	return defaultCategory
}

// activityAt picks the record's most authoritative timestamp, in unix
// milliseconds. Records with no timestamp at all sort last.
func activityAt(data map[string]any) int64 {
	for _, field := range []string{"updated_at", "created_at", "submitted_at", "verified_at"} {
		if t, ok := tournament.Time(data[field]); ok {
			return t.UnixMilli()
		}
	}
	return 0
}

func numPtr(v any) *float64 {
	if n, ok := tournament.Num(v); ok {
		return &n
	}
	return nil
}

func contains(items []string, needle string) bool {
	for _, item := range items {
		if item == needle {
			return true
		}
	}
	return false
}
