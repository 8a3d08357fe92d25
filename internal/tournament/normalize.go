package tournament

import (
	"math"
	"strings"
	"time"

	"github.com/KJiShou/Sport-Stacking-Website-sub001/internal/store"
)

// Str returns v as a trimmed string, or "" when v is absent or not a string.
func Str(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

// StrSlice returns v as a slice of trimmed non-empty strings. It tolerates
// both the store's native []any and typed []string seeds.
func StrSlice(v any) []string {
	var out []string
	appendStr := func(item any) {
		if s := Str(item); s != "" {
			out = append(out, s)
		}
	}
	switch items := v.(type) {
	case []any:
		for _, item := range items {
			appendStr(item)
		}
	case []string:
		for _, item := range items {
			appendStr(item)
		}
	}
	return out
}

// Num returns v as a float64. Firestore reads yield int64 or float64, tests
// and legacy writes may carry plain ints, and msgpack decodes small wire
// integers into the narrowest int/uint type that fits. The second return is
// false when v is absent, non-numeric, or not finite.
func Num(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int8:
		f = float64(n)
	case int16:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint8:
		f = float64(n)
	case uint16:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Time returns v as a time.Time. Source documents mix native timestamps with
// epoch milliseconds written by older clients.
func Time(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case *time.Time:
		if t == nil {
			return time.Time{}, false
		}
		return *t, true
	}
	if ms, ok := Num(v); ok {
		return time.UnixMilli(int64(ms)).UTC(), true
	}
	return time.Time{}, false
}

// Bool returns v as a bool, false when absent or mistyped.
func Bool(v any) bool {
	b, _ := v.(bool)
	return b
}

// TeamFromDoc decodes a teams document, normalizing the tolerant event
// reference shapes: ids from event_id (scalar) and event_ids (array), names
// from event (scalar) and events (array).
func TeamFromDoc(doc *store.Doc) *Team {
	t := &Team{
		ID:           doc.ID,
		TournamentID: Str(doc.Data["tournament_id"]),
		Name:         Str(doc.Data["name"]),
		LeaderID:     Str(doc.Data["leader_id"]),
	}
	if id := Str(doc.Data["event_id"]); id != "" {
		t.EventIDs = append(t.EventIDs, id)
	}
	t.EventIDs = append(t.EventIDs, StrSlice(doc.Data["event_ids"])...)
	if name := Str(doc.Data["event"]); name != "" {
		t.EventNames = append(t.EventNames, name)
	}
	t.EventNames = append(t.EventNames, StrSlice(doc.Data["events"])...)

	switch members := doc.Data["members"].(type) {
	case []any:
		for _, m := range members {
			entry, ok := m.(map[string]any)
			if !ok {
				continue
			}
			t.Members = append(t.Members, TeamMember{
				GlobalID: Str(entry["global_id"]),
				Verified: Bool(entry["verified"]),
			})
		}
	}
	return t
}

// MembersData re-encodes the roster for a merge write.
func (t *Team) MembersData() []any {
	out := make([]any, 0, len(t.Members))
	for _, m := range t.Members {
		out = append(out, map[string]any{
			"global_id": m.GlobalID,
			"verified":  m.Verified,
		})
	}
	return out
}

// RegistrationFromDoc decodes a registrations document. The athlete id
// appears as user_global_id in current documents and user_id in older ones.
func RegistrationFromDoc(doc *store.Doc) *Registration {
	globalID := Str(doc.Data["user_global_id"])
	if globalID == "" {
		globalID = Str(doc.Data["user_id"])
	}
	return &Registration{
		ID:               doc.ID,
		TournamentID:     Str(doc.Data["tournament_id"]),
		UserGlobalID:     globalID,
		EventsRegistered: StrSlice(doc.Data["events_registered"]),
	}
}

// UserFromDoc decodes a users document, including both best_times shapes.
func UserFromDoc(doc *store.Doc) *User {
	u := &User{
		ID:        doc.ID,
		GlobalID:  Str(doc.Data["global_id"]),
		BestTimes: make(map[string]BestTime),
	}
	if records, ok := doc.Data["registration_records"].([]any); ok {
		for _, r := range records {
			entry, ok := r.(map[string]any)
			if !ok {
				continue
			}
			u.RegistrationRecords = append(u.RegistrationRecords, RegistrationRecord{
				TournamentID: Str(entry["tournament_id"]),
				Events:       StrSlice(entry["events"]),
			})
		}
	}
	if times, ok := doc.Data["best_times"].(map[string]any); ok {
		for event, v := range times {
			if bt, ok := BestTimeFromValue(v); ok {
				u.BestTimes[event] = bt
			}
		}
	}
	return u
}

// RegistrationRecordFor returns the user's entry for the tournament, if any.
func (u *User) RegistrationRecordFor(tournamentID string) (RegistrationRecord, bool) {
	for _, r := range u.RegistrationRecords {
		if r.TournamentID == tournamentID {
			return r, true
		}
	}
	return RegistrationRecord{}, false
}

// BestTimeFromValue decodes one best_times entry. Legacy documents store a
// bare number, current ones a {time, updated_at, season} map.
func BestTimeFromValue(v any) (BestTime, bool) {
	if n, ok := Num(v); ok {
		return BestTime{Time: n}, true
	}
	entry, ok := v.(map[string]any)
	if !ok {
		return BestTime{}, false
	}
	n, ok := Num(entry["time"])
	if !ok {
		return BestTime{}, false
	}
	bt := BestTime{Time: n, Season: Str(entry["season"])}
	if t, ok := Time(entry["updated_at"]); ok {
		bt.UpdatedAt = t
	}
	return bt, true
}

// InfoFromDoc decodes a tournaments document's display metadata.
func InfoFromDoc(doc *store.Doc) *Info {
	return &Info{
		ID:        doc.ID,
		Name:      Str(doc.Data["name"]),
		StartDate: doc.Data["start_date"],
		EndDate:   doc.Data["end_date"],
		Country:   Str(doc.Data["country"]),
		Venue:     Str(doc.Data["venue"]),
	}
}
