// Package verification implements the team-membership verification
// transaction. A member flips from unverified to verified at most once, and
// the flip may not create duplicate event participation for the athlete,
// either across teams or against their individual registration.
package verification

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/KJiShou/Sport-Stacking-Website-sub001/internal/events"
	"github.com/KJiShou/Sport-Stacking-Website-sub001/internal/metrics"
	"github.com/KJiShou/Sport-Stacking-Website-sub001/internal/store"
	"github.com/KJiShou/Sport-Stacking-Website-sub001/internal/tournament"
)

// New creates a Verifier.
func New(s store.Store, m metrics.Metrics) *Verifier {
	return &Verifier{store: s, metrics: m}
}

// Verify runs the whole check-and-write as one transaction. Two concurrent
// calls for mutually exclusive events would otherwise both pass validation
// before either writes; the invariant only holds because the store retries
// one of them against the other's committed state.
func (v *Verifier) Verify(ctx context.Context, req Request) (Result, error) {
	if err := req.Validate(); err != nil {
		return Result{}, err
	}

	var result Result
	err := v.store.RunTransaction(ctx, func(tx store.Tx) error {
		// The closure can be retried, so the result is rebuilt from scratch
		// on every attempt.
		result = Result{}
		return v.verifyInTx(ctx, tx, req, &result)
	})
	switch {
	case err == nil:
		v.metrics.IncVerificationSuccess()
		log.Info("Member verified", "tournamentID", req.TournamentID, "teamID", req.TeamID,
			"memberID", req.MemberID, "alreadyVerified", result.AlreadyVerified, "events", result.RegisteredEvents)
	case isConflict(err):
		v.metrics.IncVerificationConflict()
	default:
		v.metrics.IncVerificationFailed()
	}
	return result, err
}

func (v *Verifier) verifyInTx(ctx context.Context, tx store.Tx, req Request, result *Result) error {
	// Read set, part one: the documents the preconditions are phrased over.
	teamDoc, err := tx.Get(ctx, store.Teams, req.TeamID)
	if errors.Is(err, store.ErrNotFound) {
		return &NotFoundError{Entity: "team", ID: req.TeamID}
	}
	if err != nil {
		return err
	}
	team := tournament.TeamFromDoc(teamDoc)
	if team.TournamentID != req.TournamentID {
		return &MembershipError{Reason: "team does not belong to the given tournament"}
	}

	userDocs, err := tx.Query(ctx, store.Users, store.Eq("global_id", req.MemberID))
	if err != nil {
		return err
	}
	if len(userDocs) == 0 {
		return &NotFoundError{Entity: "user", ID: req.MemberID}
	}
	user := tournament.UserFromDoc(userDocs[0])

	memberIdx := -1
	for i, m := range team.Members {
		if m.GlobalID == req.MemberID {
			memberIdx = i
			break
		}
	}
	if memberIdx == -1 {
		return &MembershipError{Reason: "athlete is not a member of this team"}
	}

	// Idempotent short-circuit: re-verification is a success with zero writes.
	if team.Members[memberIdx].Verified {
		result.AlreadyVerified = true
		return nil
	}

	userRecord, registered := user.RegistrationRecordFor(req.TournamentID)
	if !registered {
		return &MembershipError{Reason: "athlete is not registered for this tournament"}
	}

	// Read set, part two: the documents the overlap checks are phrased over.
	regDoc, err := tx.Get(ctx, store.Registrations, req.RegistrationID)
	if errors.Is(err, store.ErrNotFound) {
		return &NotFoundError{Entity: "registration", ID: req.RegistrationID}
	}
	if err != nil {
		return err
	}
	registration := tournament.RegistrationFromDoc(regDoc)

	teamDocs, err := tx.Query(ctx, store.Teams, store.Eq("tournament_id", req.TournamentID))
	if err != nil {
		return err
	}

	// Validate.
	normalized := events.NormalizeSet(events.References(team))
	if len(normalized) > 0 {
		if err := checkCrossTeamConflict(normalized, teamDocs, req); err != nil {
			return err
		}
		if ev, overlap := events.Overlap(normalized, userRecord.Events); overlap {
			return &ConflictError{Event: ev}
		}
		// The registration document is checked independently of the user
		// record: the two can drift and either one holding the event is
		// enough to make the verification a duplicate.
		if ev, overlap := events.Overlap(normalized, registration.EventsRegistered); overlap {
			return &ConflictError{Event: ev}
		}
	}

	keys := events.PreferredKeys(team, nil)
	team.Members[memberIdx].Verified = true

	// Write set.
	if err := tx.Set(store.Registrations, registration.ID, map[string]any{
		"events_registered": union(registration.EventsRegistered, keys),
	}); err != nil {
		return err
	}
	if err := tx.Set(store.Users, user.ID, map[string]any{
		"registration_records": encodeRegistrationRecords(user.RegistrationRecords, req.TournamentID, keys),
	}); err != nil {
		return err
	}
	if err := tx.Set(store.Teams, team.ID, map[string]any{
		"members": team.MembersData(),
	}); err != nil {
		return err
	}

	result.RegisteredEvents = keys
	return nil
}

// checkCrossTeamConflict scans the tournament's other teams for one where
// the athlete already holds verified participation (leader, or verified
// member) in an overlapping event.
func checkCrossTeamConflict(normalized map[string]struct{}, teamDocs []*store.Doc, req Request) error {
	for _, doc := range teamDocs {
		if doc.ID == req.TeamID {
			continue
		}
		other := tournament.TeamFromDoc(doc)
		if !holdsVerifiedSpot(other, req.MemberID) {
			continue
		}
		if ev, overlap := events.Overlap(normalized, events.References(other)); overlap {
			return &ConflictError{TeamID: other.ID, TeamName: other.Name, Event: ev}
		}
	}
	return nil
}

func holdsVerifiedSpot(t *tournament.Team, globalID string) bool {
	if t.LeaderID == globalID {
		return true
	}
	for _, m := range t.Members {
		if m.GlobalID == globalID && m.Verified {
			return true
		}
	}
	return false
}

// union appends the new keys that are not already present, comparing
// case-insensitively, preserving existing order and casing.
func union(existing, add []string) []string {
	out := append([]string{}, existing...)
	seen := make(map[string]struct{}, len(existing))
	for _, e := range existing {
		seen[strings.ToLower(strings.TrimSpace(e))] = struct{}{}
	}
	for _, key := range add {
		norm := strings.ToLower(strings.TrimSpace(key))
		if norm == "" {
			continue
		}
		if _, ok := seen[norm]; ok {
			continue
		}
		seen[norm] = struct{}{}
		out = append(out, key)
	}
	return out
}

// encodeRegistrationRecords re-encodes the user's registration_records array
// with the tournament's entry unioned with the new keys.
func encodeRegistrationRecords(records []tournament.RegistrationRecord, tournamentID string, keys []string) []any {
	out := make([]any, 0, len(records))
	for _, r := range records {
		evs := r.Events
		if r.TournamentID == tournamentID {
			evs = union(evs, keys)
		}
		out = append(out, map[string]any{
			"tournament_id": r.TournamentID,
			"events":        asAnySlice(evs),
		})
	}
	return out
}

func asAnySlice(strs []string) []any {
	out := make([]any, len(strs))
	for i, s := range strs {
		out[i] = s
	}
	return out
}

func isConflict(err error) bool {
	var conflict *ConflictError
	return errors.As(err, &conflict)
}
