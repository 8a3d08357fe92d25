package verification

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KJiShou/Sport-Stacking-Website-sub001/internal/metrics"
	"github.com/KJiShou/Sport-Stacking-Website-sub001/internal/store"
	"github.com/KJiShou/Sport-Stacking-Website-sub001/internal/tournament"
)

const (
	tournamentID = "t1"
	athleteX     = "STK-X"
)

func validRequest() Request {
	return Request{
		TournamentID:   tournamentID,
		TeamID:         "team-b",
		MemberID:       athleteX,
		RegistrationID: "reg-x",
	}
}

// seedBase loads the fixture the happy path needs: team-b with athlete X as
// an unverified member, X's user document and registration.
func seedBase(mem *store.Memory) {
	mem.Seed(store.Teams, "team-b", map[string]any{
		"tournament_id": tournamentID,
		"name":          "Team B",
		"leader_id":     "STK-L",
		"events":        []any{"3-3-3-individual"},
		"members": []any{
			map[string]any{"global_id": "STK-L", "verified": true},
			map[string]any{"global_id": athleteX, "verified": false},
		},
	})
	mem.Seed(store.Users, "user-x", map[string]any{
		"global_id": athleteX,
		"registration_records": []any{
			map[string]any{"tournament_id": tournamentID, "events": []any{}},
		},
	})
	mem.Seed(store.Registrations, "reg-x", map[string]any{
		"tournament_id":     tournamentID,
		"user_global_id":    athleteX,
		"events_registered": []any{},
	})
}

func TestVerify_Success(t *testing.T) {
	mem := store.NewMemory()
	seedBase(mem)
	v := New(mem, metrics.NewMock())

	result, err := v.Verify(context.Background(), validRequest())
	require.NoError(t, err)
	assert.False(t, result.AlreadyVerified)
	assert.Equal(t, []string{"3-3-3-individual"}, result.RegisteredEvents)

	teamDoc, err := mem.Get(context.Background(), store.Teams, "team-b")
	require.NoError(t, err)
	team := tournament.TeamFromDoc(teamDoc)
	require.Len(t, team.Members, 2)
	assert.True(t, team.Members[1].Verified, "member should be flipped to verified")

	regDoc, err := mem.Get(context.Background(), store.Registrations, "reg-x")
	require.NoError(t, err)
	assert.Equal(t, []string{"3-3-3-individual"}, tournament.RegistrationFromDoc(regDoc).EventsRegistered)

	userDoc, err := mem.Get(context.Background(), store.Users, "user-x")
	require.NoError(t, err)
	record, ok := tournament.UserFromDoc(userDoc).RegistrationRecordFor(tournamentID)
	require.True(t, ok)
	assert.Equal(t, []string{"3-3-3-individual"}, record.Events)

	assert.Len(t, mem.TxSetCalls, 3, "registration, user and team should each be written once")
}

func TestVerify_PrefersEventIDsAsKeys(t *testing.T) {
	mem := store.NewMemory()
	seedBase(mem)
	mem.Seed(store.Teams, "team-b", map[string]any{
		"event_ids": []any{"ev-relay"},
	})
	v := New(mem, metrics.NewMock())

	result, err := v.Verify(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Equal(t, []string{"ev-relay"}, result.RegisteredEvents)
}

func TestVerify_Idempotent(t *testing.T) {
	mem := store.NewMemory()
	seedBase(mem)
	metr := metrics.NewMock()
	v := New(mem, metr)

	_, err := v.Verify(context.Background(), validRequest())
	require.NoError(t, err)
	writesAfterFirst := len(mem.TxSetCalls)

	result, err := v.Verify(context.Background(), validRequest())
	require.NoError(t, err)
	assert.True(t, result.AlreadyVerified)
	assert.Empty(t, result.RegisteredEvents)
	assert.Len(t, mem.TxSetCalls, writesAfterFirst, "second call must perform zero document mutations")
	assert.Equal(t, 2, metr.VerificationSuccessCount, "re-verification is a success, not an error")
}

func TestVerify_CrossTeamConflict(t *testing.T) {
	mem := store.NewMemory()
	seedBase(mem)
	// Athlete X leads team-a, which shares the event with team-b.
	mem.Seed(store.Teams, "team-a", map[string]any{
		"tournament_id": tournamentID,
		"name":          "Team A",
		"leader_id":     athleteX,
		"events":        []any{"3-3-3-individual"},
		"members": []any{
			map[string]any{"global_id": athleteX, "verified": true},
		},
	})
	metr := metrics.NewMock()
	v := New(mem, metr)

	_, err := v.Verify(context.Background(), validRequest())
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "team-a", conflict.TeamID)
	assert.Equal(t, "Team A", conflict.TeamName)
	assert.Empty(t, mem.TxSetCalls, "a failed verification must not change any document")
	assert.Equal(t, 1, metr.VerificationConflictCount)
}

func TestVerify_CrossTeamUnverifiedMembershipIsNoConflict(t *testing.T) {
	mem := store.NewMemory()
	seedBase(mem)
	// X is only an unverified member of team-a: no verified participation yet.
	mem.Seed(store.Teams, "team-a", map[string]any{
		"tournament_id": tournamentID,
		"leader_id":     "STK-OTHER",
		"events":        []any{"3-3-3-individual"},
		"members": []any{
			map[string]any{"global_id": athleteX, "verified": false},
		},
	})
	v := New(mem, metrics.NewMock())

	_, err := v.Verify(context.Background(), validRequest())
	require.NoError(t, err)
}

func TestVerify_OwnRegistrationConflict(t *testing.T) {
	mem := store.NewMemory()
	seedBase(mem)
	mem.Seed(store.Users, "user-x", map[string]any{
		"registration_records": []any{
			map[string]any{"tournament_id": tournamentID, "events": []any{"3-3-3-Individual"}},
		},
	})
	v := New(mem, metrics.NewMock())

	_, err := v.Verify(context.Background(), validRequest())
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Empty(t, conflict.TeamID, "own-registration conflicts carry no team")
	assert.Empty(t, mem.TxSetCalls)
}

func TestVerify_RegistrationDocumentConflict(t *testing.T) {
	mem := store.NewMemory()
	seedBase(mem)
	// The registration document drifted from the user record: only the
	// former holds the event. The check must still fire.
	mem.Seed(store.Registrations, "reg-x", map[string]any{
		"events_registered": []any{"3-3-3-individual"},
	})
	v := New(mem, metrics.NewMock())

	_, err := v.Verify(context.Background(), validRequest())
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Empty(t, mem.TxSetCalls)
}

func TestVerify_TeamWithoutEventReferences(t *testing.T) {
	mem := store.NewMemory()
	seedBase(mem)
	mem.Seed(store.Teams, "team-b", map[string]any{
		"events": []any{},
	})
	v := New(mem, metrics.NewMock())

	result, err := v.Verify(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Empty(t, result.RegisteredEvents)

	teamDoc, err := mem.Get(context.Background(), store.Teams, "team-b")
	require.NoError(t, err)
	assert.True(t, tournament.TeamFromDoc(teamDoc).Members[1].Verified)
}

func TestVerify_Preconditions(t *testing.T) {
	t.Run("missing team is not found", func(t *testing.T) {
		mem := store.NewMemory()
		v := New(mem, metrics.NewMock())
		_, err := v.Verify(context.Background(), validRequest())
		var notFound *NotFoundError
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, "team", notFound.Entity)
	})

	t.Run("team from another tournament is a membership error", func(t *testing.T) {
		mem := store.NewMemory()
		seedBase(mem)
		mem.Seed(store.Teams, "team-b", map[string]any{"tournament_id": "t-other"})
		v := New(mem, metrics.NewMock())
		_, err := v.Verify(context.Background(), validRequest())
		var membership *MembershipError
		require.ErrorAs(t, err, &membership)
	})

	t.Run("missing user is not found", func(t *testing.T) {
		mem := store.NewMemory()
		seedBase(mem)
		req := validRequest()
		req.MemberID = "STK-GHOST"
		v := New(mem, metrics.NewMock())
		_, err := v.Verify(context.Background(), req)
		var notFound *NotFoundError
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, "user", notFound.Entity)
	})

	t.Run("caller not on the roster is a membership error", func(t *testing.T) {
		mem := store.NewMemory()
		seedBase(mem)
		mem.Seed(store.Users, "user-y", map[string]any{
			"global_id": "STK-Y",
			"registration_records": []any{
				map[string]any{"tournament_id": tournamentID, "events": []any{}},
			},
		})
		req := validRequest()
		req.MemberID = "STK-Y"
		v := New(mem, metrics.NewMock())
		_, err := v.Verify(context.Background(), req)
		var membership *MembershipError
		require.ErrorAs(t, err, &membership)
	})

	t.Run("athlete without a registration record is a membership error", func(t *testing.T) {
		mem := store.NewMemory()
		seedBase(mem)
		mem.Seed(store.Users, "user-x", map[string]any{
			"registration_records": []any{
				map[string]any{"tournament_id": "t-other", "events": []any{}},
			},
		})
		v := New(mem, metrics.NewMock())
		_, err := v.Verify(context.Background(), validRequest())
		var membership *MembershipError
		require.ErrorAs(t, err, &membership)
	})

	t.Run("missing registration document is not found", func(t *testing.T) {
		mem := store.NewMemory()
		seedBase(mem)
		req := validRequest()
		req.RegistrationID = "reg-ghost"
		v := New(mem, metrics.NewMock())
		_, err := v.Verify(context.Background(), req)
		var notFound *NotFoundError
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, "registration", notFound.Entity)
	})
}

func TestVerify_Validation(t *testing.T) {
	v := New(store.NewMemory(), metrics.NewMock())
	for _, tc := range []struct {
		name  string
		edit  func(*Request)
		field string
	}{
		{"tournament", func(r *Request) { r.TournamentID = "" }, "tournamentId"},
		{"team", func(r *Request) { r.TeamID = "" }, "teamId"},
		{"member", func(r *Request) { r.MemberID = "" }, "memberId"},
		{"registration", func(r *Request) { r.RegistrationID = "" }, "registrationId"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			req := validRequest()
			tc.edit(&req)
			_, err := v.Verify(context.Background(), req)
			var validation *ValidationError
			require.ErrorAs(t, err, &validation)
			assert.Equal(t, tc.field, validation.Field)
		})
	}
}

func TestUnion(t *testing.T) {
	assert.Equal(t, []string{"a", "B"}, union([]string{"a"}, []string{"A", "B"}),
		"union compares case-insensitively but preserves stored casing")
	assert.Equal(t, []string{"a"}, union(nil, []string{"a", " ", "a"}))
}

func TestVerifyErrorTaxonomy(t *testing.T) {
	// ConflictError messages differ between cross-team and own-registration.
	withTeam := &ConflictError{TeamID: "team-a", TeamName: "Team A", Event: "cycle"}
	assert.Contains(t, withTeam.Error(), "Team A")
	generic := &ConflictError{Event: "cycle"}
	assert.NotContains(t, generic.Error(), "team")
	assert.True(t, errors.As(error(withTeam), new(*ConflictError)))
}
