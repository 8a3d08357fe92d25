package verification

import (
	"github.com/KJiShou/Sport-Stacking-Website-sub001/internal/metrics"
	"github.com/KJiShou/Sport-Stacking-Website-sub001/internal/store"
)

// Verifier performs the atomic unverified-to-verified transition for one
// team member.
type Verifier struct {
	store   store.Store
	metrics metrics.Metrics
}

// Request identifies the member being verified. All fields are required.
type Request struct {
	TournamentID   string `json:"tournamentId" msgpack:"tournamentId"`
	TeamID         string `json:"teamId" msgpack:"teamId"`
	MemberID       string `json:"memberId" msgpack:"memberId"`
	RegistrationID string `json:"registrationId" msgpack:"registrationId"`
}

// Result reports the outcome of a successful verification.
type Result struct {
	// AlreadyVerified is true when the member was verified before this call
	// and the call mutated nothing.
	AlreadyVerified bool `json:"alreadyVerified"`
	// RegisteredEvents are the canonical event keys unioned into the
	// athlete's registration on this call. Empty on the idempotent path and
	// for teams with no event references.
	RegisteredEvents []string `json:"registeredEvents,omitempty"`
}

// Validate checks that every required field is present.
func (r Request) Validate() error {
	switch {
	case r.TournamentID == "":
		return &ValidationError{Field: "tournamentId"}
	case r.TeamID == "":
		return &ValidationError{Field: "teamId"}
	case r.MemberID == "":
		return &ValidationError{Field: "memberId"}
	case r.RegistrationID == "":
		return &ValidationError{Field: "registrationId"}
	}
	return nil
}
