package verification

import "fmt"

// NotFoundError reports a missing team, user or registration document.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.ID)
}

// MembershipError reports a request that names real documents but an invalid
// relationship between them: caller not on the roster, team belonging to a
// different tournament, or athlete not registered for the tournament.
type MembershipError struct {
	Reason string
}

func (e *MembershipError) Error() string {
	return e.Reason
}

// ConflictError reports overlapping event participation. TeamID and TeamName
// are set when the overlap is with another team; for an overlap with the
// athlete's own registered events they are empty.
type ConflictError struct {
	TeamID   string
	TeamName string
	Event    string
}

func (e *ConflictError) Error() string {
	if e.TeamID != "" {
		name := e.TeamName
		if name == "" {
			name = e.TeamID
		}
		return fmt.Sprintf("athlete already participates in event %q with team %q", e.Event, name)
	}
	return fmt.Sprintf("athlete is already registered for event %q", e.Event)
}

// ValidationError reports a missing required request field.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required field %q", e.Field)
}
