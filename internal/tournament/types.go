package tournament

import "time"

// Team is a tournament team as stored in the teams collection. Event
// references are normalized from the tolerant source shapes (scalar
// event_id/event vs. plural event_ids/events) at decode time.
type Team struct {
	ID           string
	TournamentID string
	Name         string
	LeaderID     string
	Members      []TeamMember
	EventIDs     []string
	EventNames   []string
}

// TeamMember is one roster entry.
type TeamMember struct {
	GlobalID string
	Verified bool
}

// Registration is one athlete's registration document for one tournament.
type Registration struct {
	ID               string
	TournamentID     string
	UserGlobalID     string
	EventsRegistered []string
}

// RegistrationRecord is the per-tournament entry embedded in a user document.
type RegistrationRecord struct {
	TournamentID string
	Events       []string
}

// BestTime is one entry of a user's best_times map. Legacy documents store a
// raw number; current ones store {time, updated_at, season}. Both decode into
// this struct, with the metadata zero-valued for the legacy shape.
type BestTime struct {
	Time      float64
	UpdatedAt time.Time
	Season    string
}

// User is an athlete document. GlobalID is the stable external identifier and
// may differ from the document id.
type User struct {
	ID                  string
	GlobalID            string
	RegistrationRecords []RegistrationRecord
	BestTimes           map[string]BestTime
}

// Info is a tournament's display metadata, copied verbatim into derived
// history documents. Dates stay in the source's own representation so a
// rebuild is byte-stable regardless of how upstream wrote them.
type Info struct {
	ID        string
	Name      string
	StartDate any
	EndDate   any
	Country   string
	Venue     string
}
