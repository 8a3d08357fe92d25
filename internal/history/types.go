package history

import (
	"time"

	"github.com/KJiShou/Sport-Stacking-Website-sub001/internal/metrics"
	"github.com/KJiShou/Sport-Stacking-Website-sub001/internal/store"
)

// Aggregator rebuilds athletes' denormalized competition histories from the
// three record collections.
type Aggregator struct {
	store   store.Store
	metrics metrics.Metrics
	now     func() time.Time
}

// Result is the normalized view of one source record inside a history
// document.
type Result struct {
	Path           string
	Event          string
	EventKey       string
	EventCategory  string
	Round          *string
	Try1           *float64
	Try2           *float64
	Try3           *float64
	BestTime       *float64
	Status         string
	Classification string
	ResultType     string
	Role           string
	LeaderID       string
	MemberIDs      []string
	SubmittedAt    any
	VerifiedAt     any
	CreatedAt      any
	UpdatedAt      any
	VideoURL       string

	// activityAt is the sort key: updated_at, else created_at, else
	// submitted_at, else verified_at, else zero. Unix milliseconds.
	activityAt int64
}

// Summary is one tournament group within a history document.
type Summary struct {
	TournamentID   string
	Name           string
	StartDate      any
	EndDate        any
	Country        string
	Venue          string
	LastActivityAt int64
	Results        []Result
}

// Result and participant role values.
const (
	ResultIndividual = "individual"
	ResultTeam       = "team"

	RoleParticipant = "participant"
	RoleLeader      = "leader"
	RoleMember      = "member"
)

// eventCategories maps lowercased event-type strings to their snake-cased
// category. Anything else is an individual event.
var eventCategories = map[string]string{
	"double":             "double",
	"team relay":         "team_relay",
	"parent & child":     "parent_child",
	"special need":       "special_need",
	"stack out champion": "stack_out_champion",
	"stackout champion":  "stack_out_champion",
	"blindfolded cycle":  "blindfolded_cycle",
}

const defaultCategory = "individual"

func (r Result) toMap() map[string]any {
	out := map[string]any{
		"path":          r.Path,
		"eventCategory": r.EventCategory,
		"resultType":    r.ResultType,
		"role":          r.Role,
	}
	// round carries an explicit null when no stage can be inferred.
	if r.Round != nil {
		out["round"] = *r.Round
	} else {
		out["round"] = nil
	}
	if r.Event != "" {
		out["event"] = r.Event
	}
	if r.EventKey != "" {
		out["eventKey"] = r.EventKey
	}
	if r.Try1 != nil {
		out["try1"] = *r.Try1
	}
	if r.Try2 != nil {
		out["try2"] = *r.Try2
	}
	if r.Try3 != nil {
		out["try3"] = *r.Try3
	}
	if r.BestTime != nil {
		out["bestTime"] = *r.BestTime
	}
	if r.Status != "" {
		out["status"] = r.Status
	}
	if r.Classification != "" {
		out["classification"] = r.Classification
	}
	if r.ResultType == ResultTeam {
		out["leaderId"] = r.LeaderID
		out["memberIds"] = r.MemberIDs
	}
	if r.SubmittedAt != nil {
		out["submittedAt"] = r.SubmittedAt
	}
	if r.VerifiedAt != nil {
		out["verifiedAt"] = r.VerifiedAt
	}
	if r.CreatedAt != nil {
		out["createdAt"] = r.CreatedAt
	}
	if r.UpdatedAt != nil {
		out["updatedAt"] = r.UpdatedAt
	}
	if r.VideoURL != "" {
		out["videoUrl"] = r.VideoURL
	}
	return out
}

func (s Summary) toMap() map[string]any {
	results := make([]any, 0, len(s.Results))
	for _, r := range s.Results {
		results = append(results, r.toMap())
	}
	return map[string]any{
		"tournamentId":   s.TournamentID,
		"name":           s.Name,
		"startDate":      s.StartDate,
		"endDate":        s.EndDate,
		"country":        s.Country,
		"venue":          s.Venue,
		"lastActivityAt": s.LastActivityAt,
		"results":        results,
	}
}
