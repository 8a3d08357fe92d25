package store

// Collection names consumed and written by the engine. These are shared with
// the registration and scoring flows and must not drift.
const (
	Tournaments    = "tournaments"
	Teams          = "teams"
	Registrations  = "registrations"
	Users          = "users"
	Records        = "records"
	PrelimRecords  = "prelim_records"
	OverallRecords = "overall_records"
	Events         = "events"
	UserHistory    = "user_tournament_history"
)

// Doc is one document as read from the store. Data keeps the store's native
// loosely-typed representation; normalization into typed models happens at
// the read boundary of each domain package.
type Doc struct {
	Collection string
	ID         string
	Data       map[string]any
}

// Key identifies a document across collections. Used as a map key when
// deduplicating query results.
type Key struct {
	Collection string
	ID         string
}

// Ref returns the composite key of the document.
func (d *Doc) Ref() Key {
	return Key{Collection: d.Collection, ID: d.ID}
}

// Path returns the slash-joined document path, e.g. "records/abc123".
func (d *Doc) Path() string {
	return d.Collection + "/" + d.ID
}

// Filter operators. The engine only ever needs equality and array membership;
// composite queries are expressed as multiple filters ANDed together.
const (
	OpEqual         = "=="
	OpArrayContains = "array-contains"
)

// Filter is a single field predicate.
type Filter struct {
	Path  string
	Op    string
	Value any
}

// Eq builds an equality filter.
func Eq(path string, value any) Filter {
	return Filter{Path: path, Op: OpEqual, Value: value}
}

// Contains builds an array-contains filter.
func Contains(path string, value any) Filter {
	return Filter{Path: path, Op: OpArrayContains, Value: value}
}
