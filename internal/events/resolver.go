// Package events normalizes the heterogeneous event-association fields a
// team may carry and resolves raw references to human-readable labels.
package events

import (
	"context"
	"strings"

	"github.com/KJiShou/Sport-Stacking-Website-sub001/internal/store"
	"github.com/KJiShou/Sport-Stacking-Website-sub001/internal/tournament"
)

// References returns the team's raw event references: ids unioned with
// names, trimmed, deduplicated, case preserved. Order follows first
// occurrence so repeated calls are stable.
func References(t *tournament.Team) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, ref := range append(append([]string{}, t.EventIDs...), t.EventNames...) {
		ref = strings.TrimSpace(ref)
		if ref == "" {
			continue
		}
		if _, ok := seen[ref]; ok {
			continue
		}
		seen[ref] = struct{}{}
		out = append(out, ref)
	}
	return out
}

// PreferredKeys returns the canonical keys to register for a team: its event
// ids when any exist, otherwise its event names, otherwise the caller's
// fallback list.
func PreferredKeys(t *tournament.Team, fallback []string) []string {
	if len(t.EventIDs) > 0 {
		return dedupTrimmed(t.EventIDs)
	}
	if len(t.EventNames) > 0 {
		return dedupTrimmed(t.EventNames)
	}
	return fallback
}

// NormalizeSet lowercases and trims references into a set for overlap checks.
func NormalizeSet(refs []string) map[string]struct{} {
	set := make(map[string]struct{}, len(refs))
	for _, ref := range refs {
		ref = strings.ToLower(strings.TrimSpace(ref))
		if ref != "" {
			set[ref] = struct{}{}
		}
	}
	return set
}

// Overlap returns the first element of b (in order) whose normalized form is
// present in set a.
func Overlap(a map[string]struct{}, b []string) (string, bool) {
	for _, ref := range b {
		if _, ok := a[strings.ToLower(strings.TrimSpace(ref))]; ok {
			return ref, true
		}
	}
	return "", false
}

// Resolver resolves raw event references against a tournament's events.
type Resolver struct {
	store store.Reader
}

// NewResolver creates a Resolver backed by the given reader.
func NewResolver(s store.Reader) *Resolver {
	return &Resolver{store: s}
}

// ResolveLabels fetches the tournament's events and maps each reference to a
// display label. A reference is matched case-insensitively against every
// candidate an event answers to: its id, its type, each code, each
// "{code}-{type}" compound, and its formatted label. References that match
// nothing are silently dropped.
func (r *Resolver) ResolveLabels(ctx context.Context, tournamentID string, refs []string) ([]string, error) {
	docs, err := r.store.Query(ctx, store.Events, store.Eq("tournament_id", tournamentID))
	if err != nil {
		return nil, err
	}

	type candidate struct {
		keys  map[string]struct{}
		label string
	}
	candidates := make([]candidate, 0, len(docs))
	for _, doc := range docs {
		ev := FromDoc(doc)
		label := FormatLabel(ev)
		keys := make(map[string]struct{})
		add := func(s string) {
			if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
				keys[s] = struct{}{}
			}
		}
		add(ev.ID)
		add(ev.Type)
		for _, code := range ev.Codes {
			add(code)
			add(code + "-" + ev.Type)
		}
		add(label)
		candidates = append(candidates, candidate{keys: keys, label: label})
	}

	var labels []string
	seen := make(map[string]struct{})
	for _, ref := range refs {
		needle := strings.ToLower(strings.TrimSpace(ref))
		if needle == "" {
			continue
		}
		for _, c := range candidates {
			if _, ok := c.keys[needle]; !ok {
				continue
			}
			if _, dup := seen[c.label]; !dup {
				seen[c.label] = struct{}{}
				labels = append(labels, c.label)
			}
			break
		}
	}
	return labels, nil
}

// FormatLabel renders an event's display label, e.g.
// "Individual - Male (3-6-3)". Gender falls back to Mixed unless it is
// exactly Male or Female.
func FormatLabel(ev Event) string {
	gender := ev.Gender
	if gender != "Male" && gender != "Female" {
		gender = "Mixed"
	}
	label := ev.Type + " - " + gender
	if len(ev.Codes) > 0 {
		label += " (" + strings.Join(ev.Codes, ", ") + ")"
	}
	return label
}

func dedupTrimmed(refs []string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, ref := range refs {
		ref = strings.TrimSpace(ref)
		if ref == "" {
			continue
		}
		if _, ok := seen[ref]; ok {
			continue
		}
		seen[ref] = struct{}{}
		out = append(out, ref)
	}
	return out
}
