package events

import (
	"github.com/KJiShou/Sport-Stacking-Website-sub001/internal/store"
	"github.com/KJiShou/Sport-Stacking-Website-sub001/internal/tournament"
)

// overallCode is a pseudo-code upstream attaches to whole-event standings.
// It never identifies a real sub-event, so it is stripped at decode time.
const overallCode = "Overall"

// Event is one tournament event as stored in the events collection.
type Event struct {
	ID     string
	Type   string
	Gender string
	Codes  []string
}

// FromDoc decodes an events document, dropping the "Overall" pseudo-code.
func FromDoc(doc *store.Doc) Event {
	ev := Event{
		ID:     doc.ID,
		Type:   tournament.Str(doc.Data["type"]),
		Gender: tournament.Str(doc.Data["gender"]),
	}
	for _, code := range tournament.StrSlice(doc.Data["codes"]) {
		if code == overallCode {
			continue
		}
		ev.Codes = append(ev.Codes, code)
	}
	return ev
}
