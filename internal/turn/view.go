package turn

import "elisa/internal/convo"

// View is notified of every visible change. All calls happen on the
// controller loop, one at a time.
type View interface {
	PhaseChanged(p Phase)
	EntryAdded(e convo.Entry)
	Countdown(remaining int)
	Cleared()
	RecordEnabled(enabled bool)
}

// Views fans notifications out to several views.
type Views []View

func (vs Views) PhaseChanged(p Phase) {
	for _, v := range vs {
		v.PhaseChanged(p)
	}
}

func (vs Views) EntryAdded(e convo.Entry) {
	for _, v := range vs {
		v.EntryAdded(e)
	}
}

func (vs Views) Countdown(remaining int) {
	for _, v := range vs {
		v.Countdown(remaining)
	}
}

func (vs Views) Cleared() {
	for _, v := range vs {
		v.Cleared()
	}
}

func (vs Views) RecordEnabled(enabled bool) {
	for _, v := range vs {
		v.RecordEnabled(enabled)
	}
}
