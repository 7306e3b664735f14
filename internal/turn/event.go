package turn

import "elisa/internal/dialogue"

type event interface{ isEvent() }

type (
	recordRequested struct{}
	clearRequested  struct{}
	greetRequested  struct{}

	submitted struct{ text string }

	countdown struct {
		id        uint64
		remaining int
	}

	captured struct {
		id   uint64
		text string
	}

	replied struct {
		input string
		reply dialogue.Reply
	}

	spoken struct{ id uint64 }
)

func (recordRequested) isEvent() {}
func (clearRequested) isEvent()  {}
func (greetRequested) isEvent()  {}
func (submitted) isEvent()       {}
func (countdown) isEvent()       {}
func (captured) isEvent()        {}
func (replied) isEvent()         {}
func (spoken) isEvent()          {}
