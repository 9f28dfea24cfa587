package script

import (
	"time"

	"github.com/Ahmed-AmineHomman/escribito/internal/model/character"
)

// Cast binds the two conversation slots to concrete characters.
type Cast struct {
	A character.Character `json:"a"`
	B character.Character `json:"b"`
}

// Get returns the character occupying the speaker's slot.
func (c Cast) Get(s Speaker) character.Character {
	if s == SpeakerA {
		return c.A
	}
	return c.B
}

// Name returns the display name for the speaker.
func (c Cast) Name(s Speaker) string {
	return c.Get(s).Name
}

// Session captures a transient anonymous writing session.
type Session struct {
	ID        string    `json:"id"`
	Cast      Cast      `json:"cast"`
	CreatedAt time.Time `json:"createdAt"`
}
