package script

// Speaker identifies which of the two characters a turn belongs to.
type Speaker string

const (
	SpeakerA Speaker = "character-a"
	SpeakerB Speaker = "character-b"
)

// Valid reports whether the speaker is one of the two known characters.
func (s Speaker) Valid() bool {
	return s == SpeakerA || s == SpeakerB
}

// Other returns the opposite speaker.
func (s Speaker) Other() Speaker {
	if s == SpeakerA {
		return SpeakerB
	}
	return SpeakerA
}
