package script

// Turn is one message attributed to one speaker in the conversation.
type Turn struct {
	Speaker Speaker `json:"speaker"`
	Message string  `json:"message"`
}

// Conversation is the ordered list of turns of a writing session.
type Conversation []Turn

// LastSpeaker returns the speaker of the final turn, or false when the
// conversation is empty.
func (c Conversation) LastSpeaker() (Speaker, bool) {
	if len(c) == 0 {
		return "", false
	}
	return c[len(c)-1].Speaker, true
}

// NextSpeaker returns the character expected to speak next. Character A
// opens an empty conversation, afterwards speakers strictly alternate.
func (c Conversation) NextSpeaker() Speaker {
	last, ok := c.LastSpeaker()
	if !ok {
		return SpeakerA
	}
	return last.Other()
}

// Clone returns an independent copy of the conversation.
func (c Conversation) Clone() Conversation {
	if c == nil {
		return nil
	}
	copied := make(Conversation, len(c))
	copy(copied, c)
	return copied
}
