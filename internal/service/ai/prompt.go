package ai

import (
	"fmt"

	"github.com/cloudwego/eino/schema"

	"github.com/Ahmed-AmineHomman/escribito/internal/model/character"
	"github.com/Ahmed-AmineHomman/escribito/internal/model/script"
)

const systemTemplate = `You will play the part of a given character, involved in a conversation with another character.
You will assume that this other character is the user, and you will respond as your character, which is described below.

- Name: %s,
- Backstory: %s.

Take care in only replying as your character and to never break the fourth curtain.`

// buildSystemPrompt fills the fixed instructional template with the
// speaking character's name and backstory.
func buildSystemPrompt(c character.Character) string {
	return fmt.Sprintf(systemTemplate, c.Name, c.Story)
}

// chainInput assembles the variables for the chat chain. Roles are mapped
// relative to the speaking character: its own past turns become assistant
// messages, the other character's turns become user messages, so the remote
// API always sees a user-terminated history. The final opposing turn fills
// the query slot; an empty conversation submits a single blank user message.
func chainInput(cast script.Cast, conversation script.Conversation, speaker script.Speaker) map[string]any {
	query := " "
	history := conversation
	if len(conversation) > 0 {
		query = conversation[len(conversation)-1].Message
		history = conversation[:len(conversation)-1]
	}

	return map[string]any{
		"system":  buildSystemPrompt(cast.Get(speaker)),
		"history": historyMessages(history, speaker),
		"query":   query,
	}
}

func historyMessages(turns script.Conversation, speaker script.Speaker) []*schema.Message {
	if len(turns) == 0 {
		return nil
	}

	history := make([]*schema.Message, 0, len(turns))
	for _, turn := range turns {
		if turn.Speaker == speaker {
			history = append(history, schema.AssistantMessage(turn.Message, nil))
		} else {
			history = append(history, schema.UserMessage(turn.Message))
		}
	}
	return history
}
