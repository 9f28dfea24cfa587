package character

// Character is a name and a free-text backstory used to build the
// per-turn system prompt.
type Character struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Story string `json:"story"`
}

// Defaults returns the characters filling an unspecified cast slot.
func Defaults() (Character, Character) {
	seeds := Seed()
	return seeds[0], seeds[1]
}

// Seed provides the default character presets offered to new sessions.
func Seed() []Character {
	return []Character{
		{
			ID:    "default-a",
			Name:  "A",
			Story: "A middle aged man happy with his life.",
		},
		{
			ID:    "default-b",
			Name:  "B",
			Story: "A middle aged woman happy with her life.",
		},
		{
			ID:    "weathered-captain",
			Name:  "Elias",
			Story: "A retired sea captain who measures every conversation against the storms he has outlived. Gruff but generous with hard-earned advice.",
		},
		{
			ID:    "wandering-scholar",
			Name:  "Mireille",
			Story: "A travelling scholar cataloguing forgotten dialects. Curious to a fault, she answers questions with anecdotes from the road.",
		},
	}
}
