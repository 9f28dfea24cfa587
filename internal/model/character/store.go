package character

// Store exposes character preset retrieval for HTTP handlers.
type Store interface {
	List() []Character
	FindByID(id string) (Character, bool)
}

// MemoryStore implements Store with an in-memory slice.
type MemoryStore struct {
	items []Character
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied presets.
func NewMemoryStore(items []Character) *MemoryStore {
	return &MemoryStore{items: append([]Character(nil), items...)}
}

// List returns the preset character list.
func (s *MemoryStore) List() []Character {
	return append([]Character(nil), s.items...)
}

// FindByID looks up a preset by identifier.
func (s *MemoryStore) FindByID(id string) (Character, bool) {
	for _, item := range s.items {
		if item.ID == id {
			return item, true
		}
	}
	return Character{}, false
}
