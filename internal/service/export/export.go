package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Ahmed-AmineHomman/escribito/internal/model/script"
)

// ErrWrite marks a failed transcript write. The underlying I/O error stays
// wrapped inside.
var ErrWrite = errors.New("transcript write failed")

// Entry is one exported turn: the character's display name and its line.
type Entry struct {
	Character string `json:"character"`
	Message   string `json:"message"`
}

// Exporter serializes conversations to JSON files under a base directory.
type Exporter struct {
	dir string
}

// NewExporter returns an exporter rooted at the provided directory.
func NewExporter(dir string) *Exporter {
	return &Exporter{dir: dir}
}

// Entries maps every turn to its export entry, resolving speaker slots to
// the cast's display names.
func Entries(cast script.Cast, conversation script.Conversation) []Entry {
	entries := make([]Entry, 0, len(conversation))
	for _, turn := range conversation {
		entries = append(entries, Entry{
			Character: cast.Name(turn.Speaker),
			Message:   turn.Message,
		})
	}
	return entries
}

// Render returns the transcript as indented UTF-8 JSON.
func Render(cast script.Cast, conversation script.Conversation) ([]byte, error) {
	data, err := json.MarshalIndent(Entries(cast, conversation), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrWrite, err)
	}
	return data, nil
}

// Export writes the transcript to a session-scoped file and returns its
// path. The write is atomic: a temp file is renamed into place.
func (e *Exporter) Export(session script.Session, conversation script.Conversation) (string, error) {
	data, err := Render(session.Cast, conversation)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: create export directory: %w", ErrWrite, err)
	}

	path := filepath.Join(e.dir, fmt.Sprintf("conversation-%s-%d.json", session.ID, time.Now().Unix()))

	tmp, err := os.CreateTemp(e.dir, "conversation-*.json")
	if err != nil {
		return "", fmt.Errorf("%w: create temp file: %w", ErrWrite, err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("%w: %w", ErrWrite, err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("%w: close temp file: %w", ErrWrite, err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("%w: persist transcript: %w", ErrWrite, err)
	}

	return path, nil
}
