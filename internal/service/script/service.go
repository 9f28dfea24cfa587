package script

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Ahmed-AmineHomman/escribito/internal/model/script"
)

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrInvalidSpeaker   = errors.New("invalid speaker")
	ErrEmptyMessage     = errors.New("message is empty")
	ErrCastIncomplete   = errors.New("both characters need a name")
	ErrSpeakerOutOfTurn = errors.New("speaker out of turn")
)

// TurnResult reports the outcome of appending a turn: the updated
// conversation, the character expected to speak next and the cleared
// input value echoed back to the caller.
type TurnResult struct {
	Conversation script.Conversation `json:"conversation"`
	NextSpeaker  script.Speaker      `json:"nextSpeaker"`
	Input        string              `json:"input"`
}

// Service encapsulates conversation state management for writing sessions.
type Service struct {
	mu            sync.RWMutex
	sessions      map[string]script.Session
	conversations map[string]script.Conversation
}

// NewService bootstraps the in-memory session service.
func NewService() *Service {
	return &Service{
		sessions:      make(map[string]script.Session),
		conversations: make(map[string]script.Conversation),
	}
}

// CreateSession provisions an anonymous session with the provided cast.
func (s *Service) CreateSession(_ context.Context, cast script.Cast) (script.Session, error) {
	if strings.TrimSpace(cast.A.Name) == "" || strings.TrimSpace(cast.B.Name) == "" {
		return script.Session{}, ErrCastIncomplete
	}

	session := script.Session{
		ID:        uuid.NewString(),
		Cast:      cast,
		CreatedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.conversations[session.ID] = make(script.Conversation, 0, 16)
	s.mu.Unlock()

	return session, nil
}

// GetSession retrieves a session by identifier.
func (s *Service) GetSession(_ context.Context, sessionID string) (script.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return script.Session{}, ErrSessionNotFound
	}
	return session, nil
}

// UpdateCast replaces the session's characters. Turns already written keep
// their speaker slot and pick up the new display name on export.
func (s *Service) UpdateCast(_ context.Context, sessionID string, cast script.Cast) (script.Session, error) {
	if strings.TrimSpace(cast.A.Name) == "" || strings.TrimSpace(cast.B.Name) == "" {
		return script.Session{}, ErrCastIncomplete
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return script.Session{}, ErrSessionNotFound
	}

	session.Cast = cast
	s.sessions[sessionID] = session
	return session, nil
}

// Conversation returns a copy of the session's turn list.
func (s *Service) Conversation(_ context.Context, sessionID string) (script.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conversation, ok := s.conversations[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return conversation.Clone(), nil
}

// AppendUserTurn records a user-submitted message for the given speaker.
// Consecutive messages from the same speaker are coalesced into the last
// turn with a separating space instead of opening a new turn.
func (s *Service) AppendUserTurn(_ context.Context, sessionID string, speaker script.Speaker, message string) (TurnResult, error) {
	if !speaker.Valid() {
		return TurnResult{}, ErrInvalidSpeaker
	}

	message = strings.TrimSpace(message)
	if message == "" {
		return TurnResult{}, ErrEmptyMessage
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	conversation, ok := s.conversations[sessionID]
	if !ok {
		return TurnResult{}, ErrSessionNotFound
	}

	if last, ok := conversation.LastSpeaker(); ok && last == speaker {
		conversation[len(conversation)-1].Message += " " + message
	} else {
		conversation = append(conversation, script.Turn{Speaker: speaker, Message: message})
	}
	s.conversations[sessionID] = conversation

	return TurnResult{
		Conversation: conversation.Clone(),
		NextSpeaker:  speaker.Other(),
		Input:        "",
	}, nil
}

// AppendGeneratedTurn records a generated message. Generated turns must
// alternate with the preceding turn, so the speaker has to match the
// conversation's next expected speaker.
func (s *Service) AppendGeneratedTurn(_ context.Context, sessionID string, speaker script.Speaker, message string) (TurnResult, error) {
	if !speaker.Valid() {
		return TurnResult{}, ErrInvalidSpeaker
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	conversation, ok := s.conversations[sessionID]
	if !ok {
		return TurnResult{}, ErrSessionNotFound
	}

	if conversation.NextSpeaker() != speaker {
		return TurnResult{}, ErrSpeakerOutOfTurn
	}

	conversation = append(conversation, script.Turn{Speaker: speaker, Message: message})
	s.conversations[sessionID] = conversation

	return TurnResult{
		Conversation: conversation.Clone(),
		NextSpeaker:  speaker.Other(),
		Input:        "",
	}, nil
}

// Reset clears the session's conversation while keeping the cast.
func (s *Service) Reset(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.conversations[sessionID]; !ok {
		return ErrSessionNotFound
	}
	s.conversations[sessionID] = make(script.Conversation, 0, 16)
	return nil
}
