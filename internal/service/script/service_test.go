package script_test

import (
	"context"
	"errors"
	"testing"

	"github.com/Ahmed-AmineHomman/escribito/internal/model/character"
	"github.com/Ahmed-AmineHomman/escribito/internal/model/script"
	scriptservice "github.com/Ahmed-AmineHomman/escribito/internal/service/script"
)

func testCast() script.Cast {
	a, b := character.Defaults()
	return script.Cast{A: a, B: b}
}

func newSession(t *testing.T, svc *scriptservice.Service) script.Session {
	t.Helper()
	session, err := svc.CreateSession(context.Background(), testCast())
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}
	return session
}

func TestCreateSessionRequiresNames(t *testing.T) {
	svc := scriptservice.NewService()
	cast := testCast()
	cast.B.Name = ""

	if _, err := svc.CreateSession(context.Background(), cast); !errors.Is(err, scriptservice.ErrCastIncomplete) {
		t.Fatalf("expected ErrCastIncomplete, got %v", err)
	}
}

func TestAppendUserTurnStartsConversation(t *testing.T) {
	svc := scriptservice.NewService()
	session := newSession(t, svc)
	ctx := context.Background()

	result, err := svc.AppendUserTurn(ctx, session.ID, script.SpeakerA, "Hi")
	if err != nil {
		t.Fatalf("AppendUserTurn err: %v", err)
	}

	if len(result.Conversation) != 1 {
		t.Fatalf("expected 1 turn, got %d", len(result.Conversation))
	}
	if result.Conversation[0].Speaker != script.SpeakerA || result.Conversation[0].Message != "Hi" {
		t.Fatalf("unexpected first turn: %+v", result.Conversation[0])
	}
	if result.NextSpeaker != script.SpeakerB {
		t.Fatalf("expected next speaker B, got %s", result.NextSpeaker)
	}
	if result.Input != "" {
		t.Fatalf("expected cleared input, got %q", result.Input)
	}
}

func TestAppendUserTurnCoalescesSameSpeaker(t *testing.T) {
	svc := scriptservice.NewService()
	session := newSession(t, svc)
	ctx := context.Background()

	if _, err := svc.AppendUserTurn(ctx, session.ID, script.SpeakerA, "Hi"); err != nil {
		t.Fatalf("AppendUserTurn err: %v", err)
	}

	result, err := svc.AppendUserTurn(ctx, session.ID, script.SpeakerA, "there")
	if err != nil {
		t.Fatalf("AppendUserTurn err: %v", err)
	}

	if len(result.Conversation) != 1 {
		t.Fatalf("expected same turn count after coalescing, got %d", len(result.Conversation))
	}
	if got := result.Conversation[0].Message; got != "Hi there" {
		t.Fatalf("expected space-joined message, got %q", got)
	}
}

func TestAppendUserTurnDifferentSpeakerAppends(t *testing.T) {
	svc := scriptservice.NewService()
	session := newSession(t, svc)
	ctx := context.Background()

	if _, err := svc.AppendUserTurn(ctx, session.ID, script.SpeakerA, "Hi"); err != nil {
		t.Fatalf("AppendUserTurn err: %v", err)
	}
	if _, err := svc.AppendUserTurn(ctx, session.ID, script.SpeakerB, "Hello"); err != nil {
		t.Fatalf("AppendUserTurn err: %v", err)
	}

	result, err := svc.AppendUserTurn(ctx, session.ID, script.SpeakerA, "Hi")
	if err != nil {
		t.Fatalf("AppendUserTurn err: %v", err)
	}

	if len(result.Conversation) != 3 {
		t.Fatalf("expected 3 turns, got %d", len(result.Conversation))
	}
	last := result.Conversation[2]
	if last.Speaker != script.SpeakerA || last.Message != "Hi" {
		t.Fatalf("unexpected last turn: %+v", last)
	}
}

func TestAppendUserTurnRejectsEmptyMessage(t *testing.T) {
	svc := scriptservice.NewService()
	session := newSession(t, svc)

	if _, err := svc.AppendUserTurn(context.Background(), session.ID, script.SpeakerA, "   "); !errors.Is(err, scriptservice.ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}
}

func TestAppendUserTurnRejectsUnknownSpeaker(t *testing.T) {
	svc := scriptservice.NewService()
	session := newSession(t, svc)

	if _, err := svc.AppendUserTurn(context.Background(), session.ID, script.Speaker("narrator"), "Hi"); !errors.Is(err, scriptservice.ErrInvalidSpeaker) {
		t.Fatalf("expected ErrInvalidSpeaker, got %v", err)
	}
}

func TestAppendGeneratedTurnEnforcesAlternation(t *testing.T) {
	svc := scriptservice.NewService()
	session := newSession(t, svc)
	ctx := context.Background()

	if _, err := svc.AppendUserTurn(ctx, session.ID, script.SpeakerA, "Hi"); err != nil {
		t.Fatalf("AppendUserTurn err: %v", err)
	}

	if _, err := svc.AppendGeneratedTurn(ctx, session.ID, script.SpeakerA, "again"); !errors.Is(err, scriptservice.ErrSpeakerOutOfTurn) {
		t.Fatalf("expected ErrSpeakerOutOfTurn, got %v", err)
	}

	result, err := svc.AppendGeneratedTurn(ctx, session.ID, script.SpeakerB, "Hello")
	if err != nil {
		t.Fatalf("AppendGeneratedTurn err: %v", err)
	}
	if len(result.Conversation) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(result.Conversation))
	}
	if result.NextSpeaker != script.SpeakerA {
		t.Fatalf("expected next speaker A, got %s", result.NextSpeaker)
	}
}

func TestAppendGeneratedTurnOpensWithCharacterA(t *testing.T) {
	svc := scriptservice.NewService()
	session := newSession(t, svc)
	ctx := context.Background()

	if _, err := svc.AppendGeneratedTurn(ctx, session.ID, script.SpeakerB, "Hello"); !errors.Is(err, scriptservice.ErrSpeakerOutOfTurn) {
		t.Fatalf("expected ErrSpeakerOutOfTurn for B on empty conversation, got %v", err)
	}
	if _, err := svc.AppendGeneratedTurn(ctx, session.ID, script.SpeakerA, "Hello"); err != nil {
		t.Fatalf("AppendGeneratedTurn err: %v", err)
	}
}

func TestUpdateCastKeepsTurns(t *testing.T) {
	svc := scriptservice.NewService()
	session := newSession(t, svc)
	ctx := context.Background()

	if _, err := svc.AppendUserTurn(ctx, session.ID, script.SpeakerA, "Hi"); err != nil {
		t.Fatalf("AppendUserTurn err: %v", err)
	}

	cast := testCast()
	cast.A.Name = "Elias"
	updated, err := svc.UpdateCast(ctx, session.ID, cast)
	if err != nil {
		t.Fatalf("UpdateCast err: %v", err)
	}
	if updated.Cast.A.Name != "Elias" {
		t.Fatalf("expected renamed character, got %s", updated.Cast.A.Name)
	}

	conversation, err := svc.Conversation(ctx, session.ID)
	if err != nil {
		t.Fatalf("Conversation err: %v", err)
	}
	if len(conversation) != 1 {
		t.Fatalf("expected turns preserved, got %d", len(conversation))
	}
}

func TestResetClearsConversation(t *testing.T) {
	svc := scriptservice.NewService()
	session := newSession(t, svc)
	ctx := context.Background()

	if _, err := svc.AppendUserTurn(ctx, session.ID, script.SpeakerA, "Hi"); err != nil {
		t.Fatalf("AppendUserTurn err: %v", err)
	}
	if err := svc.Reset(ctx, session.ID); err != nil {
		t.Fatalf("Reset err: %v", err)
	}

	conversation, err := svc.Conversation(ctx, session.ID)
	if err != nil {
		t.Fatalf("Conversation err: %v", err)
	}
	if len(conversation) != 0 {
		t.Fatalf("expected empty conversation, got %d turns", len(conversation))
	}
}

func TestSessionNotFound(t *testing.T) {
	svc := scriptservice.NewService()

	if _, err := svc.AppendUserTurn(context.Background(), "missing", script.SpeakerA, "Hi"); !errors.Is(err, scriptservice.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	if _, err := svc.Conversation(context.Background(), "missing"); !errors.Is(err, scriptservice.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}
