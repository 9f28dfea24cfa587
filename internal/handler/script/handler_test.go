package script

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/Ahmed-AmineHomman/escribito/internal/model/script"
	"github.com/Ahmed-AmineHomman/escribito/internal/service/export"
	scriptservice "github.com/Ahmed-AmineHomman/escribito/internal/service/script"
)

func setupRouter(t *testing.T) (*chi.Mux, *scriptservice.Service) {
	t.Helper()
	scriptSvc := scriptservice.NewService()
	exporter := export.NewExporter(t.TempDir())
	handler := New(scriptSvc, exporter)

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r, scriptSvc
}

func createSession(t *testing.T, r *chi.Mux) script.Session {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/session", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}

	var session script.Session
	if err := json.Unmarshal(resp.Body.Bytes(), &session); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	return session
}

func postTurn(t *testing.T, r *chi.Mux, sessionID string, speaker script.Speaker, message string) *httptest.ResponseRecorder {
	t.Helper()
	body, _ := json.Marshal(map[string]string{
		"speaker": string(speaker),
		"message": message,
	})
	req := httptest.NewRequest(http.MethodPost, "/session/"+sessionID+"/turns", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestCreateSessionAppliesDefaultCast(t *testing.T) {
	r, _ := setupRouter(t)
	session := createSession(t, r)

	if session.ID == "" {
		t.Fatal("expected session id")
	}
	if session.Cast.A.Name == "" || session.Cast.B.Name == "" {
		t.Fatalf("expected default cast, got %+v", session.Cast)
	}
}

func TestCreateSessionCustomCast(t *testing.T) {
	r, _ := setupRouter(t)
	body := []byte(`{"cast":{"a":{"name":"Ana","story":"A painter."},"b":{"name":"Boris","story":"A baker."}}}`)

	req := httptest.NewRequest(http.MethodPost, "/session", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.Code)
	}

	var session script.Session
	if err := json.Unmarshal(resp.Body.Bytes(), &session); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	if session.Cast.A.Name != "Ana" || session.Cast.B.Name != "Boris" {
		t.Fatalf("unexpected cast: %+v", session.Cast)
	}
}

func TestPostFirstTurn(t *testing.T) {
	r, _ := setupRouter(t)
	session := createSession(t, r)

	resp := postTurn(t, r, session.ID, script.SpeakerA, "Hi")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var result scriptservice.TurnResult
	if err := json.Unmarshal(resp.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if len(result.Conversation) != 1 {
		t.Fatalf("expected 1 turn, got %d", len(result.Conversation))
	}
	if result.NextSpeaker != script.SpeakerB {
		t.Fatalf("expected next speaker B, got %s", result.NextSpeaker)
	}
}

func TestPostTurnAfterOtherSpeakerAppends(t *testing.T) {
	r, _ := setupRouter(t)
	session := createSession(t, r)

	postTurn(t, r, session.ID, script.SpeakerA, "Hi")
	postTurn(t, r, session.ID, script.SpeakerB, "Hello")
	resp := postTurn(t, r, session.ID, script.SpeakerA, "Hi")

	var result scriptservice.TurnResult
	if err := json.Unmarshal(resp.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if len(result.Conversation) != 3 {
		t.Fatalf("expected 3 turns, got %d", len(result.Conversation))
	}
}

func TestPostTurnCoalesces(t *testing.T) {
	r, _ := setupRouter(t)
	session := createSession(t, r)

	postTurn(t, r, session.ID, script.SpeakerA, "Hi")
	resp := postTurn(t, r, session.ID, script.SpeakerA, "there")

	var result scriptservice.TurnResult
	if err := json.Unmarshal(resp.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if len(result.Conversation) != 1 {
		t.Fatalf("expected coalesced turn, got %d turns", len(result.Conversation))
	}
	if result.Conversation[0].Message != "Hi there" {
		t.Fatalf("unexpected message: %q", result.Conversation[0].Message)
	}
}

func TestPostTurnUnknownSession(t *testing.T) {
	r, _ := setupRouter(t)

	resp := postTurn(t, r, "missing", script.SpeakerA, "Hi")
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestPostTurnEmptyMessage(t *testing.T) {
	r, _ := setupRouter(t)
	session := createSession(t, r)

	resp := postTurn(t, r, session.ID, script.SpeakerA, "  ")
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestExportEndpointReportsTurnCount(t *testing.T) {
	r, _ := setupRouter(t)
	session := createSession(t, r)

	postTurn(t, r, session.ID, script.SpeakerA, "Hi")
	postTurn(t, r, session.ID, script.SpeakerB, "Hello")

	req := httptest.NewRequest(http.MethodPost, "/session/"+session.ID+"/export", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var payload struct {
		Path  string `json:"path"`
		Turns int    `json:"turns"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.Turns != 2 {
		t.Fatalf("expected 2 turns, got %d", payload.Turns)
	}
	if payload.Path == "" {
		t.Fatal("expected export path")
	}
}

func TestDownloadExportRoundTripsNames(t *testing.T) {
	r, _ := setupRouter(t)
	session := createSession(t, r)

	postTurn(t, r, session.ID, script.SpeakerA, "Hi")
	postTurn(t, r, session.ID, script.SpeakerB, "Hello")

	req := httptest.NewRequest(http.MethodGet, "/session/"+session.ID+"/export", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var entries []export.Entry
	if err := json.Unmarshal(resp.Body.Bytes(), &entries); err != nil {
		t.Fatalf("decode entries: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Character != session.Cast.A.Name || entries[1].Character != session.Cast.B.Name {
		t.Fatalf("unexpected names: %+v", entries)
	}
}

func TestResetEndpoint(t *testing.T) {
	r, _ := setupRouter(t)
	session := createSession(t, r)

	postTurn(t, r, session.ID, script.SpeakerA, "Hi")

	req := httptest.NewRequest(http.MethodPost, "/session/"+session.ID+"/reset", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/session/"+session.ID+"/turns", nil)
	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	var payload struct {
		Conversation script.Conversation `json:"conversation"`
		NextSpeaker  script.Speaker      `json:"nextSpeaker"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if len(payload.Conversation) != 0 {
		t.Fatalf("expected empty conversation, got %d turns", len(payload.Conversation))
	}
	if payload.NextSpeaker != script.SpeakerA {
		t.Fatalf("expected character A to open again, got %s", payload.NextSpeaker)
	}
}
