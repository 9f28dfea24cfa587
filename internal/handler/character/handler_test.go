package character

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/Ahmed-AmineHomman/escribito/internal/model/character"
)

func TestListCharacters(t *testing.T) {
	store := character.NewMemoryStore(character.Seed())
	handler := New(store)

	r := chi.NewRouter()
	handler.RegisterRoutes(r)

	req := httptest.NewRequest(http.MethodGet, "/characters", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var presets []character.Character
	if err := json.Unmarshal(resp.Body.Bytes(), &presets); err != nil {
		t.Fatalf("decode presets: %v", err)
	}
	if len(presets) == 0 {
		t.Fatal("expected seeded presets")
	}
	if presets[0].Name == "" {
		t.Fatalf("expected named preset, got %+v", presets[0])
	}
}
