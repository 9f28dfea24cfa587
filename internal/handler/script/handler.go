package script

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Ahmed-AmineHomman/escribito/internal/model/character"
	"github.com/Ahmed-AmineHomman/escribito/internal/model/script"
	"github.com/Ahmed-AmineHomman/escribito/internal/service/export"
	scriptservice "github.com/Ahmed-AmineHomman/escribito/internal/service/script"
	"github.com/Ahmed-AmineHomman/escribito/pkg/utils"
)

// Handler exposes session and turn management over HTTP.
type Handler struct {
	scriptSvc *scriptservice.Service
	exporter  *export.Exporter
}

// New creates the session handler.
func New(scriptSvc *scriptservice.Service, exporter *export.Exporter) *Handler {
	return &Handler{
		scriptSvc: scriptSvc,
		exporter:  exporter,
	}
}

// RegisterRoutes registers session and turn routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/session", h.handleCreateSession)
	r.Get("/session/{sessionID}", h.handleGetSession)
	r.Put("/session/{sessionID}/cast", h.handleUpdateCast)
	r.Get("/session/{sessionID}/turns", h.handleListTurns)
	r.Post("/session/{sessionID}/turns", h.handleAppendTurn)
	r.Post("/session/{sessionID}/reset", h.handleReset)
	r.Post("/session/{sessionID}/export", h.handleExport)
	r.Get("/session/{sessionID}/export", h.handleDownloadExport)
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Cast script.Cast `json:"cast"`
	}

	// An empty body is fine: the default cast applies.
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil && !errors.Is(err, io.EOF) {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	defaultA, defaultB := character.Defaults()
	if payload.Cast.A.Name == "" {
		payload.Cast.A = defaultA
	}
	if payload.Cast.B.Name == "" {
		payload.Cast.B = defaultB
	}

	session, err := h.scriptSvc.CreateSession(r.Context(), payload.Cast)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusCreated, session)
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.scriptSvc.GetSession(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, session)
}

func (h *Handler) handleUpdateCast(w http.ResponseWriter, r *http.Request) {
	var cast script.Cast
	if err := json.NewDecoder(r.Body).Decode(&cast); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := h.scriptSvc.UpdateCast(r.Context(), chi.URLParam(r, "sessionID"), cast)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, session)
}

func (h *Handler) handleListTurns(w http.ResponseWriter, r *http.Request) {
	conversation, err := h.scriptSvc.Conversation(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"conversation": conversation,
		"nextSpeaker":  conversation.NextSpeaker(),
	})
}

func (h *Handler) handleAppendTurn(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Speaker script.Speaker `json:"speaker"`
		Message string         `json:"message"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.scriptSvc.AppendUserTurn(r.Context(), chi.URLParam(r, "sessionID"), payload.Speaker, payload.Message)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, result)
}

func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := h.scriptSvc.Reset(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	session, err := h.scriptSvc.GetSession(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	conversation, err := h.scriptSvc.Conversation(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	path, err := h.exporter.Export(session, conversation)
	if err != nil {
		log.Printf("[export] session=%s failed: %v", sessionID, err)
		respondServiceError(w, err)
		return
	}

	log.Printf("[export] session=%s wrote %d turns to %s", sessionID, len(conversation), path)
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"path":  path,
		"turns": len(conversation),
	})
}

func (h *Handler) handleDownloadExport(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	session, err := h.scriptSvc.GetSession(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	conversation, err := h.scriptSvc.Conversation(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	data, err := export.Render(session.Cast, conversation)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "conversation-"+sessionID+".json"))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		log.Printf("[export] session=%s download write failed: %v", sessionID, err)
	}
}

func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, scriptservice.ErrSessionNotFound):
		utils.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, scriptservice.ErrSpeakerOutOfTurn):
		utils.RespondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, scriptservice.ErrEmptyMessage),
		errors.Is(err, scriptservice.ErrInvalidSpeaker),
		errors.Is(err, scriptservice.ErrCastIncomplete):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, export.ErrWrite):
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
	default:
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
	}
}
