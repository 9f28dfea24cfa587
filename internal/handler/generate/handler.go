package generate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/cloudwego/eino/schema"
	"github.com/go-chi/chi/v5"

	"github.com/Ahmed-AmineHomman/escribito/internal/model/script"
	"github.com/Ahmed-AmineHomman/escribito/internal/service/ai"
	scriptservice "github.com/Ahmed-AmineHomman/escribito/internal/service/script"
	"github.com/Ahmed-AmineHomman/escribito/pkg/utils"
)

// Handler produces generated turns, synchronously or streamed over SSE.
type Handler struct {
	aiSvc     *ai.Service
	scriptSvc *scriptservice.Service
}

// New creates the generation handler.
func New(aiSvc *ai.Service, scriptSvc *scriptservice.Service) *Handler {
	return &Handler{
		aiSvc:     aiSvc,
		scriptSvc: scriptSvc,
	}
}

// RegisterRoutes registers the synchronous generation route.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/session/{sessionID}/generate", h.handleGenerate)
}

// StreamEvent is one streaming response chunk.
type StreamEvent struct {
	Event     string         `json:"event"`
	SessionID string         `json:"sessionId,omitempty"`
	Speaker   script.Speaker `json:"speaker,omitempty"`
	Content   string         `json:"content,omitempty"`
	Finished  bool           `json:"finished,omitempty"`
	Error     string         `json:"error,omitempty"`
}

func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	session, conversation, err := h.loadState(r.Context(), sessionID)
	if err != nil {
		h.respondError(w, err)
		return
	}

	speaker, text, err := h.aiSvc.GenerateTurn(r.Context(), session.Cast, conversation)
	if err != nil {
		log.Printf("[generate] session=%s failed: %v", sessionID, err)
		h.respondError(w, err)
		return
	}

	result, err := h.scriptSvc.AppendGeneratedTurn(r.Context(), sessionID, speaker, text)
	if err != nil {
		h.respondError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"turn":         script.Turn{Speaker: speaker, Message: text},
		"conversation": result.Conversation,
		"nextSpeaker":  result.NextSpeaker,
	})
}

// HandleStreamRequest generates the next turn and streams it as SSE.
func (h *Handler) HandleStreamRequest(ctx context.Context, w http.ResponseWriter, sessionID string) error {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return fmt.Errorf("streaming unsupported")
	}

	utils.SetupSSEHeaders(w)

	session, conversation, err := h.loadState(ctx, sessionID)
	if err != nil {
		h.sendSSEError(w, flusher, err.Error())
		return err
	}

	speaker := conversation.NextSpeaker()
	h.sendSSE(w, flusher, StreamEvent{
		Event:     "start",
		SessionID: sessionID,
		Speaker:   speaker,
		Content:   session.Cast.Name(speaker),
	})

	text, err := h.dispatchGeneration(ctx, w, flusher, sessionID, session, conversation)
	if err != nil {
		h.sendSSEError(w, flusher, fmt.Sprintf("generation failed: %v", err))
		return err
	}

	result, err := h.scriptSvc.AppendGeneratedTurn(ctx, sessionID, speaker, text)
	if err != nil {
		h.sendSSEError(w, flusher, err.Error())
		return err
	}

	h.sendSSE(w, flusher, StreamEvent{
		Event:     "end",
		SessionID: sessionID,
		Speaker:   result.NextSpeaker,
		Finished:  true,
	})

	log.Printf("[stream] completed turn for session=%s speaker=%s", sessionID, speaker)
	return nil
}

func (h *Handler) dispatchGeneration(ctx context.Context, w http.ResponseWriter, flusher http.Flusher, sessionID string, session script.Session, conversation script.Conversation) (string, error) {
	if !h.aiSvc.StreamingEnabled() {
		speaker, text, err := h.aiSvc.GenerateTurn(ctx, session.Cast, conversation)
		if err != nil {
			return "", err
		}

		h.sendSSE(w, flusher, StreamEvent{
			Event:     "message",
			SessionID: sessionID,
			Speaker:   speaker,
			Content:   text,
		})
		return text, nil
	}

	speaker, stream, err := h.aiSvc.StreamTurn(ctx, session.Cast, conversation)
	if err != nil {
		return "", err
	}
	defer stream.Close()

	chunks := make([]*schema.Message, 0, 8)

	for {
		chunk, recvErr := stream.Recv()
		if errors.Is(recvErr, io.EOF) {
			break
		}
		if recvErr != nil {
			return "", recvErr
		}
		if chunk == nil {
			continue
		}

		chunks = append(chunks, chunk)
		if chunk.Content != "" {
			h.sendSSE(w, flusher, StreamEvent{
				Event:     "delta",
				SessionID: sessionID,
				Speaker:   speaker,
				Content:   chunk.Content,
			})
		}
	}

	merged, err := schema.ConcatMessages(chunks)
	if err != nil {
		return "", err
	}

	h.sendSSE(w, flusher, StreamEvent{
		Event:     "message",
		SessionID: sessionID,
		Speaker:   speaker,
		Content:   merged.Content,
	})

	return merged.Content, nil
}

func (h *Handler) loadState(ctx context.Context, sessionID string) (script.Session, script.Conversation, error) {
	session, err := h.scriptSvc.GetSession(ctx, sessionID)
	if err != nil {
		return script.Session{}, nil, err
	}

	conversation, err := h.scriptSvc.Conversation(ctx, sessionID)
	if err != nil {
		return script.Session{}, nil, err
	}

	return session, conversation, nil
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, scriptservice.ErrSessionNotFound):
		utils.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, scriptservice.ErrSpeakerOutOfTurn):
		utils.RespondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, ai.ErrGeneration):
		utils.RespondError(w, http.StatusBadGateway, err.Error())
	default:
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
	}
}

func (h *Handler) sendSSE(w http.ResponseWriter, flusher http.Flusher, event StreamEvent) {
	utils.SendSSEChunk(w, flusher, event)
}

func (h *Handler) sendSSEError(w http.ResponseWriter, flusher http.Flusher, message string) {
	h.sendSSE(w, flusher, StreamEvent{
		Event: "error",
		Error: message,
	})
}
