package live

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/Ahmed-AmineHomman/escribito/internal/model/script"
	"github.com/Ahmed-AmineHomman/escribito/internal/service/ai"
	scriptservice "github.com/Ahmed-AmineHomman/escribito/internal/service/script"
)

// Handler runs live writing sessions over a WebSocket connection.
type Handler struct {
	aiSvc     *ai.Service
	scriptSvc *scriptservice.Service
	upgrader  websocket.Upgrader
}

// New creates the live session handler.
func New(aiSvc *ai.Service, scriptSvc *scriptservice.Service) *Handler {
	return &Handler{
		aiSvc:     aiSvc,
		scriptSvc: scriptSvc,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes registers the WebSocket route.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws/{sessionID}", h.handleWebSocket)
}

type inboundMessage struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId"`
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
}

// SayMessage carries a user-submitted turn.
type SayMessage struct {
	Speaker script.Speaker `json:"speaker"`
	Message string         `json:"message"`
}

type outgoingMessage struct {
	Type      string      `json:"type"`
	SessionID string      `json:"sessionId,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		http.Error(w, "sessionID is required", http.StatusBadRequest)
		return
	}

	session, err := h.scriptSvc.GetSession(r.Context(), sessionID)
	if err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[websocket] upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	log.Printf("[websocket] new connection for session: %s", sessionID)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	go h.pingLoop(ctx, conn)

	h.sendInfo(conn, sessionID, map[string]any{
		"type": "connected",
		"cast": session.Cast,
	})

	for {
		select {
		case <-ctx.Done():
			return
		default:
			var msg inboundMessage
			if err := conn.ReadJSON(&msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					log.Printf("[websocket] read error: %v", err)
				}
				return
			}

			conn.SetReadDeadline(time.Now().Add(60 * time.Second))

			if msg.SessionID != "" && msg.SessionID != sessionID {
				h.sendError(conn, "session mismatch")
				continue
			}

			h.handleMessage(ctx, conn, sessionID, &msg)
		}
	}
}

func (h *Handler) handleMessage(ctx context.Context, conn *websocket.Conn, sessionID string, msg *inboundMessage) {
	switch msg.Type {
	case "say":
		h.handleSay(ctx, conn, sessionID, msg.Data)
	case "generate":
		h.handleGenerate(ctx, conn, sessionID)
	case "cast":
		h.handleCast(ctx, conn, sessionID, msg.Data)
	default:
		h.sendError(conn, "unsupported message type: "+msg.Type)
	}
}

func (h *Handler) handleSay(ctx context.Context, conn *websocket.Conn, sessionID string, raw json.RawMessage) {
	var say SayMessage
	if err := json.Unmarshal(raw, &say); err != nil {
		h.sendError(conn, "invalid say payload")
		return
	}

	result, err := h.scriptSvc.AppendUserTurn(ctx, sessionID, say.Speaker, say.Message)
	if err != nil {
		h.sendError(conn, err.Error())
		return
	}

	last := result.Conversation[len(result.Conversation)-1]
	h.sendInfo(conn, sessionID, map[string]any{
		"type":        "turn",
		"speaker":     last.Speaker,
		"message":     last.Message,
		"nextSpeaker": result.NextSpeaker,
		"input":       result.Input,
	})
}

func (h *Handler) handleGenerate(ctx context.Context, conn *websocket.Conn, sessionID string) {
	if h.aiSvc == nil {
		h.sendError(conn, "ai service unavailable")
		return
	}

	session, err := h.scriptSvc.GetSession(ctx, sessionID)
	if err != nil {
		h.sendError(conn, err.Error())
		return
	}

	conversation, err := h.scriptSvc.Conversation(ctx, sessionID)
	if err != nil {
		h.sendError(conn, err.Error())
		return
	}

	speaker, text, err := h.generateTurn(ctx, conn, sessionID, session, conversation)
	if err != nil {
		h.sendError(conn, err.Error())
		return
	}

	result, err := h.scriptSvc.AppendGeneratedTurn(ctx, sessionID, speaker, text)
	if err != nil {
		h.sendError(conn, err.Error())
		return
	}

	h.sendInfo(conn, sessionID, map[string]any{
		"type":        "turn",
		"speaker":     speaker,
		"message":     text,
		"nextSpeaker": result.NextSpeaker,
		"isFinal":     true,
	})
}

func (h *Handler) generateTurn(ctx context.Context, conn *websocket.Conn, sessionID string, session script.Session, conversation script.Conversation) (script.Speaker, string, error) {
	if !h.aiSvc.StreamingEnabled() {
		return h.aiSvc.GenerateTurn(ctx, session.Cast, conversation)
	}

	speaker, stream, err := h.aiSvc.StreamTurn(ctx, session.Cast, conversation)
	if err != nil {
		return speaker, "", err
	}
	defer stream.Close()

	var chunks []*schema.Message
	for {
		chunk, recvErr := stream.Recv()
		if errors.Is(recvErr, io.EOF) {
			break
		}
		if recvErr != nil {
			return speaker, "", fmt.Errorf("stream recv failed: %w", recvErr)
		}
		if chunk == nil {
			continue
		}
		chunks = append(chunks, chunk)
		if chunk.Content != "" {
			h.sendInfo(conn, sessionID, map[string]any{
				"type":    "delta",
				"speaker": speaker,
				"text":    chunk.Content,
			})
		}
	}

	merged, err := schema.ConcatMessages(chunks)
	if err != nil {
		return speaker, "", fmt.Errorf("concat chunks failed: %w", err)
	}

	return speaker, merged.Content, nil
}

func (h *Handler) handleCast(ctx context.Context, conn *websocket.Conn, sessionID string, raw json.RawMessage) {
	var cast script.Cast
	if err := json.Unmarshal(raw, &cast); err != nil {
		h.sendError(conn, "invalid cast payload")
		return
	}

	session, err := h.scriptSvc.UpdateCast(ctx, sessionID, cast)
	if err != nil {
		h.sendError(conn, err.Error())
		return
	}

	log.Printf("[websocket] cast updated session=%s a=%s b=%s", sessionID, session.Cast.A.Name, session.Cast.B.Name)

	h.sendInfo(conn, sessionID, map[string]any{
		"type": "cast",
		"cast": session.Cast,
	})
}

func (h *Handler) sendInfo(conn *websocket.Conn, sessionID string, data map[string]any) {
	msg := outgoingMessage{
		Type:      "result",
		SessionID: sessionID,
		Data:      data,
		Timestamp: time.Now().Unix(),
	}
	if err := conn.WriteJSON(msg); err != nil {
		log.Printf("[websocket] write info failed: %v", err)
	}
}

func (h *Handler) sendError(conn *websocket.Conn, message string) {
	msg := outgoingMessage{
		Type:      "error",
		Data:      map[string]string{"message": message},
		Timestamp: time.Now().Unix(),
	}
	if err := conn.WriteJSON(msg); err != nil {
		log.Printf("[websocket] write error failed: %v", err)
	}
}

func (h *Handler) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(54 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
