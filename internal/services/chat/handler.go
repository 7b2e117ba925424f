package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"flash-food/internal/auth"
	"flash-food/internal/logger"
	"flash-food/internal/web"
)

// Handler serves the chat history endpoints.
type Handler struct {
	store  *Store
	logger *logger.Logger
}

// NewHandler creates a new chat handler.
func NewHandler(store *Store, log *logger.Logger) *Handler {
	return &Handler{
		store:  store,
		logger: log,
	}
}

// Register wires the chat routes onto the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /chat/history", auth.RequireActor(h.History))
	mux.HandleFunc("POST /chat/message", auth.RequireActor(h.PostMessage))
	mux.HandleFunc("DELETE /chat/history", auth.RequireActor(h.ClearHistory))
}

// History handles GET /chat/history.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	requestID := web.RequestID(r.Context())
	actor, _ := auth.ActorFrom(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	messages, err := h.store.History(ctx, actor.ID)
	if err != nil {
		h.logger.Error("chat_history_failed", "Failed to load chat history", requestID, err, nil)
		web.WriteError(w, http.StatusInternalServerError, "Internal server error", requestID)
		return
	}
	if messages == nil {
		messages = []Message{}
	}

	web.WriteJSON(w, http.StatusOK, map[string]interface{}{"messages": messages})
}

// PostMessage handles POST /chat/message.
func (h *Handler) PostMessage(w http.ResponseWriter, r *http.Request) {
	requestID := web.RequestID(r.Context())
	actor, _ := auth.ActorFrom(r.Context())

	var req struct {
		Sender  Sender `json:"sender"`
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		web.WriteError(w, http.StatusBadRequest, "Invalid JSON format", requestID)
		return
	}
	if req.Content == "" {
		web.WriteError(w, http.StatusBadRequest, "content is required", requestID)
		return
	}
	if req.Sender != SenderAssistant {
		req.Sender = SenderUser
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	id, err := h.store.Append(ctx, actor.ID, req.Sender, req.Content)
	if err != nil {
		h.logger.Error("chat_append_failed", "Failed to save chat message", requestID, err, nil)
		web.WriteError(w, http.StatusInternalServerError, "Internal server error", requestID)
		return
	}

	web.WriteJSON(w, http.StatusOK, map[string]interface{}{"message_id": id})
}

// ClearHistory handles DELETE /chat/history.
func (h *Handler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	requestID := web.RequestID(r.Context())
	actor, _ := auth.ActorFrom(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if err := h.store.Clear(ctx, actor.ID); err != nil {
		h.logger.Error("chat_clear_failed", "Failed to clear chat history", requestID, err, nil)
		web.WriteError(w, http.StatusInternalServerError, "Internal server error", requestID)
		return
	}

	web.WriteJSON(w, http.StatusOK, map[string]interface{}{"message": "Chat history cleared"})
}
