package notification

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"flash-food/internal/apperr"
	"flash-food/internal/auth"
	"flash-food/internal/logger"
	"flash-food/internal/models"
	"flash-food/internal/web"
)

// Handler serves the notification inbox endpoints.
type Handler struct {
	store      Store
	dispatcher *Dispatcher
	logger     *logger.Logger
}

// NewHandler creates a new notification handler.
func NewHandler(store Store, dispatcher *Dispatcher, log *logger.Logger) *Handler {
	return &Handler{
		store:      store,
		dispatcher: dispatcher,
		logger:     log,
	}
}

// Register wires the notification routes onto the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /notifications", auth.RequireActor(h.ListNotifications))
	mux.HandleFunc("GET /notifications/unread-count", auth.RequireActor(h.UnreadCount))
	mux.HandleFunc("PUT /notifications/{id}/read", auth.RequireActor(h.MarkRead))
	mux.HandleFunc("DELETE /notifications/{id}", auth.RequireActor(h.DeleteNotification))
	mux.HandleFunc("POST /notifications/send", auth.RequireActor(h.Send))
	mux.HandleFunc("POST /notifications/send-multiple", auth.RequireActor(h.SendMultiple))
}

// ListNotifications handles GET /notifications.
func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFrom(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	notifications, err := h.store.ListByUser(ctx, actor.ID)
	if err != nil {
		h.writeStoreError(w, r, "notification_listing_failed", err)
		return
	}
	if notifications == nil {
		notifications = []models.Notification{}
	}

	web.WriteJSON(w, http.StatusOK, map[string]interface{}{"notifications": notifications})
}

// UnreadCount handles GET /notifications/unread-count.
func (h *Handler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFrom(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	count, err := h.store.UnreadCount(ctx, actor.ID)
	if err != nil {
		h.writeStoreError(w, r, "unread_count_failed", err)
		return
	}

	web.WriteJSON(w, http.StatusOK, map[string]interface{}{"count": count})
}

// MarkRead handles PUT /notifications/{id}/read.
func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if err := h.store.MarkRead(ctx, r.PathValue("id")); err != nil {
		h.writeStoreError(w, r, "mark_read_failed", err)
		return
	}

	web.WriteJSON(w, http.StatusOK, map[string]interface{}{"message": "Notification marked as read"})
}

// DeleteNotification handles DELETE /notifications/{id}.
func (h *Handler) DeleteNotification(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if err := h.store.Delete(ctx, r.PathValue("id")); err != nil {
		h.writeStoreError(w, r, "notification_deletion_failed", err)
		return
	}

	web.WriteJSON(w, http.StatusOK, map[string]interface{}{"message": "Notification deleted"})
}

type sendRequest struct {
	Title   string              `json:"title"`
	Body    string              `json:"body"`
	UserID  int64               `json:"user_id"`
	UserIDs []int64             `json:"user_ids"`
	OrderID *int64              `json:"order_id,omitempty"`
	Status  *models.OrderStatus `json:"status,omitempty"`
}

// Send handles POST /notifications/send.
func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	requestID := web.RequestID(r.Context())

	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		web.WriteError(w, http.StatusBadRequest, "Invalid JSON format", requestID)
		return
	}
	if req.Title == "" || req.Body == "" || req.UserID == 0 {
		web.WriteError(w, http.StatusBadRequest, "title, body and user_id are required", requestID)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	result := h.dispatcher.DispatchGeneral(ctx, req.UserID, req.Title, req.Body, req.OrderID, req.Status)

	web.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message":         "Notification sent",
		"notification_id": result.NotificationID,
		"push":            result.Push,
	})
}

// SendMultiple handles POST /notifications/send-multiple.
func (h *Handler) SendMultiple(w http.ResponseWriter, r *http.Request) {
	requestID := web.RequestID(r.Context())

	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		web.WriteError(w, http.StatusBadRequest, "Invalid JSON format", requestID)
		return
	}
	if req.Title == "" || req.Body == "" || len(req.UserIDs) == 0 {
		web.WriteError(w, http.StatusBadRequest, "title, body and user_ids are required", requestID)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	results := h.dispatcher.DispatchToMany(ctx, req.UserIDs, req.Title, req.Body, req.OrderID, req.Status)

	web.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Notifications dispatched",
		"results": results,
	})
}

func (h *Handler) writeStoreError(w http.ResponseWriter, r *http.Request, action string, err error) {
	requestID := web.RequestID(r.Context())
	status := apperr.HTTPStatus(err)

	message := "Internal server error"
	var appErr *apperr.Error
	if errors.As(err, &appErr) && appErr.Kind != apperr.KindDependency {
		message = appErr.Message
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error(action, "Notification operation failed", requestID, err, nil)
	}

	web.WriteError(w, status, message, requestID)
}
