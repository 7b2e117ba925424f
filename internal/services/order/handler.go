package order

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"flash-food/internal/apperr"
	"flash-food/internal/auth"
	"flash-food/internal/logger"
	"flash-food/internal/models"
	"flash-food/internal/web"
)

// Handler handles HTTP requests for the order service.
type Handler struct {
	service *Service
	logger  *logger.Logger
}

// NewHandler creates a new order handler.
func NewHandler(service *Service, log *logger.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  log,
	}
}

// Register wires the order routes onto the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /orders/create", auth.RequireActor(h.CreateOrder))
	mux.HandleFunc("GET /orders", auth.RequireActor(h.ListOrders))
	mux.HandleFunc("POST /orders/{id}/confirm", auth.RequireActor(h.ConfirmOrder))
	mux.HandleFunc("POST /orders/{id}/cancel", auth.RequireActor(h.CancelOrder))
	mux.HandleFunc("POST /orders/{id}/cancel-by-user", auth.RequireActor(h.CancelOrderByUser))
	mux.HandleFunc("DELETE /orders/{id}", auth.RequireActor(h.DeleteOrder))
}

// CreateOrder handles POST /orders/create.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	requestID := web.RequestID(r.Context())
	actor, _ := auth.ActorFrom(r.Context())

	var req models.CreateOrderRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		h.logger.Error("validation_failed", "Failed to parse request body", requestID, err, nil)
		web.WriteError(w, http.StatusBadRequest, "Invalid JSON format", requestID)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	response, err := h.service.Create(ctx, actor, &req, requestID)
	if err != nil {
		h.writeServiceError(w, r, "order_creation_failed", err)
		return
	}

	web.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"order_id": response.OrderID,
		"total":    response.Total,
		"status":   response.Status,
	})
}

// ListOrders handles GET /orders.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFrom(r.Context())

	filter := models.ListOrdersFilter{
		Status:   models.OrderStatus(r.URL.Query().Get("status")),
		OnlyMine: r.URL.Query().Get("my") == "1",
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	orders, err := h.service.List(ctx, actor, filter)
	if err != nil {
		h.writeServiceError(w, r, "order_listing_failed", err)
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}

	web.WriteJSON(w, http.StatusOK, map[string]interface{}{"orders": orders})
}

// ConfirmOrder handles POST /orders/{id}/confirm.
func (h *Handler) ConfirmOrder(w http.ResponseWriter, r *http.Request) {
	requestID := web.RequestID(r.Context())
	actor, _ := auth.ActorFrom(r.Context())

	orderID, err := h.orderID(r)
	if err != nil {
		web.WriteError(w, http.StatusBadRequest, "Invalid order id", requestID)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	if err := h.service.Confirm(ctx, actor, orderID, requestID); err != nil {
		h.writeServiceError(w, r, "order_confirmation_failed", err)
		return
	}

	web.WriteJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// CancelOrder handles POST /orders/{id}/cancel (staff cancellation).
func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	requestID := web.RequestID(r.Context())
	actor, _ := auth.ActorFrom(r.Context())

	orderID, err := h.orderID(r)
	if err != nil {
		web.WriteError(w, http.StatusBadRequest, "Invalid order id", requestID)
		return
	}

	var body struct {
		Reason string `json:"reason"`
	}
	// A missing body means no reason was given.
	json.NewDecoder(r.Body).Decode(&body)

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	if err := h.service.CancelByStaff(ctx, actor, orderID, body.Reason, requestID); err != nil {
		h.writeServiceError(w, r, "order_cancellation_failed", err)
		return
	}

	web.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Order has been cancelled.",
	})
}

// CancelOrderByUser handles POST /orders/{id}/cancel-by-user.
func (h *Handler) CancelOrderByUser(w http.ResponseWriter, r *http.Request) {
	requestID := web.RequestID(r.Context())
	actor, _ := auth.ActorFrom(r.Context())

	orderID, err := h.orderID(r)
	if err != nil {
		web.WriteError(w, http.StatusBadRequest, "Invalid order id", requestID)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	if err := h.service.CancelByOwner(ctx, actor, orderID, requestID); err != nil {
		h.writeServiceError(w, r, "order_cancellation_failed", err)
		return
	}

	web.WriteJSON(w, http.StatusOK, map[string]interface{}{"message": "Order cancelled successfully"})
}

// DeleteOrder handles DELETE /orders/{id}.
func (h *Handler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	requestID := web.RequestID(r.Context())
	actor, _ := auth.ActorFrom(r.Context())

	orderID, err := h.orderID(r)
	if err != nil {
		web.WriteError(w, http.StatusBadRequest, "Invalid order id", requestID)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	if err := h.service.Delete(ctx, actor, orderID, requestID); err != nil {
		h.writeServiceError(w, r, "order_deletion_failed", err)
		return
	}

	web.WriteJSON(w, http.StatusOK, map[string]interface{}{"message": "Order deleted successfully"})
}

func (h *Handler) orderID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, action string, err error) {
	requestID := web.RequestID(r.Context())
	status := apperr.HTTPStatus(err)

	message := "Internal server error"
	var appErr *apperr.Error
	if errors.As(err, &appErr) && appErr.Kind != apperr.KindDependency {
		message = appErr.Message
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error(action, "Order operation failed", requestID, err, nil)
	} else {
		h.logger.Debug(action, err.Error(), requestID, nil)
	}

	web.WriteError(w, status, message, requestID)
}
