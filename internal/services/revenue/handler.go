package revenue

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"flash-food/internal/auth"
	"flash-food/internal/logger"
	"flash-food/internal/models"
	"flash-food/internal/web"
)

// Handler serves the admin revenue endpoints. The capability check lives in
// the auth middleware; the aggregator itself is authorization-agnostic.
type Handler struct {
	service *Service
	logger  *logger.Logger
}

// NewHandler creates a new revenue handler.
func NewHandler(service *Service, log *logger.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  log,
	}
}

// Register wires the revenue routes onto the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /orders/revenue", auth.RequireCapability(models.CapViewRevenue, h.Revenue))
	mux.HandleFunc("GET /orders/revenue-by-food", auth.RequireCapability(models.CapViewRevenue, h.RevenueByFood))
}

// Revenue handles GET /orders/revenue.
func (h *Handler) Revenue(w http.ResponseWriter, r *http.Request) {
	requestID := web.RequestID(r.Context())

	from, to, err := parseWindow(r)
	if err != nil {
		web.WriteError(w, http.StatusBadRequest, err.Error(), requestID)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	report, err := h.service.Revenue(ctx, from, to)
	if err != nil {
		h.logger.Error("revenue_query_failed", "Failed to compute revenue", requestID, err, nil)
		web.WriteError(w, http.StatusInternalServerError, "Internal server error", requestID)
		return
	}

	web.WriteJSON(w, http.StatusOK, report)
}

// RevenueByFood handles GET /orders/revenue-by-food.
func (h *Handler) RevenueByFood(w http.ResponseWriter, r *http.Request) {
	requestID := web.RequestID(r.Context())

	from, to, err := parseWindow(r)
	if err != nil {
		web.WriteError(w, http.StatusBadRequest, err.Error(), requestID)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	report, err := h.service.RevenueByFood(ctx, from, to)
	if err != nil {
		h.logger.Error("revenue_query_failed", "Failed to compute revenue by food", requestID, err, nil)
		web.WriteError(w, http.StatusInternalServerError, "Internal server error", requestID)
		return
	}

	web.WriteJSON(w, http.StatusOK, report)
}

// parseWindow reads the optional from/to query bounds. Dates are accepted as
// RFC 3339 timestamps or plain YYYY-MM-DD days.
func parseWindow(r *http.Request) (*time.Time, *time.Time, error) {
	from, err := parseBound(r.URL.Query().Get("from"))
	if err != nil {
		return nil, nil, fmt.Errorf("invalid from date: %s", r.URL.Query().Get("from"))
	}
	to, err := parseBound(r.URL.Query().Get("to"))
	if err != nil {
		return nil, nil, fmt.Errorf("invalid to date: %s", r.URL.Query().Get("to"))
	}
	return from, to, nil
}

func parseBound(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
