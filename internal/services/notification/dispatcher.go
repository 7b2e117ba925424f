// Package notification builds user-facing notification text for order
// lifecycle events, persists durable notification records, and attempts
// best-effort push delivery. The stored record is the system of record for
// whether the user was told; the push is at-most-once with no retry.
package notification

import (
	"context"
	"errors"
	"strconv"

	"flash-food/internal/logger"
	"flash-food/internal/models"
	"flash-food/internal/push"
)

// Store is the durable notification record store.
type Store interface {
	Insert(ctx context.Context, n *models.Notification) (string, error)
	ListByUser(ctx context.Context, userID int64) ([]models.Notification, error)
	MarkRead(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	UnreadCount(ctx context.Context, userID int64) (int64, error)
}

// TokenStore reads and clears device push tokens held on the user record.
type TokenStore interface {
	GetFCMToken(ctx context.Context, userID int64) (string, error)
	ClearFCMToken(ctx context.Context, userID int64) error
}

// PushOutcome describes what happened to the push half of a dispatch.
type PushOutcome string

const (
	PushSent    PushOutcome = "sent"
	PushSkipped PushOutcome = "skipped"
	PushFailed  PushOutcome = "failed"
)

// Result reports the outcome of a single dispatch. A dispatch never fails the
// lifecycle operation that triggered it.
type Result struct {
	NotificationID string
	Push           PushOutcome
}

// RecipientResult is the per-recipient outcome of a bulk dispatch.
type RecipientResult struct {
	UserID         int64       `json:"user_id"`
	NotificationID string      `json:"notification_id,omitempty"`
	Success        bool        `json:"success"`
	Push           PushOutcome `json:"push,omitempty"`
	Error          string      `json:"error,omitempty"`
}

// Dispatcher fans out lifecycle events to the notification store and the push
// gateway. The gateway may be nil, in which case every push is skipped.
type Dispatcher struct {
	store   Store
	tokens  TokenStore
	gateway push.Gateway
	logger  *logger.Logger
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(store Store, tokens TokenStore, gateway push.Gateway, log *logger.Logger) *Dispatcher {
	return &Dispatcher{
		store:   store,
		tokens:  tokens,
		gateway: gateway,
		logger:  log,
	}
}

// DispatchOrderSuccess handles a freshly created order.
func (d *Dispatcher) DispatchOrderSuccess(ctx context.Context, event models.OrderSuccessEvent) Result {
	title, body := buildSuccessText(event)

	status := models.StatusPending
	record := &models.Notification{
		UserID:  event.UserID,
		Title:   title,
		Body:    body,
		Type:    models.NotificationOrderSuccess,
		OrderID: &event.OrderID,
		Status:  &status,
	}

	data := map[string]string{
		"type":    string(models.NotificationOrderSuccess),
		"orderId": strconv.FormatInt(event.OrderID, 10),
		"userId":  strconv.FormatInt(event.UserID, 10),
		"status":  string(models.StatusPending),
	}

	return d.dispatch(ctx, event.UserID, record, title, body, data)
}

// DispatchOrderStatus handles an order status change.
func (d *Dispatcher) DispatchOrderStatus(ctx context.Context, event models.OrderStatusEvent) Result {
	title, body := buildStatusText(event)

	record := &models.Notification{
		UserID:  event.UserID,
		Title:   title,
		Body:    body,
		Type:    models.NotificationOrderStatus,
		OrderID: &event.OrderID,
		Status:  &event.Status,
	}
	if event.Reason != "" {
		record.Reason = &event.Reason
	}

	data := map[string]string{
		"type":    string(models.NotificationOrderStatus),
		"orderId": strconv.FormatInt(event.OrderID, 10),
		"userId":  strconv.FormatInt(event.UserID, 10),
		"status":  string(event.Status),
	}
	if event.Reason != "" {
		data["reason"] = event.Reason
	}

	return d.dispatch(ctx, event.UserID, record, title, body, data)
}

// DispatchGeneral persists a general notification for one user and attempts
// push delivery.
func (d *Dispatcher) DispatchGeneral(ctx context.Context, userID int64, title, body string, orderID *int64, status *models.OrderStatus) Result {
	record := &models.Notification{
		UserID:  userID,
		Title:   title,
		Body:    body,
		Type:    models.NotificationGeneral,
		OrderID: orderID,
		Status:  status,
	}

	data := map[string]string{
		"type":   string(models.NotificationGeneral),
		"userId": strconv.FormatInt(userID, 10),
	}
	if orderID != nil {
		data["orderId"] = strconv.FormatInt(*orderID, 10)
	}

	return d.dispatch(ctx, userID, record, title, body, data)
}

// DispatchToMany delivers the same notification to several recipients. Each
// recipient is handled independently; one failure never aborts the rest.
func (d *Dispatcher) DispatchToMany(ctx context.Context, userIDs []int64, title, body string, orderID *int64, status *models.OrderStatus) []RecipientResult {
	results := make([]RecipientResult, 0, len(userIDs))

	for _, userID := range userIDs {
		record := &models.Notification{
			UserID:  userID,
			Title:   title,
			Body:    body,
			Type:    models.NotificationGeneral,
			OrderID: orderID,
			Status:  status,
		}

		id, err := d.store.Insert(ctx, record)
		if err != nil {
			d.logger.Warn("notification_persist_failed",
				"Failed to persist bulk notification record", "", map[string]interface{}{
					"user_id": userID,
					"error":   err.Error(),
				})
			results = append(results, RecipientResult{UserID: userID, Success: false, Error: err.Error()})
			continue
		}

		data := map[string]string{
			"type":   string(models.NotificationGeneral),
			"userId": strconv.FormatInt(userID, 10),
		}
		outcome := d.deliverPush(ctx, userID, title, body, data)

		results = append(results, RecipientResult{
			UserID:         userID,
			NotificationID: id,
			Success:        true,
			Push:           outcome,
		})
	}

	return results
}

// dispatch persists the record, then attempts push delivery. Both halves are
// best-effort and independent of each other.
func (d *Dispatcher) dispatch(ctx context.Context, userID int64, record *models.Notification, title, body string, data map[string]string) Result {
	result := Result{}

	id, err := d.store.Insert(ctx, record)
	if err != nil {
		d.logger.Warn("notification_persist_failed",
			"Failed to persist notification record", "", map[string]interface{}{
				"user_id": userID,
				"type":    string(record.Type),
				"error":   err.Error(),
			})
	} else {
		result.NotificationID = id
	}

	result.Push = d.deliverPush(ctx, userID, title, body, data)
	return result
}

// deliverPush looks up the user's device token and sends through the gateway.
// A missing token or absent gateway is a skip, not a failure. A stale-token
// error clears the stored token so future dispatches skip gracefully.
func (d *Dispatcher) deliverPush(ctx context.Context, userID int64, title, body string, data map[string]string) PushOutcome {
	if d.gateway == nil {
		return PushSkipped
	}

	token, err := d.tokens.GetFCMToken(ctx, userID)
	if err != nil {
		d.logger.Warn("push_token_lookup_failed",
			"Failed to look up device token", "", map[string]interface{}{
				"user_id": userID,
				"error":   err.Error(),
			})
		return PushFailed
	}
	if token == "" {
		return PushSkipped
	}

	err = d.gateway.Send(ctx, token, title, body, data)
	if err == nil {
		d.logger.Debug("push_delivered", "Push notification sent", "", map[string]interface{}{
			"user_id": userID,
		})
		return PushSent
	}

	var invalid *push.ErrTokenInvalid
	if errors.As(err, &invalid) {
		if clearErr := d.tokens.ClearFCMToken(ctx, userID); clearErr != nil {
			d.logger.Warn("fcm_token_clear_failed",
				"Failed to clear invalid device token", "", map[string]interface{}{
					"user_id": userID,
					"error":   clearErr.Error(),
				})
		} else {
			d.logger.Info("fcm_token_invalidated",
				"Cleared stale device token", "", map[string]interface{}{
					"user_id": userID,
				})
		}
		return PushFailed
	}

	d.logger.Warn("push_delivery_failed",
		"Push delivery failed, dropping", "", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
	return PushFailed
}
