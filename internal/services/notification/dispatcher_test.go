package notification

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flash-food/internal/logger"
	"flash-food/internal/models"
	"flash-food/internal/push"
)

// memStore is an in-memory notification store.
type memStore struct {
	notifications []models.Notification
	insertErr     error
	failForUser   int64
	nextID        int
}

func (s *memStore) Insert(_ context.Context, n *models.Notification) (string, error) {
	if s.insertErr != nil {
		return "", s.insertErr
	}
	if s.failForUser != 0 && n.UserID == s.failForUser {
		return "", errors.New("store unavailable")
	}
	s.nextID++
	stored := *n
	stored.ID = fmt.Sprintf("n%d", s.nextID)
	s.notifications = append(s.notifications, stored)
	return stored.ID, nil
}

func (s *memStore) ListByUser(_ context.Context, userID int64) ([]models.Notification, error) {
	var out []models.Notification
	for i := len(s.notifications) - 1; i >= 0; i-- {
		if s.notifications[i].UserID == userID {
			out = append(out, s.notifications[i])
		}
	}
	return out, nil
}

func (s *memStore) MarkRead(_ context.Context, id string) error {
	for i := range s.notifications {
		if s.notifications[i].ID == id {
			s.notifications[i].Read = true
			return nil
		}
	}
	return errors.New("not found")
}

func (s *memStore) Delete(_ context.Context, id string) error {
	for i := range s.notifications {
		if s.notifications[i].ID == id {
			s.notifications = append(s.notifications[:i], s.notifications[i+1:]...)
			return nil
		}
	}
	return errors.New("not found")
}

func (s *memStore) UnreadCount(_ context.Context, userID int64) (int64, error) {
	var count int64
	for _, n := range s.notifications {
		if n.UserID == userID && !n.Read {
			count++
		}
	}
	return count, nil
}

// memTokens is an in-memory device token store.
type memTokens struct {
	tokens map[int64]string
	getErr error
	clears []int64
}

func (t *memTokens) GetFCMToken(_ context.Context, userID int64) (string, error) {
	if t.getErr != nil {
		return "", t.getErr
	}
	return t.tokens[userID], nil
}

func (t *memTokens) ClearFCMToken(_ context.Context, userID int64) error {
	delete(t.tokens, userID)
	t.clears = append(t.clears, userID)
	return nil
}

type sentPush struct {
	token string
	title string
	body  string
	data  map[string]string
}

// fakeGateway records push sends and can fail on demand.
type fakeGateway struct {
	sent []sentPush
	err  error
}

func (g *fakeGateway) Send(_ context.Context, token, title, body string, data map[string]string) error {
	if g.err != nil {
		return g.err
	}
	g.sent = append(g.sent, sentPush{token: token, title: title, body: body, data: data})
	return nil
}

func newTestDispatcher() (*Dispatcher, *memStore, *memTokens, *fakeGateway) {
	store := &memStore{}
	tokens := &memTokens{tokens: map[int64]string{7: "device-token-7"}}
	gateway := &fakeGateway{}
	dispatcher := NewDispatcher(store, tokens, gateway, logger.New("test"))
	return dispatcher, store, tokens, gateway
}

func successEvent() models.OrderSuccessEvent {
	return models.OrderSuccessEvent{UserID: 7, OrderID: 42, Total: 130000}
}

func TestDispatcher_OrderSuccess(t *testing.T) {
	dispatcher, store, _, gateway := newTestDispatcher()

	result := dispatcher.DispatchOrderSuccess(context.Background(), successEvent())

	assert.Equal(t, PushSent, result.Push)
	assert.NotEmpty(t, result.NotificationID)

	require.Len(t, store.notifications, 1)
	record := store.notifications[0]
	assert.Equal(t, models.NotificationOrderSuccess, record.Type)
	assert.Equal(t, int64(7), record.UserID)
	require.NotNil(t, record.OrderID)
	assert.Equal(t, int64(42), *record.OrderID)
	assert.False(t, record.Read)

	require.Len(t, gateway.sent, 1)
	assert.Equal(t, "device-token-7", gateway.sent[0].token)
	assert.Equal(t, "42", gateway.sent[0].data["orderId"])
	assert.Equal(t, "order_success", gateway.sent[0].data["type"])
}

func TestDispatcher_OrderStatus_CancelledCarriesReason(t *testing.T) {
	dispatcher, store, _, gateway := newTestDispatcher()

	result := dispatcher.DispatchOrderStatus(context.Background(), models.OrderStatusEvent{
		UserID:  7,
		OrderID: 42,
		Status:  models.StatusCancelled,
		Reason:  "out of stock",
	})

	assert.Equal(t, PushSent, result.Push)

	require.Len(t, store.notifications, 1)
	record := store.notifications[0]
	assert.Equal(t, models.NotificationOrderStatus, record.Type)
	require.NotNil(t, record.Reason)
	assert.Equal(t, "out of stock", *record.Reason)
	assert.Contains(t, record.Body, "out of stock")

	require.Len(t, gateway.sent, 1)
	assert.Equal(t, "out of stock", gateway.sent[0].data["reason"])
	assert.Equal(t, "cancelled", gateway.sent[0].data["status"])
}

func TestDispatcher_RecordPersistedRegardlessOfPushOutcome(t *testing.T) {
	dispatcher, store, _, gateway := newTestDispatcher()
	gateway.err = errors.New("gateway timeout")

	result := dispatcher.DispatchOrderSuccess(context.Background(), successEvent())

	assert.Equal(t, PushFailed, result.Push)
	assert.NotEmpty(t, result.NotificationID)
	assert.Len(t, store.notifications, 1)
}

func TestDispatcher_PersistFailureDoesNotStopPush(t *testing.T) {
	dispatcher, store, _, gateway := newTestDispatcher()
	store.insertErr = errors.New("store unavailable")

	result := dispatcher.DispatchOrderSuccess(context.Background(), successEvent())

	assert.Empty(t, result.NotificationID)
	assert.Equal(t, PushSent, result.Push)
	assert.Len(t, gateway.sent, 1)
}

func TestDispatcher_NoToken_Skipped(t *testing.T) {
	dispatcher, _, tokens, gateway := newTestDispatcher()
	delete(tokens.tokens, 7)

	result := dispatcher.DispatchOrderSuccess(context.Background(), successEvent())

	assert.Equal(t, PushSkipped, result.Push)
	assert.Empty(t, gateway.sent)
}

func TestDispatcher_NilGateway_Skipped(t *testing.T) {
	store := &memStore{}
	tokens := &memTokens{tokens: map[int64]string{7: "device-token-7"}}
	dispatcher := NewDispatcher(store, tokens, nil, logger.New("test"))

	result := dispatcher.DispatchOrderSuccess(context.Background(), successEvent())

	assert.Equal(t, PushSkipped, result.Push)
	assert.Len(t, store.notifications, 1)
}

func TestDispatcher_StaleTokenClearedThenSkipped(t *testing.T) {
	dispatcher, _, tokens, gateway := newTestDispatcher()
	gateway.err = &push.ErrTokenInvalid{Token: "device-token-7"}

	first := dispatcher.DispatchOrderSuccess(context.Background(), successEvent())
	assert.Equal(t, PushFailed, first.Push)
	assert.Equal(t, []int64{7}, tokens.clears)
	assert.NotContains(t, tokens.tokens, int64(7))

	// Token is gone now; the next dispatch skips the gateway entirely.
	gateway.err = nil
	second := dispatcher.DispatchOrderSuccess(context.Background(), successEvent())
	assert.Equal(t, PushSkipped, second.Push)
	assert.Empty(t, gateway.sent)
}

func TestDispatcher_TokenLookupFailure(t *testing.T) {
	dispatcher, store, tokens, gateway := newTestDispatcher()
	tokens.getErr = errors.New("ledger down")

	result := dispatcher.DispatchOrderSuccess(context.Background(), successEvent())

	assert.Equal(t, PushFailed, result.Push)
	assert.Empty(t, gateway.sent)
	assert.Len(t, store.notifications, 1)
}

func TestDispatcher_DispatchToMany_IsolatesFailures(t *testing.T) {
	dispatcher, store, tokens, _ := newTestDispatcher()
	store.failForUser = 2
	tokens.tokens[1] = "token-1"

	results := dispatcher.DispatchToMany(context.Background(), []int64{1, 2, 3}, "Promo", "Free shipping today", nil, nil)

	require.Len(t, results, 3)

	assert.True(t, results[0].Success)
	assert.Equal(t, int64(1), results[0].UserID)
	assert.Equal(t, PushSent, results[0].Push)

	assert.False(t, results[1].Success)
	assert.NotEmpty(t, results[1].Error)

	assert.True(t, results[2].Success)
	assert.Equal(t, PushSkipped, results[2].Push)

	// Two records landed despite the middle failure.
	assert.Len(t, store.notifications, 2)
	for _, n := range store.notifications {
		assert.Equal(t, models.NotificationGeneral, n.Type)
	}
}

func TestBuildStatusText(t *testing.T) {
	tests := []struct {
		name      string
		event     models.OrderStatusEvent
		wantTitle string
		wantBody  string
	}{
		{
			name:      "confirmed",
			event:     models.OrderStatusEvent{OrderID: 5, Status: models.StatusConfirmed},
			wantTitle: "Order confirmed!",
			wantBody:  "Order #5 has been confirmed and is being prepared.",
		},
		{
			name:      "ready",
			event:     models.OrderStatusEvent{OrderID: 5, Status: models.StatusReady},
			wantTitle: "Order ready!",
			wantBody:  "Order #5 is ready and on its way.",
		},
		{
			name:      "delivered",
			event:     models.OrderStatusEvent{OrderID: 5, Status: models.StatusDelivered},
			wantTitle: "Order delivered!",
			wantBody:  "Order #5 has been delivered. Enjoy your meal!",
		},
		{
			name:      "cancelled with reason",
			event:     models.OrderStatusEvent{OrderID: 5, Status: models.StatusCancelled, Reason: "kitchen closed"},
			wantTitle: "Order cancelled",
			wantBody:  "Order #5 has been cancelled. Reason: kitchen closed",
		},
		{
			name:      "message overrides template",
			event:     models.OrderStatusEvent{OrderID: 5, Status: models.StatusCancelled, Message: "You cancelled this order."},
			wantTitle: "Order cancelled",
			wantBody:  "You cancelled this order.",
		},
		{
			name:      "unknown status falls back",
			event:     models.OrderStatusEvent{OrderID: 5, Status: "weird"},
			wantTitle: "Order update",
			wantBody:  "Order #5 has a status update.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			title, body := buildStatusText(tt.event)
			assert.Equal(t, tt.wantTitle, title)
			assert.Equal(t, tt.wantBody, body)
		})
	}
}
