package order

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flash-food/internal/apperr"
	"flash-food/internal/logger"
	"flash-food/internal/models"
	notifsvc "flash-food/internal/services/notification"
)

// fakeLedger is an in-memory Ledger for service tests.
type fakeLedger struct {
	menu      map[int64]models.MenuItem
	orders    map[int64]*models.Order
	items     map[int64][]models.OrderItem
	orderIDs  []int64
	nextID    int64
	insertErr error
	opLog     []string
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		menu: map[int64]models.MenuItem{
			1: {ID: 1, Name: "Pho Bo", Price: 50000},
			2: {ID: 2, Name: "Banh Mi", Price: 30000},
		},
		orders: make(map[int64]*models.Order),
		items:  make(map[int64][]models.OrderItem),
	}
}

func (l *fakeLedger) GetMenuItem(_ context.Context, id int64) (*models.MenuItem, error) {
	item, ok := l.menu[id]
	if !ok {
		return nil, nil
	}
	return &item, nil
}

func (l *fakeLedger) InsertOrderWithItems(_ context.Context, order *models.Order) (int64, error) {
	if l.insertErr != nil {
		return 0, l.insertErr
	}
	l.nextID++
	stored := *order
	stored.ID = l.nextID
	l.orders[stored.ID] = &stored
	l.items[stored.ID] = append([]models.OrderItem(nil), order.Items...)
	l.orderIDs = append(l.orderIDs, stored.ID)
	return stored.ID, nil
}

func (l *fakeLedger) GetOrder(_ context.Context, id int64) (*models.Order, error) {
	order, ok := l.orders[id]
	if !ok {
		return nil, nil
	}
	copied := *order
	return &copied, nil
}

func (l *fakeLedger) ConfirmOrder(_ context.Context, id int64) error {
	l.orders[id].Status = models.StatusConfirmed
	return nil
}

func (l *fakeLedger) CancelOrder(_ context.Context, id int64, reason string) error {
	l.orders[id].Status = models.StatusCancelled
	l.orders[id].CancelReason = &reason
	return nil
}

func (l *fakeLedger) DeleteOrder(_ context.Context, id int64) error {
	l.opLog = append(l.opLog, "delete_items", "delete_order")
	delete(l.items, id)
	delete(l.orders, id)
	return nil
}

func (l *fakeLedger) ListOrders(_ context.Context, userID *int64, status models.OrderStatus) ([]models.Order, error) {
	var orders []models.Order
	for _, id := range l.orderIDs {
		order, ok := l.orders[id]
		if !ok {
			continue
		}
		if userID != nil && order.UserID != *userID {
			continue
		}
		if status != "" && order.Status != status {
			continue
		}
		orders = append(orders, *order)
	}
	return orders, nil
}

func (l *fakeLedger) GetOrderItems(_ context.Context, orderID int64) ([]models.OrderItem, error) {
	return l.items[orderID], nil
}

// fakeNotifier records dispatched events.
type fakeNotifier struct {
	successes []models.OrderSuccessEvent
	statuses  []models.OrderStatusEvent
}

func (n *fakeNotifier) DispatchOrderSuccess(_ context.Context, event models.OrderSuccessEvent) notifsvc.Result {
	n.successes = append(n.successes, event)
	return notifsvc.Result{NotificationID: "n1", Push: notifsvc.PushSent}
}

func (n *fakeNotifier) DispatchOrderStatus(_ context.Context, event models.OrderStatusEvent) notifsvc.Result {
	n.statuses = append(n.statuses, event)
	return notifsvc.Result{NotificationID: "n2", Push: notifsvc.PushSent}
}

// fakePublisher records broadcast events and can be told to fail.
type fakePublisher struct {
	events []models.OrderEventMessage
	err    error
}

func (p *fakePublisher) PublishOrderEvent(_ context.Context, msg *models.OrderEventMessage) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, *msg)
	return nil
}

func newTestService() (*Service, *fakeLedger, *fakeNotifier, *fakePublisher) {
	ledger := newFakeLedger()
	notifier := &fakeNotifier{}
	publisher := &fakePublisher{}
	service := NewService(ledger, notifier, publisher, logger.New("test"))
	return service, ledger, notifier, publisher
}

var (
	customer = models.Actor{ID: 7, Role: models.RoleCustomer}
	staff    = models.Actor{ID: 100, Role: models.RoleStaff}
	admin    = models.Actor{ID: 101, Role: models.RoleAdmin}
)

func validCreateRequest() *models.CreateOrderRequest {
	return &models.CreateOrderRequest{
		Items: []models.CreateOrderItem{
			{FoodID: 1, Quantity: 2},
			{FoodID: 2, Quantity: 1},
		},
		Address:       "12 Nguyen Hue",
		PaymentMethod: models.PaymentCOD,
	}
}

func TestService_Create(t *testing.T) {
	service, ledger, notifier, publisher := newTestService()

	resp, err := service.Create(context.Background(), customer, validCreateRequest(), "req-1")
	require.NoError(t, err)

	assert.Equal(t, int64(130000), resp.Total)
	assert.Equal(t, models.StatusPending, resp.Status)

	stored := ledger.orders[resp.OrderID]
	require.NotNil(t, stored)
	assert.Equal(t, customer.ID, stored.UserID)
	assert.Equal(t, int64(130000), stored.Total)
	assert.Len(t, ledger.items[resp.OrderID], 2)

	require.Len(t, notifier.successes, 1)
	assert.Equal(t, resp.OrderID, notifier.successes[0].OrderID)
	assert.Equal(t, int64(130000), notifier.successes[0].Total)

	require.Len(t, publisher.events, 1)
	assert.Equal(t, "created", publisher.events[0].Event)
}

func TestService_Create_ValidationErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.CreateOrderRequest)
		kind   apperr.Kind
	}{
		{
			name:   "empty items",
			mutate: func(req *models.CreateOrderRequest) { req.Items = nil },
			kind:   apperr.KindValidation,
		},
		{
			name:   "invalid payment method",
			mutate: func(req *models.CreateOrderRequest) { req.PaymentMethod = "card" },
			kind:   apperr.KindValidation,
		},
		{
			name: "unknown menu item",
			mutate: func(req *models.CreateOrderRequest) {
				req.Items = []models.CreateOrderItem{{FoodID: 99, Quantity: 1}}
			},
			kind: apperr.KindNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, ledger, notifier, _ := newTestService()

			req := validCreateRequest()
			tt.mutate(req)

			_, err := service.Create(context.Background(), customer, req, "req-1")
			require.Error(t, err)
			assert.True(t, apperr.IsKind(err, tt.kind))
			assert.Empty(t, ledger.orders)
			assert.Empty(t, notifier.successes)
		})
	}
}

func TestService_Create_LedgerFailure(t *testing.T) {
	service, ledger, notifier, publisher := newTestService()
	ledger.insertErr = errors.New("connection reset")

	_, err := service.Create(context.Background(), customer, validCreateRequest(), "req-1")
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindDependency))
	assert.Empty(t, notifier.successes)
	assert.Empty(t, publisher.events)
}

func TestService_Create_PublishFailureTolerated(t *testing.T) {
	service, _, notifier, publisher := newTestService()
	publisher.err = errors.New("broker down")

	resp, err := service.Create(context.Background(), customer, validCreateRequest(), "req-1")
	require.NoError(t, err)
	assert.NotZero(t, resp.OrderID)
	assert.Len(t, notifier.successes, 1)
}

func TestService_Create_TotalFrozenAgainstMenuChanges(t *testing.T) {
	service, ledger, _, _ := newTestService()

	resp, err := service.Create(context.Background(), customer, validCreateRequest(), "req-1")
	require.NoError(t, err)

	ledger.menu[1] = models.MenuItem{ID: 1, Name: "Pho Bo", Price: 75000}

	stored := ledger.orders[resp.OrderID]
	assert.Equal(t, int64(130000), stored.Total)
	assert.Equal(t, int64(50000), ledger.items[resp.OrderID][0].Price)
}

func TestService_Confirm(t *testing.T) {
	service, ledger, notifier, publisher := newTestService()
	resp, err := service.Create(context.Background(), customer, validCreateRequest(), "req-1")
	require.NoError(t, err)

	err = service.Confirm(context.Background(), staff, resp.OrderID, "req-2")
	require.NoError(t, err)

	assert.Equal(t, models.StatusConfirmed, ledger.orders[resp.OrderID].Status)

	require.Len(t, notifier.statuses, 1)
	assert.Equal(t, models.StatusConfirmed, notifier.statuses[0].Status)
	assert.Equal(t, customer.ID, notifier.statuses[0].UserID)

	require.Len(t, publisher.events, 2)
	assert.Equal(t, "confirmed", publisher.events[1].Event)
}

func TestService_Confirm_AdminAllowed(t *testing.T) {
	service, _, _, _ := newTestService()
	resp, err := service.Create(context.Background(), customer, validCreateRequest(), "req-1")
	require.NoError(t, err)

	require.NoError(t, service.Confirm(context.Background(), admin, resp.OrderID, "req-2"))
}

func TestService_Confirm_Errors(t *testing.T) {
	service, _, _, _ := newTestService()
	resp, err := service.Create(context.Background(), customer, validCreateRequest(), "req-1")
	require.NoError(t, err)

	t.Run("customer forbidden", func(t *testing.T) {
		err := service.Confirm(context.Background(), customer, resp.OrderID, "req-2")
		assert.True(t, apperr.IsKind(err, apperr.KindForbidden))
	})

	t.Run("unknown order", func(t *testing.T) {
		err := service.Confirm(context.Background(), staff, 999, "req-2")
		assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
	})

	t.Run("already confirmed", func(t *testing.T) {
		require.NoError(t, service.Confirm(context.Background(), staff, resp.OrderID, "req-2"))
		err := service.Confirm(context.Background(), staff, resp.OrderID, "req-3")
		assert.True(t, apperr.IsKind(err, apperr.KindInvalidTransition))
	})
}

func TestService_CancelByStaff(t *testing.T) {
	service, ledger, notifier, _ := newTestService()
	resp, err := service.Create(context.Background(), customer, validCreateRequest(), "req-1")
	require.NoError(t, err)

	err = service.CancelByStaff(context.Background(), staff, resp.OrderID, "out of stock", "req-2")
	require.NoError(t, err)

	stored := ledger.orders[resp.OrderID]
	assert.Equal(t, models.StatusCancelled, stored.Status)
	require.NotNil(t, stored.CancelReason)
	assert.Equal(t, "out of stock", *stored.CancelReason)

	require.Len(t, notifier.statuses, 1)
	assert.Equal(t, models.StatusCancelled, notifier.statuses[0].Status)
	assert.Equal(t, "out of stock", notifier.statuses[0].Reason)
}

func TestService_CancelByStaff_Errors(t *testing.T) {
	service, _, _, _ := newTestService()

	t.Run("customer forbidden", func(t *testing.T) {
		err := service.CancelByStaff(context.Background(), customer, 1, "", "req-1")
		assert.True(t, apperr.IsKind(err, apperr.KindForbidden))
	})

	t.Run("unknown order", func(t *testing.T) {
		err := service.CancelByStaff(context.Background(), staff, 999, "", "req-1")
		assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
	})
}

func TestService_CancelByOwner(t *testing.T) {
	service, ledger, notifier, _ := newTestService()
	resp, err := service.Create(context.Background(), customer, validCreateRequest(), "req-1")
	require.NoError(t, err)

	err = service.CancelByOwner(context.Background(), customer, resp.OrderID, "req-2")
	require.NoError(t, err)

	stored := ledger.orders[resp.OrderID]
	assert.Equal(t, models.StatusCancelled, stored.Status)
	require.NotNil(t, stored.CancelReason)
	assert.Equal(t, models.CancelledByCustomerReason, *stored.CancelReason)
	assert.Len(t, notifier.statuses, 1)

	// Cancelling again is no longer a pending-order transition.
	err = service.CancelByOwner(context.Background(), customer, resp.OrderID, "req-3")
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidTransition))
}

func TestService_CancelByOwner_Errors(t *testing.T) {
	service, _, _, _ := newTestService()
	resp, err := service.Create(context.Background(), customer, validCreateRequest(), "req-1")
	require.NoError(t, err)

	t.Run("non-owner forbidden", func(t *testing.T) {
		other := models.Actor{ID: 8, Role: models.RoleCustomer}
		err := service.CancelByOwner(context.Background(), other, resp.OrderID, "req-2")
		assert.True(t, apperr.IsKind(err, apperr.KindForbidden))
	})

	t.Run("unknown order", func(t *testing.T) {
		err := service.CancelByOwner(context.Background(), customer, 999, "req-2")
		assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
	})

	t.Run("confirmed order", func(t *testing.T) {
		require.NoError(t, service.Confirm(context.Background(), staff, resp.OrderID, "req-2"))
		err := service.CancelByOwner(context.Background(), customer, resp.OrderID, "req-3")
		assert.True(t, apperr.IsKind(err, apperr.KindInvalidTransition))
	})
}

func TestService_Delete(t *testing.T) {
	service, ledger, _, _ := newTestService()
	resp, err := service.Create(context.Background(), customer, validCreateRequest(), "req-1")
	require.NoError(t, err)

	err = service.Delete(context.Background(), customer, resp.OrderID, "req-2")
	require.NoError(t, err)

	assert.NotContains(t, ledger.orders, resp.OrderID)
	assert.Equal(t, []string{"delete_items", "delete_order"}, ledger.opLog)
}

func TestService_Delete_CancelledAllowed(t *testing.T) {
	service, _, _, _ := newTestService()
	resp, err := service.Create(context.Background(), customer, validCreateRequest(), "req-1")
	require.NoError(t, err)

	require.NoError(t, service.CancelByOwner(context.Background(), customer, resp.OrderID, "req-2"))
	require.NoError(t, service.Delete(context.Background(), customer, resp.OrderID, "req-3"))
}

func TestService_Delete_Errors(t *testing.T) {
	service, _, _, _ := newTestService()
	resp, err := service.Create(context.Background(), customer, validCreateRequest(), "req-1")
	require.NoError(t, err)

	t.Run("non-owner forbidden", func(t *testing.T) {
		other := models.Actor{ID: 8, Role: models.RoleCustomer}
		err := service.Delete(context.Background(), other, resp.OrderID, "req-2")
		assert.True(t, apperr.IsKind(err, apperr.KindForbidden))
	})

	t.Run("confirmed order", func(t *testing.T) {
		require.NoError(t, service.Confirm(context.Background(), staff, resp.OrderID, "req-2"))
		err := service.Delete(context.Background(), customer, resp.OrderID, "req-3")
		assert.True(t, apperr.IsKind(err, apperr.KindInvalidTransition))
	})
}

func TestService_List(t *testing.T) {
	service, _, _, _ := newTestService()

	other := models.Actor{ID: 8, Role: models.RoleCustomer}
	_, err := service.Create(context.Background(), customer, validCreateRequest(), "req-1")
	require.NoError(t, err)
	resp2, err := service.Create(context.Background(), other, validCreateRequest(), "req-2")
	require.NoError(t, err)
	require.NoError(t, service.CancelByOwner(context.Background(), other, resp2.OrderID, "req-3"))

	t.Run("customer sees only own orders", func(t *testing.T) {
		orders, err := service.List(context.Background(), customer, models.ListOrdersFilter{})
		require.NoError(t, err)
		require.Len(t, orders, 1)
		assert.Equal(t, customer.ID, orders[0].UserID)
		assert.Len(t, orders[0].Items, 2)
	})

	t.Run("customer cannot widen the listing", func(t *testing.T) {
		orders, err := service.List(context.Background(), customer, models.ListOrdersFilter{OnlyMine: false})
		require.NoError(t, err)
		for _, order := range orders {
			assert.Equal(t, customer.ID, order.UserID)
		}
	})

	t.Run("staff sees all orders", func(t *testing.T) {
		orders, err := service.List(context.Background(), staff, models.ListOrdersFilter{})
		require.NoError(t, err)
		assert.Len(t, orders, 2)
	})

	t.Run("staff filters by status", func(t *testing.T) {
		orders, err := service.List(context.Background(), staff, models.ListOrdersFilter{Status: models.StatusCancelled})
		require.NoError(t, err)
		require.Len(t, orders, 1)
		assert.Equal(t, models.StatusCancelled, orders[0].Status)
	})

	t.Run("staff restricted to own orders", func(t *testing.T) {
		orders, err := service.List(context.Background(), staff, models.ListOrdersFilter{OnlyMine: true})
		require.NoError(t, err)
		assert.Empty(t, orders)
	})
}
