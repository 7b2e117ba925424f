// Package order owns the order lifecycle state machine: creation with priced
// line items, status transitions under role checks, deletion, and listings.
// The ledger write is the commit point of every operation; notification
// dispatch and event publishing run after it and never fail the caller.
package order

import (
	"context"
	"fmt"

	"flash-food/internal/apperr"
	"flash-food/internal/logger"
	"flash-food/internal/models"
	notifsvc "flash-food/internal/services/notification"
)

// Ledger is the relational store of orders, line items, menu and tokens.
type Ledger interface {
	MenuReader
	InsertOrderWithItems(ctx context.Context, order *models.Order) (int64, error)
	GetOrder(ctx context.Context, id int64) (*models.Order, error)
	ConfirmOrder(ctx context.Context, id int64) error
	CancelOrder(ctx context.Context, id int64, reason string) error
	DeleteOrder(ctx context.Context, id int64) error
	ListOrders(ctx context.Context, userID *int64, status models.OrderStatus) ([]models.Order, error)
	GetOrderItems(ctx context.Context, orderID int64) ([]models.OrderItem, error)
}

// Notifier dispatches lifecycle notifications. Dispatch outcomes are logged,
// never propagated.
type Notifier interface {
	DispatchOrderSuccess(ctx context.Context, event models.OrderSuccessEvent) notifsvc.Result
	DispatchOrderStatus(ctx context.Context, event models.OrderStatusEvent) notifsvc.Result
}

// EventPublisher broadcasts lifecycle events to the message broker.
type EventPublisher interface {
	PublishOrderEvent(ctx context.Context, msg *models.OrderEventMessage) error
}

// Service is the order lifecycle manager.
type Service struct {
	ledger   Ledger
	pricer   *Pricer
	notifier Notifier
	events   EventPublisher // may be nil when the broker is disabled
	logger   *logger.Logger
}

// NewService creates the lifecycle manager.
func NewService(ledger Ledger, notifier Notifier, events EventPublisher, log *logger.Logger) *Service {
	return &Service{
		ledger:   ledger,
		pricer:   NewPricer(ledger),
		notifier: notifier,
		events:   events,
		logger:   log,
	}
}

// Create validates and prices the request, writes the order and its line
// items as one transaction, and fans out the order_success notification.
// Notification failure never fails a created order.
func (s *Service) Create(ctx context.Context, actor models.Actor, req *models.CreateOrderRequest, requestID string) (*models.CreateOrderResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, apperr.Validationf("%s", err.Error())
	}

	items, total, err := s.pricer.Resolve(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		UserID:        actor.ID,
		Items:         items,
		Total:         total,
		Status:        models.StatusPending,
		Address:       req.Address,
		Note:          req.Note,
		PaymentMethod: req.PaymentMethod,
	}

	orderID, err := s.ledger.InsertOrderWithItems(ctx, order)
	if err != nil {
		return nil, apperr.Dependency("failed to create order", err)
	}
	order.ID = orderID

	s.logger.Info("order_created", fmt.Sprintf("Order #%d created", orderID), requestID, map[string]interface{}{
		"order_id": orderID,
		"user_id":  actor.ID,
		"total":    total,
	})

	result := s.notifier.DispatchOrderSuccess(ctx, models.OrderSuccessEvent{
		UserID:  actor.ID,
		OrderID: orderID,
		Total:   total,
		Items:   items,
	})
	s.logDispatch(requestID, orderID, result)

	s.publishEvent(ctx, "created", order, requestID)

	return &models.CreateOrderResponse{
		OrderID: orderID,
		Total:   total,
		Status:  models.StatusPending,
	}, nil
}

// Confirm moves a pending order to confirmed and stamps the confirmation
// time. Only staff and admin may confirm.
func (s *Service) Confirm(ctx context.Context, actor models.Actor, orderID int64, requestID string) error {
	if !actor.Role.Has(models.CapManageOrders) {
		return apperr.Forbiddenf("only staff may confirm orders")
	}

	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if order.Status != models.StatusPending {
		return apperr.InvalidTransitionf("only pending orders may be confirmed")
	}

	if err := s.ledger.ConfirmOrder(ctx, orderID); err != nil {
		return apperr.Dependency("failed to confirm order", err)
	}
	order.Status = models.StatusConfirmed

	s.logger.Info("order_confirmed", fmt.Sprintf("Order #%d confirmed", orderID), requestID, map[string]interface{}{
		"order_id":   orderID,
		"changed_by": actor.ID,
	})

	result := s.notifier.DispatchOrderStatus(ctx, models.OrderStatusEvent{
		UserID:  order.UserID,
		OrderID: orderID,
		Status:  models.StatusConfirmed,
	})
	s.logDispatch(requestID, orderID, result)

	s.publishEvent(ctx, "confirmed", order, requestID)
	return nil
}

// CancelByStaff cancels any order with an optional reason. Only staff and
// admin may cancel on behalf of the restaurant.
func (s *Service) CancelByStaff(ctx context.Context, actor models.Actor, orderID int64, reason string, requestID string) error {
	if !actor.Role.Has(models.CapManageOrders) {
		return apperr.Forbiddenf("only staff may cancel orders")
	}

	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return err
	}

	if err := s.ledger.CancelOrder(ctx, orderID, reason); err != nil {
		return apperr.Dependency("failed to cancel order", err)
	}
	order.Status = models.StatusCancelled
	order.CancelReason = &reason

	s.logger.Info("order_cancelled", fmt.Sprintf("Order #%d cancelled by staff", orderID), requestID, map[string]interface{}{
		"order_id":   orderID,
		"changed_by": actor.ID,
		"reason":     reason,
	})

	result := s.notifier.DispatchOrderStatus(ctx, models.OrderStatusEvent{
		UserID:  order.UserID,
		OrderID: orderID,
		Status:  models.StatusCancelled,
		Reason:  reason,
	})
	s.logDispatch(requestID, orderID, result)

	s.publishEvent(ctx, "cancelled", order, requestID)
	return nil
}

// CancelByOwner lets a customer cancel their own order while it is still
// pending. The stored reason is a fixed system string.
func (s *Service) CancelByOwner(ctx context.Context, actor models.Actor, orderID int64, requestID string) error {
	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if order.UserID != actor.ID {
		return apperr.Forbiddenf("you may only cancel your own orders")
	}
	if order.Status != models.StatusPending {
		return apperr.InvalidTransitionf("only pending orders may be cancelled")
	}

	reason := models.CancelledByCustomerReason
	if err := s.ledger.CancelOrder(ctx, orderID, reason); err != nil {
		return apperr.Dependency("failed to cancel order", err)
	}
	order.Status = models.StatusCancelled
	order.CancelReason = &reason

	s.logger.Info("order_cancelled", fmt.Sprintf("Order #%d cancelled by owner", orderID), requestID, map[string]interface{}{
		"order_id": orderID,
		"user_id":  actor.ID,
	})

	result := s.notifier.DispatchOrderStatus(ctx, models.OrderStatusEvent{
		UserID:  order.UserID,
		OrderID: orderID,
		Status:  models.StatusCancelled,
		Message: "You cancelled this order.",
	})
	s.logDispatch(requestID, orderID, result)

	s.publishEvent(ctx, "cancelled", order, requestID)
	return nil
}

// Delete removes an order and its line items. Owners only, and only while the
// order is pending or cancelled. No notification is dispatched.
func (s *Service) Delete(ctx context.Context, actor models.Actor, orderID int64, requestID string) error {
	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if order.UserID != actor.ID {
		return apperr.Forbiddenf("you may only delete your own orders")
	}
	if order.Status != models.StatusPending && order.Status != models.StatusCancelled {
		return apperr.InvalidTransitionf("only pending or cancelled orders may be deleted")
	}

	if err := s.ledger.DeleteOrder(ctx, orderID); err != nil {
		return apperr.Dependency("failed to delete order", err)
	}

	s.logger.Info("order_deleted", fmt.Sprintf("Order #%d deleted", orderID), requestID, map[string]interface{}{
		"order_id": orderID,
		"user_id":  actor.ID,
	})
	return nil
}

// List returns orders visible to the actor, hydrated with their line items.
// Customers only ever see their own orders; staff and admin see all orders
// unless they restrict the listing to their own.
func (s *Service) List(ctx context.Context, actor models.Actor, filter models.ListOrdersFilter) ([]models.Order, error) {
	var userID *int64
	if !actor.Role.Has(models.CapManageOrders) || filter.OnlyMine {
		userID = &actor.ID
	}

	orders, err := s.ledger.ListOrders(ctx, userID, filter.Status)
	if err != nil {
		return nil, apperr.Dependency("failed to list orders", err)
	}

	for i := range orders {
		items, err := s.ledger.GetOrderItems(ctx, orders[i].ID)
		if err != nil {
			return nil, apperr.Dependency("failed to load order items", err)
		}
		orders[i].Items = items
	}

	return orders, nil
}

func (s *Service) getOrder(ctx context.Context, orderID int64) (*models.Order, error) {
	order, err := s.ledger.GetOrder(ctx, orderID)
	if err != nil {
		return nil, apperr.Dependency("failed to load order", err)
	}
	if order == nil {
		return nil, apperr.NotFoundf("order %d not found", orderID)
	}
	return order, nil
}

func (s *Service) logDispatch(requestID string, orderID int64, result notifsvc.Result) {
	s.logger.Debug("notification_dispatched", "Notification dispatch finished", requestID, map[string]interface{}{
		"order_id":        orderID,
		"notification_id": result.NotificationID,
		"push":            string(result.Push),
	})
}

// publishEvent broadcasts the lifecycle event. Publish failure is logged and
// dropped: the ledger write already committed.
func (s *Service) publishEvent(ctx context.Context, event string, order *models.Order, requestID string) {
	if s.events == nil {
		return
	}
	msg := models.NewOrderEventMessage(event, order)
	if err := s.events.PublishOrderEvent(ctx, msg); err != nil {
		s.logger.Warn("event_publish_failed", "Failed to broadcast order event", requestID, map[string]interface{}{
			"event":    event,
			"order_id": order.ID,
			"error":    err.Error(),
		})
	}
}
