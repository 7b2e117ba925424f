package models

import (
	"fmt"
	"time"
)

// OrderEventMessage is broadcast to the order_events exchange after a
// successful ledger write. Downstream consumers (dashboards, analytics) are
// independent of the push/notification path.
type OrderEventMessage struct {
	Event     string      `json:"event"`
	OrderID   int64       `json:"order_id"`
	UserID    int64       `json:"user_id"`
	Status    OrderStatus `json:"status"`
	Total     int64       `json:"total,omitempty"`
	Reason    string      `json:"reason,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// NewOrderEventMessage builds an event message stamped with the current time.
func NewOrderEventMessage(event string, order *Order) *OrderEventMessage {
	msg := &OrderEventMessage{
		Event:     event,
		OrderID:   order.ID,
		UserID:    order.UserID,
		Status:    order.Status,
		Total:     order.Total,
		Timestamp: time.Now().UTC(),
	}
	if order.CancelReason != nil {
		msg.Reason = *order.CancelReason
	}
	return msg
}

// RoutingKey returns the topic routing key for the message.
func (m *OrderEventMessage) RoutingKey() string {
	return fmt.Sprintf("order.%s", m.Event)
}
