package models

import "time"

// NotificationType classifies a stored notification record.
type NotificationType string

const (
	NotificationOrderSuccess NotificationType = "order_success"
	NotificationOrderStatus  NotificationType = "order_status"
	NotificationGeneral      NotificationType = "general"
)

// Notification is a durable record in the notification store. It references
// orders by id but has its own lifecycle: deleting an order does not touch
// its notifications.
type Notification struct {
	ID        string           `json:"id"`
	UserID    int64            `json:"user_id"`
	Title     string           `json:"title"`
	Body      string           `json:"body"`
	Type      NotificationType `json:"type"`
	OrderID   *int64           `json:"order_id,omitempty"`
	Status    *OrderStatus     `json:"status,omitempty"`
	Reason    *string          `json:"reason,omitempty"`
	Read      bool             `json:"read"`
	CreatedAt time.Time        `json:"created_at"`
}

// OrderSuccessEvent is dispatched after an order is created.
type OrderSuccessEvent struct {
	UserID  int64
	OrderID int64
	Total   int64
	Items   []OrderItem
}

// OrderStatusEvent is dispatched after an order changes status.
type OrderStatusEvent struct {
	UserID  int64
	OrderID int64
	Status  OrderStatus
	Message string
	Reason  string
}
