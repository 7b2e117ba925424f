package models

import (
	"fmt"
	"time"
)

// OrderStatus represents the lifecycle status of an order.
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusConfirmed OrderStatus = "confirmed"
	StatusCancelled OrderStatus = "cancelled"

	// Kitchen-side statuses only ever appear in status notifications,
	// never as a stored order status.
	StatusPreparing OrderStatus = "preparing"
	StatusReady     OrderStatus = "ready"
	StatusDelivered OrderStatus = "delivered"
)

// PaymentMethod represents how the customer pays.
type PaymentMethod string

const (
	PaymentCOD PaymentMethod = "cod"
	PaymentQR  PaymentMethod = "qr"
)

// IsValid reports whether the payment method is one the system accepts.
func (p PaymentMethod) IsValid() bool {
	return p == PaymentCOD || p == PaymentQR
}

// CancelledByCustomerReason is the fixed reason stored when an owner cancels
// their own order.
const CancelledByCustomerReason = "Cancelled by customer"

// MenuItem is a food entry on the menu, read-only to this service.
type MenuItem struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Category string `json:"category,omitempty"`
}

// OrderItem is one line of an order. Name and price are snapshots taken at
// order time and stay frozen even if the menu changes afterwards.
type OrderItem struct {
	ID       int64  `json:"id,omitempty"`
	OrderID  int64  `json:"order_id,omitempty"`
	FoodID   int64  `json:"food_id"`
	FoodName string `json:"food_name"`
	Quantity int    `json:"quantity"`
	Price    int64  `json:"price"`
}

// Order is a customer order as stored in the ledger.
type Order struct {
	ID            int64         `json:"id"`
	UserID        int64         `json:"user_id"`
	Items         []OrderItem   `json:"items"`
	Total         int64         `json:"total"`
	Status        OrderStatus   `json:"status"`
	Address       string        `json:"address,omitempty"`
	Note          string        `json:"note,omitempty"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	CancelReason  *string       `json:"cancel_reason,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	ConfirmedAt   *time.Time    `json:"confirmed_at,omitempty"`

	// Customer columns joined in for staff listings.
	CustomerName string `json:"customer_name,omitempty"`
	FullName     string `json:"full_name,omitempty"`
	Phone        string `json:"phone,omitempty"`
}

// CreateOrderItem is one requested line in a create request.
type CreateOrderItem struct {
	FoodID   int64 `json:"food_id"`
	Quantity int   `json:"quantity"`
}

// CreateOrderRequest is the payload to create a new order.
type CreateOrderRequest struct {
	Items         []CreateOrderItem `json:"items"`
	Address       string            `json:"address,omitempty"`
	Note          string            `json:"note,omitempty"`
	PaymentMethod PaymentMethod     `json:"payment_method"`
}

// Validate checks the request-level invariants. Item resolution and quantity
// bounds are checked against the menu during pricing.
func (req *CreateOrderRequest) Validate() error {
	if len(req.Items) == 0 {
		return fmt.Errorf("order must contain at least one item")
	}
	if !req.PaymentMethod.IsValid() {
		return fmt.Errorf("payment_method must be one of: cod, qr")
	}
	return nil
}

// CreateOrderResponse is returned after an order is created.
type CreateOrderResponse struct {
	OrderID int64       `json:"order_id"`
	Total   int64       `json:"total"`
	Status  OrderStatus `json:"status"`
}

// ListOrdersFilter narrows an order listing.
type ListOrdersFilter struct {
	Status   OrderStatus
	OnlyMine bool
}
