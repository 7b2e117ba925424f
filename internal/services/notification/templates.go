package notification

import (
	"fmt"

	"flash-food/internal/models"
)

type statusTemplate struct {
	title string
	body  string // format string taking the order id
}

// statusTemplates maps an order status to its notification text. Statuses
// without an entry fall back to defaultStatusTemplate.
var statusTemplates = map[models.OrderStatus]statusTemplate{
	models.StatusConfirmed: {
		title: "Order confirmed!",
		body:  "Order #%d has been confirmed and is being prepared.",
	},
	models.StatusPreparing: {
		title: "Order in the kitchen",
		body:  "Order #%d is being prepared.",
	},
	models.StatusReady: {
		title: "Order ready!",
		body:  "Order #%d is ready and on its way.",
	},
	models.StatusDelivered: {
		title: "Order delivered!",
		body:  "Order #%d has been delivered. Enjoy your meal!",
	},
	models.StatusCancelled: {
		title: "Order cancelled",
		body:  "Order #%d has been cancelled.",
	},
}

var defaultStatusTemplate = statusTemplate{
	title: "Order update",
	body:  "Order #%d has a status update.",
}

// buildStatusText returns the title/body pair for a status change. An
// optional message overrides the templated body; a cancel reason is appended.
func buildStatusText(event models.OrderStatusEvent) (string, string) {
	tmpl, ok := statusTemplates[event.Status]
	if !ok {
		tmpl = defaultStatusTemplate
	}

	body := fmt.Sprintf(tmpl.body, event.OrderID)
	if event.Message != "" {
		body = event.Message
	}
	if event.Reason != "" {
		body = fmt.Sprintf("%s Reason: %s", body, event.Reason)
	}

	return tmpl.title, body
}

// buildSuccessText returns the title/body pair for a freshly placed order.
func buildSuccessText(event models.OrderSuccessEvent) (string, string) {
	title := "Order placed successfully!"
	body := fmt.Sprintf("Your order #%d has been placed, total %d VND. We will process it as soon as possible!",
		event.OrderID, event.Total)
	return title, body
}
