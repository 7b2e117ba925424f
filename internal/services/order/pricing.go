package order

import (
	"context"

	"flash-food/internal/apperr"
	"flash-food/internal/models"
)

// MenuReader resolves menu items. Returns (nil, nil) when the id is unknown.
type MenuReader interface {
	GetMenuItem(ctx context.Context, id int64) (*models.MenuItem, error)
}

// Pricer resolves requested items against the menu and computes the order
// total. Read-only: it never writes anything.
type Pricer struct {
	menu MenuReader
}

// NewPricer creates a pricer over the given menu source.
func NewPricer(menu MenuReader) *Pricer {
	return &Pricer{menu: menu}
}

// Resolve looks up every requested item, snapshots its current name and
// price, and returns the line items with the exact integer total. The
// snapshots freeze the order's amounts against later menu price changes.
func (p *Pricer) Resolve(ctx context.Context, requested []models.CreateOrderItem) ([]models.OrderItem, int64, error) {
	if len(requested) == 0 {
		return nil, 0, apperr.Validationf("order must contain at least one item")
	}

	items := make([]models.OrderItem, 0, len(requested))
	var total int64

	for _, req := range requested {
		if req.Quantity <= 0 {
			return nil, 0, apperr.Validationf("quantity must be a positive integer")
		}

		menuItem, err := p.menu.GetMenuItem(ctx, req.FoodID)
		if err != nil {
			return nil, 0, apperr.Dependency("failed to look up menu item", err)
		}
		if menuItem == nil {
			return nil, 0, apperr.NotFoundf("food %d not found", req.FoodID)
		}

		items = append(items, models.OrderItem{
			FoodID:   menuItem.ID,
			FoodName: menuItem.Name,
			Quantity: req.Quantity,
			Price:    menuItem.Price,
		})
		total += menuItem.Price * int64(req.Quantity)
	}

	return items, total, nil
}
