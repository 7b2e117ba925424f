package revenue

import (
	"context"
	"time"

	"flash-food/internal/database"
)

// Repository is the PostgreSQL read model behind the aggregator.
type Repository struct {
	db *database.DB
}

// NewRepository creates a repository over the connection pool.
func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

// SumConfirmed sums total and counts confirmed orders in the window.
func (r *Repository) SumConfirmed(ctx context.Context, from, to *time.Time) (int64, int64, error) {
	var totalRevenue, totalOrders int64
	err := r.db.QueryRow(ctx, database.RevenueSQL, from, to).Scan(&totalRevenue, &totalOrders)
	if err != nil {
		return 0, 0, err
	}
	return totalRevenue, totalOrders, nil
}

// SumConfirmedByFood groups confirmed-order line items by menu item.
func (r *Repository) SumConfirmedByFood(ctx context.Context, from, to *time.Time) ([]FoodLine, error) {
	rows, err := r.db.Query(ctx, database.RevenueByFoodSQL, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []FoodLine
	for rows.Next() {
		var line FoodLine
		if err := rows.Scan(&line.FoodID, &line.FoodName, &line.Quantity, &line.Revenue); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}

	return lines, rows.Err()
}
