// Package revenue computes read-only rollups over confirmed orders.
package revenue

import (
	"context"
	"time"

	"flash-food/internal/apperr"
)

// Report is the overall revenue rollup for a time window.
type Report struct {
	TotalRevenue int64 `json:"total_revenue"`
	TotalOrders  int64 `json:"total_orders"`
}

// FoodLine is the per-menu-item rollup line.
type FoodLine struct {
	FoodID   int64  `json:"food_id"`
	FoodName string `json:"food_name"`
	Quantity int64  `json:"quantity"`
	Revenue  int64  `json:"revenue"`
}

// FoodReport groups confirmed-order revenue by menu item.
type FoodReport struct {
	TotalRevenue int64      `json:"total_revenue"`
	Foods        []FoodLine `json:"foods"`
}

// Ledger is the read-only view of the order ledger the aggregator needs.
// Bounds are inclusive; a nil bound leaves that side open.
type Ledger interface {
	SumConfirmed(ctx context.Context, from, to *time.Time) (totalRevenue, totalOrders int64, err error)
	SumConfirmedByFood(ctx context.Context, from, to *time.Time) ([]FoodLine, error)
}

// Service aggregates revenue. It never writes.
type Service struct {
	ledger Ledger
}

// NewService creates the aggregator.
func NewService(ledger Ledger) *Service {
	return &Service{ledger: ledger}
}

// Revenue sums total and counts confirmed orders in the window.
func (s *Service) Revenue(ctx context.Context, from, to *time.Time) (*Report, error) {
	totalRevenue, totalOrders, err := s.ledger.SumConfirmed(ctx, from, to)
	if err != nil {
		return nil, apperr.Dependency("failed to compute revenue", err)
	}
	return &Report{TotalRevenue: totalRevenue, TotalOrders: totalOrders}, nil
}

// RevenueByFood groups confirmed-order revenue by menu item. The grand total
// is the sum of the per-item lines and matches Revenue for the same window.
func (s *Service) RevenueByFood(ctx context.Context, from, to *time.Time) (*FoodReport, error) {
	lines, err := s.ledger.SumConfirmedByFood(ctx, from, to)
	if err != nil {
		return nil, apperr.Dependency("failed to compute revenue by food", err)
	}

	report := &FoodReport{Foods: lines}
	if report.Foods == nil {
		report.Foods = []FoodLine{}
	}
	for _, line := range lines {
		report.TotalRevenue += line.Revenue
	}
	return report, nil
}
