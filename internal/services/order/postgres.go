package order

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"flash-food/internal/database"
	"flash-food/internal/models"
)

// Repository is the PostgreSQL-backed order ledger. It also serves device
// token reads and clears for the notification dispatcher.
type Repository struct {
	db *database.DB
}

// NewRepository creates a repository over the connection pool.
func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

// GetMenuItem looks up a menu item. Returns (nil, nil) when absent.
func (r *Repository) GetMenuItem(ctx context.Context, id int64) (*models.MenuItem, error) {
	var item models.MenuItem
	err := r.db.QueryRow(ctx, database.GetMenuItemSQL, id).
		Scan(&item.ID, &item.Name, &item.Price, &item.Category)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// InsertOrderWithItems writes the order row and every line item in a single
// transaction. Either the whole order lands or nothing does.
func (r *Repository) InsertOrderWithItems(ctx context.Context, order *models.Order) (int64, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var orderID int64
	err = tx.QueryRow(ctx, database.InsertOrderSQL,
		order.UserID, order.Total, order.Status, order.Address, order.Note, order.PaymentMethod).
		Scan(&orderID, &order.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to insert order: %w", err)
	}

	for _, item := range order.Items {
		_, err = tx.Exec(ctx, database.InsertOrderItemSQL,
			orderID, item.FoodID, item.FoodName, item.Quantity, item.Price)
		if err != nil {
			return 0, fmt.Errorf("failed to insert order item: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit order: %w", err)
	}

	return orderID, nil
}

// GetOrder loads one order without its items. Returns (nil, nil) when absent.
func (r *Repository) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	err := r.db.QueryRow(ctx, database.GetOrderSQL, id).Scan(
		&order.ID, &order.UserID, &order.Total, &order.Status,
		&order.Address, &order.Note, &order.PaymentMethod,
		&order.CancelReason, &order.CreatedAt, &order.ConfirmedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// ConfirmOrder marks the order confirmed and stamps confirmed_at.
func (r *Repository) ConfirmOrder(ctx context.Context, id int64) error {
	return r.db.Exec(ctx, database.ConfirmOrderSQL, id)
}

// CancelOrder marks the order cancelled and stores the reason.
func (r *Repository) CancelOrder(ctx context.Context, id int64, reason string) error {
	return r.db.Exec(ctx, database.CancelOrderSQL, id, reason)
}

// DeleteOrder removes the line items first, then the order row. The explicit
// ordering keeps referential integrity even without cascading deletes.
func (r *Repository) DeleteOrder(ctx context.Context, id int64) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, database.DeleteOrderItemsSQL, id); err != nil {
		return fmt.Errorf("failed to delete order items: %w", err)
	}
	if _, err := tx.Exec(ctx, database.DeleteOrderSQL, id); err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}

	return tx.Commit(ctx)
}

// ListOrders returns orders joined with customer columns, optionally
// restricted to one user and one status, newest first.
func (r *Repository) ListOrders(ctx context.Context, userID *int64, status models.OrderStatus) ([]models.Order, error) {
	var conditions []string
	var args []interface{}

	if userID != nil {
		args = append(args, *userID)
		conditions = append(conditions, fmt.Sprintf("o.user_id = $%d", len(args)))
	}
	if status != "" {
		args = append(args, status)
		conditions = append(conditions, fmt.Sprintf("o.status = $%d", len(args)))
	}

	query := database.ListOrdersBaseSQL
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY o.created_at DESC"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		var order models.Order
		err := rows.Scan(
			&order.ID, &order.UserID, &order.Total, &order.Status,
			&order.Address, &order.Note, &order.PaymentMethod,
			&order.CancelReason, &order.CreatedAt, &order.ConfirmedAt,
			&order.CustomerName, &order.FullName, &order.Phone)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}

	return orders, rows.Err()
}

// GetOrderItems loads the line items of one order.
func (r *Repository) GetOrderItems(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	rows, err := r.db.Query(ctx, database.GetOrderItemsSQL, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.OrderItem
	for rows.Next() {
		var item models.OrderItem
		err := rows.Scan(&item.ID, &item.OrderID, &item.FoodID, &item.FoodName, &item.Quantity, &item.Price)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	return items, rows.Err()
}

// GetFCMToken returns the user's device token, empty when absent.
func (r *Repository) GetFCMToken(ctx context.Context, userID int64) (string, error) {
	var token string
	err := r.db.QueryRow(ctx, database.GetFCMTokenSQL, userID).Scan(&token)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return token, nil
}

// ClearFCMToken removes the user's device token. Clearing an already-absent
// token is a no-op.
func (r *Repository) ClearFCMToken(ctx context.Context, userID int64) error {
	return r.db.Exec(ctx, database.ClearFCMTokenSQL, userID)
}
