package database

// Order queries
const (
	InsertOrderSQL = `
		INSERT INTO orders (user_id, total, status, address, note, payment_method)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	InsertOrderItemSQL = `
		INSERT INTO order_items (order_id, food_id, food_name, quantity, price)
		VALUES ($1, $2, $3, $4, $5)`

	GetOrderSQL = `
		SELECT id, user_id, total, status, address, note, payment_method,
			   cancel_reason, created_at, confirmed_at
		FROM orders WHERE id = $1`

	ConfirmOrderSQL = `
		UPDATE orders SET status = 'confirmed', confirmed_at = NOW()
		WHERE id = $1`

	CancelOrderSQL = `
		UPDATE orders SET status = 'cancelled', cancel_reason = $2
		WHERE id = $1`

	DeleteOrderItemsSQL = `
		DELETE FROM order_items WHERE order_id = $1`

	DeleteOrderSQL = `
		DELETE FROM orders WHERE id = $1`

	ListOrdersBaseSQL = `
		SELECT o.id, o.user_id, o.total, o.status, o.address, o.note, o.payment_method,
			   o.cancel_reason, o.created_at, o.confirmed_at,
			   u.username, u.full_name, u.phone
		FROM orders o
		JOIN users u ON o.user_id = u.id`

	GetOrderItemsSQL = `
		SELECT oi.id, oi.order_id, oi.food_id, oi.food_name, oi.quantity, oi.price
		FROM order_items oi
		WHERE oi.order_id = $1
		ORDER BY oi.id ASC`
)

// Menu queries
const (
	GetMenuItemSQL = `
		SELECT id, name, price, COALESCE(category, '')
		FROM foods WHERE id = $1`
)

// Device token queries
const (
	GetFCMTokenSQL = `
		SELECT COALESCE(fcm_token, '') FROM users WHERE id = $1`

	ClearFCMTokenSQL = `
		UPDATE users SET fcm_token = NULL WHERE id = $1`
)

// Revenue queries
const (
	RevenueSQL = `
		SELECT COALESCE(SUM(total), 0), COUNT(*)
		FROM orders
		WHERE status = 'confirmed'
		  AND ($1::timestamptz IS NULL OR confirmed_at >= $1)
		  AND ($2::timestamptz IS NULL OR confirmed_at <= $2)`

	RevenueByFoodSQL = `
		SELECT f.id, f.name, SUM(oi.quantity), SUM(oi.price * oi.quantity)
		FROM order_items oi
		JOIN orders o ON oi.order_id = o.id
		JOIN foods f ON oi.food_id = f.id
		WHERE o.status = 'confirmed'
		  AND ($1::timestamptz IS NULL OR o.confirmed_at >= $1)
		  AND ($2::timestamptz IS NULL OR o.confirmed_at <= $2)
		GROUP BY f.id, f.name
		ORDER BY f.id ASC`
)
