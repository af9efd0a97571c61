package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/VarZ-96/VibeCommerce-Cart/internal/domain"
	"github.com/shopspring/decimal"
)

// CreateOrder inserts the order header and returns its id. Lines are written separately.
func (r *Repository) CreateOrder(ctx context.Context, order *domain.Order) (int64, error) {
	const stmt = `
		INSERT INTO orders (user_id, total_amount, gateway_order_id, payment_ref, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	var id int64
	err := r.conn(ctx).QueryRowContext(ctx, stmt,
		order.UserID,
		order.TotalAmount,
		order.GatewayOrderID,
		order.PaymentRef,
		order.CreatedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert order: %w", err)
	}
	return id, nil
}

func (r *Repository) CreateOrderLines(ctx context.Context, orderID int64, lines []domain.OrderLine) error {
	const stmt = `
		INSERT INTO order_lines (order_id, product_id, quantity, price_at_purchase)
		VALUES ($1, $2, $3, $4)
	`

	for _, l := range lines {
		if _, err := r.conn(ctx).ExecContext(ctx, stmt, orderID, l.ProductID, l.Quantity, l.PriceAtPurchase); err != nil {
			return fmt.Errorf("insert order line for product %d: %w", l.ProductID, err)
		}
	}
	return nil
}

// ListOrdersByUser returns the user's orders newest first, each with its lines.
func (r *Repository) ListOrdersByUser(ctx context.Context, userID int64) ([]domain.Order, error) {
	const query = `
		SELECT o.id, o.user_id, o.total_amount, COALESCE(o.gateway_order_id, ''),
		       COALESCE(o.payment_ref, ''), o.created_at,
		       ol.id, ol.product_id, ol.quantity, ol.price_at_purchase,
		       p.name, COALESCE(p.image_url, '')
		FROM orders o
		LEFT JOIN order_lines ol ON ol.order_id = o.id
		LEFT JOIN products p ON p.id = ol.product_id
		WHERE o.user_id = $1
		ORDER BY o.created_at DESC, o.id DESC, ol.id
	`

	rows, err := r.conn(ctx).QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	orders := make([]domain.Order, 0)
	index := make(map[int64]int)
	for rows.Next() {
		var (
			o         domain.Order
			lineID    sql.NullInt64
			productID sql.NullInt64
			quantity  sql.NullInt64
			price     decimal.NullDecimal
			name      sql.NullString
			imageURL  sql.NullString
		)
		if err := rows.Scan(
			&o.ID, &o.UserID, &o.TotalAmount, &o.GatewayOrderID, &o.PaymentRef, &o.CreatedAt,
			&lineID, &productID, &quantity, &price, &name, &imageURL,
		); err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}

		i, ok := index[o.ID]
		if !ok {
			o.Lines = make([]domain.OrderLine, 0)
			orders = append(orders, o)
			i = len(orders) - 1
			index[o.ID] = i
		}
		if !lineID.Valid {
			continue
		}
		orders[i].Lines = append(orders[i].Lines, domain.OrderLine{
			ID:              lineID.Int64,
			OrderID:         o.ID,
			ProductID:       productID.Int64,
			Name:            name.String,
			ImageURL:        imageURL.String,
			Quantity:        int(quantity.Int64),
			PriceAtPurchase: price.Decimal,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return orders, nil
}

func (r *Repository) CountOrders(ctx context.Context, userID int64) (int, error) {
	var n int
	if err := r.conn(ctx).QueryRowContext(ctx, `SELECT COUNT(*) FROM orders WHERE user_id = $1`, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count orders: %w", err)
	}
	return n, nil
}
