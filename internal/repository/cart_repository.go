package repository

import (
	"context"
	"fmt"

	"github.com/VarZ-96/VibeCommerce-Cart/internal/domain"
	"github.com/shopspring/decimal"
)

// ListCartLines returns the user's lines joined with live product data, oldest first.
func (r *Repository) ListCartLines(ctx context.Context, userID int64) ([]domain.CartLine, error) {
	const query = `
		SELECT c.id, c.user_id, c.product_id, p.name, p.price, c.quantity,
		       COALESCE(p.image_url, ''), p.stock, c.created_at
		FROM cart_lines c
		JOIN products p ON c.product_id = p.id
		WHERE c.user_id = $1
		ORDER BY c.created_at, c.id
	`

	rows, err := r.conn(ctx).QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query cart lines: %w", err)
	}
	defer rows.Close()

	lines := make([]domain.CartLine, 0)
	for rows.Next() {
		var l domain.CartLine
		if err := rows.Scan(
			&l.ID,
			&l.UserID,
			&l.ProductID,
			&l.Name,
			&l.Price,
			&l.Quantity,
			&l.ImageURL,
			&l.Stock,
			&l.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan cart line: %w", err)
		}
		lines = append(lines, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return lines, nil
}

func (r *Repository) GetCartQuantity(ctx context.Context, userID, productID int64) (int, error) {
	const query = `SELECT COALESCE(SUM(quantity), 0) FROM cart_lines WHERE user_id = $1 AND product_id = $2`

	var qty int
	if err := r.conn(ctx).QueryRowContext(ctx, query, userID, productID).Scan(&qty); err != nil {
		return 0, fmt.Errorf("get cart quantity: %w", err)
	}
	return qty, nil
}

// UpsertCartLine inserts the line or increments the existing one by quantity.
func (r *Repository) UpsertCartLine(ctx context.Context, userID, productID int64, quantity int) (*domain.CartLine, error) {
	const stmt = `
		INSERT INTO cart_lines (user_id, product_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, product_id)
		DO UPDATE SET quantity = cart_lines.quantity + EXCLUDED.quantity
		RETURNING id, user_id, product_id, quantity, created_at
	`

	var l domain.CartLine
	err := r.conn(ctx).QueryRowContext(ctx, stmt, userID, productID, quantity).
		Scan(&l.ID, &l.UserID, &l.ProductID, &l.Quantity, &l.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, domain.ErrProductNotFound
		}
		return nil, fmt.Errorf("upsert cart line: %w", err)
	}
	return &l, nil
}

// DecreaseCartLine lowers the quantity by one, removing the line when it reaches zero.
// It reports whether the line was removed.
func (r *Repository) DecreaseCartLine(ctx context.Context, userID, productID int64) (bool, error) {
	const decrement = `
		UPDATE cart_lines SET quantity = quantity - 1
		WHERE user_id = $1 AND product_id = $2 AND quantity > 1`
	const remove = `DELETE FROM cart_lines WHERE user_id = $1 AND product_id = $2`

	removed := false
	err := r.WithTx(ctx, func(ctx context.Context) error {
		affected, err := r.execAffected(ctx, decrement, userID, productID)
		if err != nil {
			return fmt.Errorf("decrease cart line: %w", err)
		}
		if affected == 1 {
			return nil
		}

		affected, err = r.execAffected(ctx, remove, userID, productID)
		if err != nil {
			return fmt.Errorf("remove cart line: %w", err)
		}
		if affected == 0 {
			return domain.ErrCartLineNotFound
		}
		removed = true
		return nil
	})
	return removed, err
}

func (r *Repository) DeleteCartLine(ctx context.Context, userID, lineID int64) error {
	const stmt = `DELETE FROM cart_lines WHERE id = $1 AND user_id = $2`

	affected, err := r.execAffected(ctx, stmt, lineID, userID)
	if err != nil {
		return fmt.Errorf("delete cart line: %w", err)
	}
	if affected == 0 {
		return domain.ErrCartLineNotFound
	}
	return nil
}

// ClearCart deletes every line of the user and returns how many were removed.
func (r *Repository) ClearCart(ctx context.Context, userID int64) (int64, error) {
	affected, err := r.execAffected(ctx, `DELETE FROM cart_lines WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("clear cart: %w", err)
	}
	return affected, nil
}

func (r *Repository) CartTotal(ctx context.Context, userID int64) (decimal.Decimal, error) {
	const query = `
		SELECT COALESCE(SUM(p.price * c.quantity), 0)
		FROM cart_lines c
		JOIN products p ON c.product_id = p.id
		WHERE c.user_id = $1
	`

	var total decimal.Decimal
	if err := r.conn(ctx).QueryRowContext(ctx, query, userID).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("cart total: %w", err)
	}
	return total, nil
}

func (r *Repository) execAffected(ctx context.Context, stmt string, args ...any) (int64, error) {
	res, err := r.conn(ctx).ExecContext(ctx, stmt, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
