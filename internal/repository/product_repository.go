package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/VarZ-96/VibeCommerce-Cart/internal/domain"
)

func (r *Repository) ListInStockProducts(ctx context.Context) ([]domain.Product, error) {
	const query = `
		SELECT id, name, price, stock, COALESCE(image_url, '')
		FROM products
		WHERE stock > 0
		ORDER BY id
	`

	rows, err := r.conn(ctx).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0)
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Stock, &p.ImageURL); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return products, nil
}

func (r *Repository) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	const query = `SELECT id, name, price, stock, COALESCE(image_url, '') FROM products WHERE id = $1`

	var p domain.Product
	err := r.conn(ctx).QueryRowContext(ctx, query, id).
		Scan(&p.ID, &p.Name, &p.Price, &p.Stock, &p.ImageURL)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &p, nil
}

// DecrementStock removes quantity units from the product only if that many are in stock.
// It is a single compare-and-set statement; false means the condition did not hold.
func (r *Repository) DecrementStock(ctx context.Context, productID int64, quantity int) (bool, error) {
	const stmt = `UPDATE products SET stock = stock - $1 WHERE id = $2 AND stock >= $1`

	res, err := r.conn(ctx).ExecContext(ctx, stmt, quantity, productID)
	if err != nil {
		return false, fmt.Errorf("decrement stock for product %d: %w", productID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("decrement stock rows affected: %w", err)
	}
	return affected == 1, nil
}
