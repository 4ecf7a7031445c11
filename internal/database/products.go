package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const productColumns = `id, name, price, stock, is_active, created_at, updated_at`

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.Price, &p.Stock, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// ListProducts returns the full catalog ordered by name, inactive
// products included (the admin screen shows them dimmed).
func (q *Queries) ListProducts(ctx context.Context) ([]Product, error) {
	rows, err := q.db.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// ListActiveProducts returns only products currently orderable.
func (q *Queries) ListActiveProducts(ctx context.Context) ([]Product, error) {
	rows, err := q.db.Query(ctx, `SELECT `+productColumns+` FROM products WHERE is_active ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (q *Queries) GetProduct(ctx context.Context, id uuid.UUID) (Product, error) {
	row := q.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	return scanProduct(row)
}

type CreateProductParams struct {
	Name  string
	Price pgtype.Numeric
	Stock int32
}

func (q *Queries) CreateProduct(ctx context.Context, arg CreateProductParams) (Product, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO products (name, price, stock, is_active)
		VALUES ($1, $2, $3, true)
		RETURNING `+productColumns,
		arg.Name, arg.Price, arg.Stock)
	return scanProduct(row)
}

type UpdateProductParams struct {
	ID    uuid.UUID
	Price pgtype.Numeric
	Stock int32
}

// UpdateProduct edits price and stock, the two fields the admin screen
// exposes. Name edits are intentionally absent: order items reference
// products by id but staff know them by name.
func (q *Queries) UpdateProduct(ctx context.Context, arg UpdateProductParams) (Product, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE products
		SET price = $2, stock = $3, updated_at = now()
		WHERE id = $1
		RETURNING `+productColumns,
		arg.ID, arg.Price, arg.Stock)
	return scanProduct(row)
}

type SetProductActiveParams struct {
	ID       uuid.UUID
	IsActive bool
}

func (q *Queries) SetProductActive(ctx context.Context, arg SetProductActiveParams) (Product, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE products
		SET is_active = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+productColumns,
		arg.ID, arg.IsActive)
	return scanProduct(row)
}

type DebitProductStockParams struct {
	ID       uuid.UUID
	Quantity int32
}

// DebitProductStock atomically decrements stock with a floor check.
// Returns pgx.ErrNoRows when the product is missing, inactive, or the
// decrement would drive stock negative; the caller treats that as an
// insufficient-stock rejection. This replaces the read-then-subtract
// pattern that let concurrent submissions overdraw stock.
func (q *Queries) DebitProductStock(ctx context.Context, arg DebitProductStockParams) (int32, error) {
	var remaining int32
	err := q.db.QueryRow(ctx, `
		UPDATE products
		SET stock = stock - $2, updated_at = now()
		WHERE id = $1 AND is_active AND stock >= $2
		RETURNING stock`,
		arg.ID, arg.Quantity).Scan(&remaining)
	return remaining, err
}

// ListLowStockProducts returns active products with stock below the
// given threshold, most depleted first.
func (q *Queries) ListLowStockProducts(ctx context.Context, threshold int32) ([]Product, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE is_active AND stock < $1
		ORDER BY stock, name`,
		threshold)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}
