package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const warehouseColumns = `id, name, quantity, unit_cost, min_stock, created_at, updated_at`

func scanWarehouseItem(row pgx.Row) (WarehouseItem, error) {
	var w WarehouseItem
	err := row.Scan(&w.ID, &w.Name, &w.Quantity, &w.UnitCost, &w.MinStock, &w.CreatedAt, &w.UpdatedAt)
	return w, err
}

func (q *Queries) ListWarehouseItems(ctx context.Context) ([]WarehouseItem, error) {
	rows, err := q.db.Query(ctx, `SELECT `+warehouseColumns+` FROM warehouse_items ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []WarehouseItem
	for rows.Next() {
		w, err := scanWarehouseItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, w)
	}
	return items, rows.Err()
}

func (q *Queries) GetWarehouseItem(ctx context.Context, id uuid.UUID) (WarehouseItem, error) {
	row := q.db.QueryRow(ctx, `SELECT `+warehouseColumns+` FROM warehouse_items WHERE id = $1`, id)
	return scanWarehouseItem(row)
}

type CreateWarehouseItemParams struct {
	Name     string
	Quantity int32
	UnitCost pgtype.Numeric
	MinStock int32
}

func (q *Queries) CreateWarehouseItem(ctx context.Context, arg CreateWarehouseItemParams) (WarehouseItem, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO warehouse_items (name, quantity, unit_cost, min_stock)
		VALUES ($1, $2, $3, $4)
		RETURNING `+warehouseColumns,
		arg.Name, arg.Quantity, arg.UnitCost, arg.MinStock)
	return scanWarehouseItem(row)
}

type UpdateWarehouseItemParams struct {
	ID       uuid.UUID
	Name     string
	Quantity int32
	UnitCost pgtype.Numeric
	MinStock int32
}

func (q *Queries) UpdateWarehouseItem(ctx context.Context, arg UpdateWarehouseItemParams) (WarehouseItem, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE warehouse_items
		SET name = $2, quantity = $3, unit_cost = $4, min_stock = $5, updated_at = now()
		WHERE id = $1
		RETURNING `+warehouseColumns,
		arg.ID, arg.Name, arg.Quantity, arg.UnitCost, arg.MinStock)
	return scanWarehouseItem(row)
}

// DeleteWarehouseItem removes a raw material. Unlike products, warehouse
// records carry no order references and are hard-deleted.
func (q *Queries) DeleteWarehouseItem(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	var deleted uuid.UUID
	err := q.db.QueryRow(ctx,
		`DELETE FROM warehouse_items WHERE id = $1 RETURNING id`, id).Scan(&deleted)
	return deleted, err
}

// WarehouseValuation returns Σ(quantity × unit_cost) over all items.
func (q *Queries) WarehouseValuation(ctx context.Context) (pgtype.Numeric, error) {
	var total pgtype.Numeric
	err := q.db.QueryRow(ctx,
		`SELECT COALESCE(SUM(quantity * unit_cost), 0) FROM warehouse_items`).Scan(&total)
	return total, err
}

// ListLowStockWarehouseItems returns items at or below their configured
// minimum, the low-stock alert feed.
func (q *Queries) ListLowStockWarehouseItems(ctx context.Context) ([]WarehouseItem, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+warehouseColumns+`
		FROM warehouse_items
		WHERE quantity <= min_stock
		ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []WarehouseItem
	for rows.Next() {
		w, err := scanWarehouseItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, w)
	}
	return items, rows.Err()
}
