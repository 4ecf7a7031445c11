package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const orderColumns = `id, table_id, total, status, waiter_name, created_at, updated_at`

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.TableID, &o.Total, &o.Status, &o.WaiterName, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

func (q *Queries) GetOrder(ctx context.Context, id uuid.UUID) (Order, error) {
	row := q.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	return scanOrder(row)
}

// GetActiveOrderByTable returns the table's single non-terminal order.
// The partial unique index on orders(table_id) guarantees at most one.
func (q *Queries) GetActiveOrderByTable(ctx context.Context, tableID uuid.UUID) (Order, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE table_id = $1 AND status NOT IN ('closed', 'archived')`,
		tableID)
	return scanOrder(row)
}

type ListOrdersParams struct {
	Status pgtype.Text
}

// ListOrders returns orders newest first, optionally filtered by status.
func (q *Queries) ListOrders(ctx context.Context, arg ListOrdersParams) ([]Order, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE ($1::text IS NULL OR status = $1)
		ORDER BY created_at DESC`,
		arg.Status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

type CreateOrderParams struct {
	TableID    uuid.UUID
	Total      pgtype.Numeric
	WaiterName string
}

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO orders (table_id, total, status, waiter_name)
		VALUES ($1, $2, 'open', $3)
		RETURNING `+orderColumns,
		arg.TableID, arg.Total, arg.WaiterName)
	return scanOrder(row)
}

type AddToOrderTotalParams struct {
	ID     uuid.UUID
	Amount pgtype.Numeric
}

// AddToOrderTotal adds a batch total to the order and forces the status
// back to open: new items mean the kitchen must confirm again before
// anything is delivered. The addition happens in SQL, never as a
// read-modify-write in the application.
func (q *Queries) AddToOrderTotal(ctx context.Context, arg AddToOrderTotalParams) (Order, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE orders
		SET total = total + $2, status = 'open', updated_at = now()
		WHERE id = $1 AND status NOT IN ('closed', 'archived')
		RETURNING `+orderColumns,
		arg.ID, arg.Amount)
	return scanOrder(row)
}

// MarkOrderReady flips an order from open to ready. Zero rows means the
// order is missing or no longer open; the caller fetches it to explain.
func (q *Queries) MarkOrderReady(ctx context.Context, id uuid.UUID) (Order, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE orders
		SET status = 'ready', updated_at = now()
		WHERE id = $1 AND status = 'open'
		RETURNING `+orderColumns,
		id)
	return scanOrder(row)
}

// MarkOrderDelivered moves an order to delivered. Ready is the normal
// source state; open is tolerated so a waiter can hand over food the
// kitchen never got around to confirming.
func (q *Queries) MarkOrderDelivered(ctx context.Context, id uuid.UUID) (Order, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE orders
		SET status = 'delivered', updated_at = now()
		WHERE id = $1 AND status IN ('open', 'ready')
		RETURNING `+orderColumns,
		id)
	return scanOrder(row)
}

// CloseOrder settles the bill. The status guard lives here, at the
// authoritative store, so a concurrent send-to-kitchen that reopened the
// order a moment earlier makes the close fail instead of silently
// swallowing unpaid items.
func (q *Queries) CloseOrder(ctx context.Context, id uuid.UUID) (Order, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE orders
		SET status = 'closed', updated_at = now()
		WHERE id = $1 AND status = 'delivered'
		RETURNING `+orderColumns,
		id)
	return scanOrder(row)
}

// ArchiveClosedOrders bulk-archives every closed order and returns them,
// so the caller can report the archived count and grand total.
func (q *Queries) ArchiveClosedOrders(ctx context.Context) ([]Order, error) {
	rows, err := q.db.Query(ctx, `
		UPDATE orders
		SET status = 'archived', updated_at = now()
		WHERE status = 'closed'
		RETURNING `+orderColumns)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

type CreateOrderItemParams struct {
	OrderID   uuid.UUID
	ProductID uuid.UUID
	Quantity  int32
	Price     pgtype.Numeric
}

func (q *Queries) CreateOrderItem(ctx context.Context, arg CreateOrderItemParams) (OrderItem, error) {
	var item OrderItem
	err := q.db.QueryRow(ctx, `
		INSERT INTO order_items (order_id, product_id, quantity, price, is_new)
		VALUES ($1, $2, $3, $4, true)
		RETURNING id, order_id, product_id, quantity, price, is_new, created_at`,
		arg.OrderID, arg.ProductID, arg.Quantity, arg.Price).
		Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Quantity, &item.Price, &item.IsNew, &item.CreatedAt)
	return item, err
}

// ListOrderItemsByOrderRow joins the product name for display.
type ListOrderItemsByOrderRow struct {
	ID          uuid.UUID
	OrderID     uuid.UUID
	ProductID   uuid.UUID
	ProductName string
	Quantity    int32
	Price       pgtype.Numeric
	IsNew       bool
}

// ListOrderItemsByOrder returns items in insertion order, so grouped
// display lines keep the order each product was first sent in.
func (q *Queries) ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]ListOrderItemsByOrderRow, error) {
	rows, err := q.db.Query(ctx, `
		SELECT oi.id, oi.order_id, oi.product_id, p.name, oi.quantity, oi.price, oi.is_new
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = $1
		ORDER BY oi.created_at, oi.id`,
		orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []ListOrderItemsByOrderRow
	for rows.Next() {
		var it ListOrderItemsByOrderRow
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName, &it.Quantity, &it.Price, &it.IsNew); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// MarkOrderItemsDelivered acknowledges every pending batch on the order.
func (q *Queries) MarkOrderItemsDelivered(ctx context.Context, orderID uuid.UUID) error {
	_, err := q.db.Exec(ctx,
		`UPDATE order_items SET is_new = false WHERE order_id = $1 AND is_new`, orderID)
	return err
}

// SumOrderTotalsByStatus returns Σ total over orders in the given status.
func (q *Queries) SumOrderTotalsByStatus(ctx context.Context, status string) (pgtype.Numeric, error) {
	var sum pgtype.Numeric
	err := q.db.QueryRow(ctx,
		`SELECT COALESCE(SUM(total), 0) FROM orders WHERE status = $1`, status).Scan(&sum)
	return sum, err
}

// SumActiveOrderTotals returns Σ total over everything not yet archived,
// the "money on the floor" figure on the admin dashboard.
func (q *Queries) SumActiveOrderTotals(ctx context.Context) (pgtype.Numeric, error) {
	var sum pgtype.Numeric
	err := q.db.QueryRow(ctx,
		`SELECT COALESCE(SUM(total), 0) FROM orders WHERE status != 'archived'`).Scan(&sum)
	return sum, err
}

// CountOrdersByStatus counts orders in the given status.
func (q *Queries) CountOrdersByStatus(ctx context.Context, status string) (int64, error) {
	var count int64
	err := q.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM orders WHERE status = $1`, status).Scan(&count)
	return count, err
}
