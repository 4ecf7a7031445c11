package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/bhouse-pos/api/internal/database"
	"github.com/bhouse-pos/api/internal/enum"
)

// Errors returned by the order service.
var (
	ErrEmptyCart          = errors.New("cart is empty")
	ErrInvalidQuantity    = errors.New("quantity must be > 0")
	ErrInvalidProductID   = errors.New("invalid product_id")
	ErrTableNotFound      = errors.New("table not found")
	ErrProductNotFound    = errors.New("product not found")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrOrderNotFound      = errors.New("order not found")
	ErrOrderNotOpen       = errors.New("order is not open")
	ErrNothingToDeliver   = errors.New("order is not awaiting delivery")
	ErrKitchenPending     = errors.New("cannot close: items are still in the kitchen")
	ErrDeliveryPending    = errors.New("cannot close: ready items have not been delivered")
	ErrOrderAlreadyClosed = errors.New("order is already settled")
	ErrNoClosedOrders     = errors.New("no closed orders to archive")
)

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// OrderStore defines the DB methods the order engine needs.
// Satisfied by *database.Queries (and its WithTx variant).
type OrderStore interface {
	GetTable(ctx context.Context, id uuid.UUID) (database.Table, error)
	UpdateTableStatus(ctx context.Context, arg database.UpdateTableStatusParams) (database.Table, error)
	GetProduct(ctx context.Context, id uuid.UUID) (database.Product, error)
	DebitProductStock(ctx context.Context, arg database.DebitProductStockParams) (int32, error)
	GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
	GetActiveOrderByTable(ctx context.Context, tableID uuid.UUID) (database.Order, error)
	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	AddToOrderTotal(ctx context.Context, arg database.AddToOrderTotalParams) (database.Order, error)
	CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error)
	MarkOrderReady(ctx context.Context, id uuid.UUID) (database.Order, error)
	MarkOrderDelivered(ctx context.Context, id uuid.UUID) (database.Order, error)
	MarkOrderItemsDelivered(ctx context.Context, orderID uuid.UUID) error
	CloseOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
	ArchiveClosedOrders(ctx context.Context) ([]database.Order, error)
}

// NewOrderStore creates an OrderStore from a DBTX (pool or tx).
// This allows the service to create store instances from transactions.
type NewOrderStore func(db database.DBTX) OrderStore

// SendToKitchenRequest is the validated input for submitting a cart.
type SendToKitchenRequest struct {
	TableID    uuid.UUID
	WaiterName string
	Items      []CartLineRequest
}

// CartLineRequest is one staged cart line.
type CartLineRequest struct {
	ProductID string
	Quantity  int32
}

// SendToKitchenResult is the order after the batch landed.
type SendToKitchenResult struct {
	Order database.Order
	Items []database.OrderItem
	// Reopened is true when the batch was appended to an order that had
	// already been marked ready or delivered, forcing it back to open.
	Reopened bool
}

// CashCutResult reports what a cash cut archived.
type CashCutResult struct {
	ArchivedCount int
	Total         decimal.Decimal
	Orders        []database.Order
}

// OrderService owns the order/table lifecycle and its stock rules.
type OrderService struct {
	pool     TxBeginner
	store    OrderStore
	newStore NewOrderStore
}

// NewOrderService creates a new OrderService. store runs single-statement
// operations against the pool; newStore builds tx-scoped stores for the
// multi-step ones.
func NewOrderService(pool TxBeginner, store OrderStore, newStore NewOrderStore) *OrderService {
	return &OrderService{pool: pool, store: store, newStore: newStore}
}

// debitedLine holds a prepared order item after its stock debit.
type debitedLine struct {
	productID uuid.UUID
	quantity  int32
	unitPrice decimal.Decimal
}

// SendToKitchen materializes a cart into the table's order inside a
// single transaction: per-line atomic stock debit, order create-or-reopen,
// item inserts. Any failure rolls the whole batch back, so stock never
// goes negative and no half-submitted batch is left behind.
func (s *OrderService) SendToKitchen(ctx context.Context, req SendToKitchenRequest) (*SendToKitchenResult, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyCart
	}
	for i, line := range req.Items {
		if line.Quantity <= 0 {
			return nil, fmt.Errorf("items[%d]: %w", i, ErrInvalidQuantity)
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	table, err := store.GetTable(ctx, req.TableID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTableNotFound
		}
		return nil, fmt.Errorf("get table: %w", err)
	}

	// --- Debit stock and snapshot prices, line by line ---
	batchTotal := decimal.Zero
	var lines []debitedLine
	for i, line := range req.Items {
		productID, err := uuid.Parse(line.ProductID)
		if err != nil {
			return nil, fmt.Errorf("items[%d]: %w", i, ErrInvalidProductID)
		}

		product, err := store.GetProduct(ctx, productID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("items[%d]: %w", i, ErrProductNotFound)
			}
			return nil, fmt.Errorf("items[%d]: get product: %w", i, err)
		}

		if _, err := store.DebitProductStock(ctx, database.DebitProductStockParams{
			ID:       productID,
			Quantity: line.Quantity,
		}); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("%s: %w", product.Name, ErrInsufficientStock)
			}
			return nil, fmt.Errorf("items[%d]: debit stock: %w", i, err)
		}

		unitPrice := numericToDecimal(product.Price)
		batchTotal = batchTotal.Add(unitPrice.Mul(decimal.NewFromInt32(line.Quantity)))
		lines = append(lines, debitedLine{
			productID: productID,
			quantity:  line.Quantity,
			unitPrice: unitPrice,
		})
	}

	// --- Create or reopen the table's order ---
	var order database.Order
	reopened := false
	existing, err := store.GetActiveOrderByTable(ctx, table.ID)
	switch {
	case err == nil:
		reopened = existing.Status != enum.OrderStatusOpen
		order, err = store.AddToOrderTotal(ctx, database.AddToOrderTotalParams{
			ID:     existing.ID,
			Amount: decimalToNumeric(batchTotal),
		})
		if err != nil {
			return nil, fmt.Errorf("add to order total: %w", err)
		}
	case errors.Is(err, pgx.ErrNoRows):
		order, err = store.CreateOrder(ctx, database.CreateOrderParams{
			TableID:    table.ID,
			Total:      decimalToNumeric(batchTotal),
			WaiterName: req.WaiterName,
		})
		if err != nil {
			return nil, fmt.Errorf("create order: %w", err)
		}
		if _, err := store.UpdateTableStatus(ctx, database.UpdateTableStatusParams{
			ID:     table.ID,
			Status: enum.TableStatusOccupied,
		}); err != nil {
			return nil, fmt.Errorf("occupy table: %w", err)
		}
	default:
		return nil, fmt.Errorf("get active order: %w", err)
	}

	// --- Append the batch ---
	items := make([]database.OrderItem, 0, len(lines))
	for _, line := range lines {
		item, err := store.CreateOrderItem(ctx, database.CreateOrderItemParams{
			OrderID:   order.ID,
			ProductID: line.productID,
			Quantity:  line.quantity,
			Price:     decimalToNumeric(line.unitPrice),
		})
		if err != nil {
			return nil, fmt.Errorf("create order item: %w", err)
		}
		items = append(items, item)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &SendToKitchenResult{Order: order, Items: items, Reopened: reopened}, nil
}

// MarkReady confirms a kitchen batch. Legal only from open; the
// conditional update makes a concurrent status change lose cleanly.
func (s *OrderService) MarkReady(ctx context.Context, orderID uuid.UUID) (database.Order, error) {
	order, err := s.store.MarkOrderReady(ctx, orderID)
	if err == nil {
		return order, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return database.Order{}, fmt.Errorf("mark ready: %w", err)
	}

	// Zero rows: missing, or not open anymore. Fetch to explain.
	current, fetchErr := s.store.GetOrder(ctx, orderID)
	if fetchErr != nil {
		if errors.Is(fetchErr, pgx.ErrNoRows) {
			return database.Order{}, ErrOrderNotFound
		}
		return database.Order{}, fmt.Errorf("get order: %w", fetchErr)
	}
	return database.Order{}, fmt.Errorf("order is %s: %w", current.Status, ErrOrderNotOpen)
}

// MarkDelivered acknowledges a ready batch: every pending item flips to
// is_new=false and the order moves to delivered, in one transaction.
// Open orders are tolerated so waiters can hand over food the kitchen
// never confirmed.
func (s *OrderService) MarkDelivered(ctx context.Context, orderID uuid.UUID) (database.Order, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return database.Order{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := store.MarkOrderDelivered(ctx, orderID)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return database.Order{}, fmt.Errorf("mark delivered: %w", err)
		}
		if _, fetchErr := store.GetOrder(ctx, orderID); fetchErr != nil {
			if errors.Is(fetchErr, pgx.ErrNoRows) {
				return database.Order{}, ErrOrderNotFound
			}
			return database.Order{}, fmt.Errorf("get order: %w", fetchErr)
		}
		return database.Order{}, ErrNothingToDeliver
	}

	if err := store.MarkOrderItemsDelivered(ctx, orderID); err != nil {
		return database.Order{}, fmt.Errorf("mark items delivered: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return database.Order{}, fmt.Errorf("commit tx: %w", err)
	}
	return order, nil
}

// CloseBill settles a delivered order and frees its table. The
// delivered-only guard runs as a conditional update at the store, so a
// send-to-kitchen that reopened the order a moment before makes the
// close fail instead of swallowing unpaid items.
func (s *OrderService) CloseBill(ctx context.Context, orderID uuid.UUID) (database.Order, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return database.Order{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := store.CloseOrder(ctx, orderID)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return database.Order{}, fmt.Errorf("close order: %w", err)
		}
		current, fetchErr := store.GetOrder(ctx, orderID)
		if fetchErr != nil {
			if errors.Is(fetchErr, pgx.ErrNoRows) {
				return database.Order{}, ErrOrderNotFound
			}
			return database.Order{}, fmt.Errorf("get order: %w", fetchErr)
		}
		switch current.Status {
		case enum.OrderStatusOpen:
			return database.Order{}, ErrKitchenPending
		case enum.OrderStatusReady:
			return database.Order{}, ErrDeliveryPending
		default:
			return database.Order{}, ErrOrderAlreadyClosed
		}
	}

	if _, err := store.UpdateTableStatus(ctx, database.UpdateTableStatusParams{
		ID:     order.TableID,
		Status: enum.TableStatusFree,
	}); err != nil {
		return database.Order{}, fmt.Errorf("free table: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return database.Order{}, fmt.Errorf("commit tx: %w", err)
	}
	return order, nil
}

// CashCut archives every closed order, ending the accounting period.
// Archived orders stay queryable but never reopen. With nothing to
// archive it returns ErrNoClosedOrders and changes nothing.
func (s *OrderService) CashCut(ctx context.Context) (*CashCutResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	archived, err := store.ArchiveClosedOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("archive closed orders: %w", err)
	}
	if len(archived) == 0 {
		return nil, ErrNoClosedOrders
	}

	total := decimal.Zero
	for _, o := range archived {
		total = total.Add(numericToDecimal(o.Total))
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &CashCutResult{
		ArchivedCount: len(archived),
		Total:         total,
		Orders:        archived,
	}, nil
}

// --- Helpers ---

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(2))
	return n
}
