package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// Product is a sellable menu item. Products are never deleted, only
// deactivated, so historical order items keep a valid reference.
type Product struct {
	ID        uuid.UUID
	Name      string
	Price     pgtype.Numeric
	Stock     int32
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Table is one seating unit. Numbers are dense 1..N and unique.
type Table struct {
	ID     uuid.UUID
	Number int32
	Status string
}

// Order is the running bill for a table. At most one order per table is
// in a non-terminal status (anything but closed/archived).
type Order struct {
	ID         uuid.UUID
	TableID    uuid.UUID
	Total      pgtype.Numeric
	Status     string
	WaiterName string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// OrderItem is one line of a kitchen batch. Price is snapshotted at
// send time and never follows later catalog edits. IsNew stays true
// until the waiter acknowledges delivery of the batch.
type OrderItem struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	ProductID uuid.UUID
	Quantity  int32
	Price     pgtype.Numeric
	IsNew     bool
	CreatedAt time.Time
}

// WarehouseItem is a raw material tracked independently of menu stock.
type WarehouseItem struct {
	ID        uuid.UUID
	Name      string
	Quantity  int32
	UnitCost  pgtype.Numeric
	MinStock  int32
	CreatedAt time.Time
	UpdatedAt time.Time
}

// User is a staff account. Role is derived from the email at seed time
// (see auth.ResolveRole) and stored for fast lookup.
type User struct {
	ID             uuid.UUID
	Email          string
	HashedPassword string
	FullName       string
	Role           string
	IsActive       bool
	CreatedAt      time.Time
}
