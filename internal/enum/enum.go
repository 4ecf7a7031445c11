package enum

// Order statuses. CHECK constrained in the DB.

const (
	OrderStatusOpen      = "open"
	OrderStatusReady     = "ready"
	OrderStatusDelivered = "delivered"
	OrderStatusClosed    = "closed"
	OrderStatusArchived  = "archived"
)

const (
	TableStatusFree     = "free"
	TableStatusOccupied = "occupied"
)

// Roles, derived from the login email (see auth.ResolveRole).

const (
	RoleAdmin   = "ADMIN"
	RoleKitchen = "KITCHEN"
	RoleWaiter  = "WAITER"
)

// IsTerminalOrderStatus reports whether s is a status past which an order
// never returns to its table. At most one non-terminal order exists per
// table at any time.
func IsTerminalOrderStatus(s string) bool {
	return s == OrderStatusClosed || s == OrderStatusArchived
}

// IsValidOrderStatus reports whether s is one of the five order statuses.
func IsValidOrderStatus(s string) bool {
	switch s {
	case OrderStatusOpen, OrderStatusReady, OrderStatusDelivered,
		OrderStatusClosed, OrderStatusArchived:
		return true
	}
	return false
}
