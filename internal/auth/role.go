package auth

import (
	"strings"

	"github.com/bhouse-pos/api/internal/enum"
)

// ResolveRole maps a staff email to a role by substring, matching how the
// floor staff accounts are provisioned: anything containing "admin" is an
// admin, anything containing "cocina" or "kitchen" is a kitchen display,
// everyone else waits tables. The policy is deliberately shallow; swap
// this function out if accounts ever carry an explicit role.
func ResolveRole(email string) string {
	e := strings.ToLower(email)
	switch {
	case strings.Contains(e, "admin"):
		return enum.RoleAdmin
	case strings.Contains(e, "cocina"), strings.Contains(e, "kitchen"):
		return enum.RoleKitchen
	default:
		return enum.RoleWaiter
	}
}
