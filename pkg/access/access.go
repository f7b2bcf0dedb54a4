package access

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/havenandoak/storefront-backend/pkg/enums"
	pkgerrors "github.com/havenandoak/storefront-backend/pkg/errors"
)

// Operation names a privileged action gated by role.
type Operation string

const (
	OpOrdersList         Operation = "orders.list"
	OpOrdersView         Operation = "orders.view"
	OpOrdersShip         Operation = "orders.ship"
	OpOrdersUpdateStatus Operation = "orders.update_status"
	OpOrdersCancel       Operation = "orders.cancel"
	OpOrdersDelete       Operation = "orders.delete"
	OpCouponsManage      Operation = "coupons.manage"
	OpUsersManageRoles   Operation = "users.manage_roles"
)

// allowlist is the single source of truth for which roles may perform which
// operations. An operation absent from the table denies everyone.
var allowlist = map[Operation][]enums.Role{
	OpOrdersList: {
		enums.RoleAdmin, enums.RoleSuperAdmin, enums.RolePlatformAdmin,
		enums.RoleSeller, enums.RoleContentModerator,
	},
	OpOrdersView: {
		enums.RoleAdmin, enums.RoleSuperAdmin, enums.RolePlatformAdmin,
		enums.RoleSeller, enums.RoleContentModerator,
	},
	OpOrdersShip: {
		enums.RoleAdmin, enums.RoleSuperAdmin, enums.RolePlatformAdmin, enums.RoleSeller,
	},
	OpOrdersUpdateStatus: {
		enums.RoleAdmin, enums.RoleSuperAdmin, enums.RolePlatformAdmin, enums.RoleSeller,
	},
	OpOrdersCancel: {
		enums.RoleAdmin, enums.RoleSuperAdmin, enums.RolePlatformAdmin,
	},
	OpOrdersDelete: {
		enums.RoleAdmin, enums.RoleSuperAdmin,
	},
	OpCouponsManage: {
		enums.RoleAdmin, enums.RoleSuperAdmin, enums.RolePlatformAdmin,
	},
	OpUsersManageRoles: {
		enums.RoleSuperAdmin,
	},
}

// Allowed reports whether role may perform op.
func Allowed(role enums.Role, op Operation) bool {
	for _, allowed := range allowlist[op] {
		if role == allowed {
			return true
		}
	}
	return false
}

// AllowedRoles returns a copy of the allow-list for op.
func AllowedRoles(op Operation) []enums.Role {
	roles := allowlist[op]
	out := make([]enums.Role, len(roles))
	copy(out, roles)
	return out
}

// Authorize returns a forbidden error when role may not perform op.
func Authorize(role enums.Role, op Operation) error {
	if !role.IsValid() {
		return pkgerrors.New(pkgerrors.CodeForbidden, "unknown role")
	}
	if !Allowed(role, op) {
		return pkgerrors.New(pkgerrors.CodeForbidden, fmt.Sprintf("role %s may not perform %s", role, op))
	}
	return nil
}

// AuthorizeRoleChange gates role administration. Only super admins may change
// roles, and never their own.
func AuthorizeRoleChange(actorID uuid.UUID, actorRole enums.Role, targetID uuid.UUID) error {
	if err := Authorize(actorRole, OpUsersManageRoles); err != nil {
		return err
	}
	if actorID == targetID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "cannot modify your own role")
	}
	return nil
}
