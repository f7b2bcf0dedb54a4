package access

import (
	"testing"

	"github.com/google/uuid"

	"github.com/havenandoak/storefront-backend/pkg/enums"
	"github.com/havenandoak/storefront-backend/pkg/errors"
)

func TestAuthorize(t *testing.T) {
	t.Run("admin may ship", func(t *testing.T) {
		if err := Authorize(enums.RoleAdmin, OpOrdersShip); err != nil {
			t.Fatalf("expected allowed, got %v", err)
		}
	})
	t.Run("moderator is read only", func(t *testing.T) {
		if err := Authorize(enums.RoleContentModerator, OpOrdersView); err != nil {
			t.Fatalf("expected view allowed, got %v", err)
		}
		err := Authorize(enums.RoleContentModerator, OpOrdersUpdateStatus)
		if err == nil || errors.As(err).Code() != errors.CodeForbidden {
			t.Fatalf("expected forbidden, got %v", err)
		}
	})
	t.Run("customer denied everywhere", func(t *testing.T) {
		for _, op := range []Operation{OpOrdersList, OpOrdersShip, OpOrdersDelete, OpCouponsManage} {
			if err := Authorize(enums.RoleCustomer, op); err == nil {
				t.Fatalf("expected forbidden for %s", op)
			}
		}
	})
	t.Run("delete restricted to admin tier", func(t *testing.T) {
		if err := Authorize(enums.RolePlatformAdmin, OpOrdersDelete); err == nil {
			t.Fatal("expected platform_admin denied for delete")
		}
		if err := Authorize(enums.RoleSuperAdmin, OpOrdersDelete); err != nil {
			t.Fatalf("expected super_admin allowed, got %v", err)
		}
	})
	t.Run("unknown role", func(t *testing.T) {
		err := Authorize("ghost", OpOrdersView)
		if err == nil || errors.As(err).Code() != errors.CodeForbidden {
			t.Fatalf("expected forbidden, got %v", err)
		}
	})
	t.Run("unknown operation denies everyone", func(t *testing.T) {
		if err := Authorize(enums.RoleSuperAdmin, Operation("orders.nuke")); err == nil {
			t.Fatal("expected forbidden for unlisted operation")
		}
	})
}

func TestAuthorizeRoleChange(t *testing.T) {
	actor := uuid.New()
	target := uuid.New()

	if err := AuthorizeRoleChange(actor, enums.RoleSuperAdmin, target); err != nil {
		t.Fatalf("expected super_admin allowed, got %v", err)
	}

	err := AuthorizeRoleChange(actor, enums.RoleAdmin, target)
	if err == nil || errors.As(err).Code() != errors.CodeForbidden {
		t.Fatalf("expected forbidden for admin, got %v", err)
	}

	err = AuthorizeRoleChange(actor, enums.RoleSuperAdmin, actor)
	if err == nil || errors.As(err).Code() != errors.CodeForbidden {
		t.Fatalf("expected self-modification blocked, got %v", err)
	}
}
