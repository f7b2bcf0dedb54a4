package coupons

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/havenandoak/storefront-backend/pkg/db/models"
)

// Repository defines persistence operations for coupon records.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, coupon *models.Coupon) (*models.Coupon, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Coupon, error)
	FindByCode(ctx context.Context, code string) (*models.Coupon, error)
	List(ctx context.Context, limit int) ([]models.Coupon, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	// CountOrdersByCouponUser counts committed orders by a user that
	// reference the coupon. Per-user caps derive from this count so the
	// check reflects only committed redemptions.
	CountOrdersByCouponUser(ctx context.Context, couponID, userID uuid.UUID) (int64, error)
	// IncrementUsageIfUnderCap bumps the usage counter only while it is
	// still under the configured cap. Returns false when the cap is hit.
	IncrementUsageIfUnderCap(tx *gorm.DB, couponID uuid.UUID) (bool, error)
}
