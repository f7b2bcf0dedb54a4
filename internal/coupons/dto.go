package coupons

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/havenandoak/storefront-backend/pkg/enums"
)

// ValidateInput carries the checkout context for a coupon check.
type ValidateInput struct {
	Code           string
	CartTotalCents int
	UserID         *uuid.UUID
	Now            time.Time
}

// CouponSummary is the subset of coupon fields exposed to callers.
type CouponSummary struct {
	ID           uuid.UUID          `json:"id"`
	Code         string             `json:"code"`
	Title        string             `json:"title,omitempty"`
	DiscountType enums.DiscountType `json:"discount_type"`
}

// ValidationResult is the outcome of the sequential validity gates. All
// rejections are soft: Valid=false plus a plain-language message, never an
// error. Errors are reserved for store failures.
type ValidationResult struct {
	Valid         bool           `json:"valid"`
	Message       string         `json:"message,omitempty"`
	DiscountCents int            `json:"discount_cents,omitempty"`
	Coupon        *CouponSummary `json:"coupon,omitempty"`
}

// CreateCouponInput captures the admin payload for a new coupon.
type CreateCouponInput struct {
	Code             string
	Title            string
	DiscountType     enums.DiscountType
	PercentOff       decimal.Decimal
	AmountOffCents   int
	MinOrderCents    int
	MaxDiscountCents int
	MaxUsageCount    int
	MaxUsagePerUser  int
	ValidFrom        time.Time
	ValidUntil       time.Time
	Active           bool
}

// UpdateCouponInput carries partial admin edits keyed by column.
type UpdateCouponInput struct {
	Title            *string
	PercentOff       *decimal.Decimal
	AmountOffCents   *int
	MinOrderCents    *int
	MaxDiscountCents *int
	MaxUsageCount    *int
	MaxUsagePerUser  *int
	ValidFrom        *time.Time
	ValidUntil       *time.Time
	Active           *bool
}
