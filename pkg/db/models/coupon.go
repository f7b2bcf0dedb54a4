package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/havenandoak/storefront-backend/pkg/enums"
)

// Coupon is a discount rule keyed by a redeemable code (stored uppercase).
// MaxUsageCount/MaxUsagePerUser at or below zero mean unlimited. UsageCount
// is only ever advanced through the conditional increment in the coupons
// repository, inside the order-creation transaction.
type Coupon struct {
	ID    uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code  string    `gorm:"column:code;not null;uniqueIndex"`
	Title string    `gorm:"column:title;not null"`

	DiscountType   enums.DiscountType `gorm:"column:discount_type;type:text;not null"`
	PercentOff     decimal.Decimal    `gorm:"column:percent_off;type:numeric(5,2);not null;default:0"`
	AmountOffCents int                `gorm:"column:amount_off_cents;not null;default:0"`

	MinOrderCents    int `gorm:"column:min_order_cents;not null;default:0"`
	MaxDiscountCents int `gorm:"column:max_discount_cents;not null;default:0"`

	MaxUsageCount   int `gorm:"column:max_usage_count;not null;default:0"`
	MaxUsagePerUser int `gorm:"column:max_usage_per_user;not null;default:0"`
	UsageCount      int `gorm:"column:usage_count;not null;default:0"`

	ValidFrom  time.Time `gorm:"column:valid_from;not null"`
	ValidUntil time.Time `gorm:"column:valid_until;not null"`
	Active     bool      `gorm:"column:active;not null;default:true"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
