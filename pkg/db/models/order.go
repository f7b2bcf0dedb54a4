package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/havenandoak/storefront-backend/pkg/enums"
	"github.com/havenandoak/storefront-backend/pkg/types"
)

// Order is the persisted order document. The human-readable OrderNumber is
// assigned exactly once at creation and never mutated; Status always mirrors
// the most recently appended StatusUpdate row.
type Order struct {
	ID            uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber   string     `gorm:"column:order_number;not null;uniqueIndex"`
	CustomerName  string     `gorm:"column:customer_name;not null"`
	CustomerEmail string     `gorm:"column:customer_email;not null"`
	UserID        *uuid.UUID `gorm:"column:user_id;type:uuid"`

	Currency      enums.Currency      `gorm:"column:currency;type:text;not null;default:'USD'"`
	PaymentMethod enums.PaymentMethod `gorm:"column:payment_method;type:text;not null;default:'cod'"`
	Status        enums.OrderStatus   `gorm:"column:status;type:text;not null;default:'pending'"`

	SubtotalCents int `gorm:"column:subtotal_cents;not null"`
	DiscountCents int `gorm:"column:discount_cents;not null;default:0"`
	TotalCents    int `gorm:"column:total_cents;not null"`

	CouponID   *uuid.UUID `gorm:"column:coupon_id;type:uuid"`
	CouponCode *string    `gorm:"column:coupon_code"`

	CheckoutSessionID *string `gorm:"column:checkout_session_id"`
	GatewayPaymentID  *string `gorm:"column:gateway_payment_id"`

	DeliveryAddress   types.Address `gorm:"column:delivery_address;type:jsonb;serializer:json;not null"`
	EstimatedDelivery time.Time     `gorm:"column:estimated_delivery;not null"`

	TrackingNumber *string `gorm:"column:tracking_number"`
	Carrier        *string `gorm:"column:carrier"`
	Notes          *string `gorm:"column:notes"`

	Items         []OrderLineItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	StatusUpdates []OrderStatusUpdate `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
