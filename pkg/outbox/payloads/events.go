package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/havenandoak/storefront-backend/pkg/enums"
)

// OrderCreatedEvent is emitted when checkout assembles a new order.
type OrderCreatedEvent struct {
	OrderID           uuid.UUID           `json:"order_id"`
	OrderNumber       string              `json:"order_number"`
	CustomerEmail     string              `json:"customer_email"`
	PaymentMethod     enums.PaymentMethod `json:"payment_method"`
	SubtotalCents     int                 `json:"subtotal_cents"`
	DiscountCents     int                 `json:"discount_cents"`
	TotalCents        int                 `json:"total_cents"`
	CouponCode        *string             `json:"coupon_code,omitempty"`
	EstimatedDelivery *time.Time          `json:"estimated_delivery,omitempty"`
}

// OrderStatusChangedEvent carries every lifecycle transition.
type OrderStatusChangedEvent struct {
	OrderID     uuid.UUID         `json:"order_id"`
	OrderNumber string            `json:"order_number"`
	FromStatus  enums.OrderStatus `json:"from_status"`
	ToStatus    enums.OrderStatus `json:"to_status"`
	Message     string            `json:"message,omitempty"`
	Location    string            `json:"location,omitempty"`
	ChangedAt   time.Time         `json:"changed_at"`
}

// OrderShippedEvent is emitted when tracking details are attached.
type OrderShippedEvent struct {
	OrderID        uuid.UUID `json:"order_id"`
	OrderNumber    string    `json:"order_number"`
	TrackingNumber string    `json:"tracking_number"`
	Carrier        string    `json:"carrier,omitempty"`
	ShippedAt      time.Time `json:"shipped_at"`
}

// OrderCancelledEvent is emitted when an order is cancelled.
type OrderCancelledEvent struct {
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	Reason      string    `json:"reason,omitempty"`
	CancelledAt time.Time `json:"cancelled_at"`
}

// OrderPaidEvent is emitted when the payment gateway confirms a charge.
type OrderPaidEvent struct {
	OrderID          uuid.UUID `json:"order_id"`
	OrderNumber      string    `json:"order_number"`
	GatewayPaymentID string    `json:"gateway_payment_id"`
	AmountCents      int       `json:"amount_cents"`
	PaidAt           time.Time `json:"paid_at"`
}

// CouponRedeemedEvent is emitted when a coupon's usage counter advances.
type CouponRedeemedEvent struct {
	CouponID      uuid.UUID `json:"coupon_id"`
	Code          string    `json:"code"`
	OrderID       uuid.UUID `json:"order_id"`
	DiscountCents int       `json:"discount_cents"`
}

// NewsletterSubscribedEvent is emitted when a customer opts in at checkout.
type NewsletterSubscribedEvent struct {
	Email  string `json:"email"`
	Name   string `json:"name,omitempty"`
	Source string `json:"source"`
}
