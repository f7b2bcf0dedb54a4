package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/havenandoak/storefront-backend/pkg/db/models"
	"github.com/havenandoak/storefront-backend/pkg/enums"
	"github.com/havenandoak/storefront-backend/pkg/types"
)

// LineItemInput is a cart entry as submitted at checkout. Prices are
// resolved server-side and never accepted from the client.
type LineItemInput struct {
	ProductID uuid.UUID
	VariantID *uuid.UUID
	Quantity  int
}

// CreateOrderInput carries everything checkout needs to assemble an order.
type CreateOrderInput struct {
	CustomerName    string
	CustomerEmail   string
	UserID          *uuid.UUID
	PaymentMethod   enums.PaymentMethod
	DeliveryAddress types.Address
	Items           []LineItemInput
	CouponCode      *string
	Notes           *string
	NewsletterOptIn bool
}

// CreateOrderResult is returned to the checkout caller after commit.
type CreateOrderResult struct {
	Order         *models.Order
	DiscountCents int
	// CheckoutURL is set for card orders once the gateway session exists.
	CheckoutURL *string
}

// ShipInput attaches tracking details and moves the order to shipped (or an
// explicit override status).
type ShipInput struct {
	OrderID           uuid.UUID
	TrackingNumber    string
	Carrier           *string
	Notes             *string
	OverrideStatus    *enums.OrderStatus
	EstimatedDelivery *time.Time
	Actor             Actor
}

// UpdateStatusInput drives a generic transition through the state table.
type UpdateStatusInput struct {
	OrderID  uuid.UUID
	ToStatus enums.OrderStatus
	Message  string
	Location string
	Actor    Actor
}

// CancelInput cancels an order with an optional reason.
type CancelInput struct {
	OrderID uuid.UUID
	Reason  string
	Actor   Actor
}

// Actor identifies the staff user driving an admin mutation.
type Actor struct {
	UserID uuid.UUID
	Role   enums.Role
}

// ListFilters narrows the admin order list.
type ListFilters struct {
	Status        *enums.OrderStatus
	CustomerEmail *string
}

// OrderList is one cursor page of orders.
type OrderList struct {
	Orders     []models.Order
	NextCursor *string
}
