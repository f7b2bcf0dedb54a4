package controllers

import (
	"time"

	"github.com/havenandoak/storefront-backend/pkg/db/models"
	"github.com/havenandoak/storefront-backend/pkg/types"
)

// orderView is the wire shape for a single order. Models stay gorm-only;
// everything the client sees goes through here.
type orderView struct {
	ID                string            `json:"id"`
	OrderNumber       string            `json:"order_number"`
	CustomerName      string            `json:"customer_name"`
	CustomerEmail     string            `json:"customer_email"`
	Status            string            `json:"status"`
	PaymentMethod     string            `json:"payment_method"`
	Currency          string            `json:"currency"`
	SubtotalCents     int               `json:"subtotal_cents"`
	DiscountCents     int               `json:"discount_cents"`
	TotalCents        int               `json:"total_cents"`
	CouponCode        *string           `json:"coupon_code,omitempty"`
	DeliveryAddress   types.Address     `json:"delivery_address"`
	EstimatedDelivery time.Time         `json:"estimated_delivery"`
	TrackingNumber    *string           `json:"tracking_number,omitempty"`
	Carrier           *string           `json:"carrier,omitempty"`
	Notes             *string           `json:"notes,omitempty"`
	Items             []lineItemView    `json:"items"`
	StatusHistory     []statusEntryView `json:"status_history"`
	CreatedAt         time.Time         `json:"created_at"`
}

type lineItemView struct {
	ProductID      string  `json:"product_id"`
	VariantID      *string `json:"variant_id,omitempty"`
	Name           string  `json:"name"`
	VariantLabel   string  `json:"variant_label,omitempty"`
	UnitPriceCents int     `json:"unit_price_cents"`
	Quantity       int     `json:"quantity"`
	LineTotalCents int     `json:"line_total_cents"`
}

type statusEntryView struct {
	Status    string    `json:"status"`
	Message   string    `json:"message,omitempty"`
	Location  string    `json:"location,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func orderToView(order *models.Order) orderView {
	view := orderView{
		ID:                order.ID.String(),
		OrderNumber:       order.OrderNumber,
		CustomerName:      order.CustomerName,
		CustomerEmail:     order.CustomerEmail,
		Status:            string(order.Status),
		PaymentMethod:     string(order.PaymentMethod),
		Currency:          string(order.Currency),
		SubtotalCents:     order.SubtotalCents,
		DiscountCents:     order.DiscountCents,
		TotalCents:        order.TotalCents,
		CouponCode:        order.CouponCode,
		DeliveryAddress:   order.DeliveryAddress,
		EstimatedDelivery: order.EstimatedDelivery,
		TrackingNumber:    order.TrackingNumber,
		Carrier:           order.Carrier,
		Notes:             order.Notes,
		Items:             make([]lineItemView, 0, len(order.Items)),
		StatusHistory:     make([]statusEntryView, 0, len(order.StatusUpdates)),
		CreatedAt:         order.CreatedAt,
	}

	for _, item := range order.Items {
		var variantID *string
		if item.VariantID != nil {
			s := item.VariantID.String()
			variantID = &s
		}
		label := ""
		if item.VariantLabel != nil {
			label = *item.VariantLabel
		}
		view.Items = append(view.Items, lineItemView{
			ProductID:      item.ProductID.String(),
			VariantID:      variantID,
			Name:           item.Name,
			VariantLabel:   label,
			UnitPriceCents: item.UnitPriceCents,
			Quantity:       item.Quantity,
			LineTotalCents: item.TotalCents,
		})
	}

	for _, entry := range order.StatusUpdates {
		view.StatusHistory = append(view.StatusHistory, statusEntryView{
			Status:    string(entry.Status),
			Message:   entry.Message,
			Location:  entry.Location,
			CreatedAt: entry.CreatedAt,
		})
	}

	return view
}

func ordersToViews(orders []models.Order) []orderView {
	views := make([]orderView, 0, len(orders))
	for i := range orders {
		views = append(views, orderToView(&orders[i]))
	}
	return views
}
