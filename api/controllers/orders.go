package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/havenandoak/storefront-backend/api/middleware"
	"github.com/havenandoak/storefront-backend/api/responses"
	"github.com/havenandoak/storefront-backend/api/validators"
	"github.com/havenandoak/storefront-backend/internal/orders"
	"github.com/havenandoak/storefront-backend/pkg/enums"
	pkgerrors "github.com/havenandoak/storefront-backend/pkg/errors"
	"github.com/havenandoak/storefront-backend/pkg/logger"
	"github.com/havenandoak/storefront-backend/pkg/types"
)

type createOrderRequest struct {
	CustomerName    string             `json:"customer_name" validate:"required,min=2,max=120"`
	CustomerEmail   string             `json:"customer_email" validate:"required,email"`
	PaymentMethod   string             `json:"payment_method" validate:"required,oneof=cod card"`
	DeliveryAddress types.Address      `json:"delivery_address" validate:"required"`
	Items           []orderItemRequest `json:"items" validate:"required,min=1,dive"`
	CouponCode      *string            `json:"coupon_code,omitempty"`
	Notes           *string            `json:"notes,omitempty"`
	NewsletterOptIn bool               `json:"newsletter_opt_in"`
}

type orderItemRequest struct {
	ProductID string  `json:"product_id" validate:"required,uuid4"`
	VariantID *string `json:"variant_id,omitempty" validate:"omitempty,uuid4"`
	Quantity  int     `json:"quantity" validate:"required,gt=0"`
}

type createOrderResponse struct {
	Order         orderView `json:"order"`
	DiscountCents int       `json:"discount_cents"`
	CheckoutURL   *string   `json:"checkout_url,omitempty"`
}

// CreateOrder is the public checkout endpoint. Anonymous customers are
// accepted; a logged-in customer's id is attached for per-user coupon caps.
func CreateOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		var body createOrderRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		method, err := enums.ParsePaymentMethod(body.PaymentMethod)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method"))
			return
		}

		items := make([]orders.LineItemInput, 0, len(body.Items))
		for _, item := range body.Items {
			productID, parseErr := uuid.Parse(item.ProductID)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid product id"))
				return
			}
			var variantID *uuid.UUID
			if item.VariantID != nil {
				parsed, variantErr := uuid.Parse(*item.VariantID)
				if variantErr != nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, variantErr, "invalid variant id"))
					return
				}
				variantID = &parsed
			}
			items = append(items, orders.LineItemInput{
				ProductID: productID,
				VariantID: variantID,
				Quantity:  item.Quantity,
			})
		}

		input := orders.CreateOrderInput{
			CustomerName:    body.CustomerName,
			CustomerEmail:   body.CustomerEmail,
			PaymentMethod:   method,
			DeliveryAddress: body.DeliveryAddress,
			Items:           items,
			CouponCode:      body.CouponCode,
			Notes:           body.Notes,
			NewsletterOptIn: body.NewsletterOptIn,
		}
		if userID := middleware.UserUUIDFromContext(r.Context()); userID != uuid.Nil {
			input.UserID = &userID
		}

		result, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, createOrderResponse{
			Order:         orderToView(result.Order),
			DiscountCents: result.DiscountCents,
			CheckoutURL:   result.CheckoutURL,
		})
	}
}

// GetOrderByNumber is the public tracking endpoint keyed by the
// human-readable order number printed on the confirmation email.
func GetOrderByNumber(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		orderNumber := strings.TrimSpace(chi.URLParam(r, "orderNumber"))
		if orderNumber == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "order number is required"))
			return
		}

		order, err := svc.GetByOrderNumber(r.Context(), orderNumber)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, orderToView(order))
	}
}
