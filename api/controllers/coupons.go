package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/havenandoak/storefront-backend/api/middleware"
	"github.com/havenandoak/storefront-backend/api/responses"
	"github.com/havenandoak/storefront-backend/api/validators"
	"github.com/havenandoak/storefront-backend/internal/coupons"
	pkgerrors "github.com/havenandoak/storefront-backend/pkg/errors"
	"github.com/havenandoak/storefront-backend/pkg/logger"
)

type validateCouponRequest struct {
	Code           string `json:"code" validate:"required,min=1,max=64"`
	CartTotalCents int    `json:"cart_total_cents" validate:"required,gt=0"`
}

// ValidateCoupon quotes a coupon against a cart total without redeeming it.
// Rejections come back as valid=false with a customer-facing message, not
// as HTTP errors.
func ValidateCoupon(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "coupons service unavailable"))
			return
		}

		var body validateCouponRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := coupons.ValidateInput{
			Code:           body.Code,
			CartTotalCents: body.CartTotalCents,
			Now:            time.Now().UTC(),
		}
		if userID := middleware.UserUUIDFromContext(r.Context()); userID != uuid.Nil {
			input.UserID = &userID
		}

		result, err := svc.Validate(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
