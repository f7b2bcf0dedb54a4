package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/havenandoak/storefront-backend/api/responses"
	"github.com/havenandoak/storefront-backend/api/validators"
	"github.com/havenandoak/storefront-backend/internal/coupons"
	"github.com/havenandoak/storefront-backend/pkg/db/models"
	"github.com/havenandoak/storefront-backend/pkg/enums"
	pkgerrors "github.com/havenandoak/storefront-backend/pkg/errors"
	"github.com/havenandoak/storefront-backend/pkg/logger"
	"github.com/havenandoak/storefront-backend/pkg/pagination"
)

type createCouponRequest struct {
	Code             string    `json:"code" validate:"required,min=2,max=64"`
	Title            string    `json:"title" validate:"required,max=160"`
	DiscountType     string    `json:"discount_type" validate:"required,oneof=percentage fixed"`
	PercentOff       string    `json:"percent_off,omitempty"`
	AmountOffCents   int       `json:"amount_off_cents,omitempty" validate:"omitempty,gte=0"`
	MinOrderCents    int       `json:"min_order_cents,omitempty" validate:"omitempty,gte=0"`
	MaxDiscountCents int       `json:"max_discount_cents,omitempty" validate:"omitempty,gte=0"`
	MaxUsageCount    int       `json:"max_usage_count,omitempty" validate:"omitempty,gte=0"`
	MaxUsagePerUser  int       `json:"max_usage_per_user,omitempty" validate:"omitempty,gte=0"`
	ValidFrom        time.Time `json:"valid_from" validate:"required"`
	ValidUntil       time.Time `json:"valid_until" validate:"required"`
	Active           bool      `json:"active"`
}

type updateCouponRequest struct {
	Title            *string    `json:"title,omitempty" validate:"omitempty,max=160"`
	PercentOff       *string    `json:"percent_off,omitempty"`
	AmountOffCents   *int       `json:"amount_off_cents,omitempty" validate:"omitempty,gte=0"`
	MinOrderCents    *int       `json:"min_order_cents,omitempty" validate:"omitempty,gte=0"`
	MaxDiscountCents *int       `json:"max_discount_cents,omitempty" validate:"omitempty,gte=0"`
	MaxUsageCount    *int       `json:"max_usage_count,omitempty" validate:"omitempty,gte=0"`
	MaxUsagePerUser  *int       `json:"max_usage_per_user,omitempty" validate:"omitempty,gte=0"`
	ValidFrom        *time.Time `json:"valid_from,omitempty"`
	ValidUntil       *time.Time `json:"valid_until,omitempty"`
	Active           *bool      `json:"active,omitempty"`
}

type couponView struct {
	ID               string    `json:"id"`
	Code             string    `json:"code"`
	Title            string    `json:"title"`
	DiscountType     string    `json:"discount_type"`
	PercentOff       string    `json:"percent_off"`
	AmountOffCents   int       `json:"amount_off_cents"`
	MinOrderCents    int       `json:"min_order_cents"`
	MaxDiscountCents int       `json:"max_discount_cents"`
	MaxUsageCount    int       `json:"max_usage_count"`
	MaxUsagePerUser  int       `json:"max_usage_per_user"`
	UsageCount       int       `json:"usage_count"`
	ValidFrom        time.Time `json:"valid_from"`
	ValidUntil       time.Time `json:"valid_until"`
	Active           bool      `json:"active"`
	CreatedAt        time.Time `json:"created_at"`
}

func couponToView(coupon *models.Coupon) couponView {
	return couponView{
		ID:               coupon.ID.String(),
		Code:             coupon.Code,
		Title:            coupon.Title,
		DiscountType:     string(coupon.DiscountType),
		PercentOff:       coupon.PercentOff.String(),
		AmountOffCents:   coupon.AmountOffCents,
		MinOrderCents:    coupon.MinOrderCents,
		MaxDiscountCents: coupon.MaxDiscountCents,
		MaxUsageCount:    coupon.MaxUsageCount,
		MaxUsagePerUser:  coupon.MaxUsagePerUser,
		UsageCount:       coupon.UsageCount,
		ValidFrom:        coupon.ValidFrom,
		ValidUntil:       coupon.ValidUntil,
		Active:           coupon.Active,
		CreatedAt:        coupon.CreatedAt,
	}
}

// AdminCouponCreate registers a new coupon.
func AdminCouponCreate(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "coupons service unavailable"))
			return
		}

		var body createCouponRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		discountType, err := enums.ParseDiscountType(body.DiscountType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid discount type"))
			return
		}

		percentOff, err := parsePercent(body.PercentOff)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		coupon, err := svc.Create(r.Context(), coupons.CreateCouponInput{
			Code:             body.Code,
			Title:            body.Title,
			DiscountType:     discountType,
			PercentOff:       percentOff,
			AmountOffCents:   body.AmountOffCents,
			MinOrderCents:    body.MinOrderCents,
			MaxDiscountCents: body.MaxDiscountCents,
			MaxUsageCount:    body.MaxUsageCount,
			MaxUsagePerUser:  body.MaxUsagePerUser,
			ValidFrom:        body.ValidFrom,
			ValidUntil:       body.ValidUntil,
			Active:           body.Active,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, couponToView(coupon))
	}
}

// AdminCouponUpdate applies a partial edit to an existing coupon.
func AdminCouponUpdate(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "coupons service unavailable"))
			return
		}

		couponID, err := parseCouponID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateCouponRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := coupons.UpdateCouponInput{
			Title:            body.Title,
			AmountOffCents:   body.AmountOffCents,
			MinOrderCents:    body.MinOrderCents,
			MaxDiscountCents: body.MaxDiscountCents,
			MaxUsageCount:    body.MaxUsageCount,
			MaxUsagePerUser:  body.MaxUsagePerUser,
			ValidFrom:        body.ValidFrom,
			ValidUntil:       body.ValidUntil,
			Active:           body.Active,
		}
		if body.PercentOff != nil {
			percentOff, parseErr := parsePercent(*body.PercentOff)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, parseErr)
				return
			}
			input.PercentOff = &percentOff
		}

		coupon, err := svc.Update(r.Context(), couponID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, couponToView(coupon))
	}
}

// AdminCouponGet returns one coupon by id.
func AdminCouponGet(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "coupons service unavailable"))
			return
		}

		couponID, err := parseCouponID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		coupon, err := svc.Get(r.Context(), couponID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, couponToView(coupon))
	}
}

// AdminCouponList returns coupons newest-first.
func AdminCouponList(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "coupons service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.List(r.Context(), limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		views := make([]couponView, 0, len(list))
		for i := range list {
			views = append(views, couponToView(&list[i]))
		}
		responses.WriteSuccess(w, views)
	}
}

func parseCouponID(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "couponId"))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon id is required")
	}
	couponID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid coupon id")
	}
	return couponID, nil
}

func parsePercent(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, nil
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid percent_off")
	}
	return value, nil
}
