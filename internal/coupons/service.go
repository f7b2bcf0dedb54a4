package coupons

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/havenandoak/storefront-backend/pkg/cache"
	"github.com/havenandoak/storefront-backend/pkg/db/models"
	"github.com/havenandoak/storefront-backend/pkg/enums"
	pkgerrors "github.com/havenandoak/storefront-backend/pkg/errors"
	"github.com/havenandoak/storefront-backend/pkg/logger"
)

const couponCacheTTL = 5 * time.Minute

// Service exposes coupon validation and administration.
type Service interface {
	Validate(ctx context.Context, input ValidateInput) (*ValidationResult, error)
	// Redeem advances the usage counter inside the caller's transaction,
	// failing with a state conflict when the global cap is exhausted.
	Redeem(ctx context.Context, tx *gorm.DB, couponID uuid.UUID) error
	Create(ctx context.Context, input CreateCouponInput) (*models.Coupon, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateCouponInput) (*models.Coupon, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Coupon, error)
	List(ctx context.Context, limit int) ([]models.Coupon, error)
}

type service struct {
	repo  Repository
	cache cache.Cache
	logg  *logger.Logger
}

// NewService builds the coupon service with the required dependencies.
func NewService(repo Repository, cacheStore cache.Cache, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("coupons repository required")
	}
	if cacheStore == nil {
		cacheStore = cache.NewNoop()
	}
	return &service{repo: repo, cache: cacheStore, logg: logg}, nil
}

// Validate runs the sequential validity gates in order, short-circuiting on
// the first failure. It never advances the usage counter.
func (s *service) Validate(ctx context.Context, input ValidateInput) (*ValidationResult, error) {
	code := strings.ToUpper(strings.TrimSpace(input.Code))
	if code == "" {
		return reject("Coupon code is required."), nil
	}
	now := input.Now
	if now.IsZero() {
		now = time.Now()
	}

	coupon, err := s.lookup(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return reject("Invalid coupon code."), nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load coupon")
	}

	if !coupon.Active {
		return reject("This coupon is no longer active."), nil
	}

	// Both window endpoints are inclusive.
	if now.Before(coupon.ValidFrom) {
		return reject(fmt.Sprintf("This coupon will be valid from %s.", coupon.ValidFrom.Format("Jan 2, 2006"))), nil
	}
	if now.After(coupon.ValidUntil) {
		return reject("This coupon has expired."), nil
	}

	if coupon.MinOrderCents > 0 && input.CartTotalCents < coupon.MinOrderCents {
		return reject(fmt.Sprintf("Minimum order value of %s required.", formatCents(coupon.MinOrderCents))), nil
	}

	if coupon.MaxUsageCount > 0 && coupon.UsageCount >= coupon.MaxUsageCount {
		return reject("This coupon has reached its usage limit."), nil
	}

	if input.UserID != nil && coupon.MaxUsagePerUser > 0 {
		used, err := s.repo.CountOrdersByCouponUser(ctx, coupon.ID, *input.UserID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count coupon redemptions")
		}
		if used >= int64(coupon.MaxUsagePerUser) {
			return reject("You have already used this coupon the maximum number of times."), nil
		}
	}

	discount := computeDiscount(coupon, input.CartTotalCents)
	return &ValidationResult{
		Valid:         true,
		DiscountCents: discount,
		Coupon: &CouponSummary{
			ID:           coupon.ID,
			Code:         coupon.Code,
			Title:        coupon.Title,
			DiscountType: coupon.DiscountType,
		},
	}, nil
}

func (s *service) Redeem(ctx context.Context, tx *gorm.DB, couponID uuid.UUID) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	ok, err := s.repo.IncrementUsageIfUnderCap(tx, couponID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redeem coupon")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "coupon has reached its usage limit")
	}
	return nil
}

func (s *service) Create(ctx context.Context, input CreateCouponInput) (*models.Coupon, error) {
	if err := validateCouponRule(input); err != nil {
		return nil, err
	}
	coupon := &models.Coupon{
		Code:             strings.ToUpper(strings.TrimSpace(input.Code)),
		Title:            strings.TrimSpace(input.Title),
		DiscountType:     input.DiscountType,
		PercentOff:       input.PercentOff,
		AmountOffCents:   input.AmountOffCents,
		MinOrderCents:    input.MinOrderCents,
		MaxDiscountCents: input.MaxDiscountCents,
		MaxUsageCount:    input.MaxUsageCount,
		MaxUsagePerUser:  input.MaxUsagePerUser,
		ValidFrom:        input.ValidFrom,
		ValidUntil:       input.ValidUntil,
		Active:           input.Active,
	}
	created, err := s.repo.Create(ctx, coupon)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create coupon")
	}
	s.invalidate(ctx, created.Code)
	return created, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateCouponInput) (*models.Coupon, error) {
	updates := map[string]any{}
	if input.Title != nil {
		updates["title"] = strings.TrimSpace(*input.Title)
	}
	if input.PercentOff != nil {
		updates["percent_off"] = *input.PercentOff
	}
	if input.AmountOffCents != nil {
		updates["amount_off_cents"] = *input.AmountOffCents
	}
	if input.MinOrderCents != nil {
		updates["min_order_cents"] = *input.MinOrderCents
	}
	if input.MaxDiscountCents != nil {
		updates["max_discount_cents"] = *input.MaxDiscountCents
	}
	if input.MaxUsageCount != nil {
		updates["max_usage_count"] = *input.MaxUsageCount
	}
	if input.MaxUsagePerUser != nil {
		updates["max_usage_per_user"] = *input.MaxUsagePerUser
	}
	if input.ValidFrom != nil {
		updates["valid_from"] = *input.ValidFrom
	}
	if input.ValidUntil != nil {
		updates["valid_until"] = *input.ValidUntil
	}
	if input.Active != nil {
		updates["active"] = *input.Active
	}
	if len(updates) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no updates supplied")
	}

	if err := s.repo.Update(ctx, id, updates); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update coupon")
	}

	coupon, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload coupon")
	}
	s.invalidate(ctx, coupon.Code)
	return coupon, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Coupon, error) {
	coupon, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load coupon")
	}
	return coupon, nil
}

func (s *service) List(ctx context.Context, limit int) ([]models.Coupon, error) {
	rows, err := s.repo.List(ctx, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list coupons")
	}
	return rows, nil
}

// lookup consults the injected cache before the repository. Cache failures
// fall through to the source of truth.
func (s *service) lookup(ctx context.Context, code string) (*models.Coupon, error) {
	key := couponCacheKey(code)
	if cached, found, err := s.cache.Get(ctx, key); err == nil && found {
		var coupon models.Coupon
		if jsonErr := json.Unmarshal([]byte(cached), &coupon); jsonErr == nil {
			return &coupon, nil
		}
	}

	coupon, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if raw, jsonErr := json.Marshal(coupon); jsonErr == nil {
		if cacheErr := s.cache.Set(ctx, key, string(raw), couponCacheTTL); cacheErr != nil && s.logg != nil {
			s.logg.Warn(ctx, "coupon cache write failed: "+cacheErr.Error())
		}
	}
	return coupon, nil
}

func (s *service) invalidate(ctx context.Context, code string) {
	if err := s.cache.Invalidate(ctx, couponCacheKey(code)); err != nil && s.logg != nil {
		s.logg.Warn(ctx, "coupon cache invalidation failed: "+err.Error())
	}
}

func couponCacheKey(code string) string {
	return "ho:cache:coupon:" + strings.ToUpper(strings.TrimSpace(code))
}

// computeDiscount applies the coupon's rule to the cart total in cents.
// Percentage discounts round to the nearest cent and clamp to the configured
// cap; every discount clamps to the cart total.
func computeDiscount(coupon *models.Coupon, cartTotalCents int) int {
	var discount int
	switch coupon.DiscountType {
	case enums.DiscountTypePercentage:
		raw := decimal.NewFromInt(int64(cartTotalCents)).
			Mul(coupon.PercentOff).
			Div(decimal.NewFromInt(100)).
			Round(0)
		discount = int(raw.IntPart())
		if coupon.MaxDiscountCents > 0 && discount > coupon.MaxDiscountCents {
			discount = coupon.MaxDiscountCents
		}
	case enums.DiscountTypeFixed:
		discount = coupon.AmountOffCents
	}
	if discount > cartTotalCents {
		discount = cartTotalCents
	}
	if discount < 0 {
		discount = 0
	}
	return discount
}

func validateCouponRule(input CreateCouponInput) error {
	if strings.TrimSpace(input.Code) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "coupon code required")
	}
	if !input.DiscountType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid discount type")
	}
	if input.DiscountType == enums.DiscountTypePercentage && input.PercentOff.LessThanOrEqual(decimal.Zero) {
		return pkgerrors.New(pkgerrors.CodeValidation, "percentage coupons require a positive percent_off")
	}
	if input.DiscountType == enums.DiscountTypeFixed && input.AmountOffCents <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "fixed coupons require a positive amount_off_cents")
	}
	if input.ValidFrom.IsZero() || input.ValidUntil.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "validity window required")
	}
	if input.ValidUntil.Before(input.ValidFrom) {
		return pkgerrors.New(pkgerrors.CodeValidation, "valid_until must not precede valid_from")
	}
	return nil
}

func reject(message string) *ValidationResult {
	return &ValidationResult{Valid: false, Message: message}
}

func formatCents(cents int) string {
	return "$" + decimal.NewFromInt(int64(cents)).Div(decimal.NewFromInt(100)).StringFixed(2)
}
