package coupons

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/havenandoak/storefront-backend/pkg/cache"
	"github.com/havenandoak/storefront-backend/pkg/db/models"
	"github.com/havenandoak/storefront-backend/pkg/enums"
	pkgerrors "github.com/havenandoak/storefront-backend/pkg/errors"
)

type stubCouponRepo struct {
	byCode      map[string]*models.Coupon
	userUsage   map[uuid.UUID]int64
	incrementOK bool
	incrementID uuid.UUID
	findErr     error
}

func newStubCouponRepo() *stubCouponRepo {
	return &stubCouponRepo{
		byCode:      map[string]*models.Coupon{},
		userUsage:   map[uuid.UUID]int64{},
		incrementOK: true,
	}
}

func (s *stubCouponRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubCouponRepo) Create(ctx context.Context, coupon *models.Coupon) (*models.Coupon, error) {
	if coupon.ID == uuid.Nil {
		coupon.ID = uuid.New()
	}
	s.byCode[coupon.Code] = coupon
	return coupon, nil
}

func (s *stubCouponRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Coupon, error) {
	for _, c := range s.byCode {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubCouponRepo) FindByCode(ctx context.Context, code string) (*models.Coupon, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	if c, ok := s.byCode[code]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubCouponRepo) List(ctx context.Context, limit int) ([]models.Coupon, error) {
	out := make([]models.Coupon, 0, len(s.byCode))
	for _, c := range s.byCode {
		out = append(out, *c)
	}
	return out, nil
}

func (s *stubCouponRepo) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if _, err := s.FindByID(ctx, id); err != nil {
		return err
	}
	return nil
}

func (s *stubCouponRepo) CountOrdersByCouponUser(ctx context.Context, couponID, userID uuid.UUID) (int64, error) {
	return s.userUsage[userID], nil
}

func (s *stubCouponRepo) IncrementUsageIfUnderCap(tx *gorm.DB, couponID uuid.UUID) (bool, error) {
	s.incrementID = couponID
	return s.incrementOK, nil
}

func fixedClock() time.Time {
	return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
}

func percentCoupon(code string, pct int64) *models.Coupon {
	return &models.Coupon{
		ID:           uuid.New(),
		Code:         code,
		Title:        code + " discount",
		DiscountType: enums.DiscountTypePercentage,
		PercentOff:   decimal.NewFromInt(pct),
		ValidFrom:    fixedClock().Add(-24 * time.Hour),
		ValidUntil:   fixedClock().Add(24 * time.Hour),
		Active:       true,
	}
}

func newTestService(t *testing.T, repo Repository) Service {
	t.Helper()
	svc, err := NewService(repo, cache.NewMemory(), nil)
	require.NoError(t, err)
	return svc
}

func TestValidatePercentageDiscount(t *testing.T) {
	repo := newStubCouponRepo()
	repo.byCode["SAVE10"] = percentCoupon("SAVE10", 10)
	svc := newTestService(t, repo)

	res, err := svc.Validate(context.Background(), ValidateInput{
		Code: "save10", CartTotalCents: 50000, Now: fixedClock(),
	})
	require.NoError(t, err)
	require.True(t, res.Valid)
	require.Equal(t, 5000, res.DiscountCents)
	require.Equal(t, "SAVE10", res.Coupon.Code)
}

func TestValidatePercentageCapClamps(t *testing.T) {
	repo := newStubCouponRepo()
	c := percentCoupon("BIG50", 50)
	c.MaxDiscountCents = 2000
	repo.byCode["BIG50"] = c
	svc := newTestService(t, repo)

	res, err := svc.Validate(context.Background(), ValidateInput{
		Code: "BIG50", CartTotalCents: 100000, Now: fixedClock(),
	})
	require.NoError(t, err)
	require.True(t, res.Valid)
	require.Equal(t, 2000, res.DiscountCents)
}

func TestValidateFixedDiscountClampsToCartTotal(t *testing.T) {
	repo := newStubCouponRepo()
	repo.byCode["FLAT100"] = &models.Coupon{
		ID:             uuid.New(),
		Code:           "FLAT100",
		Title:          "Flat $100 off",
		DiscountType:   enums.DiscountTypeFixed,
		AmountOffCents: 10000,
		ValidFrom:      fixedClock().Add(-time.Hour),
		ValidUntil:     fixedClock().Add(time.Hour),
		Active:         true,
	}
	svc := newTestService(t, repo)

	res, err := svc.Validate(context.Background(), ValidateInput{
		Code: "FLAT100", CartTotalCents: 6000, Now: fixedClock(),
	})
	require.NoError(t, err)
	require.True(t, res.Valid)
	require.Equal(t, 6000, res.DiscountCents)
}

func TestValidateMinOrderRejected(t *testing.T) {
	repo := newStubCouponRepo()
	c := repo.byCode
	coupon := &models.Coupon{
		ID:             uuid.New(),
		Code:           "FLAT100",
		DiscountType:   enums.DiscountTypeFixed,
		AmountOffCents: 10000,
		MinOrderCents:  20000,
		ValidFrom:      fixedClock().Add(-time.Hour),
		ValidUntil:     fixedClock().Add(time.Hour),
		Active:         true,
	}
	c["FLAT100"] = coupon
	svc := newTestService(t, repo)

	res, err := svc.Validate(context.Background(), ValidateInput{
		Code: "FLAT100", CartTotalCents: 15000, Now: fixedClock(),
	})
	require.NoError(t, err)
	require.False(t, res.Valid)
	require.Contains(t, res.Message, "Minimum order value of $200.00")
}

func TestValidateTemporalGates(t *testing.T) {
	repo := newStubCouponRepo()
	c := percentCoupon("SOON", 10)
	c.ValidFrom = fixedClock().Add(48 * time.Hour)
	c.ValidUntil = fixedClock().Add(96 * time.Hour)
	repo.byCode["SOON"] = c

	expired := percentCoupon("GONE", 10)
	expired.ValidFrom = fixedClock().Add(-96 * time.Hour)
	expired.ValidUntil = fixedClock().Add(-48 * time.Hour)
	repo.byCode["GONE"] = expired

	// Window endpoints are inclusive.
	edge := percentCoupon("EDGE", 10)
	edge.ValidFrom = fixedClock()
	edge.ValidUntil = fixedClock()
	repo.byCode["EDGE"] = edge

	svc := newTestService(t, repo)
	ctx := context.Background()

	res, err := svc.Validate(ctx, ValidateInput{Code: "SOON", CartTotalCents: 10000, Now: fixedClock()})
	require.NoError(t, err)
	require.False(t, res.Valid)
	require.Contains(t, res.Message, "will be valid from")

	res, err = svc.Validate(ctx, ValidateInput{Code: "GONE", CartTotalCents: 10000, Now: fixedClock()})
	require.NoError(t, err)
	require.False(t, res.Valid)
	require.Contains(t, res.Message, "expired")

	res, err = svc.Validate(ctx, ValidateInput{Code: "EDGE", CartTotalCents: 10000, Now: fixedClock()})
	require.NoError(t, err)
	require.True(t, res.Valid)
}

func TestValidateInactiveAndUnknown(t *testing.T) {
	repo := newStubCouponRepo()
	c := percentCoupon("PAUSED", 10)
	c.Active = false
	repo.byCode["PAUSED"] = c
	svc := newTestService(t, repo)
	ctx := context.Background()

	res, err := svc.Validate(ctx, ValidateInput{Code: "PAUSED", CartTotalCents: 10000, Now: fixedClock()})
	require.NoError(t, err)
	require.False(t, res.Valid)
	require.Contains(t, res.Message, "no longer active")

	res, err = svc.Validate(ctx, ValidateInput{Code: "NOPE", CartTotalCents: 10000, Now: fixedClock()})
	require.NoError(t, err)
	require.False(t, res.Valid)
	require.Equal(t, "Invalid coupon code.", res.Message)
}

func TestValidateUsageCaps(t *testing.T) {
	repo := newStubCouponRepo()
	global := percentCoupon("CAPPED", 10)
	global.MaxUsageCount = 5
	global.UsageCount = 5
	repo.byCode["CAPPED"] = global

	perUser := percentCoupon("ONCE", 10)
	perUser.MaxUsagePerUser = 1
	repo.byCode["ONCE"] = perUser

	userID := uuid.New()
	repo.userUsage[userID] = 1

	svc := newTestService(t, repo)
	ctx := context.Background()

	res, err := svc.Validate(ctx, ValidateInput{Code: "CAPPED", CartTotalCents: 10000, Now: fixedClock()})
	require.NoError(t, err)
	require.False(t, res.Valid)
	require.Contains(t, res.Message, "usage limit")

	res, err = svc.Validate(ctx, ValidateInput{Code: "ONCE", CartTotalCents: 10000, UserID: &userID, Now: fixedClock()})
	require.NoError(t, err)
	require.False(t, res.Valid)
	require.Contains(t, res.Message, "maximum number of times")

	// Anonymous shoppers skip the per-user gate.
	res, err = svc.Validate(ctx, ValidateInput{Code: "ONCE", CartTotalCents: 10000, Now: fixedClock()})
	require.NoError(t, err)
	require.True(t, res.Valid)
}

func TestValidateDiscountNeverExceedsTotal(t *testing.T) {
	repo := newStubCouponRepo()
	repo.byCode["ALL"] = &models.Coupon{
		ID:             uuid.New(),
		Code:           "ALL",
		DiscountType:   enums.DiscountTypeFixed,
		AmountOffCents: 999999,
		ValidFrom:      fixedClock().Add(-time.Hour),
		ValidUntil:     fixedClock().Add(time.Hour),
		Active:         true,
	}
	svc := newTestService(t, repo)

	for _, total := range []int{0, 1, 250, 99999} {
		res, err := svc.Validate(context.Background(), ValidateInput{
			Code: "ALL", CartTotalCents: total, Now: fixedClock(),
		})
		require.NoError(t, err)
		require.True(t, res.Valid)
		require.LessOrEqual(t, res.DiscountCents, total)
	}
}

func TestValidateStoreFailureSurfaces(t *testing.T) {
	repo := newStubCouponRepo()
	repo.findErr = errors.New("connection reset")
	svc := newTestService(t, repo)

	_, err := svc.Validate(context.Background(), ValidateInput{Code: "SAVE10", CartTotalCents: 1000, Now: fixedClock()})
	require.Error(t, err)
	var domainErr *pkgerrors.Error
	require.ErrorAs(t, err, &domainErr)
	require.Equal(t, pkgerrors.CodeDependency, domainErr.Code())
}

func TestRedeemCapExhausted(t *testing.T) {
	repo := newStubCouponRepo()
	repo.incrementOK = false
	svc := newTestService(t, repo)

	err := svc.Redeem(context.Background(), &gorm.DB{}, uuid.New())
	require.Error(t, err)
	var domainErr *pkgerrors.Error
	require.ErrorAs(t, err, &domainErr)
	require.Equal(t, pkgerrors.CodeStateConflict, domainErr.Code())
}

func TestCreateValidatesRule(t *testing.T) {
	repo := newStubCouponRepo()
	svc := newTestService(t, repo)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateCouponInput{
		Code:         "BAD",
		DiscountType: enums.DiscountTypePercentage,
		PercentOff:   decimal.Zero,
		ValidFrom:    fixedClock(),
		ValidUntil:   fixedClock().Add(time.Hour),
	})
	require.Error(t, err)

	created, err := svc.Create(ctx, CreateCouponInput{
		Code:         " save10 ",
		Title:        "Summer sale",
		DiscountType: enums.DiscountTypePercentage,
		PercentOff:   decimal.NewFromInt(10),
		ValidFrom:    fixedClock(),
		ValidUntil:   fixedClock().Add(time.Hour),
		Active:       true,
	})
	require.NoError(t, err)
	require.Equal(t, "SAVE10", created.Code)
}
