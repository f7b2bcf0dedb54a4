package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/havenandoak/storefront-backend/internal/catalog"
	"github.com/havenandoak/storefront-backend/internal/coupons"
	"github.com/havenandoak/storefront-backend/internal/payments"
	"github.com/havenandoak/storefront-backend/pkg/db/models"
	"github.com/havenandoak/storefront-backend/pkg/enums"
	pkgerrors "github.com/havenandoak/storefront-backend/pkg/errors"
	"github.com/havenandoak/storefront-backend/pkg/logger"
	"github.com/havenandoak/storefront-backend/pkg/outbox"
	"github.com/havenandoak/storefront-backend/pkg/outbox/payloads"
	"github.com/havenandoak/storefront-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type couponEngine interface {
	Validate(ctx context.Context, input coupons.ValidateInput) (*coupons.ValidationResult, error)
	Redeem(ctx context.Context, tx *gorm.DB, couponID uuid.UUID) error
}

// Service defines the order lifecycle operations.
type Service interface {
	Create(ctx context.Context, input CreateOrderInput) (*CreateOrderResult, error)
	GetByOrderNumber(ctx context.Context, orderNumber string) (*models.Order, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	List(ctx context.Context, params pagination.Params, filters ListFilters) (*OrderList, error)
	Ship(ctx context.Context, input ShipInput) (*models.Order, error)
	UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.Order, error)
	Cancel(ctx context.Context, input CancelInput) (*models.Order, error)
	Delete(ctx context.Context, orderID uuid.UUID, actor Actor) error
	// ConfirmPayment is driven by the gateway webhook for card orders.
	ConfirmPayment(ctx context.Context, orderID uuid.UUID, gatewayPaymentID string) (*models.Order, error)
}

type service struct {
	repo            Repository
	products        catalog.Repository
	couponSvc       couponEngine
	tx              txRunner
	outbox          outboxPublisher
	gateway         payments.Gateway
	logg            *logger.Logger
	defaultLeadDays int
}

// NewService builds an order service with the required dependencies. The
// payment gateway is optional; without one, card orders are refused.
func NewService(
	repo Repository,
	products catalog.Repository,
	couponSvc couponEngine,
	tx txRunner,
	outboxSvc outboxPublisher,
	gateway payments.Gateway,
	logg *logger.Logger,
	defaultLeadDays int,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if couponSvc == nil {
		return nil, fmt.Errorf("coupon service required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if defaultLeadDays <= 0 {
		defaultLeadDays = 5
	}
	return &service{
		repo:            repo,
		products:        products,
		couponSvc:       couponSvc,
		tx:              tx,
		outbox:          outboxSvc,
		gateway:         gateway,
		logg:            logg,
		defaultLeadDays: defaultLeadDays,
	}, nil
}

// Create assembles and persists a new order. Order, line items, first status
// entry, coupon redemption and outbox events commit in one transaction;
// nothing is written when any step fails.
func (s *service) Create(ctx context.Context, input CreateOrderInput) (*CreateOrderResult, error) {
	if err := validateCreateInput(input); err != nil {
		return nil, err
	}
	if input.PaymentMethod == enums.PaymentMethodCard && s.gateway == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "card payments unavailable")
	}
	now := time.Now().UTC()

	priced, err := s.priceCart(ctx, input.Items)
	if err != nil {
		return nil, err
	}
	subtotal := catalog.Subtotal(priced)

	var quote *coupons.ValidationResult
	if input.CouponCode != nil && strings.TrimSpace(*input.CouponCode) != "" {
		quote, err = s.couponSvc.Validate(ctx, coupons.ValidateInput{
			Code:           *input.CouponCode,
			CartTotalCents: subtotal,
			UserID:         input.UserID,
			Now:            now,
		})
		if err != nil {
			return nil, err
		}
		if !quote.Valid {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, quote.Message)
		}
	}

	orderNumber, err := GenerateOrderNumber(now)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate order number")
	}

	order := &models.Order{
		ID:                uuid.New(),
		OrderNumber:       orderNumber,
		CustomerName:      strings.TrimSpace(input.CustomerName),
		CustomerEmail:     strings.ToLower(strings.TrimSpace(input.CustomerEmail)),
		UserID:            input.UserID,
		Currency:          enums.CurrencyUSD,
		PaymentMethod:     input.PaymentMethod,
		Status:            enums.OrderStatusPending,
		SubtotalCents:     subtotal,
		TotalCents:        subtotal,
		DeliveryAddress:   input.DeliveryAddress,
		EstimatedDelivery: CalculateEstimatedDelivery(now, input.DeliveryAddress.City, s.defaultLeadDays),
		Notes:             input.Notes,
	}

	if quote != nil {
		order.DiscountCents = quote.DiscountCents
		order.TotalCents = subtotal - quote.DiscountCents
		order.CouponID = &quote.Coupon.ID
		order.CouponCode = &quote.Coupon.Code
	}

	for _, line := range priced {
		order.Items = append(order.Items, models.OrderLineItem{
			ID:             uuid.New(),
			OrderID:        order.ID,
			ProductID:      line.ProductID,
			VariantID:      line.VariantID,
			Name:           line.Name,
			VariantLabel:   line.VariantLabel,
			Quantity:       line.Quantity,
			UnitPriceCents: line.UnitPriceCents,
			TotalCents:     line.TotalCents,
		})
	}
	order.StatusUpdates = []models.OrderStatusUpdate{{
		ID:       uuid.New(),
		OrderID:  order.ID,
		Status:   enums.OrderStatusPending,
		Message:  "Order placed",
		Location: "Haven & Oak",
	}}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.CreateOrder(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist order")
		}

		if quote != nil {
			if err := s.couponSvc.Redeem(ctx, tx, quote.Coupon.ID); err != nil {
				return err
			}
			if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventCouponRedeemed,
				AggregateType: enums.AggregateCoupon,
				AggregateID:   quote.Coupon.ID,
				Data: payloads.CouponRedeemedEvent{
					CouponID:      quote.Coupon.ID,
					Code:          quote.Coupon.Code,
					OrderID:       order.ID,
					DiscountCents: quote.DiscountCents,
				},
			}); err != nil {
				return err
			}
		}

		estimated := order.EstimatedDelivery
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Data: payloads.OrderCreatedEvent{
				OrderID:           order.ID,
				OrderNumber:       order.OrderNumber,
				CustomerEmail:     order.CustomerEmail,
				PaymentMethod:     order.PaymentMethod,
				SubtotalCents:     order.SubtotalCents,
				DiscountCents:     order.DiscountCents,
				TotalCents:        order.TotalCents,
				CouponCode:        order.CouponCode,
				EstimatedDelivery: &estimated,
			},
		}); err != nil {
			return err
		}

		if input.NewsletterOptIn {
			if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventNewsletterSubscribed,
				AggregateType: enums.AggregateNewsletter,
				AggregateID:   order.ID,
				Data: payloads.NewsletterSubscribedEvent{
					Email:  order.CustomerEmail,
					Name:   order.CustomerName,
					Source: "checkout",
				},
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := &CreateOrderResult{Order: order, DiscountCents: order.DiscountCents}

	// Card orders get a hosted checkout session after commit. A gateway
	// failure here leaves the order pending; the session can be retried.
	if input.PaymentMethod == enums.PaymentMethodCard {
		session, err := s.gateway.StartCheckout(ctx, order)
		if err != nil {
			if s.logg != nil {
				s.logg.Error(ctx, "checkout session failed", err)
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "start checkout session")
		}
		if err := s.repo.UpdateOrder(ctx, order.ID, map[string]any{
			"checkout_session_id": session.ID,
		}); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record checkout session")
		}
		order.CheckoutSessionID = &session.ID
		result.CheckoutURL = &session.URL
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithOrderNumber(ctx, order.OrderNumber), "order created")
	}
	return result, nil
}

func (s *service) GetByOrderNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	if strings.TrimSpace(orderNumber) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order number required")
	}
	order, err := s.repo.FindByOrderNumber(ctx, orderNumber)
	if err != nil {
		return nil, mapNotFound(err, "order not found")
	}
	return order, nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, "order not found")
	}
	return order, nil
}

func (s *service) List(ctx context.Context, params pagination.Params, filters ListFilters) (*OrderList, error) {
	if filters.Status != nil && !filters.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown order status %q", *filters.Status))
	}
	list, err := s.repo.List(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return list, nil
}

// Ship attaches tracking details and advances the order. The write is an
// optimistic conditional update on the allowed pre-states: a concurrent
// shipper that loses the race gets a state conflict, never a double ship.
func (s *service) Ship(ctx context.Context, input ShipInput) (*models.Order, error) {
	tracking := strings.TrimSpace(input.TrackingNumber)
	if tracking == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tracking number required")
	}

	target := enums.OrderStatusShipped
	if input.OverrideStatus != nil {
		if !input.OverrideStatus.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown order status %q", *input.OverrideStatus))
		}
		target = *input.OverrideStatus
	}

	order, err := s.repo.FindByID(ctx, input.OrderID)
	if err != nil {
		return nil, mapNotFound(err, "order not found")
	}
	if !CanShip(order.Status) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot ship order in status %s", order.Status))
	}
	if err := EnsureTransition(order.Status, target); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	updates := map[string]any{
		"status":          target,
		"tracking_number": tracking,
	}
	if input.Carrier != nil {
		updates["carrier"] = strings.TrimSpace(*input.Carrier)
	}
	if input.Notes != nil {
		updates["notes"] = *input.Notes
	}
	if input.EstimatedDelivery != nil {
		updates["estimated_delivery"] = input.EstimatedDelivery.UTC()
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		matched, err := repo.UpdateStatusIf(ctx, order.ID, shipPreStates, updates)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "ship order")
		}
		if !matched {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order state changed, retry")
		}

		message := "Order shipped"
		if carrier := strings.TrimSpace(stringOrEmpty(input.Carrier)); carrier != "" {
			message = fmt.Sprintf("Order shipped via %s", carrier)
		}
		if err := repo.AppendStatusUpdate(ctx, &models.OrderStatusUpdate{
			ID:       uuid.New(),
			OrderID:  order.ID,
			Status:   target,
			Message:  message,
			Location: "Fulfillment center",
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append status update")
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderShipped,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         actorRef(input.Actor),
			Data: payloads.OrderShippedEvent{
				OrderID:        order.ID,
				OrderNumber:    order.OrderNumber,
				TrackingNumber: tracking,
				Carrier:        stringOrEmpty(input.Carrier),
				ShippedAt:      now,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, order.ID)
}

// UpdateStatus drives any legal transition through the state table and
// appends the matching history entry.
func (s *service) UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, input.OrderID)
	if err != nil {
		return nil, mapNotFound(err, "order not found")
	}
	if err := EnsureTransition(order.Status, input.ToStatus); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	message := strings.TrimSpace(input.Message)
	if message == "" {
		message = fmt.Sprintf("Status changed to %s", input.ToStatus)
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		matched, err := repo.UpdateStatusIf(ctx, order.ID, []enums.OrderStatus{order.Status}, map[string]any{
			"status": input.ToStatus,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		if !matched {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order state changed, retry")
		}

		if err := repo.AppendStatusUpdate(ctx, &models.OrderStatusUpdate{
			ID:       uuid.New(),
			OrderID:  order.ID,
			Status:   input.ToStatus,
			Message:  message,
			Location: strings.TrimSpace(input.Location),
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append status update")
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         actorRef(input.Actor),
			Data: payloads.OrderStatusChangedEvent{
				OrderID:     order.ID,
				OrderNumber: order.OrderNumber,
				FromStatus:  order.Status,
				ToStatus:    input.ToStatus,
				Message:     message,
				Location:    strings.TrimSpace(input.Location),
				ChangedAt:   now,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, order.ID)
}

func (s *service) Cancel(ctx context.Context, input CancelInput) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, input.OrderID)
	if err != nil {
		return nil, mapNotFound(err, "order not found")
	}
	if err := EnsureTransition(order.Status, enums.OrderStatusCancelled); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	reason := strings.TrimSpace(input.Reason)
	message := "Order cancelled"
	if reason != "" {
		message = "Order cancelled: " + reason
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		matched, err := repo.UpdateStatusIf(ctx, order.ID, []enums.OrderStatus{order.Status}, map[string]any{
			"status": enums.OrderStatusCancelled,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel order")
		}
		if !matched {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order state changed, retry")
		}

		if err := repo.AppendStatusUpdate(ctx, &models.OrderStatusUpdate{
			ID:      uuid.New(),
			OrderID: order.ID,
			Status:  enums.OrderStatusCancelled,
			Message: message,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append status update")
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCancelled,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         actorRef(input.Actor),
			Data: payloads.OrderCancelledEvent{
				OrderID:     order.ID,
				OrderNumber: order.OrderNumber,
				Reason:      reason,
				CancelledAt: now,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, order.ID)
}

// Delete removes an order entirely. In-flight orders are protected; the
// guard lives in the conditional DELETE so a concurrent transition cannot
// slip a moving order past the check.
func (s *service) Delete(ctx context.Context, orderID uuid.UUID, actor Actor) error {
	if _, err := s.repo.FindByID(ctx, orderID); err != nil {
		return mapNotFound(err, "order not found")
	}

	deleted, err := s.repo.DeleteIfNotInStatuses(ctx, orderID, inFlightStates)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete order")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "cannot delete an order that is in flight")
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithUserID(ctx, actor.UserID.String()), "order deleted")
	}
	return nil
}

// ConfirmPayment moves a pending card order to confirmed and records the
// gateway payment id. Repeat webhook deliveries after confirmation are
// treated as no-ops.
func (s *service) ConfirmPayment(ctx context.Context, orderID uuid.UUID, gatewayPaymentID string) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, mapNotFound(err, "order not found")
	}
	if order.Status == enums.OrderStatusConfirmed {
		return order, nil
	}
	if err := EnsureTransition(order.Status, enums.OrderStatusConfirmed); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		matched, err := repo.UpdateStatusIf(ctx, order.ID, []enums.OrderStatus{enums.OrderStatusPending}, map[string]any{
			"status":             enums.OrderStatusConfirmed,
			"gateway_payment_id": gatewayPaymentID,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "confirm payment")
		}
		if !matched {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order state changed, retry")
		}

		if err := repo.AppendStatusUpdate(ctx, &models.OrderStatusUpdate{
			ID:      uuid.New(),
			OrderID: order.ID,
			Status:  enums.OrderStatusConfirmed,
			Message: "Payment confirmed",
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append status update")
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderPaid,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Data: payloads.OrderPaidEvent{
				OrderID:          order.ID,
				OrderNumber:      order.OrderNumber,
				GatewayPaymentID: gatewayPaymentID,
				AmountCents:      order.TotalCents,
				PaidAt:           now,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, order.ID)
}

func (s *service) priceCart(ctx context.Context, items []LineItemInput) ([]catalog.PricedLine, error) {
	ids := make([]uuid.UUID, 0, len(items))
	seen := map[uuid.UUID]bool{}
	lines := make([]catalog.LineRequest, 0, len(items))
	for _, item := range items {
		if !seen[item.ProductID] {
			seen[item.ProductID] = true
			ids = append(ids, item.ProductID)
		}
		lines = append(lines, catalog.LineRequest{
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
		})
	}

	products, err := s.products.FindActiveByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
	}
	priced, err := catalog.PriceLines(products, lines)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "price cart")
	}
	return priced, nil
}

func validateCreateInput(input CreateOrderInput) error {
	if strings.TrimSpace(input.CustomerName) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer name required")
	}
	if strings.TrimSpace(input.CustomerEmail) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer email required")
	}
	if !input.PaymentMethod.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown payment method")
	}
	if len(input.Items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "order requires at least one item")
	}
	if missing := input.DeliveryAddress.Validate(); missing != "" {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("delivery address missing %s", missing))
	}
	return nil
}

func mapNotFound(err error, message string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, message)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, message)
}

func actorRef(actor Actor) *outbox.ActorRef {
	if actor.UserID == uuid.Nil {
		return nil
	}
	return &outbox.ActorRef{UserID: actor.UserID, Role: actor.Role.String()}
}

func stringOrEmpty(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
