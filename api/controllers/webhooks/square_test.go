package webhooks

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/havenandoak/storefront-backend/internal/orders"
	"github.com/havenandoak/storefront-backend/internal/payments"
	"github.com/havenandoak/storefront-backend/pkg/db/models"
	"github.com/havenandoak/storefront-backend/pkg/enums"
	pkgerrors "github.com/havenandoak/storefront-backend/pkg/errors"
	"github.com/havenandoak/storefront-backend/pkg/outbox/idempotency"
	"github.com/havenandoak/storefront-backend/pkg/pagination"
)

type fakeOrdersService struct {
	order        *models.Order
	confirmCalls int
	confirmErr   error
}

func (f *fakeOrdersService) Create(ctx context.Context, input orders.CreateOrderInput) (*orders.CreateOrderResult, error) {
	return nil, nil
}

func (f *fakeOrdersService) GetByOrderNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	if f.order != nil && f.order.OrderNumber == orderNumber {
		return f.order, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
}

func (f *fakeOrdersService) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return f.order, nil
}

func (f *fakeOrdersService) List(ctx context.Context, params pagination.Params, filters orders.ListFilters) (*orders.OrderList, error) {
	return &orders.OrderList{}, nil
}

func (f *fakeOrdersService) Ship(ctx context.Context, input orders.ShipInput) (*models.Order, error) {
	return f.order, nil
}

func (f *fakeOrdersService) UpdateStatus(ctx context.Context, input orders.UpdateStatusInput) (*models.Order, error) {
	return f.order, nil
}

func (f *fakeOrdersService) Cancel(ctx context.Context, input orders.CancelInput) (*models.Order, error) {
	return f.order, nil
}

func (f *fakeOrdersService) Delete(ctx context.Context, orderID uuid.UUID, actor orders.Actor) error {
	return nil
}

func (f *fakeOrdersService) ConfirmPayment(ctx context.Context, orderID uuid.UUID, gatewayPaymentID string) (*models.Order, error) {
	f.confirmCalls++
	if f.confirmErr != nil {
		return nil, f.confirmErr
	}
	return f.order, nil
}

type fakeGateway struct {
	validSignature string
}

func (f *fakeGateway) StartCheckout(ctx context.Context, order *models.Order) (*payments.CheckoutSession, error) {
	return nil, nil
}

func (f *fakeGateway) Pay(ctx context.Context, input payments.PayInput) (*payments.PaymentResult, error) {
	return nil, nil
}

func (f *fakeGateway) VerifyWebhook(signature, notificationURL string, body []byte) bool {
	return signature == f.validSignature
}

type fakeIdempotencyStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newFakeIdempotencyStore() *fakeIdempotencyStore {
	return &fakeIdempotencyStore{data: map[string]string{}}
}

func (f *fakeIdempotencyStore) Get(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.data[key], nil
}

func (f *fakeIdempotencyStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.data[key]; exists {
		return false, nil
	}
	f.data[key] = "1"
	return true, nil
}

func (f *fakeIdempotencyStore) IdempotencyKey(scope, id string) string {
	return "ho:idempotency:" + scope + ":" + id
}

func (f *fakeIdempotencyStore) Del(ctx context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, key := range keys {
		delete(f.data, key)
	}
	return nil
}


func newGuard(t *testing.T) *idempotency.Manager {
	t.Helper()
	guard, err := idempotency.NewManager(newFakeIdempotencyStore(), time.Minute)
	if err != nil {
		t.Fatalf("guard setup: %v", err)
	}
	return guard
}

func buildPaymentEvent(t *testing.T, eventType, status, referenceID string) []byte {
	t.Helper()
	event := map[string]any{
		"event_id": uuid.NewString(),
		"type":     eventType,
		"data": map[string]any{
			"id": uuid.NewString(),
			"object": map[string]any{
				"payment": map[string]any{
					"id":           "pay_123",
					"status":       status,
					"reference_id": referenceID,
				},
			},
		},
	}
	payload, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	return payload
}

func postEvent(handler http.HandlerFunc, payload []byte, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/square", bytes.NewReader(payload))
	req.Header.Set(signatureHeader, signature)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestSquareWebhook_ConfirmsAndDeduplicates(t *testing.T) {
	order := &models.Order{
		ID:          uuid.New(),
		OrderNumber: "ORD-1K2J3H-AB12CD34",
		Status:      enums.OrderStatusPending,
	}
	svc := &fakeOrdersService{order: order}
	guard := newGuard(t)
	handler := SquareWebhook(svc, &fakeGateway{validSignature: "good"}, guard, "https://havenandoak.com/api/v1/webhooks/square", nil)

	payload := buildPaymentEvent(t, "payment.updated", "COMPLETED", order.OrderNumber)

	rec := postEvent(handler, payload, "good")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if svc.confirmCalls != 1 {
		t.Fatalf("expected 1 confirm call, got %d", svc.confirmCalls)
	}

	rec2 := postEvent(handler, payload, "good")
	if rec2.Code != http.StatusOK {
		t.Fatalf("expected 200 on redelivery, got %d", rec2.Code)
	}
	if svc.confirmCalls != 1 {
		t.Fatalf("redelivery should not confirm again, got %d calls", svc.confirmCalls)
	}
}

func TestSquareWebhook_InvalidSignature(t *testing.T) {
	svc := &fakeOrdersService{}
	guard := newGuard(t)
	handler := SquareWebhook(svc, &fakeGateway{validSignature: "good"}, guard, "https://havenandoak.com/api/v1/webhooks/square", nil)

	payload := buildPaymentEvent(t, "payment.updated", "COMPLETED", "ORD-X-00000000")

	rec := postEvent(handler, payload, "forged")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad signature, got %d", rec.Code)
	}
	if svc.confirmCalls != 0 {
		t.Fatal("service should not be invoked on invalid signature")
	}
}

func TestSquareWebhook_IgnoresNonPaymentEvents(t *testing.T) {
	svc := &fakeOrdersService{}
	guard := newGuard(t)
	handler := SquareWebhook(svc, &fakeGateway{validSignature: "good"}, guard, "https://havenandoak.com/api/v1/webhooks/square", nil)

	payload := buildPaymentEvent(t, "customer.created", "COMPLETED", "ORD-X-00000000")

	rec := postEvent(handler, payload, "good")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 ack, got %d", rec.Code)
	}
	if svc.confirmCalls != 0 {
		t.Fatal("non-payment events must not reach the order service")
	}
}

func TestSquareWebhook_SkipsIncompletePayments(t *testing.T) {
	svc := &fakeOrdersService{}
	guard := newGuard(t)
	handler := SquareWebhook(svc, &fakeGateway{validSignature: "good"}, guard, "https://havenandoak.com/api/v1/webhooks/square", nil)

	payload := buildPaymentEvent(t, "payment.updated", "PENDING", "ORD-X-00000000")

	rec := postEvent(handler, payload, "good")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 ack, got %d", rec.Code)
	}
	if svc.confirmCalls != 0 {
		t.Fatal("incomplete payments must not confirm orders")
	}
}

func TestSquareWebhook_HandlerFailureAllowsRetry(t *testing.T) {
	order := &models.Order{
		ID:          uuid.New(),
		OrderNumber: "ORD-1K2J3H-AB12CD34",
		Status:      enums.OrderStatusPending,
	}
	svc := &fakeOrdersService{order: order, confirmErr: pkgerrors.New(pkgerrors.CodeDependency, "db down")}
	guard := newGuard(t)
	handler := SquareWebhook(svc, &fakeGateway{validSignature: "good"}, guard, "https://havenandoak.com/api/v1/webhooks/square", nil)

	payload := buildPaymentEvent(t, "payment.updated", "COMPLETED", order.OrderNumber)

	rec := postEvent(handler, payload, "good")
	if rec.Code == http.StatusOK {
		t.Fatal("expected failure status when confirmation fails")
	}

	svc.confirmErr = nil
	rec2 := postEvent(handler, payload, "good")
	if rec2.Code != http.StatusOK {
		t.Fatalf("expected retry to succeed, got %d", rec2.Code)
	}
	if svc.confirmCalls != 2 {
		t.Fatalf("expected 2 confirm attempts, got %d", svc.confirmCalls)
	}
}
