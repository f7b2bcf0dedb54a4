package notifications

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/havenandoak/storefront-backend/pkg/db/models"
	"github.com/havenandoak/storefront-backend/pkg/outbox/payloads"
)

type fakeMailer struct {
	sent   []Email
	sendFn func(ctx context.Context, email Email) error
}

func (f *fakeMailer) Send(ctx context.Context, email Email) error {
	f.sent = append(f.sent, email)
	if f.sendFn != nil {
		return f.sendFn(ctx, email)
	}
	return nil
}

type fakeRepository struct {
	subscribers []*models.NewsletterSubscriber
	upsertFn    func(ctx context.Context, sub *models.NewsletterSubscriber) error
}

func (f *fakeRepository) UpsertSubscriber(ctx context.Context, sub *models.NewsletterSubscriber) error {
	f.subscribers = append(f.subscribers, sub)
	if f.upsertFn != nil {
		return f.upsertFn(ctx, sub)
	}
	return nil
}

func (f *fakeRepository) FindSubscriberByEmail(ctx context.Context, email string) (*models.NewsletterSubscriber, error) {
	for _, sub := range f.subscribers {
		if sub.Email == email {
			return sub, nil
		}
	}
	return nil, nil
}

func newTestService(mailer *fakeMailer, repo *fakeRepository) *Service {
	svc, err := NewService(mailer, repo, nil)
	if err != nil {
		panic(err)
	}
	return svc
}

func TestService_HandleOrderCreated(t *testing.T) {
	estimated := time.Date(2026, time.March, 9, 0, 0, 0, 0, time.UTC)
	mailer := &fakeMailer{}
	svc := newTestService(mailer, &fakeRepository{})

	err := svc.HandleOrderCreated(context.Background(), payloads.OrderCreatedEvent{
		OrderID:           uuid.New(),
		OrderNumber:       "ORD-1K2J3H-AB12CD34",
		CustomerEmail:     "maria@example.com",
		TotalCents:        118900,
		EstimatedDelivery: &estimated,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(mailer.sent) != 1 {
		t.Fatalf("expected 1 email, got %d", len(mailer.sent))
	}
	email := mailer.sent[0]
	if email.To != "maria@example.com" {
		t.Fatalf("unexpected recipient %q", email.To)
	}
	if !strings.Contains(email.Subject, "ORD-1K2J3H-AB12CD34") {
		t.Fatalf("subject missing order number: %q", email.Subject)
	}
	if !strings.Contains(email.Body, "$1189.00") {
		t.Fatalf("body missing total: %q", email.Body)
	}
	if !strings.Contains(email.Body, "Monday, Mar 9") {
		t.Fatalf("body missing delivery estimate: %q", email.Body)
	}
}

func TestService_HandleOrderShipped(t *testing.T) {
	mailer := &fakeMailer{}
	svc := newTestService(mailer, &fakeRepository{})

	err := svc.HandleOrderShipped(context.Background(), "sam@example.com", payloads.OrderShippedEvent{
		OrderID:        uuid.New(),
		OrderNumber:    "ORD-1K2J3H-AB12CD34",
		TrackingNumber: "1Z999AA10123456784",
		Carrier:        "UPS",
		ShippedAt:      time.Now(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(mailer.sent) != 1 {
		t.Fatalf("expected 1 email, got %d", len(mailer.sent))
	}
	email := mailer.sent[0]
	if email.To != "sam@example.com" {
		t.Fatalf("unexpected recipient %q", email.To)
	}
	if !strings.Contains(email.Body, "1Z999AA10123456784") {
		t.Fatalf("body missing tracking number: %q", email.Body)
	}
	if !strings.Contains(email.Body, "UPS") {
		t.Fatalf("body missing carrier: %q", email.Body)
	}
}

func TestService_HandleOrderCreated_RetriesTransientFailures(t *testing.T) {
	attempts := 0
	mailer := &fakeMailer{
		sendFn: func(ctx context.Context, email Email) error {
			attempts++
			if attempts < 3 {
				return errors.New("temporary upstream failure")
			}
			return nil
		},
	}
	svc := newTestService(mailer, &fakeRepository{})

	err := svc.HandleOrderCreated(context.Background(), payloads.OrderCreatedEvent{
		OrderID:       uuid.New(),
		OrderNumber:   "ORD-RETRY-AB12CD34",
		CustomerEmail: "retry@example.com",
		TotalCents:    9900,
	})
	if err != nil {
		t.Fatalf("expected retries to recover, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestService_HandleOrderCreated_GivesUpWhenContextExpires(t *testing.T) {
	mailer := &fakeMailer{
		sendFn: func(ctx context.Context, email Email) error {
			return errors.New("upstream down")
		},
	}
	svc := newTestService(mailer, &fakeRepository{})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := svc.HandleOrderCreated(ctx, payloads.OrderCreatedEvent{
		OrderID:       uuid.New(),
		OrderNumber:   "ORD-FAIL-AB12CD34",
		CustomerEmail: "fail@example.com",
		TotalCents:    9900,
	})
	if err == nil {
		t.Fatal("expected error when delivery keeps failing")
	}
}

func TestService_HandleNewsletterSubscribed(t *testing.T) {
	repo := &fakeRepository{}
	svc := newTestService(&fakeMailer{}, repo)

	err := svc.HandleNewsletterSubscribed(context.Background(), payloads.NewsletterSubscribedEvent{
		Email: "news@example.com",
		Name:  "News Reader",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.subscribers) != 1 {
		t.Fatalf("expected 1 subscriber, got %d", len(repo.subscribers))
	}
	sub := repo.subscribers[0]
	if sub.Email != "news@example.com" {
		t.Fatalf("unexpected email %q", sub.Email)
	}
	if sub.Source != "checkout" {
		t.Fatalf("expected default source, got %q", sub.Source)
	}
}
