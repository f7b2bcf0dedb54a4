package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/havenandoak/storefront-backend/pkg/db/models"
	"github.com/havenandoak/storefront-backend/pkg/logger"
	"github.com/havenandoak/storefront-backend/pkg/outbox/payloads"
)

const (
	sendMaxRetries   = 4
	sendInitialDelay = 500 * time.Millisecond
)

// Service turns domain events into customer email and newsletter rows.
// Delivery faults are retried with backoff and surface to the consumer for
// redelivery; they never reach the order path.
type Service struct {
	mailer Mailer
	repo   Repository
	logg   *logger.Logger
}

func NewService(mailer Mailer, repo Repository, logg *logger.Logger) (*Service, error) {
	if mailer == nil {
		return nil, fmt.Errorf("mailer required")
	}
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	return &Service{mailer: mailer, repo: repo, logg: logg}, nil
}

func (s *Service) HandleOrderCreated(ctx context.Context, payload payloads.OrderCreatedEvent) error {
	body := fmt.Sprintf(
		"<p>Thanks for your order!</p><p>Order <strong>%s</strong> totals $%.2f.</p>",
		payload.OrderNumber, float64(payload.TotalCents)/100,
	)
	if payload.EstimatedDelivery != nil {
		body += fmt.Sprintf("<p>Estimated delivery: %s.</p>", payload.EstimatedDelivery.Format("Monday, Jan 2"))
	}
	return s.sendWithRetry(ctx, Email{
		To:      payload.CustomerEmail,
		Subject: fmt.Sprintf("Your Haven & Oak order %s", payload.OrderNumber),
		Body:    body,
	})
}

func (s *Service) HandleOrderShipped(ctx context.Context, customerEmail string, payload payloads.OrderShippedEvent) error {
	body := fmt.Sprintf(
		"<p>Order <strong>%s</strong> is on its way.</p><p>Tracking number: %s</p>",
		payload.OrderNumber, payload.TrackingNumber,
	)
	if payload.Carrier != "" {
		body += fmt.Sprintf("<p>Carrier: %s</p>", payload.Carrier)
	}
	return s.sendWithRetry(ctx, Email{
		To:      customerEmail,
		Subject: fmt.Sprintf("Your Haven & Oak order %s has shipped", payload.OrderNumber),
		Body:    body,
	})
}

func (s *Service) HandleNewsletterSubscribed(ctx context.Context, payload payloads.NewsletterSubscribedEvent) error {
	source := payload.Source
	if source == "" {
		source = "checkout"
	}
	return s.repo.UpsertSubscriber(ctx, &models.NewsletterSubscriber{
		Email:  payload.Email,
		Name:   payload.Name,
		Source: source,
	})
}

func (s *Service) sendWithRetry(ctx context.Context, email Email) error {
	backoff := retry.WithMaxRetries(sendMaxRetries, retry.NewExponential(sendInitialDelay))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := s.mailer.Send(ctx, email); err != nil {
			if s.logg != nil {
				s.logg.Warn(ctx, "mail send failed, retrying: "+err.Error())
			}
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("sending %q to %s: %w", email.Subject, email.To, err)
	}
	return nil
}
