package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/havenandoak/storefront-backend/pkg/config"
	"github.com/havenandoak/storefront-backend/pkg/logger"
)

// Email is a single outbound message.
type Email struct {
	To      string
	Subject string
	Body    string
}

// Mailer delivers transactional email. Failures are retried by the caller
// and never propagate to order handling.
type Mailer interface {
	Send(ctx context.Context, email Email) error
}

type sendgridMailer struct {
	apiKey  string
	from    string
	baseURL string
	client  *http.Client
}

// NewSendGridMailer builds a mailer against the SendGrid v3 send API.
func NewSendGridMailer(cfg config.MailerConfig) (Mailer, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("sendgrid api key required")
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = "https://api.sendgrid.com"
	}
	return &sendgridMailer{
		apiKey:  cfg.APIKey,
		from:    cfg.DefaultFrom,
		baseURL: base,
		client:  &http.Client{Timeout: 10 * time.Second},
	}, nil
}

type sendgridPayload struct {
	Personalizations []sendgridPersonalization `json:"personalizations"`
	From             sendgridAddress           `json:"from"`
	Subject          string                    `json:"subject"`
	Content          []sendgridContent         `json:"content"`
}

type sendgridPersonalization struct {
	To []sendgridAddress `json:"to"`
}

type sendgridAddress struct {
	Email string `json:"email"`
}

type sendgridContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

func (m *sendgridMailer) Send(ctx context.Context, email Email) error {
	if strings.TrimSpace(email.To) == "" {
		return fmt.Errorf("recipient required")
	}

	payload := sendgridPayload{
		Personalizations: []sendgridPersonalization{{To: []sendgridAddress{{Email: email.To}}}},
		From:             sendgridAddress{Email: m.from},
		Subject:          email.Subject,
		Content:          []sendgridContent{{Type: "text/html", Value: email.Body}},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/v3/mail/send", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+m.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("sendgrid returned %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	return nil
}

// NoopMailer drops every message. Used when SendGrid is not configured.
type NoopMailer struct {
	logg *logger.Logger
}

func NewNoopMailer(logg *logger.Logger) NoopMailer {
	return NoopMailer{logg: logg}
}

func (m NoopMailer) Send(ctx context.Context, email Email) error {
	if m.logg != nil {
		ctx = m.logg.WithFields(ctx, map[string]any{
			"to":      email.To,
			"subject": email.Subject,
		})
		m.logg.Info(ctx, "email dropped, mailer not configured")
	}
	return nil
}
