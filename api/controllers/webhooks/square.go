package webhooks

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/havenandoak/storefront-backend/api/responses"
	"github.com/havenandoak/storefront-backend/internal/orders"
	"github.com/havenandoak/storefront-backend/internal/payments"
	pkgerrors "github.com/havenandoak/storefront-backend/pkg/errors"
	"github.com/havenandoak/storefront-backend/pkg/logger"
	"github.com/havenandoak/storefront-backend/pkg/outbox/idempotency"
)

const (
	signatureHeader = "x-square-hmacsha256-signature"
	webhookConsumer = "square-webhook"
	paymentUpdated  = "payment.updated"
	paymentCreated  = "payment.created"
)

// squareEvent is the envelope Square posts for payment notifications.
type squareEvent struct {
	EventID string `json:"event_id"`
	Type    string `json:"type"`
	Data    struct {
		ID     string `json:"id"`
		Object struct {
			Payment struct {
				ID          string `json:"id"`
				Status      string `json:"status"`
				ReferenceID string `json:"reference_id"`
			} `json:"payment"`
		} `json:"object"`
	} `json:"data"`
}

// SquareWebhook confirms card orders when the gateway reports a completed
// payment. The payment's reference id carries the order number.
func SquareWebhook(ordersSvc orders.Service, gateway payments.Gateway, guard *idempotency.Manager, notificationURL string, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if ordersSvc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		if gateway == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment gateway unavailable"))
			return
		}
		if guard == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "idempotency guard unavailable"))
			return
		}

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		signature := r.Header.Get(signatureHeader)
		if signature == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "square signature missing"))
			return
		}
		if !gateway.VerifyWebhook(signature, notificationURL, payload) {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid square signature"))
			return
		}

		var event squareEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode event"))
			return
		}

		if event.Type != paymentUpdated && event.Type != paymentCreated {
			responses.WriteSuccess(w, nil)
			return
		}
		payment := event.Data.Object.Payment
		if payment.Status != "COMPLETED" {
			responses.WriteSuccess(w, nil)
			return
		}
		if strings.TrimSpace(payment.ReferenceID) == "" || payment.ID == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "payment reference missing"))
			return
		}

		eventID, err := parseEventID(event)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid event id"))
			return
		}

		alreadyProcessed, err := guard.CheckAndMarkProcessed(ctx, webhookConsumer, eventID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency"))
			return
		}
		if alreadyProcessed {
			responses.WriteSuccess(w, nil)
			return
		}

		order, err := ordersSvc.GetByOrderNumber(ctx, payment.ReferenceID)
		if err != nil {
			_ = guard.Delete(ctx, webhookConsumer, eventID)
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if _, err := ordersSvc.ConfirmPayment(ctx, order.ID, payment.ID); err != nil {
			_ = guard.Delete(ctx, webhookConsumer, eventID)
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if logg != nil {
			logg.Info(ctx, fmt.Sprintf("square event %s processed", event.EventID))
		}
		responses.WriteSuccess(w, nil)
	}
}

func parseEventID(event squareEvent) (uuid.UUID, error) {
	raw := strings.TrimSpace(event.EventID)
	if raw == "" {
		raw = strings.TrimSpace(event.Data.ID)
	}
	return uuid.Parse(raw)
}
