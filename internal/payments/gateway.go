package payments

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/havenandoak/storefront-backend/pkg/db/models"
	pkgerrors "github.com/havenandoak/storefront-backend/pkg/errors"
	"github.com/havenandoak/storefront-backend/pkg/square"
)

// CheckoutSession is a hosted payment session for a card order. The customer
// finishes payment on the checkout page; the gateway webhook confirms it.
type CheckoutSession struct {
	ID  string
	URL string
}

// PayInput completes a checkout session with a client-side card token.
type PayInput struct {
	SessionID   string
	SourceToken string
	Order       *models.Order
}

// PaymentResult reports the gateway's view of a completed charge.
type PaymentResult struct {
	GatewayPaymentID string
	Status           string
}

// Gateway is the payment boundary consumed by the order service and the
// checkout controller.
type Gateway interface {
	StartCheckout(ctx context.Context, order *models.Order) (*CheckoutSession, error)
	Pay(ctx context.Context, input PayInput) (*PaymentResult, error)
	VerifyWebhook(signature, notificationURL string, body []byte) bool
}

type squareGateway struct {
	client      *square.Client
	checkoutURL string
}

// NewSquareGateway wires the Square client behind the Gateway interface.
// checkoutBaseURL is the public page where card customers complete payment.
func NewSquareGateway(client *square.Client, checkoutBaseURL string) (Gateway, error) {
	if client == nil {
		return nil, fmt.Errorf("square client required")
	}
	base := strings.TrimRight(strings.TrimSpace(checkoutBaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("checkout base url required")
	}
	return &squareGateway{client: client, checkoutURL: base}, nil
}

// StartCheckout registers the buyer with the gateway and hands back the
// hosted session. No charge happens here.
func (g *squareGateway) StartCheckout(ctx context.Context, order *models.Order) (*CheckoutSession, error) {
	if order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order required")
	}

	given, family := splitName(order.CustomerName)
	if _, err := g.client.CreateCustomer(ctx, square.CustomerCreateParams{
		Email:       order.CustomerEmail,
		GivenName:   given,
		FamilyName:  family,
		ReferenceID: order.OrderNumber,
	}); err != nil {
		return nil, err
	}

	sessionID := uuid.NewString()
	return &CheckoutSession{
		ID:  sessionID,
		URL: fmt.Sprintf("%s/checkout/%s", g.checkoutURL, sessionID),
	}, nil
}

func (g *squareGateway) Pay(ctx context.Context, input PayInput) (*PaymentResult, error) {
	if input.Order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order required")
	}
	if strings.TrimSpace(input.SourceToken) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment token required")
	}

	payment, err := g.client.CreatePayment(ctx, square.PaymentCreateParams{
		AmountCents: int64(input.Order.TotalCents),
		Currency:    input.Order.Currency.String(),
		SourceID:    input.SourceToken,
		// Session-scoped key so client retries never double-charge.
		IdempotencyKey: "ho-pay-" + input.SessionID,
		ReferenceID:    input.Order.OrderNumber,
	})
	if err != nil {
		return nil, err
	}

	result := &PaymentResult{}
	if payment.ID != nil {
		result.GatewayPaymentID = *payment.ID
	}
	if payment.Status != nil {
		result.Status = *payment.Status
	}
	return result, nil
}

func (g *squareGateway) VerifyWebhook(signature, notificationURL string, body []byte) bool {
	return g.client.VerifyWebhookSignature(signature, notificationURL, body)
}

func splitName(full string) (string, string) {
	parts := strings.Fields(full)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}
