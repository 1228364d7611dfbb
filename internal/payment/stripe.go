package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	apperrors "quickchat/internal/errors"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/webhook"
)

// Metadata keys attached to every checkout session.
const (
	MetadataTransactionID = "transactionId"
	MetadataAppID         = "appId"
)

// checkoutTTL is how long a checkout page stays valid. Stripe rejects
// expires_at less than 30 minutes after it receives the request, so the
// TTL keeps a margin for clock skew and latency.
const checkoutTTL = 31 * time.Minute

// EventCheckoutCompleted is the only event that triggers fulfilment.
const EventCheckoutCompleted = string(stripe.EventTypeCheckoutSessionCompleted)

// Stripe implements Gateway with Stripe Checkout.
type Stripe struct {
	sessions      session.Client
	webhookSecret string
	appID         string
	now           func() time.Time
}

// NewStripe creates a Stripe gateway. appID is stamped on every session so
// webhooks from other apps sharing the account can be ignored.
func NewStripe(secretKey, webhookSecret, appID string) *Stripe {
	return &Stripe{
		sessions:      session.Client{B: stripe.GetBackend(stripe.APIBackend), Key: secretKey},
		webhookSecret: webhookSecret,
		appID:         appID,
		now:           time.Now,
	}
}

// CreateCheckout creates a one-off USD payment session for a plan.
func (s *Stripe) CreateCheckout(ctx context.Context, req CheckoutRequest) (*Checkout, error) {
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(string(stripe.CurrencyUSD)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(req.PlanName),
					},
					UnitAmount: stripe.Int64(req.AmountCents),
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
		ExpiresAt:  stripe.Int64(s.now().Add(checkoutTTL).Unix()),
	}
	params.Context = ctx
	params.AddMetadata(MetadataTransactionID, req.TransactionID)
	params.AddMetadata(MetadataAppID, s.appID)

	sess, err := s.sessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrPaymentProviderFailure, err)
	}

	return &Checkout{SessionID: sess.ID, URL: sess.URL}, nil
}

// GetCheckout fetches a checkout session to learn whether it was paid.
func (s *Stripe) GetCheckout(ctx context.Context, sessionID string) (*CompletedCheckout, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	sess, err := s.sessions.Get(sessionID, params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrPaymentProviderFailure, err)
	}

	return toCompletedCheckout(sess), nil
}

// ParseWebhook verifies the Stripe-Signature header and decodes the event.
func (s *Stripe) ParseWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, s.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidWebhookSignature, err)
	}

	out := &WebhookEvent{ID: event.ID, Type: string(event.Type)}
	if event.Type != stripe.EventTypeCheckoutSessionCompleted {
		return out, nil
	}

	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return nil, fmt.Errorf("decode checkout session: %w", err)
	}

	out.Checkout = toCompletedCheckout(&sess)
	return out, nil
}

func toCompletedCheckout(sess *stripe.CheckoutSession) *CompletedCheckout {
	return &CompletedCheckout{
		SessionID:     sess.ID,
		TransactionID: sess.Metadata[MetadataTransactionID],
		AppID:         sess.Metadata[MetadataAppID],
		Paid:          sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
	}
}
