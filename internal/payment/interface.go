// Package payment integrates hosted checkout and webhook verification for
// credit purchases.
package payment

import "context"

//go:generate mockgen -destination=mocks/mock_payment.go -package=mocks quickchat/internal/payment Gateway

// CheckoutRequest describes one plan purchase.
type CheckoutRequest struct {
	TransactionID string
	PlanName      string
	AmountCents   int64
	SuccessURL    string
	CancelURL     string
}

// Checkout is a created hosted checkout page.
type Checkout struct {
	SessionID string
	URL       string
}

// WebhookEvent is a verified provider event. Checkout is set only for
// completed checkout sessions.
type WebhookEvent struct {
	ID       string
	Type     string
	Checkout *CompletedCheckout
}

// CompletedCheckout carries what fulfilment needs from a checkout session.
type CompletedCheckout struct {
	SessionID     string
	TransactionID string
	AppID         string
	Paid          bool
}

// Gateway creates checkout sessions and verifies webhook payloads.
type Gateway interface {
	CreateCheckout(ctx context.Context, req CheckoutRequest) (*Checkout, error)
	GetCheckout(ctx context.Context, sessionID string) (*CompletedCheckout, error)
	ParseWebhook(payload []byte, signature string) (*WebhookEvent, error)
}

// Ensure Stripe implements Gateway interface
var _ Gateway = (*Stripe)(nil)
