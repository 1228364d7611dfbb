//go:build api

package testserver

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"quickchat/internal/models"
	"quickchat/internal/payment"
	"quickchat/internal/queue"
)

// DefaultReply is what FakeCompleter answers unless told otherwise.
const DefaultReply = "This is a test reply."

// TinyPNG is a 1x1 transparent PNG returned by FakeImageGenerator.
var TinyPNG = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
	0x0d, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00, 0x00, 0x00, 0x49,
	0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}

// FakeCompleter answers every prompt with a fixed reply or a fixed error.
type FakeCompleter struct {
	mu    sync.Mutex
	reply string
	err   error
	calls int
}

// NewFakeCompleter creates a completer answering DefaultReply.
func NewFakeCompleter() *FakeCompleter {
	return &FakeCompleter{reply: DefaultReply}
}

// Complete implements ai.Completer.
func (f *FakeCompleter) Complete(_ context.Context, _ []models.Message, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

// FailWith makes subsequent calls return err.
func (f *FakeCompleter) FailWith(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

// Calls returns how many completions were requested.
func (f *FakeCompleter) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// Reset restores the default reply and clears the call count.
func (f *FakeCompleter) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reply = DefaultReply
	f.err = nil
	f.calls = 0
}

// FakeImageGenerator returns TinyPNG for every prompt.
type FakeImageGenerator struct {
	mu      sync.Mutex
	prompts []string
}

// NewFakeImageGenerator creates a new FakeImageGenerator.
func NewFakeImageGenerator() *FakeImageGenerator {
	return &FakeImageGenerator{}
}

// Generate implements ai.ImageGenerator.
func (f *FakeImageGenerator) Generate(_ context.Context, prompt string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	return TinyPNG, nil
}

// Prompts returns every prompt rendered so far.
func (f *FakeImageGenerator) Prompts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.prompts...)
}

// Reset forgets recorded prompts.
func (f *FakeImageGenerator) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = nil
}

// FakeGateway creates checkout sessions locally and verifies webhooks with
// the real Stripe signature check.
type FakeGateway struct {
	*payment.Stripe
	appID string

	mu       sync.Mutex
	sessions []payment.CheckoutRequest
	paid     map[string]string
}

// NewFakeGateway creates a gateway verifying webhooks signed with webhookSecret.
func NewFakeGateway(webhookSecret, appID string) *FakeGateway {
	return &FakeGateway{
		Stripe: payment.NewStripe("sk_test_unused", webhookSecret, appID),
		appID:  appID,
	}
}

// CreateCheckout records the request and returns a deterministic session.
func (g *FakeGateway) CreateCheckout(_ context.Context, req payment.CheckoutRequest) (*payment.Checkout, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.sessions = append(g.sessions, req)
	id := fmt.Sprintf("cs_test_%d", len(g.sessions))
	return &payment.Checkout{
		SessionID: id,
		URL:       "https://checkout.stripe.com/c/pay/" + id,
	}, nil
}

// GetCheckout reports sessions marked with MarkSessionPaid as paid and every
// other session as open.
func (g *FakeGateway) GetCheckout(_ context.Context, sessionID string) (*payment.CompletedCheckout, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	txnID, paid := g.paid[sessionID]
	return &payment.CompletedCheckout{
		SessionID:     sessionID,
		TransactionID: txnID,
		AppID:         g.appID,
		Paid:          paid,
	}, nil
}

// MarkSessionPaid makes GetCheckout report the session as paid for transactionID.
func (g *FakeGateway) MarkSessionPaid(sessionID, transactionID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.paid == nil {
		g.paid = make(map[string]string)
	}
	g.paid[sessionID] = transactionID
}

// Requests returns every checkout request made so far.
func (g *FakeGateway) Requests() []payment.CheckoutRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]payment.CheckoutRequest(nil), g.sessions...)
}

// Reset forgets recorded checkout requests and paid sessions.
func (g *FakeGateway) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sessions = nil
	g.paid = nil
}

// FaultyFulfiller fails the next few inline fulfilments before delegating.
type FaultyFulfiller struct {
	next queue.Fulfiller

	mu       sync.Mutex
	failures int
}

// NewFaultyFulfiller wraps next.
func NewFaultyFulfiller(next queue.Fulfiller) *FaultyFulfiller {
	return &FaultyFulfiller{next: next}
}

// Fulfill fails while failures remain, then calls the wrapped fulfiller.
func (f *FaultyFulfiller) Fulfill(ctx context.Context, job queue.FulfillmentJob) error {
	f.mu.Lock()
	if f.failures > 0 {
		f.failures--
		f.mu.Unlock()
		return errors.New("database unavailable")
	}
	f.mu.Unlock()
	return f.next.Fulfill(ctx, job)
}

// FailNext makes the next n calls fail.
func (f *FaultyFulfiller) FailNext(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures = n
}

// Reset clears pending failures.
func (f *FaultyFulfiller) Reset() {
	f.FailNext(0)
}

var (
	_ payment.Gateway = (*FakeGateway)(nil)
	_ queue.Fulfiller = (*FaultyFulfiller)(nil)
)
