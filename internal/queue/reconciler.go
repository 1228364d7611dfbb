package queue

import (
	"context"
	"errors"
	"sync"
	"time"

	"quickchat/internal/models"
	"quickchat/internal/payment"

	"go.uber.org/zap"
)

// ReconcileLookback bounds how old an unpaid checkout can be and still be
// rechecked. It covers Stripe's three days of webhook redelivery.
const ReconcileLookback = 72 * time.Hour

// reconcileEventID marks jobs enqueued by the reconciler in logs.
const reconcileEventID = "reconcile"

// PendingCheckoutFinder lists unpaid transactions that reached checkout.
// Implemented by repository.TransactionRepository.
type PendingCheckoutFinder interface {
	FindPendingCheckouts(ctx context.Context, since time.Time) ([]models.Transaction, error)
}

// CheckoutLookup reads a checkout session from the payment provider.
// Implemented by payment.Gateway.
type CheckoutLookup interface {
	GetCheckout(ctx context.Context, sessionID string) (*payment.CompletedCheckout, error)
}

// Reconciler periodically asks the payment provider about unpaid checkouts
// and queues fulfilment for those that were paid, catching purchases whose
// webhook never arrived or whose fulfilment was abandoned.
type Reconciler struct {
	transactions PendingCheckoutFinder
	checkouts    CheckoutLookup
	queue        Queue
	interval     time.Duration
	now          func() time.Time
	log          *zap.Logger

	wg           sync.WaitGroup
	shutdownOnce sync.Once
	shutdownCh   chan struct{}
}

// NewReconciler creates a reconciler that runs every interval.
func NewReconciler(transactions PendingCheckoutFinder, checkouts CheckoutLookup, queue Queue, interval time.Duration, log *zap.Logger) *Reconciler {
	return &Reconciler{
		transactions: transactions,
		checkouts:    checkouts,
		queue:        queue,
		interval:     interval,
		now:          time.Now,
		log:          log.Named("reconciler"),
		shutdownCh:   make(chan struct{}),
	}
}

// Start runs a pass immediately, then one every interval.
func (r *Reconciler) Start(ctx context.Context) {
	r.wg.Add(1)
	go r.run(ctx)
	r.log.Info("reconciler started", zap.Duration("interval", r.interval))
}

// Stop ends the loop and waits for an in-flight pass.
func (r *Reconciler) Stop() {
	r.shutdownOnce.Do(func() { close(r.shutdownCh) })
	r.wg.Wait()
	r.log.Info("reconciler stopped")
}

func (r *Reconciler) run(ctx context.Context) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.Reconcile(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-r.shutdownCh:
			return
		case <-ticker.C:
			r.Reconcile(ctx)
		}
	}
}

// Reconcile performs one pass and returns how many jobs it queued.
func (r *Reconciler) Reconcile(ctx context.Context) int {
	txns, err := r.transactions.FindPendingCheckouts(ctx, r.now().Add(-ReconcileLookback))
	if err != nil {
		r.log.Error("failed to list pending checkouts", zap.Error(err))
		return 0
	}

	queued := 0
	for _, txn := range txns {
		log := r.log.With(
			zap.String("transactionId", txn.ID.Hex()),
			zap.String("sessionId", txn.StripeSessionID),
		)

		checkout, err := r.checkouts.GetCheckout(ctx, txn.StripeSessionID)
		if err != nil {
			log.Warn("failed to fetch checkout", zap.Error(err))
			continue
		}
		if !checkout.Paid {
			continue
		}
		if checkout.TransactionID != txn.ID.Hex() {
			log.Warn("checkout belongs to another transaction", zap.String("checkoutTransactionId", checkout.TransactionID))
			continue
		}

		if err := r.queue.Enqueue(FulfillmentJob{TransactionID: txn.ID, EventID: reconcileEventID}); err != nil {
			if errors.Is(err, ErrQueueFull) || errors.Is(err, ErrQueueClosed) {
				log.Warn("queue unavailable, deferring to next pass", zap.Error(err))
				break
			}
			log.Error("failed to enqueue", zap.Error(err))
			continue
		}
		log.Info("paid checkout queued for fulfilment")
		queued++
	}

	if queued > 0 {
		r.log.Info("reconciliation queued fulfilment", zap.Int("count", queued))
	}
	return queued
}
