package queue

import (
	"context"
	"errors"
	"sync"
	"time"

	apperrors "quickchat/internal/errors"
	"quickchat/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const (
	// MaxAttempts is the number of times a fulfilment is tried before giving up.
	MaxAttempts = 3
	// RetryDelay is the base delay between retries (exponential backoff).
	RetryDelay = 2 * time.Second
)

// TransactionStore loads and marks purchases paid. Implemented by
// repository.TransactionRepository.
type TransactionStore interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Transaction, error)
	MarkPaid(ctx context.Context, id primitive.ObjectID) (*models.Transaction, error)
}

// CreditGranter adds purchased credits at most once per transaction.
// Implemented by repository.UserRepository.
type CreditGranter interface {
	GrantPurchase(ctx context.Context, id, transactionID primitive.ObjectID, amount int) (int, error)
}

// Processor fulfils paid purchases from the queue.
type Processor struct {
	queue        *MemoryQueue
	transactions TransactionStore
	users        CreditGranter
	workerCount  int
	retryDelay   time.Duration
	log          *zap.Logger
	wg           sync.WaitGroup
	shutdownOnce sync.Once
	shutdownCh   chan struct{}
}

// NewProcessor creates a new fulfilment processor.
func NewProcessor(queue *MemoryQueue, transactions TransactionStore, users CreditGranter, workerCount int, log *zap.Logger) *Processor {
	if workerCount < 1 {
		workerCount = 1
	}
	return &Processor{
		queue:        queue,
		transactions: transactions,
		users:        users,
		workerCount:  workerCount,
		retryDelay:   RetryDelay,
		log:          log.Named("fulfillment"),
		shutdownCh:   make(chan struct{}),
	}
}

// Start begins processing jobs with the configured number of workers.
func (p *Processor) Start(ctx context.Context) {
	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
	p.log.Info("processor started", zap.Int("workers", p.workerCount))
}

// Stop closes the queue, lets workers drain what is queued and waits for them.
func (p *Processor) Stop() {
	p.shutdownOnce.Do(func() {
		close(p.shutdownCh)
		p.queue.Close()
	})
	p.wg.Wait()
	p.log.Info("processor stopped")
}

func (p *Processor) worker(ctx context.Context, id int) {
	defer p.wg.Done()

	for {
		job, err := p.queue.Dequeue(ctx)
		if err != nil {
			if errors.Is(err, ErrQueueClosed) || errors.Is(err, context.Canceled) {
				p.log.Debug("worker shutting down", zap.Int("worker", id))
				return
			}
			continue
		}
		p.processJob(ctx, job)
	}
}

// Fulfill grants the transaction's credits and then marks it paid. Both
// steps are idempotent, so a repeat after a partial failure finishes the
// job without granting twice. Errors matching IsPermanent never succeed on
// retry.
func (p *Processor) Fulfill(ctx context.Context, job FulfillmentJob) error {
	log := p.log.With(
		zap.String("transactionId", job.TransactionID.Hex()),
		zap.String("eventId", job.EventID),
	)

	txn, err := p.transactions.FindByID(ctx, job.TransactionID)
	if err != nil {
		return err
	}
	if txn.IsPaid {
		log.Info("transaction already fulfilled")
		return nil
	}

	balance, err := p.users.GrantPurchase(ctx, txn.UserID, txn.ID, txn.Credits)
	switch {
	case errors.Is(err, apperrors.ErrPurchaseAlreadyGranted):
		log.Info("credits already granted, finishing transaction")
	case err != nil:
		return err
	default:
		log.Info("credits granted",
			zap.String("userId", txn.UserID.Hex()),
			zap.Int("credits", txn.Credits),
			zap.Int("balance", balance),
		)
	}

	if _, err := p.transactions.MarkPaid(ctx, txn.ID); err != nil && !errors.Is(err, apperrors.ErrTransactionAlreadyPaid) {
		return err
	}
	return nil
}

// IsPermanent reports whether a Fulfill error will never succeed on retry.
func IsPermanent(err error) bool {
	return errors.Is(err, apperrors.ErrTransactionNotFound) || errors.Is(err, apperrors.ErrUserNotFound)
}

func (p *Processor) processJob(ctx context.Context, job FulfillmentJob) {
	err := p.Fulfill(ctx, job)
	if err == nil {
		return
	}

	log := p.log.With(
		zap.String("transactionId", job.TransactionID.Hex()),
		zap.String("eventId", job.EventID),
		zap.Int("attempt", job.RetryCount+1),
	)
	if IsPermanent(err) {
		log.Warn("dropping unfulfillable job", zap.Error(err))
		return
	}

	log.Error("fulfilment failed", zap.Error(err))
	p.handleFailure(job)
}

func (p *Processor) handleFailure(job FulfillmentJob) {
	job.RetryCount++
	log := p.log.With(zap.String("transactionId", job.TransactionID.Hex()))

	if job.RetryCount >= MaxAttempts {
		log.Error("fulfilment gave up, left for reconciliation", zap.Int("attempts", job.RetryCount))
		return
	}

	delay := p.retryDelay * time.Duration(1<<uint(job.RetryCount-1))
	log.Info("scheduling retry", zap.Duration("delay", delay), zap.Int("attempt", job.RetryCount+1))

	// Waits on shutdownCh rather than ctx so a pending retry is abandoned
	// with a log line when the server stops.
	go func() {
		select {
		case <-p.shutdownCh:
			log.Warn("shutdown during retry delay, left for reconciliation")
		case <-time.After(delay):
			if err := p.queue.Enqueue(job); err != nil {
				log.Error("failed to re-enqueue job", zap.Error(err))
			}
		}
	}()
}
