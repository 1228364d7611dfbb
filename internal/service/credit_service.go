package service

import (
	"context"
	"fmt"
	"strings"

	apperrors "quickchat/internal/errors"
	"quickchat/internal/models"
	"quickchat/internal/payment"
	"quickchat/internal/queue"
	"quickchat/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// CreditService handles plans, checkout and webhook-driven fulfilment.
type CreditService struct {
	txnRepo     repository.TransactionRepository
	gateway     payment.Gateway
	fulfiller   queue.Fulfiller
	queue       queue.Queue
	appID       string
	frontendURL string
	log         *zap.Logger
}

// CreditServiceConfig holds configuration for CreditService.
type CreditServiceConfig struct {
	TransactionRepo repository.TransactionRepository
	Gateway         payment.Gateway
	Fulfiller       queue.Fulfiller
	// Queue takes fulfilments that failed inline, for retry in the background.
	Queue queue.Queue
	AppID string
	// FrontendURL is used for checkout redirects when the request carries no Origin.
	FrontendURL string
	Log         *zap.Logger
}

// NewCreditService creates a new CreditService.
func NewCreditService(cfg CreditServiceConfig) *CreditService {
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}
	return &CreditService{
		txnRepo:     cfg.TransactionRepo,
		gateway:     cfg.Gateway,
		fulfiller:   cfg.Fulfiller,
		queue:       cfg.Queue,
		appID:       cfg.AppID,
		frontendURL: strings.TrimRight(cfg.FrontendURL, "/"),
		log:         cfg.Log.Named("credits"),
	}
}

// ListPlans returns the purchasable plans.
func (s *CreditService) ListPlans() []models.Plan {
	return models.Plans
}

// Purchase records an unpaid transaction and opens a checkout session for it.
func (s *CreditService) Purchase(ctx context.Context, userID primitive.ObjectID, req *models.PurchaseRequest, origin string) (*models.PurchaseResponse, error) {
	plan, ok := models.FindPlan(req.PlanID)
	if !ok {
		return nil, apperrors.ErrInvalidPlan
	}

	origin = strings.TrimRight(origin, "/")
	if origin == "" {
		origin = s.frontendURL
	}

	txn := &models.Transaction{
		UserID:  userID,
		PlanID:  plan.ID,
		Amount:  plan.Price,
		Credits: plan.Credits,
	}
	if err := s.txnRepo.Create(ctx, txn); err != nil {
		return nil, err
	}

	checkout, err := s.gateway.CreateCheckout(ctx, payment.CheckoutRequest{
		TransactionID: txn.ID.Hex(),
		PlanName:      plan.Name,
		AmountCents:   plan.PriceInCents(),
		SuccessURL:    origin + "/loading",
		CancelURL:     origin,
	})
	if err != nil {
		return nil, err
	}

	if err := s.txnRepo.SetSessionID(ctx, txn.ID, checkout.SessionID); err != nil {
		return nil, err
	}

	return &models.PurchaseResponse{URL: checkout.URL, TransactionID: txn.ID.Hex()}, nil
}

// ListTransactions returns the user's purchases, newest first.
func (s *CreditService) ListTransactions(ctx context.Context, userID primitive.ObjectID) ([]models.Transaction, error) {
	return s.txnRepo.FindByUser(ctx, userID)
}

// HandleWebhook verifies a payment event and fulfils paid checkouts of this
// app before acknowledging. Events it does not act on are acknowledged. When
// fulfilment fails the job is also queued for a background retry, and
// ErrFulfillmentUnavailable is returned so the provider redelivers.
func (s *CreditService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := s.gateway.ParseWebhook(payload, signature)
	if err != nil {
		return err
	}

	log := s.log.With(zap.String("eventId", event.ID), zap.String("type", event.Type))

	checkout := event.Checkout
	if checkout == nil {
		log.Debug("ignoring event")
		return nil
	}
	if checkout.AppID != s.appID {
		log.Debug("ignoring checkout for another app", zap.String("appId", checkout.AppID))
		return nil
	}
	if !checkout.Paid {
		log.Info("checkout completed without payment", zap.String("sessionId", checkout.SessionID))
		return nil
	}

	txnID, err := primitive.ObjectIDFromHex(checkout.TransactionID)
	if err != nil {
		log.Warn("checkout carries an invalid transaction id", zap.String("transactionId", checkout.TransactionID))
		return nil
	}
	log = log.With(zap.String("transactionId", txnID.Hex()))
	job := queue.FulfillmentJob{TransactionID: txnID, EventID: event.ID}

	err = s.fulfiller.Fulfill(ctx, job)
	switch {
	case err == nil:
		log.Info("checkout fulfilled")
		return nil
	case queue.IsPermanent(err):
		log.Warn("checkout cannot be fulfilled", zap.Error(err))
		return nil
	}

	log.Error("inline fulfilment failed", zap.Error(err))
	if qErr := s.queue.Enqueue(job); qErr != nil {
		log.Warn("failed to queue fulfilment retry", zap.Error(qErr))
	}
	return fmt.Errorf("%w: %v", apperrors.ErrFulfillmentUnavailable, err)
}
