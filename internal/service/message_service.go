package service

import (
	"context"
	"fmt"
	"time"

	"quickchat/internal/ai"
	"quickchat/internal/cache"
	apperrors "quickchat/internal/errors"
	"quickchat/internal/models"
	"quickchat/internal/repository"
	"quickchat/internal/storage"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const (
	// IdempotencyTTL is how long a completed send can be replayed.
	IdempotencyTTL = 24 * time.Hour
	// idempotencyPendingTTL bounds how long a crashed send blocks its key.
	idempotencyPendingTTL = 5 * time.Minute
	// refundTimeout bounds the refund after a failed send.
	refundTimeout = 5 * time.Second
	// recordStoreRetries is how often storing a completed record is retried
	// before the key is left pending.
	recordStoreRetries = 3
	// recordStoreTimeout bounds storing a completed record, retries included.
	recordStoreTimeout = 5 * time.Second
)

const (
	opText  = "text"
	opImage = "image"
)

const (
	idempotencyPending   = "pending"
	idempotencyCompleted = "completed"
)

// idempotencyRecord is what a claimed Idempotency-Key holds in the cache.
type idempotencyRecord struct {
	Status   string                      `json:"status"`
	Response *models.SendMessageResponse `json:"response,omitempty"`
}

// MessageService sends metered AI messages.
type MessageService struct {
	chatRepo  repository.ChatRepository
	userRepo  repository.UserRepository
	completer ai.Completer
	images    ai.ImageGenerator
	storage   storage.Storage
	cache     cache.Cache
	log       *zap.Logger
	now       func() time.Time
	newID     func() string

	recordRetryInterval time.Duration
}

// MessageServiceConfig holds configuration for MessageService.
type MessageServiceConfig struct {
	ChatRepo  repository.ChatRepository
	UserRepo  repository.UserRepository
	Completer ai.Completer
	Images    ai.ImageGenerator
	Storage   storage.Storage
	Cache     cache.Cache
	Log       *zap.Logger
}

// NewMessageService creates a new MessageService.
func NewMessageService(cfg MessageServiceConfig) *MessageService {
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}
	return &MessageService{
		chatRepo:  cfg.ChatRepo,
		userRepo:  cfg.UserRepo,
		completer: cfg.Completer,
		images:    cfg.Images,
		storage:   cfg.Storage,
		cache:     cfg.Cache,
		log:       cfg.Log,
		now:       time.Now,
		newID:     uuid.NewString,

		recordRetryInterval: 100 * time.Millisecond,
	}
}

// generateFunc produces the assistant reply for a chat.
type generateFunc func(ctx context.Context, chat *models.Chat) (models.Message, error)

type sendRequest struct {
	op             string
	userID         primitive.ObjectID
	chatID         string
	prompt         string
	cost           int
	idempotencyKey string
}

// SendText asks the completion provider for a reply. Costs 1 credit.
func (s *MessageService) SendText(ctx context.Context, userID primitive.ObjectID, req *models.TextMessageRequest, idempotencyKey string) (*models.SendMessageResponse, error) {
	return s.send(ctx, sendRequest{
		op:             opText,
		userID:         userID,
		chatID:         req.ChatID,
		prompt:         req.Prompt,
		cost:           models.TextMessageCost,
		idempotencyKey: idempotencyKey,
	}, func(ctx context.Context, chat *models.Chat) (models.Message, error) {
		reply, err := s.completer.Complete(ctx, chat.Messages, req.Prompt)
		if err != nil {
			return models.Message{}, fmt.Errorf("%w: %v", apperrors.ErrUpstreamFailure, err)
		}
		return models.Message{Role: models.RoleAssistant, Content: reply}, nil
	})
}

// SendImage generates an image, stores it and replies with its URL. Costs 2 credits.
func (s *MessageService) SendImage(ctx context.Context, userID primitive.ObjectID, req *models.ImageMessageRequest, idempotencyKey string) (*models.SendMessageResponse, error) {
	resp, err := s.send(ctx, sendRequest{
		op:             opImage,
		userID:         userID,
		chatID:         req.ChatID,
		prompt:         req.Prompt,
		cost:           models.ImageMessageCost,
		idempotencyKey: idempotencyKey,
	}, func(ctx context.Context, _ *models.Chat) (models.Message, error) {
		data, err := s.images.Generate(ctx, req.Prompt)
		if err != nil {
			return models.Message{}, fmt.Errorf("%w: %v", apperrors.ErrUpstreamFailure, err)
		}

		key := storage.ImageKey(userID.Hex(), s.newID())
		if err := s.storage.PutObject(ctx, key, data, "image/png"); err != nil {
			return models.Message{}, err
		}

		return models.Message{
			Role:        models.RoleAssistant,
			Content:     s.storage.PublicURL(key),
			IsImage:     true,
			IsPublished: req.IsPublished,
		}, nil
	})
	if err != nil {
		return nil, err
	}

	if req.IsPublished && !resp.Replayed {
		_ = s.cache.Delete(ctx, cache.PublishedImagesKey)
	}
	return resp, nil
}

// send runs the metered flow shared by text and image messages: replay or
// claim the idempotency key, check the chat, debit, generate, then persist
// both messages. The debit is refunded if anything after it fails.
func (s *MessageService) send(ctx context.Context, req sendRequest, generate generateFunc) (resp *models.SendMessageResponse, err error) {
	chatID, err := primitive.ObjectIDFromHex(req.chatID)
	if err != nil {
		return nil, apperrors.ErrInvalidChatID
	}

	if req.idempotencyKey != "" {
		key := cache.IdempotencyKey(req.userID.Hex(), req.op, req.idempotencyKey)

		replay, claimErr := s.claim(ctx, key)
		if claimErr != nil {
			return nil, claimErr
		}
		if replay != nil {
			return replay, nil
		}

		defer func() {
			if err != nil {
				// Release the key so the client can retry
				_ = s.cache.Delete(context.WithoutCancel(ctx), key)
				return
			}
			s.storeCompleted(ctx, key, resp)
		}()
	}

	chat, err := s.chatRepo.FindByIDAndUser(ctx, chatID, req.userID)
	if err != nil {
		return nil, err
	}

	userMessage := models.Message{
		Role:      models.RoleUser,
		Content:   req.prompt,
		Timestamp: s.now().UnixMilli(),
	}

	remaining, err := s.userRepo.DeductCredits(ctx, req.userID, req.cost)
	if err != nil {
		return nil, err
	}

	reply, err := generate(ctx, chat)
	if err != nil {
		s.refund(ctx, req.userID, req.cost)
		return nil, err
	}
	reply.Timestamp = s.now().UnixMilli()
	if reply.Timestamp <= userMessage.Timestamp {
		reply.Timestamp = userMessage.Timestamp + 1
	}

	if err := s.chatRepo.AppendMessages(ctx, chatID, req.userID, userMessage, reply); err != nil {
		s.refund(ctx, req.userID, req.cost)
		return nil, err
	}

	return &models.SendMessageResponse{Reply: reply, Credits: remaining}, nil
}

// claim reserves an idempotency key. It returns the stored response when
// the key already completed.
func (s *MessageService) claim(ctx context.Context, key string) (*models.SendMessageResponse, error) {
	claimed, err := s.cache.SetNX(ctx, key, idempotencyRecord{Status: idempotencyPending}, idempotencyPendingTTL)
	if err != nil {
		return nil, fmt.Errorf("claim idempotency key: %w", err)
	}
	if claimed {
		return nil, nil
	}

	var record idempotencyRecord
	found, err := s.cache.Get(ctx, key, &record)
	if err != nil {
		return nil, fmt.Errorf("read idempotency key: %w", err)
	}
	if !found || record.Status != idempotencyCompleted || record.Response == nil {
		return nil, apperrors.ErrRequestInProgress
	}

	replay := *record.Response
	replay.Replayed = true
	return &replay, nil
}

// storeCompleted records a finished send under its idempotency key. If every
// attempt fails the key stays pending: retries are rejected until
// idempotencyPendingTTL expires, after which they would be charged again.
func (s *MessageService) storeCompleted(ctx context.Context, key string, resp *models.SendMessageResponse) {
	storeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordStoreTimeout)
	defer cancel()

	record := idempotencyRecord{Status: idempotencyCompleted, Response: resp}
	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(s.recordRetryInterval), recordStoreRetries), storeCtx)
	err := backoff.RetryNotify(func() error {
		return s.cache.Set(storeCtx, key, record, IdempotencyTTL)
	}, b, func(err error, wait time.Duration) {
		s.log.Warn("failed to store idempotency record, retrying", zap.String("key", key), zap.Duration("wait", wait), zap.Error(err))
	})
	if err != nil {
		s.log.Error("idempotency record lost, key stays pending",
			zap.String("key", key),
			zap.Duration("pendingFor", idempotencyPendingTTL),
			zap.Error(err),
		)
	}
}

// refund gives back a debit. It runs detached from the request context so a
// client disconnect cannot cancel it.
func (s *MessageService) refund(ctx context.Context, userID primitive.ObjectID, amount int) {
	refundCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), refundTimeout)
	defer cancel()

	if _, err := s.userRepo.AddCredits(refundCtx, userID, amount); err != nil {
		s.log.Error("failed to refund credits",
			zap.String("userId", userID.Hex()),
			zap.Int("amount", amount),
			zap.Error(err),
		)
	}
}
