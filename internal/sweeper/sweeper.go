// Package sweeper periodically removes chats that were created but never used.
package sweeper

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// EmptyChatDeleter deletes empty chats last updated before cutoff.
// Implemented by repository.ChatRepository.
type EmptyChatDeleter interface {
	DeleteEmptyBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Sweeper runs the empty-chat cleanup on a fixed interval.
type Sweeper struct {
	chats    EmptyChatDeleter
	ttl      time.Duration
	interval time.Duration
	now      func() time.Time
	log      *zap.Logger

	wg           sync.WaitGroup
	shutdownOnce sync.Once
	shutdownCh   chan struct{}
}

// New creates a sweeper deleting empty chats older than ttl every interval.
func New(chats EmptyChatDeleter, ttl, interval time.Duration, log *zap.Logger) *Sweeper {
	return &Sweeper{
		chats:      chats,
		ttl:        ttl,
		interval:   interval,
		now:        time.Now,
		log:        log.Named("sweeper"),
		shutdownCh: make(chan struct{}),
	}
}

// Start runs the sweep loop in the background.
func (s *Sweeper) Start(ctx context.Context) {
	s.wg.Add(1)
	go s.run(ctx)
	s.log.Info("sweeper started", zap.Duration("ttl", s.ttl), zap.Duration("interval", s.interval))
}

// Stop ends the loop and waits for an in-flight sweep.
func (s *Sweeper) Stop() {
	s.shutdownOnce.Do(func() { close(s.shutdownCh) })
	s.wg.Wait()
	s.log.Info("sweeper stopped")
}

func (s *Sweeper) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.shutdownCh:
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep performs one cleanup pass and returns how many chats were removed.
func (s *Sweeper) Sweep(ctx context.Context) int64 {
	cutoff := s.now().Add(-s.ttl)

	deleted, err := s.chats.DeleteEmptyBefore(ctx, cutoff)
	if err != nil {
		s.log.Error("failed to delete empty chats", zap.Error(err))
		return 0
	}
	if deleted > 0 {
		s.log.Info("deleted empty chats", zap.Int64("count", deleted), zap.Time("cutoff", cutoff))
	}
	return deleted
}
