// Package scheduler drives the reassignment cycle on a fixed interval,
// independent of request traffic.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	ErrAlreadyStarted  = errors.New("scheduler already started")
	ErrNotStarted      = errors.New("scheduler not started")
	ErrInvalidInterval = errors.New("scheduler interval must be positive")
)

// Runner is the work a Scheduler repeats.
type Runner interface {
	RunReassignmentCycle(ctx context.Context) error
}

// Scheduler runs one cycle as soon as it starts and another on every tick
// until stopped. A cycle that is running when the scheduler is stopped is
// allowed to finish; a pending wait is abandoned at once.
type Scheduler struct {
	runner   Runner
	interval time.Duration
	logger   *zap.Logger

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	done    chan struct{}
}

func New(runner Runner, interval time.Duration, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		runner:   runner,
		interval: interval,
		logger:   logger.Named("scheduler"),
	}
}

// Start launches the loop. It stops when ctx is done or Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return ErrAlreadyStarted
	}
	if s.interval <= 0 {
		return ErrInvalidInterval
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.started = true

	go s.loop(ctx, s.done)

	s.logger.Info("scheduler started", zap.Duration("interval", s.interval))
	return nil
}

// Stop cancels the loop and blocks until it has exited.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return ErrNotStarted
	}
	s.started = false
	s.cancel()
	done := s.done
	s.mu.Unlock()

	<-done
	s.logger.Info("scheduler stopped")
	return nil
}

func (s *Scheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if ctx.Err() != nil {
			return
		}
		s.runOnce(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("reassignment cycle panicked", zap.Any("panic", r), zap.Stack("stack"))
		}
	}()

	start := time.Now()
	if err := s.runner.RunReassignmentCycle(context.WithoutCancel(ctx)); err != nil {
		s.logger.Error("reassignment cycle failed", zap.Error(fmt.Errorf("run cycle: %w", err)))
		return
	}
	s.logger.Debug("reassignment cycle completed", zap.Duration("took", time.Since(start)))
}
