package service

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
)

// TaskHandle controls one running periodic task.
type TaskHandle struct {
	cancelled atomic.Bool
	cancel    context.CancelFunc
	done      chan struct{}
}

// Cancel stops the task. It does not block; once it returns no new tick
// body will start. A tick body already running finishes on its own.
func (h *TaskHandle) Cancel() {
	if h == nil {
		return
	}
	h.cancelled.Store(true)
	h.cancel()
}

// Wait blocks until the task goroutine has exited.
func (h *TaskHandle) Wait() {
	if h == nil {
		return
	}
	<-h.done
}

// Active reports whether the task has not been cancelled.
func (h *TaskHandle) Active() bool {
	return h != nil && !h.cancelled.Load()
}

// Scheduler starts periodic tasks on a clock. The clock is injectable so tests
// can advance time by hand.
type Scheduler struct {
	clock clock.Clock
}

// NewScheduler returns a scheduler on clk, or on the wall clock when clk is nil.
func NewScheduler(clk clock.Clock) *Scheduler {
	if clk == nil {
		clk = clock.New()
	}
	return &Scheduler{clock: clk}
}

// Clock exposes the scheduler's time source.
func (s *Scheduler) Clock() clock.Clock { return s.clock }

// Every runs fn once per period until the handle is cancelled or ctx ends.
// The first tick fires one period after the call.
func (s *Scheduler) Every(ctx context.Context, period time.Duration, fn func(ctx context.Context)) *TaskHandle {
	ctx, cancel := context.WithCancel(ctx)
	h := &TaskHandle{cancel: cancel, done: make(chan struct{})}
	t := s.clock.Ticker(period)

	go func() {
		defer close(h.done)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				// a tick may be delivered together with the cancellation
				if h.cancelled.Load() || ctx.Err() != nil {
					return
				}
				fn(ctx)
			}
		}
	}()
	return h
}

// Sleep waits d on the scheduler clock or until ctx ends.
func (s *Scheduler) Sleep(ctx context.Context, d time.Duration) error {
	t := s.clock.Timer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
