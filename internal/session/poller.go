package session

import (
	"context"
	"errors"
	"time"

	"github.com/jackzampolin/bookwatch/internal/api"
	"github.com/jackzampolin/bookwatch/internal/types"
)

// StartPolling starts the recurring status poll. The first poll runs after
// the initial delay, then one per interval. It returns false if polling is
// already running. The loop ends when StopPolling is called, ctx is done,
// or a poll observes a settled book.
func (c *Controller) StartPolling(ctx context.Context) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		return false
	}

	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	c.cancel, c.done = cancel, done
	go c.run(loopCtx, done)

	c.logger.Debug("polling started", "interval", c.PollInterval())
	return true
}

// StopPolling stops the recurring poll. In-flight requests finish on their
// own timeout. Safe to call when not running.
func (c *Controller) StopPolling() {
	c.mu.Lock()
	cancel := c.cancel
	c.cancel, c.done = nil, nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
		c.logger.Debug("polling stopped")
	}
}

// Polling reports whether the recurring poll is active.
func (c *Controller) Polling() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cancel != nil
}

// Done returns a channel closed when the current polling loop exits. If
// polling is not running the channel is already closed.
func (c *Controller) Done() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.done == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return c.done
}

// SetPollInterval changes the interval; it applies from the next tick.
func (c *Controller) SetPollInterval(d time.Duration) {
	if d > 0 {
		c.interval.Store(int64(d))
	}
}

// PollInterval returns the current interval.
func (c *Controller) PollInterval() time.Duration {
	return time.Duration(c.interval.Load())
}

func (c *Controller) run(ctx context.Context, done chan struct{}) {
	defer func() {
		c.mu.Lock()
		if c.done == done {
			c.cancel, c.done = nil, nil
		}
		c.mu.Unlock()
		close(done)
	}()

	timer := time.NewTimer(c.initialDelay)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
		// Ticks never wait on a slow request; the in-flight guard in Poll
		// skips overlapping ones instead.
		go c.Poll(ctx)
		timer.Reset(c.PollInterval())
	}
}

// Poll fetches the book status once and reconciles it. It returns false
// without calling the backend if another poll is still in flight. Failures
// are logged and leave the board untouched; a 404 or a settled book stops
// polling. A snapshot fetched while a job was being started is discarded,
// since it cannot reflect that job.
func (c *Controller) Poll(ctx context.Context) bool {
	if !c.inFlight.CompareAndSwap(false, true) {
		c.skipped.Add(1)
		c.logger.Debug("poll skipped, previous request still in flight")
		return false
	}
	defer c.inFlight.Store(false)
	c.polls.Add(1)

	gen := c.dispatches.Load()
	bs, err := c.fetch(ctx)
	if err != nil {
		c.failed.Add(1)
		if errors.Is(err, api.ErrNotFound) {
			c.logger.Warn("book not found, stopping polling", "error", err)
			c.StopPolling()
			return true
		}
		c.logger.Warn("status poll failed", "error", err)
		return true
	}

	if c.dispatches.Load() != gen {
		c.logger.Debug("discarding snapshot fetched before a job start")
		return true
	}
	c.ApplySnapshot(ctx, bs)
	if bs.Settled() {
		c.logger.Info("book settled, stopping polling", "status", bs.Status)
		c.StopPolling()
	}
	return true
}

// Refresh fetches the book status once and reconciles it, outside the
// polling loop and its guard.
func (c *Controller) Refresh(ctx context.Context) (*types.BookStatus, error) {
	bs, err := c.fetch(ctx)
	if err != nil {
		return nil, err
	}
	c.ApplySnapshot(ctx, bs)
	return bs, nil
}

func (c *Controller) fetch(ctx context.Context) (*types.BookStatus, error) {
	reqCtx, cancel := c.requestContext(ctx)
	defer cancel()
	return c.backend.BookStatus(reqCtx, c.bookID)
}
