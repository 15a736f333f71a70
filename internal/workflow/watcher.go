package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jackzampolin/bookwatch/internal/api"
	"github.com/jackzampolin/bookwatch/internal/types"
)

// DefaultInterval is the workflow status poll interval.
const DefaultInterval = 5 * time.Second

// Outcome is why a watch ended.
type Outcome int

const (
	OutcomeFinished Outcome = iota
	OutcomeAwaitingEdit
	OutcomeStopped
)

// WatcherConfig configures a Watcher.
type WatcherConfig struct {
	Client *Client
	// Interval between status polls (default: 5s)
	Interval time.Duration
	// Admin pauses at awaiting_edit and loads the analysis for editing
	Admin  bool
	Logger *slog.Logger

	// OnStatus is called with every fetched status.
	OnStatus func(*types.WorkflowStatus)
	// OnAwaitingEdit is called with the analysis text when an admin watch
	// reaches the edit pause.
	OnAwaitingEdit func(bookID, analysis string)
	// OnFinished is called when the workflow completes or fails.
	OnFinished func(*types.WorkflowStatus)
}

// Watcher polls workflow status for any number of books, at most one loop
// per book.
type Watcher struct {
	cfg    WatcherConfig
	logger *slog.Logger

	mu      sync.Mutex
	watches map[string]*watch
}

type watch struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// NewWatcher creates a Watcher.
func NewWatcher(cfg WatcherConfig) *Watcher {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		cfg:     cfg,
		logger:  logger,
		watches: make(map[string]*watch),
	}
}

// Watch starts watching a book in the background. An existing watch of the
// same book is cancelled and replaced; Watch returns once it has exited.
func (w *Watcher) Watch(ctx context.Context, bookID string) {
	ctx, cancel := context.WithCancel(ctx)
	wt := &watch{cancel: cancel, done: make(chan struct{})}

	w.mu.Lock()
	prev, replaced := w.watches[bookID]
	w.watches[bookID] = wt
	w.mu.Unlock()

	if replaced {
		prev.cancel()
		<-prev.done
	}

	go func() {
		defer close(wt.done)
		defer func() {
			w.mu.Lock()
			if w.watches[bookID] == wt {
				delete(w.watches, bookID)
			}
			w.mu.Unlock()
		}()
		if _, err := w.Run(ctx, bookID); err != nil && !errors.Is(err, context.Canceled) {
			w.logger.Error("workflow watch ended with error", "book_id", bookID, "error", err)
		}
	}()
}

// Stop ends the watch of a book and waits for its loop to exit.
func (w *Watcher) Stop(bookID string) {
	w.mu.Lock()
	wt, ok := w.watches[bookID]
	delete(w.watches, bookID)
	w.mu.Unlock()

	if ok {
		wt.cancel()
		<-wt.done
	}
}

// StopAll ends every watch.
func (w *Watcher) StopAll() {
	w.mu.Lock()
	ids := make([]string, 0, len(w.watches))
	for id := range w.watches {
		ids = append(ids, id)
	}
	w.mu.Unlock()

	for _, id := range ids {
		w.Stop(id)
	}
}

// Watching reports whether a book has an active watch.
func (w *Watcher) Watching(bookID string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.watches[bookID]
	return ok
}

// WatchAll runs a blocking watch per book and returns when all have ended.
// The first error cancels the rest.
func (w *Watcher) WatchAll(ctx context.Context, bookIDs []string) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, id := range bookIDs {
		g.Go(func() error {
			_, err := w.Run(ctx, id)
			return err
		})
	}
	return g.Wait()
}

// Run polls one book until its workflow finishes, pauses for an admin edit,
// or ctx is done. Transient fetch errors are logged and retried on the next
// tick; a missing book ends the watch with an error.
func (w *Watcher) Run(ctx context.Context, bookID string) (Outcome, error) {
	logger := w.logger.With("book_id", bookID)
	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	for {
		ws, err := w.cfg.Client.Status(ctx, bookID)
		switch {
		case errors.Is(err, api.ErrNotFound):
			return OutcomeStopped, fmt.Errorf("workflow book %s: %w", bookID, err)
		case err != nil:
			if ctx.Err() != nil {
				return OutcomeStopped, ctx.Err()
			}
			logger.Warn("workflow status poll failed", "error", err)
		default:
			if w.cfg.OnStatus != nil {
				w.cfg.OnStatus(ws)
			}
			if w.cfg.Admin && ws.AwaitingEdit() {
				logger.Info("workflow awaiting analysis edit")
				return OutcomeAwaitingEdit, w.loadForEdit(ctx, bookID)
			}
			if ws.IsFinished() {
				logger.Info("workflow finished", "status", ws.CurrentWorkflowStatus)
				if w.cfg.OnFinished != nil {
					w.cfg.OnFinished(ws)
				}
				return OutcomeFinished, nil
			}
		}

		select {
		case <-ctx.Done():
			return OutcomeStopped, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (w *Watcher) loadForEdit(ctx context.Context, bookID string) error {
	analysis, err := w.cfg.Client.DownloadAnalysis(ctx, bookID)
	if err != nil {
		return fmt.Errorf("failed to load analysis for editing: %w", err)
	}
	if w.cfg.OnAwaitingEdit != nil {
		w.cfg.OnAwaitingEdit(bookID, analysis)
	}
	return nil
}
