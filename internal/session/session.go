// Package session drives one book view: it polls the backend for section
// status, reconciles each snapshot into a view.Board, dispatches processing
// jobs, and loads section content into the board's detail area.
//
// All state that a page-scoped script would keep in globals lives on a
// Controller, so independent sessions can run side by side.
package session

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackzampolin/bookwatch/internal/status"
	"github.com/jackzampolin/bookwatch/internal/types"
	"github.com/jackzampolin/bookwatch/internal/view"
)

// Defaults for Config.
const (
	DefaultInitialDelay   = 500 * time.Millisecond
	DefaultInterval       = 5 * time.Second
	DefaultRequestTimeout = 60 * time.Second
)

// Config configures a Controller.
type Config struct {
	Backend Backend
	// Board receives rendered state (default: a new board)
	Board  *view.Board
	BookID string
	// Language, Model and Operation are sent with every job request
	Language  string
	Model     string
	Operation status.Operation
	// InitialDelay is the wait before the first poll (default: 500ms)
	InitialDelay time.Duration
	// Interval is the wait between polls (default: 5s)
	Interval time.Duration
	// RequestTimeout bounds each backend call (default: 60s)
	RequestTimeout time.Duration
	Logger         *slog.Logger
}

// Stats counts poll activity.
type Stats struct {
	Polls   int64 `json:"polls" yaml:"polls"`
	Skipped int64 `json:"skipped" yaml:"skipped"`
	Failed  int64 `json:"failed" yaml:"failed"`
}

// Controller is one book session. It is safe for concurrent use.
type Controller struct {
	backend        Backend
	board          *view.Board
	bookID         string
	language       string
	model          string
	op             status.Operation
	initialDelay   time.Duration
	requestTimeout time.Duration
	logger         *slog.Logger

	interval  atomic.Int64
	inFlight  atomic.Bool
	tocLoaded atomic.Bool
	// dispatches moves before and after every job start request, so a poll
	// that overlapped one can tell its snapshot is stale.
	dispatches atomic.Int64

	polls   atomic.Int64
	skipped atomic.Int64
	failed  atomic.Int64

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a Controller.
func New(cfg Config) *Controller {
	if cfg.Operation == "" {
		cfg.Operation = status.OpTranslate
	}
	if cfg.Board == nil {
		cfg.Board = view.NewBoard(cfg.Operation)
	}
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = DefaultInitialDelay
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	c := &Controller{
		backend:        cfg.Backend,
		board:          cfg.Board,
		bookID:         cfg.BookID,
		language:       cfg.Language,
		model:          cfg.Model,
		op:             cfg.Operation,
		initialDelay:   cfg.InitialDelay,
		requestTimeout: cfg.RequestTimeout,
		logger:         logger.With("book_id", cfg.BookID),
	}
	c.interval.Store(int64(cfg.Interval))
	return c
}

// Board returns the board the controller renders into.
func (c *Controller) Board() *view.Board {
	return c.board
}

// BookID returns the book this session watches.
func (c *Controller) BookID() string {
	return c.bookID
}

// Stats returns poll counters.
func (c *Controller) Stats() Stats {
	return Stats{
		Polls:   c.polls.Load(),
		Skipped: c.skipped.Load(),
		Failed:  c.failed.Load(),
	}
}

func (c *Controller) jobRequest() types.JobRequest {
	return types.JobRequest{
		TargetLanguage: c.language,
		ModelName:      c.model,
		OperationType:  c.op,
	}
}

// requestContext bounds a backend call. It is detached from ctx's
// cancellation so stopping a session never aborts an in-flight request.
func (c *Controller) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), c.requestTimeout)
}
