package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/bookwatch/internal/config"
	"github.com/jackzampolin/bookwatch/internal/models"
	"github.com/jackzampolin/bookwatch/internal/session"
	"github.com/jackzampolin/bookwatch/internal/status"
	"github.com/jackzampolin/bookwatch/internal/view"
)

var (
	watchStartAll bool
	watchOpen     string
	watchTable    bool
	waitAttempts  uint
)

var watchCmd = &cobra.Command{
	Use:   "watch [book_id]",
	Short: "Follow a book's section status until it settles",
	Long: `Watch polls the backend for a book's section status and prints every
change as it happens. Polling stops once the book is complete (with or
without errors) and no section is processing, or on Ctrl+C.

poll.interval is re-read when the config file changes.

Examples:
  bookwatch watch 3f2a                  # Follow a book
  bookwatch watch 3f2a --start-all      # Translate everything untranslated
  bookwatch watch 3f2a --open ch2       # Show ch2, starting it if needed
  bookwatch watch --operation summarize --start-all`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		bookID, err := bookArg(args)
		if err != nil {
			return err
		}

		c, err := newSession(ctx, bookID)
		if err != nil {
			return err
		}
		c.Board().Subscribe(view.NewPrinter(os.Stdout).Observe)

		if cfgManager.WatchConfig() {
			cfgManager.OnChange(func(cfg *config.Config) {
				if cfg.Poll.Interval != c.PollInterval() {
					c.SetPollInterval(cfg.Poll.Interval)
					logger.Info("poll interval reloaded", "interval", cfg.Poll.Interval)
				}
			})
		}

		if _, err := c.Refresh(ctx); err != nil {
			return fmt.Errorf("failed to load book %s: %w", bookID, err)
		}

		if watchOpen != "" {
			if err := c.LoadAndDisplay(ctx, watchOpen, false); err != nil {
				logger.Warn("failed to open section", "section_id", watchOpen, "error", err)
			}
		}
		if watchStartAll {
			launched, err := c.StartAll(ctx)
			if err != nil {
				return err
			}
			logger.Info("bulk job launched", "launched_tasks", launched)
		}
		c.StartPolling(ctx)

		select {
		case <-ctx.Done():
			c.StopPolling()
		case <-c.Done():
		}

		if watchTable {
			fmt.Println()
			return view.WriteTable(os.Stdout, c.Board().Snapshot())
		}
		return nil
	},
}

// newSession waits for the backend, picks a model from its catalog, and
// builds a Controller from the current config.
func newSession(ctx context.Context, bookID string) (*session.Controller, error) {
	cfg := cfgManager.Get()
	client := newClient()

	if err := client.WaitReady(ctx, "/api/models", waitAttempts, time.Second); err != nil {
		return nil, fmt.Errorf("backend %s is not reachable: %w", client.BaseURL(), err)
	}

	model := cfg.Model
	if list, err := models.Load(ctx, client); err != nil {
		logger.Warn("model catalog unavailable, using configured model", "model", model, "error", err)
	} else if m, ok := models.Select(list, cfg.Model); ok {
		if m.Name != cfg.Model {
			logger.Info("configured model not offered, falling back", "configured", cfg.Model, "model", m.Name)
		}
		model = m.Name
	}

	return session.New(session.Config{
		Backend:        session.NewHTTPBackend(client),
		BookID:         bookID,
		Language:       cfg.Language,
		Model:          model,
		Operation:      status.ParseOperation(cfg.Operation),
		InitialDelay:   cfg.Poll.InitialDelay,
		Interval:       cfg.Poll.Interval,
		RequestTimeout: cfg.Poll.RequestTimeout,
		Logger:         logger,
	}), nil
}

func init() {
	watchCmd.Flags().BoolVar(&watchStartAll, "start-all", false, "start jobs for every unprocessed section")
	watchCmd.Flags().StringVar(&watchOpen, "open", "", "section to open (starts it if it has no content)")
	watchCmd.Flags().BoolVar(&watchTable, "table", true, "print the final board as a table")
	rootCmd.PersistentFlags().UintVar(&waitAttempts, "wait-attempts", 5, "attempts to reach the backend before giving up")

	rootCmd.AddCommand(watchCmd)
}
