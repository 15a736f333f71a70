package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/bookwatch/internal/api"
	"github.com/jackzampolin/bookwatch/internal/view"
)

var (
	translateAll  bool
	translateWait bool
)

// TranslateResult is printed by the translate command.
type TranslateResult struct {
	BookID        string            `json:"book_id" yaml:"book_id"`
	Started       []string          `json:"started,omitempty" yaml:"started,omitempty"`
	Failed        map[string]string `json:"failed,omitempty" yaml:"failed,omitempty"`
	LaunchedTasks int               `json:"launched_tasks,omitempty" yaml:"launched_tasks,omitempty"`
	Board         *view.Snapshot    `json:"board,omitempty" yaml:"board,omitempty"`
}

var translateCmd = &cobra.Command{
	Use:   "translate <book_id> [section_id...]",
	Short: "Start jobs for sections of a book",
	Long: `Translate starts the configured operation (translate, summarize or
analyze) for the given sections, or for every unprocessed section with --all.
Sections that already have output are processed again.

Examples:
  bookwatch translate 3f2a ch1 ch2
  bookwatch translate 3f2a --all --wait
  bookwatch translate 3f2a ch3 --operation analyze --model models/gemini-1.5-pro`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		bookID, sections := args[0], args[1:]
		if len(sections) == 0 && !translateAll {
			return fmt.Errorf("name at least one section or pass --all")
		}

		c, err := newSession(ctx, bookID)
		if err != nil {
			return err
		}
		if _, err := c.Refresh(ctx); err != nil {
			return fmt.Errorf("failed to load book %s: %w", bookID, err)
		}

		result := TranslateResult{BookID: bookID}
		if translateAll {
			launched, err := c.StartAll(ctx)
			if err != nil {
				return err
			}
			result.LaunchedTasks = launched
		}
		for _, id := range sections {
			if err := c.StartSection(ctx, id); err != nil {
				if result.Failed == nil {
					result.Failed = make(map[string]string)
				}
				result.Failed[id] = err.Error()
				continue
			}
			result.Started = append(result.Started, id)
		}

		if translateWait {
			c.Board().Subscribe(view.NewPrinter(os.Stderr).Observe)
			select {
			case <-c.Done():
			case <-ctx.Done():
			}
		}
		c.StopPolling()

		snap := c.Board().Snapshot()
		result.Board = &snap
		if err := api.Output(result); err != nil {
			return err
		}
		if len(result.Failed) > 0 {
			return fmt.Errorf("%d section(s) failed to start", len(result.Failed))
		}
		return nil
	},
}

func init() {
	translateCmd.Flags().BoolVar(&translateAll, "all", false, "start every unprocessed section")
	translateCmd.Flags().BoolVar(&translateWait, "wait", false, "follow progress until the book settles")

	rootCmd.AddCommand(translateCmd)
}
