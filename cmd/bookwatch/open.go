package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/bookwatch/internal/api"
	"github.com/jackzampolin/bookwatch/internal/content"
	"github.com/jackzampolin/bookwatch/internal/view"
)

var (
	openWait bool
	openRaw  bool
	openHTML bool
)

var openCmd = &cobra.Command{
	Use:   "open <book_id> <section_id>",
	Short: "Show a section's finished text, starting it if it has none",
	Long: `Open makes a section the active one and shows its content.

A section without content is started with the configured operation. With
--wait (the default) open keeps polling until the section finishes and then
shows the result.

Examples:
  bookwatch open 3f2a ch1
  bookwatch open 3f2a ch1 --raw          # Print the text only
  bookwatch open 3f2a ch1 --wait=false   # Start and return`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		bookID, sectionID := args[0], args[1]

		c, err := newSession(ctx, bookID)
		if err != nil {
			return err
		}

		settled := make(chan view.Content, 1)
		c.Board().Subscribe(func(ev view.Event) {
			if ev.Kind != view.ContentChanged || ev.Content.SectionID != sectionID {
				return
			}
			switch ev.Content.Kind {
			case view.ContentText, view.ContentError:
				select {
				case settled <- ev.Content:
				default:
				}
			}
		})

		if _, err := c.Refresh(ctx); err != nil {
			return fmt.Errorf("failed to load book %s: %w", bookID, err)
		}
		if err := c.LoadAndDisplay(ctx, sectionID, false); err != nil {
			return err
		}

		shown := c.Board().Content()
		if openWait && c.Polling() {
			api.Notice("waiting for %s to finish...", sectionID)
			select {
			case shown = <-settled:
			case <-c.Done():
				shown = c.Board().Content()
			case <-ctx.Done():
			}
			c.StopPolling()
		}

		if openRaw || openHTML {
			if shown.Kind != view.ContentText {
				return fmt.Errorf("%s: %s", sectionID, shown.Message)
			}
			if openHTML {
				fmt.Println(content.HTML(shown.Text))
			} else {
				fmt.Println(content.Plain(shown.Text))
			}
			return nil
		}
		return api.Output(shown)
	},
}

func init() {
	openCmd.Flags().BoolVar(&openWait, "wait", true, "wait for a started section to finish")
	openCmd.Flags().BoolVar(&openRaw, "raw", false, "print the plain text only")
	openCmd.Flags().BoolVar(&openHTML, "html", false, "print the text as HTML paragraphs")

	rootCmd.AddCommand(openCmd)
}
