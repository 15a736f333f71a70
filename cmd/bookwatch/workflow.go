package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/bookwatch/internal/api"
	"github.com/jackzampolin/bookwatch/internal/types"
	"github.com/jackzampolin/bookwatch/internal/workflow"
)

var (
	wfAdmin        bool
	wfWatch        bool
	wfAnalysisFile string
	wfSave         bool
)

var workflowCmd = &cobra.Command{
	Use:   "workflow",
	Short: "Drive the multi-stage book workflow",
	Long: `The workflow runs a book through summarize, analyze, translate and epub.

Started with --admin, it pauses after analysis so the analysis can be edited
before translation. "workflow watch" saves the analysis to
~/.bookwatch/edits/<book_id>.analysis.md at the pause; "workflow continue"
resumes with the edited file.

Examples:
  bookwatch workflow upload novel.txt --lang french --admin --watch
  bookwatch workflow continue 3f2a
  bookwatch workflow status 3f2a
  bookwatch workflow summary 3f2a --save`,
}

func workflowClient() *workflow.Client {
	return workflow.NewClient(newClient())
}

// watchWorkflows blocks until every book's workflow finishes or pauses.
func watchWorkflows(cmd *cobra.Command, bookIDs []string) error {
	w := workflow.NewWatcher(workflow.WatcherConfig{
		Client:   workflowClient(),
		Interval: cfgManager.Get().Workflow.PollInterval,
		Admin:    wfAdmin,
		Logger:   logger,
		OnStatus: func(ws *types.WorkflowStatus) {
			api.Notice("%s  %s  stage=%s", ws.BookID, ws.CurrentWorkflowStatus, ws.CurrentStageName)
		},
		OnAwaitingEdit: func(bookID, analysis string) {
			path, err := homePath.SaveAnalysisForEdit(bookID, analysis)
			if err != nil {
				logger.Error("failed to save analysis for editing", "book_id", bookID, "error", err)
				return
			}
			api.Notice("%s is awaiting an analysis edit: edit %s, then run `bookwatch workflow continue %s`", bookID, path, bookID)
		},
		OnFinished: func(ws *types.WorkflowStatus) {
			if err := api.Output(ws); err != nil {
				logger.Error("failed to print workflow status", "error", err)
			}
		},
	})
	return w.WatchAll(cmd.Context(), bookIDs)
}

var workflowUploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Upload a book and start its workflow",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		lang := cfgManager.Get().Language
		bookID, err := workflowClient().Upload(cmd.Context(), args[0], lang, wfAdmin)
		if err != nil {
			return err
		}
		if err := api.Output(types.UploadResponse{Status: "success", BookID: bookID}); err != nil {
			return err
		}
		if wfWatch {
			return watchWorkflows(cmd, []string{bookID})
		}
		return nil
	},
}

var workflowStatusCmd = &cobra.Command{
	Use:   "status <book_id>",
	Short: "Show a book's workflow status",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := workflowClient().Status(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return api.Output(ws)
	},
}

var workflowWatchCmd = &cobra.Command{
	Use:   "watch <book_id> [book_id...]",
	Short: "Follow workflows until they finish or pause for an edit",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return watchWorkflows(cmd, args)
	},
}

var workflowStartCmd = &cobra.Command{
	Use:   "start <book_id>",
	Short: "Restart the workflow of an existing book",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := workflowClient().Start(cmd.Context(), args[0], types.StartWorkflowRequest{Admin: wfAdmin})
		if err != nil {
			return err
		}
		if err := api.Output(resp); err != nil {
			return err
		}
		if wfWatch {
			return watchWorkflows(cmd, args)
		}
		return nil
	},
}

var workflowContinueCmd = &cobra.Command{
	Use:   "continue <book_id>",
	Short: "Resume a workflow paused for an analysis edit",
	Long: `Continue sends the edited analysis and resumes the workflow at the
translate stage. The analysis is read from --analysis-file, or from the file
"workflow watch" saved in ~/.bookwatch/edits.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		bookID := args[0]
		path := wfAnalysisFile
		if path == "" {
			path = homePath.AnalysisEditPath(bookID)
		}
		analysis, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read edited analysis: %w", err)
		}

		resp, err := workflowClient().ContinueAfterEdit(cmd.Context(), bookID, string(analysis), wfAdmin)
		if err != nil {
			return err
		}
		if err := api.Output(resp); err != nil {
			return err
		}
		if wfWatch {
			return watchWorkflows(cmd, args)
		}
		return nil
	},
}

var workflowDeleteCmd = &cobra.Command{
	Use:   "delete <book_id>",
	Short: "Delete a book and its workflow state",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := workflowClient().Delete(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return api.Output(resp)
	},
}

var workflowSectionsCmd = &cobra.Command{
	Use:   "sections <book_id>",
	Short: "List a book's sections with their workflow status",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sections, err := workflowClient().Sections(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return api.Output(sections)
	},
}

var workflowRetranslateCmd = &cobra.Command{
	Use:   "retranslate <book_id> <section_id>",
	Short: "Requeue one section's translation",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := workflowClient().RetranslateSection(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		return api.Output(resp)
	},
}

var workflowComicCmd = &cobra.Command{
	Use:   "comic <book_id>",
	Short: "Request comic generation for a finished book",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := workflowClient().GenerateComic(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return api.Output(resp)
	},
}

// downloadCmd builds the summary and analysis download commands.
func downloadCmd(artifact string, fetch func(*workflow.Client, *cobra.Command, string) (string, error)) *cobra.Command {
	return &cobra.Command{
		Use:   artifact + " <book_id>",
		Short: fmt.Sprintf("Print the book %s, or save it with --save", artifact),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := fetch(workflowClient(), cmd, args[0])
			if err != nil {
				return err
			}
			if !wfSave {
				fmt.Println(text)
				return nil
			}
			path, err := homePath.SaveDownload(args[0], artifact, text)
			if err != nil {
				return err
			}
			api.Notice("saved %s", path)
			return nil
		},
	}
}

func init() {
	workflowCmd.PersistentFlags().BoolVar(&wfAdmin, "admin", false, "pause after analysis for a human edit (default: workflow.admin)")
	workflowCmd.PersistentFlags().BoolVar(&wfWatch, "watch", false, "follow the workflow after the action")
	workflowCmd.PersistentFlags().BoolVar(&wfSave, "save", false, "save downloads under ~/.bookwatch/downloads")
	workflowContinueCmd.Flags().StringVar(&wfAnalysisFile, "analysis-file", "", "edited analysis (default: ~/.bookwatch/edits/<book_id>.analysis.md)")
	flagBindings["workflow.admin"] = "admin"

	workflowCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if err := rootCmd.PersistentPreRunE(cmd, args); err != nil {
			return err
		}
		wfAdmin = cfgManager.Get().Workflow.Admin
		return nil
	}

	summary := downloadCmd("summary", func(c *workflow.Client, cmd *cobra.Command, id string) (string, error) {
		return c.DownloadSummary(cmd.Context(), id)
	})
	analysis := downloadCmd("analysis", func(c *workflow.Client, cmd *cobra.Command, id string) (string, error) {
		return c.DownloadAnalysis(cmd.Context(), id)
	})

	workflowCmd.AddCommand(
		workflowUploadCmd,
		workflowStatusCmd,
		workflowWatchCmd,
		workflowStartCmd,
		workflowContinueCmd,
		workflowDeleteCmd,
		workflowSectionsCmd,
		workflowRetranslateCmd,
		workflowComicCmd,
		summary,
		analysis,
	)
	rootCmd.AddCommand(workflowCmd)
}
