package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/bookwatch/internal/api"
	"github.com/jackzampolin/bookwatch/internal/config"
	"github.com/jackzampolin/bookwatch/internal/home"
	"github.com/jackzampolin/bookwatch/version"
)

// skipConfig marks commands that must run without loading configuration.
const skipConfig = "bookwatch/skip-config"

var (
	cfgFile      string
	homeDir      string
	outputFormat string

	// Set by PersistentPreRunE for every command that loads configuration.
	cfgManager *config.Manager
	homePath   *home.Dir
	logger     *slog.Logger
)

// flagBindings maps config keys to the root flags that override them.
var flagBindings = map[string]string{
	"server":    "server",
	"book_id":   "book",
	"language":  "lang",
	"model":     "model",
	"operation": "operation",
	"log.level": "log-level",
}

var rootCmd = &cobra.Command{
	Use:   "bookwatch",
	Short: "Watch and drive book translation jobs from the terminal",
	Long: `bookwatch follows a book on a translation backend section by section.

It polls the backend for per-section status, renders the table of contents
with each section's state, starts translation, summary or analysis jobs, and
shows finished text as it becomes available.

The multi-stage workflow (summarize, analyze, translate, epub) is driven with
"bookwatch workflow", and "bookwatch serve" runs an in-memory development
backend that speaks the same API.`,
	Version:      version.GitRelease,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := api.SetOutputFormat(outputFormat); err != nil {
			return err
		}
		if cmd.Annotations[skipConfig] != "" {
			return nil
		}

		h, err := home.New(homeDir)
		if err != nil {
			return err
		}
		homePath = h

		mgr, err := config.NewManager(cfgFile, h.Path())
		if err != nil {
			return err
		}
		if err := mgr.BindFlags(cmd, flagBindings); err != nil {
			return err
		}
		cfgManager = mgr

		logger, err = newLogger(mgr.Get().Log)
		if err != nil {
			return err
		}
		slog.SetDefault(logger)
		mgr.SetLogger(logger)
		return nil
	},
}

// newLogger builds the process logger on stderr so structured output on
// stdout stays machine readable.
func newLogger(cfg config.LogConfig) (*slog.Logger, error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	switch cfg.Format {
	case "json":
		return slog.New(slog.NewJSONHandler(os.Stderr, opts)), nil
	case "", "text":
		return slog.New(slog.NewTextHandler(os.Stderr, opts)), nil
	}
	return nil, fmt.Errorf("unknown log format %q", cfg.Format)
}

// getServerURL returns the backend URL at runtime (after flag parsing).
func getServerURL() string {
	if cfgManager == nil {
		return config.DefaultConfig().ServerURL()
	}
	return cfgManager.Get().ServerURL()
}

// newClient builds an API client honoring poll.request_timeout.
func newClient() *api.Client {
	return api.NewClientWithConfig(api.ClientConfig{
		BaseURL:        getServerURL(),
		RequestTimeout: cfgManager.Get().Poll.RequestTimeout,
	})
}

// bookArg returns the book id from args[0] or the book_id config key.
func bookArg(args []string) (string, error) {
	if len(args) > 0 && args[0] != "" {
		return args[0], nil
	}
	if id := cfgManager.Get().BookID; id != "" {
		return id, nil
	}
	return "", fmt.Errorf("no book id given (pass it as an argument, --book, or set book_id)")
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.bookwatch/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "bookwatch home directory (default: ~/.bookwatch)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)
	rootCmd.PersistentFlags().String("server", "", "translation backend URL (overrides server)")
	rootCmd.PersistentFlags().String("book", "", "book id (overrides book_id)")
	rootCmd.PersistentFlags().String("lang", "", "target language of new jobs (overrides language)")
	rootCmd.PersistentFlags().String("model", "", "model of new jobs (overrides model)")
	rootCmd.PersistentFlags().String("operation", "", "job operation: translate, summarize or analyze")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn or error")

	rootCmd.AddCommand(versionCmd)
}
