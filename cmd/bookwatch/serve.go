package main

import (
	"github.com/spf13/cobra"

	"github.com/jackzampolin/bookwatch/internal/server"
)

var (
	serveHost string
	servePort string
	serveSeed string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the in-memory development backend",
	Long: `Start a development translation backend.

It serves every endpoint bookwatch talks to from an in-memory library.
Books come from a YAML seed file (simulator.seed_file, or a built-in demo
book) or from workflow uploads. Jobs finish after simulator.job_delay with
deterministic stand-in text; a seeded section can declare the error it
should fail with.

simulator.job_delay is re-read when the config file changes.

The server provides:
  - /health - Basic server health check
  - /ready  - Readiness check (includes the number of books)

Examples:
  bookwatch serve                          # Demo book on 127.0.0.1:5000
  bookwatch serve --port 5050 --seed books.yaml
  BOOKWATCH_SIMULATOR_JOB_DELAY=200ms bookwatch serve`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		sim := cfgManager.Get().Simulator

		if err := homePath.EnsureExists(); err != nil {
			return err
		}

		srv, err := server.New(server.Config{
			Host:          sim.Host,
			Port:          sim.Port,
			SeedFile:      sim.SeedFile,
			JobDelay:      sim.JobDelay,
			MaxWorkers:    sim.MaxWorkers,
			Home:          homePath,
			ConfigManager: cfgManager,
			Logger:        logger,
		})
		if err != nil {
			return err
		}
		if cfgManager.WatchConfig() {
			logger.Info("watching config for changes", "file", cfgManager.ConfigFileUsed())
		}

		// Start server (blocks until shutdown)
		return srv.Start(ctx)
	},
}

// serveBindings maps simulator keys to serve flags.
var serveBindings = map[string]string{
	"simulator.host":      "host",
	"simulator.port":      "port",
	"simulator.seed_file": "seed",
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Host to bind to (overrides simulator.host)")
	serveCmd.Flags().StringVar(&servePort, "port", "", "Port to listen on (overrides simulator.port)")
	serveCmd.Flags().StringVar(&serveSeed, "seed", "", "YAML seed file (overrides simulator.seed_file)")
	for key, flag := range serveBindings {
		flagBindings[key] = flag
	}

	rootCmd.AddCommand(serveCmd)
}
