package api

import (
	"net/http"

	"github.com/spf13/cobra"
)

// Endpoint defines both a development-backend HTTP route and the CLI command
// that calls the same route on any compatible backend. One definition keeps
// the simulator and the raw api commands in agreement.
type Endpoint interface {
	// Route returns the HTTP method, path, and handler for this endpoint.
	Route() (method, path string, handler http.HandlerFunc)

	// RequiresInit returns true if this endpoint needs the book library to
	// be loaded before it can answer.
	RequiresInit() bool

	// Command returns a Cobra command that calls this endpoint via HTTP.
	// getServerURL is called at runtime to get the server URL (deferred evaluation).
	Command(getServerURL func() string) *cobra.Command
}
