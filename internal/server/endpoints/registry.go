package endpoints

import (
	"github.com/jackzampolin/bookwatch/internal/api"
)

// Config holds dependencies needed by some endpoints.
type Config struct {
	MaxUploadBytes int64
}

// All returns all endpoint instances.
func All(cfg Config) []api.Endpoint {
	return []api.Endpoint{
		// Health endpoints
		&HealthEndpoint{},
		&ReadyEndpoint{},

		// Book endpoints
		&BookStatusEndpoint{},
		&GetTranslationEndpoint{},
		&TranslateSectionEndpoint{},
		&TranslateAllEndpoint{},
		&ModelsEndpoint{},

		// Workflow endpoints
		&WorkflowUploadEndpoint{MaxUploadBytes: cfg.MaxUploadBytes},
		&WorkflowStatusEndpoint{},
		&DownloadEndpoint{Artifact: "summary"},
		&DownloadEndpoint{Artifact: "analysis"},
		&StartWorkflowEndpoint{},
		&DeleteBookEndpoint{},
		&SectionsEndpoint{},
		&RetranslateEndpoint{},
		&ComicEndpoint{},
	}
}
