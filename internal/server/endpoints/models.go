package endpoints

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/bookwatch/internal/api"
	"github.com/jackzampolin/bookwatch/internal/types"
)

// ModelsEndpoint handles GET /api/models.
type ModelsEndpoint struct{}

func (e *ModelsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/models", e.handler
}

func (e *ModelsEndpoint) RequiresInit() bool { return true }

func (e *ModelsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	store := libraryFrom(w, r)
	if store == nil {
		return
	}
	models := store.Models()
	if models == nil {
		models = []types.ModelInfo{}
	}
	writeJSON(w, http.StatusOK, models)
}

func (e *ModelsEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the models offered by the backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var models []types.ModelInfo
			if err := client.Get(cmd.Context(), "/api/models", &models); err != nil {
				return err
			}
			return api.Output(models)
		},
	}
}
