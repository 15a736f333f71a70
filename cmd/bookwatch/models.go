package main

import (
	"github.com/spf13/cobra"

	"github.com/jackzampolin/bookwatch/internal/api"
	"github.com/jackzampolin/bookwatch/internal/models"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the backend's models and the one new jobs would use",
	Long: `Models lists the model catalog offered by the backend. The entry marked
selected is the configured model, or models/gemini-1.5-flash when the
configured one is not offered, or else the first model.

Examples:
  bookwatch models
  bookwatch models --model models/gemini-1.5-pro -o json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := models.Load(cmd.Context(), newClient())
		if err != nil {
			return err
		}
		return api.Output(models.Options(list, cfgManager.Get().Model))
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}
