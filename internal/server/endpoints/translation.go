package endpoints

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/bookwatch/internal/api"
	"github.com/jackzampolin/bookwatch/internal/types"
)

// GetTranslationEndpoint handles GET /get_translation/{book_id}/{section_id}.
type GetTranslationEndpoint struct{}

func (e *GetTranslationEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/get_translation/{book_id}/{section_id}", e.handler
}

func (e *GetTranslationEndpoint) RequiresInit() bool { return true }

func (e *GetTranslationEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	store := libraryFrom(w, r)
	if store == nil {
		return
	}
	text, err := store.Translation(r.PathValue("book_id"), r.PathValue("section_id"), r.URL.Query().Get("lang"))
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, types.Translation{Text: text})
}

func (e *GetTranslationEndpoint) Command(getServerURL func() string) *cobra.Command {
	var lang string
	cmd := &cobra.Command{
		Use:   "translation <book_id> <section_id>",
		Short: "Get the produced text of a section",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			path := fmt.Sprintf("/get_translation/%s/%s?lang=%s",
				url.PathEscape(args[0]), url.PathEscape(args[1]), url.QueryEscape(lang))
			var tr types.Translation
			if err := client.Get(cmd.Context(), path, &tr); err != nil {
				return err
			}
			return api.Output(tr)
		},
	}
	cmd.Flags().StringVar(&lang, "lang", "", "Target language (default: the book's language)")
	return cmd
}
