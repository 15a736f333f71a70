package endpoints

import (
	"net/http"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/bookwatch/internal/api"
	"github.com/jackzampolin/bookwatch/internal/types"
)

// BookStatusEndpoint handles GET /book_status/{book_id}.
type BookStatusEndpoint struct{}

func (e *BookStatusEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/book_status/{book_id}", e.handler
}

func (e *BookStatusEndpoint) RequiresInit() bool { return true }

func (e *BookStatusEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	store := libraryFrom(w, r)
	if store == nil {
		return
	}
	bs, err := store.BookStatus(r.PathValue("book_id"))
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, bs)
}

func (e *BookStatusEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "book-status <book_id>",
		Short: "Get the aggregate status of a book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var bs types.BookStatus
			if err := client.Get(cmd.Context(), "/book_status/"+url.PathEscape(args[0]), &bs); err != nil {
				return err
			}
			return api.Output(bs)
		},
	}
}
