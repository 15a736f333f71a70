package endpoints

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/bookwatch/internal/api"
	"github.com/jackzampolin/bookwatch/internal/library"
	"github.com/jackzampolin/bookwatch/internal/types"
)

// WorkflowStatusEndpoint handles GET /workflow_book_status/{book_id}.
type WorkflowStatusEndpoint struct{}

func (e *WorkflowStatusEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/workflow_book_status/{book_id}", e.handler
}

func (e *WorkflowStatusEndpoint) RequiresInit() bool { return true }

func (e *WorkflowStatusEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	store := libraryFrom(w, r)
	if store == nil {
		return
	}
	ws, err := store.WorkflowStatus(r.PathValue("book_id"))
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ws)
}

func (e *WorkflowStatusEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "workflow-status <book_id>",
		Short: "Get the workflow status of a book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var ws types.WorkflowStatus
			if err := client.Get(cmd.Context(), "/workflow_book_status/"+url.PathEscape(args[0]), &ws); err != nil {
				return err
			}
			return api.Output(ws)
		},
	}
}

// DownloadEndpoint serves a workflow artifact as a text attachment. It
// handles GET /workflow_download_summary/{book_id} and
// GET /workflow_download_analysis/{book_id}.
type DownloadEndpoint struct {
	// Artifact is "summary" or "analysis".
	Artifact string
}

func (e *DownloadEndpoint) path() string {
	return "/workflow_download_" + e.Artifact + "/"
}

func (e *DownloadEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", e.path() + "{book_id}", e.handler
}

func (e *DownloadEndpoint) RequiresInit() bool { return true }

func (e *DownloadEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	store := libraryFrom(w, r)
	if store == nil {
		return
	}
	bookID := r.PathValue("book_id")

	var (
		text   string
		err    error
		suffix string
	)
	switch e.Artifact {
	case "summary":
		text, err = store.Summary(bookID)
		suffix = "_summarized.txt"
	default:
		text, err = store.Analysis(bookID)
		suffix = "_analyzed.txt"
	}
	switch {
	case errors.Is(err, library.ErrBookNotFound):
		writeText(w, http.StatusNotFound, "Book not found")
		return
	case errors.Is(err, library.ErrNotReady):
		writeText(w, http.StatusConflict, fmt.Sprintf("%s not complete.", strings.ToUpper(e.Artifact[:1])+e.Artifact[1:]))
		return
	case err != nil:
		writeText(w, http.StatusInternalServerError, err.Error())
		return
	}

	base := bookID
	if ws, err := store.WorkflowStatus(bookID); err == nil && ws.Filename != "" {
		base = strings.TrimSuffix(ws.Filename, filepath.Ext(ws.Filename))
	}
	w.Header().Set("Content-Disposition", "attachment; filename*=UTF-8''"+url.PathEscape(base+suffix))
	writeText(w, http.StatusOK, text)
}

func (e *DownloadEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "workflow-" + e.Artifact + " <book_id>",
		Short: "Download the book " + e.Artifact,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			text, err := client.GetText(cmd.Context(), e.path()+url.PathEscape(args[0]))
			if err != nil {
				return err
			}
			fmt.Println(text)
			return nil
		},
	}
}
