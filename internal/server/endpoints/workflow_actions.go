package endpoints

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/bookwatch/internal/api"
	"github.com/jackzampolin/bookwatch/internal/svcctx"
	"github.com/jackzampolin/bookwatch/internal/types"
)

// writeAction answers a workflow action in the {status, message} shape.
func writeAction(w http.ResponseWriter, err error, message string) {
	if err != nil {
		writeJSON(w, statusFor(err), types.ActionResponse{Status: "error", Message: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, types.ActionResponse{Status: "success", Message: message})
}

// StartWorkflowEndpoint handles POST /workflow_start_existing_book/{book_id}.
type StartWorkflowEndpoint struct{}

func (e *StartWorkflowEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/workflow_start_existing_book/{book_id}", e.handler
}

func (e *StartWorkflowEndpoint) RequiresInit() bool { return true }

func (e *StartWorkflowEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	store := libraryFrom(w, r)
	if store == nil {
		return
	}
	var req types.StartWorkflowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, types.ActionResponse{Status: "error", Message: "invalid JSON payload"})
		return
	}

	bookID := r.PathValue("book_id")
	err := store.StartWorkflow(bookID, req)
	if err == nil {
		svcctx.LoggerFrom(r.Context()).Info("workflow start accepted",
			"book_id", bookID, "admin", req.Admin, "continue_after_edit", req.ContinueAfterEdit)
	}
	writeAction(w, err, "Workflow started in background")
}

func (e *StartWorkflowEndpoint) Command(getServerURL func() string) *cobra.Command {
	var req types.StartWorkflowRequest
	cmd := &cobra.Command{
		Use:   "workflow-start <book_id>",
		Short: "Start or resume the workflow of an existing book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp types.ActionResponse
			if err := client.Post(cmd.Context(), "/workflow_start_existing_book/"+url.PathEscape(args[0]), req, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().BoolVar(&req.Admin, "admin", false, "Pause after analysis for a human edit")
	cmd.Flags().BoolVar(&req.ContinueAfterEdit, "continue", false, "Resume a workflow paused at awaiting_edit")
	cmd.Flags().StringVar(&req.EditedAnalysis, "analysis", "", "Edited analysis text used when resuming")
	return cmd
}

// DeleteBookEndpoint handles POST /workflow_delete_book/{book_id}.
type DeleteBookEndpoint struct{}

func (e *DeleteBookEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/workflow_delete_book/{book_id}", e.handler
}

func (e *DeleteBookEndpoint) RequiresInit() bool { return true }

func (e *DeleteBookEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	store := libraryFrom(w, r)
	if store == nil {
		return
	}
	bookID := r.PathValue("book_id")
	if err := store.DeleteBook(bookID); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	if homeDir := svcctx.HomeFrom(r.Context()); homeDir != nil {
		if err := homeDir.RemoveUploads(bookID); err != nil {
			svcctx.LoggerFrom(r.Context()).Warn("failed to remove uploaded original", "book_id", bookID, "error", err)
		}
	}
	writeJSON(w, http.StatusOK, types.DeleteResponse{Success: true, BookID: bookID})
}

func (e *DeleteBookEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "workflow-delete <book_id>",
		Short: "Delete a book and its workflow state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp types.DeleteResponse
			if err := client.Post(cmd.Context(), "/workflow_delete_book/"+url.PathEscape(args[0]), nil, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// SectionsEndpoint handles GET /workflow/api/book/{book_id}/sections.
type SectionsEndpoint struct{}

func (e *SectionsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/workflow/api/book/{book_id}/sections", e.handler
}

func (e *SectionsEndpoint) RequiresInit() bool { return true }

func (e *SectionsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	store := libraryFrom(w, r)
	if store == nil {
		return
	}
	sections, err := store.WorkflowSections(r.PathValue("book_id"))
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, sections)
}

func (e *SectionsEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "workflow-sections <book_id>",
		Short: "List the sections of a workflow book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var sections []types.WorkflowSection
			if err := client.Get(cmd.Context(), "/workflow/api/book/"+url.PathEscape(args[0])+"/sections", &sections); err != nil {
				return err
			}
			return api.Output(sections)
		},
	}
}

// RetranslateEndpoint handles
// POST /workflow/api/book/{book_id}/retranslate_section/{section_id}.
type RetranslateEndpoint struct{}

func (e *RetranslateEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/workflow/api/book/{book_id}/retranslate_section/{section_id}", e.handler
}

func (e *RetranslateEndpoint) RequiresInit() bool { return true }

func (e *RetranslateEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	store := libraryFrom(w, r)
	if store == nil {
		return
	}
	err := store.RetranslateSection(r.PathValue("book_id"), r.PathValue("section_id"))
	writeAction(w, err, "Section queued for retranslation")
}

func (e *RetranslateEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "workflow-retranslate <book_id> <section_id>",
		Short: "Requeue the translation of one section",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			path := fmt.Sprintf("/workflow/api/book/%s/retranslate_section/%s", url.PathEscape(args[0]), url.PathEscape(args[1]))
			var resp types.ActionResponse
			if err := client.Post(cmd.Context(), path, nil, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// ComicEndpoint handles POST /workflow/api/book/{book_id}/generate_comic.
type ComicEndpoint struct{}

func (e *ComicEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/workflow/api/book/{book_id}/generate_comic", e.handler
}

func (e *ComicEndpoint) RequiresInit() bool { return true }

func (e *ComicEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	store := libraryFrom(w, r)
	if store == nil {
		return
	}
	writeAction(w, store.GenerateComic(r.PathValue("book_id")), "Comic generation started")
}

func (e *ComicEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "workflow-comic <book_id>",
		Short: "Request comic generation for a finished book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp types.ActionResponse
			if err := client.Post(cmd.Context(), "/workflow/api/book/"+url.PathEscape(args[0])+"/generate_comic", nil, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}
