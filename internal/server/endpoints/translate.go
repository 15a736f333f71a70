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
	"github.com/jackzampolin/bookwatch/internal/status"
	"github.com/jackzampolin/bookwatch/internal/svcctx"
	"github.com/jackzampolin/bookwatch/internal/types"
)

// decodeJobRequest reads an optional JSON job body. An empty body is a
// default translate request.
func decodeJobRequest(r *http.Request) (types.JobRequest, error) {
	var req types.JobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		return req, fmt.Errorf("invalid JSON payload: %w", err)
	}
	req.OperationType = status.ParseOperation(string(req.OperationType))
	return req, nil
}

// jobFlags binds the job request flags shared by both translate commands.
func jobFlags(cmd *cobra.Command, req *types.JobRequest) *string {
	var op string
	cmd.Flags().StringVar(&req.TargetLanguage, "lang", "", "Target language")
	cmd.Flags().StringVar(&req.ModelName, "model", "", "Model name")
	cmd.Flags().StringVar(&op, "operation", string(status.OpTranslate), "Operation: translate, summarize or analyze")
	return &op
}

// TranslateSectionEndpoint handles POST /translate_section/{book_id}/{section_id}.
type TranslateSectionEndpoint struct{}

func (e *TranslateSectionEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/translate_section/{book_id}/{section_id}", e.handler
}

func (e *TranslateSectionEndpoint) RequiresInit() bool { return true }

func (e *TranslateSectionEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	store := libraryFrom(w, r)
	if store == nil {
		return
	}
	req, err := decodeJobRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	bookID, sectionID := r.PathValue("book_id"), r.PathValue("section_id")
	taskID, err := store.StartSection(bookID, sectionID, req)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	if taskID == "" {
		writeJSON(w, http.StatusConflict, types.StartSectionResponse{Status: "already_processing"})
		return
	}

	svcctx.LoggerFrom(r.Context()).Info("section job accepted",
		"book_id", bookID, "section_id", sectionID, "task_id", taskID, "operation", req.OperationType)
	writeJSON(w, http.StatusAccepted, types.StartSectionResponse{Status: "processing", TaskID: taskID})
}

func (e *TranslateSectionEndpoint) Command(getServerURL func() string) *cobra.Command {
	var req types.JobRequest
	cmd := &cobra.Command{
		Use:   "translate-section <book_id> <section_id>",
		Short: "Start a job for one section",
		Args:  cobra.ExactArgs(2),
	}
	op := jobFlags(cmd, &req)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		req.OperationType = status.ParseOperation(*op)
		client := api.NewClient(getServerURL())
		path := fmt.Sprintf("/translate_section/%s/%s", url.PathEscape(args[0]), url.PathEscape(args[1]))
		var resp types.StartSectionResponse
		if err := client.Post(cmd.Context(), path, req, &resp); err != nil {
			return err
		}
		return api.Output(resp)
	}
	return cmd
}

// TranslateAllEndpoint handles POST /translate_all/{book_id}.
type TranslateAllEndpoint struct{}

func (e *TranslateAllEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/translate_all/{book_id}", e.handler
}

func (e *TranslateAllEndpoint) RequiresInit() bool { return true }

func (e *TranslateAllEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	store := libraryFrom(w, r)
	if store == nil {
		return
	}
	req, err := decodeJobRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	bookID := r.PathValue("book_id")
	launched, err := store.StartAll(bookID, req)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	svcctx.LoggerFrom(r.Context()).Info("bulk job accepted", "book_id", bookID, "launched", launched)
	writeJSON(w, http.StatusAccepted, types.StartAllResponse{Status: "processing_all", LaunchedTasks: launched})
}

func (e *TranslateAllEndpoint) Command(getServerURL func() string) *cobra.Command {
	var req types.JobRequest
	cmd := &cobra.Command{
		Use:   "translate-all <book_id>",
		Short: "Start jobs for every unprocessed section of a book",
		Args:  cobra.ExactArgs(1),
	}
	op := jobFlags(cmd, &req)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		req.OperationType = status.ParseOperation(*op)
		client := api.NewClient(getServerURL())
		var resp types.StartAllResponse
		if err := client.Post(cmd.Context(), "/translate_all/"+url.PathEscape(args[0]), req, &resp); err != nil {
			return err
		}
		return api.Output(resp)
	}
	return cmd
}
