package endpoints

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/bookwatch/internal/api"
	"github.com/jackzampolin/bookwatch/internal/svcctx"
	"github.com/jackzampolin/bookwatch/internal/types"
)

// uploadExtensions are the file types the simulator can split into sections.
var uploadExtensions = []string{".txt", ".md"}

// WorkflowUploadEndpoint handles POST /workflow_upload with a multipart file.
type WorkflowUploadEndpoint struct {
	// MaxUploadBytes bounds the request body (default: 32MB)
	MaxUploadBytes int64
}

var _ api.Endpoint = (*WorkflowUploadEndpoint)(nil)

func (e *WorkflowUploadEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/workflow_upload", e.handler
}

func (e *WorkflowUploadEndpoint) RequiresInit() bool { return true }

func (e *WorkflowUploadEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	maxBytes := e.MaxUploadBytes
	if maxBytes <= 0 {
		maxBytes = 32 << 20
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("failed to parse form: %v", err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, fh, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no file uploaded")
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !supportedUpload(ext) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unsupported file type %q", ext))
		return
	}
	lang := strings.TrimSpace(r.FormValue("target_language"))
	if lang == "" {
		writeError(w, http.StatusBadRequest, "target_language is required")
		return
	}
	admin, _ := strconv.ParseBool(r.FormValue("admin"))

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to read upload: %v", err))
		return
	}

	store := libraryFrom(w, r)
	if store == nil {
		return
	}
	logger := svcctx.LoggerFrom(r.Context())

	bookID, err := store.UploadBook(fh.Filename, data, lang, admin)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	if homeDir := svcctx.HomeFrom(r.Context()); homeDir != nil {
		if err := homeDir.SaveUpload(bookID, fh.Filename, data); err != nil {
			// The book is already stored; only the local copy is missing.
			logger.Warn("failed to keep uploaded original", "book_id", bookID, "error", err)
		}
	}

	resp := types.UploadResponse{
		Status:   "success",
		Message:  "Book uploaded and workflow started",
		BookID:   bookID,
		Filename: fh.Filename,
	}
	if bs, err := store.BookStatus(bookID); err == nil {
		resp.TotalSectionsCount = bs.TotalSections
	}
	logger.Info("workflow upload accepted", "book_id", bookID, "filename", fh.Filename, "admin", admin)
	writeJSON(w, http.StatusOK, resp)
}

func supportedUpload(ext string) bool {
	for _, e := range uploadExtensions {
		if e == ext {
			return true
		}
	}
	return false
}

func (e *WorkflowUploadEndpoint) Command(getServerURL func() string) *cobra.Command {
	var (
		lang  string
		admin bool
	)
	cmd := &cobra.Command{
		Use:   "workflow-upload <file>",
		Short: "Upload a book and start its workflow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(args[0]); err != nil {
				return fmt.Errorf("cannot read %s: %w", args[0], err)
			}
			client := api.NewClient(getServerURL())
			fields := map[string]string{
				"target_language": lang,
				"admin":           strconv.FormatBool(admin),
			}
			var resp types.UploadResponse
			if err := client.PostFile(cmd.Context(), "/workflow_upload", "file", args[0], fields, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&lang, "lang", "", "Target language (required)")
	cmd.Flags().BoolVar(&admin, "admin", false, "Pause after analysis for a human edit")
	cmd.MarkFlagRequired("lang")
	return cmd
}
