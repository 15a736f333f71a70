// Package workflow drives the multi-stage book workflow: summarize, analyze
// (with an optional human edit pause), translate and EPUB assembly.
package workflow

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/jackzampolin/bookwatch/internal/api"
	"github.com/jackzampolin/bookwatch/internal/schema"
	"github.com/jackzampolin/bookwatch/internal/types"
)

// Client wraps the workflow endpoints.
type Client struct {
	api *api.Client
}

// NewClient wraps an API client.
func NewClient(c *api.Client) *Client {
	return &Client{api: c}
}

// Upload sends a book file and returns the new book id.
func (c *Client) Upload(ctx context.Context, filePath, targetLanguage string, admin bool) (string, error) {
	var resp types.UploadResponse
	fields := map[string]string{
		"target_language": targetLanguage,
		"admin":           strconv.FormatBool(admin),
	}
	if err := c.api.PostFile(ctx, "/workflow_upload", "file", filePath, fields, &resp); err != nil {
		return "", fmt.Errorf("upload failed: %w", err)
	}
	if resp.BookID == "" {
		if resp.Error != "" {
			return "", fmt.Errorf("upload failed: %s", resp.Error)
		}
		return "", fmt.Errorf("upload failed: no book id returned")
	}
	return resp.BookID, nil
}

// Status fetches and validates the workflow status of a book.
func (c *Client) Status(ctx context.Context, bookID string) (*types.WorkflowStatus, error) {
	raw, err := c.api.GetText(ctx, "/workflow_book_status/"+url.PathEscape(bookID))
	if err != nil {
		return nil, err
	}
	var ws types.WorkflowStatus
	if err := schema.Decode(schema.WorkflowBookStatus, []byte(raw), &ws); err != nil {
		return nil, err
	}
	return &ws, nil
}

// DownloadSummary returns the book summary text.
func (c *Client) DownloadSummary(ctx context.Context, bookID string) (string, error) {
	return c.api.GetText(ctx, "/workflow_download_summary/"+url.PathEscape(bookID))
}

// DownloadAnalysis returns the book analysis text.
func (c *Client) DownloadAnalysis(ctx context.Context, bookID string) (string, error) {
	return c.api.GetText(ctx, "/workflow_download_analysis/"+url.PathEscape(bookID))
}

// Start (re)starts the workflow for an existing book.
func (c *Client) Start(ctx context.Context, bookID string, req types.StartWorkflowRequest) (*types.ActionResponse, error) {
	return c.action(ctx, "/workflow_start_existing_book/"+url.PathEscape(bookID), req)
}

// ContinueAfterEdit resumes a workflow paused at awaiting_edit with the
// edited analysis.
func (c *Client) ContinueAfterEdit(ctx context.Context, bookID, analysis string, admin bool) (*types.ActionResponse, error) {
	return c.Start(ctx, bookID, types.StartWorkflowRequest{
		Admin:             admin,
		ContinueAfterEdit: true,
		EditedAnalysis:    analysis,
	})
}

// Delete removes a book and its workflow state.
func (c *Client) Delete(ctx context.Context, bookID string) (*types.DeleteResponse, error) {
	var resp types.DeleteResponse
	if err := c.api.Post(ctx, "/workflow_delete_book/"+url.PathEscape(bookID), nil, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return &resp, fmt.Errorf("delete of %s was not acknowledged", bookID)
	}
	return &resp, nil
}

// Sections lists per-section workflow status.
func (c *Client) Sections(ctx context.Context, bookID string) ([]types.WorkflowSection, error) {
	var sections []types.WorkflowSection
	if err := c.api.Get(ctx, "/workflow/api/book/"+url.PathEscape(bookID)+"/sections", &sections); err != nil {
		return nil, err
	}
	return sections, nil
}

// RetranslateSection requeues one section's translation.
func (c *Client) RetranslateSection(ctx context.Context, bookID, sectionID string) (*types.ActionResponse, error) {
	path := fmt.Sprintf("/workflow/api/book/%s/retranslate_section/%s", url.PathEscape(bookID), url.PathEscape(sectionID))
	return c.action(ctx, path, nil)
}

// GenerateComic requests comic generation for a book.
func (c *Client) GenerateComic(ctx context.Context, bookID string) (*types.ActionResponse, error) {
	return c.action(ctx, "/workflow/api/book/"+url.PathEscape(bookID)+"/generate_comic", nil)
}

func (c *Client) action(ctx context.Context, path string, body any) (*types.ActionResponse, error) {
	var resp types.ActionResponse
	if err := c.api.Post(ctx, path, body, &resp); err != nil {
		return nil, err
	}
	if !resp.OK() {
		return &resp, fmt.Errorf("action rejected: %s", resp.Message)
	}
	return &resp, nil
}
