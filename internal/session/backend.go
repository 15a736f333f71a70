package session

import (
	"context"
	"fmt"
	"net/url"

	"github.com/jackzampolin/bookwatch/internal/api"
	"github.com/jackzampolin/bookwatch/internal/schema"
	"github.com/jackzampolin/bookwatch/internal/types"
)

// Backend is the set of translation backend calls a Controller makes.
type Backend interface {
	BookStatus(ctx context.Context, bookID string) (*types.BookStatus, error)
	Translation(ctx context.Context, bookID, sectionID, lang string) (*types.Translation, error)
	StartSection(ctx context.Context, bookID, sectionID string, req types.JobRequest) (*types.StartSectionResponse, error)
	StartAll(ctx context.Context, bookID string, req types.JobRequest) (*types.StartAllResponse, error)
}

// HTTPBackend implements Backend over the backend's HTTP API.
type HTTPBackend struct {
	client *api.Client
}

// NewHTTPBackend wraps an API client.
func NewHTTPBackend(client *api.Client) *HTTPBackend {
	return &HTTPBackend{client: client}
}

// BookStatus fetches and validates the aggregate status of a book.
func (b *HTTPBackend) BookStatus(ctx context.Context, bookID string) (*types.BookStatus, error) {
	raw, err := b.client.GetText(ctx, "/book_status/"+url.PathEscape(bookID))
	if err != nil {
		return nil, err
	}
	var bs types.BookStatus
	if err := schema.Decode(schema.BookStatus, []byte(raw), &bs); err != nil {
		return nil, err
	}
	return &bs, nil
}

// Translation fetches the produced text of one section.
func (b *HTTPBackend) Translation(ctx context.Context, bookID, sectionID, lang string) (*types.Translation, error) {
	path := fmt.Sprintf("/get_translation/%s/%s?lang=%s",
		url.PathEscape(bookID), url.PathEscape(sectionID), url.QueryEscape(lang))
	var tr types.Translation
	if err := b.client.Get(ctx, path, &tr); err != nil {
		return nil, err
	}
	return &tr, nil
}

// StartSection asks the backend to (re)process one section.
func (b *HTTPBackend) StartSection(ctx context.Context, bookID, sectionID string, req types.JobRequest) (*types.StartSectionResponse, error) {
	path := fmt.Sprintf("/translate_section/%s/%s", url.PathEscape(bookID), url.PathEscape(sectionID))
	var resp types.StartSectionResponse
	if err := b.client.Post(ctx, path, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// StartAll asks the backend to process every unprocessed section.
func (b *HTTPBackend) StartAll(ctx context.Context, bookID string, req types.JobRequest) (*types.StartAllResponse, error) {
	var resp types.StartAllResponse
	if err := b.client.Post(ctx, "/translate_all/"+url.PathEscape(bookID), req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
