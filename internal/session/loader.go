package session

import (
	"context"
	"errors"

	"github.com/jackzampolin/bookwatch/internal/api"
	"github.com/jackzampolin/bookwatch/internal/status"
	"github.com/jackzampolin/bookwatch/internal/view"
)

// Detail area messages.
const (
	MsgAlreadyProcessing = "Processing is already running for this section. Content will appear when it finishes."
	MsgProcessingStarted = "Processing started. Content will appear when it finishes."
	MsgNotReady          = "Content not found or not ready yet."
)

// LoadAndDisplay makes id the active section and shows its content.
//
// A user-initiated load of a section with no content starts processing it;
// a poll-triggered load never starts a job. The returned error is the fetch
// failure, if any, after it has been rendered.
func (c *Controller) LoadAndDisplay(ctx context.Context, id string, pollTriggered bool) error {
	c.board.SetActive(id)

	if !pollTriggered && c.board.Status(id).IsProcessing() {
		c.board.ShowContent(view.Content{SectionID: id, Kind: view.ContentPlaceholder, Message: MsgAlreadyProcessing})
		return nil
	}

	c.board.ShowContent(view.Content{SectionID: id, Kind: view.ContentLoading})

	reqCtx, cancel := c.requestContext(ctx)
	tr, err := c.backend.Translation(reqCtx, c.bookID, id, c.language)
	cancel()

	switch {
	case err == nil:
		c.board.ShowContent(view.Content{SectionID: id, Kind: view.ContentText, Text: tr.Text})
		if tr.Text == "" {
			c.board.SetStatus(id, status.CompletedEmpty, "")
		} else if !c.board.Status(id).IsReady() {
			c.board.SetStatus(id, status.Translated, "")
		}
		return nil

	case errors.Is(err, api.ErrNotFound) && !pollTriggered:
		c.logger.Info("no content yet, starting section", "section_id", id)
		c.board.ShowContent(view.Content{SectionID: id, Kind: view.ContentPlaceholder, Message: MsgProcessingStarted})
		return c.StartSection(ctx, id)

	case errors.Is(err, api.ErrNotFound):
		c.board.ShowContent(view.Content{SectionID: id, Kind: view.ContentMessage, Message: MsgNotReady})
		return nil

	default:
		c.board.SetStatus(id, status.ErrorUnknown, err.Error())
		c.board.ShowContent(view.Content{SectionID: id, Kind: view.ContentError, Message: err.Error()})
		c.logger.Error("failed to load section", "section_id", id, "error", err)
		return err
	}
}
