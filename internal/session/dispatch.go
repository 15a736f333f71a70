package session

import (
	"context"
	"errors"

	"github.com/jackzampolin/bookwatch/internal/api"
	"github.com/jackzampolin/bookwatch/internal/status"
	"github.com/jackzampolin/bookwatch/internal/view"
)

// StartSection marks a section processing, asks the backend to process it,
// and ensures polling is running. A rejected or failed request marks the
// section with a synthetic start error and, if the section is active, shows
// the error inline. Polling runs under ctx whatever the outcome, so a job the
// backend accepted before the request failed still gets its real status.
func (c *Controller) StartSection(ctx context.Context, id string) error {
	c.dispatches.Add(1)
	c.board.SetStatus(id, status.Processing, "")

	reqCtx, cancel := c.requestContext(ctx)
	defer cancel()

	_, err := c.backend.StartSection(reqCtx, c.bookID, id, c.jobRequest())
	c.dispatches.Add(1)
	if err != nil {
		st, msg := startFailure(err)
		c.board.SetStatus(id, st, msg)
		if c.board.Active() == id {
			c.board.ShowContent(view.Content{SectionID: id, Kind: view.ContentError, Message: msg})
		}
		c.logger.Error("failed to start section", "section_id", id, "status", st, "error", err)
	} else {
		c.logger.Info("section job started", "section_id", id, "operation", c.op)
	}

	c.StartPolling(ctx)
	return err
}

// StartAll marks every unprocessed section processing and asks the backend
// to process them all. Outcomes per section arrive through polling, which
// is started even if the request fails so optimistic marks get corrected.
func (c *Controller) StartAll(ctx context.Context) (int, error) {
	c.dispatches.Add(1)
	for _, id := range c.board.SectionIDs() {
		if c.board.Status(id).IsUnprocessed() {
			c.board.SetStatus(id, status.Processing, "")
		}
	}

	reqCtx, cancel := c.requestContext(ctx)
	defer cancel()

	resp, err := c.backend.StartAll(reqCtx, c.bookID, c.jobRequest())
	c.dispatches.Add(1)
	c.StartPolling(ctx)
	if err != nil {
		c.logger.Error("failed to start all sections", "error", err)
		return 0, err
	}

	c.logger.Info("bulk job started", "launched_tasks", resp.LaunchedTasks, "operation", c.op)
	return resp.LaunchedTasks, nil
}

// startFailure maps a job-start error to a synthetic status and message.
func startFailure(err error) (status.Status, string) {
	var se *api.StatusError
	if errors.As(err, &se) {
		return status.ErrorStart(se.StatusCode), se.Message
	}
	return status.ErrorNetwork, err.Error()
}
