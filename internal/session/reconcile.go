package session

import (
	"context"
	"sort"

	"github.com/jackzampolin/bookwatch/internal/status"
	"github.com/jackzampolin/bookwatch/internal/types"
	"github.com/jackzampolin/bookwatch/internal/view"
)

// ApplySnapshot renders a book status snapshot. Only sections whose display
// changed are written. When the active section leaves processing for a
// ready status its content is reloaded once; for an error status the error
// is shown inline instead.
func (c *Controller) ApplySnapshot(ctx context.Context, bs *types.BookStatus) {
	if len(bs.TOC) > 0 && c.tocLoaded.CompareAndSwap(false, true) {
		c.board.SetTOC(bs.TOC)
	}

	ids := make([]string, 0, len(bs.Sections))
	for id := range bs.Sections {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	active := c.board.Active()
	var reload []string
	for _, id := range ids {
		info := bs.Sections[id]
		info.Status = status.Parse(string(info.Status))

		prev, changed := c.board.UpdateSection(id, info)
		if !changed || id != active || !prev.IsProcessing() {
			continue
		}
		switch {
		case info.Status.IsError():
			c.board.ShowContent(view.Content{
				SectionID: id,
				Kind:      view.ContentError,
				Message:   errorText(info),
			})
		case info.Status.IsReady():
			reload = append(reload, id)
		}
	}
	c.board.ApplyControls(bs)

	for _, id := range reload {
		c.logger.Debug("active section finished, reloading", "section_id", id)
		c.LoadAndDisplay(ctx, id, true)
	}
}

func errorText(info types.SectionInfo) string {
	if info.ErrorMessage != "" {
		return info.ErrorMessage
	}
	return info.Status.Label()
}
