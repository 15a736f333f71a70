package view

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jackzampolin/bookwatch/internal/status"
	"github.com/jackzampolin/bookwatch/internal/types"
)

// Label returns the status-slot text for a section. Success statuses with a
// producing model show the model's short name instead of the generic label.
func Label(info types.SectionInfo) string {
	if info.Status.IsSuccess() && info.ModelName != "" {
		return status.ShortModelName(info.ModelName)
	}
	return info.Status.Label()
}

// Tooltip returns the detail text for a section. An explicit error message
// always wins over the operation description.
func Tooltip(info types.SectionInfo) string {
	if info.ErrorMessage != "" {
		return info.ErrorMessage
	}
	switch {
	case info.Status.IsSuccess():
		parts := []string{info.Status.Operation()}
		if info.ModelName != "" {
			parts = append(parts, "by "+info.ModelName)
		}
		if limits := TokenLimits(info.InputTokenLimit, info.OutputTokenLimit); limits != "" {
			parts = append(parts, "("+limits+")")
		}
		return strings.Join(parts, " ")
	case info.Status == status.CompletedEmpty:
		return "Section has no text"
	case info.Status.IsProcessing():
		return "Processing..."
	case info.Status.IsError():
		return info.Status.Label()
	}
	return ""
}

// TokenLimits formats "In: X, Out: Y". Missing limits render as N/A; if
// both are missing the result is empty.
func TokenLimits(in, out *int) string {
	if in == nil && out == nil {
		return ""
	}
	return fmt.Sprintf("In: %s, Out: %s", limit(in), limit(out))
}

func limit(v *int) string {
	if v == nil {
		return "N/A"
	}
	return strconv.Itoa(*v)
}

// renderRow derives every status-dependent field of a row.
func renderRow(r Row, info types.SectionInfo) Row {
	r.Status = info.Status
	r.Label = Label(info)
	r.Tooltip = Tooltip(info)
	r.DownloadVisible = info.Status.IsReady()
	r.RetryVisible = info.Status.CanRetry()
	r.RetryEnabled = r.RetryVisible && !info.Status.IsProcessing()
	r.Busy = info.Status.IsProcessing()
	return r
}

// controlsFor derives book-level controls and counters from a snapshot.
func controlsFor(bs *types.BookStatus, op status.Operation) Controls {
	c := Controls{
		Filename:            bs.Filename,
		BookStatus:          bs.Status,
		DownloadEnabled:     bs.Status.IsTerminal() && bs.AnyDownloadable(),
		TranslateAllEnabled: !bs.Status.IsTerminal(),
		ProcessAllCaption:   op.ProcessAllCaption(),
		RetryCaption:        op.RetryCaption(),
		Total:               bs.TotalSections,
		Done:                bs.TranslatedCount,
		Errors:              bs.ErrorCount,
	}
	if c.Total == 0 {
		c.Total = len(bs.Sections)
	}
	if c.Done == 0 && c.Errors == 0 {
		for _, s := range bs.Sections {
			st := status.Parse(string(s.Status))
			switch {
			case st.IsReady():
				c.Done++
			case st.IsError():
				c.Errors++
			}
		}
	}
	return c
}
