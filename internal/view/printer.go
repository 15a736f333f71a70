package view

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/jackzampolin/bookwatch/internal/content"
	"github.com/jackzampolin/bookwatch/internal/status"
)

// styles are bound to the renderer of one writer, so output that is not a
// terminal gets no escape codes.
type styles struct {
	header lipgloss.Style
	cell   lipgloss.Style
	border lipgloss.Style
	title  lipgloss.Style
	busy   lipgloss.Style
	ready  lipgloss.Style
	failed lipgloss.Style
	muted  lipgloss.Style
}

func newStyles(w io.Writer) styles {
	re := lipgloss.NewRenderer(w)
	return styles{
		header: re.NewStyle().Bold(true).Padding(0, 1),
		cell:   re.NewStyle().Padding(0, 1),
		border: re.NewStyle().Foreground(lipgloss.Color("240")),
		title:  re.NewStyle().Bold(true),
		busy:   re.NewStyle().Foreground(lipgloss.Color("3")),
		ready:  re.NewStyle().Foreground(lipgloss.Color("2")),
		failed: re.NewStyle().Foreground(lipgloss.Color("196")),
		muted:  re.NewStyle().Foreground(lipgloss.Color("245")),
	}
}

func (st styles) status(s status.Status) lipgloss.Style {
	switch {
	case s.IsProcessing():
		return st.busy
	case s.IsError():
		return st.failed
	case s.IsReady():
		return st.ready
	}
	return st.muted
}

// Printer writes board events to a terminal as they happen.
type Printer struct {
	mu  sync.Mutex
	w   io.Writer
	st  styles
	now func() time.Time
}

// NewPrinter creates a printer writing to w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w, st: newStyles(w), now: time.Now}
}

// Observe is an Observer that prints each event.
func (p *Printer) Observe(ev Event) {
	p.mu.Lock()
	defer p.mu.Unlock()

	ts := p.now().Format("15:04:05")
	switch ev.Kind {
	case RowChanged:
		r := ev.Rows[0]
		line := fmt.Sprintf("%s  %-24s %s -> %s", ts, truncate(r.Title, 24), ev.Previous.Label(), p.st.status(r.Status).Render(r.Label))
		if r.Tooltip != "" {
			line += "  (" + r.Tooltip + ")"
		}
		fmt.Fprintln(p.w, line)
	case ContentChanged:
		p.printContent(ts, ev.Content)
	case ControlsChanged:
		c := ev.Controls
		fmt.Fprintf(p.w, "%s  book %s: %d/%d done, %d errors\n", ts, c.BookStatus, c.Done, c.Total, c.Errors)
	}
}

func (p *Printer) printContent(ts string, c Content) {
	switch c.Kind {
	case ContentText:
		fmt.Fprintf(p.w, "%s  --- %s ---\n%s\n", ts, c.SectionID, content.Plain(c.Text))
	case ContentLoading:
		fmt.Fprintf(p.w, "%s  loading %s...\n", ts, c.SectionID)
	case ContentError:
		fmt.Fprintf(p.w, "%s  %s\n", ts, p.st.failed.Render("error in "+c.SectionID+": "+c.Message))
	case ContentPlaceholder, ContentMessage:
		fmt.Fprintf(p.w, "%s  %s: %s\n", ts, c.SectionID, c.Message)
	}
}

// WriteTable renders the board as a bordered table under a one-line
// summary of the book controls.
func WriteTable(w io.Writer, s Snapshot) error {
	st := newStyles(w)
	c := s.Controls
	if c.Filename != "" {
		fmt.Fprintln(w, st.title.Render(c.Filename))
	}
	fmt.Fprintf(w, "Status: %s  Done: %d/%d  Errors: %d  Download: %s  %s: %s\n",
		orDash(string(c.BookStatus)), c.Done, c.Total, c.Errors,
		onOff(c.DownloadEnabled), c.ProcessAllCaption, onOff(c.TranslateAllEnabled))

	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(st.border).
		Headers("SECTION", "TITLE", "STATUS", "ACTIONS", "DETAIL").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return st.header
			}
			return st.cell
		})
	for _, r := range s.Rows {
		title := strings.Repeat("  ", max(r.Level-1, 0)) + r.Title
		if r.Active {
			title = st.title.Render("> " + title)
		}
		tbl.Row(r.SectionID, title, st.status(r.Status).Render(r.Label), actions(r), r.Tooltip)
	}
	_, err := fmt.Fprintln(w, tbl.Render())
	return err
}

func actions(r Row) string {
	var a []string
	if r.Busy {
		a = append(a, "busy")
	}
	if r.DownloadVisible {
		a = append(a, "download")
	}
	if r.RetryVisible {
		if r.RetryEnabled {
			a = append(a, "retry")
		} else {
			a = append(a, "retry(disabled)")
		}
	}
	if len(a) == 0 {
		return "-"
	}
	return strings.Join(a, ",")
}

func onOff(b bool) string {
	if b {
		return "enabled"
	}
	return "disabled"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
