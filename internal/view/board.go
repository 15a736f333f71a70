// Package view holds the rendered state of a book: one row per table of
// contents entry, the detail content area, and the book-level controls.
//
// The Board is the only place status-dependent display fields are computed.
// It writes a row only when the derived display actually changes, and
// notifies observers (such as the terminal Printer) after each write.
package view

import (
	"sync"

	"github.com/jackzampolin/bookwatch/internal/status"
	"github.com/jackzampolin/bookwatch/internal/types"
)

// Row is one rendered table-of-contents line. Several rows may share a
// section id.
type Row struct {
	SectionID string `json:"section_id" yaml:"section_id"`
	Title     string `json:"title" yaml:"title"`
	Level     int    `json:"level,omitempty" yaml:"level,omitempty"`

	Status          status.Status `json:"status" yaml:"status"`
	Label           string        `json:"label" yaml:"label"`
	Tooltip         string        `json:"tooltip,omitempty" yaml:"tooltip,omitempty"`
	DownloadVisible bool          `json:"download_visible" yaml:"download_visible"`
	RetryVisible    bool          `json:"retry_visible" yaml:"retry_visible"`
	RetryEnabled    bool          `json:"retry_enabled" yaml:"retry_enabled"`
	Busy            bool          `json:"busy" yaml:"busy"`
	Active          bool          `json:"active" yaml:"active"`
}

// ContentKind classifies what the detail area is showing.
type ContentKind string

const (
	ContentNone        ContentKind = ""
	ContentLoading     ContentKind = "loading"
	ContentText        ContentKind = "text"
	ContentPlaceholder ContentKind = "placeholder"
	ContentError       ContentKind = "error"
	ContentMessage     ContentKind = "message"
)

// Content is the detail area for the active section.
type Content struct {
	SectionID string      `json:"section_id" yaml:"section_id"`
	Kind      ContentKind `json:"kind" yaml:"kind"`
	Text      string      `json:"text,omitempty" yaml:"text,omitempty"`
	Message   string      `json:"message,omitempty" yaml:"message,omitempty"`
}

// Controls is the book-level header: bulk actions and counters.
type Controls struct {
	Filename            string      `json:"filename,omitempty" yaml:"filename,omitempty"`
	BookStatus          status.Book `json:"book_status" yaml:"book_status"`
	DownloadEnabled     bool        `json:"download_enabled" yaml:"download_enabled"`
	TranslateAllEnabled bool        `json:"translate_all_enabled" yaml:"translate_all_enabled"`
	ProcessAllCaption   string      `json:"process_all_caption" yaml:"process_all_caption"`
	RetryCaption        string      `json:"retry_caption" yaml:"retry_caption"`
	Total               int         `json:"total" yaml:"total"`
	Done                int         `json:"done" yaml:"done"`
	Errors              int         `json:"errors" yaml:"errors"`
}

// EventKind identifies what an Event changed.
type EventKind int

const (
	RowChanged EventKind = iota
	ContentChanged
	ControlsChanged
)

// Event is delivered to observers after each write.
type Event struct {
	Kind     EventKind
	Rows     []Row
	Previous status.Status
	Content  Content
	Controls Controls
}

// Observer receives board events. Observers run on the writer's goroutine
// and must not block.
type Observer func(Event)

// Board is safe for concurrent use.
type Board struct {
	mu        sync.Mutex
	op        status.Operation
	rows      []Row
	index     map[string][]int
	infos     map[string]types.SectionInfo
	active    string
	content   Content
	controls  Controls
	writes    int
	observers []Observer
}

// NewBoard creates an empty board for the given operation.
func NewBoard(op status.Operation) *Board {
	return &Board{
		op:       op,
		index:    make(map[string][]int),
		infos:    make(map[string]types.SectionInfo),
		controls: Controls{ProcessAllCaption: op.ProcessAllCaption(), RetryCaption: op.RetryCaption()},
	}
}

// Subscribe registers an observer.
func (b *Board) Subscribe(o Observer) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.observers = append(b.observers, o)
}

// SetTOC replaces the rows with one per entry. Statuses already known for a
// section carry over to its new rows.
func (b *Board) SetTOC(entries []types.TOCEntry) {
	b.mu.Lock()
	b.rows = b.rows[:0]
	b.index = make(map[string][]int)
	for _, e := range entries {
		b.appendRowLocked(e.ID, e.DisplayTitle(), e.Level)
	}
	b.mu.Unlock()
}

// EnsureRow appends a row titled by the section id if none exists.
func (b *Board) EnsureRow(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.index[id]; !ok {
		b.appendRowLocked(id, id, 0)
	}
}

func (b *Board) appendRowLocked(id, title string, level int) {
	info, ok := b.infos[id]
	if !ok {
		info = types.SectionInfo{Status: status.NotTranslated}
	}
	r := renderRow(Row{SectionID: id, Title: title, Level: level, Active: id == b.active && id != ""}, info)
	b.index[id] = append(b.index[id], len(b.rows))
	b.rows = append(b.rows, r)
}

// UpdateSection applies one section's state. It returns the previously
// rendered status and whether any row was written. Applying the same state
// twice writes nothing the second time.
func (b *Board) UpdateSection(id string, info types.SectionInfo) (status.Status, bool) {
	info.Status = status.Parse(string(info.Status))

	b.mu.Lock()
	prev := status.NotTranslated
	if old, ok := b.infos[id]; ok {
		prev = old.Status
	}
	if _, ok := b.index[id]; !ok {
		b.appendRowLocked(id, id, 0)
	}
	b.infos[id] = info

	var changed []Row
	for _, i := range b.index[id] {
		next := renderRow(b.rows[i], info)
		if next == b.rows[i] {
			continue
		}
		b.rows[i] = next
		b.writes++
		changed = append(changed, next)
	}
	observers := b.observers
	b.mu.Unlock()

	if len(changed) == 0 {
		return prev, false
	}
	notify(observers, Event{Kind: RowChanged, Rows: changed, Previous: prev})
	return prev, true
}

// SetStatus sets a locally derived status, such as an optimistic
// "processing" or a synthetic start error, dropping any model attribution.
func (b *Board) SetStatus(id string, st status.Status, errMsg string) (status.Status, bool) {
	return b.UpdateSection(id, types.SectionInfo{Status: st, ErrorMessage: errMsg})
}

// Status returns the last rendered status of a section.
func (b *Board) Status(id string) status.Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	if info, ok := b.infos[id]; ok {
		return info.Status
	}
	return status.NotTranslated
}

// Row returns the first row for a section.
func (b *Board) Row(id string) (Row, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	idx, ok := b.index[id]
	if !ok {
		return Row{}, false
	}
	return b.rows[idx[0]], true
}

// Rows returns a copy of all rows in display order.
func (b *Board) Rows() []Row {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Row(nil), b.rows...)
}

// SectionIDs returns each distinct section id once, in display order.
func (b *Board) SectionIDs() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	seen := make(map[string]bool, len(b.index))
	var ids []string
	for _, r := range b.rows {
		if !seen[r.SectionID] {
			seen[r.SectionID] = true
			ids = append(ids, r.SectionID)
		}
	}
	return ids
}

// Writes counts row writes since the board was created.
func (b *Board) Writes() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.writes
}

// SetActive marks the section shown in the detail area.
func (b *Board) SetActive(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.active = id
	for i := range b.rows {
		b.rows[i].Active = b.rows[i].SectionID == id
	}
}

// Active returns the section shown in the detail area, or "".
func (b *Board) Active() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.active
}

// ShowContent replaces the detail area.
func (b *Board) ShowContent(c Content) {
	b.mu.Lock()
	b.content = c
	observers := b.observers
	b.mu.Unlock()
	notify(observers, Event{Kind: ContentChanged, Content: c})
}

// Content returns the detail area.
func (b *Board) Content() Content {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.content
}

// ApplyControls recomputes the header from a snapshot.
func (b *Board) ApplyControls(bs *types.BookStatus) {
	b.mu.Lock()
	c := controlsFor(bs, b.op)
	if c == b.controls {
		b.mu.Unlock()
		return
	}
	b.controls = c
	observers := b.observers
	b.mu.Unlock()
	notify(observers, Event{Kind: ControlsChanged, Controls: c})
}

// Controls returns the book-level header.
func (b *Board) Controls() Controls {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.controls
}

// Snapshot is a point-in-time copy of the whole board.
type Snapshot struct {
	Controls Controls `json:"controls" yaml:"controls"`
	Rows     []Row    `json:"rows" yaml:"rows"`
	Content  Content  `json:"content" yaml:"content"`
}

// Snapshot copies the board for output.
func (b *Board) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Snapshot{
		Controls: b.controls,
		Rows:     append([]Row(nil), b.rows...),
		Content:  b.content,
	}
}

func notify(observers []Observer, ev Event) {
	for _, o := range observers {
		o(ev)
	}
}
