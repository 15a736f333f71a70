// Package types provides the wire payloads exchanged with the translation
// backend. It is shared by the client packages and the development backend,
// and depends only on the status vocabulary to avoid import cycles.
package types

import (
	"encoding/json"

	"github.com/jackzampolin/bookwatch/internal/status"
)

// SectionInfo is one section's entry in a book status payload.
type SectionInfo struct {
	Status           status.Status `json:"status" yaml:"status"`
	ModelName        string        `json:"model_name,omitempty" yaml:"model_name,omitempty"`
	ErrorMessage     string        `json:"error_message,omitempty" yaml:"error_message,omitempty"`
	InputTokenLimit  *int          `json:"input_token_limit,omitempty" yaml:"input_token_limit,omitempty"`
	OutputTokenLimit *int          `json:"output_token_limit,omitempty" yaml:"output_token_limit,omitempty"`
}

// TOCEntry is one table-of-contents line. Several entries may share a
// section id when a file holds more than one heading.
type TOCEntry struct {
	ID              string `json:"id" yaml:"id"`
	Title           string `json:"title" yaml:"title"`
	Level           int    `json:"level,omitempty" yaml:"level,omitempty"`
	Href            string `json:"href,omitempty" yaml:"href,omitempty"`
	TranslatedTitle string `json:"translated_title,omitempty" yaml:"translated_title,omitempty"`
}

// DisplayTitle prefers the translated title.
func (e TOCEntry) DisplayTitle() string {
	if e.TranslatedTitle != "" {
		return e.TranslatedTitle
	}
	if e.Title != "" {
		return e.Title
	}
	return e.ID
}

// BookStatus is the response of GET /book_status/{book_id}.
type BookStatus struct {
	Filename        string                 `json:"filename,omitempty" yaml:"filename,omitempty"`
	Status          status.Book            `json:"status" yaml:"status"`
	TotalSections   int                    `json:"total_sections,omitempty" yaml:"total_sections,omitempty"`
	TranslatedCount int                    `json:"translated_count,omitempty" yaml:"translated_count,omitempty"`
	ErrorCount      int                    `json:"error_count,omitempty" yaml:"error_count,omitempty"`
	Sections        map[string]SectionInfo `json:"sections" yaml:"sections"`
	TOC             []TOCEntry             `json:"toc,omitempty" yaml:"toc,omitempty"`
}

// UnmarshalJSON drops null section entries, which the backend sends for
// sections it has not described yet.
func (b *BookStatus) UnmarshalJSON(data []byte) error {
	type plain BookStatus
	var raw struct {
		plain
		Sections map[string]*SectionInfo `json:"sections"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*b = BookStatus(raw.plain)
	b.Sections = make(map[string]SectionInfo, len(raw.Sections))
	for id, info := range raw.Sections {
		if info != nil {
			b.Sections[id] = *info
		}
	}
	return nil
}

// AnyProcessing reports whether any section still has a running job.
func (b *BookStatus) AnyProcessing() bool {
	for _, s := range b.Sections {
		if s.Status.IsProcessing() {
			return true
		}
	}
	return false
}

// AnyDownloadable reports whether at least one section has an artifact.
func (b *BookStatus) AnyDownloadable() bool {
	for _, s := range b.Sections {
		if s.Status.IsReady() {
			return true
		}
	}
	return false
}

// Settled reports whether polling has nothing left to observe: the book is
// terminal and no section is individually processing.
func (b *BookStatus) Settled() bool {
	return b.Status.IsTerminal() && !b.AnyProcessing()
}

// Translation is the response of GET /get_translation.
type Translation struct {
	Text string `json:"text"`
}

// JobRequest is the body of the translate_section and translate_all calls.
type JobRequest struct {
	TargetLanguage string           `json:"target_language"`
	ModelName      string           `json:"model_name"`
	OperationType  status.Operation `json:"operation_type"`
}

// StartSectionResponse is returned when a single section job is accepted.
type StartSectionResponse struct {
	Status string `json:"status" yaml:"status"`
	TaskID string `json:"task_id,omitempty" yaml:"task_id,omitempty"`
}

// StartAllResponse is returned when a bulk job is accepted.
type StartAllResponse struct {
	Status        string `json:"status" yaml:"status"`
	LaunchedTasks int    `json:"launched_tasks" yaml:"launched_tasks"`
}

// ModelInfo is one entry of GET /api/models.
type ModelInfo struct {
	Name             string `json:"name" yaml:"name"`
	DisplayName      string `json:"display_name,omitempty" yaml:"display_name,omitempty"`
	InputTokenLimit  *int   `json:"input_token_limit,omitempty" yaml:"input_token_limit,omitempty"`
	OutputTokenLimit *int   `json:"output_token_limit,omitempty" yaml:"output_token_limit,omitempty"`
}
