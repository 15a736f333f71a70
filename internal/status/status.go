// Package status defines the section and book status vocabulary reported by
// the translation backend, and the single table that maps each status to the
// text shown on the board.
package status

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Status is a per-section processing state as reported by the backend.
type Status string

const (
	NotTranslated Status = "not_translated"
	Idle          Status = "idle"
	Processing    Status = "processing"

	Translated     Status = "translated"
	Cached         Status = "cached"
	CompletedEmpty Status = "completed_empty"
	Summarized     Status = "summarized"
	Analyzed       Status = "analyzed"

	ErrorContextLimit Status = "error_context_limit"
	ErrorTranslation  Status = "error_translation"
	ErrorCaching      Status = "error_caching"
	ErrorExtraction   Status = "error_extraction"
	ErrorUnknown      Status = "error_unknown"
	ErrorNetwork      Status = "error_network"
)

// errorStartPrefix marks synthetic statuses for job-start requests rejected
// by the backend, e.g. "error_start_500".
const errorStartPrefix = "error_start_"

// Parse normalizes a raw status string. Empty input means the section was
// never processed.
func Parse(raw string) Status {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return NotTranslated
	}
	return Status(raw)
}

// ErrorStart returns the synthetic status for a job start rejected with the
// given HTTP status code.
func ErrorStart(httpStatus int) Status {
	return Status(errorStartPrefix + strconv.Itoa(httpStatus))
}

// IsReady reports whether the section has a downloadable artifact.
func (s Status) IsReady() bool {
	switch s {
	case Translated, Cached, CompletedEmpty, Summarized, Analyzed:
		return true
	}
	return false
}

// IsSuccess reports whether the status is a ready state that carries model
// output. CompletedEmpty is ready but has nothing to attribute.
func (s Status) IsSuccess() bool {
	return s.IsReady() && s != CompletedEmpty
}

// IsError reports whether the status is any error kind, including synthetic
// job-start and network errors.
func (s Status) IsError() bool {
	return strings.HasPrefix(string(s), "error")
}

// IsProcessing reports whether a job is running for the section.
func (s Status) IsProcessing() bool {
	return s == Processing
}

// IsUnprocessed reports whether a bulk "process all" should pick the section up.
func (s Status) IsUnprocessed() bool {
	return s == NotTranslated || s == Idle
}

// CanRetry reports whether a retry affordance is offered for the section.
func (s Status) CanRetry() bool {
	return s.IsReady() || s.IsError()
}

// StartErrorCode extracts the HTTP status from a synthetic start error.
func (s Status) StartErrorCode() (int, bool) {
	rest, ok := strings.CutPrefix(string(s), errorStartPrefix)
	if !ok {
		return 0, false
	}
	code, err := strconv.Atoi(rest)
	if err != nil {
		return 0, false
	}
	return code, true
}

// labels is the one status → label table. Statuses not listed here fall back
// to Humanize.
var labels = map[Status]string{
	NotTranslated:     "Not Translated",
	Idle:              "Not Translated",
	Processing:        "Processing",
	Translated:        "Translated",
	Cached:            "Translated",
	CompletedEmpty:    "Empty Section",
	Summarized:        "Summarized",
	Analyzed:          "Analyzed",
	ErrorContextLimit: "Error (Too Large)",
	ErrorTranslation:  "Error (Translate)",
	ErrorCaching:      "Error (Cache)",
	ErrorExtraction:   "Error (Extract)",
	ErrorUnknown:      "Error (Unknown)",
	ErrorNetwork:      "Error (Network)",
}

// Label returns the board label for a status without model attribution.
//
// Unknown statuses are humanized: underscores become spaces and the first
// letter is upper-cased ("queued_remote" → "Queued remote"). Synthetic start
// errors render as "Error (Start 503)".
func (s Status) Label() string {
	if l, ok := labels[s]; ok {
		return l
	}
	if code, ok := s.StartErrorCode(); ok {
		return fmt.Sprintf("Error (Start %d)", code)
	}
	return Humanize(string(s))
}

// Operation returns the operation word for a success status, used in
// tooltips ("Translated", "Summarized", "Analyzed").
func (s Status) Operation() string {
	switch s {
	case Translated, Cached:
		return "Translated"
	case Summarized:
		return "Summarized"
	case Analyzed:
		return "Analyzed"
	}
	return ""
}

// Humanize turns a snake_case status into a display string.
func Humanize(raw string) string {
	if raw == "" {
		return ""
	}
	if raw == "error" {
		return "Error"
	}
	s := strings.ReplaceAll(raw, "_", " ")
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}

// ShortModelName returns the part of a model identifier after the last '/'.
func ShortModelName(model string) string {
	if i := strings.LastIndex(model, "/"); i >= 0 {
		return model[i+1:]
	}
	return model
}
