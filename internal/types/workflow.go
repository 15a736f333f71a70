package types

import "strings"

// Workflow stage names, in pipeline order.
const (
	StageSummarize = "summarize"
	StageAnalyze   = "analyze"
	StageTranslate = "translate"
	StageEpub      = "epub"
)

// WorkflowStages lists the pipeline stages in order.
var WorkflowStages = []string{StageSummarize, StageAnalyze, StageTranslate, StageEpub}

// Workflow stage statuses.
const (
	StagePending      = "pending"
	StageQueued       = "queued"
	StageProcessing   = "processing"
	StageCompleted    = "completed"
	StageAwaitingEdit = "awaiting_edit"
	StageError        = "error"
	StageSkipped      = "skipped"
)

// StageStatus is the state of one book-level workflow stage.
type StageStatus struct {
	Status       string `json:"status" yaml:"status"`
	ErrorMessage string `json:"error_message,omitempty" yaml:"error_message,omitempty"`
	IsPerSection bool   `json:"is_per_section" yaml:"is_per_section"`
}

// WorkflowStatus is the response of GET /workflow_book_status/{id}.
type WorkflowStatus struct {
	BookID                string                    `json:"book_id" yaml:"book_id"`
	Filename              string                    `json:"filename,omitempty" yaml:"filename,omitempty"`
	TargetLanguage        string                    `json:"target_language,omitempty" yaml:"target_language,omitempty"`
	CurrentWorkflowStatus string                    `json:"current_workflow_status" yaml:"current_workflow_status"`
	CurrentStageName      string                    `json:"current_stage_name,omitempty" yaml:"current_stage_name,omitempty"`
	BookStageStatuses     map[string]StageStatus    `json:"book_stage_statuses" yaml:"book_stage_statuses"`
	TotalSectionsCount    int                       `json:"total_sections_count" yaml:"total_sections_count"`
	SectionsStatusSummary map[string]map[string]int `json:"sections_status_summary,omitempty" yaml:"sections_status_summary,omitempty"`
}

// IsFinished reports whether the workflow reached a terminal state.
func (w *WorkflowStatus) IsFinished() bool {
	s := w.CurrentWorkflowStatus
	return s == StageCompleted || s == StageError || strings.HasPrefix(s, "error_")
}

// AwaitingEdit reports whether the analyze stage is paused for a human edit.
func (w *WorkflowStatus) AwaitingEdit() bool {
	st, ok := w.BookStageStatuses[StageAnalyze]
	return ok && st.Status == StageAwaitingEdit
}

// WorkflowSection is one entry of GET /workflow/api/book/{id}/sections.
type WorkflowSection struct {
	SectionID    string `json:"section_id" yaml:"section_id"`
	SectionTitle string `json:"section_title" yaml:"section_title"`
	Status       string `json:"status" yaml:"status"`
}

// StartWorkflowRequest is the body of POST /workflow_start_existing_book/{id}.
type StartWorkflowRequest struct {
	Admin             bool   `json:"admin"`
	ContinueAfterEdit bool   `json:"continue_after_edit,omitempty"`
	EditedAnalysis    string `json:"edited_analysis,omitempty"`
}

// ActionResponse is the generic {status, message} acknowledgement used by
// workflow actions.
type ActionResponse struct {
	Status  string `json:"status" yaml:"status"`
	Message string `json:"message,omitempty" yaml:"message,omitempty"`
}

// OK reports whether the backend acknowledged the action. Only an explicit
// "error" status is a rejection.
func (r ActionResponse) OK() bool {
	return r.Status != "error"
}

// UploadResponse is the response of POST /workflow_upload.
type UploadResponse struct {
	Status             string `json:"status,omitempty" yaml:"status,omitempty"`
	Message            string `json:"message,omitempty" yaml:"message,omitempty"`
	BookID             string `json:"book_id" yaml:"book_id"`
	Filename           string `json:"filename,omitempty" yaml:"filename,omitempty"`
	TotalSectionsCount int    `json:"total_sections_count,omitempty" yaml:"total_sections_count,omitempty"`
	Error              string `json:"error,omitempty" yaml:"error,omitempty"`
}

// DeleteResponse is the response of POST /workflow_delete_book/{id}.
type DeleteResponse struct {
	Success bool   `json:"success" yaml:"success"`
	BookID  string `json:"book_id" yaml:"book_id"`
}
