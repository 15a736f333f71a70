package status

// Book is an overall book status.
type Book string

const (
	BookIdle               Book = "idle"
	BookProcessing         Book = "processing"
	BookComplete           Book = "complete"
	BookCompleteWithErrors Book = "complete_with_errors"
)

// IsTerminal reports whether the backend considers the book finished.
func (b Book) IsTerminal() bool {
	return b == BookComplete || b == BookCompleteWithErrors
}

// Operation is the kind of job dispatched for a section.
type Operation string

const (
	OpTranslate Operation = "translate"
	OpSummarize Operation = "summarize"
	OpAnalyze   Operation = "analyze"
)

// ParseOperation maps unknown or empty input to OpTranslate.
func ParseOperation(raw string) Operation {
	switch Operation(raw) {
	case OpSummarize:
		return OpSummarize
	case OpAnalyze:
		return OpAnalyze
	}
	return OpTranslate
}

// ProcessAllCaption is the caption of the bulk action for an operation.
func (o Operation) ProcessAllCaption() string {
	switch o {
	case OpSummarize:
		return "Summarize all unprocessed"
	case OpAnalyze:
		return "Analyze all unprocessed"
	}
	return "Translate all untranslated"
}

// RetryCaption is the hint shown on a section's retry affordance.
func (o Operation) RetryCaption() string {
	switch o {
	case OpSummarize:
		return "Summarize again"
	case OpAnalyze:
		return "Analyze again"
	}
	return "Translate again"
}
