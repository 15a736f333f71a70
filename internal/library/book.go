package library

import (
	"github.com/jackzampolin/bookwatch/internal/status"
	"github.com/jackzampolin/bookwatch/internal/types"
)

type section struct {
	id       string
	title    string
	level    int
	source   string
	headings []string

	status       status.Status
	modelName    string
	errorMessage string
	inputLimit   *int
	outputLimit  *int
	failWith     status.Status
	outputs      map[string]string
}

type book struct {
	id             string
	filename       string
	targetLanguage string
	sections       []*section
	byID           map[string]*section
	workflow       *workflowState
}

// overall derives the book status from its sections.
func (b *book) overall() status.Book {
	if len(b.sections) == 0 {
		return status.BookIdle
	}
	var ready, errs int
	for _, sec := range b.sections {
		switch {
		case sec.status.IsProcessing():
			return status.BookProcessing
		case sec.status.IsReady():
			ready++
		case sec.status.IsError():
			errs++
		}
	}
	switch {
	case ready == len(b.sections):
		return status.BookComplete
	case ready+errs == len(b.sections):
		return status.BookCompleteWithErrors
	}
	return status.BookIdle
}

func (b *book) snapshot() *types.BookStatus {
	bs := &types.BookStatus{
		Filename:      b.filename,
		Status:        b.overall(),
		TotalSections: len(b.sections),
		Sections:      make(map[string]types.SectionInfo, len(b.sections)),
	}
	for _, sec := range b.sections {
		bs.Sections[sec.id] = types.SectionInfo{
			Status:           sec.status,
			ModelName:        sec.modelName,
			ErrorMessage:     sec.errorMessage,
			InputTokenLimit:  sec.inputLimit,
			OutputTokenLimit: sec.outputLimit,
		}
		switch {
		case sec.status.IsReady():
			bs.TranslatedCount++
		case sec.status.IsError():
			bs.ErrorCount++
		}
		title := sec.title
		if title == "" {
			title = sec.id
		}
		href := sec.id + ".xhtml"
		bs.TOC = append(bs.TOC, types.TOCEntry{ID: sec.id, Title: title, Level: sec.level, Href: href})
		for _, h := range sec.headings {
			bs.TOC = append(bs.TOC, types.TOCEntry{ID: sec.id, Title: h, Level: sec.level + 1, Href: href})
		}
	}
	return bs
}
