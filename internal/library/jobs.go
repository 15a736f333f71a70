package library

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jackzampolin/bookwatch/internal/content"
	"github.com/jackzampolin/bookwatch/internal/status"
	"github.com/jackzampolin/bookwatch/internal/types"
)

// StartSection queues a job for one section and returns its task id. A
// section that is already processing is left alone and "" is returned.
func (s *Store) StartSection(bookID, sectionID string, req types.JobRequest) (string, error) {
	s.mu.Lock()
	sec, err := s.sectionLocked(bookID, sectionID)
	if err != nil {
		s.mu.Unlock()
		return "", err
	}
	if sec.status.IsProcessing() {
		s.mu.Unlock()
		return "", nil
	}
	markProcessing(sec)
	s.mu.Unlock()

	taskID := uuid.NewString()
	s.launch(bookID, sectionID, req, taskID, nil)
	return taskID, nil
}

// StartAll queues jobs for every section that was never processed and
// returns how many were launched.
func (s *Store) StartAll(bookID string, req types.JobRequest) (int, error) {
	ids, err := s.markUnprocessed(bookID)
	if err != nil {
		return 0, err
	}
	for _, id := range ids {
		s.launch(bookID, id, req, uuid.NewString(), nil)
	}
	return len(ids), nil
}

func (s *Store) markUnprocessed(bookID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.books[bookID]
	if !ok {
		return nil, ErrBookNotFound
	}
	var ids []string
	for _, sec := range b.sections {
		if sec.status.IsUnprocessed() {
			markProcessing(sec)
			ids = append(ids, sec.id)
		}
	}
	return ids, nil
}

func markProcessing(sec *section) {
	sec.status = status.Processing
	sec.errorMessage = ""
}

// launch runs one job on the worker pool. onDone, if set, runs after the
// job settles or is abandoned.
func (s *Store) launch(bookID, sectionID string, req types.JobRequest, taskID string, onDone func()) {
	logger := s.logger.With("book_id", bookID, "section_id", sectionID, "task_id", taskID)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if onDone != nil {
			defer onDone()
		}

		if err := s.sem.Acquire(s.ctx, 1); err != nil {
			return
		}
		defer s.sem.Release(1)

		timer := time.NewTimer(s.JobDelay())
		defer timer.Stop()
		select {
		case <-s.ctx.Done():
			return
		case <-timer.C:
		}

		st := s.finish(bookID, sectionID, req)
		logger.Debug("job finished", "status", st)
	}()
}

// finish settles a job. The book may have been deleted meanwhile.
func (s *Store) finish(bookID, sectionID string, req types.JobRequest) status.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	sec, err := s.sectionLocked(bookID, sectionID)
	if err != nil {
		return ""
	}

	if sec.failWith != "" {
		sec.status = sec.failWith
		sec.errorMessage = failureMessage(sec.failWith)
		sec.failWith = ""
		return sec.status
	}

	lang := req.TargetLanguage
	if lang == "" {
		lang = s.books[bookID].targetLanguage
	}
	op := req.OperationType
	if op == "" {
		op = status.OpTranslate
	}
	text := simulate(op, lang, sec.source)
	sec.outputs[lang] = text
	sec.status = resultStatus(op, text)
	sec.errorMessage = ""
	sec.modelName = req.ModelName
	sec.inputLimit, sec.outputLimit = nil, nil
	if m, ok := s.modelInfo(req.ModelName); ok {
		sec.inputLimit, sec.outputLimit = m.InputTokenLimit, m.OutputTokenLimit
	}
	return sec.status
}

func resultStatus(op status.Operation, text string) status.Status {
	if text == "" {
		return status.CompletedEmpty
	}
	switch op {
	case status.OpSummarize:
		return status.Summarized
	case status.OpAnalyze:
		return status.Analyzed
	}
	return status.Translated
}

func failureMessage(st status.Status) string {
	switch st {
	case status.ErrorContextLimit:
		return "Section exceeds the model's context window"
	case status.ErrorExtraction:
		return "Could not extract text from section"
	case status.ErrorCaching:
		return "Could not cache the result"
	}
	return "Simulated " + strings.ReplaceAll(string(st), "_", " ")
}

// simulate produces deterministic stand-in output for an operation.
func simulate(op status.Operation, lang, source string) string {
	paras := content.Paragraphs(source)
	if len(paras) == 0 {
		return ""
	}
	switch op {
	case status.OpSummarize:
		first := []rune(paras[0])
		if len(first) > 200 {
			first = append(first[:200], '…')
		}
		return "**Summary**\n\n" + string(first)
	case status.OpAnalyze:
		words := len(strings.Fields(source))
		return fmt.Sprintf("**Analysis**\n\nParagraphs: %d\nWords: %d", len(paras), words)
	}
	out := make([]string, len(paras))
	for i, p := range paras {
		out[i] = fmt.Sprintf("[%s] %s", lang, p)
	}
	return strings.Join(out, "\n\n")
}
