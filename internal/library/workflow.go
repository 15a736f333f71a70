package library

import (
	"bufio"
	"bytes"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/jackzampolin/bookwatch/internal/status"
	"github.com/jackzampolin/bookwatch/internal/types"
)

// Overall workflow states beyond the stage statuses.
const (
	WorkflowNotStarted = "not_started"
	WorkflowProcessing = "processing"
)

type workflowState struct {
	admin    bool
	running  bool
	current  string
	stage    string
	stages   map[string]*types.StageStatus
	summary  string
	analysis string
	comic    bool
}

func newWorkflowState(admin bool) *workflowState {
	wf := &workflowState{
		admin:   admin,
		current: WorkflowNotStarted,
		stages:  make(map[string]*types.StageStatus, len(types.WorkflowStages)),
	}
	for _, name := range types.WorkflowStages {
		wf.stages[name] = &types.StageStatus{
			Status:       types.StagePending,
			IsPerSection: name == types.StageTranslate,
		}
	}
	return wf
}

// UploadBook splits an uploaded text file into sections on "# " headings,
// stores it, and starts its workflow.
func (s *Store) UploadBook(filename string, data []byte, targetLanguage string, admin bool) (string, error) {
	id, err := s.AddBook(BookSeed{
		Filename:       filename,
		TargetLanguage: targetLanguage,
		Sections:       splitSections(filename, data),
	})
	if err != nil {
		return "", err
	}
	if err := s.StartWorkflow(id, types.StartWorkflowRequest{Admin: admin}); err != nil {
		return "", err
	}
	return id, nil
}

// StartWorkflow starts a book's workflow from the beginning, or resumes it
// after the analysis edit pause.
func (s *Store) StartWorkflow(bookID string, req types.StartWorkflowRequest) error {
	s.mu.Lock()
	b, ok := s.books[bookID]
	if !ok {
		s.mu.Unlock()
		return ErrBookNotFound
	}

	from := 0
	if req.ContinueAfterEdit {
		wf := b.workflow
		if wf == nil || wf.stages[types.StageAnalyze].Status != types.StageAwaitingEdit {
			s.mu.Unlock()
			return ErrInvalidState
		}
		if req.EditedAnalysis != "" {
			wf.analysis = req.EditedAnalysis
		}
		wf.stages[types.StageAnalyze].Status = types.StageCompleted
		from = stageIndex(types.StageTranslate)
	} else {
		if b.workflow != nil && b.workflow.running {
			s.mu.Unlock()
			return ErrInvalidState
		}
		b.workflow = newWorkflowState(req.Admin)
	}
	b.workflow.running = true
	b.workflow.current = WorkflowProcessing
	s.mu.Unlock()

	s.logger.Info("workflow started", "book_id", bookID, "continue_after_edit", req.ContinueAfterEdit)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runWorkflow(bookID, from)
	}()
	return nil
}

func stageIndex(name string) int {
	for i, n := range types.WorkflowStages {
		if n == name {
			return i
		}
	}
	return len(types.WorkflowStages)
}

func (s *Store) runWorkflow(bookID string, from int) {
	for _, stage := range types.WorkflowStages[from:] {
		if !s.setStage(bookID, stage, types.StageProcessing) {
			return
		}

		var ok bool
		switch stage {
		case types.StageTranslate:
			ok = s.translateAll(bookID)
		default:
			ok = s.sleep()
		}
		if !ok {
			return
		}

		next := types.StageCompleted
		if stage == types.StageAnalyze && s.isAdmin(bookID) {
			next = types.StageAwaitingEdit
		}
		if !s.completeStage(bookID, stage, next) {
			return
		}
		if next == types.StageAwaitingEdit {
			return
		}
	}
}

func (s *Store) sleep() bool {
	timer := time.NewTimer(s.JobDelay())
	defer timer.Stop()
	select {
	case <-s.ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// setStage marks a stage. It returns false if the book is gone.
func (s *Store) setStage(bookID, stage, st string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.books[bookID]
	if !ok || b.workflow == nil {
		return false
	}
	b.workflow.stage = stage
	b.workflow.stages[stage].Status = st
	return true
}

func (s *Store) isAdmin(bookID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.books[bookID]
	return ok && b.workflow != nil && b.workflow.admin
}

// completeStage records a stage result and its artifacts.
func (s *Store) completeStage(bookID, stage, st string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.books[bookID]
	if !ok || b.workflow == nil {
		return false
	}
	wf := b.workflow
	wf.stages[stage].Status = st

	switch stage {
	case types.StageSummarize:
		wf.summary = simulate(status.OpSummarize, b.targetLanguage, b.fullText())
	case types.StageAnalyze:
		wf.analysis = simulate(status.OpAnalyze, b.targetLanguage, b.fullText())
	case types.StageEpub:
		wf.current = types.StageCompleted
		wf.running = false
	}
	if st == types.StageAwaitingEdit {
		wf.current = types.StageAwaitingEdit
		wf.running = false
	}
	return true
}

// translateAll runs a translate job for every section and waits for all.
func (s *Store) translateAll(bookID string) bool {
	s.mu.Lock()
	b, ok := s.books[bookID]
	if !ok {
		s.mu.Unlock()
		return false
	}
	req := types.JobRequest{TargetLanguage: b.targetLanguage, OperationType: status.OpTranslate}
	var ids []string
	for _, sec := range b.sections {
		markProcessing(sec)
		ids = append(ids, sec.id)
	}
	s.mu.Unlock()

	var batch sync.WaitGroup
	batch.Add(len(ids))
	for _, id := range ids {
		s.launch(bookID, id, req, bookID+"/"+id, batch.Done)
	}
	batch.Wait()
	return s.ctx.Err() == nil
}

func (b *book) fullText() string {
	parts := make([]string, 0, len(b.sections))
	for _, sec := range b.sections {
		parts = append(parts, sec.source)
	}
	return strings.Join(parts, "\n\n")
}

// WorkflowStatus reports a book's workflow state.
func (s *Store) WorkflowStatus(bookID string) (*types.WorkflowStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.books[bookID]
	if !ok {
		return nil, ErrBookNotFound
	}
	wf := b.workflow
	if wf == nil {
		wf = newWorkflowState(false)
	}

	ws := &types.WorkflowStatus{
		BookID:                b.id,
		Filename:              b.filename,
		TargetLanguage:        b.targetLanguage,
		CurrentWorkflowStatus: wf.current,
		CurrentStageName:      wf.stage,
		BookStageStatuses:     make(map[string]types.StageStatus, len(wf.stages)),
		TotalSectionsCount:    len(b.sections),
		SectionsStatusSummary: map[string]map[string]int{types.StageTranslate: {}},
	}
	for name, st := range wf.stages {
		ws.BookStageStatuses[name] = *st
	}
	for _, sec := range b.sections {
		ws.SectionsStatusSummary[types.StageTranslate][string(sec.status)]++
	}
	return ws, nil
}

// WorkflowSections lists each section with its status.
func (s *Store) WorkflowSections(bookID string) ([]types.WorkflowSection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.books[bookID]
	if !ok {
		return nil, ErrBookNotFound
	}
	out := make([]types.WorkflowSection, 0, len(b.sections))
	for _, sec := range b.sections {
		out = append(out, types.WorkflowSection{SectionID: sec.id, SectionTitle: sec.title, Status: string(sec.status)})
	}
	return out, nil
}

// RetranslateSection requeues one section in the book's target language.
func (s *Store) RetranslateSection(bookID, sectionID string) error {
	s.mu.RLock()
	b, ok := s.books[bookID]
	var lang string
	if ok {
		lang = b.targetLanguage
	}
	s.mu.RUnlock()
	if !ok {
		return ErrBookNotFound
	}
	_, err := s.StartSection(bookID, sectionID, types.JobRequest{TargetLanguage: lang, OperationType: status.OpTranslate})
	return err
}

// Summary returns the summarize stage artifact.
func (s *Store) Summary(bookID string) (string, error) {
	return s.artifact(bookID, func(wf *workflowState) string { return wf.summary })
}

// Analysis returns the analyze stage artifact, including any edit.
func (s *Store) Analysis(bookID string) (string, error) {
	return s.artifact(bookID, func(wf *workflowState) string { return wf.analysis })
}

func (s *Store) artifact(bookID string, get func(*workflowState) string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.books[bookID]
	if !ok {
		return "", ErrBookNotFound
	}
	if b.workflow == nil || get(b.workflow) == "" {
		return "", ErrNotReady
	}
	return get(b.workflow), nil
}

// GenerateComic records a comic request for a finished workflow.
func (s *Store) GenerateComic(bookID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.books[bookID]
	if !ok {
		return ErrBookNotFound
	}
	if b.workflow == nil || b.workflow.current != types.StageCompleted {
		return ErrInvalidState
	}
	b.workflow.comic = true
	return nil
}

// splitSections turns "# Heading" separated text into sections. Text
// before the first heading becomes its own section.
func splitSections(filename string, data []byte) []SectionSeed {
	var (
		out  []SectionSeed
		cur  *SectionSeed
		body strings.Builder
	)
	flush := func() {
		if cur == nil {
			return
		}
		cur.Text = strings.TrimSpace(body.String())
		out = append(out, *cur)
		body.Reset()
	}

	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if title, ok := strings.CutPrefix(line, "# "); ok {
			flush()
			cur = &SectionSeed{Title: strings.TrimSpace(title), Level: 1}
			continue
		}
		if cur == nil {
			if strings.TrimSpace(line) == "" {
				continue
			}
			cur = &SectionSeed{Title: strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename)), Level: 1}
		}
		body.WriteString(line)
		body.WriteByte('\n')
	}
	flush()
	return out
}
