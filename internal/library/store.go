// Package library is the in-memory development backend behind
// `bookwatch serve`. It stores books as ordered sections, runs simulated
// processing jobs on a bounded worker pool, and reports status in the same
// shapes as the production translation backend.
package library

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/jackzampolin/bookwatch/internal/status"
	"github.com/jackzampolin/bookwatch/internal/types"
)

var (
	// ErrBookNotFound is returned for an unknown book id.
	ErrBookNotFound = errors.New("book not found")
	// ErrSectionNotFound is returned for an unknown section id.
	ErrSectionNotFound = errors.New("section not found")
	// ErrNotReady is returned when a section has no output for a language.
	ErrNotReady = errors.New("translation not found")
	// ErrInvalidState is returned when a workflow action does not fit the
	// book's current stage.
	ErrInvalidState = errors.New("invalid workflow state")
)

// Config configures a Store.
type Config struct {
	// JobDelay is how long each simulated job takes (default: 2s)
	JobDelay time.Duration
	// MaxWorkers bounds concurrently running jobs (default: 4)
	MaxWorkers int64
	// Models is the catalog served by /api/models (default: DefaultModels)
	Models []types.ModelInfo
	Logger *slog.Logger
}

// Store holds every book. It is safe for concurrent use.
type Store struct {
	jobDelay atomic.Int64
	sem      *semaphore.Weighted
	logger   *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.RWMutex
	books  map[string]*book
	order  []string
	models []types.ModelInfo
}

// New creates an empty store.
func New(cfg Config) *Store {
	if cfg.JobDelay <= 0 {
		cfg.JobDelay = 2 * time.Second
	}
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = 4
	}
	if cfg.Models == nil {
		cfg.Models = DefaultModels()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Store{
		sem:    semaphore.NewWeighted(cfg.MaxWorkers),
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
		books:  make(map[string]*book),
		models: cfg.Models,
	}
	s.jobDelay.Store(int64(cfg.JobDelay))
	return s
}

// SetJobDelay changes how long jobs started from now on take. Values <= 0
// are ignored.
func (s *Store) SetJobDelay(d time.Duration) {
	if d > 0 {
		s.jobDelay.Store(int64(d))
	}
}

// JobDelay returns the current simulated job duration.
func (s *Store) JobDelay() time.Duration {
	return time.Duration(s.jobDelay.Load())
}

// Close cancels running jobs and waits for them to exit.
func (s *Store) Close() {
	s.cancel()
	s.wg.Wait()
}

// DefaultModels is the catalog used when none is configured.
func DefaultModels() []types.ModelInfo {
	return []types.ModelInfo{
		{Name: "models/gemini-1.5-flash", DisplayName: "Gemini 1.5 Flash", InputTokenLimit: intp(1048576), OutputTokenLimit: intp(8192)},
		{Name: "models/gemini-1.5-pro", DisplayName: "Gemini 1.5 Pro", InputTokenLimit: intp(2097152), OutputTokenLimit: intp(8192)},
		{Name: "meta-llama/llama-4-maverick:free", DisplayName: "Llama 4 Maverick"},
	}
}

func intp(v int) *int { return &v }

// Models returns the model catalog.
func (s *Store) Models() []types.ModelInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]types.ModelInfo(nil), s.models...)
}

// SetModels replaces the model catalog.
func (s *Store) SetModels(models []types.ModelInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.models = models
}

func (s *Store) modelInfo(name string) (types.ModelInfo, bool) {
	for _, m := range s.models {
		if m.Name == name {
			return m, true
		}
	}
	return types.ModelInfo{}, false
}

// SectionSeed describes one section of a new book.
type SectionSeed struct {
	ID       string        `yaml:"id"`
	Title    string        `yaml:"title"`
	Level    int           `yaml:"level"`
	Text     string        `yaml:"text"`
	Status   status.Status `yaml:"status"`
	FailWith status.Status `yaml:"fail_with"`
	// Headings adds extra table-of-contents rows pointing at this section.
	Headings []string `yaml:"headings"`
}

// BookSeed describes a new book.
type BookSeed struct {
	ID             string        `yaml:"id"`
	Filename       string        `yaml:"filename"`
	TargetLanguage string        `yaml:"target_language"`
	Sections       []SectionSeed `yaml:"sections"`
}

// AddBook stores a book and returns its id. A missing id is generated;
// missing section ids become s1, s2, ...
func (s *Store) AddBook(seed BookSeed) (string, error) {
	id := seed.ID
	if id == "" {
		id = uuid.NewString()
	}

	b := &book{
		id:             id,
		filename:       seed.Filename,
		targetLanguage: seed.TargetLanguage,
		byID:           make(map[string]*section),
	}
	for i, ss := range seed.Sections {
		sid := ss.ID
		if sid == "" {
			sid = fmt.Sprintf("s%d", i+1)
		}
		if _, dup := b.byID[sid]; dup {
			return "", fmt.Errorf("book %s: duplicate section id %q", id, sid)
		}
		level := ss.Level
		if level <= 0 {
			level = 1
		}
		sec := &section{
			id:       sid,
			title:    ss.Title,
			level:    level,
			source:   ss.Text,
			status:   status.Parse(string(ss.Status)),
			failWith: ss.FailWith,
			headings: ss.Headings,
			outputs:  make(map[string]string),
		}
		if sec.status.IsReady() && seed.TargetLanguage != "" {
			sec.outputs[seed.TargetLanguage] = simulate(status.OpTranslate, seed.TargetLanguage, ss.Text)
		}
		b.sections = append(b.sections, sec)
		b.byID[sid] = sec
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.books[id]; exists {
		return "", fmt.Errorf("book %s already exists", id)
	}
	s.books[id] = b
	s.order = append(s.order, id)
	s.logger.Info("book added", "book_id", id, "sections", len(b.sections))
	return id, nil
}

// DeleteBook removes a book. Jobs still running for it finish silently.
func (s *Store) DeleteBook(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.books[id]; !ok {
		return ErrBookNotFound
	}
	delete(s.books, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.logger.Info("book deleted", "book_id", id)
	return nil
}

// BookIDs lists books in insertion order.
func (s *Store) BookIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.order...)
}

// BookStatus returns the aggregate status of a book.
func (s *Store) BookStatus(id string) (*types.BookStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.books[id]
	if !ok {
		return nil, ErrBookNotFound
	}
	return b.snapshot(), nil
}

// Translation returns a section's output for a language.
func (s *Store) Translation(bookID, sectionID, lang string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sec, err := s.sectionLocked(bookID, sectionID)
	if err != nil {
		return "", err
	}
	if lang == "" {
		lang = s.books[bookID].targetLanguage
	}
	if !sec.status.IsReady() {
		return "", ErrNotReady
	}
	text, ok := sec.outputs[lang]
	if !ok {
		return "", ErrNotReady
	}
	return text, nil
}

// FailSection makes the next job for a section end with st.
func (s *Store) FailSection(bookID, sectionID string, st status.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sec, err := s.sectionLocked(bookID, sectionID)
	if err != nil {
		return err
	}
	sec.failWith = st
	return nil
}

func (s *Store) sectionLocked(bookID, sectionID string) (*section, error) {
	b, ok := s.books[bookID]
	if !ok {
		return nil, ErrBookNotFound
	}
	sec, ok := b.byID[sectionID]
	if !ok {
		return nil, ErrSectionNotFound
	}
	return sec, nil
}
