package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/jackzampolin/bookwatch/internal/types"
)

// Route names counted by Backend.
const (
	RouteBookStatus     = "book_status"
	RouteTranslation    = "get_translation"
	RouteStartSection   = "translate_section"
	RouteStartAll       = "translate_all"
	RouteModels         = "models"
	RouteWorkflowStatus = "workflow_book_status"
	RouteWorkflowStart  = "workflow_start_existing_book"
	RouteAnalysis       = "workflow_download_analysis"
)

// Backend is a scripted translation backend served by httptest. Responses
// are set per route and every request is counted.
type Backend struct {
	Server *httptest.Server

	mu              sync.Mutex
	calls           map[string]int
	bookStatus      any
	bookStatusCode  int
	translations    map[string]string
	translationCode map[string]int
	startCode       int
	startAllCode    int
	launched        int
	models          []types.ModelInfo
	workflow        map[string]*types.WorkflowStatus
	jobs            []types.JobRequest
	langs           []string
	workflowStarts  []types.StartWorkflowRequest
	analysis        map[string]string
	gates           map[string]chan struct{}
}

// NewBackend starts a backend that is closed when the test ends.
func NewBackend(t *testing.T) *Backend {
	t.Helper()
	b := &Backend{
		calls:           make(map[string]int),
		translations:    make(map[string]string),
		translationCode: make(map[string]int),
		workflow:        make(map[string]*types.WorkflowStatus),
		analysis:        make(map[string]string),
		gates:           make(map[string]chan struct{}),
		bookStatusCode:  http.StatusOK,
		startCode:       http.StatusAccepted,
		startAllCode:    http.StatusAccepted,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /book_status/{book_id}", b.handleBookStatus)
	mux.HandleFunc("GET /get_translation/{book_id}/{section_id}", b.handleTranslation)
	mux.HandleFunc("POST /translate_section/{book_id}/{section_id}", b.handleStartSection)
	mux.HandleFunc("POST /translate_all/{book_id}", b.handleStartAll)
	mux.HandleFunc("GET /api/models", b.handleModels)
	mux.HandleFunc("GET /workflow_book_status/{book_id}", b.handleWorkflowStatus)
	mux.HandleFunc("POST /workflow_start_existing_book/{book_id}", b.handleWorkflowStart)
	mux.HandleFunc("GET /workflow_download_analysis/{book_id}", b.handleAnalysis)

	b.Server = httptest.NewServer(mux)
	t.Cleanup(func() {
		b.mu.Lock()
		for name, g := range b.gates {
			close(g)
			delete(b.gates, name)
		}
		b.mu.Unlock()
		b.Server.Close()
	})
	return b
}

// URL returns the backend root.
func (b *Backend) URL() string {
	return b.Server.URL
}

// SetBookStatus sets the book status payload. v may be a types.BookStatus
// or any value that marshals to the wanted JSON.
func (b *Backend) SetBookStatus(v any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.bookStatus = v
	b.bookStatusCode = http.StatusOK
}

// SetBookStatusCode makes the status endpoint answer with an error code.
func (b *Backend) SetBookStatusCode(code int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.bookStatusCode = code
}

// SetTranslation sets the text returned for a section.
func (b *Backend) SetTranslation(sectionID, text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.translations[sectionID] = text
	delete(b.translationCode, sectionID)
}

// SetTranslationCode makes get_translation fail for a section.
func (b *Backend) SetTranslationCode(sectionID string, code int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.translationCode[sectionID] = code
}

// SetStartCode sets the status code for translate_section.
func (b *Backend) SetStartCode(code int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.startCode = code
}

// SetStartAll sets the response of translate_all.
func (b *Backend) SetStartAll(code, launched int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.startAllCode = code
	b.launched = launched
}

// SetModels sets the model catalog.
func (b *Backend) SetModels(models []types.ModelInfo) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.models = models
}

// SetWorkflowStatus sets the workflow status for a book.
func (b *Backend) SetWorkflowStatus(ws types.WorkflowStatus) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.workflow[ws.BookID] = &ws
}

// SetAnalysis sets the analysis text for a book.
func (b *Backend) SetAnalysis(bookID, text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.analysis[bookID] = text
}

// Hold blocks requests to route until the returned release is called.
func (b *Backend) Hold(route string) (release func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	g := make(chan struct{})
	b.gates[route] = g
	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if b.gates[route] == g {
				delete(b.gates, route)
				close(g)
			}
		})
	}
}

// Calls returns how many requests route has received.
func (b *Backend) Calls(route string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[route]
}

// Jobs returns the bodies of every translate_section and translate_all call.
func (b *Backend) Jobs() []types.JobRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]types.JobRequest(nil), b.jobs...)
}

// TranslationLangs returns the lang query of every get_translation call.
func (b *Backend) TranslationLangs() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.langs...)
}

// WorkflowStarts returns the bodies of every workflow start call.
func (b *Backend) WorkflowStarts() []types.StartWorkflowRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]types.StartWorkflowRequest(nil), b.workflowStarts...)
}

func (b *Backend) enter(r *http.Request, route string) {
	b.mu.Lock()
	b.calls[route]++
	g := b.gates[route]
	b.mu.Unlock()
	if g != nil {
		select {
		case <-g:
		case <-r.Context().Done():
		}
	}
}

func (b *Backend) handleBookStatus(w http.ResponseWriter, r *http.Request) {
	b.enter(r, RouteBookStatus)
	b.mu.Lock()
	code, payload := b.bookStatusCode, b.bookStatus
	b.mu.Unlock()

	if code != http.StatusOK {
		writeJSON(w, code, map[string]string{"error": http.StatusText(code)})
		return
	}
	if raw, ok := payload.(string); ok {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(raw))
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

func (b *Backend) handleTranslation(w http.ResponseWriter, r *http.Request) {
	b.enter(r, RouteTranslation)
	id := r.PathValue("section_id")
	b.mu.Lock()
	b.langs = append(b.langs, r.URL.Query().Get("lang"))
	code, hasCode := b.translationCode[id]
	text, hasText := b.translations[id]
	b.mu.Unlock()

	switch {
	case hasCode:
		writeJSON(w, code, map[string]string{"error": http.StatusText(code)})
	case !hasText:
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Translation not found"})
	default:
		writeJSON(w, http.StatusOK, types.Translation{Text: text})
	}
}

func (b *Backend) handleStartSection(w http.ResponseWriter, r *http.Request) {
	b.enter(r, RouteStartSection)
	var req types.JobRequest
	json.NewDecoder(r.Body).Decode(&req)
	b.mu.Lock()
	b.jobs = append(b.jobs, req)
	code := b.startCode
	b.mu.Unlock()

	if code >= 400 {
		writeJSON(w, code, map[string]string{"error": "could not start job"})
		return
	}
	writeJSON(w, code, types.StartSectionResponse{Status: "processing", TaskID: r.PathValue("section_id")})
}

func (b *Backend) handleStartAll(w http.ResponseWriter, r *http.Request) {
	b.enter(r, RouteStartAll)
	var req types.JobRequest
	json.NewDecoder(r.Body).Decode(&req)
	b.mu.Lock()
	b.jobs = append(b.jobs, req)
	code, launched := b.startAllCode, b.launched
	b.mu.Unlock()

	if code >= 400 {
		writeJSON(w, code, map[string]string{"error": "could not start jobs"})
		return
	}
	writeJSON(w, code, types.StartAllResponse{Status: "processing_all", LaunchedTasks: launched})
}

func (b *Backend) handleModels(w http.ResponseWriter, r *http.Request) {
	b.enter(r, RouteModels)
	b.mu.Lock()
	models := b.models
	b.mu.Unlock()
	if models == nil {
		models = []types.ModelInfo{}
	}
	writeJSON(w, http.StatusOK, models)
}

func (b *Backend) handleWorkflowStatus(w http.ResponseWriter, r *http.Request) {
	b.enter(r, RouteWorkflowStatus)
	b.mu.Lock()
	ws, ok := b.workflow[r.PathValue("book_id")]
	var out types.WorkflowStatus
	if ok {
		out = *ws
	}
	b.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Book not found"})
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) handleWorkflowStart(w http.ResponseWriter, r *http.Request) {
	b.enter(r, RouteWorkflowStart)
	var req types.StartWorkflowRequest
	json.NewDecoder(r.Body).Decode(&req)
	b.mu.Lock()
	b.workflowStarts = append(b.workflowStarts, req)
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, types.ActionResponse{Status: "success", Message: "Workflow started"})
}

func (b *Backend) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	b.enter(r, RouteAnalysis)
	b.mu.Lock()
	text, ok := b.analysis[r.PathValue("book_id")]
	b.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Analysis not found"})
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(text))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
