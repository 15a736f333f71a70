package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jackzampolin/bookwatch/internal/api"
	"github.com/jackzampolin/bookwatch/internal/testutil"
	"github.com/jackzampolin/bookwatch/internal/types"
)

func workflowStatus(id, current string, stages map[string]string) types.WorkflowStatus {
	ws := types.WorkflowStatus{
		BookID:                id,
		CurrentWorkflowStatus: current,
		BookStageStatuses:     make(map[string]types.StageStatus),
	}
	for name, st := range stages {
		ws.BookStageStatuses[name] = types.StageStatus{Status: st}
	}
	return ws
}

func newWatcher(be *testutil.Backend, admin bool) (*Watcher, *recorder) {
	rec := &recorder{}
	w := NewWatcher(WatcherConfig{
		Client:         NewClient(api.NewClient(be.URL())),
		Interval:       10 * time.Millisecond,
		Admin:          admin,
		Logger:         testutil.Logger(),
		OnStatus:       rec.status,
		OnAwaitingEdit: rec.edit,
		OnFinished:     rec.finish,
	})
	return w, rec
}

type recorder struct {
	mu       sync.Mutex
	statuses int
	analysis string
	finished []string
}

func (r *recorder) status(*types.WorkflowStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses++
}

func (r *recorder) edit(_ string, analysis string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.analysis = analysis
}

func (r *recorder) finish(ws *types.WorkflowStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished = append(r.finished, ws.BookID)
}

func TestRun_Finished(t *testing.T) {
	be := testutil.NewBackend(t)
	be.SetWorkflowStatus(workflowStatus("b1", "processing", map[string]string{"summarize": "processing"}))
	w, rec := newWatcher(be, false)

	go func() {
		time.Sleep(30 * time.Millisecond)
		be.SetWorkflowStatus(workflowStatus("b1", "completed", map[string]string{"epub": "completed"}))
	}()

	outcome, err := w.Run(context.Background(), "b1")
	require.NoError(t, err)
	assert.Equal(t, OutcomeFinished, outcome)
	assert.Equal(t, []string{"b1"}, rec.finished)
	assert.GreaterOrEqual(t, rec.statuses, 2)
}

func TestRun_ErrorStatusIsTerminal(t *testing.T) {
	be := testutil.NewBackend(t)
	be.SetWorkflowStatus(workflowStatus("b1", "error_analyze", nil))
	w, rec := newWatcher(be, false)

	outcome, err := w.Run(context.Background(), "b1")
	require.NoError(t, err)
	assert.Equal(t, OutcomeFinished, outcome)
	assert.Len(t, rec.finished, 1)
}

func TestRun_AwaitingEditAdmin(t *testing.T) {
	be := testutil.NewBackend(t)
	be.SetWorkflowStatus(workflowStatus("b1", "processing", map[string]string{"analyze": "awaiting_edit"}))
	be.SetAnalysis("b1", "Characters: ...")
	w, rec := newWatcher(be, true)

	outcome, err := w.Run(context.Background(), "b1")
	require.NoError(t, err)
	assert.Equal(t, OutcomeAwaitingEdit, outcome)
	assert.Equal(t, "Characters: ...", rec.analysis)
	assert.Empty(t, rec.finished)
}

func TestRun_AwaitingEditIgnoredWithoutAdmin(t *testing.T) {
	be := testutil.NewBackend(t)
	be.SetWorkflowStatus(workflowStatus("b1", "processing", map[string]string{"analyze": "awaiting_edit"}))
	w, _ := newWatcher(be, false)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	outcome, err := w.Run(ctx, "b1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, OutcomeStopped, outcome)
	assert.Equal(t, 0, be.Calls(testutil.RouteAnalysis))
}

func TestRun_NotFound(t *testing.T) {
	be := testutil.NewBackend(t)
	w, _ := newWatcher(be, false)

	_, err := w.Run(context.Background(), "missing")
	assert.True(t, errors.Is(err, api.ErrNotFound))
}

func TestWatch_ReplacesExisting(t *testing.T) {
	be := testutil.NewBackend(t)
	be.SetWorkflowStatus(workflowStatus("b1", "processing", nil))
	w, _ := newWatcher(be, false)
	t.Cleanup(w.StopAll)

	w.Watch(context.Background(), "b1")
	w.Watch(context.Background(), "b1")
	assert.True(t, w.Watching("b1"))

	w.mu.Lock()
	assert.Len(t, w.watches, 1)
	w.mu.Unlock()

	be.SetWorkflowStatus(workflowStatus("b1", "completed", nil))
	require.Eventually(t, func() bool { return !w.Watching("b1") }, 2*time.Second, 5*time.Millisecond)
}

func TestWatch_ConcurrentReplaceLeavesOneLoop(t *testing.T) {
	be := testutil.NewBackend(t)
	be.SetWorkflowStatus(workflowStatus("b1", "processing", nil))
	w, _ := newWatcher(be, false)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.Watch(context.Background(), "b1")
		}()
	}
	wg.Wait()

	w.mu.Lock()
	assert.Len(t, w.watches, 1)
	w.mu.Unlock()

	w.StopAll()
	assert.False(t, w.Watching("b1"))

	calls := be.Calls(testutil.RouteWorkflowStatus)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, calls, be.Calls(testutil.RouteWorkflowStatus), "a replaced watch kept polling")
}

func TestWatchAll(t *testing.T) {
	be := testutil.NewBackend(t)
	be.SetWorkflowStatus(workflowStatus("b1", "completed", nil))
	be.SetWorkflowStatus(workflowStatus("b2", "error", nil))
	w, rec := newWatcher(be, false)

	require.NoError(t, w.WatchAll(context.Background(), []string{"b1", "b2"}))
	assert.ElementsMatch(t, []string{"b1", "b2"}, rec.finished)

	err := w.WatchAll(context.Background(), []string{"b1", "missing"})
	assert.ErrorIs(t, err, api.ErrNotFound)
}

func TestContinueAfterEdit(t *testing.T) {
	be := testutil.NewBackend(t)
	c := NewClient(api.NewClient(be.URL()))

	_, err := c.ContinueAfterEdit(context.Background(), "b1", "edited", true)
	require.NoError(t, err)

	starts := be.WorkflowStarts()
	require.Len(t, starts, 1)
	assert.Equal(t, types.StartWorkflowRequest{Admin: true, ContinueAfterEdit: true, EditedAnalysis: "edited"}, starts[0])
}

func TestClientActions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.Method + " " + r.URL.Path {
		case "POST /workflow_upload":
			json.NewEncoder(w).Encode(types.UploadResponse{BookID: "wf-1"})
		case "POST /workflow_delete_book/wf-1":
			json.NewEncoder(w).Encode(types.DeleteResponse{Success: true, BookID: "wf-1"})
		case "GET /workflow/api/book/wf-1/sections":
			json.NewEncoder(w).Encode([]types.WorkflowSection{{SectionID: "s1", SectionTitle: "One", Status: "completed"}})
		case "POST /workflow/api/book/wf-1/retranslate_section/s1":
			json.NewEncoder(w).Encode(types.ActionResponse{Status: "success", Message: "queued"})
		case "POST /workflow/api/book/wf-1/generate_comic":
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(types.ActionResponse{Status: "error", Message: "not ready"})
		case "GET /workflow_download_summary/wf-1":
			w.Write([]byte("summary"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	ctx := context.Background()
	c := NewClient(api.NewClient(server.URL))

	path := filepath.Join(t.TempDir(), "book.epub")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	id, err := c.Upload(ctx, path, "german", false)
	require.NoError(t, err)
	assert.Equal(t, "wf-1", id)

	sections, err := c.Sections(ctx, id)
	require.NoError(t, err)
	require.Len(t, sections, 1)
	assert.Equal(t, "One", sections[0].SectionTitle)

	resp, err := c.RetranslateSection(ctx, id, "s1")
	require.NoError(t, err)
	assert.Equal(t, "queued", resp.Message)

	_, err = c.GenerateComic(ctx, id)
	assert.Equal(t, http.StatusBadRequest, api.StatusCode(err))

	summary, err := c.DownloadSummary(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "summary", summary)

	del, err := c.Delete(ctx, id)
	require.NoError(t, err)
	assert.True(t, del.Success)
}
