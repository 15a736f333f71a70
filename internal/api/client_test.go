package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestClient_Get(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/book_status/b1" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Error("missing X-Request-ID header")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": "processing"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL + "/")
	var resp struct {
		Status string `json:"status"`
	}
	if err := client.Get(context.Background(), "/book_status/b1", &resp); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if resp.Status != "processing" {
		t.Errorf("Status = %q, want processing", resp.Status)
	}
}

func TestClient_StatusErrors(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		body       string
		wantMsg    string
		notFound   bool
	}{
		{"error_field", http.StatusNotFound, `{"error": "Book not found"}`, "Book not found", true},
		{"message_field", http.StatusBadRequest, `{"status": "error", "message": "bad stage"}`, "bad stage", false},
		{"plain_body", http.StatusInternalServerError, "boom\n", "boom", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			err := NewClient(server.URL).Get(context.Background(), "/x", nil)
			var se *StatusError
			if !errors.As(err, &se) {
				t.Fatalf("expected *StatusError, got %v", err)
			}
			if se.StatusCode != tt.statusCode {
				t.Errorf("StatusCode = %d, want %d", se.StatusCode, tt.statusCode)
			}
			if se.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", se.Message, tt.wantMsg)
			}
			if errors.Is(err, ErrNotFound) != tt.notFound {
				t.Errorf("errors.Is(ErrNotFound) = %v, want %v", !tt.notFound, tt.notFound)
			}
			if StatusCode(err) != tt.statusCode {
				t.Errorf("StatusCode(err) = %d", StatusCode(err))
			}
		})
	}
}

func TestClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client := NewClientWithConfig(ClientConfig{BaseURL: server.URL, RequestTimeout: 50 * time.Millisecond})
	err := client.Get(context.Background(), "/slow", nil)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestClient_TimeoutReportsCallerDeadline(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client := NewClientWithConfig(ClientConfig{BaseURL: server.URL, RequestTimeout: time.Minute})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := client.Get(ctx, "/slow", nil)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if strings.Contains(err.Error(), "1m0s") {
		t.Errorf("error reports the client timeout instead of the elapsed time: %v", err)
	}
}

func TestClient_Post(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method: %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("unexpected content-type: %s", ct)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body["target_language"] != "german" {
			t.Errorf("target_language = %q", body["target_language"])
		}
		w.WriteHeader(http.StatusAccepted)
		w.Write([]byte(`{"status": "processing_all", "launched_tasks": 3}`))
	}))
	defer server.Close()

	var resp struct {
		LaunchedTasks int `json:"launched_tasks"`
	}
	err := NewClient(server.URL).Post(context.Background(), "/translate_all/b1",
		map[string]string{"target_language": "german"}, &resp)
	if err != nil {
		t.Fatalf("Post() error = %v", err)
	}
	if resp.LaunchedTasks != 3 {
		t.Errorf("LaunchedTasks = %d, want 3", resp.LaunchedTasks)
	}
}

func TestClient_PostFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "book.epub")
	if err := os.WriteFile(path, []byte("epub-bytes"), 0o644); err != nil {
		t.Fatal(err)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("ParseMultipartForm: %v", err)
		}
		if got := r.FormValue("target_language"); got != "french" {
			t.Errorf("target_language = %q", got)
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("FormFile: %v", err)
		}
		defer f.Close()
		data, _ := io.ReadAll(f)
		if hdr.Filename != "book.epub" || string(data) != "epub-bytes" {
			t.Errorf("unexpected upload %s: %q", hdr.Filename, data)
		}
		w.Write([]byte(`{"book_id": "wf-1"}`))
	}))
	defer server.Close()

	var resp struct {
		BookID string `json:"book_id"`
	}
	err := NewClient(server.URL).PostFile(context.Background(), "/workflow_upload", "file", path,
		map[string]string{"target_language": "french"}, &resp)
	if err != nil {
		t.Fatalf("PostFile() error = %v", err)
	}
	if resp.BookID != "wf-1" {
		t.Errorf("BookID = %q", resp.BookID)
	}
}

func TestClient_GetText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("summary text"))
	}))
	defer server.Close()

	text, err := NewClient(server.URL).GetText(context.Background(), "/workflow_download_summary/b1")
	if err != nil {
		t.Fatalf("GetText() error = %v", err)
	}
	if text != "summary text" {
		t.Errorf("text = %q", text)
	}
}

func TestClient_WaitReady(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	err := NewClient(server.URL).WaitReady(context.Background(), "/api/models", 5, 10*time.Millisecond)
	if err != nil {
		t.Fatalf("WaitReady() error = %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("calls = %d, want 3", got)
	}
}

func TestClient_WaitReady_GivesUp(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	err := NewClient(server.URL).WaitReady(context.Background(), "/", 2, time.Millisecond)
	if err == nil || !strings.Contains(err.Error(), "502") {
		t.Fatalf("expected 502 error, got %v", err)
	}
}

func TestSetOutputFormat(t *testing.T) {
	defer SetOutputFormat("yaml")

	if err := SetOutputFormat("json"); err != nil {
		t.Fatalf("SetOutputFormat(json) error = %v", err)
	}
	if GetOutputFormat() != OutputFormatJSON {
		t.Errorf("format = %s, want json", GetOutputFormat())
	}
	if err := SetOutputFormat("xml"); err == nil {
		t.Error("expected error for xml")
	}
	if GetOutputFormat() != OutputFormatJSON {
		t.Error("unknown format should leave the current format unchanged")
	}
}
