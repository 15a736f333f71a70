package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/cobra"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config is invalid: %v", err)
	}
	if cfg.Poll.Interval != 5*time.Second {
		t.Errorf("expected 5s poll interval, got %s", cfg.Poll.Interval)
	}

	t.Run("matches manager without a file", func(t *testing.T) {
		mgr, err := NewManager("", t.TempDir())
		if err != nil {
			t.Fatalf("failed to create manager: %v", err)
		}
		if !reflect.DeepEqual(mgr.Get(), cfg) {
			t.Errorf("defaults differ:\n got %+v\nwant %+v", mgr.Get(), cfg)
		}
		if mgr.ConfigFileUsed() != "" {
			t.Errorf("expected no config file, got %s", mgr.ConfigFileUsed())
		}
	})
}

func TestResolveEnvVars(t *testing.T) {
	t.Run("resolves environment variable", func(t *testing.T) {
		t.Setenv("TEST_BACKEND_HOST", "translate.example.com")

		result := ResolveEnvVars("https://${TEST_BACKEND_HOST}")
		if result != "https://translate.example.com" {
			t.Errorf("expected https://translate.example.com, got %s", result)
		}
	})

	t.Run("returns empty for missing env var", func(t *testing.T) {
		result := ResolveEnvVars("${DEFINITELY_NOT_SET_12345}")
		if result != "" {
			t.Errorf("expected empty string, got %s", result)
		}
	})

	t.Run("leaves literal values unchanged", func(t *testing.T) {
		result := ResolveEnvVars("literal-value")
		if result != "literal-value" {
			t.Errorf("expected literal-value, got %s", result)
		}
	})
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"relative server", func(c *Config) { c.Server = "localhost:5000" }},
		{"unknown operation", func(c *Config) { c.Operation = "paraphrase" }},
		{"zero poll interval", func(c *Config) { c.Poll.Interval = 0 }},
		{"zero workflow interval", func(c *Config) { c.Workflow.PollInterval = 0 }},
		{"unknown log level", func(c *Config) { c.Log.Level = "loud" }},
		{"unknown log format", func(c *Config) { c.Log.Format = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestNewManager(t *testing.T) {
	t.Run("loads from config file", func(t *testing.T) {
		path := writeConfig(t, `
server: http://backend:8000/
book_id: b1
poll:
  interval: 2s
simulator:
  max_workers: 9
`)
		mgr, err := NewManager(path, t.TempDir())
		if err != nil {
			t.Fatalf("failed to create manager: %v", err)
		}

		cfg := mgr.Get()
		if cfg.ServerURL() != "http://backend:8000" {
			t.Errorf("expected trimmed server URL, got %s", cfg.ServerURL())
		}
		if cfg.BookID != "b1" {
			t.Errorf("expected book b1, got %s", cfg.BookID)
		}
		if cfg.Poll.Interval != 2*time.Second {
			t.Errorf("expected 2s, got %s", cfg.Poll.Interval)
		}
		if cfg.Poll.InitialDelay != 500*time.Millisecond {
			t.Errorf("unset keys should keep defaults, got %s", cfg.Poll.InitialDelay)
		}
		if cfg.Simulator.MaxWorkers != 9 {
			t.Errorf("expected 9 workers, got %d", cfg.Simulator.MaxWorkers)
		}
	})

	t.Run("environment overrides file", func(t *testing.T) {
		path := writeConfig(t, "poll:\n  interval: 2s\n")
		t.Setenv("BOOKWATCH_POLL_INTERVAL", "750ms")

		mgr, err := NewManager(path, t.TempDir())
		if err != nil {
			t.Fatalf("failed to create manager: %v", err)
		}
		if got := mgr.Get().Poll.Interval; got != 750*time.Millisecond {
			t.Errorf("expected 750ms, got %s", got)
		}
	})

	t.Run("loads .env from home", func(t *testing.T) {
		homePath := t.TempDir()
		t.Setenv("BOOKWATCH_LANGUAGE", "")
		os.Unsetenv("BOOKWATCH_LANGUAGE")
		if err := os.WriteFile(filepath.Join(homePath, ".env"), []byte("BOOKWATCH_LANGUAGE=german\n"), 0o644); err != nil {
			t.Fatal(err)
		}

		mgr, err := NewManager("", homePath)
		if err != nil {
			t.Fatalf("failed to create manager: %v", err)
		}
		if mgr.Get().Language != "german" {
			t.Errorf("expected german, got %s", mgr.Get().Language)
		}
	})

	t.Run("rejects invalid values", func(t *testing.T) {
		path := writeConfig(t, "operation: paraphrase\n")
		if _, err := NewManager(path, t.TempDir()); err == nil {
			t.Error("expected error for unknown operation")
		}
	})

	t.Run("rejects unreadable file", func(t *testing.T) {
		path := writeConfig(t, "poll: [unclosed\n")
		if _, err := NewManager(path, t.TempDir()); err == nil {
			t.Error("expected parse error")
		}
	})
}

func TestManager_BindFlags(t *testing.T) {
	mgr, err := NewManager(writeConfig(t, "model: models/gemini-1.5-pro\n"), t.TempDir())
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}

	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().String("model", "", "")
	cmd.Flags().String("lang", "", "")
	if err := cmd.Flags().Parse([]string{"--model", "local/tiny"}); err != nil {
		t.Fatal(err)
	}

	err = mgr.BindFlags(cmd, map[string]string{
		"model":    "model",
		"language": "lang",
		"book_id":  "missing-flag",
	})
	if err != nil {
		t.Fatalf("BindFlags failed: %v", err)
	}

	cfg := mgr.Get()
	if cfg.Model != "local/tiny" {
		t.Errorf("flag should override file, got %s", cfg.Model)
	}
	if cfg.Language != DefaultConfig().Language {
		t.Errorf("unset flag should not override, got %s", cfg.Language)
	}
}

func TestManager_Lookup(t *testing.T) {
	mgr, err := NewManager(writeConfig(t, "workflow:\n  admin: true\n"), t.TempDir())
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}

	v, err := mgr.Lookup("workflow.admin")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if v != true {
		t.Errorf("expected true, got %v", v)
	}

	if _, err := mgr.Lookup("workflow.nope"); !errors.Is(err, ErrNoDefault) {
		t.Errorf("expected ErrNoDefault, got %v", err)
	}
	if _, err := mgr.Lookup("bad key"); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("expected ErrInvalidKey, got %v", err)
	}
}

func TestManager_OnChange_Multiple(t *testing.T) {
	mgr, err := NewManager(writeConfig(t, "language: french\n"), t.TempDir())
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}

	mgr.OnChange(func(cfg *Config) {})
	mgr.OnChange(func(cfg *Config) {})
	mgr.OnChange(func(cfg *Config) {})

	mgr.mu.RLock()
	if len(mgr.callbacks) != 3 {
		t.Errorf("expected 3 callbacks, got %d", len(mgr.callbacks))
	}
	mgr.mu.RUnlock()
}

func TestManager_Get_ThreadSafe(t *testing.T) {
	mgr, err := NewManager(writeConfig(t, "language: french\n"), t.TempDir())
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}

	done := make(chan struct{})
	for i := 0; i < 10; i++ {
		go func() {
			for j := 0; j < 100; j++ {
				_ = mgr.Get().Language
			}
			done <- struct{}{}
		}()
	}
	for i := 0; i < 10; i++ {
		<-done
	}
}

func TestManager_WatchConfig(t *testing.T) {
	t.Run("without a file there is nothing to watch", func(t *testing.T) {
		mgr, err := NewManager("", t.TempDir())
		if err != nil {
			t.Fatalf("failed to create manager: %v", err)
		}
		if mgr.WatchConfig() {
			t.Error("expected WatchConfig to report false")
		}
	})

	configFile := writeConfig(t, "poll:\n  interval: 5s\n")
	mgr, err := NewManager(configFile, t.TempDir())
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}

	var callbackCount atomic.Int32
	var lastValue atomic.Int64
	mgr.OnChange(func(cfg *Config) {
		callbackCount.Add(1)
		lastValue.Store(int64(cfg.Poll.Interval))
	})

	if !mgr.WatchConfig() {
		t.Fatal("expected WatchConfig to start")
	}

	// Give fsnotify time to set up the watcher
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(configFile, []byte("poll:\n  interval: 1s\n"), 0o644); err != nil {
		t.Fatalf("failed to write updated config file: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if callbackCount.Load() > 0 {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}

	if callbackCount.Load() == 0 {
		t.Fatal("callback was not invoked after config file change")
	}
	if got := mgr.Get().Poll.Interval; got != time.Second {
		t.Errorf("config not updated: expected 1s, got %s", got)
	}
	if got := time.Duration(lastValue.Load()); got != time.Second {
		t.Errorf("callback received wrong value: expected 1s, got %s", got)
	}
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	if err := WriteDefault(path); err != nil {
		t.Fatalf("WriteDefault failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)
	for _, want := range []string{
		"# bookwatch configuration",
		"server: http://localhost:5000",
		"poll:\n  initial_delay: 500ms\n  interval: 5s\n",
		"simulator:\n  host: 127.0.0.1\n",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("written config missing %q:\n%s", want, text)
		}
	}

	mgr, err := NewManager(path, t.TempDir())
	if err != nil {
		t.Fatalf("written config does not load: %v", err)
	}
	if !reflect.DeepEqual(mgr.Get(), DefaultConfig()) {
		t.Errorf("written config differs from defaults: %+v", mgr.Get())
	}
}

func TestGetDefault(t *testing.T) {
	tests := []struct {
		key     string
		want    any
		wantErr error
	}{
		{"poll.interval", "5s", nil},
		{"simulator.max_workers", int64(4), nil},
		{"nope", nil, ErrNoDefault},
		{"", nil, ErrInvalidKey},
		{".poll", nil, ErrInvalidKey},
		{"poll interval", nil, ErrInvalidKey},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			entry, err := GetDefault(tt.key)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if entry.Value != tt.want {
				t.Errorf("expected %v, got %v", tt.want, entry.Value)
			}
			if entry.Description == "" {
				t.Error("expected a description")
			}
		})
	}
}
