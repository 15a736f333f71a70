package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/jackzampolin/bookwatch/internal/config"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.LogConfig
		level   slog.Level
		wantErr bool
	}{
		{"defaults", config.LogConfig{}, slog.LevelInfo, false},
		{"debug json", config.LogConfig{Level: "debug", Format: "json"}, slog.LevelDebug, false},
		{"warn text", config.LogConfig{Level: "warn", Format: "text"}, slog.LevelWarn, false},
		{"bad level", config.LogConfig{Level: "loud"}, 0, true},
		{"bad format", config.LogConfig{Format: "xml"}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := newLogger(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("newLogger() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if !l.Enabled(context.Background(), tt.level) {
				t.Errorf("level %s not enabled", tt.level)
			}
			if l.Enabled(context.Background(), tt.level-1) {
				t.Errorf("level below %s enabled", tt.level)
			}
		})
	}
}

func TestCommandTree(t *testing.T) {
	for _, path := range [][]string{
		{"watch"},
		{"open"},
		{"translate"},
		{"models"},
		{"serve"},
		{"version"},
		{"config", "init"},
		{"config", "get"},
		{"workflow", "upload"},
		{"workflow", "continue"},
		{"workflow", "summary"},
		{"workflow", "analysis"},
		{"api", "book-status"},
		{"api", "workflow-upload"},
	} {
		cmd, _, err := rootCmd.Find(path)
		if err != nil || cmd == rootCmd {
			t.Errorf("command %v not found: %v", path, err)
		}
	}
}

func TestConfigInit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.yaml")

	run := func(args ...string) error {
		rootCmd.SetArgs(args)
		return rootCmd.ExecuteContext(context.Background())
	}

	if err := run("config", "init", "--config", path); err != nil {
		t.Fatalf("config init: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not written: %v", err)
	}
	if err := run("config", "init", "--config", path); err == nil {
		t.Error("second config init without --force should fail")
	}

	mgr, err := config.NewManager(path, dir)
	if err != nil {
		t.Fatalf("written config does not load: %v", err)
	}
	if got, want := mgr.Get().Poll.Interval, config.DefaultConfig().Poll.Interval; got != want {
		t.Errorf("poll.interval = %s, want %s", got, want)
	}
}
