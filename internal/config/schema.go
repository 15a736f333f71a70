package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/jackzampolin/bookwatch/internal/status"
)

// Config holds bookwatch configuration.
// Stored at: ~/.bookwatch/config.yaml or ./config.yaml
type Config struct {
	// Server is the translation backend root URL (supports ${ENV_VAR} syntax)
	Server    string          `mapstructure:"server" yaml:"server"`
	BookID    string          `mapstructure:"book_id" yaml:"book_id"`
	Language  string          `mapstructure:"language" yaml:"language"`
	Model     string          `mapstructure:"model" yaml:"model"`
	Operation string          `mapstructure:"operation" yaml:"operation"`
	Poll      PollConfig      `mapstructure:"poll" yaml:"poll"`
	Workflow  WorkflowConfig  `mapstructure:"workflow" yaml:"workflow"`
	Log       LogConfig       `mapstructure:"log" yaml:"log"`
	Simulator SimulatorConfig `mapstructure:"simulator" yaml:"simulator"`
}

// PollConfig tunes the book status poller.
type PollConfig struct {
	InitialDelay   time.Duration `mapstructure:"initial_delay" yaml:"initial_delay"`
	Interval       time.Duration `mapstructure:"interval" yaml:"interval"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
}

// WorkflowConfig tunes workflow watchers.
type WorkflowConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
	// Admin pauses new workflows after analysis for a human edit
	Admin bool `mapstructure:"admin" yaml:"admin"`
}

// LogConfig selects the log level and handler.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`   // debug, info, warn, error
	Format string `mapstructure:"format" yaml:"format"` // text, json
}

// SimulatorConfig configures `bookwatch serve`.
type SimulatorConfig struct {
	Host       string        `mapstructure:"host" yaml:"host"`
	Port       string        `mapstructure:"port" yaml:"port"`
	JobDelay   time.Duration `mapstructure:"job_delay" yaml:"job_delay"`
	MaxWorkers int64         `mapstructure:"max_workers" yaml:"max_workers"`
	SeedFile   string        `mapstructure:"seed_file" yaml:"seed_file"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server:    "http://localhost:5000",
		Language:  "russian",
		Model:     "models/gemini-1.5-flash",
		Operation: string(status.OpTranslate),
		Poll: PollConfig{
			InitialDelay:   500 * time.Millisecond,
			Interval:       5 * time.Second,
			RequestTimeout: 60 * time.Second,
		},
		Workflow: WorkflowConfig{
			PollInterval: 5 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Simulator: SimulatorConfig{
			Host:       "127.0.0.1",
			Port:       "5000",
			JobDelay:   2 * time.Second,
			MaxWorkers: 4,
		},
	}
}

// ServerURL returns Server with ${ENV_VAR} references resolved.
func (c *Config) ServerURL() string {
	return strings.TrimSuffix(ResolveEnvVars(c.Server), "/")
}

// Validate checks values that would otherwise fail later and less clearly.
func (c *Config) Validate() error {
	u, err := url.Parse(c.ServerURL())
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("server %q is not an absolute URL", c.Server)
	}
	if c.Operation != "" && status.ParseOperation(c.Operation) != status.Operation(c.Operation) {
		return fmt.Errorf("unknown operation %q (want translate, summarize or analyze)", c.Operation)
	}
	if c.Poll.Interval <= 0 {
		return fmt.Errorf("poll.interval must be positive, got %s", c.Poll.Interval)
	}
	if c.Workflow.PollInterval <= 0 {
		return fmt.Errorf("workflow.poll_interval must be positive, got %s", c.Workflow.PollInterval)
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("unknown log format %q (want text or json)", c.Log.Format)
	}
	return nil
}

// SlogLevel parses Level.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if l.Level == "" {
		return slog.LevelInfo, nil
	}
	if err := lvl.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", l.Level)
	}
	return lvl, nil
}
