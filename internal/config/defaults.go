package config

import (
	"errors"
	"fmt"
	"unicode"
)

// ErrNoDefault is returned when no default value exists for a config key.
var ErrNoDefault = errors.New("no default exists")

// ErrInvalidKey is returned when a config key contains invalid characters.
var ErrInvalidKey = errors.New("invalid config key")

// Entry is one documented configuration key.
type Entry struct {
	Key         string `json:"key" yaml:"key"`
	Value       any    `json:"value" yaml:"value"`
	Description string `json:"description" yaml:"description"`
}

// DefaultEntries returns every configuration key with its default, in the
// order they are written by WriteDefault. Durations are Go duration strings.
func DefaultEntries() []Entry {
	d := DefaultConfig()
	return []Entry{
		{Key: "server", Value: d.Server, Description: "Translation backend URL (supports ${ENV_VAR} syntax)"},
		{Key: "book_id", Value: d.BookID, Description: "Book watched when no id is given on the command line"},
		{Key: "language", Value: d.Language, Description: "Target language of new jobs"},
		{Key: "model", Value: d.Model, Description: "Preferred model of new jobs"},
		{Key: "operation", Value: d.Operation, Description: "Job operation: translate, summarize or analyze"},

		{Key: "poll.initial_delay", Value: d.Poll.InitialDelay.String(), Description: "Delay before the first status poll"},
		{Key: "poll.interval", Value: d.Poll.Interval.String(), Description: "Time between status polls (hot-reloaded)"},
		{Key: "poll.request_timeout", Value: d.Poll.RequestTimeout.String(), Description: "Timeout of each backend request"},

		{Key: "workflow.poll_interval", Value: d.Workflow.PollInterval.String(), Description: "Time between workflow status polls"},
		{Key: "workflow.admin", Value: d.Workflow.Admin, Description: "Pause new workflows after analysis for a human edit"},

		{Key: "log.level", Value: d.Log.Level, Description: "Log level: debug, info, warn or error"},
		{Key: "log.format", Value: d.Log.Format, Description: "Log format: text or json"},

		{Key: "simulator.host", Value: d.Simulator.Host, Description: "Development backend bind address"},
		{Key: "simulator.port", Value: d.Simulator.Port, Description: "Development backend port"},
		{Key: "simulator.job_delay", Value: d.Simulator.JobDelay.String(), Description: "Duration of each simulated job (hot-reloaded)"},
		{Key: "simulator.max_workers", Value: d.Simulator.MaxWorkers, Description: "Simulated jobs running at once"},
		{Key: "simulator.seed_file", Value: d.Simulator.SeedFile, Description: "YAML seed of books and models (default: built-in demo book)"},
	}
}

// GetDefault returns the default entry for a config key.
// Returns ErrNoDefault if the key is unknown.
func GetDefault(key string) (Entry, error) {
	if err := ValidateKey(key); err != nil {
		return Entry{}, err
	}
	for _, entry := range DefaultEntries() {
		if entry.Key == key {
			return entry, nil
		}
	}
	return Entry{}, fmt.Errorf("%w for key %q", ErrNoDefault, key)
}

// ValidateKey checks if a config key contains only allowed characters.
// Valid keys contain: letters, digits, dots, underscores, and hyphens.
func ValidateKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: key cannot be empty", ErrInvalidKey)
	}
	for i, r := range key {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '.' && r != '_' && r != '-' {
			return fmt.Errorf("%w: invalid character %q at position %d", ErrInvalidKey, r, i)
		}
	}
	if key[0] == '.' || key[len(key)-1] == '.' {
		return fmt.Errorf("%w: key cannot start or end with a dot", ErrInvalidKey)
	}
	return nil
}
