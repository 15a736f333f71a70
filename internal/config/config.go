package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"
)

// EnvPrefix prefixes environment overrides, e.g. BOOKWATCH_POLL_INTERVAL.
const EnvPrefix = "BOOKWATCH"

// Manager handles loading and hot-reloading configuration.
type Manager struct {
	v      *viper.Viper
	logger *slog.Logger

	mu        sync.RWMutex
	config    *Config
	callbacks []func(*Config)
}

// NewManager creates a new config manager and loads initial config.
// cfgFile overrides the search of ./config.yaml and <homePath>/config.yaml.
// A .env file in the working directory or homePath is loaded first.
func NewManager(cfgFile, homePath string) (*Manager, error) {
	cm := &Manager{
		v:         viper.New(),
		logger:    slog.Default(),
		callbacks: make([]func(*Config), 0),
	}

	if err := cm.initViper(cfgFile, homePath); err != nil {
		return nil, err
	}

	cfg, err := cm.load()
	if err != nil {
		return nil, err
	}
	cm.config = cfg

	return cm, nil
}

// initViper sets up viper with defaults, environment and config file.
func (cm *Manager) initViper(cfgFile, homePath string) error {
	envFiles := []string{".env"}
	if homePath != "" {
		envFiles = append(envFiles, filepath.Join(homePath, ".env"))
	}
	if err := loadDotEnv(envFiles...); err != nil {
		return err
	}

	for _, e := range DefaultEntries() {
		cm.v.SetDefault(e.Key, e.Value)
	}

	// Environment variables with BOOKWATCH_ prefix; nested keys use _
	cm.v.SetEnvPrefix(EnvPrefix)
	cm.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	cm.v.AutomaticEnv()

	if cfgFile != "" {
		cm.v.SetConfigFile(cfgFile)
	} else {
		cm.v.SetConfigName("config")
		cm.v.SetConfigType("yaml")
		cm.v.AddConfigPath(".")
		if homePath != "" {
			cm.v.AddConfigPath(homePath)
		}
	}

	// Try to read config file (not required)
	if err := cm.v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	return nil
}

// loadDotEnv loads the .env files that exist. Variables already set in the
// environment win.
func loadDotEnv(paths ...string) error {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// load parses and validates the current viper state.
func (cm *Manager) load() (*Config, error) {
	var cfg Config
	if err := cm.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// SetLogger sets the logger used to report reload failures.
func (cm *Manager) SetLogger(logger *slog.Logger) {
	if logger != nil {
		cm.logger = logger
	}
}

// Get returns the current configuration (thread-safe).
func (cm *Manager) Get() *Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.config
}

// ConfigFileUsed returns the config file that was read, or "".
func (cm *Manager) ConfigFileUsed() string {
	return cm.v.ConfigFileUsed()
}

// Lookup returns the effective value of a key.
func (cm *Manager) Lookup(key string) (any, error) {
	if _, err := GetDefault(key); err != nil {
		return nil, err
	}
	return cm.v.Get(key), nil
}

// BindFlags binds command flags to config keys (key -> flag name) and
// reloads, so that flags set on the command line override file and
// environment values.
func (cm *Manager) BindFlags(cmd *cobra.Command, bindings map[string]string) error {
	for key, name := range bindings {
		flag := cmd.Flags().Lookup(name)
		if flag == nil {
			continue
		}
		if err := cm.v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("failed to bind flag --%s: %w", name, err)
		}
	}

	cfg, err := cm.load()
	if err != nil {
		return err
	}
	cm.mu.Lock()
	cm.config = cfg
	cm.mu.Unlock()
	return nil
}

// OnChange registers a callback for config changes.
func (cm *Manager) OnChange(fn func(*Config)) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.callbacks = append(cm.callbacks, fn)
}

// WatchConfig enables hot-reloading of configuration. It returns false
// when no config file was read, since there is nothing to watch. A changed
// file that fails validation is logged and the previous config kept.
func (cm *Manager) WatchConfig() bool {
	if cm.v.ConfigFileUsed() == "" {
		return false
	}
	cm.v.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := cm.load()
		if err != nil {
			cm.logger.Warn("ignoring config change", "file", e.Name, "error", err)
			return
		}

		cm.mu.Lock()
		cm.config = cfg
		callbacks := make([]func(*Config), len(cm.callbacks))
		copy(callbacks, cm.callbacks)
		cm.mu.Unlock()

		cm.logger.Debug("config reloaded", "file", e.Name)
		for _, fn := range callbacks {
			fn(cfg)
		}
	})
	cm.v.WatchConfig()
	return true
}

// ResolveEnvVars expands ${ENV_VAR} references in a string.
func ResolveEnvVars(value string) string {
	if value == "" {
		return value
	}
	pattern := regexp.MustCompile(`\$\{([^}]+)\}`)
	return pattern.ReplaceAllStringFunc(value, func(match string) string {
		varName := match[2 : len(match)-1]
		return os.Getenv(varName)
	})
}

// WriteDefault writes the default configuration to the specified path.
func WriteDefault(path string) error {
	entries := DefaultEntries()
	data, err := yaml.Marshal(nest(entries))
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	var header strings.Builder
	header.WriteString("# bookwatch configuration\n")
	header.WriteString("# Every key can be overridden with BOOKWATCH_<KEY>, e.g. BOOKWATCH_POLL_INTERVAL=2s\n#\n")
	for _, e := range entries {
		fmt.Fprintf(&header, "#   %-24s %s\n", e.Key, e.Description)
	}
	header.WriteString("\n")

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return os.WriteFile(path, append([]byte(header.String()), data...), 0o644)
}

// nest turns dotted keys into ordered YAML mappings.
func nest(entries []Entry) yaml.MapSlice {
	var root yaml.MapSlice
	groups := make(map[string]int)
	for _, e := range entries {
		group, leaf, ok := strings.Cut(e.Key, ".")
		if !ok {
			root = append(root, yaml.MapItem{Key: e.Key, Value: e.Value})
			continue
		}
		i, seen := groups[group]
		if !seen {
			root = append(root, yaml.MapItem{Key: group, Value: yaml.MapSlice{}})
			i = len(root) - 1
			groups[group] = i
		}
		root[i].Value = append(root[i].Value.(yaml.MapSlice), yaml.MapItem{Key: leaf, Value: e.Value})
	}
	return root
}
