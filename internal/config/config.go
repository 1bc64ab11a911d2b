// Package config loads Shapeshifter configuration from YAML files and
// environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	shaperrors "github.com/Aman-CERP/shapeshifter/internal/errors"
)

// Project config file names, in lookup order.
const (
	ProjectConfigFile    = ".shapeshifter.yaml"
	ProjectConfigFileAlt = ".shapeshifter.yml"
)

// Config represents the complete Shapeshifter configuration.
type Config struct {
	Version int           `yaml:"version" json:"version"`
	Engine  EngineConfig  `yaml:"engine" json:"engine"`
	Corpus  CorpusConfig  `yaml:"corpus" json:"corpus"`
	Chat    ChatConfig    `yaml:"chat" json:"chat"`
	Watch   WatchConfig   `yaml:"watch" json:"watch"`
	Cache   CacheConfig   `yaml:"cache" json:"cache"`
	Server  ServerConfig  `yaml:"server" json:"server"`
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// EngineConfig configures the Markov engine.
type EngineConfig struct {
	// Order is the tuple length, 1 to 5.
	Order int `yaml:"order" json:"order"`
	// Cautious echoes unknown seeds back as a question.
	Cautious bool `yaml:"cautious" json:"cautious"`
	// Compensation is added to the entropy score per walk step.
	Compensation int `yaml:"compensation" json:"compensation"`
	// SampleSize is the number of generations a reply picks from.
	SampleSize int `yaml:"sample_size" json:"sample_size"`
}

// CorpusConfig names the default knowledge source.
type CorpusConfig struct {
	// Source is a file path or URL. Empty starts with an empty index.
	Source string `yaml:"source" json:"source"`
	// Format is "txt" or "irc_log".
	Format string `yaml:"format" json:"format"`
}

// ChatConfig configures the command layer.
type ChatConfig struct {
	Prefix string `yaml:"prefix" json:"prefix"`
	About  string `yaml:"about" json:"about"`
	// LearnReplies learns the words of every ~reply request.
	LearnReplies bool `yaml:"learn_replies" json:"learn_replies"`
	// ImplicitReply treats console lines without the prefix as ~reply.
	ImplicitReply bool `yaml:"implicit_reply" json:"implicit_reply"`
	// AllowAnySource lets ~reinit and ~order load paths and URLs other than
	// corpus.source.
	AllowAnySource bool `yaml:"allow_any_source" json:"allow_any_source"`
}

// WatchConfig configures re-learning when the corpus file changes.
type WatchConfig struct {
	Enabled  bool   `yaml:"enabled" json:"enabled"`
	Debounce string `yaml:"debounce" json:"debounce"`
}

// CacheConfig sizes the remote source cache.
type CacheConfig struct {
	Sources int `yaml:"sources" json:"sources"`
}

// ServerConfig configures the MCP server.
type ServerConfig struct {
	Transport string `yaml:"transport" json:"transport"`
	LogLevel  string `yaml:"log_level" json:"log_level"`
}

// LoggingConfig configures the debug log file.
type LoggingConfig struct {
	Level     string `yaml:"level" json:"level"`
	File      string `yaml:"file,omitempty" json:"file,omitempty"`
	MaxSizeMB int    `yaml:"max_size_mb" json:"max_size_mb"`
	MaxFiles  int    `yaml:"max_files" json:"max_files"`
}

// DefaultAbout is the reply to ~re.
const DefaultAbout = "Hello thar! I'm Shapeshifter, a bidirectional Markov chain bot. Type ~list to see what I can do."

// NewConfig creates a new Config with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Engine: EngineConfig{
			Order:        3,
			Cautious:     true,
			Compensation: 7,
			SampleSize:   5,
		},
		Corpus: CorpusConfig{
			Format: "txt",
		},
		Chat: ChatConfig{
			Prefix:         "~",
			About:          DefaultAbout,
			LearnReplies:   true,
			ImplicitReply:  true,
			AllowAnySource: true,
		},
		Watch: WatchConfig{
			Enabled:  false,
			Debounce: "500ms",
		},
		Cache: CacheConfig{
			Sources: 8,
		},
		Server: ServerConfig{
			Transport: "stdio",
			LogLevel:  "info",
		},
		Logging: LoggingConfig{
			Level:     "debug",
			MaxSizeMB: 10,
			MaxFiles:  5,
		},
	}
}

// GetUserConfigPath returns the path to the user/global configuration file.
// It follows the XDG Base Directory specification:
//   - $XDG_CONFIG_HOME/shapeshifter/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/shapeshifter/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "shapeshifter", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "shapeshifter", "config.yaml")
	}
	return filepath.Join(home, ".config", "shapeshifter", "config.yaml")
}

// UserConfigExists returns true if the user configuration file exists.
func UserConfigExists() bool {
	return fileExists(GetUserConfigPath())
}

// Load loads configuration for the given directory.
// It applies configuration in order of increasing precedence:
//  1. Hardcoded defaults
//  2. User/global config (~/.config/shapeshifter/config.yaml)
//  3. Project config (.shapeshifter.yaml in dir)
//  4. Environment variables (SHAPESHIFTER_*)
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if path := GetUserConfigPath(); fileExists(path) {
		if err := cfg.loadYAML(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.loadFromDir(dir); err != nil {
		return nil, err
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ProjectConfigPath returns the project config file in dir, or "" if none.
func ProjectConfigPath(dir string) string {
	for _, name := range []string{ProjectConfigFile, ProjectConfigFileAlt} {
		path := filepath.Join(dir, name)
		if fileExists(path) {
			return path
		}
	}
	return ""
}

func (c *Config) loadFromDir(dir string) error {
	if path := ProjectConfigPath(dir); path != "" {
		return c.loadYAML(path)
	}
	return nil
}

// loadYAML overlays the keys present in path onto c. Keys absent from the
// file keep their current values, so an explicit false or 0 still wins.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return shaperrors.New(shaperrors.ErrCodeConfigNotFound,
			fmt.Sprintf("failed to read config file %s", path), err)
	}

	parsed := *c
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return shaperrors.ConfigError(fmt.Sprintf("failed to parse config file %s", path), err).
			WithDetail("path", path)
	}
	*c = parsed
	return nil
}

// applyEnvOverrides applies SHAPESHIFTER_* environment variable overrides.
func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv("SHAPESHIFTER_ORDER"); v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return envError("SHAPESHIFTER_ORDER", v, err)
		}
		c.Engine.Order = n
	}
	if v := os.Getenv("SHAPESHIFTER_CAUTIOUS"); v != "" {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return envError("SHAPESHIFTER_CAUTIOUS", v, err)
		}
		c.Engine.Cautious = b
	}
	if v := os.Getenv("SHAPESHIFTER_COMPENSATION"); v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return envError("SHAPESHIFTER_COMPENSATION", v, err)
		}
		c.Engine.Compensation = n
	}
	if v := os.Getenv("SHAPESHIFTER_ALLOW_ANY_SOURCE"); v != "" {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return envError("SHAPESHIFTER_ALLOW_ANY_SOURCE", v, err)
		}
		c.Chat.AllowAnySource = b
	}
	if v := os.Getenv("SHAPESHIFTER_SOURCE"); v != "" {
		c.Corpus.Source = v
	}
	if v := os.Getenv("SHAPESHIFTER_FORMAT"); v != "" {
		c.Corpus.Format = v
	}
	if v := os.Getenv("SHAPESHIFTER_LOG_LEVEL"); v != "" {
		c.Server.LogLevel = v
	}
	if v := os.Getenv("SHAPESHIFTER_TRANSPORT"); v != "" {
		c.Server.Transport = v
	}
	return nil
}

func envError(name, value string, err error) error {
	return shaperrors.ConfigError(fmt.Sprintf("invalid %s=%q", name, value), err).
		WithDetail("env", name)
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if c.Engine.Order < 1 || c.Engine.Order > 5 {
		return invalid("engine.order must be between 1 and 5, got %d", c.Engine.Order)
	}
	if c.Engine.SampleSize < 1 {
		return invalid("engine.sample_size must be positive, got %d", c.Engine.SampleSize)
	}

	switch strings.ToLower(c.Corpus.Format) {
	case "txt", "text", "irc_log", "irc", "lines", "log":
	default:
		return invalid("corpus.format must be 'txt' or 'irc_log', got %s", c.Corpus.Format)
	}

	if strings.TrimSpace(c.Chat.Prefix) == "" {
		return invalid("chat.prefix must not be empty")
	}

	if _, err := c.DebounceDuration(); err != nil {
		return invalid("watch.debounce must be a duration like 500ms, got %s", c.Watch.Debounce)
	}

	if c.Cache.Sources < 1 {
		return invalid("cache.sources must be positive, got %d", c.Cache.Sources)
	}

	if strings.ToLower(c.Server.Transport) != "stdio" {
		return invalid("server.transport must be 'stdio', got %s", c.Server.Transport)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Server.LogLevel)] {
		return invalid("server.log_level must be 'debug', 'info', 'warn', or 'error', got %s", c.Server.LogLevel)
	}
	if c.Logging.Level != "" && !validLevels[strings.ToLower(c.Logging.Level)] {
		return invalid("logging.level must be 'debug', 'info', 'warn', or 'error', got %s", c.Logging.Level)
	}

	return nil
}

func invalid(format string, args ...any) error {
	return shaperrors.ConfigError("invalid configuration: "+fmt.Sprintf(format, args...), nil)
}

// DebounceDuration parses Watch.Debounce.
func (c *Config) DebounceDuration() (time.Duration, error) {
	if c.Watch.Debounce == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Watch.Debounce)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %s", d)
	}
	return d, nil
}

// WriteYAML writes the configuration to a YAML file, creating parent
// directories as needed.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// fileExists checks if a file exists and is not a directory.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
