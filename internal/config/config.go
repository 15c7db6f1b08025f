package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
	APIBind string `toml:"api_bind"`
}

// Queue contains configuration for queueing behavior.
type Queue struct {
	// DesiredLength is the minimum queue length, in seconds of playback,
	// below which the orchestrator starts looking for new songs.
	DesiredLength int `toml:"desired_length"`
	// Number is the maximum number of candidates requested per cascade stage.
	Number      int  `toml:"number"`
	WholeAlbums bool `toml:"whole_albums"`
	FavorNew    bool `toml:"favor_new"`
	// BlockHours is how long the artists of a finished song stay blocked.
	BlockHours int `toml:"block_hours"`
}

// Context contains configuration for contextual score adjustment.
type Context struct {
	Contextualize      bool     `toml:"contextualize"`
	Location           string   `toml:"location"`
	Geohash            string   `toml:"geohash"`
	SouthernHemisphere bool     `toml:"southern_hemisphere"`
	// Birthdays is a comma separated "name: YYYY-MM-DD" list.
	Birthdays string `toml:"birthdays"`
	// Extra is a comma separated list of free-text terms that are always
	// considered relevant.
	Extra       string   `toml:"extra"`
	WeatherTags []string `toml:"weather_tags"`
}

// Provider contains configuration for the external similarity provider.
type Provider struct {
	Enabled        bool   `toml:"enabled"`
	BaseURL        string `toml:"base_url"`
	APIKey         string `toml:"api_key"`
	ThrottleMillis int    `toml:"throttle_ms"`
	// CacheDays is the TTL for cached similarity edges.
	CacheDays      int `toml:"cache_days"`
	TimeoutSeconds int `toml:"timeout_seconds"`
}

// Acoustic contains configuration for acoustic fingerprint analysis.
type Acoustic struct {
	Enabled    bool `toml:"enabled"`
	Neighbours int  `toml:"neighbours"`
}

// RPC contains configuration for calls against the similarity daemon.
type RPC struct {
	TimeoutMillis int `toml:"timeout_ms"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for autoqueue.
//
// Configuration sections by subsystem:
//   - Paths: data/log directories and daemon API bind address
//   - Queue: orchestrator queueing behavior
//   - Context: contextual score adjustment inputs
//   - Provider: external similarity provider connection and TTL
//   - Acoustic: fingerprint analysis settings
//   - RPC: orchestrator-to-daemon call timeouts
//   - Logging: log format and level
type Config struct {
	Paths    Paths    `toml:"paths"`
	Queue    Queue    `toml:"queue"`
	Context  Context  `toml:"context"`
	Provider Provider `toml:"provider"`
	Acoustic Acoustic `toml:"acoustic"`
	RPC      RPC      `toml:"rpc"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/autoqueue/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("autoqueue.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the location of the similarity database file.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "similarity.db")
}

// LockPath returns the location of the daemon single-instance lock file.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "autoqueued.lock")
}

// WriteSample writes the embedded sample configuration to the given path.
func WriteSample(path string) error {
	expanded, err := expandPath(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config file already exists at %s", expanded)
	}
	if err := os.WriteFile(expanded, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

func (c *Config) normalize() error {
	for _, field := range []*string{&c.Paths.DataDir, &c.Paths.LogDir} {
		expanded, err := expandPath(*field)
		if err != nil {
			return err
		}
		*field = expanded
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	c.Provider.BaseURL = strings.TrimRight(strings.TrimSpace(c.Provider.BaseURL), "/")
	c.Context.Location = strings.TrimSpace(c.Context.Location)
	c.Context.Geohash = strings.TrimSpace(c.Context.Geohash)
	return nil
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", nil
	}
	if trimmed == "~" || strings.HasPrefix(trimmed, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if trimmed == "~" {
			return home, nil
		}
		return filepath.Join(home, trimmed[2:]), nil
	}
	return filepath.Abs(trimmed)
}
