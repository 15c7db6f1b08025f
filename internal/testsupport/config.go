// Package testsupport provides shared helpers for package tests.
package testsupport

import (
	"path/filepath"
	"testing"

	"autoqueue/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// The external provider is disabled so tests never reach the network.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.APIBind = "127.0.0.1:0"
	cfg.Provider.Enabled = false
	cfg.Queue.DesiredLength = 1

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cfg
}

// WithNeighbours sets the acoustic neighbour count on the test config.
func WithNeighbours(n int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Acoustic.Neighbours = n
	}
}

// WithProvider enables the external provider against the given endpoint.
func WithProvider(baseURL, apiKey string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Provider.Enabled = true
		cfg.Provider.BaseURL = baseURL
		cfg.Provider.APIKey = apiKey
	}
}
