package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"autoqueue/internal/config"
)

func TestDefaultsValidate(t *testing.T) {
	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.Queue.Number != 20 {
		t.Fatalf("expected default candidate number 20, got %d", cfg.Queue.Number)
	}
	if cfg.Provider.CacheDays != 90 {
		t.Fatalf("expected default cache TTL of 90 days, got %d", cfg.Provider.CacheDays)
	}
}

func TestLoadParsesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	contents := `
[paths]
data_dir = "` + dir + `"

[queue]
desired_length = 600
whole_albums = false

[context]
location = "Reykjavik"
birthdays = "alice: 1985-04-12"

[provider]
api_key = "secret"
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists || resolved == "" {
		t.Fatalf("expected config to be found at %s", path)
	}
	if cfg.Queue.DesiredLength != 600 {
		t.Fatalf("expected desired_length 600, got %d", cfg.Queue.DesiredLength)
	}
	if cfg.Queue.WholeAlbums {
		t.Fatal("expected whole_albums disabled")
	}
	if cfg.Context.Location != "Reykjavik" {
		t.Fatalf("unexpected location %q", cfg.Context.Location)
	}
	if cfg.Queue.Number != 20 {
		t.Fatalf("expected defaults preserved for unset fields, got number=%d", cfg.Queue.Number)
	}
}

func TestValidateRejectsBadBirthdays(t *testing.T) {
	cfg := config.Default()
	cfg.Context.Birthdays = "alice 1985-04-12"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for birthday entry without separator")
	}

	cfg.Context.Birthdays = "alice: not-a-date"
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for unparseable birthday date")
	}
	if !strings.Contains(err.Error(), "birthdays") {
		t.Fatalf("error should name the offending field: %v", err)
	}
}

func TestValidateRejectsNonPositiveNeighbours(t *testing.T) {
	cfg := config.Default()
	cfg.Acoustic.Neighbours = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for zero neighbours")
	}
}
