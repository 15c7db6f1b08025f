package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestRootHelpListsCommands(t *testing.T) {
	output, err := runCommand(t, "--help")
	if err != nil {
		t.Fatalf("help: %v", err)
	}
	for _, name := range []string{"status", "analyze", "neighbours", "similar", "remove", "config"} {
		if !strings.Contains(output, name) {
			t.Fatalf("help output missing %q:\n%s", name, output)
		}
	}
}

func TestConfigInitWritesSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")

	output, err := runCommand(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(output, target) {
		t.Fatalf("expected target path in output:\n%s", output)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected sample config at %s: %v", target, err)
	}

	if _, err := runCommand(t, "config", "init", "--path", target); err == nil {
		t.Fatal("expected refusal to overwrite existing config")
	}
}

func TestRemoveRequiresTarget(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "missing.toml")
	if _, err := runCommand(t, "--config", cfg, "remove"); err == nil {
		t.Fatal("expected error without --file or --artist")
	}
}
