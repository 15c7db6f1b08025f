package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"autoqueue/internal/config"
	"autoqueue/internal/similarity"
)

func TestBuildAnalyzerReadsSidecarFeatures(t *testing.T) {
	dir := t.TempDir()
	track := filepath.Join(dir, "song.flac")
	if err := os.WriteFile(track+featureSuffix, []byte("[0.5, 1.25, -3]"), 0o644); err != nil {
		t.Fatalf("write sidecar: %v", err)
	}

	cfg := config.Default()
	analyzer := buildAnalyzer(&cfg)
	if analyzer == nil {
		t.Fatal("expected analyzer with acoustic analysis enabled")
	}

	features, err := analyzer.Analyze(context.Background(), track)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	want := []float64{0.5, 1.25, -3}
	if len(features) != len(want) {
		t.Fatalf("expected %v, got %v", want, features)
	}
	for i := range want {
		if features[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, features)
		}
	}
}

func TestBuildAnalyzerMissingSidecarFailsAnalysis(t *testing.T) {
	cfg := config.Default()
	analyzer := buildAnalyzer(&cfg)

	_, err := analyzer.Analyze(context.Background(), filepath.Join(t.TempDir(), "missing.flac"))
	if !errors.Is(err, similarity.ErrAnalysisFailed) {
		t.Fatalf("expected analysis failure, got %v", err)
	}
}

func TestBuildAnalyzerDisabled(t *testing.T) {
	cfg := config.Default()
	cfg.Acoustic.Enabled = false
	if analyzer := buildAnalyzer(&cfg); analyzer != nil {
		t.Fatal("expected no analyzer when acoustic analysis is disabled")
	}
}

func TestBuildSourceRequiresAPIKey(t *testing.T) {
	cfg := config.Default()
	if source := buildSource(&cfg, nil); source != nil {
		t.Fatal("expected no provider without an api key")
	}
	cfg.Provider.APIKey = "key"
	if source := buildSource(&cfg, nil); source == nil {
		t.Fatal("expected provider with an api key")
	}
}
