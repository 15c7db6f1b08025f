package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"autoqueue/internal/config"
	"autoqueue/internal/similarity"
)

// featureSuffix names the sidecar files an external feature extractor
// writes next to each audio file: a JSON array of numbers.
const featureSuffix = ".features"

// buildAnalyzer returns the sidecar-file analyzer, or nil when acoustic
// analysis is disabled. Tracks without a sidecar file fail analysis and
// simply never gain acoustic neighbours.
func buildAnalyzer(cfg *config.Config) similarity.Analyzer {
	if !cfg.Acoustic.Enabled {
		return nil
	}
	return similarity.AnalyzerFunc(func(_ context.Context, filename string) ([]float64, error) {
		data, err := os.ReadFile(filename + featureSuffix)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", similarity.ErrAnalysisFailed, err)
		}
		var features []float64
		if err := json.Unmarshal(data, &features); err != nil {
			return nil, fmt.Errorf("%w: %s%s: %v", similarity.ErrAnalysisFailed, filename, featureSuffix, err)
		}
		if len(features) == 0 {
			return nil, fmt.Errorf("%w: %s%s is empty", similarity.ErrAnalysisFailed, filename, featureSuffix)
		}
		return features, nil
	})
}

func buildSource(cfg *config.Config, logger *slog.Logger) similarity.MatchSource {
	if !cfg.Provider.Enabled || cfg.Provider.APIKey == "" {
		return nil
	}
	client := &http.Client{Timeout: time.Duration(cfg.Provider.TimeoutSeconds) * time.Second}
	return similarity.NewProvider(cfg.Provider, client, logger)
}
