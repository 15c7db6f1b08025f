package testsupport

import (
	"testing"

	"autoqueue/internal/config"
	"autoqueue/internal/similarity"
)

// MustOpenStore opens a similarity store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *similarity.Store {
	t.Helper()

	store, err := similarity.OpenStore(cfg.DatabasePath(), nil)
	if err != nil {
		t.Fatalf("similarity.OpenStore: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

// MustOpenService builds a similarity service over a fresh store. The
// service owns the store; closing it is registered as cleanup.
func MustOpenService(t testing.TB, cfg *config.Config, analyzer similarity.Analyzer, source similarity.MatchSource) *similarity.Service {
	t.Helper()

	store, err := similarity.OpenStore(cfg.DatabasePath(), nil)
	if err != nil {
		t.Fatalf("similarity.OpenStore: %v", err)
	}
	service := similarity.NewService(store, analyzer, source, cfg, nil)
	t.Cleanup(func() {
		_ = service.Close()
	})
	return service
}
