package testsupport

import (
	"context"
	"path/filepath"
	"testing"

	"bookherald/internal/catalog"
	"bookherald/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.GoogleBooks.APIKey = "test"
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")

	for _, opt := range opts {
		opt(&cfg)
	}

	return &cfg
}

// WithChannel overrides the default delivery channel on the test config.
func WithChannel(channel string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Delivery.Channel = channel
	}
}

// WithDailyLimit overrides the provider quota limit on the test config.
func WithDailyLimit(limit int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Quota.DailyLimit = limit
	}
}

// MustOpenStore opens a catalog.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *catalog.Store {
	t.Helper()

	store, err := catalog.Open(cfg)
	if err != nil {
		t.Fatalf("catalog.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// SeedBook inserts a catalog record for tests using the provided store.
func SeedBook(t testing.TB, store *catalog.Store, isbn13, title string) {
	t.Helper()

	_, err := store.UpsertBook(context.Background(), catalog.BookInput{
		ISBN13: isbn13,
		Title:  title,
	})
	if err != nil {
		t.Fatalf("store.UpsertBook: %v", err)
	}
}
