//go:build !sqlite && !postgres

package main

import (
	"os"

	"styleassets/internal/observability"
	"styleassets/internal/storage"
)

// selectStore returns the default storage when built without a database tag.
// If SQLITE_DSN or DATABASE_URL is set, we log a hint to rebuild with tags.
func selectStore(logger observability.Logger) storage.Store {
	if logger == nil {
		logger = observability.NewLogger(observability.DefaultConfig())
	}
	if os.Getenv("SQLITE_DSN") != "" {
		logger.Warn("SQLITE_DSN set, but binary not built with -tags sqlite; using in-memory store")
	}
	if os.Getenv("DATABASE_URL") != "" {
		logger.Warn("DATABASE_URL set, but binary not built with -tags postgres; using in-memory store")
	}
	return storage.NewMemoryStore()
}

// sqliteStatus returns schema status string when not built with sqlite tag.
func sqliteStatus(_ string) string { return "" }

// postgresStatus is a no-op without the postgres tag.
func postgresStatus() string { return "" }
