// Package storage implements ports.KeyValueStore.
//
// The persistent store is bbolt by default with SQLite as an alternative
// driver; both keep one string value per key. The session store is an
// in-memory map that lives as long as the process.
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jsamuelsen/quotekeeper/internal/platform/config"
	"github.com/jsamuelsen/quotekeeper/internal/ports"
)

// Persistent is a durable key-value store that can report its health.
type Persistent interface {
	ports.KeyValueStore
	ports.HealthChecker
	io.Closer
}

// Open opens the persistent store selected by cfg.Driver, creating the
// parent directory of cfg.Path if needed.
func Open(ctx context.Context, cfg config.StoreConfig) (Persistent, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}

	switch cfg.Driver {
	case config.StoreDriverBolt:
		return OpenBolt(cfg.Path)
	case config.StoreDriverSQLite:
		return OpenSQLite(ctx, cfg.Path)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
