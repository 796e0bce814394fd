// Package bootstrap wires the quote book, sync engine and their adapters
// from configuration. It is shared by the service and the quotes CLI.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jsamuelsen/quotekeeper/internal/adapters/clients"
	"github.com/jsamuelsen/quotekeeper/internal/adapters/clients/acl"
	"github.com/jsamuelsen/quotekeeper/internal/adapters/storage"
	"github.com/jsamuelsen/quotekeeper/internal/app"
	"github.com/jsamuelsen/quotekeeper/internal/platform/config"
	"github.com/jsamuelsen/quotekeeper/internal/platform/metrics"
	"github.com/jsamuelsen/quotekeeper/internal/ports"
)

// Options carries the wiring that differs between the service and the CLI.
type Options struct {
	// Notifier receives end-of-cycle messages. Optional.
	Notifier ports.Notifier

	// Registerer receives the sync collectors. Nil disables metrics.
	Registerer prometheus.Registerer

	// Remote overrides the HTTP quote server client. Used by tests.
	Remote ports.RemoteQuoteSource
}

// Deps holds the wired application.
type Deps struct {
	Store   storage.Persistent
	Session ports.KeyValueStore
	Remote  ports.RemoteQuoteSource
	Book    *app.QuoteBook
	Sync    *app.SyncEngine
	Health  *ports.DefaultHealthRegistry
	Metrics *metrics.Sync
}

// New opens the store, builds the remote client, loads the quote book and
// creates an idle sync engine.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts Options) (*Deps, error) {
	store, err := storage.Open(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("opening %s store: %w", cfg.Store.Driver, err)
	}

	remote := opts.Remote
	if remote == nil {
		client, err := clients.New(&clients.Config{
			BaseURL:     cfg.Services.Remote.BaseURL,
			ServiceName: cfg.Services.Remote.Name,
			Timeout:     cfg.Client.Timeout,
			Retry:       cfg.Client.Retry,
			Circuit:     cfg.Client.CircuitBreaker,
			Transport:   cfg.Client.Transport,
			Logger:      logger,
		})
		if err != nil {
			return nil, errors.Join(fmt.Errorf("creating quote server client: %w", err), store.Close())
		}

		remote = acl.NewRemoteQuoteClient(client, logger)
	}

	health := ports.NewHealthRegistry()
	if err := health.Register(store); err != nil {
		return nil, errors.Join(err, store.Close())
	}

	if checker, ok := remote.(ports.HealthChecker); ok {
		if err := health.Register(checker); err != nil {
			return nil, errors.Join(err, store.Close())
		}
	}

	var syncMetrics *metrics.Sync
	if opts.Registerer != nil {
		syncMetrics = metrics.NewSync(opts.Registerer)
	}

	session := storage.NewMemory()

	book := app.NewQuoteBook(app.QuoteBookConfig{
		Store:     store,
		Session:   session,
		Remote:    remote,
		PushOnAdd: cfg.Sync.PushOnAdd,
		Metrics:   syncMetrics,
		Logger:    logger,
	})
	book.Load(ctx)

	engine := app.NewSyncEngine(app.SyncEngineConfig{
		Book:         book,
		Remote:       remote,
		Notifier:     opts.Notifier,
		Interval:     cfg.Sync.Interval,
		FetchTimeout: cfg.Sync.FetchTimeout,
		Metrics:      syncMetrics,
		Logger:       logger,
	})

	return &Deps{
		Store:   store,
		Session: session,
		Remote:  remote,
		Book:    book,
		Sync:    engine,
		Health:  health,
		Metrics: syncMetrics,
	}, nil
}

// Close waits for outstanding pushes and closes the store.
func (d *Deps) Close() error {
	d.Book.WaitForPushes()

	if err := d.Store.Close(); err != nil {
		return fmt.Errorf("closing store: %w", err)
	}

	return nil
}
