// Package ports defines interfaces for external dependencies.
// Ports are contracts that adapters implement, allowing the application layer
// to depend on abstractions rather than concrete implementations.
//
// Port Design Principles:
//   - Context as first parameter for anything that may block
//   - Return domain types, never external DTOs or infrastructure types
//   - Error returns use domain error types (ErrUnavailable, ErrFormat, etc.)
//   - Keep interfaces small and focused
package ports

import (
	"context"

	"github.com/jsamuelsen/quotekeeper/internal/domain"
)

// Well-known store keys.
const (
	// KeyQuotes holds the full collection as a JSON array (persistent store).
	KeyQuotes = "quotes"

	// KeyLastFilter holds the last selected category as a plain string (persistent store).
	KeyLastFilter = "lastFilter"

	// KeyLastQuote holds the last shown quote as a JSON object (session store).
	KeyLastQuote = "lastQuote"
)

// KeyValueStore is a small string store addressed by key.
// The persistent store survives restarts; the session store lives as long
// as the process.
type KeyValueStore interface {
	// Get returns the value for key. found is false when the key is absent.
	Get(ctx context.Context, key string) (value string, found bool, err error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error
}

// RemoteQuoteSource is the remote endpoint the collection syncs with.
type RemoteQuoteSource interface {
	// FetchQuotes returns the remote batch translated to quotes.
	// Returns domain.ErrUnavailable on transport failure and
	// domain.ErrFormat when the payload cannot be decoded.
	FetchQuotes(ctx context.Context) ([]domain.Quote, error)

	// PushQuote sends one locally added quote to the remote endpoint.
	PushQuote(ctx context.Context, quote domain.Quote) error
}

// Notifier receives short-lived human-readable status messages.
type Notifier interface {
	Notify(message string)
}

// Renderer displays quotes to a user.
type Renderer interface {
	// Render displays the given quotes.
	Render(quotes ...domain.Quote) error

	// RenderEmpty displays a "nothing to show" message.
	RenderEmpty(message string) error
}
