package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/jsamuelsen/quotekeeper/internal/domain"
	"github.com/jsamuelsen/quotekeeper/internal/platform/logging"
	"github.com/jsamuelsen/quotekeeper/internal/platform/metrics"
	"github.com/jsamuelsen/quotekeeper/internal/ports"
)

// MsgNoQuotes is shown when a category filter matches nothing.
const MsgNoQuotes = "No quotes found for this category."

// DefaultPushTimeout bounds one outbound push of a locally added quote.
const DefaultPushTimeout = 10 * time.Second

// QuoteBookConfig contains the dependencies of a QuoteBook.
type QuoteBookConfig struct {
	// Store is the persistent store holding the collection and last filter.
	Store ports.KeyValueStore

	// Session is the process-scoped store holding the last shown quote.
	Session ports.KeyValueStore

	// Remote receives locally added quotes when PushOnAdd is set.
	// Optional.
	Remote      ports.RemoteQuoteSource
	PushOnAdd   bool
	PushTimeout time.Duration

	Metrics *metrics.Sync
	Logger  *slog.Logger
}

// QuoteBook is the authoritative, ordered quote collection.
// All methods are safe for concurrent use.
type QuoteBook struct {
	mu         sync.RWMutex
	quotes     []domain.Quote
	categories []string

	// saveMu orders writes to the store so the last write always carries
	// the newest snapshot.
	saveMu sync.Mutex

	store       ports.KeyValueStore
	session     ports.KeyValueStore
	remote      ports.RemoteQuoteSource
	pushOnAdd   bool
	pushTimeout time.Duration
	pushes      sync.WaitGroup

	metrics *metrics.Sync
	logger  *slog.Logger
	intN    func(n int) int
}

// NewQuoteBook creates a QuoteBook holding the seed quotes. Call Load to
// replace them with the stored collection.
// Panics if Store or Session is nil.
func NewQuoteBook(cfg QuoteBookConfig) *QuoteBook {
	if cfg.Store == nil || cfg.Session == nil {
		panic("app: QuoteBook requires a persistent and a session store")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	pushTimeout := cfg.PushTimeout
	if pushTimeout <= 0 {
		pushTimeout = DefaultPushTimeout
	}

	b := &QuoteBook{
		store:       cfg.Store,
		session:     cfg.Session,
		remote:      cfg.Remote,
		pushOnAdd:   cfg.PushOnAdd,
		pushTimeout: pushTimeout,
		metrics:     cfg.Metrics,
		logger:      logger.With(slog.String("component", "app.QuoteBook")),
		intN:        rand.IntN,
	}
	b.replace(domain.SeedQuotes())

	return b
}

// Load reads the stored collection. A missing or unreadable collection
// falls back to the seed quotes; Load never fails.
func (b *QuoteBook) Load(ctx context.Context) []domain.Quote {
	quotes, err := b.readStored(ctx)
	if err != nil {
		b.logger.WarnContext(ctx, "stored quotes unusable, using seed quotes", slog.Any("error", err))

		quotes = domain.SeedQuotes()
	}

	b.replace(quotes)
	b.logger.DebugContext(ctx, "quotes loaded", slog.Int("count", len(quotes)))

	return b.Quotes()
}

func (b *QuoteBook) readStored(ctx context.Context) ([]domain.Quote, error) {
	raw, found, err := b.store.Get(ctx, ports.KeyQuotes)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", ports.KeyQuotes, err)
	}

	if !found {
		return domain.SeedQuotes(), nil
	}

	var quotes []domain.Quote
	if err := json.Unmarshal([]byte(raw), &quotes); err != nil {
		return nil, domain.NewFormatError(ports.KeyQuotes, "stored collection is not a JSON array of quotes", err)
	}

	// A stored JSON null carries no collection.
	if quotes == nil {
		return domain.SeedQuotes(), nil
	}

	return quotes, nil
}

// Save writes the full collection to the persistent store. Failures are
// logged and otherwise ignored.
func (b *QuoteBook) Save(ctx context.Context) {
	b.saveMu.Lock()
	defer b.saveMu.Unlock()

	quotes := b.Quotes()

	data, err := json.Marshal(quotes)
	if err != nil {
		b.logger.ErrorContext(ctx, "encoding quotes failed", slog.Any("error", err))
		return
	}

	if err := b.store.Set(ctx, ports.KeyQuotes, string(data)); err != nil {
		b.logger.ErrorContext(ctx, "saving quotes failed", slog.Any("error", err))
		return
	}

	b.metrics.SetQuotes(len(quotes))
}

// Add validates and appends a quote, persists the collection and, when
// configured, pushes the quote to the remote source in the background.
// Returns a ValidationError without touching the collection when text or
// category is blank.
func (b *QuoteBook) Add(ctx context.Context, text, category string) (domain.Quote, error) {
	quote, err := domain.NewQuote(text, category)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("adding quote: %w", err)
	}

	b.mu.Lock()
	b.quotes = append(b.quotes, quote)
	b.categories = domain.Categories(b.quotes)
	b.mu.Unlock()

	logging.FromContext(ctx).InfoContext(ctx, "quote added", slog.String("category", quote.Category))

	b.Save(ctx)
	b.push(ctx, quote)

	return quote, nil
}

// push sends quote to the remote source without blocking the caller.
// Failures are logged and never retried.
func (b *QuoteBook) push(ctx context.Context, quote domain.Quote) {
	if b.remote == nil || !b.pushOnAdd {
		return
	}

	pushCtx := context.WithoutCancel(ctx)
	logger := logging.FromContext(ctx)

	b.pushes.Go(func() {
		pushCtx, cancel := context.WithTimeout(pushCtx, b.pushTimeout)
		defer cancel()

		err := b.remote.PushQuote(pushCtx, quote)
		b.metrics.ObservePush(err)

		if err != nil {
			logger.WarnContext(pushCtx, "pushing quote to remote failed", slog.Any("error", err))
			return
		}

		logger.DebugContext(pushCtx, "quote pushed to remote")
	})
}

// WaitForPushes blocks until every background push has finished.
func (b *QuoteBook) WaitForPushes() {
	b.pushes.Wait()
}

// Quotes returns a copy of the collection in insertion order.
func (b *QuoteBook) Quotes() []domain.Quote {
	b.mu.RLock()
	defer b.mu.RUnlock()

	quotes := make([]domain.Quote, len(b.quotes))
	copy(quotes, b.quotes)

	return quotes
}

// Len returns the number of quotes.
func (b *QuoteBook) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.quotes)
}

// Categories returns "all" followed by the distinct categories.
func (b *QuoteBook) Categories() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	categories := make([]string, len(b.categories))
	copy(categories, b.categories)

	return categories
}

// FilterBy returns the quotes in category. The result is never nil.
func (b *QuoteBook) FilterBy(category string) []domain.Quote {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return domain.FilterBy(b.quotes, category)
}

// RandomQuote picks a quote from category. An empty category means the
// last filter used. The filter is remembered and the picked quote becomes
// the last shown quote. Returns a NotFoundError when nothing matches.
func (b *QuoteBook) RandomQuote(ctx context.Context, category string) (domain.Quote, error) {
	if category == "" {
		category = b.LastFilter(ctx)
	}

	if err := b.store.Set(ctx, ports.KeyLastFilter, category); err != nil {
		b.logger.WarnContext(ctx, "saving last filter failed", slog.Any("error", err))
	}

	candidates := b.FilterBy(category)
	if len(candidates) == 0 {
		return domain.Quote{}, domain.NewNotFoundError("quote", category)
	}

	quote := candidates[b.intN(len(candidates))]

	data, err := json.Marshal(quote)
	if err == nil {
		err = b.session.Set(ctx, ports.KeyLastQuote, string(data))
	}

	if err != nil {
		b.logger.WarnContext(ctx, "saving last shown quote failed", slog.Any("error", err))
	}

	return quote, nil
}

// LastShown returns the last quote shown in this process, if any.
func (b *QuoteBook) LastShown(ctx context.Context) (domain.Quote, bool) {
	raw, found, err := b.session.Get(ctx, ports.KeyLastQuote)
	if err != nil || !found {
		return domain.Quote{}, false
	}

	var quote domain.Quote
	if err := json.Unmarshal([]byte(raw), &quote); err != nil {
		b.logger.WarnContext(ctx, "last shown quote unreadable", slog.Any("error", err))
		return domain.Quote{}, false
	}

	return quote, true
}

// LastFilter returns the last category filter used, defaulting to "all".
func (b *QuoteBook) LastFilter(ctx context.Context) string {
	filter, found, err := b.store.Get(ctx, ports.KeyLastFilter)
	if err != nil || !found || filter == "" {
		return domain.CategoryAll
	}

	return filter
}

// Export writes the collection as an indented JSON array.
func (b *QuoteBook) Export(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	if err := enc.Encode(b.Quotes()); err != nil {
		return fmt.Errorf("exporting quotes: %w", err)
	}

	return nil
}

// Import appends every quote of a JSON array read from r, as is, and
// persists the collection. Elements are not validated, so blank or
// partial quotes are kept. Elements are decoded as quote objects, though:
// an array holding anything else, such as [1,2], is rejected whole.
// Returns a FormatError and leaves the collection unchanged when the
// input is not a JSON array of quote objects.
func (b *QuoteBook) Import(ctx context.Context, r io.Reader) (int, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, fmt.Errorf("reading import: %w", err)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return 0, domain.NewFormatError("import", "top-level value must be a JSON array", nil)
	}

	var imported []domain.Quote
	if err := json.Unmarshal(trimmed, &imported); err != nil {
		return 0, domain.NewFormatError("import", "elements must be quote objects", err)
	}

	b.mu.Lock()
	b.quotes = append(b.quotes, imported...)
	b.categories = domain.Categories(b.quotes)
	b.mu.Unlock()

	logging.FromContext(ctx).InfoContext(ctx, "quotes imported", slog.Int("count", len(imported)))

	b.Save(ctx)

	return len(imported), nil
}

// Merge reconciles remote against the collection and appends the new
// quotes in one critical section, so a concurrent Add is never lost.
// Merge does not persist; the caller decides when to Save.
func (b *QuoteBook) Merge(remote []domain.Quote) domain.Reconciliation {
	b.mu.Lock()
	defer b.mu.Unlock()

	result := domain.Reconcile(b.quotes, remote)
	if len(result.New) > 0 {
		b.quotes = append(b.quotes, result.New...)
		b.categories = domain.Categories(b.quotes)
	}

	return result
}

func (b *QuoteBook) replace(quotes []domain.Quote) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.quotes = quotes
	b.categories = domain.Categories(quotes)
}
