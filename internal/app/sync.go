package app

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen/quotekeeper/internal/domain"
	"github.com/jsamuelsen/quotekeeper/internal/platform/logging"
	"github.com/jsamuelsen/quotekeeper/internal/platform/metrics"
	"github.com/jsamuelsen/quotekeeper/internal/platform/telemetry"
	"github.com/jsamuelsen/quotekeeper/internal/ports"
)

// Notification texts emitted at the end of a cycle.
const (
	MsgNothingNew = "Quotes synced with server. Nothing new."
	MsgSyncFailed = "Sync failed: could not reach the quote server."
)

// MsgSynced returns the notification for a cycle that added n quotes.
func MsgSynced(n int) string {
	return "Synced " + strconv.Itoa(n) + " new quote(s) from server."
}

// Defaults used when SyncEngineConfig leaves a duration unset.
const (
	DefaultSyncInterval = 30 * time.Second
	DefaultFetchTimeout = 10 * time.Second
)

// SyncEngineConfig contains the dependencies of a SyncEngine.
type SyncEngineConfig struct {
	Book   *QuoteBook
	Remote ports.RemoteQuoteSource

	// Notifier receives the end-of-cycle message. Optional.
	Notifier ports.Notifier

	Interval     time.Duration
	FetchTimeout time.Duration

	Metrics *metrics.Sync
	Logger  *slog.Logger
}

// SyncResult describes one finished cycle.
type SyncResult struct {
	Cycle      uint64        `json:"cycle"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration"`
	Added      int           `json:"added"`
	Duplicates int           `json:"duplicates"`
	Conflicts  int           `json:"conflicts"`
	Message    string        `json:"message"`
	Error      string        `json:"error,omitempty"`
}

// SyncStatus is a snapshot of the engine.
type SyncStatus struct {
	State     SyncState   `json:"state"`
	Cycles    uint64      `json:"cycles"`
	Conflicts int         `json:"conflicts"`
	Last      *SyncResult `json:"last,omitempty"`
}

// SyncEngine reconciles the QuoteBook with the remote quote source.
// At most one cycle runs at a time.
type SyncEngine struct {
	book         *QuoteBook
	remote       ports.RemoteQuoteSource
	notifier     ports.Notifier
	interval     time.Duration
	fetchTimeout time.Duration
	metrics      *metrics.Sync
	logger       *slog.Logger
	now          func() time.Time

	inFlight atomic.Bool
	cycles   atomic.Uint64

	mu           sync.RWMutex
	state        SyncState
	last         *SyncResult
	conflicts    []domain.Conflict
	conflictSeen map[domain.Conflict]struct{}
}

// NewSyncEngine creates an idle engine.
// Panics if Book or Remote is nil.
func NewSyncEngine(cfg SyncEngineConfig) *SyncEngine {
	if cfg.Book == nil || cfg.Remote == nil {
		panic("app: SyncEngine requires a QuoteBook and a remote source")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultSyncInterval
	}

	fetchTimeout := cfg.FetchTimeout
	if fetchTimeout <= 0 {
		fetchTimeout = DefaultFetchTimeout
	}

	return &SyncEngine{
		book:         cfg.Book,
		remote:       cfg.Remote,
		notifier:     cfg.Notifier,
		interval:     interval,
		fetchTimeout: fetchTimeout,
		metrics:      cfg.Metrics,
		logger:       logger.With(slog.String("component", "app.SyncEngine")),
		now:          time.Now,
		state:        StateIdle,
		conflictSeen: make(map[domain.Conflict]struct{}),
	}
}

// SyncNow runs one cycle and returns its result. Returns a ConflictError
// naming the running cycle's stage, without doing anything, when a cycle
// is already in flight. A failed fetch is returned as a CycleError
// wrapping the remote error.
func (e *SyncEngine) SyncNow(ctx context.Context) (SyncResult, error) {
	if !e.inFlight.CompareAndSwap(false, true) {
		e.mu.RLock()
		stage := e.state
		e.mu.RUnlock()

		return SyncResult{}, domain.NewConflictError("sync", "a sync cycle is already in flight", "stage "+string(stage))
	}
	defer e.inFlight.Store(false)

	return e.runCycle(ctx)
}

// Run syncs once immediately, then on every interval until ctx is done.
// Ticks that land while a cycle is in flight are skipped.
func (e *SyncEngine) Run(ctx context.Context) error {
	ctx = logging.WithContext(ctx, e.logger)

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	e.logger.InfoContext(ctx, "sync loop started", slog.Duration("interval", e.interval))

	e.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			e.logger.InfoContext(ctx, "sync loop stopped")
			return nil
		case <-ticker.C:
			e.tick(ctx)
		}
	}
}

func (e *SyncEngine) tick(ctx context.Context) {
	_, err := e.SyncNow(ctx)
	if domain.IsConflict(err) {
		e.metrics.ObserveCycle(metrics.OutcomeSkipped, 0)
		e.logger.InfoContext(ctx, "sync tick skipped, cycle in flight")
	}
}

// Status returns the current state and the last cycle's result.
func (e *SyncEngine) Status() SyncStatus {
	e.mu.RLock()
	defer e.mu.RUnlock()

	status := SyncStatus{
		State:     e.state,
		Cycles:    e.cycles.Load(),
		Conflicts: len(e.conflicts),
	}

	if e.last != nil {
		last := *e.last
		status.Last = &last
	}

	return status
}

// Conflicts returns every distinct conflict seen so far, oldest first.
// The engine never resolves them; local quotes always win.
func (e *SyncEngine) Conflicts() []domain.Conflict {
	e.mu.RLock()
	defer e.mu.RUnlock()

	conflicts := make([]domain.Conflict, len(e.conflicts))
	copy(conflicts, e.conflicts)

	return conflicts
}

func (e *SyncEngine) runCycle(ctx context.Context) (SyncResult, error) {
	cycle := e.cycles.Add(1)
	ctx = logging.WithSyncCycle(ctx, cycle)

	ctx, span := telemetry.Tracer().Start(ctx, "sync.cycle",
		trace.WithAttributes(attribute.Int64("sync.cycle", int64(cycle))), //nolint:gosec // cycle count fits
	)
	defer span.End()

	logger := logging.FromContext(ctx)
	start := e.now()
	result := SyncResult{Cycle: cycle, StartedAt: start}

	var (
		remote []domain.Quote
		merged domain.Reconciliation
	)

	fetchErr := e.runStage(ctx, StateFetching, func(ctx context.Context) error {
		fetchCtx, cancel := context.WithTimeout(ctx, e.fetchTimeout)
		defer cancel()

		var err error

		remote, err = e.remote.FetchQuotes(fetchCtx)
		if err != nil {
			return fmt.Errorf("fetching remote quotes: %w", err)
		}

		return nil
	})

	if fetchErr == nil {
		_ = e.runStage(ctx, StateReconciling, func(ctx context.Context) error {
			merged = e.book.Merge(remote)
			e.recordConflicts(ctx, merged.Conflicts)

			return nil
		})

		_ = e.runStage(ctx, StatePersisting, func(ctx context.Context) error {
			if len(merged.New) > 0 {
				e.book.Save(ctx)
			}

			return nil
		})

		result.Added = len(merged.New)
		result.Duplicates = merged.Duplicates
		result.Conflicts = len(merged.Conflicts)
		result.Message = MsgNothingNew

		if result.Added > 0 {
			result.Message = MsgSynced(result.Added)
		}
	} else {
		result.Error = fetchErr.Error()
		result.Message = MsgSyncFailed
	}

	_ = e.runStage(ctx, StateNotifying, func(context.Context) error {
		if e.notifier != nil {
			e.notifier.Notify(result.Message)
		}

		return nil
	})

	result.Duration = e.now().Sub(start)
	e.finish(result)

	span.SetAttributes(
		attribute.Int("sync.added", result.Added),
		attribute.Int("sync.duplicates", result.Duplicates),
		attribute.Int("sync.conflicts", result.Conflicts),
	)

	if fetchErr != nil {
		e.metrics.ObserveCycle(metrics.OutcomeFailure, result.Duration)
		logger.WarnContext(ctx, "sync cycle failed", slog.Any("error", fetchErr))

		return result, fetchErr
	}

	e.metrics.ObserveCycle(metrics.OutcomeSuccess, result.Duration)
	e.metrics.ObserveReconcile(result.Added, result.Duplicates, result.Conflicts)
	logger.InfoContext(ctx, "sync cycle finished",
		slog.Int("added", result.Added),
		slog.Int("duplicates", result.Duplicates),
		slog.Int("conflicts", result.Conflicts),
		slog.Duration("duration", result.Duration),
	)

	return result, nil
}

func (e *SyncEngine) recordConflicts(ctx context.Context, conflicts []domain.Conflict) {
	if len(conflicts) == 0 {
		return
	}

	logger := logging.FromContext(ctx)

	e.mu.Lock()
	defer e.mu.Unlock()

	for _, c := range conflicts {
		logger.Log(ctx, logging.LevelTrace, "remote quote conflicts with local, keeping local",
			slog.String("local_category", c.Local.Category),
			slog.String("remote_category", c.Remote.Category),
		)

		if _, ok := e.conflictSeen[c]; ok {
			continue
		}

		e.conflictSeen[c] = struct{}{}
		e.conflicts = append(e.conflicts, c)
	}
}

func (e *SyncEngine) setState(state SyncState) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.state = state
}

func (e *SyncEngine) finish(result SyncResult) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.state = StateIdle
	e.last = &result
}
