package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quotekeeper/internal/adapters/storage"
	"github.com/jsamuelsen/quotekeeper/internal/domain"
	"github.com/jsamuelsen/quotekeeper/internal/mocks"
	"github.com/jsamuelsen/quotekeeper/internal/platform/metrics"
	"github.com/jsamuelsen/quotekeeper/internal/ports"
)

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *recordingNotifier) Notify(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.messages = append(n.messages, message)
}

func (n *recordingNotifier) all() []string {
	n.mu.Lock()
	defer n.mu.Unlock()

	return append([]string(nil), n.messages...)
}

type syncFixture struct {
	store    *storage.Memory
	book     *QuoteBook
	remote   *mocks.MockRemoteQuoteSource
	notifier *recordingNotifier
	engine   *SyncEngine
}

func newSyncFixture(t *testing.T, stored string, mutate ...func(*SyncEngineConfig)) *syncFixture {
	t.Helper()

	f := &syncFixture{
		store:    storeWith(t, stored),
		remote:   mocks.NewMockRemoteQuoteSource(t),
		notifier: &recordingNotifier{},
	}

	f.book = newBook(t, f.store)
	f.book.Load(context.Background())

	cfg := SyncEngineConfig{
		Book:     f.book,
		Remote:   f.remote,
		Notifier: f.notifier,
		Logger:   discardLogger(),
	}
	for _, m := range mutate {
		m(&cfg)
	}

	f.engine = NewSyncEngine(cfg)

	return f
}

func TestNewSyncEngine_PanicsWithoutDependencies(t *testing.T) {
	assert.Panics(t, func() { NewSyncEngine(SyncEngineConfig{}) })
}

func TestNewSyncEngine_Defaults(t *testing.T) {
	f := newSyncFixture(t, `[]`)

	assert.Equal(t, DefaultSyncInterval, f.engine.interval)
	assert.Equal(t, DefaultFetchTimeout, f.engine.fetchTimeout)
	assert.Equal(t, StateIdle, f.engine.Status().State)
	assert.Nil(t, f.engine.Status().Last)
}

func TestSyncEngine_EmptyLocalReceivesRemote(t *testing.T) {
	f := newSyncFixture(t, `[]`)
	f.remote.EXPECT().FetchQuotes(mock.Anything).
		Return([]domain.Quote{{Text: "B", Category: domain.CategoryServer}}, nil).Once()

	result, err := f.engine.SyncNow(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Added)
	assert.Equal(t, "Synced 1 new quote(s) from server.", result.Message)
	assert.Equal(t, []domain.Quote{{Text: "B", Category: "Server"}}, f.book.Quotes())
	assert.Equal(t, []string{"Synced 1 new quote(s) from server."}, f.notifier.all())

	raw, found, err := f.store.Get(context.Background(), ports.KeyQuotes)
	require.NoError(t, err)
	require.True(t, found)
	assert.JSONEq(t, `[{"text":"B","category":"Server"}]`, raw)

	status := f.engine.Status()
	assert.Equal(t, StateIdle, status.State)
	assert.Equal(t, uint64(1), status.Cycles)
	require.NotNil(t, status.Last)
	assert.Equal(t, result, *status.Last)
}

func TestSyncEngine_DuplicatesAreIdempotent(t *testing.T) {
	f := newSyncFixture(t, `[]`)
	batch := []domain.Quote{{Text: "B", Category: "Server"}, {Text: "C", Category: "Server"}}
	f.remote.EXPECT().FetchQuotes(mock.Anything).Return(batch, nil).Twice()

	_, err := f.engine.SyncNow(context.Background())
	require.NoError(t, err)

	once := f.book.Quotes()

	result, err := f.engine.SyncNow(context.Background())
	require.NoError(t, err)

	assert.Equal(t, once, f.book.Quotes())
	assert.Zero(t, result.Added)
	assert.Equal(t, 2, result.Duplicates)
	assert.Equal(t, []string{MsgSynced(2), MsgNothingNew}, f.notifier.all())
}

func TestSyncEngine_ConflictKeepsLocal(t *testing.T) {
	f := newSyncFixture(t, `[{"text":"A","category":"X"}]`)
	f.remote.EXPECT().FetchQuotes(mock.Anything).
		Return([]domain.Quote{{Text: "A", Category: "Y"}}, nil).Twice()

	for range 2 {
		result, err := f.engine.SyncNow(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, result.Conflicts)
		assert.Equal(t, MsgNothingNew, result.Message)
	}

	assert.Equal(t, []domain.Quote{{Text: "A", Category: "X"}}, f.book.Quotes())
	assert.Equal(t, []domain.Conflict{{
		Local:  domain.Quote{Text: "A", Category: "X"},
		Remote: domain.Quote{Text: "A", Category: "Y"},
	}}, f.engine.Conflicts(), "a repeated conflict is recorded once")
	assert.Equal(t, 1, f.engine.Status().Conflicts)
}

func TestSyncEngine_FetchFailure(t *testing.T) {
	f := newSyncFixture(t, `[{"text":"A","category":"X"}]`)
	f.remote.EXPECT().FetchQuotes(mock.Anything).
		Return(nil, domain.NewUnavailableError("quote-server", "connection refused")).Once()

	result, err := f.engine.SyncNow(context.Background())

	require.Error(t, err)
	assert.True(t, domain.IsUnavailable(err))

	stage, ok := StageOf(err)
	require.True(t, ok)
	assert.Equal(t, StateFetching, stage)

	assert.Equal(t, MsgSyncFailed, result.Message)
	assert.NotEmpty(t, result.Error)
	assert.Equal(t, []string{MsgSyncFailed}, f.notifier.all())
	assert.Equal(t, []domain.Quote{{Text: "A", Category: "X"}}, f.book.Quotes())
	assert.Equal(t, StateIdle, f.engine.Status().State)
}

func TestSyncEngine_FetchTimeout(t *testing.T) {
	f := newSyncFixture(t, `[]`, func(c *SyncEngineConfig) { c.FetchTimeout = 20 * time.Millisecond })
	f.remote.EXPECT().FetchQuotes(mock.Anything).
		RunAndReturn(func(ctx context.Context) ([]domain.Quote, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		}).Once()

	_, err := f.engine.SyncNow(context.Background())

	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, []string{MsgSyncFailed}, f.notifier.all())
}

func TestSyncEngine_SingleFlight(t *testing.T) {
	f := newSyncFixture(t, `[]`)

	release := make(chan struct{})
	f.remote.EXPECT().FetchQuotes(mock.Anything).
		RunAndReturn(func(context.Context) ([]domain.Quote, error) {
			<-release
			return []domain.Quote{{Text: "B", Category: "Server"}}, nil
		}).Once()

	done := make(chan error, 1)

	go func() {
		_, err := f.engine.SyncNow(context.Background())
		done <- err
	}()

	require.Eventually(t, func() bool {
		return f.engine.Status().State == StateFetching
	}, time.Second, time.Millisecond)

	_, err := f.engine.SyncNow(context.Background())
	require.True(t, domain.IsConflict(err))

	var conflict *domain.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "stage fetching", conflict.Details)

	// A timer tick while busy is skipped without fetching.
	f.engine.tick(context.Background())

	close(release)
	require.NoError(t, <-done)

	assert.Equal(t, uint64(1), f.engine.Status().Cycles)
	assert.Equal(t, 1, f.book.Len())
}

func TestSyncEngine_AddDuringFetchIsKept(t *testing.T) {
	f := newSyncFixture(t, `[]`)

	f.remote.EXPECT().FetchQuotes(mock.Anything).
		RunAndReturn(func(ctx context.Context) ([]domain.Quote, error) {
			_, err := f.book.Add(ctx, "Local during fetch", "Local")
			require.NoError(t, err)

			return []domain.Quote{{Text: "B", Category: "Server"}}, nil
		}).Once()

	_, err := f.engine.SyncNow(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []domain.Quote{
		{Text: "Local during fetch", Category: "Local"},
		{Text: "B", Category: "Server"},
	}, f.book.Quotes())

	reloaded := newBook(t, f.store)
	assert.Equal(t, f.book.Quotes(), reloaded.Load(context.Background()))
}

func TestSyncEngine_RunStopsOnCancel(t *testing.T) {
	f := newSyncFixture(t, `[]`, func(c *SyncEngineConfig) { c.Interval = 5 * time.Millisecond })
	f.remote.EXPECT().FetchQuotes(mock.Anything).Return(nil, nil).Maybe()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() { done <- f.engine.Run(ctx) }()

	require.Eventually(t, func() bool {
		return f.engine.Status().Cycles >= 2
	}, time.Second, time.Millisecond)

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

func TestSyncEngine_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()

	f := newSyncFixture(t, `[]`, func(c *SyncEngineConfig) { c.Metrics = metrics.NewSync(reg) })
	f.remote.EXPECT().FetchQuotes(mock.Anything).Return(nil, errors.New("boom")).Once()
	f.remote.EXPECT().FetchQuotes(mock.Anything).Return([]domain.Quote{{Text: "B", Category: "Server"}}, nil).Once()

	_, err := f.engine.SyncNow(context.Background())
	require.Error(t, err)

	_, err = f.engine.SyncNow(context.Background())
	require.NoError(t, err)

	count, err := testutil.GatherAndCount(reg, "quotekeeper_sync_cycles_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count, "one series per outcome")
}

func TestMsgSynced(t *testing.T) {
	assert.Equal(t, "Synced 3 new quote(s) from server.", MsgSynced(3))
}
