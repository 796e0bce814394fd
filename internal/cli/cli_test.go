package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quotekeeper/internal/adapters/storage"
	"github.com/jsamuelsen/quotekeeper/internal/app"
	"github.com/jsamuelsen/quotekeeper/internal/domain"
	"github.com/jsamuelsen/quotekeeper/internal/mocks"
	"github.com/jsamuelsen/quotekeeper/internal/ports"
)

type cliFixture struct {
	store  *storage.Memory
	remote *mocks.MockRemoteQuoteSource
	closed int
}

func newCLIFixture(t *testing.T) *cliFixture {
	t.Helper()

	return &cliFixture{store: storage.NewMemory(), remote: mocks.NewMockRemoteQuoteSource(t)}
}

// open builds a fresh env over the fixture's store on every invocation,
// like a new process would.
func (f *cliFixture) open(ctx context.Context, _ string, notifier ports.Notifier) (*Env, func() error, error) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	book := app.NewQuoteBook(app.QuoteBookConfig{
		Store:   f.store,
		Session: storage.NewMemory(),
		Logger:  logger,
	})
	book.Load(ctx)

	engine := app.NewSyncEngine(app.SyncEngineConfig{
		Book:     book,
		Remote:   f.remote,
		Notifier: notifier,
		Logger:   logger,
	})

	return &Env{Book: book, Sync: engine}, func() error {
		f.closed++
		return nil
	}, nil
}

func (f *cliFixture) run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer

	root := NewRootCommand(f.open, &out)
	root.SetArgs(args)
	root.SetErr(io.Discard)

	err := root.ExecuteContext(context.Background())

	return out.String(), err
}

func TestCLI_List(t *testing.T) {
	f := newCLIFixture(t)

	out, err := f.run(t, "list")
	require.NoError(t, err)

	assert.Contains(t, out, `"Stay hungry, stay foolish."`)
	assert.Contains(t, out, "Category: Design")
	assert.Equal(t, 1, f.closed)
}

func TestCLI_ListUnknownCategory(t *testing.T) {
	out, err := newCLIFixture(t).run(t, "list", "--category", "Nope")
	require.NoError(t, err)

	assert.Contains(t, out, app.MsgNoQuotes)
}

func TestCLI_AddPersists(t *testing.T) {
	f := newCLIFixture(t)

	out, err := f.run(t, "add", "Less is more.", "Minimalism")
	require.NoError(t, err)
	assert.Contains(t, out, "Category: Minimalism")

	out, err = f.run(t, "categories")
	require.NoError(t, err)
	assert.Equal(t, "• all\n• Motivation\n• Design\n• Programming\n• Minimalism\n", out)
}

func TestCLI_AddRejectsBlank(t *testing.T) {
	f := newCLIFixture(t)

	_, err := f.run(t, "add", "  ", "Design")

	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
	assert.Equal(t, 1, f.closed, "env is closed on failure")
}

func TestCLI_AddArgCount(t *testing.T) {
	f := newCLIFixture(t)

	_, err := f.run(t, "add", "only text")

	require.Error(t, err)
	assert.Zero(t, f.closed, "arg validation happens before opening")
}

func TestCLI_Random(t *testing.T) {
	f := newCLIFixture(t)

	out, err := f.run(t, "random", "-c", "Programming")
	require.NoError(t, err)
	assert.Contains(t, out, "Category: Programming")

	out, err = f.run(t, "random", "-c", "Nope")
	require.NoError(t, err)
	assert.Contains(t, out, app.MsgNoQuotes)
}

func TestCLI_ExportImport(t *testing.T) {
	f := newCLIFixture(t)
	path := filepath.Join(t.TempDir(), "quotes.json")

	_, err := f.run(t, "export", "--out", path)
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var exported []domain.Quote
	require.NoError(t, json.Unmarshal(raw, &exported))
	assert.Equal(t, domain.SeedQuotes(), exported)

	out, err := f.run(t, "import", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 3 quote(s).")

	out, err = f.run(t, "export")
	require.NoError(t, err)

	var all []domain.Quote
	require.NoError(t, json.Unmarshal([]byte(out), &all))
	assert.Len(t, all, 6)
}

func TestCLI_ImportRejectsObject(t *testing.T) {
	f := newCLIFixture(t)
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"not":"an array"}`), 0o600))

	_, err := f.run(t, "import", path)

	require.Error(t, err)
	assert.True(t, domain.IsFormat(err))
}

func TestCLI_ImportStdin(t *testing.T) {
	f := newCLIFixture(t)

	var out bytes.Buffer

	root := NewRootCommand(f.open, &out)
	root.SetArgs([]string{"import", "-"})
	root.SetIn(strings.NewReader(`[{"text":"A","category":"X"}]`))

	require.NoError(t, root.ExecuteContext(context.Background()))
	assert.Contains(t, out.String(), "Imported 1 quote(s).")
}

func TestCLI_Sync(t *testing.T) {
	f := newCLIFixture(t)
	f.remote.EXPECT().FetchQuotes(mock.Anything).Return([]domain.Quote{
		{Text: "Talk is cheap.", Category: domain.CategoryServer},
	}, nil).Once()

	out, err := f.run(t, "sync")
	require.NoError(t, err)
	assert.Contains(t, out, app.MsgSynced(1))

	out, err = f.run(t, "list", "-c", domain.CategoryServer)
	require.NoError(t, err)
	assert.Contains(t, out, `"Talk is cheap."`)
}

func TestCLI_SyncFailure(t *testing.T) {
	f := newCLIFixture(t)
	f.remote.EXPECT().FetchQuotes(mock.Anything).
		Return(nil, domain.NewUnavailableError("quote-server", "connection refused")).Once()

	out, err := f.run(t, "sync")

	require.Error(t, err)
	assert.True(t, domain.IsUnavailable(err))
	assert.Contains(t, out, app.MsgSyncFailed)
}

func TestCLI_OpenError(t *testing.T) {
	failing := func(context.Context, string, ports.Notifier) (*Env, func() error, error) {
		return nil, nil, errors.New("store locked")
	}

	root := NewRootCommand(failing, io.Discard)
	root.SetArgs([]string{"list"})

	require.ErrorContains(t, root.ExecuteContext(context.Background()), "store locked")
}
