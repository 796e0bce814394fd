package acl

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quotekeeper/internal/adapters/clients"
	"github.com/jsamuelsen/quotekeeper/internal/domain"
)

func newRemote(t *testing.T, handler http.HandlerFunc) *RemoteQuoteClient {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := clients.New(testConfig(server.URL))
	require.NoError(t, err)

	return NewRemoteQuoteClient(client, nil)
}

func TestRemoteQuoteClient_FetchQuotes(t *testing.T) {
	remote := newRemote(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/posts", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"userId":1,"id":1,"title":"sunt aut facere","body":"quia et suscipit"},
			{"userId":1,"id":2,"title":"","body":"skipped"},
			{"userId":1,"id":3,"title":"  qui est esse  ","body":"est rerum"}
		]`))
	})

	quotes, err := remote.FetchQuotes(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []domain.Quote{
		{Text: "sunt aut facere", Category: domain.CategoryServer},
		{Text: "qui est esse", Category: domain.CategoryServer},
	}, quotes)
}

func TestRemoteQuoteClient_FetchQuotes_EmptyArray(t *testing.T) {
	remote := newRemote(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})

	quotes, err := remote.FetchQuotes(context.Background())

	require.NoError(t, err)
	assert.Empty(t, quotes)
}

func TestRemoteQuoteClient_FetchQuotes_NotAnArray(t *testing.T) {
	remote := newRemote(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"not":"an array"}`))
	})

	_, err := remote.FetchQuotes(context.Background())

	require.ErrorIs(t, err, domain.ErrFormat)
}

func TestRemoteQuoteClient_FetchQuotes_ServerDown(t *testing.T) {
	remote := newRemote(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := remote.FetchQuotes(context.Background())

	require.ErrorIs(t, err, domain.ErrUnavailable)
}

func TestRemoteQuoteClient_FetchQuotes_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client, err := clients.New(testConfig(url))
	require.NoError(t, err)

	_, err = NewRemoteQuoteClient(client, nil).FetchQuotes(context.Background())

	require.ErrorIs(t, err, domain.ErrUnavailable)
}

func TestRemoteQuoteClient_PushQuote(t *testing.T) {
	var received outboundPost

	remote := newRemote(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/posts", r.URL.Path)
		assert.Contains(t, r.Header.Get("Content-Type"), "application/json")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":101}`))
	})

	err := remote.PushQuote(context.Background(), domain.Quote{Text: "Less is more.", Category: "Design"})

	require.NoError(t, err)
	assert.Equal(t, "Less is more.", received.Text)
	assert.Equal(t, "Design", received.Category)
	assert.Equal(t, "Less is more.", received.Title)
	assert.Equal(t, pushUserID, received.UserID)
}

func TestRemoteQuoteClient_PushQuote_Rejected(t *testing.T) {
	remote := newRemote(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	err := remote.PushQuote(context.Background(), domain.Quote{Text: "x", Category: "y"})

	require.ErrorIs(t, err, domain.ErrUnavailable)
}

func TestRemoteQuoteClient_HealthCheck(t *testing.T) {
	var query string

	remote := newRemote(t, func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		_, _ = w.Write([]byte(`[]`))
	})

	assert.Equal(t, "quote-server", remote.Name())
	require.NoError(t, remote.Check(context.Background()))
	assert.Equal(t, "_limit=1", query)
}
