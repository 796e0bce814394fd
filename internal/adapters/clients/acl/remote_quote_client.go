package acl

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/jsamuelsen/quotekeeper/internal/adapters/clients"
	"github.com/jsamuelsen/quotekeeper/internal/domain"
	"github.com/jsamuelsen/quotekeeper/internal/platform/logging"
)

const (
	postsPath = "/posts"

	// healthPath asks for a single record so readiness probes stay cheap.
	healthPath = "/posts?_limit=1"

	// pushUserID is attached to outbound posts; the remote requires a user.
	pushUserID = 1
)

// post is the remote record. Only Title carries quote data; the rest is
// decoded so traces show which record was rejected.
type post struct {
	ID     int    `json:"id"`
	UserID int    `json:"userId"`
	Title  string `json:"title"`
	Body   string `json:"body"`
}

// outboundPost is what a locally added quote looks like on the wire.
type outboundPost struct {
	Title    string `json:"title"`
	Body     string `json:"body"`
	UserID   int    `json:"userId"`
	Text     string `json:"text"`
	Category string `json:"category"`
}

// RemoteQuoteClient implements ports.RemoteQuoteSource and
// ports.HealthChecker against a jsonplaceholder-style posts endpoint.
type RemoteQuoteClient struct {
	BaseAdapter
	logger *slog.Logger
}

// NewRemoteQuoteClient creates the remote adapter. logger defaults to
// slog.Default when nil.
func NewRemoteQuoteClient(client *clients.Client, logger *slog.Logger) *RemoteQuoteClient {
	if logger == nil {
		logger = slog.Default()
	}

	return &RemoteQuoteClient{
		BaseAdapter: NewBaseAdapter(client, client.ServiceName()),
		logger:      logger.With(slog.String("component", "acl.RemoteQuoteClient")),
	}
}

// FetchQuotes returns every remote record as a quote in the Server
// category, in remote order. Records with a blank title are skipped.
func (c *RemoteQuoteClient) FetchQuotes(ctx context.Context) ([]domain.Quote, error) {
	body, err := c.Get(ctx, postsPath, "fetch quotes")
	if err != nil {
		return nil, err
	}

	posts, err := DecodeResponse[[]post](body, c.serviceName)
	if err != nil {
		return nil, err
	}

	quotes, rejected := TranslateSlice(posts, translatePost)

	for _, reason := range rejected {
		c.logger.Log(ctx, logging.LevelTrace, "skipping remote record", slog.Any("reason", reason))
	}

	logging.FromContext(ctx).DebugContext(ctx, "fetched remote quotes",
		slog.Int("records", len(posts)),
		slog.Int("quotes", len(quotes)),
	)

	return quotes, nil
}

// PushQuote POSTs a locally added quote. The response body is discarded.
func (c *RemoteQuoteClient) PushQuote(ctx context.Context, quote domain.Quote) error {
	body, err := c.PostJSON(ctx, postsPath, outboundPost{
		Title:    quote.Text,
		Body:     quote.Category,
		UserID:   pushUserID,
		Text:     quote.Text,
		Category: quote.Category,
	}, "push quote")
	if err != nil {
		return err
	}

	return body.Close()
}

// Name implements ports.HealthChecker.
func (c *RemoteQuoteClient) Name() string {
	return c.serviceName
}

// Check implements ports.HealthChecker.
func (c *RemoteQuoteClient) Check(ctx context.Context) error {
	body, err := c.Get(ctx, healthPath, "health check")
	if err != nil {
		return err
	}

	return body.Close()
}

func translatePost(p *post) (domain.Quote, error) {
	q, err := domain.NewQuote(p.Title, domain.CategoryServer)
	if err != nil {
		return domain.Quote{}, domain.NewFormatError("post "+strconv.Itoa(p.ID), "blank title", err)
	}

	return q, nil
}
