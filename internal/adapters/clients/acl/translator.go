package acl

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/jsamuelsen/quotekeeper/internal/adapters/clients"
	"github.com/jsamuelsen/quotekeeper/internal/domain"
)

// maxResponseBody bounds successful response bodies read from the remote.
const maxResponseBody = 8 << 20

// BaseAdapter wraps the instrumented client and maps every failure to a
// domain error. Embed it in remote adapters.
type BaseAdapter struct {
	client      *clients.Client
	serviceName string
}

// NewBaseAdapter creates a base adapter.
func NewBaseAdapter(client *clients.Client, serviceName string) BaseAdapter {
	return BaseAdapter{client: client, serviceName: serviceName}
}

// ServiceName returns the name of the remote service.
func (a *BaseAdapter) ServiceName() string {
	return a.serviceName
}

// Get performs a GET and returns the body of a 2xx response; the caller
// must close it.
func (a *BaseAdapter) Get(ctx context.Context, path, operation string) (io.ReadCloser, error) {
	resp, err := a.client.Get(ctx, path)

	return a.result(resp, err, operation)
}

// PostJSON POSTs body as JSON and returns the body of a 2xx response; the
// caller must close it.
func (a *BaseAdapter) PostJSON(ctx context.Context, path string, body any, operation string) (io.ReadCloser, error) {
	resp, err := a.client.PostJSON(ctx, path, body)

	return a.result(resp, err, operation)
}

func (a *BaseAdapter) result(resp *http.Response, err error, operation string) (io.ReadCloser, error) {
	if err != nil {
		return nil, MapHTTPError(nil, err, a.serviceName, operation)
	}

	if resp.StatusCode >= http.StatusMultipleChoices {
		defer func() { _ = resp.Body.Close() }()

		return nil, MapHTTPError(resp, nil, a.serviceName, operation)
	}

	return resp.Body, nil
}

// DecodeResponse decodes a JSON body into T and closes it. A body that
// does not match T yields a domain FormatError.
func DecodeResponse[T any](body io.ReadCloser, source string) (T, error) {
	var result T

	if body == nil {
		return result, domain.NewFormatError(source, "empty response", nil)
	}
	defer func() { _ = body.Close() }()

	if err := json.NewDecoder(io.LimitReader(body, maxResponseBody)).Decode(&result); err != nil {
		return result, domain.NewFormatError(source, "unexpected payload", err)
	}

	return result, nil
}

// Translator converts one external record into a domain value.
type Translator[External, Domain any] func(ext *External) (Domain, error)

// TranslateSlice translates items leniently: records the translator
// rejects are left out and their errors returned alongside the result.
func TranslateSlice[E, D any](items []E, translate Translator[E, D]) ([]D, []error) {
	result := make([]D, 0, len(items))

	var rejected []error

	for i := range items {
		translated, err := translate(&items[i])
		if err != nil {
			rejected = append(rejected, err)
			continue
		}

		result = append(result, translated)
	}

	return result, rejected
}
