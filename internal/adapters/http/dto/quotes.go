package dto

import "github.com/jsamuelsen/quotekeeper/internal/domain"

// QuoteResponse is the wire form of a quote.
type QuoteResponse struct {
	Text     string `json:"text"`
	Category string `json:"category"`
}

// NewQuoteResponse converts a domain quote.
func NewQuoteResponse(q domain.Quote) QuoteResponse {
	return QuoteResponse{Text: q.Text, Category: q.Category}
}

// NewQuoteResponses converts a slice of domain quotes. Never returns nil.
func NewQuoteResponses(quotes []domain.Quote) []QuoteResponse {
	out := make([]QuoteResponse, len(quotes))
	for i, q := range quotes {
		out[i] = NewQuoteResponse(q)
	}

	return out
}

// AddQuoteRequest is the body of POST /quotes.
type AddQuoteRequest struct {
	Text     string `json:"text" validate:"required,notblank"`
	Category string `json:"category" validate:"required,notblank"`
}

// ListQuotesRequest holds the query of GET /quotes.
type ListQuotesRequest struct {
	PaginationRequest

	Category string `form:"category"`
}

// CategoriesResponse lists the category filter options.
type CategoriesResponse struct {
	Categories []string `json:"categories"`
}

// ImportResponse reports an import.
type ImportResponse struct {
	Imported int `json:"imported"`
	Total    int `json:"total"`
}

// NotificationResponse is the visible notification.
type NotificationResponse struct {
	Text  string `json:"text"`
	Token uint64 `json:"token"`
}
