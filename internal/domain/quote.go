// Package domain contains core business entities and rules.
package domain

import "strings"

const (
	// CategoryAll is the synthetic category that matches every quote.
	CategoryAll = "all"

	// CategoryServer marks quotes that arrived from the remote source.
	CategoryServer = "Server"
)

// Quote is a piece of text filed under a category.
// Two quotes are the same quote for merge purposes when their Text is
// exactly equal.
type Quote struct {
	Text     string `json:"text"`
	Category string `json:"category"`
}

// NewQuote trims both fields and returns a validated quote.
func NewQuote(text, category string) (Quote, error) {
	q := Quote{
		Text:     strings.TrimSpace(text),
		Category: strings.TrimSpace(category),
	}

	if err := q.Validate(); err != nil {
		return Quote{}, err
	}

	return q, nil
}

// Validate reports a ValidationError when either field is blank.
func (q Quote) Validate() error {
	if strings.TrimSpace(q.Text) == "" {
		return NewValidationError("text", "cannot be empty")
	}

	if strings.TrimSpace(q.Category) == "" {
		return NewValidationError("category", "cannot be empty")
	}

	return nil
}

// InCategory reports whether the quote belongs to category, ignoring case.
// Every quote belongs to CategoryAll.
func (q Quote) InCategory(category string) bool {
	if category == CategoryAll {
		return true
	}

	return strings.EqualFold(q.Category, category)
}

// SeedQuotes returns the built-in collection used when nothing is stored.
func SeedQuotes() []Quote {
	return []Quote{
		{Text: "Stay hungry, stay foolish.", Category: "Motivation"},
		{Text: "Simplicity is the ultimate sophistication.", Category: "Design"},
		{Text: "Code is like humor. When you have to explain it, it’s bad.", Category: "Programming"},
	}
}
