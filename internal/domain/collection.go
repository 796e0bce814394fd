package domain

import "strings"

// Categories returns CategoryAll followed by the distinct categories of
// quotes in first-seen order. Categories differing only in case collapse
// into the first spelling seen.
func Categories(quotes []Quote) []string {
	seen := make(map[string]struct{}, len(quotes))
	categories := make([]string, 0, len(quotes)+1)
	categories = append(categories, CategoryAll)

	for _, q := range quotes {
		key := strings.ToLower(q.Category)
		if _, ok := seen[key]; ok {
			continue
		}

		seen[key] = struct{}{}
		categories = append(categories, q.Category)
	}

	return categories
}

// FilterBy returns the quotes in category, preserving order.
// The result is never nil.
func FilterBy(quotes []Quote, category string) []Quote {
	filtered := make([]Quote, 0, len(quotes))

	for _, q := range quotes {
		if q.InCategory(category) {
			filtered = append(filtered, q)
		}
	}

	return filtered
}

// Classification is the outcome of comparing one remote quote against the
// local collection.
type Classification int

const (
	// ClassNew means no local quote shares the remote text.
	ClassNew Classification = iota

	// ClassDuplicate means a local quote has the same text and category.
	// Categories compare case-insensitively.
	ClassDuplicate

	// ClassConflict means a local quote has the same text but another
	// category. The local quote wins.
	ClassConflict
)

// String returns a human-readable name for the classification.
func (c Classification) String() string {
	switch c {
	case ClassNew:
		return "new"
	case ClassDuplicate:
		return "duplicate"
	case ClassConflict:
		return "conflict"
	default:
		return "unknown"
	}
}

// Conflict pairs a remote quote with the local quote it collided with.
type Conflict struct {
	Local  Quote `json:"local"`
	Remote Quote `json:"remote"`
}

// Reconciliation is the result of Reconcile.
type Reconciliation struct {
	// New holds remote quotes to append, in remote order.
	New []Quote

	// Duplicates counts remote quotes already present locally.
	Duplicates int

	// Conflicts holds remote quotes dropped in favor of a local quote.
	Conflicts []Conflict
}

// Reconcile classifies each remote quote against local by exact text match.
// It is a pure decision function; callers apply the result.
// A remote batch repeating the same text is only staged once.
func Reconcile(local, remote []Quote) Reconciliation {
	byText := make(map[string]Quote, len(local)+len(remote))
	for _, q := range local {
		if _, ok := byText[q.Text]; !ok {
			byText[q.Text] = q
		}
	}

	result := Reconciliation{New: make([]Quote, 0, len(remote))}

	for _, r := range remote {
		existing, ok := byText[r.Text]

		switch classify(existing, ok, r) {
		case ClassNew:
			result.New = append(result.New, r)
			byText[r.Text] = r
		case ClassDuplicate:
			result.Duplicates++
		case ClassConflict:
			result.Conflicts = append(result.Conflicts, Conflict{Local: existing, Remote: r})
		}
	}

	return result
}

func classify(existing Quote, found bool, remote Quote) Classification {
	switch {
	case !found:
		return ClassNew
	case strings.EqualFold(existing.Category, remote.Category):
		return ClassDuplicate
	default:
		return ClassConflict
	}
}
