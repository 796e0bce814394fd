// Package render displays quotes in a terminal using lipgloss.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jsamuelsen/quotekeeper/internal/domain"
	"github.com/jsamuelsen/quotekeeper/internal/ports"
)

var _ ports.Renderer = (*Terminal)(nil)

const maxWidth = 72

// Theme holds the colors used for quotes.
type Theme struct {
	Border   string
	Text     string
	Category string
	Muted    string
}

// DefaultTheme is tuned for dark terminals; lipgloss degrades it on
// terminals without color.
var DefaultTheme = Theme{
	Border:   "#7D56F4",
	Text:     "#FAFAFA",
	Category: "#A49FA5",
	Muted:    "#626262",
}

// Terminal implements ports.Renderer. Color is dropped automatically when
// the writer is not a TTY.
type Terminal struct {
	w        io.Writer
	quote    lipgloss.Style
	category lipgloss.Style
	muted    lipgloss.Style
}

// NewTerminal creates a renderer writing to w.
func NewTerminal(w io.Writer, theme Theme) *Terminal {
	r := lipgloss.NewRenderer(w)

	return &Terminal{
		w: w,
		quote: r.NewStyle().
			Border(lipgloss.ThickBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color(theme.Border)).
			Foreground(lipgloss.Color(theme.Text)).
			PaddingLeft(1).
			Width(maxWidth),
		category: r.NewStyle().
			Italic(true).
			Foreground(lipgloss.Color(theme.Category)).
			PaddingLeft(2),
		muted: r.NewStyle().
			Foreground(lipgloss.Color(theme.Muted)),
	}
}

// Render writes each quote as a block quote followed by its category.
func (t *Terminal) Render(quotes ...domain.Quote) error {
	blocks := make([]string, 0, len(quotes))

	for _, q := range quotes {
		blocks = append(blocks, lipgloss.JoinVertical(lipgloss.Left,
			t.quote.Render(fmt.Sprintf("%q", q.Text)),
			t.category.Render("Category: "+q.Category),
		))
	}

	_, err := fmt.Fprintln(t.w, strings.Join(blocks, "\n\n"))

	return err
}

// RenderEmpty writes message in the muted style.
func (t *Terminal) RenderEmpty(message string) error {
	_, err := fmt.Fprintln(t.w, t.muted.Render(message))

	return err
}

// RenderList writes one line per entry, used for categories.
func (t *Terminal) RenderList(items []string) error {
	for _, item := range items {
		if _, err := fmt.Fprintln(t.w, "• "+item); err != nil {
			return err
		}
	}

	return nil
}
