package tui

import (
	"github.com/charmbracelet/glamour"
)

// NewRenderer returns a function that renders page markdown using glamour.
func NewRenderer() func(string) (string, error) {
	r, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // Automatically detect light/dark background
		glamour.WithWordWrap(80),
	)

	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}
