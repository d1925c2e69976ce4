// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"fmt"

	"github.com/charmbracelet/glamour"
)

const defaultWrap = 80

// Terminal renders the Markdown report for display in a terminal. Width
// zero uses 80 columns.
func Terminal(markdown string, width int) (string, error) {
	if width <= 0 {
		width = defaultWrap
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("creating terminal renderer: %w", err)
	}
	out, err := r.Render(markdown)
	if err != nil {
		return "", fmt.Errorf("rendering report: %w", err)
	}
	return out, nil
}
