package tui

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

const minWrapWidth = 24

// markdownRenderer turns the statistics markdown into styled terminal text.
// The glamour renderer is cached and rebuilt only when the wrap width moves.
type markdownRenderer struct {
	wrapWidth int
	renderer  *glamour.TermRenderer
}

// render returns the styled text for markdown at the given width. Rendering
// failures fall back to the raw markdown so the view never goes blank.
func (r *markdownRenderer) render(markdown string, width int) string {
	markdown = strings.TrimSpace(markdown)
	if markdown == "" {
		return ""
	}

	wrapWidth := width
	if wrapWidth < minWrapWidth {
		wrapWidth = minWrapWidth
	}

	if r.renderer == nil || r.wrapWidth != wrapWidth {
		renderer, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle("dark"),
			glamour.WithWordWrap(wrapWidth),
		)
		if err != nil {
			return markdown
		}
		r.renderer = renderer
		r.wrapWidth = wrapWidth
	}

	rendered, err := r.renderer.Render(markdown)
	if err != nil {
		return markdown
	}
	return strings.TrimRight(rendered, "\n")
}
