package widgets

import (
	"strings"

	markdown "github.com/MichaelMure/go-term-markdown"
	gomarkdown "github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/parser"
)

// RenderMarkdown renders plugin documentation for the terminal. Autolinking is
// off so the terminal handles plain URLs itself.
func RenderMarkdown(src string, width int) string {
	if width < 20 {
		width = 20
	}
	ext := markdown.Extensions() &^ parser.Autolink
	p := parser.NewWithExtensions(ext)
	r := markdown.NewRenderer(width, 0)
	doc := p.Parse([]byte(src))
	return strings.TrimRight(string(gomarkdown.Render(doc, r)), "\n")
}
