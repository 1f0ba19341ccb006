package web

import (
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// renderMarkdown converts assistant Markdown to HTML for the widget page.
// Parser instances are single-use, so one is built per call.
func renderMarkdown(text string) string {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.NoEmptyLineBeforeBlock)
	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.HrefTargetBlank | html.SkipHTML,
	})
	return string(markdown.ToHTML([]byte(text), p, renderer))
}
