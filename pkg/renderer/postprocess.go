package renderer

import (
	"regexp"
	"strings"

	"github.com/dmitrymomot/notifykit/pkg/template"
)

var (
	scriptTagPattern    = regexp.MustCompile(`(?is)<script\b[^>]*>.*?</script>`)
	iframeTagPattern    = regexp.MustCompile(`(?is)<iframe\b[^>]*>.*?</iframe>|<iframe\b[^>]*/?>`)
	eventHandlerPattern = regexp.MustCompile(`(?i)\s*on\w+\s*=\s*("[^"]*"|'[^']*'|[^\s>]+)`)
	jsProtocolPattern   = regexp.MustCompile(`(?i)javascript\s*:`)

	markdownBoldPattern   = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	markdownItalicPattern = regexp.MustCompile(`\*([^*]+)\*`)
	markdownCodePattern   = regexp.MustCompile("`([^`]+)`")
)

// postprocess applies the per-format output transform after grammar
// evaluation.
func postprocess(s string, format template.Format) string {
	switch format {
	case template.FormatHTML:
		return sanitizeHTML(s)
	case template.FormatMarkdown:
		return renderMarkdown(s)
	default:
		return strings.TrimSpace(s)
	}
}

// sanitizeHTML strips active content from rendered HTML. Templates are
// authored by trusted users but interpolate arbitrary variable values, so
// script and iframe tags, inline event handlers, and javascript: protocols
// are removed.
func sanitizeHTML(s string) string {
	s = scriptTagPattern.ReplaceAllString(s, "")
	s = iframeTagPattern.ReplaceAllString(s, "")
	s = eventHandlerPattern.ReplaceAllString(s, "")
	return jsProtocolPattern.ReplaceAllString(s, "")
}

// renderMarkdown converts the supported markdown subset to HTML: bold,
// italic, inline code, and line breaks. Bold is converted before italic so
// double asterisks are not consumed as two italic markers.
func renderMarkdown(s string) string {
	s = markdownBoldPattern.ReplaceAllString(s, "<strong>$1</strong>")
	s = markdownItalicPattern.ReplaceAllString(s, "<em>$1</em>")
	s = markdownCodePattern.ReplaceAllString(s, "<code>$1</code>")
	return strings.ReplaceAll(s, "\n", "<br>")
}
