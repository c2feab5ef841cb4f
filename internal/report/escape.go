package report

import "strings"

// Escape makes text safe for a Markdown table cell: literal pipes are
// escaped so they can never break table structure, and surrounding
// whitespace is trimmed.
func Escape(text string) string {
	return strings.TrimSpace(strings.ReplaceAll(text, "|", `\|`))
}

// Link renders a URL as a Markdown link with the URL itself as the
// (escaped) link text. Empty input renders as an empty cell.
func Link(url string) string {
	u := strings.TrimSpace(url)
	if u == "" {
		return ""
	}
	return "[" + Escape(u) + "](" + u + ")"
}
