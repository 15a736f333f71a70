// Package content turns section text returned by the backend into display
// paragraphs, for both the HTML and the terminal renderings.
package content

import (
	"html"
	"regexp"
	"strings"
)

// EmptyPlaceholder is shown when a section produced no text.
const EmptyPlaceholder = "This section is empty."

var (
	boldRe      = regexp.MustCompile(`\*\*(.+?)\*\*`)
	italicRe    = regexp.MustCompile(`\*(.+?)\*`)
	paragraphRe = regexp.MustCompile(`\n\s*\n`)
)

// Paragraphs splits text on blank lines. Leading and trailing whitespace of
// each paragraph is trimmed and empty paragraphs are dropped.
func Paragraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var out []string
	for _, p := range paragraphRe.Split(text, -1) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// HTML renders text as escaped HTML paragraphs. Single newlines become <br>,
// **x** becomes <strong> and *x* becomes <em>.
func HTML(text string) string {
	paras := Paragraphs(text)
	if len(paras) == 0 {
		return "<p><em>" + EmptyPlaceholder + "</em></p>"
	}
	var b strings.Builder
	for _, p := range paras {
		b.WriteString("<p>")
		b.WriteString(inline(p))
		b.WriteString("</p>")
	}
	return b.String()
}

// Plain renders text for a terminal: markup markers are stripped and
// paragraphs are separated by one blank line.
func Plain(text string) string {
	paras := Paragraphs(text)
	if len(paras) == 0 {
		return EmptyPlaceholder
	}
	for i, p := range paras {
		p = boldRe.ReplaceAllString(p, "$1")
		paras[i] = italicRe.ReplaceAllString(p, "$1")
	}
	return strings.Join(paras, "\n\n")
}

func inline(p string) string {
	p = html.EscapeString(p)
	p = boldRe.ReplaceAllString(p, "<strong>$1</strong>")
	p = italicRe.ReplaceAllString(p, "<em>$1</em>")
	return strings.ReplaceAll(p, "\n", "<br>")
}
