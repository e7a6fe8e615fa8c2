package utils

import (
	"html"
	"html/template"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"gitlab.com/golang-commonmark/markdown"
)

var (
	sanitizer = bluemonday.UGCPolicy()
	// raw HTML is allowed through the parser; bluemonday strips anything unsafe afterwards
	markdownParser = markdown.New(markdown.HTML(true), markdown.Linkify(true), markdown.Typographer(true), markdown.MaxNesting(10))
)

// Sanitize cleans HTML content to prevent XSS attacks.
func Sanitize(input string) string {
	return sanitizer.Sanitize(input)
}

// StripTags removes all markup, for plain-text fields like titles.
func StripTags(input string) string {
	return strings.TrimSpace(bluemonday.StrictPolicy().Sanitize(input))
}

// RenderMarkdown renders post or comment text as sanitized HTML.
func RenderMarkdown(text string) template.HTML {
	return template.HTML(Sanitize(markdownParser.RenderToString([]byte(text))))
}

// Excerpt returns the first words of the rendered text as plain text, for listings.
func Excerpt(text string, words int) string {
	plain := html.UnescapeString(StripTags(string(RenderMarkdown(text))))
	fields := strings.Fields(plain)
	if words <= 0 || len(fields) <= words {
		return strings.Join(fields, " ")
	}
	return strings.Join(fields[:words], " ") + " …"
}
