// Package templates holds the HTML pages of the blog, embedded into the binary.
package templates

import (
	"embed"
	"html/template"
	"strconv"
	"strings"
	"time"

	"github.com/cppla/blogicum/utils"
)

//go:embed *.html
var files embed.FS

// Load parses every page and partial.
func Load() (*template.Template, error) {
	return template.New("").Funcs(Funcs()).ParseFS(files, "*.html")
}

// Funcs are the helpers available to every template.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"markdown":   utils.RenderMarkdown,
		"excerpt":    utils.Excerpt,
		"linebreaks": linebreaks,
		"date":       formatDate,
		"idstr":      idstr,
		"postURL": func(id uint) string {
			return "/posts/" + idstr(id) + "/"
		},
		"profileURL": func(username string) string {
			return "/profile/" + template.URLQueryEscaper(username) + "/"
		},
	}
}

func idstr(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(time.Local).Format("2 January 2006, 15:04")
}

// linebreaks escapes plain text and keeps its line breaks.
func linebreaks(text string) template.HTML {
	escaped := template.HTMLEscapeString(strings.ReplaceAll(text, "\r\n", "\n"))
	return template.HTML(strings.ReplaceAll(escaped, "\n", "<br>"))
}
