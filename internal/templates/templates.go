package templates

import (
	"embed"
	"fmt"
	"html/template"
	"net/url"
	"strings"
	"time"
)

//go:embed *.tmpl auth/*.tmpl student/*.tmpl teacher/*.tmpl
var files embed.FS

// Funcs are the helpers available to every page
var Funcs = template.FuncMap{
	"formatDate": func(t time.Time) string {
		return t.Format("Jan 2, 2006")
	},
	"formatDateTime": func(t time.Time) string {
		return t.Local().Format("Jan 2, 2006 3:04 PM")
	},
	"add": func(a, b int) int {
		return a + b
	},
	"pathEscape": url.PathEscape,
	"joinLines": func(lines []string) string {
		return strings.Join(lines, "\n")
	},
}

// Load parses every embedded page. Pages are looked up by file name,
// e.g. "dashboard.tmpl".
func Load() (*template.Template, error) {
	tmpl, err := template.New("").Funcs(Funcs).ParseFS(files,
		"*.tmpl",
		"auth/*.tmpl",
		"student/*.tmpl",
		"teacher/*.tmpl",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return tmpl, nil
}
