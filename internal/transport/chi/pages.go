package chi

import (
	"bytes"
	"embed"
	"fmt"
	"html"
	"html/template"
	"net/http"
	"strings"
)

//go:embed templates/*.html
var templateFS embed.FS

// Page template names.
const (
	pageIndex       = "index"
	pageKeyword     = "keyword"
	pageGrouped     = "grouped"
	pageHighlighted = "highlighted"
	pageDetail      = "detail"
	pageExclusion   = "exclusion"
	pageExclusions  = "exclusions"
	pageError       = "error"
)

var pageNames = []string{
	pageIndex, pageKeyword, pageGrouped, pageHighlighted,
	pageDetail, pageExclusion, pageExclusions, pageError,
}

// DefaultPermalinkBase links documents to their PubMed record.
const DefaultPermalinkBase = "https://www.ncbi.nlm.nih.gov/pubmed/"

// pageData is the context handed to every template.
type pageData struct {
	Title   string
	Term    string
	Version string
	Page    any

	// error page only
	Status     int
	StatusText string
	Message    string
	RequestID  string
}

// pages holds one parsed template set per page, each sharing the layout.
type pages struct {
	sets map[string]*template.Template
}

func loadPages(permalinkBase string) (*pages, error) {
	funcs := template.FuncMap{
		"inc":  func(n int) int { return n + 1 },
		"dec":  func(n int) int { return n - 1 },
		"mul":  func(a, b int) int { return a * b },
		"join": strings.Join,
		"permalink": func(id string) string {
			return permalinkBase + id
		},
		"snippet": snippetHTML,
	}

	p := &pages{sets: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		t, err := template.New(name).Funcs(funcs).ParseFS(templateFS,
			"templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", name, err)
		}
		p.sets[name] = t
	}
	return p, nil
}

// render executes the page into a buffer first so a template failure never
// leaves a half-written response.
func (p *pages) render(w http.ResponseWriter, status int, name string, data *pageData) error {
	t, ok := p.sets[name]
	if !ok {
		return fmt.Errorf("unknown page %q", name)
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
	return nil
}

var emphasis = strings.NewReplacer("&lt;em&gt;", "<em>", "&lt;/em&gt;", "</em>")

// snippetHTML escapes a highlight snippet, keeping only the <em> markers
// the backend wraps matches in.
func snippetHTML(s string) template.HTML {
	return template.HTML(emphasis.Replace(html.EscapeString(s))) //nolint:gosec // only <em> survives escaping
}
