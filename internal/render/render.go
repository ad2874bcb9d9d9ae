// Package render turns a newsletter snapshot into a standalone HTML document,
// either CSS styled or table based for mail clients that drop <style> blocks.
package render

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"plex-newsletter/internal/document"
)

// Flavor selects the HTML layout.
type Flavor string

const (
	Styled  Flavor = "styled"
	Tabular Flavor = "tabular"
)

// ParseFlavor accepts "styled" or "tabular" (also "email" and "table").
func ParseFlavor(s string) (Flavor, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "styled", "css", "modern":
		return Styled, nil
	case "tabular", "table", "email":
		return Tabular, nil
	}
	return "", fmt.Errorf("unknown flavor %q", s)
}

const (
	DefaultPlaceholderImage = "assets/img/placeholder.jpg"
	DefaultFallbackTitle    = "Newsletter Plex"
	DefaultLocale           = "fr_FR"
)

//go:embed styled.html.tmpl
var styledTpl string

//go:embed tabular.html.tmpl
var tabularTpl string

var compiled = template.Must(template.Must(template.New("newsletter").Parse(styledTpl)).Parse(tabularTpl))

// Options configures a Renderer. Zero values select the defaults.
type Options struct {
	Locale           string
	PlaceholderImage string
	FallbackTitle    string
	Footer           string
	Dates            DateFormatter
}

// Renderer is stateless once built and safe for concurrent use.
type Renderer struct {
	dates         DateFormatter
	lang          string
	placeholder   string
	fallbackTitle string
	footer        string
}

func New(opts Options) *Renderer {
	locale := strings.TrimSpace(opts.Locale)
	if locale == "" {
		locale = DefaultLocale
	}
	r := &Renderer{
		dates:         opts.Dates,
		lang:          htmlLang(locale),
		placeholder:   strings.TrimSpace(opts.PlaceholderImage),
		fallbackTitle: strings.TrimSpace(opts.FallbackTitle),
		footer:        strings.TrimSpace(opts.Footer),
	}
	if r.dates == nil {
		r.dates = NewDates(locale)
	}
	if r.placeholder == "" {
		r.placeholder = DefaultPlaceholderImage
	}
	if r.fallbackTitle == "" {
		r.fallbackTitle = DefaultFallbackTitle
	}
	return r
}

var defaultRenderer = New(Options{})

// Render renders n with the default options.
func Render(n document.Newsletter, flavor Flavor, now time.Time) (string, error) {
	return defaultRenderer.Render(n, flavor, now)
}

// Render produces the full HTML document. The only input besides n is now,
// so equal inputs give byte-identical output. An empty title is replaced by
// the fallback title; gating exports on a title is the caller's job.
func (r *Renderer) Render(n document.Newsletter, flavor Flavor, now time.Time) (string, error) {
	name, err := templateName(flavor)
	if err != nil {
		return "", err
	}
	title := n.Title
	if strings.TrimSpace(title) == "" {
		title = r.fallbackTitle
	}
	page := pageView{
		Lang:         r.lang,
		Title:        title,
		Date:         r.dates.LongDate(now),
		Introduction: n.Introduction,
		Sections:     make([]sectionView, 0, len(n.Sections)),
		Footer:       r.footer,
	}
	if strings.TrimSpace(page.Introduction) == "" {
		page.Introduction = ""
	}
	for _, s := range n.Sections {
		page.Sections = append(page.Sections, r.sectionView(s, flavor))
	}
	var buf bytes.Buffer
	if err := compiled.ExecuteTemplate(&buf, name, page); err != nil {
		return "", fmt.Errorf("render %s: %w", flavor, err)
	}
	return buf.String(), nil
}

// RenderSection renders the block for a single section, as it appears in the
// full document. Live previews use it to refresh one section at a time.
func (r *Renderer) RenderSection(s document.Section, flavor Flavor) (string, error) {
	name, err := templateName(flavor)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := compiled.ExecuteTemplate(&buf, name+"-section", r.sectionView(s, flavor)); err != nil {
		return "", fmt.Errorf("render %s section %s: %w", flavor, s.ID, err)
	}
	return buf.String(), nil
}

// LongDate formats now the way the document header does.
func (r *Renderer) LongDate(now time.Time) string {
	return r.dates.LongDate(now)
}

// ExportFileName is the download name for a document rendered at now.
func (r *Renderer) ExportFileName(now time.Time) string {
	return fmt.Sprintf("newsletter-%s.html", r.dates.LongDate(now))
}

func templateName(flavor Flavor) (string, error) {
	switch flavor {
	case Styled:
		return "styled", nil
	case Tabular:
		return "tabular", nil
	}
	return "", fmt.Errorf("unknown flavor %q", flavor)
}
