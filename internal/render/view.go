package render

import (
	"html/template"
	"net/url"
	"strings"
	"unicode/utf8"

	"plex-newsletter/internal/document"
)

// TabularDescriptionLimit is the rune count after which descriptions are cut
// in the tabular flavor.
const TabularDescriptionLimit = 150

const ellipsis = "..."

var glyphs = map[document.Kind]string{
	document.KindText:    "📝",
	document.KindMovies:  "🎬",
	document.KindTVShows: "📺",
	document.KindMusic:   "🎵",
}

type pageView struct {
	Lang         string
	Title        string
	Date         string
	Introduction string
	Sections     []sectionView
	Footer       string
}

type sectionView struct {
	ID      string
	Kind    string
	Glyph   string
	Title   string
	IsText  bool
	Content string
	Items   []itemView
	Rows    []rowView
}

type rowView struct {
	Cells []itemView
	Pad   bool
}

type itemView struct {
	ID          string
	Title       string
	Year        string
	Image       template.URL
	Description string
}

func (r *Renderer) sectionView(s document.Section, flavor Flavor) sectionView {
	v := sectionView{
		ID:     string(s.ID),
		Kind:   string(s.Kind),
		Title:  s.Title,
		IsText: s.Kind == document.KindText,
	}
	if flavor == Tabular {
		v.Glyph = glyphs[s.Kind]
	}
	if v.IsText {
		v.Content = s.Content
		return v
	}
	v.Items = make([]itemView, 0, len(s.Items))
	for _, it := range s.Items {
		desc := it.Description
		if flavor == Tabular {
			desc = truncate(desc, TabularDescriptionLimit)
		}
		v.Items = append(v.Items, itemView{
			ID:          string(it.ID),
			Title:       it.Title,
			Year:        strings.TrimSpace(it.Year),
			Image:       imageURL(it.Image, r.placeholder),
			Description: desc,
		})
	}
	if flavor == Tabular {
		v.Rows = pairRows(v.Items)
	}
	return v
}

// pairRows lays items out two per row; an odd last row is padded.
func pairRows(items []itemView) []rowView {
	rows := make([]rowView, 0, (len(items)+1)/2)
	for i := 0; i < len(items); i += 2 {
		if i+1 < len(items) {
			rows = append(rows, rowView{Cells: items[i : i+2]})
			continue
		}
		rows = append(rows, rowView{Cells: items[i : i+1], Pad: true})
	}
	return rows
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit]) + ellipsis
}

// imageURL keeps http(s), relative and inlined base64 image URLs. Anything
// else, including an empty value, becomes the placeholder.
func imageURL(raw, placeholder string) template.URL {
	s := strings.TrimSpace(raw)
	if s == "" {
		return template.URL(placeholder)
	}
	lower := strings.ToLower(s)
	if strings.HasPrefix(lower, "data:") {
		head, _, ok := strings.Cut(lower, ",")
		if ok && strings.HasPrefix(head, "data:image/") && strings.HasSuffix(head, ";base64") {
			return template.URL(s)
		}
		return template.URL(placeholder)
	}
	u, err := url.Parse(s)
	if err != nil {
		return template.URL(placeholder)
	}
	switch strings.ToLower(u.Scheme) {
	case "", "http", "https":
		return template.URL(s)
	}
	return template.URL(placeholder)
}
