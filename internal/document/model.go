// Package document holds the in-memory newsletter being authored and the
// operations allowed to change it.
package document

import (
	"fmt"
	"strings"
)

// Kind is the content category of a section. It is fixed at creation.
type Kind string

const (
	KindText    Kind = "text"
	KindMovies  Kind = "movies"
	KindTVShows Kind = "tvshows"
	KindMusic   Kind = "music"
)

// Kinds lists every section kind in display order.
var Kinds = []Kind{KindText, KindMovies, KindTVShows, KindMusic}

// MediaKinds lists the kinds whose sections carry media entries.
var MediaKinds = []Kind{KindMovies, KindTVShows, KindMusic}

// IsMedia reports whether sections of this kind hold media entries.
func (k Kind) IsMedia() bool {
	switch k {
	case KindMovies, KindTVShows, KindMusic:
		return true
	}
	return false
}

// ParseKind maps a user or payload supplied name to a Kind. Singular names
// used by media servers (movie, show, album...) are accepted.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text":
		return KindText, nil
	case "movies", "movie", "film", "films":
		return KindMovies, nil
	case "tvshows", "tvshow", "show", "shows", "tv", "series", "season", "episode":
		return KindTVShows, nil
	case "music", "album", "albums", "artist", "track":
		return KindMusic, nil
	}
	return "", fmt.Errorf("unknown section kind %q", s)
}

// SectionID identifies a section for the lifetime of a Document.
type SectionID string

// EntryID identifies a media entry for the lifetime of a Document.
type EntryID string

// Newsletter is the root aggregate. Values returned by Document.Snapshot are
// detached copies.
type Newsletter struct {
	Title        string    `json:"title" yaml:"title"`
	Subject      string    `json:"subject" yaml:"subject"`
	Introduction string    `json:"introduction" yaml:"introduction"`
	Sections     []Section `json:"sections" yaml:"sections"`
}

// Section is one titled block. Text sections use Content, media sections use
// Items; the other field is always empty.
type Section struct {
	ID      SectionID    `json:"id" yaml:"id"`
	Kind    Kind         `json:"kind" yaml:"kind"`
	Title   string       `json:"title" yaml:"title"`
	Content string       `json:"content,omitempty" yaml:"content,omitempty"`
	Items   []MediaEntry `json:"items,omitempty" yaml:"items,omitempty"`
}

// MediaEntry references one movie, show or album inside a media section.
type MediaEntry struct {
	ID          EntryID        `json:"id" yaml:"id"`
	Title       string         `json:"title" yaml:"title"`
	Year        string         `json:"year" yaml:"year"`
	Image       string         `json:"image" yaml:"image"`
	Description string         `json:"description" yaml:"description"`
	Extra       map[string]any `json:"extra,omitempty" yaml:"extra,omitempty"`
}

// MediaEntryInput is the validated shape accepted by AddMediaEntry, whether
// it was typed by hand, dropped from another window or fetched from a server.
type MediaEntryInput struct {
	Title       string         `json:"title" yaml:"title"`
	Year        string         `json:"year" yaml:"year"`
	Image       string         `json:"image" yaml:"image"`
	Description string         `json:"description" yaml:"description"`
	Extra       map[string]any `json:"extra,omitempty" yaml:"extra,omitempty"`
}

// EntryPatch replaces the non-nil fields of an entry.
type EntryPatch struct {
	Title       *string `json:"title,omitempty"`
	Year        *string `json:"year,omitempty"`
	Image       *string `json:"image,omitempty"`
	Description *string `json:"description,omitempty"`
}

// IsEmpty reports whether the newsletter has nothing worth exporting.
func (n Newsletter) IsEmpty() bool {
	return strings.TrimSpace(n.Introduction) == "" && len(n.Sections) == 0
}

// Section returns the section with id.
func (n Newsletter) Section(id SectionID) (Section, bool) {
	for _, s := range n.Sections {
		if s.ID == id {
			return s, true
		}
	}
	return Section{}, false
}

func (s Section) clone() Section {
	out := s
	if s.Items != nil {
		out.Items = make([]MediaEntry, len(s.Items))
		for i, it := range s.Items {
			out.Items[i] = it.clone()
		}
	}
	return out
}

func (e MediaEntry) clone() MediaEntry {
	out := e
	out.Extra = cloneExtra(e.Extra)
	return out
}

func cloneExtra(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneExtra(t)
	case []any:
		out := make([]any, len(t))
		for i, x := range t {
			out[i] = cloneValue(x)
		}
		return out
	default:
		return v
	}
}
