// Package draft reads newsletter drafts written as Markdown with YAML
// frontmatter. The frontmatter carries title, subject and sections; the
// body is the introduction.
package draft

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"plex-newsletter/internal/document"
)

// Draft is the parsed form of a draft file.
type Draft struct {
	Title        string         `yaml:"title"`
	Subject      string         `yaml:"subject"`
	Sections     []SectionDraft `yaml:"sections"`
	Introduction string         `yaml:"-"`
}

type SectionDraft struct {
	Kind    string      `yaml:"kind"`
	Title   string      `yaml:"title"`
	Content string      `yaml:"content"`
	Items   []ItemDraft `yaml:"items"`
	// Import pulls this many recent items from the configured source.
	Import int `yaml:"import"`
}

type ItemDraft struct {
	Title       string         `yaml:"title"`
	Year        any            `yaml:"year"`
	Image       string         `yaml:"image"`
	Description string         `yaml:"description"`
	Extra       map[string]any `yaml:"extra"`
}

func (it ItemDraft) input() document.MediaEntryInput {
	var year string
	if it.Year != nil {
		year = strings.TrimSpace(fmt.Sprint(it.Year))
	}
	return document.MediaEntryInput{
		Title:       it.Title,
		Year:        year,
		Image:       it.Image,
		Description: it.Description,
		Extra:       it.Extra,
	}
}

// ParseFile reads a draft from disk.
func ParseFile(path string) (Draft, error) {
	f, err := os.Open(path)
	if err != nil {
		return Draft{}, err
	}
	defer f.Close()
	return Parse(f)
}

// Parse splits r into frontmatter and body. Frontmatter is expected at the
// top between two lines containing only "---"; without it the whole input
// is the introduction.
func Parse(r io.Reader) (Draft, error) {
	br := bufio.NewReader(r)
	peek, err := br.Peek(3)
	if err != nil && !errors.Is(err, io.EOF) {
		return Draft{}, err
	}
	hasFM := string(peek) == "---"

	var fmBuf, bodyBuf strings.Builder
	if hasFM {
		if _, err := br.ReadString('\n'); err != nil && !errors.Is(err, io.EOF) {
			return Draft{}, err
		}
		closed := false
		for {
			l, err := br.ReadString('\n')
			if err != nil && !errors.Is(err, io.EOF) {
				return Draft{}, err
			}
			if strings.TrimSpace(l) == "---" {
				closed = true
				break
			}
			fmBuf.WriteString(l)
			if errors.Is(err, io.EOF) {
				break
			}
		}
		if !closed {
			return Draft{}, errors.New("draft: unterminated frontmatter")
		}
	}
	if _, err := io.Copy(&bodyBuf, br); err != nil {
		return Draft{}, err
	}

	var d Draft
	if hasFM {
		if err := yaml.Unmarshal([]byte(fmBuf.String()), &d); err != nil {
			return Draft{}, fmt.Errorf("draft: frontmatter: %w", err)
		}
	}
	d.Introduction = strings.TrimSpace(bodyBuf.String())
	return d, nil
}

// Importer fetches recent items for sections that ask for them.
type Importer func(kind document.Kind, count int) ([]document.MediaEntryInput, error)

// Apply replays the draft into doc through the document operations, so the
// same validation applies as in the editor. imp may be nil.
func (d Draft) Apply(doc *document.Document, imp Importer) error {
	doc.SetTitle(d.Title)
	doc.SetSubject(d.Subject)
	doc.SetIntroduction(d.Introduction)
	for i, sd := range d.Sections {
		kind, err := document.ParseKind(sd.Kind)
		if err != nil {
			return fmt.Errorf("draft: section %d: %w", i+1, err)
		}
		sid, err := doc.AddSection(kind, sd.Title)
		if err != nil {
			return fmt.Errorf("draft: section %d: %w", i+1, err)
		}
		if !kind.IsMedia() {
			if err := doc.SetSectionText(sid, sd.Content); err != nil {
				return err
			}
			continue
		}
		for j, it := range sd.Items {
			if _, err := doc.AddMediaEntry(sid, it.input()); err != nil {
				return fmt.Errorf("draft: section %d item %d: %w", i+1, j+1, err)
			}
		}
		if sd.Import > 0 && imp != nil {
			items, err := imp(kind, sd.Import)
			if err != nil {
				return fmt.Errorf("draft: section %d import: %w", i+1, err)
			}
			for _, in := range items {
				if _, err := doc.AddMediaEntry(sid, in); err != nil {
					// Media servers occasionally list untitled entries.
					if errors.Is(err, document.ErrInvalidPayload) {
						slog.Warn("draft: skip imported item", "section", i+1, "kind", kind, "err", err)
						continue
					}
					return fmt.Errorf("draft: section %d import: %w", i+1, err)
				}
			}
		}
	}
	return nil
}

// Load parses path and applies it to doc.
func Load(path string, doc *document.Document, imp Importer) error {
	d, err := ParseFile(path)
	if err != nil {
		return err
	}
	return d.Apply(doc, imp)
}
