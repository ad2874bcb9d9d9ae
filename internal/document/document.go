package document

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultSectionTitle is used when a section is added without a title.
const DefaultSectionTitle = "Nouvelle section"

// Document owns one newsletter for an editing session. It has no internal
// locking: callers issue mutations from a single goroutine or serialize them.
type Document struct {
	data         Newsletter
	nextSection  int
	nextEntry    int
	sectionTitle string
}

// Option configures a Document.
type Option func(*Document)

// WithSectionTitle overrides the title given to untitled sections.
func WithSectionTitle(title string) Option {
	return func(d *Document) {
		if strings.TrimSpace(title) != "" {
			d.sectionTitle = title
		}
	}
}

// New returns an empty document.
func New(opts ...Option) *Document {
	d := &Document{
		data:         Newsletter{Sections: []Section{}},
		sectionTitle: DefaultSectionTitle,
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

func (d *Document) SetTitle(s string)        { d.data.Title = s }
func (d *Document) SetSubject(s string)      { d.data.Subject = s }
func (d *Document) SetIntroduction(s string) { d.data.Introduction = s }

// AddSection appends an empty section of the given kind and returns its id.
func (d *Document) AddSection(kind Kind, title string) (SectionID, error) {
	if kind != KindText && !kind.IsMedia() {
		return "", &PayloadError{Field: "kind", Reason: fmt.Sprintf("unknown kind %q", kind)}
	}
	if strings.TrimSpace(title) == "" {
		title = d.sectionTitle
	}
	id := SectionID("s" + strconv.Itoa(d.nextSection))
	d.nextSection++
	sec := Section{ID: id, Kind: kind, Title: title}
	if kind.IsMedia() {
		sec.Items = []MediaEntry{}
	}
	d.data.Sections = append(d.data.Sections, sec)
	return id, nil
}

// RenameSection replaces a section title. Blank titles are the caller's
// concern.
func (d *Document) RenameSection(id SectionID, title string) error {
	sec, err := d.section(id)
	if err != nil {
		return err
	}
	sec.Title = title
	return nil
}

// RemoveSection deletes a section, keeping the order of the rest.
func (d *Document) RemoveSection(id SectionID) error {
	i := d.sectionIndex(id)
	if i < 0 {
		return sectionNotFound(id)
	}
	d.data.Sections = append(d.data.Sections[:i], d.data.Sections[i+1:]...)
	return nil
}

// SetSectionText replaces the body of a text section.
func (d *Document) SetSectionText(id SectionID, content string) error {
	sec, err := d.section(id)
	if err != nil {
		return err
	}
	if sec.Kind != KindText {
		return fmt.Errorf("section %s is %s: %w", id, sec.Kind, ErrWrongKind)
	}
	sec.Content = content
	return nil
}

// AddMediaEntry appends an entry to a media section and returns its id.
func (d *Document) AddMediaEntry(id SectionID, in MediaEntryInput) (EntryID, error) {
	sec, err := d.section(id)
	if err != nil {
		return "", err
	}
	if !sec.Kind.IsMedia() {
		return "", fmt.Errorf("section %s is %s: %w", id, sec.Kind, ErrWrongKind)
	}
	if strings.TrimSpace(in.Title) == "" {
		return "", &PayloadError{Field: "title", Reason: "required"}
	}
	eid := EntryID("m" + strconv.Itoa(d.nextEntry))
	d.nextEntry++
	sec.Items = append(sec.Items, MediaEntry{
		ID:          eid,
		Title:       in.Title,
		Year:        in.Year,
		Image:       in.Image,
		Description: in.Description,
		Extra:       cloneExtra(in.Extra),
	})
	return eid, nil
}

// AddDropped validates a drag-and-drop payload and adds it as an entry.
// A rejected payload leaves the document untouched.
func (d *Document) AddDropped(id SectionID, raw []byte) (EntryID, error) {
	p, err := ParseDropPayload(raw)
	if err != nil {
		return "", err
	}
	return d.AddMediaEntry(id, p.Entry)
}

// EditMediaEntry applies patch to an entry in place.
func (d *Document) EditMediaEntry(id SectionID, eid EntryID, patch EntryPatch) error {
	e, err := d.entry(id, eid)
	if err != nil {
		return err
	}
	if patch.Title != nil {
		e.Title = *patch.Title
	}
	if patch.Year != nil {
		e.Year = *patch.Year
	}
	if patch.Image != nil {
		e.Image = *patch.Image
	}
	if patch.Description != nil {
		e.Description = *patch.Description
	}
	return nil
}

// RemoveMediaEntry deletes an entry, keeping the order of the rest.
func (d *Document) RemoveMediaEntry(id SectionID, eid EntryID) error {
	sec, err := d.section(id)
	if err != nil {
		return err
	}
	for i := range sec.Items {
		if sec.Items[i].ID == eid {
			sec.Items = append(sec.Items[:i], sec.Items[i+1:]...)
			return nil
		}
	}
	return entryNotFound(id, eid)
}

// ClearAllSections drops every section. Id counters keep counting.
func (d *Document) ClearAllSections() {
	d.data.Sections = []Section{}
}

// Snapshot returns a deep copy of the newsletter.
func (d *Document) Snapshot() Newsletter {
	out := d.data
	out.Sections = make([]Section, len(d.data.Sections))
	for i, s := range d.data.Sections {
		out.Sections[i] = s.clone()
	}
	return out
}

// Section returns a copy of one section.
func (d *Document) Section(id SectionID) (Section, error) {
	sec, err := d.section(id)
	if err != nil {
		return Section{}, err
	}
	return sec.clone(), nil
}

func (d *Document) sectionIndex(id SectionID) int {
	for i := range d.data.Sections {
		if d.data.Sections[i].ID == id {
			return i
		}
	}
	return -1
}

func (d *Document) section(id SectionID) (*Section, error) {
	i := d.sectionIndex(id)
	if i < 0 {
		return nil, sectionNotFound(id)
	}
	return &d.data.Sections[i], nil
}

func (d *Document) entry(id SectionID, eid EntryID) (*MediaEntry, error) {
	sec, err := d.section(id)
	if err != nil {
		return nil, err
	}
	for i := range sec.Items {
		if sec.Items[i].ID == eid {
			return &sec.Items[i], nil
		}
	}
	return nil, entryNotFound(id, eid)
}

func sectionNotFound(id SectionID) error {
	return fmt.Errorf("section %s: %w", id, ErrNotFound)
}

func entryNotFound(id SectionID, eid EntryID) error {
	return fmt.Errorf("entry %s in section %s: %w", eid, id, ErrNotFound)
}
