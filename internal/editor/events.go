package editor

import (
	"log/slog"

	"plex-newsletter/internal/document"
	"plex-newsletter/internal/metrics"
)

const (
	EventWelcome        = "welcome"
	EventSection        = "section"
	EventSectionRemoved = "section_removed"
	EventCleared        = "cleared"
	EventMeta           = "meta"
)

// Event is one live preview message. Section events carry the re-rendered
// block for that section in the session flavor.
type Event struct {
	Type      string `json:"type"`
	SectionID string `json:"section_id,omitempty"`
	HTML      string `json:"html,omitempty"`
	Title     string `json:"title,omitempty"`
	Subject   string `json:"subject,omitempty"`
	Intro     string `json:"introduction,omitempty"`
	Clients   int    `json:"clients,omitempty"`
}

func metaEvent(n document.Newsletter) Event {
	return Event{Type: EventMeta, Title: n.Title, Subject: n.Subject, Intro: n.Introduction}
}

func (h *Handler) sectionEvent(sess *Session, sec document.Section) Event {
	ev := Event{Type: EventSection, SectionID: string(sec.ID)}
	html, err := h.Renderer.RenderSection(sec, sess.Flavor)
	if err != nil {
		slog.Error("editor: render fragment", "section", sec.ID, "err", err)
		return ev
	}
	metrics.RecordFragment(string(sess.Flavor))
	ev.HTML = html
	return ev
}
