// Package source defines the boundary to external media servers that can
// pre-populate newsletter sections.
package source

import (
	"context"
	"errors"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"plex-newsletter/internal/document"
)

// ErrNotConfigured is returned when a source lacks a server URL or token.
var ErrNotConfigured = errors.New("external source not configured")

// Source returns recently added media for a section kind, newest first.
type Source interface {
	Name() string
	Recent(ctx context.Context, kind document.Kind, count int) ([]document.MediaEntryInput, error)
}

// Settings is the small record the editor persists for the media server
// integration. The document model never reads it.
type Settings struct {
	Enabled   bool   `json:"enabled"`
	ServerURL string `json:"serverUrl"`
	Token     string `json:"token"`
}

// Usable reports whether the settings are enabled and complete.
func (s Settings) Usable() bool {
	return s.Enabled && strings.TrimSpace(s.ServerURL) != "" && strings.TrimSpace(s.Token) != ""
}

// Redacted hides the token for display.
func (s Settings) Redacted() Settings {
	if s.Token != "" {
		s.Token = "********"
	}
	return s
}

var strict = bluemonday.StrictPolicy()

// PlainText strips any markup a media server left in a summary.
func PlainText(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}

func limit(in []document.MediaEntryInput, count int) []document.MediaEntryInput {
	if count > 0 && len(in) > count {
		return in[:count]
	}
	return in
}

// Effective merges saved settings over the config file values. A saved
// record wins, including a disabled one; its blank fields take the config
// values.
func Effective(saved Settings, found bool, fallback Settings) Settings {
	if !found {
		return fallback
	}
	if strings.TrimSpace(saved.ServerURL) == "" {
		saved.ServerURL = fallback.ServerURL
	}
	if strings.TrimSpace(saved.Token) == "" {
		saved.Token = fallback.Token
	}
	return saved
}
