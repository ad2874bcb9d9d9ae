package plex

import (
	"context"
	"fmt"
	"sync"

	"plex-newsletter/internal/document"
	"plex-newsletter/internal/source"
)

// SettingsLoader returns the saved integration settings. storage.RedisStore
// implements it.
type SettingsLoader interface {
	SourceSettings(ctx context.Context) (source.Settings, bool, error)
}

// Live resolves the server and token on every call, so settings saved from
// the editor apply without a restart.
type Live struct {
	loader   SettingsLoader // optional
	fallback source.Settings

	mu     sync.Mutex
	key    source.Settings
	client *Client
}

func NewLive(loader SettingsLoader, fallback source.Settings) *Live {
	return &Live{loader: loader, fallback: fallback}
}

func (l *Live) Name() string { return "plex" }

// Settings returns the effective settings: the saved record when there is
// one, otherwise the config file.
func (l *Live) Settings(ctx context.Context) (source.Settings, error) {
	if l.loader == nil {
		return l.fallback, nil
	}
	saved, found, err := l.loader.SourceSettings(ctx)
	if err != nil {
		return source.Settings{}, fmt.Errorf("plex: load settings: %w", err)
	}
	return source.Effective(saved, found, l.fallback), nil
}

// Check fails with source.ErrNotConfigured when the integration is
// disabled or incomplete.
func (l *Live) Check(ctx context.Context) error {
	_, err := l.usable(ctx)
	return err
}

func (l *Live) Recent(ctx context.Context, kind document.Kind, count int) ([]document.MediaEntryInput, error) {
	st, err := l.usable(ctx)
	if err != nil {
		return nil, err
	}
	return l.clientFor(st).Recent(ctx, kind, count)
}

func (l *Live) usable(ctx context.Context) (source.Settings, error) {
	st, err := l.Settings(ctx)
	if err != nil {
		return st, err
	}
	if !st.Usable() {
		return st, source.ErrNotConfigured
	}
	return st, nil
}

func (l *Live) clientFor(st source.Settings) *Client {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.client == nil || l.key != st {
		l.client = FromSettings(st)
		l.key = st
	}
	return l.client
}
