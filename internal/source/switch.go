package source

import (
	"context"

	"plex-newsletter/internal/document"
)

// Switch asks check before every call, so an integration disabled at
// runtime stops serving at once, cached items included.
type Switch struct {
	inner Source
	check func(ctx context.Context) error
}

func NewSwitch(inner Source, check func(ctx context.Context) error) *Switch {
	return &Switch{inner: inner, check: check}
}

func (s *Switch) Name() string { return s.inner.Name() }

func (s *Switch) Recent(ctx context.Context, kind document.Kind, count int) ([]document.MediaEntryInput, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	return s.inner.Recent(ctx, kind, count)
}

// Refresh bypasses a cache in the wrapped chain when there is one.
func (s *Switch) Refresh(ctx context.Context, kind document.Kind, count int) ([]document.MediaEntryInput, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	if r, ok := s.inner.(interface {
		Refresh(ctx context.Context, kind document.Kind, count int) ([]document.MediaEntryInput, error)
	}); ok {
		return r.Refresh(ctx, kind, count)
	}
	return s.inner.Recent(ctx, kind, count)
}
