package worker

import (
	"context"
	"log/slog"
	"time"

	"plex-newsletter/internal/document"
)

// Refresher refetches recent items and updates the cache behind it.
// source.Cached implements it.
type Refresher interface {
	Name() string
	Refresh(ctx context.Context, kind document.Kind, count int) ([]document.MediaEntryInput, error)
}

// RecentCollector keeps the recently-added cache warm so editor imports
// do not wait on the media server.
type RecentCollector struct {
	Source   Refresher
	Kinds    []document.Kind
	Count    int
	Interval time.Duration
}

func (w *RecentCollector) Start(ctx context.Context) error {
	if w.Interval <= 0 {
		w.Interval = 30 * time.Minute
	}
	if w.Count <= 0 {
		w.Count = 10
	}
	if len(w.Kinds) == 0 {
		w.Kinds = document.MediaKinds
	}

	// initial run
	w.runOnce(ctx)

	t := time.NewTicker(w.Interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			w.runOnce(ctx)
		}
	}
}

func (w *RecentCollector) runOnce(ctx context.Context) {
	for _, kind := range w.Kinds {
		if ctx.Err() != nil {
			return
		}
		items, err := w.Source.Refresh(ctx, kind, w.Count)
		if err != nil {
			slog.Error("recent-collector: fetch error", "source", w.Source.Name(), "kind", kind, "error", err)
			continue
		}
		slog.Info("recent-collector: cached", "source", w.Source.Name(), "kind", kind, "items", len(items))
	}
}
