package worker

import (
	"context"
	"log/slog"
	"time"
)

// Sweeper drops idle entries older than the given age. editor.Sessions
// implements it.
type Sweeper interface {
	Sweep(idle time.Duration) int
}

// SessionJanitor closes editor sessions nobody has touched for Idle.
type SessionJanitor struct {
	Sessions Sweeper
	Idle     time.Duration
	Interval time.Duration
}

func (w *SessionJanitor) Start(ctx context.Context) error {
	if w.Idle <= 0 {
		w.Idle = 24 * time.Hour
	}
	if w.Interval <= 0 {
		w.Interval = w.Idle / 4
		if w.Interval > 15*time.Minute {
			w.Interval = 15 * time.Minute
		}
	}

	t := time.NewTicker(w.Interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			if n := w.Sessions.Sweep(w.Idle); n > 0 {
				slog.Info("session-janitor: closed idle sessions", "count", n, "idle", w.Idle)
			}
		}
	}
}
