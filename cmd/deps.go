package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"plex-newsletter/internal/ai"
	"plex-newsletter/internal/config"
	"plex-newsletter/internal/document"
	"plex-newsletter/internal/plex"
	"plex-newsletter/internal/poster"
	"plex-newsletter/internal/render"
	"plex-newsletter/internal/source"
	"plex-newsletter/internal/storage"
	"plex-newsletter/internal/tautulli"
)

func newRenderer(cfg config.Config) *render.Renderer {
	return render.New(render.Options{
		Locale:           cfg.Newsletter.Locale,
		PlaceholderImage: cfg.Newsletter.PlaceholderImage,
		FallbackTitle:    cfg.Newsletter.FallbackTitle,
		Footer:           cfg.Newsletter.Footer,
	})
}

// pickFlavor prefers the flag, then the config.
func pickFlavor(cfg config.Config, flag string) (render.Flavor, error) {
	if flag != "" {
		return render.ParseFlavor(flag)
	}
	return render.ParseFlavor(cfg.Newsletter.Flavor)
}

// settingsLoader is nil when redis is unavailable, never a nil *RedisStore.
func settingsLoader(store *storage.RedisStore) plex.SettingsLoader {
	if store == nil {
		return nil
	}
	return store
}

func newPlex(cfg config.Config, store *storage.RedisStore) *plex.Live {
	fallback := source.Settings{Enabled: true, ServerURL: cfg.Plex.BaseURL, Token: cfg.Plex.Token}
	return plex.NewLive(settingsLoader(store), fallback)
}

// sourceChain is the configured media source: a breaker and rate limiter
// around the client, the redis cache when store is set, and for Plex a
// switch that honours the saved enabled flag on every call.
type sourceChain struct {
	source.Source
	guarded *source.Guarded
}

func newSource(cfg config.Config, store *storage.RedisStore) (*sourceChain, error) {
	var (
		inner source.Source
		check func(ctx context.Context) error
	)
	switch cfg.Source.Kind {
	case "plex":
		live := newPlex(cfg, store)
		inner, check = live, live.Check
	case "tautulli":
		inner = tautulli.New(cfg.Tautulli.BaseURL, cfg.Tautulli.APIKey, 15*time.Second).
			WithRecentDays(cfg.Tautulli.RecentDays)
	case "demo":
		inner = source.Demo{}
	default:
		return nil, fmt.Errorf("unknown source kind %q (want plex, tautulli or demo)", cfg.Source.Kind)
	}
	g := source.NewGuarded(inner, 2, 4, source.DefaultBreakerConfig())
	chain := &sourceChain{Source: g, guarded: g}
	if store != nil {
		chain.Source = source.NewCached(g, store, cfg.CacheTTL())
	}
	if check != nil {
		chain.Source = source.NewSwitch(chain.Source, check)
	}
	return chain, nil
}

// Refresh refetches past the cache; the collector uses it.
func (c *sourceChain) Refresh(ctx context.Context, kind document.Kind, count int) ([]document.MediaEntryInput, error) {
	if r, ok := c.Source.(interface {
		Refresh(ctx context.Context, kind document.Kind, count int) ([]document.MediaEntryInput, error)
	}); ok {
		return r.Refresh(ctx, kind, count)
	}
	return c.Source.Recent(ctx, kind, count)
}

func newWriter(cfg config.Config) (ai.Writer, error) {
	return ai.NewOpenAI(ai.Config{APIKey: cfg.OpenAI.APIKey, Model: cfg.OpenAI.Model, BaseURL: cfg.OpenAI.BaseURL})
}

// newInliner authenticates poster downloads against the Plex server when
// the integration is enabled.
func newInliner(ctx context.Context, cfg config.Config, store *storage.RedisStore) *poster.Inliner {
	headers := map[string]http.Header{}
	st, err := newPlex(cfg, store).Settings(ctx)
	if err != nil {
		slog.Warn("poster: plex settings unavailable", "err", err)
	}
	if err == nil && st.Usable() {
		if u, err := url.Parse(st.ServerURL); err == nil && u.Host != "" {
			headers[u.Host] = http.Header{"X-Plex-Token": {st.Token}}
		}
	}
	return poster.NewInliner(poster.Config{Headers: headers})
}
