package source

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plex-newsletter/internal/document"
)

type flaky struct {
	calls int
	err   error
}

func (f *flaky) Name() string { return "flaky" }

func (f *flaky) Recent(ctx context.Context, kind document.Kind, count int) ([]document.MediaEntryInput, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []document.MediaEntryInput{{Title: "ok"}}, nil
}

func TestDemoRecent(t *testing.T) {
	items, err := Demo{}.Recent(context.Background(), document.KindMovies, 1)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Inception", items[0].Title)
	assert.Equal(t, "movie", items[0].Extra["type"])

	all, err := Demo{}.Recent(context.Background(), document.KindMusic, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	none, err := Demo{}.Recent(context.Background(), document.KindText, 5)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestGuardedPassesThrough(t *testing.T) {
	f := &flaky{}
	g := NewGuarded(f, 100, 10, DefaultBreakerConfig())
	items, err := g.Recent(context.Background(), document.KindMovies, 3)
	require.NoError(t, err)
	assert.Equal(t, []document.MediaEntryInput{{Title: "ok"}}, items)
	assert.Equal(t, "flaky", g.Name())
}

func TestGuardedTripsBreaker(t *testing.T) {
	f := &flaky{err: errors.New("connection refused")}
	cfg := BreakerConfig{MaxRequests: 1, Interval: time.Minute, Timeout: time.Minute, FailureThreshold: 0.5, MinRequests: 2}
	g := NewGuarded(f, 1000, 10, cfg)

	for i := 0; i < 2; i++ {
		_, err := g.Recent(context.Background(), document.KindMovies, 1)
		require.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateOpen.String(), g.State())

	_, err := g.Recent(context.Background(), document.KindMovies, 1)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 2, f.calls)
}

func TestGuardedIgnoresMissingConfig(t *testing.T) {
	f := &flaky{err: ErrNotConfigured}
	cfg := BreakerConfig{MaxRequests: 1, Interval: time.Minute, Timeout: time.Minute, FailureThreshold: 0.5, MinRequests: 1}
	g := NewGuarded(f, 1000, 10, cfg)
	for i := 0; i < 3; i++ {
		_, err := g.Recent(context.Background(), document.KindMovies, 1)
		assert.ErrorIs(t, err, ErrNotConfigured)
	}
	assert.Equal(t, gobreaker.StateClosed.String(), g.State())
}

func TestGuardedHonoursCancellation(t *testing.T) {
	g := NewGuarded(&flaky{}, 0.001, 1, DefaultBreakerConfig())
	_, err := g.Recent(context.Background(), document.KindMovies, 1)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = g.Recent(ctx, document.KindMovies, 1)
	assert.Error(t, err)
}

func TestPlainText(t *testing.T) {
	assert.Equal(t, "Dom Cobb est un voleur", PlainText("<p>Dom <b>Cobb</b> est un voleur</p>"))
	assert.Equal(t, "l'homme & la Terre", PlainText("l'homme &amp; la Terre"))
	assert.Equal(t, "", PlainText("   "))
}

func TestSettings(t *testing.T) {
	s := Settings{Enabled: true, ServerURL: "http://plex:32400", Token: "secret"}
	assert.True(t, s.Usable())
	assert.Equal(t, "********", s.Redacted().Token)
	assert.Equal(t, "secret", s.Token)
	s.Enabled = false
	assert.False(t, s.Usable())
}

func TestEffectiveSettings(t *testing.T) {
	cfg := Settings{Enabled: true, ServerURL: "http://cfg:32400", Token: "cfg-token"}

	assert.Equal(t, cfg, Effective(Settings{}, false, cfg))

	off := Effective(Settings{Enabled: false, ServerURL: "http://pms", Token: "t"}, true, cfg)
	assert.False(t, off.Usable(), "a saved disabled record overrides the config file")

	merged := Effective(Settings{Enabled: true, ServerURL: "http://saved"}, true, cfg)
	assert.Equal(t, "http://saved", merged.ServerURL)
	assert.Equal(t, "cfg-token", merged.Token)
	assert.True(t, merged.Usable())
}

func TestSwitchBlocksCachedItems(t *testing.T) {
	enabled := true
	check := func(context.Context) error {
		if !enabled {
			return ErrNotConfigured
		}
		return nil
	}
	cache := &memCache{items: map[document.Kind][]document.MediaEntryInput{}}
	sw := NewSwitch(NewCached(Demo{}, cache, time.Minute), check)

	items, err := sw.Recent(context.Background(), document.KindMovies, 1)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	enabled = false
	_, err = sw.Recent(context.Background(), document.KindMovies, 1)
	assert.ErrorIs(t, err, ErrNotConfigured)
	_, err = sw.Refresh(context.Background(), document.KindMovies, 1)
	assert.ErrorIs(t, err, ErrNotConfigured)
}
