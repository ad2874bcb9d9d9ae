package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"plex-newsletter/internal/document"
	"plex-newsletter/internal/source"

	"github.com/redis/go-redis/v9"
)

type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

const settingsKey = "plexnl:source:settings"

func recentKey(src string, kind document.Kind) string {
	return fmt.Sprintf("plexnl:recent:%s:%s", src, kind)
}

func exportKey(title string) string {
	return fmt.Sprintf("plexnl:export:%s", title)
}

// SourceSettings returns the persisted media server settings; found is
// false when nothing was saved yet.
func (s *RedisStore) SourceSettings(ctx context.Context) (st source.Settings, found bool, err error) {
	b, err := s.rdb.Get(ctx, settingsKey).Bytes()
	if err == redis.Nil {
		return st, false, nil
	}
	if err != nil {
		return st, false, err
	}
	if err := json.Unmarshal(b, &st); err != nil {
		return st, false, fmt.Errorf("decode source settings: %w", err)
	}
	return st, true, nil
}

func (s *RedisStore) SaveSourceSettings(ctx context.Context, st source.Settings) error {
	b, err := json.Marshal(st)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, settingsKey, b, 0).Err()
}

// CacheRecent stores the latest fetch for a source and kind.
func (s *RedisStore) CacheRecent(ctx context.Context, src string, kind document.Kind, items []document.MediaEntryInput, ttl time.Duration) error {
	b, err := json.Marshal(items)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, recentKey(src, kind), b, ttl).Err()
}

// CachedRecent returns cached items; ok is false on a cache miss.
func (s *RedisStore) CachedRecent(ctx context.Context, src string, kind document.Kind) (items []document.MediaEntryInput, ok bool, err error) {
	b, err := s.rdb.Get(ctx, recentKey(src, kind)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if err := json.Unmarshal(b, &items); err != nil {
		return nil, false, fmt.Errorf("decode cached %s items: %w", kind, err)
	}
	return items, true, nil
}

// MarkExported records the time a newsletter was last exported, keyed by title.
func (s *RedisStore) MarkExported(ctx context.Context, title string, at time.Time) error {
	return s.rdb.Set(ctx, exportKey(title), at.UTC().Format(time.RFC3339), 90*24*time.Hour).Err()
}

// LastExport reports when a newsletter title was last exported.
func (s *RedisStore) LastExport(ctx context.Context, title string) (time.Time, bool, error) {
	res, err := s.rdb.Get(ctx, exportKey(title)).Result()
	if err == redis.Nil {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	at, err := time.Parse(time.RFC3339, res)
	if err != nil {
		return time.Time{}, false, err
	}
	return at, true, nil
}
