package config

import (
	"strings"
	"time"
)

// AppConfig holds application-level settings.
type AppConfig struct {
	LogLevel string `mapstructure:"log_level"`
}

// RedisConfig holds redis connection settings.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// NewsletterConfig controls rendering and export.
type NewsletterConfig struct {
	OutputDir           string `mapstructure:"output_dir"`
	Locale              string `mapstructure:"locale"` // e.g. fr_FR
	Flavor              string `mapstructure:"flavor"` // styled | tabular
	PlaceholderImage    string `mapstructure:"placeholder_image"`
	FallbackTitle       string `mapstructure:"fallback_title"`
	DefaultSectionTitle string `mapstructure:"default_section_title"`
	Footer              string `mapstructure:"footer"`
	Language            string `mapstructure:"language"` // language for AI-written text
}

// PlexConfig points at a Plex Media Server.
type PlexConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Token   string `mapstructure:"token"`
}

// TautulliConfig points at a Tautulli instance.
type TautulliConfig struct {
	BaseURL       string `mapstructure:"base_url"`
	APIKey        string `mapstructure:"api_key"`
	NotifierID    int    `mapstructure:"notifier_id"`
	FetchInterval string `mapstructure:"fetch_interval"` // duration string, e.g., "30m"
	RecentDays    int    `mapstructure:"recent_days"`
}

// SourceConfig selects where "import recent" pulls from.
type SourceConfig struct {
	Kind     string `mapstructure:"kind"` // plex | tautulli | demo
	Count    int    `mapstructure:"count"`
	CacheTTL string `mapstructure:"cache_ttl"`
}

// OpenAIConfig holds settings for OpenAI-compatible APIs.
type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

// ServerConfig controls the editor HTTP server.
type ServerConfig struct {
	Addr       string `mapstructure:"addr"`
	SessionTTL string `mapstructure:"session_ttl"` // idle editor sessions are dropped after this
}

// Config is the top-level configuration structure.
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Newsletter NewsletterConfig `mapstructure:"newsletter"`
	Plex       PlexConfig       `mapstructure:"plex"`
	Tautulli   TautulliConfig   `mapstructure:"tautulli"`
	Source     SourceConfig     `mapstructure:"source"`
	OpenAI     OpenAIConfig     `mapstructure:"openai"`
	Server     ServerConfig     `mapstructure:"server"`
}

// FillDefaults applies default values if not provided.
func (c *Config) FillDefaults() {
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = "127.0.0.1:6379"
	}
	n := &c.Newsletter
	if n.OutputDir == "" {
		n.OutputDir = "./out"
	}
	if n.Locale == "" {
		n.Locale = "fr_FR"
	}
	if n.Flavor == "" {
		n.Flavor = "styled"
	}
	if n.PlaceholderImage == "" {
		n.PlaceholderImage = "assets/img/placeholder.jpg"
	}
	if n.FallbackTitle == "" {
		n.FallbackTitle = "Newsletter Plex"
	}
	if n.DefaultSectionTitle == "" {
		n.DefaultSectionTitle = "Nouvelle section"
	}
	if n.Language == "" {
		n.Language = "French"
	}
	if c.Tautulli.FetchInterval == "" {
		c.Tautulli.FetchInterval = "30m"
	}
	if c.Tautulli.RecentDays == 0 {
		c.Tautulli.RecentDays = 30
	}
	if c.Source.Kind == "" {
		c.Source.Kind = "demo"
	}
	c.Source.Kind = strings.ToLower(strings.TrimSpace(c.Source.Kind))
	if c.Source.Count == 0 {
		c.Source.Count = 10
	}
	if c.Source.CacheTTL == "" {
		c.Source.CacheTTL = "1h"
	}
	if c.OpenAI.Model == "" {
		c.OpenAI.Model = "gpt-4o-mini"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.SessionTTL == "" {
		c.Server.SessionTTL = "24h"
	}
}

// FetchInterval parses tautulli.fetch_interval, falling back to 30 minutes.
func (c *Config) FetchInterval() time.Duration {
	return durationOr(c.Tautulli.FetchInterval, 30*time.Minute)
}

// CacheTTL parses source.cache_ttl, falling back to one hour.
func (c *Config) CacheTTL() time.Duration {
	return durationOr(c.Source.CacheTTL, time.Hour)
}

// SessionTTL parses server.session_ttl, falling back to a day.
func (c *Config) SessionTTL() time.Duration {
	return durationOr(c.Server.SessionTTL, 24*time.Hour)
}

func durationOr(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil || d <= 0 {
		return def
	}
	return d
}
