package plex

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"plex-newsletter/internal/document"
	"plex-newsletter/internal/source"
)

// Client reads recently added media straight from a Plex Media Server.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// FromSettings builds a client from the persisted integration settings.
func FromSettings(s source.Settings) *Client {
	return NewClient(s.ServerURL, s.Token)
}

func (c *Client) Name() string { return "plex" }

// Metadata is the subset of Plex metadata fields used here.
type Metadata struct {
	RatingKey        string      `json:"ratingKey"`
	Type             string      `json:"type"`
	Title            string      `json:"title"`
	ParentTitle      string      `json:"parentTitle"`
	GrandparentTitle string      `json:"grandparentTitle"`
	Year             json.Number `json:"year"`
	ParentYear       json.Number `json:"parentYear"`
	Summary          string      `json:"summary"`
	ParentSummary    string      `json:"parentSummary"`
	Thumb            string      `json:"thumb"`
	ParentThumb      string      `json:"parentThumb"`
	GrandparentThumb string      `json:"grandparentThumb"`
	AddedAt          int64       `json:"addedAt"`
}

type recentlyAddedResponse struct {
	MediaContainer struct {
		Metadata []Metadata `json:"Metadata"`
	} `json:"MediaContainer"`
}

// RecentlyAdded fetches raw metadata.
// API: GET /library/recentlyAdded?X-Plex-Token={token}
func (c *Client) RecentlyAdded(ctx context.Context) ([]Metadata, error) {
	if c.baseURL == "" || c.token == "" {
		return nil, source.ErrNotConfigured
	}
	q := url.Values{"X-Plex-Token": {c.token}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/library/recentlyAdded?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("plex: status %d", resp.StatusCode)
	}
	var out recentlyAddedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("plex: decode recently added: %w", err)
	}
	return out.MediaContainer.Metadata, nil
}

// Recent maps recently added metadata onto entries for one section kind.
// Episodes and seasons collapse onto their show; tracks onto their album.
func (c *Client) Recent(ctx context.Context, kind document.Kind, count int) ([]document.MediaEntryInput, error) {
	raw, err := c.RecentlyAdded(ctx)
	if err != nil {
		return nil, err
	}
	seen := map[string]struct{}{}
	var items []document.MediaEntryInput
	for _, m := range raw {
		in, ok := c.toEntry(kind, m)
		if !ok {
			continue
		}
		key := strings.ToLower(in.Title)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		items = append(items, in)
		if count > 0 && len(items) >= count {
			break
		}
	}
	return items, nil
}

func (c *Client) toEntry(kind document.Kind, m Metadata) (document.MediaEntryInput, bool) {
	mk, err := document.ParseKind(m.Type)
	if err != nil || mk != kind {
		return document.MediaEntryInput{}, false
	}
	title, year, summary, thumb := m.Title, m.Year.String(), m.Summary, m.Thumb
	switch m.Type {
	case "season":
		title, summary, thumb = m.ParentTitle, firstNonEmpty(m.ParentSummary, m.Summary), firstNonEmpty(m.ParentThumb, m.Thumb)
		year = firstNonEmpty(m.ParentYear.String(), year)
	case "episode":
		title, thumb = m.GrandparentTitle, firstNonEmpty(m.GrandparentThumb, m.Thumb)
		summary = ""
	case "track":
		title, thumb = m.ParentTitle, firstNonEmpty(m.ParentThumb, m.Thumb)
		year = firstNonEmpty(m.ParentYear.String(), year)
	}
	if strings.TrimSpace(title) == "" {
		return document.MediaEntryInput{}, false
	}
	extra := map[string]any{"type": m.Type, "source": "plex", "rating_key": m.RatingKey}
	if m.AddedAt > 0 {
		extra["added_at"] = strconv.FormatInt(m.AddedAt, 10)
	}
	if m.Type == "album" && m.ParentTitle != "" {
		extra["artist"] = m.ParentTitle
	}
	return document.MediaEntryInput{
		Title:       title,
		Year:        year,
		Image:       c.imageURL(thumb),
		Description: source.PlainText(summary),
		Extra:       extra,
	}, true
}

// imageURL points at the server thumbnail without the token; posters are
// inlined with the token at export time.
func (c *Client) imageURL(thumb string) string {
	if thumb == "" {
		return ""
	}
	if strings.HasPrefix(thumb, "http://") || strings.HasPrefix(thumb, "https://") {
		return thumb
	}
	return c.baseURL + thumb
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
