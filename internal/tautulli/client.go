package tautulli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"plex-newsletter/internal/document"
	"plex-newsletter/internal/source"
)

// Client talks to the Tautulli API v2.
type Client struct {
	baseURL    string
	apiKey     string
	notifierID int
	recentDays int
	now        func() time.Time
	http       *http.Client
}

func New(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		now:     time.Now,
		http:    &http.Client{Timeout: timeout},
	}
}

// WithNotifier selects the Tautulli notification agent used by Notify.
func (c *Client) WithNotifier(id int) *Client {
	c2 := *c
	c2.notifierID = id
	return &c2
}

// WithRecentDays drops items added more than days ago. Zero keeps everything.
func (c *Client) WithRecentDays(days int) *Client {
	c2 := *c
	c2.recentDays = days
	return &c2
}

func (c *Client) Name() string { return "tautulli" }

type envelope struct {
	Response struct {
		Result  string          `json:"result"`
		Message *string         `json:"message"`
		Data    json.RawMessage `json:"data"`
	} `json:"response"`
}

// Item is the subset of get_recently_added fields used here.
type Item struct {
	MediaType        string `json:"media_type"`
	RatingKey        string `json:"rating_key"`
	Title            string `json:"title"`
	ParentTitle      string `json:"parent_title"`
	GrandparentTitle string `json:"grandparent_title"`
	Year             string `json:"year"`
	Summary          string `json:"summary"`
	Thumb            string `json:"thumb"`
	ParentThumb      string `json:"parent_thumb"`
	GrandparentThumb string `json:"grandparent_thumb"`
	AddedAt          string `json:"added_at"`
}

// mediaTypes maps section kinds to the media_type filter of get_recently_added.
var mediaTypes = map[document.Kind]string{
	document.KindMovies:  "movie",
	document.KindTVShows: "show",
	document.KindMusic:   "artist",
}

// RecentlyAdded calls cmd=get_recently_added.
func (c *Client) RecentlyAdded(ctx context.Context, mediaType string, count int) ([]Item, error) {
	if count <= 0 {
		count = 20
	}
	params := url.Values{"count": {strconv.Itoa(count)}}
	if mediaType != "" {
		params.Set("media_type", mediaType)
	}
	data, err := c.call(ctx, http.MethodGet, "get_recently_added", params)
	if err != nil {
		return nil, err
	}
	var out struct {
		RecentlyAdded []Item `json:"recently_added"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("tautulli: decode recently added: %w", err)
	}
	return out.RecentlyAdded, nil
}

// Recent implements source.Source.
func (c *Client) Recent(ctx context.Context, kind document.Kind, count int) ([]document.MediaEntryInput, error) {
	mt, ok := mediaTypes[kind]
	if !ok {
		return nil, nil
	}
	// episodes and tracks collapse onto shows and albums, so ask for more
	raw, err := c.RecentlyAdded(ctx, mt, count*3)
	if err != nil {
		return nil, err
	}
	seen := map[string]struct{}{}
	var items []document.MediaEntryInput
	for _, it := range raw {
		if c.tooOld(it.AddedAt) {
			continue
		}
		in := c.toEntry(it)
		if strings.TrimSpace(in.Title) == "" {
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

func (c *Client) toEntry(it Item) document.MediaEntryInput {
	title, thumb, summary := it.Title, it.Thumb, it.Summary
	switch it.MediaType {
	case "season":
		title, thumb = it.ParentTitle, firstNonEmpty(it.ParentThumb, it.Thumb)
	case "episode":
		title, thumb, summary = it.GrandparentTitle, firstNonEmpty(it.GrandparentThumb, it.Thumb), ""
	case "track":
		title, thumb = it.ParentTitle, firstNonEmpty(it.ParentThumb, it.Thumb)
	}
	extra := map[string]any{"type": it.MediaType, "source": "tautulli", "rating_key": it.RatingKey}
	if it.AddedAt != "" {
		extra["added_at"] = it.AddedAt
	}
	return document.MediaEntryInput{
		Title:       title,
		Year:        it.Year,
		Image:       c.imageURL(thumb),
		Description: source.PlainText(summary),
		Extra:       extra,
	}
}

func (c *Client) tooOld(addedAt string) bool {
	if c.recentDays <= 0 || addedAt == "" {
		return false
	}
	sec, err := strconv.ParseInt(addedAt, 10, 64)
	if err != nil {
		return false
	}
	return time.Unix(sec, 0).Before(c.now().AddDate(0, 0, -c.recentDays))
}

// imageURL goes through Tautulli's image proxy so the Plex token stays private.
func (c *Client) imageURL(thumb string) string {
	if thumb == "" {
		return ""
	}
	q := url.Values{"img": {thumb}, "width": {"300"}, "height": {"450"}, "fallback": {"poster"}}
	return c.baseURL + "/pms_image_proxy?" + q.Encode()
}

// Notify sends an HTML newsletter through a Tautulli notification agent.
func (c *Client) Notify(ctx context.Context, subject, body string) error {
	if c.notifierID <= 0 {
		return errors.New("tautulli: notifier id not configured")
	}
	params := url.Values{
		"notifier_id": {strconv.Itoa(c.notifierID)},
		"subject":     {subject},
		"body":        {body},
	}
	_, err := c.call(ctx, http.MethodPost, "notify", params)
	return err
}

func (c *Client) call(ctx context.Context, method, cmd string, params url.Values) (json.RawMessage, error) {
	if c.baseURL == "" || c.apiKey == "" {
		return nil, source.ErrNotConfigured
	}
	if params == nil {
		params = url.Values{}
	}
	params.Set("apikey", c.apiKey)
	params.Set("cmd", cmd)
	endpoint := c.baseURL + "/api/v2"

	var req *http.Request
	var err error
	if method == http.MethodPost {
		req, err = http.NewRequestWithContext(ctx, method, endpoint, strings.NewReader(params.Encode()))
		if err == nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	} else {
		req, err = http.NewRequestWithContext(ctx, method, endpoint+"?"+params.Encode(), nil)
	}
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("tautulli %s failed: status=%d body=%s", cmd, resp.StatusCode, string(b))
	}
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("tautulli %s: decode response: %w", cmd, err)
	}
	if env.Response.Result != "success" {
		msg := "unknown error"
		if env.Response.Message != nil && *env.Response.Message != "" {
			msg = *env.Response.Message
		}
		return nil, fmt.Errorf("tautulli %s: %s", cmd, msg)
	}
	return env.Response.Data, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
