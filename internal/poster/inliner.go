// Package poster downloads media posters and inlines them as data URIs so
// an exported newsletter is self-contained and never leaks server tokens.
package poster

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/chai2010/webp"

	"plex-newsletter/internal/document"
)

// Config controls downloads and re-encoding.
type Config struct {
	Timeout time.Duration
	Quality int   // JPEG quality, 1..100
	MaxSize int64 // maximum download size in bytes
	// Headers are added to requests whose host matches the key, e.g. the
	// X-Plex-Token for the Plex server.
	Headers map[string]http.Header
}

type Inliner struct {
	quality int
	maxSize int64
	headers map[string]http.Header
	http    *http.Client
}

func NewInliner(cfg Config) *Inliner {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	quality := cfg.Quality
	if quality <= 0 || quality > 100 {
		quality = 82
	}
	maxSize := cfg.MaxSize
	if maxSize <= 0 {
		maxSize = 8 << 20
	}
	return &Inliner{
		quality: quality,
		maxSize: maxSize,
		headers: cfg.Headers,
		http:    &http.Client{Timeout: timeout},
	}
}

// Inline fetches raw and returns a data:image/jpeg;base64 URI.
func (in *Inliner) Inline(ctx context.Context, raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("parse image url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported image url scheme %q", u.Scheme)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	for k, vs := range in.headers[u.Host] {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	resp, err := in.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch image: status=%d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, in.maxSize+1))
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	if int64(len(body)) > in.maxSize {
		return "", errors.New("image too large")
	}
	img, err := decode(body, resp.Header.Get("Content-Type"))
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: in.quality}); err != nil {
		return "", fmt.Errorf("encode jpeg: %w", err)
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func decode(b []byte, contentType string) (image.Image, error) {
	if strings.Contains(contentType, "webp") || isWebP(b) {
		img, err := webp.Decode(bytes.NewReader(b))
		if err != nil {
			return nil, fmt.Errorf("decode webp: %w", err)
		}
		return img, nil
	}
	img, _, err := image.Decode(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

func isWebP(b []byte) bool {
	return len(b) >= 12 && string(b[0:4]) == "RIFF" && string(b[8:12]) == "WEBP"
}

// InlineAll rewrites every remote image of n in place. Failures keep the
// original URL; the number of inlined images is returned.
func (in *Inliner) InlineAll(ctx context.Context, n *document.Newsletter) int {
	done := 0
	for si := range n.Sections {
		for ii := range n.Sections[si].Items {
			it := &n.Sections[si].Items[ii]
			if !strings.HasPrefix(it.Image, "http://") && !strings.HasPrefix(it.Image, "https://") {
				continue
			}
			uri, err := in.Inline(ctx, it.Image)
			if err != nil {
				slog.Warn("poster: inline failed, keeping url", "title", it.Title, "err", err)
				continue
			}
			it.Image = uri
			done++
		}
	}
	slog.Info("poster: images inlined", "count", done)
	return done
}
