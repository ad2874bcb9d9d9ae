package poster

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/chai2010/webp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plex-newsletter/internal/document"
)

func sample() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 4, 6))
	for x := 0; x < 4; x++ {
		for y := 0; y < 6; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 40, B: 40, A: 255})
		}
	}
	return img
}

func decodeURI(t *testing.T, uri string) image.Image {
	t.Helper()
	require.True(t, strings.HasPrefix(uri, "data:image/jpeg;base64,"))
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, "data:image/jpeg;base64,"))
	require.NoError(t, err)
	img, err := jpeg.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	return img
}

func TestInlinePNGAndWebP(t *testing.T) {
	var pngBuf, webpBuf bytes.Buffer
	require.NoError(t, png.Encode(&pngBuf, sample()))
	require.NoError(t, webp.Encode(&webpBuf, sample(), &webp.Options{Lossless: true}))

	var token string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token = r.Header.Get("X-Plex-Token")
		switch r.URL.Path {
		case "/p.png":
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write(pngBuf.Bytes())
		case "/p.webp":
			w.Header().Set("Content-Type", "image/webp")
			_, _ = w.Write(webpBuf.Bytes())
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	host := strings.TrimPrefix(srv.URL, "http://")
	in := NewInliner(Config{Headers: map[string]http.Header{host: {"X-Plex-Token": {"secret"}}}})

	uri, err := in.Inline(context.Background(), srv.URL+"/p.png")
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 4, 6), decodeURI(t, uri).Bounds())
	assert.Equal(t, "secret", token)
	assert.NotContains(t, uri, "secret")

	uri, err = in.Inline(context.Background(), srv.URL+"/p.webp")
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 4, 6), decodeURI(t, uri).Bounds())
}

func TestInlineErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/text" {
			_, _ = w.Write([]byte("not an image"))
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	in := NewInliner(Config{})
	_, err := in.Inline(context.Background(), srv.URL+"/missing")
	assert.ErrorContains(t, err, "status=404")
	_, err = in.Inline(context.Background(), srv.URL+"/text")
	assert.ErrorContains(t, err, "decode image")
	_, err = in.Inline(context.Background(), "javascript:alert(1)")
	assert.Error(t, err)
}

func TestInlineAllIsBestEffort(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, sample(), nil))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ok.jpg" {
			_, _ = w.Write(buf.Bytes())
			return
		}
		http.Error(w, "gone", http.StatusGone)
	}))
	defer srv.Close()

	n := document.Newsletter{Sections: []document.Section{{
		Kind: document.KindMovies,
		Items: []document.MediaEntry{
			{Title: "A", Image: srv.URL + "/ok.jpg"},
			{Title: "B", Image: srv.URL + "/gone.jpg"},
			{Title: "C", Image: "assets/img/c.jpg"},
		},
	}}}
	got := NewInliner(Config{}).InlineAll(context.Background(), &n)

	assert.Equal(t, 1, got)
	items := n.Sections[0].Items
	assert.True(t, strings.HasPrefix(items[0].Image, "data:image/jpeg;base64,"))
	assert.Equal(t, srv.URL+"/gone.jpg", items[1].Image)
	assert.Equal(t, "assets/img/c.jpg", items[2].Image)
}
