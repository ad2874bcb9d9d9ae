package tautulli

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plex-newsletter/internal/document"
	"plex-newsletter/internal/source"
)

func TestRecentShows(t *testing.T) {
	var got url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v2", r.URL.Path)
		got = r.URL.Query()
		_, _ = w.Write([]byte(`{"response":{"result":"success","message":null,"data":{"recently_added":[
			{"media_type":"episode","grandparent_title":"The Bear","year":"2024","grandparent_thumb":"/library/metadata/5/thumb/9","rating_key":"51"},
			{"media_type":"episode","grandparent_title":"The Bear","year":"2024","rating_key":"52"},
			{"media_type":"show","title":"Shōgun","year":"2024","summary":"<b>Feudal</b> Japan.","thumb":"/library/metadata/6/thumb/1","rating_key":"6","added_at":"1705300000"}
		]}}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "key", time.Second)
	items, err := c.Recent(context.Background(), document.KindTVShows, 5)
	require.NoError(t, err)

	assert.Equal(t, "key", got.Get("apikey"))
	assert.Equal(t, "get_recently_added", got.Get("cmd"))
	assert.Equal(t, "show", got.Get("media_type"))
	assert.Equal(t, "15", got.Get("count"))

	require.Len(t, items, 2)
	assert.Equal(t, "The Bear", items[0].Title)
	assert.Contains(t, items[0].Image, srv.URL+"/pms_image_proxy?")
	assert.NotContains(t, items[0].Image, "key")
	assert.Equal(t, "Shōgun", items[1].Title)
	assert.Equal(t, "Feudal Japan.", items[1].Description)
	assert.Equal(t, "1705300000", items[1].Extra["added_at"])
}

func TestRecentDaysFilter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"response":{"result":"success","data":{"recently_added":[
			{"media_type":"movie","title":"Old","added_at":"1600000000"},
			{"media_type":"movie","title":"Fresh","added_at":"1705300000"},
			{"media_type":"movie","title":"Undated"}
		]}}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "key", time.Second).WithRecentDays(30)
	c.now = func() time.Time { return time.Unix(1705400000, 0) }
	items, err := c.Recent(context.Background(), document.KindMovies, 10)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Fresh", items[0].Title)
	assert.Equal(t, "Undated", items[1].Title)
}

func TestRecentReportsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"response":{"result":"error","message":"Invalid apikey","data":{}}}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL, "bad", time.Second).Recent(context.Background(), document.KindMovies, 5)
	assert.ErrorContains(t, err, "Invalid apikey")
}

func TestRecentHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New(srv.URL, "key", time.Second).Recent(context.Background(), document.KindMovies, 5)
	assert.ErrorContains(t, err, "status=502")
}

func TestRecentTextKindIsEmpty(t *testing.T) {
	items, err := New("http://unused", "key", time.Second).Recent(context.Background(), document.KindText, 5)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestNotConfigured(t *testing.T) {
	_, err := New("", "", 0).RecentlyAdded(context.Background(), "movie", 5)
	assert.True(t, errors.Is(err, source.ErrNotConfigured))
}

func TestNotify(t *testing.T) {
	var form url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, r.ParseForm())
		form = r.PostForm
		_, _ = w.Write([]byte(`{"response":{"result":"success","message":"Notification sent.","data":{}}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "key", time.Second)
	assert.Error(t, c.Notify(context.Background(), "s", "b"))

	require.NoError(t, c.WithNotifier(3).Notify(context.Background(), "Monthly Digest", "<html></html>"))
	assert.Equal(t, "notify", form.Get("cmd"))
	assert.Equal(t, "3", form.Get("notifier_id"))
	assert.Equal(t, "Monthly Digest", form.Get("subject"))
	assert.Equal(t, "<html></html>", form.Get("body"))
}
