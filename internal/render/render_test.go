package render

import (
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plex-newsletter/internal/document"
)

type fixedDates string

func (f fixedDates) LongDate(time.Time) string { return string(f) }

var fixedNow = time.Date(2024, time.January, 15, 9, 30, 0, 0, time.UTC)

func parse(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func digest(t *testing.T) *document.Document {
	t.Helper()
	d := document.New()
	d.SetTitle("Monthly Digest")
	sid, err := d.AddSection(document.KindMovies, "New Releases")
	require.NoError(t, err)
	require.Equal(t, document.SectionID("s0"), sid)
	eid, err := d.AddMediaEntry(sid, document.MediaEntryInput{Title: "Dune", Year: "2021"})
	require.NoError(t, err)
	require.Equal(t, document.EntryID("m0"), eid)
	return d
}

func TestRenderMonthlyDigest(t *testing.T) {
	out, err := Render(digest(t).Snapshot(), Styled, fixedNow)
	require.NoError(t, err)

	assert.Contains(t, out, "Monthly Digest")
	assert.Contains(t, out, "New Releases")
	assert.Contains(t, out, "Dune")
	assert.Contains(t, out, "(2021)")
	assert.Contains(t, out, "15 janvier 2024")
	assert.True(t, strings.HasPrefix(out, "<!DOCTYPE html>"))
	assert.Contains(t, out, "<style>")
}

func TestRenderIsDeterministic(t *testing.T) {
	snap := digest(t).Snapshot()
	for _, f := range []Flavor{Styled, Tabular} {
		a, err := Render(snap, f, fixedNow)
		require.NoError(t, err)
		b, err := Render(snap, f, fixedNow)
		require.NoError(t, err)
		assert.Equal(t, a, b, "flavor %s", f)
	}
}

func TestRenderEscapesUserText(t *testing.T) {
	d := document.New()
	d.SetTitle(`Digest & "friends"`)
	d.SetIntroduction("<b>bold</b>")
	text, _ := d.AddSection(document.KindText, "<i>Edito</i>")
	require.NoError(t, d.SetSectionText(text, "<img src=x onerror=alert(1)>"))
	sid, _ := d.AddSection(document.KindMovies, "Films")
	_, err := d.AddMediaEntry(sid, document.MediaEntryInput{
		Title:       "<script>x</script>",
		Description: "</div><script>alert(1)</script>",
		Image:       "javascript:alert(1)",
	})
	require.NoError(t, err)

	for _, f := range []Flavor{Styled, Tabular} {
		out, err := Render(d.Snapshot(), f, fixedNow)
		require.NoError(t, err)
		assert.NotContains(t, out, "<script>", f)
		assert.NotContains(t, out, "<img src=x", f)
		assert.NotContains(t, out, "<b>bold</b>", f)
		assert.NotContains(t, out, "javascript:", f)
		assert.Contains(t, out, "&lt;script&gt;x&lt;/script&gt;", f)

		doc := parse(t, out)
		assert.Equal(t, 0, doc.Find("script").Length(), f)
		assert.Equal(t, "<script>x</script>", doc.Find(".media-title").First().Text(), f)
		src, _ := doc.Find("img.media-image").Attr("src")
		assert.Equal(t, DefaultPlaceholderImage, src, f)
	}
}

func TestRenderEmptyTitleUsesFallback(t *testing.T) {
	out, err := Render(document.Newsletter{}, Styled, fixedNow)
	require.NoError(t, err)
	doc := parse(t, out)
	assert.Equal(t, DefaultFallbackTitle, doc.Find("title").Text())
	assert.Equal(t, DefaultFallbackTitle, doc.Find("h1").Text())
}

func TestRenderOmitsEmptyIntroduction(t *testing.T) {
	d := digest(t)
	out, _ := Render(d.Snapshot(), Styled, fixedNow)
	assert.Equal(t, 0, parse(t, out).Find(".newsletter-intro").Length())

	d.SetIntroduction("Bonjour à tous")
	out, _ = Render(d.Snapshot(), Tabular, fixedNow)
	assert.Equal(t, "Bonjour à tous", parse(t, out).Find(".newsletter-intro").Text())
}

func TestRenderKeepsEmptyMediaSection(t *testing.T) {
	d := document.New()
	d.SetTitle("x")
	d.AddSection(document.KindMusic, "Albums")
	d.AddSection(document.KindText, "Edito")

	for _, f := range []Flavor{Styled, Tabular} {
		out, err := Render(d.Snapshot(), f, fixedNow)
		require.NoError(t, err)
		doc := parse(t, out)
		sections := doc.Find(".newsletter-section")
		require.Equal(t, 2, sections.Length(), f)
		assert.Contains(t, sections.First().Find(".section-title").Text(), "Albums")
		assert.Equal(t, 0, sections.First().Find(".media-item, .media-row").Length())
	}
}

func TestRenderPlaceholderImage(t *testing.T) {
	d := digest(t)
	sid := document.SectionID("s0")
	_, err := d.AddMediaEntry(sid, document.MediaEntryInput{Title: "Tenet", Image: "https://image.tmdb.org/t/p/w500/x.jpg"})
	require.NoError(t, err)

	r := New(Options{PlaceholderImage: "https://cdn.example/none.png"})
	out, err := r.Render(d.Snapshot(), Styled, fixedNow)
	require.NoError(t, err)
	imgs := parse(t, out).Find("img.media-image")
	require.Equal(t, 2, imgs.Length())
	first, _ := imgs.Eq(0).Attr("src")
	second, _ := imgs.Eq(1).Attr("src")
	assert.Equal(t, "https://cdn.example/none.png", first)
	assert.Equal(t, "https://image.tmdb.org/t/p/w500/x.jpg", second)
}

func TestRenderKeepsInlinedImages(t *testing.T) {
	d := digest(t)
	uri := "data:image/jpeg;base64,/9j/4AAQSkZJRg=="
	_, err := d.AddMediaEntry("s0", document.MediaEntryInput{Title: "x", Image: uri})
	require.NoError(t, err)
	_, err = d.AddMediaEntry("s0", document.MediaEntryInput{Title: "y", Image: "data:text/html;base64,PHNjcmlwdD4="})
	require.NoError(t, err)

	out, _ := Render(d.Snapshot(), Tabular, fixedNow)
	imgs := parse(t, out).Find("img.media-image")
	src, _ := imgs.Eq(1).Attr("src")
	assert.Equal(t, uri, src)
	src, _ = imgs.Eq(2).Attr("src")
	assert.Equal(t, DefaultPlaceholderImage, src)
}

func TestTabularPairsItems(t *testing.T) {
	d := document.New()
	d.SetTitle("x")
	sid, _ := d.AddSection(document.KindMovies, "Films")
	for _, title := range []string{"Inception", "Interstellar", "Tenet"} {
		_, err := d.AddMediaEntry(sid, document.MediaEntryInput{Title: title})
		require.NoError(t, err)
	}
	out, err := Render(d.Snapshot(), Tabular, fixedNow)
	require.NoError(t, err)

	rows := parse(t, out).Find("tr.media-row")
	require.Equal(t, 2, rows.Length())
	first := rows.Eq(0).ChildrenFiltered("td")
	second := rows.Eq(1).ChildrenFiltered("td")
	assert.Equal(t, 2, first.Length())
	assert.Equal(t, 0, first.Filter(".media-cell-empty").Length())
	require.Equal(t, 2, second.Length())
	assert.Equal(t, "Tenet", second.Eq(0).Find(".media-title").Text())
	assert.True(t, second.Eq(1).HasClass("media-cell-empty"))
}

func TestTabularGlyphs(t *testing.T) {
	d := document.New()
	d.SetTitle("x")
	d.AddSection(document.KindMovies, "Films")
	d.AddSection(document.KindTVShows, "Séries")
	d.AddSection(document.KindMusic, "Albums")
	d.AddSection(document.KindText, "Edito")

	out, _ := Render(d.Snapshot(), Tabular, fixedNow)
	titles := parse(t, out).Find(".section-title")
	require.Equal(t, 4, titles.Length())
	assert.Equal(t, "🎬 Films", titles.Eq(0).Text())
	assert.Equal(t, "📺 Séries", titles.Eq(1).Text())
	assert.Equal(t, "🎵 Albums", titles.Eq(2).Text())
	assert.Equal(t, "📝 Edito", titles.Eq(3).Text())

	styled, _ := Render(d.Snapshot(), Styled, fixedNow)
	assert.Equal(t, "Films", parse(t, styled).Find(".section-title").First().Text())
}

func TestDescriptionTruncation(t *testing.T) {
	long := strings.Repeat("a", 200)
	d := digest(t)
	desc := long
	require.NoError(t, d.EditMediaEntry("s0", "m0", document.EntryPatch{Description: &desc}))

	tab, _ := Render(d.Snapshot(), Tabular, fixedNow)
	got := parse(t, tab).Find(".media-description").Text()
	assert.Equal(t, strings.Repeat("a", 150)+"...", got)
	assert.NotContains(t, tab, strings.Repeat("a", 151))

	styled, _ := Render(d.Snapshot(), Styled, fixedNow)
	assert.Equal(t, long, parse(t, styled).Find(".media-description").Text())
}

func TestTruncateCountsRunes(t *testing.T) {
	s := strings.Repeat("é", 151)
	assert.Equal(t, strings.Repeat("é", 150)+"...", truncate(s, 150))
	assert.Equal(t, "court", truncate("court", 150))
	assert.Equal(t, strings.Repeat("b", 150), truncate(strings.Repeat("b", 150), 150))
}

func TestYearOmittedWhenEmpty(t *testing.T) {
	d := document.New()
	d.SetTitle("x")
	sid, _ := d.AddSection(document.KindMusic, "Albums")
	d.AddMediaEntry(sid, document.MediaEntryInput{Title: "Thriller"})
	out, _ := Render(d.Snapshot(), Styled, fixedNow)
	assert.Equal(t, 0, parse(t, out).Find(".media-year").Length())
	assert.NotContains(t, out, "()")
}

func TestRenderSectionMatchesDocumentBlock(t *testing.T) {
	r := New(Options{Dates: fixedDates("today")})
	d := digest(t)
	snap := d.Snapshot()
	full, err := r.Render(snap, Tabular, fixedNow)
	require.NoError(t, err)
	frag, err := r.RenderSection(snap.Sections[0], Tabular)
	require.NoError(t, err)
	assert.Contains(t, full, frag)
	assert.Contains(t, full, "today")
}

func TestFooterAndLang(t *testing.T) {
	r := New(Options{Locale: "en_US", Footer: "Sent from my Plex server."})
	out, err := r.Render(digest(t).Snapshot(), Styled, fixedNow)
	require.NoError(t, err)
	doc := parse(t, out)
	lang, _ := doc.Find("html").Attr("lang")
	assert.Equal(t, "en", lang)
	assert.Equal(t, "Sent from my Plex server.", doc.Find(".newsletter-footer").Text())
	assert.Contains(t, out, "January")
}

func TestExportFileName(t *testing.T) {
	r := New(Options{Dates: fixedDates("15 janvier 2024")})
	assert.Equal(t, "newsletter-15 janvier 2024.html", r.ExportFileName(fixedNow))
}

func TestParseFlavor(t *testing.T) {
	f, err := ParseFlavor("email")
	require.NoError(t, err)
	assert.Equal(t, Tabular, f)
	f, err = ParseFlavor("")
	require.NoError(t, err)
	assert.Equal(t, Styled, f)
	_, err = ParseFlavor("pdf")
	assert.Error(t, err)
	_, err = Render(document.Newsletter{}, Flavor("pdf"), fixedNow)
	assert.Error(t, err)
}
