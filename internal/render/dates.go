package render

import (
	"strings"
	"time"

	"github.com/goodsign/monday"
)

// DateFormatter produces the long-form date shown in the header and used in
// export file names.
type DateFormatter interface {
	LongDate(t time.Time) string
}

// MondayDates formats dates with localized month names.
type MondayDates struct {
	Locale monday.Locale
}

// NewDates returns a formatter for a locale such as "fr_FR" or "en_US".
// Unknown locales fall back to fr_FR.
func NewDates(locale string) MondayDates {
	loc := monday.Locale(strings.TrimSpace(locale))
	if !supported(loc) {
		loc = monday.LocaleFrFR
	}
	return MondayDates{Locale: loc}
}

func (m MondayDates) LongDate(t time.Time) string {
	layout, ok := monday.LongFormatsByLocale[m.Locale]
	if !ok || layout == "" {
		layout = "2 January 2006"
	}
	return monday.Format(t, layout, m.Locale)
}

func supported(loc monday.Locale) bool {
	for _, l := range monday.ListLocales() {
		if l == loc {
			return true
		}
	}
	return false
}

// htmlLang turns "fr_FR" into "fr".
func htmlLang(locale string) string {
	l := strings.TrimSpace(locale)
	if i := strings.IndexAny(l, "_-"); i > 0 {
		l = l[:i]
	}
	if l == "" {
		return "fr"
	}
	return strings.ToLower(l)
}
