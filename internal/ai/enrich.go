package ai

import (
	"context"
	"log/slog"
	"strings"

	"plex-newsletter/internal/document"
)

// DescribeMissing fills empty descriptions of media entries through the
// document operations. Failures are logged and skipped; the number of
// entries filled is returned.
func DescribeMissing(ctx context.Context, w Writer, doc *document.Document, language string) int {
	filled := 0
	for _, s := range doc.Snapshot().Sections {
		if !s.Kind.IsMedia() {
			continue
		}
		for _, it := range s.Items {
			if strings.TrimSpace(it.Description) != "" {
				continue
			}
			desc, err := w.DescribeEntry(ctx, s.Kind, it.Title, it.Year, language)
			if err != nil || desc == "" {
				slog.Warn("ai: skip description", "title", it.Title, "err", err)
				continue
			}
			if err := doc.EditMediaEntry(s.ID, it.ID, document.EntryPatch{Description: &desc}); err != nil {
				return filled
			}
			filled++
		}
	}
	return filled
}

// IntroduceIfEmpty writes an introduction when the document has none.
func IntroduceIfEmpty(ctx context.Context, w Writer, doc *document.Document, language string) error {
	n := doc.Snapshot()
	if strings.TrimSpace(n.Introduction) != "" {
		return nil
	}
	intro, err := w.WriteIntroduction(ctx, n, language)
	if err != nil {
		return err
	}
	doc.SetIntroduction(intro)
	return nil
}
