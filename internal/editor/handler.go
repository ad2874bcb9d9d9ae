// Package editor exposes the document operations over HTTP for an
// interactive editor, with a websocket live preview per session.
package editor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"plex-newsletter/internal/document"
	"plex-newsletter/internal/metrics"
	"plex-newsletter/internal/render"
	"plex-newsletter/internal/source"
)

// SettingsStore persists the media server settings. storage.RedisStore
// implements it.
type SettingsStore interface {
	SourceSettings(ctx context.Context) (source.Settings, bool, error)
	SaveSourceSettings(ctx context.Context, st source.Settings) error
}

type Handler struct {
	Sessions    *Sessions
	Renderer    *render.Renderer
	Flavor      render.Flavor
	Source      source.Source // optional
	ImportCount int
	Settings    SettingsStore // optional
	Now         func() time.Time
}

const maxDropBytes = 64 << 10

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/sessions", h.createSession)
	rg.GET("/settings/source", h.getSettings)
	rg.PUT("/settings/source", h.putSettings)

	s := rg.Group("/sessions/:id", h.loadSession)
	s.GET("", h.snapshot)
	s.DELETE("", h.closeSession)
	s.PUT("/meta", h.setMeta)
	s.POST("/sections", h.addSection)
	s.DELETE("/sections", h.clearSections)
	s.PATCH("/sections/:sid", h.renameSection)
	s.DELETE("/sections/:sid", h.removeSection)
	s.PUT("/sections/:sid/text", h.setText)
	s.POST("/sections/:sid/items", h.addItem)
	s.POST("/sections/:sid/drop", h.drop)
	s.POST("/sections/:sid/import", h.importRecent)
	s.PATCH("/sections/:sid/items/:mid", h.editItem)
	s.DELETE("/sections/:sid/items/:mid", h.removeItem)
	s.GET("/preview", h.preview)
	s.GET("/export", h.export)
	s.GET("/ws", h.ws)
}

func (h *Handler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

func session(c *gin.Context) *Session {
	return c.MustGet("session").(*Session)
}

func (h *Handler) loadSession(c *gin.Context) {
	sess, ok := h.Sessions.Get(c.Param("id"))
	if !ok {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	c.Set("session", sess)
	c.Next()
}

// statusFor maps document errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, document.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, document.ErrWrongKind):
		return http.StatusConflict
	case errors.Is(err, document.ErrInvalidPayload):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, document.ErrNotFound):
		return "not_found"
	case errors.Is(err, document.ErrWrongKind):
		return "wrong_kind"
	case errors.Is(err, document.ErrInvalidPayload):
		return "invalid_payload"
	}
	return "error"
}

func abortWith(c *gin.Context, err error) {
	status := statusFor(err)
	body := gin.H{"error": err.Error()}
	var pe *document.PayloadError
	if errors.As(err, &pe) && pe.Field != "" {
		body["field"] = pe.Field
	}
	if status == http.StatusInternalServerError {
		slog.Error("editor: request failed", "path", c.FullPath(), "err", err)
	}
	c.JSON(status, body)
}

// change runs fn under the session lock, records the outcome, pushes the
// events fn produced to live preview clients and writes the response.
// Events go out before the lock is released, so clients see fragments in
// mutation order.
func (h *Handler) change(c *gin.Context, op string, status int, fn func(doc *document.Document) (any, []Event, error)) {
	sess := session(c)
	var body any
	err := sess.Do(func(doc *document.Document) error {
		var (
			events []Event
			err    error
		)
		body, events, err = fn(doc)
		if err != nil {
			return err
		}
		for _, ev := range events {
			sess.hub.BroadcastJSON(ev)
		}
		return nil
	})
	metrics.RecordMutation(op, resultLabel(err))
	if err != nil {
		abortWith(c, err)
		return
	}
	if body == nil {
		c.Status(status)
		return
	}
	c.JSON(status, body)
}

// reject answers a request refused before reaching the document.
func reject(c *gin.Context, op string, err error) {
	metrics.RecordMutation(op, resultLabel(err))
	abortWith(c, err)
}

func bindJSON(c *gin.Context, v any) error {
	if err := c.ShouldBindJSON(v); err != nil {
		return &document.PayloadError{Reason: "invalid json: " + err.Error()}
	}
	return nil
}

func sectionID(c *gin.Context) document.SectionID { return document.SectionID(c.Param("sid")) }
func entryID(c *gin.Context) document.EntryID     { return document.EntryID(c.Param("mid")) }

type createReq struct {
	Flavor string `json:"flavor"`
}

func (h *Handler) createSession(c *gin.Context) {
	var req createReq
	if c.Request.ContentLength > 0 {
		if err := bindJSON(c, &req); err != nil {
			abortWith(c, err)
			return
		}
	}
	flavor := h.Flavor
	if req.Flavor != "" {
		f, err := render.ParseFlavor(req.Flavor)
		if err != nil {
			abortWith(c, &document.PayloadError{Field: "flavor", Reason: err.Error()})
			return
		}
		flavor = f
	}
	sess := h.Sessions.Create(flavor)
	slog.Info("editor: session created", "id", sess.ID, "flavor", flavor)
	c.JSON(http.StatusCreated, gin.H{"id": sess.ID, "flavor": flavor})
}

func (h *Handler) closeSession(c *gin.Context) {
	sess := session(c)
	h.Sessions.Close(sess.ID)
	slog.Info("editor: session closed", "id", sess.ID)
	c.Status(http.StatusNoContent)
}

func (h *Handler) snapshot(c *gin.Context) {
	var n document.Newsletter
	_ = session(c).Do(func(doc *document.Document) error {
		n = doc.Snapshot()
		return nil
	})
	c.JSON(http.StatusOK, n)
}

type metaReq struct {
	Title        *string `json:"title"`
	Subject      *string `json:"subject"`
	Introduction *string `json:"introduction"`
}

func (h *Handler) setMeta(c *gin.Context) {
	var req metaReq
	if err := bindJSON(c, &req); err != nil {
		reject(c, "set_meta", err)
		return
	}
	h.change(c, "set_meta", http.StatusOK, func(doc *document.Document) (any, []Event, error) {
		if req.Title != nil {
			doc.SetTitle(*req.Title)
		}
		if req.Subject != nil {
			doc.SetSubject(*req.Subject)
		}
		if req.Introduction != nil {
			doc.SetIntroduction(*req.Introduction)
		}
		n := doc.Snapshot()
		return n, []Event{metaEvent(n)}, nil
	})
}

type sectionReq struct {
	Kind  string `json:"kind"`
	Title string `json:"title"`
}

func (h *Handler) addSection(c *gin.Context) {
	var req sectionReq
	err := bindJSON(c, &req)
	var kind document.Kind
	if err == nil {
		kind, err = document.ParseKind(req.Kind)
		if err != nil {
			err = &document.PayloadError{Field: "kind", Reason: err.Error()}
		}
	}
	if err != nil {
		reject(c, "add_section", err)
		return
	}
	h.change(c, "add_section", http.StatusCreated, func(doc *document.Document) (any, []Event, error) {
		id, err := doc.AddSection(kind, req.Title)
		if err != nil {
			return nil, nil, err
		}
		sec, _ := doc.Section(id)
		return sec, []Event{h.sectionEvent(session(c), sec)}, nil
	})
}

func (h *Handler) renameSection(c *gin.Context) {
	var req sectionReq
	if err := bindJSON(c, &req); err != nil {
		reject(c, "rename_section", err)
		return
	}
	h.change(c, "rename_section", http.StatusOK, func(doc *document.Document) (any, []Event, error) {
		if err := doc.RenameSection(sectionID(c), req.Title); err != nil {
			return nil, nil, err
		}
		return h.sectionResult(c, doc)
	})
}

func (h *Handler) removeSection(c *gin.Context) {
	h.change(c, "remove_section", http.StatusNoContent, func(doc *document.Document) (any, []Event, error) {
		if err := doc.RemoveSection(sectionID(c)); err != nil {
			return nil, nil, err
		}
		return nil, []Event{{Type: EventSectionRemoved, SectionID: string(sectionID(c))}}, nil
	})
}

func (h *Handler) clearSections(c *gin.Context) {
	h.change(c, "clear_sections", http.StatusNoContent, func(doc *document.Document) (any, []Event, error) {
		doc.ClearAllSections()
		return nil, []Event{{Type: EventCleared}}, nil
	})
}

type textReq struct {
	Content string `json:"content"`
}

func (h *Handler) setText(c *gin.Context) {
	var req textReq
	if err := bindJSON(c, &req); err != nil {
		reject(c, "set_section_text", err)
		return
	}
	h.change(c, "set_section_text", http.StatusOK, func(doc *document.Document) (any, []Event, error) {
		if err := doc.SetSectionText(sectionID(c), req.Content); err != nil {
			return nil, nil, err
		}
		return h.sectionResult(c, doc)
	})
}

func (h *Handler) addItem(c *gin.Context) {
	var in document.MediaEntryInput
	if err := bindJSON(c, &in); err != nil {
		reject(c, "add_media_entry", err)
		return
	}
	h.change(c, "add_media_entry", http.StatusCreated, func(doc *document.Document) (any, []Event, error) {
		eid, err := doc.AddMediaEntry(sectionID(c), in)
		if err != nil {
			return nil, nil, err
		}
		body, events, err := h.sectionResult(c, doc)
		return gin.H{"id": eid, "section": body}, events, err
	})
}

// drop takes the raw drag-and-drop payload as the request body.
func (h *Handler) drop(c *gin.Context) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxDropBytes+1))
	if err == nil && len(raw) > maxDropBytes {
		err = &document.PayloadError{Reason: "payload too large"}
	}
	if err != nil {
		reject(c, "add_dropped", err)
		return
	}
	h.change(c, "add_dropped", http.StatusCreated, func(doc *document.Document) (any, []Event, error) {
		eid, err := doc.AddDropped(sectionID(c), raw)
		if err != nil {
			return nil, nil, err
		}
		body, events, err := h.sectionResult(c, doc)
		return gin.H{"id": eid, "section": body}, events, err
	})
}

type itemPatchReq struct {
	Title       *string `json:"title"`
	Year        *string `json:"year"`
	Image       *string `json:"image"`
	Description *string `json:"description"`
}

func (h *Handler) editItem(c *gin.Context) {
	var req itemPatchReq
	if err := bindJSON(c, &req); err != nil {
		reject(c, "edit_media_entry", err)
		return
	}
	patch := document.EntryPatch{Title: req.Title, Year: req.Year, Image: req.Image, Description: req.Description}
	h.change(c, "edit_media_entry", http.StatusOK, func(doc *document.Document) (any, []Event, error) {
		if err := doc.EditMediaEntry(sectionID(c), entryID(c), patch); err != nil {
			return nil, nil, err
		}
		return h.sectionResult(c, doc)
	})
}

func (h *Handler) removeItem(c *gin.Context) {
	h.change(c, "remove_media_entry", http.StatusOK, func(doc *document.Document) (any, []Event, error) {
		if err := doc.RemoveMediaEntry(sectionID(c), entryID(c)); err != nil {
			return nil, nil, err
		}
		return h.sectionResult(c, doc)
	})
}

// importRecent appends recently added media from the configured source. The
// fetch runs outside the session lock.
func (h *Handler) importRecent(c *gin.Context) {
	if h.Source == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no media source configured"})
		return
	}
	count := h.ImportCount
	if q := c.Query("count"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n <= 0 || n > 100 {
			abortWith(c, &document.PayloadError{Field: "count", Reason: "must be between 1 and 100"})
			return
		}
		count = n
	}
	sess := session(c)
	var kind document.Kind
	if err := sess.Do(func(doc *document.Document) error {
		sec, err := doc.Section(sectionID(c))
		if err != nil {
			return err
		}
		if !sec.Kind.IsMedia() {
			return fmt.Errorf("section %s: %w", sec.ID, document.ErrWrongKind)
		}
		kind = sec.Kind
		return nil
	}); err != nil {
		abortWith(c, err)
		return
	}
	items, err := h.Source.Recent(c.Request.Context(), kind, count)
	if err != nil {
		if errors.Is(err, source.ErrNotConfigured) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "media source disabled or not configured"})
			return
		}
		slog.Warn("editor: import failed", "source", h.Source.Name(), "kind", kind, "err", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	h.change(c, "import_recent", http.StatusOK, func(doc *document.Document) (any, []Event, error) {
		added := 0
		for _, in := range items {
			if _, err := doc.AddMediaEntry(sectionID(c), in); err != nil {
				if errors.Is(err, document.ErrInvalidPayload) {
					continue
				}
				return nil, nil, err
			}
			added++
		}
		body, events, err := h.sectionResult(c, doc)
		return gin.H{"added": added, "section": body}, events, err
	})
}

func (h *Handler) sectionResult(c *gin.Context, doc *document.Document) (any, []Event, error) {
	sec, err := doc.Section(sectionID(c))
	if err != nil {
		return nil, nil, err
	}
	return sec, []Event{h.sectionEvent(session(c), sec)}, nil
}

func (h *Handler) flavorFor(c *gin.Context) (render.Flavor, error) {
	q := c.Query("flavor")
	if q == "" {
		return session(c).Flavor, nil
	}
	f, err := render.ParseFlavor(q)
	if err != nil {
		return "", &document.PayloadError{Field: "flavor", Reason: err.Error()}
	}
	return f, nil
}

func (h *Handler) renderDocument(c *gin.Context) (string, time.Time, bool) {
	flavor, err := h.flavorFor(c)
	if err != nil {
		abortWith(c, err)
		return "", time.Time{}, false
	}
	var n document.Newsletter
	_ = session(c).Do(func(doc *document.Document) error {
		n = doc.Snapshot()
		return nil
	})
	now := h.now()
	start := time.Now()
	out, err := h.Renderer.Render(n, flavor, now)
	if err != nil {
		abortWith(c, err)
		return "", now, false
	}
	metrics.RecordRender(string(flavor), time.Since(start))
	return out, now, true
}

func (h *Handler) preview(c *gin.Context) {
	out, _, ok := h.renderDocument(c)
	if !ok {
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(out))
}

// export is the download path. Unlike preview it refuses untitled and
// empty newsletters, like the build command.
func (h *Handler) export(c *gin.Context) {
	var n document.Newsletter
	_ = session(c).Do(func(doc *document.Document) error {
		n = doc.Snapshot()
		return nil
	})
	if strings.TrimSpace(n.Title) == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "a title is required before export"})
		return
	}
	if n.IsEmpty() {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "the newsletter is empty: add an introduction or a section"})
		return
	}
	out, now, ok := h.renderDocument(c)
	if !ok {
		return
	}
	name := h.Renderer.ExportFileName(now)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename*=UTF-8''%s", url.PathEscape(name)))
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(out))
	slog.Info("editor: exported", "session", session(c).ID, "file", name)
}

func (h *Handler) getSettings(c *gin.Context) {
	if h.Settings == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "settings store unavailable"})
		return
	}
	st, _, err := h.Settings.SourceSettings(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "load failed"})
		return
	}
	c.JSON(http.StatusOK, st.Redacted())
}

func (h *Handler) putSettings(c *gin.Context) {
	if h.Settings == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "settings store unavailable"})
		return
	}
	var st source.Settings
	if err := bindJSON(c, &st); err != nil {
		abortWith(c, err)
		return
	}
	if st.Enabled && !st.Usable() {
		abortWith(c, &document.PayloadError{Field: "serverUrl", Reason: "server url and token are required when enabled"})
		return
	}
	if err := h.Settings.SaveSourceSettings(c.Request.Context(), st); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save failed"})
		return
	}
	c.JSON(http.StatusOK, st.Redacted())
}
