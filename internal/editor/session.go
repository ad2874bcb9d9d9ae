package editor

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"plex-newsletter/internal/document"
	"plex-newsletter/internal/metrics"
	"plex-newsletter/internal/render"
)

// Session owns one Document. Every read and write of the document goes
// through Do, which serializes access.
type Session struct {
	ID      string
	Created time.Time
	Flavor  render.Flavor

	mu       sync.Mutex
	doc      *document.Document
	hub      *Hub
	lastUsed atomic.Int64 // unix nanos
}

// Do runs fn with exclusive access to the document.
func (s *Session) Do(fn func(doc *document.Document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.doc)
}

func (s *Session) touch(t time.Time) { s.lastUsed.Store(t.UnixNano()) }

// LastUsed is the time of the most recent lookup of the session.
func (s *Session) LastUsed() time.Time { return time.Unix(0, s.lastUsed.Load()) }

// Sessions is the in-memory registry of open editor sessions.
type Sessions struct {
	mu           sync.RWMutex
	m            map[string]*Session
	sectionTitle string
	now          func() time.Time
}

func NewSessions(defaultSectionTitle string) *Sessions {
	return &Sessions{m: make(map[string]*Session), sectionTitle: defaultSectionTitle, now: time.Now}
}

func (s *Sessions) Create(flavor render.Flavor) *Session {
	now := s.now()
	sess := &Session{
		ID:      uuid.NewString(),
		Created: now,
		Flavor:  flavor,
		doc:     document.New(document.WithSectionTitle(s.sectionTitle)),
		hub:     NewHub(),
	}
	sess.touch(now)
	s.mu.Lock()
	s.m[sess.ID] = sess
	s.mu.Unlock()
	metrics.ActiveSessions.Inc()
	return sess
}

func (s *Sessions) Get(id string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.m[id]
	if ok {
		sess.touch(s.now())
	}
	return sess, ok
}

// Close drops a session and disconnects its live preview clients.
func (s *Sessions) Close(id string) bool {
	s.mu.Lock()
	sess, ok := s.m[id]
	delete(s.m, id)
	s.mu.Unlock()
	if !ok {
		return false
	}
	sess.hub.CloseAll()
	metrics.ActiveSessions.Dec()
	return true
}

func (s *Sessions) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.m)
}

// Sweep closes sessions that have not been looked up for longer than idle
// and have no live preview client attached. It returns how many it closed.
func (s *Sessions) Sweep(idle time.Duration) int {
	cutoff := s.now().Add(-idle)
	var stale []string
	s.mu.RLock()
	for id, sess := range s.m {
		if sess.LastUsed().Before(cutoff) && sess.hub.Count() == 0 {
			stale = append(stale, id)
		}
	}
	s.mu.RUnlock()
	n := 0
	for _, id := range stale {
		if s.Close(id) {
			n++
		}
	}
	return n
}
