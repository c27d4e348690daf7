package services

import (
	"context"
	"sync"
	"time"

	"photoedit/internal/editor"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

const sessionCookie = "editor_session"

type session struct {
	editor   *editor.Editor
	lastSeen time.Time
}

// SessionStore keeps one Editor per browser.
type SessionStore struct {
	mu    sync.Mutex
	items map[string]*session

	ttl       time.Duration
	newEditor func() *editor.Editor
	now       func() time.Time
}

func NewSessionStore(ttl time.Duration, newEditor func() *editor.Editor) *SessionStore {
	return &SessionStore{
		items:     map[string]*session{},
		ttl:       ttl,
		newEditor: newEditor,
		now:       time.Now,
	}
}

// Acquire returns the editor for id, creating a fresh session (with a new id)
// when id is empty or unknown.
func (s *SessionStore) Acquire(id string) (string, *editor.Editor) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.items[id]; ok && id != "" {
		sess.lastSeen = s.now()
		return id, sess.editor
	}

	id = uuid.NewString()
	sess := &session{editor: s.newEditor(), lastSeen: s.now()}
	s.items[id] = sess
	return id, sess.editor
}

func (s *SessionStore) Get(id string) (*editor.Editor, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.items[id]
	if !ok {
		return nil, false
	}
	sess.lastSeen = s.now()
	return sess.editor, true
}

func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Sweep evicts sessions idle for longer than the TTL. Sessions with a request
// in flight are kept until it settles.
func (s *SessionStore) Sweep() int {
	s.mu.Lock()
	var evicted []*editor.Editor
	cutoff := s.now().Add(-s.ttl)
	for id, sess := range s.items {
		if sess.lastSeen.After(cutoff) || sess.editor.Snapshot().Busy() {
			continue
		}
		delete(s.items, id)
		evicted = append(evicted, sess.editor)
	}
	s.mu.Unlock()

	for _, ed := range evicted {
		ed.Close()
	}
	return len(evicted)
}

func (s *SessionStore) Run(ctx context.Context) {
	every := s.ttl / 4
	if every < time.Second {
		every = time.Second
	}

	go func() {
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := s.Sweep(); n > 0 {
					log.Debug("evicted idle sessions", "component", "sessions", "count", n)
				}
			}
		}
	}()
}
