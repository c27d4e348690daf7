package editor

import (
	"sync"

	"github.com/google/uuid"
)

// Preview is the content behind a preview reference.
type Preview struct {
	ContentType string
	Data        []byte
}

// PreviewStore issues revocable references to selected images, the way a
// browser hands out object URLs. One store may serve many editors.
type PreviewStore struct {
	mu    sync.RWMutex
	items map[string]Preview
}

func NewPreviewStore() *PreviewStore {
	return &PreviewStore{items: map[string]Preview{}}
}

func (s *PreviewStore) Create(contentType string, data []byte) string {
	ref := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[ref] = Preview{ContentType: contentType, Data: data}
	return ref
}

// Revoke is a no-op for unknown or empty references.
func (s *PreviewStore) Revoke(ref string) {
	if ref == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, ref)
}

func (s *PreviewStore) Lookup(ref string) (Preview, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.items[ref]
	return p, ok
}

func (s *PreviewStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
