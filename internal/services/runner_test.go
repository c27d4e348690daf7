package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"photoedit/config"
	"photoedit/internal/clients/editservice"
	"photoedit/internal/editor"
	"photoedit/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubBackend struct {
	resp editservice.EditResponse
	err  error
}

func (s stubBackend) EditImage(ctx context.Context, req editservice.EditRequest) (editservice.EditResponse, error) {
	return s.resp, s.err
}

type fakeConn struct {
	mu          sync.Mutex
	calls       int
	written     [][]byte
	interrupted bool
	readDone    chan struct{}
}

func newFakeConn() *fakeConn { return &fakeConn{readDone: make(chan struct{})} }

func (f *fakeConn) WriteMessage(_ int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.written = append(f.written, data)
	return nil
}

func (f *fakeConn) ReadMessage() (int, []byte, error) {
	<-f.readDone
	return 0, nil, errors.New("i/o timeout")
}

// SetReadDeadline unblocks ReadMessage once the deadline is not in the future.
func (f *fakeConn) SetReadDeadline(t time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if !f.interrupted && !t.After(time.Now()) {
		f.interrupted = true
		close(f.readDone)
	}
	return nil
}

func (f *fakeConn) SetWriteDeadline(time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return nil
}

func (f *fakeConn) SetReadLimit(int64)                        {}
func (f *fakeConn) SetPongHandler(func(appData string) error) {}

func (f *fakeConn) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeConn) isInterrupted() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.interrupted
}

func readyAttempt(t *testing.T, backend editor.Client) (*editor.Editor, *editor.Attempt) {
	t.Helper()
	ed := editor.New(backend, nil)
	ed.Select(editor.File{Name: "cat.jpg", ContentType: "image/jpeg", Data: []byte("jpeg")})
	ed.SetPrompt("remove the car")
	a, err := ed.Begin()
	require.NoError(t, err)
	return ed, a
}

func newTestMetrics() *Metrics {
	return NewMetrics(func() int { return 0 }, func() int { return 0 })
}

func TestEditRunner(t *testing.T) {
	t.Run("notifies_session", func(t *testing.T) {
		hub := NewHub()
		client := newWSClient("s1", newFakeConn())
		hub.Add(client)

		r := NewEditRunner(context.Background(), hub, newTestMetrics(), config.RunnerConfig{QueueSize: 4, MaxConcurrent: 2})
		r.Run()

		ed, a := readyAttempt(t, stubBackend{resp: editservice.EditResponse{Error: "unsupported format"}})
		require.NoError(t, r.Enqueue(EditJob{JobID: "j1", SessionID: "s1", Attempt: a}))

		var event types.EditEvent
		select {
		case b := <-client.send:
			require.NoError(t, json.Unmarshal(b, &event))
		case <-time.After(3 * time.Second):
			t.Fatal("no event")
		}
		assert.Equal(t, types.EditEvent{Type: eventFailed, JobID: "j1", Message: "unsupported format"}, event)
		assert.Equal(t, "unsupported format", ed.Snapshot().Error)

		r.Shutdown()
		require.ErrorIs(t, r.Enqueue(EditJob{}), ErrRunnerShuttingDown)
	})

	t.Run("queue_full", func(t *testing.T) {
		r := NewEditRunner(context.Background(), NewHub(), newTestMetrics(), config.RunnerConfig{QueueSize: 1, MaxConcurrent: 1})

		_, a1 := readyAttempt(t, stubBackend{})
		_, a2 := readyAttempt(t, stubBackend{})
		require.NoError(t, r.Enqueue(EditJob{JobID: "1", Attempt: a1}))
		require.ErrorIs(t, r.Enqueue(EditJob{JobID: "2", Attempt: a2}), ErrEditQueueFull)
	})

	t.Run("shutdown_aborts_pending", func(t *testing.T) {
		r := NewEditRunner(context.Background(), NewHub(), newTestMetrics(), config.RunnerConfig{QueueSize: 2, MaxConcurrent: 1})

		ed, a := readyAttempt(t, stubBackend{resp: editservice.EditResponse{ImageBase64: "x"}})
		require.NoError(t, r.Enqueue(EditJob{JobID: "1", Attempt: a}))
		r.cancel()
		r.Run()
		r.Shutdown()

		s := ed.Snapshot()
		assert.Equal(t, editor.Idle, s.State)
		assert.Equal(t, "service shutting down", s.Error)
	})
}

func TestHub(t *testing.T) {
	hub := NewHub()
	c1 := newWSClient("s1", newFakeConn())
	hub.Add(c1)
	assert.Equal(t, 1, hub.Len())

	assert.True(t, hub.SendTo("s1", types.EditEvent{Type: eventCompleted, JobID: "j"}))
	assert.False(t, hub.SendTo("nobody", types.EditEvent{}))

	// a second socket for the same session replaces the first
	conn2 := newFakeConn()
	c2 := newWSClient("s1", conn2)
	hub.Add(c2)
	assert.True(t, c1.conn.(*fakeConn).isInterrupted())
	assert.Equal(t, 1, hub.Len())

	// removing the stale client leaves the new one registered
	hub.Remove(c1)
	assert.Equal(t, 1, hub.Len())

	for i := 0; i < wsSendBuffer; i++ {
		require.True(t, hub.SendTo("s1", types.EditEvent{JobID: "fill"}))
	}
	assert.False(t, hub.SendTo("s1", types.EditEvent{JobID: "overflow"}))
	assert.Zero(t, hub.Len())
	assert.True(t, conn2.isInterrupted())

	hub.Shutdown()
}

func TestWSClientServe(t *testing.T) {
	hub := NewHub()
	conn := newFakeConn()
	c := newWSClient("s1", conn)
	hub.Add(c)

	served := make(chan struct{})
	go func() {
		defer close(served)
		c.serve(func() { hub.Remove(c) })
	}()

	hub.Shutdown()
	select {
	case <-served:
	case <-time.After(3 * time.Second):
		t.Fatal("serve did not return")
	}

	// the write loop has finished, including its close frame
	select {
	case <-c.done:
	default:
		t.Fatal("write loop still running")
	}
	assert.NotEmpty(t, conn.written)

	// a released conn is never touched again
	calls := conn.callCount()
	c.close()
	hub.Remove(c)
	assert.False(t, c.enqueue([]byte("late")))
	assert.Equal(t, calls, conn.callCount())
}

func TestSessionStore(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	previews := editor.NewPreviewStore()
	store := NewSessionStore(time.Hour, func() *editor.Editor {
		return editor.New(stubBackend{}, previews)
	})
	store.now = func() time.Time { return now }

	id, ed := store.Acquire("")
	require.NotEmpty(t, id)
	sameID, same := store.Acquire(id)
	assert.Equal(t, id, sameID)
	assert.Same(t, ed, same)

	otherID, other := store.Acquire("forged")
	assert.NotEqual(t, "forged", otherID)
	assert.NotSame(t, ed, other)
	assert.Equal(t, 2, store.Len())

	ed.Select(editor.File{Name: "cat.jpg", Data: []byte("jpeg")})
	require.Equal(t, 1, previews.Len())

	now = now.Add(30 * time.Minute)
	_, _ = store.Get(otherID)
	now = now.Add(45 * time.Minute)

	assert.Equal(t, 1, store.Sweep())
	_, ok := store.Get(id)
	assert.False(t, ok)
	_, ok = store.Get(otherID)
	assert.True(t, ok)
	assert.Zero(t, previews.Len())
}
