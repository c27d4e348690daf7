package tui

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"photoedit/internal/clients/editservice"
	"photoedit/internal/editor"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	resp  editservice.EditResponse
	err   error
	calls atomic.Int32
	last  editservice.EditRequest
}

func (f *fakeClient) EditImage(ctx context.Context, req editservice.EditRequest) (editservice.EditResponse, error) {
	f.calls.Add(1)
	f.last = req
	return f.resp, f.err
}

func key(k tea.KeyType) tea.KeyMsg { return tea.KeyMsg{Type: k} }

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	require.True(t, ok)
	return nm, cmd
}

// collect runs cmd and any batched commands, returning every message produced.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func find[T tea.Msg](msgs []tea.Msg) (T, bool) {
	for _, m := range msgs {
		if v, ok := m.(T); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

func cat() editor.File {
	return editor.File{Name: "cat.jpg", ContentType: "image/jpeg", Data: []byte("jpeg")}
}

func TestSubmitValidation(t *testing.T) {
	t.Run("no_image", func(t *testing.T) {
		client := &fakeClient{}
		ed := editor.New(client, nil)
		m := New(ed, Options{Backend: "http://localhost:5000", Prompt: "make it sepia"})

		m, cmd := update(t, m, key(tea.KeyCtrlS))
		assert.Nil(t, cmd)
		assert.Equal(t, "Please select an image first.", ed.Snapshot().Error)
		assert.Zero(t, client.calls.Load())
		assert.Contains(t, m.View(), "Please select an image first.")
	})

	t.Run("empty_prompt", func(t *testing.T) {
		client := &fakeClient{}
		ed := editor.New(client, nil)
		m := New(ed, Options{})

		m, _ = update(t, m, imageLoadedMsg{file: cat()})
		_, cmd := update(t, m, key(tea.KeyCtrlS))
		assert.Nil(t, cmd)
		assert.Equal(t, "Please provide an editing instruction.", ed.Snapshot().Error)
		assert.Zero(t, client.calls.Load())
	})
}

func TestEditAndDownload(t *testing.T) {
	client := &fakeClient{resp: editservice.EditResponse{ImageBase64: "aGVsbG8="}}
	ed := editor.New(client, nil)
	dir := t.TempDir()
	m := New(ed, Options{Backend: "http://localhost:5000", OutputDir: dir, Prompt: "remove the car"})

	m, _ = update(t, m, imageLoadedMsg{file: cat()})
	require.True(t, ed.CanSubmit())

	m, cmd := update(t, m, key(tea.KeyCtrlS))
	require.NotNil(t, cmd)
	assert.True(t, ed.Snapshot().Busy())
	assert.Contains(t, m.View(), "Processing...")

	// a second submit while busy issues nothing
	_, again := update(t, m, key(tea.KeyCtrlS))
	assert.Nil(t, again)

	settled, ok := find[editSettledMsg](collect(cmd))
	require.True(t, ok)
	assert.True(t, settled.out.OK())
	assert.EqualValues(t, 1, client.calls.Load())
	assert.Equal(t, "remove the car", client.last.Prompt)
	assert.Equal(t, "cat.jpg", client.last.Filename)

	m, _ = update(t, m, settled)
	assert.Contains(t, m.View(), "Download Image")

	// path -> prompt -> submit -> download
	for i := 0; i < 3; i++ {
		m, _ = update(t, m, key(tea.KeyTab))
	}
	require.Equal(t, focusDownload, m.focus)

	m, cmd = update(t, m, runes("d"))
	saved, ok := find[savedMsg](collect(cmd))
	require.True(t, ok)
	require.NoError(t, saved.err)
	assert.Equal(t, filepath.Join(dir, editor.DownloadFilename), saved.path)

	data, err := os.ReadFile(saved.path)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	m, _ = update(t, m, saved)
	assert.Contains(t, m.View(), "Saved "+saved.path)
}

func TestServerError(t *testing.T) {
	client := &fakeClient{resp: editservice.EditResponse{Error: "unsupported format"}}
	ed := editor.New(client, nil)
	m := New(ed, Options{Prompt: "remove the car"})

	m, _ = update(t, m, imageLoadedMsg{file: cat()})
	m, cmd := update(t, m, key(tea.KeyCtrlS))
	settled, ok := find[editSettledMsg](collect(cmd))
	require.True(t, ok)

	m, _ = update(t, m, settled)
	view := m.View()
	assert.Contains(t, view, "unsupported format")
	assert.NotContains(t, view, "Download Image")

	// download focus is skipped without a result
	for i := 0; i < 3; i++ {
		m, _ = update(t, m, key(tea.KeyTab))
	}
	assert.Equal(t, focusPath, m.focus)
}

func TestPromptTyping(t *testing.T) {
	ed := editor.New(&fakeClient{}, nil)
	m := New(ed, Options{})

	m, _ = update(t, m, key(tea.KeyTab))
	require.Equal(t, focusPrompt, m.focus)

	m, _ = update(t, m, runes("  sepia "))
	assert.Equal(t, "  sepia ", ed.Snapshot().Prompt)

	// "d" is text while the prompt has focus
	m, _ = update(t, m, runes("d"))
	assert.Equal(t, "  sepia d", ed.Snapshot().Prompt)

	_, cmd := update(t, m, key(tea.KeyEsc))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestLoadImage(t *testing.T) {
	assert.Nil(t, loadImage("  "))

	dir := t.TempDir()
	path := filepath.Join(dir, "cat.jpg")
	require.NoError(t, os.WriteFile(path, []byte("jpeg"), 0o644))

	msg := loadImage(path)()
	loaded, ok := msg.(imageLoadedMsg)
	require.True(t, ok)
	assert.Equal(t, "cat.jpg", loaded.file.Name)
	assert.Equal(t, "image/jpeg", loaded.file.ContentType)
	assert.Equal(t, []byte("jpeg"), loaded.file.Data)

	_, ok = loadImage(filepath.Join(dir, "missing.png"))().(loadFailedMsg)
	assert.True(t, ok)
	_, ok = loadImage(dir)().(loadFailedMsg)
	assert.True(t, ok)
}

func TestViewFooter(t *testing.T) {
	m := New(editor.New(&fakeClient{}, nil), Options{Backend: "http://127.0.0.1:5000"})
	view := m.View()
	assert.Contains(t, view, "AI Photo Editor")
	assert.Contains(t, view, "Backend: http://127.0.0.1:5000")
	assert.Contains(t, view, "No image selected")
}
