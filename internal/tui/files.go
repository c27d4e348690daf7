package tui

import (
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"photoedit/internal/editor"
	"photoedit/utils"

	tea "github.com/charmbracelet/bubbletea"
)

// loadImage reads one file from disk. An empty path selects nothing.
func loadImage(path string) tea.Cmd {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}
	return func() tea.Msg {
		f, err := readImage(path)
		if err != nil {
			return loadFailedMsg{err: err}
		}
		return imageLoadedMsg{file: f}
	}
}

func readImage(path string) (editor.File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return editor.File{}, fmt.Errorf("open image: %w", err)
	}
	if info.IsDir() {
		return editor.File{}, fmt.Errorf("open image: %s is a directory", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return editor.File{}, fmt.Errorf("read image: %w", err)
	}

	contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	return editor.File{
		Name:        utils.SanitizeFilename(filepath.Base(path), "image"),
		ContentType: contentType,
		Data:        data,
	}, nil
}
