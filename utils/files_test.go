package utils

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeFilename(t *testing.T) {
	cases := map[string]string{
		"cat.jpg":                "cat.jpg",
		"  my holiday pic.png ":  "my-holiday-pic.png",
		"../../etc/passwd":       "passwd",
		`C:\Users\me\photo.jpeg`: "photo.jpeg",
		"":                       "upload",
		"/":                      "upload",
	}
	for in, want := range cases {
		assert.Equal(t, want, SanitizeFilename(in, "upload"), "input %q", in)
	}
}

func TestSafeJoin(t *testing.T) {
	base := t.TempDir()

	t.Run("inside", func(t *testing.T) {
		got, err := SafeJoin(base, "edited-image.png")
		require.NoError(t, err)
		want, _ := filepath.Abs(filepath.Join(base, "edited-image.png"))
		assert.Equal(t, want, got)
	})

	t.Run("traversal", func(t *testing.T) {
		_, err := SafeJoin(base, "../outside.png")
		require.Error(t, err)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := SafeJoin(base, "  ")
		require.Error(t, err)
	})
}

func TestNewRequestID(t *testing.T) {
	a, b := NewRequestID(), NewRequestID()
	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
}
