package utils

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// SanitizeFilename keeps only the base name of a client-supplied filename so it
// is safe to show and to echo back in a multipart header.
func SanitizeFilename(filename, fallback string) string {
	filename = strings.TrimSpace(filename)
	filename = strings.ReplaceAll(filename, "\\", "/")
	filename = filepath.Base(filename)
	if filename == "." || filename == "/" || filename == "" {
		return fallback
	}

	ext := filepath.Ext(filename)
	stem := strings.TrimSuffix(filename, ext)
	stem = strings.Join(strings.Fields(stem), "-")
	stem = strings.Trim(stem, "-")
	if stem == "" {
		return fallback
	}
	return stem + strings.ReplaceAll(ext, " ", "")
}

// prevents directory traversal; only resolves under baseDir
func SafeJoin(base, name string) (string, error) {
	name = strings.TrimSpace(name)
	name = strings.TrimPrefix(name, "/")
	name = strings.TrimPrefix(name, "\\")
	clean := filepath.Clean(name)

	if clean == "." || clean == "" {
		return "", errors.New("empty file name")
	}

	baseAbs, err := filepath.Abs(base)
	if err != nil {
		return "", err
	}
	joinedAbs, err := filepath.Abs(filepath.Join(base, clean))
	if err != nil {
		return "", err
	}

	sep := string(os.PathSeparator)
	if !strings.HasPrefix(joinedAbs, baseAbs+sep) {
		return "", errors.New("path traversal detected")
	}
	return joinedAbs, nil
}

func NewRequestID() string {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
