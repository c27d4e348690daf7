package editor

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"strings"

	"photoedit/utils"
)

// DownloadFilename is the name every downloaded result is saved under.
const DownloadFilename = "edited-image.png"

// ResultDataURL renders a result payload as an inline PNG URL.
func ResultDataURL(payload string) string {
	if payload == "" {
		return ""
	}
	return "data:image/png;base64," + payload
}

func DecodeResult(payload string) ([]byte, error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return nil, fmt.Errorf("empty result")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("decode result: %w", err)
	}
	return data, nil
}

// ResultInfo describes a decoded result for text renderers.
type ResultInfo struct {
	Format string
	Width  int
	Height int
	Bytes  int
}

func (i ResultInfo) String() string {
	if i.Format == "" {
		return fmt.Sprintf("%d KB", (i.Bytes+1023)/1024)
	}
	return fmt.Sprintf("%s %dx%d, %d KB", strings.ToUpper(i.Format), i.Width, i.Height, (i.Bytes+1023)/1024)
}

// DescribeResult decodes only the image header. Payloads that are not a
// known image format still report their size.
func DescribeResult(payload string) (ResultInfo, error) {
	data, err := DecodeResult(payload)
	if err != nil {
		return ResultInfo{}, err
	}
	info := ResultInfo{Bytes: len(data)}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return info, nil
	}
	info.Format, info.Width, info.Height = format, cfg.Width, cfg.Height
	return info, nil
}

// SaveResult writes the payload as DownloadFilename inside dir.
func SaveResult(dir, payload string) (string, error) {
	data, err := DecodeResult(payload)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output folder: %w", err)
	}
	path, err := utils.SafeJoin(dir, DownloadFilename)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("save result: %w", err)
	}
	return path, nil
}
