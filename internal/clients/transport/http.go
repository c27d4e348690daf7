package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
)

// ErrUndecodable marks a 2xx response whose body is not the expected JSON.
var ErrUndecodable = errors.New("undecodable response body")

// StatusError is returned for any non-2xx response.
type StatusError struct {
	URL     string
	Code    int
	Status  string
	Snippet string
}

func (e *StatusError) Error() string {
	if e.Snippet == "" {
		return fmt.Sprintf("http %s: %s", e.URL, e.Status)
	}
	return fmt.Sprintf("http %s: %s: %s", e.URL, e.Status, e.Snippet)
}

// Part is one field of a multipart body. A Part with a Filename is written
// as a file part carrying Data; otherwise Value is written as a text field.
type Part struct {
	Field       string
	Value       string
	Filename    string
	ContentType string
	Data        []byte
}

func Get[r any](h *http.Client, ctx context.Context, url string, headers map[string]string) (r, error) {

	var response r

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return response, err
	}

	for key, val := range headers {
		req.Header.Add(key, val)
	}

	return do[r](h, req)
}

// PostMultipart sends parts as multipart/form-data, in order. On a non-2xx
// status the body is still decoded into the response when possible, so
// callers can read error fields next to the *StatusError.
func PostMultipart[r any](h *http.Client, ctx context.Context, url string, parts []Part, headers map[string]string) (r, error) {

	var response r

	body, contentType, err := encodeMultipart(parts)
	if err != nil {
		return response, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return response, err
	}

	for key, val := range headers {
		req.Header.Add(key, val)
	}
	req.Header.Set("Content-Type", contentType)

	return do[r](h, req)
}

func do[r any](h *http.Client, req *http.Request) (r, error) {

	var response r
	url := req.URL.String()

	resp, err := h.Do(req)
	if err != nil {
		return response, err
	}
	defer resp.Body.Close()

	responseBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return response, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_ = json.Unmarshal(responseBytes, &response)
		return response, &StatusError{
			URL:     url,
			Code:    resp.StatusCode,
			Status:  resp.Status,
			Snippet: snippet(responseBytes),
		}
	}

	if err := json.Unmarshal(responseBytes, &response); err != nil {
		return response, fmt.Errorf("unmarshal %s: %w: %v: %s", url, ErrUndecodable, err, snippet(responseBytes))
	}

	return response, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func encodeMultipart(parts []Part) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, p := range parts {
		if p.Filename == "" {
			if err := w.WriteField(p.Field, p.Value); err != nil {
				return nil, "", fmt.Errorf("write field %s: %w", p.Field, err)
			}
			continue
		}

		contentType := p.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			quoteEscaper.Replace(p.Field), quoteEscaper.Replace(p.Filename)))
		header.Set("Content-Type", contentType)

		fw, err := w.CreatePart(header)
		if err != nil {
			return nil, "", fmt.Errorf("create part %s: %w", p.Field, err)
		}
		if _, err := fw.Write(p.Data); err != nil {
			return nil, "", fmt.Errorf("write part %s: %w", p.Field, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

func snippet(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > 8<<10 {
		s = s[:8<<10]
	}
	return s
}
