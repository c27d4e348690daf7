package editservice

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"photoedit/config"
	"photoedit/internal/clients/transport"
)

const (
	editPath   = "/api/edit-image"
	healthPath = "/api/health"
)

type Client struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
}

func NewClient(cfg config.BackendConfig) *Client {
	cfg.URL = strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if cfg.URL == "" {
		cfg.URL = config.DefaultBackendURL
	}
	timeout := cfg.Timeout()
	if timeout <= 0 {
		timeout = config.DefaultTimeoutMs * time.Millisecond
	}

	return &Client{
		baseURL: cfg.URL,
		timeout: timeout,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) Timeout() time.Duration { return c.timeout }

// EditImage posts the image under "image" and the prompt, verbatim, under
// "prompt". A 2xx body that is not JSON decodes to an empty EditResponse.
func (c *Client) EditImage(ctx context.Context, req EditRequest) (EditResponse, error) {
	parts := []transport.Part{
		{Field: "image", Filename: req.Filename, ContentType: req.ContentType, Data: req.Image},
		{Field: "prompt", Value: req.Prompt},
	}

	resp, err := transport.PostMultipart[EditResponse](c.httpClient, ctx, c.baseURL+editPath, parts, nil)
	switch {
	case err == nil:
		return resp, nil
	case errors.Is(err, transport.ErrUndecodable):
		return EditResponse{}, nil
	case isTimeout(err):
		return resp, &TimeoutError{Timeout: c.timeout, Err: err}
	default:
		return resp, err
	}
}

func (c *Client) Health(ctx context.Context) (HealthResponse, error) {
	headers := map[string]string{"Accept": "application/json"}
	return transport.Get[HealthResponse](c.httpClient, ctx, c.baseURL+healthPath, headers)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
