package editservice

import (
	"fmt"
	"time"
)

// EditRequest is the multipart payload sent to /api/edit-image.
type EditRequest struct {
	Filename    string
	ContentType string
	Image       []byte
	Prompt      string
}

// EditResponse carries either the edited image or an error message.
type EditResponse struct {
	ImageBase64 string `json:"image_base64,omitempty"`
	Error       string `json:"error,omitempty"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

// TimeoutError is returned when the service does not answer within the
// client timeout.
type TimeoutError struct {
	Timeout time.Duration
	Err     error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timeout of %dms exceeded", e.Timeout.Milliseconds())
}

func (e *TimeoutError) Unwrap() error { return e.Err }
