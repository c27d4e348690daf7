package editor

import (
	"errors"
	"fmt"

	"photoedit/internal/clients/editservice"
	"photoedit/internal/clients/transport"
)

const (
	msgUnexpectedResponse = "Unexpected response from server."
	msgRequestFailed      = "Request failed."
)

// ValidationError is raised before any network activity.
type ValidationError struct {
	Reason  string
	Message string
}

func (e *ValidationError) Error() string { return e.Reason }

var (
	ErrNoImage     = &ValidationError{Reason: "no image selected", Message: "Please select an image first."}
	ErrEmptyPrompt = &ValidationError{Reason: "empty instruction", Message: "Please provide an editing instruction."}

	ErrInFlight          = errors.New("an edit request is already in flight")
	ErrMalformedResponse = errors.New("response carries neither image nor error")
)

// ServerError is an error field reported by the service, with or without a
// failing status code.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("server error (%d): %s", e.Status, e.Message)
	}
	return "server error: " + e.Message
}

// TransportError covers network failures, timeouts and non-2xx statuses
// without an error field.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	if e.Err == nil {
		return "transport error"
	}
	return "transport error: " + e.Err.Error()
}

func (e *TransportError) Unwrap() error { return e.Err }

// Message is what the user sees.
func (e *TransportError) Message() string {
	var se *transport.StatusError
	var te *editservice.TimeoutError
	switch {
	case e.Err == nil:
		return msgRequestFailed
	case errors.As(e.Err, &te):
		return te.Error()
	case errors.As(e.Err, &se):
		return fmt.Sprintf("Request failed with status code %d", se.Code)
	case e.Err.Error() != "":
		return e.Err.Error()
	default:
		return msgRequestFailed
	}
}

// Message returns the user-visible text for any error the editor produces.
func Message(err error) string {
	if err == nil {
		return ""
	}

	var ve *ValidationError
	var se *ServerError
	var te *TransportError
	switch {
	case errors.As(err, &ve):
		return ve.Message
	case errors.As(err, &se):
		return se.Message
	case errors.Is(err, ErrMalformedResponse):
		return msgUnexpectedResponse
	case errors.As(err, &te):
		return te.Message()
	case err.Error() != "":
		return err.Error()
	default:
		return msgRequestFailed
	}
}

// Kind labels an outcome for logs and metrics.
func Kind(err error) string {
	var ve *ValidationError
	var se *ServerError
	var te *TransportError
	switch {
	case err == nil:
		return "success"
	case errors.As(err, &ve):
		return "validation"
	case errors.As(err, &se):
		return "server_error"
	case errors.Is(err, ErrMalformedResponse):
		return "malformed"
	case errors.As(err, &te):
		return "transport_error"
	default:
		return "unknown"
	}
}

// classify maps one settled call onto the four response branches.
func classify(resp editservice.EditResponse, err error) Outcome {
	if err == nil {
		switch {
		case resp.ImageBase64 != "":
			return Outcome{Result: resp.ImageBase64}
		case resp.Error != "":
			return Outcome{Err: &ServerError{Message: resp.Error}}
		default:
			return Outcome{Err: ErrMalformedResponse}
		}
	}

	if resp.Error != "" {
		status := 0
		var se *transport.StatusError
		if errors.As(err, &se) {
			status = se.Code
		}
		return Outcome{Err: &ServerError{Status: status, Message: resp.Error}}
	}
	return Outcome{Err: &TransportError{Err: err}}
}
