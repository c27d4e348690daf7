// Package editor holds the state of one editing session: the selected image,
// the prompt, the request state and the last outcome. Views render a Snapshot
// and drive the Editor through Select, SetPrompt and Begin/Submit.
package editor

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"photoedit/internal/clients/editservice"
)

type RequestState int

const (
	Idle RequestState = iota
	InFlight
)

func (s RequestState) String() string {
	if s == InFlight {
		return "in-flight"
	}
	return "idle"
}

func (s RequestState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Client is the outbound side of a submit.
type Client interface {
	EditImage(ctx context.Context, req editservice.EditRequest) (editservice.EditResponse, error)
}

// File is one user-chosen file.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

type selectedImage struct {
	file       File
	previewRef string
}

type Editor struct {
	client   Client
	previews *PreviewStore

	mu      sync.Mutex
	image   *selectedImage
	prompt  string
	state   RequestState
	result  string
	errMsg  string
	errKind error
}

func New(client Client, previews *PreviewStore) *Editor {
	if previews == nil {
		previews = NewPreviewStore()
	}
	return &Editor{client: client, previews: previews}
}

// Select replaces the selected image. The previous preview reference is
// revoked and the last result and error are cleared.
func (e *Editor) Select(f File) {
	if f.ContentType == "" && len(f.Data) > 0 {
		f.ContentType = http.DetectContentType(f.Data)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.revokeLocked()
	e.image = &selectedImage{
		file:       f,
		previewRef: e.previews.Create(f.ContentType, f.Data),
	}
	e.result = ""
	e.setErrorLocked(nil)
}

// SelectFiles takes the first file of a drop or picker event and ignores
// empty events.
func (e *Editor) SelectFiles(files []File) bool {
	if len(files) == 0 {
		return false
	}
	e.Select(files[0])
	return true
}

func (e *Editor) SetPrompt(prompt string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.prompt = prompt
}

func (e *Editor) CanSubmit() bool {
	return e.Snapshot().CanSubmit()
}

func (e *Editor) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := Snapshot{
		Prompt: e.prompt,
		State:  e.state,
		Result: e.result,
		Error:  e.errMsg,
	}
	if e.image != nil {
		s.ImageName = e.image.file.Name
		s.ImageType = e.image.file.ContentType
		s.ImageSize = len(e.image.file.Data)
		s.PreviewRef = e.image.previewRef
	}
	return s
}

// LastError is the error behind the current error message, if any.
func (e *Editor) LastError() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.errKind
}

// Begin validates the editor and moves it to in-flight. Validation failures
// are recorded as the error message and returned; a second Begin while in
// flight returns ErrInFlight and changes nothing.
func (e *Editor) Begin() (*Attempt, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == InFlight {
		return nil, ErrInFlight
	}
	if e.image == nil {
		e.result = ""
		e.setErrorLocked(ErrNoImage)
		return nil, ErrNoImage
	}
	if strings.TrimSpace(e.prompt) == "" {
		e.result = ""
		e.setErrorLocked(ErrEmptyPrompt)
		return nil, ErrEmptyPrompt
	}

	e.result = ""
	e.setErrorLocked(nil)
	e.state = InFlight

	f := e.image.file
	return &Attempt{
		editor: e,
		req: editservice.EditRequest{
			Filename:    f.Name,
			ContentType: f.ContentType,
			Image:       f.Data,
			Prompt:      e.prompt,
		},
	}, nil
}

// Submit runs a whole attempt on the caller's goroutine.
func (e *Editor) Submit(ctx context.Context) (Outcome, error) {
	a, err := e.Begin()
	if err != nil {
		return Outcome{Err: err}, err
	}
	return a.Do(ctx), nil
}

// Close releases the preview reference. The editor stays usable.
func (e *Editor) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.revokeLocked()
	e.image = nil
}

func (e *Editor) revokeLocked() {
	if e.image != nil {
		e.previews.Revoke(e.image.previewRef)
	}
}

func (e *Editor) setErrorLocked(err error) {
	e.errKind = err
	e.errMsg = Message(err)
}

func (e *Editor) settle(o Outcome) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.state = Idle
	if o.Err != nil {
		e.result = ""
		e.setErrorLocked(o.Err)
		return
	}
	e.result = o.Result
	e.setErrorLocked(nil)
}

// Outcome of one settled attempt. Exactly one of Result and Err is set.
type Outcome struct {
	Result string
	Err    error
}

func (o Outcome) OK() bool { return o.Err == nil }

func (o Outcome) Message() string { return Message(o.Err) }

// Attempt is a validated submit waiting for its network call. It settles the
// editor exactly once, through Do or Abort.
type Attempt struct {
	editor  *Editor
	req     editservice.EditRequest
	once    sync.Once
	outcome Outcome
}

func (a *Attempt) Request() editservice.EditRequest { return a.req }

// Do performs the call and settles the editor back to idle.
func (a *Attempt) Do(ctx context.Context) Outcome {
	a.once.Do(func() {
		resp, err := a.editor.client.EditImage(ctx, a.req)
		a.outcome = classify(resp, err)
		a.editor.settle(a.outcome)
	})
	return a.outcome
}

// Abort settles the editor without a network call.
func (a *Attempt) Abort(cause error) Outcome {
	a.once.Do(func() {
		a.outcome = Outcome{Err: &TransportError{Err: cause}}
		a.editor.settle(a.outcome)
	})
	return a.outcome
}
