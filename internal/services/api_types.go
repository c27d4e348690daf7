package services

import (
	"html/template"

	"photoedit/internal/editor"
	"photoedit/types"
)

const previewPrefix = "/preview/"

type pageData struct {
	SessionID    string
	Backend      string
	HasImage     bool
	ImageName    string
	PreviewURL   string
	Prompt       string
	Busy         bool
	CanSubmit    bool
	Error        string
	ResultURL    template.URL
	DownloadName string
}

func previewURL(s editor.Snapshot) string {
	if !s.HasImage() {
		return ""
	}
	return previewPrefix + s.PreviewRef
}

func newPageData(sessionID, backend string, s editor.Snapshot) pageData {
	return pageData{
		SessionID:  sessionID,
		Backend:    backend,
		HasImage:   s.HasImage(),
		ImageName:  s.ImageName,
		PreviewURL: previewURL(s),
		Prompt:     s.Prompt,
		Busy:       s.Busy(),
		CanSubmit:  s.CanSubmit(),
		Error:      s.Error,
		// payload is base64 from the backend, safe inside a data URL
		ResultURL:    template.URL(editor.ResultDataURL(s.Result)),
		DownloadName: editor.DownloadFilename,
	}
}

func editorState(s editor.Snapshot) types.EditorState {
	return types.EditorState{
		ImageName:  s.ImageName,
		ImageSize:  s.ImageSize,
		PreviewURL: previewURL(s),
		Prompt:     s.Prompt,
		State:      s.State.String(),
		CanSubmit:  s.CanSubmit(),
		HasResult:  s.HasResult(),
		Result:     s.Result,
		Error:      s.Error,
	}
}
