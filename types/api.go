package types

type ErrorResponse struct {
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

type HealthResponse struct {
	Status        int    `json:"status"`
	TimeStamp     int64  `json:"timestamp"`
	Backend       string `json:"backend"`
	BackendStatus string `json:"backendStatus"`
}

// EditorState is the JSON view of one session's editor.
type EditorState struct {
	ImageName  string `json:"imageName,omitempty"`
	ImageSize  int    `json:"imageSize,omitempty"`
	PreviewURL string `json:"previewUrl,omitempty"`
	Prompt     string `json:"prompt"`
	State      string `json:"state"`
	CanSubmit  bool   `json:"canSubmit"`
	HasResult  bool   `json:"hasResult"`
	Result     string `json:"imageBase64,omitempty"`
	Error      string `json:"error,omitempty"`
}

type EditAcceptedResponse struct {
	JobID string      `json:"jobId"`
	State EditorState `json:"state"`
}

// EditEvent is pushed over the websocket when an edit settles.
type EditEvent struct {
	Type    string `json:"type"` // edit.completed or edit.failed
	JobID   string `json:"jobId"`
	Message string `json:"message,omitempty"`
}
