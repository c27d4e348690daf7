package editor

// Snapshot is a read-only copy of an Editor for rendering.
type Snapshot struct {
	ImageName  string       `json:"imageName,omitempty"`
	ImageType  string       `json:"imageType,omitempty"`
	ImageSize  int          `json:"imageSize,omitempty"`
	PreviewRef string       `json:"previewRef,omitempty"`
	Prompt     string       `json:"prompt"`
	State      RequestState `json:"state"`
	Result     string       `json:"result,omitempty"`
	Error      string       `json:"error,omitempty"`
}

func (s Snapshot) HasImage() bool { return s.PreviewRef != "" }

func (s Snapshot) Busy() bool { return s.State == InFlight }

func (s Snapshot) HasResult() bool { return s.Result != "" }

// CanSubmit mirrors the submit control: an image, a non-empty prompt and no
// request in flight. Whitespace-only prompts pass here and fail in Begin.
func (s Snapshot) CanSubmit() bool {
	return s.HasImage() && s.Prompt != "" && !s.Busy()
}
