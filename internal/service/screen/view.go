package screen

// Button labels.
const (
	LabelUpload    = "Process PDF"
	LabelUploading = "Processing..."
	LabelAsk       = "Get Answer"
	LabelAsking    = "Thinking..."
)

// View is the derived rendering state of a screen.
type View struct {
	ScreenID     string `json:"screenId"`
	SelectedFile string `json:"selectedFile,omitempty"`
	SessionID    string `json:"sessionId,omitempty"`
	Filename     string `json:"filename,omitempty"`
	Status       string `json:"status,omitempty"`
	Question     string `json:"question"`
	Persona      string `json:"persona"`
	Answer       string `json:"answer,omitempty"`
	Error        string `json:"error,omitempty"`
	Loading      bool   `json:"loading"`

	UploadDisabled bool   `json:"uploadDisabled"`
	UploadLabel    string `json:"uploadLabel"`
	ShowAskPanel   bool   `json:"showAskPanel"`
	AskDisabled    bool   `json:"askDisabled"`
	AskLabel       string `json:"askLabel"`
	ShowAnswer     bool   `json:"showAnswer"`
}

func (s *Screen) viewLocked() View {
	v := View{
		ScreenID:     s.id,
		SelectedFile: s.file.Name,
		Question:     s.question,
		Persona:      s.persona,
		Answer:       s.answer,
		Error:        s.errMsg,
		Loading:      s.loading,
		UploadLabel:  LabelUpload,
		AskLabel:     LabelAsk,
	}
	if s.session != nil {
		v.SessionID = s.session.ID
		v.Filename = s.session.Filename
		v.Status = s.session.Message
		v.ShowAskPanel = true
	}

	uploading := s.loading && s.session == nil
	v.UploadDisabled = s.file.Empty() || uploading
	if uploading {
		v.UploadLabel = LabelUploading
	}

	v.AskDisabled = s.loading
	if s.loading {
		v.AskLabel = LabelAsking
	}

	v.ShowAnswer = s.answer != "" && !s.loading
	return v
}
