package qa

// UploadResult is the backend reply to POST /upload.
type UploadResult struct {
	SessionID string `json:"session_id"`
	Filename  string `json:"filename"`
	Message   string `json:"message,omitempty"`
}

// AskRequest is the body sent to POST /ask.
type AskRequest struct {
	SessionID string `json:"session_id"`
	Question  string `json:"question"`
	Persona   string `json:"persona"`
}

// Answer is the backend reply to POST /ask.
type Answer struct {
	Answer string `json:"answer"`
}

// ErrorBody carries the optional failure detail of a non-2xx reply.
type ErrorBody struct {
	Detail string `json:"detail"`
}

// Status is the backend reply to GET /.
type Status struct {
	Message string `json:"message"`
}
