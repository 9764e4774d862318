package qa

import "time"

// Session references a document the backend has already indexed.
type Session struct {
	ID        string    `json:"id"`
	Filename  string    `json:"filename"`
	Message   string    `json:"message,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// File is a document picked by the user but not yet sent to the backend.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Empty reports whether no file has been selected.
func (f File) Empty() bool {
	return f.Name == "" && len(f.Data) == 0
}
