// Package events defines the events emitted while serving requests and the
// publishers that deliver them.
package events

// Event type names.
const (
	TypeDispatched = "request.dispatched"
	TypeUploaded   = "upload.completed"
)

// DispatchedEvent is emitted once per dispatched request.
type DispatchedEvent struct {
	Target     string `json:"target,omitempty"`
	Owner      string `json:"owner,omitempty"`
	Handled    bool   `json:"handled"`
	State      string `json:"state"`
	ErrorCode  string `json:"errorCode,omitempty"`
	Error      string `json:"error,omitempty"`
	Commands   int    `json:"commands"`
	DurationMs int64  `json:"durationMs"`
	Timestamp  string `json:"timestamp"`
}

// UploadedEvent is emitted when uploaded files are stored.
type UploadedEvent struct {
	Token     string   `json:"token,omitempty"`
	Fields    []string `json:"fields"`
	Files     int      `json:"files"`
	Bytes     int64    `json:"bytes"`
	Timestamp string   `json:"timestamp"`
}
