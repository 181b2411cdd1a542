package models

import "time"

// Status represents the processing status of one uploaded file.
type Status string

const (
	StatusPending    Status = "pending"
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusFinished   Status = "finished"
	StatusError      Status = "error"
	StatusCancelled  Status = "cancelled"
)

// IsTerminal reports whether no further stage transitions may occur.
func (s Status) IsTerminal() bool {
	return s == StatusFinished || s == StatusError || s == StatusCancelled
}

// FileStatus tracks pipeline progress for a single uploaded file.
type FileStatus struct {
	Name        string     `json:"name"`        // content-addressed slug, storage key
	DisplayName string     `json:"displayName"` // original client-supplied filename
	Status      Status     `json:"status"`
	Progress    int        `json:"progress"` // 0-100, non-decreasing
	Error       string     `json:"error,omitempty"`
	HTMLPath    string     `json:"htmlPath,omitempty"`
	JSONPath    string     `json:"jsonPath,omitempty"`
	StartedAt   time.Time  `json:"startedAt"`
	FinishedAt  *time.Time `json:"finishedAt,omitempty"`
}

// NewFileStatus creates a FileStatus in pending state.
func NewFileStatus(name, displayName string) FileStatus {
	return FileStatus{
		Name:        name,
		DisplayName: displayName,
		Status:      StatusPending,
		StartedAt:   time.Now(),
	}
}

// RequestInfo is the read-only projection of a tracked request.
type RequestInfo struct {
	RequestID string    `json:"requestId"`
	Directory string    `json:"directory"`
	CreatedAt time.Time `json:"createdAt"`
}
