package store

import "time"

// Status represents the lifecycle state of an assembly run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusInvalid   Status = "invalid"
)

// ParseStatus converts user input into a Status.
func ParseStatus(value string) (Status, bool) {
	switch Status(value) {
	case StatusRunning, StatusCompleted, StatusFailed, StatusInvalid:
		return Status(value), true
	default:
		return "", false
	}
}

// Terminal reports whether the status ends a run.
func (s Status) Terminal() bool {
	return s != StatusRunning
}

// Run is one assembly attempt for a theme.
type Run struct {
	ID           string    `json:"id"`
	VideoID      string    `json:"video_id"`
	Theme        string    `json:"theme"`
	Status       Status    `json:"status"`
	Stage        string    `json:"stage"`
	OutputPath   string    `json:"output_path,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
	Seed         int64     `json:"seed"`
	Duration     float64   `json:"duration"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// AllocationRecord is a persisted footage choice for one timeline segment.
type AllocationRecord struct {
	Index  int     `json:"index"`
	ClipID string  `json:"clip_id"`
	URL    string  `json:"url,omitempty"`
	Tier   string  `json:"tier"`
	Start  float64 `json:"start"`
	End    float64 `json:"end"`
}

// MissRecord is a persisted alignment miss.
type MissRecord struct {
	Block  int    `json:"block"`
	Token  string `json:"token"`
	Cursor int    `json:"cursor"`
}
