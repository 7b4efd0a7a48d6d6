package history

import "time"

// Status is the lifecycle state of a conversion entry.
type Status string

const (
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Record is written when a conversion starts.
type Record struct {
	ID           string
	SourcePath   string
	Destination  string
	Mode         string
	FrameCount   int
	DelaySeconds float64
	LoopCount    int
	StartedAt    time.Time
}

// Outcome is written when a conversion ends. A nil Err marks success.
type Outcome struct {
	Destination string
	// FrameCount replaces the recorded count when positive, for modes where
	// it is only known after planning.
	FrameCount     int
	FramesAppended int
	ErrorKind      string
	Err            error
	FinishedAt     time.Time
}

// Entry is one stored conversion.
type Entry struct {
	ID             string     `json:"id"`
	SourcePath     string     `json:"source_path"`
	Destination    string     `json:"destination,omitempty"`
	Status         Status     `json:"status"`
	Mode           string     `json:"mode"`
	FrameCount     int        `json:"frame_count"`
	FramesAppended int        `json:"frames_appended"`
	DelaySeconds   float64    `json:"delay_seconds"`
	LoopCount      int        `json:"loop_count"`
	ErrorKind      string     `json:"error_kind,omitempty"`
	ErrorMessage   string     `json:"error_message,omitempty"`
	StartedAt      time.Time  `json:"started_at"`
	FinishedAt     *time.Time `json:"finished_at,omitempty"`
}

// Elapsed returns the run time, or zero while the entry is running.
func (e Entry) Elapsed() time.Duration {
	if e.FinishedAt == nil {
		return 0
	}
	return e.FinishedAt.Sub(e.StartedAt)
}
