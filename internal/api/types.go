package api

import (
	"time"

	"regift/internal/history"
)

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// ConversionRequest is the POST /v1/conversions body. Omitted sampling
// fields fall back to the configured frame count; an omitted loop_count
// falls back to the configured loop count.
type ConversionRequest struct {
	Source            string    `json:"source"`
	Destination       string    `json:"destination,omitempty"`
	FrameCount        int       `json:"frame_count,omitempty"`
	DelaySeconds      float64   `json:"delay_seconds,omitempty"`
	StartSeconds      float64   `json:"start_seconds,omitempty"`
	DurationSeconds   float64   `json:"duration_seconds,omitempty"`
	FrameRate         int       `json:"frame_rate,omitempty"`
	TimePointsSeconds []float64 `json:"time_points_seconds,omitempty"`
	LoopCount         *int      `json:"loop_count,omitempty"`
	MaxPixelSize      int       `json:"max_pixel_size,omitempty"`
	TimeoutSeconds    float64   `json:"timeout_seconds,omitempty"`
}

// ConversionResponse is returned for a successful conversion.
type ConversionResponse struct {
	Destination string `json:"destination"`
	ElapsedMS   int64  `json:"elapsed_ms"`
}

// ErrorResponse carries a failure message and its error kind.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// HistoryEntry describes a stored conversion in a transport-friendly format.
type HistoryEntry struct {
	ID             string  `json:"id"`
	Source         string  `json:"source"`
	Destination    string  `json:"destination,omitempty"`
	Status         string  `json:"status"`
	Mode           string  `json:"mode"`
	FrameCount     int     `json:"frame_count"`
	FramesAppended int     `json:"frames_appended"`
	DelaySeconds   float64 `json:"delay_seconds"`
	LoopCount      int     `json:"loop_count"`
	ErrorKind      string  `json:"error_kind,omitempty"`
	ErrorMessage   string  `json:"error_message,omitempty"`
	StartedAt      string  `json:"started_at"`
	FinishedAt     string  `json:"finished_at,omitempty"`
	ElapsedMS      int64   `json:"elapsed_ms,omitempty"`
}

// HistoryListResponse wraps a history listing.
type HistoryListResponse struct {
	Items []HistoryEntry `json:"items"`
}

// FromHistoryEntry converts a stored entry to its API representation.
func FromHistoryEntry(e history.Entry) HistoryEntry {
	dto := HistoryEntry{
		ID:             e.ID,
		Source:         e.SourcePath,
		Destination:    e.Destination,
		Status:         string(e.Status),
		Mode:           e.Mode,
		FrameCount:     e.FrameCount,
		FramesAppended: e.FramesAppended,
		DelaySeconds:   e.DelaySeconds,
		LoopCount:      e.LoopCount,
		ErrorKind:      e.ErrorKind,
		ErrorMessage:   e.ErrorMessage,
	}
	if !e.StartedAt.IsZero() {
		dto.StartedAt = e.StartedAt.UTC().Format(dateTimeFormat)
	}
	if e.FinishedAt != nil {
		dto.FinishedAt = e.FinishedAt.UTC().Format(dateTimeFormat)
		dto.ElapsedMS = e.Elapsed().Milliseconds()
	}
	return dto
}

// FromHistoryEntries converts a slice, never returning nil.
func FromHistoryEntries(entries []history.Entry) []HistoryEntry {
	out := make([]HistoryEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, FromHistoryEntry(e))
	}
	return out
}

func secondsToDuration(seconds float64) time.Duration {
	if seconds <= 0 {
		return 0
	}
	return time.Duration(seconds * float64(time.Second))
}
