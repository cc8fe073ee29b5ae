package task

import (
	"strings"
	"time"
)

// Status is the lifecycle state of a task.
type Status string

const (
	StatusOpen       Status = "Open"
	StatusInProgress Status = "In Progress"
	StatusDone       Status = "Done"

	// StatusReview appears in some saved data but is display-only;
	// the engine never transitions a task into it.
	StatusReview Status = "Review"
)

// ParseStatus maps a stored string to a Status. Unknown values fall back
// to Open rather than failing hydration.
func ParseStatus(s string) Status {
	switch Status(strings.TrimSpace(s)) {
	case StatusOpen, StatusInProgress, StatusDone, StatusReview:
		return Status(strings.TrimSpace(s))
	}
	return StatusOpen
}

type Task struct {
	ID          string
	Title       string
	Description string
	Status      Status
	ParentID    string // empty means root
	CreatedAt   time.Time
	DueDate     *time.Time
	Time        TimeTracking
}

// TimeEntry is one contiguous start->stop tracking session. All fields are
// integer milliseconds; EndTime and Duration are absent while the session
// is still open.
type TimeEntry struct {
	StartTime int64  `json:"startTime"`
	EndTime   *int64 `json:"endTime,omitempty"`
	Duration  *int64 `json:"duration,omitempty"`
}

// TimeTracking is the per-task time account. Total holds only closed
// sessions; a live reading adds now-LastStarted while Active.
type TimeTracking struct {
	Total       int64 // ms
	Active      bool
	LastStarted int64 // epoch ms, meaningful only while Active
	Entries     []TimeEntry
}

// Clone returns a deep copy so read-only consumers (export, stats) can
// materialize provisional state without touching the live task.
func (tt TimeTracking) Clone() TimeTracking {
	out := tt
	out.Entries = make([]TimeEntry, len(tt.Entries))
	for i, e := range tt.Entries {
		out.Entries[i] = e
		if e.EndTime != nil {
			v := *e.EndTime
			out.Entries[i].EndTime = &v
		}
		if e.Duration != nil {
			v := *e.Duration
			out.Entries[i].Duration = &v
		}
	}
	return out
}
