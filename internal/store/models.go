package store

import "time"

// EntryRecord is one raw time-entry tuple as stored, used by the stats
// layer's server-side summarization path.
type EntryRecord struct {
	ID         int64
	TaskID     string
	StartMS    int64
	EndMS      *int64
	DurationMS *int64
	CreatedAt  time.Time
}

// Comment is a note attached to a task.
type Comment struct {
	ID        int64
	TaskID    string
	Body      string
	CreatedAt time.Time
}

type Setting struct {
	Key   string
	Value string
}

// DailyStatusSummary is aggregated closed-entry time per day per task
// status, for the reports view.
type DailyStatusSummary struct {
	Date       string
	Status     string
	TotalMS    int64
	EntryCount int
}
