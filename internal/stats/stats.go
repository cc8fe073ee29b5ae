// Package stats aggregates tracked time per task over a date window. Two
// paths produce the same shape: Summarize consumes raw entry tuples from
// the store, FromTasks derives the same totals from each task's embedded
// time account when raw entries are unavailable.
package stats

import (
	"time"

	"github.com/sadopc/treedo/internal/task"
)

// Window is a half-open interval [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

// Day returns the window covering the calendar day of t in UTC.
func Day(t time.Time) Window {
	t = t.UTC()
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return Window{Start: start, End: start.Add(24 * time.Hour)}
}

// Contains reports whether t falls inside the window. The filter is on an
// entry's start time only; entries straddling the boundary are attributed
// whole, matching the store's start_time range query.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Entry is one raw time-entry tuple as supplied by the store.
type Entry struct {
	TaskID    string
	StartTime time.Time
	EndTime   *time.Time
}

// Row is the task-joined reporting view.
type Row struct {
	ID        string
	Title     string
	Status    task.Status
	TimeSpent int64 // ms
}

// Summarize groups raw entries by task id. An entry still open at
// aggregation time is measured against now, not the window end.
func Summarize(entries []Entry, w Window, now time.Time) map[string]int64 {
	totals := make(map[string]int64)
	for _, e := range entries {
		if !w.Contains(e.StartTime) {
			continue
		}
		end := now
		if e.EndTime != nil {
			end = *e.EndTime
		}
		dur := end.Sub(e.StartTime).Milliseconds()
		if dur < 0 {
			dur = 0
		}
		totals[e.TaskID] += dur
	}
	return totals
}

// FromTasks is the local fallback path: it derives the same totals from
// each task's embedded entries.
func FromTasks(tasks []task.Task, w Window, now time.Time) map[string]int64 {
	totals := make(map[string]int64)
	for _, t := range tasks {
		for _, e := range t.Time.Entries {
			start := time.UnixMilli(e.StartTime)
			if !w.Contains(start) {
				continue
			}
			var dur int64
			switch {
			case e.EndTime != nil:
				dur = *e.EndTime - e.StartTime
			default:
				dur = now.UnixMilli() - e.StartTime
			}
			if dur < 0 {
				dur = 0
			}
			totals[t.ID] += dur
		}
	}
	return totals
}

// Join attaches titles and statuses to a totals map, preserving task
// order. Ids with no matching task are dropped from the view.
func Join(totals map[string]int64, tasks []task.Task) []Row {
	var rows []Row
	for _, t := range tasks {
		dur, ok := totals[t.ID]
		if !ok {
			continue
		}
		rows = append(rows, Row{ID: t.ID, Title: t.Title, Status: t.Status, TimeSpent: dur})
	}
	return rows
}

// ByStatus folds joined rows into per-status totals for reporting.
func ByStatus(rows []Row) map[task.Status]int64 {
	out := make(map[task.Status]int64)
	for _, r := range rows {
		out[r.Status] += r.TimeSpent
	}
	return out
}
