package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sadopc/treedo/internal/task"
)

// Result is the outcome of a bulk import. A malformed row never aborts
// the batch; it degrades to a best-effort draft and bumps Defects.
type Result struct {
	Tasks    []task.Task
	Defects  int
	Warnings []string
}

// Summary is the user-facing one-liner for an import ("N rows defaulted"),
// or empty when everything parsed cleanly.
func (r Result) Summary() string {
	if r.Defects == 0 {
		return ""
	}
	if r.Defects == 1 {
		return "1 row could not be fully parsed and was defaulted"
	}
	return fmt.Sprintf("%d rows could not be fully parsed and were defaulted", r.Defects)
}

// FromCSV reads and parses the file at path.
func FromCSV(path string) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("open csv file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return Result{}, fmt.Errorf("read csv: %w", err)
	}
	return FromRows(records), nil
}

// FromRows converts raw rows back into task drafts. A header row is
// skipped when present. Field defects (bad timestamps, non-numeric
// totals, malformed entry JSON) are recovered with safe defaults.
func FromRows(rows [][]string) Result {
	var res Result

	for i, row := range rows {
		if i == 0 && len(row) > 0 && row[0] == "id" {
			continue
		}
		if len(row) == 0 {
			continue
		}

		field := func(idx int) string {
			if idx < len(row) {
				return row[idx]
			}
			return ""
		}

		defect := false
		t := task.Task{
			ID:          field(0),
			Title:       field(1),
			Description: field(2),
			Status:      task.ParseStatus(field(3)),
			ParentID:    field(6),
		}
		if strings.TrimSpace(t.Title) == "" {
			t.Title = "Untitled task"
			defect = true
		}

		if created, err := time.Parse(time.RFC3339, field(4)); err == nil {
			t.CreatedAt = created
		} else if field(4) != "" {
			defect = true
		}
		if raw := field(5); raw != "" {
			if due, err := time.Parse(time.RFC3339, raw); err == nil {
				t.DueDate = &due
			} else {
				defect = true
			}
		}

		total, err := strconv.ParseInt(strings.TrimSpace(field(8)), 10, 64)
		if err != nil || total < 0 {
			if strings.TrimSpace(field(8)) != "" {
				defect = true
			}
			total = 0
		}

		entries, ok := parseEntries(field(9))
		if !ok {
			res.Warnings = append(res.Warnings, fmt.Sprintf("row %d: malformed time entries", i+1))
			defect = true
		}
		t.Time = task.TimeTracking{Total: total, Entries: entries}

		if defect {
			res.Defects++
		}
		res.Tasks = append(res.Tasks, t)
	}
	return res
}

// parseEntries decodes the timeEntries column. It tolerates numbers
// arriving as strings, retries after un-doubling quotes the transport
// layer may have escaped, and closes stale open entries using their own
// stored duration (or 0). ok is false only when the JSON is unusable.
func parseEntries(s string) ([]task.TimeEntry, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s == "[]" {
		return nil, true
	}

	var raw []map[string]any
	if err := json.Unmarshal([]byte(s), &raw); err != nil {
		unescaped := strings.ReplaceAll(s, `""`, `"`)
		if err := json.Unmarshal([]byte(unescaped), &raw); err != nil {
			return nil, false
		}
	}

	var entries []task.TimeEntry
	for _, m := range raw {
		start, _ := toMillis(m["startTime"])
		e := task.TimeEntry{StartTime: start}

		if end, ok := toMillis(m["endTime"]); ok {
			e.EndTime = &end
			dur, ok := toMillis(m["duration"])
			if !ok {
				dur = end - start
				if dur < 0 {
					dur = 0
				}
			}
			e.Duration = &dur
		} else {
			// Stale active entry from a prior export: normalize to a
			// closed one using its stored duration.
			dur, _ := toMillis(m["duration"])
			end := start + dur
			e.EndTime = &end
			e.Duration = &dur
		}
		entries = append(entries, e)
	}
	return entries, true
}

// toMillis coerces a decoded JSON value to integer milliseconds.
func toMillis(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return int64(f), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return int64(f), true
	default:
		return 0, false
	}
}
