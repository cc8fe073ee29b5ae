package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/sadopc/treedo/internal/task"
)

type jsonExport struct {
	ExportedAt string     `json:"exported_at"`
	Count      int        `json:"count"`
	Tasks      []jsonTask `json:"tasks"`
}

type jsonTask struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Description string           `json:"description,omitempty"`
	Status      string           `json:"status"`
	ParentID    string           `json:"parent_id,omitempty"`
	ChildIDs    []string         `json:"child_ids,omitempty"`
	CreatedAt   string           `json:"created_at"`
	DueDate     string           `json:"due_date,omitempty"`
	TotalMS     int64            `json:"total_time_ms"`
	Entries     []task.TimeEntry `json:"time_entries,omitempty"`
}

// ToJSON writes tasks to a JSON file at path. Like the CSV path, a
// running session is exported as a provisionally closed entry without
// mutating the input.
func ToJSON(tasks []task.Task, now time.Time, path string) error {
	export := jsonExport{
		ExportedAt: now.UTC().Format(time.RFC3339),
		Count:      len(tasks),
	}

	for _, t := range tasks {
		tt := t.Time.Clone()
		if tt.Active {
			tt = tt.Pause(now.UnixMilli())
		}

		due := ""
		if t.DueDate != nil {
			due = t.DueDate.UTC().Format(time.RFC3339)
		}

		export.Tasks = append(export.Tasks, jsonTask{
			ID:          t.ID,
			Title:       t.Title,
			Description: t.Description,
			Status:      string(t.Status),
			ParentID:    t.ParentID,
			ChildIDs:    task.ChildIDs(t.ID, tasks),
			CreatedAt:   t.CreatedAt.UTC().Format(time.RFC3339),
			DueDate:     due,
			TotalMS:     tt.Total,
			Entries:     tt.Entries,
		})
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}
