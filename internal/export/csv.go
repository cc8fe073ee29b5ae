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

// Header is the column layout of the tabular format. childIds is derived
// and recomputed on export; timeEntries holds the entry list as JSON.
var Header = []string{
	"id", "title", "description", "status", "createdAt",
	"dueDate", "parentId", "childIds", "totalTimeSpent", "timeEntries",
}

// Rows flattens tasks into export rows. A currently running session is
// materialized as a synthetic closed entry ending at now, and its
// provisional duration folded into the exported total; the input tasks
// are never mutated.
func Rows(tasks []task.Task, now time.Time) ([][]string, error) {
	rows := make([][]string, 0, len(tasks))
	for _, t := range tasks {
		tt := t.Time.Clone()
		if tt.Active {
			tt = tt.Pause(now.UnixMilli())
		}

		entriesJSON := "[]"
		if len(tt.Entries) > 0 {
			b, err := json.Marshal(tt.Entries)
			if err != nil {
				return nil, fmt.Errorf("marshal entries for %s: %w", t.ID, err)
			}
			entriesJSON = string(b)
		}

		due := ""
		if t.DueDate != nil {
			due = t.DueDate.UTC().Format(time.RFC3339)
		}

		rows = append(rows, []string{
			t.ID,
			t.Title,
			t.Description,
			string(t.Status),
			t.CreatedAt.UTC().Format(time.RFC3339),
			due,
			t.ParentID,
			strings.Join(task.ChildIDs(t.ID, tasks), ";"),
			strconv.FormatInt(tt.Total, 10),
			entriesJSON,
		})
	}
	return rows, nil
}

// ToCSV writes tasks to a CSV file at path.
func ToCSV(tasks []task.Task, now time.Time, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write(Header); err != nil {
		return err
	}
	rows, err := Rows(tasks, now)
	if err != nil {
		return err
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Error()
}
