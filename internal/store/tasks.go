package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sadopc/treedo/internal/task"
)

// CreateTask inserts a new task. An empty id gets a fresh UUID; an empty
// status falls back to Open. The inserted task is returned re-read.
func (s *Store) CreateTask(t task.Task) (*task.Task, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Status == "" {
		t.Status = task.StatusOpen
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}

	var parent any
	if t.ParentID != "" {
		parent = t.ParentID
	}
	var due any
	if t.DueDate != nil {
		due = t.DueDate.UTC().Format(time.RFC3339)
	}

	_, err := s.db.Exec(
		`INSERT INTO tasks (id, title, description, status, parent_id, created_at, due_date, total_ms, is_active, last_started_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Title, t.Description, string(t.Status), parent,
		t.CreatedAt.UTC().Format(time.RFC3339), due,
		t.Time.Total, boolInt(t.Time.Active), t.Time.LastStarted,
	)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}

	if len(t.Time.Entries) > 0 {
		if err := s.insertEntries(t.ID, t.Time.Entries); err != nil {
			return nil, err
		}
	}
	return s.GetTask(t.ID)
}

// GetTask retrieves one task with its time entries hydrated. A missing id
// is reported as task.ErrNotFound.
func (s *Store) GetTask(id string) (*task.Task, error) {
	row := s.db.QueryRow(
		`SELECT id, title, description, status, parent_id, created_at, due_date, total_ms, is_active, last_started_ms
		 FROM tasks WHERE id = ?`, id,
	)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("task %s: %w", id, task.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get task %s: %w", id, err)
	}

	entries, err := s.entriesForTask(id)
	if err != nil {
		return nil, err
	}
	t.Time.Entries = entries
	return t, nil
}

// ListTasks returns all tasks in creation order, optionally filtered by
// status, with their time entries hydrated.
func (s *Store) ListTasks(status *task.Status) ([]task.Task, error) {
	query := `SELECT id, title, description, status, parent_id, created_at, due_date, total_ms, is_active, last_started_ms
	          FROM tasks`
	var args []any
	if status != nil {
		query += ` WHERE status = ?`
		args = append(args, string(*status))
	}
	query += ` ORDER BY created_at, id`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []task.Task
	index := make(map[string]int)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		index[t.ID] = len(tasks)
		tasks = append(tasks, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	erows, err := s.db.Query(
		`SELECT task_id, start_ms, end_ms, duration_ms FROM time_entries ORDER BY task_id, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer erows.Close()

	for erows.Next() {
		var taskID string
		var e task.TimeEntry
		var end, dur sql.NullInt64
		if err := erows.Scan(&taskID, &e.StartTime, &end, &dur); err != nil {
			return nil, err
		}
		if end.Valid {
			e.EndTime = &end.Int64
		}
		if dur.Valid {
			e.Duration = &dur.Int64
		}
		if i, ok := index[taskID]; ok {
			tasks[i].Time.Entries = append(tasks[i].Time.Entries, e)
		}
	}
	return tasks, erows.Err()
}

// UpdateTask rewrites a task's editable fields.
func (s *Store) UpdateTask(id, title, description string, due *time.Time) error {
	var dueVal any
	if due != nil {
		dueVal = due.UTC().Format(time.RFC3339)
	}
	res, err := s.db.Exec(
		`UPDATE tasks SET title = ?, description = ?, due_date = ? WHERE id = ?`,
		title, description, dueVal, id,
	)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return requireRow(res, id)
}

// SetTaskStatus stores a status value. Completion gating happens in the
// snapshot layer before this is called.
func (s *Store) SetTaskStatus(id string, status task.Status) error {
	res, err := s.db.Exec(`UPDATE tasks SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return fmt.Errorf("set status: %w", err)
	}
	return requireRow(res, id)
}

// SetTaskParent re-parents a task; empty parentID promotes it to a root.
// Cycle validation happens in the snapshot layer before this is called.
func (s *Store) SetTaskParent(id, parentID string) error {
	var parent any
	if parentID != "" {
		parent = parentID
	}
	res, err := s.db.Exec(`UPDATE tasks SET parent_id = ? WHERE id = ?`, parent, id)
	if err != nil {
		return fmt.Errorf("set parent: %w", err)
	}
	return requireRow(res, id)
}

// DeleteTask removes a task. Children, entries and comments cascade via
// foreign keys.
func (s *Store) DeleteTask(id string) error {
	res, err := s.db.Exec(`DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return requireRow(res, id)
}

// SaveTimeTracking persists a task's full time account: the aggregate
// columns on the task row plus a rewrite of its entry rows, in one
// transaction.
func (s *Store) SaveTimeTracking(id string, tt task.TimeTracking) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`UPDATE tasks SET total_ms = ?, is_active = ?, last_started_ms = ? WHERE id = ?`,
		tt.Total, boolInt(tt.Active), tt.LastStarted, id,
	)
	if err != nil {
		return fmt.Errorf("save time tracking: %w", err)
	}
	if err := requireRow(res, id); err != nil {
		return err
	}

	if _, err := tx.Exec(`DELETE FROM time_entries WHERE task_id = ?`, id); err != nil {
		return fmt.Errorf("clear entries: %w", err)
	}
	for _, e := range tt.Entries {
		if _, err := tx.Exec(
			`INSERT INTO time_entries (task_id, start_ms, end_ms, duration_ms) VALUES (?, ?, ?, ?)`,
			id, e.StartTime, nullable(e.EndTime), nullable(e.Duration),
		); err != nil {
			return fmt.Errorf("insert entry: %w", err)
		}
	}
	return tx.Commit()
}

func (s *Store) insertEntries(id string, entries []task.TimeEntry) error {
	for _, e := range entries {
		if _, err := s.db.Exec(
			`INSERT INTO time_entries (task_id, start_ms, end_ms, duration_ms) VALUES (?, ?, ?, ?)`,
			id, e.StartTime, nullable(e.EndTime), nullable(e.Duration),
		); err != nil {
			return fmt.Errorf("insert entry: %w", err)
		}
	}
	return nil
}

func (s *Store) entriesForTask(id string) ([]task.TimeEntry, error) {
	rows, err := s.db.Query(
		`SELECT start_ms, end_ms, duration_ms FROM time_entries WHERE task_id = ? ORDER BY id`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("entries for %s: %w", id, err)
	}
	defer rows.Close()

	var entries []task.TimeEntry
	for rows.Next() {
		var e task.TimeEntry
		var end, dur sql.NullInt64
		if err := rows.Scan(&e.StartTime, &end, &dur); err != nil {
			return nil, err
		}
		if end.Valid {
			e.EndTime = &end.Int64
		}
		if dur.Valid {
			e.Duration = &dur.Int64
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanTask hydrates a task row. Missing optional fields coerce to safe
// defaults; only a missing row propagates as an error.
func scanTask(row rowScanner) (*task.Task, error) {
	t := &task.Task{}
	var status string
	var parent, createdAt, due sql.NullString
	var active int

	err := row.Scan(&t.ID, &t.Title, &t.Description, &status, &parent,
		&createdAt, &due, &t.Time.Total, &active, &t.Time.LastStarted)
	if err != nil {
		return nil, err
	}

	t.Status = task.ParseStatus(status)
	t.Time.Active = active == 1
	if parent.Valid {
		t.ParentID = parent.String
	}
	if createdAt.Valid {
		t.CreatedAt, _ = time.Parse(time.RFC3339, createdAt.String)
	}
	if due.Valid && due.String != "" {
		if d, err := time.Parse(time.RFC3339, due.String); err == nil {
			t.DueDate = &d
		}
	}
	return t, nil
}

func requireRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("task %s: %w", id, task.ErrNotFound)
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullable(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}
