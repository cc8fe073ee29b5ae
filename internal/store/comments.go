package store

import (
	"fmt"
	"time"
)

// AddComment attaches a note to a task.
func (s *Store) AddComment(taskID, body string) (*Comment, error) {
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.Exec(
		`INSERT INTO comments (task_id, body, created_at) VALUES (?, ?, ?)`,
		taskID, body, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert comment: %w", err)
	}
	id, _ := res.LastInsertId()

	c := &Comment{ID: id, TaskID: taskID, Body: body}
	c.CreatedAt, _ = time.Parse(time.RFC3339, now)
	return c, nil
}

// ListComments returns a task's comments oldest first.
func (s *Store) ListComments(taskID string) ([]Comment, error) {
	rows, err := s.db.Query(
		`SELECT id, task_id, body, created_at FROM comments WHERE task_id = ? ORDER BY id`, taskID,
	)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	var comments []Comment
	for rows.Next() {
		var c Comment
		var createdAt string
		if err := rows.Scan(&c.ID, &c.TaskID, &c.Body, &createdAt); err != nil {
			return nil, err
		}
		c.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// DeleteComment removes one comment by id.
func (s *Store) DeleteComment(id int64) error {
	res, err := s.db.Exec(`DELETE FROM comments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("comment %d not found", id)
	}
	return nil
}

// CountComments returns the number of comments per task id.
func (s *Store) CountComments() (map[string]int, error) {
	rows, err := s.db.Query(`SELECT task_id, COUNT(*) FROM comments GROUP BY task_id`)
	if err != nil {
		return nil, fmt.Errorf("count comments: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		counts[id] = n
	}
	return counts, rows.Err()
}
