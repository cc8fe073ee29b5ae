package task

import (
	"errors"
	"fmt"
)

// ErrNotFound reports an operation against a task id absent from the
// current snapshot. Callers must not conflate it with validation errors.
var ErrNotFound = errors.New("task not found")

// CanComplete reports whether id may transition to Done: every direct
// child must already be Done. A task with no children always may.
func CanComplete(id string, tasks []Task) bool {
	for _, t := range tasks {
		if t.ParentID == id && t.ID != id && t.Status != StatusDone {
			return false
		}
	}
	return true
}

// CheckComplete is CanComplete with a user-facing refusal: it returns nil
// when the transition is allowed, or an error naming how many subtasks are
// still open.
func CheckComplete(id string, tasks []Task) error {
	open := 0
	for _, t := range tasks {
		if t.ParentID == id && t.ID != id && t.Status != StatusDone {
			open++
		}
	}
	if open == 1 {
		return fmt.Errorf("cannot complete: 1 open subtask")
	}
	if open > 0 {
		return fmt.Errorf("cannot complete: %d open subtasks", open)
	}
	return nil
}

// ValidateParent rejects a re-parenting that would make id its own
// ancestor. It runs before any tree rebuild; cycle prevention is a
// precondition, not post-hoc detection.
func ValidateParent(id, parentID string, tasks []Task) error {
	if parentID == "" {
		return nil
	}
	if parentID == id {
		return fmt.Errorf("task cannot be its own parent")
	}

	byID := make(map[string]Task, len(tasks))
	for _, t := range tasks {
		if _, ok := byID[t.ID]; !ok {
			byID[t.ID] = t
		}
	}
	if _, ok := byID[parentID]; !ok {
		return fmt.Errorf("parent %s: %w", parentID, ErrNotFound)
	}

	// Walk up from the proposed parent; hitting id means parentID is a
	// descendant of id.
	seen := make(map[string]bool)
	cur := parentID
	for cur != "" && !seen[cur] {
		seen[cur] = true
		t, ok := byID[cur]
		if !ok {
			break
		}
		if t.ParentID == id {
			return fmt.Errorf("task cannot be moved under its own subtask")
		}
		cur = t.ParentID
	}
	return nil
}
