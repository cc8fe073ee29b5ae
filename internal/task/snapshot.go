package task

import (
	"fmt"
	"strings"
	"time"
)

// Snapshot is the caller-owned in-memory state for one batch of tasks:
// a canonical task-by-id map plus insertion order. The tree view is
// regenerated from it after every mutation, never stored.
type Snapshot struct {
	byID  map[string]*Task
	order []string
}

// NewSnapshot builds a snapshot from a flat task list. Duplicate ids keep
// the first occurrence.
func NewSnapshot(tasks []Task) *Snapshot {
	s := &Snapshot{byID: make(map[string]*Task, len(tasks))}
	for _, t := range tasks {
		if _, ok := s.byID[t.ID]; ok {
			continue
		}
		cp := t
		s.byID[t.ID] = &cp
		s.order = append(s.order, t.ID)
	}
	return s
}

func (s *Snapshot) Len() int { return len(s.order) }

// Get returns the task for id or ErrNotFound.
func (s *Snapshot) Get(id string) (Task, error) {
	t, ok := s.byID[id]
	if !ok {
		return Task{}, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return *t, nil
}

// Tasks returns the tasks in insertion order.
func (s *Snapshot) Tasks() []Task {
	out := make([]Task, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.byID[id])
	}
	return out
}

// Tree regenerates the forest view.
func (s *Snapshot) Tree() []*Node {
	return BuildTree(s.Tasks())
}

// Add validates and inserts a new task.
func (s *Snapshot) Add(t Task) error {
	if strings.TrimSpace(t.Title) == "" {
		return fmt.Errorf("title must not be empty")
	}
	if _, ok := s.byID[t.ID]; ok {
		return fmt.Errorf("duplicate task id %s", t.ID)
	}
	if t.ParentID != "" {
		if _, ok := s.byID[t.ParentID]; !ok {
			return fmt.Errorf("parent %s: %w", t.ParentID, ErrNotFound)
		}
	}
	if t.Status == "" {
		t.Status = StatusOpen
	}
	cp := t
	s.byID[t.ID] = &cp
	s.order = append(s.order, t.ID)
	return nil
}

// Remove drops a task. Child rows are cascaded by the persistence layer;
// here any remaining children are left to be promoted by the next Tree call.
func (s *Snapshot) Remove(id string) error {
	if _, ok := s.byID[id]; !ok {
		return fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	delete(s.byID, id)
	for i, o := range s.order {
		if o == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// SetStatus transitions a task, gating Done behind CheckComplete.
func (s *Snapshot) SetStatus(id string, status Status) error {
	t, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	if status == StatusDone {
		if err := CheckComplete(id, s.Tasks()); err != nil {
			return err
		}
	}
	t.Status = status
	return nil
}

// SetParent re-parents a task after cycle validation. An empty parentID
// promotes the task to a root.
func (s *Snapshot) SetParent(id, parentID string) error {
	t, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	if err := ValidateParent(id, parentID, s.Tasks()); err != nil {
		return err
	}
	t.ParentID = parentID
	return nil
}

// Start opens a tracking session on id.
func (s *Snapshot) Start(id string, now time.Time) error {
	t, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	t.Time = t.Time.Start(now.UnixMilli())
	return nil
}

// Pause closes the open session on id, if any.
func (s *Snapshot) Pause(id string, now time.Time) error {
	t, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	t.Time = t.Time.Pause(now.UnixMilli())
	return nil
}

// Elapsed returns the live elapsed ms for id.
func (s *Snapshot) Elapsed(id string, now time.Time) (int64, error) {
	t, ok := s.byID[id]
	if !ok {
		return 0, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return t.Time.Elapsed(now.UnixMilli()), nil
}
