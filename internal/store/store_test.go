package store

import (
	"errors"
	"testing"
	"time"

	"github.com/sadopc/treedo/internal/task"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func mkTask(t *testing.T, s *Store, title, parentID string) *task.Task {
	t.Helper()
	created, err := s.CreateTask(task.Task{Title: title, ParentID: parentID})
	if err != nil {
		t.Fatalf("create task %q: %v", title, err)
	}
	return created
}

func ms(v int64) *int64 { return &v }

// ============================================================
// Store initialization
// ============================================================

func TestNewMemory(t *testing.T) {
	s, err := NewMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	var version int
	s.db.QueryRow("PRAGMA user_version").Scan(&version)
	if version != 1 {
		t.Fatalf("expected user_version 1, got %d", version)
	}
}

func TestNewWithPath(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/sub/treedo.db"
	s, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	s.Close()

	// Reopen — should succeed and not re-migrate
	s2, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	s2.Close()
}

func TestDefaultDBPath(t *testing.T) {
	path, err := DefaultDBPath()
	if err != nil {
		t.Fatal(err)
	}
	if path == "" {
		t.Fatal("empty path")
	}
}

func TestMigrationIdempotent(t *testing.T) {
	s := newTestStore(t)
	if err := s.migrate(); err != nil {
		t.Fatalf("second migration failed: %v", err)
	}
}

// ============================================================
// Tasks
// ============================================================

func TestCreateAndGetTask(t *testing.T) {
	s := newTestStore(t)
	created := mkTask(t, s, "Write spec", "")

	if created.ID == "" {
		t.Fatal("expected generated id")
	}
	if created.Status != task.StatusOpen {
		t.Fatalf("default status = %q", created.Status)
	}
	if created.CreatedAt.IsZero() {
		t.Fatal("CreatedAt should be set")
	}

	got, err := s.GetTask(created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "Write spec" {
		t.Fatalf("title = %q", got.Title)
	}
}

func TestCreateTaskKeepsGivenID(t *testing.T) {
	s := newTestStore(t)
	created, err := s.CreateTask(task.Task{ID: "fixed", Title: "A"})
	if err != nil {
		t.Fatal(err)
	}
	if created.ID != "fixed" {
		t.Fatalf("id = %q", created.ID)
	}
}

func TestGetTaskNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetTask("ghost")
	if !errors.Is(err, task.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListTasksWithParents(t *testing.T) {
	s := newTestStore(t)
	root := mkTask(t, s, "Root", "")
	child := mkTask(t, s, "Child", root.ID)

	tasks, err := s.ListTasks(nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(tasks) != 2 {
		t.Fatalf("tasks = %d, want 2", len(tasks))
	}

	roots := task.BuildTree(tasks)
	if len(roots) != 1 {
		t.Fatalf("roots = %d, want 1", len(roots))
	}
	if len(roots[0].Children) != 1 || roots[0].Children[0].Task.ID != child.ID {
		t.Fatalf("tree: %+v", roots[0])
	}
}

func TestListTasksStatusFilter(t *testing.T) {
	s := newTestStore(t)
	a := mkTask(t, s, "A", "")
	mkTask(t, s, "B", "")
	if err := s.SetTaskStatus(a.ID, task.StatusDone); err != nil {
		t.Fatal(err)
	}

	done := task.StatusDone
	tasks, err := s.ListTasks(&done)
	if err != nil {
		t.Fatal(err)
	}
	if len(tasks) != 1 || tasks[0].ID != a.ID {
		t.Fatalf("filtered tasks: %+v", tasks)
	}
}

func TestUpdateTask(t *testing.T) {
	s := newTestStore(t)
	created := mkTask(t, s, "Old", "")

	due := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	if err := s.UpdateTask(created.ID, "New", "desc", &due); err != nil {
		t.Fatal(err)
	}
	got, _ := s.GetTask(created.ID)
	if got.Title != "New" || got.Description != "desc" {
		t.Fatalf("updated task: %+v", got)
	}
	if got.DueDate == nil || !got.DueDate.Equal(due) {
		t.Fatalf("due = %v", got.DueDate)
	}

	if err := s.UpdateTask("ghost", "x", "", nil); !errors.Is(err, task.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSetTaskParentAndPromote(t *testing.T) {
	s := newTestStore(t)
	a := mkTask(t, s, "A", "")
	b := mkTask(t, s, "B", "")

	if err := s.SetTaskParent(b.ID, a.ID); err != nil {
		t.Fatal(err)
	}
	got, _ := s.GetTask(b.ID)
	if got.ParentID != a.ID {
		t.Fatalf("parent = %q", got.ParentID)
	}

	if err := s.SetTaskParent(b.ID, ""); err != nil {
		t.Fatal(err)
	}
	got, _ = s.GetTask(b.ID)
	if got.ParentID != "" {
		t.Fatalf("parent after promote = %q", got.ParentID)
	}
}

func TestDeleteTaskCascades(t *testing.T) {
	s := newTestStore(t)
	root := mkTask(t, s, "Root", "")
	child := mkTask(t, s, "Child", root.ID)
	if err := s.SaveTimeTracking(child.ID, task.TimeTracking{
		Total:   100,
		Entries: []task.TimeEntry{{StartTime: 0, EndTime: ms(100), Duration: ms(100)}},
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddComment(child.ID, "note"); err != nil {
		t.Fatal(err)
	}

	if err := s.DeleteTask(root.ID); err != nil {
		t.Fatal(err)
	}

	if _, err := s.GetTask(child.ID); !errors.Is(err, task.ErrNotFound) {
		t.Fatalf("child should cascade, got %v", err)
	}
	entries, _ := s.EntriesBetween(time.UnixMilli(0), time.UnixMilli(10_000))
	if len(entries) != 0 {
		t.Fatalf("entries should cascade, got %d", len(entries))
	}
	comments, _ := s.ListComments(child.ID)
	if len(comments) != 0 {
		t.Fatalf("comments should cascade, got %d", len(comments))
	}
}

func TestDeleteTaskNotFound(t *testing.T) {
	s := newTestStore(t)
	if err := s.DeleteTask("ghost"); !errors.Is(err, task.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// ============================================================
// Time tracking persistence
// ============================================================

func TestSaveAndLoadTimeTracking(t *testing.T) {
	s := newTestStore(t)
	created := mkTask(t, s, "Tracked", "")

	tt := task.TimeTracking{
		Total:       4000,
		Active:      true,
		LastStarted: 5000,
		Entries: []task.TimeEntry{
			{StartTime: 0, EndTime: ms(4000), Duration: ms(4000)},
			{StartTime: 5000},
		},
	}
	if err := s.SaveTimeTracking(created.ID, tt); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetTask(created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Time.Total != 4000 || !got.Time.Active || got.Time.LastStarted != 5000 {
		t.Fatalf("time tracking: %+v", got.Time)
	}
	if len(got.Time.Entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(got.Time.Entries))
	}
	if got.Time.Entries[1].EndTime != nil {
		t.Fatal("open entry should stay open")
	}
}

func TestSaveTimeTrackingRewritesEntries(t *testing.T) {
	s := newTestStore(t)
	created := mkTask(t, s, "Tracked", "")

	s.SaveTimeTracking(created.ID, task.TimeTracking{
		Entries: []task.TimeEntry{{StartTime: 0, EndTime: ms(10), Duration: ms(10)}},
	})
	s.SaveTimeTracking(created.ID, task.TimeTracking{
		Total:   50,
		Entries: []task.TimeEntry{{StartTime: 100, EndTime: ms(150), Duration: ms(50)}},
	})

	got, _ := s.GetTask(created.ID)
	if len(got.Time.Entries) != 1 || got.Time.Entries[0].StartTime != 100 {
		t.Fatalf("entries not rewritten: %+v", got.Time.Entries)
	}
}

func TestSaveTimeTrackingNotFound(t *testing.T) {
	s := newTestStore(t)
	err := s.SaveTimeTracking("ghost", task.TimeTracking{})
	if !errors.Is(err, task.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// ============================================================
// Entry windows and summaries
// ============================================================

func TestEntriesBetweenFiltersOnStart(t *testing.T) {
	s := newTestStore(t)
	a := mkTask(t, s, "A", "")
	s.SaveTimeTracking(a.ID, task.TimeTracking{Entries: []task.TimeEntry{
		{StartTime: 500, EndTime: ms(5000), Duration: ms(4500)}, // starts in window, runs past
		{StartTime: 2000, EndTime: ms(2500), Duration: ms(500)}, // starts after window
	}})

	entries, err := s.EntriesBetween(time.UnixMilli(0), time.UnixMilli(1000))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	if entries[0].StartMS != 500 || *entries[0].EndMS != 5000 {
		t.Fatalf("entry = %+v (should not be clipped)", entries[0])
	}
}

func TestDailyStatusSummary(t *testing.T) {
	s := newTestStore(t)
	a := mkTask(t, s, "A", "")
	b := mkTask(t, s, "B", "")
	s.SetTaskStatus(b.ID, task.StatusDone)

	day := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC).UnixMilli()
	s.SaveTimeTracking(a.ID, task.TimeTracking{Entries: []task.TimeEntry{
		{StartTime: day, EndTime: ms(day + 1000), Duration: ms(1000)},
		{StartTime: day + 2000}, // open entry excluded
	}})
	s.SaveTimeTracking(b.ID, task.TimeTracking{Entries: []task.TimeEntry{
		{StartTime: day + 5000, EndTime: ms(day + 7000), Duration: ms(2000)},
	}})

	from := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	summaries, err := s.GetDailyStatusSummary(from, from.Add(24*time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if len(summaries) != 2 {
		t.Fatalf("summaries = %+v", summaries)
	}
	byStatus := map[string]int64{}
	for _, ds := range summaries {
		if ds.Date != "2026-03-10" {
			t.Fatalf("date = %q", ds.Date)
		}
		byStatus[ds.Status] = ds.TotalMS
	}
	if byStatus["Open"] != 1000 || byStatus["Done"] != 2000 {
		t.Fatalf("totals = %v", byStatus)
	}
}

// ============================================================
// Comments
// ============================================================

func TestComments(t *testing.T) {
	s := newTestStore(t)
	a := mkTask(t, s, "A", "")

	c1, err := s.AddComment(a.ID, "first")
	if err != nil {
		t.Fatal(err)
	}
	s.AddComment(a.ID, "second")

	comments, err := s.ListComments(a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(comments) != 2 || comments[0].Body != "first" {
		t.Fatalf("comments: %+v", comments)
	}

	counts, err := s.CountComments()
	if err != nil {
		t.Fatal(err)
	}
	if counts[a.ID] != 2 {
		t.Fatalf("count = %d, want 2", counts[a.ID])
	}

	if err := s.DeleteComment(c1.ID); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteComment(c1.ID); err == nil {
		t.Fatal("double delete should fail")
	}
}

// ============================================================
// Settings
// ============================================================

func TestSettingsDefaults(t *testing.T) {
	s := newTestStore(t)
	v, err := s.GetSetting("week_start")
	if err != nil {
		t.Fatal(err)
	}
	if v != "monday" {
		t.Fatalf("week_start = %q", v)
	}
	if goal := s.GetSettingInt("daily_goal", 0); goal != 28800000 {
		t.Fatalf("daily_goal = %d", goal)
	}
}

func TestSetSettingUpsert(t *testing.T) {
	s := newTestStore(t)
	if err := s.SetSetting("week_start", "sunday"); err != nil {
		t.Fatal(err)
	}
	v, _ := s.GetSetting("week_start")
	if v != "sunday" {
		t.Fatalf("week_start = %q", v)
	}

	if got := s.GetSettingInt("week_start", 7); got != 7 {
		t.Fatalf("non-numeric setting should fall back, got %d", got)
	}

	all, err := s.GetAllSettings()
	if err != nil {
		t.Fatal(err)
	}
	if len(all) < 3 {
		t.Fatalf("settings = %+v", all)
	}
}
