package task

import (
	"errors"
	"testing"
	"time"
)

// ============================================================
// TimeTracking
// ============================================================

func TestStartPauseScenario(t *testing.T) {
	var tt TimeTracking

	tt = tt.Start(1000)
	if !tt.Active || tt.LastStarted != 1000 {
		t.Fatalf("after start: %+v", tt)
	}
	if len(tt.Entries) != 1 || tt.Entries[0].StartTime != 1000 {
		t.Fatalf("entries after start: %+v", tt.Entries)
	}
	if tt.Entries[0].EndTime != nil {
		t.Fatal("open entry should have no end time")
	}

	if got := tt.Elapsed(5000); got != 4000 {
		t.Fatalf("elapsed = %d, want 4000", got)
	}

	tt = tt.Pause(5000)
	if tt.Active {
		t.Fatal("should be inactive after pause")
	}
	if tt.Total != 4000 {
		t.Fatalf("total = %d, want 4000", tt.Total)
	}
	e := tt.Entries[0]
	if e.EndTime == nil || *e.EndTime != 5000 {
		t.Fatalf("entry end = %v, want 5000", e.EndTime)
	}
	if e.Duration == nil || *e.Duration != 4000 {
		t.Fatalf("entry duration = %v, want 4000", e.Duration)
	}
}

func TestStartIdempotent(t *testing.T) {
	var tt TimeTracking
	tt = tt.Start(1000)
	again := tt.Start(2000)

	if len(again.Entries) != 1 {
		t.Fatalf("second start grew entries: %d", len(again.Entries))
	}
	if again.LastStarted != 1000 {
		t.Fatalf("second start moved lastStarted to %d", again.LastStarted)
	}
	if again.Total != tt.Total {
		t.Fatal("second start changed total")
	}
}

func TestPauseWhenInactive(t *testing.T) {
	tt := TimeTracking{Total: 500}
	out := tt.Pause(9999)
	if out.Total != 500 || out.Active || len(out.Entries) != 0 {
		t.Fatalf("pause on inactive account mutated state: %+v", out)
	}
}

func TestElapsedClockSkewClamps(t *testing.T) {
	tt := TimeTracking{Total: 300, Active: true, LastStarted: 10_000}
	if got := tt.Elapsed(9_000); got != 300 {
		t.Fatalf("elapsed with skew = %d, want 300", got)
	}
}

func TestElapsedMonotonic(t *testing.T) {
	var tt TimeTracking
	tt = tt.Start(1000)
	prev := int64(-1)
	for now := int64(1000); now <= 2000; now += 100 {
		got := tt.Elapsed(now)
		if got < prev {
			t.Fatalf("elapsed decreased: %d then %d at %d", prev, got, now)
		}
		prev = got
	}
}

func TestMultipleSessionsAccumulate(t *testing.T) {
	var tt TimeTracking
	tt = tt.Start(0).Pause(100)
	tt = tt.Start(1000).Pause(1250)
	if tt.Total != 350 {
		t.Fatalf("total = %d, want 350", tt.Total)
	}
	if len(tt.Entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(tt.Entries))
	}
}

func TestCloneIsDeep(t *testing.T) {
	end := int64(10)
	tt := TimeTracking{Entries: []TimeEntry{{StartTime: 0, EndTime: &end}}}
	cp := tt.Clone()
	*cp.Entries[0].EndTime = 99
	if *tt.Entries[0].EndTime != 10 {
		t.Fatal("clone shares entry pointers")
	}
}

// ============================================================
// Snapshot
// ============================================================

func at(ms int64) time.Time { return time.UnixMilli(ms) }

func TestSnapshotStartPauseElapsed(t *testing.T) {
	s := NewSnapshot([]Task{{ID: "1", Title: "A", Status: StatusOpen}})

	if err := s.Start("1", at(1000)); err != nil {
		t.Fatal(err)
	}
	got, err := s.Elapsed("1", at(5000))
	if err != nil {
		t.Fatal(err)
	}
	if got != 4000 {
		t.Fatalf("elapsed = %d, want 4000", got)
	}
	if err := s.Pause("1", at(5000)); err != nil {
		t.Fatal(err)
	}
	task, _ := s.Get("1")
	if task.Time.Total != 4000 || task.Time.Active {
		t.Fatalf("after pause: %+v", task.Time)
	}
}

func TestSnapshotNotFound(t *testing.T) {
	s := NewSnapshot(nil)
	if err := s.Start("ghost", at(0)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("start: expected ErrNotFound, got %v", err)
	}
	if err := s.Pause("ghost", at(0)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("pause: expected ErrNotFound, got %v", err)
	}
	if _, err := s.Elapsed("ghost", at(0)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("elapsed: expected ErrNotFound, got %v", err)
	}
	if err := s.SetStatus("ghost", StatusDone); !errors.Is(err, ErrNotFound) {
		t.Fatalf("set status: expected ErrNotFound, got %v", err)
	}
}

func TestSnapshotSetStatusGated(t *testing.T) {
	s := NewSnapshot([]Task{
		{ID: "1", Title: "A", Status: StatusInProgress},
		{ID: "2", Title: "B", ParentID: "1", Status: StatusOpen},
	})

	err := s.SetStatus("1", StatusDone)
	if err == nil {
		t.Fatal("completion with open child should be refused")
	}
	if errors.Is(err, ErrNotFound) {
		t.Fatal("refusal must not look like not-found")
	}
	task, _ := s.Get("1")
	if task.Status != StatusInProgress {
		t.Fatal("refused transition must not change status")
	}

	if err := s.SetStatus("2", StatusDone); err != nil {
		t.Fatal(err)
	}
	if err := s.SetStatus("1", StatusDone); err != nil {
		t.Fatalf("should complete once children are done: %v", err)
	}
}

func TestSnapshotSetParentValidation(t *testing.T) {
	s := NewSnapshot([]Task{
		{ID: "1", Title: "A"},
		{ID: "2", Title: "B", ParentID: "1"},
	})
	if err := s.SetParent("1", "2"); err == nil {
		t.Fatal("cycle should be rejected before rebuild")
	}
	if err := s.SetParent("2", ""); err != nil {
		t.Fatalf("promote to root: %v", err)
	}
	roots := s.Tree()
	if len(roots) != 2 {
		t.Fatalf("expected 2 roots after promote, got %d", len(roots))
	}
}

func TestSnapshotAddValidation(t *testing.T) {
	s := NewSnapshot([]Task{{ID: "1", Title: "A"}})

	if err := s.Add(Task{ID: "2", Title: "  "}); err == nil {
		t.Fatal("empty title should be rejected")
	}
	if err := s.Add(Task{ID: "1", Title: "dup"}); err == nil {
		t.Fatal("duplicate id should be rejected")
	}
	if err := s.Add(Task{ID: "2", Title: "B", ParentID: "ghost"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing parent: expected ErrNotFound, got %v", err)
	}
	if err := s.Add(Task{ID: "2", Title: "B", ParentID: "1"}); err != nil {
		t.Fatal(err)
	}
	task, _ := s.Get("2")
	if task.Status != StatusOpen {
		t.Fatalf("default status = %q, want Open", task.Status)
	}
}

func TestSnapshotRemove(t *testing.T) {
	s := NewSnapshot([]Task{
		{ID: "1", Title: "A"},
		{ID: "2", Title: "B", ParentID: "1"},
	})
	if err := s.Remove("1"); err != nil {
		t.Fatal(err)
	}
	if err := s.Remove("1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("double remove: expected ErrNotFound, got %v", err)
	}
	// Orphaned child is promoted by the next tree build.
	roots := s.Tree()
	if len(roots) != 1 || roots[0].Task.ID != "2" || roots[0].Depth != 0 {
		t.Fatalf("orphan not promoted: %+v", roots)
	}
}

func TestParseStatus(t *testing.T) {
	cases := map[string]Status{
		"Open":        StatusOpen,
		"In Progress": StatusInProgress,
		"Done":        StatusDone,
		"Review":      StatusReview,
		"bogus":       StatusOpen,
		"":            StatusOpen,
		" Done ":      StatusDone,
	}
	for in, want := range cases {
		if got := ParseStatus(in); got != want {
			t.Fatalf("ParseStatus(%q) = %q, want %q", in, got, want)
		}
	}
}
