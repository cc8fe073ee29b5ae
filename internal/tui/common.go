package tui

import (
	"fmt"
	"time"

	"github.com/sadopc/treedo/internal/task"
)

// viewState represents the currently active view.
type viewState int

const (
	viewTasks viewState = iota
	viewReports
	viewSettings
)

var viewNames = []string{"Tasks", "Reports", "Settings"}

// --- Messages ---

type tasksLoadedMsg struct {
	tasks    []task.Task
	comments map[string]int
}

type timerStartedMsg struct {
	taskID string
}

type timerPausedMsg struct {
	taskID string
}

type statusMsg struct {
	text    string
	isError bool
}

type tickMsg time.Time

type exportDoneMsg struct {
	path string
}

type importDoneMsg struct {
	count   int
	summary string
}

// --- Helpers ---

func formatMillis(ms int64) string {
	secs := ms / 1000
	h := secs / 3600
	m := (secs % 3600) / 60
	s := secs % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func formatHoursMillis(ms int64) string {
	return fmt.Sprintf("%.1fh", float64(ms)/3600000)
}

func statusGlyph(st task.Status) string {
	switch st {
	case task.StatusDone:
		return "✓"
	case task.StatusInProgress:
		return "◐"
	case task.StatusReview:
		return "◎"
	default:
		return "○"
	}
}

func errStatus(err error) statusMsg {
	return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
}
