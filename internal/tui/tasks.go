package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/treedo/internal/store"
	"github.com/sadopc/treedo/internal/task"
)

// tasksModel owns the task snapshot and the tree view. Every mutation
// goes through the snapshot first (which enforces completion gating and
// cycle prevention) and is persisted only when the snapshot accepts it.
type tasksModel struct {
	store  *store.Store
	width  int
	height int

	snapshot *task.Snapshot
	rows     []*task.Node // flattened tree in display order
	comments map[string]int
	cursor   int

	formActive bool
	form       *huh.Form
	formType   string // "new", "subtask", "edit", "comment"

	// Form field pointers (survive value copies)
	formTitle  *string
	formDesc   *string
	formDue    *string
	formParent *string
	formBody   *string

	editingID string
}

func newTasksModel(s *store.Store) tasksModel {
	title, desc, due, parent, body := "", "", "", "", ""
	return tasksModel{
		store:      s,
		snapshot:   task.NewSnapshot(nil),
		comments:   map[string]int{},
		formTitle:  &title,
		formDesc:   &desc,
		formDue:    &due,
		formParent: &parent,
		formBody:   &body,
	}
}

func (m *tasksModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

func (m tasksModel) refresh() tea.Cmd {
	return func() tea.Msg {
		tasks, err := m.store.ListTasks(nil)
		if err != nil {
			return errStatus(err)
		}
		comments, _ := m.store.CountComments()
		return tasksLoadedMsg{tasks: tasks, comments: comments}
	}
}

func (m tasksModel) selected() *task.Node {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return nil
	}
	return m.rows[m.cursor]
}

// activeTask returns the first task with a running session, if any.
func (m tasksModel) activeTask() *task.Task {
	for _, t := range m.snapshot.Tasks() {
		if t.Time.Active {
			cp := t
			return &cp
		}
	}
	return nil
}

func (m tasksModel) activeElapsed() int64 {
	t := m.activeTask()
	if t == nil {
		return 0
	}
	return t.Time.Elapsed(time.Now().UnixMilli())
}

func (m tasksModel) update(msg tea.Msg) (tasksModel, tea.Cmd) {
	if m.formActive && m.form != nil {
		return m.updateForm(msg)
	}

	switch msg := msg.(type) {
	case tasksLoadedMsg:
		m.snapshot = task.NewSnapshot(msg.tasks)
		m.rows = task.Flatten(m.snapshot.Tree())
		m.comments = msg.comments
		if m.cursor >= len(m.rows) {
			m.cursor = max(0, len(m.rows)-1)
		}
		return m, nil

	case tickMsg:
		// Elapsed readouts recompute on render; nothing to update.
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, keys.Down):
			if m.cursor < len(m.rows)-1 {
				m.cursor++
			}
		case key.Matches(msg, keys.Start):
			return m.startTimer()
		case key.Matches(msg, keys.Pause):
			return m.pauseTimer()
		case key.Matches(msg, keys.Complete):
			return m.cycleStatus()
		case key.Matches(msg, keys.New):
			return m.showTaskForm("new", nil)
		case key.Matches(msg, keys.Subtask):
			if sel := m.selected(); sel != nil {
				return m.showTaskForm("subtask", sel)
			}
		case key.Matches(msg, keys.Edit):
			if sel := m.selected(); sel != nil {
				return m.showTaskForm("edit", sel)
			}
		case key.Matches(msg, keys.Comment):
			if sel := m.selected(); sel != nil {
				return m.showCommentForm(sel)
			}
		case key.Matches(msg, keys.Delete):
			return m.deleteTask()
		}
	}
	return m, nil
}

func (m tasksModel) startTimer() (tasksModel, tea.Cmd) {
	sel := m.selected()
	if sel == nil {
		return m, nil
	}
	id := sel.Task.ID
	if err := m.snapshot.Start(id, time.Now()); err != nil {
		return m, func() tea.Msg { return errStatus(err) }
	}
	t, _ := m.snapshot.Get(id)
	if err := m.store.SaveTimeTracking(id, t.Time); err != nil {
		return m, func() tea.Msg { return errStatus(err) }
	}
	return m, tea.Batch(
		m.refresh(),
		func() tea.Msg { return timerStartedMsg{taskID: id} },
	)
}

func (m tasksModel) pauseTimer() (tasksModel, tea.Cmd) {
	sel := m.selected()
	if sel == nil {
		return m, nil
	}
	id := sel.Task.ID
	if err := m.snapshot.Pause(id, time.Now()); err != nil {
		return m, func() tea.Msg { return errStatus(err) }
	}
	t, _ := m.snapshot.Get(id)
	if err := m.store.SaveTimeTracking(id, t.Time); err != nil {
		return m, func() tea.Msg { return errStatus(err) }
	}
	return m, tea.Batch(
		m.refresh(),
		func() tea.Msg { return timerPausedMsg{taskID: id} },
	)
}

// cycleStatus advances Open -> In Progress -> Done -> Open. The Done
// transition is gated; a refusal is surfaced, never clamped.
func (m tasksModel) cycleStatus() (tasksModel, tea.Cmd) {
	sel := m.selected()
	if sel == nil {
		return m, nil
	}
	id := sel.Task.ID

	var next task.Status
	switch sel.Task.Status {
	case task.StatusOpen:
		next = task.StatusInProgress
	case task.StatusInProgress:
		next = task.StatusDone
	default:
		next = task.StatusOpen
	}

	if err := m.snapshot.SetStatus(id, next); err != nil {
		return m, func() tea.Msg { return errStatus(err) }
	}
	if err := m.store.SetTaskStatus(id, next); err != nil {
		return m, func() tea.Msg { return errStatus(err) }
	}
	return m, tea.Batch(
		m.refresh(),
		func() tea.Msg {
			return statusMsg{text: fmt.Sprintf("%s → %s", sel.Task.Title, next)}
		},
	)
}

func (m tasksModel) deleteTask() (tasksModel, tea.Cmd) {
	sel := m.selected()
	if sel == nil {
		return m, nil
	}
	if err := m.store.DeleteTask(sel.Task.ID); err != nil {
		return m, func() tea.Msg { return errStatus(err) }
	}
	return m, tea.Batch(
		m.refresh(),
		func() tea.Msg { return statusMsg{text: "Task deleted"} },
	)
}

// ---- Forms ----

func (m tasksModel) showTaskForm(formType string, sel *task.Node) (tasksModel, tea.Cmd) {
	m.formType = formType
	*m.formTitle = ""
	*m.formDesc = ""
	*m.formDue = ""
	*m.formParent = ""

	var groups []*huh.Group

	switch formType {
	case "subtask":
		*m.formParent = sel.Task.ID
		groups = append(groups, huh.NewGroup(
			huh.NewInput().Title("Subtask of "+sel.Task.Title).Value(m.formTitle),
			huh.NewText().Title("Description").Value(m.formDesc),
			huh.NewInput().Title("Due date (YYYY-MM-DD)").Value(m.formDue),
		))
	case "edit":
		m.editingID = sel.Task.ID
		*m.formTitle = sel.Task.Title
		*m.formDesc = sel.Task.Description
		*m.formParent = sel.Task.ParentID
		if sel.Task.DueDate != nil {
			*m.formDue = sel.Task.DueDate.UTC().Format("2006-01-02")
		}
		groups = append(groups, huh.NewGroup(
			huh.NewInput().Title("Title").Value(m.formTitle),
			huh.NewText().Title("Description").Value(m.formDesc),
			huh.NewInput().Title("Due date (YYYY-MM-DD)").Value(m.formDue),
			huh.NewSelect[string]().Title("Parent").
				Options(m.parentOptions(sel.Task.ID)...).Value(m.formParent),
		))
	default:
		groups = append(groups, huh.NewGroup(
			huh.NewInput().Title("Task title").Value(m.formTitle),
			huh.NewText().Title("Description").Value(m.formDesc),
			huh.NewInput().Title("Due date (YYYY-MM-DD)").Value(m.formDue),
		))
	}

	m.form = huh.NewForm(groups...).WithShowHelp(true).WithShowErrors(true)
	m.formActive = true
	return m, m.form.Init()
}

func (m tasksModel) parentOptions(selfID string) []huh.Option[string] {
	opts := []huh.Option[string]{huh.NewOption("(root)", "")}
	for _, n := range m.rows {
		if n.Task.ID == selfID {
			continue
		}
		label := strings.Repeat("  ", n.Depth) + n.Task.Title
		opts = append(opts, huh.NewOption(label, n.Task.ID))
	}
	return opts
}

func (m tasksModel) showCommentForm(sel *task.Node) (tasksModel, tea.Cmd) {
	m.formType = "comment"
	m.editingID = sel.Task.ID
	*m.formBody = ""

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewText().Title("Comment on " + sel.Task.Title).Value(m.formBody),
		),
	).WithShowHelp(true).WithShowErrors(true)

	m.formActive = true
	return m, m.form.Init()
}

func (m tasksModel) updateForm(msg tea.Msg) (tasksModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			m.formActive = false
			m.form = nil
			return m, nil
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		m.formActive = false
		return m.submitForm()
	}
	return m, cmd
}

func (m tasksModel) submitForm() (tasksModel, tea.Cmd) {
	switch m.formType {
	case "comment":
		if strings.TrimSpace(*m.formBody) != "" {
			if _, err := m.store.AddComment(m.editingID, *m.formBody); err != nil {
				return m, func() tea.Msg { return errStatus(err) }
			}
		}
		return m, m.refresh()

	case "edit":
		return m.submitEdit()

	default: // "new", "subtask"
		if strings.TrimSpace(*m.formTitle) == "" {
			return m, func() tea.Msg {
				return statusMsg{text: "Title must not be empty", isError: true}
			}
		}
		t := task.Task{
			Title:       *m.formTitle,
			Description: *m.formDesc,
			ParentID:    *m.formParent,
			DueDate:     parseDue(*m.formDue),
		}
		if v, err := m.store.GetSetting("default_status"); err == nil {
			t.Status = task.ParseStatus(v)
		}
		if _, err := m.store.CreateTask(t); err != nil {
			return m, func() tea.Msg { return errStatus(err) }
		}
		return m, m.refresh()
	}
}

func (m tasksModel) submitEdit() (tasksModel, tea.Cmd) {
	if strings.TrimSpace(*m.formTitle) == "" {
		return m, func() tea.Msg {
			return statusMsg{text: "Title must not be empty", isError: true}
		}
	}

	// Re-parenting goes through the snapshot so a cycle is refused
	// before anything is persisted.
	cur, err := m.snapshot.Get(m.editingID)
	if err != nil {
		return m, func() tea.Msg { return errStatus(err) }
	}
	if cur.ParentID != *m.formParent {
		if err := m.snapshot.SetParent(m.editingID, *m.formParent); err != nil {
			return m, func() tea.Msg { return errStatus(err) }
		}
		if err := m.store.SetTaskParent(m.editingID, *m.formParent); err != nil {
			return m, func() tea.Msg { return errStatus(err) }
		}
	}

	if err := m.store.UpdateTask(m.editingID, *m.formTitle, *m.formDesc, parseDue(*m.formDue)); err != nil {
		return m, func() tea.Msg { return errStatus(err) }
	}
	return m, m.refresh()
}

func parseDue(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil
	}
	d = d.UTC()
	return &d
}

// ---- Rendering ----

func (m tasksModel) view() string {
	w := m.width - 4

	if m.formActive && m.form != nil {
		title := titleStyle.Render("Task")
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", m.form.View()),
		)
	}

	title := titleStyle.Render("Tasks")
	if len(m.rows) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			mutedStyle.Render("No tasks yet. Press n to create one."),
		)
		return panelStyle.Width(w).Render(content)
	}

	now := time.Now().UnixMilli()
	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")

	for i, n := range m.rows {
		rows = append(rows, m.renderRow(i, n, now))
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  s: start  space: pause  x: status  n: new  a: subtask  e: edit  c: comment  d: delete"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (m tasksModel) renderRow(i int, n *task.Node, now int64) string {
	t := n.Task

	cursor := "  "
	style := normalItemStyle
	if i == m.cursor {
		cursor = "> "
		style = selectedItemStyle
	}

	indent := strings.Repeat("  ", n.Depth)
	glyph := statusStyle(t.Status).Render(statusGlyph(t.Status))

	_, atts := task.ParseDescription(t.Description)

	meta := ""
	if elapsed := t.Time.Elapsed(now); elapsed > 0 || t.Time.Active {
		clock := formatMillis(elapsed)
		if t.Time.Active {
			meta += successStyle.Render(" ● " + clock)
		} else {
			meta += mutedStyle.Render(" " + clock)
		}
	}
	if len(atts) > 0 {
		meta += mutedStyle.Render(fmt.Sprintf(" 📎%d", len(atts)))
	}
	if c := m.comments[t.ID]; c > 0 {
		meta += mutedStyle.Render(fmt.Sprintf(" 💬%d", c))
	}
	if t.DueDate != nil {
		due := t.DueDate.UTC().Format("Jan 02")
		if t.DueDate.Before(time.Now()) && t.Status != task.StatusDone {
			meta += errorStyle.Render(" !" + due)
		} else {
			meta += mutedStyle.Render(" " + due)
		}
	}

	return style.Render(fmt.Sprintf("%s%s%s %s", cursor, indent, glyph, t.Title)) + meta
}
