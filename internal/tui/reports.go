package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/treedo/internal/stats"
	"github.com/sadopc/treedo/internal/store"
	"github.com/sadopc/treedo/internal/task"
)

type reportMode int

const (
	reportDaily reportMode = iota
	reportWeekly
)

type reportsModel struct {
	store  *store.Store
	width  int
	height int

	mode      reportMode
	summaries []store.DailyStatusSummary
	rows      []stats.Row
	dailyGoal int64 // ms
	weekStart string
	offset    int // weeks or 7-day blocks back from today (0 = current)

	chart barchart.Model
}

func newReportsModel(s *store.Store) reportsModel {
	return reportsModel{
		store:     s,
		weekStart: "monday",
		chart:     barchart.New(60, 12),
	}
}

func (r *reportsModel) setSize(w, h int) {
	r.width = w
	r.height = h
}

type reportsDataMsg struct {
	summaries []store.DailyStatusSummary
	rows      []stats.Row
	dailyGoal int64
	weekStart string
}

func (r reportsModel) refresh() tea.Cmd {
	return func() tea.Msg {
		weekStart := "monday"
		if v, err := r.store.GetSetting("week_start"); err == nil {
			weekStart = v
		}
		from, to := dateRange(r.mode, r.offset, weekStart)

		summaries, _ := r.store.GetDailyStatusSummary(from, to)

		// Per-task table through the raw-entry path.
		records, _ := r.store.EntriesBetween(from, to)
		entries := make([]stats.Entry, 0, len(records))
		for _, rec := range records {
			e := stats.Entry{TaskID: rec.TaskID, StartTime: time.UnixMilli(rec.StartMS)}
			if rec.EndMS != nil {
				end := time.UnixMilli(*rec.EndMS)
				e.EndTime = &end
			}
			entries = append(entries, e)
		}
		totals := stats.Summarize(entries, stats.Window{Start: from, End: to}, time.Now())
		tasks, _ := r.store.ListTasks(nil)
		rows := stats.Join(totals, tasks)

		return reportsDataMsg{
			summaries: summaries,
			rows:      rows,
			dailyGoal: r.store.GetSettingInt("daily_goal", 28800000),
			weekStart: weekStart,
		}
	}
}

func dateRange(mode reportMode, offset int, weekStart string) (time.Time, time.Time) {
	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	switch mode {
	case reportWeekly:
		first := time.Monday
		if weekStart == "sunday" {
			first = time.Sunday
		}
		delta := int(today.Weekday() - first)
		if delta < 0 {
			delta += 7
		}
		start := today.AddDate(0, 0, -delta-7*offset)
		return start, start.AddDate(0, 0, 7)
	default:
		// Daily: trailing 7 days ending today
		end := today.AddDate(0, 0, 1-7*offset)
		return end.AddDate(0, 0, -7), end
	}
}

func (r reportsModel) update(msg tea.Msg) (reportsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case reportsDataMsg:
		r.summaries = msg.summaries
		r.rows = msg.rows
		r.dailyGoal = msg.dailyGoal
		r.weekStart = msg.weekStart
		r.buildChart()
		return r, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Left):
			r.offset++
			return r, r.refresh()
		case key.Matches(msg, keys.Right):
			if r.offset > 0 {
				r.offset--
			}
			return r, r.refresh()
		case key.Matches(msg, keys.Tab):
			if r.mode == reportDaily {
				r.mode = reportWeekly
			} else {
				r.mode = reportDaily
			}
			r.offset = 0
			return r, r.refresh()
		}
	}
	return r, nil
}

func (r *reportsModel) buildChart() {
	chartWidth := r.width - 8
	if chartWidth < 20 {
		chartWidth = 20
	}
	chartHeight := 12
	if r.height > 30 {
		chartHeight = 16
	}

	r.chart = barchart.New(chartWidth, chartHeight)

	from, to := dateRange(r.mode, r.offset, r.weekStart)

	// One bar per day, stacked by task status
	var bars []barchart.BarData
	for d := from; d.Before(to); d = d.AddDate(0, 0, 1) {
		dateStr := d.Format("2006-01-02")
		label := d.Format("Mon 02")

		var values []barchart.BarValue
		for _, s := range r.summaries {
			if s.Date == dateStr {
				hours := float64(s.TotalMS) / 3600000.0
				values = append(values, barchart.BarValue{
					Name:  s.Status,
					Value: hours,
					Style: statusStyle(task.ParseStatus(s.Status)),
				})
			}
		}

		if len(values) == 0 {
			values = []barchart.BarValue{{Name: "", Value: 0, Style: lipgloss.NewStyle().Foreground(colorSubtle)}}
		}

		bars = append(bars, barchart.BarData{
			Label:  label,
			Values: values,
		})
	}

	r.chart.PushAll(bars)
	r.chart.Draw()
}

func (r reportsModel) view() string {
	w := r.width - 4

	dailyTab := inactiveTabStyle.Render("Daily")
	weeklyTab := inactiveTabStyle.Render("Weekly")
	if r.mode == reportDaily {
		dailyTab = activeTabStyle.Render("Daily")
	} else {
		weeklyTab = activeTabStyle.Render("Weekly")
	}
	modeTabs := lipgloss.JoinHorizontal(lipgloss.Bottom, dailyTab, weeklyTab)

	from, to := dateRange(r.mode, r.offset, r.weekStart)
	dateLabel := mutedStyle.Render(fmt.Sprintf("%s — %s", from.Format("Jan 02"), to.Add(-24*time.Hour).Format("Jan 02, 2006")))

	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("Reports"), "  ", modeTabs, "  ", dateLabel,
	)

	chartView := r.chart.View()
	goalView := r.renderGoal()
	tableView := r.renderTaskTable(w)
	legend := r.renderLegend()
	nav := mutedStyle.Render("  ←/→: navigate  tab: switch mode")

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header, "", chartView, "", legend, "", goalView, "", tableView, "", nav,
		),
	)
}

func (r reportsModel) renderGoal() string {
	if r.dailyGoal <= 0 {
		return ""
	}
	today, err := r.store.GetTodayTotal()
	if err != nil {
		return ""
	}
	pct := float64(today) / float64(r.dailyGoal) * 100
	style := warningStyle
	if pct >= 100 {
		style = successStyle
	}
	return fmt.Sprintf("  Today: %s of %s goal %s",
		formatMillis(today),
		formatHoursMillis(r.dailyGoal),
		style.Render(fmt.Sprintf("(%.0f%%)", pct)),
	)
}

func (r reportsModel) renderTaskTable(w int) string {
	if len(r.rows) == 0 {
		return mutedStyle.Render("  No tracked time in this period")
	}

	var lines []string
	lines = append(lines, mutedStyle.Render(fmt.Sprintf("  %-34s %-12s %10s", "Task", "Status", "Tracked")))
	lines = append(lines, mutedStyle.Render("  "+strings.Repeat("─", min(w-6, 58))))

	for _, row := range r.rows {
		title := row.Title
		if len(title) > 32 {
			title = title[:29] + "..."
		}
		dot := statusStyle(row.Status).Render("●")
		lines = append(lines, fmt.Sprintf("  %-34s %s %-10s %10s",
			title, dot, row.Status, formatMillis(row.TimeSpent),
		))
	}

	return strings.Join(lines, "\n")
}

func (r reportsModel) renderLegend() string {
	seen := make(map[string]bool)
	var items []string
	for _, s := range r.summaries {
		if seen[s.Status] {
			continue
		}
		seen[s.Status] = true
		dot := statusStyle(task.ParseStatus(s.Status)).Render("●")
		items = append(items, fmt.Sprintf("%s %s", dot, s.Status))
	}
	if len(items) == 0 {
		return ""
	}
	return "  " + strings.Join(items, "  ")
}
