// Package ui renders the live terminal dashboard.
package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rezmoss/simpletracker/internal/chart"
	"github.com/rezmoss/simpletracker/internal/config"
	"github.com/rezmoss/simpletracker/internal/model"
	"github.com/rezmoss/simpletracker/internal/report"
	"github.com/rezmoss/simpletracker/internal/session"
	"github.com/rezmoss/simpletracker/internal/timeline"
	"github.com/rezmoss/simpletracker/internal/timeutil"
	"github.com/rezmoss/simpletracker/internal/tracker"
)

const requestTimeout = 10 * time.Second

// Dashboard is the bubbletea model of the dashboard.
type Dashboard struct {
	sess   *session.Session
	cfg    *config.Config
	now    func() time.Time
	width  int
	height int
	chart  chart.Data
	err    error
}

type Option func(*Dashboard)

func WithClock(now func() time.Time) Option {
	return func(d *Dashboard) { d.now = now }
}

func NewDashboard(sess *session.Session, cfg *config.Config, opts ...Option) Dashboard {
	d := Dashboard{sess: sess, cfg: cfg, now: time.Now}
	for _, o := range opts {
		o(&d)
	}
	return d
}

// TaskChart is the chart shown on the dashboard: tracked time per task.
func TaskChart(period model.PeriodType) model.ChartConfig {
	return model.ChartConfig{
		Title:      "Time per task",
		PeriodType: period,
		GroupBy:    []model.GroupKey{model.GroupTask},
		XAxisField: model.FieldTaskName,
		YAxisField: model.FieldDuration,
	}
}

// refreshMsg asks for a reload from the backend.
type refreshMsg time.Time

// clockMsg redraws the running timer.
type clockMsg time.Time

type refreshedMsg struct {
	chart chart.Data
	err   error
}

type stoppedMsg struct{ err error }

func (m Dashboard) refreshTick() tea.Cmd {
	return tea.Tick(m.cfg.Dashboard.Refresh, func(t time.Time) tea.Msg {
		return refreshMsg(t)
	})
}

func clockTick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return clockMsg(t)
	})
}

func (m Dashboard) Init() tea.Cmd {
	return tea.Batch(m.refresh(), m.refreshTick(), clockTick())
}

func (m Dashboard) refresh() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		if err := m.sess.Tracker.Fetch(ctx); err != nil {
			return refreshedMsg{err: err}
		}
		m.sess.Timeline.Reset()
		if err := m.sess.Timeline.FetchEntries(ctx); err != nil {
			return refreshedMsg{err: err}
		}
		period := model.PeriodType(m.cfg.Dashboard.ChartPeriod)
		data, err := m.sess.Charts.Render(ctx, TaskChart(period), m.now())
		return refreshedMsg{chart: data, err: err}
	}
}

func (m Dashboard) stop() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return stoppedMsg{err: m.sess.Tracker.Stop(ctx)}
	}
}

func (m Dashboard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "s":
			return m, m.stop()
		case "r":
			return m, m.refresh()
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case refreshMsg:
		return m, tea.Batch(m.refresh(), m.refreshTick())
	case clockMsg:
		return m, clockTick()
	case refreshedMsg:
		m.err = msg.err
		if msg.err == nil {
			m.chart = msg.chart
		}
	case stoppedMsg:
		m.err = msg.err
		if msg.err == nil {
			return m, m.refresh()
		}
	}
	return m, nil
}

// todayMinutes sums today's closed entries and the running one.
func (m Dashboard) todayMinutes(now time.Time, st tracker.State) int {
	var ms int64
	key := timeline.DateKey(timeutil.StartOfDay(now))
	if day, ok := m.sess.Timeline.EntriesByDate()[key]; ok {
		ms = day.TotalTime
	}
	if st.Phase == tracker.Tracking && st.Entry != nil && !st.Entry.StartTime.Before(timeutil.StartOfDay(now)) {
		ms += st.Elapsed(now).Milliseconds()
	}
	return int(ms / int64(time.Minute/time.Millisecond))
}

func (m Dashboard) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}
	now := m.now()
	st := m.sess.Tracker.Snapshot()

	header := headerStyle.Width(m.width).Render(
		fmt.Sprintf("🕐 Simple Tracker - %s", now.Format("Jan 2, 2006 15:04:05")),
	)

	leftColWidth := m.width/2 - 3
	rightColWidth := m.width/2 - 3

	var current string
	switch st.Phase {
	case tracker.Tracking:
		current = fmt.Sprintf("%s\n%s",
			workingStyle.Render("● "+st.Task.Name),
			timeutil.DurationString(st.Elapsed(now)))
	case tracker.Pending:
		current = pendingStyle.Render("starting...")
	default:
		current = idleStyle.Render("● not tracking")
	}
	currentBox := boxStyle.Width(leftColWidth).Render("⏱ CURRENT TASK\n\n" + current)

	workMins := m.todayMinutes(now, st)
	goalMins := 0
	if m.cfg.IsWorkDay(now) {
		goalMins = m.cfg.DailyGoalMinutes
	}
	barWidth := leftColWidth - 10
	if barWidth < 20 {
		barWidth = 20
	}
	goalPct := report.Progress(workMins, goalMins)
	progressBox := boxStyle.Width(leftColWidth).Render(fmt.Sprintf(
		"🎯 DAILY GOAL PROGRESS\n\nWorked: %s\n%s %d%%\n%s",
		workingStyle.Render(timeutil.HumanDuration(workMins)),
		ProgressBar(goalPct, barWidth),
		goalPct,
		progressStyle.Render(report.FormatPercentage(workMins, goalMins)),
	))

	todayBox := boxStyle.Width(leftColWidth).Render("📋 TODAY'S TASKS\n\n" + m.todayTasks(now))
	chartBox := boxStyle.Width(rightColWidth).Render(m.chartView(rightColWidth - 6))

	leftColumn := lipgloss.JoinVertical(lipgloss.Left, currentBox, progressBox, todayBox)
	content := lipgloss.JoinHorizontal(lipgloss.Top, leftColumn, chartBox)

	help := fmt.Sprintf("Press 'q' to quit • 's' to stop • 'r' to refresh • Updates every %s", m.cfg.Dashboard.Refresh)
	footer := mutedStyle.Width(m.width).Render(help)
	parts := []string{header, content}
	if m.err != nil {
		parts = append(parts, errorStyle.Width(m.width).Render("error: "+m.err.Error()))
	}
	parts = append(parts, footer)
	full := lipgloss.JoinVertical(lipgloss.Left, parts...)

	if h := lipgloss.Height(full); h < m.height {
		full += strings.Repeat("\n", m.height-h-1)
	}
	return full
}

func (m Dashboard) todayTasks(now time.Time) string {
	day, ok := m.sess.Timeline.EntriesByDate()[timeline.DateKey(timeutil.StartOfDay(now))]
	if !ok || len(day.Entries) == 0 {
		return mutedStyle.Render("nothing tracked yet")
	}
	var b strings.Builder
	for _, g := range day.Tasks() {
		fmt.Fprintf(&b, "%s  %s\n", timeutil.DurationStringMs(g.TotalTime), g.Name)
	}
	fmt.Fprintf(&b, "%s  total", timeutil.DurationStringMs(day.TotalTime))
	return b.String()
}

func (m Dashboard) chartView(width int) string {
	title := fmt.Sprintf("📊 %s (%s)\n\n", strings.ToUpper(TaskChart("").Title), m.cfg.Dashboard.ChartPeriod)
	if len(m.chart.Series) == 0 || len(m.chart.X) == 0 {
		return title + mutedStyle.Render("no data for this period")
	}
	series := m.chart.Series[0]

	var top int64
	labelWidth := 0
	for i, l := range m.chart.X {
		if v, _ := series.Data[i].(int64); v > top {
			top = v
		}
		labelWidth = max(labelWidth, lipgloss.Width(l))
	}
	labelWidth = min(labelWidth, 20)
	barWidth := max(width-labelWidth-12, 5)

	var b strings.Builder
	b.WriteString(title)
	for i, l := range m.chart.X {
		v, _ := series.Data[i].(int64)
		if r := []rune(l); len(r) > labelWidth {
			l = string(r[:labelWidth])
		}
		fmt.Fprintf(&b, "%-*s %s %s\n", labelWidth, l,
			Bar(v, top, barWidth, series.BackgroundColor[i]),
			timeutil.DurationStringMs(v))
	}
	return strings.TrimRight(b.String(), "\n")
}
