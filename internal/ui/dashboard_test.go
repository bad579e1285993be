package ui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezmoss/simpletracker/internal/config"
	"github.com/rezmoss/simpletracker/internal/gateway/local"
	"github.com/rezmoss/simpletracker/internal/model"
	"github.com/rezmoss/simpletracker/internal/session"
	"github.com/rezmoss/simpletracker/internal/tracker"
)

// Wednesday
var now = time.Date(2024, 3, 6, 15, 0, 0, 0, time.UTC)

func newDashboard(t *testing.T) (Dashboard, *session.Session) {
	t.Helper()
	ctx := context.Background()
	clock := func() time.Time { return now }
	gw := local.New(local.WithClock(clock))

	_, err := gw.Track(ctx, model.TrackParams{Name: "reading", StartTime: now.Add(-4 * time.Hour)})
	require.NoError(t, err)
	require.NoError(t, gw.StopTracking(ctx, now.Add(-2*time.Hour)))
	_, err = gw.Track(ctx, model.TrackParams{Name: "writing", StartTime: now.Add(-30 * time.Minute)})
	require.NoError(t, err)

	sess := session.New(gw, session.WithClock(clock), session.WithLocation(time.UTC))
	require.NoError(t, sess.Bootstrap(ctx))
	t.Cleanup(func() { _ = sess.Close() })

	cfg := config.Default()
	cfg.Dashboard.ChartPeriod = "today"
	return NewDashboard(sess, cfg, WithClock(clock)), sess
}

func update(t *testing.T, m tea.Model, msg tea.Msg) (Dashboard, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	d, ok := next.(Dashboard)
	require.True(t, ok)
	return d, cmd
}

func TestView_LoadingUntilSized(t *testing.T) {
	m, _ := newDashboard(t)
	assert.Equal(t, "Loading...", m.View())
}

func TestView_ShowsCurrentTaskGoalAndChart(t *testing.T) {
	m, _ := newDashboard(t)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 140, Height: 40})
	m, _ = update(t, m, m.refresh()())
	require.NoError(t, m.err)

	view := m.View()
	assert.Contains(t, view, "writing")
	assert.Contains(t, view, "00:30:00")
	// two closed hours plus the running half hour
	assert.Contains(t, view, "2 hr 30 mins")
	assert.Contains(t, view, "31% of 8 hrs")
	assert.Contains(t, view, "02:00:00")
	assert.Contains(t, view, "TIME PER TASK (today)")
	assert.Len(t, m.chart.X, 1)
}

func TestUpdate_StopKey(t *testing.T) {
	m, sess := newDashboard(t)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 140, Height: 40})

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("s")})
	require.NotNil(t, cmd)
	m, cmd = update(t, m, cmd())
	require.NoError(t, m.err)
	assert.Equal(t, tracker.Idle, sess.Tracker.Snapshot().Phase)

	require.NotNil(t, cmd)
	m, _ = update(t, m, cmd())
	assert.Contains(t, m.View(), "not tracking")
}

func TestUpdate_StopWhenIdleShowsError(t *testing.T) {
	m, sess := newDashboard(t)
	require.NoError(t, sess.Tracker.Stop(context.Background()))
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 140, Height: 40})

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("s")})
	m, _ = update(t, m, cmd())
	assert.ErrorIs(t, m.err, model.ErrInvalidState)
	assert.Contains(t, m.View(), "error:")
}

func TestUpdate_Quit(t *testing.T) {
	m, _ := newDashboard(t)
	for _, key := range []tea.KeyMsg{
		{Type: tea.KeyRunes, Runes: []rune("q")},
		{Type: tea.KeyEsc},
		{Type: tea.KeyCtrlC},
	} {
		_, cmd := update(t, m, key)
		require.NotNil(t, cmd)
		assert.Equal(t, tea.QuitMsg{}, cmd())
	}
}

func TestProgressBar(t *testing.T) {
	assert.Equal(t, 10, strings.Count(ProgressBar(50, 20), "█"))
	assert.Equal(t, 20, strings.Count(ProgressBar(250, 20), "█"))
	assert.Equal(t, 1, strings.Count(Bar(1, 1000, 10, "#000000"), "■"))
}
