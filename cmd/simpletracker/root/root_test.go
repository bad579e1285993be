package root

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezmoss/simpletracker/internal/config"
	"github.com/rezmoss/simpletracker/internal/model"
)

// setup writes a config pointing at an empty local data file.
func setup(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	c := config.Default()
	c.DataFile = filepath.Join(dir, "data.json")
	c.Log.Level = "error"
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, config.Save(path, c))
	return path
}

func run(t *testing.T, cfgFile string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--config", cfgFile}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, cfgFile string, args ...string) string {
	t.Helper()
	out, err := run(t, cfgFile, args...)
	require.NoError(t, err, "%v", args)
	return out
}

func TestTrackStopAndEntries(t *testing.T) {
	path := setup(t)

	assert.Contains(t, mustRun(t, path, "tasks", "add", "reading", "--code", "r"), "created reading")
	assert.Contains(t, mustRun(t, path, "track", "r"), "reading")
	assert.Contains(t, mustRun(t, path, "status"), "reading")

	// a QR code naming an unknown task creates it
	assert.Contains(t, mustRun(t, path, "track", "--qr", `{"name":"writing"}`), "writing")
	assert.Contains(t, mustRun(t, path, "stop"), "stopped writing")
	assert.Contains(t, mustRun(t, path, "status"), "not tracking")

	_, err := run(t, path, "stop")
	assert.ErrorIs(t, err, model.ErrInvalidState)

	out := mustRun(t, path, "entries", "-v")
	assert.Contains(t, out, "reading")
	assert.Contains(t, out, "writing")
	assert.Contains(t, out, "Today")

	assert.Contains(t, mustRun(t, path, "tasks"), "writing")
}

func TestTrack_UnknownTask(t *testing.T) {
	path := setup(t)
	_, err := run(t, path, "track", "nope")
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, err = run(t, path, "track", "--qr", "{}")
	assert.ErrorIs(t, err, model.ErrInvalidArgument)
}

func TestTagsAndFavorites(t *testing.T) {
	path := setup(t)
	mustRun(t, path, "tasks", "add", "reading", "--code", "r")

	assert.Contains(t, mustRun(t, path, "tags", "add", "Focus", "--color", "#112233"), "#focus")
	assert.Contains(t, mustRun(t, path, "tasks", "tag", "r", "focus"), "#focus")
	assert.Contains(t, mustRun(t, path, "tasks"), "#focus")

	assert.Contains(t, mustRun(t, path, "fav", "toggle", "reading"), "added to")
	assert.Contains(t, mustRun(t, path, "fav"), "reading")
	assert.Contains(t, mustRun(t, path, "fav", "toggle", "reading"), "removed from")
	assert.Contains(t, mustRun(t, path, "fav"), "no favorites")

	mustRun(t, path, "tags", "rm", "focus")
	assert.NotContains(t, mustRun(t, path, "tasks"), "#focus")
}

func TestCharts(t *testing.T) {
	path := setup(t)
	mustRun(t, path, "track", "--code", "r", "--name", "reading")
	mustRun(t, path, "stop")

	assert.Contains(t, mustRun(t, path, "chart", "--period", "today"), "Time per task")

	_, err := run(t, path, "chart", "--period", "someday")
	assert.ErrorIs(t, err, model.ErrInvalidArgument)
	_, err = run(t, path, "chart", "--x", "weekday")
	assert.ErrorIs(t, err, model.ErrInvalidArgument)

	assert.Contains(t, mustRun(t, path, "chart", "save", "--title", "mine", "--period", "today"), "saved mine")
	assert.Contains(t, mustRun(t, path, "chart", "list"), "mine")
}

func TestReport(t *testing.T) {
	path := setup(t)
	out := mustRun(t, path, "report", "--range", "week")
	assert.Contains(t, out, "Total working week")

	_, err := run(t, path, "report", "--range", "decade")
	assert.ErrorIs(t, err, model.ErrInvalidArgument)
}

func TestConfigSet(t *testing.T) {
	path := setup(t)
	mustRun(t, path, "config", "set", "dailygoal=07:30", "workdays=Mon-Thu")

	c, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 450, c.DailyGoalMinutes)
	assert.Equal(t, []int{1, 2, 3, 4}, c.WorkDays)
	assert.Contains(t, mustRun(t, path, "config", "show"), "daily_goal_minutes: 450")

	_, err = run(t, path, "config", "set", "nokey=1")
	assert.Error(t, err)
	assert.Equal(t, path+"\n", mustRun(t, path, "config", "path"))
}
