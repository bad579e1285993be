package local

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezmoss/simpletracker/internal/model"
)

var t0 = time.Date(2024, 5, 15, 9, 0, 0, 0, time.Local)

func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }

// TestOpen_RoundTrip verifies writes survive reopening the file.
func TestOpen_RoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "store.json")

	g, err := Open(path, WithClock(fixedClock(t0)))
	require.NoError(t, err)
	task, err := g.CreateTask(ctx, "  reading ", "RD")
	require.NoError(t, err)
	assert.Equal(t, "reading", task.Name)
	_, err = g.CreateTag(ctx, " Work ", "#112233")
	require.NoError(t, err)

	reopened, err := Open(path)
	require.NoError(t, err)
	tasks, err := reopened.ListTasks(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, task.ID, tasks[0].ID)

	tags, err := reopened.ListTags(ctx)
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, "work", tags[0].Name)
}

func TestOpen_MissingFileIsEmpty(t *testing.T) {
	g, err := Open(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	tasks, err := g.ListTasks(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestTrack_ClosesPreviousAndNotifies(t *testing.T) {
	ctx := context.Background()
	g := New(WithClock(fixedClock(t0)))

	var events []model.ChangeEvent
	sub, err := g.SubscribeCurrentTask(ctx, func(ev model.ChangeEvent) { events = append(events, ev) })
	require.NoError(t, err)

	first, err := g.Track(ctx, model.TrackParams{Name: "A", StartTime: t0})
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, first.Task.ID, first.Task.AltCode)

	t1 := t0.Add(time.Hour)
	second, err := g.Track(ctx, model.TrackParams{AltCode: "B", StartTime: t1})
	require.NoError(t, err)
	assert.Equal(t, "B", second.Task.Name)
	assert.True(t, second.TimeEntry.IsOpen())

	cur, err := g.CurrentTask(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.TimeEntryID, cur.TimeEntryID)

	entries, err := g.ListEntries(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, first.TimeEntryID, entries[0].ID)
	assert.Equal(t, t1, *entries[0].EndTime)
	require.NotNil(t, entries[0].Task)
	assert.Equal(t, "A", entries[0].Task.Name)

	types := make([]model.EventType, 0, len(events))
	for _, ev := range events {
		types = append(types, ev.Type)
	}
	assert.Equal(t, []model.EventType{model.EventInsert, model.EventDelete, model.EventInsert}, types)

	require.NoError(t, sub.Unsubscribe())
	require.NoError(t, sub.Unsubscribe())
	assert.Equal(t, 0, g.Subscribers())
}

// TestSaveFailure_RollsBack verifies a write whose save fails leaves no trace.
func TestSaveFailure_RollsBack(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	g, err := Open(filepath.Join(dir, "store.json"), WithClock(fixedClock(t0)))
	require.NoError(t, err)
	first, err := g.Track(ctx, model.TrackParams{Name: "A", StartTime: t0})
	require.NoError(t, err)

	var events []model.ChangeEvent
	_, err = g.SubscribeCurrentTask(ctx, func(ev model.ChangeEvent) { events = append(events, ev) })
	require.NoError(t, err)

	// a file where the parent directory should be makes every save fail
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0o600))
	g.path = filepath.Join(blocker, "store.json")

	_, err = g.CreateTask(ctx, "B", "b")
	assert.Error(t, err)
	_, err = g.Track(ctx, model.TrackParams{AltCode: "c", StartTime: t0.Add(time.Hour)})
	assert.Error(t, err)
	assert.Error(t, g.StopTracking(ctx, t0.Add(2*time.Hour)))

	tasks, err := g.ListTasks(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "A", tasks[0].Name)

	cur, err := g.CurrentTask(ctx)
	require.NoError(t, err)
	require.NotNil(t, cur)
	assert.Equal(t, first.TimeEntryID, cur.TimeEntryID)
	assert.True(t, cur.TimeEntry.IsOpen())
	assert.Empty(t, events)
}

func TestTrack_UnknownTaskID(t *testing.T) {
	g := New()
	cur, err := g.Track(context.Background(), model.TrackParams{TaskID: "missing"})
	assert.Error(t, err)
	assert.Nil(t, cur)
}

func TestStopTracking_RequiresCurrent(t *testing.T) {
	ctx := context.Background()
	g := New()
	assert.Error(t, g.StopTracking(ctx, t0))

	_, err := g.Track(ctx, model.TrackParams{Name: "A", StartTime: t0})
	require.NoError(t, err)
	require.NoError(t, g.StopTracking(ctx, t0.Add(time.Minute)))

	cur, err := g.CurrentTask(ctx)
	require.NoError(t, err)
	assert.Nil(t, cur)
}

func TestListEntries_Pages(t *testing.T) {
	ctx := context.Background()
	g := New()
	for i := 0; i < 5; i++ {
		_, err := g.Track(ctx, model.TrackParams{Name: "task", StartTime: t0.Add(time.Duration(i) * time.Hour)})
		require.NoError(t, err)
	}
	require.NoError(t, g.StopTracking(ctx, t0.Add(10*time.Hour)))

	p0, err := g.ListEntries(ctx, 2, 0)
	require.NoError(t, err)
	p2, err := g.ListEntries(ctx, 2, 2)
	require.NoError(t, err)
	p3, err := g.ListEntries(ctx, 2, 3)
	require.NoError(t, err)

	require.Len(t, p0, 2)
	assert.True(t, p0[0].StartTime.After(p0[1].StartTime))
	assert.Len(t, p2, 1)
	assert.Empty(t, p3)
}

func TestFail_InjectsUntilHealed(t *testing.T) {
	ctx := context.Background()
	g := New()
	g.Fail(OpCreateTask, nil)

	_, err := g.CreateTask(ctx, "x", "")
	assert.ErrorIs(t, err, ErrInjected)
	assert.Equal(t, 1, g.Calls(OpCreateTask))

	g.Heal(OpCreateTask)
	_, err = g.CreateTask(ctx, "x", "")
	assert.NoError(t, err)
	assert.Equal(t, 2, g.Calls(OpCreateTask))
}

func TestDataPoints_OneRowPerTag(t *testing.T) {
	ctx := context.Background()
	g := New()
	cur, err := g.Track(ctx, model.TrackParams{Name: "A", StartTime: t0})
	require.NoError(t, err)
	work, err := g.CreateTag(ctx, "work", "#ff0000")
	require.NoError(t, err)
	deep, err := g.CreateTag(ctx, "deep", "")
	require.NoError(t, err)
	require.NoError(t, g.AddTagToTask(ctx, cur.TaskID, work.ID))
	require.NoError(t, g.AddTagToTask(ctx, cur.TaskID, deep.ID))
	require.Error(t, g.AddTagToTask(ctx, cur.TaskID, deep.ID))
	require.NoError(t, g.StopTracking(ctx, t0.Add(90*time.Minute)))

	rows, err := g.DataPoints(ctx, t0.Add(-time.Hour), t0.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, rows[0].TimeEntryID, rows[1].TimeEntryID)
	assert.Equal(t, int64(90*60*1000), rows[0].Duration)
	assert.Equal(t, "W", *rows[0].TagDotText)
	assert.Nil(t, rows[1].TagColor)
	assert.Equal(t, int(t0.Weekday()), rows[0].Weekday)

	require.NoError(t, g.DeleteTag(ctx, work.ID))
	tags, err := g.TaskTags(ctx, cur.TaskID)
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, "deep", tags[0].Name)
}

func TestSaveChart_UnsavedThenSaved(t *testing.T) {
	ctx := context.Background()
	g := New(WithClock(fixedClock(t0)))
	cfg := model.ChartConfig{Title: "week", PeriodType: model.PeriodThisWeek, GroupBy: []model.GroupKey{model.GroupTask}, XAxisField: model.FieldTaskName, YAxisField: model.FieldDuration}

	saved, err := g.SaveChart(ctx, model.UnsavedChart{Config: cfg})
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)
	assert.Equal(t, DefaultUserID, saved.UserID)

	saved.Config.Title = "renamed"
	again, err := g.SaveChart(ctx, saved)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, again.ID)

	list, err := g.ListCharts(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "renamed", list[0].Config.Title)

	require.NoError(t, g.DeleteChart(ctx, saved.ID))
	assert.Error(t, g.DeleteChart(ctx, saved.ID))
}
