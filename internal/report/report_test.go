package report

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezmoss/simpletracker/internal/config"
	"github.com/rezmoss/simpletracker/internal/gateway/local"
	"github.com/rezmoss/simpletracker/internal/model"
)

// Wednesday
var now = time.Date(2024, 3, 6, 15, 0, 0, 0, time.UTC)

func point(id, task string, start time.Time, d time.Duration) model.DataPoint {
	return model.DataPoint{
		TimeEntryID: id,
		TaskName:    task,
		StartTime:   start,
		EndTime:     start.Add(d),
		Duration:    d.Milliseconds(),
	}
}

func fixture() []model.DataPoint {
	tag := "work"
	tagged := point("e1", "alpha", time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC), 90*time.Minute)
	tagged.TagName = &tag
	return []model.DataPoint{
		point("e5", "gamma", time.Date(2024, 2, 28, 8, 0, 0, 0, time.UTC), time.Hour),
		tagged,
		tagged,
		point("e3", "beta", time.Date(2024, 3, 6, 13, 0, 0, 0, time.UTC), time.Hour),
		point("e2", "alpha", time.Date(2024, 3, 6, 9, 0, 0, 0, time.UTC), 45*time.Minute),
	}
}

func TestBounds(t *testing.T) {
	start, end, err := Bounds(RangeWeek, now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC), end)

	sunday := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	start, _, err = Bounds(RangeWeek, sunday)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), start)

	start, end, err = Bounds(RangeMonth, now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), end)

	_, _, err = Bounds("decade", now)
	assert.ErrorIs(t, err, model.ErrInvalidArgument)
}

func TestBuild_Today(t *testing.T) {
	rep, err := Build(RangeToday, fixture(), config.Default(), now)
	require.NoError(t, err)
	require.Len(t, rep.Rows, 2)
	assert.Equal(t, Row{Label: "09:00-09:45", Minutes: 45, Description: "alpha"}, rep.Rows[0])
	assert.Equal(t, Row{Label: "13:00-14:00", Minutes: 60, Description: "beta"}, rep.Rows[1])
	assert.Equal(t, 105, rep.TotalMinutes)
	assert.Equal(t, 480, rep.GoalMinutes)
}

func TestBuild_WeekCountsTaggedEntryOnce(t *testing.T) {
	rep, err := Build(RangeWeek, fixture(), config.Default(), now)
	require.NoError(t, err)
	require.Len(t, rep.Rows, 7)
	assert.Equal(t, Row{Label: "2024-03-04", Minutes: 90}, rep.Rows[0])
	assert.Equal(t, Row{Label: "2024-03-06", Minutes: 105}, rep.Rows[2])
	assert.Equal(t, 195, rep.TotalMinutes)
	assert.Equal(t, 5*480, rep.GoalMinutes)

	var buf bytes.Buffer
	require.NoError(t, rep.Write(&buf))
	out := buf.String()
	assert.Contains(t, out, "for week starting 2024-03-04")
	assert.Contains(t, out, "Total working week : 3 hr 15 mins")
	assert.Contains(t, out, "Goal progress: 8% of 40 hrs")
}

func TestBuild_Year(t *testing.T) {
	rep, err := Build(RangeYear, fixture(), config.Default(), now)
	require.NoError(t, err)
	require.Len(t, rep.Rows, 12)
	assert.Equal(t, Row{Label: "Feb", Minutes: 60}, rep.Rows[1])
	assert.Equal(t, Row{Label: "Mar", Minutes: 195}, rep.Rows[2])
	assert.Equal(t, 255, rep.TotalMinutes)
}

func TestBuild_NoGoalOnRestDay(t *testing.T) {
	sunday := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	rep, err := Build(RangeToday, nil, config.Default(), sunday)
	require.NoError(t, err)
	assert.Zero(t, rep.GoalMinutes)

	var buf bytes.Buffer
	require.NoError(t, rep.Write(&buf))
	assert.NotContains(t, buf.String(), "goal progress")
	assert.Contains(t, buf.String(), "Total working today : 0 mins")
}

func TestGenerate(t *testing.T) {
	ctx := context.Background()
	gw := local.New()
	_, err := gw.Track(ctx, model.TrackParams{Name: "alpha", StartTime: now.Add(-2 * time.Hour)})
	require.NoError(t, err)
	require.NoError(t, gw.StopTracking(ctx, now.Add(-time.Hour)))

	rep, err := Generate(ctx, gw, RangeToday, config.Default(), now)
	require.NoError(t, err)
	require.Len(t, rep.Rows, 1)
	assert.Equal(t, 60, rep.TotalMinutes)
	assert.Equal(t, "alpha", rep.Rows[0].Description)

	gw.Fail(local.OpDataPoints, errors.New("down"))
	_, err = Generate(ctx, gw, RangeToday, config.Default(), now)
	assert.ErrorIs(t, err, model.ErrPersistenceFailed)
}

func TestFormatPercentage(t *testing.T) {
	assert.Equal(t, "0%", FormatPercentage(30, 0))
	assert.Equal(t, "50% of 8 hrs", FormatPercentage(240, 480))
	assert.Equal(t, 125, Progress(600, 480))
}
