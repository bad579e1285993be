package session

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezmoss/simpletracker/internal/config"
	"github.com/rezmoss/simpletracker/internal/gateway/local"
	"github.com/rezmoss/simpletracker/internal/model"
	"github.com/rezmoss/simpletracker/internal/tracker"
)

var t0 = time.Date(2024, 3, 6, 9, 0, 0, 0, time.UTC)

// seeded returns a backend holding two tasks (one favorite and tagged), two
// closed entries, a saved chart and a running entry.
func seeded(t *testing.T) *local.Gateway {
	t.Helper()
	ctx := context.Background()
	gw := local.New(local.WithClock(func() time.Time { return t0 }))

	reading, err := gw.CreateTask(ctx, "reading", "r")
	require.NoError(t, err)
	_, err = gw.CreateTask(ctx, "writing", "w")
	require.NoError(t, err)
	reading.IsFavorite = true
	require.NoError(t, gw.UpdateTask(ctx, reading))

	tag, err := gw.CreateTag(ctx, "focus", "#112233")
	require.NoError(t, err)
	require.NoError(t, gw.AddTagToTask(ctx, reading.ID, tag.ID))

	for i := 0; i < 2; i++ {
		start := t0.Add(-time.Duration(i+2) * time.Hour)
		_, err := gw.Track(ctx, model.TrackParams{TaskID: reading.ID, StartTime: start})
		require.NoError(t, err)
		require.NoError(t, gw.StopTracking(ctx, start.Add(30*time.Minute)))
	}
	_, err = gw.SaveChart(ctx, model.UnsavedChart{Config: model.ChartConfig{
		Title: "week", PeriodType: model.PeriodThisWeek,
		GroupBy: []model.GroupKey{model.GroupTask}, XAxisField: model.FieldTaskName, YAxisField: model.FieldDuration,
	}})
	require.NoError(t, err)
	_, err = gw.Track(ctx, model.TrackParams{AltCode: "w", StartTime: t0})
	require.NoError(t, err)
	return gw
}

func TestBootstrap(t *testing.T) {
	gw := seeded(t)
	s := New(gw, WithClock(func() time.Time { return t0 }), WithLocation(time.UTC))
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.Bootstrap(context.Background()))

	assert.Equal(t, 2, s.TaskStore.Len())
	assert.Equal(t, 1, s.TagStore.Len())
	assert.Equal(t, 3, s.EntryStore.Len())
	require.Len(t, s.Favorites.List(), 1)
	assert.Equal(t, "reading", s.Favorites.List()[0].Name)
	assert.Len(t, s.Charts.List(), 1)
	assert.Len(t, s.Timeline.TimeEntries(), 2)

	st := s.Tracker.Snapshot()
	assert.Equal(t, tracker.Tracking, st.Phase)
	assert.Equal(t, "writing", st.Task.Name)
	assert.Equal(t, 1, gw.Subscribers())

	// a second bootstrap keeps the single subscription
	require.NoError(t, s.Bootstrap(context.Background()))
	assert.Equal(t, 1, gw.Subscribers())
}

func TestBootstrap_FollowsChangesFromElsewhere(t *testing.T) {
	gw := seeded(t)
	s := New(gw, WithClock(func() time.Time { return t0 }))
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Bootstrap(context.Background()))

	require.NoError(t, gw.StopTracking(context.Background(), t0.Add(time.Minute)))
	assert.Equal(t, tracker.Idle, s.Tracker.Snapshot().Phase)

	_, err := gw.Track(context.Background(), model.TrackParams{AltCode: "r", StartTime: t0.Add(2 * time.Minute)})
	require.NoError(t, err)
	st := s.Tracker.Snapshot()
	assert.Equal(t, tracker.Tracking, st.Phase)
	assert.Equal(t, "reading", st.Task.Name)
}

func TestBootstrap_FailedLoadsLeaveStoresAsTheyWere(t *testing.T) {
	gw := seeded(t)
	gw.Fail(local.OpListFavorites, nil)
	gw.Fail(local.OpListTags, nil)
	s := New(gw, WithClock(func() time.Time { return t0 }))
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.Bootstrap(context.Background()))

	assert.Empty(t, s.Favorites.List())
	assert.Zero(t, s.TagStore.Len())
	assert.Equal(t, 2, s.TaskStore.Len())
	assert.Len(t, s.Charts.List(), 1)
	assert.Equal(t, tracker.Tracking, s.Tracker.Snapshot().Phase)
	assert.Equal(t, 1, gw.Subscribers())

	// a later fetch picks up what the failed load missed
	gw.Heal(local.OpListFavorites)
	require.NoError(t, s.Favorites.Fetch(context.Background()))
	assert.Len(t, s.Favorites.List(), 1)
}

func TestBootstrap_SubscribeFailure(t *testing.T) {
	gw := seeded(t)
	gw.Fail(local.OpSubscribe, nil)
	s := New(gw)

	err := s.Bootstrap(context.Background())
	assert.ErrorIs(t, err, model.ErrPersistenceFailed)
	assert.Zero(t, gw.Subscribers())
	assert.Equal(t, 2, s.TaskStore.Len())
}

func TestReset(t *testing.T) {
	gw := seeded(t)
	s := New(gw, WithClock(func() time.Time { return t0 }))
	require.NoError(t, s.Bootstrap(context.Background()))

	require.NoError(t, s.Reset())

	assert.Zero(t, s.TaskStore.Len())
	assert.Zero(t, s.EntryStore.Len())
	assert.Zero(t, s.TagStore.Len())
	assert.Empty(t, s.Favorites.List())
	assert.Empty(t, s.Charts.List())
	assert.Zero(t, s.Timeline.Page())
	assert.Equal(t, tracker.Idle, s.Tracker.Snapshot().Phase)
	assert.Zero(t, gw.Subscribers())
}

func TestOpen_LocalBackend(t *testing.T) {
	cfg := config.Default()
	cfg.DataFile = filepath.Join(t.TempDir(), "data.json")
	cfg.PageSize = 5

	s, err := Open(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	assert.Equal(t, 5, s.Timeline.Limit())
	assert.IsType(t, &local.Gateway{}, s.Gateway)
	require.NoError(t, s.Bootstrap(context.Background()))
}

func TestOpenGateway_SupabaseNeedsAccount(t *testing.T) {
	cfg := config.Default()
	cfg.Backend = config.BackendSupabase
	cfg.Supabase.URL = "https://example.supabase.co"
	cfg.Supabase.AnonKey = "anon"

	_, err := OpenGateway(context.Background(), cfg, nil)
	assert.ErrorContains(t, err, "login")
}
