package timeline

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezmoss/simpletracker/internal/gateway/local"
	"github.com/rezmoss/simpletracker/internal/model"
	"github.com/rezmoss/simpletracker/internal/store"
)

var base = time.Date(2024, 3, 6, 8, 0, 0, 0, time.UTC)

func seed(t *testing.T, gw *local.Gateway, n int) model.Task {
	t.Helper()
	ctx := context.Background()
	task, err := gw.CreateTask(ctx, "reading", "")
	require.NoError(t, err)
	for i := 0; i < n; i++ {
		start := base.Add(time.Duration(i) * time.Hour)
		_, err := gw.Track(ctx, model.TrackParams{TaskID: task.ID, StartTime: start})
		require.NoError(t, err)
		require.NoError(t, gw.StopTracking(ctx, start.Add(10*time.Minute)))
	}
	return task
}

func newTimeline(gw *local.Gateway, opts ...Option) (*Timeline, *store.Store[model.Task], *store.Store[model.TimeEntry]) {
	tasks := store.New[model.Task]()
	entries := store.New[model.TimeEntry]()
	return New(gw, tasks, entries, opts...), tasks, entries
}

func TestFetchEntries_Pagination(t *testing.T) {
	gw := local.New()
	task := seed(t, gw, 12)
	tl, tasks, entries := newTimeline(gw, WithLimit(5))
	ctx := context.Background()

	require.NoError(t, tl.FetchEntries(ctx))
	assert.Equal(t, 1, tl.Page())
	assert.Equal(t, 5, entries.Len())
	assert.True(t, tl.HasMore())

	require.NoError(t, tl.FetchEntries(ctx))
	assert.Equal(t, 2, tl.Page())

	require.NoError(t, tl.FetchEntries(ctx))
	assert.Equal(t, 2, tl.Page())
	assert.False(t, tl.HasMore())
	assert.Equal(t, 12, entries.Len())

	require.NoError(t, tl.FetchEntries(ctx))
	assert.Equal(t, 2, tl.Page())
	assert.Equal(t, 12, entries.Len())

	stored, ok := tasks.Get(task.ID)
	require.True(t, ok)
	assert.Equal(t, "reading", stored.Name)

	tl.Reset()
	assert.Equal(t, 0, tl.Page())
	assert.Equal(t, 5, tl.Limit())
	assert.True(t, tl.HasMore())
}

func TestFetchEntries_ClearsLoadingOnError(t *testing.T) {
	gw := local.New()
	seed(t, gw, 3)
	tl, _, entries := newTimeline(gw)

	gw.Fail(local.OpListEntries, nil)
	err := tl.FetchEntries(context.Background())
	assert.ErrorIs(t, err, model.ErrPersistenceFailed)
	assert.False(t, tl.Loading())
	assert.Equal(t, 0, tl.Page())

	gw.Heal(local.OpListEntries)
	require.NoError(t, tl.FetchEntries(context.Background()))
	assert.Equal(t, 3, entries.Len())
	assert.Equal(t, 0, tl.Page())
}

type gatedGateway struct {
	*local.Gateway
	entered chan struct{}
	release chan struct{}
}

func (g *gatedGateway) ListEntries(ctx context.Context, limit, page int) ([]model.TimeEntry, error) {
	g.entered <- struct{}{}
	<-g.release
	return g.Gateway.ListEntries(ctx, limit, page)
}

func TestFetchEntries_SingleFlight(t *testing.T) {
	inner := local.New()
	seed(t, inner, 2)
	gw := &gatedGateway{Gateway: inner, entered: make(chan struct{}), release: make(chan struct{})}
	tl := New(gw, store.New[model.Task](), store.New[model.TimeEntry]())

	done := make(chan error, 1)
	go func() { done <- tl.FetchEntries(context.Background()) }()
	<-gw.entered

	assert.True(t, tl.Loading())
	require.NoError(t, tl.FetchEntries(context.Background()))

	close(gw.release)
	require.NoError(t, <-done)
	assert.False(t, tl.Loading())
	assert.Equal(t, 1, inner.Calls(local.OpListEntries))
}

func TestTimeEntries_ExcludesOpenEntry(t *testing.T) {
	tl, _, entries := newTimeline(local.New())
	end := base.Add(time.Hour)
	require.NoError(t, entries.Put(model.TimeEntry{ID: "closed", TaskID: "t", StartTime: base, EndTime: &end}))
	require.NoError(t, entries.Put(model.TimeEntry{ID: "open", TaskID: "t", StartTime: end}))

	got := tl.TimeEntries()
	require.Len(t, got, 1)
	assert.Equal(t, "closed", got[0].ID)
}

func entry(id, task string, start time.Time, d time.Duration) model.TimeEntry {
	end := start.Add(d)
	return model.TimeEntry{ID: id, TaskID: task, StartTime: start, EndTime: &end}
}

func sample() []model.TimeEntry {
	return []model.TimeEntry{
		entry("e1", "a", time.Date(2024, 3, 6, 9, 0, 0, 0, time.UTC), 30*time.Minute),
		entry("e2", "b", time.Date(2024, 3, 6, 11, 0, 0, 0, time.UTC), time.Hour),
		entry("e3", "a", time.Date(2024, 3, 6, 14, 0, 0, 0, time.UTC), 15*time.Minute),
		// 21:00 on March 5th in UTC-5
		entry("e4", "a", time.Date(2024, 3, 6, 2, 0, 0, 0, time.UTC), 45*time.Minute),
		entry("e5", "c", time.Date(2024, 3, 4, 23, 0, 0, 0, time.UTC), time.Minute),
	}
}

type summary struct {
	total int64
	ids   []string
	tasks map[string]int64
}

func summarize(groups map[string]*DateGroup) map[string]summary {
	out := make(map[string]summary)
	for k, g := range groups {
		s := summary{total: g.TotalTime, tasks: make(map[string]int64)}
		for _, e := range g.Entries {
			s.ids = append(s.ids, e.ID)
		}
		sort.Strings(s.ids)
		for id, tg := range g.ByTaskID {
			s.tasks[id] = tg.TotalTime
		}
		out[k] = s
	}
	return out
}

func TestEntriesByDate_OrderIndependent(t *testing.T) {
	loc := time.FixedZone("EST", -5*3600)
	entries := sample()

	forward, _, fs := newTimeline(local.New(), WithLocation(loc))
	require.NoError(t, fs.PutAll(entries))

	backward, _, bs := newTimeline(local.New(), WithLocation(loc))
	for i := len(entries) - 1; i >= 0; i-- {
		require.NoError(t, bs.Put(entries[i]))
	}

	a, b := forward.EntriesByDate(), backward.EntriesByDate()
	assert.Equal(t, summarize(a), summarize(b))

	march6 := DateKey(time.Date(2024, 3, 6, 0, 0, 0, 0, loc))
	march5 := DateKey(time.Date(2024, 3, 5, 0, 0, 0, 0, loc))
	march4 := DateKey(time.Date(2024, 3, 4, 0, 0, 0, 0, loc))
	assert.Equal(t, "2024-03-06T05:00:00.000Z", march6)
	require.Len(t, a, 3)

	assert.Equal(t, int64((30+60+15)*60*1000), a[march6].TotalTime)
	assert.Equal(t, int64((30+15)*60*1000), a[march6].ByTaskID["a"].TotalTime)
	assert.Equal(t, int64(45*60*1000), a[march5].TotalTime)
	assert.Equal(t, int64(60*1000), a[march4].TotalTime)
}

func TestDays_NewestFirstWithTaskNames(t *testing.T) {
	tl, tasks, entries := newTimeline(local.New(), WithLocation(time.UTC))
	require.NoError(t, tasks.Put(model.Task{ID: "a", Name: "reading"}))
	require.NoError(t, entries.PutAll(sample()))

	days := tl.Days()
	require.Len(t, days, 2)
	assert.True(t, days[0].Date.After(days[1].Date))

	groups := days[0].Tasks()
	require.Len(t, groups, 2)
	// newest entry of the day is e3 (task a), then e2 (task b)
	assert.Equal(t, "reading", groups[0].Name)
	assert.Equal(t, UnknownTask, groups[1].Name)
	assert.Equal(t, []string{"e3", "e2", "e1", "e4"}, ids(days[0].Entries))
}

func TestDays_RebuiltOnlyWhenStoresChange(t *testing.T) {
	tl, tasks, entries := newTimeline(local.New(), WithLocation(time.UTC))
	require.NoError(t, tasks.Put(model.Task{ID: "a", Name: "reading"}))
	require.NoError(t, entries.PutAll(sample()))

	first := tl.Days()
	assert.Same(t, first[0], tl.Days()[0])
	assert.Same(t, first[0], tl.EntriesByDate()[first[0].Key])

	require.NoError(t, tasks.Put(model.Task{ID: "a", Name: "writing"}))
	renamed := tl.Days()
	assert.NotSame(t, first[0], renamed[0])
	assert.Equal(t, "writing", renamed[0].Tasks()[0].Name)

	_, ok := entries.Delete("e5")
	require.True(t, ok)
	assert.Len(t, tl.Days(), 1)
}

func ids(list []model.TimeEntry) []string {
	out := make([]string, len(list))
	for i, e := range list {
		out[i] = e.ID
	}
	return out
}

func TestUpdateAndRemove_Revert(t *testing.T) {
	gw := local.New()
	seed(t, gw, 1)
	tl, _, entries := newTimeline(gw)
	ctx := context.Background()
	require.NoError(t, tl.FetchEntries(ctx))
	e := tl.TimeEntries()[0]

	moved := e
	later := e.EndTime.Add(5 * time.Minute)
	moved.EndTime = &later

	gw.Fail(local.OpUpdateEntry, nil)
	assert.ErrorIs(t, tl.Update(ctx, moved), model.ErrPersistenceFailed)
	got, _ := entries.Get(e.ID)
	assert.True(t, got.EndTime.Equal(*e.EndTime))

	gw.Heal(local.OpUpdateEntry)
	require.NoError(t, tl.Update(ctx, moved))
	got, _ = entries.Get(e.ID)
	assert.True(t, got.EndTime.Equal(later))

	bad := e
	early := e.StartTime.Add(-time.Minute)
	bad.EndTime = &early
	assert.ErrorIs(t, tl.Update(ctx, bad), model.ErrInvalidArgument)
	assert.ErrorIs(t, tl.Update(ctx, model.TimeEntry{ID: "ghost"}), model.ErrNotFound)

	gw.Fail(local.OpDeleteEntry, nil)
	assert.ErrorIs(t, tl.Remove(ctx, e.ID), model.ErrPersistenceFailed)
	_, ok := entries.Get(e.ID)
	assert.True(t, ok)

	gw.Heal(local.OpDeleteEntry)
	require.NoError(t, tl.Remove(ctx, e.ID))
	assert.Empty(t, tl.TimeEntries())
	assert.ErrorIs(t, tl.Remove(ctx, e.ID), model.ErrNotFound)
}

func ExampleDateKey() {
	day := time.Date(2024, 3, 6, 0, 0, 0, 0, time.FixedZone("CET", 3600))
	fmt.Println(DateKey(day))
	// Output: 2024-03-05T23:00:00.000Z
}
