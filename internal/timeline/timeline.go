// Package timeline pages closed time entries in from the backend and groups
// them by day and task.
package timeline

import (
	"context"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/rezmoss/simpletracker/internal/gateway"
	"github.com/rezmoss/simpletracker/internal/model"
	"github.com/rezmoss/simpletracker/internal/store"
	"github.com/rezmoss/simpletracker/internal/timeutil"
)

// DefaultLimit is the page size used unless WithLimit says otherwise.
const DefaultLimit = 30

// DateKeyLayout formats the UTC instant of a local midnight.
const DateKeyLayout = "2006-01-02T15:04:05.000Z07:00"

// UnknownTask names groups whose task could not be resolved.
const UnknownTask = "Unknown"

type Timeline struct {
	gw      gateway.Gateway
	tasks   *store.Store[model.Task]
	entries *store.Store[model.TimeEntry]
	log     *slog.Logger
	loc     *time.Location

	mu       sync.Mutex
	defLimit int
	limit    int
	page     int
	more     bool
	loading  bool
	gen      uint64

	cacheMu sync.Mutex
	cache   grouping
}

// grouping is the last result of group, stamped with the store versions it
// was built from.
type grouping struct {
	taskVer  uint64
	entryVer uint64
	valid    bool
	groups   map[string]*DateGroup
	order    []string
}

type Option func(*Timeline)

// WithLimit sets the page size. Values below 1 are ignored.
func WithLimit(n int) Option {
	return func(t *Timeline) {
		if n > 0 {
			t.defLimit = n
		}
	}
}

// WithLocation sets the zone whose midnights bound a day. Defaults to time.Local.
func WithLocation(loc *time.Location) Option {
	return func(t *Timeline) { t.loc = loc }
}

func WithLogger(l *slog.Logger) Option {
	return func(t *Timeline) { t.log = l }
}

func New(gw gateway.Gateway, tasks *store.Store[model.Task], entries *store.Store[model.TimeEntry], opts ...Option) *Timeline {
	t := &Timeline{
		gw:       gw,
		tasks:    tasks,
		entries:  entries,
		log:      slog.Default(),
		loc:      time.Local,
		defLimit: DefaultLimit,
		more:     true,
	}
	for _, o := range opts {
		o(t)
	}
	t.limit = t.defLimit
	return t
}

// Page is the index of the next page FetchEntries will request.
func (t *Timeline) Page() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.page
}

func (t *Timeline) Limit() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.limit
}

func (t *Timeline) Loading() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.loading
}

// HasMore is false once a page came back shorter than the limit.
func (t *Timeline) HasMore() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.more
}

// FetchEntries requests the next page of closed entries and stores them along
// with their embedded tasks. It returns at once when a fetch is in flight. The
// page only advances when the batch was full.
func (t *Timeline) FetchEntries(ctx context.Context) error {
	t.mu.Lock()
	if t.loading {
		t.mu.Unlock()
		return nil
	}
	t.loading = true
	limit, page, gen := t.limit, t.page, t.gen
	t.mu.Unlock()

	defer func() {
		t.mu.Lock()
		if t.gen == gen {
			t.loading = false
		}
		t.mu.Unlock()
	}()

	list, err := t.gw.ListEntries(ctx, limit, page)
	if err != nil {
		t.log.Warn("failed to fetch time entries", "page", page, "error", err)
		return model.Persistence("fetch time entries", err)
	}
	for _, e := range list {
		if e.Task != nil && e.Task.ID != "" {
			if err := t.tasks.Put(*e.Task); err != nil {
				return err
			}
		}
		if err := t.entries.Put(e); err != nil {
			return err
		}
	}

	t.mu.Lock()
	if t.gen == gen {
		t.more = len(list) >= limit
		if t.more {
			t.page = page + 1
		}
	}
	t.mu.Unlock()
	return nil
}

// Reset restores the first page and releases the in-flight guard. A fetch
// still running when Reset is called no longer moves the page.
func (t *Timeline) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.limit = t.defLimit
	t.page = 0
	t.more = true
	t.loading = false
	t.gen++
}

// TimeEntries returns stored closed entries, newest first.
func (t *Timeline) TimeEntries() []model.TimeEntry {
	var out []model.TimeEntry
	for _, e := range t.entries.List() {
		if !e.StartTime.IsZero() && e.EndTime != nil {
			out = append(out, e)
		}
	}
	slices.SortFunc(out, func(a, b model.TimeEntry) int {
		if c := b.StartTime.Compare(a.StartTime); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

// TaskGroup sums the entries of one task within a day.
type TaskGroup struct {
	ID        string
	Name      string
	TotalTime int64
	Entries   []model.TimeEntry
}

// DateGroup sums the entries started on one local day.
type DateGroup struct {
	Key       string
	Date      time.Time
	TotalTime int64
	Entries   []model.TimeEntry
	ByTaskID  map[string]*TaskGroup
	taskOrder []string
}

// Tasks returns the day's task groups in first-seen order.
func (g *DateGroup) Tasks() []*TaskGroup {
	out := make([]*TaskGroup, 0, len(g.taskOrder))
	for _, id := range g.taskOrder {
		out = append(out, g.ByTaskID[id])
	}
	return out
}

// EntriesByDate groups TimeEntries by the local day they started on, keyed by
// the UTC instant of that day's midnight. The groups are shared between calls
// until the task or entry store changes and must not be modified.
func (t *Timeline) EntriesByDate() map[string]*DateGroup {
	groups, _ := t.grouped()
	return maps.Clone(groups)
}

// Days returns the date groups newest first.
func (t *Timeline) Days() []*DateGroup {
	groups, order := t.grouped()
	out := make([]*DateGroup, 0, len(order))
	for _, k := range order {
		out = append(out, groups[k])
	}
	return out
}

// grouped returns the cached grouping, rebuilding it when either store moved on.
func (t *Timeline) grouped() (map[string]*DateGroup, []string) {
	taskVer, entryVer := t.tasks.Version(), t.entries.Version()
	t.cacheMu.Lock()
	defer t.cacheMu.Unlock()
	if c := t.cache; c.valid && c.taskVer == taskVer && c.entryVer == entryVer {
		return c.groups, c.order
	}
	groups, order := t.group()
	t.cache = grouping{taskVer: taskVer, entryVer: entryVer, valid: true, groups: groups, order: order}
	return groups, order
}

func (t *Timeline) group() (map[string]*DateGroup, []string) {
	groups := make(map[string]*DateGroup)
	var order []string
	for _, e := range t.TimeEntries() {
		day := timeutil.StartOfDay(e.StartTime.In(t.loc))
		key := DateKey(day)

		dg, ok := groups[key]
		if !ok {
			dg = &DateGroup{Key: key, Date: day, ByTaskID: make(map[string]*TaskGroup)}
			groups[key] = dg
			order = append(order, key)
		}
		tg, ok := dg.ByTaskID[e.TaskID]
		if !ok {
			tg = &TaskGroup{ID: e.TaskID, Name: t.taskName(e)}
			dg.ByTaskID[e.TaskID] = tg
			dg.taskOrder = append(dg.taskOrder, e.TaskID)
		}

		dg.Entries = append(dg.Entries, e)
		tg.Entries = append(tg.Entries, e)
		if d, ok := e.Duration(); ok {
			ms := d.Milliseconds()
			dg.TotalTime += ms
			tg.TotalTime += ms
		}
	}
	return groups, order
}

func (t *Timeline) taskName(e model.TimeEntry) string {
	if task, ok := t.tasks.Get(e.TaskID); ok && task.Name != "" {
		return task.Name
	}
	if e.Task != nil && e.Task.Name != "" {
		return e.Task.Name
	}
	return UnknownTask
}

// DateKey formats a day start as used by EntriesByDate.
func DateKey(day time.Time) string {
	return day.UTC().Format(DateKeyLayout)
}

// Update stores entry and persists it, restoring the stored entry on failure.
func (t *Timeline) Update(ctx context.Context, entry model.TimeEntry) error {
	if entry.ID == "" {
		return model.Invalid("time entry is required")
	}
	if entry.EndTime != nil && entry.EndTime.Before(entry.StartTime) {
		return model.Invalid("end time before start time")
	}
	old, ok := t.entries.Get(entry.ID)
	if !ok {
		return model.ErrNotFound
	}

	if err := t.entries.Put(entry); err != nil {
		return err
	}
	if err := t.gw.UpdateEntry(ctx, entry); err != nil {
		_ = t.entries.Replace(old)
		return model.Persistence("update time entry", err)
	}
	return nil
}

// Remove deletes an entry, putting it back when the backend refuses.
func (t *Timeline) Remove(ctx context.Context, id string) error {
	old, ok := t.entries.Delete(id)
	if !ok {
		return model.ErrNotFound
	}
	if err := t.gw.DeleteEntry(ctx, id); err != nil {
		_ = t.entries.Put(old)
		return model.Persistence("delete time entry", err)
	}
	return nil
}
