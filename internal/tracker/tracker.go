// Package tracker follows the task the user is tracking right now.
//
// Mutations are applied locally first and then sent to the gateway. A
// failed gateway call restores the local state it replaced. Change
// notifications on the current task pointer trigger a refetch, and the
// backend answer always wins.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/rezmoss/simpletracker/internal/gateway"
	"github.com/rezmoss/simpletracker/internal/model"
	"github.com/rezmoss/simpletracker/internal/store"
)

type Phase int

const (
	// Idle means nothing is tracked.
	Idle Phase = iota
	// Pending means a track call is in flight. The entry is a placeholder
	// without an id.
	Pending
	// Tracking means Task and its open Entry are confirmed by the backend.
	Tracking
)

func (p Phase) String() string {
	switch p {
	case Pending:
		return "pending"
	case Tracking:
		return "tracking"
	}
	return "idle"
}

// State is a snapshot of the tracker.
type State struct {
	Phase Phase
	Task  *model.Task
	Entry *model.TimeEntry
}

// Elapsed returns how long the current entry has been running at now.
func (s State) Elapsed(now time.Time) time.Duration {
	if s.Entry == nil || s.Phase == Idle {
		return 0
	}
	return now.Sub(s.Entry.StartTime)
}

func (s State) clone() State {
	if s.Task != nil {
		t := *s.Task
		s.Task = &t
	}
	if s.Entry != nil {
		e := *s.Entry
		s.Entry = &e
	}
	return s
}

// TaskCreator creates tasks for TrackNew.
type TaskCreator interface {
	Create(ctx context.Context, name, altCode string) (model.Task, error)
}

var errNoCurrentTask = errors.New("backend returned no current task")

type Tracker struct {
	gw      gateway.Gateway
	tasks   *store.Store[model.Task]
	entries *store.Store[model.TimeEntry]
	creator TaskCreator
	log     *slog.Logger
	now     func() time.Time

	mu    sync.Mutex
	state State
	// gen is bumped by every operation that reads or writes the pointer. An
	// operation only writes its result back while gen is unchanged.
	gen uint64
	sub gateway.Subscription
}

type Option func(*Tracker)

func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

func WithLogger(l *slog.Logger) Option {
	return func(t *Tracker) { t.log = l }
}

func New(gw gateway.Gateway, tasks *store.Store[model.Task], entries *store.Store[model.TimeEntry], creator TaskCreator, opts ...Option) *Tracker {
	t := &Tracker{
		gw:      gw,
		tasks:   tasks,
		entries: entries,
		creator: creator,
		log:     slog.Default(),
		now:     time.Now,
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Snapshot returns a copy of the current state.
func (t *Tracker) Snapshot() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state.clone()
}

// Track starts tracking task, closing the running entry first.
func (t *Tracker) Track(ctx context.Context, task *model.Task) error {
	if task == nil {
		return model.Invalid("task is required")
	}
	params := model.TrackParams{TaskID: task.ID}
	if params.TaskID == "" {
		params.AltCode, params.Name = task.AltCode, task.Name
	}
	if params.IsEmpty() {
		return model.Invalid("task has no id, alt code or name")
	}
	cp := *task
	return t.track(ctx, params, &cp)
}

// TrackWith starts tracking the task selected by params. Unknown alt codes
// and names are created by the backend.
func (t *Tracker) TrackWith(ctx context.Context, params model.TrackParams) error {
	params.TaskID = strings.TrimSpace(params.TaskID)
	params.AltCode = strings.TrimSpace(params.AltCode)
	params.Name = strings.TrimSpace(params.Name)
	if params.IsEmpty() {
		return model.Invalid("task id, alt code or name is required")
	}

	var task *model.Task
	if params.TaskID != "" {
		if stored, ok := t.tasks.Get(params.TaskID); ok {
			task = &stored
		}
	} else if params.AltCode != "" {
		if stored, ok := t.tasks.Find(func(x model.Task) bool { return x.AltCode == params.AltCode }); ok {
			task = &stored
		}
	}
	return t.track(ctx, params, task)
}

// TrackNew creates a task and starts tracking it.
func (t *Tracker) TrackNew(ctx context.Context, name, altCode string) (model.Task, error) {
	if strings.TrimSpace(name) == "" {
		return model.Task{}, model.Invalid("task name is required")
	}
	task, err := t.creator.Create(ctx, name, altCode)
	if err != nil {
		return model.Task{}, fmt.Errorf("%w: %w", model.ErrCreationFailed, err)
	}
	if err := t.Track(ctx, &task); err != nil {
		return task, err
	}
	return task, nil
}

func (t *Tracker) track(ctx context.Context, params model.TrackParams, task *model.Task) error {
	now := t.now()
	params.StartTime = now

	t.mu.Lock()
	prev := t.state.clone()
	var reopened *model.TimeEntry
	if prev.Phase == Tracking && prev.Entry != nil {
		open := *prev.Entry
		reopened = &open
		if err := t.entries.Put(open.Closed(now)); err != nil {
			t.mu.Unlock()
			return err
		}
	}
	placeholder := model.TimeEntry{TaskID: params.TaskID, StartTime: now}
	t.state = State{Phase: Pending, Task: task, Entry: &placeholder}
	t.gen++
	gen := t.gen
	t.mu.Unlock()

	cur, err := t.gw.Track(ctx, params)
	if err == nil && (cur == nil || cur.TimeEntryID == "") {
		err = errNoCurrentTask
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if err != nil {
		if t.gen == gen {
			if reopened != nil {
				_ = t.entries.Replace(*reopened)
			}
			t.state = prev
		}
		t.log.Warn("failed to start tracking", "task_id", params.TaskID, "error", err)
		return fmt.Errorf("%w: %w", model.ErrTrackingFailed, model.Persistence("track", err))
	}

	state, err := t.apply(cur)
	if err != nil {
		return err
	}
	if t.gen == gen {
		t.state = state
	}
	return nil
}

// apply writes an authoritative current task into the stores.
func (t *Tracker) apply(cur *model.CurrentTask) (State, error) {
	task := cur.Task
	if task.ID == "" {
		task.ID = cur.TaskID
	}
	if err := t.tasks.Put(task); err != nil {
		return State{}, err
	}
	entry := cur.TimeEntry
	if entry.ID == "" {
		entry.ID = cur.TimeEntryID
	}
	entry.Task = &task
	if err := t.entries.Replace(entry); err != nil {
		return State{}, err
	}
	return State{Phase: Tracking, Task: &task, Entry: &entry}, nil
}

// Stop ends the running entry.
func (t *Tracker) Stop(ctx context.Context) error {
	now := t.now()

	t.mu.Lock()
	if t.state.Phase != Tracking || t.state.Entry == nil {
		phase := t.state.Phase
		t.mu.Unlock()
		return fmt.Errorf("%w: stop while %s", model.ErrInvalidState, phase)
	}
	prev := t.state.clone()
	closed := prev.Entry.Closed(now)
	if err := t.entries.Put(closed); err != nil {
		t.mu.Unlock()
		return err
	}
	t.state.Entry = &closed
	t.gen++
	gen := t.gen
	t.mu.Unlock()

	err := t.gw.StopTracking(ctx, now)

	t.mu.Lock()
	defer t.mu.Unlock()
	if err != nil {
		if t.gen == gen {
			_ = t.entries.Replace(*prev.Entry)
			t.state = prev
		}
		t.log.Warn("failed to stop tracking", "time_entry_id", prev.Entry.ID, "error", err)
		return fmt.Errorf("%w: %w", model.ErrStopFailed, model.Persistence("stop tracking", err))
	}
	if t.gen == gen {
		t.state = State{Phase: Idle}
	}
	return nil
}

// Fetch overwrites the local pointer with the backend's. On failure the state
// is left unchanged.
func (t *Tracker) Fetch(ctx context.Context) error {
	t.mu.Lock()
	t.gen++
	gen := t.gen
	t.mu.Unlock()

	cur, err := t.gw.CurrentTask(ctx)
	if err != nil {
		t.log.Warn("failed to fetch current task", "error", err)
		return model.Persistence("fetch current task", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.gen != gen {
		return nil
	}
	if cur == nil {
		t.state = State{Phase: Idle}
		return nil
	}
	state, err := t.apply(cur)
	if err != nil {
		return err
	}
	t.state = state
	return nil
}

// Initialize subscribes to current task changes. Calling it again while
// subscribed does nothing.
func (t *Tracker) Initialize(ctx context.Context) error {
	t.mu.Lock()
	subscribed := t.sub != nil
	t.mu.Unlock()
	if subscribed {
		return nil
	}

	sub, err := t.gw.SubscribeCurrentTask(ctx, t.onChange)
	if err != nil {
		return model.Persistence("subscribe current task", err)
	}

	t.mu.Lock()
	if t.sub != nil {
		t.mu.Unlock()
		return sub.Unsubscribe()
	}
	t.sub = sub
	t.mu.Unlock()
	return nil
}

// Cleanup drops the subscription. It is safe to call when not subscribed.
func (t *Tracker) Cleanup() error {
	t.mu.Lock()
	sub := t.sub
	t.sub = nil
	t.mu.Unlock()
	if sub == nil {
		return nil
	}
	return sub.Unsubscribe()
}

// Reset forgets the tracked task without touching the backend.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = State{}
	t.gen++
}

func (t *Tracker) onChange(ev model.ChangeEvent) {
	t.log.Debug("current task changed", "type", ev.Type, "task_id", ev.New.TaskID)
	// Fetch logs its own failures.
	_ = t.Fetch(context.Background())
}
