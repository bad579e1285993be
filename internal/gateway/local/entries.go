package local

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rezmoss/simpletracker/internal/gateway"
	"github.com/rezmoss/simpletracker/internal/model"
)

func (g *Gateway) ListEntries(ctx context.Context, limit, page int) ([]model.TimeEntry, error) {
	if err := g.begin(ctx, OpListEntries); err != nil {
		return nil, err
	}
	defer g.mu.Unlock()

	var closed []model.TimeEntry
	for _, e := range g.data.Entries {
		if e.UserID == g.data.UserID && e.EndTime != nil {
			closed = append(closed, e)
		}
	}
	sort.SliceStable(closed, func(i, j int) bool {
		return closed[i].StartTime.After(closed[j].StartTime)
	})

	from := limit * page
	to := limit * (page + 1)
	if from >= len(closed) || limit <= 0 {
		return []model.TimeEntry{}, nil
	}
	if to > len(closed) {
		to = len(closed)
	}
	out := make([]model.TimeEntry, 0, to-from)
	for _, e := range closed[from:to] {
		out = append(out, g.withTask(e))
	}
	return out, nil
}

func (g *Gateway) UpdateEntry(ctx context.Context, entry model.TimeEntry) error {
	if err := g.beginWrite(ctx, OpUpdateEntry); err != nil {
		return err
	}
	defer g.mu.Unlock()

	i := g.entryIndex(entry.ID)
	if i < 0 {
		return fmt.Errorf("time_entries: no row with id %q", entry.ID)
	}
	g.data.Entries[i].StartTime = entry.StartTime
	g.data.Entries[i].EndTime = entry.EndTime
	if entry.Task != nil {
		if ti := g.taskIndex(entry.Task.ID); ti >= 0 {
			g.data.Tasks[ti].Name = entry.Task.Name
			g.data.Tasks[ti].AltCode = entry.Task.AltCode
		}
	}
	return g.commit()
}

func (g *Gateway) DeleteEntry(ctx context.Context, id string) error {
	if err := g.beginWrite(ctx, OpDeleteEntry); err != nil {
		return err
	}
	defer g.mu.Unlock()

	i := g.entryIndex(id)
	if i < 0 {
		return fmt.Errorf("time_entries: no row with id %q", id)
	}
	g.data.Entries = append(g.data.Entries[:i], g.data.Entries[i+1:]...)
	return g.commit()
}

func (g *Gateway) CurrentTask(ctx context.Context) (*model.CurrentTask, error) {
	if err := g.begin(ctx, OpCurrentTask); err != nil {
		return nil, err
	}
	defer g.mu.Unlock()
	return g.currentTask(), nil
}

func (g *Gateway) currentTask() *model.CurrentTask {
	rec := g.data.Current
	if rec == nil {
		return nil
	}
	ti, ei := g.taskIndex(rec.TaskID), g.entryIndex(rec.TimeEntryID)
	if ti < 0 || ei < 0 {
		return nil
	}
	return &model.CurrentTask{
		UserID:      rec.UserID,
		TaskID:      rec.TaskID,
		TimeEntryID: rec.TimeEntryID,
		Task:        g.data.Tasks[ti],
		TimeEntry:   g.data.Entries[ei],
	}
}

func (g *Gateway) Track(ctx context.Context, params model.TrackParams) (*model.CurrentTask, error) {
	if err := g.beginWrite(ctx, OpTrack); err != nil {
		return nil, err
	}
	var events []model.ChangeEvent
	defer func() {
		g.mu.Unlock()
		g.publish(events)
	}()

	task, err := g.resolveTask(params)
	if err != nil {
		return nil, err
	}
	start := params.StartTime
	if start.IsZero() {
		start = g.now()
	}

	if ev, ok := g.stopLocked(start); ok {
		events = append(events, ev)
	}

	e := model.TimeEntry{
		ID:        newID(),
		TaskID:    task.ID,
		UserID:    g.data.UserID,
		StartTime: start,
		CreatedAt: g.now(),
	}
	g.data.Entries = append(g.data.Entries, e)
	rec := model.CurrentTaskRecord{
		UserID:      g.data.UserID,
		TaskID:      task.ID,
		TimeEntryID: e.ID,
		CreatedAt:   g.now(),
	}
	g.data.Current = &rec
	events = append(events, model.ChangeEvent{Type: model.EventInsert, New: rec})

	if err := g.commit(); err != nil {
		events = nil
		return nil, err
	}
	return g.currentTask(), nil
}

// resolveTask finds the task by id, then by alt code (creating it when
// missing), then creates it by name. Callers hold mu.
func (g *Gateway) resolveTask(p model.TrackParams) (model.Task, error) {
	switch {
	case p.TaskID != "":
		if i := g.taskIndex(p.TaskID); i >= 0 {
			return g.data.Tasks[i], nil
		}
		return model.Task{}, fmt.Errorf("tasks: no row with id %q", p.TaskID)
	case p.AltCode != "":
		if t, ok := g.taskByAltCode(p.AltCode); ok {
			return t, nil
		}
		name := p.Name
		if name == "" {
			name = p.AltCode
		}
		return g.insertTask(name, p.AltCode)
	case p.Name != "":
		t, err := g.insertTask(p.Name, "")
		if err != nil {
			return t, err
		}
		// a task created for tracking gets its own id as alt code
		i := g.taskIndex(t.ID)
		g.data.Tasks[i].AltCode = t.ID
		return g.data.Tasks[i], nil
	}
	return model.Task{}, fmt.Errorf("track: one of task id, alt code or name is required")
}

func (g *Gateway) StopTracking(ctx context.Context, endTime time.Time) error {
	if err := g.beginWrite(ctx, OpStopTracking); err != nil {
		return err
	}
	var events []model.ChangeEvent
	defer func() {
		g.mu.Unlock()
		g.publish(events)
	}()

	if endTime.IsZero() {
		endTime = g.now()
	}
	ev, ok := g.stopLocked(endTime)
	if !ok {
		return fmt.Errorf("current_tasks: nothing is being tracked")
	}
	if err := g.commit(); err != nil {
		return err
	}
	events = append(events, ev)
	return nil
}

// stopLocked closes the open entry and deletes the pointer. Callers hold mu.
func (g *Gateway) stopLocked(end time.Time) (model.ChangeEvent, bool) {
	rec := g.data.Current
	if rec == nil {
		return model.ChangeEvent{}, false
	}
	if i := g.entryIndex(rec.TimeEntryID); i >= 0 && g.data.Entries[i].EndTime == nil {
		g.data.Entries[i].EndTime = &end
	}
	g.data.Current = nil
	return model.ChangeEvent{Type: model.EventDelete, Old: *rec}, true
}

func (g *Gateway) SubscribeCurrentTask(ctx context.Context, fn func(model.ChangeEvent)) (gateway.Subscription, error) {
	if err := g.begin(ctx, OpSubscribe); err != nil {
		return nil, err
	}
	g.mu.Unlock()

	g.subMu.Lock()
	defer g.subMu.Unlock()
	id := g.nextSub
	g.nextSub++
	g.subs[id] = fn
	return &subscription{g: g, id: id}, nil
}

// Subscribers reports the number of live subscriptions.
func (g *Gateway) Subscribers() int {
	g.subMu.Lock()
	defer g.subMu.Unlock()
	return len(g.subs)
}

// publish delivers events synchronously, in order, outside of mu.
func (g *Gateway) publish(events []model.ChangeEvent) {
	if len(events) == 0 {
		return
	}
	g.subMu.Lock()
	fns := make([]func(model.ChangeEvent), 0, len(g.subs))
	for _, fn := range g.subs {
		fns = append(fns, fn)
	}
	g.subMu.Unlock()

	for _, ev := range events {
		for _, fn := range fns {
			fn(ev)
		}
	}
}

type subscription struct {
	g  *Gateway
	id int
}

func (s *subscription) Unsubscribe() error {
	s.g.subMu.Lock()
	defer s.g.subMu.Unlock()
	delete(s.g.subs, s.id)
	return nil
}

func (g *Gateway) entryIndex(id string) int {
	for i, e := range g.data.Entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}

func (g *Gateway) withTask(e model.TimeEntry) model.TimeEntry {
	if i := g.taskIndex(e.TaskID); i >= 0 {
		t := g.data.Tasks[i]
		e.Task = &t
	}
	return e
}
