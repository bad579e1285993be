// Package local implements the gateway contract in process, optionally backed
// by a JSON file. It serves the CLI's offline backend and doubles as the test
// backend, with per-operation failure injection.
package local

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rezmoss/simpletracker/internal/gateway"
	"github.com/rezmoss/simpletracker/internal/model"
)

const DefaultUserID = "local"

// Op names a gateway operation for failure injection and call counting.
type Op string

const (
	OpUserID            Op = "user_id"
	OpListTasks         Op = "list_tasks"
	OpGetTask           Op = "get_task"
	OpGetTaskByAltCode  Op = "get_task_by_alt_code"
	OpCreateTask        Op = "create_task"
	OpUpdateTask        Op = "update_task"
	OpListFavorites     Op = "list_favorites"
	OpListTags          Op = "list_tags"
	OpCreateTag         Op = "create_tag"
	OpUpdateTag         Op = "update_tag"
	OpDeleteTag         Op = "delete_tag"
	OpTaskTags          Op = "task_tags"
	OpAddTagToTask      Op = "add_tag_to_task"
	OpRemoveTagFromTask Op = "remove_tag_from_task"
	OpListEntries       Op = "list_entries"
	OpUpdateEntry       Op = "update_entry"
	OpDeleteEntry       Op = "delete_entry"
	OpCurrentTask       Op = "current_task"
	OpTrack             Op = "track"
	OpStopTracking      Op = "stop_tracking"
	OpSubscribe         Op = "subscribe"
	OpDataPoints        Op = "data_points"
	OpListCharts        Op = "list_charts"
	OpSaveChart         Op = "save_chart"
	OpDeleteChart       Op = "delete_chart"
)

// ErrInjected is the default error returned by Fail.
var ErrInjected = errors.New("injected failure")

type snapshot struct {
	UserID   string                   `json:"user_id"`
	Tasks    []model.Task             `json:"tasks"`
	Entries  []model.TimeEntry        `json:"time_entries"`
	Tags     []model.Tag              `json:"tags"`
	TaskTags []model.TaskTag          `json:"tasks_tags"`
	Current  *model.CurrentTaskRecord `json:"current_task,omitempty"`
	Charts   []model.SavedChart       `json:"charts"`
}

func (s snapshot) clone() snapshot {
	c := s
	c.Tasks = slices.Clone(s.Tasks)
	c.Entries = slices.Clone(s.Entries)
	c.Tags = slices.Clone(s.Tags)
	c.TaskTags = slices.Clone(s.TaskTags)
	c.Charts = slices.Clone(s.Charts)
	if s.Current != nil {
		cur := *s.Current
		c.Current = &cur
	}
	return c
}

// Gateway is an in-process backend.
type Gateway struct {
	mu       sync.Mutex
	path     string
	data     snapshot
	undo     snapshot
	now      func() time.Time
	log      *slog.Logger
	failures map[Op]error
	calls    map[Op]int

	subMu   sync.Mutex
	subs    map[int]func(model.ChangeEvent)
	nextSub int
}

var _ gateway.Gateway = (*Gateway)(nil)

type Option func(*Gateway)

// WithClock sets the time source used for created_at stamps.
func WithClock(now func() time.Time) Option {
	return func(g *Gateway) { g.now = now }
}

func WithUserID(id string) Option {
	return func(g *Gateway) { g.data.UserID = id }
}

func WithLogger(l *slog.Logger) Option {
	return func(g *Gateway) { g.log = l }
}

// New returns an empty gateway that keeps everything in memory.
func New(opts ...Option) *Gateway {
	g := &Gateway{
		data:     snapshot{UserID: DefaultUserID},
		now:      time.Now,
		log:      slog.Default(),
		failures: make(map[Op]error),
		calls:    make(map[Op]int),
		subs:     make(map[int]func(model.ChangeEvent)),
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Open loads the gateway state from path. A missing file yields an empty
// gateway that will create the file on the first write.
func Open(path string, opts ...Option) (*Gateway, error) {
	g := New(opts...)
	g.path = path

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return g, nil
		}
		return nil, err
	}
	defer f.Close()

	var s snapshot
	if err := json.NewDecoder(f).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if s.UserID == "" {
		s.UserID = g.data.UserID
	}
	g.data = s
	return g, nil
}

// save writes the snapshot through a temp file and a rename. Callers hold mu.
func (g *Gateway) save() error {
	if g.path == "" {
		return nil
	}
	if dir := filepath.Dir(g.path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp := g.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(&g.data); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, g.path)
}

// Fail makes every later call of op return err (ErrInjected when nil) until Heal.
func (g *Gateway) Fail(op Op, err error) {
	if err == nil {
		err = ErrInjected
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failures[op] = err
}

func (g *Gateway) Heal(op Op) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.failures, op)
}

// Calls reports how many times op was invoked, failed calls included.
func (g *Gateway) Calls(op Op) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[op]
}

// begin locks the gateway and records the call. The returned error is the
// injected failure, in which case the lock is already released.
func (g *Gateway) begin(ctx context.Context, op Op) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	g.mu.Lock()
	g.calls[op]++
	if err := g.failures[op]; err != nil {
		g.mu.Unlock()
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// beginWrite is begin for operations that change data. The state before the
// change is kept so commit can roll back.
func (g *Gateway) beginWrite(ctx context.Context, op Op) error {
	if err := g.begin(ctx, op); err != nil {
		return err
	}
	g.undo = g.data.clone()
	return nil
}

// commit saves the snapshot. When the save fails the data goes back to what
// it was at beginWrite.
func (g *Gateway) commit() error {
	defer func() { g.undo = snapshot{} }()
	if err := g.save(); err != nil {
		g.log.Error("failed to save local store", "path", g.path, "error", err)
		g.data = g.undo
		return err
	}
	return nil
}

func (g *Gateway) UserID(ctx context.Context) (string, error) {
	if err := g.begin(ctx, OpUserID); err != nil {
		return "", err
	}
	defer g.mu.Unlock()
	return g.data.UserID, nil
}

func newID() string { return uuid.NewString() }
