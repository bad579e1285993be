// Package session wires the stores and controllers of one signed-in user.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rezmoss/simpletracker/internal/chart"
	"github.com/rezmoss/simpletracker/internal/config"
	"github.com/rezmoss/simpletracker/internal/favorites"
	"github.com/rezmoss/simpletracker/internal/gateway"
	"github.com/rezmoss/simpletracker/internal/gateway/local"
	"github.com/rezmoss/simpletracker/internal/gateway/supabase"
	"github.com/rezmoss/simpletracker/internal/model"
	"github.com/rezmoss/simpletracker/internal/store"
	"github.com/rezmoss/simpletracker/internal/tags"
	"github.com/rezmoss/simpletracker/internal/tasks"
	"github.com/rezmoss/simpletracker/internal/timeline"
	"github.com/rezmoss/simpletracker/internal/tracker"
)

// Session owns the entity stores and every controller built on them.
type Session struct {
	Gateway gateway.Gateway

	TaskStore  *store.Store[model.Task]
	EntryStore *store.Store[model.TimeEntry]
	TagStore   *store.Store[model.Tag]

	Tasks     *tasks.Controller
	Tags      *tags.Controller
	Favorites *favorites.Controller
	Tracker   *tracker.Tracker
	Timeline  *timeline.Timeline
	Charts    *chart.Configs

	log *slog.Logger
}

type options struct {
	log      *slog.Logger
	now      func() time.Time
	pageSize int
	loc      *time.Location
}

type Option func(*options)

func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func WithPageSize(n int) Option {
	return func(o *options) { o.pageSize = n }
}

func WithLocation(loc *time.Location) Option {
	return func(o *options) { o.loc = loc }
}

// New builds a session on gw. Nothing is fetched until Bootstrap.
func New(gw gateway.Gateway, opts ...Option) *Session {
	o := options{log: slog.Default(), now: time.Now, pageSize: timeline.DefaultLimit, loc: time.Local}
	for _, fn := range opts {
		fn(&o)
	}

	s := &Session{
		Gateway:    gw,
		TaskStore:  store.New[model.Task](),
		EntryStore: store.New[model.TimeEntry](),
		TagStore:   store.New[model.Tag](),
		log:        o.log,
	}
	s.Tags = tags.New(gw, s.TagStore, s.TaskStore, o.log.With("component", "tags"))
	s.Tasks = tasks.New(gw, s.TaskStore, s.Tags, o.log.With("component", "tasks"))
	s.Favorites = favorites.New(gw, s.TaskStore, s.Tasks, o.log.With("component", "favorites"))
	s.Tracker = tracker.New(gw, s.TaskStore, s.EntryStore, s.Tasks,
		tracker.WithClock(o.now),
		tracker.WithLogger(o.log.With("component", "tracker")))
	s.Timeline = timeline.New(gw, s.TaskStore, s.EntryStore,
		timeline.WithLimit(o.pageSize),
		timeline.WithLocation(o.loc),
		timeline.WithLogger(o.log.With("component", "timeline")))
	s.Charts = chart.NewConfigs(gw, o.log.With("component", "charts"))
	return s
}

// OpenGateway builds the backend named by cfg. A supabase backend signs in
// with the configured credentials.
func OpenGateway(ctx context.Context, cfg *config.Config, log *slog.Logger) (gateway.Gateway, error) {
	if log == nil {
		log = slog.Default()
	}
	switch cfg.Backend {
	case config.BackendLocal:
		return local.Open(cfg.DataFile, local.WithLogger(log))
	case config.BackendSupabase:
		c, err := supabase.New(supabase.Config{URL: cfg.Supabase.URL, AnonKey: cfg.Supabase.AnonKey},
			supabase.WithLogger(log))
		if err != nil {
			return nil, err
		}
		if cfg.Supabase.Email == "" {
			return nil, fmt.Errorf("supabase backend: no account configured, run login first")
		}
		if _, err := c.SignIn(ctx, cfg.Supabase.Email, cfg.Supabase.Password); err != nil {
			return nil, fmt.Errorf("supabase sign in: %w", err)
		}
		return c, nil
	}
	return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
}

// Open builds the configured gateway and a session on it.
func Open(ctx context.Context, cfg *config.Config, log *slog.Logger) (*Session, error) {
	gw, err := OpenGateway(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	return New(gw, WithLogger(log), WithPageSize(cfg.PageSize)), nil
}

// Bootstrap loads tasks, tags, favorites, charts, the current task and the
// first page of entries concurrently, then subscribes to current task changes.
// A failed load leaves its store as it was; only the subscription is fatal.
func (s *Session) Bootstrap(ctx context.Context) error {
	loads := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"tasks", s.Tasks.Load},
		{"tags", s.Tags.Load},
		{"favorites", s.Favorites.Fetch},
		{"charts", s.Charts.Fetch},
		{"current task", s.Tracker.Fetch},
		{"entries", s.Timeline.FetchEntries},
	}
	var g errgroup.Group
	for _, l := range loads {
		g.Go(func() error {
			if err := l.fn(ctx); err != nil {
				s.log.Warn("bootstrap load failed", "load", l.name, "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()
	s.log.Debug("session loaded",
		"tasks", s.TaskStore.Len(),
		"tags", s.TagStore.Len(),
		"entries", s.EntryStore.Len())
	if err := s.Tracker.Initialize(ctx); err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	return nil
}

// Reset drops everything fetched for the current user, as on sign out.
func (s *Session) Reset() error {
	err := s.Tracker.Cleanup()
	s.Tracker.Reset()
	s.Timeline.Reset()
	s.Favorites.Clear()
	s.Charts.Clear()
	s.TaskStore.Clear()
	s.EntryStore.Clear()
	s.TagStore.Clear()
	return err
}

// Close unsubscribes and releases the gateway when it holds resources.
func (s *Session) Close() error {
	errs := []error{s.Tracker.Cleanup()}
	if c, ok := s.Gateway.(io.Closer); ok {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}
