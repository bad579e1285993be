package chart

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/rezmoss/simpletracker/internal/gateway"
	"github.com/rezmoss/simpletracker/internal/model"
)

var validate = validator.New()

// Validate checks a chart configuration, including that its axis fields are
// reachable from its group keys.
func Validate(cfg model.ChartConfig) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("%w: %w", model.ErrInvalidArgument, err)
	}
	if !slices.Contains(AllowedXFields(cfg.GroupBy), cfg.XAxisField) {
		return model.Invalid("x axis field %q is not brought in by %v", cfg.XAxisField, cfg.GroupBy)
	}
	if !slices.Contains(AllowedYFields(cfg.GroupBy), cfg.YAxisField) {
		return model.Invalid("y axis field %q is not numeric for %v", cfg.YAxisField, cfg.GroupBy)
	}
	return nil
}

// Configs holds the user's saved chart configurations.
type Configs struct {
	gw  gateway.Gateway
	log *slog.Logger

	mu   sync.Mutex
	list []model.SavedChart
}

func NewConfigs(gw gateway.Gateway, log *slog.Logger) *Configs {
	if log == nil {
		log = slog.Default()
	}
	return &Configs{gw: gw, log: log}
}

// List returns the saved charts, newest first as fetched.
func (c *Configs) List() []model.SavedChart {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.list)
}

func (c *Configs) Get(id string) (model.SavedChart, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.index(id); i >= 0 {
		return c.list[i], true
	}
	return model.SavedChart{}, false
}

// Fetch replaces the local list with the backend's.
func (c *Configs) Fetch(ctx context.Context) error {
	list, err := c.gw.ListCharts(ctx)
	if err != nil {
		c.log.Warn("failed to fetch charts", "error", err)
		return model.Persistence("fetch charts", err)
	}
	c.mu.Lock()
	c.list = list
	c.mu.Unlock()
	return nil
}

// Save validates and persists rec. Unsaved records come back with an id.
func (c *Configs) Save(ctx context.Context, rec model.ChartRecord) (model.SavedChart, error) {
	if rec == nil {
		return model.SavedChart{}, model.Invalid("chart is required")
	}
	if err := Validate(rec.Chart()); err != nil {
		return model.SavedChart{}, err
	}
	saved, err := c.gw.SaveChart(ctx, rec)
	if err != nil {
		return model.SavedChart{}, model.Persistence("save chart", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.index(saved.ID); i >= 0 {
		c.list[i] = saved
	} else {
		c.list = append(c.list, saved)
	}
	return saved, nil
}

// Delete removes a saved chart once the backend confirmed it.
func (c *Configs) Delete(ctx context.Context, id string) error {
	if id == "" {
		return model.Invalid("chart id is required")
	}
	if err := c.gw.DeleteChart(ctx, id); err != nil {
		return model.Persistence("delete chart", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.index(id); i >= 0 {
		c.list = slices.Delete(c.list, i, i+1)
	}
	return nil
}

// Render fetches the report rows of cfg's period and aggregates them.
func (c *Configs) Render(ctx context.Context, cfg model.ChartConfig, now time.Time) (Data, error) {
	start, end, err := Interval(cfg.PeriodType, now)
	if err != nil {
		return Data{}, err
	}
	raw, err := c.gw.DataPoints(ctx, start, end)
	if err != nil {
		return Data{}, model.Persistence("fetch chart data", err)
	}
	return AggregateAt(cfg, raw, now)
}

// Clear forgets the fetched charts.
func (c *Configs) Clear() {
	c.mu.Lock()
	c.list = nil
	c.mu.Unlock()
}

func (c *Configs) index(id string) int {
	return slices.IndexFunc(c.list, func(s model.SavedChart) bool { return s.ID == id })
}
