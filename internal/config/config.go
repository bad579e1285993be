// Package config loads and saves the CLI configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	BackendLocal    = "local"
	BackendSupabase = "supabase"

	appDir      = "simpletracker"
	defaultFile = "config.yaml"
)

type Config struct {
	Backend  string   `yaml:"backend" validate:"oneof=local supabase"`
	DataFile string   `yaml:"data_file" validate:"required"`
	Supabase Supabase `yaml:"supabase"`
	PageSize int      `yaml:"page_size" validate:"min=1,max=1000"`
	// DailyGoalMinutes is the tracked time aimed for on a work day.
	DailyGoalMinutes int `yaml:"daily_goal_minutes" validate:"min=0,max=1440"`
	// WorkDays uses 1 for Monday through 7 for Sunday.
	WorkDays    []int     `yaml:"work_days" validate:"dive,min=1,max=7"`
	Log         Log       `yaml:"log"`
	Dashboard   Dashboard `yaml:"dashboard"`
	MetricsAddr string    `yaml:"metrics_addr,omitempty" validate:"omitempty,hostname_port"`
}

type Supabase struct {
	URL      string `yaml:"url,omitempty" validate:"omitempty,url"`
	AnonKey  string `yaml:"anon_key,omitempty"`
	Email    string `yaml:"email,omitempty" validate:"omitempty,email"`
	Password string `yaml:"password,omitempty"`
}

type Log struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

type Dashboard struct {
	Refresh     time.Duration `yaml:"refresh" validate:"min=1s"`
	ChartPeriod string        `yaml:"chart_period" validate:"oneof=today yesterday this_week last_week this_month last_month this_year last_year"`
}

var validate = validator.New()

// Dir returns the directory holding the config and the local data file.
func Dir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, appDir), nil
}

// DefaultPath is the config file used when none is given.
func DefaultPath() string {
	dir, err := Dir()
	if err != nil {
		return defaultFile
	}
	return filepath.Join(dir, defaultFile)
}

// Default returns a configuration for the local backend.
func Default() *Config {
	dataFile := "simpletracker.json"
	if dir, err := Dir(); err == nil {
		dataFile = filepath.Join(dir, "data.json")
	}
	return &Config{
		Backend:          BackendLocal,
		DataFile:         dataFile,
		PageSize:         30,
		DailyGoalMinutes: 480,
		WorkDays:         []int{1, 2, 3, 4, 5},
		Log:              Log{Level: "info", Format: "text"},
		Dashboard:        Dashboard{Refresh: 30 * time.Second, ChartPeriod: "this_week"},
	}
}

// Load reads path. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.fill()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// fill restores defaults for keys present but left empty.
func (c *Config) fill() {
	def := Default()
	if c.Backend == "" {
		c.Backend = def.Backend
	}
	if c.DataFile == "" {
		c.DataFile = def.DataFile
	}
	if c.PageSize == 0 {
		c.PageSize = def.PageSize
	}
	if len(c.WorkDays) == 0 {
		c.WorkDays = def.WorkDays
	}
	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = def.Log.Format
	}
	if c.Dashboard.Refresh == 0 {
		c.Dashboard.Refresh = def.Dashboard.Refresh
	}
	if c.Dashboard.ChartPeriod == "" {
		c.Dashboard.ChartPeriod = def.Dashboard.ChartPeriod
	}
}

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Backend == BackendSupabase && (c.Supabase.URL == "" || c.Supabase.AnonKey == "") {
		return errors.New("supabase backend needs supabase.url and supabase.anon_key")
	}
	return nil
}

// Save writes the config through a temp file and a rename.
func Save(path string, c *Config) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return err
		}
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// ParseAssignment splits "key=value".
func ParseAssignment(s string) (key, value string, err error) {
	parts := strings.SplitN(s, "=", 2)
	if len(parts) != 2 || strings.TrimSpace(parts[0]) == "" {
		return "", "", fmt.Errorf("invalid config format %q, use key=value", s)
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), nil
}

// Keys lists the keys accepted by Set.
var Keys = []string{
	"backend", "data_file", "page_size", "dailygoal", "workdays",
	"supabase.url", "supabase.anon_key", "supabase.email", "supabase.password",
	"log.level", "log.format", "dashboard.refresh", "dashboard.chart_period", "metrics_addr",
}

// Set changes one key and validates the result. On error c is unchanged.
func (c *Config) Set(key, value string) error {
	next := *c
	next.WorkDays = append([]int(nil), c.WorkDays...)

	switch key {
	case "backend":
		next.Backend = value
	case "data_file":
		next.DataFile = value
	case "page_size":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("page_size: %w", err)
		}
		next.PageSize = n
	case "dailygoal":
		mins, err := ParseTimeToMinutes(value)
		if err != nil {
			return fmt.Errorf("dailygoal: %w", err)
		}
		next.DailyGoalMinutes = mins
	case "workdays":
		days, err := ParseWorkDays(value)
		if err != nil {
			return fmt.Errorf("workdays: %w", err)
		}
		next.WorkDays = days
	case "supabase.url":
		next.Supabase.URL = value
	case "supabase.anon_key":
		next.Supabase.AnonKey = value
	case "supabase.email":
		next.Supabase.Email = value
	case "supabase.password":
		next.Supabase.Password = value
	case "log.level":
		next.Log.Level = value
	case "log.format":
		next.Log.Format = value
	case "dashboard.refresh":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("dashboard.refresh: %w", err)
		}
		next.Dashboard.Refresh = d
	case "dashboard.chart_period":
		next.Dashboard.ChartPeriod = value
	case "metrics_addr":
		next.MetricsAddr = value
	default:
		return fmt.Errorf("unknown config key %q", key)
	}

	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}

// ParseTimeToMinutes parses "HH:MM".
func ParseTimeToMinutes(s string) (int, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time format, use HH:MM")
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, err
	}
	mins, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, err
	}
	if mins < 0 || mins > 59 || hours < 0 {
		return 0, fmt.Errorf("invalid time %q", s)
	}
	return hours*60 + mins, nil
}

var dayMap = map[string]int{
	"mon": 1, "tue": 2, "wed": 3, "thu": 4, "fri": 5, "sat": 6, "sun": 7,
}

// ParseWorkDays parses a day range such as "Mon-Fri" or a list such as "Mon,Wed,Fri".
func ParseWorkDays(s string) ([]int, error) {
	var days []int
	if strings.Contains(s, "-") {
		parts := strings.Split(s, "-")
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid range format")
		}
		start, ok1 := dayMap[strings.ToLower(strings.TrimSpace(parts[0]))]
		end, ok2 := dayMap[strings.ToLower(strings.TrimSpace(parts[1]))]
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("invalid day names")
		}
		if start > end {
			return nil, fmt.Errorf("range %q ends before it starts", s)
		}
		for i := start; i <= end; i++ {
			days = append(days, i)
		}
		return days, nil
	}
	for _, part := range strings.Split(s, ",") {
		day, ok := dayMap[strings.ToLower(strings.TrimSpace(part))]
		if !ok {
			return nil, fmt.Errorf("invalid day name: %s", part)
		}
		days = append(days, day)
	}
	return days, nil
}

// IsWorkDay reports whether t falls on one of the configured work days.
func (c *Config) IsWorkDay(t time.Time) bool {
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	for _, day := range c.WorkDays {
		if day == weekday {
			return true
		}
	}
	return false
}
