package model

import (
	"time"
)

// PeriodType names a calendar window relative to now.
type PeriodType string

const (
	PeriodToday     PeriodType = "today"
	PeriodYesterday PeriodType = "yesterday"
	PeriodThisWeek  PeriodType = "this_week"
	PeriodLastWeek  PeriodType = "last_week"
	PeriodThisMonth PeriodType = "this_month"
	PeriodLastMonth PeriodType = "last_month"
	PeriodThisYear  PeriodType = "this_year"
	PeriodLastYear  PeriodType = "last_year"
)

// Field is a value that can be read from a data point or a data point group.
type Field string

const (
	FieldTaskName   Field = "task_name"
	FieldTagName    Field = "tag_name"
	FieldTagColor   Field = "tag_color"
	FieldTagDotText Field = "tag_dot_text"
	FieldDuration   Field = "duration"
	FieldWeekday    Field = "weekday"
	FieldMonth      Field = "month"
	FieldYear       Field = "year"
	FieldCount      Field = "count"
)

// GroupKey is a data point field that data points can be bucketed by.
type GroupKey string

const (
	GroupTask    GroupKey = "task_id"
	GroupTag     GroupKey = "tag_id"
	GroupWeekday GroupKey = "weekday"
	GroupMonth   GroupKey = "month"
	GroupYear    GroupKey = "year"
	GroupEntry   GroupKey = "time_entry_id"
)

// DataPoint is one row of the time entry report: a closed entry joined with its
// task and at most one of the task's tags. An entry with several tags appears once per tag.
type DataPoint struct {
	TimeEntryID string    `json:"time_entry_id"`
	Notes       *string   `json:"time_entry_notes"`
	TaskID      string    `json:"task_id"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	TaskName    string    `json:"task_name"`
	TagID       *string   `json:"tag_id"`
	TagName     *string   `json:"tag_name"`
	TagColor    *string   `json:"tag_color"`
	TagDotText  *string   `json:"tag_dot_text"`
	// Duration is in milliseconds.
	Duration int64 `json:"duration"`
	// Weekday is 0 for Sunday.
	Weekday int `json:"weekday"`
	// Month is 1 for January.
	Month int `json:"month"`
	Year  int `json:"year"`
}

// Value returns the named field, or nil when it is unset.
func (p DataPoint) Value(name string) any {
	switch name {
	case string(GroupEntry):
		return p.TimeEntryID
	case string(GroupTask):
		return p.TaskID
	case string(GroupTag):
		return deref(p.TagID)
	case string(FieldTaskName):
		return p.TaskName
	case string(FieldTagName):
		return deref(p.TagName)
	case string(FieldTagColor):
		return deref(p.TagColor)
	case string(FieldTagDotText):
		return deref(p.TagDotText)
	case string(FieldDuration):
		return p.Duration
	case string(FieldWeekday):
		return p.Weekday
	case string(FieldMonth):
		return p.Month
	case string(FieldYear):
		return p.Year
	}
	return nil
}

func deref(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

// ChartConfig describes one user chart.
type ChartConfig struct {
	Title       string     `json:"title" yaml:"title" validate:"required"`
	Description string     `json:"description" yaml:"description"`
	PeriodType  PeriodType `json:"periodType" yaml:"period_type" validate:"required,oneof=today yesterday this_week last_week this_month last_month this_year last_year"`
	GroupBy     []GroupKey `json:"groupBy" yaml:"group_by" validate:"min=1,dive,oneof=task_id tag_id weekday month year time_entry_id"`
	XAxisField  Field      `json:"xAxisField" yaml:"x_axis_field" validate:"required"`
	YAxisField  Field      `json:"yAxisField" yaml:"y_axis_field" validate:"required"`
}

// ChartRecord is either an UnsavedChart or a SavedChart.
type ChartRecord interface {
	Chart() ChartConfig
	isChartRecord()
}

// UnsavedChart is a chart configuration that has never been persisted.
type UnsavedChart struct {
	Config ChartConfig
}

func (u UnsavedChart) Chart() ChartConfig { return u.Config }
func (UnsavedChart) isChartRecord()       {}

// SavedChart is a persisted chart configuration.
type SavedChart struct {
	ID        string      `json:"id"`
	UserID    string      `json:"user_id"`
	CreatedAt time.Time   `json:"created_at"`
	Config    ChartConfig `json:"chart_config"`
}

func (s SavedChart) Chart() ChartConfig { return s.Config }
func (SavedChart) isChartRecord()       {}
