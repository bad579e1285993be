package chart

import (
	"fmt"
	"slices"
	"time"

	"github.com/rezmoss/simpletracker/internal/model"
	"github.com/rezmoss/simpletracker/internal/timeutil"
)

// Untagged is shown for tag fields of data points without a tag.
const Untagged = "untagged"

// groupSetters lists the fields a group key brings into its group.
var groupSetters = map[model.GroupKey][]model.Field{
	model.GroupTask:    {model.FieldTaskName},
	model.GroupTag:     {model.FieldTagName, model.FieldTagColor, model.FieldTagDotText},
	model.GroupWeekday: {model.FieldWeekday},
	model.GroupMonth:   {model.FieldMonth},
	model.GroupYear:    {model.FieldYear},
	model.GroupEntry:   {model.FieldTaskName},
}

// aggregateFields are computed per group and always available on the Y axis.
var aggregateFields = []model.Field{model.FieldDuration, model.FieldCount}

var numericFields = []model.Field{
	model.FieldDuration,
	model.FieldWeekday,
	model.FieldMonth,
	model.FieldYear,
	model.FieldCount,
}

var descriptions = map[model.Field]string{
	model.FieldTaskName:   "Task",
	model.FieldTagName:    "Tag",
	model.FieldTagColor:   "Tag color",
	model.FieldTagDotText: "Tag initial",
	model.FieldDuration:   "Total time",
	model.FieldWeekday:    "Weekday",
	model.FieldMonth:      "Month",
	model.FieldYear:       "Year",
	model.FieldCount:      "Entries",
}

// Describe returns the human name of a field.
func Describe(f model.Field) string {
	if d, ok := descriptions[f]; ok {
		return d
	}
	return string(f)
}

// AllowedXFields returns the fields brought in by keys, in order, without repeats.
func AllowedXFields(keys []model.GroupKey) []model.Field {
	var out []model.Field
	for _, k := range keys {
		for _, f := range groupSetters[k] {
			if !slices.Contains(out, f) {
				out = append(out, f)
			}
		}
	}
	return out
}

// AllowedYFields returns the aggregates followed by the numeric X fields.
func AllowedYFields(keys []model.GroupKey) []model.Field {
	out := slices.Clone(aggregateFields)
	for _, f := range AllowedXFields(keys) {
		if slices.Contains(numericFields, f) && !slices.Contains(out, f) {
			out = append(out, f)
		}
	}
	return out
}

// FormatValue renders a field value for an axis label or tick.
func FormatValue(f model.Field, v any) string {
	switch f {
	case model.FieldTagName, model.FieldTagColor, model.FieldTagDotText:
		if v == nil || v == "" {
			return Untagged
		}
	case model.FieldDuration:
		if ms, ok := asInt64(v); ok {
			return timeutil.DurationStringMs(ms)
		}
	case model.FieldWeekday:
		if d, ok := asInt64(v); ok && d >= 0 && d < 7 {
			return time.Weekday(d).String()
		}
		return ""
	case model.FieldMonth:
		if m, ok := asInt64(v); ok && m >= 1 && m <= 12 {
			return time.Month(m).String()
		}
		return ""
	}
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

// keyLabel renders the part of an X label contributed by one group key.
func keyLabel(k model.GroupKey, values map[model.Field]any) string {
	switch k {
	case model.GroupTag:
		return FormatValue(model.FieldTagName, values[model.FieldTagName])
	case model.GroupWeekday:
		return FormatValue(model.FieldWeekday, values[model.FieldWeekday])
	case model.GroupMonth:
		return FormatValue(model.FieldMonth, values[model.FieldMonth])
	case model.GroupYear:
		return FormatValue(model.FieldYear, values[model.FieldYear])
	}
	return FormatValue(model.FieldTaskName, values[model.FieldTaskName])
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		return int64(n), true
	}
	return 0, false
}
