// Package aggregate derives category totals and weekly goal progress from
// already-fetched task records. Every function is pure: no I/O, no hidden
// state, and empty inputs give empty or zeroed results.
//
// Hours are float64 and never rounded here; formatting belongs to callers.
package aggregate

import (
	"sort"
	"strings"
	"time"
)

// UncategorizedLabel groups records whose category is empty.
const UncategorizedLabel = "Uncategorized"

// DaysPerWeek is the length of a goal week.
const DaysPerWeek = 7

// TaskRecord is one logged block of time.
type TaskRecord struct {
	Category string
	Hours    float64
	Date     time.Time
	// GoalRef is the id of the weekly goal the task was logged against,
	// or "" for records that were never linked.
	GoalRef string
}

// GoalDefinition is a target number of hours for a category in one week.
type GoalDefinition struct {
	ID          string
	Category    string
	TargetHours float64
	WeekStart   time.Time
}

// CategoryProgress is one goal's progress for its week.
type CategoryProgress struct {
	GoalID       string
	Category     string
	CurrentHours float64
	TargetHours  float64
	Percent      float64
}

// CategoryTotal is a lifetime total for one category.
type CategoryTotal struct {
	Category string
	Hours    float64
	Count    int
}

// DayBreakdown is one day of a weekly chart.
type DayBreakdown struct {
	Date       time.Time
	Total      float64
	ByCategory map[string]float64
}

// Day truncates t to its calendar date, expressed as midnight UTC so dates
// from different locations compare by their wall-clock day.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// WeekStart returns the most recent start day (on or before t) of the week
// containing t.
func WeekStart(t time.Time, start time.Weekday) time.Time {
	day := Day(t)
	offset := (int(day.Weekday()) - int(start) + DaysPerWeek) % DaysPerWeek
	return day.AddDate(0, 0, -offset)
}

// InWeek reports whether date lies in [weekStart, weekStart+6 days].
func InWeek(date, weekStart time.Time) bool {
	d := Day(date)
	first := Day(weekStart)
	last := first.AddDate(0, 0, DaysPerWeek-1)
	return !d.Before(first) && !d.After(last)
}

// categoryOf returns the record's grouping label.
func categoryOf(r TaskRecord) string {
	if strings.TrimSpace(r.Category) == "" {
		return UncategorizedLabel
	}
	return r.Category
}

// hoursOf clamps negative hours to a zero contribution.
func hoursOf(r TaskRecord) float64 {
	if r.Hours > 0 {
		return r.Hours
	}
	return 0
}

// SumByCategory totals hours per category across all records, regardless
// of date.
func SumByCategory(records []TaskRecord) map[string]float64 {
	totals := make(map[string]float64)
	for _, r := range records {
		totals[categoryOf(r)] += hoursOf(r)
	}
	return totals
}

// RankCategories returns lifetime totals ordered by descending hours, ties
// broken by category name.
func RankCategories(records []TaskRecord) []CategoryTotal {
	index := make(map[string]int)
	var totals []CategoryTotal
	for _, r := range records {
		c := categoryOf(r)
		i, ok := index[c]
		if !ok {
			i = len(totals)
			index[c] = i
			totals = append(totals, CategoryTotal{Category: c})
		}
		totals[i].Hours += hoursOf(r)
		totals[i].Count++
	}
	sort.SliceStable(totals, func(i, j int) bool {
		if totals[i].Hours != totals[j].Hours {
			return totals[i].Hours > totals[j].Hours
		}
		return totals[i].Category < totals[j].Category
	})
	return totals
}

// ComputeWeeklyProgress returns progress for every goal whose week starts
// on weekStart, in the order the goals were given. Duplicate goals for the
// same category are each reported; callers choose which to show.
//
// A record counts toward a goal when it falls inside the week and belongs
// to the goal: records linked through GoalRef belong only to that goal,
// unlinked records belong by exact category name.
func ComputeWeeklyProgress(records []TaskRecord, goals []GoalDefinition, weekStart time.Time) []CategoryProgress {
	week := Day(weekStart)

	var inWeek []TaskRecord
	for _, r := range records {
		if InWeek(r.Date, week) {
			inWeek = append(inWeek, r)
		}
	}

	progress := make([]CategoryProgress, 0, len(goals))
	for _, g := range goals {
		if !Day(g.WeekStart).Equal(week) {
			continue
		}
		var current float64
		for _, r := range inWeek {
			if belongsTo(r, g) {
				current += hoursOf(r)
			}
		}
		target := g.TargetHours
		if target < 0 {
			target = 0
		}
		progress = append(progress, CategoryProgress{
			GoalID:       g.ID,
			Category:     g.Category,
			CurrentHours: current,
			TargetHours:  target,
			Percent:      Percent(current, target),
		})
	}
	return progress
}

func belongsTo(r TaskRecord, g GoalDefinition) bool {
	if r.GoalRef != "" {
		return r.GoalRef == g.ID
	}
	return r.Category == g.Category
}

// Percent is 100*current/target clamped to [0, 100]; zero when target <= 0.
func Percent(current, target float64) float64 {
	if !(target > 0) {
		return 0
	}
	p := 100 * current / target
	switch {
	case p > 100:
		return 100
	case p < 0 || p != p:
		return 0
	}
	return p
}

// SumByDay totals hours per calendar day.
func SumByDay(records []TaskRecord) map[time.Time]float64 {
	totals := make(map[time.Time]float64)
	for _, r := range records {
		totals[Day(r.Date)] += hoursOf(r)
	}
	return totals
}

// WeeklyBreakdown returns seven days starting at weekStart. Every category
// that appears in the week is present on each day, with zero on days it
// has no records.
func WeeklyBreakdown(records []TaskRecord, weekStart time.Time) []DayBreakdown {
	first := Day(weekStart)
	days := make([]DayBreakdown, DaysPerWeek)
	for i := range days {
		days[i] = DayBreakdown{
			Date:       first.AddDate(0, 0, i),
			ByCategory: make(map[string]float64),
		}
	}

	seen := make(map[string]bool)
	for _, r := range records {
		if !InWeek(r.Date, first) {
			continue
		}
		i := int(Day(r.Date).Sub(first).Hours() / 24)
		c := categoryOf(r)
		h := hoursOf(r)
		days[i].ByCategory[c] += h
		days[i].Total += h
		seen[c] = true
	}

	for c := range seen {
		for i := range days {
			if _, ok := days[i].ByCategory[c]; !ok {
				days[i].ByCategory[c] = 0
			}
		}
	}
	return days
}
