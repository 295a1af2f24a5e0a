// Package models defines the core domain types for hourglass.
package models

import (
	"strings"
	"time"

	"github.com/fentz26/hourglass/internal/aggregate"
)

// DateLayout is the wire and storage format of calendar dates.
const DateLayout = "2006-01-02"

// Task is one logged block of time against a category.
type Task struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Category     string    `json:"category"`
	Hours        float64   `json:"hours"`
	Date         string    `json:"date"` // YYYY-MM-DD
	Reflection   string    `json:"reflection,omitempty"`
	WeeklyGoalID string    `json:"weekly_goal_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TaskInput carries the user-editable fields of a task.
type TaskInput struct {
	Name         string  `json:"name"`
	Category     string  `json:"category,omitempty"`
	Hours        float64 `json:"hours"`
	Date         string  `json:"date"`
	Reflection   string  `json:"reflection,omitempty"`
	WeeklyGoalID string  `json:"weekly_goal_id,omitempty"`
}

// Normalize trims text fields. A task without an explicit category is
// filed under its own name.
func (in TaskInput) Normalize() TaskInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Category = strings.TrimSpace(in.Category)
	if in.Category == "" {
		in.Category = in.Name
	}
	in.Reflection = strings.TrimSpace(in.Reflection)
	in.WeeklyGoalID = strings.TrimSpace(in.WeeklyGoalID)
	return in
}

// TaskFilter narrows a task listing. Zero fields match everything.
type TaskFilter struct {
	From     string // inclusive YYYY-MM-DD
	To       string // inclusive YYYY-MM-DD
	Category string
}

// WeeklyGoal is a target number of hours for a category in one week.
type WeeklyGoal struct {
	ID          string    `json:"id"`
	Category    string    `json:"category"`
	TargetHours float64   `json:"target_hours"`
	WeekStart   string    `json:"week_start"` // YYYY-MM-DD
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// GoalInput carries the user-editable fields of a weekly goal.
type GoalInput struct {
	Category    string  `json:"category"`
	TargetHours float64 `json:"target_hours"`
	WeekStart   string  `json:"week_start"`
}

// Note is a free-form titled note.
type Note struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NoteInput carries the user-editable fields of a note.
type NoteInput struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// JournalEntry is the single journal text for a calendar date.
type JournalEntry struct {
	ID        string    `json:"id"`
	Date      string    `json:"date"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PlanStatus is the lifecycle stage of a plan.
type PlanStatus string

const (
	PlanPlanning   PlanStatus = "planning"
	PlanInProgress PlanStatus = "in_progress"
	PlanCompleted  PlanStatus = "completed"
	PlanCancelled  PlanStatus = "cancelled"
)

// PlanStatuses lists every valid status in lifecycle order.
var PlanStatuses = []PlanStatus{PlanPlanning, PlanInProgress, PlanCompleted, PlanCancelled}

// Valid reports whether s is a known status.
func (s PlanStatus) Valid() bool {
	for _, v := range PlanStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Plan is a multi-day plan spanning [StartDate, EndDate].
type Plan struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	StartDate   string     `json:"start_date"`
	EndDate     string     `json:"end_date"`
	Status      PlanStatus `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// PlanInput carries the user-editable fields of a plan. An empty Status
// means planning.
type PlanInput struct {
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	StartDate   string     `json:"start_date"`
	EndDate     string     `json:"end_date"`
	Status      PlanStatus `json:"status,omitempty"`
}

// PlanItem is one dated step of a plan.
type PlanItem struct {
	ID          string    `json:"id"`
	PlanID      string    `json:"plan_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Date        string    `json:"date"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// PlanItemInput carries the user-editable fields of a plan item.
type PlanItemInput struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Date        string `json:"date"`
	Completed   bool   `json:"completed"`
}

// PlanProgress counts completed items.
func PlanProgress(items []PlanItem) (done, total int) {
	for _, it := range items {
		if it.Completed {
			done++
		}
	}
	return done, len(items)
}

// ActivityEntry records one mutation made through the service.
type ActivityEntry struct {
	ID         string    `json:"id"`
	Action     string    `json:"action"`
	InputsHash string    `json:"inputs_hash"`
	Outcome    string    `json:"outcome"`
	RefID      string    `json:"ref_id,omitempty"`
	Details    string    `json:"details,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// ParseDate parses a YYYY-MM-DD date as midnight UTC.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, strings.TrimSpace(s))
}

// FormatDate renders t's calendar date as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// Record converts a task to the aggregation input. Unparseable dates yield
// the zero time, which falls outside every real week.
func (t Task) Record() aggregate.TaskRecord {
	d, _ := ParseDate(t.Date)
	return aggregate.TaskRecord{
		Category: t.Category,
		Hours:    t.Hours,
		Date:     d,
		GoalRef:  t.WeeklyGoalID,
	}
}

// Definition converts a weekly goal to the aggregation input.
func (g WeeklyGoal) Definition() aggregate.GoalDefinition {
	d, _ := ParseDate(g.WeekStart)
	return aggregate.GoalDefinition{
		ID:          g.ID,
		Category:    g.Category,
		TargetHours: g.TargetHours,
		WeekStart:   d,
	}
}

// Records converts a task list for aggregation.
func Records(tasks []Task) []aggregate.TaskRecord {
	out := make([]aggregate.TaskRecord, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.Record())
	}
	return out
}

// Definitions converts a goal list for aggregation.
func Definitions(goals []WeeklyGoal) []aggregate.GoalDefinition {
	out := make([]aggregate.GoalDefinition, 0, len(goals))
	for _, g := range goals {
		out = append(out, g.Definition())
	}
	return out
}
