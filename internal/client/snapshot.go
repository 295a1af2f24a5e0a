package client

import (
	"context"
	"fmt"
	"time"

	"github.com/fentz26/hourglass/internal/aggregate"
	"github.com/fentz26/hourglass/internal/models"
)

// Snapshot is everything the dashboard needs for one week, fetched once so
// every view derives from the same data.
type Snapshot struct {
	WeekStart time.Time
	Tasks     []models.Task // all tasks, for lifetime totals
	Goals     []models.WeeklyGoal
}

// FetchSnapshot loads all tasks and the goals of the week starting on
// weekStart.
func (c *Client) FetchSnapshot(ctx context.Context, weekStart time.Time) (*Snapshot, error) {
	tasks, err := c.ListTasks(ctx, models.TaskFilter{})
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	goals, err := c.ListGoals(ctx, models.FormatDate(weekStart))
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	return &Snapshot{WeekStart: aggregate.Day(weekStart), Tasks: tasks, Goals: goals}, nil
}

// Progress returns the week's goal progress.
func (s *Snapshot) Progress() []aggregate.CategoryProgress {
	return aggregate.ComputeWeeklyProgress(models.Records(s.Tasks), models.Definitions(s.Goals), s.WeekStart)
}

// Ranking returns lifetime category totals, largest first.
func (s *Snapshot) Ranking() []aggregate.CategoryTotal {
	return aggregate.RankCategories(models.Records(s.Tasks))
}

// Breakdown returns the week's per-day hours.
func (s *Snapshot) Breakdown() []aggregate.DayBreakdown {
	return aggregate.WeeklyBreakdown(models.Records(s.Tasks), s.WeekStart)
}

// WeekTasks returns the tasks dated inside the snapshot week.
func (s *Snapshot) WeekTasks() []models.Task {
	var out []models.Task
	for _, t := range s.Tasks {
		if d, err := models.ParseDate(t.Date); err == nil && aggregate.InWeek(d, s.WeekStart) {
			out = append(out, t)
		}
	}
	return out
}
