package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/fentz26/hourglass/internal/aggregate"
	"github.com/fentz26/hourglass/internal/client"
	"github.com/fentz26/hourglass/internal/models"
	"github.com/fentz26/hourglass/internal/tui"
	"github.com/spf13/cobra"
)

var goalCmd = &cobra.Command{
	Use:   "goal",
	Short: "Manage weekly goals",
}

var goalAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Set a weekly hours target for a category",
	RunE:  runGoalAdd,
}

var goalListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show a week's goals and progress",
	RunE:  runGoalList,
}

var goalSetCmd = &cobra.Command{
	Use:   "set [goal-id]",
	Short: "Change a goal",
	Args:  cobra.ExactArgs(1),
	RunE:  runGoalSet,
}

var goalRmCmd = &cobra.Command{
	Use:   "rm [goal-id]",
	Short: "Delete a goal; its tasks are kept",
	Args:  cobra.ExactArgs(1),
	RunE:  runGoalRm,
}

var (
	goalCategory string
	goalTarget   float64
	goalWeek     string
)

func init() {
	goalCmd.AddCommand(goalAddCmd, goalListCmd, goalSetCmd, goalRmCmd)

	for _, c := range []*cobra.Command{goalAddCmd, goalSetCmd} {
		c.Flags().StringVar(&goalCategory, "category", "", "Category the goal counts")
		c.Flags().Float64Var(&goalTarget, "target", 0, "Target hours for the week")
		c.Flags().StringVar(&goalWeek, "week", "", "Any date in the goal's week (default this week)")
	}
	goalAddCmd.MarkFlagRequired("category")
	goalAddCmd.MarkFlagRequired("target")

	goalListCmd.Flags().StringVar(&goalWeek, "week", "", "Any date in the week (default this week)")
}

// weekOf returns the configured start of the week containing date, or of
// the current week when date is empty.
func weekOf(date string) (time.Time, error) {
	if date == "" {
		return aggregate.WeekStart(time.Now(), cfg.WeekStart()), nil
	}
	d, err := models.ParseDate(date)
	if err != nil {
		return time.Time{}, fmt.Errorf("week must be YYYY-MM-DD, got %q", date)
	}
	return aggregate.WeekStart(d, cfg.WeekStart()), nil
}

func runGoalAdd(cmd *cobra.Command, args []string) error {
	ctx, cancel := requestContext()
	defer cancel()

	week, err := weekOf(goalWeek)
	if err != nil {
		return err
	}
	goal, err := newClient().CreateGoal(ctx, models.GoalInput{
		Category:    goalCategory,
		TargetHours: goalTarget,
		WeekStart:   models.FormatDate(week),
	})
	if err != nil {
		return err
	}
	fmt.Printf("Goal %s: %s of %s in the week of %s\n", truncateID(goal.ID), tui.FormatHours(goal.TargetHours), goal.Category, goal.WeekStart)
	return nil
}

func runGoalList(cmd *cobra.Command, args []string) error {
	ctx, cancel := requestContext()
	defer cancel()

	week, err := weekOf(goalWeek)
	if err != nil {
		return err
	}
	snap, err := newClient().FetchSnapshot(ctx, week)
	if err != nil {
		return err
	}
	progress := snap.Progress()
	if len(progress) == 0 {
		fmt.Printf("No goals for the week of %s\n", models.FormatDate(week))
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Week of %s\n", models.FormatDate(week))
	fmt.Fprintln(w, "ID\tCATEGORY\tDONE\tTARGET\tPROGRESS")
	for _, p := range progress {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.0f%%\n", truncateID(p.GoalID), p.Category,
			tui.FormatHours(p.CurrentHours), tui.FormatHours(p.TargetHours), p.Percent)
	}
	return w.Flush()
}

func runGoalSet(cmd *cobra.Command, args []string) error {
	ctx, cancel := requestContext()
	defer cancel()

	c := newClient()
	id, err := resolveGoalID(ctx, c, args[0])
	if err != nil {
		return err
	}
	goals, err := c.ListGoals(ctx, "")
	if err != nil {
		return err
	}
	var current *models.WeeklyGoal
	for i := range goals {
		if goals[i].ID == id {
			current = &goals[i]
		}
	}
	if current == nil {
		return fmt.Errorf("goal %s not found", id)
	}

	in := models.GoalInput{Category: current.Category, TargetHours: current.TargetHours, WeekStart: current.WeekStart}
	flags := cmd.Flags()
	if flags.Changed("category") {
		in.Category = goalCategory
	}
	if flags.Changed("target") {
		in.TargetHours = goalTarget
	}
	if flags.Changed("week") {
		week, err := weekOf(goalWeek)
		if err != nil {
			return err
		}
		in.WeekStart = models.FormatDate(week)
	}

	goal, err := c.UpdateGoal(ctx, id, in)
	if err != nil {
		return err
	}
	fmt.Printf("Goal %s: %s of %s in the week of %s\n", truncateID(goal.ID), tui.FormatHours(goal.TargetHours), goal.Category, goal.WeekStart)
	return nil
}

func runGoalRm(cmd *cobra.Command, args []string) error {
	ctx, cancel := requestContext()
	defer cancel()

	c := newClient()
	id, err := resolveGoalID(ctx, c, args[0])
	if err != nil {
		return err
	}
	if err := c.DeleteGoal(ctx, id); err != nil {
		return err
	}
	fmt.Printf("Deleted goal %s\n", truncateID(id))
	return nil
}

// resolveGoalID expands a goal id prefix. An empty prefix means no goal.
func resolveGoalID(ctx context.Context, c *client.Client, prefix string) (string, error) {
	if prefix == "" {
		return "", nil
	}
	goals, err := c.ListGoals(ctx, "")
	if err != nil {
		return "", err
	}
	ids := make([]string, len(goals))
	for i, g := range goals {
		ids[i] = g.ID
	}
	return resolveID(prefix, ids)
}
