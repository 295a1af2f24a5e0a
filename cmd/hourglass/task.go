package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/fentz26/hourglass/internal/client"
	"github.com/fentz26/hourglass/internal/models"
	"github.com/fentz26/hourglass/internal/tui"
	"github.com/spf13/cobra"
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Log and manage tasks",
}

var taskAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Log time spent on a task",
	RunE:  runTaskAdd,
}

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks",
	RunE:  runTaskList,
}

var taskShowCmd = &cobra.Command{
	Use:   "show [task-id]",
	Short: "Show task details",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskShow,
}

var taskEditCmd = &cobra.Command{
	Use:   "edit [task-id]",
	Short: "Change a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskEdit,
}

var taskRmCmd = &cobra.Command{
	Use:   "rm [task-id]",
	Short: "Delete a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskRm,
}

var (
	taskName       string
	taskCategory   string
	taskHours      float64
	taskDate       string
	taskReflection string
	taskGoalID     string

	taskFrom string
	taskTo   string
)

func init() {
	taskCmd.AddCommand(taskAddCmd, taskListCmd, taskShowCmd, taskEditCmd, taskRmCmd)

	for _, c := range []*cobra.Command{taskAddCmd, taskEditCmd} {
		c.Flags().StringVar(&taskName, "name", "", "Task name")
		c.Flags().StringVar(&taskCategory, "category", "", "Category (defaults to the task name)")
		c.Flags().Float64Var(&taskHours, "hours", 0, "Hours spent")
		c.Flags().StringVar(&taskDate, "date", "", "Date as YYYY-MM-DD (default today)")
		c.Flags().StringVar(&taskReflection, "reflection", "", "Reflection")
		c.Flags().StringVar(&taskGoalID, "goal", "", "Weekly goal id to count towards")
	}
	taskAddCmd.MarkFlagRequired("name")
	taskAddCmd.MarkFlagRequired("hours")

	taskListCmd.Flags().StringVar(&taskFrom, "from", "", "First date (YYYY-MM-DD)")
	taskListCmd.Flags().StringVar(&taskTo, "to", "", "Last date (YYYY-MM-DD)")
	taskListCmd.Flags().StringVar(&taskCategory, "category", "", "Filter by category")
}

func runTaskAdd(cmd *cobra.Command, args []string) error {
	ctx, cancel := requestContext()
	defer cancel()

	if taskDate == "" {
		taskDate = today()
	}
	c := newClient()
	goalID, err := resolveGoalID(ctx, c, taskGoalID)
	if err != nil {
		return err
	}
	task, err := c.CreateTask(ctx, models.TaskInput{
		Name:         taskName,
		Category:     taskCategory,
		Hours:        taskHours,
		Date:         taskDate,
		Reflection:   taskReflection,
		WeeklyGoalID: goalID,
	})
	if err != nil {
		return err
	}
	fmt.Printf("Logged %s for %s (%s) on %s [%s]\n", tui.FormatHours(task.Hours), task.Name, task.Category, task.Date, truncateID(task.ID))
	return nil
}

func runTaskList(cmd *cobra.Command, args []string) error {
	ctx, cancel := requestContext()
	defer cancel()

	tasks, err := newClient().ListTasks(ctx, models.TaskFilter{From: taskFrom, To: taskTo, Category: taskCategory})
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		fmt.Println("No tasks found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDATE\tNAME\tCATEGORY\tHOURS")
	total := 0.0
	for _, t := range tasks {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", truncateID(t.ID), t.Date, truncate(t.Name, 40), truncate(t.Category, 24), tui.FormatHours(t.Hours))
		total += t.Hours
	}
	fmt.Fprintf(w, "\t\t\tTOTAL\t%s\n", tui.FormatHours(total))
	return w.Flush()
}

func runTaskShow(cmd *cobra.Command, args []string) error {
	ctx, cancel := requestContext()
	defer cancel()

	c := newClient()
	id, err := resolveTaskID(ctx, c, args[0])
	if err != nil {
		return err
	}
	task, err := c.GetTask(ctx, id)
	if err != nil {
		return err
	}

	fmt.Printf("ID:          %s\n", task.ID)
	fmt.Printf("Name:        %s\n", task.Name)
	fmt.Printf("Category:    %s\n", task.Category)
	fmt.Printf("Hours:       %s\n", tui.FormatHours(task.Hours))
	fmt.Printf("Date:        %s\n", task.Date)
	if task.Reflection != "" {
		fmt.Printf("Reflection:  %s\n", task.Reflection)
	}
	if task.WeeklyGoalID != "" {
		fmt.Printf("Goal:        %s\n", task.WeeklyGoalID)
	}
	fmt.Printf("Created:     %s\n", task.CreatedAt.Local().Format("2006-01-02 15:04"))
	fmt.Printf("Updated:     %s\n", task.UpdatedAt.Local().Format("2006-01-02 15:04"))
	return nil
}

func runTaskEdit(cmd *cobra.Command, args []string) error {
	ctx, cancel := requestContext()
	defer cancel()

	c := newClient()
	id, err := resolveTaskID(ctx, c, args[0])
	if err != nil {
		return err
	}
	task, err := c.GetTask(ctx, id)
	if err != nil {
		return err
	}

	in := models.TaskInput{
		Name:         task.Name,
		Category:     task.Category,
		Hours:        task.Hours,
		Date:         task.Date,
		Reflection:   task.Reflection,
		WeeklyGoalID: task.WeeklyGoalID,
	}
	flags := cmd.Flags()
	if flags.Changed("name") {
		in.Name = taskName
	}
	if flags.Changed("category") {
		in.Category = taskCategory
	}
	if flags.Changed("hours") {
		in.Hours = taskHours
	}
	if flags.Changed("date") {
		in.Date = taskDate
	}
	if flags.Changed("reflection") {
		in.Reflection = taskReflection
	}
	if flags.Changed("goal") {
		if in.WeeklyGoalID, err = resolveGoalID(ctx, c, taskGoalID); err != nil {
			return err
		}
	}

	updated, err := c.UpdateTask(ctx, id, in)
	if err != nil {
		return err
	}
	fmt.Printf("Updated task %s\n", truncateID(updated.ID))
	return nil
}

func runTaskRm(cmd *cobra.Command, args []string) error {
	ctx, cancel := requestContext()
	defer cancel()

	c := newClient()
	id, err := resolveTaskID(ctx, c, args[0])
	if err != nil {
		return err
	}
	if err := c.DeleteTask(ctx, id); err != nil {
		return err
	}
	fmt.Printf("Deleted task %s\n", truncateID(id))
	return nil
}

func resolveTaskID(ctx context.Context, c *client.Client, prefix string) (string, error) {
	tasks, err := c.ListTasks(ctx, models.TaskFilter{})
	if err != nil {
		return "", err
	}
	ids := make([]string, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
	}
	return resolveID(prefix, ids)
}
