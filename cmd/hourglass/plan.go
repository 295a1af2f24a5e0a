package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/fentz26/hourglass/internal/client"
	"github.com/fentz26/hourglass/internal/models"
	"github.com/spf13/cobra"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Manage multi-day plans and their items",
}

var planAddCmd = &cobra.Command{
	Use:   "add [title...]",
	Short: "Create a plan",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runPlanAdd,
}

var planListCmd = &cobra.Command{
	Use:   "list",
	Short: "List plans, newest first",
	RunE:  runPlanList,
}

var planShowCmd = &cobra.Command{
	Use:   "show [plan-id]",
	Short: "Print a plan with its items and progress",
	Args:  cobra.ExactArgs(1),
	RunE:  runPlanShow,
}

var planSetCmd = &cobra.Command{
	Use:   "set [plan-id]",
	Short: "Change a plan",
	Args:  cobra.ExactArgs(1),
	RunE:  runPlanSet,
}

var planRmCmd = &cobra.Command{
	Use:   "rm [plan-id]",
	Short: "Delete a plan and its items",
	Args:  cobra.ExactArgs(1),
	RunE:  runPlanRm,
}

var planItemCmd = &cobra.Command{
	Use:   "item",
	Short: "Manage the items of a plan",
}

var planItemAddCmd = &cobra.Command{
	Use:   "add [plan-id] [title...]",
	Short: "Add a dated item to a plan",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runPlanItemAdd,
}

var planItemDoneCmd = &cobra.Command{
	Use:   "done [plan-id] [item-id]",
	Short: "Toggle an item between open and done",
	Args:  cobra.ExactArgs(2),
	RunE:  runPlanItemDone,
}

var planItemRmCmd = &cobra.Command{
	Use:   "rm [plan-id] [item-id]",
	Short: "Delete an item",
	Args:  cobra.ExactArgs(2),
	RunE:  runPlanItemRm,
}

var (
	planTitle       string
	planDescription string
	planStart       string
	planEnd         string
	planStatus      string
	planItemDate    string
)

func init() {
	planCmd.AddCommand(planAddCmd, planListCmd, planShowCmd, planSetCmd, planRmCmd, planItemCmd)
	planItemCmd.AddCommand(planItemAddCmd, planItemDoneCmd, planItemRmCmd)

	for _, c := range []*cobra.Command{planAddCmd, planSetCmd} {
		c.Flags().StringVar(&planDescription, "description", "", "What the plan is for")
		c.Flags().StringVar(&planStart, "start", "", "First day (YYYY-MM-DD, default today)")
		c.Flags().StringVar(&planEnd, "end", "", "Last day (YYYY-MM-DD, default the start)")
		c.Flags().StringVar(&planStatus, "status", "", "planning, in_progress, completed or cancelled")
	}
	planSetCmd.Flags().StringVar(&planTitle, "title", "", "New title")
	planListCmd.Flags().StringVar(&planStatus, "status", "", "Only plans with this status")

	planItemAddCmd.Flags().StringVar(&planItemDate, "date", "", "Day of the item (default the plan's start)")
	planItemAddCmd.Flags().StringVar(&planDescription, "description", "", "Item details")
}

func runPlanAdd(cmd *cobra.Command, args []string) error {
	ctx, cancel := requestContext()
	defer cancel()

	start := planStart
	if start == "" {
		start = today()
	}
	end := planEnd
	if end == "" {
		end = start
	}
	plan, err := newClient().CreatePlan(ctx, models.PlanInput{
		Title:       strings.Join(args, " "),
		Description: planDescription,
		StartDate:   start,
		EndDate:     end,
		Status:      models.PlanStatus(planStatus),
	})
	if err != nil {
		return err
	}
	fmt.Printf("Created plan %s: %s (%s to %s)\n", truncateID(plan.ID), plan.Title, plan.StartDate, plan.EndDate)
	return nil
}

func runPlanList(cmd *cobra.Command, args []string) error {
	ctx, cancel := requestContext()
	defer cancel()

	c := newClient()
	plans, err := c.ListPlans(ctx, planStatus)
	if err != nil {
		return err
	}
	if len(plans) == 0 {
		fmt.Println("No plans found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTART\tEND\tSTATUS\tDONE\tTITLE")
	for _, p := range plans {
		items, err := c.ListPlanItems(ctx, p.ID)
		if err != nil {
			return err
		}
		done, total := models.PlanProgress(items)
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d/%d\t%s\n", truncateID(p.ID), p.StartDate, p.EndDate, p.Status, done, total, truncate(p.Title, 40))
	}
	return w.Flush()
}

func runPlanShow(cmd *cobra.Command, args []string) error {
	ctx, cancel := requestContext()
	defer cancel()

	c := newClient()
	id, err := resolvePlanID(ctx, c, args[0])
	if err != nil {
		return err
	}
	plan, err := c.GetPlan(ctx, id)
	if err != nil {
		return err
	}
	items, err := c.ListPlanItems(ctx, id)
	if err != nil {
		return err
	}
	done, total := models.PlanProgress(items)

	fmt.Printf("%s  [%s]\n%s to %s, %d/%d done\n", plan.Title, plan.Status, plan.StartDate, plan.EndDate, done, total)
	if plan.Description != "" {
		fmt.Printf("\n%s\n", plan.Description)
	}
	if len(items) == 0 {
		return nil
	}
	fmt.Println()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, it := range items {
		mark := "[ ]"
		if it.Completed {
			mark = "[x]"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", mark, truncateID(it.ID), it.Date, truncate(it.Title, 50))
	}
	return w.Flush()
}

func runPlanSet(cmd *cobra.Command, args []string) error {
	ctx, cancel := requestContext()
	defer cancel()

	c := newClient()
	id, err := resolvePlanID(ctx, c, args[0])
	if err != nil {
		return err
	}
	current, err := c.GetPlan(ctx, id)
	if err != nil {
		return err
	}

	in := models.PlanInput{
		Title:       current.Title,
		Description: current.Description,
		StartDate:   current.StartDate,
		EndDate:     current.EndDate,
		Status:      current.Status,
	}
	flags := cmd.Flags()
	if flags.Changed("title") {
		in.Title = planTitle
	}
	if flags.Changed("description") {
		in.Description = planDescription
	}
	if flags.Changed("start") {
		in.StartDate = planStart
	}
	if flags.Changed("end") {
		in.EndDate = planEnd
	}
	if flags.Changed("status") {
		in.Status = models.PlanStatus(planStatus)
	}

	plan, err := c.UpdatePlan(ctx, id, in)
	if err != nil {
		return err
	}
	fmt.Printf("Plan %s: %s (%s to %s) [%s]\n", truncateID(plan.ID), plan.Title, plan.StartDate, plan.EndDate, plan.Status)
	return nil
}

func runPlanRm(cmd *cobra.Command, args []string) error {
	ctx, cancel := requestContext()
	defer cancel()

	c := newClient()
	id, err := resolvePlanID(ctx, c, args[0])
	if err != nil {
		return err
	}
	if err := c.DeletePlan(ctx, id); err != nil {
		return err
	}
	fmt.Printf("Deleted plan %s\n", truncateID(id))
	return nil
}

func runPlanItemAdd(cmd *cobra.Command, args []string) error {
	ctx, cancel := requestContext()
	defer cancel()

	c := newClient()
	planID, err := resolvePlanID(ctx, c, args[0])
	if err != nil {
		return err
	}
	date := planItemDate
	if date == "" {
		plan, err := c.GetPlan(ctx, planID)
		if err != nil {
			return err
		}
		date = plan.StartDate
	}
	item, err := c.AddPlanItem(ctx, planID, models.PlanItemInput{
		Title:       strings.Join(args[1:], " "),
		Description: planDescription,
		Date:        date,
	})
	if err != nil {
		return err
	}
	fmt.Printf("Added item %s on %s\n", truncateID(item.ID), item.Date)
	return nil
}

func runPlanItemDone(cmd *cobra.Command, args []string) error {
	ctx, cancel := requestContext()
	defer cancel()

	c := newClient()
	id, err := resolvePlanItemID(ctx, c, args[0], args[1])
	if err != nil {
		return err
	}
	item, err := c.TogglePlanItem(ctx, id)
	if err != nil {
		return err
	}
	state := "open"
	if item.Completed {
		state = "done"
	}
	fmt.Printf("Item %s is %s\n", truncateID(item.ID), state)
	return nil
}

func runPlanItemRm(cmd *cobra.Command, args []string) error {
	ctx, cancel := requestContext()
	defer cancel()

	c := newClient()
	id, err := resolvePlanItemID(ctx, c, args[0], args[1])
	if err != nil {
		return err
	}
	if err := c.DeletePlanItem(ctx, id); err != nil {
		return err
	}
	fmt.Printf("Deleted item %s\n", truncateID(id))
	return nil
}

func resolvePlanID(ctx context.Context, c *client.Client, prefix string) (string, error) {
	plans, err := c.ListPlans(ctx, "")
	if err != nil {
		return "", err
	}
	ids := make([]string, len(plans))
	for i, p := range plans {
		ids[i] = p.ID
	}
	return resolveID(prefix, ids)
}

// resolvePlanItemID expands an item id prefix among the items of one plan.
func resolvePlanItemID(ctx context.Context, c *client.Client, planPrefix, itemPrefix string) (string, error) {
	planID, err := resolvePlanID(ctx, c, planPrefix)
	if err != nil {
		return "", err
	}
	items, err := c.ListPlanItems(ctx, planID)
	if err != nil {
		return "", err
	}
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	return resolveID(itemPrefix, ids)
}
