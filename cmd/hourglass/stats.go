package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/fentz26/hourglass/internal/aggregate"
	"github.com/fentz26/hourglass/internal/models"
	"github.com/fentz26/hourglass/internal/tui"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summaries of logged hours",
}

var statsCategoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "Total hours per category, largest first",
	RunE:  runStatsCategories,
}

var statsWeekCmd = &cobra.Command{
	Use:   "week",
	Short: "Hours per day and category for one week",
	RunE:  runStatsWeek,
}

var (
	statsFrom string
	statsTo   string
	statsWeek string
)

func init() {
	statsCmd.AddCommand(statsCategoriesCmd, statsWeekCmd)

	statsCategoriesCmd.Flags().StringVar(&statsFrom, "from", "", "First date (YYYY-MM-DD)")
	statsCategoriesCmd.Flags().StringVar(&statsTo, "to", "", "Last date (YYYY-MM-DD)")
	statsWeekCmd.Flags().StringVar(&statsWeek, "week", "", "Any date in the week (default this week)")
}

func runStatsCategories(cmd *cobra.Command, args []string) error {
	ctx, cancel := requestContext()
	defer cancel()

	tasks, err := newClient().ListTasks(ctx, models.TaskFilter{From: statsFrom, To: statsTo})
	if err != nil {
		return err
	}
	ranking := aggregate.RankCategories(models.Records(tasks))
	if len(ranking) == 0 {
		fmt.Println("Nothing logged yet")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tCATEGORY\tHOURS\tTASKS")
	for i, t := range ranking {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\n", i+1, t.Category, tui.FormatHours(t.Hours), t.Count)
	}
	return w.Flush()
}

func runStatsWeek(cmd *cobra.Command, args []string) error {
	ctx, cancel := requestContext()
	defer cancel()

	week, err := weekOf(statsWeek)
	if err != nil {
		return err
	}
	snap, err := newClient().FetchSnapshot(ctx, week)
	if err != nil {
		return err
	}

	days := snap.Breakdown()
	totals := aggregate.SumByCategory(models.Records(snap.WeekTasks()))
	categories := make([]string, 0, len(totals))
	for _, t := range aggregate.RankCategories(models.Records(snap.WeekTasks())) {
		categories = append(categories, t.Category)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Week of %s\n", models.FormatDate(week))
	fmt.Fprint(w, "DAY")
	for _, c := range categories {
		fmt.Fprintf(w, "\t%s", truncate(c, 16))
	}
	fmt.Fprintln(w, "\tTOTAL")

	weekTotal := 0.0
	for _, d := range days {
		fmt.Fprint(w, d.Date.Format("Mon 01-02"))
		for _, c := range categories {
			fmt.Fprintf(w, "\t%s", tui.FormatHours(d.ByCategory[c]))
		}
		fmt.Fprintf(w, "\t%s\n", tui.FormatHours(d.Total))
		weekTotal += d.Total
	}
	fmt.Fprint(w, "TOTAL")
	for _, c := range categories {
		fmt.Fprintf(w, "\t%s", tui.FormatHours(totals[c]))
	}
	fmt.Fprintf(w, "\t%s\n", tui.FormatHours(weekTotal))
	return w.Flush()
}
