package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var activityLimit int

var activityCmd = &cobra.Command{
	Use:   "activity",
	Short: "Show the audit trail of changes",
	RunE:  runActivity,
}

func init() {
	activityCmd.Flags().IntVarP(&activityLimit, "limit", "n", 20, "Number of entries")
}

func runActivity(cmd *cobra.Command, args []string) error {
	ctx, cancel := requestContext()
	defer cancel()

	entries, err := newClient().ListActivity(ctx, activityLimit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No activity recorded")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tACTION\tOUTCOME\tREF\tDETAILS")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", e.Timestamp.Local().Format("2006-01-02 15:04:05"),
			e.Action, e.Outcome, truncateID(e.RefID), truncate(e.Details, 50))
	}
	return w.Flush()
}
