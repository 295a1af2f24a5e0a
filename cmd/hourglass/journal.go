package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fentz26/hourglass/internal/client"
	"github.com/spf13/cobra"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Write and read the daily journal",
}

var journalWriteCmd = &cobra.Command{
	Use:   "write [text...]",
	Short: "Write the entry for a day (reads stdin when no text is given)",
	RunE:  runJournalWrite,
}

var journalShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the entry for a day",
	RunE:  runJournalShow,
}

var journalListCmd = &cobra.Command{
	Use:   "list",
	Short: "List journal entries",
	RunE:  runJournalList,
}

var journalRmCmd = &cobra.Command{
	Use:   "rm",
	Short: "Delete the entry for a day",
	RunE:  runJournalRm,
}

var (
	journalDate string
	journalFrom string
	journalTo   string
)

func init() {
	journalCmd.AddCommand(journalWriteCmd, journalShowCmd, journalListCmd, journalRmCmd)

	for _, c := range []*cobra.Command{journalWriteCmd, journalShowCmd, journalRmCmd} {
		c.Flags().StringVar(&journalDate, "date", "", "Date as YYYY-MM-DD (default today)")
	}
	journalListCmd.Flags().StringVar(&journalFrom, "from", "", "First date (YYYY-MM-DD)")
	journalListCmd.Flags().StringVar(&journalTo, "to", "", "Last date (YYYY-MM-DD)")
}

func journalDay() string {
	if journalDate == "" {
		return today()
	}
	return journalDate
}

func runJournalWrite(cmd *cobra.Command, args []string) error {
	content := strings.Join(args, " ")
	if len(args) == 0 {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		content = string(data)
	}

	ctx, cancel := requestContext()
	defer cancel()
	entry, err := newClient().PutJournal(ctx, journalDay(), content)
	if err != nil {
		return err
	}
	fmt.Printf("Saved journal for %s\n", entry.Date)
	return nil
}

func runJournalShow(cmd *cobra.Command, args []string) error {
	ctx, cancel := requestContext()
	defer cancel()

	day := journalDay()
	entry, err := newClient().GetJournal(ctx, day)
	if client.IsNotFound(err) {
		fmt.Printf("No journal entry for %s\n", day)
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Printf("%s\n\n%s\n", entry.Date, entry.Content)
	return nil
}

func runJournalList(cmd *cobra.Command, args []string) error {
	ctx, cancel := requestContext()
	defer cancel()

	entries, err := newClient().ListJournal(ctx, journalFrom, journalTo)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No journal entries found")
		return nil
	}
	for _, e := range entries {
		first := strings.SplitN(strings.TrimSpace(e.Content), "\n", 2)[0]
		fmt.Fprintf(os.Stdout, "%s  %s\n", e.Date, truncate(first, 70))
	}
	return nil
}

func runJournalRm(cmd *cobra.Command, args []string) error {
	ctx, cancel := requestContext()
	defer cancel()

	day := journalDay()
	if err := newClient().DeleteJournal(ctx, day); err != nil {
		return err
	}
	fmt.Printf("Deleted journal for %s\n", day)
	return nil
}
