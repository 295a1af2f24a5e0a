package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var draftCmd = &cobra.Command{
	Use:   "draft",
	Short: "Inspect autosaved form drafts",
}

var draftListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved drafts",
	RunE:  runDraftList,
}

var draftShowCmd = &cobra.Command{
	Use:   "show [key]",
	Short: "Print a draft's saved fields",
	Args:  cobra.ExactArgs(1),
	RunE:  runDraftShow,
}

var draftClearCmd = &cobra.Command{
	Use:   "clear [key]",
	Short: "Delete a draft, or every draft with --all",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runDraftClear,
}

var draftClearAll bool

func init() {
	draftCmd.AddCommand(draftListCmd, draftShowCmd, draftClearCmd)
	draftClearCmd.Flags().BoolVar(&draftClearAll, "all", false, "Delete every draft")
}

func runDraftList(cmd *cobra.Command, args []string) error {
	env, err := openLocal()
	if err != nil {
		return err
	}
	defer env.Close()

	entries, err := env.drafts.List()
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No drafts")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tSAVED\tFIELDS")
	for _, e := range entries {
		var names []string
		for _, f := range e.Payload.Fields() {
			names = append(names, f.Name)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", e.Key, e.SavedAt.Local().Format("2006-01-02 15:04:05"), strings.Join(names, ","))
	}
	return w.Flush()
}

func runDraftShow(cmd *cobra.Command, args []string) error {
	env, err := openLocal()
	if err != nil {
		return err
	}
	defer env.Close()

	entry, ok := env.drafts.LoadDraft(args[0])
	if !ok {
		return fmt.Errorf("no draft saved under %q", args[0])
	}
	data, err := json.MarshalIndent(entry.Payload, "", "  ")
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}
	fmt.Printf("Saved %s\n%s\n", entry.SavedAt.Local().Format("2006-01-02 15:04:05"), data)
	return nil
}

func runDraftClear(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && !draftClearAll {
		return fmt.Errorf("give a draft key or --all")
	}
	env, err := openLocal()
	if err != nil {
		return err
	}
	defer env.Close()

	keys := args
	if draftClearAll {
		entries, err := env.drafts.List()
		if err != nil {
			return err
		}
		keys = nil
		for _, e := range entries {
			keys = append(keys, e.Key)
		}
	}
	for _, key := range keys {
		if err := env.drafts.ClearDraft(key); err != nil {
			return err
		}
		fmt.Printf("Cleared %s\n", key)
	}
	return nil
}
