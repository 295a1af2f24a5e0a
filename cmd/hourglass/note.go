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

var noteCmd = &cobra.Command{
	Use:   "note",
	Short: "Manage notes",
}

var noteAddCmd = &cobra.Command{
	Use:   "add [content...]",
	Short: "Add a note",
	RunE:  runNoteAdd,
}

var noteListCmd = &cobra.Command{
	Use:   "list",
	Short: "List notes, most recently changed first",
	RunE:  runNoteList,
}

var noteShowCmd = &cobra.Command{
	Use:   "show [note-id]",
	Short: "Print a note",
	Args:  cobra.ExactArgs(1),
	RunE:  runNoteShow,
}

var noteRmCmd = &cobra.Command{
	Use:   "rm [note-id]",
	Short: "Delete a note",
	Args:  cobra.ExactArgs(1),
	RunE:  runNoteRm,
}

var (
	noteTitle string
	noteQuery string
)

func init() {
	noteCmd.AddCommand(noteAddCmd, noteListCmd, noteShowCmd, noteRmCmd)

	noteAddCmd.Flags().StringVar(&noteTitle, "title", "", "Note title")
	noteListCmd.Flags().StringVarP(&noteQuery, "query", "q", "", "Only notes whose title or content contains this text")
}

func runNoteAdd(cmd *cobra.Command, args []string) error {
	ctx, cancel := requestContext()
	defer cancel()

	note, err := newClient().CreateNote(ctx, models.NoteInput{Title: noteTitle, Content: strings.Join(args, " ")})
	if err != nil {
		return err
	}
	fmt.Printf("Created note %s\n", truncateID(note.ID))
	return nil
}

func runNoteList(cmd *cobra.Command, args []string) error {
	ctx, cancel := requestContext()
	defer cancel()

	notes, err := newClient().ListNotes(ctx, noteQuery)
	if err != nil {
		return err
	}
	if len(notes) == 0 {
		fmt.Println("No notes found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tUPDATED\tTITLE\tCONTENT")
	for _, n := range notes {
		content := strings.ReplaceAll(n.Content, "\n", " ")
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", truncateID(n.ID), n.UpdatedAt.Local().Format("2006-01-02 15:04"), truncate(n.Title, 30), truncate(content, 50))
	}
	return w.Flush()
}

func runNoteShow(cmd *cobra.Command, args []string) error {
	ctx, cancel := requestContext()
	defer cancel()

	c := newClient()
	id, err := resolveNoteID(ctx, c, args[0])
	if err != nil {
		return err
	}
	note, err := c.GetNote(ctx, id)
	if err != nil {
		return err
	}
	if note.Title != "" {
		fmt.Printf("# %s\n\n", note.Title)
	}
	fmt.Println(note.Content)
	return nil
}

func runNoteRm(cmd *cobra.Command, args []string) error {
	ctx, cancel := requestContext()
	defer cancel()

	c := newClient()
	id, err := resolveNoteID(ctx, c, args[0])
	if err != nil {
		return err
	}
	if err := c.DeleteNote(ctx, id); err != nil {
		return err
	}
	fmt.Printf("Deleted note %s\n", truncateID(id))
	return nil
}

func resolveNoteID(ctx context.Context, c *client.Client, prefix string) (string, error) {
	notes, err := c.ListNotes(ctx, "")
	if err != nil {
		return "", err
	}
	ids := make([]string, len(notes))
	for i, n := range notes {
		ids[i] = n.ID
	}
	return resolveID(prefix, ids)
}
