package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fentz26/hourglass/internal/client"
	"github.com/fentz26/hourglass/internal/drafts"
	"github.com/fentz26/hourglass/internal/models"
)

// Draft keys of the built-in forms.
const (
	NewTaskDraftKey = "new_task_draft"
	NewNoteDraftKey = "new_note_draft"
	NewPlanDraftKey = "new_plan_draft"
)

// TaskDraftKey is the draft key of a task form.
func TaskDraftKey(id string) string {
	if id == "" {
		return NewTaskDraftKey
	}
	return "task_draft_" + id
}

// NoteDraftKey is the draft key of a note form.
func NoteDraftKey(id string) string {
	if id == "" {
		return NewNoteDraftKey
	}
	return "note_draft_" + id
}

// PlanDraftKey is the draft key of a plan form.
func PlanDraftKey(id string) string {
	if id == "" {
		return NewPlanDraftKey
	}
	return "plan_draft_" + id
}

// JournalDraftKey is the draft key of the journal form for date.
func JournalDraftKey(date string) string { return "journal_draft_" + date }

var taskFields = []formField{
	{name: "date", label: "Date", placeholder: "YYYY-MM-DD", charLimit: 10},
	{name: "task_name", label: "Task", placeholder: "What did you work on?", charLimit: 120},
	{name: "category", label: "Category", placeholder: "defaults to the task name", charLimit: 60},
	{name: "hours", label: "Hours", placeholder: "1.5", numeric: true, charLimit: 6},
	{name: "reflection", label: "Reflection", placeholder: "optional", charLimit: 1000},
}

var noteFields = []formField{
	{name: "title", label: "Title", charLimit: 120},
	{name: "content", label: "Content", charLimit: 4000},
}

var planFields = []formField{
	{name: "title", label: "Plan", placeholder: "What is the plan?", charLimit: 120},
	{name: "start_date", label: "Starts", placeholder: "YYYY-MM-DD", charLimit: 10},
	{name: "end_date", label: "Ends", placeholder: "defaults to the start", charLimit: 10},
	{name: "description", label: "Details", placeholder: "optional", charLimit: 2000},
}

var journalFields = []formField{
	{name: "content", label: "Entry", placeholder: "How did today go?", charLimit: 4000},
}

// TaskInputFromPayload converts task form values to an API input.
func TaskInputFromPayload(p drafts.Payload) (models.TaskInput, error) {
	in := models.TaskInput{
		Name:       p.String("task_name"),
		Category:   p.String("category"),
		Date:       strings.TrimSpace(p.String("date")),
		Reflection: p.String("reflection"),
	}
	raw := strings.TrimSpace(p.String("hours"))
	if raw == "" {
		return in, nil
	}
	hours, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return in, fmt.Errorf("hours %q is not a number", raw)
	}
	in.Hours = hours
	return in, nil
}

// PlanInputFromPayload converts plan form values to an API input. An empty
// end date means a one-day plan.
func PlanInputFromPayload(p drafts.Payload) models.PlanInput {
	in := models.PlanInput{
		Title:       p.String("title"),
		Description: p.String("description"),
		StartDate:   strings.TrimSpace(p.String("start_date")),
		EndDate:     strings.TrimSpace(p.String("end_date")),
	}
	if in.EndDate == "" {
		in.EndDate = in.StartDate
	}
	return in
}

// newTaskForm opens the task form. A nil task creates a new one dated today.
func newTaskForm(store *drafts.Store, api *client.Client, task *models.Task, today time.Time, opts drafts.ChangeOptions) *Form {
	var initial drafts.Payload
	id := ""
	title := "New task"
	if task != nil {
		id = task.ID
		title = "Edit task"
		initial = drafts.NewPayload(
			drafts.Field{Name: "date", Value: task.Date},
			drafts.Field{Name: "task_name", Value: task.Name},
			drafts.Field{Name: "category", Value: task.Category},
			drafts.Field{Name: "hours", Value: task.Hours},
			drafts.Field{Name: "reflection", Value: task.Reflection},
		)
	} else {
		initial = drafts.NewPayload(drafts.Field{Name: "date", Value: models.FormatDate(today)})
	}

	submit := func(ctx context.Context, values drafts.Payload) (string, error) {
		in, err := TaskInputFromPayload(values)
		if err != nil {
			return "", err
		}
		if task != nil {
			in.WeeklyGoalID = task.WeeklyGoalID
			t, err := api.UpdateTask(ctx, id, in)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("Updated %s", t.Name), nil
		}
		t, err := api.CreateTask(ctx, in)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Logged %s for %s", FormatHours(t.Hours), t.Name), nil
	}
	return newForm(title, store.Bind(TaskDraftKey(id), opts), taskFields, initial, submit)
}

// newNoteForm opens the note form. A nil note creates a new one.
func newNoteForm(store *drafts.Store, api *client.Client, note *models.Note, opts drafts.ChangeOptions) *Form {
	var initial drafts.Payload
	id := ""
	title := "New note"
	if note != nil {
		id = note.ID
		title = "Edit note"
		initial = drafts.NewPayload(
			drafts.Field{Name: "title", Value: note.Title},
			drafts.Field{Name: "content", Value: note.Content},
		)
	}

	submit := func(ctx context.Context, values drafts.Payload) (string, error) {
		in := models.NoteInput{Title: values.String("title"), Content: values.String("content")}
		if note != nil {
			if _, err := api.UpdateNote(ctx, id, in); err != nil {
				return "", err
			}
			return "Note updated", nil
		}
		if _, err := api.CreateNote(ctx, in); err != nil {
			return "", err
		}
		return "Note saved", nil
	}
	return newForm(title, store.Bind(NoteDraftKey(id), opts), noteFields, initial, submit)
}

// newPlanForm opens the plan form. A nil plan creates a new one starting
// today; editing keeps the plan's status.
func newPlanForm(store *drafts.Store, api *client.Client, plan *models.Plan, today time.Time, opts drafts.ChangeOptions) *Form {
	var initial drafts.Payload
	id := ""
	title := "New plan"
	if plan != nil {
		id = plan.ID
		title = "Edit plan"
		initial = drafts.NewPayload(
			drafts.Field{Name: "title", Value: plan.Title},
			drafts.Field{Name: "start_date", Value: plan.StartDate},
			drafts.Field{Name: "end_date", Value: plan.EndDate},
			drafts.Field{Name: "description", Value: plan.Description},
		)
	} else {
		initial = drafts.NewPayload(drafts.Field{Name: "start_date", Value: models.FormatDate(today)})
	}

	submit := func(ctx context.Context, values drafts.Payload) (string, error) {
		in := PlanInputFromPayload(values)
		if plan != nil {
			in.Status = plan.Status
			p, err := api.UpdatePlan(ctx, id, in)
			if err != nil {
				return "", err
			}
			return "Updated plan " + p.Title, nil
		}
		p, err := api.CreatePlan(ctx, in)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Planned %s (%s to %s)", p.Title, p.StartDate, p.EndDate), nil
	}
	return newForm(title, store.Bind(PlanDraftKey(id), opts), planFields, initial, submit)
}

// newJournalForm opens the journal form for date, prefilled with entry.
func newJournalForm(store *drafts.Store, api *client.Client, date string, entry *models.JournalEntry, opts drafts.ChangeOptions) *Form {
	var initial drafts.Payload
	if entry != nil {
		initial = drafts.NewPayload(drafts.Field{Name: "content", Value: entry.Content})
	}
	submit := func(ctx context.Context, values drafts.Payload) (string, error) {
		if _, err := api.PutJournal(ctx, date, values.String("content")); err != nil {
			return "", err
		}
		return "Journal saved for " + date, nil
	}
	return newForm("Journal "+date, store.Bind(JournalDraftKey(date), opts), journalFields, initial, submit)
}
