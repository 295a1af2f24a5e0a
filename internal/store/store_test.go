package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fentz26/hourglass/internal/models"
)

func TestNew(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "nested", "test.db")

	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	if _, err := s.CreateNote(models.NoteInput{Title: "kept", Content: "x"}); err != nil {
		t.Fatalf("CreateNote failed: %v", err)
	}
	s.Close()

	s, err = New(dbPath)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	defer s.Close()

	notes, err := s.ListNotes("")
	if err != nil {
		t.Fatalf("ListNotes failed: %v", err)
	}
	if len(notes) != 1 || notes[0].Title != "kept" {
		t.Errorf("Expected the note to survive reopen, got %+v", notes)
	}
}

func TestTaskCRUD(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	// Create
	task, err := s.CreateTask(models.TaskInput{Name: "Read", Category: "Study", Hours: 1.5, Date: "2024-01-02"})
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	if task.ID == "" {
		t.Error("Task ID should not be empty")
	}

	// Get
	got, err := s.GetTask(task.ID)
	if err != nil {
		t.Fatalf("GetTask failed: %v", err)
	}
	if got.Name != "Read" || got.Category != "Study" || got.Hours != 1.5 || got.Date != "2024-01-02" {
		t.Errorf("Unexpected task: %+v", got)
	}
	if got.WeeklyGoalID != "" {
		t.Errorf("Expected no goal link, got %q", got.WeeklyGoalID)
	}

	// Update
	updated, err := s.UpdateTask(task.ID, models.TaskInput{Name: "Read", Category: "Study", Hours: 2, Date: "2024-01-03", Reflection: "good"})
	if err != nil {
		t.Fatalf("UpdateTask failed: %v", err)
	}
	if updated.Hours != 2 || updated.Date != "2024-01-03" || updated.Reflection != "good" {
		t.Errorf("Update not applied: %+v", updated)
	}

	// Delete
	if err := s.DeleteTask(task.ID); err != nil {
		t.Fatalf("DeleteTask failed: %v", err)
	}
	got, err = s.GetTask(task.ID)
	if err != nil {
		t.Fatalf("GetTask failed: %v", err)
	}
	if got != nil {
		t.Error("Expected task to be deleted")
	}
}

func TestTaskNotFound(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	got, err := s.GetTask("missing")
	if err != nil || got != nil {
		t.Errorf("Expected (nil, nil), got (%v, %v)", got, err)
	}
	if _, err := s.UpdateTask("missing", models.TaskInput{Name: "x", Category: "x", Date: "2024-01-01"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound on update, got %v", err)
	}
	if err := s.DeleteTask("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound on delete, got %v", err)
	}
}

func TestListTasksFilter(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	for _, in := range []models.TaskInput{
		{Name: "a", Category: "Study", Hours: 1, Date: "2023-12-31"},
		{Name: "b", Category: "Study", Hours: 1, Date: "2024-01-01"},
		{Name: "c", Category: "Work", Hours: 1, Date: "2024-01-07"},
		{Name: "d", Category: "Work", Hours: 1, Date: "2024-01-08"},
	} {
		if _, err := s.CreateTask(in); err != nil {
			t.Fatalf("CreateTask failed: %v", err)
		}
	}

	all, err := s.ListTasks(models.TaskFilter{})
	if err != nil {
		t.Fatalf("ListTasks failed: %v", err)
	}
	if len(all) != 4 {
		t.Errorf("Expected 4 tasks, got %d", len(all))
	}
	if all[0].Date != "2024-01-08" {
		t.Errorf("Expected newest date first, got %s", all[0].Date)
	}

	week, err := s.ListTasks(models.TaskFilter{From: "2024-01-01", To: "2024-01-07"})
	if err != nil {
		t.Fatalf("ListTasks failed: %v", err)
	}
	if len(week) != 2 {
		t.Errorf("Expected 2 tasks in week, got %d", len(week))
	}

	work, err := s.ListTasks(models.TaskFilter{Category: "Work"})
	if err != nil {
		t.Fatalf("ListTasks failed: %v", err)
	}
	if len(work) != 2 {
		t.Errorf("Expected 2 Work tasks, got %d", len(work))
	}
}

func TestListCategories(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	for _, c := range []string{"Work", "Study", "Study"} {
		if _, err := s.CreateTask(models.TaskInput{Name: c, Category: c, Hours: 1, Date: "2024-01-01"}); err != nil {
			t.Fatalf("CreateTask failed: %v", err)
		}
	}

	got, err := s.ListCategories()
	if err != nil {
		t.Fatalf("ListCategories failed: %v", err)
	}
	if len(got) != 2 || got[0] != "Study" || got[1] != "Work" {
		t.Errorf("Expected [Study Work], got %v", got)
	}
}

func TestGoalCRUD(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	goal, err := s.CreateGoal(models.GoalInput{Category: "Study", TargetHours: 10, WeekStart: "2024-01-01"})
	if err != nil {
		t.Fatalf("CreateGoal failed: %v", err)
	}
	if _, err := s.CreateGoal(models.GoalInput{Category: "Work", TargetHours: 5, WeekStart: "2024-01-08"}); err != nil {
		t.Fatalf("CreateGoal failed: %v", err)
	}

	week, err := s.ListGoals("2024-01-01")
	if err != nil {
		t.Fatalf("ListGoals failed: %v", err)
	}
	if len(week) != 1 || week[0].ID != goal.ID {
		t.Errorf("Expected only the first week's goal, got %+v", week)
	}

	all, err := s.ListGoals("")
	if err != nil {
		t.Fatalf("ListGoals failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("Expected 2 goals, got %d", len(all))
	}

	updated, err := s.UpdateGoal(goal.ID, models.GoalInput{Category: "Study", TargetHours: 12, WeekStart: "2024-01-01"})
	if err != nil {
		t.Fatalf("UpdateGoal failed: %v", err)
	}
	if updated.TargetHours != 12 {
		t.Errorf("Expected target 12, got %v", updated.TargetHours)
	}
}

func TestDeleteGoalUnlinksTasks(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	goal, err := s.CreateGoal(models.GoalInput{Category: "Study", TargetHours: 10, WeekStart: "2024-01-01"})
	if err != nil {
		t.Fatalf("CreateGoal failed: %v", err)
	}
	task, err := s.CreateTask(models.TaskInput{Name: "Read", Category: "Study", Hours: 2, Date: "2024-01-02", WeeklyGoalID: goal.ID})
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	if err := s.DeleteGoal(goal.ID); err != nil {
		t.Fatalf("DeleteGoal failed: %v", err)
	}

	got, err := s.GetTask(task.ID)
	if err != nil {
		t.Fatalf("GetTask failed: %v", err)
	}
	if got == nil {
		t.Fatal("Task should survive goal deletion")
	}
	if got.WeeklyGoalID != "" {
		t.Errorf("Expected goal link to be cleared, got %q", got.WeeklyGoalID)
	}

	if err := s.DeleteGoal(goal.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound on second delete, got %v", err)
	}
}

func TestNoteCRUD(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	note, err := s.CreateNote(models.NoteInput{Title: "Ideas", Content: "learn go"})
	if err != nil {
		t.Fatalf("CreateNote failed: %v", err)
	}
	if _, err := s.CreateNote(models.NoteInput{Title: "Groceries", Content: "milk"}); err != nil {
		t.Fatalf("CreateNote failed: %v", err)
	}

	found, err := s.ListNotes("go")
	if err != nil {
		t.Fatalf("ListNotes failed: %v", err)
	}
	if len(found) != 1 || found[0].ID != note.ID {
		t.Errorf("Expected search to find the Ideas note, got %+v", found)
	}

	updated, err := s.UpdateNote(note.ID, models.NoteInput{Title: "Ideas", Content: "learn more go"})
	if err != nil {
		t.Fatalf("UpdateNote failed: %v", err)
	}
	if updated.Content != "learn more go" {
		t.Errorf("Update not applied: %+v", updated)
	}

	if err := s.DeleteNote(note.ID); err != nil {
		t.Fatalf("DeleteNote failed: %v", err)
	}
	if got, _ := s.GetNote(note.ID); got != nil {
		t.Error("Expected note to be deleted")
	}
}

func TestJournalUpsert(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	first, err := s.PutJournal("2024-01-02", "first draft")
	if err != nil {
		t.Fatalf("PutJournal failed: %v", err)
	}
	second, err := s.PutJournal("2024-01-02", "rewritten")
	if err != nil {
		t.Fatalf("PutJournal failed: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("Expected the same entry to be updated, got ids %s and %s", first.ID, second.ID)
	}
	if second.Content != "rewritten" {
		t.Errorf("Expected rewritten content, got %q", second.Content)
	}

	if _, err := s.PutJournal("2024-01-05", "later"); err != nil {
		t.Fatalf("PutJournal failed: %v", err)
	}
	entries, err := s.ListJournal("2024-01-01", "2024-01-03")
	if err != nil {
		t.Fatalf("ListJournal failed: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("Expected 1 entry in range, got %d", len(entries))
	}

	if err := s.DeleteJournal("2024-01-02"); err != nil {
		t.Fatalf("DeleteJournal failed: %v", err)
	}
	if got, _ := s.GetJournal("2024-01-02"); got != nil {
		t.Error("Expected journal entry to be deleted")
	}
	if err := s.DeleteJournal("2024-01-02"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestActivity(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	if _, err := s.WriteActivity("task.create", "abc", "success", "t1", ""); err != nil {
		t.Fatalf("WriteActivity failed: %v", err)
	}
	if _, err := s.WriteActivity("note.delete", "def", "failure", "", "not found"); err != nil {
		t.Fatalf("WriteActivity failed: %v", err)
	}

	entries, err := s.ListActivity(10)
	if err != nil {
		t.Fatalf("ListActivity failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}

	limited, err := s.ListActivity(1)
	if err != nil {
		t.Fatalf("ListActivity failed: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("Expected limit to apply, got %d", len(limited))
	}
}

func TestPlanCRUD(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	plan, err := s.CreatePlan(models.PlanInput{Title: "Exam prep", StartDate: "2024-03-01", EndDate: "2024-03-07", Status: models.PlanPlanning})
	if err != nil {
		t.Fatalf("CreatePlan failed: %v", err)
	}

	updated, err := s.UpdatePlan(plan.ID, models.PlanInput{Title: "Exam prep", StartDate: "2024-03-01", EndDate: "2024-03-10", Status: models.PlanInProgress})
	if err != nil {
		t.Fatalf("UpdatePlan failed: %v", err)
	}
	if updated.EndDate != "2024-03-10" || updated.Status != models.PlanInProgress {
		t.Errorf("Update not applied: %+v", updated)
	}

	if _, err := s.CreatePlan(models.PlanInput{Title: "Other", StartDate: "2024-04-01", EndDate: "2024-04-02", Status: models.PlanPlanning}); err != nil {
		t.Fatalf("CreatePlan failed: %v", err)
	}
	active, err := s.ListPlans(models.PlanInProgress)
	if err != nil {
		t.Fatalf("ListPlans failed: %v", err)
	}
	if len(active) != 1 || active[0].ID != plan.ID {
		t.Errorf("Expected only the in-progress plan, got %+v", active)
	}
	all, err := s.ListPlans("")
	if err != nil {
		t.Fatalf("ListPlans failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("Expected 2 plans, got %d", len(all))
	}

	if _, err := s.UpdatePlan("missing", models.PlanInput{Title: "x"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestPlanItems(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	plan, err := s.CreatePlan(models.PlanInput{Title: "Trip", StartDate: "2024-03-01", EndDate: "2024-03-03", Status: models.PlanPlanning})
	if err != nil {
		t.Fatalf("CreatePlan failed: %v", err)
	}
	late, err := s.CreatePlanItem(plan.ID, models.PlanItemInput{Title: "Pack", Date: "2024-03-03"})
	if err != nil {
		t.Fatalf("CreatePlanItem failed: %v", err)
	}
	if _, err := s.CreatePlanItem(plan.ID, models.PlanItemInput{Title: "Book", Date: "2024-03-01"}); err != nil {
		t.Fatalf("CreatePlanItem failed: %v", err)
	}

	items, err := s.ListPlanItems(plan.ID)
	if err != nil {
		t.Fatalf("ListPlanItems failed: %v", err)
	}
	if len(items) != 2 || items[0].Title != "Book" || items[1].Title != "Pack" {
		t.Errorf("Expected items by date, got %+v", items)
	}

	toggled, err := s.TogglePlanItem(late.ID)
	if err != nil {
		t.Fatalf("TogglePlanItem failed: %v", err)
	}
	if !toggled.Completed {
		t.Error("Expected item to be completed after toggle")
	}
	toggled, err = s.TogglePlanItem(late.ID)
	if err != nil {
		t.Fatalf("TogglePlanItem failed: %v", err)
	}
	if toggled.Completed {
		t.Error("Expected a second toggle to reopen the item")
	}

	if err := s.DeletePlan(plan.ID); err != nil {
		t.Fatalf("DeletePlan failed: %v", err)
	}
	got, err := s.GetPlanItem(late.ID)
	if err != nil {
		t.Fatalf("GetPlanItem failed: %v", err)
	}
	if got != nil {
		t.Error("Expected items to be deleted with their plan")
	}
	if err := s.DeletePlan(plan.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestPing(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.Ping(ctx); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}

func newTestStore(t *testing.T) *Store {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	return s
}
