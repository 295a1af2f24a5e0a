package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/fentz26/hourglass/internal/api"
	"github.com/fentz26/hourglass/internal/audit"
	"github.com/fentz26/hourglass/internal/models"
	"github.com/fentz26/hourglass/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	st, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	server := api.NewServer(api.NewService(st, audit.NewRecorder(st)), st, "", nil)
	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)
	return New(ts.URL)
}

func TestHealth(t *testing.T) {
	c := newTestClient(t)
	health, err := c.Health(context.Background())
	require.NoError(t, err)
	assert.True(t, health.OK)
	assert.Equal(t, "ok", health.DB)
}

func TestTaskRoundTrip(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	task, err := c.CreateTask(ctx, models.TaskInput{Name: "Read", Category: "Study", Hours: 2, Date: "2024-01-01"})
	require.NoError(t, err)

	got, err := c.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "Study", got.Category)

	_, err = c.UpdateTask(ctx, task.ID, models.TaskInput{Name: "Read", Category: "Study", Hours: 2.5, Date: "2024-01-01"})
	require.NoError(t, err)

	tasks, err := c.ListTasks(ctx, models.TaskFilter{Category: "Study"})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, 2.5, tasks[0].Hours)

	require.NoError(t, c.DeleteTask(ctx, task.ID))
	_, err = c.GetTask(ctx, task.ID)
	assert.True(t, IsNotFound(err), "expected 404, got %v", err)
}

func TestAPIErrorCarriesStatus(t *testing.T) {
	c := newTestClient(t)

	_, err := c.CreateTask(context.Background(), models.TaskInput{Name: "", Hours: 1, Date: "2024-01-01"})
	require.Error(t, err)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.False(t, IsNotFound(err))
}

func TestNotesJournalAndActivity(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	note, err := c.CreateNote(ctx, models.NoteInput{Title: "Ideas", Content: "go"})
	require.NoError(t, err)
	_, err = c.UpdateNote(ctx, note.ID, models.NoteInput{Title: "Ideas", Content: "more go"})
	require.NoError(t, err)
	notes, err := c.ListNotes(ctx, "more")
	require.NoError(t, err)
	assert.Len(t, notes, 1)
	require.NoError(t, c.DeleteNote(ctx, note.ID))

	_, err = c.PutJournal(ctx, "2024-01-02", "walked")
	require.NoError(t, err)
	entry, err := c.GetJournal(ctx, "2024-01-02")
	require.NoError(t, err)
	assert.Equal(t, "walked", entry.Content)
	entries, err := c.ListJournal(ctx, "2024-01-01", "2024-01-07")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	require.NoError(t, c.DeleteJournal(ctx, "2024-01-02"))

	activity, err := c.ListActivity(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, activity, 2)
}

func TestFetchSnapshot(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	goal, err := c.CreateGoal(ctx, models.GoalInput{Category: "Study", TargetHours: 10, WeekStart: "2024-01-01"})
	require.NoError(t, err)
	for _, in := range []models.TaskInput{
		{Name: "Read", Category: "Study", Hours: 2, Date: "2024-01-01"},
		{Name: "Read", Category: "Study", Hours: 1.5, Date: "2024-01-02"},
		{Name: "Code", Category: "Work", Hours: 3, Date: "2024-01-01"},
		{Name: "Old", Category: "Study", Hours: 4, Date: "2023-12-20"},
	} {
		_, err := c.CreateTask(ctx, in)
		require.NoError(t, err)
	}

	weekStart, err := models.ParseDate("2024-01-01")
	require.NoError(t, err)
	snap, err := c.FetchSnapshot(ctx, weekStart)
	require.NoError(t, err)

	progress := snap.Progress()
	require.Len(t, progress, 1)
	assert.Equal(t, goal.ID, progress[0].GoalID)
	assert.Equal(t, 3.5, progress[0].CurrentHours)
	assert.Equal(t, 35.0, progress[0].Percent)

	ranking := snap.Ranking()
	require.Len(t, ranking, 2)
	assert.Equal(t, "Study", ranking[0].Category)
	assert.Equal(t, 7.5, ranking[0].Hours)

	assert.Len(t, snap.WeekTasks(), 3)
	assert.Len(t, snap.Breakdown(), 7)
}

func TestPlanRoundTrip(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	plan, err := c.CreatePlan(ctx, models.PlanInput{Title: "Exams", StartDate: "2024-03-01", EndDate: "2024-03-10"})
	require.NoError(t, err)
	assert.Equal(t, models.PlanPlanning, plan.Status)

	item, err := c.AddPlanItem(ctx, plan.ID, models.PlanItemInput{Title: "Revise", Date: "2024-03-02"})
	require.NoError(t, err)

	_, err = c.AddPlanItem(ctx, plan.ID, models.PlanItemInput{Title: "Late", Date: "2024-04-01"})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)

	toggled, err := c.TogglePlanItem(ctx, item.ID)
	require.NoError(t, err)
	assert.True(t, toggled.Completed)

	items, err := c.ListPlanItems(ctx, plan.ID)
	require.NoError(t, err)
	done, total := models.PlanProgress(items)
	assert.Equal(t, 1, done)
	assert.Equal(t, 1, total)

	active, err := c.ListPlans(ctx, string(models.PlanInProgress))
	require.NoError(t, err)
	assert.Empty(t, active)

	require.NoError(t, c.DeletePlan(ctx, plan.ID))
	_, err = c.GetPlan(ctx, plan.ID)
	assert.True(t, IsNotFound(err), "expected 404, got %v", err)
}
