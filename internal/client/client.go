// Package client is a typed HTTP client for the hourglass daemon API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/fentz26/hourglass/internal/models"
)

// DefaultClientTimeout is the default timeout for API requests.
const DefaultClientTimeout = 10 * time.Second

// APIError is a non-2xx response from the daemon.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (%d): %s", e.StatusCode, e.Body)
}

// IsNotFound reports whether err is a 404 from the daemon.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// HealthResponse matches the server's health response structure.
type HealthResponse struct {
	OK      bool   `json:"ok"`
	DB      string `json:"db"`
	Version string `json:"version"`
	Time    string `json:"time"`
}

// Client wraps HTTP calls to the hourglass API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new API client with the default timeout.
func New(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: DefaultClientTimeout},
	}
}

// do sends a request and decodes a JSON response into out when out is
// non-nil.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		data, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(data))}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func query(path string, params map[string]string) string {
	v := url.Values{}
	for k, val := range params {
		if val != "" {
			v.Set(k, val)
		}
	}
	if len(v) == 0 {
		return path
	}
	return path + "?" + v.Encode()
}

// Health checks the daemon. Unlike other calls it returns the parsed payload
// alongside the error on a non-200 response.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	var health HealthResponse
	if err := json.Unmarshal(body, &health); err != nil {
		return nil, fmt.Errorf("parse health response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return &health, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return &health, nil
}

// --- Tasks ---

// ListTasks fetches tasks matching filter.
func (c *Client) ListTasks(ctx context.Context, filter models.TaskFilter) ([]models.Task, error) {
	var tasks []models.Task
	path := query("/tasks", map[string]string{"from": filter.From, "to": filter.To, "category": filter.Category})
	return tasks, c.do(ctx, http.MethodGet, path, nil, &tasks)
}

// GetTask fetches a single task.
func (c *Client) GetTask(ctx context.Context, id string) (*models.Task, error) {
	var task models.Task
	if err := c.do(ctx, http.MethodGet, "/tasks/"+url.PathEscape(id), nil, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// CreateTask logs a new task.
func (c *Client) CreateTask(ctx context.Context, in models.TaskInput) (*models.Task, error) {
	var task models.Task
	if err := c.do(ctx, http.MethodPost, "/tasks", in, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// UpdateTask replaces a task's fields.
func (c *Client) UpdateTask(ctx context.Context, id string, in models.TaskInput) (*models.Task, error) {
	var task models.Task
	if err := c.do(ctx, http.MethodPut, "/tasks/"+url.PathEscape(id), in, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// DeleteTask removes a task.
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/tasks/"+url.PathEscape(id), nil, nil)
}

// Categories fetches the categories in use, most used first.
func (c *Client) Categories(ctx context.Context) ([]string, error) {
	var cats []string
	return cats, c.do(ctx, http.MethodGet, "/categories", nil, &cats)
}

// --- Goals ---

// ListGoals fetches goals, optionally for the week containing week.
func (c *Client) ListGoals(ctx context.Context, week string) ([]models.WeeklyGoal, error) {
	var goals []models.WeeklyGoal
	return goals, c.do(ctx, http.MethodGet, query("/goals", map[string]string{"week": week}), nil, &goals)
}

// CreateGoal sets a new weekly goal.
func (c *Client) CreateGoal(ctx context.Context, in models.GoalInput) (*models.WeeklyGoal, error) {
	var goal models.WeeklyGoal
	if err := c.do(ctx, http.MethodPost, "/goals", in, &goal); err != nil {
		return nil, err
	}
	return &goal, nil
}

// UpdateGoal replaces a goal's fields.
func (c *Client) UpdateGoal(ctx context.Context, id string, in models.GoalInput) (*models.WeeklyGoal, error) {
	var goal models.WeeklyGoal
	if err := c.do(ctx, http.MethodPut, "/goals/"+url.PathEscape(id), in, &goal); err != nil {
		return nil, err
	}
	return &goal, nil
}

// DeleteGoal removes a goal.
func (c *Client) DeleteGoal(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/goals/"+url.PathEscape(id), nil, nil)
}

// --- Notes ---

// ListNotes fetches notes matching q, or all notes when q is empty.
func (c *Client) ListNotes(ctx context.Context, q string) ([]models.Note, error) {
	var notes []models.Note
	return notes, c.do(ctx, http.MethodGet, query("/notes", map[string]string{"q": q}), nil, &notes)
}

// GetNote fetches a single note.
func (c *Client) GetNote(ctx context.Context, id string) (*models.Note, error) {
	var note models.Note
	if err := c.do(ctx, http.MethodGet, "/notes/"+url.PathEscape(id), nil, &note); err != nil {
		return nil, err
	}
	return &note, nil
}

// CreateNote stores a new note.
func (c *Client) CreateNote(ctx context.Context, in models.NoteInput) (*models.Note, error) {
	var note models.Note
	if err := c.do(ctx, http.MethodPost, "/notes", in, &note); err != nil {
		return nil, err
	}
	return &note, nil
}

// UpdateNote replaces a note's title and content.
func (c *Client) UpdateNote(ctx context.Context, id string, in models.NoteInput) (*models.Note, error) {
	var note models.Note
	if err := c.do(ctx, http.MethodPut, "/notes/"+url.PathEscape(id), in, &note); err != nil {
		return nil, err
	}
	return &note, nil
}

// DeleteNote removes a note.
func (c *Client) DeleteNote(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/notes/"+url.PathEscape(id), nil, nil)
}

// --- Journal ---

// ListJournal fetches entries in [from, to].
func (c *Client) ListJournal(ctx context.Context, from, to string) ([]models.JournalEntry, error) {
	var entries []models.JournalEntry
	return entries, c.do(ctx, http.MethodGet, query("/journal", map[string]string{"from": from, "to": to}), nil, &entries)
}

// GetJournal fetches the entry for date.
func (c *Client) GetJournal(ctx context.Context, date string) (*models.JournalEntry, error) {
	var entry models.JournalEntry
	if err := c.do(ctx, http.MethodGet, "/journal/"+url.PathEscape(date), nil, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// PutJournal writes the entry for date.
func (c *Client) PutJournal(ctx context.Context, date, content string) (*models.JournalEntry, error) {
	var entry models.JournalEntry
	body := map[string]string{"content": content}
	if err := c.do(ctx, http.MethodPut, "/journal/"+url.PathEscape(date), body, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// DeleteJournal removes the entry for date.
func (c *Client) DeleteJournal(ctx context.Context, date string) error {
	return c.do(ctx, http.MethodDelete, "/journal/"+url.PathEscape(date), nil, nil)
}

// --- Plans ---

// ListPlans fetches plans, optionally only those with status.
func (c *Client) ListPlans(ctx context.Context, status string) ([]models.Plan, error) {
	var plans []models.Plan
	return plans, c.do(ctx, http.MethodGet, query("/plans", map[string]string{"status": status}), nil, &plans)
}

// GetPlan fetches a single plan.
func (c *Client) GetPlan(ctx context.Context, id string) (*models.Plan, error) {
	var plan models.Plan
	if err := c.do(ctx, http.MethodGet, "/plans/"+url.PathEscape(id), nil, &plan); err != nil {
		return nil, err
	}
	return &plan, nil
}

// CreatePlan stores a new plan.
func (c *Client) CreatePlan(ctx context.Context, in models.PlanInput) (*models.Plan, error) {
	var plan models.Plan
	if err := c.do(ctx, http.MethodPost, "/plans", in, &plan); err != nil {
		return nil, err
	}
	return &plan, nil
}

// UpdatePlan replaces a plan's fields.
func (c *Client) UpdatePlan(ctx context.Context, id string, in models.PlanInput) (*models.Plan, error) {
	var plan models.Plan
	if err := c.do(ctx, http.MethodPut, "/plans/"+url.PathEscape(id), in, &plan); err != nil {
		return nil, err
	}
	return &plan, nil
}

// DeletePlan removes a plan and its items.
func (c *Client) DeletePlan(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/plans/"+url.PathEscape(id), nil, nil)
}

// ListPlanItems fetches the items of a plan ordered by date.
func (c *Client) ListPlanItems(ctx context.Context, planID string) ([]models.PlanItem, error) {
	var items []models.PlanItem
	return items, c.do(ctx, http.MethodGet, "/plans/"+url.PathEscape(planID)+"/items", nil, &items)
}

// AddPlanItem stores a new item on a plan.
func (c *Client) AddPlanItem(ctx context.Context, planID string, in models.PlanItemInput) (*models.PlanItem, error) {
	var item models.PlanItem
	if err := c.do(ctx, http.MethodPost, "/plans/"+url.PathEscape(planID)+"/items", in, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// UpdatePlanItem replaces an item's fields.
func (c *Client) UpdatePlanItem(ctx context.Context, id string, in models.PlanItemInput) (*models.PlanItem, error) {
	var item models.PlanItem
	if err := c.do(ctx, http.MethodPut, "/plan-items/"+url.PathEscape(id), in, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// TogglePlanItem flips an item's completed flag.
func (c *Client) TogglePlanItem(ctx context.Context, id string) (*models.PlanItem, error) {
	var item models.PlanItem
	if err := c.do(ctx, http.MethodPost, "/plan-items/"+url.PathEscape(id)+"/toggle", nil, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// DeletePlanItem removes an item.
func (c *Client) DeletePlanItem(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/plan-items/"+url.PathEscape(id), nil, nil)
}

// --- Activity ---

// ListActivity fetches the most recent activity records.
func (c *Client) ListActivity(ctx context.Context, limit int) ([]models.ActivityEntry, error) {
	params := map[string]string{}
	if limit > 0 {
		params["limit"] = strconv.Itoa(limit)
	}
	var entries []models.ActivityEntry
	return entries, c.do(ctx, http.MethodGet, query("/activity", params), nil, &entries)
}
