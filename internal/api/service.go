// Package api provides the HTTP API and service layer for the hourglass
// daemon.
package api

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/fentz26/hourglass/internal/aggregate"
	"github.com/fentz26/hourglass/internal/audit"
	"github.com/fentz26/hourglass/internal/models"
	"github.com/fentz26/hourglass/internal/store"
)

// Service provides the hourglass business logic: validation, persistence
// and the activity trail.
type Service struct {
	store     *store.Store
	recorder  *audit.Recorder
	weekStart time.Weekday
	logger    *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithWeekStart sets the weekday goal weeks begin on. Monday by default.
func WithWeekStart(d time.Weekday) ServiceOption {
	return func(s *Service) { s.weekStart = d }
}

// WithLogger sets the service logger. Logging is discarded by default.
func WithLogger(l *slog.Logger) ServiceOption {
	return func(s *Service) { s.logger = l }
}

// NewService creates a new service.
func NewService(st *store.Store, rec *audit.Recorder, opts ...ServiceOption) *Service {
	s := &Service{
		store:     st,
		recorder:  rec,
		weekStart: time.Monday,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// mapStoreErr translates store sentinels into service sentinels.
func mapStoreErr(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

// record writes the activity trail. A trail failure is logged and never
// fails the mutation it describes.
func (s *Service) record(action string, inputs interface{}, err error, refID string) {
	outcome, details := audit.OutcomeSuccess, ""
	if err != nil {
		outcome, details = audit.OutcomeFailure, err.Error()
	}
	if _, rerr := s.recorder.Record(action, inputs, outcome, refID, details); rerr != nil {
		s.logger.Warn("record activity", "action", action, "err", rerr)
	}
}

func validHours(h float64) bool {
	return !math.IsNaN(h) && !math.IsInf(h, 0) && h >= 0
}

// normalizeDate parses a YYYY-MM-DD date and re-renders it canonically.
func normalizeDate(field, value string) (string, error) {
	d, err := models.ParseDate(value)
	if err != nil {
		return "", invalid("%s must be YYYY-MM-DD, got %q", field, value)
	}
	return models.FormatDate(d), nil
}

// --- Task Operations ---

func (s *Service) validateTask(in models.TaskInput) (models.TaskInput, error) {
	in = in.Normalize()
	if in.Name == "" {
		return in, invalid("task name is required")
	}
	if !validHours(in.Hours) {
		return in, invalid("hours must be a non-negative number")
	}
	date, err := normalizeDate("date", in.Date)
	if err != nil {
		return in, err
	}
	in.Date = date
	if in.WeeklyGoalID != "" {
		goal, err := s.store.GetGoal(in.WeeklyGoalID)
		if err != nil {
			return in, err
		}
		if goal == nil {
			return in, invalid("weekly goal %s does not exist", in.WeeklyGoalID)
		}
	}
	return in, nil
}

// CreateTask validates and stores a new task.
func (s *Service) CreateTask(in models.TaskInput) (*models.Task, error) {
	in, err := s.validateTask(in)
	if err != nil {
		s.record("task.create", in, err, "")
		return nil, err
	}
	task, err := s.store.CreateTask(in)
	if err != nil {
		return nil, err
	}
	s.record("task.create", in, nil, task.ID)
	return task, nil
}

// GetTask retrieves a task by ID.
func (s *Service) GetTask(id string) (*models.Task, error) {
	task, err := s.store.GetTask(id)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, ErrNotFound
	}
	return task, nil
}

// ListTasks returns tasks matching filter.
func (s *Service) ListTasks(filter models.TaskFilter) ([]models.Task, error) {
	var err error
	if filter.From != "" {
		if filter.From, err = normalizeDate("from", filter.From); err != nil {
			return nil, err
		}
	}
	if filter.To != "" {
		if filter.To, err = normalizeDate("to", filter.To); err != nil {
			return nil, err
		}
	}
	filter.Category = strings.TrimSpace(filter.Category)
	return s.store.ListTasks(filter)
}

// UpdateTask validates and replaces a task's fields.
func (s *Service) UpdateTask(id string, in models.TaskInput) (*models.Task, error) {
	in, err := s.validateTask(in)
	if err != nil {
		s.record("task.update", in, err, id)
		return nil, err
	}
	task, err := s.store.UpdateTask(id, in)
	err = mapStoreErr(err)
	s.record("task.update", in, err, id)
	if err != nil {
		return nil, err
	}
	return task, nil
}

// DeleteTask removes a task.
func (s *Service) DeleteTask(id string) error {
	err := mapStoreErr(s.store.DeleteTask(id))
	s.record("task.delete", map[string]string{"id": id}, err, id)
	return err
}

// Categories returns every category in use, most used first.
func (s *Service) Categories() ([]string, error) {
	return s.store.ListCategories()
}

// --- Weekly Goal Operations ---

func (s *Service) validateGoal(in models.GoalInput) (models.GoalInput, error) {
	in.Category = strings.TrimSpace(in.Category)
	if in.Category == "" {
		return in, invalid("goal category is required")
	}
	if !validHours(in.TargetHours) {
		return in, invalid("target hours must be a non-negative number")
	}
	d, err := models.ParseDate(in.WeekStart)
	if err != nil {
		return in, invalid("week_start must be YYYY-MM-DD, got %q", in.WeekStart)
	}
	// Goals always key on the first day of their week.
	in.WeekStart = models.FormatDate(aggregate.WeekStart(d, s.weekStart))
	return in, nil
}

// CreateGoal validates and stores a new weekly goal.
func (s *Service) CreateGoal(in models.GoalInput) (*models.WeeklyGoal, error) {
	in, err := s.validateGoal(in)
	if err != nil {
		s.record("goal.create", in, err, "")
		return nil, err
	}
	goal, err := s.store.CreateGoal(in)
	if err != nil {
		return nil, err
	}
	s.record("goal.create", in, nil, goal.ID)
	return goal, nil
}

// GetGoal retrieves a weekly goal by ID.
func (s *Service) GetGoal(id string) (*models.WeeklyGoal, error) {
	goal, err := s.store.GetGoal(id)
	if err != nil {
		return nil, err
	}
	if goal == nil {
		return nil, ErrNotFound
	}
	return goal, nil
}

// ListGoals returns goals, optionally only those of the week containing
// week. Any date inside the week selects it.
func (s *Service) ListGoals(week string) ([]models.WeeklyGoal, error) {
	if week == "" {
		return s.store.ListGoals("")
	}
	d, err := models.ParseDate(week)
	if err != nil {
		return nil, invalid("week must be YYYY-MM-DD, got %q", week)
	}
	return s.store.ListGoals(models.FormatDate(aggregate.WeekStart(d, s.weekStart)))
}

// UpdateGoal validates and replaces a goal's fields.
func (s *Service) UpdateGoal(id string, in models.GoalInput) (*models.WeeklyGoal, error) {
	in, err := s.validateGoal(in)
	if err != nil {
		s.record("goal.update", in, err, id)
		return nil, err
	}
	goal, err := s.store.UpdateGoal(id, in)
	err = mapStoreErr(err)
	s.record("goal.update", in, err, id)
	if err != nil {
		return nil, err
	}
	return goal, nil
}

// DeleteGoal removes a goal. Tasks linked to it are kept and unlinked.
func (s *Service) DeleteGoal(id string) error {
	err := mapStoreErr(s.store.DeleteGoal(id))
	s.record("goal.delete", map[string]string{"id": id}, err, id)
	return err
}

// --- Note Operations ---

func validateNote(in models.NoteInput) (models.NoteInput, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Content = strings.TrimSpace(in.Content)
	if in.Title == "" && in.Content == "" {
		return in, invalid("note needs a title or content")
	}
	return in, nil
}

// CreateNote validates and stores a new note.
func (s *Service) CreateNote(in models.NoteInput) (*models.Note, error) {
	in, err := validateNote(in)
	if err != nil {
		s.record("note.create", in, err, "")
		return nil, err
	}
	note, err := s.store.CreateNote(in)
	if err != nil {
		return nil, err
	}
	s.record("note.create", map[string]int{"title_len": len(in.Title), "content_len": len(in.Content)}, nil, note.ID)
	return note, nil
}

// GetNote retrieves a note by ID.
func (s *Service) GetNote(id string) (*models.Note, error) {
	note, err := s.store.GetNote(id)
	if err != nil {
		return nil, err
	}
	if note == nil {
		return nil, ErrNotFound
	}
	return note, nil
}

// ListNotes returns notes, optionally filtered by a search query.
func (s *Service) ListNotes(query string) ([]models.Note, error) {
	return s.store.ListNotes(query)
}

// UpdateNote validates and replaces a note's fields.
func (s *Service) UpdateNote(id string, in models.NoteInput) (*models.Note, error) {
	in, err := validateNote(in)
	if err != nil {
		s.record("note.update", map[string]string{"id": id}, err, id)
		return nil, err
	}
	note, err := s.store.UpdateNote(id, in)
	err = mapStoreErr(err)
	s.record("note.update", map[string]int{"title_len": len(in.Title), "content_len": len(in.Content)}, err, id)
	if err != nil {
		return nil, err
	}
	return note, nil
}

// DeleteNote removes a note.
func (s *Service) DeleteNote(id string) error {
	err := mapStoreErr(s.store.DeleteNote(id))
	s.record("note.delete", map[string]string{"id": id}, err, id)
	return err
}

// --- Journal Operations ---

// PutJournal creates or replaces the journal entry for date. Blank content
// is rejected; delete the entry instead.
func (s *Service) PutJournal(date, content string) (*models.JournalEntry, error) {
	date, err := normalizeDate("date", date)
	if err == nil && strings.TrimSpace(content) == "" {
		err = invalid("journal content is required")
	}
	if err != nil {
		s.record("journal.put", map[string]string{"date": date}, err, "")
		return nil, err
	}
	entry, err := s.store.PutJournal(date, strings.TrimSpace(content))
	if err != nil {
		return nil, err
	}
	s.record("journal.put", map[string]interface{}{"date": date, "content_len": len(content)}, nil, entry.ID)
	return entry, nil
}

// GetJournal retrieves the entry for date.
func (s *Service) GetJournal(date string) (*models.JournalEntry, error) {
	date, err := normalizeDate("date", date)
	if err != nil {
		return nil, err
	}
	entry, err := s.store.GetJournal(date)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, ErrNotFound
	}
	return entry, nil
}

// ListJournal returns entries in [from, to].
func (s *Service) ListJournal(from, to string) ([]models.JournalEntry, error) {
	var err error
	if from != "" {
		if from, err = normalizeDate("from", from); err != nil {
			return nil, err
		}
	}
	if to != "" {
		if to, err = normalizeDate("to", to); err != nil {
			return nil, err
		}
	}
	return s.store.ListJournal(from, to)
}

// DeleteJournal removes the entry for date.
func (s *Service) DeleteJournal(date string) error {
	date, err := normalizeDate("date", date)
	if err == nil {
		err = mapStoreErr(s.store.DeleteJournal(date))
	}
	s.record("journal.delete", map[string]string{"date": date}, err, "")
	return err
}

// --- Plan Operations ---

func validatePlan(in models.PlanInput) (models.PlanInput, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if in.Title == "" {
		return in, invalid("plan title is required")
	}
	start, err := normalizeDate("start_date", in.StartDate)
	if err != nil {
		return in, err
	}
	end, err := normalizeDate("end_date", in.EndDate)
	if err != nil {
		return in, err
	}
	if end < start {
		return in, invalid("plan ends (%s) before it starts (%s)", end, start)
	}
	in.StartDate, in.EndDate = start, end
	if in.Status == "" {
		in.Status = models.PlanPlanning
	}
	if !in.Status.Valid() {
		return in, invalid("unknown plan status %q", in.Status)
	}
	return in, nil
}

// CreatePlan validates and stores a new plan.
func (s *Service) CreatePlan(in models.PlanInput) (*models.Plan, error) {
	in, err := validatePlan(in)
	if err != nil {
		s.record("plan.create", in, err, "")
		return nil, err
	}
	plan, err := s.store.CreatePlan(in)
	if err != nil {
		return nil, err
	}
	s.record("plan.create", in, nil, plan.ID)
	return plan, nil
}

// GetPlan retrieves a plan by ID.
func (s *Service) GetPlan(id string) (*models.Plan, error) {
	plan, err := s.store.GetPlan(id)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, ErrNotFound
	}
	return plan, nil
}

// ListPlans returns plans, optionally only those in status.
func (s *Service) ListPlans(status string) ([]models.Plan, error) {
	st := models.PlanStatus(strings.TrimSpace(status))
	if st != "" && !st.Valid() {
		return nil, invalid("unknown plan status %q", status)
	}
	return s.store.ListPlans(st)
}

// UpdatePlan validates and replaces a plan's fields. Items dated outside
// the new range are kept.
func (s *Service) UpdatePlan(id string, in models.PlanInput) (*models.Plan, error) {
	in, err := validatePlan(in)
	if err != nil {
		s.record("plan.update", in, err, id)
		return nil, err
	}
	plan, err := s.store.UpdatePlan(id, in)
	err = mapStoreErr(err)
	s.record("plan.update", in, err, id)
	if err != nil {
		return nil, err
	}
	return plan, nil
}

// DeletePlan removes a plan and its items.
func (s *Service) DeletePlan(id string) error {
	err := mapStoreErr(s.store.DeletePlan(id))
	s.record("plan.delete", map[string]string{"id": id}, err, id)
	return err
}

// planItemInput validates in against the dates of plan.
func planItemInput(plan *models.Plan, in models.PlanItemInput) (models.PlanItemInput, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if in.Title == "" {
		return in, invalid("plan item title is required")
	}
	date, err := normalizeDate("date", in.Date)
	if err != nil {
		return in, err
	}
	if date < plan.StartDate || date > plan.EndDate {
		return in, invalid("item date %s is outside the plan (%s to %s)", date, plan.StartDate, plan.EndDate)
	}
	in.Date = date
	return in, nil
}

// ListPlanItems returns the items of a plan by date.
func (s *Service) ListPlanItems(planID string) ([]models.PlanItem, error) {
	if _, err := s.GetPlan(planID); err != nil {
		return nil, err
	}
	return s.store.ListPlanItems(planID)
}

// AddPlanItem validates and adds an item to a plan.
func (s *Service) AddPlanItem(planID string, in models.PlanItemInput) (*models.PlanItem, error) {
	plan, err := s.GetPlan(planID)
	if err == nil {
		in, err = planItemInput(plan, in)
	}
	if err != nil {
		s.record("plan_item.create", in, err, planID)
		return nil, err
	}
	item, err := s.store.CreatePlanItem(planID, in)
	if err != nil {
		return nil, err
	}
	s.record("plan_item.create", in, nil, item.ID)
	return item, nil
}

// UpdatePlanItem validates and replaces an item's fields.
func (s *Service) UpdatePlanItem(id string, in models.PlanItemInput) (*models.PlanItem, error) {
	var plan *models.Plan
	current, err := s.store.GetPlanItem(id)
	if err == nil && current == nil {
		err = ErrNotFound
	}
	if err == nil {
		plan, err = s.GetPlan(current.PlanID)
	}
	if err == nil {
		in, err = planItemInput(plan, in)
	}
	if err != nil {
		s.record("plan_item.update", in, err, id)
		return nil, err
	}
	item, err := s.store.UpdatePlanItem(id, in)
	err = mapStoreErr(err)
	s.record("plan_item.update", in, err, id)
	if err != nil {
		return nil, err
	}
	return item, nil
}

// TogglePlanItem flips an item between open and completed.
func (s *Service) TogglePlanItem(id string) (*models.PlanItem, error) {
	item, err := s.store.TogglePlanItem(id)
	err = mapStoreErr(err)
	s.record("plan_item.toggle", map[string]string{"id": id}, err, id)
	if err != nil {
		return nil, err
	}
	return item, nil
}

// DeletePlanItem removes a plan item.
func (s *Service) DeletePlanItem(id string) error {
	err := mapStoreErr(s.store.DeletePlanItem(id))
	s.record("plan_item.delete", map[string]string{"id": id}, err, id)
	return err
}

// --- Activity ---

// ListActivity returns the most recent activity records.
func (s *Service) ListActivity(limit int) ([]models.ActivityEntry, error) {
	return s.store.ListActivity(limit)
}
