// Package store provides SQLite-backed persistence for hourglass.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fentz26/hourglass/internal/models"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrNotFound indicates the addressed row does not exist.
var ErrNotFound = fmt.Errorf("not found")

// Store provides access to the hourglass SQLite database.
type Store struct {
	db *sql.DB
}

// New creates a new Store and runs migrations.
func New(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate runs idempotent schema migrations.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS weekly_goals (
		id TEXT PRIMARY KEY,
		category TEXT NOT NULL,
		target_hours REAL NOT NULL,
		week_start TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS tasks (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		category TEXT NOT NULL,
		hours REAL NOT NULL,
		date TEXT NOT NULL,
		reflection TEXT NOT NULL DEFAULT '',
		weekly_goal_id TEXT,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		FOREIGN KEY (weekly_goal_id) REFERENCES weekly_goals(id)
	);

	CREATE TABLE IF NOT EXISTS notes (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		content TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS journal_entries (
		id TEXT PRIMARY KEY,
		date TEXT NOT NULL UNIQUE,
		content TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS plans (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		status TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS plan_items (
		id TEXT PRIMARY KEY,
		plan_id TEXT NOT NULL,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		date TEXT NOT NULL,
		completed INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		FOREIGN KEY (plan_id) REFERENCES plans(id)
	);

	CREATE TABLE IF NOT EXISTS activity (
		id TEXT PRIMARY KEY,
		action TEXT NOT NULL,
		inputs_hash TEXT NOT NULL,
		outcome TEXT NOT NULL,
		ref_id TEXT,
		details TEXT,
		timestamp DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_tasks_date ON tasks(date);
	CREATE INDEX IF NOT EXISTS idx_tasks_category ON tasks(category);
	CREATE INDEX IF NOT EXISTS idx_tasks_weekly_goal_id ON tasks(weekly_goal_id);
	CREATE INDEX IF NOT EXISTS idx_weekly_goals_week_start ON weekly_goals(week_start);
	CREATE INDEX IF NOT EXISTS idx_plan_items_plan_id ON plan_items(plan_id);
	CREATE INDEX IF NOT EXISTS idx_activity_timestamp ON activity(timestamp);
	`

	_, err := s.db.Exec(schema)
	return err
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// checkAffected maps a zero-row update or delete to ErrNotFound.
func checkAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Task Operations ---

const taskColumns = `id, name, category, hours, date, reflection, weekly_goal_id, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (models.Task, error) {
	var task models.Task
	var goalID sql.NullString
	err := row.Scan(&task.ID, &task.Name, &task.Category, &task.Hours, &task.Date,
		&task.Reflection, &goalID, &task.CreatedAt, &task.UpdatedAt)
	if goalID.Valid {
		task.WeeklyGoalID = goalID.String
	}
	return task, err
}

// CreateTask inserts a new task. The input is expected to be validated and
// normalized by the caller.
func (s *Store) CreateTask(in models.TaskInput) (*models.Task, error) {
	now := time.Now().UTC()
	task := &models.Task{
		ID:           uuid.New().String(),
		Name:         in.Name,
		Category:     in.Category,
		Hours:        in.Hours,
		Date:         in.Date,
		Reflection:   in.Reflection,
		WeeklyGoalID: in.WeeklyGoalID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err := s.db.Exec(
		`INSERT INTO tasks (`+taskColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.ID, task.Name, task.Category, task.Hours, task.Date, task.Reflection,
		nullString(task.WeeklyGoalID), task.CreatedAt, task.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	return task, nil
}

// GetTask retrieves a task by ID.
func (s *Store) GetTask(id string) (*models.Task, error) {
	task, err := scanTask(s.db.QueryRow(`SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query task: %w", err)
	}
	return &task, nil
}

// ListTasks returns tasks matching filter, newest date first.
func (s *Store) ListTasks(filter models.TaskFilter) ([]models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks`
	var where []string
	var args []interface{}

	if filter.From != "" {
		where = append(where, `date >= ?`)
		args = append(args, filter.From)
	}
	if filter.To != "" {
		where = append(where, `date <= ?`)
		args = append(args, filter.To)
	}
	if filter.Category != "" {
		where = append(where, `category = ?`)
		args = append(args, filter.Category)
	}
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY date DESC, created_at DESC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// UpdateTask replaces a task's editable fields.
func (s *Store) UpdateTask(id string, in models.TaskInput) (*models.Task, error) {
	res, err := s.db.Exec(
		`UPDATE tasks SET name = ?, category = ?, hours = ?, date = ?, reflection = ?, weekly_goal_id = ?, updated_at = ? WHERE id = ?`,
		in.Name, in.Category, in.Hours, in.Date, in.Reflection, nullString(in.WeeklyGoalID), time.Now().UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	if err := checkAffected(res); err != nil {
		return nil, err
	}
	return s.GetTask(id)
}

// DeleteTask removes a task.
func (s *Store) DeleteTask(id string) error {
	res, err := s.db.Exec(`DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return checkAffected(res)
}

// ListCategories returns every distinct task category, most used first.
func (s *Store) ListCategories() ([]string, error) {
	rows, err := s.db.Query(`SELECT category FROM tasks GROUP BY category ORDER BY COUNT(*) DESC, category ASC`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// --- Weekly Goal Operations ---

const goalColumns = `id, category, target_hours, week_start, created_at, updated_at`

func scanGoal(row rowScanner) (models.WeeklyGoal, error) {
	var g models.WeeklyGoal
	err := row.Scan(&g.ID, &g.Category, &g.TargetHours, &g.WeekStart, &g.CreatedAt, &g.UpdatedAt)
	return g, err
}

// CreateGoal inserts a new weekly goal.
func (s *Store) CreateGoal(in models.GoalInput) (*models.WeeklyGoal, error) {
	now := time.Now().UTC()
	goal := &models.WeeklyGoal{
		ID:          uuid.New().String(),
		Category:    in.Category,
		TargetHours: in.TargetHours,
		WeekStart:   in.WeekStart,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	_, err := s.db.Exec(
		`INSERT INTO weekly_goals (`+goalColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		goal.ID, goal.Category, goal.TargetHours, goal.WeekStart, goal.CreatedAt, goal.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert goal: %w", err)
	}
	return goal, nil
}

// GetGoal retrieves a weekly goal by ID.
func (s *Store) GetGoal(id string) (*models.WeeklyGoal, error) {
	goal, err := scanGoal(s.db.QueryRow(`SELECT `+goalColumns+` FROM weekly_goals WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query goal: %w", err)
	}
	return &goal, nil
}

// ListGoals returns goals in creation order, optionally only those of the
// week starting on weekStart.
func (s *Store) ListGoals(weekStart string) ([]models.WeeklyGoal, error) {
	query := `SELECT ` + goalColumns + ` FROM weekly_goals`
	var args []interface{}
	if weekStart != "" {
		query += ` WHERE week_start = ?`
		args = append(args, weekStart)
	}
	query += ` ORDER BY week_start DESC, created_at ASC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query goals: %w", err)
	}
	defer rows.Close()

	var goals []models.WeeklyGoal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		goals = append(goals, g)
	}
	return goals, rows.Err()
}

// UpdateGoal replaces a goal's editable fields.
func (s *Store) UpdateGoal(id string, in models.GoalInput) (*models.WeeklyGoal, error) {
	res, err := s.db.Exec(
		`UPDATE weekly_goals SET category = ?, target_hours = ?, week_start = ?, updated_at = ? WHERE id = ?`,
		in.Category, in.TargetHours, in.WeekStart, time.Now().UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update goal: %w", err)
	}
	if err := checkAffected(res); err != nil {
		return nil, err
	}
	return s.GetGoal(id)
}

// DeleteGoal removes a goal and unlinks the tasks logged against it in a
// single transaction. Unlinked tasks keep counting by category name.
func (s *Store) DeleteGoal(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`UPDATE tasks SET weekly_goal_id = NULL, updated_at = ? WHERE weekly_goal_id = ?`,
		time.Now().UTC(), id,
	); err != nil {
		return fmt.Errorf("unlink tasks: %w", err)
	}

	res, err := tx.Exec(`DELETE FROM weekly_goals WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	if err := checkAffected(res); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// --- Note Operations ---

// CreateNote inserts a new note.
func (s *Store) CreateNote(in models.NoteInput) (*models.Note, error) {
	now := time.Now().UTC()
	note := &models.Note{
		ID:        uuid.New().String(),
		Title:     in.Title,
		Content:   in.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := s.db.Exec(
		`INSERT INTO notes (id, title, content, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		note.ID, note.Title, note.Content, note.CreatedAt, note.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert note: %w", err)
	}
	return note, nil
}

// GetNote retrieves a note by ID.
func (s *Store) GetNote(id string) (*models.Note, error) {
	note := &models.Note{}
	err := s.db.QueryRow(
		`SELECT id, title, content, created_at, updated_at FROM notes WHERE id = ?`, id,
	).Scan(&note.ID, &note.Title, &note.Content, &note.CreatedAt, &note.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query note: %w", err)
	}
	return note, nil
}

// ListNotes returns notes, most recently edited first. A non-empty query
// matches title or content.
func (s *Store) ListNotes(query string) ([]models.Note, error) {
	q := `SELECT id, title, content, created_at, updated_at FROM notes`
	var args []interface{}
	if query = strings.TrimSpace(query); query != "" {
		q += ` WHERE title LIKE ? OR content LIKE ?`
		args = append(args, "%"+query+"%", "%"+query+"%")
	}
	q += ` ORDER BY updated_at DESC`

	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("query notes: %w", err)
	}
	defer rows.Close()

	var notes []models.Note
	for rows.Next() {
		var n models.Note
		if err := rows.Scan(&n.ID, &n.Title, &n.Content, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

// UpdateNote replaces a note's title and content.
func (s *Store) UpdateNote(id string, in models.NoteInput) (*models.Note, error) {
	res, err := s.db.Exec(
		`UPDATE notes SET title = ?, content = ?, updated_at = ? WHERE id = ?`,
		in.Title, in.Content, time.Now().UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update note: %w", err)
	}
	if err := checkAffected(res); err != nil {
		return nil, err
	}
	return s.GetNote(id)
}

// DeleteNote removes a note.
func (s *Store) DeleteNote(id string) error {
	res, err := s.db.Exec(`DELETE FROM notes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	return checkAffected(res)
}

// --- Journal Operations ---

// PutJournal creates or replaces the journal entry for date.
func (s *Store) PutJournal(date, content string) (*models.JournalEntry, error) {
	now := time.Now().UTC()
	_, err := s.db.Exec(
		`INSERT INTO journal_entries (id, date, content, created_at, updated_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(date) DO UPDATE SET content = excluded.content, updated_at = excluded.updated_at`,
		uuid.New().String(), date, content, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert journal: %w", err)
	}
	return s.GetJournal(date)
}

// GetJournal retrieves the entry for date.
func (s *Store) GetJournal(date string) (*models.JournalEntry, error) {
	e := &models.JournalEntry{}
	err := s.db.QueryRow(
		`SELECT id, date, content, created_at, updated_at FROM journal_entries WHERE date = ?`, date,
	).Scan(&e.ID, &e.Date, &e.Content, &e.CreatedAt, &e.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	return e, nil
}

// ListJournal returns entries with dates in [from, to], oldest first.
// Empty bounds are open.
func (s *Store) ListJournal(from, to string) ([]models.JournalEntry, error) {
	q := `SELECT id, date, content, created_at, updated_at FROM journal_entries WHERE 1 = 1`
	var args []interface{}
	if from != "" {
		q += ` AND date >= ?`
		args = append(args, from)
	}
	if to != "" {
		q += ` AND date <= ?`
		args = append(args, to)
	}
	q += ` ORDER BY date ASC`

	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	defer rows.Close()

	var entries []models.JournalEntry
	for rows.Next() {
		var e models.JournalEntry
		if err := rows.Scan(&e.ID, &e.Date, &e.Content, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan journal: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// DeleteJournal removes the entry for date.
func (s *Store) DeleteJournal(date string) error {
	res, err := s.db.Exec(`DELETE FROM journal_entries WHERE date = ?`, date)
	if err != nil {
		return fmt.Errorf("delete journal: %w", err)
	}
	return checkAffected(res)
}

// --- Plan Operations ---

const planColumns = `id, title, description, start_date, end_date, status, created_at, updated_at`

func scanPlan(row rowScanner) (models.Plan, error) {
	var p models.Plan
	err := row.Scan(&p.ID, &p.Title, &p.Description, &p.StartDate, &p.EndDate, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// CreatePlan inserts a new plan.
func (s *Store) CreatePlan(in models.PlanInput) (*models.Plan, error) {
	now := time.Now().UTC()
	plan := &models.Plan{
		ID:          uuid.New().String(),
		Title:       in.Title,
		Description: in.Description,
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
		Status:      in.Status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	_, err := s.db.Exec(
		`INSERT INTO plans (`+planColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		plan.ID, plan.Title, plan.Description, plan.StartDate, plan.EndDate, plan.Status, plan.CreatedAt, plan.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert plan: %w", err)
	}
	return plan, nil
}

// GetPlan retrieves a plan by ID.
func (s *Store) GetPlan(id string) (*models.Plan, error) {
	plan, err := scanPlan(s.db.QueryRow(`SELECT `+planColumns+` FROM plans WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query plan: %w", err)
	}
	return &plan, nil
}

// ListPlans returns plans, newest first, optionally only those in status.
func (s *Store) ListPlans(status models.PlanStatus) ([]models.Plan, error) {
	query := `SELECT ` + planColumns + ` FROM plans`
	var args []interface{}
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query plans: %w", err)
	}
	defer rows.Close()

	var plans []models.Plan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan plan: %w", err)
		}
		plans = append(plans, p)
	}
	return plans, rows.Err()
}

// UpdatePlan replaces a plan's editable fields.
func (s *Store) UpdatePlan(id string, in models.PlanInput) (*models.Plan, error) {
	res, err := s.db.Exec(
		`UPDATE plans SET title = ?, description = ?, start_date = ?, end_date = ?, status = ?, updated_at = ? WHERE id = ?`,
		in.Title, in.Description, in.StartDate, in.EndDate, in.Status, time.Now().UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update plan: %w", err)
	}
	if err := checkAffected(res); err != nil {
		return nil, err
	}
	return s.GetPlan(id)
}

// DeletePlan removes a plan together with its items.
func (s *Store) DeletePlan(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM plan_items WHERE plan_id = ?`, id); err != nil {
		return fmt.Errorf("delete plan items: %w", err)
	}
	res, err := tx.Exec(`DELETE FROM plans WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete plan: %w", err)
	}
	if err := checkAffected(res); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

const planItemColumns = `id, plan_id, title, description, date, completed, created_at, updated_at`

func scanPlanItem(row rowScanner) (models.PlanItem, error) {
	var it models.PlanItem
	err := row.Scan(&it.ID, &it.PlanID, &it.Title, &it.Description, &it.Date, &it.Completed, &it.CreatedAt, &it.UpdatedAt)
	return it, err
}

// CreatePlanItem adds an item to planID.
func (s *Store) CreatePlanItem(planID string, in models.PlanItemInput) (*models.PlanItem, error) {
	now := time.Now().UTC()
	item := &models.PlanItem{
		ID:          uuid.New().String(),
		PlanID:      planID,
		Title:       in.Title,
		Description: in.Description,
		Date:        in.Date,
		Completed:   in.Completed,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	_, err := s.db.Exec(
		`INSERT INTO plan_items (`+planItemColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.PlanID, item.Title, item.Description, item.Date, item.Completed, item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert plan item: %w", err)
	}
	return item, nil
}

// GetPlanItem retrieves a plan item by ID.
func (s *Store) GetPlanItem(id string) (*models.PlanItem, error) {
	item, err := scanPlanItem(s.db.QueryRow(`SELECT `+planItemColumns+` FROM plan_items WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query plan item: %w", err)
	}
	return &item, nil
}

// ListPlanItems returns the items of planID by date.
func (s *Store) ListPlanItems(planID string) ([]models.PlanItem, error) {
	rows, err := s.db.Query(
		`SELECT `+planItemColumns+` FROM plan_items WHERE plan_id = ? ORDER BY date ASC, created_at ASC`, planID,
	)
	if err != nil {
		return nil, fmt.Errorf("query plan items: %w", err)
	}
	defer rows.Close()

	var items []models.PlanItem
	for rows.Next() {
		it, err := scanPlanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan plan item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// UpdatePlanItem replaces an item's editable fields.
func (s *Store) UpdatePlanItem(id string, in models.PlanItemInput) (*models.PlanItem, error) {
	res, err := s.db.Exec(
		`UPDATE plan_items SET title = ?, description = ?, date = ?, completed = ?, updated_at = ? WHERE id = ?`,
		in.Title, in.Description, in.Date, in.Completed, time.Now().UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update plan item: %w", err)
	}
	if err := checkAffected(res); err != nil {
		return nil, err
	}
	return s.GetPlanItem(id)
}

// TogglePlanItem flips an item's completed flag.
func (s *Store) TogglePlanItem(id string) (*models.PlanItem, error) {
	res, err := s.db.Exec(
		`UPDATE plan_items SET completed = NOT completed, updated_at = ? WHERE id = ?`, time.Now().UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("toggle plan item: %w", err)
	}
	if err := checkAffected(res); err != nil {
		return nil, err
	}
	return s.GetPlanItem(id)
}

// DeletePlanItem removes a plan item.
func (s *Store) DeletePlanItem(id string) error {
	res, err := s.db.Exec(`DELETE FROM plan_items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete plan item: %w", err)
	}
	return checkAffected(res)
}

// --- Activity Operations ---

// WriteActivity appends an activity record.
func (s *Store) WriteActivity(action, inputsHash, outcome, refID, details string) (*models.ActivityEntry, error) {
	entry := &models.ActivityEntry{
		ID:         uuid.New().String(),
		Action:     action,
		InputsHash: inputsHash,
		Outcome:    outcome,
		RefID:      refID,
		Details:    details,
		Timestamp:  time.Now().UTC(),
	}

	_, err := s.db.Exec(
		`INSERT INTO activity (id, action, inputs_hash, outcome, ref_id, details, timestamp) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.Action, entry.InputsHash, entry.Outcome, nullString(entry.RefID), entry.Details, entry.Timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert activity: %w", err)
	}
	return entry, nil
}

// ListActivity returns the most recent activity records, newest first.
func (s *Store) ListActivity(limit int) ([]models.ActivityEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(
		`SELECT id, action, inputs_hash, outcome, ref_id, details, timestamp FROM activity ORDER BY timestamp DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query activity: %w", err)
	}
	defer rows.Close()

	var entries []models.ActivityEntry
	for rows.Next() {
		var e models.ActivityEntry
		var refID, details sql.NullString
		if err := rows.Scan(&e.ID, &e.Action, &e.InputsHash, &e.Outcome, &refID, &details, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		e.RefID = refID.String
		e.Details = details.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
