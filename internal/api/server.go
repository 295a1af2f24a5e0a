package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fentz26/hourglass/internal/models"
)

// Version is set at build time via -ldflags.
var Version = "0.1.0"

// Pinger reports database liveness for the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	OK      bool   `json:"ok"`
	DB      string `json:"db"`
	Version string `json:"version"`
	Time    string `json:"time"`
}

// Server provides the HTTP API for hourglass.
type Server struct {
	service *Service
	db      Pinger
	addr    string
	logger  *slog.Logger
	server  *http.Server
}

// NewServer creates a new HTTP server. A nil logger discards output.
func NewServer(service *Service, db Pinger, addr string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Server{
		service: service,
		db:      db,
		addr:    addr,
		logger:  logger,
	}
}

// Handler returns the routed API handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.handleHealth)

	mux.HandleFunc("/tasks", s.handleTasks)
	mux.HandleFunc("/tasks/", s.handleTaskByID)
	mux.HandleFunc("/categories", s.handleCategories)

	mux.HandleFunc("/goals", s.handleGoals)
	mux.HandleFunc("/goals/", s.handleGoalByID)

	mux.HandleFunc("/notes", s.handleNotes)
	mux.HandleFunc("/notes/", s.handleNoteByID)

	mux.HandleFunc("/journal", s.handleJournal)
	mux.HandleFunc("/journal/", s.handleJournalByDate)

	mux.HandleFunc("/plans", s.handlePlans)
	mux.HandleFunc("/plans/", s.handlePlanByID)
	mux.HandleFunc("/plan-items/", s.handlePlanItemByID)

	mux.HandleFunc("/activity", s.handleActivity)

	return s.logRequests(mux)
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve serves the API on ln.
func (s *Server) Serve(ln net.Listener) error {
	s.server = &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	s.logger.Info("starting hourglass daemon", "addr", ln.Addr().String())
	return s.server.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("request", "method", r.Method, "path", r.URL.Path,
			"status", rec.status, "duration", time.Since(start))
	})
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps service errors to status codes.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ErrInvalidInput):
		status = http.StatusBadRequest
	default:
		s.logger.Error("request failed", "err", err)
	}
	http.Error(w, err.Error(), status)
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return false
	}
	return true
}

// pathID returns the single path segment after prefix, or "".
func pathID(r *http.Request, prefix string) string {
	id := strings.TrimPrefix(r.URL.Path, prefix)
	if id == "" || strings.Contains(id, "/") {
		return ""
	}
	return id
}

// emptyIfNil keeps list responses as JSON arrays.
func emptyIfNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

// --- Health ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	resp := HealthResponse{
		OK:      true,
		DB:      "ok",
		Version: Version,
		Time:    time.Now().UTC().Format(time.RFC3339),
	}
	status := http.StatusOK

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.db.Ping(ctx); err != nil {
		resp.OK = false
		resp.DB = err.Error()
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, resp)
}

// --- Tasks ---

// handleTasks handles POST /tasks and GET /tasks?from=&to=&category=
func (s *Server) handleTasks(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var in models.TaskInput
		if !decode(w, r, &in) {
			return
		}
		task, err := s.service.CreateTask(in)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, task)
	case http.MethodGet:
		q := r.URL.Query()
		tasks, err := s.service.ListTasks(models.TaskFilter{
			From:     q.Get("from"),
			To:       q.Get("to"),
			Category: q.Get("category"),
		})
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, emptyIfNil(tasks))
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleTaskByID handles GET, PUT and DELETE /tasks/{id}
func (s *Server) handleTaskByID(w http.ResponseWriter, r *http.Request) {
	id := pathID(r, "/tasks/")
	if id == "" {
		http.Error(w, "task id required", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodGet:
		task, err := s.service.GetTask(id)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, task)
	case http.MethodPut:
		var in models.TaskInput
		if !decode(w, r, &in) {
			return
		}
		task, err := s.service.UpdateTask(id, in)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, task)
	case http.MethodDelete:
		if err := s.service.DeleteTask(id); err != nil {
			s.writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	cats, err := s.service.Categories()
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(cats))
}

// --- Goals ---

// handleGoals handles POST /goals and GET /goals?week=
func (s *Server) handleGoals(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var in models.GoalInput
		if !decode(w, r, &in) {
			return
		}
		goal, err := s.service.CreateGoal(in)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, goal)
	case http.MethodGet:
		goals, err := s.service.ListGoals(r.URL.Query().Get("week"))
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, emptyIfNil(goals))
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleGoalByID handles GET, PUT and DELETE /goals/{id}
func (s *Server) handleGoalByID(w http.ResponseWriter, r *http.Request) {
	id := pathID(r, "/goals/")
	if id == "" {
		http.Error(w, "goal id required", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodGet:
		goal, err := s.service.GetGoal(id)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, goal)
	case http.MethodPut:
		var in models.GoalInput
		if !decode(w, r, &in) {
			return
		}
		goal, err := s.service.UpdateGoal(id, in)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, goal)
	case http.MethodDelete:
		if err := s.service.DeleteGoal(id); err != nil {
			s.writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// --- Notes ---

// handleNotes handles POST /notes and GET /notes?q=
func (s *Server) handleNotes(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var in models.NoteInput
		if !decode(w, r, &in) {
			return
		}
		note, err := s.service.CreateNote(in)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, note)
	case http.MethodGet:
		notes, err := s.service.ListNotes(r.URL.Query().Get("q"))
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, emptyIfNil(notes))
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleNoteByID handles GET, PUT and DELETE /notes/{id}
func (s *Server) handleNoteByID(w http.ResponseWriter, r *http.Request) {
	id := pathID(r, "/notes/")
	if id == "" {
		http.Error(w, "note id required", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodGet:
		note, err := s.service.GetNote(id)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, note)
	case http.MethodPut:
		var in models.NoteInput
		if !decode(w, r, &in) {
			return
		}
		note, err := s.service.UpdateNote(id, in)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, note)
	case http.MethodDelete:
		if err := s.service.DeleteNote(id); err != nil {
			s.writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// --- Journal ---

// handleJournal handles GET /journal?from=&to=
func (s *Server) handleJournal(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	q := r.URL.Query()
	entries, err := s.service.ListJournal(q.Get("from"), q.Get("to"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(entries))
}

type putJournalRequest struct {
	Content string `json:"content"`
}

// handleJournalByDate handles GET, PUT and DELETE /journal/{date}
func (s *Server) handleJournalByDate(w http.ResponseWriter, r *http.Request) {
	date := pathID(r, "/journal/")
	if date == "" {
		http.Error(w, "date required", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodGet:
		entry, err := s.service.GetJournal(date)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, entry)
	case http.MethodPut:
		var req putJournalRequest
		if !decode(w, r, &req) {
			return
		}
		entry, err := s.service.PutJournal(date, req.Content)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, entry)
	case http.MethodDelete:
		if err := s.service.DeleteJournal(date); err != nil {
			s.writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// --- Plans ---

// handlePlans handles POST /plans and GET /plans?status=
func (s *Server) handlePlans(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var in models.PlanInput
		if !decode(w, r, &in) {
			return
		}
		plan, err := s.service.CreatePlan(in)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, plan)
	case http.MethodGet:
		plans, err := s.service.ListPlans(r.URL.Query().Get("status"))
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, emptyIfNil(plans))
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// handlePlanByID handles GET, PUT and DELETE /plans/{id} and GET, POST
// /plans/{id}/items
func (s *Server) handlePlanByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/plans/")
	id, sub, _ := strings.Cut(rest, "/")
	if id == "" {
		http.Error(w, "plan id required", http.StatusBadRequest)
		return
	}
	switch sub {
	case "":
	case "items":
		s.handlePlanItems(w, r, id)
		return
	default:
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		plan, err := s.service.GetPlan(id)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, plan)
	case http.MethodPut:
		var in models.PlanInput
		if !decode(w, r, &in) {
			return
		}
		plan, err := s.service.UpdatePlan(id, in)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, plan)
	case http.MethodDelete:
		if err := s.service.DeletePlan(id); err != nil {
			s.writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handlePlanItems(w http.ResponseWriter, r *http.Request, planID string) {
	switch r.Method {
	case http.MethodGet:
		items, err := s.service.ListPlanItems(planID)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, emptyIfNil(items))
	case http.MethodPost:
		var in models.PlanItemInput
		if !decode(w, r, &in) {
			return
		}
		item, err := s.service.AddPlanItem(planID, in)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, item)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// handlePlanItemByID handles PUT and DELETE /plan-items/{id} and POST
// /plan-items/{id}/toggle
func (s *Server) handlePlanItemByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/plan-items/")
	id, sub, _ := strings.Cut(rest, "/")
	if id == "" {
		http.Error(w, "plan item id required", http.StatusBadRequest)
		return
	}

	switch {
	case sub == "toggle" && r.Method == http.MethodPost:
		item, err := s.service.TogglePlanItem(id)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, item)
	case sub != "":
		http.NotFound(w, r)
	case r.Method == http.MethodPut:
		var in models.PlanItemInput
		if !decode(w, r, &in) {
			return
		}
		item, err := s.service.UpdatePlanItem(id, in)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, item)
	case r.Method == http.MethodDelete:
		if err := s.service.DeletePlanItem(id); err != nil {
			s.writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// --- Activity ---

// handleActivity handles GET /activity?limit=
func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			http.Error(w, "limit must be a non-negative integer", http.StatusBadRequest)
			return
		}
		limit = n
	}
	entries, err := s.service.ListActivity(limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(entries))
}
