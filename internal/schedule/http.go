package schedule

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/Tai-DucTran/Panny/internal/model"
)

// Handler serves the task surface. Schedulers are per-user; the
// resolver picks the right one from the request (auth context).
type Handler struct {
	sched    *Scheduler
	resolver func(*http.Request) *Scheduler
}

func NewHandler(sched *Scheduler) *Handler {
	return &Handler{sched: sched}
}

func (h *Handler) SetSchedulerResolver(fn func(*http.Request) *Scheduler) {
	h.resolver = fn
}

func (h *Handler) schedulerForRequest(r *http.Request) *Scheduler {
	if h.resolver != nil {
		if s := h.resolver(r); s != nil {
			return s
		}
	}
	return h.sched
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"error": msg})
}

// taskView is a task plus its display state at serialization time.
type taskView struct {
	model.Task
	Display Status `json:"display"`
	DueIn   string `json:"dueIn"`
}

func (h *Handler) views(s *Scheduler, tasks []model.Task) []taskView {
	now := s.clock.Now()
	rules := s.Rules()
	out := make([]taskView, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, taskView{
			Task:    t,
			Display: rules.Classify(t, now),
			DueIn:   FormatRelative(t.DueAt, now),
		})
	}
	return out
}

// TasksRoot handles GET /api/tasks. Tasks are rederived on every read;
// regeneration is idempotent, so reads are safe to repeat.
// Supported filters: ?filter=due|upcoming|completed.
func (h *Handler) TasksRoot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s := h.schedulerForRequest(r)
	if _, err := s.Regenerate(r.Context()); err != nil {
		writeErr(w, http.StatusServiceUnavailable, "could not load plants")
		return
	}

	var tasks []model.Task
	switch strings.TrimSpace(r.URL.Query().Get("filter")) {
	case "", "all":
		tasks = s.Tasks()
	case "due":
		tasks = s.Due()
	case "upcoming":
		tasks = s.Upcoming()
	case "completed":
		tasks = s.Completed()
	default:
		writeErr(w, http.StatusBadRequest, "unknown filter")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"tasks": h.views(s, tasks)})
}

// TasksSub handles /api/tasks/{id}/complete.
func (h *Handler) TasksSub(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/tasks/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) != 2 || parts[1] != "complete" {
		writeErr(w, http.StatusNotFound, "not found")
		return
	}
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	s := h.schedulerForRequest(r)
	res := s.Complete(r.Context(), model.TaskID(parts[0]))
	if res.OK {
		writeJSON(w, http.StatusOK, res)
		return
	}

	code := http.StatusInternalServerError
	switch {
	case errors.Is(res.Err, ErrTaskNotFound), errors.Is(res.Err, ErrPlantNotFound):
		code = http.StatusNotFound
	case errors.Is(res.Err, ErrNotCompletable):
		code = http.StatusConflict
	case errors.Is(res.Err, ErrPersistenceFailed):
		code = http.StatusBadGateway
	}
	writeJSON(w, code, res)
}

// PlantTasks handles GET /api/plants/{id}/tasks.
func (h *Handler) PlantTasks(w http.ResponseWriter, r *http.Request, plantID model.PlantID) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s := h.schedulerForRequest(r)
	if _, err := s.Regenerate(r.Context()); err != nil {
		writeErr(w, http.StatusServiceUnavailable, "could not load plants")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tasks": h.views(s, s.ForPlant(plantID))})
}
