package schedule

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/Tai-DucTran/Panny/internal/model"
	"github.com/Tai-DucTran/Panny/internal/plant"
)

var (
	ErrTaskNotFound      = errors.New("task not found")
	ErrNotCompletable    = errors.New("task cannot be completed at this time")
	ErrPlantNotFound     = errors.New("plant not found")
	ErrPersistenceFailed = errors.New("could not persist plant update")
)

// EventRecorder receives scheduler lifecycle events. Implementations
// must not block.
type EventRecorder interface {
	Record(eventType string, metadata map[string]any)
}

// CompleteResult is what completing a task reports back to the caller.
// Failures are data, not control flow: the presentation layer renders
// Message inline and Err identifies the failure kind via errors.Is.
type CompleteResult struct {
	OK      bool         `json:"ok"`
	Message string       `json:"message"`
	TaskID  model.TaskID `json:"taskId"`
	Err     error        `json:"-"`
}

// Scheduler owns the derived task set for one user. Tasks are always
// rederivable from plants plus completion history; the scheduler keeps
// them in memory and re-runs generation + reconciliation whenever plant
// state changes. All methods are safe for concurrent use; completions
// are serialized internally.
type Scheduler struct {
	plants   plant.Repo
	clock    Clock
	recorder EventRecorder
	logger   *log.Logger

	mu    sync.Mutex
	rules Rules
	tasks []model.Task
}

type SchedulerOption func(*Scheduler)

func WithRecorder(rec EventRecorder) SchedulerOption {
	return func(s *Scheduler) { s.recorder = rec }
}

func WithLogger(logger *log.Logger) SchedulerOption {
	return func(s *Scheduler) { s.logger = logger }
}

func WithRules(r Rules) SchedulerOption {
	return func(s *Scheduler) { s.rules = r }
}

func NewScheduler(plants plant.Repo, clock Clock, opts ...SchedulerOption) *Scheduler {
	if clock == nil {
		clock = RealClock{}
	}
	s := &Scheduler{
		plants: plants,
		clock:  clock,
		logger: log.Default(),
		rules:  DefaultRules(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetRules swaps the classification horizons, e.g. after a config
// reload.
func (s *Scheduler) SetRules(r Rules) {
	s.mu.Lock()
	s.rules = r
	s.mu.Unlock()
}

func (s *Scheduler) Rules() Rules {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rules
}

// Regenerate rederives the task set from current plant state. All
// generators run before reconciliation so the reconciler sees the
// complete candidate set.
func (s *Scheduler) Regenerate(ctx context.Context) ([]model.Task, error) {
	plants, err := s.plants.List(ctx)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	fresh := Generate(plants, now)

	s.mu.Lock()
	s.tasks = Reconcile(s.tasks, fresh, now)
	out := snapshot(s.tasks)
	s.mu.Unlock()

	s.record("tasks_regenerated", map[string]any{
		"plants": len(plants),
		"tasks":  len(out),
	})
	return out, nil
}

// Tasks returns a copy of the current task set.
func (s *Scheduler) Tasks() []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshot(s.tasks)
}

// Due returns pending tasks whose due instant has passed.
func (s *Scheduler) Due() []model.Task {
	now := s.clock.Now()
	return s.filter(func(t model.Task) bool {
		return !t.IsCompleted() && !t.DueAt.After(now)
	})
}

// Upcoming returns pending tasks due in the future.
func (s *Scheduler) Upcoming() []model.Task {
	now := s.clock.Now()
	return s.filter(func(t model.Task) bool {
		return !t.IsCompleted() && t.DueAt.After(now)
	})
}

func (s *Scheduler) Completed() []model.Task {
	return s.filter(model.Task.IsCompleted)
}

func (s *Scheduler) ForPlant(plantID model.PlantID) []model.Task {
	return s.filter(func(t model.Task) bool { return t.PlantID == plantID })
}

// Classify computes the display state of a task under the scheduler's
// current rules.
func (s *Scheduler) Classify(t model.Task) Status {
	return s.Rules().Classify(t, s.clock.Now())
}

// Complete marks one task done. The owning plant's care fields are
// persisted first; only after the plant update succeeds is the local
// task marked completed and the task set regenerated, so a persistence
// failure leaves all in-memory state untouched.
func (s *Scheduler) Complete(ctx context.Context, taskID model.TaskID) CompleteResult {
	s.mu.Lock()
	task, ok := s.findLocked(taskID)
	rules := s.rules
	s.mu.Unlock()

	if !ok {
		return failure(taskID, ErrTaskNotFound, "Task not found")
	}

	now := s.clock.Now()
	if !rules.IsCompletable(task, now) {
		return failure(taskID, ErrNotCompletable, "Task cannot be completed at this time")
	}

	p, err := s.plants.Get(ctx, task.PlantID)
	if err != nil {
		if errors.Is(err, plant.ErrNotFound) {
			return failure(taskID, ErrPlantNotFound, "Plant not found")
		}
		s.logger.Printf("[schedule] load plant %s: %v", task.PlantID, err)
		return failure(taskID, ErrPersistenceFailed, "Error loading plant data")
	}

	patch, message := completionPatch(task.Kind, p, now)
	if _, err := s.plants.Update(ctx, p.ID, patch); err != nil {
		s.logger.Printf("[schedule] persist completion of %s: %v", taskID, err)
		return failure(taskID, ErrPersistenceFailed, "Error updating plant data")
	}

	s.mu.Lock()
	for i := range s.tasks {
		if s.tasks[i].ID == taskID {
			completedAt := now
			s.tasks[i].Status = model.TaskCompleted
			s.tasks[i].CompletedAt = &completedAt
			break
		}
	}
	s.mu.Unlock()

	s.record("task_completed", map[string]any{
		"task":  string(taskID),
		"kind":  string(task.Kind),
		"plant": string(task.PlantID),
	})

	// Synchronous regeneration: dependent tasks must reflect the new
	// anchor before the next caller reads the task set.
	if _, err := s.Regenerate(ctx); err != nil {
		s.logger.Printf("[schedule] regenerate after completing %s: %v", taskID, err)
	}

	return CompleteResult{OK: true, Message: message, TaskID: taskID}
}

// completionPatch builds the plant update a completed task implies.
// Repotting a just-bought plant also advances its acquisition marker:
// the "needs repotting soon because newly bought" default no longer
// applies once an actual repotting is on record.
func completionPatch(kind model.TaskKind, p model.Plant, now time.Time) (plant.Patch, string) {
	switch kind {
	case model.TaskWatering:
		patch := plant.Patch{LastWatered: &now}
		if p.HealthStatus == model.HealthPoor || p.HealthStatus == model.HealthFair {
			good := model.HealthGood
			patch.HealthStatus = &good
		}
		return patch, "Plant watered successfully"
	case model.TaskRepotting:
		patch := plant.Patch{LastRepotted: &now}
		if p.AcquiredTime == model.AcquiredJustBought {
			lastWeek := model.AcquiredLastWeek
			patch.AcquiredTime = &lastWeek
		}
		return patch, "Plant repotted successfully"
	default:
		return plant.Patch{}, "Task completed"
	}
}

func (s *Scheduler) findLocked(id model.TaskID) (model.Task, bool) {
	for _, t := range s.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return model.Task{}, false
}

func (s *Scheduler) filter(keep func(model.Task) bool) []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}

func (s *Scheduler) record(eventType string, metadata map[string]any) {
	if s.recorder != nil {
		s.recorder.Record(eventType, metadata)
	}
}

func failure(taskID model.TaskID, err error, message string) CompleteResult {
	return CompleteResult{Message: message, TaskID: taskID, Err: err}
}

func snapshot(tasks []model.Task) []model.Task {
	out := make([]model.Task, len(tasks))
	copy(out, tasks)
	return out
}
