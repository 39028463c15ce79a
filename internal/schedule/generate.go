package schedule

import (
	"fmt"
	"time"

	"github.com/Tai-DucTran/Panny/internal/model"
)

// newPlantRepotDueDays is the default repotting horizon for a freshly
// bought plant with no repotting history.
const newPlantRepotDueDays = 7

// TaskIDFor builds the deterministic task identity. Regenerating from
// unchanged plant data must reproduce the same ID, otherwise completion
// state recorded against it would be lost on the next cycle.
func TaskIDFor(kind model.TaskKind, plantID model.PlantID, anchor time.Time) model.TaskID {
	return model.TaskID(fmt.Sprintf("%s-%s-%d", kind, plantID, anchor.Unix()))
}

// GenerateWateringTask derives the current watering candidate for a
// plant. A plant missing either its watering frequency or a last-watered
// timestamp yields no task; that is insufficient data, not an error.
//
// Candidates are always PENDING. Re-applying prior completion state is
// the reconciler's job alone; generators never consult task history.
func GenerateWateringTask(p model.Plant, now time.Time) (model.Task, bool) {
	if p.LastWatered == nil || p.WateringFrequencyDays < 1 {
		return model.Task{}, false
	}
	anchor := *p.LastWatered
	return model.Task{
		ID:            TaskIDFor(model.TaskWatering, p.ID, anchor),
		PlantID:       p.ID,
		PlantName:     p.Name,
		PlantImageURL: p.ImageURL,
		Kind:          model.TaskWatering,
		DueAt:         anchor.AddDate(0, 0, p.WateringFrequencyDays),
		Status:        model.TaskPending,
	}, true
}

// GenerateRepottingTask derives the current repotting candidate.
//
// A recorded repotting history wins over the just-bought default: when a
// plant has both, the schedule is anchored to the explicit lastRepotted.
// A just-bought plant without history gets a task due one week from now,
// anchored to now — so each cycle produces a fresh ID until an actual
// repotting is recorded. The reconciler's pending cap keeps the exposed
// view to a single task.
func GenerateRepottingTask(p model.Plant, now time.Time) (model.Task, bool) {
	if p.LastRepotted != nil && p.RepottingFrequencyMonths >= 1 {
		anchor := *p.LastRepotted
		return model.Task{
			ID:            TaskIDFor(model.TaskRepotting, p.ID, anchor),
			PlantID:       p.ID,
			PlantName:     p.Name,
			PlantImageURL: p.ImageURL,
			Kind:          model.TaskRepotting,
			DueAt:         anchor.AddDate(0, p.RepottingFrequencyMonths, 0),
			Status:        model.TaskPending,
		}, true
	}

	if p.AcquiredTime == model.AcquiredJustBought {
		return model.Task{
			ID:            TaskIDFor(model.TaskRepotting, p.ID, now),
			PlantID:       p.ID,
			PlantName:     p.Name,
			PlantImageURL: p.ImageURL,
			Kind:          model.TaskRepotting,
			DueAt:         now.AddDate(0, 0, newPlantRepotDueDays),
			Status:        model.TaskPending,
		}, true
	}

	return model.Task{}, false
}

// Generate evaluates every generator for every plant and returns the
// full candidate set. The complete set is required before reconciling:
// the reconciler's per-(plant, kind) grouping only holds if no candidate
// arrives late.
func Generate(plants []model.Plant, now time.Time) []model.Task {
	out := make([]model.Task, 0, len(plants)*2)
	for _, p := range plants {
		if t, ok := GenerateWateringTask(p, now); ok {
			out = append(out, t)
		}
		if t, ok := GenerateRepottingTask(p, now); ok {
			out = append(out, t)
		}
	}
	return out
}
