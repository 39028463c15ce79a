package schedule

import (
	"time"

	"github.com/Tai-DucTran/Panny/internal/model"
)

const completionDayLayout = "2006-01-02"

type pendingKey struct {
	plant model.PlantID
	kind  model.TaskKind
}

type historyKey struct {
	plant model.PlantID
	kind  model.TaskKind
	day   string
}

// Reconcile merges freshly generated candidates with the previously
// known task set. It is a pure, total function: no failure mode, no
// clock reads beyond the supplied now (used only to repair malformed
// input).
//
// Guarantees on the result:
//   - a candidate whose ID matches a previously completed task comes
//     back COMPLETED with the original completion instant;
//   - completed tasks the generators no longer reproduce are carried
//     forward as history;
//   - at most one COMPLETED task per (plant, kind, completion day) —
//     an entry backed by a live candidate always wins the day; between
//     two carried-forward entries the later completion stands;
//   - at most one PENDING task per (plant, kind) — collisions keep the
//     latest due date.
func Reconcile(prior, fresh []model.Task, now time.Time) []model.Task {
	completedByID := make(map[model.TaskID]model.Task, len(prior))
	for _, t := range prior {
		if t.IsCompleted() {
			completedByID[t.ID] = t
		}
	}

	out := make([]model.Task, 0, len(fresh))
	seen := make(map[model.TaskID]bool, len(fresh))

	for _, cand := range fresh {
		// A single generation pass must not emit the same ID twice.
		if seen[cand.ID] {
			continue
		}
		seen[cand.ID] = true

		if done, ok := completedByID[cand.ID]; ok {
			cand.Status = model.TaskCompleted
			cand.CompletedAt = completedAtOr(done, now)
		} else {
			cand.Status = model.TaskPending
			cand.CompletedAt = nil
		}
		out = append(out, cand)
	}

	// Index completed entries already emitted so carried-forward history
	// can be capped per completion day against them. Everything in out
	// so far is candidate-backed: replacing such an entry would make its
	// id reappear pending on the next pass, so history may only ever
	// displace other history.
	fromFresh := len(out)
	historyIdx := make(map[historyKey]int)
	for i, t := range out {
		if t.IsCompleted() {
			historyIdx[historyKeyFor(t)] = i
		}
	}

	for _, t := range prior {
		if !t.IsCompleted() || seen[t.ID] {
			continue
		}
		seen[t.ID] = true
		t.CompletedAt = completedAtOr(t, now)

		key := historyKeyFor(t)
		if i, ok := historyIdx[key]; ok {
			if i >= fromFresh && t.CompletedAt.After(*out[i].CompletedAt) {
				out[i] = t
			}
			continue
		}
		historyIdx[key] = len(out)
		out = append(out, t)
	}

	return capPending(out)
}

// capPending drops all but the latest-due pending task per (plant,
// kind). Generator contracts should make this a no-op; it is enforced
// anyway so a buggy caller cannot expose two live tasks of one kind.
func capPending(tasks []model.Task) []model.Task {
	winner := make(map[pendingKey]int)
	for i, t := range tasks {
		if t.IsCompleted() {
			continue
		}
		key := pendingKey{plant: t.PlantID, kind: t.Kind}
		j, ok := winner[key]
		if !ok || t.DueAt.After(tasks[j].DueAt) {
			winner[key] = i
		}
	}

	out := tasks[:0]
	for i, t := range tasks {
		if !t.IsCompleted() {
			key := pendingKey{plant: t.PlantID, kind: t.Kind}
			if winner[key] != i {
				continue
			}
		}
		out = append(out, t)
	}
	return out
}

// completedAtOr repairs a completed task that lost its completion
// instant; the reconciliation instant stands in.
func completedAtOr(t model.Task, now time.Time) *time.Time {
	if t.CompletedAt != nil {
		return t.CompletedAt
	}
	return &now
}

func historyKeyFor(t model.Task) historyKey {
	day := ""
	if t.CompletedAt != nil {
		day = t.CompletedAt.Format(completionDayLayout)
	}
	return historyKey{plant: t.PlantID, kind: t.Kind, day: day}
}
