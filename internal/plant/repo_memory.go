package plant

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Tai-DucTran/Panny/internal/model"
)

type MemoryRepo struct {
	mu     sync.RWMutex
	plants map[model.PlantID]model.Plant
	now    func() time.Time
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		plants: map[model.PlantID]model.Plant{},
		now:    time.Now,
	}
}

// SetNowFunc overrides the timestamp source for tests.
func (r *MemoryRepo) SetNowFunc(now func() time.Time) {
	r.mu.Lock()
	r.now = now
	r.mu.Unlock()
}

func (r *MemoryRepo) Create(_ context.Context, p model.Plant) (model.Plant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	p.ID = model.PlantID(uuid.NewString())
	p.CreatedAt = now
	p.UpdatedAt = now

	r.plants[p.ID] = p
	return p, nil
}

func (r *MemoryRepo) Get(_ context.Context, id model.PlantID) (model.Plant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.plants[id]
	if !ok {
		return model.Plant{}, ErrNotFound
	}
	return p, nil
}

func (r *MemoryRepo) Update(_ context.Context, id model.PlantID, patch Patch) (model.Plant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.plants[id]
	if !ok {
		return model.Plant{}, ErrNotFound
	}

	applyPatch(&p, patch)
	p.UpdatedAt = r.now()

	r.plants[id] = p
	return p, nil
}

func (r *MemoryRepo) List(_ context.Context) ([]model.Plant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Plant, 0, len(r.plants))
	for _, p := range r.plants {
		out = append(out, p)
	}
	// Newest first, matching the garden view.
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *MemoryRepo) Delete(_ context.Context, id model.PlantID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.plants[id]; !ok {
		return ErrNotFound
	}
	delete(r.plants, id)
	return nil
}
