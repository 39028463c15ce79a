package plant

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Tai-DucTran/Panny/internal/model"
)

type fileState struct {
	Users map[string]userPlantState `json:"users"`
}

type userPlantState struct {
	Plants map[model.PlantID]model.Plant `json:"plants"`
}

func newFileState() fileState {
	return fileState{Users: map[string]userPlantState{}}
}

type fileStore struct {
	mu      sync.RWMutex
	path    string
	s       fileState
	nowFunc func() time.Time
}

// FileRepo is a persistent plant repository backed by one JSON file.
// It is user-scoped; call ForUser(userID) to get a scoped view.
type FileRepo struct {
	store  *fileStore
	userID string
}

func NewFileRepo(dataDir string) (*FileRepo, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, err
	}
	st := &fileStore{
		path:    filepath.Join(dataDir, "plants.json"),
		s:       newFileState(),
		nowFunc: time.Now,
	}
	if err := st.load(); err != nil {
		return nil, err
	}
	return &FileRepo{store: st, userID: "default"}, nil
}

func (s *fileStore) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.s = newFileState()
			return nil
		}
		return err
	}

	var loaded fileState
	if err := json.Unmarshal(b, &loaded); err != nil {
		return err
	}
	if loaded.Users == nil {
		loaded.Users = map[string]userPlantState{}
	}
	for uid, us := range loaded.Users {
		if us.Plants == nil {
			us.Plants = map[model.PlantID]model.Plant{}
		}
		loaded.Users[uid] = us
	}
	s.s = loaded
	return nil
}

func (s *fileStore) saveLocked() error {
	b, err := json.MarshalIndent(s.s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, b, 0o644)
}

// SetNowFunc overrides the timestamp source, for tests. The override is
// shared by every user-scoped view of the same store.
func (r *FileRepo) SetNowFunc(f func() time.Time) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.nowFunc = f
}

func (r *FileRepo) ForUser(userID string) *FileRepo {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		userID = "default"
	}
	return &FileRepo{store: r.store, userID: userID}
}

func (r *FileRepo) userStateLocked() userPlantState {
	us, ok := r.store.s.Users[r.userID]
	if !ok {
		us = userPlantState{Plants: map[model.PlantID]model.Plant{}}
		r.store.s.Users[r.userID] = us
	}
	return us
}

func (r *FileRepo) Create(_ context.Context, p model.Plant) (model.Plant, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	now := r.store.nowFunc()
	p.ID = model.PlantID(uuid.NewString())
	p.UserID = r.userID
	p.CreatedAt = now
	p.UpdatedAt = now

	us := r.userStateLocked()
	us.Plants[p.ID] = p
	r.store.s.Users[r.userID] = us

	if err := r.store.saveLocked(); err != nil {
		return model.Plant{}, err
	}
	return p, nil
}

func (r *FileRepo) Get(_ context.Context, id model.PlantID) (model.Plant, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	us, ok := r.store.s.Users[r.userID]
	if !ok {
		return model.Plant{}, ErrNotFound
	}
	p, ok := us.Plants[id]
	if !ok {
		return model.Plant{}, ErrNotFound
	}
	return p, nil
}

func (r *FileRepo) Update(_ context.Context, id model.PlantID, patch Patch) (model.Plant, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	us := r.userStateLocked()
	p, ok := us.Plants[id]
	if !ok {
		return model.Plant{}, ErrNotFound
	}

	applyPatch(&p, patch)
	p.UpdatedAt = r.store.nowFunc()
	us.Plants[id] = p
	r.store.s.Users[r.userID] = us

	if err := r.store.saveLocked(); err != nil {
		return model.Plant{}, err
	}
	return p, nil
}

func (r *FileRepo) List(_ context.Context) ([]model.Plant, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	us, ok := r.store.s.Users[r.userID]
	if !ok {
		return []model.Plant{}, nil
	}
	out := make([]model.Plant, 0, len(us.Plants))
	for _, p := range us.Plants {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *FileRepo) Delete(_ context.Context, id model.PlantID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	us := r.userStateLocked()
	if _, ok := us.Plants[id]; !ok {
		return ErrNotFound
	}
	delete(us.Plants, id)
	r.store.s.Users[r.userID] = us
	return r.store.saveLocked()
}
