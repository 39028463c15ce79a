package plant

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Tai-DucTran/Panny/internal/model"
)

func TestFileRepo_CRUDRoundTrip(t *testing.T) {
	dir := t.TempDir()
	repo, err := NewFileRepo(dir)
	if err != nil {
		t.Fatalf("new repo: %v", err)
	}
	ctx := context.Background()

	watered := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	created, err := repo.Create(ctx, model.Plant{
		Name:                  "Monstera",
		Species:               "Monstera deliciosa",
		WateringFrequencyDays: 7,
		LastWatered:           &watered,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" {
		t.Fatalf("expected generated id")
	}

	got, err := repo.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "Monstera" || got.WateringFrequencyDays != 7 {
		t.Fatalf("unexpected plant: %+v", got)
	}

	freq := 10
	updated, err := repo.Update(ctx, created.ID, Patch{WateringFrequencyDays: &freq})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.WateringFrequencyDays != 10 {
		t.Fatalf("patch not applied: %+v", updated)
	}
	if updated.Name != "Monstera" {
		t.Fatalf("untouched field changed: %+v", updated)
	}

	if err := repo.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.Get(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestFileRepo_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	repo, err := NewFileRepo(dir)
	if err != nil {
		t.Fatalf("new repo: %v", err)
	}
	created, err := repo.Create(ctx, model.Plant{Name: "Fern", Species: "Nephrolepis"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	reopened, err := NewFileRepo(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got, err := reopened.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("get after reopen: %v", err)
	}
	if got.Name != "Fern" {
		t.Fatalf("unexpected plant after reopen: %+v", got)
	}
}

func TestFileRepo_UsersAreIsolated(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	repo, err := NewFileRepo(dir)
	if err != nil {
		t.Fatalf("new repo: %v", err)
	}
	alice := repo.ForUser("alice")
	bob := repo.ForUser("bob")

	created, err := alice.Create(ctx, model.Plant{Name: "Aloe", Species: "Aloe vera"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := bob.Get(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("bob should not see alice's plant, got %v", err)
	}
	bobPlants, err := bob.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(bobPlants) != 0 {
		t.Fatalf("bob's garden should be empty, got %d", len(bobPlants))
	}
	alicePlants, err := alice.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(alicePlants) != 1 || alicePlants[0].UserID != "alice" {
		t.Fatalf("unexpected alice plants: %+v", alicePlants)
	}
}

func TestFileRepo_TimestampsComeFromNowFunc(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	repo, err := NewFileRepo(dir)
	if err != nil {
		t.Fatalf("new repo: %v", err)
	}
	createdAt := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	current := createdAt
	repo.SetNowFunc(func() time.Time { return current })

	// The override follows the shared store into user-scoped views.
	created, err := repo.ForUser("alice").Create(ctx, model.Plant{Name: "Aloe", Species: "Aloe vera"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !created.CreatedAt.Equal(createdAt) || !created.UpdatedAt.Equal(createdAt) {
		t.Fatalf("timestamps not taken from now func: %+v", created)
	}

	current = createdAt.Add(time.Hour)
	freq := 5
	updated, err := repo.ForUser("alice").Update(ctx, created.ID, Patch{WateringFrequencyDays: &freq})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !updated.UpdatedAt.Equal(current) {
		t.Fatalf("updatedAt not advanced: %v, want %v", updated.UpdatedAt, current)
	}
	if !updated.CreatedAt.Equal(createdAt) {
		t.Fatalf("createdAt must not change on update: %v", updated.CreatedAt)
	}
}

func TestFileRepo_ListNewestFirst(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	repo, err := NewFileRepo(dir)
	if err != nil {
		t.Fatalf("new repo: %v", err)
	}
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	current := base
	repo.SetNowFunc(func() time.Time { return current })

	first, err := repo.Create(ctx, model.Plant{Name: "First", Species: "x"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	current = base.Add(time.Minute)
	second, err := repo.Create(ctx, model.Plant{Name: "Second", Species: "y"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	plants, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(plants) != 2 {
		t.Fatalf("expected 2 plants, got %d", len(plants))
	}
	if plants[0].ID != second.ID || plants[1].ID != first.ID {
		t.Fatalf("expected newest first, got %s then %s", plants[0].Name, plants[1].Name)
	}
}
