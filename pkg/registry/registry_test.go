package registry

import (
	"context"
	"sort"
	"testing"

	"tvfleet/pkg/database"
	"tvfleet/pkg/models"
)

type memoryKeyRepo struct {
	keys   []*models.CommandKey
	nextID int64
}

func (r *memoryKeyRepo) List(ctx context.Context) ([]*models.CommandKey, error) {
	return r.keys, nil
}

func (r *memoryKeyRepo) Get(ctx context.Context, id int64) (*models.CommandKey, error) {
	for _, key := range r.keys {
		if key.ID == id {
			return key, nil
		}
	}
	return nil, database.ErrNotFound
}

func (r *memoryKeyRepo) GetByField(ctx context.Context, field string, value any) (*models.CommandKey, error) {
	for _, key := range r.keys {
		if field == "name" && key.Name == value {
			return key, nil
		}
	}
	return nil, database.ErrNotFound
}

func (r *memoryKeyRepo) Create(ctx context.Context, entity *models.CommandKey) (*models.CommandKey, error) {
	r.nextID++
	entity.ID = r.nextID
	r.keys = append(r.keys, entity)
	return entity, nil
}

func (r *memoryKeyRepo) Update(ctx context.Context, id int64, entity *models.CommandKey) (*models.CommandKey, error) {
	return entity, nil
}

func (r *memoryKeyRepo) Delete(ctx context.Context, id int64) error {
	return nil
}

func TestSeedPopulatesEmptyTable(t *testing.T) {
	repo := &memoryKeyRepo{}
	service := NewService(repo)

	if err := service.Seed(context.Background()); err != nil {
		t.Fatalf("Seed failed: %v", err)
	}
	if len(repo.keys) != len(defaultKeys) {
		t.Errorf("Expected %d seeded keys, got %d", len(defaultKeys), len(repo.keys))
	}
}

func TestSeedSkipsPopulatedTable(t *testing.T) {
	repo := &memoryKeyRepo{}
	repo.Create(context.Background(), &models.CommandKey{Name: "custom", KeyCode: "KEY_CUSTOM"})
	service := NewService(repo)

	if err := service.Seed(context.Background()); err != nil {
		t.Fatalf("Seed failed: %v", err)
	}
	if len(repo.keys) != 1 {
		t.Errorf("Expected existing keys to be left alone, got %d entries", len(repo.keys))
	}
}

func TestResolveKnownName(t *testing.T) {
	repo := &memoryKeyRepo{}
	service := NewService(repo)
	if err := service.Seed(context.Background()); err != nil {
		t.Fatalf("Seed failed: %v", err)
	}

	if got := service.Resolve(context.Background(), "volup"); got != "KEY_VOLUP" {
		t.Errorf("Expected KEY_VOLUP, got %q", got)
	}
	if got := service.Resolve(context.Background(), "power-off"); got != "KEY_POWER" {
		t.Errorf("Expected KEY_POWER, got %q", got)
	}
}

func TestResolveUnknownNamePassesThrough(t *testing.T) {
	service := NewService(&memoryKeyRepo{})

	if got := service.Resolve(context.Background(), "KEY_16_9"); got != "KEY_16_9" {
		t.Errorf("Expected raw key code to pass through, got %q", got)
	}
}

func TestNamesSorted(t *testing.T) {
	repo := &memoryKeyRepo{}
	service := NewService(repo)
	if err := service.Seed(context.Background()); err != nil {
		t.Fatalf("Seed failed: %v", err)
	}

	names, err := service.Names(context.Background())
	if err != nil {
		t.Fatalf("Names failed: %v", err)
	}
	if len(names) != len(defaultKeys) {
		t.Fatalf("Expected %d names, got %d", len(defaultKeys), len(names))
	}
	if !sort.StringsAreSorted(names) {
		t.Errorf("Expected sorted names, got %v", names)
	}
}
