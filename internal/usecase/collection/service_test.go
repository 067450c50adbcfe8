package collection

import (
	"context"
	"errors"
	"testing"

	"github.com/pagesight/pagesight/internal/domain"
)

// --- Mocks ---

type mockRepo struct {
	created    *domain.Collection
	updated    *domain.Collection
	getResult  domain.Collection
	listResult []domain.Collection
	createErr  error
	getErr     error
	listErr    error
	updateErr  error
	deleteErr  error
}

func (m *mockRepo) Create(_ context.Context, c *domain.Collection) error {
	m.created = c
	c.ID = 7
	return m.createErr
}

func (m *mockRepo) GetByName(_ context.Context, _, _ string) (domain.Collection, error) {
	return m.getResult, m.getErr
}

func (m *mockRepo) List(_ context.Context, _ string) ([]domain.Collection, error) {
	return m.listResult, m.listErr
}

func (m *mockRepo) Update(_ context.Context, c *domain.Collection) error {
	m.updated = c
	return m.updateErr
}

func (m *mockRepo) Delete(_ context.Context, _, _ string) error {
	return m.deleteErr
}

// --- Tests ---

func TestCreate_Success(t *testing.T) {
	repo := &mockRepo{}
	svc := New(repo)

	col, err := svc.Create(context.Background(), "u1", "papers", map[string]any{"lang": "en"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if col.ID != 7 {
		t.Errorf("expected ID filled by repo, got %d", col.ID)
	}
	if col.OwnerID != "u1" || col.Name != "papers" {
		t.Errorf("unexpected collection: %+v", col)
	}
}

func TestCreate_DefaultsMetadata(t *testing.T) {
	repo := &mockRepo{}
	svc := New(repo)

	col, err := svc.Create(context.Background(), "u1", "papers", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if col.Metadata == nil {
		t.Error("expected empty metadata map, got nil")
	}
}

func TestCreate_ReservedName(t *testing.T) {
	svc := New(&mockRepo{})

	for _, name := range []string{"", "all", "ALL"} {
		if _, err := svc.Create(context.Background(), "u1", name, nil); !errors.Is(err, domain.ErrValidation) {
			t.Errorf("name %q: err = %v, want validation error", name, err)
		}
	}
}

func TestCreate_Conflict(t *testing.T) {
	repo := &mockRepo{createErr: domain.ErrConflict}
	svc := New(repo)

	if _, err := svc.Create(context.Background(), "u1", "papers", nil); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("err = %v, want conflict", err)
	}
}

func TestGet_NotFound(t *testing.T) {
	repo := &mockRepo{getErr: domain.ErrNotFound}
	svc := New(repo)

	if _, err := svc.Get(context.Background(), "u1", "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestList_Success(t *testing.T) {
	repo := &mockRepo{listResult: []domain.Collection{{Name: "a"}, {Name: "b"}}}
	svc := New(repo)

	cols, err := svc.List(context.Background(), "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cols) != 2 {
		t.Fatalf("expected 2 collections, got %d", len(cols))
	}
}

func TestUpdate_RenameAndMetadata(t *testing.T) {
	repo := &mockRepo{getResult: domain.Collection{ID: 3, OwnerID: "u1", Name: "old", Metadata: map[string]any{"a": 1}}}
	svc := New(repo)

	newName := "new"
	col, err := svc.Update(context.Background(), "u1", "old", &newName, map[string]any{"b": 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if col.Name != "new" {
		t.Errorf("name = %q, want new", col.Name)
	}
	if _, ok := col.Metadata["b"]; !ok {
		t.Errorf("metadata not replaced: %v", col.Metadata)
	}
	if repo.updated == nil || repo.updated.ID != 3 {
		t.Errorf("update not forwarded with original ID: %+v", repo.updated)
	}
}

func TestUpdate_KeepsFieldsWhenNil(t *testing.T) {
	repo := &mockRepo{getResult: domain.Collection{ID: 3, Name: "old", Metadata: map[string]any{"a": 1}}}
	svc := New(repo)

	col, err := svc.Update(context.Background(), "u1", "old", nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if col.Name != "old" {
		t.Errorf("name changed unexpectedly to %q", col.Name)
	}
	if _, ok := col.Metadata["a"]; !ok {
		t.Errorf("metadata changed unexpectedly: %v", col.Metadata)
	}
}

func TestUpdate_RenameToReservedName(t *testing.T) {
	repo := &mockRepo{getResult: domain.Collection{ID: 3, Name: "old"}}
	svc := New(repo)

	reserved := "all"
	if _, err := svc.Update(context.Background(), "u1", "old", &reserved, nil); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("err = %v, want validation error", err)
	}
}

func TestDelete_NotFound(t *testing.T) {
	repo := &mockRepo{deleteErr: domain.ErrNotFound}
	svc := New(repo)

	if err := svc.Delete(context.Background(), "u1", "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
}
