package store

import (
	"context"
	"errors"
	"testing"

	"ticketdesk/internal/docstore"
	"ticketdesk/internal/models"
)

// failingCollection rejects writes to one collection.
type failingCollection struct {
	docstore.Store
	collection string
}

var errWrite = errors.New("write failed")

func (f failingCollection) Set(ctx context.Context, collection, id string, fields map[string]any) error {
	if collection == f.collection {
		return errWrite
	}
	return f.Store.Set(ctx, collection, id, fields)
}

func TestUserRepo_CreateFailedCredentialsLeavesNoUser(t *testing.T) {
	ctx := context.Background()
	mem := docstore.NewMemory()
	repo := NewUserRepo(failingCollection{Store: mem, collection: models.CollectionCredentials})

	_, err := repo.Create(ctx, models.User{Name: "Carol", Email: "carol@example.com", Role: models.RoleClient}, "hash")
	if !errors.Is(err, errWrite) {
		t.Fatalf("expected write error, got %v", err)
	}
	u, _, err := NewUserRepo(mem).GetByEmail(ctx, "carol@example.com")
	if err != nil || u != nil {
		t.Fatalf("email should still be free, got %+v %v", u, err)
	}
}

func TestUserRepo_CreateAndRename(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepo(docstore.NewMemory())

	u, err := repo.Create(ctx, models.User{Name: "Carol", Email: "carol@example.com", Role: models.RoleClient}, "hash")
	if err != nil || u.ID == "" || u.RawRole != "client" {
		t.Fatalf("Create = %+v %v", u, err)
	}
	got, hash, err := repo.GetByEmail(ctx, "carol@example.com")
	if err != nil || got == nil || got.ID != u.ID || hash != "hash" {
		t.Fatalf("GetByEmail = %+v %q %v", got, hash, err)
	}

	renamed, err := repo.UpdateBasic(ctx, u.ID, "Caroline")
	if err != nil || renamed.Name != "Caroline" || renamed.Email != "carol@example.com" {
		t.Fatalf("UpdateBasic = %+v %v", renamed, err)
	}
	if _, err := repo.UpdateBasic(ctx, "missing", "x"); !errors.Is(err, docstore.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
