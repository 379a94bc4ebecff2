package store

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"ticketdesk/internal/docstore"
	"ticketdesk/internal/models"
	"ticketdesk/internal/repository"
)

type UserRepo struct{ db docstore.Store }

func NewUserRepo(db docstore.Store) repository.UserRepository { return &UserRepo{db: db} }

// Create writes the credentials (when a hash is given) and then the user
// document, so a failed write never leaves a registered email that cannot
// sign in. When u.ID is set (identity provider assigned) it is used, otherwise
// a new id is generated. Credentials orphaned by a failed user write are
// unreachable: sign-in finds users by email first.
func (r *UserRepo) Create(ctx context.Context, u models.User, passwordHash string) (*models.User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if passwordHash != "" {
		err := r.db.Set(ctx, models.CollectionCredentials, u.ID, map[string]any{
			models.FieldPasswordHash: passwordHash,
		})
		if err != nil {
			return nil, err
		}
	}
	if err := r.db.Set(ctx, models.CollectionUsers, u.ID, u.Fields()); err != nil {
		return nil, err
	}
	u.RawRole = u.Role.String()
	return &u, nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*models.User, string, error) {
	docs, err := r.db.Query(ctx, models.CollectionUsers, models.FieldEmail, strings.TrimSpace(email))
	if err != nil {
		return nil, "", err
	}
	if len(docs) == 0 {
		return nil, "", nil
	}
	u := models.UserFromFields(docs[0].ID, docs[0].Fields)

	cred, err := r.db.Get(ctx, models.CollectionCredentials, u.ID)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return &u, "", nil
		}
		return nil, "", err
	}
	ph, _ := cred.String(models.FieldPasswordHash)
	return &u, ph, nil
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	doc, err := r.db.Get(ctx, models.CollectionUsers, id)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	u := models.UserFromFields(doc.ID, doc.Fields)
	return &u, nil
}

// ListByRole also picks up clients stored with the legacy "user" role value.
func (r *UserRepo) ListByRole(ctx context.Context, role models.Role) ([]models.User, error) {
	values := []string{role.String()}
	if role == models.RoleClient {
		values = append(values, "user")
	}

	out := []models.User{}
	for _, v := range values {
		docs, err := r.db.Query(ctx, models.CollectionUsers, models.FieldRole, v)
		if err != nil {
			return nil, err
		}
		for _, d := range docs {
			out = append(out, models.UserFromFields(d.ID, d.Fields))
		}
	}
	return out, nil
}

// UpdateBasic changes the display name. A missing user is docstore.ErrNotFound.
func (r *UserRepo) UpdateBasic(ctx context.Context, id, name string) (*models.User, error) {
	if err := r.db.Update(ctx, models.CollectionUsers, id, map[string]any{models.FieldName: name}); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}
