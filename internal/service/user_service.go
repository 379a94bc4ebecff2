package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"ticketdesk/internal/docstore"
	"ticketdesk/internal/models"
	"ticketdesk/internal/repository"
	"ticketdesk/internal/utils"
)

// UserService is the manager's view of the people directory.
type UserService struct {
	users repository.UserRepository
	db    docstore.Store
	board interface{ Invalidate() }
	log   zerolog.Logger
}

func NewUserService(users repository.UserRepository, db docstore.Store, board interface{ Invalidate() }, log zerolog.Logger) *UserService {
	return &UserService{users: users, db: db, board: board, log: log.With().Str("component", "users").Logger()}
}

// NewEmployee is a manager-entered employee record. Password is optional; an
// employee without one cannot sign in until a password is set.
type NewEmployee struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	IDNumber string `json:"idNumber"`
	Password string `json:"password"`
}

func (s *UserService) AddEmployee(ctx context.Context, a Actor, in NewEmployee) (*models.User, error) {
	if a.Role != models.RoleManager {
		return nil, ErrForbidden
	}
	u := models.User{
		Name:     strings.TrimSpace(in.Name),
		Email:    strings.ToLower(strings.TrimSpace(in.Email)),
		IDNumber: strings.TrimSpace(in.IDNumber),
		Role:     models.RoleEmployee,
	}
	if u.Name == "" || u.Email == "" || u.IDNumber == "" {
		return nil, fmt.Errorf("%w: name, email and idNumber are required", ErrInvalidInput)
	}
	if in.Password != "" {
		if err := utils.ValidatePassword(in.Password); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
	}
	existing, _, err := s.users.GetByEmail(ctx, u.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	var hash string
	if in.Password != "" {
		if hash, err = utils.HashPassword(in.Password); err != nil {
			return nil, err
		}
	}
	created, err := s.users.Create(ctx, u, hash)
	if err != nil {
		return nil, err
	}
	s.board.Invalidate()
	s.log.Info().Str("user_id", created.ID).Str("by", a.ID).Msg("employee added")
	return created, nil
}

// Rename changes the caller's display name. Tickets keep the userName cached
// when they were filed; resolved views show the new name.
func (s *UserService) Rename(ctx context.Context, a Actor, name string) (*models.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	u, err := s.users.UpdateBasic(ctx, a.ID, name)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, fmt.Errorf("user %s: %w", a.ID, docstore.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	s.board.Invalidate()
	s.log.Info().Str("user_id", a.ID).Msg("user renamed")
	return u, nil
}

func (s *UserService) Employees(ctx context.Context, a Actor) ([]models.User, error) {
	return s.list(ctx, a, models.RoleEmployee)
}

func (s *UserService) Clients(ctx context.Context, a Actor) ([]models.User, error) {
	return s.list(ctx, a, models.RoleClient)
}

func (s *UserService) list(ctx context.Context, a Actor, role models.Role) ([]models.User, error) {
	if a.Role != models.RoleManager {
		return nil, ErrForbidden
	}
	return s.users.ListByRole(ctx, role)
}

// WatchEmployees pushes the employee roster to fn on every change until stop
// is called or ctx ends. Records missing any of name, email or idNumber are
// left out.
func (s *UserService) WatchEmployees(ctx context.Context, a Actor, fn func([]models.User, error)) (stop func(), err error) {
	if a.Role != models.RoleManager {
		return nil, ErrForbidden
	}
	return s.db.Subscribe(ctx, models.CollectionUsers, models.FieldRole, models.RoleEmployee.String(),
		func(docs []docstore.Document, err error) {
			if err != nil {
				fn(nil, err)
				return
			}
			roster := make([]models.User, 0, len(docs))
			for _, d := range docs {
				u := models.UserFromFields(d.ID, d.Fields)
				if u.Name == "" || u.Email == "" || u.IDNumber == "" {
					continue
				}
				roster = append(roster, u)
			}
			fn(roster, nil)
		})
}
