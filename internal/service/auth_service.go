package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"ticketdesk/internal/models"
	"ticketdesk/internal/repository"
	"ticketdesk/internal/routing"
	"ticketdesk/internal/utils"
)

const sessionTTL = 24 * time.Hour

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
)

type AuthService struct {
	users         repository.UserRepository
	sessionSecret string
	log           zerolog.Logger
}

func NewAuthService(users repository.UserRepository, sessionSecret string, log zerolog.Logger) *AuthService {
	return &AuthService{users: users, sessionSecret: sessionSecret, log: log.With().Str("component", "auth").Logger()}
}

// Session is a signed-in user and where they land.
type Session struct {
	Token       string
	User        *models.User
	Destination routing.Destination
}

// Register creates a client or employee account. Managers cannot register
// themselves; an empty role registers a client.
func (a *AuthService) Register(ctx context.Context, email, name, idNumber, password, role string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)
	if email == "" || name == "" {
		return nil, fmt.Errorf("%w: email and name are required", ErrInvalidInput)
	}
	if err := utils.ValidatePassword(password); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	r := models.RoleClient
	if strings.TrimSpace(role) != "" {
		var err error
		if r, err = models.ParseRole(role); err != nil {
			return nil, fmt.Errorf("%w: %q", err, role)
		}
	}
	if r == models.RoleManager {
		return nil, fmt.Errorf("%w: managers cannot self-register", ErrForbidden)
	}
	return a.create(ctx, models.User{Email: email, Name: name, IDNumber: strings.TrimSpace(idNumber), Role: r}, password)
}

// EnsureManager creates the manager account if the email is not registered
// yet. It is how the first manager comes into existence.
func (a *AuthService) EnsureManager(ctx context.Context, email, name, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	existing, _, err := a.users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}
	if err := utils.ValidatePassword(password); err != nil {
		return fmt.Errorf("%w: manager %v", ErrInvalidInput, err)
	}
	if name == "" {
		name = "Manager"
	}
	u, err := a.create(ctx, models.User{Email: email, Name: name, Role: models.RoleManager}, password)
	if err != nil {
		return err
	}
	a.log.Info().Str("user_id", u.ID).Msg("bootstrap manager created")
	return nil
}

func (a *AuthService) create(ctx context.Context, u models.User, password string) (*models.User, error) {
	existing, _, err := a.users.GetByEmail(ctx, u.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}
	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, err
	}
	return a.users.Create(ctx, u, hash)
}

// Login checks the password and routes the user by role. A stored role
// outside the known set yields ErrInvalidSelection and no session.
func (a *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	u, hash, err := a.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, err
	}
	if u == nil || !utils.CheckPassword(hash, password) {
		return nil, ErrInvalidCredentials
	}
	dest, err := routing.RouteRaw(u.RawRole)
	if err != nil {
		a.log.Warn().Str("user_id", u.ID).Str("role", u.RawRole).Msg("login with unroutable role")
		return nil, err
	}
	tok, err := utils.SignJWT(a.sessionSecret, u.ID, u.Role.String(), sessionTTL)
	if err != nil {
		return nil, err
	}
	return &Session{Token: tok, User: u, Destination: dest}, nil
}
