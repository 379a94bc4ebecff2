package models

import (
	"errors"
	"strings"
)

// ErrInvalidRole is returned when a stored or requested role is not one of the known roles.
var ErrInvalidRole = errors.New("invalid role")

// Role is the closed set of user roles. The zero value is RoleUnknown.
type Role int

const (
	RoleUnknown Role = iota
	RoleClient
	RoleEmployee
	RoleManager
)

// ParseRole maps a stored role string onto a Role. "user" is the value older
// client registrations were written with.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "client", "user":
		return RoleClient, nil
	case "employee":
		return RoleEmployee, nil
	case "manager":
		return RoleManager, nil
	default:
		return RoleUnknown, ErrInvalidRole
	}
}

func (r Role) String() string {
	switch r {
	case RoleClient:
		return "client"
	case RoleEmployee:
		return "employee"
	case RoleManager:
		return "manager"
	default:
		return "unknown"
	}
}

func (r Role) Valid() bool { return r == RoleClient || r == RoleEmployee || r == RoleManager }

// User mirrors a document of the users collection.
type User struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	IDNumber string `json:"idNumber"`
	Role     Role   `json:"-"`
	RawRole  string `json:"role"` // as stored; may be unrecognised
}

func (u User) Fields() map[string]any {
	return map[string]any{
		FieldName:     u.Name,
		FieldEmail:    u.Email,
		FieldIDNumber: u.IDNumber,
		FieldRole:     u.Role.String(),
	}
}
