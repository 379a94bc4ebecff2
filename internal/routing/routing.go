// Package routing maps an authenticated user's role onto the part of the
// application they work in.
package routing

import (
	"fmt"

	"ticketdesk/internal/models"
)

// Destination is the role-specific area a session lands in.
type Destination int

const (
	None Destination = iota
	Client
	Employee
	Manager
)

func (d Destination) String() string {
	switch d {
	case Client:
		return "client"
	case Employee:
		return "employee"
	case Manager:
		return "manager"
	default:
		return "none"
	}
}

// Path is the API prefix serving the destination, "" for None.
func (d Destination) Path() string {
	if d == None {
		return ""
	}
	return "/api/" + d.String()
}

// Route returns the destination for role. A role outside the known set maps to
// None with an ErrInvalidSelection error the caller should report.
func Route(role models.Role) (Destination, error) {
	switch role {
	case models.RoleClient:
		return Client, nil
	case models.RoleEmployee:
		return Employee, nil
	case models.RoleManager:
		return Manager, nil
	default:
		return None, fmt.Errorf("%w: no destination for role %q", models.ErrInvalidSelection, role)
	}
}

// RouteRaw parses a stored role value and routes it.
func RouteRaw(raw string) (Destination, error) {
	role, err := models.ParseRole(raw)
	if err != nil {
		return None, fmt.Errorf("%w: no destination for role %q", models.ErrInvalidSelection, raw)
	}
	return Route(role)
}
