package tickets

import (
	"fmt"
	"strings"

	"ticketdesk/internal/models"
)

// Criteria selects views on the manager board. An empty field or Wildcard
// matches everything.
type Criteria struct {
	Status   string
	Client   string
	Employee string
}

func isWildcard(v string) bool {
	v = strings.TrimSpace(v)
	return v == "" || strings.EqualFold(v, Wildcard)
}

// matchField compares a criterion with a view field, case-insensitively. An
// empty view field never satisfies a concrete criterion.
func matchField(criterion, value string) bool {
	if isWildcard(criterion) {
		return true
	}
	return value != "" && strings.EqualFold(strings.TrimSpace(criterion), value)
}

// Match reports whether v satisfies every criterion. Client compares against
// the displayed name, placeholder included. A ticket with no assignee never
// matches a concrete employee, whatever placeholder it shows.
func (c Criteria) Match(v models.TicketView) bool {
	return matchField(c.Status, v.Status) &&
		matchField(c.Client, v.ClientName) &&
		matchField(c.Employee, referenced(v.AssignedTo, v.EmployeeName))
}

func referenced(ref, name string) string {
	if ref == "" {
		return ""
	}
	return name
}

// Filter returns the views matching c, in input order. views is not modified.
func Filter(views []models.TicketView, c Criteria) []models.TicketView {
	out := make([]models.TicketView, 0, len(views))
	for _, v := range views {
		if c.Match(v) {
			out = append(out, v)
		}
	}
	return out
}

// Validate returns one ErrInvalidSelection per concrete criterion that is not
// among the current facet values. Such a criterion still filters, it just
// matches nothing the facets know about.
func (c Criteria) Validate(opts FilterOptions) []error {
	var errs []error
	check := func(name, v string, values []string) {
		if isWildcard(v) || contains(values, strings.TrimSpace(v)) {
			return
		}
		errs = append(errs, fmt.Errorf("%w: %s %q is not a current choice", models.ErrInvalidSelection, name, v))
	}
	check("status", c.Status, opts.Statuses)
	check("client", c.Client, opts.Clients)
	check("employee", c.Employee, opts.Employees)
	return errs
}
