package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"ticketdesk/internal/docstore"
	"ticketdesk/internal/models"
	"ticketdesk/internal/repository"
	"ticketdesk/internal/tickets"
)

var (
	ErrInvalidSelection = models.ErrInvalidSelection
	ErrForbidden        = errors.New("forbidden")
	ErrInvalidInput     = errors.New("invalid input")
)

// Actor is the authenticated caller of a lifecycle operation.
type Actor struct {
	ID   string
	Role models.Role
}

// BrowseResult is one page of the manager board. Warnings lists criteria that
// name no current facet value; they still filter.
type BrowseResult struct {
	Tickets  []models.TicketView   `json:"tickets"`
	Options  tickets.FilterOptions `json:"options"`
	Warnings []string              `json:"warnings,omitempty"`
}

type TicketService struct {
	tickets  repository.TicketRepository
	users    repository.UserRepository
	docs     tickets.DocumentReader
	resolver *tickets.Resolver
	board    *tickets.Board
	statuses *StatusVocabulary
	log      zerolog.Logger
	now      func() time.Time
}

func NewTicketService(
	tr repository.TicketRepository,
	ur repository.UserRepository,
	docs tickets.DocumentReader,
	resolver *tickets.Resolver,
	board *tickets.Board,
	statuses *StatusVocabulary,
	log zerolog.Logger,
) *TicketService {
	return &TicketService{
		tickets:  tr,
		users:    ur,
		docs:     docs,
		resolver: resolver,
		board:    board,
		statuses: statuses,
		log:      log.With().Str("component", "tickets").Logger(),
		now:      time.Now,
	}
}

func (s *TicketService) Statuses() []string { return s.statuses.Values() }

// CreateTicket files a new ticket on behalf of a client.
func (s *TicketService) CreateTicket(ctx context.Context, a Actor, title, description string) (*models.Ticket, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if a.Role != models.RoleClient {
		return nil, fmt.Errorf("%w: only clients file tickets", ErrForbidden)
	}
	creator, err := s.users.GetByID(ctx, a.ID)
	if err != nil {
		return nil, err
	}
	if creator == nil || creator.Role != models.RoleClient {
		return nil, fmt.Errorf("%w: %s is not a client", ErrForbidden, a.ID)
	}

	t := &models.Ticket{
		ID:          uuid.NewString(),
		Title:       title,
		Description: strings.TrimSpace(description),
		Status:      models.StatusOpen,
		CreatedBy:   creator.ID,
		UserName:    creator.Name,
	}
	if err := s.tickets.Create(ctx, t); err != nil {
		return nil, err
	}
	s.board.Invalidate()
	s.log.Info().Str("ticket_id", t.ID).Str("user_id", a.ID).Msg("ticket created")
	return t, nil
}

// Ticket returns one resolved ticket the actor may see.
func (s *TicketService) Ticket(ctx context.Context, a Actor, id string) (*models.TicketView, error) {
	t, err := s.visible(ctx, a, id)
	if err != nil {
		return nil, err
	}
	views, err := s.resolver.Resolve(ctx, []models.Ticket{*t})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// ClientTickets lists the tickets the client filed.
func (s *TicketService) ClientTickets(ctx context.Context, a Actor) ([]models.TicketView, error) {
	if a.Role != models.RoleClient {
		return nil, ErrForbidden
	}
	list, err := s.tickets.ListByCreator(ctx, a.ID)
	if err != nil {
		return nil, err
	}
	return s.resolver.Resolve(ctx, list)
}

// AssignedTickets lists the tickets assigned to the employee.
func (s *TicketService) AssignedTickets(ctx context.Context, a Actor) ([]models.TicketView, error) {
	if a.Role != models.RoleEmployee {
		return nil, ErrForbidden
	}
	list, err := s.tickets.ListByAssignee(ctx, a.ID)
	if err != nil {
		return nil, err
	}
	return s.resolver.Resolve(ctx, list)
}

// Browse filters the manager board.
func (s *TicketService) Browse(ctx context.Context, a Actor, c tickets.Criteria) (*BrowseResult, error) {
	if a.Role != models.RoleManager {
		return nil, ErrForbidden
	}
	snap, err := s.board.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	res := &BrowseResult{
		Tickets: tickets.Filter(snap.Views, c),
		Options: snap.Options,
	}
	for _, err := range c.Validate(snap.Options) {
		res.Warnings = append(res.Warnings, err.Error())
	}
	return res, nil
}

// Summary counts the board's tickets per status.
type Summary struct {
	Total      int            `json:"total"`
	Unassigned int            `json:"unassigned"`
	ByStatus   map[string]int `json:"byStatus"`
}

func (s *TicketService) Summary(ctx context.Context, a Actor) (*Summary, error) {
	if a.Role != models.RoleManager {
		return nil, ErrForbidden
	}
	snap, err := s.board.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	sum := &Summary{Total: len(snap.Views), ByStatus: map[string]int{}}
	for _, v := range snap.Views {
		status := v.Status
		if c, ok := s.statuses.Canonical(status); ok {
			status = c
		}
		sum.ByStatus[status]++
		if v.AssignedTo == "" {
			sum.Unassigned++
		}
	}
	return sum, nil
}

// FilterOptions collects the current facet values straight from the store.
func (s *TicketService) FilterOptions(ctx context.Context, a Actor) (tickets.FilterOptions, error) {
	if a.Role != models.RoleManager {
		return tickets.FilterOptions{}, ErrForbidden
	}
	return tickets.CollectFilterOptions(ctx, s.docs)
}

// UpdateStatus moves a ticket to any status in the vocabulary. Only the
// assigned employee or a manager may do so.
func (s *TicketService) UpdateStatus(ctx context.Context, a Actor, id, status string) (*models.Ticket, error) {
	canonical, ok := s.statuses.Canonical(status)
	if !ok {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
	}
	t, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	switch {
	case a.Role == models.RoleManager:
	case a.Role == models.RoleEmployee && t.AssignedTo == a.ID:
	default:
		return nil, fmt.Errorf("%w: ticket %s is not assigned to you", ErrForbidden, id)
	}

	if err := s.tickets.UpdateStatus(ctx, id, canonical); err != nil {
		return nil, err
	}
	s.board.Invalidate()
	s.log.Info().Str("ticket_id", id).Str("from", t.Status).Str("to", canonical).Str("user_id", a.ID).Msg("status changed")
	t.Status = canonical
	return t, nil
}

// Assign assigns a ticket to the employee with the given display name. The name
// must identify exactly one employee.
func (s *TicketService) Assign(ctx context.Context, a Actor, id, employeeName string) (*models.Ticket, error) {
	if a.Role != models.RoleManager {
		return nil, ErrForbidden
	}
	name := strings.TrimSpace(employeeName)
	if name == "" {
		return nil, fmt.Errorf("%w: employee name is required", ErrInvalidInput)
	}
	employees, err := s.users.ListByRole(ctx, models.RoleEmployee)
	if err != nil {
		return nil, err
	}
	var match []models.User
	for _, e := range employees {
		if strings.EqualFold(strings.TrimSpace(e.Name), name) {
			match = append(match, e)
		}
	}
	switch len(match) {
	case 0:
		return nil, fmt.Errorf("%w: no employee named %q", ErrInvalidSelection, name)
	case 1:
		return s.assign(ctx, a, id, match[0].ID)
	default:
		return nil, fmt.Errorf("%w: %d employees are named %q", ErrInvalidSelection, len(match), name)
	}
}

// AssignByID assigns a ticket to the employee with the given user id.
func (s *TicketService) AssignByID(ctx context.Context, a Actor, id, employeeID string) (*models.Ticket, error) {
	if a.Role != models.RoleManager {
		return nil, ErrForbidden
	}
	u, err := s.users.GetByID(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	if u == nil || u.Role != models.RoleEmployee {
		return nil, fmt.Errorf("%w: %q is not an employee", ErrInvalidSelection, employeeID)
	}
	return s.assign(ctx, a, id, u.ID)
}

// Unassign clears the ticket's assignee.
func (s *TicketService) Unassign(ctx context.Context, a Actor, id string) (*models.Ticket, error) {
	if a.Role != models.RoleManager {
		return nil, ErrForbidden
	}
	return s.assign(ctx, a, id, "")
}

func (s *TicketService) assign(ctx context.Context, a Actor, id, employeeID string) (*models.Ticket, error) {
	t, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.tickets.UpdateAssignee(ctx, id, employeeID); err != nil {
		return nil, err
	}
	s.board.Invalidate()
	s.log.Info().Str("ticket_id", id).Str("assignee", employeeID).Str("user_id", a.ID).Msg("assignee changed")
	t.AssignedTo = employeeID
	return t, nil
}

// AddComment appends a comment to a ticket the actor may see.
func (s *TicketService) AddComment(ctx context.Context, a Actor, id, text string) (*models.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: comment is required", ErrInvalidInput)
	}
	if _, err := s.visible(ctx, a, id); err != nil {
		return nil, err
	}
	return s.tickets.AddComment(ctx, models.Comment{
		TicketID:  id,
		UserID:    a.ID,
		Text:      text,
		CreatedAt: s.now().UTC(),
	})
}

// ListComments returns the ticket's comments, oldest first, with author names
// where the author is known.
func (s *TicketService) ListComments(ctx context.Context, a Actor, id string) ([]models.CommentView, error) {
	if _, err := s.visible(ctx, a, id); err != nil {
		return nil, err
	}
	comments, err := s.tickets.Comments(ctx, id)
	if err != nil {
		return nil, err
	}
	authors := make([]string, 0, len(comments))
	for _, c := range comments {
		authors = append(authors, c.UserID)
	}
	names, err := s.resolver.Names(ctx, authors)
	if err != nil {
		return nil, err
	}
	out := make([]models.CommentView, 0, len(comments))
	for _, c := range comments {
		out = append(out, models.CommentView{Comment: c, AuthorName: names[c.UserID]})
	}
	return out, nil
}

func (s *TicketService) get(ctx context.Context, id string) (*models.Ticket, error) {
	t, err := s.tickets.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, fmt.Errorf("ticket %s: %w", id, docstore.ErrNotFound)
	}
	return t, nil
}

// visible loads a ticket and checks the actor may see it: clients their own,
// employees those assigned to them, managers all.
func (s *TicketService) visible(ctx context.Context, a Actor, id string) (*models.Ticket, error) {
	t, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	switch {
	case a.Role == models.RoleManager:
	case a.Role == models.RoleClient && t.CreatedBy == a.ID:
	case a.Role == models.RoleEmployee && t.AssignedTo == a.ID:
	default:
		return nil, fmt.Errorf("%w: ticket %s", ErrForbidden, id)
	}
	return t, nil
}
