package store

import (
	"context"
	"errors"
	"sort"

	"github.com/google/uuid"

	"ticketdesk/internal/docstore"
	"ticketdesk/internal/models"
	"ticketdesk/internal/repository"
)

type TicketRepo struct{ db docstore.Store }

func NewTicketRepo(db docstore.Store) repository.TicketRepository { return &TicketRepo{db: db} }

func (r *TicketRepo) Get(ctx context.Context, id string) (*models.Ticket, error) {
	doc, err := r.db.Get(ctx, models.CollectionTickets, id)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	t := models.TicketFromFields(doc.ID, doc.Fields)
	return &t, nil
}

func (r *TicketRepo) List(ctx context.Context) ([]models.Ticket, error) {
	docs, err := r.db.All(ctx, models.CollectionTickets)
	if err != nil {
		return nil, err
	}
	return tickets(docs), nil
}

func (r *TicketRepo) ListByCreator(ctx context.Context, userID string) ([]models.Ticket, error) {
	docs, err := r.db.Query(ctx, models.CollectionTickets, models.FieldCreatedBy, userID)
	if err != nil {
		return nil, err
	}
	return tickets(docs), nil
}

func (r *TicketRepo) ListByAssignee(ctx context.Context, userID string) ([]models.Ticket, error) {
	docs, err := r.db.Query(ctx, models.CollectionTickets, models.FieldAssignedTo, userID)
	if err != nil {
		return nil, err
	}
	return tickets(docs), nil
}

// Create writes the ticket under t.ID, generating a UUID when it is empty.
func (r *TicketRepo) Create(ctx context.Context, t *models.Ticket) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return r.db.Set(ctx, models.CollectionTickets, t.ID, t.Fields())
}

func (r *TicketRepo) UpdateStatus(ctx context.Context, id, status string) error {
	return r.db.Update(ctx, models.CollectionTickets, id, map[string]any{models.FieldStatus: status})
}

func (r *TicketRepo) UpdateAssignee(ctx context.Context, id, userID string) error {
	return r.db.Update(ctx, models.CollectionTickets, id, map[string]any{models.FieldAssignedTo: userID})
}

func (r *TicketRepo) AddComment(ctx context.Context, c models.Comment) (*models.Comment, error) {
	id, err := r.db.Add(ctx, models.CollectionComments, c.Fields())
	if err != nil {
		return nil, err
	}
	c.ID = id
	return &c, nil
}

func (r *TicketRepo) Comments(ctx context.Context, ticketID string) ([]models.Comment, error) {
	docs, err := r.db.Query(ctx, models.CollectionComments, models.FieldTicketID, ticketID)
	if err != nil {
		return nil, err
	}
	out := make([]models.Comment, 0, len(docs))
	for _, d := range docs {
		out = append(out, models.CommentFromFields(d.ID, d.Fields))
	}
	// comments without a timestamp sort first, in id order
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func tickets(docs []docstore.Document) []models.Ticket {
	out := make([]models.Ticket, 0, len(docs))
	for _, d := range docs {
		out = append(out, models.TicketFromFields(d.ID, d.Fields))
	}
	return out
}
