package repository

import (
	"context"

	"ticketdesk/internal/models"
)

// Lookups return (nil, nil) when the document does not exist.

type TicketRepository interface {
	Get(ctx context.Context, id string) (*models.Ticket, error)
	List(ctx context.Context) ([]models.Ticket, error)
	ListByCreator(ctx context.Context, userID string) ([]models.Ticket, error)
	ListByAssignee(ctx context.Context, userID string) ([]models.Ticket, error)
	Create(ctx context.Context, t *models.Ticket) error
	UpdateStatus(ctx context.Context, id, status string) error
	UpdateAssignee(ctx context.Context, id, userID string) error
	AddComment(ctx context.Context, c models.Comment) (*models.Comment, error)
	Comments(ctx context.Context, ticketID string) ([]models.Comment, error)
}

type UserRepository interface {
	Create(ctx context.Context, u models.User, passwordHash string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, string /*passwordHash*/, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	ListByRole(ctx context.Context, role models.Role) ([]models.User, error)
	UpdateBasic(ctx context.Context, id, name string) (*models.User, error)
}
