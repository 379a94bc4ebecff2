package models

import "time"

// Collection names shared with every client of the document store.
const (
	CollectionUsers       = "users"
	CollectionTickets     = "Tickets"
	CollectionComments    = "Comments"
	CollectionCredentials = "credentials"
)

// Document field names.
const (
	FieldName     = "name"
	FieldEmail    = "email"
	FieldIDNumber = "idNumber"
	FieldRole     = "role"

	FieldTitle       = "title"
	FieldDescription = "description"
	FieldStatus      = "status"
	FieldCreatedBy   = "createdBy"
	FieldAssignedTo  = "assignedTo"
	FieldUserName    = "userName"

	FieldComment  = "comment"
	FieldTicketID = "ticketId"
	FieldUserID   = "userId"
	FieldCreated  = "createdAt"

	FieldPasswordHash = "passwordHash"
)

const StatusOpen = "open"

type Ticket struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
	CreatedBy   string `json:"createdBy"`
	AssignedTo  string `json:"assignedTo"` // "" = unassigned
	UserName    string `json:"userName"`   // creator name at creation time
}

func (t Ticket) Fields() map[string]any {
	return map[string]any{
		FieldTitle:       t.Title,
		FieldDescription: t.Description,
		FieldStatus:      t.Status,
		FieldCreatedBy:   t.CreatedBy,
		FieldAssignedTo:  t.AssignedTo,
		FieldUserName:    t.UserName,
	}
}

type Comment struct {
	ID        string    `json:"id"`
	TicketID  string    `json:"ticketId"`
	UserID    string    `json:"userId,omitempty"` // absent on some older comments
	Text      string    `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
}

func (c Comment) Fields() map[string]any {
	f := map[string]any{
		FieldComment:  c.Text,
		FieldTicketID: c.TicketID,
	}
	if !c.CreatedAt.IsZero() {
		f[FieldCreated] = c.CreatedAt.UTC().Format(time.RFC3339Nano)
	}
	if c.UserID != "" {
		f[FieldUserID] = c.UserID
	}
	return f
}

// TicketView is a ticket with creator and assignee resolved to display names.
type TicketView struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Status       string `json:"status"`
	CreatedBy    string `json:"createdBy"`
	AssignedTo   string `json:"assignedTo"`
	ClientName   string `json:"clientName"`
	EmployeeName string `json:"employeeName"`
}

// CommentView carries the author's name when the comment has one.
type CommentView struct {
	Comment
	AuthorName string `json:"authorName,omitempty"`
}
