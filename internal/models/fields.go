package models

import "time"

// The store is schemaless; missing or non-string fields read as "".

func str(f map[string]any, key string) string {
	s, _ := f[key].(string)
	return s
}

func UserFromFields(id string, f map[string]any) User {
	raw := str(f, FieldRole)
	role, _ := ParseRole(raw)
	return User{
		ID:       id,
		Name:     str(f, FieldName),
		Email:    str(f, FieldEmail),
		IDNumber: str(f, FieldIDNumber),
		Role:     role,
		RawRole:  raw,
	}
}

func TicketFromFields(id string, f map[string]any) Ticket {
	return Ticket{
		ID:          id,
		Title:       str(f, FieldTitle),
		Description: str(f, FieldDescription),
		Status:      str(f, FieldStatus),
		CreatedBy:   str(f, FieldCreatedBy),
		AssignedTo:  str(f, FieldAssignedTo),
		UserName:    str(f, FieldUserName),
	}
}

func CommentFromFields(id string, f map[string]any) Comment {
	c := Comment{
		ID:       id,
		TicketID: str(f, FieldTicketID),
		UserID:   str(f, FieldUserID),
		Text:     str(f, FieldComment),
	}
	if ts, err := time.Parse(time.RFC3339Nano, str(f, FieldCreated)); err == nil {
		c.CreatedAt = ts
	}
	return c
}
