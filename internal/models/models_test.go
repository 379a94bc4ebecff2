package models

import (
	"errors"
	"testing"
	"time"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		in   string
		want Role
		err  bool
	}{
		{"client", RoleClient, false},
		{"user", RoleClient, false},
		{" Employee ", RoleEmployee, false},
		{"MANAGER", RoleManager, false},
		{"admin", RoleUnknown, true},
		{"", RoleUnknown, true},
	}
	for _, tt := range tests {
		got, err := ParseRole(tt.in)
		if got != tt.want || (err != nil) != tt.err {
			t.Errorf("ParseRole(%q) = %v, %v", tt.in, got, err)
		}
		if err != nil && !errors.Is(err, ErrInvalidRole) {
			t.Errorf("ParseRole(%q) error %v is not ErrInvalidRole", tt.in, err)
		}
	}
}

func TestUserFromFields_KeepsRawRole(t *testing.T) {
	u := UserFromFields("u1", map[string]any{FieldName: "Alice", FieldRole: "user", FieldEmail: 7})
	if u.Role != RoleClient || u.RawRole != "user" {
		t.Errorf("role = %v raw = %q", u.Role, u.RawRole)
	}
	if u.Email != "" {
		t.Errorf("non-string email should read as empty, got %q", u.Email)
	}

	odd := UserFromFields("u2", map[string]any{FieldRole: "auditor"})
	if odd.Role.Valid() || odd.RawRole != "auditor" {
		t.Errorf("unknown role = %v raw = %q", odd.Role, odd.RawRole)
	}
}

func TestTicketFields_RoundTrip(t *testing.T) {
	in := Ticket{ID: "t1", Title: "Printer", Status: StatusOpen, CreatedBy: "u1", UserName: "Alice"}
	out := TicketFromFields("t1", in.Fields())
	if out != in {
		t.Errorf("got %+v, want %+v", out, in)
	}
}

func TestComment_OptionalFields(t *testing.T) {
	legacy := Comment{TicketID: "t1", Text: "hi"}
	f := legacy.Fields()
	if _, ok := f[FieldUserID]; ok {
		t.Error("empty author must not be written")
	}
	if _, ok := f[FieldCreated]; ok {
		t.Error("zero time must not be written")
	}

	at := time.Date(2024, 3, 1, 12, 0, 0, 500, time.UTC)
	c := CommentFromFields("c1", Comment{TicketID: "t1", UserID: "u1", Text: "hi", CreatedAt: at}.Fields())
	if !c.CreatedAt.Equal(at) || c.UserID != "u1" || c.ID != "c1" {
		t.Errorf("got %+v", c)
	}
}
