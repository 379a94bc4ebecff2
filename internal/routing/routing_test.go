package routing

import (
	"errors"
	"testing"

	"ticketdesk/internal/models"
)

func TestRouteRaw(t *testing.T) {
	tests := []struct {
		raw     string
		want    Destination
		wantErr bool
	}{
		{"manager", Manager, false},
		{"employee", Employee, false},
		{"client", Client, false},
		{"user", Client, false},
		{" Manager ", Manager, false},
		{"bogus", None, true},
		{"", None, true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := RouteRaw(tt.raw)
			if got != tt.want {
				t.Errorf("RouteRaw(%q) = %v, want %v", tt.raw, got, tt.want)
			}
			if tt.wantErr != (err != nil) {
				t.Fatalf("RouteRaw(%q) err = %v", tt.raw, err)
			}
			if err != nil && !errors.Is(err, models.ErrInvalidSelection) {
				t.Errorf("expected ErrInvalidSelection, got %v", err)
			}
		})
	}
}

func TestRoute_Unknown(t *testing.T) {
	d, err := Route(models.RoleUnknown)
	if d != None || !errors.Is(err, models.ErrInvalidSelection) {
		t.Errorf("Route(unknown) = %v, %v", d, err)
	}
	if d.Path() != "" {
		t.Errorf("None must have no path")
	}
	if Manager.Path() != "/api/manager" {
		t.Errorf("Manager.Path() = %q", Manager.Path())
	}
}
