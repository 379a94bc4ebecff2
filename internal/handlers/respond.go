package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"ticketdesk/internal/docstore"
	"ticketdesk/internal/models"
	"ticketdesk/internal/service"
	"ticketdesk/internal/utils"
)

// writeError maps domain errors onto HTTP statuses. Client errors carry the
// error text; server errors do not.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, docstore.ErrNotFound):
		utils.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrForbidden):
		utils.Error(w, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		utils.Error(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, service.ErrEmailTaken):
		utils.Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, models.ErrInvalidSelection):
		utils.Error(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, models.ErrInvalidRole):
		utils.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, docstore.ErrUnavailable), errors.Is(err, context.DeadlineExceeded):
		utils.Error(w, http.StatusServiceUnavailable, "store unavailable")
	default:
		utils.Error(w, http.StatusInternalServerError, "internal error")
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		utils.Error(w, http.StatusBadRequest, "invalid json")
		return false
	}
	return true
}

// actor reads the session WithAuth attached to the request.
func actor(r *http.Request) (service.Actor, bool) {
	s, ok := utils.SessionFrom(r.Context())
	if !ok {
		return service.Actor{}, false
	}
	role, err := models.ParseRole(s.Role)
	if err != nil {
		return service.Actor{}, false
	}
	return service.Actor{ID: s.UserID, Role: role}, true
}

func mustActor(w http.ResponseWriter, r *http.Request) (service.Actor, bool) {
	a, ok := actor(r)
	if !ok {
		utils.Error(w, http.StatusUnauthorized, "not authenticated")
	}
	return a, ok
}
