package handlers

import (
	"context"
	"net/http"
	"time"

	"ticketdesk/internal/utils"
)

const probeTimeout = 2 * time.Second

// Health reports the process and, when probe is set, the document store. A
// failing probe answers 503 so load balancers stop routing here.
func Health(probe func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if probe == nil {
			utils.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), probeTimeout)
		defer cancel()
		if err := probe(ctx); err != nil {
			utils.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "store": "unavailable"})
			return
		}
		utils.JSON(w, http.StatusOK, map[string]string{"status": "ok", "store": "ok"})
	}
}

// Statuses lists the ticket status vocabulary.
func Statuses(values []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		utils.JSON(w, http.StatusOK, map[string]any{"statuses": values})
	}
}
