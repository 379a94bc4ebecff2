package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"ticketdesk/internal/models"
	"ticketdesk/internal/service"
	"ticketdesk/internal/tickets"
	"ticketdesk/internal/utils"
)

// TicketHTTP wires the ticket endpoints of all three role areas to the
// lifecycle service. Role gating happens in the router; ownership checks in
// the service.
type TicketHTTP struct {
	svc *service.TicketService
}

func NewTicketHTTP(svc *service.TicketService) *TicketHTTP {
	return &TicketHTTP{svc: svc}
}

func list(w http.ResponseWriter, items []models.TicketView) {
	w.Header().Set("X-Total-Count", strconv.Itoa(len(items)))
	utils.JSON(w, http.StatusOK, map[string]any{"items": items, "total": len(items)})
}

// GET /api/client/tickets
func (h *TicketHTTP) Mine() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, ok := mustActor(w, r)
		if !ok {
			return
		}
		items, err := h.svc.ClientTickets(r.Context(), a)
		if err != nil {
			writeError(w, err)
			return
		}
		list(w, items)
	}
}

// GET /api/employee/tickets
func (h *TicketHTTP) Assigned() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, ok := mustActor(w, r)
		if !ok {
			return
		}
		items, err := h.svc.AssignedTickets(r.Context(), a)
		if err != nil {
			writeError(w, err)
			return
		}
		list(w, items)
	}
}

// GET /api/manager/tickets?status=&client=&employee=&limit=&offset=
func (h *TicketHTTP) Browse() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, ok := mustActor(w, r)
		if !ok {
			return
		}
		qv := r.URL.Query()
		c := tickets.Criteria{
			Status:   utils.QueryString(qv, "status"),
			Client:   utils.QueryString(qv, "client"),
			Employee: utils.QueryString(qv, "employee"),
		}
		res, err := h.svc.Browse(r.Context(), a, c)
		if err != nil {
			writeError(w, err)
			return
		}

		total := len(res.Tickets)
		offset := utils.QueryInt(qv, "offset", 0)
		limit := utils.QueryInt(qv, "limit", 0)
		items := res.Tickets
		if offset > len(items) {
			offset = len(items)
		}
		items = items[offset:]
		if limit > 0 && limit < len(items) {
			items = items[:limit]
		}

		w.Header().Set("X-Total-Count", strconv.Itoa(total))
		utils.JSON(w, http.StatusOK, map[string]any{
			"items":    items,
			"total":    total,
			"options":  res.Options,
			"warnings": res.Warnings,
		})
	}
}

// GET /api/manager/tickets/facets
func (h *TicketHTTP) Facets() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, ok := mustActor(w, r)
		if !ok {
			return
		}
		opts, err := h.svc.FilterOptions(r.Context(), a)
		if err != nil {
			writeError(w, err)
			return
		}
		utils.JSON(w, http.StatusOK, opts)
	}
}

// GET /api/manager/reports/summary
func (h *TicketHTTP) Summary() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, ok := mustActor(w, r)
		if !ok {
			return
		}
		sum, err := h.svc.Summary(r.Context(), a)
		if err != nil {
			writeError(w, err)
			return
		}
		utils.JSON(w, http.StatusOK, sum)
	}
}

// GET .../tickets/{id}
func (h *TicketHTTP) Get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, ok := mustActor(w, r)
		if !ok {
			return
		}
		v, err := h.svc.Ticket(r.Context(), a, chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		utils.JSON(w, http.StatusOK, v)
	}
}

// POST /api/client/tickets
func (h *TicketHTTP) Create() http.HandlerFunc {
	type inDTO struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		a, ok := mustActor(w, r)
		if !ok {
			return
		}
		var in inDTO
		if !decode(w, r, &in) {
			return
		}
		t, err := h.svc.CreateTicket(r.Context(), a, in.Title, in.Description)
		if err != nil {
			writeError(w, err)
			return
		}
		utils.JSON(w, http.StatusCreated, t)
	}
}

// PATCH /api/{employee,manager}/tickets/{id}/status
func (h *TicketHTTP) UpdateStatus() http.HandlerFunc {
	type inDTO struct {
		Status string `json:"status"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		a, ok := mustActor(w, r)
		if !ok {
			return
		}
		var in inDTO
		if !decode(w, r, &in) {
			return
		}
		t, err := h.svc.UpdateStatus(r.Context(), a, chi.URLParam(r, "id"), in.Status)
		if err != nil {
			writeError(w, err)
			return
		}
		utils.JSON(w, http.StatusOK, t)
	}
}

// PATCH /api/manager/tickets/{id}/assignee
// Body carries employeeName (picker choice) or employeeId; neither unassigns.
func (h *TicketHTTP) UpdateAssignee() http.HandlerFunc {
	type inDTO struct {
		EmployeeName string `json:"employeeName"`
		EmployeeID   string `json:"employeeId"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		a, ok := mustActor(w, r)
		if !ok {
			return
		}
		var in inDTO
		if !decode(w, r, &in) {
			return
		}
		id := chi.URLParam(r, "id")

		var (
			t   *models.Ticket
			err error
		)
		switch {
		case in.EmployeeID != "":
			t, err = h.svc.AssignByID(r.Context(), a, id, in.EmployeeID)
		case in.EmployeeName != "":
			t, err = h.svc.Assign(r.Context(), a, id, in.EmployeeName)
		default:
			t, err = h.svc.Unassign(r.Context(), a, id)
		}
		if err != nil {
			writeError(w, err)
			return
		}
		utils.JSON(w, http.StatusOK, t)
	}
}

// GET .../tickets/{id}/comments
func (h *TicketHTTP) Comments() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, ok := mustActor(w, r)
		if !ok {
			return
		}
		items, err := h.svc.ListComments(r.Context(), a, chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		utils.JSON(w, http.StatusOK, map[string]any{"items": items, "total": len(items)})
	}
}

// POST .../tickets/{id}/comments
func (h *TicketHTTP) AddComment() http.HandlerFunc {
	type inDTO struct {
		Comment string `json:"comment"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		a, ok := mustActor(w, r)
		if !ok {
			return
		}
		var in inDTO
		if !decode(w, r, &in) {
			return
		}
		c, err := h.svc.AddComment(r.Context(), a, chi.URLParam(r, "id"), in.Comment)
		if err != nil {
			writeError(w, err)
			return
		}
		utils.JSON(w, http.StatusCreated, c)
	}
}
