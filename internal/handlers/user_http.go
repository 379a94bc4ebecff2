package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"ticketdesk/internal/models"
	"ticketdesk/internal/routing"
	"ticketdesk/internal/service"
	"ticketdesk/internal/utils"
)

const (
	streamWriteWait = 10 * time.Second
	streamPingEvery = 30 * time.Second
)

type UserHTTP struct {
	svc      *service.UserService
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

func NewUserHTTP(svc *service.UserService, log zerolog.Logger, allowedOrigin string) *UserHTTP {
	h := &UserHTTP{svc: svc, log: log.With().Str("component", "users_http").Logger()}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			// non-browser clients send no origin
			if origin == "" || origin == allowedOrigin {
				return true
			}
			h.log.Warn().Str("origin", origin).Msg("websocket origin rejected")
			return false
		},
	}
	return h
}

func users(w http.ResponseWriter, items []models.User) {
	utils.JSON(w, http.StatusOK, map[string]any{"items": items, "total": len(items)})
}

// PATCH /api/auth/me
func (h *UserHTTP) UpdateMe() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, ok := mustActor(w, r)
		if !ok {
			return
		}
		var in struct {
			Name string `json:"name"`
		}
		if !decode(w, r, &in) {
			return
		}
		u, err := h.svc.Rename(r.Context(), a, in.Name)
		if err != nil {
			writeError(w, err)
			return
		}
		dest, err := routing.RouteRaw(u.RawRole)
		if err != nil {
			writeError(w, err)
			return
		}
		utils.JSON(w, http.StatusOK, profile(u, dest))
	}
}

// GET /api/manager/users/employees
func (h *UserHTTP) Employees() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, ok := mustActor(w, r)
		if !ok {
			return
		}
		items, err := h.svc.Employees(r.Context(), a)
		if err != nil {
			writeError(w, err)
			return
		}
		users(w, items)
	}
}

// GET /api/manager/users/clients
func (h *UserHTTP) Clients() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, ok := mustActor(w, r)
		if !ok {
			return
		}
		items, err := h.svc.Clients(r.Context(), a)
		if err != nil {
			writeError(w, err)
			return
		}
		users(w, items)
	}
}

// POST /api/manager/users/employees
func (h *UserHTTP) AddEmployee() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, ok := mustActor(w, r)
		if !ok {
			return
		}
		var in service.NewEmployee
		if !decode(w, r, &in) {
			return
		}
		u, err := h.svc.AddEmployee(r.Context(), a, in)
		if err != nil {
			writeError(w, err)
			return
		}
		utils.JSON(w, http.StatusCreated, u)
	}
}

type rosterMessage struct {
	Employees []models.User `json:"employees"`
	Error     string        `json:"error,omitempty"`
}

// GET /api/manager/users/employees/stream (websocket)
// Sends the full roster on connect and after every change. Bursts of changes
// collapse into the latest roster.
func (h *UserHTTP) StreamEmployees() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, ok := mustActor(w, r)
		if !ok {
			return
		}

		var (
			mu      sync.Mutex
			pending rosterMessage
		)
		notify := make(chan struct{}, 1)
		push := func(us []models.User, err error) {
			msg := rosterMessage{Employees: us}
			if err != nil {
				msg = rosterMessage{Error: "roster refresh failed"}
			}
			mu.Lock()
			pending = msg
			mu.Unlock()
			select {
			case notify <- struct{}{}:
			default:
			}
		}

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()
		stop, err := h.svc.WatchEmployees(ctx, a, push)
		if err != nil {
			writeError(w, err)
			return
		}
		defer stop()

		conn, err := h.upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.log.Error().Err(err).Msg("websocket upgrade failed")
			return
		}
		defer conn.Close()

		// the client only ever closes; reading surfaces that
		go func() {
			defer cancel()
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		ping := time.NewTicker(streamPingEvery)
		defer ping.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-notify:
				mu.Lock()
				msg := pending
				mu.Unlock()
				_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
				if err := conn.WriteJSON(msg); err != nil {
					h.log.Debug().Err(err).Msg("roster stream closed")
					return
				}
			case <-ping.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(streamWriteWait)); err != nil {
					return
				}
			}
		}
	}
}
