package router

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"ticketdesk/internal/config"
	"ticketdesk/internal/handlers"
	"ticketdesk/internal/middleware"
	"ticketdesk/internal/models"
	"ticketdesk/internal/observability/metrics"
	"ticketdesk/internal/repository"
	"ticketdesk/internal/service"
)

// Deps are the services the HTTP surface is built on.
type Deps struct {
	Auth    *service.AuthService
	Tickets *service.TicketService
	People  *service.UserService
	Users   repository.UserRepository
	// Probe checks the document store for /healthz; nil skips the check.
	Probe func(context.Context) error
}

func New(log zerolog.Logger, cfg config.Config, d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.Recoverer(log))
	r.Use(metrics.HTTPMetricsMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.Origin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))
	if cfg.RateLimit > 0 {
		r.Use(httprate.LimitByIP(cfg.RateLimit, time.Minute))
	}

	r.Get("/healthz", handlers.Health(d.Probe))
	r.Handle("/metrics", promhttp.Handler())

	ah := handlers.NewAuthHTTP(d.Auth, d.Users, cfg.Env != "dev")
	th := handlers.NewTicketHTTP(d.Tickets)
	uh := handlers.NewUserHTTP(d.People, log, cfg.Origin)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.WithAuth(log, cfg))

		r.Get("/statuses", handlers.Statuses(d.Tickets.Statuses()))

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", ah.Register())
			r.Post("/login", ah.Login())
			r.Post("/logout", ah.Logout())
			r.With(middleware.RequireAuth).Get("/me", ah.Me())
			r.With(middleware.RequireAuth).Patch("/me", uh.UpdateMe())
		})

		r.Route("/client", func(r chi.Router) {
			r.Use(middleware.RequireAuth, middleware.RequireRoles(models.RoleClient))
			r.Route("/tickets", func(r chi.Router) {
				r.Get("/", th.Mine())
				r.Post("/", th.Create())
				r.Get("/{id}", th.Get())
				r.Get("/{id}/comments", th.Comments())
				r.Post("/{id}/comments", th.AddComment())
			})
		})

		r.Route("/employee", func(r chi.Router) {
			r.Use(middleware.RequireAuth, middleware.RequireRoles(models.RoleEmployee))
			r.Route("/tickets", func(r chi.Router) {
				r.Get("/", th.Assigned())
				r.Get("/{id}", th.Get())
				r.Patch("/{id}/status", th.UpdateStatus())
				r.Get("/{id}/comments", th.Comments())
				r.Post("/{id}/comments", th.AddComment())
			})
		})

		r.Route("/manager", func(r chi.Router) {
			r.Use(middleware.RequireAuth, middleware.RequireRoles(models.RoleManager))
			r.Route("/tickets", func(r chi.Router) {
				r.Get("/", th.Browse())
				r.Get("/facets", th.Facets())
				r.Get("/{id}", th.Get())
				r.Patch("/{id}/status", th.UpdateStatus())
				r.Patch("/{id}/assignee", th.UpdateAssignee())
				r.Get("/{id}/comments", th.Comments())
				r.Post("/{id}/comments", th.AddComment())
			})
			r.Get("/reports/summary", th.Summary())
			r.Route("/users", func(r chi.Router) {
				r.Get("/employees", uh.Employees())
				r.Post("/employees", uh.AddEmployee())
				r.Get("/employees/stream", uh.StreamEmployees())
				r.Get("/clients", uh.Clients())
			})
		})
	})

	return r
}
