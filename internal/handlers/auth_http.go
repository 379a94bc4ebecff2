package handlers

import (
	"net/http"
	"time"

	"ticketdesk/internal/models"
	"ticketdesk/internal/repository"
	"ticketdesk/internal/routing"
	"ticketdesk/internal/service"
	"ticketdesk/internal/utils"
)

type AuthHTTP struct {
	svc    *service.AuthService
	users  repository.UserRepository
	secure bool // Secure flag on the session cookie
}

func NewAuthHTTP(s *service.AuthService, users repository.UserRepository, secureCookies bool) *AuthHTTP {
	return &AuthHTTP{svc: s, users: users, secure: secureCookies}
}

func profile(u *models.User, dest routing.Destination) map[string]any {
	return map[string]any{
		"id":          u.ID,
		"name":        u.Name,
		"email":       u.Email,
		"idNumber":    u.IDNumber,
		"role":        u.RawRole,
		"destination": dest.String(),
		"home":        dest.Path(),
	}
}

func (h *AuthHTTP) Register() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in struct {
			Email    string `json:"email"`
			Name     string `json:"name"`
			IDNumber string `json:"idNumber"`
			Password string `json:"password"`
			Role     string `json:"role"`
		}
		if !decode(w, r, &in) {
			return
		}
		u, err := h.svc.Register(r.Context(), in.Email, in.Name, in.IDNumber, in.Password, in.Role)
		if err != nil {
			writeError(w, err)
			return
		}
		utils.JSON(w, http.StatusCreated, u)
	}
}

func (h *AuthHTTP) Login() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if !decode(w, r, &in) {
			return
		}

		sess, err := h.svc.Login(r.Context(), in.Email, in.Password)
		if err != nil {
			writeError(w, err)
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     "session",
			Value:    sess.Token,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
			Secure:   h.secure,
			Expires:  time.Now().Add(24 * time.Hour),
		})
		body := profile(sess.User, sess.Destination)
		body["token"] = sess.Token
		utils.JSON(w, http.StatusOK, body)
	}
}

func (h *AuthHTTP) Logout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{
			Name:     "session",
			Value:    "",
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
			MaxAge:   -1,              // expire immediately
			Expires:  time.Unix(0, 0), // for older browsers
		})
		w.WriteHeader(http.StatusNoContent)
	}
}

// Me returns the session's profile and destination. A stored role that no
// longer routes anywhere is reported as 422.
func (h *AuthHTTP) Me() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, ok := mustActor(w, r)
		if !ok {
			return
		}
		u, err := h.users.GetByID(r.Context(), a.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		if u == nil {
			utils.Error(w, http.StatusNotFound, "user not found")
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
