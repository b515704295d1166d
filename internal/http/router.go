package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// HealthCheck reports whether the backing store is reachable.
type HealthCheck func(ctx context.Context) error

type RouterConfig struct {
	Auth      *AuthHandler
	Profile   *ProfileHandler
	Timetable *TimetableHandler
	Friends   *FriendHandler

	// Session guards every route that needs a principal.
	Session func(http.Handler) http.Handler
	// AuthRateLimit wraps /signup and /login.
	AuthRateLimit func(http.Handler) http.Handler
	Health        HealthCheck
	Logger        *slog.Logger
	Middleware    []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	for _, mw := range cfg.Middleware {
		if mw != nil {
			r.Use(mw)
		}
	}

	responder := newResponder(cfg.Logger)
	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if cfg.Health != nil {
			if err := cfg.Health(req.Context()); err != nil {
				responder.writeError(req.Context(), w, http.StatusServiceUnavailable, err)
				return
			}
		}
		responder.writeJSON(req.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if cfg.Timetable != nil {
		r.Get("/schedule", cfg.Timetable.Schedule)
	}

	if cfg.Auth != nil {
		r.Group(func(r chi.Router) {
			if cfg.AuthRateLimit != nil {
				r.Use(cfg.AuthRateLimit)
			}
			r.Post("/signup", cfg.Auth.SignUp)
			r.Post("/login", cfg.Auth.Login)
		})
		r.Post("/logout", cfg.Auth.Logout)
		r.Post("/sessions/refresh", cfg.Auth.Refresh)
	}

	r.Group(func(r chi.Router) {
		if cfg.Session != nil {
			r.Use(cfg.Session)
		}

		if cfg.Auth != nil {
			r.Delete("/account", cfg.Auth.DeleteAccount)
		}

		if cfg.Profile != nil {
			r.Get("/profile", cfg.Profile.Get)
			r.Put("/profile", cfg.Profile.UpdateName)
		}

		if cfg.Timetable != nil {
			r.Route("/timetable", func(r chi.Router) {
				r.Get("/", cfg.Timetable.Get)
				r.Put("/", cfg.Timetable.Save)
				r.Delete("/", cfg.Timetable.Clear)
				r.Post("/cells/toggle", cfg.Timetable.Toggle)
				r.Get("/week", cfg.Timetable.Week)
			})
		}

		if cfg.Friends != nil {
			r.Route("/friends", func(r chi.Router) {
				r.Get("/", cfg.Friends.List)
				r.Post("/", cfg.Friends.Add)
				r.Get("/roster", cfg.Friends.Roster)
				r.Delete("/{uid}", cfg.Friends.Remove)
				r.Get("/{uid}/timetable", cfg.Friends.Timetable)
			})
		}
	})

	return r
}
