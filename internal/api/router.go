package api

import (
	"database/sql"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/isdelr/ender-auth-be/internal/api/handlers"
	"github.com/isdelr/ender-auth-be/internal/auth"
	"github.com/isdelr/ender-auth-be/internal/services"
	"github.com/isdelr/ender-auth-be/internal/session"
	"github.com/rs/zerolog"
)

// Options carries what the router needs beyond its handlers' dependencies.
type Options struct {
	AllowedOrigins []string
	Logger         zerolog.Logger
}

// NewRouter creates and configures a new Chi router.
func NewRouter(db *sql.DB, userService services.UserServiceProvider, sessions *session.Manager, opts Options) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(opts.Logger))
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Location"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	indexHandler := handlers.NewIndexHandler(db, opts.Logger)
	authHandler := handlers.NewAuthHandler(userService, sessions, opts.Logger)

	r.Get("/health", indexHandler.Health)

	r.Group(func(r chi.Router) {
		r.Use(auth.SessionMiddleware(sessions, userService, opts.Logger))

		r.Get("/", indexHandler.Home)

		r.Route("/auth", func(r chi.Router) {
			r.With(auth.RequireGuest).Post("/join", authHandler.Join)
			r.With(auth.RequireGuest).Post("/login", authHandler.Login)
			r.With(auth.RequireLogin).Get("/logout", authHandler.Logout)
		})
	})

	return r
}
