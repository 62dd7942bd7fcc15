package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Daunny/CRM-AUGU-sub000/internal/http/auth"
	"github.com/Daunny/CRM-AUGU-sub000/internal/http/proposal"
	"github.com/Daunny/CRM-AUGU-sub000/internal/http/template"
)

type Options struct {
	JWTSecret      []byte
	AllowedOrigins []string
}

func New(
	opts Options,
	proposalsV1 *proposal.Handler,
	templatesV1 *template.Handler,
) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(auth.Middleware(opts.JWTSecret))

		r.Route("/proposals", proposalsV1.Routes)

		r.Route("/templates", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			templatesV1.Routes(r)
		})
	})

	return router
}
