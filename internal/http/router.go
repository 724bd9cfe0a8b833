package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/MrJamesThe3rd/ajo/internal/http/api"
	"github.com/MrJamesThe3rd/ajo/internal/http/contribution"
	"github.com/MrJamesThe3rd/ajo/internal/http/goal"
	"github.com/MrJamesThe3rd/ajo/internal/http/group"
	"github.com/MrJamesThe3rd/ajo/internal/http/importcsv"
	"github.com/MrJamesThe3rd/ajo/internal/metrics"
)

type Handlers struct {
	Goals         *goal.Handler
	Groups        *group.Handler
	Contributions *contribution.Handler
	Import        *importcsv.Handler
}

func New(h Handlers, tokens api.TokenValidator, corsOrigins []string) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	router.Handle("/metrics", metrics.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(api.RequireUser(tokens))

		r.Route("/goals", func(r chi.Router) {
			r.Route("/{id}/import", h.Import.Routes)

			r.Group(func(r chi.Router) {
				r.Use(middleware.AllowContentType("application/json"))
				h.Goals.Routes(r)
			})
		})

		r.Route("/groups", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			h.Groups.Routes(r)
		})

		r.Route("/contributions", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			h.Contributions.Routes(r)
		})
	})

	return router
}
