package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (h *Handler) Init() *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(h.withTraceID)
	router.Use(h.withLogging)
	router.Use(middleware.Compress(5, "application/json"))

	router.Get("/api/version/", h.getServerVersion)
	router.Handle("/metrics", h.metrics.Handler())

	router.Route("/{collection}", func(r chi.Router) {
		r.Use(h.clientToken)

		r.Get("/", h.find)
		r.Post("/find", h.postFind)
		r.Post("/quickfind", h.quickfind)

		r.Post("/", h.insert)
		r.Patch("/", h.patch)
		r.Delete("/{id}", h.remove)
	})

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, errRouteNotFound)
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, errMethodNotAllowed)
	})

	return router
}
