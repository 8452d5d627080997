// Package api exposes the cached datasets over HTTP: a JSON listing,
// per-dataset metadata, on-the-fly report pages and raw archive
// downloads.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/nordwx/era5cli/internal/config"
	"github.com/nordwx/era5cli/internal/storage/sqlite"
	"github.com/nordwx/era5cli/pkg/logger"
)

// Router wires the API handlers into a chi mux
type Router struct {
	handler *Handler
	logger  *logger.Logger
}

// NewRouter creates a new API router
func NewRouter(store *sqlite.Store, cfg *config.Config, log *logger.Logger) *Router {
	return &Router{
		handler: NewHandler(store, cfg, log),
		logger:  log.Named("api-router"),
	}
}

// Routes returns the configured HTTP handler
func (rt *Router) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/datasets", rt.handler.ListDatasets)
		r.Get("/datasets/{name}", rt.handler.GetDataset)
		r.Get("/datasets/{name}/archive", rt.handler.GetArchive)
	})
	r.Get("/reports/{name}", rt.handler.GetReport)
	r.Get("/", rt.handler.Index)

	return r
}
