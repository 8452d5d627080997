package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/nordwx/era5cli/internal/cache"
	"github.com/nordwx/era5cli/internal/config"
	"github.com/nordwx/era5cli/internal/dataset"
	"github.com/nordwx/era5cli/internal/report"
	"github.com/nordwx/era5cli/internal/storage/sqlite"
	"github.com/nordwx/era5cli/internal/timeseries"
	"github.com/nordwx/era5cli/pkg/logger"
)

// Handler contains the API handlers
type Handler struct {
	store  *sqlite.Store
	config *config.Config
	logger *logger.Logger
}

// NewHandler creates a new API handler
func NewHandler(store *sqlite.Store, cfg *config.Config, log *logger.Logger) *Handler {
	return &Handler{
		store:  store,
		config: cfg,
		logger: log.Named("api-handler"),
	}
}

// ListDatasets returns all cached datasets, optionally narrowed by the
// same filter expressions the list command accepts.
func (h *Handler) ListDatasets(w http.ResponseWriter, r *http.Request) {
	entries, err := cache.List(h.store, r.URL.Query().Get("filter"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if entries == nil {
		entries = []cache.Entry{}
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"count":    len(entries),
		"datasets": entries,
	})
}

// GetDataset returns the cached metadata row for one dataset.
func (h *Handler) GetDataset(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" {
		http.Error(w, "Missing dataset name", http.StatusBadRequest)
		return
	}

	key, ok, err := h.store.ResolveKey(name, dataset.Slugify(name))
	if err != nil {
		h.logger.Error("Failed to resolve dataset", logger.Error(err), logger.String("name", name))
		http.Error(w, "Failed to load dataset", http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, "Dataset not found", http.StatusNotFound)
		return
	}
	loc, found, err := h.store.GetLocation(key)
	if err != nil {
		h.logger.Error("Failed to load location", logger.Error(err), logger.String("key", key))
		http.Error(w, "Failed to load dataset", http.StatusInternalServerError)
		return
	}
	if !found {
		http.Error(w, "Dataset not found", http.StatusNotFound)
		return
	}
	WriteJSON(w, http.StatusOK, loc)
}

// GetReport renders the report page for one dataset on the fly.
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" {
		http.Error(w, "Missing dataset name", http.StatusBadRequest)
		return
	}

	frame, display, err := h.loadFrame(name)
	if err != nil {
		var notFound *dataset.NotFoundError
		if errors.As(err, &notFound) {
			http.Error(w, "Dataset not found", http.StatusNotFound)
			return
		}
		h.logger.Error("Failed to load dataset for report",
			logger.Error(err),
			logger.String("name", name))
		http.Error(w, "Failed to load dataset", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := report.RenderTo(w, frame, display, h.logger); err != nil {
		h.logger.Error("Failed to render report",
			logger.Error(err),
			logger.String("name", name))
	}
}

// GetArchive serves the raw downloaded archive for one dataset.
func (h *Handler) GetArchive(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" {
		http.Error(w, "Missing dataset name", http.StatusBadRequest)
		return
	}

	path, err := dataset.FindDataset(h.config.DataDir(), name)
	if err != nil {
		http.Error(w, "Dataset not found", http.StatusNotFound)
		return
	}
	if _, err := os.Stat(path); err != nil {
		http.Error(w, "Dataset not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Disposition", "attachment; filename="+filepath.Base(path))
	http.ServeFile(w, r, path)
}

func (h *Handler) loadFrame(name string) (frame *timeseries.Frame, display string, err error) {
	path, err := dataset.FindDataset(h.config.DataDir(), name)
	if err != nil {
		return nil, "", err
	}

	key := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	display = dataset.Humanize(key)
	if loc, found, lookupErr := h.store.GetLocation(key); lookupErr == nil && found {
		display = dataset.DisplayName(key, loc.Name)
	}

	frame, err = dataset.LoadPath(path, name)
	if err != nil {
		return nil, "", err
	}
	return frame, display, nil
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
