package locale

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Ahmed-AmineHomman/escribito/internal/locale"
	"github.com/Ahmed-AmineHomman/escribito/pkg/utils"
)

// Handler serves the UI label bundles.
type Handler struct {
	catalog *locale.Catalog
}

// New creates the locale handler.
func New(catalog *locale.Catalog) *Handler {
	return &Handler{
		catalog: catalog,
	}
}

// RegisterRoutes registers the locale routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/locale", h.handleListLocales)
	r.Get("/locale/{tag}", h.handleGetLocale)
}

func (h *Handler) handleListLocales(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"default": h.catalog.DefaultTag(),
		"tags":    h.catalog.Tags(),
	})
}

func (h *Handler) handleGetLocale(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.catalog.Get(chi.URLParam(r, "tag")))
}
