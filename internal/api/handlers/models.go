package handlers

import (
	"net/http"

	"github.com/matiasleandrokruk/deepsite/internal/domain/catalog"
)

type ModelsHandler struct {
	catalog *catalog.Catalog
}

func NewModelsHandler(c *catalog.Catalog) *ModelsHandler {
	return &ModelsHandler{catalog: c}
}

type modelsResponse struct {
	DefaultProvider string             `json:"defaultProvider"`
	Providers       []catalog.Provider `json:"providers"`
	Models          []catalog.Model    `json:"models"`
}

// List handles GET /api/models.
func (h *ModelsHandler) List(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, modelsResponse{
		DefaultProvider: h.catalog.DefaultProvider,
		Providers:       h.catalog.Providers,
		Models:          h.catalog.Models,
	})
}
