package handler

import (
	"net/http"

	"lensportal/internal/catalog"
)

func CatalogHandler(cat *catalog.Catalog) http.HandlerFunc {
	view := cat.View()
	return func(w http.ResponseWriter, r *http.Request) {
		if name := r.URL.Query().Get("categoria"); name != "" {
			resolved, products := cat.Category(name)
			writeJSON(w, http.StatusOK, map[string]any{
				"categoria":  resolved,
				"produtos":   products,
				"materials":  view.Materials,
				"treatments": view.Treatments,
			})
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}
