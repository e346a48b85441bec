package api

import (
	"net/http"
)

// HandleListCollections returns every collection and view with its counts
func (h *Handler) HandleListCollections(w http.ResponseWriter, r *http.Request) {
	collections := h.storage.ListCollections()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"collections": collections,
		"count":       len(collections),
	})
}
