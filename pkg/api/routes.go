package api

import (
	"github.com/gorilla/mux"
)

// RegisterRoutes registers all API routes with the given router
func (h *Handler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/health", h.HandleHealth).Methods("GET")

	// Catalog
	router.HandleFunc("/collections", h.HandleListCollections).Methods("GET")
	router.HandleFunc("/collections/{coll}/indexes", h.HandleGetIndexes).Methods("GET")

	// Schema
	router.HandleFunc("/schema", h.HandleGetSchema).Methods("GET")
	router.HandleFunc("/schema/initialize", h.HandleInitialize).Methods("POST")
}
