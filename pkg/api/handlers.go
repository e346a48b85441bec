package api

import (
	"go.uber.org/zap"

	"github.com/adfharrison1/lookupdb/pkg/domain"
	"github.com/adfharrison1/lookupdb/pkg/schema"
)

// Handler provides the admin HTTP handlers
type Handler struct {
	storage     domain.StorageEngine
	indexer     domain.IndexEngine
	initializer *schema.Initializer
	logger      *zap.Logger
}

// HandlerOption configures a Handler
type HandlerOption func(*Handler)

// WithLogger sets the logger used for request diagnostics
func WithLogger(logger *zap.Logger) HandlerOption {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// NewHandler creates a new API handler with dependency injection
func NewHandler(storage domain.StorageEngine, indexer domain.IndexEngine, initializer *schema.Initializer, opts ...HandlerOption) *Handler {
	h := &Handler{
		storage:     storage,
		indexer:     indexer,
		initializer: initializer,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}
