package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/adfharrison1/lookupdb/pkg/api"
	"github.com/adfharrison1/lookupdb/pkg/schema"
	"github.com/adfharrison1/lookupdb/pkg/storage"
)

// Server holds references to storage, router, etc.
type Server struct {
	router      *mux.Router
	dbEngine    *storage.StorageEngine
	initializer *schema.Initializer
	logger      *zap.Logger
}

// NewServer creates a server around an embedded store that converges to def.
func NewServer(logger *zap.Logger, def schema.Definition, options ...storage.StorageOption) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	options = append([]storage.StorageOption{storage.WithLogger(logger.Named("storage"))}, options...)
	engine := storage.NewStorageEngine(options...)

	s := &Server{
		router:   mux.NewRouter(),
		dbEngine: engine,
		initializer: schema.NewInitializer(storage.NewSchemaTarget(engine),
			schema.WithDefinition(def),
			schema.WithLogger(logger.Named("schema"))),
		logger: logger,
	}

	handler := api.NewHandler(engine, engine.GetIndexEngine(), s.initializer, api.WithLogger(logger.Named("api")))
	handler.RegisterRoutes(s.router)

	// Use the logging middleware for all routes
	s.router.Use(s.requestLoggerMiddleware)

	// Customize NotFoundHandler to log 404s
	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.logger.Warn("no route found", zap.String("method", r.Method), zap.String("path", r.URL.Path))
		api.WriteJSONError(w, http.StatusNotFound, "no route for "+r.URL.Path)
	})

	return s
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// requestLoggerMiddleware logs the method, URL path, status and duration for each request.
func (s *Server) requestLoggerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("elapsed", time.Since(start)))
	})
}

// InitDB loads a previous snapshot, if any. An empty filename uses the
// engine's configured data file.
func (s *Server) InitDB(filename string) error {
	if filename == "" {
		filename = s.dbEngine.DataFilePath()
	}
	if filename == "" {
		return nil
	}
	if err := s.dbEngine.LoadFromFile(filename); err != nil {
		s.logger.Error("could not load snapshot", zap.String("file", filename), zap.Error(err))
		return err
	}
	s.logger.Info("snapshot loaded", zap.String("file", filename))
	return nil
}

// ApplySchema converges the embedded store to the server's definition.
func (s *Server) ApplySchema(ctx context.Context) error {
	return s.initializer.Initialize(ctx)
}

// SaveDB saves the current database state to file
func (s *Server) SaveDB(filename string) error {
	if filename == "" {
		filename = s.dbEngine.DataFilePath()
	}
	if filename == "" {
		return errors.New("no data file configured")
	}
	if err := s.dbEngine.SaveToFile(filename); err != nil {
		s.logger.Error("could not save snapshot", zap.String("file", filename), zap.Error(err))
		return err
	}
	s.logger.Info("snapshot saved", zap.String("file", filename))
	return nil
}

// StartBackgroundWorkers starts periodic snapshotting when configured.
func (s *Server) StartBackgroundWorkers() {
	s.dbEngine.StartBackgroundWorkers()
}

// StopBackgroundWorkers stops periodic snapshotting.
func (s *Server) StopBackgroundWorkers() {
	s.dbEngine.StopBackgroundWorkers()
}

// Engine exposes the embedded store.
func (s *Server) Engine() *storage.StorageEngine {
	return s.dbEngine
}

// Router exposes the internal mux.Router.
func (s *Server) Router() http.Handler {
	return s.router
}
