package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/adfharrison1/lookupdb/pkg/server"
	"github.com/adfharrison1/lookupdb/pkg/storage"
)

var (
	port           string
	dataDir        string
	dataFile       string
	backgroundSave time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the embedded lookup store with the admin API",
	Long: `Starts an embedded document store, restores its snapshot, applies the
schema and serves the admin API.

Without --background-save, data is only saved on graceful shutdown.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&port, "port", "", "Server port (env LOOKUP_PORT, default 8080)")
	serveCmd.Flags().StringVar(&dataDir, "data-dir", "", "Data directory for snapshots (env LOOKUP_DATA_DIR)")
	serveCmd.Flags().StringVar(&dataFile, "data-file", "", "Snapshot file, relative to the data directory")
	serveCmd.Flags().DurationVar(&backgroundSave, "background-save", 0, "Background save interval (e.g. 5m, 30s); 0 disables")
}

func runServe(cmd *cobra.Command, args []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("port") {
		cfg.Server.Port = port
	}
	if flags.Changed("data-dir") {
		cfg.Storage.DataDir = dataDir
	}
	if flags.Changed("data-file") {
		cfg.Storage.DataFile = dataFile
	}
	if flags.Changed("background-save") {
		cfg.Storage.BackgroundSave = backgroundSave.String()
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	def, err := loadDefinition(cfg)
	if err != nil {
		return err
	}

	storageOptions := []storage.StorageOption{
		storage.WithDataDir(cfg.Storage.DataDir),
		storage.WithDataFile(cfg.Storage.DataFile),
	}
	if interval := cfg.GetBackgroundSave(); interval > 0 {
		storageOptions = append(storageOptions, storage.WithBackgroundSave(interval))
		logger.Info("background save enabled", zap.Duration("interval", interval))
	} else {
		logger.Warn("background save disabled, data only saved on graceful shutdown")
	}

	srv := server.NewServer(logger, def, storageOptions...)
	if err := srv.InitDB(""); err != nil {
		return err
	}
	if err := srv.ApplySchema(cmd.Context()); err != nil {
		logger.Error("schema initialization failed", zap.Error(err))
		return err
	}
	srv.StartBackgroundWorkers()
	defer srv.StopBackgroundWorkers()

	httpServer := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: srv.Router(),
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting lookupdb server", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			logger.Error("server failed", zap.Error(err))
			return err
		}
	case <-cmd.Context().Done():
	}
	logger.Info("shutting down server")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	return srv.SaveDB("")
}
