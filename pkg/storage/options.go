package storage

import (
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

type StorageOption func(*StorageEngine)

func WithDataDir(dir string) StorageOption {
	return func(engine *StorageEngine) {
		engine.dataDir = dir
	}
}

// WithDataFile sets the snapshot file used by background saves. Relative
// paths are resolved against the data directory.
func WithDataFile(name string) StorageOption {
	return func(engine *StorageEngine) {
		engine.dataFile = name
	}
}

func WithBackgroundSave(interval time.Duration) StorageOption {
	return func(engine *StorageEngine) {
		engine.backgroundSave = true
		engine.saveInterval = interval
	}
}

func WithLogger(logger *zap.Logger) StorageOption {
	return func(engine *StorageEngine) {
		if logger != nil {
			engine.logger = logger
		}
	}
}

// DataFilePath returns the resolved snapshot path, or "" when none is configured.
func (se *StorageEngine) DataFilePath() string {
	if se.dataFile == "" {
		return ""
	}
	if filepath.IsAbs(se.dataFile) {
		return se.dataFile
	}
	return filepath.Join(se.dataDir, se.dataFile)
}
