package storage

import (
	"time"

	"go.uber.org/zap"
)

// StartBackgroundWorkers starts the periodic snapshot worker when background
// saves and a data file are configured.
func (se *StorageEngine) StartBackgroundWorkers() {
	if !se.backgroundSave || se.DataFilePath() == "" {
		return
	}

	se.backgroundWg.Add(1)
	go func() {
		defer se.backgroundWg.Done()
		ticker := time.NewTicker(se.saveInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				se.saveIfDirty()
			case <-se.stopChan:
				return
			}
		}
	}()
}

// StopBackgroundWorkers stops background workers. Safe to call more than once.
func (se *StorageEngine) StopBackgroundWorkers() {
	se.stopOnce.Do(func() { close(se.stopChan) })
	se.backgroundWg.Wait()
}

func (se *StorageEngine) saveIfDirty() {
	if !se.IsDirty() {
		return
	}
	start := time.Now()
	path := se.DataFilePath()
	if err := se.SaveToFile(path); err != nil {
		se.logger.Error("background save failed", zap.String("file", path), zap.Error(err))
		return
	}
	se.logger.Info("background save completed",
		zap.String("file", path),
		zap.Duration("elapsed", time.Since(start)))
}
