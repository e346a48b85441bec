package storage

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/pierrec/lz4/v4"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"

	"github.com/adfharrison1/lookupdb/pkg/domain"
	"github.com/adfharrison1/lookupdb/pkg/indexing"
)

// SaveToFile writes a compressed snapshot of every collection, view and
// index definition. The file is replaced atomically.
func (se *StorageEngine) SaveToFile(filename string) error {
	se.mu.RLock()
	storageData := se.snapshot()
	version := se.version
	se.mu.RUnlock()

	storageData.Metadata["saved_at"] = time.Now().UTC()
	msgpackData, err := msgpack.Marshal(storageData)
	if err != nil {
		return fmt.Errorf("failed to encode MessagePack: %w", err)
	}
	compressedData := make([]byte, lz4.CompressBlockBound(len(msgpackData)))
	var hashTable [1 << 16]int
	n, err := lz4.CompressBlock(msgpackData, compressedData, hashTable[:])
	if err != nil {
		return fmt.Errorf("failed to compress data: %w", err)
	}
	compressedData = compressedData[:n]

	var buf bytes.Buffer
	if err := WriteHeader(&buf, len(msgpackData)); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	buf.Write(compressedData)

	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	// Write to temporary file first, then rename (atomic operation)
	tempFile := filename + ".tmp"
	if err := os.WriteFile(tempFile, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := os.Rename(tempFile, filename); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename snapshot: %w", err)
	}

	se.mu.Lock()
	if version > se.savedVersion {
		se.savedVersion = version
	}
	se.mu.Unlock()

	se.logger.Debug("snapshot saved",
		zap.String("file", filename),
		zap.Int("raw_bytes", len(msgpackData)),
		zap.Int("compressed_bytes", len(compressedData)))
	return nil
}

// snapshot copies the engine state; caller must hold se.mu.
func (se *StorageEngine) snapshot() *StorageData {
	storageData := NewStorageData()
	exported := se.indexEngine.ExportSpecs()
	for collName, collection := range se.collections {
		docs := make(map[string]map[string]interface{}, len(collection.Documents))
		for docID, doc := range collection.Documents {
			docCopy := make(map[string]interface{}, len(doc))
			for k, v := range doc {
				docCopy[k] = v
			}
			docs[docID] = docCopy
		}
		storageData.Collections[collName] = CollectionData{
			Kind:      collection.Kind,
			ViewOn:    collection.ViewOn,
			Documents: docs,
			Indexes:   exported[collName],
		}
	}
	return storageData
}

// LoadFromFile replaces the engine state with the snapshot in filename. A
// missing file leaves the engine empty and is not an error.
func (se *StorageEngine) LoadFromFile(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	header, err := ReadHeader(file)
	if err != nil {
		return fmt.Errorf("invalid file header: %w", err)
	}
	compressedData, err := io.ReadAll(file)
	if err != nil {
		return fmt.Errorf("failed to read compressed data: %w", err)
	}
	decompressedData := make([]byte, header.RawSize)
	n, err := lz4.UncompressBlock(compressedData, decompressedData)
	if err != nil {
		return fmt.Errorf("failed to decompress data: %w", err)
	}
	var storageData StorageData
	if err := msgpack.Unmarshal(decompressedData[:n], &storageData); err != nil {
		return fmt.Errorf("failed to decode MessagePack: %w", err)
	}

	collections, indexEngine, err := restore(&storageData)
	if err != nil {
		return fmt.Errorf("failed to restore %s: %w", filename, err)
	}

	se.mu.Lock()
	se.collections = collections
	se.indexEngine = indexEngine
	se.version++
	se.savedVersion = se.version
	se.mu.Unlock()

	se.logger.Info("snapshot loaded",
		zap.String("file", filename),
		zap.Int("collections", len(collections)))
	return nil
}

func restore(storageData *StorageData) (map[string]*domain.Collection, *indexing.IndexEngine, error) {
	collections := make(map[string]*domain.Collection, len(storageData.Collections))
	indexEngine := indexing.NewIndexEngine()

	names := make([]string, 0, len(storageData.Collections))
	for name := range storageData.Collections {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		data := storageData.Collections[name]
		var collection *domain.Collection
		if data.Kind == domain.KindView {
			collection = domain.NewView(name, data.ViewOn)
		} else {
			collection = domain.NewCollection(name)
		}
		for docID, doc := range data.Documents {
			collection.Documents[docID] = domain.Document(doc)
		}
		for _, spec := range data.Indexes {
			if _, err := indexEngine.BuildIndexForCollection(name, spec, collection); err != nil {
				return nil, nil, err
			}
		}
		collections[name] = collection
	}
	return collections, indexEngine, nil
}
