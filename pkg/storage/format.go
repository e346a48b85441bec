package storage

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/adfharrison1/lookupdb/pkg/domain"
)

const (
	// Magic bytes to identify our file format
	MagicBytes = "LKDB"
	// Current version
	FormatVersion = 1
	// File extension for snapshot files
	FileExtension = ".lkdb"
)

// FileHeader represents the header of our storage file
type FileHeader struct {
	Magic    [4]byte // "LKDB"
	Version  uint8   // Format version
	Flags    uint8   // Reserved for future use
	Reserved [2]byte // Reserved for future use
	RawSize  uint32  // Size of the msgpack payload before compression
}

// WriteHeader writes the file header to the given writer. rawSize must fit
// the header's 32-bit size field.
func WriteHeader(w io.Writer, rawSize int) error {
	if rawSize < 0 || uint64(rawSize) > math.MaxUint32 {
		return fmt.Errorf("snapshot payload of %d bytes does not fit the file header", rawSize)
	}
	header := FileHeader{
		Magic:   [4]byte{'L', 'K', 'D', 'B'},
		Version: FormatVersion,
		RawSize: uint32(rawSize),
	}

	return binary.Write(w, binary.LittleEndian, header)
}

// ReadHeader reads and validates the file header
func ReadHeader(r io.Reader) (*FileHeader, error) {
	var header FileHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	// Validate magic bytes
	if string(header.Magic[:]) != MagicBytes {
		return nil, fmt.Errorf("invalid file format: expected %s, got %s", MagicBytes, string(header.Magic[:]))
	}

	// Validate version
	if header.Version != FormatVersion {
		return nil, fmt.Errorf("unsupported file version: %d", header.Version)
	}

	return &header, nil
}

// StorageData represents the actual data structure we store
type StorageData struct {
	Collections map[string]CollectionData `msgpack:"collections"`
	Metadata    map[string]interface{}    `msgpack:"metadata,omitempty"`
}

// CollectionData is the persisted form of one namespace: its kind, its
// documents and the definitions of its indexes. Index contents are rebuilt
// on load.
type CollectionData struct {
	Kind      domain.CollectionKind             `msgpack:"kind"`
	ViewOn    string                            `msgpack:"view_on,omitempty"`
	Documents map[string]map[string]interface{} `msgpack:"documents"`
	Indexes   []domain.IndexSpec                `msgpack:"indexes,omitempty"`
}

// NewStorageData creates a new empty storage data structure
func NewStorageData() *StorageData {
	return &StorageData{
		Collections: make(map[string]CollectionData),
		Metadata:    make(map[string]interface{}),
	}
}
