package storage

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileHeader_WriteAndRead(t *testing.T) {
	var buf bytes.Buffer
	err := WriteHeader(&buf, 4096)
	require.NoError(t, err)

	// 4 bytes magic + version + flags + 2 reserved + 4 bytes raw size
	assert.Len(t, buf.Bytes(), 12)

	header, err := ReadHeader(&buf)
	require.NoError(t, err)
	assert.Equal(t, MagicBytes, string(header.Magic[:]))
	assert.EqualValues(t, FormatVersion, header.Version)
	assert.Equal(t, uint32(4096), header.RawSize)
}

func TestWriteHeader_RejectsOversizedPayload(t *testing.T) {
	limit := uint64(math.MaxUint32)

	var buf bytes.Buffer
	require.NoError(t, WriteHeader(&buf, int(limit)))

	for _, size := range []int{int(limit + 1), -1} {
		buf.Reset()
		err := WriteHeader(&buf, size)
		require.Error(t, err, "size %d", size)
		assert.Contains(t, err.Error(), "does not fit the file header")
		assert.Zero(t, buf.Len())
	}
}

func TestFileHeader_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		header  FileHeader
		wantErr string
	}{
		{
			name:    "invalid magic",
			header:  FileHeader{Magic: [4]byte{'I', 'N', 'V', 'L'}, Version: FormatVersion},
			wantErr: "invalid file format",
		},
		{
			name:    "invalid version",
			header:  FileHeader{Magic: [4]byte{'L', 'K', 'D', 'B'}, Version: 99},
			wantErr: "unsupported file version",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, binary.Write(&buf, binary.LittleEndian, tt.header))

			_, err := ReadHeader(&buf)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestFileHeader_Truncated(t *testing.T) {
	_, err := ReadHeader(bytes.NewReader([]byte("LK")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read header")
}
