package store

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeRecords writes records for the given ids and returns their offsets.
func writeRecords(t *testing.T, filePath string, ids ...string) []int64 {
	t.Helper()
	writer, err := NewRecordWriter(RecordWriterConfig{FilePath: filePath})
	require.NoError(t, err)
	defer func() { require.NoError(t, writer.Close()) }()

	var offsets []int64
	for _, id := range ids {
		off, err := writer.Put(testRecord(id))
		require.NoError(t, err)
		offsets = append(offsets, off)
	}
	return offsets
}

func recordID(t *testing.T, r interface{ RecordID() (string, bool) }) string {
	t.Helper()
	id, ok := r.RecordID()
	require.True(t, ok)
	return id
}

func TestNewRecordReader_NonExistentFile(t *testing.T) {
	reader, err := NewRecordReader(RecordReaderConfig{FilePath: filepath.Join(t.TempDir(), "missing.iso")})
	assert.Error(t, err)
	assert.Nil(t, reader)
}

func TestRecordReader_ReadNext(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "records.iso")
	offsets := writeRecords(t, filePath, "1", "2", "3")

	reader, err := NewRecordReader(RecordReaderConfig{FilePath: filePath})
	require.NoError(t, err)
	defer reader.Close()

	for i, want := range []string{"1", "2", "3"} {
		rec, err := reader.ReadNext()
		require.NoError(t, err)
		assert.Equal(t, want, recordID(t, rec))
		assert.Equal(t, offsets[i], reader.Offset())
	}

	_, err = reader.ReadNext()
	assert.Equal(t, io.EOF, err)
}

func TestRecordReader_StartOffset(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "records.iso")
	offsets := writeRecords(t, filePath, "1", "2")

	reader, err := NewRecordReader(RecordReaderConfig{FilePath: filePath, StartOffset: offsets[1]})
	require.NoError(t, err)
	defer reader.Close()

	rec, err := reader.ReadNext()
	require.NoError(t, err)
	assert.Equal(t, "2", recordID(t, rec))
	assert.Equal(t, offsets[1], reader.Offset())
}

func TestRecordReader_ReadAtAndSeek(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "records.iso")
	offsets := writeRecords(t, filePath, "a", "b", "c")

	reader, err := NewRecordReader(RecordReaderConfig{FilePath: filePath})
	require.NoError(t, err)
	defer reader.Close()

	rec, err := reader.ReadAt(offsets[2])
	require.NoError(t, err)
	assert.Equal(t, "c", recordID(t, rec))

	// ReadAt does not move the sequential position.
	rec, err = reader.ReadNext()
	require.NoError(t, err)
	assert.Equal(t, "a", recordID(t, rec))

	require.NoError(t, reader.Seek(offsets[1]))
	rec, err = reader.ReadNext()
	require.NoError(t, err)
	assert.Equal(t, "b", recordID(t, rec))

	_, err = reader.ReadAt(offsets[1] + 3)
	assert.ErrorIs(t, err, ErrCorruption)
}

func TestRecordReader_LineSeparated(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "records.iso")
	one, two := encode(t, "1"), encode(t, "2")
	content := append(append(append([]byte{}, one...), "\r\n"...), two...)
	content = append(content, '\n')
	require.NoError(t, os.WriteFile(filePath, content, 0600))

	reader, err := NewRecordReader(RecordReaderConfig{FilePath: filePath})
	require.NoError(t, err)
	defer reader.Close()

	it := reader.Iterator()
	defer it.Close()

	var ids []string
	var offs []int64
	for it.Next() {
		ids = append(ids, recordID(t, it.Record()))
		offs = append(offs, it.Offset())
	}
	require.NoError(t, it.Err())
	assert.Equal(t, []string{"1", "2"}, ids)
	assert.Equal(t, []int64{0, int64(len(one) + 2)}, offs)
}

func TestRecordReader_Corruption(t *testing.T) {
	testCases := []struct {
		name    string
		content func(one []byte) []byte
	}{
		{
			name:    "truncated record",
			content: func(one []byte) []byte { return one[:len(one)-5] },
		},
		{
			name: "missing record terminator",
			content: func(one []byte) []byte {
				c := append([]byte{}, one...)
				c[len(c)-1] = 'x'
				return c
			},
		},
		{
			name:    "garbage length",
			content: func([]byte) []byte { return []byte("xxxxx     2200025   450 \x1e\x1d") },
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			filePath := filepath.Join(t.TempDir(), "records.iso")
			require.NoError(t, os.WriteFile(filePath, tc.content(encode(t, "1")), 0600))

			reader, err := NewRecordReader(RecordReaderConfig{FilePath: filePath})
			require.NoError(t, err)
			defer reader.Close()

			_, err = reader.ReadNext()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrCorruption), "got %v", err)
		})
	}
}

func TestRecordReader_IteratorStopsOnCorruption(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "records.iso")
	one := encode(t, "1")
	require.NoError(t, os.WriteFile(filePath, append(append([]byte{}, one...), "00099"...), 0600))

	reader, err := NewRecordReader(RecordReaderConfig{FilePath: filePath})
	require.NoError(t, err)
	defer reader.Close()

	it := reader.Iterator()
	require.True(t, it.Next())
	assert.False(t, it.Next())
	assert.False(t, it.Next())
	assert.ErrorIs(t, it.Err(), ErrCorruption)
}

func TestRecordReader_Closed(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "records.iso")
	writeRecords(t, filePath, "1")

	reader, err := NewRecordReader(RecordReaderConfig{FilePath: filePath})
	require.NoError(t, err)
	require.NoError(t, reader.Close())
	assert.NoError(t, reader.Close())

	_, err = reader.ReadNext()
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, reader.Seek(0), ErrClosed)
}
