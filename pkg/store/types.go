package store

import (
	"time"

	logging "github.com/ipfs/go-log/v2"

	"github.com/ssargent/iso2709/pkg/codec"
	"github.com/ssargent/iso2709/pkg/iso2709"
)

var log = logging.Logger("iso2709/store")

// RecordWriterConfig holds configuration for the record writer
type RecordWriterConfig struct {
	FilePath      string        // Path to the record file
	FsyncInterval time.Duration // How often to fsync (0 = every write)
	BufferSize    int           // Write buffer size
	// Codec encodes documents passed to Put. Defaults to the MARC 21 layout.
	Codec *codec.RecordCodec
}

// RecordReaderConfig holds configuration for the record reader
type RecordReaderConfig struct {
	FilePath    string // Path to the record file
	StartOffset int64  // Offset to start reading from
	// Options are passed to iso2709.ParseRecord for every record read.
	Options []iso2709.DecodeOption
}

// RecordIterator provides streaming access to records
type RecordIterator interface {
	Next() bool
	Record() *iso2709.Record
	// Offset is the file offset of the current record.
	Offset() int64
	Err() error
	Close() error
}

// Errors
var (
	ErrCorruption = &StoreError{"data corruption detected"}
	ErrClosed     = &StoreError{"record file closed"}
)

// StoreError represents a record file error
type StoreError struct {
	Message string
}

func (e *StoreError) Error() string {
	return e.Message
}
