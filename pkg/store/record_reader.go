package store

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ssargent/iso2709/pkg/iso2709"
)

// RecordReader provides sequential and positional access to a file of
// concatenated ISO 2709 records. Line breaks between records are skipped.
type RecordReader struct {
	file    *os.File
	scanner *bufio.Scanner
	config  RecordReaderConfig

	consumed int64 // bytes consumed by the scanner since the last seek
	base     int64 // offset of the last seek
	offset   int64 // offset of the most recently read record
}

// NewRecordReader opens the file for reading
func NewRecordReader(config RecordReaderConfig) (*RecordReader, error) {
	file, err := os.Open(config.FilePath)
	if err != nil {
		return nil, err
	}

	r := &RecordReader{file: file, config: config}
	if err := r.Seek(config.StartOffset); err != nil {
		file.Close()
		return nil, err
	}
	return r, nil
}

// newScanner frames records from src and counts the bytes consumed.
func newScanner(src io.Reader, consumed *int64) *bufio.Scanner {
	s := bufio.NewScanner(src)
	s.Buffer(make([]byte, 0, 4096), 2*iso2709.MaxRecordLength)
	s.Split(func(data []byte, atEOF bool) (int, []byte, error) {
		advance, token, err := iso2709.ScanRecords(data, atEOF)
		*consumed += int64(advance)
		return advance, token, err
	})
	return s
}

// ReadNext reads the record at the current position. It returns io.EOF at
// the end of the file and an error wrapping ErrCorruption for truncated or
// malformed records.
func (r *RecordReader) ReadNext() (*iso2709.Record, error) {
	if r.scanner == nil {
		return nil, ErrClosed
	}
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return nil, r.corruption(r.base+r.consumed, err)
		}
		return nil, io.EOF
	}
	token := r.scanner.Bytes()
	r.offset = r.base + r.consumed - int64(len(token))

	data := make([]byte, len(token))
	copy(data, token)
	rec, err := iso2709.ParseRecord(data, r.config.Options...)
	if err != nil {
		return nil, r.corruption(r.offset, err)
	}
	return rec, nil
}

func (r *RecordReader) corruption(offset int64, err error) error {
	if !errors.Is(err, iso2709.ErrFormat) {
		return err
	}
	log.Warnw("corrupt record", "path", r.config.FilePath, "offset", offset, "error", err)
	return fmt.Errorf("%w at offset %d: %v", ErrCorruption, offset, err)
}

// ReadAt reads the record starting at offset without moving the
// sequential position.
func (r *RecordReader) ReadAt(offset int64) (*iso2709.Record, error) {
	// Reopen so records appended after this reader was created are visible.
	file, err := os.Open(r.config.FilePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return nil, err
	}

	var consumed int64
	s := newScanner(file, &consumed)
	if !s.Scan() {
		if err := s.Err(); err != nil {
			return nil, r.corruption(offset, err)
		}
		return nil, fmt.Errorf("%w: no record at offset %d", ErrCorruption, offset)
	}
	if consumed != int64(len(s.Bytes())) {
		// Line breaks at offset; the caller asked for a position that is
		// not the start of a record.
		return nil, fmt.Errorf("%w: offset %d is not a record boundary", ErrCorruption, offset)
	}

	data := make([]byte, len(s.Bytes()))
	copy(data, s.Bytes())
	rec, err := iso2709.ParseRecord(data, r.config.Options...)
	if err != nil {
		return nil, r.corruption(offset, err)
	}
	return rec, nil
}

// Seek moves the sequential read position to offset.
func (r *RecordReader) Seek(offset int64) error {
	if r.file == nil {
		return ErrClosed
	}
	if _, err := r.file.Seek(offset, io.SeekStart); err != nil {
		return err
	}
	r.base = offset
	r.consumed = 0
	r.offset = offset
	r.scanner = newScanner(r.file, &r.consumed)
	return nil
}

// Offset returns the offset of the most recently read record
func (r *RecordReader) Offset() int64 {
	return r.offset
}

// Iterator returns a streaming iterator over the remaining records
func (r *RecordReader) Iterator() RecordIterator {
	return &recordIterator{reader: r}
}

// Close closes the record reader
func (r *RecordReader) Close() error {
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	r.scanner = nil
	return err
}

// recordIterator implements RecordIterator for streaming access
type recordIterator struct {
	reader *RecordReader
	record *iso2709.Record
	offset int64
	err    error
}

func (it *recordIterator) Next() bool {
	if it.err != nil {
		return false
	}
	it.record, it.err = it.reader.ReadNext()
	if it.err != nil {
		it.record = nil
		return false
	}
	it.offset = it.reader.Offset()
	return true
}

func (it *recordIterator) Record() *iso2709.Record {
	return it.record
}

func (it *recordIterator) Offset() int64 {
	return it.offset
}

// Err returns the error that stopped iteration, or nil at end of file.
func (it *recordIterator) Err() error {
	if errors.Is(it.err, io.EOF) {
		return nil
	}
	return it.err
}

func (it *recordIterator) Close() error {
	// Don't close the underlying reader as it's owned by the caller
	return nil
}
