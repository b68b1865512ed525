package store

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ssargent/iso2709/pkg/codec"
	"github.com/ssargent/iso2709/pkg/iso2709"
)

// RecordWriter appends records to a file of concatenated ISO 2709 records
type RecordWriter struct {
	file       *os.File
	writer     *bufio.Writer
	codec      *codec.RecordCodec
	fsyncTimer *time.Timer
	config     RecordWriterConfig
	mutex      sync.Mutex
	offset     int64 // Current write offset
	closed     bool
}

// NewRecordWriter opens or creates the file and positions at its end
func NewRecordWriter(config RecordWriterConfig) (*RecordWriter, error) {
	if err := os.MkdirAll(filepath.Dir(config.FilePath), 0750); err != nil {
		return nil, err
	}

	file, err := os.OpenFile(config.FilePath, os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil, err
	}

	offset, err := file.Seek(0, io.SeekEnd)
	if err != nil {
		if closeErr := file.Close(); closeErr != nil {
			log.Warnf("closing %s: %v", config.FilePath, closeErr)
		}
		return nil, err
	}

	if config.BufferSize <= 0 {
		config.BufferSize = 64 * 1024
	}
	c := config.Codec
	if c == nil {
		c = codec.NewRecordCodec()
	}

	w := &RecordWriter{
		file:   file,
		writer: bufio.NewWriterSize(file, config.BufferSize),
		codec:  c,
		config: config,
		offset: offset,
	}

	if config.FsyncInterval > 0 {
		w.fsyncTimer = time.AfterFunc(config.FsyncInterval, func() {
			w.mutex.Lock()
			defer w.mutex.Unlock()
			if w.closed {
				return
			}
			if err := w.sync(); err != nil {
				log.Errorw("periodic fsync failed", "path", config.FilePath, "error", err)
			}
		})
	}

	log.Debugw("opened record file", "path", config.FilePath, "offset", offset)
	return w, nil
}

// Append validates data as a single record and appends it. It returns the
// offset at which the record starts.
func (w *RecordWriter) Append(data []byte) (int64, error) {
	if _, err := iso2709.ParseRecord(data); err != nil {
		return 0, fmt.Errorf("append record: %w", err)
	}
	return w.write(data)
}

// Put encodes rec and appends it.
func (w *RecordWriter) Put(rec *codec.Record) (int64, error) {
	data, err := w.codec.Encode(rec)
	if err != nil {
		return 0, fmt.Errorf("encode record: %w", err)
	}
	return w.write(data)
}

func (w *RecordWriter) write(data []byte) (int64, error) {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if w.closed {
		return 0, ErrClosed
	}

	n, err := w.writer.Write(data)
	if err != nil {
		return 0, err
	}

	recordOffset := w.offset
	w.offset += int64(n)

	if w.config.FsyncInterval == 0 {
		if err := w.sync(); err != nil {
			return 0, err
		}
	} else if w.fsyncTimer != nil {
		w.fsyncTimer.Reset(w.config.FsyncInterval)
	}

	return recordOffset, nil
}

// Sync forces a fsync to disk
func (w *RecordWriter) Sync() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	if w.closed {
		return ErrClosed
	}
	return w.sync()
}

func (w *RecordWriter) sync() error {
	if err := w.writer.Flush(); err != nil {
		return err
	}
	return w.file.Sync()
}

// Close flushes, syncs and closes the file
func (w *RecordWriter) Close() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	if w.fsyncTimer != nil {
		w.fsyncTimer.Stop()
	}

	if err := w.sync(); err != nil {
		if closeErr := w.file.Close(); closeErr != nil {
			log.Warnf("closing %s: %v", w.config.FilePath, closeErr)
		}
		return err
	}

	return w.file.Close()
}

// Size returns the current size of the record file
func (w *RecordWriter) Size() int64 {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return w.offset
}

// Path returns the file path
func (w *RecordWriter) Path() string {
	return w.config.FilePath
}
