package storage

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	logging "github.com/ipfs/go-log/v2"
	"github.com/segmentio/ksuid"

	"github.com/ssargent/iso2709/pkg/iso2709"
)

var log = logging.Logger("iso2709/storage")

// ErrNotFound is returned when no record exists for an id.
var ErrNotFound = errors.New("storage: record not found")

var (
	recordPrefix = []byte("rec/")
	idPrefix     = []byte("id/")
)

// Options configures an Archive.
type Options struct {
	// InMemory keeps the database in memory; Path is then ignored.
	InMemory bool
	// Sync makes every write durable before it returns.
	Sync bool
}

// Archive stores validated ISO 2709 records in pebble, keyed by ksuid, with
// a secondary index from the identifier field (001) to the ksuid.
type Archive struct {
	db        *pebble.DB
	writeOpts *pebble.WriteOptions
}

// Open opens or creates an archive at path.
func Open(path string, opts Options) (*Archive, error) {
	po := &pebble.Options{}
	if opts.InMemory {
		po.FS = vfs.NewMem()
		path = ""
	}
	db, err := pebble.Open(path, po)
	if err != nil {
		return nil, fmt.Errorf("open archive %q: %w", path, err)
	}
	w := pebble.NoSync
	if opts.Sync {
		w = pebble.Sync
	}
	log.Debugw("archive opened", "path", path, "in_memory", opts.InMemory)
	return &Archive{db: db, writeOpts: w}, nil
}

func recordKey(id ksuid.KSUID) []byte {
	return append(append([]byte{}, recordPrefix...), id.Bytes()...)
}

func idKey(recordID string) []byte {
	return append(append([]byte{}, idPrefix...), recordID...)
}

// Put validates data as a single record and stores it under a new ksuid.
func (a *Archive) Put(data []byte) (ksuid.KSUID, error) {
	rec, err := iso2709.ParseRecord(data)
	if err != nil {
		return ksuid.Nil, fmt.Errorf("put record: %w", err)
	}

	id := ksuid.New()
	b := a.db.NewBatch()
	defer b.Close()

	if err := b.Set(recordKey(id), data, nil); err != nil {
		return ksuid.Nil, err
	}
	if recordID, ok := rec.RecordID(); ok && recordID != "" {
		if err := b.Set(idKey(recordID), id.Bytes(), nil); err != nil {
			return ksuid.Nil, err
		}
	}
	if err := b.Commit(a.writeOpts); err != nil {
		return ksuid.Nil, err
	}
	log.Debugw("record stored", "id", id.String(), "bytes", len(data))
	return id, nil
}

// Update replaces the record stored under id, keeping the id index current.
func (a *Archive) Update(id ksuid.KSUID, data []byte) error {
	rec, err := iso2709.ParseRecord(data)
	if err != nil {
		return fmt.Errorf("update record: %w", err)
	}
	old, err := a.Get(id)
	if err != nil {
		return err
	}

	b := a.db.NewBatch()
	defer b.Close()
	if err := a.unindex(b, id, old); err != nil {
		return err
	}
	if err := b.Set(recordKey(id), data, nil); err != nil {
		return err
	}
	if recordID, ok := rec.RecordID(); ok && recordID != "" {
		if err := b.Set(idKey(recordID), id.Bytes(), nil); err != nil {
			return err
		}
	}
	return b.Commit(a.writeOpts)
}

// Get returns a copy of the record stored under id.
func (a *Archive) Get(id ksuid.KSUID) ([]byte, error) {
	return a.get(recordKey(id))
}

func (a *Archive) get(key []byte) ([]byte, error) {
	value, closer, err := a.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	defer closer.Close()
	return append([]byte(nil), value...), nil
}

// Delete removes the record stored under id. If the id index pointed at it,
// the index moves to the newest remaining record with the same identifier,
// which costs a scan of the archive.
func (a *Archive) Delete(id ksuid.KSUID) error {
	data, err := a.Get(id)
	if err != nil {
		return err
	}
	b := a.db.NewBatch()
	defer b.Close()
	if err := a.unindex(b, id, data); err != nil {
		return err
	}
	if err := b.Delete(recordKey(id), nil); err != nil {
		return err
	}
	return b.Commit(a.writeOpts)
}

// unindex drops or repoints the id entry of a stored record if it still
// points at id.
func (a *Archive) unindex(b *pebble.Batch, id ksuid.KSUID, data []byte) error {
	rec, err := iso2709.ParseRecord(data)
	if err != nil {
		log.Warnw("stored record no longer parses", "id", id.String(), "error", err)
		return nil
	}
	recordID, ok := rec.RecordID()
	if !ok || recordID == "" {
		return nil
	}
	current, err := a.get(idKey(recordID))
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if !bytes.Equal(current, id.Bytes()) {
		return nil
	}
	next, found, err := a.latestHolder(recordID, id)
	if err != nil {
		return err
	}
	if found {
		return b.Set(idKey(recordID), next.Bytes(), nil)
	}
	return b.Delete(idKey(recordID), nil)
}

// latestHolder finds the newest record other than exclude whose identifier
// field is recordID.
func (a *Archive) latestHolder(recordID string, exclude ksuid.KSUID) (ksuid.KSUID, bool, error) {
	iter, err := a.db.NewIter(&pebble.IterOptions{
		LowerBound: recordPrefix,
		UpperBound: prefixEnd(recordPrefix),
	})
	if err != nil {
		return ksuid.Nil, false, err
	}
	defer iter.Close()

	excluded := recordKey(exclude)
	for iter.Last(); iter.Valid(); iter.Prev() {
		if bytes.Equal(iter.Key(), excluded) {
			continue
		}
		rec, err := iso2709.ParseRecord(iter.Value())
		if err != nil {
			continue
		}
		if holder, ok := rec.RecordID(); !ok || holder != recordID {
			continue
		}
		id, err := ksuid.FromBytes(iter.Key()[len(recordPrefix):])
		if err != nil {
			return ksuid.Nil, false, fmt.Errorf("bad key %q: %w", iter.Key(), err)
		}
		return id, true, nil
	}
	return ksuid.Nil, false, iter.Error()
}

// Lookup returns the ksuid of the most recently stored record whose
// identifier field equals recordID.
func (a *Archive) Lookup(recordID string) (ksuid.KSUID, error) {
	raw, err := a.get(idKey(recordID))
	if err != nil {
		return ksuid.Nil, err
	}
	return ksuid.FromBytes(raw)
}

// List returns up to limit record ids in key order, starting after the
// given id. A zero limit means no limit; ksuid.Nil starts at the beginning.
func (a *Archive) List(after ksuid.KSUID, limit int) ([]ksuid.KSUID, error) {
	lower := recordKey(after)
	if after == ksuid.Nil {
		lower = recordPrefix
	}
	iter, err := a.db.NewIter(&pebble.IterOptions{
		LowerBound: lower,
		UpperBound: prefixEnd(recordPrefix),
	})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var ids []ksuid.KSUID
	for iter.First(); iter.Valid(); iter.Next() {
		key := iter.Key()
		if after != ksuid.Nil && bytes.Equal(key, lower) {
			continue
		}
		id, err := ksuid.FromBytes(key[len(recordPrefix):])
		if err != nil {
			return nil, fmt.Errorf("list records: bad key %q: %w", key, err)
		}
		ids = append(ids, id)
		if limit > 0 && len(ids) == limit {
			break
		}
	}
	return ids, iter.Error()
}

// prefixEnd returns the smallest key greater than every key with prefix p.
func prefixEnd(p []byte) []byte {
	end := append([]byte(nil), p...)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}

// Close closes the underlying database.
func (a *Archive) Close() error {
	return a.db.Close()
}
