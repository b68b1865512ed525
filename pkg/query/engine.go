package query

import (
	"context"
	"errors"
	"fmt"

	logging "github.com/ipfs/go-log/v2"
	"github.com/segmentio/ksuid"

	"github.com/ssargent/iso2709/pkg/iso2709"
	"github.com/ssargent/iso2709/pkg/storage"
)

var log = logging.Logger("iso2709/query")

const scanPageSize = 256

// Archive is the record source queries run against. *storage.Archive
// implements it.
type Archive interface {
	Get(id ksuid.KSUID) ([]byte, error)
	List(after ksuid.KSUID, limit int) ([]ksuid.KSUID, error)
}

// idLookup is implemented by archives that index the identifier field.
type idLookup interface {
	Lookup(recordID string) (ksuid.KSUID, error)
}

// ScanQueryEngine evaluates field queries by scanning the archive in id
// order. Equality queries on the identifier field use the archive's id
// index when it has one, and so return only the most recently stored record
// with that identifier.
type ScanQueryEngine struct {
	archive   Archive
	extractor FieldExtractor
	options   []iso2709.DecodeOption
}

// NewScanQueryEngine creates a new query engine. A nil extractor means
// RecordFieldExtractor.
func NewScanQueryEngine(archive Archive, extractor FieldExtractor, opts ...iso2709.DecodeOption) *ScanQueryEngine {
	if extractor == nil {
		extractor = &RecordFieldExtractor{}
	}
	return &ScanQueryEngine{archive: archive, extractor: extractor, options: opts}
}

// ExecuteQuery returns up to limit records with a field value matching
// query. A limit of 0 means no limit.
func (qe *ScanQueryEngine) ExecuteQuery(ctx context.Context, query FieldQuery, limit int) (QueryIterator, error) {
	if err := query.Validate(); err != nil {
		return nil, fmt.Errorf("invalid query: %w", err)
	}
	if query.Field == iso2709.RecordIDTag && query.Operator == OpEqual {
		if l, ok := qe.archive.(idLookup); ok {
			return qe.lookup(l, query.Value)
		}
	}
	return qe.scan(ctx, query.Field, limit, func(v string) bool { return query.Matches(v) })
}

// ExecuteRangeQuery returns records with a field value satisfying both
// conditions, e.g. ">= 1990" and "< 2000" on the same field.
func (qe *ScanQueryEngine) ExecuteRangeQuery(ctx context.Context, startQuery, endQuery FieldQuery, limit int) (QueryIterator, error) {
	if err := startQuery.Validate(); err != nil {
		return nil, fmt.Errorf("invalid start query: %w", err)
	}
	if err := endQuery.Validate(); err != nil {
		return nil, fmt.Errorf("invalid end query: %w", err)
	}

	// Ensure both queries are for the same field
	if startQuery.Field != endQuery.Field {
		return nil, fmt.Errorf("range query fields must match: %s != %s", startQuery.Field, endQuery.Field)
	}

	return qe.scan(ctx, startQuery.Field, limit, func(v string) bool {
		return startQuery.Matches(v) && endQuery.Matches(v)
	})
}

func (qe *ScanQueryEngine) lookup(l idLookup, recordID string) (QueryIterator, error) {
	id, err := l.Lookup(recordID)
	if errors.Is(err, storage.ErrNotFound) {
		log.Debugw("identifier lookup missed", "record_id", recordID)
		return &simpleIterator{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup %q: %w", recordID, err)
	}
	data, err := qe.archive.Get(id)
	if errors.Is(err, storage.ErrNotFound) {
		return &simpleIterator{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", id, err)
	}
	return &simpleIterator{results: []QueryResult{{ID: id, Data: data, Values: []string{recordID}}}}, nil
}

func (qe *ScanQueryEngine) scan(ctx context.Context, field string, limit int, match func(string) bool) (QueryIterator, error) {
	var results []QueryResult
	after := ksuid.Nil
	scanned := 0
	for {
		ids, err := qe.archive.List(after, scanPageSize)
		if err != nil {
			return nil, fmt.Errorf("list archive: %w", err)
		}
		for _, id := range ids {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			after = id
			data, err := qe.archive.Get(id)
			if errors.Is(err, storage.ErrNotFound) {
				// Deleted since the listing
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("get %s: %w", id, err)
			}
			scanned++
			rec, err := iso2709.ParseRecord(data, qe.options...)
			if err != nil {
				log.Warnw("skipping unparsable record", "id", id.String(), "error", err)
				continue
			}
			values, err := qe.extractor.Extract(rec, field)
			if err != nil {
				return nil, err
			}
			var matched []string
			for _, v := range values {
				if match(v) {
					matched = append(matched, v)
				}
			}
			if len(matched) == 0 {
				continue
			}
			results = append(results, QueryResult{ID: id, Data: data, Values: matched})
			if limit > 0 && len(results) == limit {
				log.Debugw("query finished", "field", field, "scanned", scanned, "matched", len(results))
				return &simpleIterator{results: results}, nil
			}
		}
		if len(ids) < scanPageSize {
			break
		}
	}
	log.Debugw("query finished", "field", field, "scanned", scanned, "matched", len(results))
	return &simpleIterator{results: results}, nil
}

// simpleIterator implements QueryIterator for in-memory results
type simpleIterator struct {
	results []QueryResult
	index   int
}

func (it *simpleIterator) Next() bool {
	if it.index >= len(it.results) {
		return false
	}
	it.index++
	return true
}

func (it *simpleIterator) Result() QueryResult {
	if it.index == 0 || it.index > len(it.results) {
		return QueryResult{}
	}
	return it.results[it.index-1]
}

func (it *simpleIterator) Close() error {
	it.results = nil
	return nil
}
