package query

import (
	"context"
	"fmt"
	"strings"

	"github.com/segmentio/ksuid"

	"github.com/ssargent/iso2709/pkg/iso2709"
)

// FieldExtractor defines how to extract field values from a record
type FieldExtractor interface {
	Extract(rec *iso2709.Record, field string) ([]string, error)
}

// FieldPath selects values in a record: "TAG" or "TAG$CODE".
type FieldPath struct {
	Tag  string
	Code string // subfield identifier, "" for the whole field
}

// ParseFieldPath parses "001", "245" or "245$a".
func ParseFieldPath(field string) (FieldPath, error) {
	tag, code, hasCode := strings.Cut(field, "$")
	if !iso2709.IsReferenceTag(tag) && !iso2709.IsDataTag(tag) {
		return FieldPath{}, fmt.Errorf("invalid tag %q in field %q", tag, field)
	}
	if hasCode && code == "" {
		return FieldPath{}, fmt.Errorf("empty subfield code in field %q", field)
	}
	if hasCode && iso2709.IsReferenceTag(tag) {
		return FieldPath{}, fmt.Errorf("reference field %s has no subfields", tag)
	}
	return FieldPath{Tag: tag, Code: code}, nil
}

// RecordFieldExtractor extracts values from parsed records. A reference
// field yields its value, a data field the values of its subfields, and
// TAG$CODE only the subfields with that identifier. Repeated fields yield
// one value per occurrence.
type RecordFieldExtractor struct{}

type extractHandler struct {
	path   FieldPath
	inData bool
	values []string
}

func (h *extractHandler) ReferenceField(tag, implDefinedPart, value string) {
	if tag == h.path.Tag {
		h.values = append(h.values, value)
	}
}

func (h *extractHandler) StartDataField(tag, implDefinedPart, indicators string) {
	h.inData = tag == h.path.Tag
}

func (h *extractHandler) AdditionalImplDefinedPart(string) {}

func (h *extractHandler) Data(identifier, value string) {
	if h.inData && (h.path.Code == "" || identifier == h.path.Code) {
		h.values = append(h.values, value)
	}
}

func (h *extractHandler) EndDataField() { h.inData = false }

// Extract implements FieldExtractor for ISO 2709 records
func (e *RecordFieldExtractor) Extract(rec *iso2709.Record, field string) ([]string, error) {
	path, err := ParseFieldPath(field)
	if err != nil {
		return nil, err
	}
	h := &extractHandler{path: path}
	rec.ProcessFields(h)
	return h.values, nil
}

// Operators
const (
	OpEqual        = "="
	OpNotEqual     = "!="
	OpLess         = "<"
	OpLessEqual    = "<="
	OpGreater      = ">"
	OpGreaterEqual = ">="
	OpPrefix       = "prefix"
	OpContains     = "contains"
)

// FieldQuery represents a single field-based query condition
type FieldQuery struct {
	Field    string `json:"field"`    // Field path to query (e.g., "001", "245$a")
	Operator string `json:"operator"` // Comparison operator, one of the Op constants
	Value    string `json:"value"`    // Value to compare against
}

// Validate checks if the query is properly formed
func (q *FieldQuery) Validate() error {
	if q.Field == "" {
		return fmt.Errorf("field name cannot be empty")
	}
	if _, err := ParseFieldPath(q.Field); err != nil {
		return err
	}
	if q.Operator == "" {
		return fmt.Errorf("operator cannot be empty")
	}
	switch q.Operator {
	case OpEqual, OpNotEqual, OpLess, OpLessEqual, OpGreater, OpGreaterEqual, OpPrefix, OpContains:
		return nil
	}
	return fmt.Errorf("invalid operator: %s", q.Operator)
}

// Matches reports whether v satisfies the condition. Ordering operators
// compare strings byte-wise.
func (q *FieldQuery) Matches(v string) bool {
	switch q.Operator {
	case OpEqual:
		return v == q.Value
	case OpNotEqual:
		return v != q.Value
	case OpLess:
		return v < q.Value
	case OpLessEqual:
		return v <= q.Value
	case OpGreater:
		return v > q.Value
	case OpGreaterEqual:
		return v >= q.Value
	case OpPrefix:
		return strings.HasPrefix(v, q.Value)
	case OpContains:
		return strings.Contains(v, q.Value)
	}
	return false
}

// QueryResult represents a single query result
type QueryResult struct {
	ID   ksuid.KSUID // Archive id of the record
	Data []byte      // The raw record
	// Values are the field values that matched.
	Values []string
}

// QueryIterator provides streaming access to query results
type QueryIterator interface {
	Next() bool
	Result() QueryResult
	Close() error
}

// QueryEngine handles query execution
type QueryEngine interface {
	ExecuteQuery(ctx context.Context, query FieldQuery, limit int) (QueryIterator, error)
	ExecuteRangeQuery(ctx context.Context, startQuery, endQuery FieldQuery, limit int) (QueryIterator, error)
}
