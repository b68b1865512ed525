package codec

import (
	"errors"
	"fmt"

	"github.com/ssargent/iso2709/pkg/iso2709"
)

// ErrInvalidRecord is returned by Validate for documents that cannot be
// encoded as a well-formed record.
var ErrInvalidRecord = errors.New("codec: invalid record")

// Record is the document form of an ISO 2709 record. Empty label strings
// mean "leave the default" when encoding.
type Record struct {
	Status       string  `json:"status,omitempty" yaml:"status,omitempty"`
	ImplCodes    string  `json:"impl_codes,omitempty" yaml:"impl_codes,omitempty"`
	SystemChars  string  `json:"system_chars,omitempty" yaml:"system_chars,omitempty"`
	ReservedChar string  `json:"reserved_char,omitempty" yaml:"reserved_char,omitempty"`
	Fields       []Field `json:"fields" yaml:"fields"`
}

// Field is either a reference field (Value set) or a data field
// (Indicators and Subfields set), depending on its tag.
type Field struct {
	Tag             string     `json:"tag" yaml:"tag"`
	ImplDefinedPart string     `json:"impl_defined_part,omitempty" yaml:"impl_defined_part,omitempty"`
	Value           string     `json:"value,omitempty" yaml:"value,omitempty"`
	Indicators      string     `json:"indicators,omitempty" yaml:"indicators,omitempty"`
	Subfields       []Subfield `json:"subfields,omitempty" yaml:"subfields,omitempty"`
	// ExtraImplDefinedParts holds the implementation-defined parts of the
	// continuation entries of a field spanning several directory entries.
	ExtraImplDefinedParts []string `json:"extra_impl_defined_parts,omitempty" yaml:"extra_impl_defined_parts,omitempty"`
}

// Subfield is one identifier/value pair of a data field.
type Subfield struct {
	Code  string `json:"code" yaml:"code"`
	Value string `json:"value" yaml:"value"`
}

// IsReference reports whether f is a reference field.
func (f *Field) IsReference() bool { return iso2709.IsReferenceTag(f.Tag) }

// ID returns the value of the identifier field, or "" if there is none.
func (r *Record) ID() string {
	for i := range r.Fields {
		if r.Fields[i].Tag == iso2709.RecordIDTag {
			return r.Fields[i].Value
		}
	}
	return ""
}

// Field returns the first field with the given tag.
func (r *Record) Field(tag string) (*Field, bool) {
	for i := range r.Fields {
		if r.Fields[i].Tag == tag {
			return &r.Fields[i], true
		}
	}
	return nil, false
}

// Validate checks the document shape: reference fields carry no
// indicators or subfields, data fields carry no value, and the identifier
// field appears at most once and first. Content and length checks are left
// to the encoder.
func (r *Record) Validate() error {
	seenID := false
	for i := range r.Fields {
		f := &r.Fields[i]
		switch {
		case iso2709.IsReferenceTag(f.Tag):
			if f.Indicators != "" || len(f.Subfields) > 0 {
				return fmt.Errorf("%w: reference field %s at %d has indicators or subfields", ErrInvalidRecord, f.Tag, i)
			}
			if f.Tag == iso2709.RecordIDTag {
				if seenID {
					return fmt.Errorf("%w: duplicate identifier field at %d", ErrInvalidRecord, i)
				}
				if i != 0 {
					return fmt.Errorf("%w: identifier field at %d must be the first field", ErrInvalidRecord, i)
				}
				seenID = true
			}
		case iso2709.IsDataTag(f.Tag):
			if f.Value != "" {
				return fmt.Errorf("%w: data field %s at %d has a value", ErrInvalidRecord, f.Tag, i)
			}
		default:
			return fmt.Errorf("%w: invalid tag %q at %d", ErrInvalidRecord, f.Tag, i)
		}
	}
	return nil
}

// documentHandler rebuilds a Record from decoder events.
type documentHandler struct {
	rec *Record
}

func (h *documentHandler) last() *Field { return &h.rec.Fields[len(h.rec.Fields)-1] }

func (h *documentHandler) ReferenceField(tag, implDefinedPart, value string) {
	h.rec.Fields = append(h.rec.Fields, Field{Tag: tag, ImplDefinedPart: implDefinedPart, Value: value})
}

func (h *documentHandler) StartDataField(tag, implDefinedPart, indicators string) {
	h.rec.Fields = append(h.rec.Fields, Field{Tag: tag, ImplDefinedPart: implDefinedPart, Indicators: indicators})
}

func (h *documentHandler) EndDataField() {}

func (h *documentHandler) AdditionalImplDefinedPart(implDefinedPart string) {
	f := h.last()
	f.ExtraImplDefinedParts = append(f.ExtraImplDefinedParts, implDefinedPart)
}

func (h *documentHandler) Data(identifier, value string) {
	f := h.last()
	f.Subfields = append(f.Subfields, Subfield{Code: identifier, Value: value})
}
