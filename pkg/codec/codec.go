package codec

import (
	"fmt"
	"sync"

	"golang.org/x/text/encoding"

	"github.com/ssargent/iso2709/pkg/iso2709"
)

// Option configures a RecordCodec.
type Option func(*RecordCodec)

// WithFormat sets the record format used for encoding. Decoding always
// follows the format in the record label.
func WithFormat(f iso2709.RecordFormat) Option {
	return func(c *RecordCodec) { c.format = f }
}

// WithCharset sets the character set for both directions.
func WithCharset(enc encoding.Encoding) Option {
	return func(c *RecordCodec) { c.charset = enc }
}

// WithContinuedFields enables continuation entries for long fields.
func WithContinuedFields() Option {
	return func(c *RecordCodec) { c.continuedFields = true }
}

// RecordCodec converts between Record documents and serialized records.
// It is safe for concurrent use; builders are pooled per codec.
type RecordCodec struct {
	format          iso2709.RecordFormat
	charset         encoding.Encoding
	continuedFields bool

	pool sync.Pool
}

// NewRecordCodec creates a codec. Without options it encodes the MARC 21
// layout (2/2/4/5/0) in 7-bit ASCII.
func NewRecordCodec(opts ...Option) *RecordCodec {
	c := &RecordCodec{
		format:  iso2709.DefaultRecordFormat,
		charset: iso2709.DefaultCharset,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.pool.New = func() any {
		bopts := []iso2709.BuilderOption{iso2709.WithCharset(c.charset)}
		if c.continuedFields {
			bopts = append(bopts, iso2709.WithContinuedFields())
		}
		b, err := iso2709.NewRecordBuilder(c.format, bopts...)
		if err != nil {
			return err
		}
		return b
	}
	return c
}

// Format returns the encoding format.
func (c *RecordCodec) Format() iso2709.RecordFormat { return c.format }

func (c *RecordCodec) builder() (*iso2709.RecordBuilder, error) {
	switch v := c.pool.Get().(type) {
	case *iso2709.RecordBuilder:
		v.Reset()
		return v, nil
	case error:
		return nil, v
	default:
		return nil, fmt.Errorf("codec: unexpected pooled value %T", v)
	}
}

// Encode serializes rec. The returned slice is owned by the caller.
func (c *RecordCodec) Encode(rec *Record) ([]byte, error) {
	if err := rec.Validate(); err != nil {
		return nil, err
	}
	b, err := c.builder()
	if err != nil {
		return nil, err
	}
	defer c.pool.Put(b)

	if err := setLabel(b, rec); err != nil {
		return nil, err
	}
	for i := range rec.Fields {
		if err := appendField(b, &rec.Fields[i]); err != nil {
			return nil, fmt.Errorf("field %d: %w", i, err)
		}
	}
	return b.Build()
}

// Decode parses data into a Record.
func (c *RecordCodec) Decode(data []byte) (*Record, error) {
	parsed, err := iso2709.ParseRecord(data, iso2709.WithDecodeCharset(c.charset))
	if err != nil {
		return nil, err
	}
	return FromParsed(parsed), nil
}

// FromParsed converts an already parsed record into its document form.
func FromParsed(parsed *iso2709.Record) *Record {
	l := parsed.Label()
	rec := &Record{
		Status:       string(l.RecordStatus()),
		ImplCodes:    l.ImplCodes(),
		SystemChars:  l.SystemChars(),
		ReservedChar: string(l.ReservedChar()),
		Fields:       make([]Field, 0, parsed.NumFields()),
	}
	parsed.ProcessFields(&documentHandler{rec: rec})
	return rec
}

func setLabel(b *iso2709.RecordBuilder, rec *Record) error {
	if rec.Status != "" {
		if len(rec.Status) != 1 {
			return fmt.Errorf("%w: status must be one character", ErrInvalidRecord)
		}
		if err := b.SetRecordStatus(rec.Status[0]); err != nil {
			return err
		}
	}
	if rec.ImplCodes != "" {
		if err := b.SetImplCodes(rec.ImplCodes); err != nil {
			return err
		}
	}
	if rec.SystemChars != "" {
		if err := b.SetSystemChars(rec.SystemChars); err != nil {
			return err
		}
	}
	if rec.ReservedChar != "" {
		if len(rec.ReservedChar) != 1 {
			return fmt.Errorf("%w: reserved char must be one character", ErrInvalidRecord)
		}
		if err := b.SetReservedChar(rec.ReservedChar[0]); err != nil {
			return err
		}
	}
	return nil
}

// appendField writes f. ExtraImplDefinedParts are not written; the builder
// repeats the field's own implementation-defined part on continuations.
func appendField(b *iso2709.RecordBuilder, f *Field) error {
	if f.Tag == iso2709.RecordIDTag {
		return b.AppendIdentifierField(f.ImplDefinedPart, f.Value)
	}
	if f.IsReference() {
		return b.AppendReferenceField(f.Tag, f.ImplDefinedPart, f.Value)
	}
	if err := b.StartDataField(f.Tag, f.ImplDefinedPart, f.Indicators); err != nil {
		return err
	}
	for _, sf := range f.Subfields {
		if err := b.AppendSubfield(sf.Code, sf.Value); err != nil {
			return err
		}
	}
	return b.EndDataField()
}
