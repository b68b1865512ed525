// Package codec maps ISO 2709 records to and from a document model that
// serializes cleanly as JSON or YAML.
//
// The iso2709 package works with events: fields are appended to a builder
// one call at a time, and decoding reports fields to a handler. This
// package collects those events into a Record value so that records can be
// stored, edited and exchanged as documents.
//
// # Document Model
//
//	Record{Status, ImplCodes, SystemChars, ReservedChar, Fields}
//	Field{Tag, ImplDefinedPart, Value, Indicators, Subfields, ExtraImplDefinedParts}
//	Subfield{Code, Value}
//
// Whether a Field is a reference field or a data field follows from its tag:
// tags 001 to 009 and 00A to 00z are reference fields and use Value; every
// other valid tag is a data field and uses Indicators and Subfields.
//
// # Usage
//
//	c := codec.NewRecordCodec()
//
//	data, err := c.Encode(&codec.Record{
//	    Fields: []codec.Field{
//	        {Tag: "001", Value: "abc123"},
//	        {Tag: "245", Indicators: "1 ", Subfields: []codec.Subfield{{Code: "a", Value: "Title"}}},
//	    },
//	})
//
//	rec, err := c.Decode(data)
//
// # Error Handling
//
// Validate reports document shape problems wrapped around ErrInvalidRecord.
// Everything the record format itself rejects surfaces as an *iso2709.Error,
// so errors.Is(err, iso2709.ErrFormat) and friends work on Encode and Decode
// results.
//
// # Thread Safety
//
// RecordCodec instances are safe for concurrent use. Each codec keeps a
// sync.Pool of builders, so steady-state encoding does not allocate new
// builder buffers. Record values are plain data and are not synchronized.
package codec
