// Package iso2709 encodes and decodes records in the ISO 2709:2008 exchange
// format, the layout underlying MARC 21 and related bibliographic formats.
//
// # Record Layout
//
// A record is the concatenation of three parts:
//
//	[Label(24)][Directory][Field area]
//
// The label holds the record length, a record status, four implementation
// codes, the five format digits, the base address of the field area, three
// system characters and a reserved character. The directory holds one
// fixed-width entry per field and ends with a field terminator (0x1e):
//
//	[Tag(3)][FieldLength(n)][FieldStart(m)][ImplDefinedPart(k)]
//
// n, m and k are the field length length, field start length and
// implementation-defined part length stored in the label; together with the
// indicator length and identifier length they form a RecordFormat. Every
// field ends with a field terminator and the record ends with a record
// terminator (0x1d).
//
// Reference fields (tags 001-009 and 00A-00z) carry a single value. Data
// fields carry indicator characters followed by subfields, each introduced
// by a unit separator (0x1f) and an identifier code:
//
//	[Indicators][0x1f][Code][Value][0x1f][Code][Value]...[0x1e]
//
// # Encoding
//
// RecordBuilder enforces the field order identifier field, reference
// fields, data fields:
//
//	b, err := iso2709.NewRecordBuilder(iso2709.DefaultRecordFormat)
//	if err != nil {
//	    return err
//	}
//	_ = b.AppendIdentifierField("", "abc123")
//	_ = b.StartDataField("245", "", "10")
//	_ = b.AppendSubfield("a", "Title")
//	_ = b.EndDataField()
//	record, err := b.Build()
//
// # Decoding
//
// ParseRecord validates a record and ProcessFields replays its fields to a
// FieldHandler:
//
//	r, err := iso2709.ParseRecord(data)
//	if err != nil {
//	    return err
//	}
//	r.ProcessFields(handler)
//
// # Errors
//
// Failures are *Error values classified as InvalidArgument, FormatError or
// IllegalState. Use errors.Is with ErrInvalidArgument, ErrFormat and
// ErrIllegalState to test the kind. A failed call never leaves a partially
// written field behind.
//
// # Character Set
//
// All content is restricted to the 7-bit repertoire, and the three
// terminator and separator codes may never appear in content. Values pass
// through a golang.org/x/text encoding (WithCharset) before these checks.
//
// # Thread Safety
//
// RecordBuilder is not safe for concurrent use. Record values are immutable
// after ParseRecord returns.
package iso2709
