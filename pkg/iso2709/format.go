package iso2709

import "fmt"

// RecordFormat holds the five digit-valued layout parameters of a record
// schema. It is immutable and comparable with ==.
type RecordFormat struct {
	indicatorLength       int
	identifierLength      int
	fieldLengthLength     int
	fieldStartLength      int
	implDefinedPartLength int
}

// DefaultRecordFormat is the layout used by MARC 21.
var DefaultRecordFormat = RecordFormat{
	indicatorLength:       2,
	identifierLength:      2,
	fieldLengthLength:     4,
	fieldStartLength:      5,
	implDefinedPartLength: 0,
}

// IndicatorLength returns the number of indicator characters in data fields.
func (f RecordFormat) IndicatorLength() int { return f.indicatorLength }

// IdentifierLength returns the width of the unit separator plus identifier code.
func (f RecordFormat) IdentifierLength() int { return f.identifierLength }

// FieldLengthLength returns the digit width of directory field lengths.
func (f RecordFormat) FieldLengthLength() int { return f.fieldLengthLength }

// FieldStartLength returns the digit width of directory field starts.
func (f RecordFormat) FieldStartLength() int { return f.fieldStartLength }

// ImplDefinedPartLength returns the width of the directory's
// implementation-defined part.
func (f RecordFormat) ImplDefinedPartLength() int { return f.implDefinedPartLength }

// IdentifierCodeLength returns the number of characters of a subfield code.
func (f RecordFormat) IdentifierCodeLength() int {
	if f.identifierLength == 0 {
		return 0
	}
	return f.identifierLength - 1
}

// EntryLength returns the size of one directory entry.
func (f RecordFormat) EntryLength() int {
	return TagLength + f.fieldLengthLength + f.fieldStartLength + f.implDefinedPartLength
}

// MaxFieldLength is the largest field length a directory entry can hold.
func (f RecordFormat) MaxFieldLength() int { return maxValue(f.fieldLengthLength) }

// MaxFieldStart is the largest field start a directory entry can hold.
func (f RecordFormat) MaxFieldStart() int { return maxValue(f.fieldStartLength) }

// String returns the five label digits, e.g. "22450".
func (f RecordFormat) String() string {
	return fmt.Sprintf("%d%d%d%d%d", f.indicatorLength, f.identifierLength,
		f.fieldLengthLength, f.fieldStartLength, f.implDefinedPartLength)
}

func (f RecordFormat) validate() error {
	if f.fieldLengthLength == 0 {
		return invalidArgument("RecordFormat", "field length length must be greater than 0")
	}
	if f.fieldStartLength == 0 {
		return invalidArgument("RecordFormat", "field start length must be greater than 0")
	}
	return nil
}

// RecordFormatBuilder assembles a RecordFormat. Setters record the first
// invalid value; Build reports it.
type RecordFormatBuilder struct {
	format RecordFormat
	err    error
}

// NewRecordFormatBuilder starts from DefaultRecordFormat.
func NewRecordFormatBuilder() *RecordFormatBuilder {
	return &RecordFormatBuilder{format: DefaultRecordFormat}
}

// NewRecordFormatBuilderFrom starts from an existing format.
func NewRecordFormatBuilderFrom(f RecordFormat) *RecordFormatBuilder {
	return &RecordFormatBuilder{format: f}
}

// IndicatorLength sets the number of indicators per data field, 0-9.
func (b *RecordFormatBuilder) IndicatorLength(v int) *RecordFormatBuilder {
	b.set(&b.format.indicatorLength, "indicator length", v, 0)
	return b
}

// IdentifierLength sets the width of the unit separator plus subfield code, 0-9.
func (b *RecordFormatBuilder) IdentifierLength(v int) *RecordFormatBuilder {
	b.set(&b.format.identifierLength, "identifier length", v, 0)
	return b
}

// FieldLengthLength sets the digit width of directory field lengths, 1-9.
func (b *RecordFormatBuilder) FieldLengthLength(v int) *RecordFormatBuilder {
	b.set(&b.format.fieldLengthLength, "field length length", v, 1)
	return b
}

// FieldStartLength sets the digit width of directory field starts, 1-9.
func (b *RecordFormatBuilder) FieldStartLength(v int) *RecordFormatBuilder {
	b.set(&b.format.fieldStartLength, "field start length", v, 1)
	return b
}

// ImplDefinedPartLength sets the width of the implementation-defined part
// of each directory entry, 0-9.
func (b *RecordFormatBuilder) ImplDefinedPartLength(v int) *RecordFormatBuilder {
	b.set(&b.format.implDefinedPartLength, "implementation-defined part length", v, 0)
	return b
}

func (b *RecordFormatBuilder) set(dst *int, name string, v, lowest int) {
	if v < lowest || v > 9 {
		if b.err == nil {
			b.err = invalidArgument("RecordFormatBuilder", "%s must be in [%d, 9], got %d", name, lowest, v)
		}
		return
	}
	*dst = v
}

// Build returns the format or the first setter error.
func (b *RecordFormatBuilder) Build() (RecordFormat, error) {
	if b.err != nil {
		return RecordFormat{}, b.err
	}
	return b.format, nil
}

// MustBuild is like Build but panics on error.
func (b *RecordFormatBuilder) MustBuild() RecordFormat {
	f, err := b.Build()
	if err != nil {
		panic(err)
	}
	return f
}

// maxValue is the largest number representable with width decimal digits.
func maxValue(width int) int {
	v := 1
	for i := 0; i < width; i++ {
		v *= 10
	}
	return v - 1
}
