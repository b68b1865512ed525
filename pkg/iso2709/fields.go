package iso2709

import "golang.org/x/text/encoding"

// fieldsBuilder writes the field area. The field being written is pending
// until commit; undoLastField discards it.
type fieldsBuilder struct {
	format  RecordFormat
	charset encoding.Encoding
	buf     *iso646Buffer

	fieldStart int
	pending    bool
}

func newFieldsBuilder(format RecordFormat, charset encoding.Encoding) *fieldsBuilder {
	return &fieldsBuilder{
		format:  format,
		charset: charset,
		buf:     newIso646Buffer(1024),
	}
}

// startField opens a field and returns its start offset.
func (fb *fieldsBuilder) startField() int {
	fb.fieldStart = fb.buf.len()
	fb.pending = true
	return fb.fieldStart
}

// startDataField opens a field and writes its indicators. indicators must
// already be validated.
func (fb *fieldsBuilder) startDataField(indicators []byte) int {
	start := fb.startField()
	fb.buf.appendChars(indicators)
	return start
}

// appendSubfield writes a unit separator, the identifier code and the value.
// Nothing is written if validation fails.
func (fb *fieldsBuilder) appendSubfield(identifier, value string) error {
	const op = "AppendSubfield"
	if len(identifier) != fb.format.IdentifierCodeLength() {
		return invalidArgument(op, "identifier %q must have %d characters", identifier, fb.format.IdentifierCodeLength())
	}
	if err := checkContent(op, "identifier", []byte(identifier)); err != nil {
		return err
	}
	v, err := fb.encodeValue(op, value)
	if err != nil {
		return err
	}
	fb.buf.appendByte(UnitSeparator)
	fb.buf.appendChars([]byte(identifier))
	fb.buf.appendChars(v)
	return nil
}

// appendValue writes the content of a reference field.
func (fb *fieldsBuilder) appendValue(value string) error {
	v, err := fb.encodeValue("AppendReferenceField", value)
	if err != nil {
		return err
	}
	fb.buf.appendChars(v)
	return nil
}

func (fb *fieldsBuilder) encodeValue(op, value string) ([]byte, error) {
	v, err := encodeText(fb.charset, op, "value", value)
	if err != nil {
		return nil, err
	}
	if err := checkContent(op, "value", v); err != nil {
		return nil, err
	}
	return v, nil
}

// endField writes the field terminator and returns the end offset.
func (fb *fieldsBuilder) endField() int {
	fb.buf.appendByte(FieldTerminator)
	return fb.buf.len()
}

// commit makes the pending field permanent.
func (fb *fieldsBuilder) commit() { fb.pending = false }

// undoLastField rewinds to the start of the pending field.
func (fb *fieldsBuilder) undoLastField() {
	if fb.pending {
		fb.buf.truncate(fb.fieldStart)
		fb.pending = false
	}
}

// length is the serialized size including the record terminator.
func (fb *fieldsBuilder) length() int { return fb.buf.len() + 1 }

func (fb *fieldsBuilder) copyTo(dst []byte) int {
	n := copy(dst, fb.buf.bytes())
	dst[n] = RecordTerminator
	return n + 1
}

func (fb *fieldsBuilder) reset() {
	fb.buf.reset()
	fb.fieldStart = 0
	fb.pending = false
}
