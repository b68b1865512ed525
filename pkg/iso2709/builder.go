package iso2709

import (
	"fmt"
	"regexp"

	"golang.org/x/text/encoding"
)

// BuilderOption configures a RecordBuilder.
type BuilderOption func(*builderOptions)

type builderOptions struct {
	charset         encoding.Encoding
	continuedFields bool
}

// WithCharset sets the encoding applied to values before the 7-bit checks.
func WithCharset(enc encoding.Encoding) BuilderOption {
	return func(o *builderOptions) { o.charset = enc }
}

// WithContinuedFields lets fields longer than the maximum field length span
// several directory entries instead of failing.
func WithContinuedFields() BuilderOption {
	return func(o *builderOptions) { o.continuedFields = true }
}

// RecordBuilder encodes one record at a time. Fields must be appended in
// the order identifier field, reference fields, data fields. A
// RecordBuilder is not safe for concurrent use; Reset makes it reusable
// without releasing its buffers.
type RecordBuilder struct {
	format    RecordFormat
	label     *labelBuilder
	directory *directoryBuilder
	fields    *fieldsBuilder

	state appendState
	// stateBeforeField is restored when committing a data field fails.
	stateBeforeField appendState
	openTag          string
	openImpl         string
}

// NewRecordBuilder creates a builder for records of the given format.
func NewRecordBuilder(format RecordFormat, opts ...BuilderOption) (*RecordBuilder, error) {
	if err := format.validate(); err != nil {
		return nil, err
	}
	o := builderOptions{charset: DefaultCharset}
	for _, opt := range opts {
		opt(&o)
	}
	if o.charset == nil {
		o.charset = DefaultCharset
	}
	return &RecordBuilder{
		format:    format,
		label:     newLabelBuilder(format),
		directory: newDirectoryBuilder(format, o.continuedFields),
		fields:    newFieldsBuilder(format, o.charset),
		state:     awaitingIDField,
	}, nil
}

// Format returns the record format of the builder.
func (b *RecordBuilder) Format() RecordFormat { return b.format }

// SetCharset changes the encoding applied to subsequently appended values.
func (b *RecordBuilder) SetCharset(enc encoding.Encoding) {
	if enc == nil {
		enc = DefaultCharset
	}
	b.fields.charset = enc
}

// Charset returns the encoding applied to appended values.
func (b *RecordBuilder) Charset() encoding.Encoding { return b.fields.charset }

// SetRecordStatus sets label position 5. c must be a 7-bit character other
// than the three separators.
func (b *RecordBuilder) SetRecordStatus(c byte) error { return b.label.setRecordStatus(c) }

// RecordStatus returns the status character that Build will write.
func (b *RecordBuilder) RecordStatus() byte { return b.label.recordStatus() }

// SetImplCodes sets the four implementation codes.
func (b *RecordBuilder) SetImplCodes(codes string) error { return b.label.setImplCodes(codes) }

// SetImplCode sets one implementation code; index ranges over 0-3.
func (b *RecordBuilder) SetImplCode(index int, c byte) error { return b.label.setImplCode(index, c) }

// ImplCodes returns the implementation codes that Build will write.
func (b *RecordBuilder) ImplCodes() string { return b.label.implCodes() }

// SetSystemChars sets the three system characters.
func (b *RecordBuilder) SetSystemChars(chars string) error { return b.label.setSystemChars(chars) }

// SetSystemChar sets one system character; index ranges over 0-2.
func (b *RecordBuilder) SetSystemChar(index int, c byte) error {
	return b.label.setSystemChar(index, c)
}

// SystemChars returns the system characters that Build will write.
func (b *RecordBuilder) SystemChars() string { return b.label.systemChars() }

// SetReservedChar sets the entry map character at label position 23.
func (b *RecordBuilder) SetReservedChar(c byte) error { return b.label.setReservedChar(c) }

// ReservedChar returns the reserved character that Build will write.
func (b *RecordBuilder) ReservedChar() byte { return b.label.reservedChar() }

// AppendIdentifierField appends the 001 field. It must precede all other
// fields and may be used once.
func (b *RecordBuilder) AppendIdentifierField(implDefinedPart, value string) error {
	next, err := b.state.next(callAppendIdentifierField)
	if err != nil {
		return err
	}
	if err := b.appendReference(callAppendIdentifierField.String(), RecordIDTag, implDefinedPart, value); err != nil {
		return err
	}
	b.state = next
	return nil
}

// AppendReferenceField appends a field without indicators and subfields.
// tag must match 00[1-9A-Za-z].
func (b *RecordBuilder) AppendReferenceField(tag, implDefinedPart, value string) error {
	const op = "AppendReferenceField"
	next, err := b.state.next(callAppendReferenceField)
	if err != nil {
		return err
	}
	if err := validateTag(op, tag, referenceTagPattern, "reference"); err != nil {
		return err
	}
	if err := b.appendReference(op, tag, implDefinedPart, value); err != nil {
		return err
	}
	b.state = next
	return nil
}

func (b *RecordBuilder) appendReference(op, tag, implDefinedPart, value string) error {
	if err := b.validateImplDefinedPart(op, tag, implDefinedPart); err != nil {
		return err
	}
	b.fields.startField()
	if err := b.fields.appendValue(value); err != nil {
		b.fields.undoLastField()
		return withTag(err, tag)
	}
	return b.commitField(op, tag, implDefinedPart)
}

// StartDataField opens a data field. indicators must have the format's
// indicator length.
func (b *RecordBuilder) StartDataField(tag, implDefinedPart, indicators string) error {
	const op = "StartDataField"
	next, err := b.state.next(callStartDataField)
	if err != nil {
		return err
	}
	if err := validateTag(op, tag, dataTagPattern, "data"); err != nil {
		return err
	}
	if err := b.validateImplDefinedPart(op, tag, implDefinedPart); err != nil {
		return err
	}
	if len(indicators) != b.format.indicatorLength {
		return &Error{Kind: InvalidArgument, Op: op, Tag: tag,
			Detail: fmt.Sprintf("indicators must have %d characters, got %d", b.format.indicatorLength, len(indicators))}
	}
	if err := checkContent(op, "indicators", []byte(indicators)); err != nil {
		return withTag(err, tag)
	}

	b.fields.startDataField([]byte(indicators))
	b.stateBeforeField = b.state
	b.openTag = tag
	b.openImpl = implDefinedPart
	b.state = next
	return nil
}

// AppendSubfield appends a subfield to the open data field.
func (b *RecordBuilder) AppendSubfield(identifier, value string) error {
	if _, err := b.state.next(callAppendSubfield); err != nil {
		return err
	}
	if err := b.fields.appendSubfield(identifier, value); err != nil {
		return withTag(err, b.openTag)
	}
	return nil
}

// EndDataField closes the open data field and adds its directory entry. If
// the entry cannot be represented the field is discarded and the builder
// returns to the state it had before StartDataField.
func (b *RecordBuilder) EndDataField() error {
	next, err := b.state.next(callEndDataField)
	if err != nil {
		return err
	}
	tag, impl := b.openTag, b.openImpl
	b.openTag, b.openImpl = "", ""
	if err := b.commitField(callEndDataField.String(), tag, impl); err != nil {
		b.state = b.stateBeforeField
		return err
	}
	b.state = next
	return nil
}

// commitField terminates the pending field and records it in the
// directory. On failure the pending field is discarded.
func (b *RecordBuilder) commitField(op, tag, implDefinedPart string) error {
	start := b.fields.fieldStart
	end := b.fields.endField()

	spans, err := b.directory.plan(tag, start, end)
	if err != nil {
		b.fields.undoLastField()
		return err
	}
	size := LabelLength + b.directory.length() + len(spans)*b.format.EntryLength() + b.fields.length()
	if size > MaxRecordLength {
		b.fields.undoLastField()
		return &Error{Kind: FormatError, Op: op, Tag: tag,
			Detail: fmt.Sprintf("record length %d exceeds %d", size, MaxRecordLength)}
	}
	b.directory.write(tag, implDefinedPart, spans)
	b.fields.commit()
	return nil
}

// Size returns the length the record would have if built now.
func (b *RecordBuilder) Size() int {
	return LabelLength + b.directory.length() + b.fields.length()
}

// Build returns the serialized record. It fails with IllegalState while a
// data field is open and leaves the builder untouched in that case.
func (b *RecordBuilder) Build() ([]byte, error) {
	return b.AppendTo(nil)
}

// AppendTo appends the serialized record to dst.
func (b *RecordBuilder) AppendTo(dst []byte) ([]byte, error) {
	if _, err := b.state.next(callBuild); err != nil {
		return dst, err
	}
	baseAddress := LabelLength + b.directory.length()
	recordLength := baseAddress + b.fields.length()
	if baseAddress > MaxBaseAddress || recordLength > MaxRecordLength {
		return dst, formatError("Build", "record length %d exceeds %d", recordLength, MaxRecordLength)
	}
	if err := b.label.setBaseAddress(baseAddress); err != nil {
		return dst, err
	}
	if err := b.label.setRecordLength(recordLength); err != nil {
		return dst, err
	}

	n := len(dst)
	if cap(dst)-n < recordLength {
		grown := make([]byte, n, n+recordLength)
		copy(grown, dst)
		dst = grown
	}
	dst = dst[:n+recordLength]
	out := dst[n:]
	pos := b.label.copyTo(out)
	pos += b.directory.copyTo(out[pos:])
	b.fields.copyTo(out[pos:])
	return dst, nil
}

// Reset returns the builder to the state of a freshly created one, keeping
// its buffers.
func (b *RecordBuilder) Reset() {
	b.label.reset()
	b.directory.reset()
	b.fields.reset()
	b.state = awaitingIDField
	b.stateBeforeField = awaitingIDField
	b.openTag = ""
	b.openImpl = ""
}

func (b *RecordBuilder) validateImplDefinedPart(op, tag, implDefinedPart string) error {
	if len(implDefinedPart) != b.format.implDefinedPartLength {
		return &Error{Kind: InvalidArgument, Op: op, Tag: tag,
			Detail: fmt.Sprintf("implementation-defined part must have %d characters, got %d",
				b.format.implDefinedPartLength, len(implDefinedPart))}
	}
	if err := checkContent(op, "implementation-defined part", []byte(implDefinedPart)); err != nil {
		return withTag(err, tag)
	}
	return nil
}

func validateTag(op, tag string, pattern *regexp.Regexp, kind string) error {
	if len(tag) != TagLength {
		return invalidArgument(op, "tag %q must have %d characters", tag, TagLength)
	}
	if err := checkContent(op, "tag", []byte(tag)); err != nil {
		return err
	}
	if !pattern.MatchString(tag) {
		return &Error{Kind: FormatError, Op: op, Tag: tag, Detail: "not a valid " + kind + " field tag"}
	}
	return nil
}
