package iso2709

import (
	"bytes"

	"golang.org/x/text/encoding"
)

// FieldHandler receives the fields of a decoded record in directory order.
type FieldHandler interface {
	// ReferenceField is called for fields with tags 001-009 and 00A-00z.
	ReferenceField(tag, implDefinedPart, value string)
	// StartDataField opens a data field; Data calls for its subfields and
	// one EndDataField call follow.
	StartDataField(tag, implDefinedPart, indicators string)
	EndDataField()
	// AdditionalImplDefinedPart supplies the implementation-defined part of
	// each further directory entry of a field spanning several entries.
	AdditionalImplDefinedPart(implDefinedPart string)
	Data(identifier, value string)
}

// DecodeOption configures ParseRecord.
type DecodeOption func(*decodeOptions)

type decodeOptions struct {
	charset encoding.Encoding
}

// WithDecodeCharset sets the encoding used to map field content to text.
func WithDecodeCharset(enc encoding.Encoding) DecodeOption {
	return func(o *decodeOptions) { o.charset = enc }
}

// Record is a structurally validated view of one serialized record.
type Record struct {
	raw       []byte
	label     *Label
	directory *Directory
	fields    []decodedField
}

type decodedField struct {
	tag        string
	impl       string
	extraImpl  []string
	reference  bool
	value      string
	indicators string
	subfields  []decodedSubfield
}

type decodedSubfield struct {
	identifier string
	value      string
}

// ParseRecord validates data as one complete record: label, directory,
// field boundaries and terminators, tags and character set.
func ParseRecord(data []byte, opts ...DecodeOption) (*Record, error) {
	const op = "ParseRecord"
	o := decodeOptions{charset: DefaultCharset}
	for _, opt := range opts {
		opt(&o)
	}

	if len(data) < LabelLength {
		return nil, formatError(op, "record of %d bytes is shorter than the label", len(data))
	}
	label, err := ParseLabel(data)
	if err != nil {
		return nil, asFormatError(err)
	}
	if label.RecordLength() != len(data) {
		return nil, formatError(op, "label record length %d does not match %d bytes", label.RecordLength(), len(data))
	}
	if data[len(data)-1] != RecordTerminator {
		return nil, formatError(op, "record does not end with the record terminator")
	}
	if label.BaseAddress() >= len(data) {
		return nil, formatError(op, "base address %d beyond record end %d", label.BaseAddress(), len(data)-1)
	}

	format := label.RecordFormat()
	directory, err := parseDirectory(data, label.BaseAddress(), format)
	if err != nil {
		return nil, err
	}

	r := &Record{raw: data, label: label, directory: directory}
	area := data[label.BaseAddress() : len(data)-1]
	entries := directory.entries
	for i := 0; i < len(entries); {
		f, next, err := decodeField(entries, i, area, format, o.charset)
		if err != nil {
			return nil, err
		}
		r.fields = append(r.fields, f)
		i = next
	}
	return r, nil
}

// Decode parses data and passes its fields to h.
func Decode(data []byte, h FieldHandler, opts ...DecodeOption) error {
	r, err := ParseRecord(data, opts...)
	if err != nil {
		return err
	}
	r.ProcessFields(h)
	return nil
}

// decodeField decodes the field starting at entries[i], which may span a
// run of continuation entries, and returns the index of the next field.
func decodeField(entries []DirectoryEntry, i int, area []byte, format RecordFormat, charset encoding.Encoding) (decodedField, int, error) {
	const op = "ParseRecord"
	first := entries[i]
	f := decodedField{tag: first.Tag, impl: first.ImplDefinedPart}

	last := first
	j := i
	for entries[j].IsContinuation() {
		if j+1 >= len(entries) {
			return f, 0, &Error{Kind: FormatError, Op: op, Tag: first.Tag, Detail: "continued field has no final entry"}
		}
		prev := entries[j]
		j++
		last = entries[j]
		if last.Tag != first.Tag {
			return f, 0, &Error{Kind: FormatError, Op: op, Tag: first.Tag,
				Detail: "continued field interrupted by field " + last.Tag}
		}
		if last.FieldStart != prev.FieldStart+format.MaxFieldLength() {
			return f, 0, &Error{Kind: FormatError, Op: op, Tag: first.Tag, Detail: "continued field parts are not contiguous"}
		}
		f.extraImpl = append(f.extraImpl, last.ImplDefinedPart)
	}

	end := last.FieldStart + last.FieldLength
	if end > len(area) {
		return f, 0, &Error{Kind: FormatError, Op: op, Tag: first.Tag, Detail: "field extends beyond the field area"}
	}
	raw := area[first.FieldStart:end]
	if raw[len(raw)-1] != FieldTerminator {
		return f, 0, &Error{Kind: FormatError, Op: op, Tag: first.Tag, Detail: "field does not end with the field terminator"}
	}
	content := raw[:len(raw)-1]

	var err error
	switch {
	case IsReferenceTag(first.Tag):
		f.reference = true
		if err = checkContent(op, "value", content); err == nil {
			f.value, err = decodeText(charset, op, content)
		}
	case IsDataTag(first.Tag):
		err = decodeDataField(&f, content, format, charset)
	default:
		err = formatError(op, "tag is neither a reference nor a data field tag")
	}
	if err != nil {
		return f, 0, withTag(err, first.Tag)
	}
	return f, j + 1, nil
}

func decodeDataField(f *decodedField, content []byte, format RecordFormat, charset encoding.Encoding) error {
	const op = "ParseRecord"
	if len(content) < format.indicatorLength {
		return formatError(op, "field is shorter than its indicators")
	}
	indicators := content[:format.indicatorLength]
	if err := checkContent(op, "indicators", indicators); err != nil {
		return err
	}
	f.indicators = string(indicators)

	rest := content[format.indicatorLength:]
	if len(rest) == 0 {
		return nil
	}
	if rest[0] != UnitSeparator {
		return formatError(op, "data does not start with a unit separator")
	}
	codeLength := format.IdentifierCodeLength()
	for _, chunk := range bytes.Split(rest[1:], []byte{UnitSeparator}) {
		if len(chunk) < codeLength {
			return formatError(op, "subfield shorter than its identifier")
		}
		if err := checkContent(op, "subfield", chunk); err != nil {
			return err
		}
		value, err := decodeText(charset, op, chunk[codeLength:])
		if err != nil {
			return err
		}
		f.subfields = append(f.subfields, decodedSubfield{
			identifier: string(chunk[:codeLength]),
			value:      value,
		})
	}
	return nil
}

func asFormatError(err error) error {
	if e, ok := err.(*Error); ok && e.Kind != FormatError {
		c := *e
		c.Kind = FormatError
		return &c
	}
	return err
}

// ProcessFields replays the fields of the record to h.
func (r *Record) ProcessFields(h FieldHandler) {
	for i := range r.fields {
		f := &r.fields[i]
		if f.reference {
			h.ReferenceField(f.tag, f.impl, f.value)
			for _, impl := range f.extraImpl {
				h.AdditionalImplDefinedPart(impl)
			}
			continue
		}
		h.StartDataField(f.tag, f.impl, f.indicators)
		for _, impl := range f.extraImpl {
			h.AdditionalImplDefinedPart(impl)
		}
		for _, sf := range f.subfields {
			h.Data(sf.identifier, sf.value)
		}
		h.EndDataField()
	}
}

func (r *Record) Label() *Label { return r.label }

func (r *Record) Directory() *Directory { return r.directory }

func (r *Record) RecordFormat() RecordFormat { return r.label.RecordFormat() }

// NumFields returns the number of fields; continued fields count once.
func (r *Record) NumFields() int { return len(r.fields) }

// RecordID returns the value of the identifier field, if present.
func (r *Record) RecordID() (string, bool) {
	for _, f := range r.fields {
		if f.tag == RecordIDTag {
			return f.value, true
		}
	}
	return "", false
}

// Bytes returns the serialized record the view was parsed from.
func (r *Record) Bytes() []byte { return r.raw }
