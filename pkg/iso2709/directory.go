package iso2709

import (
	"fmt"
	"regexp"
)

var (
	referenceTagPattern = regexp.MustCompile(`^00[1-9A-Za-z]$`)
	dataTagPattern      = regexp.MustCompile(`^(?:0[1-9A-Za-z]|[1-9A-Za-z][0-9A-Za-z])[0-9A-Za-z]$`)
)

// IsReferenceTag reports whether tag names a reference field (001-009, 00A-00z).
func IsReferenceTag(tag string) bool { return referenceTagPattern.MatchString(tag) }

// IsDataTag reports whether tag names a data field.
func IsDataTag(tag string) bool { return dataTagPattern.MatchString(tag) }

// DirectoryEntry locates one field (or one part of a continued field) in
// the field area. FieldLength includes the field terminator.
type DirectoryEntry struct {
	Tag             string
	FieldLength     int
	FieldStart      int
	ImplDefinedPart string
}

// IsRecordIDField reports whether the entry is the record identifier (001).
func (e DirectoryEntry) IsRecordIDField() bool { return e.Tag == RecordIDTag }

// IsReferenceField reports whether the entry has a reference tag.
func (e DirectoryEntry) IsReferenceField() bool { return IsReferenceTag(e.Tag) }

// IsDataField reports whether the entry has a data tag.
func (e DirectoryEntry) IsDataField() bool { return IsDataTag(e.Tag) }

// IsContinuation reports whether the entry is followed by further parts of
// the same field.
func (e DirectoryEntry) IsContinuation() bool { return e.FieldLength == 0 }

// Directory is the parsed sequence of directory entries.
type Directory struct {
	entries []DirectoryEntry
}

// parseDirectory reads entries from data[LabelLength:baseAddress]. The byte
// at baseAddress-1 must be the field terminator and align on an entry
// boundary.
func parseDirectory(data []byte, baseAddress int, format RecordFormat) (*Directory, error) {
	const op = "ParseDirectory"
	if baseAddress < MinBaseAddress || baseAddress > len(data) {
		return nil, formatError(op, "base address %d outside [%d, %d]", baseAddress, MinBaseAddress, len(data))
	}
	end := baseAddress - 1
	entryLength := format.EntryLength()
	d := &Directory{}

	pos := LabelLength
	for data[pos] != FieldTerminator {
		if pos+entryLength > end {
			return nil, formatError(op, "directory terminator not aligned on entry boundary at offset %d", pos)
		}
		entry, err := parseEntry(data[pos:pos+entryLength], format)
		if err != nil {
			return nil, err
		}
		d.entries = append(d.entries, entry)
		pos += entryLength
	}
	if pos != end {
		return nil, formatError(op, "directory terminator at offset %d, base address implies %d", pos, end)
	}
	return d, nil
}

func parseEntry(raw []byte, format RecordFormat) (DirectoryEntry, error) {
	const op = "ParseDirectory"
	if err := checkContent(op, "directory entry", raw); err != nil {
		return DirectoryEntry{}, err
	}
	pos := 0
	tag := string(raw[pos : pos+TagLength])
	pos += TagLength
	length, err := parseDigits(raw[pos : pos+format.fieldLengthLength])
	if err != nil {
		return DirectoryEntry{}, withTag(err, tag)
	}
	pos += format.fieldLengthLength
	start, err := parseDigits(raw[pos : pos+format.fieldStartLength])
	if err != nil {
		return DirectoryEntry{}, withTag(err, tag)
	}
	pos += format.fieldStartLength
	return DirectoryEntry{
		Tag:             tag,
		FieldLength:     length,
		FieldStart:      start,
		ImplDefinedPart: string(raw[pos : pos+format.implDefinedPartLength]),
	}, nil
}

// Entries returns the entries in record order.
func (d *Directory) Entries() []DirectoryEntry {
	out := make([]DirectoryEntry, len(d.entries))
	copy(out, d.entries)
	return out
}

// Len returns the number of entries.
func (d *Directory) Len() int { return len(d.entries) }

// Entry returns the i-th entry.
func (d *Directory) Entry(i int) DirectoryEntry { return d.entries[i] }

// directoryBuilder serializes directory entries. Entries are validated in
// full before any byte is appended, so a failed addEntries leaves the
// builder unchanged.
type directoryBuilder struct {
	format          RecordFormat
	buf             *iso646Buffer
	continuedFields bool
}

func newDirectoryBuilder(format RecordFormat, continuedFields bool) *directoryBuilder {
	return &directoryBuilder{
		format:          format,
		buf:             newIso646Buffer(format.EntryLength() * 32),
		continuedFields: continuedFields,
	}
}

// span is the (length, start) pair of one directory entry.
type span struct{ length, start int }

// plan computes the entries for the field occupying [fieldStart, fieldEnd)
// of the field area. A field longer than the maximum field length becomes a
// run of continuation entries if continued fields are enabled and a
// FormatError otherwise.
func (db *directoryBuilder) plan(tag string, fieldStart, fieldEnd int) ([]span, error) {
	const op = "addEntries"
	maxLength := db.format.MaxFieldLength()
	maxStart := db.format.MaxFieldStart()
	fieldLength := fieldEnd - fieldStart

	if fieldLength > maxLength && !db.continuedFields {
		return nil, &Error{Kind: FormatError, Op: op, Tag: tag,
			Detail: fmt.Sprintf("field length %d does not fit in %d digits", fieldLength, db.format.fieldLengthLength)}
	}

	var spans []span
	start := fieldStart
	for fieldLength > maxLength {
		spans = append(spans, span{0, start})
		start += maxLength
		fieldLength -= maxLength
	}
	spans = append(spans, span{fieldLength, start})

	for _, s := range spans {
		if s.start > maxStart {
			return nil, &Error{Kind: FormatError, Op: op, Tag: tag,
				Detail: fmt.Sprintf("field start %d does not fit in %d digits", s.start, db.format.fieldStartLength)}
		}
	}
	return spans, nil
}

// write appends planned entries. tag and implDefinedPart must be validated.
func (db *directoryBuilder) write(tag, implDefinedPart string, spans []span) {
	for _, s := range spans {
		db.buf.appendChars([]byte(tag))
		// Both numbers were range checked by plan.
		_ = db.buf.appendDigits(s.length, db.format.fieldLengthLength)
		_ = db.buf.appendDigits(s.start, db.format.fieldStartLength)
		db.buf.appendChars([]byte(implDefinedPart))
	}
}

// addEntries appends one entry, or a run of continuation entries, for the
// field occupying [fieldStart, fieldEnd). The builder is unchanged on error.
func (db *directoryBuilder) addEntries(tag, implDefinedPart string, fieldStart, fieldEnd int) error {
	spans, err := db.plan(tag, fieldStart, fieldEnd)
	if err != nil {
		return err
	}
	db.write(tag, implDefinedPart, spans)
	return nil
}

// length is the serialized size including the directory terminator.
func (db *directoryBuilder) length() int { return db.buf.len() + 1 }

func (db *directoryBuilder) copyTo(dst []byte) int {
	n := copy(dst, db.buf.bytes())
	dst[n] = FieldTerminator
	return n + 1
}

func (db *directoryBuilder) reset() { db.buf.reset() }
