package iso2709

// isIso646 reports whether c is in the 7-bit repertoire.
func isIso646(c byte) bool {
	return c < 0x80
}

// isContentChar reports whether c may appear in tags, indicators,
// identifiers, implementation-defined parts and values.
func isContentChar(c byte) bool {
	return isIso646(c) && c != RecordTerminator && c != FieldTerminator && c != UnitSeparator
}

// checkContent returns a FormatError naming the first character of s that is
// not a valid content character.
func checkContent(op, what string, s []byte) error {
	for i, c := range s {
		if !isContentChar(c) {
			return formatError(op, "%s contains invalid character 0x%02x at position %d", what, c, i)
		}
	}
	return nil
}

// iso646Buffer is a growable byte buffer restricted to the 7-bit
// repertoire. It supports appending and positional access to characters and
// fixed-width unsigned decimal numerals. reset truncates but keeps capacity.
type iso646Buffer struct {
	b []byte
}

func newIso646Buffer(capacity int) *iso646Buffer {
	return &iso646Buffer{b: make([]byte, 0, capacity)}
}

func (buf *iso646Buffer) len() int { return len(buf.b) }

func (buf *iso646Buffer) bytes() []byte { return buf.b }

func (buf *iso646Buffer) reset() { buf.b = buf.b[:0] }

// truncate shrinks the buffer to n bytes.
func (buf *iso646Buffer) truncate(n int) { buf.b = buf.b[:n] }

// appendChars appends s. The caller has checked the characters.
func (buf *iso646Buffer) appendChars(s []byte) { buf.b = append(buf.b, s...) }

func (buf *iso646Buffer) appendByte(c byte) { buf.b = append(buf.b, c) }

// appendDigits appends v as a zero-padded numeral of the given width.
func (buf *iso646Buffer) appendDigits(v, width int) error {
	n := len(buf.b)
	buf.b = append(buf.b, make([]byte, width)...)
	if err := putDigits(buf.b[n:], v, width); err != nil {
		buf.b = buf.b[:n]
		return err
	}
	return nil
}

// putDigits writes v into dst[:width] as a zero-padded decimal numeral.
func putDigits(dst []byte, v, width int) error {
	if v < 0 || v > maxValue(width) {
		return formatError("putDigits", "value %d does not fit in %d digits", v, width)
	}
	for i := width - 1; i >= 0; i-- {
		dst[i] = byte('0' + v%10)
		v /= 10
	}
	return nil
}

// parseDigits reads a fixed-width unsigned decimal numeral from src.
func parseDigits(src []byte) (int, error) {
	v := 0
	for _, c := range src {
		if c < '0' || c > '9' {
			return 0, formatError("parseDigits", "expected digit, found 0x%02x in %q", c, src)
		}
		v = v*10 + int(c-'0')
	}
	return v, nil
}

// digitValue returns the single-digit numeral c as an int.
func digitValue(c byte) (int, error) {
	if c < '0' || c > '9' {
		return 0, formatError("digitValue", "expected digit, found 0x%02x", c)
	}
	return int(c - '0'), nil
}
