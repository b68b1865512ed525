package iso2709

// Label is the parsed 24-byte record label.
type Label struct {
	raw [LabelLength]byte

	recordLength int
	baseAddress  int
	format       RecordFormat
}

// ParseLabel parses the first LabelLength bytes of data. The caller must
// supply at least LabelLength bytes.
func ParseLabel(data []byte) (*Label, error) {
	if len(data) < LabelLength {
		return nil, invalidArgument("ParseLabel", "need %d bytes, got %d", LabelLength, len(data))
	}
	l := &Label{}
	copy(l.raw[:], data[:LabelLength])

	for i, c := range l.raw {
		if !isContentChar(c) {
			return nil, formatError("ParseLabel", "invalid character 0x%02x at label position %d", c, i)
		}
	}

	var err error
	if l.recordLength, err = parseDigits(l.raw[recordLengthPos : recordLengthPos+recordLengthWidth]); err != nil {
		return nil, formatError("ParseLabel", "record length: %v", err)
	}
	if l.baseAddress, err = parseDigits(l.raw[baseAddressPos : baseAddressPos+baseAddressWidth]); err != nil {
		return nil, formatError("ParseLabel", "base address: %v", err)
	}

	digits := [5]int{}
	for i, pos := range []int{indicatorLengthPos, identifierLenPos, fieldLengthLenPos, fieldStartLenPos, implDefinedLenPos} {
		if digits[i], err = digitValue(l.raw[pos]); err != nil {
			return nil, formatError("ParseLabel", "label position %d: %v", pos, err)
		}
	}
	l.format = RecordFormat{
		indicatorLength:       digits[0],
		identifierLength:      digits[1],
		fieldLengthLength:     digits[2],
		fieldStartLength:      digits[3],
		implDefinedPartLength: digits[4],
	}
	if err := l.format.validate(); err != nil {
		return nil, formatError("ParseLabel", "%v", err)
	}
	return l, nil
}

// RecordLength returns the record length from positions 0-4, which counts
// every byte up to and including the record terminator.
func (l *Label) RecordLength() int { return l.recordLength }

// RecordStatus returns the status character at position 5.
func (l *Label) RecordStatus() byte { return l.raw[recordStatusPos] }

// ImplCodes returns the four implementation codes (positions 6-9).
func (l *Label) ImplCodes() string {
	return string(l.raw[implCodesPos : implCodesPos+implCodesWidth])
}

// ImplCode returns implementation code index, 0 through 3.
func (l *Label) ImplCode(index int) byte { return l.raw[implCodesPos+index] }

// IndicatorLength returns the indicator length declared at position 10.
func (l *Label) IndicatorLength() int { return l.format.indicatorLength }

// IdentifierLength returns the identifier length declared at position 11.
func (l *Label) IdentifierLength() int { return l.format.identifierLength }

// BaseAddress returns the offset of the field area from the start of the record.
func (l *Label) BaseAddress() int { return l.baseAddress }

// SystemChars returns the three characters for user systems (positions 17-19).
func (l *Label) SystemChars() string {
	return string(l.raw[systemCharsPos : systemCharsPos+systemCharsWidth])
}

// SystemChar returns system character index, 0 through 2.
func (l *Label) SystemChar(index int) byte { return l.raw[systemCharsPos+index] }

// FieldLengthLength is the first digit of the entry map.
func (l *Label) FieldLengthLength() int { return l.format.fieldLengthLength }

// FieldStartLength is the second digit of the entry map.
func (l *Label) FieldStartLength() int { return l.format.fieldStartLength }

// ImplDefinedPartLength is the third digit of the entry map.
func (l *Label) ImplDefinedPartLength() int { return l.format.implDefinedPartLength }

// ReservedChar returns the last entry map character, reserved for future use.
func (l *Label) ReservedChar() byte { return l.raw[reservedCharPos] }

// RecordFormat reconstructs the format from the five serialized digits.
func (l *Label) RecordFormat() RecordFormat { return l.format }

// Bytes returns a copy of the raw label.
func (l *Label) Bytes() []byte {
	b := make([]byte, LabelLength)
	copy(b, l.raw[:])
	return b
}

// String returns the label as text.
func (l *Label) String() string { return string(l.raw[:]) }

// labelBuilder writes the record label. The five format digits are fixed at
// construction; record length and base address are set by the record
// builder at build time.
type labelBuilder struct {
	buf      [LabelLength]byte
	defaults [LabelLength]byte
}

func newLabelBuilder(format RecordFormat) *labelBuilder {
	lb := &labelBuilder{}
	for i := range lb.defaults {
		lb.defaults[i] = defaultLabelChar
	}
	d := lb.defaults[:]
	// The defaults are in range, putDigits cannot fail here.
	_ = putDigits(d[recordLengthPos:], MinRecordLength, recordLengthWidth)
	_ = putDigits(d[baseAddressPos:], MinBaseAddress, baseAddressWidth)
	d[indicatorLengthPos] = byte('0' + format.indicatorLength)
	d[identifierLenPos] = byte('0' + format.identifierLength)
	d[fieldLengthLenPos] = byte('0' + format.fieldLengthLength)
	d[fieldStartLenPos] = byte('0' + format.fieldStartLength)
	d[implDefinedLenPos] = byte('0' + format.implDefinedPartLength)
	lb.reset()
	return lb
}

func (lb *labelBuilder) reset() { lb.buf = lb.defaults }

func (lb *labelBuilder) setRecordStatus(c byte) error {
	if !isContentChar(c) {
		return formatError("SetRecordStatus", "invalid character 0x%02x", c)
	}
	lb.buf[recordStatusPos] = c
	return nil
}

func (lb *labelBuilder) recordStatus() byte { return lb.buf[recordStatusPos] }

func (lb *labelBuilder) setImplCodes(codes string) error {
	return lb.setChars("SetImplCodes", implCodesPos, implCodesWidth, codes)
}

func (lb *labelBuilder) setImplCode(index int, c byte) error {
	return lb.setChar("SetImplCode", implCodesPos, implCodesWidth, index, c)
}

func (lb *labelBuilder) implCodes() string {
	return string(lb.buf[implCodesPos : implCodesPos+implCodesWidth])
}

func (lb *labelBuilder) setSystemChars(chars string) error {
	return lb.setChars("SetSystemChars", systemCharsPos, systemCharsWidth, chars)
}

func (lb *labelBuilder) setSystemChar(index int, c byte) error {
	return lb.setChar("SetSystemChar", systemCharsPos, systemCharsWidth, index, c)
}

func (lb *labelBuilder) systemChars() string {
	return string(lb.buf[systemCharsPos : systemCharsPos+systemCharsWidth])
}

func (lb *labelBuilder) setReservedChar(c byte) error {
	if !isContentChar(c) {
		return formatError("SetReservedChar", "invalid character 0x%02x", c)
	}
	lb.buf[reservedCharPos] = c
	return nil
}

func (lb *labelBuilder) reservedChar() byte { return lb.buf[reservedCharPos] }

func (lb *labelBuilder) setBaseAddress(v int) error {
	if v < MinBaseAddress || v > MaxBaseAddress {
		return formatError("SetBaseAddress", "base address %d outside [%d, %d]", v, MinBaseAddress, MaxBaseAddress)
	}
	return putDigits(lb.buf[baseAddressPos:], v, baseAddressWidth)
}

func (lb *labelBuilder) setRecordLength(v int) error {
	if v < MinRecordLength || v > MaxRecordLength {
		return formatError("SetRecordLength", "record length %d outside [%d, %d]", v, MinRecordLength, MaxRecordLength)
	}
	return putDigits(lb.buf[recordLengthPos:], v, recordLengthWidth)
}

func (lb *labelBuilder) setChars(op string, pos, width int, s string) error {
	if len(s) != width {
		return invalidArgument(op, "need exactly %d characters, got %d", width, len(s))
	}
	if err := checkContent(op, "value", []byte(s)); err != nil {
		return err
	}
	copy(lb.buf[pos:pos+width], s)
	return nil
}

func (lb *labelBuilder) setChar(op string, pos, width, index int, c byte) error {
	if index < 0 || index >= width {
		return invalidArgument(op, "index %d outside [0, %d)", index, width)
	}
	if !isContentChar(c) {
		return formatError(op, "invalid character 0x%02x", c)
	}
	lb.buf[pos+index] = c
	return nil
}

// copyTo writes the label into dst and returns the number of bytes written.
func (lb *labelBuilder) copyTo(dst []byte) int {
	return copy(dst, lb.buf[:])
}
