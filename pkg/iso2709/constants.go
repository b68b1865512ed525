package iso2709

// Structural control characters. They delimit subfields, fields and records
// and may never appear inside content.
const (
	RecordTerminator byte = 0x1d
	FieldTerminator  byte = 0x1e
	UnitSeparator    byte = 0x1f
)

const (
	// LabelLength is the fixed size of the record label.
	LabelLength = 24

	// TagLength is the number of characters in a field tag.
	TagLength = 3

	// RecordIDTag is the tag of the identifier field.
	RecordIDTag = "001"
)

// Widths of the label fields, in label order.
const (
	recordLengthWidth    = 5
	recordStatusWidth    = 1
	implCodesWidth       = 4
	indicatorLengthWidth = 1
	identifierLenWidth   = 1
	baseAddressWidth     = 5
	systemCharsWidth     = 3
	fieldLengthLenWidth  = 1
	fieldStartLenWidth   = 1
	implDefinedLenWidth  = 1
	reservedCharWidth    = 1
)

// Label field positions derived from the cumulative widths above.
const (
	recordLengthPos    = 0
	recordStatusPos    = recordLengthPos + recordLengthWidth
	implCodesPos       = recordStatusPos + recordStatusWidth
	indicatorLengthPos = implCodesPos + implCodesWidth
	identifierLenPos   = indicatorLengthPos + indicatorLengthWidth
	baseAddressPos     = identifierLenPos + identifierLenWidth
	systemCharsPos     = baseAddressPos + baseAddressWidth
	fieldLengthLenPos  = systemCharsPos + systemCharsWidth
	fieldStartLenPos   = fieldLengthLenPos + fieldLengthLenWidth
	implDefinedLenPos  = fieldStartLenPos + fieldStartLenWidth
	reservedCharPos    = implDefinedLenPos + implDefinedLenWidth

	labelEnd = reservedCharPos + reservedCharWidth
)

// Bounds for the computed label numbers.
const (
	MinBaseAddress  = LabelLength + 1
	MaxBaseAddress  = 99999
	MinRecordLength = MinBaseAddress + 1
	MaxRecordLength = 99999
)

const defaultLabelChar byte = ' '

// compile-time check that the label layout adds up to LabelLength.
var _ [labelEnd - LabelLength]struct{}
var _ [LabelLength - labelEnd]struct{}
