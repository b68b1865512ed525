package iso2709

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func labelBytes(lb *labelBuilder) []byte {
	out := make([]byte, LabelLength)
	lb.copyTo(out)
	return out
}

func TestLabelBuilder_Defaults(t *testing.T) {
	lb := newLabelBuilder(mustFormat(t, 2, 2, 4, 5, 0))
	assert.Equal(t, "00026     2200025   450 ", string(labelBytes(lb)))
}

func TestLabelBuilder_Setters(t *testing.T) {
	lb := newLabelBuilder(DefaultRecordFormat)

	require.NoError(t, lb.setRecordStatus('n'))
	require.NoError(t, lb.setImplCodes("am a"))
	require.NoError(t, lb.setImplCode(3, 'b'))
	require.NoError(t, lb.setSystemChars("4i "))
	require.NoError(t, lb.setSystemChar(2, 'x'))
	require.NoError(t, lb.setReservedChar('0'))
	require.NoError(t, lb.setBaseAddress(49))
	require.NoError(t, lb.setRecordLength(67))

	assert.Equal(t, byte('n'), lb.recordStatus())
	assert.Equal(t, "am b", lb.implCodes())
	assert.Equal(t, "4ix", lb.systemChars())
	assert.Equal(t, byte('0'), lb.reservedChar())
	assert.Equal(t, "00067nam b22000494ix4500", string(labelBytes(lb)))
}

func TestLabelBuilder_Validation(t *testing.T) {
	lb := newLabelBuilder(DefaultRecordFormat)
	before := labelBytes(lb)

	assert.ErrorIs(t, lb.setImplCodes("abc"), ErrInvalidArgument)
	assert.ErrorIs(t, lb.setImplCodes("ab\x1dc"), ErrFormat)
	assert.ErrorIs(t, lb.setImplCode(4, 'a'), ErrInvalidArgument)
	assert.ErrorIs(t, lb.setImplCode(-1, 'a'), ErrInvalidArgument)
	assert.ErrorIs(t, lb.setSystemChars("abcd"), ErrInvalidArgument)
	assert.ErrorIs(t, lb.setSystemChar(0, FieldTerminator), ErrFormat)
	assert.ErrorIs(t, lb.setRecordStatus(UnitSeparator), ErrFormat)
	assert.ErrorIs(t, lb.setReservedChar(0xe9), ErrFormat)
	assert.ErrorIs(t, lb.setBaseAddress(MinBaseAddress-1), ErrFormat)
	assert.ErrorIs(t, lb.setBaseAddress(MaxBaseAddress+1), ErrFormat)
	assert.ErrorIs(t, lb.setRecordLength(MinRecordLength-1), ErrFormat)
	assert.ErrorIs(t, lb.setRecordLength(MaxRecordLength+1), ErrFormat)

	assert.Equal(t, before, labelBytes(lb), "failed setters must not modify the label")
}

func TestLabelBuilder_Reset(t *testing.T) {
	lb := newLabelBuilder(DefaultRecordFormat)
	fresh := labelBytes(lb)

	require.NoError(t, lb.setRecordStatus('c'))
	require.NoError(t, lb.setRecordLength(500))
	lb.reset()

	assert.Equal(t, fresh, labelBytes(lb))
}

func TestParseLabel(t *testing.T) {
	l, err := ParseLabel([]byte("00067nam b22000494ix4512"))
	require.NoError(t, err)

	assert.Equal(t, 67, l.RecordLength())
	assert.Equal(t, byte('n'), l.RecordStatus())
	assert.Equal(t, "am b", l.ImplCodes())
	assert.Equal(t, byte('m'), l.ImplCode(1))
	assert.Equal(t, 2, l.IndicatorLength())
	assert.Equal(t, 2, l.IdentifierLength())
	assert.Equal(t, 49, l.BaseAddress())
	assert.Equal(t, "4ix", l.SystemChars())
	assert.Equal(t, byte('i'), l.SystemChar(1))
	assert.Equal(t, 4, l.FieldLengthLength())
	assert.Equal(t, 5, l.FieldStartLength())
	assert.Equal(t, 1, l.ImplDefinedPartLength())
	assert.Equal(t, byte('2'), l.ReservedChar())
	assert.Equal(t, mustFormat(t, 2, 2, 4, 5, 1), l.RecordFormat())
	assert.Equal(t, "00067nam b22000494ix4512", l.String())
}

func TestParseLabel_RoundTripsBuilder(t *testing.T) {
	f := mustFormat(t, 1, 3, 2, 7, 4)
	lb := newLabelBuilder(f)
	require.NoError(t, lb.setImplCodes("wxyz"))

	l, err := ParseLabel(labelBytes(lb))
	require.NoError(t, err)
	assert.Equal(t, f, l.RecordFormat())
	assert.Equal(t, "wxyz", l.ImplCodes())
	assert.Equal(t, MinRecordLength, l.RecordLength())
	assert.Equal(t, MinBaseAddress, l.BaseAddress())
}

func TestParseLabel_Errors(t *testing.T) {
	testCases := []struct {
		name  string
		label string
		kind  error
	}{
		{"too short", "00067nam", ErrInvalidArgument},
		{"non digit record length", "0006xnam b2200049   4500", ErrFormat},
		{"non digit base address", "00067nam b220004x   4500", ErrFormat},
		{"non digit indicator length", "00067nam bx200049   4500", ErrFormat},
		{"zero field length length", "00067nam b2200049   0500", ErrFormat},
		{"zero field start length", "00067nam b2200049   4000", ErrFormat},
		{"reserved character", "00067n\x1dm b2200049   4500", ErrFormat},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseLabel([]byte(tc.label))
			assert.ErrorIs(t, err, tc.kind)
		})
	}
}
