package iso2709

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordFormatBuilder(t *testing.T) {
	f, err := NewRecordFormatBuilder().
		IndicatorLength(1).
		IdentifierLength(3).
		FieldLengthLength(4).
		FieldStartLength(6).
		ImplDefinedPartLength(2).
		Build()
	require.NoError(t, err)

	assert.Equal(t, 1, f.IndicatorLength())
	assert.Equal(t, 3, f.IdentifierLength())
	assert.Equal(t, 2, f.IdentifierCodeLength())
	assert.Equal(t, 4, f.FieldLengthLength())
	assert.Equal(t, 6, f.FieldStartLength())
	assert.Equal(t, 2, f.ImplDefinedPartLength())
	assert.Equal(t, 3+4+6+2, f.EntryLength())
	assert.Equal(t, 9999, f.MaxFieldLength())
	assert.Equal(t, 999999, f.MaxFieldStart())
	assert.Equal(t, "13462", f.String())
}

func TestRecordFormatBuilder_Defaults(t *testing.T) {
	f, err := NewRecordFormatBuilder().Build()
	require.NoError(t, err)
	assert.Equal(t, DefaultRecordFormat, f)
	assert.Equal(t, "22450", f.String())
}

func TestRecordFormatBuilder_RangeValidation(t *testing.T) {
	testCases := []struct {
		name  string
		build func(b *RecordFormatBuilder) *RecordFormatBuilder
	}{
		{"negative indicator length", func(b *RecordFormatBuilder) *RecordFormatBuilder { return b.IndicatorLength(-1) }},
		{"indicator length too large", func(b *RecordFormatBuilder) *RecordFormatBuilder { return b.IndicatorLength(10) }},
		{"identifier length too large", func(b *RecordFormatBuilder) *RecordFormatBuilder { return b.IdentifierLength(10) }},
		{"zero field length length", func(b *RecordFormatBuilder) *RecordFormatBuilder { return b.FieldLengthLength(0) }},
		{"zero field start length", func(b *RecordFormatBuilder) *RecordFormatBuilder { return b.FieldStartLength(0) }},
		{"impl defined part too large", func(b *RecordFormatBuilder) *RecordFormatBuilder { return b.ImplDefinedPartLength(12) }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.build(NewRecordFormatBuilder()).Build()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidArgument)
		})
	}
}

func TestRecordFormatBuilder_FirstErrorWins(t *testing.T) {
	_, err := NewRecordFormatBuilder().IndicatorLength(11).FieldStartLength(0).Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "indicator length")
}

func TestRecordFormat_Equality(t *testing.T) {
	a := mustFormat(t, 2, 2, 4, 5, 0)
	b := mustFormat(t, 2, 2, 4, 5, 0)
	c := mustFormat(t, 2, 2, 4, 5, 1)

	assert.True(t, a == b)
	assert.False(t, a == c)

	seen := map[RecordFormat]bool{a: true}
	assert.True(t, seen[b])
	assert.False(t, seen[c])
}

func TestRecordFormatBuilderFrom(t *testing.T) {
	base := mustFormat(t, 1, 1, 3, 4, 0)
	f, err := NewRecordFormatBuilderFrom(base).ImplDefinedPartLength(2).Build()
	require.NoError(t, err)
	assert.Equal(t, 1, f.IndicatorLength())
	assert.Equal(t, 2, f.ImplDefinedPartLength())
}

func TestNewRecordBuilder_ZeroFormat(t *testing.T) {
	_, err := NewRecordBuilder(RecordFormat{})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}
