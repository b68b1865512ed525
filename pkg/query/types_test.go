package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/iso2709/pkg/codec"
	"github.com/ssargent/iso2709/pkg/iso2709"
)

func parse(t *testing.T, rec *codec.Record) *iso2709.Record {
	t.Helper()
	data, err := codec.NewRecordCodec().Encode(rec)
	require.NoError(t, err)
	parsed, err := iso2709.ParseRecord(data)
	require.NoError(t, err)
	return parsed
}

func TestParseFieldPath(t *testing.T) {
	tests := []struct {
		field   string
		want    FieldPath
		wantErr string
	}{
		{field: "001", want: FieldPath{Tag: "001"}},
		{field: "245", want: FieldPath{Tag: "245"}},
		{field: "245$a", want: FieldPath{Tag: "245", Code: "a"}},
		{field: "", wantErr: "invalid tag"},
		{field: "24", wantErr: "invalid tag"},
		{field: "245$", wantErr: "empty subfield code"},
		{field: "001$a", wantErr: "has no subfields"},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			got, err := ParseFieldPath(tt.field)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRecordFieldExtractor(t *testing.T) {
	rec := parse(t, &codec.Record{Fields: []codec.Field{
		{Tag: "001", Value: "rec-1"},
		{Tag: "005", Value: "20240101"},
		{Tag: "245", Indicators: "10", Subfields: []codec.Subfield{
			{Code: "a", Value: "Title"},
			{Code: "b", Value: "Subtitle"},
		}},
		{Tag: "650", Indicators: " 0", Subfields: []codec.Subfield{{Code: "a", Value: "Cats"}}},
		{Tag: "650", Indicators: " 0", Subfields: []codec.Subfield{{Code: "a", Value: "Dogs"}}},
	}})
	extractor := &RecordFieldExtractor{}

	tests := []struct {
		field string
		want  []string
	}{
		{"001", []string{"rec-1"}},
		{"005", []string{"20240101"}},
		{"245", []string{"Title", "Subtitle"}},
		{"245$b", []string{"Subtitle"}},
		{"650$a", []string{"Cats", "Dogs"}},
		{"650$z", nil},
		{"100", nil},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			got, err := extractor.Extract(rec, tt.field)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := extractor.Extract(rec, "000")
	assert.Error(t, err)
}

func TestFieldQuery_Validate(t *testing.T) {
	tests := []struct {
		name    string
		query   FieldQuery
		wantErr string
	}{
		{"valid", FieldQuery{Field: "245$a", Operator: OpEqual, Value: "x"}, ""},
		{"contains", FieldQuery{Field: "650", Operator: OpContains}, ""},
		{"empty field", FieldQuery{Operator: OpEqual}, "field name cannot be empty"},
		{"bad field", FieldQuery{Field: "x", Operator: OpEqual}, "invalid tag"},
		{"empty operator", FieldQuery{Field: "001"}, "operator cannot be empty"},
		{"bad operator", FieldQuery{Field: "001", Operator: "~"}, "invalid operator"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.query.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestFieldQuery_Matches(t *testing.T) {
	tests := []struct {
		op    string
		value string
		in    string
		want  bool
	}{
		{OpEqual, "b", "b", true},
		{OpEqual, "b", "c", false},
		{OpNotEqual, "b", "c", true},
		{OpLess, "b", "a", true},
		{OpLess, "b", "b", false},
		{OpLessEqual, "b", "b", true},
		{OpGreater, "1990", "2001", true},
		{OpGreaterEqual, "1990", "1990", true},
		{OpGreaterEqual, "1990", "1989", false},
		{OpPrefix, "Cat", "Cats", true},
		{OpPrefix, "Dog", "Cats", false},
		{OpContains, "at", "Cats", true},
		{"unknown", "x", "x", false},
	}

	for _, tt := range tests {
		t.Run(tt.op+" "+tt.value+" "+tt.in, func(t *testing.T) {
			q := FieldQuery{Field: "245$a", Operator: tt.op, Value: tt.value}
			assert.Equal(t, tt.want, q.Matches(tt.in))
		})
	}
}

func TestSimpleIterator(t *testing.T) {
	it := &simpleIterator{results: []QueryResult{{Values: []string{"a"}}, {Values: []string{"b"}}}}

	assert.Equal(t, QueryResult{}, it.Result())
	require.True(t, it.Next())
	assert.Equal(t, []string{"a"}, it.Result().Values)
	require.True(t, it.Next())
	assert.Equal(t, []string{"b"}, it.Result().Values)
	assert.False(t, it.Next())
	assert.NoError(t, it.Close())
	assert.False(t, it.Next())
}
