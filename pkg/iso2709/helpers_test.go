package iso2709

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// event is one FieldHandler call, also used to drive a RecordBuilder.
type event struct {
	kind string // ref, start, impl, data, end
	a    string
	b    string
	c    string
}

func ref(tag, impl, value string) event        { return event{"ref", tag, impl, value} }
func start(tag, impl, indicators string) event { return event{"start", tag, impl, indicators} }
func data(code, value string) event            { return event{"data", code, value, ""} }
func extra(impl string) event                  { return event{"impl", impl, "", ""} }
func end() event                               { return event{"end", "", "", ""} }

type recorder struct {
	events []event
}

func (r *recorder) ReferenceField(tag, implDefinedPart, value string) {
	r.events = append(r.events, ref(tag, implDefinedPart, value))
}

func (r *recorder) StartDataField(tag, implDefinedPart, indicators string) {
	r.events = append(r.events, start(tag, implDefinedPart, indicators))
}

func (r *recorder) EndDataField() { r.events = append(r.events, end()) }

func (r *recorder) AdditionalImplDefinedPart(implDefinedPart string) {
	r.events = append(r.events, extra(implDefinedPart))
}

func (r *recorder) Data(identifier, value string) {
	r.events = append(r.events, data(identifier, value))
}

// replay drives b with events; impl events are produced by the decoder only
// and are skipped.
func replay(t *testing.T, b *RecordBuilder, events []event) {
	t.Helper()
	for _, e := range events {
		var err error
		switch e.kind {
		case "ref":
			err = b.AppendReferenceField(e.a, e.b, e.c)
		case "start":
			err = b.StartDataField(e.a, e.b, e.c)
		case "data":
			err = b.AppendSubfield(e.a, e.b)
		case "end":
			err = b.EndDataField()
		}
		require.NoError(t, err, "replaying %+v", e)
	}
}

func mustFormat(t *testing.T, il, idl, fll, fsl, idpl int) RecordFormat {
	t.Helper()
	f, err := NewRecordFormatBuilder().
		IndicatorLength(il).
		IdentifierLength(idl).
		FieldLengthLength(fll).
		FieldStartLength(fsl).
		ImplDefinedPartLength(idpl).
		Build()
	require.NoError(t, err)
	return f
}

func mustBuilder(t *testing.T, f RecordFormat, opts ...BuilderOption) *RecordBuilder {
	t.Helper()
	b, err := NewRecordBuilder(f, opts...)
	require.NoError(t, err)
	return b
}
