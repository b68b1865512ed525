package iso2709

// appendState is the position of the record builder in the canonical field
// order: identifier field, reference fields, data fields.
type appendState int

const (
	awaitingIDField appendState = iota
	inReferenceFields
	inDataFields
	inDataField
)

func (s appendState) String() string {
	switch s {
	case awaitingIDField:
		return "awaiting identifier field"
	case inReferenceFields:
		return "in reference fields"
	case inDataFields:
		return "in data fields"
	case inDataField:
		return "in data field"
	}
	return "unknown"
}

// builderCall names a state-dependent RecordBuilder method.
type builderCall int

const (
	callAppendIdentifierField builderCall = iota
	callAppendReferenceField
	callStartDataField
	callAppendSubfield
	callEndDataField
	callBuild
)

var callNames = [...]string{
	callAppendIdentifierField: "AppendIdentifierField",
	callAppendReferenceField:  "AppendReferenceField",
	callStartDataField:        "StartDataField",
	callAppendSubfield:        "AppendSubfield",
	callEndDataField:          "EndDataField",
	callBuild:                 "Build",
}

func (c builderCall) String() string { return callNames[c] }

// transitions is the complete set of legal calls. A call missing from a
// state's row is an IllegalState error.
var transitions = map[appendState]map[builderCall]appendState{
	awaitingIDField: {
		callAppendIdentifierField: inReferenceFields,
		callAppendReferenceField:  inReferenceFields,
		callStartDataField:        inDataField,
		callBuild:                 awaitingIDField,
	},
	inReferenceFields: {
		callAppendReferenceField: inReferenceFields,
		callStartDataField:       inDataField,
		callBuild:                inReferenceFields,
	},
	inDataFields: {
		callStartDataField: inDataField,
		callBuild:          inDataFields,
	},
	inDataField: {
		callAppendSubfield: inDataField,
		callEndDataField:   inDataFields,
	},
}

// next returns the state after call, or an IllegalState error.
func (s appendState) next(call builderCall) (appendState, error) {
	if to, ok := transitions[s][call]; ok {
		return to, nil
	}
	return s, illegalState(call.String(), "not allowed while %s", s)
}
