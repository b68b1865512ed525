package iso2709

import (
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
)

// DefaultCharset passes text through unchanged; any byte outside the 7-bit
// repertoire is then rejected by the content checks.
var DefaultCharset encoding.Encoding = encoding.Nop

// LookupCharset resolves an IANA charset name. The empty name, "ASCII" and
// "US-ASCII" resolve to DefaultCharset.
func LookupCharset(name string) (encoding.Encoding, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "", "ASCII", "US-ASCII", "ANSI_X3.4-1968", "ISO646-US":
		return DefaultCharset, nil
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return nil, invalidArgument("LookupCharset", "unknown charset %q: %v", name, err)
	}
	if enc == nil {
		return nil, invalidArgument("LookupCharset", "charset %q is not supported", name)
	}
	return enc, nil
}

// encodeText maps logical text to output bytes. The result still has to
// pass the content checks.
func encodeText(enc encoding.Encoding, op, what, s string) ([]byte, error) {
	if enc == nil || enc == encoding.Nop {
		return []byte(s), nil
	}
	b, err := enc.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, formatError(op, "%s cannot be encoded: %v", what, err)
	}
	return b, nil
}

func decodeText(enc encoding.Encoding, op string, b []byte) (string, error) {
	if enc == nil || enc == encoding.Nop {
		return string(b), nil
	}
	s, err := enc.NewDecoder().Bytes(b)
	if err != nil {
		return "", formatError(op, "cannot decode field content: %v", err)
	}
	return string(s), nil
}
