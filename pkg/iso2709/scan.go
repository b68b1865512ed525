package iso2709

// ScanRecords is a bufio.SplitFunc that frames consecutive records using the
// record length in each label. Line breaks between records are skipped.
func ScanRecords(data []byte, atEOF bool) (advance int, token []byte, err error) {
	skip := 0
	for skip < len(data) && (data[skip] == '\n' || data[skip] == '\r') {
		skip++
	}
	rest := data[skip:]
	if len(rest) == 0 {
		if atEOF {
			return len(data), nil, nil
		}
		return skip, nil, nil
	}
	if len(rest) < recordLengthWidth {
		if atEOF {
			return 0, nil, formatError("ScanRecords", "truncated record of %d bytes", len(rest))
		}
		return skip, nil, nil
	}
	n, err := parseDigits(rest[:recordLengthWidth])
	if err != nil {
		return 0, nil, formatError("ScanRecords", "record length: %v", err)
	}
	if n < MinRecordLength {
		return 0, nil, formatError("ScanRecords", "record length %d below minimum %d", n, MinRecordLength)
	}
	if len(rest) < n {
		if atEOF {
			return 0, nil, formatError("ScanRecords", "truncated record: need %d bytes, have %d", n, len(rest))
		}
		return skip, nil, nil
	}
	return skip + n, rest[:n], nil
}
