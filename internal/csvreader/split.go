package csvreader

import "bytes"

// recordScanner finds record boundaries without decoding fields. It agrees with the
// decoder on what a row is: quoted fields may span lines, blank lines and comment
// lines are not rows.
type recordScanner struct {
	quote   byte
	comment byte // 0 disables comments
}

func newRecordScanner(comment rune) recordScanner {
	return recordScanner{quote: '"', comment: byte(comment)}
}

func (s recordScanner) isComment(b []byte) bool {
	return s.comment != 0 && len(b) > 0 && b[0] == s.comment
}

// recordEnd returns the length of the record at the start of b including its
// line terminator, or len(b) when the record is not terminated.
func (s recordScanner) recordEnd(b []byte) int {
	nl := bytes.IndexByte(b, '\n')
	if s.isComment(b) || (nl >= 0 && bytes.IndexByte(b[:nl], s.quote) < 0) {
		if nl < 0 {
			return len(b)
		}
		return nl + 1
	}

	inQuotes := false
	for i := 0; i < len(b); i++ {
		switch b[i] {
		case s.quote:
			inQuotes = !inQuotes
		case '\n':
			if !inQuotes {
				return i + 1
			}
		}
	}
	return len(b)
}

// scan walks b until it has seen rows data rows or runs out of input. It returns
// the number of bytes consumed and the rows found in them.
func (s recordScanner) scan(b []byte, rows int64) (int, int64) {
	var pos int
	var n int64
	for n < rows && pos < len(b) {
		end := s.recordEnd(b[pos:])
		if s.counts(b[pos : pos+end]) {
			n++
		}
		pos += end
	}
	return pos, n
}

// counts reports whether rec is a data row rather than a blank or comment line.
func (s recordScanner) counts(rec []byte) bool {
	if s.isComment(rec) {
		return false
	}
	rec = bytes.TrimSuffix(rec, []byte{'\n'})
	rec = bytes.TrimSuffix(rec, []byte{'\r'})
	return len(rec) > 0
}

// toggleQuotes returns the quote state after reading line, starting from inQuotes.
func (s recordScanner) toggleQuotes(line []byte, inQuotes bool) bool {
	if bytes.Count(line, []byte{s.quote})%2 == 1 {
		return !inQuotes
	}
	return inQuotes
}
