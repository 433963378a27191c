package tablefile

import (
	"bytes"
	"encoding/binary"
)

// span is a half-open byte range inside a stream.
type span struct {
	start int
	end   int
}

// findScript locates the script span inside a single stream. The bool result
// is false when no marker was found; rejected reports whether at least one
// marker hit failed the printable gate.
func findScript(data []byte, o Options) (s span, found bool, rejected bool) {
	if len(data) == 0 {
		return span{}, false, false
	}
	markers := o.lowerMarkers()
	lower := asciiLower(data)

	for pos := nextMarker(lower, 0, markers); pos >= 0; pos = nextMarker(lower, pos+1, markers) {
		sample := data[pos:min(len(data), pos+o.SampleWindow)]
		if printableRatio(sample) < o.MinPrintableRatio {
			rejected = true
			continue
		}
		start := scanBackToLineStart(data, pos)
		end := trimTail(data, pos, o.Terminator)
		return span{start: start, end: end}, true, rejected
	}
	return span{}, false, rejected
}

// nextMarker returns the smallest offset >= from at which any marker begins
// on a word boundary, or -1.
func nextMarker(lower []byte, from int, markers [][]byte) int {
	best := -1
	for _, marker := range markers {
		offset := from
		for offset < len(lower) {
			idx := bytes.Index(lower[offset:], marker)
			if idx < 0 {
				break
			}
			at := offset + idx
			if at == 0 || !isWordByte(lower[at-1]) {
				if best < 0 || at < best {
					best = at
				}
				break
			}
			offset = at + 1
		}
	}
	return best
}

// printableRatio is the share of sample bytes that are printable ASCII,
// tab, LF or CR.
func printableRatio(sample []byte) float64 {
	if len(sample) == 0 {
		return 0
	}
	printable := 0
	for _, b := range sample {
		if isPrintableASCII(b) {
			printable++
		}
	}
	return float64(printable) / float64(len(sample))
}

// reverseCursor walks a buffer from an offset toward its start.
type reverseCursor struct {
	data []byte
	pos  int
}

func (c *reverseCursor) next() (byte, bool) {
	if c.pos <= 0 {
		return 0, false
	}
	c.pos--
	return c.data[c.pos], true
}

// scanBackToLineStart widens the span from marker to the start of the
// contiguous text run. When the run was cut short by a binary byte, the start
// moves forward to the first complete line so partial garbage is dropped,
// unless the run is a length-prefixed record body that reaches the marker.
func scanBackToLineStart(data []byte, marker int) int {
	cursor := &reverseCursor{data: data, pos: marker}
	runStart := marker
	hitBinary := false
	for {
		b, ok := cursor.next()
		if !ok {
			break
		}
		if !isTextByte(b) {
			hitBinary = true
			break
		}
		runStart = cursor.pos
	}
	if !hitBinary || runStart == marker || lengthPrefixed(data, runStart, marker) {
		return runStart
	}

	prefix := data[runStart:marker]
	idx := bytes.IndexAny(prefix, "\r\n")
	if idx < 0 {
		return marker
	}
	next := runStart + idx
	if data[next] == '\r' && next+1 < marker && data[next+1] == '\n' {
		next++
	}
	return next + 1
}

// lengthPrefixed reports whether the four bytes before start hold a
// little-endian length whose body spans past marker and fits in data. Table
// records store the script that way, so the run is the script's first line.
func lengthPrefixed(data []byte, start, marker int) bool {
	if start < 4 {
		return false
	}
	n := int64(binary.LittleEndian.Uint32(data[start-4 : start]))
	return n > int64(marker-start) && int64(start)+n <= int64(len(data))
}

// trimTail walks back from the stream end over padding, a terminator token,
// and any padding before it. The result never cuts into the marker.
func trimTail(data []byte, floor int, terminator string) int {
	end := trimPadding(data, floor, len(data))
	if term := []byte(terminator); len(term) > 0 && end-floor >= len(term) {
		if bytes.EqualFold(data[end-len(term):end], term) {
			end = trimPadding(data, floor, end-len(term))
		}
	}
	return end
}

func trimPadding(data []byte, floor, end int) int {
	for end > floor && isPadding(data[end-1]) {
		end--
	}
	return end
}

func isPadding(b byte) bool {
	return b <= ' ' || b == 0x7F
}

func isPrintableASCII(b byte) bool {
	return (b >= 0x20 && b <= 0x7E) || b == '\t' || b == '\n' || b == '\r'
}

// isTextByte accepts printable ASCII, the Latin-1 printable range and the
// usual whitespace controls.
func isTextByte(b byte) bool {
	return isPrintableASCII(b) || b >= 0xA0
}

func isWordByte(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= '0' && b <= '9') || b == '_'
}

func asciiLower(data []byte) []byte {
	out := make([]byte, len(data))
	for i, b := range data {
		if b >= 'A' && b <= 'Z' {
			b += 'a' - 'A'
		}
		out[i] = b
	}
	return out
}
