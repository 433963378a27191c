package tablefile

import (
	"bytes"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/richardlehane/mscfb"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// Kind tells Locate how to interpret container bytes.
type Kind int

const (
	KindCompound Kind = iota
	KindPlainText
)

func (k Kind) String() string {
	switch k {
	case KindCompound:
		return "compound-document"
	case KindPlainText:
		return "plain-text"
	default:
		return "unknown"
	}
}

// compoundMagic opens every compound document.
var compoundMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

// DetectKind picks a Kind from the leading bytes, falling back to the file
// extension when the header is inconclusive.
func DetectKind(name string, head []byte) Kind {
	if bytes.HasPrefix(head, compoundMagic) {
		return KindCompound
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".vbs", ".txt":
		return KindPlainText
	case ".vpx", ".vpt":
		return KindCompound
	}
	if len(head) > 0 {
		return KindPlainText
	}
	return KindCompound
}

// Locate extracts the script from container bytes.
func Locate(data []byte, kind Kind, opts Options) (*Script, error) {
	opts = opts.withDefaults()
	switch kind {
	case KindPlainText:
		return decodePlainText(data), nil
	default:
		return locateCompound(data, opts)
	}
}

// visitFunc receives each stream in container order and returns true to stop.
type visitFunc func(name string, data []byte) bool

func locateCompound(data []byte, opts Options) (*Script, error) {
	return locateInStreams(func(visit visitFunc) error {
		return walkCompound(data, visit)
	}, opts)
}

// locateInStreams runs the marker search over every candidate stream and
// returns the first accepted span.
func locateInStreams(walk func(visitFunc) error, opts Options) (*Script, error) {
	var (
		result       *Script
		rejectedFrom string
	)
	err := walk(func(name string, data []byte) bool {
		if opts.skipStream(name) {
			return false
		}
		s, found, rejected := findScript(data, opts)
		if rejected && rejectedFrom == "" {
			rejectedFrom = name
		}
		if !found {
			return false
		}
		out := make([]byte, s.end-s.start)
		copy(out, data[s.start:s.end])
		result = &Script{Data: out, Encoding: EncodingLatin1, Stream: name}
		return true
	})
	if result != nil {
		return result, nil
	}
	if err != nil {
		return nil, &ExtractionError{Reason: ErrContainer, Err: err}
	}
	if rejectedFrom != "" {
		return nil, &ExtractionError{Stream: rejectedFrom, Reason: ErrBelowPrintable}
	}
	return nil, &ExtractionError{Reason: ErrNoMarker}
}

// walkCompound visits the streams of a compound document in directory order.
func walkCompound(data []byte, visit visitFunc) error {
	doc, err := mscfb.New(bytes.NewReader(data))
	if err != nil {
		return err
	}
	for entry, err := doc.Next(); err == nil; entry, err = doc.Next() {
		if entry.Size <= 0 {
			continue
		}
		buf, readErr := io.ReadAll(entry)
		if readErr != nil {
			return readErr
		}
		name := strings.Join(append(append([]string{}, entry.Path...), entry.Name), "/")
		if visit(name, buf) {
			return nil
		}
	}
	return nil
}

// decodePlainText strips a byte-order mark and re-encodes the text to
// ISO-8859-1. Runes outside Latin-1 become '?'.
func decodePlainText(data []byte) *Script {
	switch {
	case bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}):
		return &Script{Data: EncodeLatin1(string(data[3:])), Encoding: EncodingUTF8BOM}
	case bytes.HasPrefix(data, []byte{0xFF, 0xFE}):
		return &Script{Data: fromUTF16(data[2:], unicode.LittleEndian), Encoding: EncodingUTF16LE}
	case bytes.HasPrefix(data, []byte{0xFE, 0xFF}):
		return &Script{Data: fromUTF16(data[2:], unicode.BigEndian), Encoding: EncodingUTF16BE}
	default:
		out := make([]byte, len(data))
		copy(out, data)
		return &Script{Data: out, Encoding: EncodingLatin1}
	}
}

func fromUTF16(data []byte, order unicode.Endianness) []byte {
	decoded, err := unicode.UTF16(order, unicode.IgnoreBOM).NewDecoder().Bytes(data)
	if err != nil {
		return EncodeLatin1(string(data))
	}
	return EncodeLatin1(string(decoded))
}

// EncodeLatin1 converts text to ISO-8859-1, one byte per rune. Runes outside
// Latin-1 become '?'.
func EncodeLatin1(text string) []byte {
	out := make([]byte, 0, len(text))
	for len(text) > 0 {
		r, size := utf8.DecodeRuneInString(text)
		text = text[size:]
		if b, ok := charmap.ISO8859_1.EncodeRune(r); ok && r != utf8.RuneError {
			out = append(out, b)
			continue
		}
		out = append(out, '?')
	}
	return out
}
