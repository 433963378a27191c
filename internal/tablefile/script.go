package tablefile

import (
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// Encoding records how the script bytes were stored in the container before
// they were re-encoded to ISO-8859-1.
type Encoding string

const (
	EncodingLatin1  Encoding = "latin1"
	EncodingUTF8BOM Encoding = "utf-8-bom"
	EncodingUTF16LE Encoding = "utf-16le"
	EncodingUTF16BE Encoding = "utf-16be"
)

// Script is an extracted automation script. Data holds one byte per character
// (ISO-8859-1). A Script is never modified after extraction.
type Script struct {
	Data     []byte
	Encoding Encoding
	// Stream names the compound-document stream the script came from; empty
	// for plain-text containers.
	Stream string
}

// Len returns the script size in bytes.
func (s *Script) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Data)
}

// Text decodes the script into a Go string.
func (s *Script) Text() string {
	if s == nil || len(s.Data) == 0 {
		return ""
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(s.Data)
	if err != nil {
		runes := make([]rune, len(s.Data))
		for i, b := range s.Data {
			runes[i] = rune(b)
		}
		return string(runes)
	}
	return string(decoded)
}

// Clean returns the text with doubled carriage returns collapsed, all line
// endings normalized to "\n", and surrounding whitespace trimmed.
func (s *Script) Clean() string {
	text := s.Text()
	text = strings.ReplaceAll(text, "\r\r", "\r")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.TrimSpace(text)
}

// Lines splits the cleaned text into lines.
func (s *Script) Lines() []string {
	clean := s.Clean()
	if clean == "" {
		return nil
	}
	return strings.Split(clean, "\n")
}
