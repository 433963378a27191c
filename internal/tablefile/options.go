package tablefile

import "strings"

const (
	defaultSampleWindow      = 256
	defaultMinPrintableRatio = 0.95
	defaultTerminator        = "ENDB"
)

// Options tunes marker search and boundary detection. The zero value is
// replaced by DefaultOptions field by field.
type Options struct {
	// Markers are searched case-insensitively; the earliest accepted hit in a
	// stream wins.
	Markers []string
	// SkipStreams lists lower-case substrings of stream names that never hold
	// the script.
	SkipStreams []string
	// SampleWindow is the number of bytes after a marker inspected by the
	// printable gate.
	SampleWindow int
	// MinPrintableRatio is the share of printable bytes the sample must reach.
	MinPrintableRatio float64
	// Terminator is stripped from the end of the span when present.
	Terminator string
}

// DefaultOptions returns the settings used for .vpx containers.
func DefaultOptions() Options {
	return Options{
		Markers:           []string{"Option Explicit", "Option", "Const"},
		SkipStreams:       []string{"structure", "gamestru", "mac", "version"},
		SampleWindow:      defaultSampleWindow,
		MinPrintableRatio: defaultMinPrintableRatio,
		Terminator:        defaultTerminator,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if len(o.Markers) == 0 {
		o.Markers = def.Markers
	}
	if o.SkipStreams == nil {
		o.SkipStreams = def.SkipStreams
	}
	if o.SampleWindow <= 0 {
		o.SampleWindow = def.SampleWindow
	}
	if o.MinPrintableRatio <= 0 || o.MinPrintableRatio > 1 {
		o.MinPrintableRatio = def.MinPrintableRatio
	}
	if o.Terminator == "" {
		o.Terminator = def.Terminator
	}
	return o
}

func (o Options) skipStream(name string) bool {
	lowered := strings.ToLower(name)
	for _, marker := range o.SkipStreams {
		if marker != "" && strings.Contains(lowered, marker) {
			return true
		}
	}
	return false
}

func (o Options) lowerMarkers() [][]byte {
	out := make([][]byte, 0, len(o.Markers))
	for _, marker := range o.Markers {
		if marker == "" {
			continue
		}
		out = append(out, asciiLower([]byte(marker)))
	}
	return out
}
