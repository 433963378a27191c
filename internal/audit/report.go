package audit

import (
	"fmt"
	"time"

	"vpxmerge/internal/assets"
	"vpxmerge/internal/autofix"
	"vpxmerge/internal/identification"
	"vpxmerge/internal/patches"
	"vpxmerge/internal/scriptfacts"
	"vpxmerge/internal/tablefile"
)

// Report is the outcome of auditing one table file.
type Report struct {
	Path     string                  `json:"path"`
	Base     string                  `json:"base"`
	Name     string                  `json:"name"`
	Identity identification.Identity `json:"identity"`
	Script   *ScriptInfo             `json:"script,omitempty"`
	Facts    scriptfacts.Facts       `json:"facts"`
	Metadata *MetadataMatch          `json:"metadata,omitempty"`
	Assets   []assets.Finding        `json:"assets"`
	Patch    *patches.Patch          `json:"patch,omitempty"`
	Fixes    []autofix.Change        `json:"fixes,omitempty"`
	Warnings []string                `json:"warnings,omitempty"`
	Error    string                  `json:"error,omitempty"`
	Elapsed  time.Duration           `json:"elapsed_ns"`

	// Err is the extraction failure; Error carries its message for JSON.
	Err error `json:"-"`
}

// ScriptInfo describes the extracted script.
type ScriptInfo struct {
	Bytes    int                `json:"bytes"`
	Lines    int                `json:"lines"`
	Encoding tablefile.Encoding `json:"encoding"`
	Stream   string             `json:"stream,omitempty"`
}

// MetadataMatch is the metadata feed entry a table resolved to.
type MetadataMatch struct {
	ID      string                     `json:"id"`
	Name    string                     `json:"name"`
	Preview string                     `json:"preview,omitempty"`
	ByROM   bool                       `json:"by_rom,omitempty"`
	Match   identification.MatchResult `json:"match"`
}

// HasScript reports whether extraction succeeded.
func (r Report) HasScript() bool {
	return r.Script != nil
}

// Finding returns the first finding of kind k.
func (r Report) Finding(k assets.Kind) (assets.Finding, bool) {
	for _, finding := range r.Assets {
		if finding.Kind == k {
			return finding, true
		}
	}
	return assets.Finding{}, false
}

func (r *Report) addWarning(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

func (r *Report) fail(err error) {
	r.Err = err
	r.Error = err.Error()
}
