package identification

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"vpxmerge/internal/textutil"
)

// Identity is the derived name of a table.
type Identity struct {
	Raw          string `json:"raw"`
	Title        string `json:"title"`
	Normalized   string `json:"normalized"`
	WordSorted   string `json:"word_sorted"`
	Manufacturer string `json:"manufacturer,omitempty"`
	Year         int    `json:"year,omitempty"`
	Author       string `json:"author,omitempty"`
	Edition      string `json:"edition,omitempty"`
	ROM          string `json:"rom,omitempty"`
}

// makerYear matches "(Stern 2013)", "(Williams, 1992)" and "(1992)".
var makerYear = regexp.MustCompile(`\(\s*([^()]*?)[\s,]*((?:19|20)\d{2})\s*\)\s*$`)

// ParseIdentity derives an Identity from a raw display name. ROM is left empty
// for the caller to fill from script facts.
func ParseIdentity(raw string) Identity {
	id := Identity{Raw: raw}
	name := strings.TrimSpace(raw)
	if match := makerYear.FindStringSubmatch(name); match != nil {
		id.Manufacturer = strings.TrimSpace(match[1])
		id.Year, _ = strconv.Atoi(match[2])
	}
	title := StripAnnotation(name)
	if author, rest, ok := SplitAuthorPrefix(title); ok {
		id.Author = author
		title = rest
	}
	if label, ok := ExtractEdition(title); ok {
		id.Edition = label
	}
	id.Title = title
	id.Normalized = textutil.Normalize(title)
	id.WordSorted = textutil.WordSorted(title)
	return id
}

// Candidates returns the lookup keys for the identity's raw name.
func (id Identity) Candidates() []string {
	return Candidates(id.Raw)
}

// TitleFromPath derives the display name from a table file path. Names made
// only of lower-case words joined by underscores are title-cased.
func TitleFromPath(path string) string {
	if path == "" {
		return ""
	}
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	machineName := strings.Contains(base, "_") && !strings.Contains(base, " ")
	base = strings.ReplaceAll(base, "_", " ")
	title := strings.Join(strings.Fields(base), " ")
	if machineName && title == strings.ToLower(title) {
		title = cases.Title(language.Und).String(title)
	}
	return title
}
