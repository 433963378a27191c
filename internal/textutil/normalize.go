package textutil

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// apostropheStripper removes apostrophe variants so possessives collapse
// ("JP's" and "JPs" normalize identically).
var apostropheStripper = strings.NewReplacer(
	"'", "",
	"’", "",
	"‘", "",
	"`", "",
	"´", "",
	"ʼ", "",
)

// stopWords are dropped from word-sorted forms.
var stopWords = map[string]struct{}{
	"the": {},
	"a":   {},
	"an":  {},
	"of":  {},
	"and": {},
	"in":  {},
}

// Normalize returns the canonical form of a display name: lower-cased,
// apostrophes stripped, accents folded, every rune outside [a-z0-9] and
// whitespace replaced by a space, whitespace collapsed and trimmed.
// Normalize is idempotent.
func Normalize(name string) string {
	if name == "" {
		return ""
	}
	lowered := strings.ToLower(name)
	lowered = apostropheStripper.Replace(lowered)
	lowered = foldAccents(lowered)

	var b strings.Builder
	b.Grow(len(lowered))
	for _, r := range lowered {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// foldAccents decomposes the string and drops combining marks. The chain is
// built per call because transformers carry state.
func foldAccents(value string) string {
	chain := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(chain, value)
	if err != nil {
		return value
	}
	return folded
}

// WordSorted returns the normalized name with stop-words removed and the
// remaining tokens sorted, so "Elvira and the Party Monsters" and
// "Party Monsters Elvira" produce the same value.
func WordSorted(name string) string {
	tokens := strings.Fields(Normalize(name))
	kept := tokens[:0]
	for _, token := range tokens {
		if _, stop := stopWords[token]; stop {
			continue
		}
		kept = append(kept, token)
	}
	sort.Strings(kept)
	return strings.Join(kept, " ")
}

// IsStopWord reports whether token is dropped by WordSorted.
func IsStopWord(token string) bool {
	_, ok := stopWords[strings.ToLower(token)]
	return ok
}

// FoldKey lower-cases and collapses whitespace without touching punctuation.
// Reference index keys are stored in this form.
func FoldKey(value string) string {
	return strings.Join(strings.Fields(strings.ToLower(value)), " ")
}

// Tokenize splits a key on whitespace.
func Tokenize(value string) []string {
	return strings.Fields(value)
}
