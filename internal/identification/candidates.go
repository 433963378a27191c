package identification

import (
	"regexp"
	"strings"
	"unicode"

	"vpxmerge/internal/textutil"
)

// orderedSet keeps the first occurrence of each value.
type orderedSet struct {
	seen   map[string]struct{}
	values []string
}

func newOrderedSet() *orderedSet {
	return &orderedSet{seen: make(map[string]struct{})}
}

func (s *orderedSet) add(value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	if _, ok := s.seen[value]; ok {
		return
	}
	s.seen[value] = struct{}{}
	s.values = append(s.values, value)
}

func (s *orderedSet) snapshot() []string {
	return append([]string(nil), s.values...)
}

// stemRewrite derives alternative spellings from a stem. An empty result
// means the rewrite does not apply.
type stemRewrite struct {
	name  string
	apply func(stem string) []string
}

// stemRewrites run in order; each one sees every stem produced so far.
var stemRewrites = []stemRewrite{
	{"annotation", rewriteAnnotation},
	{"author", rewriteAuthor},
	{"edition", rewriteEdition},
	{"plural", rewritePlural},
	{"hyphen", rewriteHyphen},
	{"article", rewriteArticle},
}

// Candidates expands a display name into an ordered, deduplicated list of
// folded lookup keys. Every stem contributes its folded, normalized and
// word-sorted forms in that order.
func Candidates(raw string) []string {
	stems := newOrderedSet()
	stems.add(raw)
	for _, rewrite := range stemRewrites {
		for _, stem := range stems.snapshot() {
			for _, alt := range rewrite.apply(stem) {
				stems.add(alt)
			}
		}
	}

	keys := newOrderedSet()
	for _, stem := range stems.values {
		keys.add(textutil.FoldKey(stem))
		keys.add(textutil.Normalize(stem))
		keys.add(textutil.WordSorted(stem))
	}
	return keys.values
}

func rewriteAnnotation(stem string) []string {
	stripped := StripAnnotation(stem)
	if stripped == stem {
		return nil
	}
	return []string{stripped}
}

func rewriteAuthor(stem string) []string {
	author, rest, ok := SplitAuthorPrefix(stem)
	if !ok {
		return nil
	}
	return []string{
		rest,
		StripAnnotation(rest) + " (" + author + ")",
	}
}

func rewriteEdition(stem string) []string {
	stripped, ok := StripEditionSuffix(stem)
	if !ok {
		return nil
	}
	return []string{stripped}
}

func rewritePlural(stem string) []string {
	head, annotation := splitAnnotation(stem)
	cut := strings.LastIndexFunc(head, unicode.IsSpace)
	prefix, last := head[:cut+1], head[cut+1:]
	if !isAlphaWord(last) {
		return nil
	}
	var toggled string
	switch {
	case len(last) > 3 && (strings.HasSuffix(last, "s") || strings.HasSuffix(last, "S")):
		toggled = last[:len(last)-1]
	case strings.HasSuffix(last, "s") || strings.HasSuffix(last, "S"):
		return nil
	default:
		toggled = last + "s"
	}
	return []string{joinAnnotation(prefix+toggled, annotation)}
}

func isAlphaWord(word string) bool {
	if word == "" {
		return false
	}
	for _, r := range word {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

var internalHyphen = regexp.MustCompile(`([\p{L}\p{N}])-+([\p{L}\p{N}])`)

func rewriteHyphen(stem string) []string {
	if !internalHyphen.MatchString(stem) {
		return nil
	}
	joined := stem
	for internalHyphen.MatchString(joined) {
		joined = internalHyphen.ReplaceAllString(joined, "$1$2")
	}
	return []string{joined}
}

func rewriteArticle(stem string) []string {
	if len(stem) > 4 && strings.EqualFold(stem[:4], "the ") {
		return []string{strings.TrimSpace(stem[4:])}
	}
	return []string{"The " + stem}
}
