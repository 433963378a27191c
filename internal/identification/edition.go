package identification

import (
	"regexp"
	"strings"
)

// editionDef defines an edition marker by its display label and the pattern
// matched as the final word group of a table name.
type editionDef struct {
	label   string
	pattern string
}

// editionDefs is the single source of truth for edition suffixes. Longer
// phrases come first so "Vault Edition" is not consumed as a bare version.
var editionDefs = []editionDef{
	{"Vault Edition", `VAULT\s+EDITION`},
	{"Limited Edition", `LIMITED\s+EDITION|LE`},
	{"Special Edition", `SPECIAL\s+EDITION|SE`},
	{"Collector's Edition", `COLLECTOR'?S\s+EDITION|CE`},
	{"Premium", `PREMIUM`},
	{"Pro", `PRO`},
	{"VR", `VR(?:\s+EDITION)?`},
	{"Remastered", `REMASTERED`},
	{"Mod", `(?:VPW\s+)?MOD`},
	{"Version", `(?:V|VER\.?\s*)?\d+(?:\.\d+)+[A-Z]?|V\d+`},
}

type editionPattern struct {
	pattern *regexp.Regexp
	label   string
}

// editionSuffixPatterns match an edition as the trailing word group of a head
// (a name without its trailing annotation). Built from editionDefs at init.
var editionSuffixPatterns []editionPattern

func init() {
	for _, def := range editionDefs {
		pattern := regexp.MustCompile(`(?i)^(.*?\S)[\s\-:,]+(?:` + def.pattern + `)\s*$`)
		editionSuffixPatterns = append(editionSuffixPatterns, editionPattern{pattern, def.label})
	}
}

// StripEditionSuffix removes trailing edition markers from name, keeping any
// trailing parenthetical annotation in place. "Metallica Pro (Stern 2013)"
// becomes "Metallica (Stern 2013)". The boolean reports whether anything was
// removed.
func StripEditionSuffix(name string) (string, bool) {
	head, annotation := splitAnnotation(name)
	stripped := false
	for {
		next, _, ok := trimEdition(head)
		if !ok {
			break
		}
		head = next
		stripped = true
	}
	if !stripped {
		return strings.TrimSpace(name), false
	}
	return joinAnnotation(head, annotation), true
}

// ExtractEdition reports the label of the last edition marker in name.
func ExtractEdition(name string) (string, bool) {
	head, _ := splitAnnotation(name)
	_, label, ok := trimEdition(head)
	return label, ok
}

func trimEdition(head string) (string, string, bool) {
	for _, ep := range editionSuffixPatterns {
		match := ep.pattern.FindStringSubmatch(head)
		if match == nil {
			continue
		}
		rest := strings.TrimSpace(match[1])
		if rest == "" {
			continue
		}
		return rest, ep.label, true
	}
	return head, "", false
}

var trailingAnnotation = regexp.MustCompile(`^(.*?)\s*(\([^()]*\))\s*$`)

// splitAnnotation separates a trailing parenthetical annotation from name.
func splitAnnotation(name string) (string, string) {
	name = strings.TrimSpace(name)
	match := trailingAnnotation.FindStringSubmatch(name)
	if match == nil || strings.TrimSpace(match[1]) == "" {
		return name, ""
	}
	return strings.TrimSpace(match[1]), match[2]
}

func joinAnnotation(head, annotation string) string {
	head = strings.TrimSpace(head)
	if annotation == "" {
		return head
	}
	return head + " " + annotation
}

// StripAnnotation removes all trailing parenthetical annotations from name.
func StripAnnotation(name string) string {
	for {
		head, annotation := splitAnnotation(name)
		if annotation == "" {
			return head
		}
		name = head
	}
}
