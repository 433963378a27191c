package identification

import (
	"regexp"
	"strings"
)

// authorPrefix matches a possessive author tag such as "JP's" or "Bord's"
// leading a table name.
var authorPrefix = regexp.MustCompile(`^([\p{L}\p{N}][\p{L}\p{N}.&]*)['’]s\s+(.+)$`)

// groupPrefix matches known release-group tags used without a possessive.
var groupPrefix = regexp.MustCompile(`(?i)^(VPW|VPX)\s*[-:]?\s+(.+)$`)

// SplitAuthorPrefix separates a leading author tag from name. "JP's Metallica"
// yields ("JP", "Metallica", true).
func SplitAuthorPrefix(name string) (author, rest string, ok bool) {
	name = strings.TrimSpace(name)
	if match := authorPrefix.FindStringSubmatch(name); match != nil {
		return match[1], strings.TrimSpace(match[2]), true
	}
	if match := groupPrefix.FindStringSubmatch(name); match != nil {
		return strings.ToUpper(match[1]), strings.TrimSpace(match[2]), true
	}
	return "", name, false
}
