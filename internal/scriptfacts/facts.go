package scriptfacts

import (
	"strings"

	"vpxmerge/internal/textutil"
)

// DMDFamily names a DMD rendering framework.
type DMDFamily string

const (
	DMDUltra DMDFamily = "UltraDMD"
	DMDFlex  DMDFamily = "FlexDMD"
)

// Facts is what Extract learned from a script. Zero values mean absent.
type Facts struct {
	ROM              string      `json:"rom,omitempty"`
	DMDFamilies      []DMDFamily `json:"dmd_families,omitempty"`
	DMDProjectFolder string      `json:"dmd_project_folder,omitempty"`
	MusicFolders     []string    `json:"music_folders,omitempty"`
}

// UsesDMD reports whether any DMD detector fired.
func (f Facts) UsesDMD() bool {
	return len(f.DMDFamilies) > 0
}

// Uses reports whether the given family fired.
func (f Facts) Uses(family DMDFamily) bool {
	for _, fired := range f.DMDFamilies {
		if fired == family {
			return true
		}
	}
	return false
}

// DMDLabel renders the fired families for display, e.g. "UltraDMD/FlexDMD".
func (f Facts) DMDLabel() string {
	parts := make([]string, len(f.DMDFamilies))
	for i, family := range f.DMDFamilies {
		parts[i] = string(family)
	}
	return strings.Join(parts, "/")
}

type rule struct {
	name  string
	apply func(code []string, facts *Facts)
}

var rules = []rule{
	{name: "rom", apply: applyROM},
	{name: "dmd", apply: applyDMD},
	{name: "dmd_project_folder", apply: applyProjectFolder},
	{name: "music", apply: applyMusic},
}

// Extract runs every rule over text.
func Extract(text string) Facts {
	code := codeLines(text)
	var facts Facts
	for _, r := range rules {
		r.apply(code, &facts)
	}
	return facts
}

// codeLines returns the non-comment portion of every line. Comment lines
// become empty strings so positions stay aligned with the source.
func codeLines(text string) []string {
	lines := textutil.SplitLines(text)
	code := make([]string, len(lines))
	for i, line := range lines {
		code[i] = textutil.CodePart(strings.TrimRight(line.Text, "\r"))
	}
	return code
}
