package autofix

import (
	"fmt"
	"strings"

	"vpxmerge/internal/textutil"
)

// DefaultConstPath replaces registry and special-folder path lookups.
const DefaultConstPath = "./"

// NoIssues is the summary for a script no rule touched.
const NoIssues = "no issues detected"

// Change describes one rewrite. Line is 1-based in the input script.
type Change struct {
	Rule        string `json:"rule"`
	Line        int    `json:"line"`
	Description string `json:"description"`
}

// Result is the rewritten script and the changes made, in rule order.
type Result struct {
	Text    string   `json:"-"`
	Changes []Change `json:"changes"`
}

// Changed reports whether any rule fired.
func (r Result) Changed() bool {
	return len(r.Changes) > 0
}

// Summary returns NoIssues or a count of changes.
func (r Result) Summary() string {
	switch len(r.Changes) {
	case 0:
		return NoIssues
	case 1:
		return "1 change"
	default:
		return fmt.Sprintf("%d changes", len(r.Changes))
	}
}

// Fixer applies the rule set. The zero value uses DefaultConstPath.
type Fixer struct {
	ConstPath string
}

// New returns a Fixer that substitutes constPath for path lookups.
func New(constPath string) Fixer {
	return Fixer{ConstPath: constPath}
}

// Apply runs the rules with the default constant path.
func Apply(text string) Result {
	return Fixer{}.Apply(text)
}

// Apply runs every rule in order over text.
func (f Fixer) Apply(text string) Result {
	constPath := f.ConstPath
	if constPath == "" {
		constPath = DefaultConstPath
	}
	doc := newDocument(text)
	for _, r := range rules {
		r.rewrite(doc, constPath)
	}
	return Result{Text: doc.text(), Changes: doc.changes}
}

// line is a script line plus the 1-based input line it came from. Synthesized
// lines have origin 0.
type line struct {
	textutil.Line
	origin int
}

type document struct {
	lines   []line
	changes []Change
	eol     string
}

func newDocument(text string) *document {
	split := textutil.SplitLines(text)
	doc := &document{lines: make([]line, len(split)), eol: "\n"}
	for i, l := range split {
		doc.lines[i] = line{Line: l, origin: i + 1}
		if l.EOL == "\r\n" {
			doc.eol = "\r\n"
		}
	}
	return doc
}

func (d *document) text() string {
	out := make([]textutil.Line, len(d.lines))
	for i, l := range d.lines {
		out[i] = l.Line
	}
	return textutil.JoinLines(out)
}

// code returns the executable part of line i, or "" for comments.
func (d *document) code(i int) string {
	return textutil.CodePart(strings.TrimRight(d.lines[i].Text, "\r"))
}

// comment prefixes line i with "'" and appends suffix.
func (d *document) comment(i int, suffix string) {
	d.lines[i].Text = "'" + d.lines[i].Text + suffix
}

// insertAfter adds a synthesized line after i, inheriting its indentation.
// A last line without terminator gets one so the new line stays separate.
func (d *document) insertAfter(i int, text string) {
	at := d.lines[i]
	if at.EOL == "" {
		d.lines[i].EOL = d.eol
	}
	added := line{Line: textutil.Line{Text: textutil.Indentation(strings.TrimPrefix(at.Text, "'")) + text, EOL: at.EOL}}
	d.lines = append(d.lines, line{})
	copy(d.lines[i+2:], d.lines[i+1:])
	d.lines[i+1] = added
}

func (d *document) record(rule string, i int, description string) {
	d.changes = append(d.changes, Change{Rule: rule, Line: d.lines[i].origin, Description: description})
}
