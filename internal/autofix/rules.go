package autofix

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	RulePathFunction   = "path_function"
	RuleShellObject    = "shell_object"
	RuleRegistryRead   = "registry_read"
	RuleHostObject     = "host_object"
	RuleDisplayControl = "display_control"
)

type rule struct {
	name    string
	rewrite func(doc *document, constPath string)
}

var rules = []rule{
	{name: RulePathFunction, rewrite: rewritePathFunctions},
	{name: RuleShellObject, rewrite: rewriteShellObjects},
	{name: RuleRegistryRead, rewrite: rewriteRegistryReads},
	{name: RuleHostObject, rewrite: rewriteHostObjects},
	{name: RuleDisplayControl, rewrite: rewriteDisplayControls},
}

var (
	pathFunctionStart = regexp.MustCompile(`(?i)^\s*(?:(?:Public|Private)\s+)?Function\s+(Get\w*(?:Path|Folder|Dir|Directory))\b`)
	functionEnd       = regexp.MustCompile(`(?i)^\s*End\s+Function\b`)
	osConfigAPI       = regexp.MustCompile(`(?i)\b(?:RegRead|RegWrite|GetSpecialFolder|ExpandEnvironmentStrings)\b`)
	shellObject       = regexp.MustCompile(`(?i)CreateObject\s*\(\s*"WScript\.Shell"\s*\)`)
	registryRead      = regexp.MustCompile(`(?i)^\s*(?:Set\s+)?(\w+)\s*=\s*\w+\.RegRead\s*\(`)
	hostObject        = regexp.MustCompile(`(?i)CreateObject\s*\(\s*"(SAPI\.SpVoice|WMPlayer\.OCX)"\s*\)`)
	displayControl    = regexp.MustCompile(`(?i)^\s*(?:\w*\.)?(ShowDMDOnly|ShowFrame|ShowTitle|DoubleSize)\s*=`)
)

// rewritePathFunctions replaces the body of Get*Path style functions that
// consult the registry or special folders with a constant assignment.
func rewritePathFunctions(doc *document, constPath string) {
	for i := 0; i < len(doc.lines); i++ {
		m := pathFunctionStart.FindStringSubmatch(doc.code(i))
		if m == nil {
			continue
		}
		name := m[1]
		end := -1
		usesAPI := false
		for j := i + 1; j < len(doc.lines); j++ {
			code := doc.code(j)
			if functionEnd.MatchString(code) {
				end = j
				break
			}
			if osConfigAPI.MatchString(code) {
				usesAPI = true
			}
		}
		if end < 0 {
			return
		}
		if !usesAPI {
			i = end
			continue
		}
		last := i
		for j := i + 1; j < end; j++ {
			if doc.code(j) == "" && strings.TrimSpace(doc.lines[j].Text) != "" {
				last = j
				continue
			}
			if strings.TrimSpace(doc.lines[j].Text) == "" {
				continue
			}
			doc.comment(j, "")
			last = j
		}
		assignment := constAssignment(name, constPath)
		doc.insertAfter(last, bodyIndent(doc, i, last)+assignment)
		doc.record(RulePathFunction, i, fmt.Sprintf("replaced body of %s with %s", name, assignment))
		i = end + 1
	}
}

func constAssignment(name, constPath string) string {
	return name + ` = "` + constPath + `"`
}

// bodyIndent returns extra indentation for an assignment inserted directly
// after the function header.
func bodyIndent(doc *document, header, last int) string {
	if last != header {
		return ""
	}
	return "\t"
}

func rewriteShellObjects(doc *document, _ string) {
	for i := range doc.lines {
		if shellObject.MatchString(doc.code(i)) {
			doc.comment(i, "")
			doc.record(RuleShellObject, i, "commented out WScript.Shell object creation")
		}
	}
}

func rewriteRegistryReads(doc *document, constPath string) {
	for i := 0; i < len(doc.lines); i++ {
		m := registryRead.FindStringSubmatch(doc.code(i))
		if m == nil {
			continue
		}
		assignment := constAssignment(m[1], constPath)
		doc.comment(i, "")
		doc.insertAfter(i, assignment)
		doc.record(RuleRegistryRead, i, "replaced registry read with "+assignment)
		i++
	}
}

func rewriteHostObjects(doc *document, _ string) {
	for i := range doc.lines {
		m := hostObject.FindStringSubmatch(doc.code(i))
		if m == nil {
			continue
		}
		doc.comment(i, fmt.Sprintf(" ' disabled: %s is not available in standalone", m[1]))
		doc.record(RuleHostObject, i, fmt.Sprintf("disabled %s object creation", m[1]))
	}
}

func rewriteDisplayControls(doc *document, _ string) {
	for i := range doc.lines {
		m := displayControl.FindStringSubmatch(doc.code(i))
		if m == nil {
			continue
		}
		doc.comment(i, "")
		doc.record(RuleDisplayControl, i, fmt.Sprintf("commented out deprecated %s assignment", m[1]))
	}
}
