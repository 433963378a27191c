package textutil

import "strings"

// Line is one script line with its terminator kept apart so rewrites can
// reproduce the original line endings.
type Line struct {
	Text string
	EOL  string
}

// SplitLines splits text on "\n", keeping "\r\n", "\n" or "" as each line's
// terminator. A trailing terminator does not produce an empty final line.
func SplitLines(text string) []Line {
	if text == "" {
		return nil
	}
	parts := strings.SplitAfter(text, "\n")
	lines := make([]Line, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			continue
		}
		line := Line{Text: part}
		switch {
		case strings.HasSuffix(part, "\r\n"):
			line.Text, line.EOL = part[:len(part)-2], "\r\n"
		case strings.HasSuffix(part, "\n"):
			line.Text, line.EOL = part[:len(part)-1], "\n"
		}
		lines = append(lines, line)
	}
	return lines
}

// JoinLines is the inverse of SplitLines.
func JoinLines(lines []Line) string {
	var b strings.Builder
	for _, line := range lines {
		b.WriteString(line.Text)
		b.WriteString(line.EOL)
	}
	return b.String()
}

// IsCommentLine reports whether a VBScript line is a comment: its first
// non-blank token is "'" or "Rem".
func IsCommentLine(line string) bool {
	trimmed := strings.TrimLeft(line, " \t")
	if strings.HasPrefix(trimmed, "'") {
		return true
	}
	if len(trimmed) >= 3 && strings.EqualFold(trimmed[:3], "rem") {
		return len(trimmed) == 3 || trimmed[3] == ' ' || trimmed[3] == '\t'
	}
	return false
}

// CodePart returns line up to its first "'" outside a string literal. Comment
// lines yield "".
func CodePart(line string) string {
	if IsCommentLine(line) {
		return ""
	}
	inString := false
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '"':
			inString = !inString
		case '\'':
			if !inString {
				return line[:i]
			}
		}
	}
	return line
}

// Indentation returns the leading blanks of line.
func Indentation(line string) string {
	return line[:len(line)-len(strings.TrimLeft(line, " \t"))]
}
