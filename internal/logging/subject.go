package logging

import "strings"

// FormatSubject builds the table/stage subject string used in console output.
// Run identifiers are shortened to their first segment.
func FormatSubject(runID, table, stage string) string {
	runID = strings.TrimSpace(runID)
	table = strings.TrimSpace(table)
	stage = strings.TrimSpace(stage)
	parts := make([]string, 0, 3)
	if runID != "" {
		short, _, _ := strings.Cut(runID, "-")
		parts = append(parts, "Run "+short)
	}
	switch {
	case table != "" && stage != "":
		parts = append(parts, table+" ("+stage+")")
	case table != "":
		parts = append(parts, table)
	case stage != "":
		parts = append(parts, stage)
	}
	return strings.Join(parts, " · ")
}
