package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"vpxmerge/internal/assets"
	"vpxmerge/internal/audit"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	var flags auditFlags
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "scan [table|dir ...]",
		Short: "Audit tables and report their ROMs, media packs, feed match and patches",
		Long: `Audit each table: extract its script, read the ROM and DMD declarations,
resolve it against the Virtual Pinball Spreadsheet feed, look for local assets
and check the standalone patch repository.

With no arguments every table in paths.tables_dir is scanned.

Examples:
  vpxmerge scan
  vpxmerge scan ~/tables/afm.vpx --no-patches
  vpxmerge scan --json > report.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			paths, err := resolveTables(cfg, args)
			if err != nil {
				return err
			}
			auditor, err := ctx.auditor(flags)
			if err != nil {
				return err
			}
			run := auditor.Batch(cmd.Context(), paths)
			if jsonOutput {
				return writeJSON(cmd, run)
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			for _, report := range run.Reports {
				writeReport(out, report, colorize)
			}
			fmt.Fprintln(out, renderSummary(run.Summary))
			if err := cmd.Context().Err(); err != nil {
				return err
			}
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the run as JSON")
	return cmd
}

func writeReport(out io.Writer, report audit.Report, colorize bool) {
	for _, line := range renderSectionHeader(filepath.Base(report.Path), colorize) {
		fmt.Fprintln(out, line)
	}
	for _, line := range reportLines(report, colorize) {
		fmt.Fprintln(out, line)
	}
	fmt.Fprintln(out)
}

func reportLines(report audit.Report, colorize bool) []string {
	var lines []string
	add := func(label string, kind statusKind, message string) {
		lines = append(lines, renderStatusLine(label, kind, message, colorize))
	}

	if report.Script != nil {
		add("Script", statusOK, fmt.Sprintf("%s, %s (%s)",
			humanize.Bytes(uint64(report.Script.Bytes)),
			plural(report.Script.Lines, "line", "lines"),
			report.Script.Encoding))
	} else if report.Err != nil {
		add("Script", statusError, report.Error)
	}

	switch m := report.Metadata; {
	case m == nil:
		add("VPS", statusInfo, "no match")
	case m.ByROM:
		add("VPS", statusOK, m.String()+" by ROM")
	default:
		add("VPS", statusOK, fmt.Sprintf("%s by %s (%.2f)", m.String(), m.Match.Stage, m.Match.Score))
	}

	for _, finding := range report.Assets {
		add(finding.Kind.Label(), findingStatus(finding), findingMessage(finding))
	}

	if report.Patch != nil {
		add("Patch", statusFound, report.Patch.Path)
	} else {
		add("Patch", statusInfo, "none")
	}
	if len(report.Fixes) > 0 {
		add("Autofix", statusWarn, plural(len(report.Fixes), "change", "changes")+" suggested (vpxmerge vbs --autofix)")
	}
	for _, warning := range report.Warnings {
		add("Warning", statusWarn, warning)
	}
	return lines
}

func findingStatus(finding assets.Finding) statusKind {
	if finding.Found {
		return statusFound
	}
	return statusMissing
}

func findingMessage(finding assets.Finding) string {
	parts := make([]string, 0, 3)
	if finding.Name != "" {
		parts = append(parts, finding.Name)
	}
	if finding.Found && finding.Kind == assets.KindMusic {
		parts = append(parts, "("+plural(len(finding.Files), "track", "tracks")+")")
	}
	if finding.Fuzzy {
		parts = append(parts, fmt.Sprintf("(fuzzy %.2f)", finding.Score))
	}
	if finding.Note != "" {
		parts = append(parts, "- "+finding.Note)
	}
	return strings.Join(parts, " ")
}

func renderSummary(summary audit.Summary) string {
	rows := make([][]string, 0, len(assets.Kinds))
	for _, kind := range assets.Kinds {
		found, missing := summary.Found[kind], summary.Missing[kind]
		if found == 0 && missing == 0 {
			continue
		}
		rows = append(rows, []string{kind.Label(), strconv.Itoa(found), strconv.Itoa(missing)})
	}
	rows = append(rows,
		[]string{"Feed match", strconv.Itoa(summary.Resolved), strconv.Itoa(summary.Tables - summary.Resolved)},
		[]string{"Patch", strconv.Itoa(summary.Patches), strconv.Itoa(summary.Tables - summary.Patches)},
	)
	footer := []string{
		"Tables",
		fmt.Sprintf("%d extracted", summary.Extracted),
		fmt.Sprintf("%d failed", summary.Failed),
	}
	title := fmt.Sprintf("Scan summary (%s, %s)", plural(summary.Tables, "table", "tables"), summary.Elapsed.Round(1e6))
	if summary.Tracks > 0 {
		title = fmt.Sprintf("%s, %s", strings.TrimSuffix(title, ")"), plural(summary.Tracks, "music track", "music tracks")+")")
	}
	return renderTableSpec(tableSpec{
		title:   title,
		headers: []string{"Item", "Found", "Missing"},
		rows:    rows,
		aligns:  []columnAlignment{alignLeft, alignRight, alignRight},
		footer:  footer,
	})
}
