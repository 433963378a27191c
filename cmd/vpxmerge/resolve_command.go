package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"vpxmerge/internal/audit"
	"vpxmerge/internal/identification"
	"vpxmerge/internal/scriptfacts"
	"vpxmerge/internal/vpsdb"
)

type resolution struct {
	Input      string                      `json:"input"`
	PinnedName string                      `json:"pinned_name,omitempty"`
	Identity   identification.Identity     `json:"identity"`
	Candidates []string                    `json:"candidates"`
	Match      *identification.MatchResult `json:"match,omitempty"`
	Game       *vpsdb.Game                 `json:"game,omitempty"`
	Warnings   []string                    `json:"warnings,omitempty"`
}

func newResolveCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	var offline bool

	cmd := &cobra.Command{
		Use:   "resolve <name|path>...",
		Short: "Show how table names are parsed and matched against the metadata feed",
		Long: `Parse each argument as a table name (a path is reduced to its file name),
list the lookup candidates derived from it and resolve them against the
Virtual Pinball Spreadsheet feed. Matching follows scan: override pins, then
the ROM of an existing table file, then the name.

Examples:
  vpxmerge resolve "Attack from Mars (Bally 1995) VPW 1.2"
  vpxmerge resolve ~/tables/jp_deadpool.vpx --offline`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			auditor, err := ctx.auditor(auditFlags{noFeed: offline, noPatches: true})
			if err != nil {
				return err
			}
			catalog, err := auditor.Catalog(cmd.Context())
			if err != nil {
				return fmt.Errorf("load metadata feed: %w", err)
			}

			results := make([]resolution, 0, len(args))
			for _, arg := range args {
				results = append(results, resolveName(cmd.Context(), auditor, catalog, arg))
			}
			if jsonOutput {
				return writeJSON(cmd, results)
			}
			out := cmd.OutOrStdout()
			for _, res := range results {
				fmt.Fprintln(out, renderResolution(res, catalog != nil))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output results as JSON")
	cmd.Flags().BoolVar(&offline, "offline", false, "Only parse names; skip the metadata feed")
	return cmd
}

func resolveName(ctx context.Context, auditor *audit.Auditor, catalog *vpsdb.Catalog, arg string) resolution {
	name, base := arg, arg
	isPath := strings.ContainsAny(arg, `/\`) || strings.Contains(arg, ".vp")
	if isPath {
		name = identification.TitleFromPath(arg)
		base = tableBase(arg)
	}
	report := audit.Report{
		Path:     arg,
		Base:     base,
		Name:     name,
		Identity: identification.ParseIdentity(name),
	}
	if info, err := os.Stat(arg); isPath && err == nil && !info.IsDir() {
		script, err := auditor.Extract(arg)
		if err != nil {
			report.Warnings = append(report.Warnings, "script: "+err.Error())
		} else {
			report.Facts = scriptfacts.Extract(script.Clean())
			report.Identity.ROM = report.Facts.ROM
		}
	}

	candidates := auditor.Identify(ctx, &report)
	res := resolution{
		Input:      arg,
		Identity:   report.Identity,
		Candidates: candidates,
		Warnings:   report.Warnings,
	}
	if report.Name != name {
		res.PinnedName = report.Name
	}
	if report.Metadata == nil {
		return res
	}
	match := report.Metadata.Match
	res.Match = &match
	if catalog != nil {
		if game, ok := catalog.Game(report.Metadata.ID); ok {
			res.Game = &game
		}
	}
	return res
}

func renderResolution(res resolution, withFeed bool) string {
	id := res.Identity
	rows := [][]string{
		{"Title", displayTitle(id.Title)},
	}
	if res.PinnedName != "" {
		rows = append(rows, []string{"Pinned name", res.PinnedName})
	}
	rows = append(rows, [][]string{
		{"Normalized", id.Normalized},
		{"Word sorted", id.WordSorted},
	}...)
	if id.ROM != "" {
		rows = append(rows, []string{"ROM", id.ROM})
	}
	if id.Manufacturer != "" {
		rows = append(rows, []string{"Manufacturer", id.Manufacturer})
	}
	if id.Year > 0 {
		rows = append(rows, []string{"Year", strconv.Itoa(id.Year)})
	}
	if id.Author != "" {
		rows = append(rows, []string{"Author", id.Author})
	}
	if id.Edition != "" {
		rows = append(rows, []string{"Edition", id.Edition})
	}
	rows = append(rows, []string{"Candidates", strings.Join(res.Candidates, "\n")})
	switch {
	case !withFeed:
	case res.Match == nil:
		rows = append(rows, []string{"VPS match", "none"})
	default:
		name := res.Match.ReferenceID
		if res.Game != nil {
			name = res.Game.DisplayName() + " [" + res.Game.ID + "]"
		}
		rows = append(rows,
			[]string{"VPS match", name},
			[]string{"Matched by", fmt.Sprintf("%s %q (%.2f)", res.Match.Stage, res.Match.MatchedKey, res.Match.Score)},
		)
	}
	if len(res.Warnings) > 0 {
		rows = append(rows, []string{"Warnings", strings.Join(res.Warnings, "\n")})
	}
	return renderTableSpec(tableSpec{
		title:   res.Input,
		headers: []string{"Field", "Value"},
		rows:    rows,
	})
}
