package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"vpxmerge/internal/audit"
	"vpxmerge/internal/autofix"
	"vpxmerge/internal/export"
)

func newFixCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool
	var constPath string

	cmd := &cobra.Command{
		Use:   "fix <script.vbs>...",
		Short: "Rewrite exported scripts for VPX standalone",
		Long: `Apply the standalone compatibility rules to existing .vbs files in place.
The previous version is kept as <name>.vbs.bak.

Examples:
  vpxmerge fix "Attack from Mars/Attack from Mars.vbs" --dry-run
  vpxmerge fix afm.vbs --const-path /home/pi/vpinball/`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if strings.TrimSpace(constPath) == "" {
				constPath = cfg.Export.ConstPath
			}
			fixer := autofix.New(constPath)
			out := cmd.OutOrStdout()
			extract := audit.ExtractOptions(cfg)

			for _, path := range args {
				script, err := audit.ReadScript(path, extract)
				if err != nil {
					return err
				}
				result := fixer.Apply(script.Clean())
				fmt.Fprintf(out, "%s: %s\n", path, result.Summary())
				if !result.Changed() {
					continue
				}
				fmt.Fprintln(out, renderChanges(result.Changes))
				if dryRun {
					continue
				}
				written, err := export.WriteScriptFile(path, script, export.Options{
					Autofix:   true,
					ConstPath: constPath,
					Overwrite: true,
				})
				if err != nil {
					return err
				}
				if written.Backup != "" {
					fmt.Fprintf(out, "Wrote %s (backup %s)\n", written.Path, filepath.Base(written.Backup))
				} else {
					fmt.Fprintf(out, "Wrote %s\n", written.Path)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "Show the changes without writing")
	cmd.Flags().StringVar(&constPath, "const-path", "", "Path substituted for registry lookups (default: export.const_path)")
	return cmd
}

func renderChanges(changes []autofix.Change) string {
	rows := make([][]string, 0, len(changes))
	for _, change := range changes {
		rows = append(rows, []string{strconv.Itoa(change.Line), change.Rule, change.Description})
	}
	return renderTable([]string{"Line", "Rule", "Change"}, rows, []columnAlignment{alignRight, alignLeft, alignLeft})
}
