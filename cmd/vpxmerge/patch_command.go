package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"vpxmerge/internal/export"
	"vpxmerge/internal/identification"
	"vpxmerge/internal/logging"
	"vpxmerge/internal/patches"
)

func newPatchCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool
	var outDir string

	cmd := &cobra.Command{
		Use:   "patch [table|dir ...]",
		Short: "Download standalone script patches for tables",
		Long: `Look up each table in the standalone script repository and download the
matching patched script to <export_dir>/<table>/<table>.vbs. An existing
script is kept as <table>.vbs.bak.

Examples:
  vpxmerge patch ~/tables/afm.vpx
  vpxmerge patch --dry-run`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			client, err := ctx.patchClient()
			if err != nil {
				return err
			}
			if client == nil {
				return fmt.Errorf("patch lookups are disabled (patches.enabled = false)")
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			root, err := exportRoot(cfg, outDir)
			if err != nil {
				return err
			}
			paths, err := resolveTables(cfg, args)
			if err != nil {
				return err
			}

			logger = logging.NewComponentLogger(logger, "patch")

			rows := make([][]string, 0, len(paths))
			var downloaded, failed int
			var limited error
			for _, path := range paths {
				if err := cmd.Context().Err(); err != nil {
					return err
				}
				base := filepath.Base(path)
				if limited != nil {
					rows = append(rows, []string{base, "skipped", "", "rate limited"})
					continue
				}
				name := identification.TitleFromPath(path)
				patch, ok, err := client.Find(cmd.Context(), name)
				if err != nil {
					failed++
					rows = append(rows, []string{base, "failed", "", err.Error()})
					if errors.Is(err, patches.ErrRateLimited) {
						limited = err
						logging.WarnWithContext(logger, "patch lookups disabled for this run", "patch_rate_limited",
							logging.String(logging.FieldTable, name),
							logging.Error(err),
							logging.String(logging.FieldErrorHint, "set GITHUB_TOKEN or patches.token"),
							logging.String(logging.FieldImpact, "remaining tables are skipped"),
						)
						continue
					}
					logging.WarnWithContext(logger, "patch lookup failed", "patch_lookup_failed",
						logging.String(logging.FieldTable, name),
						logging.Error(err),
						logging.String(logging.FieldImpact, "no patch downloaded for this table"),
					)
					continue
				}
				if !ok {
					rows = append(rows, []string{base, "none", "", ""})
					continue
				}
				match := fmt.Sprintf("%s (%.2f)", patch.Folder, patch.Match.Score)
				if dryRun {
					rows = append(rows, []string{base, match, humanize.Bytes(uint64(patch.Size)), "dry run"})
					continue
				}
				dst := export.ScriptPath(tableExportDir(root, path), tableBase(path))
				written, backup, err := client.DownloadWithBackup(cmd.Context(), patch, dst)
				if err != nil {
					failed++
					logging.WarnWithContext(logger, "patch download failed", "patch_download_failed",
						logging.String(logging.FieldTable, name),
						logging.String("patch", patch.Path),
						logging.Error(err),
						logging.String(logging.FieldImpact, "existing script left in place"),
					)
					rows = append(rows, []string{base, match, "", "failed: " + err.Error()})
					continue
				}
				downloaded++
				note := dst
				if backup != "" {
					note += " (backup " + filepath.Base(backup) + ")"
				}
				logger.Info("patch downloaded",
					logging.String(logging.FieldTable, name),
					logging.String("patch", patch.Path),
					logging.Int64("script_bytes", written),
				)
				rows = append(rows, []string{base, match, humanize.Bytes(uint64(written)), note})
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderTableSpec(tableSpec{
				title:   "Patches from " + client.Repository(),
				headers: []string{"Table", "Patch", "Size", "Notes"},
				rows:    rows,
				aligns:  []columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
				footer:  []string{plural(len(paths), "table", "tables"), fmt.Sprintf("%d downloaded", downloaded), fmt.Sprintf("%d failed", failed)},
			}))
			if limited != nil {
				return fmt.Errorf("patch lookups stopped: %w", limited)
			}
			if failed > 0 {
				return fmt.Errorf("%s failed", plural(failed, "table", "tables"))
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "Only report matching patches")
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Export root (default: paths.export_dir, else paths.tables_dir)")
	return cmd
}
