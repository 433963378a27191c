package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"vpxmerge/internal/audit"
	"vpxmerge/internal/config"
	"vpxmerge/internal/export"
	"vpxmerge/internal/logging"
)

func newVBSCommand(ctx *commandContext) *cobra.Command {
	var (
		outDir    string
		autofix   bool
		noAutofix bool
		overwrite bool
		constPath string
	)

	cmd := &cobra.Command{
		Use:   "vbs [table|dir ...]",
		Short: "Export table scripts as standalone .vbs files",
		Long: `Extract the script of each table and write it to <export_dir>/<table>/<table>.vbs
with CRLF line endings in ISO-8859-1, the layout VPX standalone expects next
to the table.

Examples:
  vpxmerge vbs ~/tables/afm.vpx --autofix
  vpxmerge vbs --out ./scripts --overwrite`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
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
			opts := export.Options{
				Autofix:   cfg.Export.Autofix,
				ConstPath: cfg.Export.ConstPath,
				Overwrite: cfg.Export.Overwrite || overwrite,
			}
			if cmd.Flags().Changed("autofix") {
				opts.Autofix = autofix
			}
			if noAutofix {
				opts.Autofix = false
			}
			if strings.TrimSpace(constPath) != "" {
				opts.ConstPath = constPath
			}
			extract := audit.ExtractOptions(cfg)
			logger = logging.NewComponentLogger(logger, "export")

			rows := make([][]string, 0, len(paths))
			var failed int
			for _, path := range paths {
				if err := cmd.Context().Err(); err != nil {
					return err
				}
				name := filepath.Base(path)
				script, err := audit.ReadScript(path, extract)
				if err != nil {
					failed++
					logging.WarnWithContext(logger, "script extraction failed", "extraction_failed",
						logging.String(logging.FieldTable, name),
						logging.Error(err),
						logging.String(logging.FieldImpact, "no script exported for this table"),
					)
					rows = append(rows, []string{name, "failed", "", err.Error()})
					continue
				}
				result, err := export.WriteScript(tableExportDir(root, path), tableBase(path), script, opts)
				if err != nil {
					failed++
					status, note := "skipped", "exists (use --overwrite)"
					if !errors.Is(err, export.ErrExists) {
						status, note = "failed", err.Error()
						logging.ErrorWithContext(logger, "script export failed", "export_failed",
							logging.String(logging.FieldTable, name),
							logging.Error(err),
							logging.String(logging.FieldErrorHint, "check that the export directory is writable"),
						)
					}
					rows = append(rows, []string{name, status, "", note})
					continue
				}
				logger.Info("script exported",
					logging.String(logging.FieldTable, name),
					logging.String("dst_path", result.Path),
					logging.Int64("script_bytes", result.Bytes),
					logging.Int("changes", len(result.Fix.Changes)),
				)
				rows = append(rows, []string{name, "written", humanize.Bytes(uint64(result.Bytes)), exportNote(result, opts)})
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderTableSpec(tableSpec{
				title:   "Exported to " + root,
				headers: []string{"Table", "Status", "Size", "Notes"},
				rows:    rows,
				aligns:  []columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
				footer:  []string{plural(len(paths), "table", "tables"), fmt.Sprintf("%d written", len(paths)-failed)},
			}))
			if failed > 0 {
				return fmt.Errorf("%s not exported", plural(failed, "table", "tables"))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Export root (default: paths.export_dir, else paths.tables_dir)")
	cmd.Flags().BoolVar(&autofix, "autofix", false, "Apply standalone compatibility fixes (default: export.autofix)")
	cmd.Flags().BoolVar(&noAutofix, "no-autofix", false, "Never apply compatibility fixes")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace existing scripts, keeping a .bak copy")
	cmd.Flags().StringVar(&constPath, "const-path", "", "Path substituted for registry lookups (default: export.const_path)")
	return cmd
}

// exportRoot returns --out, then paths.export_dir, then the tables directory.
func exportRoot(cfg *config.Config, flag string) (string, error) {
	if flag = strings.TrimSpace(flag); flag != "" {
		return config.ExpandPath(flag)
	}
	if cfg.Paths.ExportDir != "" {
		return cfg.Paths.ExportDir, nil
	}
	if cfg.Paths.TablesDir != "" {
		return cfg.Paths.TablesDir, nil
	}
	return "", errors.New("no export directory: pass --out or set paths.export_dir")
}

func exportNote(result export.Result, opts export.Options) string {
	var notes []string
	if opts.Autofix {
		notes = append(notes, "autofix: "+result.Fix.Summary())
	}
	if result.Backup != "" {
		notes = append(notes, "backup "+filepath.Base(result.Backup))
	}
	return strings.Join(notes, "; ")
}
