package main

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ehr/ccdaextract/internal/platform/ccda"
	"github.com/ehr/ccdaextract/internal/report"
)

func parseCmd() *cobra.Command {
	var (
		format  string
		outDir  string
		workers int
		strict  bool
	)

	cmd := &cobra.Command{
		Use:   "parse FILE...",
		Short: "Extract domain tables from C-CDA files",
		Long: `Parse one or more C-CDA XML files and print the extracted tables.

With --out-dir, one CSV per domain (with a leading file_name column) and a
metadata.json are written to the directory instead.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if outDir == "" {
				switch format {
				case report.FormatJSON, report.FormatYAML, report.FormatCSV:
				default:
					return fmt.Errorf("unknown format %q (want json, yaml or csv)", format)
				}
			}

			results, err := parseFiles(cmd.Context(), ccda.NewEngine(), args, workers)
			if err != nil {
				return err
			}

			if outDir != "" {
				if err := report.WriteDir(outDir, results); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d file(s) to %s\n", len(results), outDir)
			} else if err := report.Write(cmd.OutOrStdout(), format, results); err != nil {
				return err
			}

			if strict {
				for _, r := range results {
					if !r.Metadata.Parsed() {
						return fmt.Errorf("%s: %s", r.FileName, r.Metadata.Reason)
					}
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", report.FormatJSON, "Output format: json, yaml or csv")
	cmd.Flags().StringVarP(&outDir, "out-dir", "o", "", "Write per-domain CSV files and metadata.json to this directory")
	cmd.Flags().IntVarP(&workers, "workers", "w", runtime.NumCPU(), "Number of files parsed in parallel")
	cmd.Flags().BoolVar(&strict, "strict", false, "Exit non-zero if any document is rejected")
	return cmd
}

// parseFiles runs engine over each path with at most workers in flight.
// Results keep the order of paths. An unreadable file aborts the batch; a
// rejected document does not.
func parseFiles(ctx context.Context, engine *ccda.Engine, paths []string, workers int) ([]report.FileResult, error) {
	if workers < 1 {
		workers = 1
	}

	results := make([]report.FileResult, len(paths))
	names := report.FileNames(paths)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}
			tables, md := engine.Parse(string(data))
			results[i] = report.FileResult{
				FileName: names[i],
				Tables:   tables,
				Metadata: md,
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
