package cli

import (
	"context"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/ownerchain/internal/ir"
	"github.com/roach88/ownerchain/internal/migrate"
)

// ExportResult is the JSON output of export when a file is written.
type ExportResult struct {
	Path          string `json:"path"`
	SchemaVersion string `json:"schema_version"`
	Digest        string `json:"digest"`
}

// NewExportCommand creates the export command.
func NewExportCommand(opts *RootOptions) *cobra.Command {
	var out, bundleFormat string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export every record of the owner as a bundle",
		Long: `Write the current revision of every record to a versioned bundle.

The bundle format follows the --out extension (.yaml/.yml or JSON) unless
--bundle-format is given. Without --out the bundle is written to stdout.

Examples:
  ownerchain export --out backup.json
  ownerchain export --bundle-format yaml > backup.yaml`,
		Args: cobra.NoArgs,
		RunE: withApp(opts, func(ctx context.Context, a *app, args []string) error {
			f := migrate.FormatFromPath(out)
			if bundleFormat != "" {
				var err error
				if f, err = migrate.ParseFormat(bundleFormat); err != nil {
					return WrapExitError(ExitCommandError, "invalid --bundle-format", err)
				}
			}

			b, err := migrate.NewCodec(a.m, opts.Logger).Export(ctx)
			if err != nil {
				return failure("export", err)
			}
			data, err := migrate.Encode(b, f)
			if err != nil {
				return failure("export", err)
			}

			if out == "" {
				_, err := a.cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(out, data, 0o600); err != nil {
				return WrapExitError(ExitCommandError, "failed to write bundle", err)
			}

			digest, err := migrate.Digest(b)
			if err != nil {
				return failure("export", err)
			}
			res := ExportResult{Path: out, SchemaVersion: b.SchemaVersion, Digest: digest}
			return a.out.Render(res, func(w io.Writer) {
				fmt.Fprintf(w, "exported schema %s to %s (digest %s)\n", res.SchemaVersion, res.Path, ir.Hash(res.Digest).Short())
			})
		}),
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "bundle file to write (default stdout)")
	cmd.Flags().StringVar(&bundleFormat, "bundle-format", "", "bundle encoding (json|yaml)")
	return cmd
}

// NewImportCommand creates the import command.
func NewImportCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import a bundle of any supported schema version",
		Long: `Import a bundle, upgrading it to the current schema first.

Fields missing from older bundles are filled with defaults and reported.
Each kind imports independently: a failing kind is reported, the others
still import, and the command exits 1.

Importing a bundle twice duplicates activity records.`,
		Args: cobra.ExactArgs(1),
		RunE: withApp(opts, func(ctx context.Context, a *app, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to read bundle", err)
			}
			b, err := migrate.Decode(data, migrate.FormatFromPath(args[0]))
			if err != nil {
				return failure("import", err)
			}

			report, err := migrate.NewCodec(a.m, opts.Logger).Import(ctx, b)
			if err != nil {
				return failure("import", err)
			}
			if rerr := a.out.Render(report, func(w io.Writer) { writeReport(w, report) }); rerr != nil {
				return rerr
			}
			if err := report.Err(); err != nil {
				return failure("import", err)
			}
			return nil
		}),
	}
}

func writeReport(w io.Writer, r *migrate.Report) {
	fmt.Fprintf(w, "imported bundle schema %s\n", r.SourceVersion)

	for _, k := range slices.Sorted(maps.Keys(r.Imported)) {
		fmt.Fprintf(w, "  %-20s %d\n", k, r.Imported[k])
	}
	for _, d := range r.Defaulted {
		fmt.Fprintf(w, "  defaulted %s.%s: %s\n", d.Kind, d.Field, d.Default)
	}
	for _, k := range slices.Sorted(maps.Keys(r.Failed)) {
		fmt.Fprintf(w, "  failed %s: %s\n", k, r.Failed[k])
	}
}
