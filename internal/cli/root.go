package cli

import (
	"context"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/ownerchain/internal/config"
	"github.com/roach88/ownerchain/internal/lifecycle"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string

	// Config and Logger are resolved before any subcommand runs.
	Config *config.Config
	Logger *slog.Logger

	// clock and ids replace the manager defaults in tests.
	clock lifecycle.Clock
	ids   lifecycle.IDGenerator
}

// NewRootCommand creates the root command for the ownerchain CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	defaults := config.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "ownerchain",
		Short: "ownerchain - per-owner versioned record store",
		Long: `A content-addressed, per-owner record store.

Every revision of a record is an immutable entry; the current value is the
head of its update chain, reached through the owner's link edges.

Settings come from ownerchain.yaml, OWNERCHAIN_* environment variables and
flags, in increasing order of precedence.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.ConfigPath, cmd.Flags())
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to load config", err)
			}
			if err := cfg.Validate(); err != nil {
				return WrapExitError(ExitCommandError, "invalid configuration", err)
			}
			opts.Config = cfg
			opts.Format = cfg.Format

			level := cfg.SlogLevel()
			if opts.Verbose {
				level = slog.LevelDebug
			}
			opts.Logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
			return nil
		},
	}

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return WrapExitError(ExitCommandError, "invalid flags", err)
	})

	// Global flags
	flags := cmd.PersistentFlags()
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output (debug logging)")
	flags.StringVar(&opts.Format, "format", defaults.Format, "output format (json|text)")
	flags.StringVar(&opts.ConfigPath, "config", "", "config file (default ./ownerchain.yaml or $HOME/.config/ownerchain/ownerchain.yaml)")
	flags.String("db", defaults.DB, "path to SQLite database")
	flags.String("owner", defaults.Owner, "owner key to act as")
	flags.String("log-level", defaults.LogLevel, "log level (debug|info|warn|error)")
	flags.Int("page-size", defaults.PageSize, "default list page size")
	flags.String("metrics", defaults.Metrics, `write Prometheus metrics to this file after the command ("-" for stderr)`)

	// Add subcommands
	cmd.AddCommand(NewKindsCommand(opts))
	cmd.AddCommand(NewGetCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewCreateCommand(opts))
	cmd.AddCommand(NewUpdateCommand(opts))
	cmd.AddCommand(NewDeleteCommand(opts))
	cmd.AddCommand(NewRepairCommand(opts))
	cmd.AddCommand(NewSecretCommand(opts))
	cmd.AddCommand(NewPermissionCommand(opts))
	cmd.AddCommand(NewPrivacyCommand(opts))
	cmd.AddCommand(NewActivityCommand(opts))
	cmd.AddCommand(NewSweepCommand(opts))
	cmd.AddCommand(NewStatsCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewImportCommand(opts))

	return cmd
}

// Execute runs the CLI with args and returns the process exit code. Errors
// are printed in the selected output format: JSON on stdout, text on stderr.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts := &RootOptions{}
	cmd := newRootCommand(opts)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return ExitSuccess
	}

	f := &OutputFormatter{Format: opts.Format, Writer: stderr, Verbose: opts.Verbose}
	if opts.Format == "json" {
		f.Writer = stdout
	}
	var details any
	if d := ErrorDetails(err); d != nil {
		details = d
	}
	_ = f.Error(ErrorCode(err), err.Error(), details)
	return GetExitCode(err)
}
