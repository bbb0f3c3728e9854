package cli

import (
	"context"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/ownerchain/internal/ir"
	"github.com/roach88/ownerchain/internal/retention"
)

// SweepOptions holds flags for the sweep command.
type SweepOptions struct {
	*RootOptions
	OlderThan string
	Policy    bool
}

// NewSweepCommand creates the sweep command.
func NewSweepCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SweepOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sweep [kind]",
		Short: "Delete expired activity events",
		Long: `Delete activity events older than a cutoff, together with their edges.

With --policy every activity kind is swept using the owner's retention
setting (90 days when no privacy settings exist). Otherwise a kind and
--older-than are required. Durations accept Go syntax (36h) or days (30d).

Examples:
  ownerchain sweep --policy
  ownerchain sweep login_activity --older-than 30d`,
		Args: cobra.MaximumNArgs(1),
		RunE: withApp(rootOpts, func(ctx context.Context, a *app, args []string) error {
			return runSweep(ctx, opts, a, args)
		}),
	}

	cmd.Flags().StringVar(&opts.OlderThan, "older-than", "", "delete events older than this age (e.g. 30d, 720h)")
	cmd.Flags().BoolVar(&opts.Policy, "policy", false, "sweep every activity kind using the retention setting")
	return cmd
}

func runSweep(ctx context.Context, opts *SweepOptions, a *app, args []string) error {
	sopts := []retention.Option{retention.WithLogger(opts.Logger)}
	if a.collector != nil {
		sopts = append(sopts, retention.WithMetrics(a.collector))
	}
	sweeper := retention.New(a.m, sopts...)

	var counts map[ir.Kind]int
	switch {
	case opts.Policy:
		if len(args) > 0 || opts.OlderThan != "" {
			return NewExitError(ExitCommandError, "--policy takes no kind or --older-than")
		}
		var err error
		counts, err = sweeper.PurgeByPolicy(ctx)
		if err != nil {
			return failure("sweep", err)
		}
	default:
		if len(args) != 1 || opts.OlderThan == "" {
			return NewExitError(ExitCommandError, "sweep needs a kind and --older-than, or --policy")
		}
		age, err := parseAge(opts.OlderThan)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid --older-than", err)
		}
		n, err := sweeper.PurgeOlderThan(ctx, ir.Kind(args[0]), age)
		if err != nil {
			return failure("sweep "+args[0], err)
		}
		counts = map[ir.Kind]int{ir.Kind(args[0]): n}
	}

	return a.out.Render(map[string]any{"deleted": counts}, func(w io.Writer) {
		for _, k := range slices.Sorted(maps.Keys(counts)) {
			fmt.Fprintf(w, "%s: deleted %d\n", k, counts[k])
		}
	})
}

// parseAge parses a Go duration or a whole number of days such as "30d".
func parseAge(s string) (time.Duration, error) {
	var age time.Duration
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, fmt.Errorf("bad day count %q", s)
		}
		age = time.Duration(n) * 24 * time.Hour
	} else {
		d, err := time.ParseDuration(s)
		if err != nil {
			return 0, err
		}
		age = d
	}
	if age < 0 {
		return 0, fmt.Errorf("age %q is negative", s)
	}
	return age, nil
}
