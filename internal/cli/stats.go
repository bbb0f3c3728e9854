package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/ownerchain/internal/ir"
)

// StatsResult is the output of the stats command.
type StatsResult struct {
	Owner   ir.OwnerKey       `json:"owner"`
	LastSeq int64             `json:"last_seq"`
	Edges   map[ir.Kind]int64 `json:"edges"`
}

// NewStatsCommand creates the stats command.
func NewStatsCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show link edge counts for the owner",
		Long: `Show how many link edges the owner holds per record kind, and the
highest entry sequence number in the database. Every registry kind is
listed, including kinds with no edges.

With --metrics the counts are also published as the ownerchain_edges gauge.`,
		Args: cobra.NoArgs,
		RunE: withApp(opts, func(ctx context.Context, a *app, args []string) error {
			counts, err := a.store.CountEdges(ctx, a.m.Owner())
			if err != nil {
				return failure("stats", err)
			}
			seq, err := a.store.GetLastSeq(ctx)
			if err != nil {
				return failure("stats", err)
			}

			res := StatsResult{Owner: a.m.Owner(), LastSeq: seq, Edges: make(map[ir.Kind]int64)}
			for _, kind := range a.m.Registry().Kinds() {
				res.Edges[kind] = counts[kind]
				if a.collector != nil {
					a.collector.SetStorageCount(ctx, string(kind), counts[kind])
				}
			}

			return a.out.Render(res, func(w io.Writer) {
				fmt.Fprintf(w, "owner %s (last seq %d)\n", res.Owner, res.LastSeq)
				for _, kind := range a.m.Registry().Kinds() {
					fmt.Fprintf(w, "  %-20s %d\n", kind, res.Edges[kind])
				}
			})
		}),
	}
}
