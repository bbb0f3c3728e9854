// Package chain resolves update chains to their current head.
//
// A chain starts at the entry an edge points to and follows successors
// forward. When an entry has several successors the last-listed one wins;
// the store lists successors in insertion order. The walk has no depth cap.
package chain

import (
	"context"

	"github.com/roach88/ownerchain/internal/ir"
)

// Source is the slice of the entry store the resolver needs.
type Source interface {
	GetWithSuccessors(ctx context.Context, hash ir.Hash) (ir.Entry, []ir.Hash, error)
}

// TimestampFunc reads the logical timestamp embedded in an entry payload.
type TimestampFunc func(ir.Entry) (int64, error)

// ResolveHead walks from start to the head of its chain.
// Any hash that cannot be fetched yields a CHAIN_BROKEN error.
func ResolveHead(ctx context.Context, src Source, start ir.Hash) (ir.Entry, error) {
	var head ir.Entry
	err := walk(ctx, src, start, func(e ir.Entry) {
		head = e
	})
	if err != nil {
		return ir.Entry{}, err
	}
	return head, nil
}

// Walk returns every entry on the chain from start to head, in order.
func Walk(ctx context.Context, src Source, start ir.Hash) ([]ir.Entry, error) {
	var entries []ir.Entry
	err := walk(ctx, src, start, func(e ir.Entry) {
		entries = append(entries, e)
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func walk(ctx context.Context, src Source, start ir.Hash, visit func(ir.Entry)) error {
	seen := make(map[ir.Hash]struct{})
	current := start

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		// A store that enforces existing predecessors cannot produce a
		// cycle; a revisit means the data is corrupt.
		if _, ok := seen[current]; ok {
			return ir.NewError(ir.CodeChainBroken, "cycle in update chain").WithHash(current)
		}
		seen[current] = struct{}{}

		entry, successors, err := src.GetWithSuccessors(ctx, current)
		if err != nil {
			return brokenAt(current, err)
		}
		visit(entry)

		if len(successors) == 0 {
			return nil
		}
		current = successors[len(successors)-1]
	}
}

// brokenAt reports an unfetchable revision. Typed store errors are folded
// into the message so a missing revision never matches NOT_FOUND upstream.
func brokenAt(hash ir.Hash, cause error) error {
	broken := ir.NewError(ir.CodeChainBroken, "revision cannot be fetched").WithHash(hash)
	if ir.CodeOf(cause) != "" {
		broken.Message += ": " + cause.Error()
		return broken
	}
	return broken.Wrap(cause)
}

// ResolveLatest resolves the head of every start and returns the one with the
// greatest logical timestamp, together with its index in starts. Ties go to
// the later start.
//
// Used for replace-policy kinds and for singletons with duplicate edges, where
// link order is not a reliable recency signal.
func ResolveLatest(ctx context.Context, src Source, starts []ir.Hash, ts TimestampFunc) (ir.Entry, int, error) {
	if len(starts) == 0 {
		return ir.Entry{}, -1, ir.NewError(ir.CodeNotFound, "no chains to resolve")
	}

	var (
		best   ir.Entry
		bestTS int64
		index  = -1
	)
	for i, start := range starts {
		head, err := ResolveHead(ctx, src, start)
		if err != nil {
			return ir.Entry{}, -1, err
		}
		t, err := ts(head)
		if err != nil {
			return ir.Entry{}, -1, err
		}
		if index < 0 || t >= bestTS {
			best, bestTS, index = head, t, i
		}
	}

	return best, index, nil
}
