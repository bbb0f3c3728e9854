package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/ownerchain/internal/ir"
)

// GetEntry retrieves a live entry by hash.
// Returns a NOT_FOUND error if the hash is unknown or the entry is deleted.
func (s *Store) GetEntry(ctx context.Context, hash ir.Hash) (ir.Entry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+entryColumns+`
		FROM entries
		WHERE hash = ? AND deleted = 0
	`, string(hash))

	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.Entry{}, ir.NewError(ir.CodeNotFound, "entry does not exist").WithHash(hash)
	}
	if err != nil {
		return ir.Entry{}, fmt.Errorf("get entry: %w", err)
	}
	return entry, nil
}

// GetWithSuccessors retrieves a live entry together with the hashes of every
// live entry that names it as predecessor, ordered by seq ASC.
func (s *Store) GetWithSuccessors(ctx context.Context, hash ir.Hash) (ir.Entry, []ir.Hash, error) {
	entry, err := s.GetEntry(ctx, hash)
	if err != nil {
		return ir.Entry{}, nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT hash
		FROM entries
		WHERE predecessor = ? AND deleted = 0
		ORDER BY seq ASC
	`, string(hash))
	if err != nil {
		return ir.Entry{}, nil, fmt.Errorf("query successors: %w", err)
	}
	defer rows.Close()

	successors := []ir.Hash{}
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return ir.Entry{}, nil, fmt.Errorf("scan successor: %w", err)
		}
		successors = append(successors, ir.Hash(h))
	}
	if err := rows.Err(); err != nil {
		return ir.Entry{}, nil, fmt.Errorf("iterate successors: %w", err)
	}

	return entry, successors, nil
}

// ListEdges returns every edge for (owner, kind) in insertion order.
// Returns an empty slice (not nil) if none exist.
func (s *Store) ListEdges(ctx context.Context, owner ir.OwnerKey, kind ir.Kind) ([]ir.Edge, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+edgeColumns+`
		FROM edges
		WHERE owner = ? AND kind = ?
		ORDER BY seq ASC
	`, string(owner), string(kind))
	if err != nil {
		return nil, fmt.Errorf("query edges: %w", err)
	}
	defer rows.Close()

	edges := []ir.Edge{}
	for rows.Next() {
		e, err := scanEdge(rows)
		if err != nil {
			return nil, err
		}
		edges = append(edges, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate edges: %w", err)
	}

	return edges, nil
}

// CountEdges returns the number of edges per kind for an owner.
// Kinds without edges are absent from the map.
func (s *Store) CountEdges(ctx context.Context, owner ir.OwnerKey) (map[ir.Kind]int64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT kind, COUNT(*)
		FROM edges
		WHERE owner = ?
		GROUP BY kind
		ORDER BY kind ASC
	`, string(owner))
	if err != nil {
		return nil, fmt.Errorf("count edges: %w", err)
	}
	defer rows.Close()

	counts := make(map[ir.Kind]int64)
	for rows.Next() {
		var (
			kind  string
			count int64
		)
		if err := rows.Scan(&kind, &count); err != nil {
			return nil, fmt.Errorf("scan edge count: %w", err)
		}
		counts[ir.Kind(kind)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate edge counts: %w", err)
	}

	return counts, nil
}

// GetLastSeq returns the highest entry seq used in the store.
func (s *Store) GetLastSeq(ctx context.Context) (int64, error) {
	var seq int64
	if err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(seq), 0) FROM entries
	`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("get last seq: %w", err)
	}
	return seq, nil
}
