package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/roach88/ownerchain/internal/ir"
)

// EntryInput describes a new entry. Predecessor is empty for the first
// revision of a record.
type EntryInput struct {
	Author      ir.OwnerKey
	Kind        ir.Kind
	Predecessor ir.Hash
	Payload     []byte
}

// EdgeInput describes a new link edge.
type EdgeInput struct {
	Owner       ir.OwnerKey
	Kind        ir.Kind
	InstanceKey string
	Target      ir.Hash
}

// PutEntry stores a new immutable entry and returns it with its hash and seq.
//
// The payload is canonicalized before hashing and storage. When a predecessor
// is given it must exist, must not be deleted, and must have the same author;
// otherwise NOT_FOUND or UNAUTHORIZED is returned and nothing is written.
func (s *Store) PutEntry(ctx context.Context, in EntryInput) (ir.Entry, error) {
	if in.Author == "" {
		return ir.Entry{}, fmt.Errorf("put entry: author is required")
	}
	if in.Kind == "" {
		return ir.Entry{}, ir.NewError(ir.CodeInvalidKind, "entry kind is required")
	}

	payload, err := canonicalPayload(in.Payload)
	if err != nil {
		return ir.Entry{}, fmt.Errorf("put entry: %w", err)
	}

	var entry ir.Entry
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		if in.Predecessor != "" {
			if err := checkAuthor(ctx, tx, in.Predecessor, in.Author, "update"); err != nil {
				return err
			}
		}

		var seq int64
		if err := tx.QueryRowContext(ctx, `
			SELECT COALESCE(MAX(seq), 0) + 1 FROM entries
		`).Scan(&seq); err != nil {
			return fmt.Errorf("next seq: %w", err)
		}

		hash, err := ir.EntryHash(in.Author, in.Kind, in.Predecessor, []byte(payload), seq)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO entries (hash, kind, author, predecessor, seq, payload, deleted)
			VALUES (?, ?, ?, ?, ?, ?, 0)
		`,
			string(hash),
			string(in.Kind),
			string(in.Author),
			nullableHash(in.Predecessor),
			seq,
			payload,
		)
		if err != nil {
			return fmt.Errorf("insert entry: %w", err)
		}

		entry = ir.Entry{
			Hash:        hash,
			Kind:        in.Kind,
			Author:      in.Author,
			Predecessor: in.Predecessor,
			Seq:         seq,
			Payload:     []byte(payload),
		}
		return nil
	})
	if err != nil {
		return ir.Entry{}, fmt.Errorf("put entry: %w", err)
	}

	return entry, nil
}

// DeleteEntry marks an entry as deleted. The row stays so that the hash is
// never reused, but the entry is no longer returned by reads or listed as a
// successor. Deleting an already deleted entry is a no-op.
func (s *Store) DeleteEntry(ctx context.Context, author ir.OwnerKey, hash ir.Hash) error {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var owner string
		err := tx.QueryRowContext(ctx, `
			SELECT author FROM entries WHERE hash = ?
		`, string(hash)).Scan(&owner)
		if errors.Is(err, sql.ErrNoRows) {
			return ir.NewError(ir.CodeNotFound, "entry does not exist").WithHash(hash)
		}
		if err != nil {
			return fmt.Errorf("read entry author: %w", err)
		}
		if ir.OwnerKey(owner) != author {
			return ir.NewError(ir.CodeUnauthorized, "delete by non-author").WithHash(hash)
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE entries SET deleted = 1 WHERE hash = ?
		`, string(hash)); err != nil {
			return fmt.Errorf("tombstone entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	return nil
}

// AddEdge links an owner to an entry. The target must exist, must not be
// deleted, and must have been written by the same owner.
// Returns the new edge with its UUIDv7 ID and insertion seq.
func (s *Store) AddEdge(ctx context.Context, in EdgeInput) (ir.Edge, error) {
	if in.Kind == "" {
		return ir.Edge{}, ir.NewError(ir.CodeInvalidKind, "edge kind is required")
	}

	edge := ir.Edge{
		ID:          uuid.Must(uuid.NewV7()).String(),
		Owner:       in.Owner,
		Kind:        in.Kind,
		InstanceKey: in.InstanceKey,
		Target:      in.Target,
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := checkAuthor(ctx, tx, in.Target, in.Owner, "link"); err != nil {
			return err
		}

		result, err := tx.ExecContext(ctx, `
			INSERT INTO edges (id, owner, kind, instance_key, target)
			VALUES (?, ?, ?, ?, ?)
		`,
			edge.ID,
			string(in.Owner),
			string(in.Kind),
			in.InstanceKey,
			string(in.Target),
		)
		if err != nil {
			return fmt.Errorf("insert edge: %w", err)
		}

		edge.Seq, err = result.LastInsertId()
		if err != nil {
			return fmt.Errorf("get edge seq: %w", err)
		}
		return nil
	})
	if err != nil {
		return ir.Edge{}, fmt.Errorf("add edge: %w", err)
	}

	return edge, nil
}

// RemoveEdge deletes a single edge. Only the owner the edge is based on may
// remove it.
func (s *Store) RemoveEdge(ctx context.Context, owner ir.OwnerKey, edgeID string) error {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var base string
		err := tx.QueryRowContext(ctx, `
			SELECT owner FROM edges WHERE id = ?
		`, edgeID).Scan(&base)
		if errors.Is(err, sql.ErrNoRows) {
			return ir.NewError(ir.CodeNotFound, fmt.Sprintf("edge %s does not exist", edgeID))
		}
		if err != nil {
			return fmt.Errorf("read edge owner: %w", err)
		}
		if ir.OwnerKey(base) != owner {
			return ir.NewError(ir.CodeUnauthorized, fmt.Sprintf("edge %s belongs to another owner", edgeID))
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM edges WHERE id = ?`, edgeID); err != nil {
			return fmt.Errorf("delete edge: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("remove edge: %w", err)
	}
	return nil
}

// checkAuthor verifies that hash names a live entry written by author.
func checkAuthor(ctx context.Context, tx *sql.Tx, hash ir.Hash, author ir.OwnerKey, op string) error {
	var (
		owner   string
		deleted int
	)
	err := tx.QueryRowContext(ctx, `
		SELECT author, deleted FROM entries WHERE hash = ?
	`, string(hash)).Scan(&owner, &deleted)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && deleted != 0) {
		return ir.NewError(ir.CodeNotFound, fmt.Sprintf("cannot %s: entry does not exist", op)).WithHash(hash)
	}
	if err != nil {
		return fmt.Errorf("read entry author: %w", err)
	}
	if ir.OwnerKey(owner) != author {
		return ir.NewError(ir.CodeUnauthorized, fmt.Sprintf("cannot %s: author mismatch", op)).WithHash(hash)
	}
	return nil
}
