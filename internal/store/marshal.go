package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/roach88/ownerchain/internal/ir"
)

// canonicalPayload converts a JSON object payload to canonical JSON TEXT for
// storage. Uses RFC 8785 canonical JSON so the stored text is exactly what was
// hashed.
func canonicalPayload(payload []byte) (string, error) {
	obj, err := ir.DecodeObject(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	data, err := ir.MarshalCanonical(obj)
	if err != nil {
		return "", ir.NewError(ir.CodeInvalidPayload, "payload is not canonicalizable").Wrap(err)
	}
	return string(data), nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

const entryColumns = `hash, kind, author, predecessor, seq, payload, deleted`

// scanEntry scans a row selected with entryColumns into an Entry.
func scanEntry(row rowScanner) (ir.Entry, error) {
	var (
		e           ir.Entry
		hash, kind  string
		author      string
		predecessor sql.NullString
		payload     string
		deleted     int
	)

	if err := row.Scan(&hash, &kind, &author, &predecessor, &e.Seq, &payload, &deleted); err != nil {
		return ir.Entry{}, err
	}

	e.Hash = ir.Hash(hash)
	e.Kind = ir.Kind(kind)
	e.Author = ir.OwnerKey(author)
	if predecessor.Valid {
		e.Predecessor = ir.Hash(predecessor.String)
	}
	e.Payload = json.RawMessage(payload)
	e.Deleted = deleted != 0
	return e, nil
}

const edgeColumns = `seq, id, owner, kind, instance_key, target`

// scanEdge scans a row selected with edgeColumns into an Edge.
func scanEdge(row rowScanner) (ir.Edge, error) {
	var (
		e                   ir.Edge
		owner, kind, target string
	)
	if err := row.Scan(&e.Seq, &e.ID, &owner, &kind, &e.InstanceKey, &target); err != nil {
		return ir.Edge{}, fmt.Errorf("scan edge: %w", err)
	}
	e.Owner = ir.OwnerKey(owner)
	e.Kind = ir.Kind(kind)
	e.Target = ir.Hash(target)
	return e, nil
}

func nullableHash(h ir.Hash) sql.NullString {
	if h == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: string(h), Valid: true}
}
