package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"net/url"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// connParams are applied by the driver to every connection it opens.
var connParams = url.Values{
	"_journal_mode": {"WAL"},
	"_synchronous":  {"NORMAL"},
	"_busy_timeout": {"5000"},
	"_foreign_keys": {"on"},
}

// migration upgrades the schema to version. Migrations run in order inside
// one transaction; user_version records the last one applied.
type migration struct {
	version int
	name    string
	stmt    string
}

var migrations = []migration{
	{1, "edge target index", `CREATE INDEX IF NOT EXISTS idx_edges_target ON edges(target)`},
	{2, "instance key index", `CREATE INDEX IF NOT EXISTS idx_edges_owner_instance ON edges(owner, kind, instance_key)`},
}

var currentSchemaVersion = migrations[len(migrations)-1].version

// Store is the entry store and link index. All owners share one database;
// every edge query is scoped by owner.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path and brings its schema up to
// date. Opening an existing database is safe.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?"+connParams.Encode())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One connection serializes writers; WAL keeps the file readable by
	// other processes meanwhile.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to %s: %w", path, err)
	}

	s := &Store{db: db}
	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}
	if version >= currentSchemaVersion {
		return nil
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, m := range migrations {
			if m.version <= version {
				continue
			}
			if _, err := tx.ExecContext(ctx, m.stmt); err != nil {
				return fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
			}
		}
		// PRAGMA does not accept bound parameters.
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
			return fmt.Errorf("set user_version: %w", err)
		}
		return nil
	})
}

// withTx runs fn inside a transaction, committing on success.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// verifyPragma reports whether pragma name currently reads expected.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	if err := s.db.QueryRow("PRAGMA " + name).Scan(&value); err != nil {
		return fmt.Errorf("query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
