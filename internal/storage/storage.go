package storage

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is stamped into PRAGMA user_version. Bump it whenever a
// table in schema.sql changes shape.
const schemaVersion = 1

// ErrSchemaVersion means the file was written by an incompatible layout.
// The store is a rebuildable cache, so the fix is drop + build.
var ErrSchemaVersion = errors.New("database schema version mismatch")

// DB is the tennis metrics store.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite store at path, applies the schema and
// checks its version. path may be ":memory:".
func Open(path string) (*DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if path == ":memory:" {
		// each pooled connection would see its own empty database
		conn.SetMaxOpenConns(1)
	}
	if err := migrate(conn); err != nil {
		conn.Close()
		return nil, err
	}
	return &DB{conn: conn}, nil
}

func migrate(conn *sql.DB) error {
	var v int
	if err := conn.QueryRow("PRAGMA user_version").Scan(&v); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	switch v {
	case schemaVersion:
	case 0:
		if _, err := conn.Exec(schemaSQL); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
		if _, err := conn.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
			return fmt.Errorf("stamp schema version: %w", err)
		}
	default:
		return fmt.Errorf("%w: found %d, want %d (run 'tennismetrics drop --force' and rebuild)", ErrSchemaVersion, v, schemaVersion)
	}
	return nil
}

// SchemaVersion reports the version stamped in the open store.
func (db *DB) SchemaVersion() (int, error) {
	var v int
	err := db.conn.QueryRow("PRAGMA user_version").Scan(&v)
	return v, err
}

// Close closes the underlying connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
