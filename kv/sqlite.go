package kv

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLite is a durable Store[[]byte, []byte] over a single SQLite table.
// Keys are BLOBs, which SQLite compares by memcmp, so the store's order is
// plain lexicographic byte order.
type SQLite struct {
	db *sql.DB
}

var _ Store[[]byte, []byte] = (*SQLite)(nil)

// OpenSQLite opens (creating if needed) a SQLite-backed store at path.
// Pass ":memory:" for an ephemeral database.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", path, err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS kv (
		k BLOB PRIMARY KEY,
		v BLOB NOT NULL
	) WITHOUT ROWID`); err != nil {
		db.Close()
		return nil, fmt.Errorf("init kv table: %w", err)
	}

	if _, err := db.Exec(`
		PRAGMA journal_mode = WAL;
		PRAGMA synchronous = NORMAL;
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("set pragmas: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Get implements Store.
func (s *SQLite) Get(ctx context.Context, key []byte) ([]byte, bool, error) {
	var val []byte
	err := s.db.QueryRowContext(ctx, "SELECT v FROM kv WHERE k = ?", key).Scan(&val)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("sqlite get: %w", err)
	}
	return val, true, nil
}

// Set implements Store.
func (s *SQLite) Set(ctx context.Context, key, value []byte) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO kv (k, v) VALUES (?, ?)", key, value)
	if err != nil {
		return fmt.Errorf("sqlite set: %w", err)
	}
	return nil
}

// Delete implements Store.
func (s *SQLite) Delete(ctx context.Context, key []byte) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM kv WHERE k = ?", key)
	if err != nil {
		return fmt.Errorf("sqlite delete: %w", err)
	}
	return nil
}

// Clear implements Store.
func (s *SQLite) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM kv")
	if err != nil {
		return fmt.Errorf("sqlite clear: %w", err)
	}
	return nil
}

// List implements Store. The iterator streams rows and must be closed.
func (s *SQLite) List(ctx context.Context, opts ListOptions[[]byte]) Iterator[[]byte, []byte] {
	var (
		query = "SELECT k, v FROM kv"
		conds []string
		args  []any
	)
	if opts.Start != nil {
		conds = append(conds, "k >= ?")
		args = append(args, *opts.Start)
	}
	if opts.End != nil {
		conds = append(conds, "k < ?")
		args = append(args, *opts.End)
	}
	for i, c := range conds {
		if i == 0 {
			query += " WHERE " + c
		} else {
			query += " AND " + c
		}
	}
	if opts.Reverse {
		query += " ORDER BY k DESC"
	} else {
		query += " ORDER BY k ASC"
	}
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return &sqliteIterator{err: fmt.Errorf("sqlite list: %w", err)}
	}
	return &sqliteIterator{rows: rows}
}

// Close closes the underlying database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

type sqliteIterator struct {
	rows *sql.Rows
	key  []byte
	val  []byte
	err  error
}

func (it *sqliteIterator) Next() bool {
	if it.err != nil || it.rows == nil {
		return false
	}
	if !it.rows.Next() {
		it.err = it.rows.Err()
		return false
	}
	var k, v []byte
	if err := it.rows.Scan(&k, &v); err != nil {
		it.err = fmt.Errorf("sqlite scan: %w", err)
		return false
	}
	it.key = bytes.Clone(k)
	it.val = bytes.Clone(v)
	return true
}

func (it *sqliteIterator) Key() []byte   { return it.key }
func (it *sqliteIterator) Value() []byte { return it.val }
func (it *sqliteIterator) Err() error    { return it.err }

func (it *sqliteIterator) Close() error {
	if it.rows == nil {
		return nil
	}
	return it.rows.Close()
}
