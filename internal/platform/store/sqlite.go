package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS records (
	collection TEXT    NOT NULL,
	id         INTEGER NOT NULL,
	data       TEXT    NOT NULL,
	PRIMARY KEY (collection, id)
);
CREATE TABLE IF NOT EXISTS sequences (
	collection TEXT    NOT NULL PRIMARY KEY,
	last_id    INTEGER NOT NULL
);`

// SQLite stores records in a single local database file. It is the default
// backend: durable, schema-less and owned by one process.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite creates or opens the database at path and applies the schema.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, unavailable("open sqlite", err)
	}
	// SQLite allows one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, unavailable(fmt.Sprintf("apply %q", pragma), err)
		}
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, unavailable("apply schema", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Get(ctx context.Context, c Collection, id int64) (Record, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM records WHERE collection = ? AND id = ?`, string(c), id,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, notFound(c, id)
	}
	if err != nil {
		return Record{}, unavailable("get", err)
	}
	return Record{ID: id, Data: json.RawMessage(data)}, nil
}

func (s *SQLite) Put(ctx context.Context, c Collection, rec Record) error {
	if err := checkPut(rec); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO records (collection, id, data) VALUES (?, ?, ?)
		ON CONFLICT (collection, id) DO UPDATE SET data = excluded.data`,
		string(c), rec.ID, string(rec.Data))
	if err != nil {
		return unavailable("put", err)
	}
	return nil
}

func (s *SQLite) Add(ctx context.Context, c Collection, data json.RawMessage) (int64, error) {
	if err := checkData(data); err != nil {
		return 0, err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, unavailable("add: begin", err)
	}
	defer func() { _ = tx.Rollback() }()

	// The sequence only moves forward, so deleted ids are never handed out
	// again. Records written by Put with a higher id push it past them.
	var id int64
	if err := tx.QueryRowContext(ctx, `
		INSERT INTO sequences (collection, last_id)
		SELECT ?, COALESCE(MAX(id), 0) + 1 FROM records WHERE collection = ?
		ON CONFLICT (collection) DO UPDATE SET last_id = max(sequences.last_id + 1, excluded.last_id)
		RETURNING last_id`, string(c), string(c),
	).Scan(&id); err != nil {
		return 0, unavailable("add: next id", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO records (collection, id, data) VALUES (?, ?, ?)`, string(c), id, string(data),
	); err != nil {
		return 0, unavailable("add: insert", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, unavailable("add: commit", err)
	}
	return id, nil
}

func (s *SQLite) Update(ctx context.Context, c Collection, id int64, partial map[string]any) error {
	patch, err := json.Marshal(partial)
	if err != nil {
		return fmt.Errorf("store: encode update: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE records SET data = json_patch(data, ?) WHERE collection = ? AND id = ?`,
		string(patch), string(c), id)
	if err != nil {
		return unavailable("update", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return unavailable("update", err)
	}
	if n == 0 {
		return notFound(c, id)
	}
	return nil
}

func (s *SQLite) Delete(ctx context.Context, c Collection, id int64) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM records WHERE collection = ? AND id = ?`, string(c), id,
	); err != nil {
		return unavailable("delete", err)
	}
	return nil
}

func (s *SQLite) QueryByIndex(ctx context.Context, c Collection, field string, value any) ([]Record, error) {
	if err := checkField(field); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, data FROM records
		WHERE collection = ? AND CAST(json_extract(data, ?) AS TEXT) = ?
		ORDER BY id`,
		string(c), "$."+field, IndexKey(value))
	if err != nil {
		return nil, unavailable("query by index", err)
	}
	return scanSQLRows(rows)
}

func (s *SQLite) All(ctx context.Context, c Collection, q AllQuery) ([]Record, error) {
	dir := "ASC"
	if q.Direction == Desc {
		dir = "DESC"
	}
	limit := q.Limit
	if limit <= 0 {
		limit = -1
	}
	var (
		rows *sql.Rows
		err  error
	)
	if q.OrderBy == "" || q.OrderBy == "id" {
		rows, err = s.db.QueryContext(ctx,
			`SELECT id, data FROM records WHERE collection = ? ORDER BY id `+dir+` LIMIT ?`,
			string(c), limit)
	} else {
		if err := checkField(q.OrderBy); err != nil {
			return nil, err
		}
		rows, err = s.db.QueryContext(ctx,
			`SELECT id, data FROM records WHERE collection = ?
			 ORDER BY json_extract(data, ?) `+dir+`, id `+dir+` LIMIT ?`,
			string(c), "$."+q.OrderBy, limit)
	}
	if err != nil {
		return nil, unavailable("all", err)
	}
	return scanSQLRows(rows)
}

// Close closes the database handle.
func (s *SQLite) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func scanSQLRows(rows *sql.Rows) ([]Record, error) {
	defer func() { _ = rows.Close() }()
	var out []Record
	for rows.Next() {
		var (
			id   int64
			data string
		)
		if err := rows.Scan(&id, &data); err != nil {
			return nil, unavailable("scan", err)
		}
		out = append(out, Record{ID: id, Data: json.RawMessage(data)})
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("rows", err)
	}
	return out, nil
}
