package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/goover/docudesk/internal/platform/db"
)

var postgresSchema = []string{`
CREATE TABLE IF NOT EXISTS docudesk_records (
	collection TEXT   NOT NULL,
	id         BIGINT NOT NULL,
	data       JSONB  NOT NULL,
	PRIMARY KEY (collection, id)
)`, `
CREATE TABLE IF NOT EXISTS docudesk_sequences (
	collection TEXT   NOT NULL PRIMARY KEY,
	last_id    BIGINT NOT NULL
)`}

// Postgres stores records as JSONB rows. It exists for hosts that already run
// Postgres; the single-writer assumption still holds.
type Postgres struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects to dsn and ensures the records table exists.
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := db.New(ctx, dsn)
	if err != nil {
		return nil, unavailable("open postgres", err)
	}
	for _, stmt := range postgresSchema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			pool.Close()
			return nil, unavailable("apply schema", err)
		}
	}
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) Get(ctx context.Context, c Collection, id int64) (Record, error) {
	var data []byte
	err := p.pool.QueryRow(ctx,
		`SELECT data FROM docudesk_records WHERE collection = $1 AND id = $2`, string(c), id,
	).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, notFound(c, id)
	}
	if err != nil {
		return Record{}, unavailable("get", err)
	}
	return Record{ID: id, Data: json.RawMessage(data)}, nil
}

func (p *Postgres) Put(ctx context.Context, c Collection, rec Record) error {
	if err := checkPut(rec); err != nil {
		return err
	}
	_, err := p.pool.Exec(ctx, `
		INSERT INTO docudesk_records (collection, id, data) VALUES ($1, $2, $3::jsonb)
		ON CONFLICT (collection, id) DO UPDATE SET data = EXCLUDED.data`,
		string(c), rec.ID, string(rec.Data))
	if err != nil {
		return unavailable("put", err)
	}
	return nil
}

func (p *Postgres) Add(ctx context.Context, c Collection, data json.RawMessage) (int64, error) {
	if err := checkData(data); err != nil {
		return 0, err
	}
	var id int64
	err := db.WithTx(ctx, p.pool, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `
			INSERT INTO docudesk_sequences (collection, last_id)
			SELECT $1, COALESCE(MAX(id), 0) + 1 FROM docudesk_records WHERE collection = $1
			ON CONFLICT (collection) DO UPDATE
				SET last_id = GREATEST(docudesk_sequences.last_id + 1, EXCLUDED.last_id)
			RETURNING last_id`, string(c)).Scan(&id); err != nil {
			return err
		}
		_, err := tx.Exec(ctx,
			`INSERT INTO docudesk_records (collection, id, data) VALUES ($1, $2, $3::jsonb)`,
			string(c), id, string(data))
		return err
	})
	if err != nil {
		return 0, unavailable("add", err)
	}
	return id, nil
}

func (p *Postgres) Update(ctx context.Context, c Collection, id int64, partial map[string]any) error {
	patch, err := json.Marshal(partial)
	if err != nil {
		return fmt.Errorf("store: encode update: %w", err)
	}
	tag, err := p.pool.Exec(ctx,
		`UPDATE docudesk_records SET data = data || $3::jsonb WHERE collection = $1 AND id = $2`,
		string(c), id, string(patch))
	if err != nil {
		return unavailable("update", err)
	}
	if tag.RowsAffected() == 0 {
		return notFound(c, id)
	}
	return nil
}

func (p *Postgres) Delete(ctx context.Context, c Collection, id int64) error {
	if _, err := p.pool.Exec(ctx,
		`DELETE FROM docudesk_records WHERE collection = $1 AND id = $2`, string(c), id,
	); err != nil {
		return unavailable("delete", err)
	}
	return nil
}

func (p *Postgres) QueryByIndex(ctx context.Context, c Collection, field string, value any) ([]Record, error) {
	if err := checkField(field); err != nil {
		return nil, err
	}
	rows, err := p.pool.Query(ctx, `
		SELECT id, data FROM docudesk_records
		WHERE collection = $1 AND data->>$2 = $3
		ORDER BY id`, string(c), field, IndexKey(value))
	if err != nil {
		return nil, unavailable("query by index", err)
	}
	return scanPgRows(rows)
}

func (p *Postgres) All(ctx context.Context, c Collection, q AllQuery) ([]Record, error) {
	dir := "ASC"
	if q.Direction == Desc {
		dir = "DESC"
	}
	var limit *int
	if q.Limit > 0 {
		limit = &q.Limit
	}
	var (
		rows pgx.Rows
		err  error
	)
	if q.OrderBy == "" || q.OrderBy == "id" {
		rows, err = p.pool.Query(ctx,
			`SELECT id, data FROM docudesk_records WHERE collection = $1 ORDER BY id `+dir+` LIMIT $2`,
			string(c), limit)
	} else {
		if err := checkField(q.OrderBy); err != nil {
			return nil, err
		}
		rows, err = p.pool.Query(ctx,
			`SELECT id, data FROM docudesk_records WHERE collection = $1
			 ORDER BY data->$2 `+dir+`, id `+dir+` LIMIT $3`,
			string(c), q.OrderBy, limit)
	}
	if err != nil {
		return nil, unavailable("all", err)
	}
	return scanPgRows(rows)
}

// Close releases the pool.
func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

func scanPgRows(rows pgx.Rows) ([]Record, error) {
	defer rows.Close()
	var out []Record
	for rows.Next() {
		var (
			id   int64
			data []byte
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
