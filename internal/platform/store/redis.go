package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// Redis keeps each collection in a hash (id -> JSON) with an INCR sequence
// for Add. Index queries scan the hash; collections are small.
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis wraps an existing client. Keys are namespaced under prefix.
func NewRedis(client *redis.Client, prefix string) *Redis {
	if prefix == "" {
		prefix = "docudesk"
	}
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) key(c Collection) string {
	return fmt.Sprintf("%s:%s", r.prefix, c)
}

func (r *Redis) seqKey(c Collection) string {
	return r.key(c) + ":seq"
}

func (r *Redis) Get(ctx context.Context, c Collection, id int64) (Record, error) {
	raw, err := r.client.HGet(ctx, r.key(c), strconv.FormatInt(id, 10)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Record{}, notFound(c, id)
	}
	if err != nil {
		return Record{}, unavailable("get", err)
	}
	return Record{ID: id, Data: json.RawMessage(raw)}, nil
}

func (r *Redis) Put(ctx context.Context, c Collection, rec Record) error {
	if err := checkPut(rec); err != nil {
		return err
	}
	if err := r.client.HSet(ctx, r.key(c), strconv.FormatInt(rec.ID, 10), []byte(rec.Data)).Err(); err != nil {
		return unavailable("put", err)
	}
	seq, err := r.client.Get(ctx, r.seqKey(c)).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return unavailable("put: read sequence", err)
	}
	if rec.ID > seq {
		if err := r.client.Set(ctx, r.seqKey(c), rec.ID, 0).Err(); err != nil {
			return unavailable("put: bump sequence", err)
		}
	}
	return nil
}

func (r *Redis) Add(ctx context.Context, c Collection, data json.RawMessage) (int64, error) {
	if err := checkData(data); err != nil {
		return 0, err
	}
	id, err := r.client.Incr(ctx, r.seqKey(c)).Result()
	if err != nil {
		return 0, unavailable("add: next id", err)
	}
	if err := r.client.HSet(ctx, r.key(c), strconv.FormatInt(id, 10), []byte(data)).Err(); err != nil {
		return 0, unavailable("add", err)
	}
	return id, nil
}

func (r *Redis) Update(ctx context.Context, c Collection, id int64, partial map[string]any) error {
	key := r.key(c)
	field := strconv.FormatInt(id, 10)
	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		raw, err := tx.HGet(ctx, key, field).Bytes()
		if err != nil {
			return err
		}
		merged, err := mergeObject(raw, partial)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, field, merged)
			return nil
		})
		return err
	}, key)
	if errors.Is(err, redis.Nil) {
		return notFound(c, id)
	}
	if err != nil {
		return unavailable("update", err)
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, c Collection, id int64) error {
	if err := r.client.HDel(ctx, r.key(c), strconv.FormatInt(id, 10)).Err(); err != nil {
		return unavailable("delete", err)
	}
	return nil
}

func (r *Redis) QueryByIndex(ctx context.Context, c Collection, field string, value any) ([]Record, error) {
	if err := checkField(field); err != nil {
		return nil, err
	}
	recs, err := r.scan(ctx, c)
	if err != nil {
		return nil, err
	}
	want := IndexKey(value)
	out := recs[:0]
	for _, rec := range recs {
		if matches(rec, field, want) {
			out = append(out, rec)
		}
	}
	sortRecords(out, "id", Asc)
	return out, nil
}

func (r *Redis) All(ctx context.Context, c Collection, q AllQuery) ([]Record, error) {
	if q.OrderBy != "" {
		if err := checkField(q.OrderBy); err != nil {
			return nil, err
		}
	}
	recs, err := r.scan(ctx, c)
	if err != nil {
		return nil, err
	}
	sortRecords(recs, q.OrderBy, q.Direction)
	return applyLimit(recs, q.Limit), nil
}

// Close closes the underlying client.
func (r *Redis) Close() error {
	return r.client.Close()
}

func (r *Redis) scan(ctx context.Context, c Collection) ([]Record, error) {
	all, err := r.client.HGetAll(ctx, r.key(c)).Result()
	if err != nil {
		return nil, unavailable("scan", err)
	}
	out := make([]Record, 0, len(all))
	for field, raw := range all {
		id, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			continue
		}
		out = append(out, Record{ID: id, Data: json.RawMessage(raw)})
	}
	return out, nil
}
