// Package store defines the schema-less record store consumed by the docudesk
// services, together with its memory, SQLite, Redis and Postgres backends.
//
// Records are opaque JSON objects keyed by a store-assigned int64 id within a
// collection. Index lookups and ordering address top-level JSON fields by name.
// The store assumes a single active writer; no backend takes cross-process
// locks beyond what a single statement gives it.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/goover/docudesk/internal/shared"
)

// Collection names a group of records.
type Collection string

const (
	Documents      Collection = "documents"
	Customers      Collection = "customers"
	Settings       Collection = "settings"
	SerialCounters Collection = "serialCounters"
)

// Direction orders All results.
type Direction int

const (
	Asc Direction = iota
	Desc
)

// Record is a stored JSON object and its id.
type Record struct {
	ID   int64
	Data json.RawMessage
}

// AllQuery selects every record of a collection ordered by a top-level field.
// An empty OrderBy (or "id") orders by record id. Limit <= 0 means no limit.
type AllQuery struct {
	OrderBy   string
	Direction Direction
	Limit     int
}

// Store is the storage collaborator. Every call either completes or fails as a
// whole; failures of the underlying medium wrap shared.ErrStorageUnavailable.
type Store interface {
	Get(ctx context.Context, c Collection, id int64) (Record, error)
	Put(ctx context.Context, c Collection, rec Record) error
	Add(ctx context.Context, c Collection, data json.RawMessage) (int64, error)
	Update(ctx context.Context, c Collection, id int64, partial map[string]any) error
	Delete(ctx context.Context, c Collection, id int64) error
	QueryByIndex(ctx context.Context, c Collection, field string, value any) ([]Record, error)
	All(ctx context.Context, c Collection, q AllQuery) ([]Record, error)
	Close() error
}

var fieldPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func checkField(field string) error {
	if !fieldPattern.MatchString(field) {
		return fmt.Errorf("store: invalid field name %q: %w", field, shared.ErrValidation)
	}
	return nil
}

func checkPut(rec Record) error {
	if rec.ID <= 0 {
		return fmt.Errorf("store: put requires a positive id: %w", shared.ErrValidation)
	}
	return checkData(rec.Data)
}

func checkData(data json.RawMessage) error {
	if !json.Valid(data) {
		return fmt.Errorf("store: record data must be valid JSON: %w", shared.ErrValidation)
	}
	return nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("store: %s: %w: %w", op, shared.ErrStorageUnavailable, err)
}

func notFound(c Collection, id int64) error {
	return fmt.Errorf("store: %s/%d: %w", c, id, shared.ErrNotFound)
}

// Decode unmarshals a record into v.
func Decode(rec Record, v any) error {
	if err := json.Unmarshal(rec.Data, v); err != nil {
		return fmt.Errorf("store: decode record %d: %w", rec.ID, err)
	}
	return nil
}
