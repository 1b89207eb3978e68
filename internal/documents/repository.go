package documents

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/goover/docudesk/internal/platform/store"
	"github.com/goover/docudesk/internal/shared"
)

var (
	ErrNotFound = fmt.Errorf("document %w", shared.ErrNotFound)
)

// Repository persists documents in the documents collection.
type Repository interface {
	Get(ctx context.Context, id int64) (*Document, error)
	FindBySerial(ctx context.Context, serial string) (*Document, error)
	Create(ctx context.Context, doc Document) (int64, error)
	Replace(ctx context.Context, doc Document) error
	SetStatus(ctx context.Context, id int64, status Status, at time.Time) error
	Delete(ctx context.Context, id int64) error
	// List returns documents newest first, optionally restricted to one type.
	List(ctx context.Context, typ Type) ([]Document, error)
}

type repository struct {
	store store.Store
}

func NewRepository(st store.Store) Repository {
	return &repository{store: st}
}

func (r *repository) Get(ctx context.Context, id int64) (*Document, error) {
	rec, err := r.store.Get(ctx, store.Documents, id)
	if err != nil {
		return nil, err
	}
	return decode(rec)
}

func (r *repository) FindBySerial(ctx context.Context, serial string) (*Document, error) {
	recs, err := r.store.QueryByIndex(ctx, store.Documents, "serialNumber", serial)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, ErrNotFound
	}
	return decode(recs[0])
}

func (r *repository) Create(ctx context.Context, doc Document) (int64, error) {
	doc.ID = 0
	data, err := json.Marshal(doc)
	if err != nil {
		return 0, fmt.Errorf("encode document: %w", err)
	}
	return r.store.Add(ctx, store.Documents, data)
}

func (r *repository) Replace(ctx context.Context, doc Document) error {
	id := doc.ID
	doc.ID = 0
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	return r.store.Put(ctx, store.Documents, store.Record{ID: id, Data: data})
}

func (r *repository) SetStatus(ctx context.Context, id int64, status Status, at time.Time) error {
	return r.store.Update(ctx, store.Documents, id, map[string]any{
		"status":    status,
		"updatedAt": at.Format(time.RFC3339Nano),
	})
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	return r.store.Delete(ctx, store.Documents, id)
}

func (r *repository) List(ctx context.Context, typ Type) ([]Document, error) {
	var (
		recs []store.Record
		err  error
	)
	if typ == "" {
		recs, err = r.store.All(ctx, store.Documents, store.AllQuery{OrderBy: "createdAt", Direction: store.Desc})
	} else {
		recs, err = r.store.QueryByIndex(ctx, store.Documents, "type", string(typ))
	}
	if err != nil {
		return nil, err
	}
	out := make([]Document, 0, len(recs))
	for _, rec := range recs {
		d, err := decode(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	if typ != "" {
		sortNewestFirst(out)
	}
	return out, nil
}

func decode(rec store.Record) (*Document, error) {
	var d Document
	if err := store.Decode(rec, &d); err != nil {
		return nil, err
	}
	d.ID = rec.ID
	return &d, nil
}
