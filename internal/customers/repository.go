package customers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/goover/docudesk/internal/platform/store"
	"github.com/goover/docudesk/internal/shared"
)

var (
	ErrNotFound = fmt.Errorf("customer %w", shared.ErrNotFound)
)

type Repository interface {
	Get(ctx context.Context, id int64) (*Customer, error)
	FindByName(ctx context.Context, name string) (*Customer, error)
	Create(ctx context.Context, c Customer) (int64, error)
	List(ctx context.Context) ([]Customer, error)
}

type repository struct {
	store store.Store
}

func NewRepository(st store.Store) Repository {
	return &repository{store: st}
}

func (r *repository) Get(ctx context.Context, id int64) (*Customer, error) {
	rec, err := r.store.Get(ctx, store.Customers, id)
	if err != nil {
		return nil, err
	}
	return decode(rec)
}

func (r *repository) FindByName(ctx context.Context, name string) (*Customer, error) {
	recs, err := r.store.QueryByIndex(ctx, store.Customers, "nameKey", NameKey(name))
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, ErrNotFound
	}
	return decode(recs[0])
}

func (r *repository) Create(ctx context.Context, c Customer) (int64, error) {
	c.ID = 0
	c.NameKey = NameKey(c.Name)
	data, err := json.Marshal(c)
	if err != nil {
		return 0, fmt.Errorf("encode customer: %w", err)
	}
	return r.store.Add(ctx, store.Customers, data)
}

func (r *repository) List(ctx context.Context) ([]Customer, error) {
	recs, err := r.store.All(ctx, store.Customers, store.AllQuery{OrderBy: "name"})
	if err != nil {
		return nil, err
	}
	out := make([]Customer, 0, len(recs))
	for _, rec := range recs {
		c, err := decode(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, nil
}

func decode(rec store.Record) (*Customer, error) {
	var c Customer
	if err := store.Decode(rec, &c); err != nil {
		return nil, err
	}
	c.ID = rec.ID
	return &c, nil
}
