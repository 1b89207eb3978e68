// Package storetest provides failing store implementations for exercising
// the storage-unavailable paths of services.
package storetest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/goover/docudesk/internal/platform/store"
	"github.com/goover/docudesk/internal/shared"
)

// ErrInjected is the cause wrapped by every injected failure.
var ErrInjected = errors.New("injected failure")

func failure(op string) error {
	return fmt.Errorf("storetest: %s: %w: %w", op, shared.ErrStorageUnavailable, ErrInjected)
}

// Broken fails every call.
type Broken struct{}

func (Broken) Get(context.Context, store.Collection, int64) (store.Record, error) {
	return store.Record{}, failure("get")
}
func (Broken) Put(context.Context, store.Collection, store.Record) error { return failure("put") }
func (Broken) Add(context.Context, store.Collection, json.RawMessage) (int64, error) {
	return 0, failure("add")
}
func (Broken) Update(context.Context, store.Collection, int64, map[string]any) error {
	return failure("update")
}
func (Broken) Delete(context.Context, store.Collection, int64) error { return failure("delete") }
func (Broken) QueryByIndex(context.Context, store.Collection, string, any) ([]store.Record, error) {
	return nil, failure("query by index")
}
func (Broken) All(context.Context, store.Collection, store.AllQuery) ([]store.Record, error) {
	return nil, failure("all")
}
func (Broken) Close() error { return nil }

// Switchable delegates to Inner until Fail is set; then every call fails.
// Collections listed in Only (when non-empty) are the only ones affected.
type Switchable struct {
	Inner store.Store
	Only  []store.Collection

	mu   sync.Mutex
	fail bool
}

// SetFailing toggles failure injection.
func (s *Switchable) SetFailing(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = fail
}

func (s *Switchable) failing(c store.Collection) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.fail {
		return false
	}
	if len(s.Only) == 0 {
		return true
	}
	for _, o := range s.Only {
		if o == c {
			return true
		}
	}
	return false
}

func (s *Switchable) Get(ctx context.Context, c store.Collection, id int64) (store.Record, error) {
	if s.failing(c) {
		return store.Record{}, failure("get")
	}
	return s.Inner.Get(ctx, c, id)
}

func (s *Switchable) Put(ctx context.Context, c store.Collection, rec store.Record) error {
	if s.failing(c) {
		return failure("put")
	}
	return s.Inner.Put(ctx, c, rec)
}

func (s *Switchable) Add(ctx context.Context, c store.Collection, data json.RawMessage) (int64, error) {
	if s.failing(c) {
		return 0, failure("add")
	}
	return s.Inner.Add(ctx, c, data)
}

func (s *Switchable) Update(ctx context.Context, c store.Collection, id int64, partial map[string]any) error {
	if s.failing(c) {
		return failure("update")
	}
	return s.Inner.Update(ctx, c, id, partial)
}

func (s *Switchable) Delete(ctx context.Context, c store.Collection, id int64) error {
	if s.failing(c) {
		return failure("delete")
	}
	return s.Inner.Delete(ctx, c, id)
}

func (s *Switchable) QueryByIndex(ctx context.Context, c store.Collection, field string, value any) ([]store.Record, error) {
	if s.failing(c) {
		return nil, failure("query by index")
	}
	return s.Inner.QueryByIndex(ctx, c, field, value)
}

func (s *Switchable) All(ctx context.Context, c store.Collection, q store.AllQuery) ([]store.Record, error) {
	if s.failing(c) {
		return nil, failure("all")
	}
	return s.Inner.All(ctx, c, q)
}

func (s *Switchable) Close() error { return s.Inner.Close() }
