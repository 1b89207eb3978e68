package store

import (
	"context"
	"encoding/json"
	"sync"
)

// Memory keeps records in process memory. It backs tests and the "memory" store
// setting; nothing survives a restart.
type Memory struct {
	mu   sync.RWMutex
	data map[Collection]map[int64][]byte
	seq  map[Collection]int64
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		data: make(map[Collection]map[int64][]byte),
		seq:  make(map[Collection]int64),
	}
}

func (m *Memory) bucket(c Collection) map[int64][]byte {
	b, ok := m.data[c]
	if !ok {
		b = make(map[int64][]byte)
		m.data[c] = b
	}
	return b
}

func (m *Memory) Get(ctx context.Context, c Collection, id int64) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	raw, ok := m.data[c][id]
	if !ok {
		return Record{}, notFound(c, id)
	}
	return Record{ID: id, Data: clone(raw)}, nil
}

func (m *Memory) Put(ctx context.Context, c Collection, rec Record) error {
	if err := checkPut(rec); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bucket(c)[rec.ID] = clone(rec.Data)
	if rec.ID > m.seq[c] {
		m.seq[c] = rec.ID
	}
	return nil
}

func (m *Memory) Add(ctx context.Context, c Collection, data json.RawMessage) (int64, error) {
	if err := checkData(data); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq[c]++
	id := m.seq[c]
	m.bucket(c)[id] = clone(data)
	return id, nil
}

func (m *Memory) Update(ctx context.Context, c Collection, id int64, partial map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.data[c][id]
	if !ok {
		return notFound(c, id)
	}
	merged, err := mergeObject(raw, partial)
	if err != nil {
		return unavailable("update", err)
	}
	m.data[c][id] = merged
	return nil
}

func (m *Memory) Delete(ctx context.Context, c Collection, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data[c], id)
	return nil
}

func (m *Memory) QueryByIndex(ctx context.Context, c Collection, field string, value any) ([]Record, error) {
	if err := checkField(field); err != nil {
		return nil, err
	}
	want := IndexKey(value)
	var out []Record
	for _, rec := range m.snapshot(c) {
		if matches(rec, field, want) {
			out = append(out, rec)
		}
	}
	sortRecords(out, "id", Asc)
	return out, nil
}

func (m *Memory) All(ctx context.Context, c Collection, q AllQuery) ([]Record, error) {
	if q.OrderBy != "" {
		if err := checkField(q.OrderBy); err != nil {
			return nil, err
		}
	}
	out := m.snapshot(c)
	sortRecords(out, q.OrderBy, q.Direction)
	return applyLimit(out, q.Limit), nil
}

func (m *Memory) Close() error { return nil }

func (m *Memory) snapshot(c Collection) []Record {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Record, 0, len(m.data[c]))
	for id, raw := range m.data[c] {
		out = append(out, Record{ID: id, Data: clone(raw)})
	}
	return out
}

func clone(b []byte) []byte {
	return append([]byte(nil), b...)
}
