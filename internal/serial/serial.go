// Package serial issues human-readable document numbers of the form
// PREFIX-YEAR-00042, one monotonic counter per (document type, year).
//
// The counter is read, incremented and written back without a cross-process
// lock: docudesk assumes one active writer per store. Two processes issuing
// numbers against the same store concurrently can hand out duplicates; that is
// an accepted limitation rather than something this package guards against.
package serial

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goover/docudesk/internal/platform/store"
	"github.com/goover/docudesk/internal/shared"
)

// Counter is the persisted sequence for one (type, year) pair.
type Counter struct {
	ID            int64  `json:"id,omitempty"`
	Key           string `json:"key"`
	Type          string `json:"type"`
	Prefix        string `json:"prefix"`
	CurrentNumber int64  `json:"currentNumber"`
	Year          int    `json:"year"`
}

var prefixes = map[string]string{
	"invoice":   "INV",
	"quotation": "QUO",
	"waybill":   "WBL",
}

// Prefix returns the serial prefix for a document type.
func Prefix(docType string) (string, bool) {
	p, ok := prefixes[docType]
	return p, ok
}

// Format renders a serial number. Numbers above 99999 widen the field rather
// than wrapping, so ordering within a year stays strict.
func Format(prefix string, year int, n int64) string {
	return fmt.Sprintf("%s-%d-%05d", prefix, year, n)
}

func counterKey(docType string, year int) string {
	return docType + ":" + strconv.Itoa(year)
}

// Generator issues serial numbers backed by the serialCounters collection.
type Generator struct {
	store  store.Store
	logger *slog.Logger
	now    func() time.Time

	mu           sync.Mutex
	lastFallback int64
}

// Option configures a Generator.
type Option func(*Generator)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// NewGenerator constructs a Generator.
func NewGenerator(st store.Store, logger *slog.Logger, opts ...Option) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	g := &Generator{store: st, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Next returns the next serial number for docType in the current year.
//
// If the counter cannot be read or written the generator degrades to a
// timestamp-based identifier (see fallback) and still returns a nil error, so
// a save never blocks on the counter. Only an unknown type is an error.
func (g *Generator) Next(ctx context.Context, docType string) (string, error) {
	prefix, ok := Prefix(docType)
	if !ok {
		return "", shared.NewValidationError("type", fmt.Sprintf("unknown document type %q", docType))
	}
	now := g.now()
	year := now.Year()

	n, err := g.increment(ctx, docType, prefix, year)
	if err != nil {
		serial := g.fallback(prefix, year, now)
		g.logger.Warn("serial counter unavailable, using timestamp fallback",
			slog.String("type", docType),
			slog.String("serial", serial),
			slog.Any("error", err),
		)
		return serial, nil
	}
	return Format(prefix, year, n), nil
}

func (g *Generator) increment(ctx context.Context, docType, prefix string, year int) (int64, error) {
	key := counterKey(docType, year)
	recs, err := g.store.QueryByIndex(ctx, store.SerialCounters, "key", key)
	if err != nil {
		return 0, fmt.Errorf("serial: lookup counter: %w", err)
	}

	var counter Counter
	if len(recs) == 0 {
		counter = Counter{Key: key, Type: docType, Prefix: prefix, Year: year}
		data, err := json.Marshal(counter)
		if err != nil {
			return 0, fmt.Errorf("serial: encode counter: %w", err)
		}
		id, err := g.store.Add(ctx, store.SerialCounters, data)
		if err != nil {
			return 0, fmt.Errorf("serial: create counter: %w", err)
		}
		counter.ID = id
	} else {
		if err := store.Decode(recs[0], &counter); err != nil {
			return 0, err
		}
		counter.ID = recs[0].ID
	}

	next := counter.CurrentNumber + 1
	if err := g.store.Update(ctx, store.SerialCounters, counter.ID, map[string]any{"currentNumber": next}); err != nil {
		return 0, fmt.Errorf("serial: persist counter: %w", err)
	}
	return next, nil
}

// fallback builds PREFIX-YEAR-<base36 nanoseconds>. Timestamps have nanosecond
// resolution at best and coarser on some platforms, so the generator keeps the
// last value it issued and bumps past it; fallbacks from one process never
// collide even when the clock does not advance between calls.
func (g *Generator) fallback(prefix string, year int, now time.Time) string {
	g.mu.Lock()
	ts := now.UnixNano()
	if ts <= g.lastFallback {
		ts = g.lastFallback + 1
	}
	g.lastFallback = ts
	g.mu.Unlock()
	return fmt.Sprintf("%s-%d-%s", prefix, year, strings.ToUpper(strconv.FormatInt(ts, 36)))
}
