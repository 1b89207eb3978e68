package serial

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goover/docudesk/internal/platform/store"
	"github.com/goover/docudesk/internal/platform/store/storetest"
	"github.com/goover/docudesk/internal/shared"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func newClock(year int) *fakeClock {
	return &fakeClock{t: time.Date(year, time.March, 10, 9, 0, 0, 0, time.UTC)}
}

func TestGenerator_SequentialNumbers(t *testing.T) {
	clock := newClock(2025)
	gen := NewGenerator(store.NewMemory(), quietLogger(), WithClock(clock.Now))
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		got, err := gen.Next(ctx, "invoice")
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("INV-2025-%05d", i), got)
	}

	q, err := gen.Next(ctx, "quotation")
	require.NoError(t, err)
	assert.Equal(t, "QUO-2025-00001", q)

	w, err := gen.Next(ctx, "waybill")
	require.NoError(t, err)
	assert.Equal(t, "WBL-2025-00001", w)
}

func TestGenerator_StrictlyIncreasingAndUnique(t *testing.T) {
	clock := newClock(2025)
	gen := NewGenerator(store.NewMemory(), quietLogger(), WithClock(clock.Now))
	ctx := context.Background()

	seen := make(map[string]struct{})
	prev := ""
	for i := 0; i < 2000; i++ {
		got, err := gen.Next(ctx, "invoice")
		require.NoError(t, err)
		_, dup := seen[got]
		require.False(t, dup, "duplicate serial %s", got)
		seen[got] = struct{}{}
		// Fixed-width field: lexical order equals numeric order below 100000.
		require.Greater(t, got, prev)
		prev = got
	}
}

func TestGenerator_WidensPastFiveDigits(t *testing.T) {
	clock := newClock(2025)
	st := store.NewMemory()
	gen := NewGenerator(st, quietLogger(), WithClock(clock.Now))
	ctx := context.Background()

	data, err := json.Marshal(Counter{Key: "invoice:2025", Type: "invoice", Prefix: "INV", CurrentNumber: 99998, Year: 2025})
	require.NoError(t, err)
	_, err = st.Add(ctx, store.SerialCounters, data)
	require.NoError(t, err)

	got, err := gen.Next(ctx, "invoice")
	require.NoError(t, err)
	assert.Equal(t, "INV-2025-99999", got)

	got, err = gen.Next(ctx, "invoice")
	require.NoError(t, err)
	assert.Equal(t, "INV-2025-100000", got)
}

func TestGenerator_YearRollover(t *testing.T) {
	clock := newClock(2024)
	st := store.NewMemory()
	gen := NewGenerator(st, quietLogger(), WithClock(clock.Now))
	ctx := context.Background()

	first, err := gen.Next(ctx, "invoice")
	require.NoError(t, err)
	assert.Equal(t, "INV-2024-00001", first)

	clock.t = time.Date(2025, time.January, 1, 0, 0, 1, 0, time.UTC)
	next, err := gen.Next(ctx, "invoice")
	require.NoError(t, err)
	assert.Equal(t, "INV-2025-00001", next)
	assert.NotEqual(t, first, next)

	// The 2024 counter is retained, not reset.
	clock.t = time.Date(2024, time.December, 31, 23, 0, 0, 0, time.UTC)
	again, err := gen.Next(ctx, "invoice")
	require.NoError(t, err)
	assert.Equal(t, "INV-2024-00002", again)

	counters, err := st.All(ctx, store.SerialCounters, store.AllQuery{})
	require.NoError(t, err)
	assert.Len(t, counters, 2)
}

func TestGenerator_UnknownType(t *testing.T) {
	gen := NewGenerator(store.NewMemory(), quietLogger())
	_, err := gen.Next(context.Background(), "receipt")
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestGenerator_FallbackWhenStorageUnavailable(t *testing.T) {
	clock := newClock(2025)
	gen := NewGenerator(storetest.Broken{}, quietLogger(), WithClock(clock.Now))

	got, err := gen.Next(context.Background(), "waybill")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(got, "WBL-2025-"))
	suffix := strings.TrimPrefix(got, "WBL-2025-")
	assert.Equal(t, strings.ToUpper(suffix), suffix)
	assert.NotRegexp(t, `^\d{5}$`, suffix)
}

// The clock is frozen, so every fallback observes the same nanosecond; the
// generator must still produce distinct identifiers.
func TestGenerator_FallbackNeverCollidesWithinProcess(t *testing.T) {
	clock := newClock(2025)
	gen := NewGenerator(storetest.Broken{}, quietLogger(), WithClock(clock.Now))
	ctx := context.Background()

	seen := make(map[string]struct{}, 10000)
	for i := 0; i < 10000; i++ {
		got, err := gen.Next(ctx, "invoice")
		require.NoError(t, err)
		_, dup := seen[got]
		require.False(t, dup, "fallback collision on %s", got)
		seen[got] = struct{}{}
	}
}

func TestGenerator_FallbackAfterCounterFailure(t *testing.T) {
	clock := newClock(2025)
	st := &storetest.Switchable{Inner: store.NewMemory()}
	gen := NewGenerator(st, quietLogger(), WithClock(clock.Now))
	ctx := context.Background()

	first, err := gen.Next(ctx, "invoice")
	require.NoError(t, err)
	assert.Equal(t, "INV-2025-00001", first)

	st.SetFailing(true)
	degraded, err := gen.Next(ctx, "invoice")
	require.NoError(t, err)
	assert.NotEqual(t, "INV-2025-00002", degraded)

	st.SetFailing(false)
	recovered, err := gen.Next(ctx, "invoice")
	require.NoError(t, err)
	assert.Equal(t, "INV-2025-00002", recovered)
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "INV-2025-00042", Format("INV", 2025, 42))
	assert.Equal(t, "QUO-2026-123456", Format("QUO", 2026, 123456))
}
