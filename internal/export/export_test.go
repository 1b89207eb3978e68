package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goover/docudesk/internal/customers"
	"github.com/goover/docudesk/internal/documents"
	"github.com/goover/docudesk/internal/layout"
	"github.com/goover/docudesk/internal/layout/assets"
	"github.com/goover/docudesk/internal/platform/cache"
	"github.com/goover/docudesk/internal/settings"
	"github.com/goover/docudesk/internal/shared"
	"github.com/goover/docudesk/internal/totals"
)

// ============================================================================
// FIXTURES
// ============================================================================

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func sampleDocument(n int) *documents.Document {
	items := make([]documents.LineItem, n)
	calc := make([]totals.Item, n)
	for i := range items {
		price := decimal.NewFromInt(int64(250 + i))
		items[i] = documents.LineItem{
			ID:          fmt.Sprintf("item-%d", i),
			Description: fmt.Sprintf("Service line %d", i+1),
			Quantity:    2,
			UnitPrice:   price,
			Amount:      totals.LineAmount(2, price),
		}
		calc[i] = totals.Item{Description: items[i].Description, Quantity: 2, UnitPrice: price}
	}
	rate := decimal.RequireFromString("7.5")
	sum := totals.Compute(calc, rate)
	stamp := time.Date(2025, time.May, 2, 10, 0, 0, 0, time.UTC)
	return &documents.Document{
		ID:           7,
		SerialNumber: "INV-2025-00007",
		Type:         documents.TypeInvoice,
		Customer:     customers.Customer{Name: "Acme Ltd", Address: "12 Marina\nLagos"},
		Items:        items,
		Subtotal:     sum.Subtotal,
		Tax:          sum.Tax,
		TaxRate:      rate,
		Total:        sum.Total,
		Currency:     shared.CurrencyNGN,
		Notes:        "Payment due within 14 days.",
		CreatedAt:    stamp,
		UpdatedAt:    stamp,
		Status:       documents.StatusDraft,
	}
}

func samplePaged(t *testing.T, set assets.Set) *layout.Paged {
	t.Helper()
	p, err := layout.NewEngine(layout.NewPDFMeasurer()).Layout(layout.Input{
		Document: *sampleDocument(30),
		Settings: settings.Defaults(),
		Assets:   set,
	})
	require.NoError(t, err)
	return p
}

type docSource map[int64]*documents.Document

func (d docSource) Get(_ context.Context, id int64) (*documents.Document, error) {
	doc, ok := d[id]
	if !ok {
		return nil, fmt.Errorf("document %d: %w", id, shared.ErrNotFound)
	}
	return doc, nil
}

type settingsSource struct {
	cs    settings.CompanySettings
	err   error
	calls int
}

func (s *settingsSource) Load(context.Context) (settings.CompanySettings, error) {
	s.calls++
	return s.cs, s.err
}

type recordingLoader struct {
	set     assets.Set
	sources []assets.Sources
}

func (l *recordingLoader) Load(_ context.Context, src assets.Sources) assets.Set {
	l.sources = append(l.sources, src)
	return l.set
}

type spooled struct {
	name string
	data []byte
}

type fakeSpooler struct {
	jobs []spooled
	err  error
}

func (s *fakeSpooler) Spool(_ context.Context, name string, data []byte) error {
	if s.err != nil {
		return s.err
	}
	s.jobs = append(s.jobs, spooled{name: name, data: data})
	return nil
}

type countingObserver struct{ hits, misses int }

func (o *countingObserver) ObserveRender(cached bool, _ int) {
	if cached {
		o.hits++
	} else {
		o.misses++
	}
}

type brokenCache struct{}

func (brokenCache) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("cache down")
}

func (brokenCache) Set(context.Context, string, []byte) error { return errors.New("cache down") }

// ============================================================================
// WRITER
// ============================================================================

func TestWrite_ProducesDeterministicPDF(t *testing.T) {
	p := samplePaged(t, assets.Set{})

	first, err := Write(p)
	require.NoError(t, err)
	second, err := Write(p)
	require.NoError(t, err)

	assert.True(t, bytes.HasPrefix(first, []byte("%PDF-")))
	assert.True(t, bytes.Equal(first, second), "same layout writes the same bytes")
}

func TestWrite_EmbedsImages(t *testing.T) {
	sig, err := assets.Decode(assets.Signature, pngBytes(t, 8, 4))
	require.NoError(t, err)
	head, err := assets.Decode(assets.Letterhead, pngBytes(t, 21, 29))
	require.NoError(t, err)

	plain, err := Write(samplePaged(t, assets.Set{}))
	require.NoError(t, err)
	branded, err := Write(samplePaged(t, assets.Set{Letterhead: head, Signature: sig}))
	require.NoError(t, err)

	assert.Contains(t, string(branded), "/Subtype /Image")
	assert.NotContains(t, string(plain), "/Subtype /Image")
}

func TestWrite_Rejects(t *testing.T) {
	_, err := Write(nil)
	assert.Error(t, err)

	_, err = Write(&layout.Paged{Width: 210, Height: 297})
	assert.Error(t, err)

	p := &layout.Paged{
		Width:  210,
		Height: 297,
		Pages:  []layout.Page{{Ops: []layout.Op{layout.Image{X: 0, Y: 0, W: 10, H: 10, Name: "missing"}}}},
	}
	_, err = Write(p)
	assert.ErrorContains(t, err, "not registered")
}

// ============================================================================
// RENDERER & CACHE
// ============================================================================

func TestRenderer_CachesByFingerprint(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := cache.New(context.Background(), mr.Addr())
	require.NoError(t, err)
	defer client.Close()

	obs := &countingObserver{}
	r := NewRenderer(quietLogger(), WithCache(cache.NewBlobs(client, "docudesk:pdf", time.Hour)), WithObserver(obs))
	p := samplePaged(t, assets.Set{})
	ctx := context.Background()

	first, err := r.Render(ctx, p)
	require.NoError(t, err)
	assert.False(t, first.Cached)
	assert.Equal(t, p.Fingerprint(), first.Fingerprint)
	assert.Equal(t, "invoice-INV-2025-00007.pdf", first.Name)
	assert.True(t, mr.Exists("docudesk:pdf:"+p.Fingerprint()))

	second, err := r.Render(ctx, p)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Data, second.Data)
	assert.Equal(t, first.Pages, second.Pages)
	assert.Equal(t, 1, obs.hits)
	assert.Equal(t, 1, obs.misses)
}

func TestRenderer_CacheFailureStillRenders(t *testing.T) {
	r := NewRenderer(quietLogger(), WithCache(brokenCache{}))
	art, err := r.Render(context.Background(), samplePaged(t, assets.Set{}))
	require.NoError(t, err)
	assert.False(t, art.Cached)
	assert.True(t, bytes.HasPrefix(art.Data, []byte("%PDF-")))
}

// ============================================================================
// ARTIFACT & SPOOLERS
// ============================================================================

func TestArtifact_SaveAndPrintShareBytes(t *testing.T) {
	sp := &fakeSpooler{}
	r := NewRenderer(quietLogger(), WithSpooler(sp))
	art, err := r.Render(context.Background(), samplePaged(t, assets.Set{}))
	require.NoError(t, err)

	dir := t.TempDir()
	path, err := art.Save(dir, "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "invoice-INV-2025-00007.pdf"), path)

	require.NoError(t, art.Print(context.Background()))
	require.Len(t, sp.jobs, 1)

	saved, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, saved, sp.jobs[0].data)
	assert.Equal(t, art.Name, sp.jobs[0].name)
}

func TestArtifact_SaveCustomName(t *testing.T) {
	art := &Artifact{Name: "invoice-X.pdf", Data: []byte("%PDF-1.3")}
	dir := filepath.Join(t.TempDir(), "nested", "out")

	path, err := art.Save(dir, "copy.pdf")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "copy.pdf"), path)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files left behind")

	_, err = art.Save(dir, "../escape.pdf")
	assert.Error(t, err)
}

func TestArtifact_PrintWithoutSpooler(t *testing.T) {
	art := &Artifact{Name: "a.pdf", Data: []byte("x")}
	assert.ErrorIs(t, art.Print(context.Background()), ErrNoSpooler)
}

func TestDirSpooler(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, DirSpooler{Dir: dir}.Spool(context.Background(), "q.pdf", []byte("pdf")))

	got, err := os.ReadFile(filepath.Join(dir, "q.pdf"))
	require.NoError(t, err)
	assert.Equal(t, []byte("pdf"), got)
}

func TestCommandSpooler_PipesStdin(t *testing.T) {
	if _, err := exec.LookPath("tee"); err != nil {
		t.Skip("tee not available")
	}
	dir := t.TempDir()
	sp, err := NewCommandSpooler("tee "+dir+"/"+TitlePlaceholder, time.Second, quietLogger())
	require.NoError(t, err)

	require.NoError(t, sp.Spool(context.Background(), "job.pdf", []byte("%PDF-data")))

	got, err := os.ReadFile(filepath.Join(dir, "job.pdf"))
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-data"), got)
}

func TestCommandSpooler_Errors(t *testing.T) {
	_, err := NewCommandSpooler("   ", 0, nil)
	assert.Error(t, err)

	_, err = NewCommandSpooler("docudesk-no-such-printer-binary", 0, nil)
	assert.Error(t, err)

	if _, err := exec.LookPath("false"); err != nil {
		t.Skip("false not available")
	}
	sp, err := NewCommandSpooler("false", time.Second, quietLogger())
	require.NoError(t, err)
	assert.Error(t, sp.Spool(context.Background(), "job.pdf", []byte("x")))
}

// ============================================================================
// SERVICE
// ============================================================================

type serviceFixture struct {
	svc      *Service
	settings *settingsSource
	loader   *recordingLoader
	spooler  *fakeSpooler
}

func newServiceFixture(defaults assets.Sources) *serviceFixture {
	f := &serviceFixture{
		settings: &settingsSource{cs: settings.Defaults()},
		loader:   &recordingLoader{},
		spooler:  &fakeSpooler{},
	}
	f.svc = NewService(
		docSource{7: sampleDocument(5)},
		f.settings,
		f.loader,
		layout.NewEngine(layout.NewPDFMeasurer()),
		NewRenderer(quietLogger(), WithSpooler(f.spooler)),
		defaults,
		quietLogger(),
	)
	return f
}

func TestService_RenderDocument(t *testing.T) {
	f := newServiceFixture(assets.Sources{Letterhead: "/srv/letterhead.png", Signature: "/srv/sig.png"})
	f.settings.cs.Assets.Signature = "https://example.test/sig.png"

	art, err := f.svc.RenderDocument(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "invoice-INV-2025-00007.pdf", art.Name)
	assert.Positive(t, art.Pages)

	require.Len(t, f.loader.sources, 1)
	assert.Equal(t, assets.Sources{
		Letterhead: "/srv/letterhead.png",
		Signature:  "https://example.test/sig.png",
	}, f.loader.sources[0], "settings win over configured defaults")
}

func TestService_SettingsResolveFirst(t *testing.T) {
	f := newServiceFixture(assets.Sources{})
	f.settings.err = shared.ErrStorageUnavailable

	_, err := f.svc.RenderDocument(context.Background(), 7)
	assert.ErrorIs(t, err, shared.ErrStorageUnavailable)
	assert.Empty(t, f.loader.sources, "assets are not fetched without settings")
}

func TestService_RenderMissingDocument(t *testing.T) {
	f := newServiceFixture(assets.Sources{})
	_, err := f.svc.RenderDocument(context.Background(), 99)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.Zero(t, f.settings.calls)
}

func TestService_SaveAndPrint(t *testing.T) {
	f := newServiceFixture(assets.Sources{})
	dir := t.TempDir()

	path, err := f.svc.SaveDocument(context.Background(), 7, dir)
	require.NoError(t, err)
	assert.Equal(t, "invoice-INV-2025-00007.pdf", filepath.Base(path))

	art, err := f.svc.PrintDocument(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, f.spooler.jobs, 1)

	saved, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, saved, art.Data)

	f.spooler.err = errors.New("printer offline")
	_, err = f.svc.PrintDocument(context.Background(), 7)
	assert.ErrorContains(t, err, "printer offline")
}
