package export

import (
	"context"
	"log/slog"

	"github.com/goover/docudesk/internal/layout"
)

// Cache stores rendered PDFs by layout fingerprint.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte) error
}

// RenderObserver is told about every artifact produced.
type RenderObserver interface {
	ObserveRender(cached bool, pages int)
}

// Renderer writes Paged layouts to PDF, consulting an optional cache.
type Renderer struct {
	spooler  Spooler
	cache    Cache
	observer RenderObserver
	logger   *slog.Logger
}

// RendererOption configures a Renderer.
type RendererOption func(*Renderer)

// WithSpooler sets the spooler attached to rendered artifacts.
func WithSpooler(s Spooler) RendererOption {
	return func(r *Renderer) { r.spooler = s }
}

// WithCache enables the render cache.
func WithCache(c Cache) RendererOption {
	return func(r *Renderer) { r.cache = c }
}

// WithObserver reports renders to o.
func WithObserver(o RenderObserver) RendererOption {
	return func(r *Renderer) { r.observer = o }
}

// NewRenderer builds a Renderer.
func NewRenderer(logger *slog.Logger, opts ...RendererOption) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Renderer{logger: logger}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render produces the artifact for p. Cache failures are logged and the PDF
// is written directly.
func (r *Renderer) Render(ctx context.Context, p *layout.Paged) (*Artifact, error) {
	fp := p.Fingerprint()
	art := &Artifact{Name: p.FileName, Fingerprint: fp, Pages: len(p.Pages), spooler: r.spooler}

	if r.cache != nil {
		data, ok, err := r.cache.Get(ctx, fp)
		switch {
		case err != nil:
			r.logger.Warn("render cache get", slog.String("fingerprint", fp), slog.Any("error", err))
		case ok:
			art.Data = data
			art.Cached = true
			r.observe(art)
			return art, nil
		}
	}

	data, err := Write(p)
	if err != nil {
		return nil, err
	}
	art.Data = data

	if r.cache != nil {
		if err := r.cache.Set(ctx, fp, data); err != nil {
			r.logger.Warn("render cache set", slog.String("fingerprint", fp), slog.Any("error", err))
		}
	}
	r.observe(art)
	return art, nil
}

func (r *Renderer) observe(art *Artifact) {
	if r.observer != nil {
		r.observer.ObserveRender(art.Cached, art.Pages)
	}
}
