package export

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/goover/docudesk/internal/documents"
	"github.com/goover/docudesk/internal/layout"
	"github.com/goover/docudesk/internal/layout/assets"
	"github.com/goover/docudesk/internal/settings"
)

// DocumentSource loads saved documents.
type DocumentSource interface {
	Get(ctx context.Context, id int64) (*documents.Document, error)
}

// SettingsSource resolves the issuer profile.
type SettingsSource interface {
	Load(ctx context.Context) (settings.CompanySettings, error)
}

// AssetLoader fetches branding images.
type AssetLoader interface {
	Load(ctx context.Context, src assets.Sources) assets.Set
}

// Service renders saved documents end to end.
type Service struct {
	docs     DocumentSource
	settings SettingsSource
	assets   AssetLoader
	engine   *layout.Engine
	renderer *Renderer
	defaults assets.Sources
	logger   *slog.Logger
}

// NewService builds a Service. defaults fill asset slots the settings leave empty.
func NewService(docs DocumentSource, cfg SettingsSource, loader AssetLoader, engine *layout.Engine, renderer *Renderer, defaults assets.Sources, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		docs:     docs,
		settings: cfg,
		assets:   loader,
		engine:   engine,
		renderer: renderer,
		defaults: defaults,
		logger:   logger,
	}
}

// RenderDocument lays out and writes document id. Settings are resolved
// before any asset is fetched or page laid out.
func (s *Service) RenderDocument(ctx context.Context, id int64) (*Artifact, error) {
	doc, err := s.docs.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	cs, err := s.settings.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("export: load settings: %w", err)
	}

	src := assets.Sources{
		Letterhead: cs.Assets.Letterhead,
		Header:     cs.Assets.Header,
		Signature:  cs.Assets.Signature,
	}.Merge(s.defaults)
	set := s.assets.Load(ctx, src)

	paged, err := s.engine.Layout(layout.Input{Document: *doc, Settings: cs, Assets: set})
	if err != nil {
		return nil, fmt.Errorf("export: layout %s: %w", doc.SerialNumber, err)
	}
	art, err := s.renderer.Render(ctx, paged)
	if err != nil {
		return nil, err
	}

	s.logger.Info("document rendered",
		slog.Int64("document_id", doc.ID),
		slog.String("serial", doc.SerialNumber),
		slog.Int("pages", art.Pages),
		slog.Bool("cached", art.Cached))
	return art, nil
}

// SaveDocument renders id and writes it to dir under its default name.
func (s *Service) SaveDocument(ctx context.Context, id int64, dir string) (string, error) {
	art, err := s.RenderDocument(ctx, id)
	if err != nil {
		return "", err
	}
	return art.Save(dir, "")
}

// PrintDocument renders id and sends it to the spooler.
func (s *Service) PrintDocument(ctx context.Context, id int64) (*Artifact, error) {
	art, err := s.RenderDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := art.Print(ctx); err != nil {
		return nil, err
	}
	return art, nil
}
