package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/redis/go-redis/v9"

	"github.com/goover/docudesk/internal/customers"
	"github.com/goover/docudesk/internal/documents"
	"github.com/goover/docudesk/internal/export"
	"github.com/goover/docudesk/internal/layout"
	"github.com/goover/docudesk/internal/layout/assets"
	"github.com/goover/docudesk/internal/observability"
	"github.com/goover/docudesk/internal/platform/cache"
	"github.com/goover/docudesk/internal/platform/store"
	"github.com/goover/docudesk/internal/serial"
	"github.com/goover/docudesk/internal/settings"
	"github.com/goover/docudesk/jobs"
)

// App holds the wired services shared by the CLI, the HTTP server and the
// worker.
type App struct {
	Config  *Config
	Logger  *slog.Logger
	Store   store.Store
	Redis   *redis.Client
	Metrics *observability.Metrics

	Customers *customers.Service
	Settings  *settings.Service
	Documents *documents.Service
	Export    *export.Service

	closers []func() error
}

// Open connects the configured store and builds every service.
func Open(ctx context.Context, cfg *Config, logger *slog.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: logger, Metrics: observability.NewMetrics()}

	if cfg.Store == StoreRedis || cfg.RenderCacheTTL > 0 {
		client, err := cache.New(ctx, cfg.RedisAddr)
		switch {
		case err == nil:
			a.Redis = client
			a.closers = append(a.closers, client.Close)
		case cfg.Store == StoreRedis:
			return nil, fmt.Errorf("app: redis store: %w", err)
		default:
			logger.Warn("render cache disabled", slog.Any("error", err))
		}
	}

	st, err := openStore(ctx, cfg, a.Redis)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.Store = st
	a.closers = append(a.closers, st.Close)

	a.Customers = customers.NewService(customers.NewRepository(st), logger)
	a.Settings = settings.NewService(st, logger)
	a.Documents = documents.NewService(
		documents.NewRepository(st),
		serial.NewGenerator(st, logger),
		a.Customers,
		a.Settings,
		logger,
	)

	opts := []export.RendererOption{export.WithObserver(a.Metrics)}
	if a.Redis != nil && cfg.RenderCacheTTL > 0 {
		opts = append(opts, export.WithCache(cache.NewBlobs(a.Redis, cfg.RedisPrefix+":pdf", cfg.RenderCacheTTL)))
	}
	if sp := newSpooler(cfg, logger); sp != nil {
		opts = append(opts, export.WithSpooler(sp))
	}
	a.Export = export.NewService(
		a.Documents,
		a.Settings,
		assets.NewLoader(logger, assets.WithTimeout(cfg.AssetTimeout)),
		layout.NewEngine(layout.NewPDFMeasurer()),
		export.NewRenderer(logger, opts...),
		cfg.AssetDefaults(),
		logger,
	)

	return a, nil
}

func openStore(ctx context.Context, cfg *Config, client *redis.Client) (store.Store, error) {
	switch cfg.Store {
	case StoreMemory:
		return store.NewMemory(), nil
	case StoreSQLite:
		st, err := store.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return st, nil
	case StorePostgres:
		st, err := store.OpenPostgres(ctx, cfg.PGDSN)
		if err != nil {
			return nil, err
		}
		return st, nil
	case StoreRedis:
		if client == nil {
			return nil, errors.New("app: redis store needs a client")
		}
		return store.NewRedis(client, cfg.RedisPrefix), nil
	default:
		return nil, fmt.Errorf("app: unknown store %q", cfg.Store)
	}
}

// newSpooler prefers a spool directory; otherwise the print command must be
// on PATH. Without either, printing is unavailable.
func newSpooler(cfg *Config, logger *slog.Logger) export.Spooler {
	if cfg.PrintSpoolDir != "" {
		return export.DirSpooler{Dir: cfg.PrintSpoolDir}
	}
	sp, err := export.NewCommandSpooler(cfg.PrintCommandOrDefault(), cfg.PrintTimeout, logger)
	if err != nil {
		logger.Debug("printing unavailable", slog.Any("error", err))
		return nil
	}
	return sp
}

// Router builds the HTTP handler over the wired services. jobHandler may be nil.
func (a *App) Router(jobHandler *jobs.Handler) http.Handler {
	return NewRouter(RouterParams{
		Logger:           a.Logger,
		Config:           a.Config,
		DocumentsHandler: documents.NewHandler(a.Logger, a.Documents),
		CustomersHandler: customers.NewHandler(a.Logger, a.Customers),
		SettingsHandler:  settings.NewHandler(a.Logger, a.Settings),
		ExportHandler:    export.NewHandler(a.Logger, a.Export),
		JobHandler:       jobHandler,
		Metrics:          a.Metrics,
	})
}

// Close releases the store and Redis connections in reverse order.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
