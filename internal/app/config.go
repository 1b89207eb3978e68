package app

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/goover/docudesk/internal/export"
	"github.com/goover/docudesk/internal/layout/assets"
)

// Store backends selectable with DOCUDESK_STORE.
const (
	StoreSQLite   = "sqlite"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config holds runtime configuration for the application.
type Config struct {
	AppEnv            string        `envconfig:"APP_ENV" default:"development"`
	AppAddr           string        `envconfig:"APP_ADDR" default:":8080"`
	AppReadTimeout    time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout   time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"30s"`
	AppRequestTimeout time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"30s"`
	RateLimit         int           `envconfig:"APP_RATE_LIMIT" default:"120"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`

	Store       string `envconfig:"DOCUDESK_STORE" default:"sqlite"`
	SQLitePath  string `envconfig:"DOCUDESK_SQLITE_PATH" default:"docudesk.db"`
	RedisAddr   string `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	RedisPrefix string `envconfig:"DOCUDESK_REDIS_PREFIX" default:"docudesk"`
	PGDSN       string `envconfig:"PG_DSN"`

	ExportDir      string        `envconfig:"DOCUDESK_EXPORT_DIR" default:"exports"`
	PrintCommand   string        `envconfig:"DOCUDESK_PRINT_COMMAND"`
	PrintSpoolDir  string        `envconfig:"DOCUDESK_PRINT_SPOOL_DIR"`
	PrintTimeout   time.Duration `envconfig:"DOCUDESK_PRINT_TIMEOUT" default:"30s"`
	RenderCacheTTL time.Duration `envconfig:"DOCUDESK_RENDER_CACHE_TTL" default:"0s"`

	AssetLetterhead string        `envconfig:"DOCUDESK_ASSET_LETTERHEAD"`
	AssetHeader     string        `envconfig:"DOCUDESK_ASSET_HEADER"`
	AssetSignature  string        `envconfig:"DOCUDESK_ASSET_SIGNATURE"`
	AssetTimeout    time.Duration `envconfig:"DOCUDESK_ASSET_TIMEOUT" default:"3s"`

	WorkerConcurrency int    `envconfig:"DOCUDESK_WORKER_CONCURRENCY" default:"2"`
	ArchiveCron       string `envconfig:"DOCUDESK_ARCHIVE_CRON"`
}

// LoadConfig reads an optional .env file and then the environment. Values
// already present in the environment win over the file.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("app: load .env: %w", err)
	}
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field requirements envconfig cannot express.
func (c *Config) Validate() error {
	switch c.Store {
	case StoreSQLite:
		if c.SQLitePath == "" {
			return errors.New("app: DOCUDESK_SQLITE_PATH must be set for the sqlite store")
		}
	case StorePostgres:
		if c.PGDSN == "" {
			return errors.New("app: PG_DSN must be set for the postgres store")
		}
	case StoreRedis:
		if c.RedisAddr == "" {
			return errors.New("app: REDIS_ADDR must be set for the redis store")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("app: unknown DOCUDESK_STORE %q", c.Store)
	}
	if c.RenderCacheTTL < 0 {
		return errors.New("app: DOCUDESK_RENDER_CACHE_TTL must not be negative")
	}
	return nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}

// AssetDefaults are the branding sources used when settings leave a slot empty.
func (c *Config) AssetDefaults() assets.Sources {
	return assets.Sources{
		Letterhead: c.AssetLetterhead,
		Header:     c.AssetHeader,
		Signature:  c.AssetSignature,
	}
}

// PrintCommandOrDefault returns the configured print command or lp.
func (c *Config) PrintCommandOrDefault() string {
	if c.PrintCommand != "" {
		return c.PrintCommand
	}
	return export.DefaultPrintCommand
}
