package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/sandevgo/shopclerk/pkg/log"
)

type AppConfig struct {
	RuntimePath string `env:"SHOPCLERK_RUNTIME_PATH" envDefault:".shopclerk"`

	// Transport Flags
	EnableHTTP     bool `env:"ENABLE_HTTP" envDefault:"true"`
	EnableCLI      bool `env:"ENABLE_CLI" envDefault:"false"`
	EnableTelegram bool `env:"ENABLE_TELEGRAM" envDefault:"false"`
	EnableMCP      bool `env:"ENABLE_MCP" envDefault:"false"`

	HTTPAddr string `env:"SHOPCLERK_HTTP_ADDR" envDefault:":8080"`

	// Context Management
	MaxMessages     int           `env:"SHOPCLERK_MAX_MESSAGES" envDefault:"20"`
	CompressionKeep int           `env:"SHOPCLERK_COMPRESSION_KEEP" envDefault:"10"`
	MaxContextAge   time.Duration `env:"SHOPCLERK_MAX_CONTEXT_AGE" envDefault:"24h"`
	SweepSchedule   string        `env:"SHOPCLERK_SWEEP_SCHEDULE" envDefault:"*/30 * * * *"`

	// Token accounting on retained histories (debug diagnostics).
	EnableTokenStats bool `env:"SHOPCLERK_TOKEN_STATS" envDefault:"false"`
}

func NewAppConfig(ctx context.Context) *AppConfig {
	c := &AppConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse App config")
	}
	return c
}

func (c AppConfig) GetRuntimePath() string {
	return c.RuntimePath
}

func (c AppConfig) GetDatabasePath() string {
	return filepath.Join(c.RuntimePath, "shopclerk.db")
}
