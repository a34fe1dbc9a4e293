package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/sandevgo/shopclerk/internal/config"
	"github.com/sandevgo/shopclerk/internal/service/agent"
	"github.com/sandevgo/shopclerk/internal/service/intent"
	"github.com/sandevgo/shopclerk/internal/service/responder"
	"github.com/sandevgo/shopclerk/internal/service/retrieval"
	"github.com/sandevgo/shopclerk/internal/service/session"
	"github.com/sandevgo/shopclerk/internal/service/sweeper"
	"github.com/sandevgo/shopclerk/internal/storage/sqlite"
	"github.com/sandevgo/shopclerk/internal/transport/cli"
	"github.com/sandevgo/shopclerk/internal/transport/httpapi"
	"github.com/sandevgo/shopclerk/internal/transport/mcp"
	"github.com/sandevgo/shopclerk/internal/transport/telegram"
	"github.com/sandevgo/shopclerk/pkg/log"
	"github.com/sandevgo/shopclerk/pkg/srv"
)

func NewServices(ctx context.Context) []srv.Service {
	logger := log.FromCtx(ctx)
	services := make([]srv.Service, 0)

	// init env
	if err := initEnv(ctx, config.GetRuntimePath()); err != nil {
		logger.Fatal().Err(err).Msg("failed to init env")
	}

	// 1. Configuration
	appCfg := config.NewAppConfig(ctx)

	// 2. Storage
	db, err := sqlite.NewDB(ctx, appCfg.GetDatabasePath())
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize storage")
	}
	services = append(services, srv.NewCleanup(db.Close))

	catalogRepo := sqlite.NewCatalogRepo(db)
	conversationsRepo := sqlite.NewConversationsRepo(db)

	// 3. Retrieval
	// Index build failure at startup is fatal; later searches reuse the
	// built indices.
	search := retrieval.NewService(catalogRepo)
	if err := search.Initialize(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to build search indices")
	}

	// 4. Conversation state
	contexts := newSessionStore(ctx, appCfg)
	services = append(services, sweeper.New(contexts, appCfg.SweepSchedule))

	// 5. Orchestrator
	orchestrator := agent.NewOrchestrator(
		intent.NewClassifier(),
		contexts,
		responder.NewGenerator(search, catalogRepo),
		agent.WithStore(conversationsRepo),
		agent.WithInitializer(search),
	)

	// 6. Transports
	transports, err := initTransports(ctx, appCfg, orchestrator, search)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize transports")
	}
	services = append(services, transports...)

	return services
}

func newSessionStore(ctx context.Context, cfg *config.AppConfig) *session.Store {
	sessionCfg := session.DefaultConfig()
	sessionCfg.MaxMessages = cfg.MaxMessages
	sessionCfg.CompressionKeep = cfg.CompressionKeep
	sessionCfg.MaxAge = cfg.MaxContextAge

	var opts []session.Option
	if cfg.EnableTokenStats {
		counter, err := session.NewTiktokenCounter()
		if err != nil {
			log.FromCtx(ctx).Warn().Err(err).Msg("token stats disabled")
		} else {
			opts = append(opts, session.WithTokenCounter(counter))
		}
	}
	return session.NewStore(sessionCfg, opts...)
}

func initTransports(
	ctx context.Context,
	cfg *config.AppConfig,
	orchestrator *agent.Orchestrator,
	search *retrieval.Service,
) ([]srv.Service, error) {
	var services []srv.Service

	if cfg.EnableHTTP {
		services = append(services, httpapi.NewServer(cfg.HTTPAddr, orchestrator))
	}

	if cfg.EnableCLI {
		rl, err := cli.NewReadLine(orchestrator, cfg)
		if err != nil {
			return nil, err
		}
		services = append(services, rl)
	}

	if cfg.EnableTelegram {
		tgCfg := config.NewTelegramConfig(ctx)
		bot, err := telegram.NewBot(ctx, tgCfg, orchestrator)
		if err != nil {
			return nil, err
		}
		services = append(services, bot)
	}

	if cfg.EnableMCP {
		services = append(services, mcp.NewServer(orchestrator, search))
	}

	return services, nil
}

func initEnv(ctx context.Context, runtimePath string) error {
	logger := log.FromCtx(ctx)
	envFile := filepath.Join(runtimePath, ".env")

	if _, err := os.Stat(envFile); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	if err := godotenv.Load(envFile); err != nil {
		logger.Warn().Err(err).Str("path", envFile).Msg("failed to load .env file")
		return err
	}

	logger.Debug().Str("path", envFile).Msg("loaded .env file")
	return nil
}
