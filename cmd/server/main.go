package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/phira-mp/server/internal/adminapi"
	"github.com/phira-mp/server/internal/config"
	"github.com/phira-mp/server/internal/i10n"
	"github.com/phira-mp/server/internal/identityclient"
	"github.com/phira-mp/server/internal/logging"
	"github.com/phira-mp/server/internal/ratelimit"
	"github.com/phira-mp/server/pkg/room"
	"github.com/phira-mp/server/pkg/server"
	"github.com/phira-mp/server/pkg/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := logging.Initialize(cfg.Development)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	monitors, err := room.LoadMonitorRoster(cfg.MonitorRosterPath)
	if err != nil {
		logger.Fatal("failed to load monitor roster", zap.Error(err))
	}
	registry := room.NewRegistry(monitors)

	identity := identityclient.New(
		cfg.IdentityBaseURL,
		cfg.IdentityTimeout,
		cfg.BreakerMaxFailures,
		cfg.BreakerOpenTimeout,
		cfg.UserInfoCacheSize,
		cfg.UserInfoCacheTTL,
	)

	deps := &session.Deps{
		Registry:     registry,
		Identity:     identity,
		Online:       session.NewOnlineTable(),
		Chat:         ratelimit.New(cfg.ChatRateLimit, cfg.ChatRatePeriod),
		I10n:         i10n.NewTable(cfg.I10nDir),
		Logger:       logger,
		BuildVersion: cfg.BuildVersion,
		BuildCommit:  cfg.BuildCommit,
	}

	lobby := server.New(server.Config{Address: cfg.ListenAddr, MaxConnections: cfg.MaxConnections}, deps, logger)
	if err := lobby.Start(); err != nil {
		logger.Fatal("failed to start lobby server", zap.Error(err))
	}

	adminSrv := &http.Server{
		Addr:    cfg.AdminAddr,
		Handler: adminapi.Router(registry, logger),
	}
	go func() {
		logger.Info("admin HTTP surface listening", zap.String("address", cfg.AdminAddr))
		if err := adminSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("admin HTTP server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	lobby.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := adminSrv.Shutdown(ctx); err != nil {
		logger.Error("admin server forced shutdown", zap.Error(err))
	}

	logger.Info("shutdown complete")
}
