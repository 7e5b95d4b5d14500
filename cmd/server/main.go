package main

//	@title			ClipVault API
//	@version		1.0
//	@description	Personal video library: ingest, browse, organize, export.
//	@schemes		http https
//	@BasePath		/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				API bearer token (e.g., "Bearer clipvault")

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/clipvault-io/clipvault/internal/bootstrap"
	"github.com/clipvault-io/clipvault/internal/config"
	"github.com/clipvault-io/clipvault/internal/infra/cache"
	dbpkg "github.com/clipvault-io/clipvault/internal/infra/db"
	"github.com/clipvault-io/clipvault/internal/modules/handler"
	"github.com/clipvault-io/clipvault/internal/modules/repo"
	"github.com/clipvault-io/clipvault/internal/modules/service"
	"github.com/clipvault-io/clipvault/internal/router"
	"github.com/clipvault-io/clipvault/internal/telemetry"
)

func main() {
	// build dependency injection container
	inj := bootstrap.BuildContainer()

	cfg := do.MustInvoke[*config.Config](inj)
	log := do.MustInvoke[*zap.Logger](inj)
	db := do.MustInvoke[*gorm.DB](inj)

	// Setup OpenTelemetry tracing (using configuration system)
	tp, err := telemetry.SetupTracing(cfg)
	if err != nil {
		log.Sugar().Warnw("failed to setup tracing, continuing without tracing", "err", err)
	} else if tp != nil {
		log.Sugar().Infow("OpenTelemetry tracing enabled", "endpoint", cfg.Telemetry.OtlpEndpoint)
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := telemetry.Shutdown(ctx); err != nil {
				log.Sugar().Errorw("failed to shutdown tracer", "err", err)
			}
		}()

		// Register GORM OpenTelemetry plugin after tracer provider is set
		if err := dbpkg.RegisterOpenTelemetryPlugin(db); err != nil {
			log.Sugar().Warnw("failed to register GORM OpenTelemetry plugin, continuing without database tracing", "err", err)
		}

		// Register Redis OpenTelemetry plugin after tracer provider is set
		if cfg.Redis.Addr != "" {
			rdb := do.MustInvoke[*redis.Client](inj)
			if err := cache.RegisterOpenTelemetryPlugin(rdb); err != nil {
				log.Sugar().Warnw("failed to register Redis OpenTelemetry plugin, continuing without Redis tracing", "err", err)
			}
		}
	}

	// optionally seed an empty library with sample clips
	if cfg.Library.SeedSample {
		assets := do.MustInvoke[repo.AssetRepo](inj)
		projects := do.MustInvoke[repo.ProjectRepo](inj)
		if err := service.SeedSampleLibrary(context.Background(), assets, projects, cfg.S3.Bucket, log); err != nil {
			log.Sugar().Warnw("sample library seed failed", "err", err)
		}
	}

	// init gin
	gin.SetMode(cfg.App.Env)

	engine := router.NewRouter(router.RouterDeps{
		Config:          cfg,
		Log:             log,
		AssetHandler:    do.MustInvoke[*handler.AssetHandler](inj),
		ProjectHandler:  do.MustInvoke[*handler.ProjectHandler](inj),
		IngestHandler:   do.MustInvoke[*handler.IngestHandler](inj),
		SnapshotHandler: do.MustInvoke[*handler.SnapshotHandler](inj),
	})

	addr := fmt.Sprintf("%s:%d", cfg.App.Host, cfg.App.Port)
	srv := &http.Server{Addr: addr, Handler: engine}

	go func() {
		log.Sugar().Infow("starting http server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Sugar().Fatalw("listen error", "err", err)
		}
	}()

	// graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Sugar().Errorw("server shutdown", "err", err)
	}
	log.Sugar().Info("server exited")
}
