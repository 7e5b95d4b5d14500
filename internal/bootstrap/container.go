package bootstrap

import (
	"context"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/clipvault-io/clipvault/internal/config"
	"github.com/clipvault-io/clipvault/internal/infra/blob"
	"github.com/clipvault-io/clipvault/internal/infra/cache"
	"github.com/clipvault-io/clipvault/internal/infra/db"
	"github.com/clipvault-io/clipvault/internal/infra/detect"
	"github.com/clipvault-io/clipvault/internal/infra/logger"
	"github.com/clipvault-io/clipvault/internal/infra/media"
	mq "github.com/clipvault-io/clipvault/internal/infra/queue"
	"github.com/clipvault-io/clipvault/internal/modules/handler"
	"github.com/clipvault-io/clipvault/internal/modules/model"
	"github.com/clipvault-io/clipvault/internal/modules/repo"
	"github.com/clipvault-io/clipvault/internal/modules/service"
)

func BuildContainer() *do.Injector {
	inj := do.New()

	// config
	do.Provide(inj, func(i *do.Injector) (*config.Config, error) {
		return config.Load()
	})

	// logger
	do.Provide(inj, func(i *do.Injector) (*zap.Logger, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return logger.New(cfg.Log.Level)
	})

	// DB
	do.Provide(inj, func(i *do.Injector) (*gorm.DB, error) {
		cfg := do.MustInvoke[*config.Config](i)
		d, err := db.New(cfg)
		if err != nil {
			return nil, err
		}
		// [optional] auto migrate
		if cfg.Database.AutoMigrate {
			_ = d.AutoMigrate(
				&model.Project{},
				&model.Asset{},
			)
		}
		return d, nil
	})

	// Redis
	do.Provide(inj, func(i *do.Injector) (*redis.Client, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return cache.New(cfg), nil
	})

	// S3
	do.Provide(inj, func(i *do.Injector) (*blob.S3Store, error) {
		cfg := do.MustInvoke[*config.Config](i)
		log := do.MustInvoke[*zap.Logger](i)
		return blob.NewS3(context.Background(), cfg, log)
	})

	// Event publisher; absent broker config turns emission off
	do.Provide(inj, func(i *do.Injector) (service.EventPublisher, error) {
		cfg := do.MustInvoke[*config.Config](i)
		if cfg.RabbitMQ.URL == "" {
			return nil, nil
		}
		log := do.MustInvoke[*zap.Logger](i)
		conn, err := amqp.Dial(cfg.RabbitMQ.URL)
		if err != nil {
			return nil, err
		}
		return mq.NewPublisher(conn, log, cfg, func() (*amqp.Connection, error) {
			return amqp.Dial(cfg.RabbitMQ.URL)
		})
	})

	// Metadata extractor
	do.Provide(inj, func(i *do.Injector) (media.Extractor, error) {
		cfg := do.MustInvoke[*config.Config](i)
		log := do.MustInvoke[*zap.Logger](i)
		return media.New(cfg, log), nil
	})

	// Human classifier
	do.Provide(inj, func(i *do.Injector) (service.HumanClassifier, error) {
		cfg := do.MustInvoke[*config.Config](i)
		log := do.MustInvoke[*zap.Logger](i)
		return detect.NewClassifier(detect.NewHTTPDetector(cfg, log), cfg.Detector.Threshold, log), nil
	})

	// Ingest progress; memory store when redis is not configured
	do.Provide(inj, func(i *do.Injector) (service.ProgressStore, error) {
		cfg := do.MustInvoke[*config.Config](i)
		if cfg.Redis.Addr == "" {
			return service.NewMemoryProgressStore(), nil
		}
		return cache.NewProgressStore(do.MustInvoke[*redis.Client](i)), nil
	})

	// Repo
	do.Provide(inj, func(i *do.Injector) (repo.AssetRepo, error) {
		return repo.NewAssetRepo(do.MustInvoke[*gorm.DB](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (repo.ProjectRepo, error) {
		return repo.NewProjectRepo(do.MustInvoke[*gorm.DB](i)), nil
	})

	// Service
	do.Provide(inj, func(i *do.Injector) (service.LibraryService, error) {
		return service.NewLibraryService(
			do.MustInvoke[repo.AssetRepo](i),
			do.MustInvoke[repo.ProjectRepo](i),
			do.MustInvoke[*blob.S3Store](i),
			do.MustInvoke[*config.Config](i),
			do.MustInvoke[*zap.Logger](i),
		), nil
	})
	do.Provide(inj, func(i *do.Injector) (service.ProjectService, error) {
		return service.NewProjectService(do.MustInvoke[repo.ProjectRepo](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (service.IngestService, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return service.NewIngestService(
			do.MustInvoke[repo.AssetRepo](i),
			do.MustInvoke[repo.ProjectRepo](i),
			do.MustInvoke[*blob.S3Store](i),
			do.MustInvoke[media.Extractor](i),
			do.MustInvoke[service.HumanClassifier](i),
			do.MustInvoke[service.ProgressStore](i),
			do.MustInvoke[service.EventPublisher](i),
			cfg.S3.Bucket,
			do.MustInvoke[*zap.Logger](i),
		), nil
	})
	do.Provide(inj, func(i *do.Injector) (service.SnapshotService, error) {
		return service.NewSnapshotService(
			do.MustInvoke[repo.AssetRepo](i),
			do.MustInvoke[repo.ProjectRepo](i),
		), nil
	})

	// Handler
	do.Provide(inj, func(i *do.Injector) (*handler.AssetHandler, error) {
		return handler.NewAssetHandler(do.MustInvoke[service.LibraryService](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (*handler.ProjectHandler, error) {
		return handler.NewProjectHandler(do.MustInvoke[service.ProjectService](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (*handler.IngestHandler, error) {
		return handler.NewIngestHandler(do.MustInvoke[service.IngestService](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (*handler.SnapshotHandler, error) {
		return handler.NewSnapshotHandler(do.MustInvoke[service.SnapshotService](i)), nil
	})

	return inj
}
