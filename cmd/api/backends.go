package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/inkfeed/inkfeed/internal/attachment"
	"github.com/inkfeed/inkfeed/internal/config"
	"github.com/inkfeed/inkfeed/internal/repository"
	"github.com/inkfeed/inkfeed/internal/repository/docstore"
	"github.com/inkfeed/inkfeed/internal/repository/memstore"
	"github.com/inkfeed/inkfeed/internal/service"
)

// dataStore is what every store driver provides to the services.
type dataStore interface {
	service.UserStore
	service.PostStore
	Ping(ctx context.Context) error
	Close()
}

// openStore connects the configured store driver.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (dataStore, error) {
	switch cfg.StoreDriver {
	case config.StorePostgres:
		if cfg.AutoMigrate {
			if err := repository.Migrate(ctx, cfg.DatabaseURL); err != nil {
				return nil, fmt.Errorf("migrate database (%s): %s", redactURL(cfg.DatabaseURL), sanitizeError(err, cfg.DatabaseURL))
			}
			logger.Info("database migrations applied")
		}
		repo, err := repository.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect to database (%s): %s", redactURL(cfg.DatabaseURL), sanitizeError(err, cfg.DatabaseURL))
		}
		logger.Info("connected to database")
		return repo, nil
	case config.StoreMongo:
		store, err := docstore.New(ctx, cfg.MongoURI, cfg.MongoDatabase, logger)
		if err != nil {
			return nil, fmt.Errorf("connect to mongo (%s): %s", redactURL(cfg.MongoURI), sanitizeError(err, cfg.MongoURI))
		}
		logger.Info("connected to mongo", "database", cfg.MongoDatabase)
		return store, nil
	case config.StoreMemory:
		logger.Warn("using in-memory store, data is lost on restart")
		return memstore.New(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// openAttachments returns the configured image store.
func openAttachments(ctx context.Context, cfg *config.Config) (attachment.Store, error) {
	switch cfg.AttachmentBackend {
	case config.AttachmentLocal:
		local, err := attachment.NewLocalStore(cfg.UploadDir)
		if err != nil {
			return nil, fmt.Errorf("open upload dir: %w", err)
		}
		return local, nil
	case config.AttachmentMinio:
		store, err := attachment.NewMinioStore(ctx, attachment.MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("open minio bucket: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown attachment backend %q", cfg.AttachmentBackend)
	}
}
