package storage

import (
	"context"
	"fmt"

	"schoollicense.app/renewal/internal/config"
	"schoollicense.app/renewal/internal/logger"
)

// Open returns the Store selected by cfg.StoreDriver.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	var (
		st  Store
		err error
	)

	switch cfg.StoreDriver {
	case config.DriverAppwrite:
		st = NewAppwriteStorage(AppwriteConfig{
			Endpoint:     cfg.AppwriteEndpoint,
			ProjectID:    cfg.AppwriteProjectID,
			APIKey:       cfg.AppwriteAPIKey,
			DatabaseID:   cfg.DatabaseID,
			CollectionID: cfg.CollectionID,
		})
	case config.DriverMongo:
		st, err = NewMongoStorage(ctx, cfg.MongoURI, cfg.DatabaseID, cfg.CollectionID)
	case config.DriverBolt:
		st, err = NewBoltStorage(cfg.BoltPath)
	case config.DriverSQLite:
		st, err = NewSQLiteStorage(cfg.SQLitePath)
	case config.DriverMemory:
		st = NewMemoryStorage()
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
	if err != nil {
		return nil, err
	}

	logger.Info("License store opened", map[string]interface{}{
		"driver": cfg.StoreDriver,
	})
	return st, nil
}
