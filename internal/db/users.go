package db

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"skillsync/internal/config"
	"skillsync/internal/repository"
)

// OpenUsers connects the configured store driver, prepares its schema and
// returns the user repository with a function releasing the connection.
func OpenUsers(ctx context.Context, cfg *config.Config, log *zap.Logger) (repository.UserRepository, func(context.Context) error, error) {
	switch cfg.StoreDriver {
	case "mongo":
		client, database, err := NewMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, nil, err
		}
		if cfg.ResetDB {
			log.Warn("RESET_DB set, dropping users collection")
			if err := database.Collection(repository.UsersCollection).Drop(ctx); err != nil {
				_ = client.Disconnect(ctx)
				return nil, nil, fmt.Errorf("drop users: %w", err)
			}
		}
		if err := repository.EnsureUserIndexes(ctx, database); err != nil {
			_ = client.Disconnect(ctx)
			return nil, nil, err
		}
		log.Info("connected to mongo", zap.String("database", cfg.MongoDatabase))
		return repository.NewMongoUserRepository(database), client.Disconnect, nil

	case "mysql":
		gormDB, err := NewMySQL(ctx, cfg.MySQLDSN, log, cfg.LogLevel == "debug")
		if err != nil {
			return nil, nil, err
		}
		sqlDB, err := gormDB.DB()
		if err != nil {
			return nil, nil, fmt.Errorf("get sql db: %w", err)
		}
		if cfg.ResetDB {
			log.Warn("RESET_DB set, dropping users table")
		}
		if err := Migrate(gormDB, cfg.ResetDB); err != nil {
			_ = sqlDB.Close()
			return nil, nil, err
		}
		log.Info("connected to mysql")
		return repository.NewUserRepository(gormDB), func(context.Context) error { return sqlDB.Close() }, nil
	}
	return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}
