package db

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"sweetshop/internal/config"
	"sweetshop/internal/model"
	"sweetshop/internal/repository"
)

// Store bundles the repositories of the configured backend with the connection pool
// that serves them. The pool lives for the whole process.
type Store struct {
	Users  repository.UserRepository
	Sweets repository.SweetRepository

	close func(ctx context.Context) error
}

// Close tears down the connection pool.
func (s *Store) Close(ctx context.Context) error {
	if s == nil || s.close == nil {
		return nil
	}
	return s.close(ctx)
}

// Connect opens the backend selected by cfg.StoreDriver, prepares its schema and
// returns the repositories bound to it.
func Connect(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Store, error) {
	switch cfg.StoreDriver {
	case config.DriverMongo:
		return connectMongo(ctx, cfg, logger)
	case config.DriverMySQL, config.DriverPostgres, config.DriverSQLite:
		gdb, err := OpenGorm(ctx, cfg.StoreDriver, cfg.DatabaseDSN)
		if err != nil {
			return nil, err
		}
		if err := prepareGorm(gdb, cfg.ResetDB, logger); err != nil {
			return nil, err
		}
		return NewGormStore(gdb), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// NewGormStore wraps an already migrated GORM connection.
func NewGormStore(gdb *gorm.DB) *Store {
	return &Store{
		Users:  repository.NewUserRepository(gdb),
		Sweets: repository.NewSweetRepository(gdb),
		close: func(context.Context) error {
			sqlDB, err := gdb.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	}
}

func prepareGorm(gdb *gorm.DB, reset bool, logger *slog.Logger) error {
	if reset {
		logger.Warn("RESET_DB=true detected, dropping tables")
		for _, table := range Models {
			if err := gdb.Migrator().DropTable(table); err != nil {
				logger.Warn("drop table failed (may not exist)", "error", err)
			}
		}
	}
	if err := gdb.AutoMigrate(Models...); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	n, err := backfillSearchKeys(gdb)
	if err != nil {
		return fmt.Errorf("backfill search keys: %w", err)
	}
	if n > 0 {
		logger.Info("backfilled sweet search keys", "rows", n)
	}
	return nil
}

// backfillSearchKeys fills name_key and category_key on rows written before those
// columns existed.
func backfillSearchKeys(gdb *gorm.DB) (int, error) {
	var stale []model.Sweet
	if err := gdb.Where("name_key = ? AND name <> ?", "", "").Find(&stale).Error; err != nil {
		return 0, err
	}
	for i := range stale {
		s := &stale[i]
		s.SetSearchKeys()
		err := gdb.Model(&model.Sweet{}).Where("id = ?", s.ID).
			Updates(map[string]interface{}{"name_key": s.NameKey, "category_key": s.CategoryKey}).Error
		if err != nil {
			return i, err
		}
	}
	return len(stale), nil
}

func connectMongo(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Store, error) {
	mdb, err := OpenMongo(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		return nil, err
	}
	closeFn := func(ctx context.Context) error { return mdb.Client().Disconnect(ctx) }

	if cfg.ResetDB {
		logger.Warn("RESET_DB=true detected, dropping collections")
		if err := repository.DropCollections(ctx, mdb); err != nil {
			_ = closeFn(ctx)
			return nil, fmt.Errorf("drop collections: %w", err)
		}
	}
	if err := repository.EnsureUserIndexes(ctx, mdb); err != nil {
		_ = closeFn(ctx)
		return nil, fmt.Errorf("ensure user indexes: %w", err)
	}
	if err := repository.EnsureSweetIndexes(ctx, mdb); err != nil {
		_ = closeFn(ctx)
		return nil, fmt.Errorf("ensure sweet indexes: %w", err)
	}
	n, err := repository.BackfillSweetSearchKeys(ctx, mdb)
	if err != nil {
		_ = closeFn(ctx)
		return nil, fmt.Errorf("backfill search keys: %w", err)
	}
	if n > 0 {
		logger.Info("backfilled sweet search keys", "documents", n)
	}

	return &Store{
		Users:  repository.NewMongoUserRepository(mdb),
		Sweets: repository.NewMongoSweetRepository(mdb),
		close:  closeFn,
	}, nil
}
