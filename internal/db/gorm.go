package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"sweetshop/internal/config"
	"sweetshop/internal/model"
)

// Models lists every table managed by AutoMigrate.
var Models = []interface{}{
	&model.User{},
	&model.Sweet{},
}

// OpenGorm returns a connected GORM DB for the mysql, postgres or sqlite driver.
func OpenGorm(ctx context.Context, driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case config.DriverMySQL:
		dialector = mysql.Open(dsn)
	case config.DriverPostgres:
		dialector = postgres.Open(dsn)
	case config.DriverSQLite:
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", driver)
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", driver, err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	configurePool(sqlDB, driver)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	return gdb, nil
}

// OpenSQLiteMemory returns a migrated, private in-memory database.
func OpenSQLiteMemory(ctx context.Context) (*gorm.DB, error) {
	gdb, err := OpenGorm(ctx, config.DriverSQLite, ":memory:")
	if err != nil {
		return nil, err
	}
	if err := gdb.AutoMigrate(Models...); err != nil {
		return nil, fmt.Errorf("auto-migrate: %w", err)
	}
	return gdb, nil
}

func configurePool(sqlDB *sql.DB, driver string) {
	if driver == config.DriverSQLite {
		// One connection keeps an in-memory database alive and avoids SQLITE_BUSY.
		sqlDB.SetMaxOpenConns(1)
		return
	}

	const (
		maxOpenConns    = 20
		maxIdleConns    = 10
		connMaxLifetime = 30 * time.Minute
		connMaxIdleTime = 5 * time.Minute
	)
	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)
}
