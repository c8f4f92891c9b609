package sqldb

import (
	"context"
	"errors"
	"fmt"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"staybook/internal/domain/shared/apperr"
)

// Open opens a GORM DB for "postgres" (DSN is a connection URL) or "sqlite"
// (DSN is a file path or ":memory:").
// PreferSimpleProtocol avoids prepared statement clashes behind poolers.
func Open(driver, dsn string) (*gorm.DB, error) {
	cfg := &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	}
	switch driver {
	case "postgres":
		return gorm.Open(postgres.New(postgres.Config{
			DSN:                  dsn,
			PreferSimpleProtocol: true,
		}), cfg)
	case "sqlite":
		db, err := gorm.Open(sqlite.Open(dsn), cfg)
		if err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		// SQLite allows one writer; a single connection also keeps ":memory:"
		// databases shared across the pool.
		sqlDB.SetMaxOpenConns(1)
		return db, nil
	}
	return nil, fmt.Errorf("sqldb: unsupported driver %q", driver)
}

// AutoMigrate creates or updates every table the SQL backend uses.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&listingModel{}, &bookingModel{}, &outboxModel{}, &idempotencyModel{})
}

func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

type txKey struct{}

// dbFrom returns the transaction injected by a Unit, or db bound to ctx.
func dbFrom(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok && tx != nil {
		return tx
	}
	return db.WithContext(ctx)
}

func mapError(op string, err error, conflict error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return conflict
	}
	return apperr.Storage(op, err)
}
