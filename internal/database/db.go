package database

import (
	"context"
	"fmt"
	"time"

	"shopadmin/internal/model"
	"shopadmin/pkg/logger"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Options tunes the connection pool and retry policy.
type Options struct {
	MaxRetries   int
	RetryDelay   time.Duration
	MaxOpenConns int
	MaxIdleConns int
	LogLevel     gormlogger.LogLevel
}

// DefaultOptions returns the pool settings used by the API.
func DefaultOptions() Options {
	return Options{
		MaxRetries:   5,
		RetryDelay:   500 * time.Millisecond,
		MaxOpenConns: 25,
		MaxIdleConns: 25,
		LogLevel:     gormlogger.Warn,
	}
}

// NewConnection opens a GORM connection pool, retrying while postgres comes up.
// Driver errors are translated so a unique violation reads as gorm.ErrDuplicatedKey.
func NewConnection(ctx context.Context, dsn string, opts Options) (*gorm.DB, error) {
	cfg := &gorm.Config{
		TranslateError: true,
		Logger:         newZapLogger(logger.L(), opts.LogLevel),
	}

	var db *gorm.DB
	var err error
	for attempt := 0; ; attempt++ {
		db, err = gorm.Open(postgres.Open(dsn), cfg)
		if err == nil {
			break
		}
		if attempt >= opts.MaxRetries {
			return nil, fmt.Errorf("open postgres failed after retries: %w", err)
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("open postgres canceled: %w", ctx.Err())
		case <-time.After(backoff(opts.RetryDelay, attempt)):
		}
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("db handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	return db, nil
}

// Migrate creates or updates the tables backing the shop.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.AuthToken{},
		&model.Product{},
	)
}

// Close releases the underlying pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func backoff(base time.Duration, attempt int) time.Duration {
	const maxDelay = 5 * time.Second
	d := base << attempt
	if d > maxDelay || d <= 0 {
		return maxDelay
	}
	return d
}
