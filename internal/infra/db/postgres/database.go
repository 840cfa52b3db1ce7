package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	maxSerializableAttempts = 5
	serializableBackoff     = 20 * time.Millisecond
)

// Open connects through pgx and verifies the connection.
func Open(ctx context.Context, dsn string) (*gorm.DB, error) {
	if dsn == "" {
		return nil, errors.New("postgres: dsn is required")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}
	if err := Ping(ctx, db); err != nil {
		return nil, err
	}
	return db, nil
}

func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Migrate creates the tables and the exclusion constraint that keeps active bookings of one
// listing from overlapping.
func Migrate(ctx context.Context, db *gorm.DB) error {
	db = db.WithContext(ctx)
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS btree_gist").Error; err != nil {
		return fmt.Errorf("postgres: btree_gist: %w", err)
	}
	if err := db.AutoMigrate(&listingRow{}, &bookingRow{}, &reviewRow{}, &outboxRow{}); err != nil {
		return fmt.Errorf("postgres: automigrate: %w", err)
	}
	statements := []string{
		`DO $$ BEGIN
			ALTER TABLE bookings ADD CONSTRAINT bookings_range_valid CHECK (check_out > check_in);
		EXCEPTION WHEN duplicate_object THEN NULL; END $$`,
		`DO $$ BEGIN
			ALTER TABLE bookings ADD CONSTRAINT bookings_no_overlap
				EXCLUDE USING gist (listing_id WITH =, daterange(check_in, check_out, '[)') WITH &&)
				WHERE (status IN ('PENDING','CONFIRMED'));
		EXCEPTION WHEN duplicate_object THEN NULL; END $$`,
	}
	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("postgres: constraints: %w", err)
		}
	}
	return nil
}

// serializable runs fn at SERIALIZABLE isolation and retries serialization failures a bounded
// number of times. The last failure is returned untranslated.
func serializable(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	opts := &sql.TxOptions{Isolation: sql.LevelSerializable}
	return retrySerialization(ctx, maxSerializableAttempts, serializableBackoff, func() error {
		return db.WithContext(ctx).Transaction(fn, opts)
	})
}

// retrySerialization reruns attempt while it fails with a serialization failure or deadlock,
// waiting backoff times the attempt number in between.
func retrySerialization(ctx context.Context, attempts int, backoff time.Duration, attempt func() error) error {
	for n := 1; ; n++ {
		err := attempt()
		if err == nil || !isSerializationFailure(err) || n >= attempts {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff * time.Duration(n)):
		}
	}
}
