// Package ledger implements an optional, durable audit trail of lease
// promotions: one row per completed first-acquisition-and-publish
// cycle, recording the epoch, the promoting replica, and when it
// happened. It plays no role in the election state machine itself
// (C3/C6 never read from it); a Controller writes to it, if
// configured, as the final step of a successful promotion.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Driver identifies the supported GORM dialects.
type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// Config configures a Store's database connection.
type Config struct {
	Driver       Driver
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
	ConnMaxLife  time.Duration
}

// Store is the promotion ledger backed by GORM, supporting both
// SQLite (single-node/dev) and PostgreSQL (HA deployments) via the
// same code path.
type Store struct {
	db *gorm.DB
}

// Open connects to the configured database and runs AutoMigrate.
func Open(cfg Config) (*Store, error) {
	if cfg.Driver == "" {
		cfg.Driver = DriverSQLite
	}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case DriverSQLite:
		if cfg.DSN == "" {
			return nil, fmt.Errorf("ledger: sqlite dsn is required")
		}
		if cfg.DSN != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(cfg.DSN), 0755); err != nil {
				return nil, fmt.Errorf("ledger: create database directory: %w", err)
			}
		}
		dsn := cfg.DSN + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
		dialector = sqlite.Open(dsn)

	case DriverPostgres:
		if cfg.DSN == "" {
			return nil, fmt.Errorf("ledger: postgres dsn is required")
		}
		dialector = postgres.Open(cfg.DSN)

	default:
		return nil, fmt.Errorf("ledger: unsupported driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("ledger: connect: %w", err)
	}

	if cfg.Driver == DriverPostgres {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("ledger: underlying sql.DB: %w", err)
		}
		if cfg.MaxOpenConns > 0 {
			sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		}
		if cfg.MaxIdleConns > 0 {
			sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		}
		if cfg.ConnMaxLife > 0 {
			sqlDB.SetConnMaxLifetime(cfg.ConnMaxLife)
		}
	}

	if err := db.AutoMigrate(AllModels()...); err != nil {
		return nil, fmt.Errorf("ledger: migrate: %w", err)
	}

	return &Store{db: db}, nil
}

// DB returns the underlying GORM handle, for tests and advanced
// queries.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Close releases the underlying database connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// RecordPromotion inserts a new promotion row. Epoch has a unique
// index: a duplicate insert (the same epoch promoted twice, which
// should never happen since epochs are assigned by a single CURRENT
// CAS write) surfaces as an error rather than silently overwriting
// history.
func (s *Store) RecordPromotion(ctx context.Context, p Promotion) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.PromotedAt.IsZero() {
		p.PromotedAt = time.Now().UTC()
	}
	if err := s.db.WithContext(ctx).Create(&p).Error; err != nil {
		return fmt.Errorf("ledger: record promotion: %w", err)
	}
	return nil
}

// Recent returns the most recent promotions, newest first, limited to
// limit rows.
func (s *Store) Recent(ctx context.Context, limit int) ([]Promotion, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []Promotion
	if err := s.db.WithContext(ctx).
		Order("epoch DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("ledger: recent promotions: %w", err)
	}
	return rows, nil
}

// LatestEpoch returns the highest recorded epoch, or 0 if the ledger
// is empty.
func (s *Store) LatestEpoch(ctx context.Context) (int64, error) {
	var row Promotion
	err := s.db.WithContext(ctx).Order("epoch DESC").First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("ledger: latest epoch: %w", err)
	}
	return row.Epoch, nil
}
