// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file contains database bootstrapping helpers for
// SQLite (pure Go driver, development and tests) and Postgres (production),
// plus schema migrations.
package repo

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/speisly/mensa-api/internal/domain"
)

// Options selects and tunes the store.
type Options struct {
	DatabaseURL string // Postgres DSN; empty selects SQLite at SQLitePath
	SQLitePath  string
	LogLevel    logger.LogLevel // zero means Silent
}

// Open connects to Postgres when DatabaseURL is set, otherwise SQLite.
func Open(o Options) (*gorm.DB, error) {
	if strings.TrimSpace(o.DatabaseURL) != "" {
		return OpenPostgres(o.DatabaseURL, gormConfig(o.LogLevel))
	}
	if strings.TrimSpace(o.SQLitePath) == "" {
		return nil, errors.New("repo: no database configured")
	}
	return OpenSQLite(o.SQLitePath)
}

func gormConfig(level logger.LogLevel) *gorm.Config {
	if level == 0 {
		level = logger.Silent
	}
	return &gorm.Config{
		Logger:         logger.Default.LogMode(level),
		TranslateError: true,
	}
}

// OpenPostgres opens a pooled Postgres connection.
func OpenPostgres(dsn string, cfg *gorm.Config) (*gorm.DB, error) {
	if cfg == nil {
		cfg = gormConfig(logger.Silent)
	}
	db, err := gorm.Open(postgres.Open(dsn), cfg)
	if err != nil {
		return nil, err
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(20)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}
	return db, nil
}

// OpenSQLite opens (or creates) a SQLite database and applies PRAGMAs.
func OpenSQLite(path string) (*gorm.DB, error) {
	// Fail early if parent directory does not exist (instead of sqlite "out of memory (14)" on Windows).
	if dir := filepath.Dir(path); dir != "." {
		if _, err := os.Stat(dir); err != nil {
			return nil, err
		}
	}

	db, err := gorm.Open(sqlite.Open(path), gormConfig(logger.Silent))
	if err != nil {
		return nil, err
	}

	// PRAGMAs
	db.Exec("PRAGMA journal_mode=WAL;")
	db.Exec("PRAGMA synchronous=NORMAL;")
	db.Exec("PRAGMA foreign_keys=ON;")
	db.Exec("PRAGMA busy_timeout=5000;")

	// Pool
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	return db, nil
}

// AutoMigrate creates or updates all tables. Parents come before children
// so foreign keys resolve.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.DataSource{},
		&domain.Mensa{},
		&domain.Meal{},
		&domain.MealChangeLog{},
		&domain.MensaMeal{},
		&domain.User{},
		&domain.Rating{},
		&domain.ErrorLog{},
		&domain.Feedback{},
		&domain.Idempotency{},
	)
}
