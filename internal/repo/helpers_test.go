package repo

import (
	"context"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/speisly/mensa-api/internal/domain"
)

func newTestDB(t *testing.T, migrate ...any) *gorm.DB {
	t.Helper()
	// Unique DB per test to avoid schema leaking across tests.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// One connection so the foreign_keys pragma applies to every statement.
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
		t.Cleanup(func() { _ = sqlDB.Close() })
	}
	db.Exec("PRAGMA foreign_keys=ON;")
	if len(migrate) > 0 {
		if err := db.AutoMigrate(migrate...); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	return db
}

// newMigratedDB returns a test DB with the full schema.
func newMigratedDB(t *testing.T) *gorm.DB {
	t.Helper()
	db := newTestDB(t)
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	return db
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func seedMensa(t *testing.T, db *gorm.DB, id, name string) domain.Mensa {
	t.Helper()
	now := time.Now().UTC()
	m := domain.Mensa{ID: id, Name: name, Slug: id + "-slug", CreatedAt: now, UpdatedAt: now}
	if err := db.Create(&m).Error; err != nil {
		t.Fatalf("seed mensa: %v", err)
	}
	return m
}

func seedMeal(t *testing.T, db *gorm.DB, id, srcID, name string) domain.Meal {
	t.Helper()
	now := time.Now().UTC()
	m := domain.Meal{
		ID: id, SrcID: srcID, DataSourceSlug: "meine-mensa-api", Name: name,
		PriceStud: 250, PriceWork: 400, PriceGuest: 550,
		CreatedAt: now, UpdatedAt: now,
	}
	if err := db.Create(&m).Error; err != nil {
		t.Fatalf("seed meal: %v", err)
	}
	return m
}

func seedAvailability(t *testing.T, db *gorm.DB, id, mensaID, mealID string, date time.Time) domain.MensaMeal {
	t.Helper()
	mm := domain.MensaMeal{ID: id, MensaID: mensaID, MealID: mealID, Date: date}
	if err := CreateAvailability(context.Background(), db, &mm); err != nil {
		t.Fatalf("seed availability: %v", err)
	}
	return mm
}

func seedUser(t *testing.T, db *gorm.DB, id string) domain.User {
	t.Helper()
	u, err := CreateUser(context.Background(), db, id, "iphash-"+id)
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return *u
}
