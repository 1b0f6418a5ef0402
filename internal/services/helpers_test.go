package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/speisly/mensa-api/internal/domain"
	"github.com/speisly/mensa-api/internal/repo"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
		t.Cleanup(func() { _ = sqlDB.Close() })
	}
	db.Exec("PRAGMA foreign_keys=ON;")
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func utcDay(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func mustMensa(t *testing.T, db *gorm.DB, name, slug string) domain.Mensa {
	t.Helper()
	m, err := repo.CreateMensa(context.Background(), db, name, slug)
	if err != nil {
		t.Fatalf("create mensa: %v", err)
	}
	return *m
}

func mustMeal(t *testing.T, db *gorm.DB, srcID, name, subtitle string) domain.Meal {
	t.Helper()
	m := domain.Meal{
		SrcID: srcID, DataSourceSlug: DataSourceSlug, Name: name, Subtitle: subtitle,
		PriceStud: 250, PriceWork: 400, PriceGuest: 550,
	}
	if err := repo.CreateMeal(context.Background(), db, &m); err != nil {
		t.Fatalf("create meal: %v", err)
	}
	return m
}

func mustOffer(t *testing.T, db *gorm.DB, mensaID, mealID string, date time.Time, ingredients ...string) domain.MensaMeal {
	t.Helper()
	mm := domain.MensaMeal{MensaID: mensaID, MealID: mealID, Date: date, Ingredients: ingredients}
	if err := repo.CreateAvailability(context.Background(), db, &mm); err != nil {
		t.Fatalf("create availability: %v", err)
	}
	return mm
}

func mustUser(t *testing.T, db *gorm.DB) domain.User {
	t.Helper()
	u, err := repo.CreateUser(context.Background(), db, "", "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return *u
}

// recordingReporter captures reports for assertions.
type recordingReporter struct {
	mu      sync.Mutex
	reports []report
}

type report struct {
	Message string
	Fields  map[string]any
}

func (r *recordingReporter) Report(_ context.Context, msg string, fields map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports = append(r.reports, report{Message: msg, Fields: fields})
}

func (r *recordingReporter) messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.reports))
	for _, rep := range r.reports {
		out = append(out, rep.Message)
	}
	return out
}

func (r *recordingReporter) count(msg string) int {
	n := 0
	for _, m := range r.messages() {
		if m == msg {
			n++
		}
	}
	return n
}

// fakeNotifier records notifications and optionally fails.
type fakeNotifier struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (f *fakeNotifier) Notify(_ context.Context, msg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	return f.err
}

func (f *fakeNotifier) messages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}
