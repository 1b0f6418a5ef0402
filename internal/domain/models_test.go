package domain

import (
	"fmt"
	"reflect"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// Enforce FKs so cascades actually execute.
	db.Exec("PRAGMA foreign_keys=ON;")
	return db
}

func TestNewID(t *testing.T) {
	a, b := NewID(), NewID()
	if len(a) != 32 || len(b) != 32 {
		t.Fatalf("ids must be 32 chars: %q %q", a, b)
	}
	if a == b {
		t.Fatalf("ids must differ")
	}
}

func TestTableNames(t *testing.T) {
	cases := map[string]interface{ TableName() string }{
		"data_source": DataSource{},
		"mensa":       Mensa{},
		"meal":        Meal{},
		"meal_update": MealChangeLog{},
		"mensa_meal":  MensaMeal{},
		"user":        User{},
		"meal_rating": Rating{},
		"error_log":   ErrorLog{},
		"feedback":    Feedback{},
	}
	for want, m := range cases {
		if got := m.TableName(); got != want {
			t.Fatalf("%T.TableName() = %q; want %q", m, got, want)
		}
	}
}

func migrateAll(t *testing.T, db *gorm.DB) {
	t.Helper()
	if err := db.AutoMigrate(&DataSource{}, &Mensa{}, &Meal{}, &MealChangeLog{}, &MensaMeal{}, &User{}, &Rating{}, &ErrorLog{}, &Feedback{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
}

func TestMigrations_Indexes(t *testing.T) {
	db := newTestDB(t)
	migrateAll(t, db)
	m := db.Migrator()

	checks := []struct {
		model any
		index string
	}{
		{&Meal{}, "ux_meal_src"},
		{&Meal{}, "ux_meal_content"},
		{&MensaMeal{}, "ux_mensa_meal_date"},
		{&Rating{}, "ux_rating_meal_user"},
	}
	for _, c := range checks {
		if !m.HasIndex(c.model, c.index) {
			t.Fatalf("expected index %s on %T", c.index, c.model)
		}
	}
}

func TestMensaMeal_NaturalKeyUnique_AndListsRoundTrip(t *testing.T) {
	db := newTestDB(t)
	migrateAll(t, db)

	date := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	must(t, db.Create(&Mensa{ID: "m1", Name: "Mensa A", Slug: "mensa-a"}).Error)
	must(t, db.Create(&Meal{ID: "meal1", SrcID: "1", DataSourceSlug: "ds", Name: "Soup", PriceStud: 100, PriceWork: 200, PriceGuest: 300}).Error)

	mm := &MensaMeal{ID: "mm1", MensaID: "m1", MealID: "meal1", Date: date, Ingredients: []string{"51:vegetarisch", "A:Gluten"}, Extras: []string{"Salat"}}
	must(t, db.Create(mm).Error)

	var got MensaMeal
	must(t, db.First(&got, "id = ?", "mm1").Error)
	if !reflect.DeepEqual(got.Ingredients, mm.Ingredients) || !reflect.DeepEqual(got.Extras, mm.Extras) {
		t.Fatalf("lists did not round-trip: %+v", got)
	}

	dup := &MensaMeal{ID: "mm2", MensaID: "m1", MealID: "meal1", Date: date}
	if err := db.Create(dup).Error; err == nil {
		t.Fatalf("expected unique violation on (mensa_id, meal_id, date)")
	}
}

func TestCascades_MealDeleteRemovesDependents(t *testing.T) {
	db := newTestDB(t)
	migrateAll(t, db)

	date := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	must(t, db.Create(&Mensa{ID: "m1", Name: "Mensa A", Slug: "mensa-a"}).Error)
	must(t, db.Create(&Meal{ID: "meal1", SrcID: "1", DataSourceSlug: "ds", Name: "Soup", PriceStud: 1, PriceWork: 1, PriceGuest: 1}).Error)
	must(t, db.Create(&MensaMeal{ID: "mm1", MensaID: "m1", MealID: "meal1", Date: date}).Error)
	must(t, db.Create(&MealChangeLog{ID: "cl1", MealID: "meal1", Key: "name", Prev: "a", New: "b"}).Error)
	must(t, db.Create(&User{ID: "u1", IPHash: "h"}).Error)
	must(t, db.Create(&Rating{ID: "r1", MealID: "meal1", MensaMealID: "mm1", UserID: "u1", Value: 4}).Error)

	must(t, db.Delete(&Meal{}, "id = ?", "meal1").Error)

	for _, model := range []any{&MensaMeal{}, &MealChangeLog{}, &Rating{}} {
		var n int64
		must(t, db.Model(model).Count(&n).Error)
		if n != 0 {
			t.Fatalf("expected %T rows to cascade-delete, got %d", model, n)
		}
	}
}

func TestRating_UniquePerMealAndUser(t *testing.T) {
	db := newTestDB(t)
	migrateAll(t, db)

	must(t, db.Create(&Mensa{ID: "m1", Name: "Mensa A", Slug: "mensa-a"}).Error)
	must(t, db.Create(&Meal{ID: "meal1", SrcID: "1", DataSourceSlug: "ds", Name: "Soup", PriceStud: 1, PriceWork: 1, PriceGuest: 1}).Error)
	must(t, db.Create(&MensaMeal{ID: "mm1", MensaID: "m1", MealID: "meal1", Date: time.Now().UTC()}).Error)
	must(t, db.Create(&User{ID: "u1", IPHash: "h"}).Error)
	must(t, db.Create(&Rating{ID: "r1", MealID: "meal1", MensaMealID: "mm1", UserID: "u1", Value: 4}).Error)

	if err := db.Create(&Rating{ID: "r2", MealID: "meal1", MensaMealID: "mm1", UserID: "u1", Value: 2}).Error; err == nil {
		t.Fatalf("expected unique violation on (meal_id, user_id)")
	}
	must(t, db.Create(&User{ID: "u2", IPHash: "h2"}).Error)
	if err := db.Create(&Rating{ID: "r3", MealID: "meal1", MensaMealID: "mm1", UserID: "u2", Value: 9}).Error; err == nil {
		t.Fatalf("expected check violation for value out of range")
	}
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
