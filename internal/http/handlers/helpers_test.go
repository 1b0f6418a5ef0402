package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/speisly/mensa-api/internal/domain"
	"github.com/speisly/mensa-api/internal/http/middleware"
	"github.com/speisly/mensa-api/internal/repo"
	"github.com/speisly/mensa-api/internal/search"
	"github.com/speisly/mensa-api/internal/services"
)

func newHandlerDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:handlers_%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
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

type countingNotifier struct {
	mu   sync.Mutex
	sent []string
}

func (n *countingNotifier) Notify(_ context.Context, msg string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, msg)
	return nil
}

func (n *countingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

// testEnv is a router over real services backed by in-memory SQLite.
type testEnv struct {
	db       *gorm.DB
	r        *gin.Engine
	h        *Handlers
	visitors *services.VisitorService
	notifier *countingNotifier
	index    *search.Holder
	today    time.Time
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := newHandlerDB(t)

	visitors, err := services.NewVisitorService(db, "handler-secret", "HS256", 0)
	if err != nil {
		t.Fatalf("visitors: %v", err)
	}
	notifier := &countingNotifier{}
	index := &search.Holder{}
	meals := services.NewMealService(db, index)

	today := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	h := New(Deps{
		Meals:          meals,
		Ratings:        services.NewRatingService(db),
		Forms:          services.NewFeedbackService(db, notifier),
		Visitors:       visitors,
		DB:             db,
		IdempotencyTTL: time.Hour,
		SecureCookie:   true,
	})
	h.now = func() time.Time { return today.Add(9 * time.Hour) }

	r := gin.New()
	r.Use(middleware.RequestID())
	api := r.Group("/api/v1")
	api.Use(middleware.Visitor(services.VisitorCookieName, visitors))
	api.Use(middleware.IdempotencyValidator(middleware.IdempotencyOptions{},
		func(ctx context.Context, subject, scope, key string, now time.Time) (bool, error) {
			_, err := repo.GetIdempotency(ctx, db, subject, scope, key, now)
			return err == nil, nil
		}))
	registerRoutes(api, h)

	return &testEnv{db: db, r: r, h: h, visitors: visitors, notifier: notifier, index: index, today: today}
}

func registerRoutes(api *gin.RouterGroup, h *Handlers) {
	api.GET("/mensen", h.ListMensen)
	api.GET("/meals", h.ListMeals)
	api.GET("/meals/search", h.SearchMeals)
	api.GET("/meals/:id", h.GetMeal)
	api.GET("/meals/:id/availability", h.GetAvailability)
	api.GET("/meals/:id/rating", h.GetRating)
	api.PUT("/meals/:id/rating", h.PutRating)
	api.DELETE("/meals/:id/rating", h.DeleteRating)
	api.POST("/feedback", h.SubmitFeedback)
	api.POST("/contact", h.SubmitContact)
}

func (e *testEnv) do(t *testing.T, method, path string, body any, prep ...func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, p := range prep {
		p(req)
	}
	w := httptest.NewRecorder()
	e.r.ServeHTTP(w, req)
	return w
}

func withCookie(value string) func(*http.Request) {
	return func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: services.VisitorCookieName, Value: value})
	}
}

func withHeader(k, v string) func(*http.Request) {
	return func(r *http.Request) { r.Header.Set(k, v) }
}

func visitorCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == services.VisitorCookieName {
			return c
		}
	}
	return nil
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return v
}

// seed creates two cafeterias with three meals offered today.
type seeded struct {
	mensaA, mensaB domain.Mensa
	schnitzel      domain.Meal
	bowl           domain.Meal
	fish           domain.Meal
	schnitzelA     domain.MensaMeal
}

func (e *testEnv) seed(t *testing.T) seeded {
	t.Helper()
	ctx := context.Background()
	mustMensa := func(name, slug string) domain.Mensa {
		m, err := repo.CreateMensa(ctx, e.db, name, slug)
		if err != nil {
			t.Fatalf("mensa: %v", err)
		}
		return *m
	}
	mustMeal := func(src, name, sub string) domain.Meal {
		m := domain.Meal{SrcID: src, DataSourceSlug: services.DataSourceSlug, Name: name, Subtitle: sub,
			PriceStud: 250, PriceWork: 400, PriceGuest: 550}
		if err := repo.CreateMeal(ctx, e.db, &m); err != nil {
			t.Fatalf("meal: %v", err)
		}
		return m
	}
	mustOffer := func(mensaID, mealID string, ingredients ...string) domain.MensaMeal {
		mm := domain.MensaMeal{MensaID: mensaID, MealID: mealID, Date: e.today, Ingredients: ingredients}
		if err := repo.CreateAvailability(ctx, e.db, &mm); err != nil {
			t.Fatalf("offer: %v", err)
		}
		return mm
	}

	s := seeded{
		mensaA: mustMensa("Mensa Harzmensa", "mensa-harzmensa"),
		mensaB: mustMensa("Mensa Weinberg", "mensa-weinberg"),
	}
	s.schnitzel = mustMeal("1", "Schnitzel", "mit Pommes")
	s.bowl = mustMeal("2", "Buddha Bowl", "mit Tofu")
	s.fish = mustMeal("3", "Seelachs", "mit Reis")
	s.schnitzelA = mustOffer(s.mensaA.ID, s.schnitzel.ID, "45")
	mustOffer(s.mensaA.ID, s.bowl.ID, "52")
	mustOffer(s.mensaB.ID, s.fish.ID, "48")
	return s
}
