package handlers

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/speisly/mensa-api/internal/domain"
	"github.com/speisly/mensa-api/internal/repo"
	"github.com/speisly/mensa-api/internal/services"
)

//
// Service contracts (context-aware)
//

// MealReader serves the read side of the meal plan.
type MealReader interface {
	Mensen(ctx context.Context) ([]domain.Mensa, error)
	MensenVersion(ctx context.Context) (services.DayVersion, error)
	ResolveMensa(ctx context.Context, idOrSlug string) (string, error)
	MealsForDay(ctx context.Context, day time.Time, mensaID, diet string) ([]services.MensaMeals, error)
	DayVersion(ctx context.Context, day time.Time, mensaID string) (services.DayVersion, error)
	Detail(ctx context.Context, mealID, mensaMealID string) (*services.MealDetail, error)
	Availability(ctx context.Context, mealID string) ([]repo.AvailabilityEntry, error)
	Search(ctx context.Context, q string, k int) ([]services.SearchHit, error)
}

// RatingStore manages visitor ratings.
type RatingStore interface {
	Stats(ctx context.Context, mealID string) (services.RatingStats, error)
	Get(ctx context.Context, mealID, userID string) (*domain.Rating, error)
	Submit(ctx context.Context, mealID, userID string, in services.RatingInput) (*domain.Rating, bool, error)
	Delete(ctx context.Context, mealID, userID string) error
}

// FormService stores feedback and contact submissions.
type FormService interface {
	Feedback(ctx context.Context, in services.FeedbackInput) (*domain.Feedback, error)
	Contact(ctx context.Context, in services.FeedbackInput) (*domain.Feedback, error)
}

// VisitorResolver maps the visitor cookie and client address to a user.
type VisitorResolver interface {
	Identify(ctx context.Context, token, ipHash string) (services.Visitor, error)
	GetOrCreate(ctx context.Context, token, ipHash string) (services.Visitor, error)
	TTL() time.Duration
}

// SyncRunner runs one reconciliation pass.
type SyncRunner interface {
	Run(ctx context.Context, mode services.SyncMode) (*services.SyncResult, error)
}

// Deps wires Handlers.
type Deps struct {
	Meals    MealReader
	Ratings  RatingStore
	Forms    FormService
	Visitors VisitorResolver
	Sync     SyncRunner

	// DB backs Idempotency-Key replays of form submissions. Nil disables them.
	DB             *gorm.DB
	IdempotencyTTL time.Duration

	// SyncToken is the bearer token of the sync trigger. Empty means the
	// trigger is not configured and answers 500.
	SyncToken string
	// SecureCookie marks the visitor cookie Secure.
	SecureCookie bool
}

// Handlers groups the HTTP endpoints.
type Handlers struct {
	meals    MealReader
	ratings  RatingStore
	forms    FormService
	visitors VisitorResolver
	sync     SyncRunner

	db           *gorm.DB
	idemTTL      time.Duration
	syncToken    string
	secureCookie bool
	now          func() time.Time
}

// New constructs Handlers from d.
func New(d Deps) *Handlers {
	ttl := d.IdempotencyTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Handlers{
		meals:        d.Meals,
		ratings:      d.Ratings,
		forms:        d.Forms,
		visitors:     d.Visitors,
		sync:         d.Sync,
		db:           d.DB,
		idemTTL:      ttl,
		syncToken:    d.SyncToken,
		secureCookie: d.SecureCookie,
		now:          time.Now,
	}
}
