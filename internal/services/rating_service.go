// Package services – RatingService
//
// This file implements RatingService, which lets an anonymous visitor hold
// at most one rating per meal. A rating is created on first submission and
// overwritten in place afterwards. Statistics are averaged per meal and
// rounded to one decimal.
package services

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/speisly/mensa-api/internal/domain"
	"github.com/speisly/mensa-api/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// RatingAverages holds per-field averages; nil when no rating carries the
// field.
type RatingAverages struct {
	Value         *float64 `json:"value"`
	ValuePrice    *float64 `json:"value_price"`
	ValueQuantity *float64 `json:"value_quantity"`
	ValueTaste    *float64 `json:"value_taste"`
}

// RatingStats summarizes all ratings of a meal.
type RatingStats struct {
	Count int64          `json:"count"`
	Avg   RatingAverages `json:"avg"`
}

// RatingInput is a visitor's submission.
type RatingInput struct {
	// MensaMealID is the availability rated from; empty selects the latest.
	MensaMealID   string
	Value         int
	ValuePrice    *int
	ValueQuantity *int
	ValueTaste    *int
	Comment       *string
}

// RatingService manages visitor ratings.
type RatingService struct {
	DB *gorm.DB
	// CommentMaxLen caps comments by rune length.
	CommentMaxLen int
}

// NewRatingService wires a RatingService with a 1000-rune comment cap.
func NewRatingService(db *gorm.DB) *RatingService {
	return &RatingService{DB: db, CommentMaxLen: 1000}
}

// Stats returns the rating statistics of a meal.
func (s *RatingService) Stats(ctx context.Context, mealID string) (RatingStats, error) {
	if _, err := repo.GetMeal(ctx, s.DB, mealID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return RatingStats{}, ErrMealNotFound
		}
		return RatingStats{}, err
	}
	return mealRatingStats(ctx, s.DB, mealID)
}

// Get returns the visitor's rating for a meal, or ErrRatingNotFound.
func (s *RatingService) Get(ctx context.Context, mealID, userID string) (*domain.Rating, error) {
	if userID == "" {
		return nil, ErrRatingNotFound
	}
	r, err := repo.GetRating(ctx, s.DB, mealID, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrRatingNotFound
		}
		return nil, err
	}
	return r, nil
}

// Submit creates or overwrites the visitor's rating for mealID. created is
// true when a new rating was stored.
//
// Scores must be in 1..5; optional sub-scores left nil are cleared on
// update. A blank comment is stored as NULL.
func (s *RatingService) Submit(ctx context.Context, mealID, userID string, in RatingInput) (r *domain.Rating, created bool, err error) {
	if err := s.validate(&in); err != nil {
		return nil, false, err
	}

	ctx, span := otel.Tracer("services/RatingService").Start(ctx, "Submit",
		trace.WithAttributes(attribute.String("meal.id", mealID)),
	)
	defer span.End()

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := repo.GetMeal(ctx, tx, mealID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return ErrMealNotFound
			}
			return err
		}
		mm, err := resolveMensaMeal(ctx, tx, mealID, in.MensaMealID)
		if err != nil {
			return err
		}

		next := domain.Rating{
			MealID:        mealID,
			MensaMealID:   mm.ID,
			UserID:        userID,
			Value:         in.Value,
			ValuePrice:    in.ValuePrice,
			ValueQuantity: in.ValueQuantity,
			ValueTaste:    in.ValueTaste,
			Comment:       in.Comment,
		}

		existing, err := repo.GetRating(ctx, tx, mealID, userID)
		switch {
		case errors.Is(err, repo.ErrNotFound):
			if err := repo.CreateRating(ctx, tx, &next); err != nil {
				return err
			}
			r, created = &next, true
			return nil
		case err != nil:
			return err
		}

		// The availability first rated from is kept.
		if err := repo.UpdateRatingValues(ctx, tx, existing.ID, next); err != nil {
			return err
		}
		r, err = repo.GetRating(ctx, tx, mealID, userID)
		return err
	})
	if err != nil {
		span.RecordError(err)
		return nil, false, err
	}
	span.SetAttributes(attribute.Bool("rating.created", created))
	return r, created, nil
}

// Delete removes the visitor's rating for mealID, or returns
// ErrRatingNotFound.
func (s *RatingService) Delete(ctx context.Context, mealID, userID string) error {
	if userID == "" {
		return ErrRatingNotFound
	}
	if err := repo.DeleteRating(ctx, s.DB, mealID, userID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrRatingNotFound
		}
		return err
	}
	return nil
}

func (s *RatingService) validate(in *RatingInput) error {
	if !validScore(in.Value) {
		return ErrInvalidRating
	}
	for _, v := range []*int{in.ValuePrice, in.ValueQuantity, in.ValueTaste} {
		if v != nil && !validScore(*v) {
			return ErrInvalidRating
		}
	}
	if in.Comment != nil {
		c := strings.TrimSpace(*in.Comment)
		if c == "" {
			in.Comment = nil
			return nil
		}
		if s.CommentMaxLen > 0 && utf8.RuneCountInString(c) > s.CommentMaxLen {
			return ErrCommentTooLong
		}
		in.Comment = &c
	}
	return nil
}

func validScore(v int) bool { return v >= 1 && v <= 5 }

// resolveMensaMeal returns the availability a rating refers to.
func resolveMensaMeal(ctx context.Context, db *gorm.DB, mealID, mensaMealID string) (*domain.MensaMeal, error) {
	if mensaMealID == "" {
		mm, err := repo.LatestMensaMeal(ctx, db, mealID)
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrAvailabilityNotFound
		}
		return mm, err
	}
	mm, err := repo.GetMensaMeal(ctx, db, mensaMealID)
	if errors.Is(err, repo.ErrNotFound) || (err == nil && mm.MealID != mealID) {
		return nil, ErrAvailabilityNotFound
	}
	return mm, err
}

func mealRatingStats(ctx context.Context, db *gorm.DB, mealID string) (RatingStats, error) {
	agg, err := repo.AggregateRatings(ctx, db, mealID)
	if err != nil {
		return RatingStats{}, err
	}
	if agg.Count == 0 {
		return RatingStats{}, nil
	}
	return RatingStats{
		Count: agg.Count,
		Avg: RatingAverages{
			Value:         roundAvg(agg.Value),
			ValuePrice:    roundAvg(agg.ValuePrice),
			ValueQuantity: roundAvg(agg.ValueQuantity),
			ValueTaste:    roundAvg(agg.ValueTaste),
		},
	}, nil
}

// roundAvg rounds to one decimal.
func roundAvg(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	r := math.Round(v.Float64*10) / 10
	return &r
}
