// Package services – MealService
//
// This file implements MealService, the read side of the meal plan: meals
// offered on a day grouped by cafeteria, cafeteria listings, meal detail with
// rating statistics, availability history, and full-text meal search.
//
// Days are UTC calendar dates. Dietary filtering is applied after flags are
// derived from the stored ingredient descriptors.
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/speisly/mensa-api/internal/domain"
	"github.com/speisly/mensa-api/internal/repo"
	"github.com/speisly/mensa-api/internal/search"
	"github.com/speisly/mensa-api/internal/utils"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// MealView is a meal as offered at one cafeteria on one day.
type MealView struct {
	ID          string           `json:"id"`
	MensaMealID string           `json:"mensa_meal_id"`
	Name        string           `json:"name"`
	Subtitle    string           `json:"subtitle"`
	ImgPath     *string          `json:"img_path"`
	PriceStud   int              `json:"price_stud"`
	PriceWork   int              `json:"price_work"`
	PriceGuest  int              `json:"price_guest"`
	Date        string           `json:"date"`
	Ingredients []string         `json:"ingredients"`
	Extras      []string         `json:"extras"`
	Flags       domain.MealFlags `json:"flags"`
}

// MensaMeals groups the meals of one cafeteria.
type MensaMeals struct {
	ID    string     `json:"id"`
	Name  string     `json:"name"`
	Slug  string     `json:"slug"`
	Meals []MealView `json:"meals"`
}

// MealDetail is a meal with one of its availabilities and rating statistics.
type MealDetail struct {
	MealView
	MensaID   string      `json:"mensa_id"`
	MensaName string      `json:"mensa_name"`
	MensaSlug string      `json:"mensa_slug"`
	Rating    RatingStats `json:"rating"`
}

// SearchHit is a search result resolved to its meal.
type SearchHit struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Subtitle string  `json:"subtitle"`
	ImgPath  *string `json:"img_path"`
	Score    float64 `json:"score"`
}

// DayVersion identifies the content of a day's meal plan for conditional
// responses.
type DayVersion struct {
	Count     int64
	UpdatedAt *time.Time
}

// MealService provides read access to meals and cafeterias.
type MealService struct {
	DB *gorm.DB
	// Index serves Search. A nil or empty index yields no hits.
	Index search.Index
}

// NewMealService wires a MealService.
func NewMealService(db *gorm.DB, idx search.Index) *MealService {
	return &MealService{DB: db, Index: idx}
}

// Mensen lists all cafeterias ordered by name.
func (s *MealService) Mensen(ctx context.Context) ([]domain.Mensa, error) {
	return repo.ListMensen(ctx, s.DB)
}

// MensenVersion reports the cafeteria count and latest update.
func (s *MealService) MensenVersion(ctx context.Context) (DayVersion, error) {
	n, ts, err := repo.MensenStats(ctx, s.DB)
	if err != nil {
		return DayVersion{}, err
	}
	return DayVersion{Count: n, UpdatedAt: ts}, nil
}

// ResolveMensa accepts a cafeteria id or slug and returns its id. Empty
// input means no filter.
func (s *MealService) ResolveMensa(ctx context.Context, idOrSlug string) (string, error) {
	idOrSlug = strings.TrimSpace(idOrSlug)
	if idOrSlug == "" {
		return "", nil
	}
	m, err := repo.GetMensa(ctx, s.DB, idOrSlug)
	if errors.Is(err, repo.ErrNotFound) {
		m, err = repo.GetMensaBySlug(ctx, s.DB, idOrSlug)
	}
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return "", ErrMensaNotFound
		}
		return "", err
	}
	return m.ID, nil
}

// MealsForDay returns the meals offered on day grouped by cafeteria, in
// cafeteria name order. mensaID and diet are optional filters; cafeterias
// left without meals after filtering are omitted.
func (s *MealService) MealsForDay(ctx context.Context, day time.Time, mensaID, diet string) ([]MensaMeals, error) {
	ctx, span := otel.Tracer("services/MealService").Start(ctx, "MealsForDay",
		trace.WithAttributes(
			attribute.String("meals.day", day.Format(time.DateOnly)),
			attribute.String("meals.mensa_id", mensaID),
			attribute.String("meals.diet", diet),
		),
	)
	defer span.End()

	rows, err := repo.ListMealsOnDay(ctx, s.DB, utils.Day(day), mensaID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	out := []MensaMeals{}
	for _, r := range rows {
		v := viewOf(r)
		if !v.Flags.Matches(diet) {
			continue
		}
		if n := len(out); n == 0 || out[n-1].ID != r.MensaID {
			out = append(out, MensaMeals{ID: r.MensaID, Name: r.MensaName, Slug: r.MensaSlug})
		}
		out[len(out)-1].Meals = append(out[len(out)-1].Meals, v)
	}
	span.SetAttributes(attribute.Int("meals.groups", len(out)))
	return out, nil
}

// DayVersion reports the row count and latest update of a day's plan.
func (s *MealService) DayVersion(ctx context.Context, day time.Time, mensaID string) (DayVersion, error) {
	n, ts, err := repo.DayStats(ctx, s.DB, utils.Day(day), mensaID)
	if err != nil {
		return DayVersion{}, err
	}
	return DayVersion{Count: n, UpdatedAt: ts}, nil
}

// Detail returns a meal at one of its availabilities. With an empty
// mensaMealID the most recent availability is used. A mensaMealID of
// another meal yields ErrAvailabilityNotFound; a meal that was never
// offered yields ErrMealNotFound.
func (s *MealService) Detail(ctx context.Context, mealID, mensaMealID string) (*MealDetail, error) {
	ctx, span := otel.Tracer("services/MealService").Start(ctx, "Detail",
		trace.WithAttributes(attribute.String("meal.id", mealID)),
	)
	defer span.End()

	meal, err := repo.GetMeal(ctx, s.DB, mealID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrMealNotFound
		}
		return nil, err
	}

	var mm *domain.MensaMeal
	if mensaMealID != "" {
		mm, err = repo.GetMensaMeal(ctx, s.DB, mensaMealID)
		if errors.Is(err, repo.ErrNotFound) || (err == nil && mm.MealID != meal.ID) {
			return nil, ErrAvailabilityNotFound
		}
	} else {
		mm, err = repo.LatestMensaMeal(ctx, s.DB, meal.ID)
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrMealNotFound
		}
	}
	if err != nil {
		return nil, err
	}

	mensa, err := repo.GetMensa(ctx, s.DB, mm.MensaID)
	if err != nil {
		return nil, err
	}

	stats, err := mealRatingStats(ctx, s.DB, meal.ID)
	if err != nil {
		return nil, err
	}

	ingredients := nonNil(mm.Ingredients)
	return &MealDetail{
		MealView: MealView{
			ID:          meal.ID,
			MensaMealID: mm.ID,
			Name:        meal.Name,
			Subtitle:    meal.Subtitle,
			ImgPath:     meal.ImgPath,
			PriceStud:   meal.PriceStud,
			PriceWork:   meal.PriceWork,
			PriceGuest:  meal.PriceGuest,
			Date:        mm.Date.UTC().Format(time.DateOnly),
			Ingredients: ingredients,
			Extras:      nonNil(mm.Extras),
			Flags:       domain.GenerateFlags(meal.Name, meal.Subtitle, ingredients),
		},
		MensaID:   mensa.ID,
		MensaName: mensa.Name,
		MensaSlug: mensa.Slug,
		Rating:    stats,
	}, nil
}

// Availability lists where and when a meal is offered, newest first.
func (s *MealService) Availability(ctx context.Context, mealID string) ([]repo.AvailabilityEntry, error) {
	if _, err := repo.GetMeal(ctx, s.DB, mealID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrMealNotFound
		}
		return nil, err
	}
	out, err := repo.ListAvailabilityByMeal(ctx, s.DB, mealID)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []repo.AvailabilityEntry{}
	}
	return out, nil
}

// Search returns up to k meals whose name and subtitle best match q.
// Hits whose meal no longer exists are dropped.
func (s *MealService) Search(ctx context.Context, q string, k int) ([]SearchHit, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, ErrEmptyQuery
	}
	hits := []SearchHit{}
	if s.Index == nil {
		return hits, nil
	}

	ctx, span := otel.Tracer("services/MealService").Start(ctx, "Search")
	defer span.End()

	for _, r := range s.Index.TopK(q, k) {
		m, err := repo.GetMeal(ctx, s.DB, r.ID)
		if errors.Is(err, repo.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		hits = append(hits, SearchHit{
			ID:       m.ID,
			Name:     m.Name,
			Subtitle: m.Subtitle,
			ImgPath:  m.ImgPath,
			Score:    r.Score,
		})
	}
	span.SetAttributes(attribute.Int("search.hits", len(hits)))
	return hits, nil
}

func viewOf(r repo.MealOnDay) MealView {
	ingredients := nonNil(r.Ingredients)
	return MealView{
		ID:          r.MealID,
		MensaMealID: r.MensaMealID,
		Name:        r.Name,
		Subtitle:    r.Subtitle,
		ImgPath:     r.ImgPath,
		PriceStud:   r.PriceStud,
		PriceWork:   r.PriceWork,
		PriceGuest:  r.PriceGuest,
		Date:        r.Date.UTC().Format(time.DateOnly),
		Ingredients: ingredients,
		Extras:      nonNil(r.Extras),
		Flags:       domain.GenerateFlags(r.Name, r.Subtitle, ingredients),
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
