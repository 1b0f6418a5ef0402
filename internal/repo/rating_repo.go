package repo

import (
	"context"
	"database/sql"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/speisly/mensa-api/internal/domain"
)

// RatingAggregate holds raw averages for one meal. Averages are NULL when
// no rating carries the field.
type RatingAggregate struct {
	Count         int64
	Value         sql.NullFloat64
	ValuePrice    sql.NullFloat64
	ValueQuantity sql.NullFloat64
	ValueTaste    sql.NullFloat64
}

// GetRating returns a visitor's rating for a meal, or ErrNotFound.
func GetRating(ctx context.Context, db *gorm.DB, mealID, userID string) (*domain.Rating, error) {
	var r domain.Rating
	err := db.WithContext(ctx).
		Where("meal_id = ? AND user_id = ?", mealID, userID).
		First(&r).Error
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// CreateRating inserts r. A second rating by the same visitor for the same
// meal violates ux_rating_meal_user.
func CreateRating(ctx context.Context, db *gorm.DB, r *domain.Rating) error {
	now := time.Now().UTC()
	if r.ID == "" {
		r.ID = domain.NewID()
	}
	r.CreatedAt = now
	r.UpdatedAt = now
	return db.WithContext(ctx).Omit(clause.Associations).Create(r).Error
}

// UpdateRatingValues overwrites the scores and comment of rating id.
func UpdateRatingValues(ctx context.Context, db *gorm.DB, id string, r domain.Rating) error {
	res := db.WithContext(ctx).Model(&domain.Rating{}).Where("id = ?", id).Updates(map[string]any{
		"value":          r.Value,
		"value_price":    r.ValuePrice,
		"value_quantity": r.ValueQuantity,
		"value_taste":    r.ValueTaste,
		"comment":        r.Comment,
		"updated_at":     time.Now().UTC(),
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteRating removes a visitor's rating for a meal. Returns ErrNotFound
// when nothing was deleted.
func DeleteRating(ctx context.Context, db *gorm.DB, mealID, userID string) error {
	res := db.WithContext(ctx).
		Where("meal_id = ? AND user_id = ?", mealID, userID).
		Delete(&domain.Rating{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// AggregateRatings computes count and averages over a meal's ratings.
func AggregateRatings(ctx context.Context, db *gorm.DB, mealID string) (RatingAggregate, error) {
	var agg RatingAggregate
	err := db.WithContext(ctx).
		Model(&domain.Rating{}).
		Select(`COUNT(id) AS count,
			AVG(value) AS value,
			AVG(value_price) AS value_price,
			AVG(value_quantity) AS value_quantity,
			AVG(value_taste) AS value_taste`).
		Where("meal_id = ?", mealID).
		Scan(&agg).Error
	return agg, err
}
