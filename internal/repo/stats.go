// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate queries used for
// conditional responses (ETag generation) in the HTTP layer.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/speisly/mensa-api/internal/domain"
)

// DayStats returns the number of availability rows on day (optionally for
// one cafeteria) and the greatest UpdatedAt among them and their meals.
//
// When nothing is offered, count is 0 and maxUpdatedAt is nil.
func DayStats(ctx context.Context, db *gorm.DB, day time.Time, mensaID string) (count int64, maxUpdatedAt *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.MensaMeal{}).Where("date = ?", day.UTC())
	if mensaID != "" {
		q = q.Where("mensa_id = ?", mensaID)
	}

	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Meal edits bump meal.updated_at without touching mensa_meal.
	var row struct {
		UpdatedAt time.Time
	}
	mq := db.WithContext(ctx).
		Table("meal").
		Select("meal.updated_at").
		Joins("JOIN mensa_meal ON mensa_meal.meal_id = meal.id").
		Where("mensa_meal.date = ?", day.UTC())
	if mensaID != "" {
		mq = mq.Where("mensa_meal.mensa_id = ?", mensaID)
	}
	// Order + limit instead of MAX(): SQLite returns MAX() over datetimes as TEXT.
	if err = mq.Order("meal.updated_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.UpdatedAt, nil
}

// MensenStats returns the number of cafeterias and their latest UpdatedAt.
func MensenStats(ctx context.Context, db *gorm.DB) (count int64, maxUpdatedAt *time.Time, err error) {
	if err = db.WithContext(ctx).Model(&domain.Mensa{}).Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}
	var row struct {
		UpdatedAt time.Time
	}
	if err = db.WithContext(ctx).Model(&domain.Mensa{}).Select("updated_at").Order("updated_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.UpdatedAt, nil
}
