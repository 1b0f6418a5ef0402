package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/speisly/mensa-api/internal/domain"
)

// GetMeal fetches a meal by id, or ErrNotFound.
func GetMeal(ctx context.Context, db *gorm.DB, id string) (*domain.Meal, error) {
	var m domain.Meal
	if err := db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// GetMealBySrcID fetches a meal by its natural key, or ErrNotFound.
func GetMealBySrcID(ctx context.Context, db *gorm.DB, srcID, dataSourceSlug string) (*domain.Meal, error) {
	var m domain.Meal
	err := db.WithContext(ctx).
		Where("src_id = ? AND data_source_slug = ?", srcID, dataSourceSlug).
		First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// FindMealsBySrcIDs returns meals of one data source keyed by src id.
func FindMealsBySrcIDs(ctx context.Context, db *gorm.DB, dataSourceSlug string, srcIDs []string) (map[string]domain.Meal, error) {
	out := make(map[string]domain.Meal, len(srcIDs))
	if len(srcIDs) == 0 {
		return out, nil
	}
	var rows []domain.Meal
	err := db.WithContext(ctx).
		Where("data_source_slug = ? AND src_id IN ?", dataSourceSlug, srcIDs).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, m := range rows {
		out[m.SrcID] = m
	}
	return out, nil
}

// ListMeals returns all meals, most recently updated first.
func ListMeals(ctx context.Context, db *gorm.DB) ([]domain.Meal, error) {
	var out []domain.Meal
	err := db.WithContext(ctx).Order("updated_at desc").Find(&out).Error
	return out, err
}

// CreateMeal inserts m, assigning an id and timestamps when unset.
func CreateMeal(ctx context.Context, db *gorm.DB, m *domain.Meal) error {
	now := time.Now().UTC()
	if m.ID == "" {
		m.ID = domain.NewID()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now
	return db.WithContext(ctx).Create(m).Error
}

// UpdateMealColumns applies the given column changes to one meal in a single
// statement. Returns ErrNotFound if no row matched.
func UpdateMealColumns(ctx context.Context, db *gorm.DB, id string, cols map[string]any) error {
	if len(cols) == 0 {
		return nil
	}
	cols["updated_at"] = time.Now().UTC()
	res := db.WithContext(ctx).Model(&domain.Meal{}).Where("id = ?", id).Updates(cols)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateChangeLogs appends change-log rows in one batch.
func CreateChangeLogs(ctx context.Context, db *gorm.DB, logs []domain.MealChangeLog) error {
	if len(logs) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for i := range logs {
		if logs[i].ID == "" {
			logs[i].ID = domain.NewID()
		}
		logs[i].CreatedAt = now
		logs[i].UpdatedAt = now
	}
	return db.WithContext(ctx).Omit(clause.Associations).Create(&logs).Error
}

// ListChangeLogs returns a meal's change history, oldest first.
func ListChangeLogs(ctx context.Context, db *gorm.DB, mealID string) ([]domain.MealChangeLog, error) {
	var out []domain.MealChangeLog
	err := db.WithContext(ctx).
		Where("meal_id = ?", mealID).
		Order("created_at asc").
		Find(&out).Error
	return out, err
}
