package repo

import (
	"context"
	"time"

	json "github.com/goccy/go-json"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/speisly/mensa-api/internal/domain"
)

// MealOnDay is one meal offered at one cafeteria on one day, flattened for
// the read API.
type MealOnDay struct {
	MensaID     string
	MensaName   string
	MensaSlug   string
	MealID      string
	Name        string
	Subtitle    string
	ImgPath     *string
	PriceStud   int
	PriceWork   int
	PriceGuest  int
	MensaMealID string
	Date        time.Time
	Ingredients []string `gorm:"-"`
	Extras      []string `gorm:"-"`

	IngredientsJSON string `gorm:"column:ingredients"`
	ExtrasJSON      string `gorm:"column:extras"`
}

// AvailabilityEntry is a (date, cafeteria) pair a meal is offered at.
type AvailabilityEntry struct {
	MensaMealID string    `json:"mensa_meal_id"`
	Date        time.Time `json:"date"`
	MensaID     string    `json:"mensa_id"`
	MensaName   string    `json:"mensa_name"`
	MensaSlug   string    `json:"mensa_slug"`
}

// AvailabilityKey is the natural key of a MensaMeal.
type AvailabilityKey struct {
	MensaID string
	MealID  string
	Date    time.Time
}

// KeyOf returns the natural key of mm with the date normalized to UTC.
func KeyOf(mm domain.MensaMeal) AvailabilityKey {
	return AvailabilityKey{MensaID: mm.MensaID, MealID: mm.MealID, Date: mm.Date.UTC()}
}

// FindAvailability looks up a MensaMeal by natural key, or ErrNotFound.
func FindAvailability(ctx context.Context, db *gorm.DB, mensaID, mealID string, date time.Time) (*domain.MensaMeal, error) {
	var mm domain.MensaMeal
	err := db.WithContext(ctx).
		Where("mensa_id = ? AND meal_id = ? AND date = ?", mensaID, mealID, date.UTC()).
		First(&mm).Error
	if err != nil {
		return nil, err
	}
	return &mm, nil
}

// ListAvailabilityBetween returns every MensaMeal dated in [from, to],
// keyed by natural key. Used to pre-fetch candidates for a sync pass.
func ListAvailabilityBetween(ctx context.Context, db *gorm.DB, from, to time.Time) (map[AvailabilityKey]domain.MensaMeal, error) {
	var rows []domain.MensaMeal
	err := db.WithContext(ctx).
		Where("date >= ? AND date <= ?", from.UTC(), to.UTC()).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[AvailabilityKey]domain.MensaMeal, len(rows))
	for _, mm := range rows {
		out[KeyOf(mm)] = mm
	}
	return out, nil
}

// CreateAvailability inserts mm, assigning an id when unset.
func CreateAvailability(ctx context.Context, db *gorm.DB, mm *domain.MensaMeal) error {
	now := time.Now().UTC()
	if mm.ID == "" {
		mm.ID = domain.NewID()
	}
	mm.Date = mm.Date.UTC()
	mm.CreatedAt = now
	mm.UpdatedAt = now
	if mm.Ingredients == nil {
		mm.Ingredients = []string{}
	}
	if mm.Extras == nil {
		mm.Extras = []string{}
	}
	return db.WithContext(ctx).Omit(clause.Associations).Create(mm).Error
}

// GetMensaMeal fetches one availability row, or ErrNotFound.
func GetMensaMeal(ctx context.Context, db *gorm.DB, id string) (*domain.MensaMeal, error) {
	var mm domain.MensaMeal
	if err := db.WithContext(ctx).Where("id = ?", id).First(&mm).Error; err != nil {
		return nil, err
	}
	return &mm, nil
}

// LatestMensaMeal returns the most recent availability of a meal, or
// ErrNotFound if it was never offered.
func LatestMensaMeal(ctx context.Context, db *gorm.DB, mealID string) (*domain.MensaMeal, error) {
	var mm domain.MensaMeal
	err := db.WithContext(ctx).
		Where("meal_id = ?", mealID).
		Order("date desc").
		First(&mm).Error
	if err != nil {
		return nil, err
	}
	return &mm, nil
}

// ListMealsOnDay returns meals offered on day, optionally restricted to one
// cafeteria, ordered by cafeteria name then meal name.
func ListMealsOnDay(ctx context.Context, db *gorm.DB, day time.Time, mensaID string) ([]MealOnDay, error) {
	q := db.WithContext(ctx).
		Table("mensa_meal AS mm").
		Select(`m.id AS mensa_id, m.name AS mensa_name, m.slug AS mensa_slug,
			ml.id AS meal_id, ml.name AS name, ml.subtitle AS subtitle, ml.img_path AS img_path,
			ml.price_stud AS price_stud, ml.price_work AS price_work, ml.price_guest AS price_guest,
			mm.id AS mensa_meal_id, mm.date AS date, mm.ingredients AS ingredients, mm.extras AS extras`).
		Joins("JOIN mensa AS m ON m.id = mm.mensa_id").
		Joins("JOIN meal AS ml ON ml.id = mm.meal_id").
		Where("mm.date = ?", day.UTC())
	if mensaID != "" {
		q = q.Where("mm.mensa_id = ?", mensaID)
	}

	var out []MealOnDay
	if err := q.Order("m.name asc").Order("ml.name asc").Scan(&out).Error; err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Ingredients = decodeList(out[i].IngredientsJSON)
		out[i].Extras = decodeList(out[i].ExtrasJSON)
	}
	return out, nil
}

// decodeList reads a JSON string list column; malformed or empty values
// yield an empty list.
func decodeList(raw string) []string {
	out := []string{}
	if raw == "" {
		return out
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return []string{}
	}
	return out
}

// ListAvailabilityByMeal returns where and when a meal is offered, newest
// first.
func ListAvailabilityByMeal(ctx context.Context, db *gorm.DB, mealID string) ([]AvailabilityEntry, error) {
	var out []AvailabilityEntry
	err := db.WithContext(ctx).
		Table("mensa_meal AS mm").
		Select("mm.id AS mensa_meal_id, mm.date AS date, m.id AS mensa_id, m.name AS mensa_name, m.slug AS mensa_slug").
		Joins("JOIN mensa AS m ON m.id = mm.mensa_id").
		Where("mm.meal_id = ?", mealID).
		Order("mm.date desc").
		Order("m.name asc").
		Scan(&out).Error
	return out, err
}
