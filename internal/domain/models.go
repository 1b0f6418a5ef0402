// Package domain defines the persistence models for cafeterias, meals, their
// daily availability, change logs, and visitor ratings. These types are mapped
// with GORM and form the core data layer of the meal plan service.
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewID returns a fresh 32-character opaque identifier.
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// DataSource identifies an upstream system meals are ingested from.
type DataSource struct {
	ID        string    `json:"id"         gorm:"type:char(32);primaryKey"`
	Name      string    `json:"name"       gorm:"type:varchar(255);not null"`
	Slug      string    `json:"slug"       gorm:"type:varchar(255);not null;uniqueIndex"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for DataSource.
func (DataSource) TableName() string { return "data_source" }

// Mensa represents a cafeteria. Rows are created lazily the first time a
// cafeteria name is seen during a sync and are never deleted by it.
//
// Fields:
//   - ID: 32-char opaque primary key.
//   - Name: display name (unique).
//   - Slug: URL slug derived from Name (unique).
type Mensa struct {
	ID        string    `json:"id"         gorm:"type:char(32);primaryKey"`
	Name      string    `json:"name"       gorm:"type:varchar(255);not null;uniqueIndex"`
	Slug      string    `json:"slug"       gorm:"type:varchar(255);not null;uniqueIndex"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for Mensa.
func (Mensa) TableName() string { return "mensa" }

// Meal is the canonical record of a dish from one data source.
//
// Identity across syncs is (SrcID, DataSourceSlug); SrcID is the upstream
// food id after known-duplicate remapping. Prices are stored in cents.
type Meal struct {
	ID             string    `json:"id"               gorm:"type:char(32);primaryKey"`
	SrcID          string    `json:"src_id"           gorm:"type:varchar(64);not null;uniqueIndex:ux_meal_src,priority:1"`
	DataSourceSlug string    `json:"data_source_slug" gorm:"type:varchar(255);not null;uniqueIndex:ux_meal_src,priority:2;uniqueIndex:ux_meal_content,priority:2"`
	Name           string    `json:"name"             gorm:"type:varchar(512);not null;uniqueIndex:ux_meal_content,priority:1"`
	Subtitle       string    `json:"subtitle"         gorm:"type:varchar(512);not null;default:'';uniqueIndex:ux_meal_content,priority:3"`
	ImgPath        *string   `json:"img_path"         gorm:"type:varchar(1024);uniqueIndex:ux_meal_content,priority:4"`
	PriceStud      int       `json:"price_stud"       gorm:"not null"`
	PriceWork      int       `json:"price_work"       gorm:"not null"`
	PriceGuest     int       `json:"price_guest"      gorm:"not null"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TableName returns the database table name for Meal.
func (Meal) TableName() string { return "meal" }

// MealChangeLog is one append-only row per changed field per sync pass.
type MealChangeLog struct {
	ID        string    `json:"id"         gorm:"type:char(32);primaryKey"`
	MealID    string    `json:"meal_id"    gorm:"type:char(32);not null;index"`
	Key       string    `json:"key"        gorm:"type:varchar(64);not null"`
	Prev      string    `json:"prev"       gorm:"type:text"`
	New       string    `json:"new"        gorm:"type:text"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Meal Meal `json:"-" gorm:"foreignKey:MealID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for MealChangeLog.
func (MealChangeLog) TableName() string { return "meal_update" }

// MensaMeal records that a meal is offered at a cafeteria on a given date.
// The (MensaID, MealID, Date) triple is the natural key. Ingredients and
// Extras are written once on insert.
type MensaMeal struct {
	ID          string    `json:"id"          gorm:"type:char(32);primaryKey"`
	MensaID     string    `json:"mensa_id"    gorm:"type:char(32);not null;index;uniqueIndex:ux_mensa_meal_date,priority:1"`
	MealID      string    `json:"meal_id"     gorm:"type:char(32);not null;uniqueIndex:ux_mensa_meal_date,priority:2"`
	Date        time.Time `json:"date"        gorm:"not null;index;uniqueIndex:ux_mensa_meal_date,priority:3"`
	Ingredients []string  `json:"ingredients" gorm:"type:text;serializer:json"`
	Extras      []string  `json:"extras"      gorm:"type:text;serializer:json"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Mensa Mensa `json:"-" gorm:"foreignKey:MensaID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Meal  Meal  `json:"-" gorm:"foreignKey:MealID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for MensaMeal.
func (MensaMeal) TableName() string { return "mensa_meal" }

// User is an anonymous visitor identified by a signed cookie or an IP hash.
type User struct {
	ID         string    `json:"id"          gorm:"type:char(32);primaryKey"`
	IPHash     string    `json:"-"           gorm:"type:char(64);not null;index"`
	CookieHash string    `json:"-"           gorm:"type:varchar(255)"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "user" }

// Rating is a visitor's score for a meal. A visitor holds at most one rating
// per meal, updated in place.
//
// Fields:
//   - Value: overall score 1..5.
//   - ValuePrice / ValueQuantity / ValueTaste: optional sub-scores 1..5.
//   - MensaMealID: the availability the visitor rated from.
type Rating struct {
	ID            string    `json:"id"                       gorm:"type:char(32);primaryKey"`
	MealID        string    `json:"meal_id"                  gorm:"type:char(32);not null;uniqueIndex:ux_rating_meal_user,priority:1"`
	MensaMealID   string    `json:"mensa_meal_id"            gorm:"type:char(32);not null;index"`
	UserID        string    `json:"user_id"                  gorm:"type:char(32);not null;index;uniqueIndex:ux_rating_meal_user,priority:2"`
	Value         int       `json:"value"                    gorm:"not null;check:value BETWEEN 1 AND 5"`
	ValuePrice    *int      `json:"value_price,omitempty"`
	ValueQuantity *int      `json:"value_quantity,omitempty"`
	ValueTaste    *int      `json:"value_taste,omitempty"`
	Comment       *string   `json:"comment,omitempty"        gorm:"type:text"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	Meal      Meal      `json:"-" gorm:"foreignKey:MealID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	MensaMeal MensaMeal `json:"-" gorm:"foreignKey:MensaMealID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	User      User      `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Rating.
func (Rating) TableName() string { return "meal_rating" }

// ErrorLog is an append-only record of an operational anomaly.
type ErrorLog struct {
	ID        string    `json:"id"         gorm:"type:char(32);primaryKey"`
	Message   string    `json:"message"    gorm:"type:text;not null"`
	Ctx       string    `json:"ctx"        gorm:"type:text"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
}

// TableName returns the database table name for ErrorLog.
func (ErrorLog) TableName() string { return "error_log" }

// Feedback kinds.
const (
	FeedbackKindFeedback = "feedback"
	FeedbackKindContact  = "contact"
)

// Feedback is a free-text message left through the feedback or contact form.
type Feedback struct {
	ID        string    `json:"id"              gorm:"type:char(32);primaryKey"`
	Kind      string    `json:"kind"            gorm:"type:varchar(16);not null;default:'feedback';check:kind IN ('feedback','contact')"`
	Name      *string   `json:"name,omitempty"  gorm:"type:varchar(255)"`
	Email     *string   `json:"email,omitempty" gorm:"type:varchar(255)"`
	Message   string    `json:"message"         gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for Feedback.
func (Feedback) TableName() string { return "feedback" }
