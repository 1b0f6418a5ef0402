package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/speisly/mensa-api/internal/domain"
)

// GetUser fetches a visitor by id, or ErrNotFound.
func GetUser(ctx context.Context, db *gorm.DB, id string) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// FindUserByIPHash returns the oldest visitor with ipHash, or ErrNotFound.
func FindUserByIPHash(ctx context.Context, db *gorm.DB, ipHash string) (*domain.User, error) {
	var u domain.User
	err := db.WithContext(ctx).
		Where("ip_hash = ?", ipHash).
		Order("created_at asc").
		First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser inserts a visitor. The cookie hash mirrors the id so a cookie
// can be traced back to its row.
func CreateUser(ctx context.Context, db *gorm.DB, id, ipHash string) (*domain.User, error) {
	now := time.Now().UTC()
	if id == "" {
		id = domain.NewID()
	}
	u := &domain.User{ID: id, IPHash: ipHash, CookieHash: id, CreatedAt: now, UpdatedAt: now}
	if err := db.WithContext(ctx).Create(u).Error; err != nil {
		return nil, err
	}
	return u, nil
}
