// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for cafeterias
// (Mensa) and data sources.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions. They follow the "thin repository"
// approach: no business logic, only persistence and query composition.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/speisly/mensa-api/internal/domain"
)

// ListMensen returns all cafeterias ordered by name.
func ListMensen(ctx context.Context, db *gorm.DB) ([]domain.Mensa, error) {
	var out []domain.Mensa
	err := db.WithContext(ctx).Order("name asc").Find(&out).Error
	return out, err
}

// GetMensaBySlug fetches a cafeteria by slug, or ErrNotFound.
func GetMensaBySlug(ctx context.Context, db *gorm.DB, slug string) (*domain.Mensa, error) {
	var m domain.Mensa
	if err := db.WithContext(ctx).Where("slug = ?", slug).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// GetMensa fetches a cafeteria by id, or ErrNotFound.
func GetMensa(ctx context.Context, db *gorm.DB, id string) (*domain.Mensa, error) {
	var m domain.Mensa
	if err := db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// CreateMensa inserts a cafeteria. A unique violation on name or slug is
// returned as-is; callers check IsDuplicate.
func CreateMensa(ctx context.Context, db *gorm.DB, name, slug string) (*domain.Mensa, error) {
	now := time.Now().UTC()
	m := &domain.Mensa{
		ID:        domain.NewID(),
		Name:      name,
		Slug:      slug,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := db.WithContext(ctx).Create(m).Error; err != nil {
		return nil, err
	}
	return m, nil
}

// GetOrCreateDataSource returns the data source with slug, creating it if
// missing. Concurrent creators converge on the stored row.
func GetOrCreateDataSource(ctx context.Context, db *gorm.DB, name, slug string) (*domain.DataSource, error) {
	var ds domain.DataSource
	err := db.WithContext(ctx).Where("slug = ?", slug).First(&ds).Error
	if err == nil {
		return &ds, nil
	}
	if !IsNotFound(err) {
		return nil, err
	}

	now := time.Now().UTC()
	ds = domain.DataSource{ID: domain.NewID(), Name: name, Slug: slug, CreatedAt: now, UpdatedAt: now}
	if err := db.WithContext(ctx).Create(&ds).Error; err != nil {
		if !IsDuplicate(err) {
			return nil, err
		}
		if err := db.WithContext(ctx).Where("slug = ?", slug).First(&ds).Error; err != nil {
			return nil, err
		}
	}
	return &ds, nil
}
