// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Feedback
// model, which stores both feedback-form and contact-form submissions.
//
// Functions:
//
//   - CreateFeedback(ctx, db, kind, name, email, message) -> *domain.Feedback, error
//     Inserts a feedback row of the given kind.
//
//   - ListFeedback(ctx, db, kind, limit) -> []domain.Feedback, error
//     Returns the newest rows, optionally filtered by kind.
//
// Usage:
//
//	// In the service layer
//	fb, err := repo.CreateFeedback(ctx, db, domain.FeedbackKindContact, &name, &email, msg)
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/speisly/mensa-api/internal/domain"
)

// CreateFeedback inserts a feedback or contact message.
//
// Kind must be domain.FeedbackKindFeedback or domain.FeedbackKindContact;
// the database check constraint rejects anything else. Name and email are
// optional.
func CreateFeedback(ctx context.Context, db *gorm.DB, kind string, name, email *string, message string) (*domain.Feedback, error) {
	now := time.Now().UTC()
	fb := &domain.Feedback{
		ID:        domain.NewID(),
		Kind:      kind,
		Name:      name,
		Email:     email,
		Message:   message,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := db.WithContext(ctx).Create(fb).Error; err != nil {
		return nil, err
	}
	return fb, nil
}

// ListFeedback returns the newest submissions, filtered by kind when set.
func ListFeedback(ctx context.Context, db *gorm.DB, kind string, limit int) ([]domain.Feedback, error) {
	if limit <= 0 {
		limit = 50
	}
	q := db.WithContext(ctx).Order("created_at desc").Limit(limit)
	if kind != "" {
		q = q.Where("kind = ?", kind)
	}
	var out []domain.Feedback
	err := q.Find(&out).Error
	return out, err
}
