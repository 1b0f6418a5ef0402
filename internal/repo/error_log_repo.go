package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/speisly/mensa-api/internal/domain"
)

// CreateErrorLog appends an anomaly row. ctxJSON is stored verbatim.
func CreateErrorLog(ctx context.Context, db *gorm.DB, message, ctxJSON string) (*domain.ErrorLog, error) {
	e := &domain.ErrorLog{
		ID:        domain.NewID(),
		Message:   message,
		Ctx:       ctxJSON,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(e).Error; err != nil {
		return nil, err
	}
	return e, nil
}

// ListErrorLogs returns the newest error logs, at most limit rows.
func ListErrorLogs(ctx context.Context, db *gorm.DB, limit int) ([]domain.ErrorLog, error) {
	if limit <= 0 {
		limit = 50
	}
	var out []domain.ErrorLog
	err := db.WithContext(ctx).Order("created_at desc").Limit(limit).Find(&out).Error
	return out, err
}
