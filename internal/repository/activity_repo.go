package repository

import (
	"context"

	"github.com/Eursukkul/restaurant-service/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ActivityRepository interface {
	Upsert(ctx context.Context, entry *models.ActivityEntry) error
	ListRecent(ctx context.Context, limit int) ([]models.ActivityEntry, error)
}

type activityRepository struct {
	db *gorm.DB
}

func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &activityRepository{db: db}
}

// Upsert stores entry keyed by event id; a redelivered event overwrites
// itself instead of duplicating.
func (r *activityRepository) Upsert(ctx context.Context, entry *models.ActivityEntry) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"type", "subject", "payload", "occurred_at"}),
	}).Create(entry).Error
}

func (r *activityRepository) ListRecent(ctx context.Context, limit int) ([]models.ActivityEntry, error) {
	var entries []models.ActivityEntry
	err := r.db.WithContext(ctx).
		Order("occurred_at DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}
