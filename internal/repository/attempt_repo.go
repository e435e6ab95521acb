package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AttemptRepository is the attempt ledger: per-call, per-group counters that
// decide auto-escalation.
type AttemptRepository interface {
	// Increment creates the (callID, groupLabel) entry at 1 or bumps it by
	// one, atomically, and returns the resulting count. Two concurrent
	// increments on the same key must never observe the same value.
	Increment(ctx context.Context, callID, groupLabel string) (int, error)
	// Clear removes every entry for the call. Idempotent.
	Clear(ctx context.Context, callID string) error
	Read(ctx context.Context, callID string) (map[string]int, error)
}

type GormAttemptRepo struct {
	db *gorm.DB
}

func NewGormAttemptRepo(db *gorm.DB) *GormAttemptRepo {
	return &GormAttemptRepo{db: db}
}

func (r *GormAttemptRepo) Increment(ctx context.Context, callID, groupLabel string) (int, error) {
	// Single upsert statement so the increment cannot lose an update under
	// concurrent reports for the same call.
	var count int
	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO outcome_counts (id, call_id, group_label, count, created_at, updated_at)
		VALUES (?, ?, ?, 1, NOW(), NOW())
		ON CONFLICT (call_id, group_label)
		DO UPDATE SET count = outcome_counts.count + 1, updated_at = NOW()
		RETURNING count
	`, uuid.NewString(), callID, groupLabel).Scan(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GormAttemptRepo) Clear(ctx context.Context, callID string) error {
	return r.db.WithContext(ctx).
		Where("call_id = ?", callID).
		Delete(&OutcomeCountModel{}).Error
}

func (r *GormAttemptRepo) Read(ctx context.Context, callID string) (map[string]int, error) {
	var models []OutcomeCountModel
	err := r.db.WithContext(ctx).
		Where("call_id = ?", callID).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int, len(models))
	for i := range models {
		counts[models[i].GroupLabel] = models[i].Count
	}
	return counts, nil
}
