package repository

import (
	"context"

	"github.com/kursadbilgin/funnel-engine/internal/domain"
	"gorm.io/gorm"
)

// HistoryRepository is the append-only disposition history.
type HistoryRepository interface {
	Append(ctx context.Context, e *domain.CallEvent) error
	ListByCall(ctx context.Context, callID string) ([]domain.CallEvent, error)
}

type GormHistoryRepo struct {
	db *gorm.DB
}

func NewGormHistoryRepo(db *gorm.DB) *GormHistoryRepo {
	return &GormHistoryRepo{db: db}
}

func (r *GormHistoryRepo) Append(ctx context.Context, e *domain.CallEvent) error {
	model := eventModelFromDomain(e)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	if e != nil {
		*e = *eventModelToDomain(model)
	}
	return nil
}

func (r *GormHistoryRepo) ListByCall(ctx context.Context, callID string) ([]domain.CallEvent, error) {
	var models []CallEventModel
	err := r.db.WithContext(ctx).
		Where("call_id = ?", callID).
		Order("created_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	events := make([]domain.CallEvent, 0, len(models))
	for i := range models {
		events = append(events, *eventModelToDomain(&models[i]))
	}

	return events, nil
}
