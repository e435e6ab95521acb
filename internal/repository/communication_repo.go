package repository

import (
	"context"

	"github.com/kursadbilgin/funnel-engine/internal/domain"
	"gorm.io/gorm"
)

type CommunicationRepository interface {
	Create(ctx context.Context, c *domain.Communication) error
	ListByCall(ctx context.Context, callID string) ([]domain.Communication, error)
}

type GormCommunicationRepo struct {
	db *gorm.DB
}

func NewGormCommunicationRepo(db *gorm.DB) *GormCommunicationRepo {
	return &GormCommunicationRepo{db: db}
}

func (r *GormCommunicationRepo) Create(ctx context.Context, c *domain.Communication) error {
	model := communicationModelFromDomain(c)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	if c != nil {
		*c = *communicationModelToDomain(model)
	}
	return nil
}

func (r *GormCommunicationRepo) ListByCall(ctx context.Context, callID string) ([]domain.Communication, error) {
	var models []CommunicationModel
	err := r.db.WithContext(ctx).
		Where("call_id = ?", callID).
		Order("created_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	comms := make([]domain.Communication, 0, len(models))
	for i := range models {
		comms = append(comms, *communicationModelToDomain(&models[i]))
	}

	return comms, nil
}
