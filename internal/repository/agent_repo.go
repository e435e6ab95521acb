package repository

import (
	"context"
	"errors"

	"github.com/kursadbilgin/funnel-engine/internal/domain"
	"gorm.io/gorm"
)

type AgentRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Agent, error)
	ListActive(ctx context.Context) ([]domain.Agent, error)
}

type GormAgentRepo struct {
	db *gorm.DB
}

func NewGormAgentRepo(db *gorm.DB) *GormAgentRepo {
	return &GormAgentRepo{db: db}
}

func (r *GormAgentRepo) GetByID(ctx context.Context, id string) (*domain.Agent, error) {
	var model AgentModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return agentModelToDomain(&model), nil
}

func (r *GormAgentRepo) ListActive(ctx context.Context) ([]domain.Agent, error) {
	var models []AgentModel
	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("full_name ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	agents := make([]domain.Agent, 0, len(models))
	for i := range models {
		agents = append(agents, *agentModelToDomain(&models[i]))
	}

	return agents, nil
}
