package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repos bundles the repositories bound to a single transaction, so a stage
// write and its ledger write commit or roll back together.
type Repos struct {
	Calls    CallRepository
	Attempts AttemptRepository
	History  HistoryRepository
}

type TxManager interface {
	InTx(ctx context.Context, fn func(r Repos) error) error
}

type GormTxManager struct {
	db *gorm.DB
}

func NewGormTxManager(db *gorm.DB) *GormTxManager {
	return &GormTxManager{db: db}
}

func (m *GormTxManager) InTx(ctx context.Context, fn func(r Repos) error) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(Repos{
			Calls:    NewGormCallRepo(tx),
			Attempts: NewGormAttemptRepo(tx),
			History:  NewGormHistoryRepo(tx),
		})
	})
}
