package domain

import "time"

// OutcomeCount is one attempt-ledger entry: how many times a tracked outcome
// group has been reported for a call. At most one entry exists per
// (call id, group label).
type OutcomeCount struct {
	ID         string `gorm:"type:uuid;primaryKey"`
	CallID     string `gorm:"type:uuid;not null"`
	GroupLabel string `gorm:"type:varchar(50);not null"`
	Count      int    `gorm:"not null;default:1"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
