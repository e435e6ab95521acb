package domain

import "time"

// CallEvent is one append-only history record of a disposition report.
type CallEvent struct {
	ID          string  `gorm:"type:uuid;primaryKey"`
	CallID      string  `gorm:"type:uuid;not null"`
	ActorID     string  `gorm:"type:uuid;not null"`
	Disposition string  `gorm:"type:varchar(100);not null"`
	Notes       *string `gorm:"type:text"`
	CreatedAt   time.Time
}
