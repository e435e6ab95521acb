package domain

import "time"

// Agent is the minimal employee record the engine resolves: disposition
// actors and assignment targets. Employee management itself lives in the
// surrounding CRUD layer.
type Agent struct {
	ID        string `gorm:"type:uuid;primaryKey"`
	EmpID     string `gorm:"type:varchar(50);not null"`
	FullName  string `gorm:"type:varchar(255);not null"`
	Email     string `gorm:"type:varchar(255);not null"`
	Role      string `gorm:"type:varchar(50);not null"`
	Active    bool   `gorm:"not null;default:true"`
	CreatedAt time.Time
}
