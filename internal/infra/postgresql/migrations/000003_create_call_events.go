package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/kursadbilgin/funnel-engine/internal/repository"
	"gorm.io/gorm"
)

func createCallEventsTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000003_create_call_events",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.AutoMigrate(&repository.CallEventModel{}); err != nil {
				return err
			}
			return tx.Exec(`CREATE INDEX IF NOT EXISTS idx_call_events_call_id ON call_events (call_id, created_at)`).Error
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&repository.CallEventModel{})
		},
	}
}
