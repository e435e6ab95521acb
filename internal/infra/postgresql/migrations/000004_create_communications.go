package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/kursadbilgin/funnel-engine/internal/repository"
	"gorm.io/gorm"
)

func createCommunicationsTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000004_create_communications",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.AutoMigrate(&repository.CommunicationModel{}); err != nil {
				return err
			}
			return tx.Exec(`CREATE INDEX IF NOT EXISTS idx_communications_call_id ON communications (call_id)`).Error
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&repository.CommunicationModel{})
		},
	}
}
