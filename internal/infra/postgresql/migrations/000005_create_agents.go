package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/kursadbilgin/funnel-engine/internal/repository"
	"gorm.io/gorm"
)

func createAgentsTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000005_create_agents",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.AutoMigrate(&repository.AgentModel{}); err != nil {
				return err
			}
			return tx.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_agents_emp_id ON agents (emp_id)`).Error
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&repository.AgentModel{})
		},
	}
}
