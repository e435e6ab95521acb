package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/kursadbilgin/funnel-engine/internal/repository"
	"gorm.io/gorm"
)

func createCallsTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000001_create_calls",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.AutoMigrate(&repository.CallModel{}); err != nil {
				return err
			}
			indexes := []string{
				`CREATE UNIQUE INDEX IF NOT EXISTS idx_calls_call_ref ON calls (call_ref)`,
				`CREATE INDEX IF NOT EXISTS idx_calls_stage_assigned ON calls (stage, assigned_to)`,
				`CREATE INDEX IF NOT EXISTS idx_calls_database_id ON calls (database_id) WHERE database_id IS NOT NULL`,
				`CREATE INDEX IF NOT EXISTS idx_calls_last_contacted ON calls (last_contacted_at)`,
			}
			for _, sql := range indexes {
				if err := tx.Exec(sql).Error; err != nil {
					return err
				}
			}
			return nil
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&repository.CallModel{})
		},
	}
}
