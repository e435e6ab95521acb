package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/kursadbilgin/funnel-engine/internal/repository"
	"gorm.io/gorm"
)

func createOutcomeCountsTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000002_create_outcome_counts",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.AutoMigrate(&repository.OutcomeCountModel{}); err != nil {
				return err
			}
			// The ledger upsert targets this constraint; without it the
			// insert-or-increment cannot be a single atomic statement.
			return tx.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_outcome_counts_call_group ON outcome_counts (call_id, group_label)`).Error
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&repository.OutcomeCountModel{})
		},
	}
}
