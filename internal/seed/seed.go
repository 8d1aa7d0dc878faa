package seed

import (
	"context"
	"errors"

	ledgerdomain "github.com/smallbiznis/lendora/internal/ledger/domain"
	"gorm.io/gorm"
)

// EnsureGlobalLedger seeds the singleton lifetime-totals row. Every
// ledger delta targets this row by fixed ID, so it must exist before the
// first transaction.
func EnsureGlobalLedger(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&ledgerdomain.GlobalLedger{}).
			Where("id = ?", ledgerdomain.GlobalLedgerID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}
		return tx.Create(&ledgerdomain.GlobalLedger{ID: ledgerdomain.GlobalLedgerID}).Error
	})
}
