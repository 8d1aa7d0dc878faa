package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, account *PaymentAccount) error
	List(ctx context.Context, db *gorm.DB) ([]PaymentAccount, error)
	ListByType(ctx context.Context, db *gorm.DB, accountType Type) ([]PaymentAccount, error)

	// FindByID returns nil when no row matches.
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*PaymentAccount, error)

	// FindFirstByType returns the oldest account of the type, or nil.
	FindFirstByType(ctx context.Context, db *gorm.DB, accountType Type) (*PaymentAccount, error)

	// Update applies the non-nil fields of patch. Returns false when the
	// account does not exist.
	Update(ctx context.Context, db *gorm.DB, id snowflake.ID, patch UpdatePatch) (bool, error)

	// Delete returns false when the account does not exist.
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) (bool, error)
}
