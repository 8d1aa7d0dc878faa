package domain

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Repository operates inside a caller-supplied handle so processors can
// compose order mutations and ledger deltas into one transaction.
type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, order *Order) error

	// FindActiveByChatID returns the chat's non-terminal order, or nil.
	FindActiveByChatID(ctx context.Context, db *gorm.DB, chatID int64) (*Order, error)

	// FindActiveByChatIDForUpdate locks the row for the duration of the
	// surrounding transaction on dialects that support it.
	FindActiveByChatIDForUpdate(ctx context.Context, db *gorm.DB, chatID int64) (*Order, error)

	// UpdateState is a compare-and-swap: the row moves to next only if its
	// current state is one of from. Returns false when the guard missed.
	UpdateState(ctx context.Context, db *gorm.DB, chatID int64, from []State, next State) (bool, error)

	// ReduceAmount is a compare-and-swap: amount is decremented by delta
	// only while the order is active and delta does not exceed the
	// remaining amount. Returns false when the guard missed.
	ReduceAmount(ctx context.Context, db *gorm.DB, chatID int64, delta decimal.Decimal) (bool, error)

	ListByGroupID(ctx context.Context, db *gorm.DB, groupID string) ([]Order, error)
}
