package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/lendora/internal/period"
	"gorm.io/gorm"
)

// Delta is one logical ledger update. Amount and Count are signed; a zero
// component is skipped. GroupID attributes the delta to the group tier.
type Delta struct {
	Category Category
	Amount   decimal.Decimal
	Count    int64
	GroupID  string
}

type Service interface {
	// Apply fans a delta out across the global, daily and group tiers
	// inside tx. Callers compose it into the transaction that carries the
	// order mutation; tx must not be nil.
	Apply(ctx context.Context, tx *gorm.DB, d Delta) error

	// ApplyLiquidCapital records recovered funds: lifetime cash balance on
	// the global tier plus the daily liquid flow for the current period.
	ApplyLiquidCapital(ctx context.Context, tx *gorm.DB, amount decimal.Decimal) error

	Totals(ctx context.Context) (GlobalLedger, error)
	DailyRows(ctx context.Context, key period.Key) ([]DailyLedger, error)
	GroupRows(ctx context.Context) ([]GroupLedger, error)
}

var (
	ErrUnknownCategory = errors.New("unknown_ledger_category")
	ErrInvalidDelta    = errors.New("invalid_ledger_delta")
	ErrNilTransaction  = errors.New("nil_transaction")
)
