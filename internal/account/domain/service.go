package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type CreateRequest struct {
	AccountType   Type
	AccountNumber string
	AccountName   string
	Balance       decimal.Decimal
}

// UpdatePatch carries a partial edit. Nil fields are left unchanged;
// Balance is a direct overwrite when present.
type UpdatePatch struct {
	AccountNumber *string
	AccountName   *string
	Balance       *decimal.Decimal
}

func (p UpdatePatch) Empty() bool {
	return p.AccountNumber == nil && p.AccountName == nil && p.Balance == nil
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*PaymentAccount, error)
	List(ctx context.Context) ([]PaymentAccount, error)
	ListByType(ctx context.Context, accountType Type) ([]PaymentAccount, error)
	GetByID(ctx context.Context, id snowflake.ID) (*PaymentAccount, error)

	// GetByType is the legacy single-account accessor: it returns the
	// first account of the type for chats that predate multi-account
	// directories.
	GetByType(ctx context.Context, accountType Type) (*PaymentAccount, error)

	Update(ctx context.Context, id snowflake.ID, patch UpdatePatch) (*PaymentAccount, error)

	// SetBalance overwrites the stored balance. Concurrent edits are
	// last-writer-wins; callers needing delta semantics must serialize
	// themselves.
	SetBalance(ctx context.Context, id snowflake.ID, balance decimal.Decimal) (*PaymentAccount, error)

	Delete(ctx context.Context, id snowflake.ID) error
}

var (
	ErrNotFound       = errors.New("payment_account_not_found")
	ErrInvalidType    = errors.New("invalid_account_type")
	ErrInvalidNumber  = errors.New("invalid_account_number")
	ErrInvalidName    = errors.New("invalid_account_name")
	ErrInvalidBalance = errors.New("invalid_account_balance")
	ErrEmptyPatch     = errors.New("empty_account_patch")
)
