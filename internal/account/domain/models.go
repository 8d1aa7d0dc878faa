package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Type is the payment rail an account belongs to.
type Type string

const (
	TypeGcash   Type = "gcash"
	TypePaymaya Type = "paymaya"
)

func (t Type) Valid() bool {
	switch t {
	case TypeGcash, TypePaymaya:
		return true
	}
	return false
}

// PaymentAccount is a directory entry. Balance is a plain stored value
// operators overwrite directly, unlike the statistics ledger which only
// accepts deltas.
type PaymentAccount struct {
	ID            snowflake.ID    `gorm:"primaryKey" json:"account_id"`
	AccountType   Type            `gorm:"type:text;not null;index" json:"account_type"`
	AccountNumber string          `gorm:"type:text;not null" json:"account_number"`
	AccountName   string          `gorm:"type:text;not null" json:"account_name"`
	Balance       decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"balance"`
	CreatedAt     time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (PaymentAccount) TableName() string { return "payment_accounts" }
