package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Category is a semantic bucket the statistics ledger accumulates under.
type Category string

const (
	CategoryValid       Category = "valid"
	CategoryCompleted   Category = "completed"
	CategoryBreach      Category = "breach"
	CategoryBreachEnd   Category = "breach_end"
	CategoryInterest    Category = "interest"
	CategoryLiquidFunds Category = "liquid_funds"
	CategoryLiquidFlow  Category = "liquid_flow"
	CategoryNewClients  Category = "new_clients"
	CategoryOldClients  Category = "old_clients"
)

// Spec describes how a category maps onto ledger columns and which tiers
// it fans out to. Column names are fixed here rather than derived from the
// category string, so a new category cannot silently land in a column that
// does not exist.
type Spec struct {
	AmountColumn string // empty when the category carries no monetary field
	CountColumn  string // empty when the category carries no count field
	// Flow categories are also recorded on the daily tier. Stock
	// categories (valid, liquid_funds) accumulate on the lifetime tiers only.
	Flow bool
	// GlobalOnly categories never fan out to the group tier.
	GlobalOnly bool
	// DailyOnly categories exist solely on the daily tier (liquid_flow).
	DailyOnly bool
}

var specs = map[Category]Spec{
	CategoryValid:       {AmountColumn: "valid_amount", CountColumn: "valid_orders"},
	CategoryCompleted:   {AmountColumn: "completed_amount", CountColumn: "completed_orders", Flow: true},
	CategoryBreach:      {AmountColumn: "breach_amount", CountColumn: "breach_orders", Flow: true},
	CategoryBreachEnd:   {AmountColumn: "breach_end_amount", CountColumn: "breach_end_orders", Flow: true},
	CategoryInterest:    {AmountColumn: "interest", Flow: true},
	CategoryLiquidFunds: {AmountColumn: "liquid_funds", GlobalOnly: true},
	CategoryLiquidFlow:  {AmountColumn: "liquid_flow", Flow: true, GlobalOnly: true, DailyOnly: true},
	CategoryNewClients:  {CountColumn: "new_clients", Flow: true},
	CategoryOldClients:  {CountColumn: "old_clients", Flow: true},
}

// Lookup resolves the column mapping for a category.
func Lookup(c Category) (Spec, bool) {
	spec, ok := specs[c]
	return spec, ok
}

// GlobalLedger is the singleton lifetime-totals row.
type GlobalLedger struct {
	ID              int64           `gorm:"primaryKey" json:"-"`
	ValidAmount     decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"valid_amount"`
	ValidOrders     int64           `gorm:"not null;default:0" json:"valid_orders"`
	CompletedAmount decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"completed_amount"`
	CompletedOrders int64           `gorm:"not null;default:0" json:"completed_orders"`
	BreachAmount    decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"breach_amount"`
	BreachOrders    int64           `gorm:"not null;default:0" json:"breach_orders"`
	BreachEndAmount decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"breach_end_amount"`
	BreachEndOrders int64           `gorm:"not null;default:0" json:"breach_end_orders"`
	Interest        decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"interest"`
	LiquidFunds     decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"liquid_funds"`
	NewClients      int64           `gorm:"not null;default:0" json:"new_clients"`
	OldClients      int64           `gorm:"not null;default:0" json:"old_clients"`
	UpdatedAt       time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (GlobalLedger) TableName() string { return "global_ledgers" }

// GlobalLedgerID is the fixed primary key of the singleton row.
const GlobalLedgerID int64 = 1

// DailyLedger accumulates flow categories for one accounting period,
// optionally scoped to a group attribution. GroupID is empty on the
// period-wide row.
type DailyLedger struct {
	ID              snowflake.ID    `gorm:"primaryKey" json:"id"`
	Period          string          `gorm:"type:text;not null;uniqueIndex:ux_daily_ledgers_period_group,priority:1" json:"period"`
	GroupID         string          `gorm:"type:text;not null;default:'';uniqueIndex:ux_daily_ledgers_period_group,priority:2" json:"group_id"`
	CompletedAmount decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"completed_amount"`
	CompletedOrders int64           `gorm:"not null;default:0" json:"completed_orders"`
	BreachAmount    decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"breach_amount"`
	BreachOrders    int64           `gorm:"not null;default:0" json:"breach_orders"`
	BreachEndAmount decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"breach_end_amount"`
	BreachEndOrders int64           `gorm:"not null;default:0" json:"breach_end_orders"`
	Interest        decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"interest"`
	LiquidFlow      decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"liquid_flow"`
	NewClients      int64           `gorm:"not null;default:0" json:"new_clients"`
	OldClients      int64           `gorm:"not null;default:0" json:"old_clients"`
	UpdatedAt       time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (DailyLedger) TableName() string { return "daily_ledgers" }

// GroupLedger holds lifetime cumulative totals scoped to one attribution tag.
type GroupLedger struct {
	ID              snowflake.ID    `gorm:"primaryKey" json:"id"`
	GroupID         string          `gorm:"type:text;not null;uniqueIndex:ux_group_ledgers_group" json:"group_id"`
	ValidAmount     decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"valid_amount"`
	ValidOrders     int64           `gorm:"not null;default:0" json:"valid_orders"`
	CompletedAmount decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"completed_amount"`
	CompletedOrders int64           `gorm:"not null;default:0" json:"completed_orders"`
	BreachAmount    decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"breach_amount"`
	BreachOrders    int64           `gorm:"not null;default:0" json:"breach_orders"`
	BreachEndAmount decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"breach_end_amount"`
	BreachEndOrders int64           `gorm:"not null;default:0" json:"breach_end_orders"`
	Interest        decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"interest"`
	NewClients      int64           `gorm:"not null;default:0" json:"new_clients"`
	OldClients      int64           `gorm:"not null;default:0" json:"old_clients"`
	UpdatedAt       time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (GroupLedger) TableName() string { return "group_ledgers" }
