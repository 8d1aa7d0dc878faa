package domain

import (
	"context"

	"github.com/shopspring/decimal"
	orderdomain "github.com/smallbiznis/lendora/internal/order/domain"
)

type CreateOrderRequest struct {
	ChatID   int64
	GroupID  string
	Customer string
	Amount   decimal.Decimal
	// ReturningClient attributes the order to the old_clients counter
	// instead of new_clients.
	ReturningClient bool
}

// Result is the post-mutation order snapshot processors hand back to the
// orchestration layer for confirmation messages.
type Result struct {
	Order orderdomain.Order
	// Settled carries the settlement amount for breach settlements and the
	// reduced amount for principal reductions.
	Settled decimal.Decimal
}

// Service is the set of transaction processors. Every mutating call runs
// as one storage transaction covering the order mutation and all ledger
// deltas it implies.
type Service interface {
	CreateOrder(ctx context.Context, req CreateOrderRequest) (Result, error)

	// MarkNormal moves an overdue order back to normal. No ledger effect.
	MarkNormal(ctx context.Context, chatID int64) (Result, error)

	// MarkOverdue moves a normal order to overdue. No ledger effect.
	MarkOverdue(ctx context.Context, chatID int64) (Result, error)

	// CompleteOrder closes a normal or overdue order: the remaining amount
	// leaves the valid pool, enters the completed pool and is recovered as
	// liquid capital.
	CompleteOrder(ctx context.Context, chatID int64) (Result, error)

	// MarkBreach moves an overdue order to breach. The amount leaves the
	// valid pool and enters the breach pool; no funds are recovered.
	MarkBreach(ctx context.Context, chatID int64) (Result, error)

	// SettleBreach closes a breach order with the amount actually
	// recovered, which flows into liquid capital.
	SettleBreach(ctx context.Context, chatID int64, amount decimal.Decimal) (Result, error)

	// ReducePrincipal reduces an active order's amount in place, mirroring
	// the completion ledger effect proportionally without touching counts.
	ReducePrincipal(ctx context.Context, chatID int64, amount decimal.Decimal) (Result, error)

	// RecordInterest books interest income. Independent of order state; if
	// the chat hosts an active order the income is attributed to its group.
	RecordInterest(ctx context.Context, chatID int64, amount decimal.Decimal) error
}
