package domain

import (
	"context"
	"errors"
)

type Service interface {
	// GetByChatID returns the chat's active order.
	GetByChatID(ctx context.Context, chatID int64) (*Order, error)

	ListByGroupID(ctx context.Context, groupID string) ([]Order, error)
}

var (
	ErrNotFound           = errors.New("order_not_found")
	ErrActiveOrderExists  = errors.New("active_order_exists")
	ErrPreconditionFailed = errors.New("precondition_failed")
	ErrInvalidAmount      = errors.New("invalid_amount")
	ErrInvalidState       = errors.New("invalid_state")
)
