package domain

import (
	"context"
	"errors"
)

type ConfigureRequest struct {
	Slot      int
	Time      string // "HH" or "HH:MM", normalized on write
	ChatID    *int64
	ChatTitle string
	Message   string
}

type Service interface {
	// Configure upserts a slot and marks it active, then rebuilds the
	// scheduler registrations.
	Configure(ctx context.Context, req ConfigureRequest) (*BroadcastSlot, error)

	// SetActive toggles a configured slot, then rebuilds.
	SetActive(ctx context.Context, slot int, active bool) (*BroadcastSlot, error)

	// Delete clears a slot, then rebuilds.
	Delete(ctx context.Context, slot int) error

	Get(ctx context.Context, slot int) (*BroadcastSlot, error)
	List(ctx context.Context) ([]BroadcastSlot, error)
}

// Registrar is the external-scheduler surface the service drives. Every
// successful mutation triggers a full rebuild rather than an incremental
// edit, so a failed partial update can never leak a stale job.
type Registrar interface {
	Reconcile(ctx context.Context) error
}

// Sender delivers one broadcast message. Implementations belong to the
// chat transport; delivery failures are reported, never retried here.
type Sender interface {
	Send(ctx context.Context, chatID int64, message string) error
}

var (
	ErrSlotOutOfRange = errors.New("broadcast_slot_out_of_range")
	ErrSlotNotFound   = errors.New("broadcast_slot_not_found")
	ErrInvalidTime    = errors.New("invalid_broadcast_time")
	ErrEmptyMessage   = errors.New("empty_broadcast_message")
)
