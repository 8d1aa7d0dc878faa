package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	// Upsert writes the slot row, replacing any prior configuration for
	// the same slot number.
	Upsert(ctx context.Context, db *gorm.DB, slot *BroadcastSlot) error

	// Find returns nil when the slot has never been configured.
	Find(ctx context.Context, db *gorm.DB, slot int) (*BroadcastSlot, error)

	List(ctx context.Context, db *gorm.DB) ([]BroadcastSlot, error)
	ListActive(ctx context.Context, db *gorm.DB) ([]BroadcastSlot, error)

	// SetActive returns false when the slot does not exist.
	SetActive(ctx context.Context, db *gorm.DB, slot int, active bool) (bool, error)

	// Delete returns false when the slot does not exist.
	Delete(ctx context.Context, db *gorm.DB, slot int) (bool, error)
}
