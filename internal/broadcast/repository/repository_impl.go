package repository

import (
	"context"
	"errors"

	"github.com/smallbiznis/lendora/internal/broadcast/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Upsert(ctx context.Context, db *gorm.DB, slot *domain.BroadcastSlot) error {
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "slot"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"send_time", "chat_id", "chat_title", "message", "is_active", "updated_at",
			}),
		}).
		Create(slot).Error
}

func (r *repo) Find(ctx context.Context, db *gorm.DB, slot int) (*domain.BroadcastSlot, error) {
	var row domain.BroadcastSlot
	err := db.WithContext(ctx).
		Where("slot = ?", slot).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB) ([]domain.BroadcastSlot, error) {
	var rows []domain.BroadcastSlot
	err := db.WithContext(ctx).
		Order("slot asc").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repo) ListActive(ctx context.Context, db *gorm.DB) ([]domain.BroadcastSlot, error) {
	var rows []domain.BroadcastSlot
	err := db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("slot asc").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repo) SetActive(ctx context.Context, db *gorm.DB, slot int, active bool) (bool, error) {
	result := db.WithContext(ctx).Exec(
		"UPDATE broadcast_slots SET is_active = ?, updated_at = CURRENT_TIMESTAMP WHERE slot = ?",
		active, slot)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, slot int) (bool, error) {
	result := db.WithContext(ctx).Exec(
		"DELETE FROM broadcast_slots WHERE slot = ?", slot)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
