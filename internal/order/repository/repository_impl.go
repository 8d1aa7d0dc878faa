package repository

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/lendora/internal/order/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, order *domain.Order) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO orders (id, chat_id, group_id, customer, amount, order_date, weekday_group, state, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		order.ID,
		order.ChatID,
		order.GroupID,
		order.Customer,
		order.Amount,
		order.OrderDate,
		order.WeekdayGroup,
		order.State,
		order.CreatedAt,
		order.UpdatedAt,
	).Error
}

func (r *repo) FindActiveByChatID(ctx context.Context, db *gorm.DB, chatID int64) (*domain.Order, error) {
	return r.findActive(ctx, db, chatID, false)
}

func (r *repo) FindActiveByChatIDForUpdate(ctx context.Context, db *gorm.DB, chatID int64) (*domain.Order, error) {
	return r.findActive(ctx, db, chatID, true)
}

func (r *repo) findActive(ctx context.Context, db *gorm.DB, chatID int64, lock bool) (*domain.Order, error) {
	stmt := db.WithContext(ctx).
		Where("chat_id = ? AND state NOT IN ?", chatID, []domain.State{domain.StateEnd, domain.StateBreachEnd}).
		Order("created_at desc, id desc")
	// sqlite has no row locks; the CAS guards on UpdateState/ReduceAmount
	// still hold there.
	if lock && db.Dialector.Name() == "postgres" {
		stmt = stmt.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var order domain.Order
	err := stmt.Take(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repo) UpdateState(ctx context.Context, db *gorm.DB, chatID int64, from []domain.State, next domain.State) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE orders SET state = ?, updated_at = ?
		 WHERE chat_id = ? AND state IN ?`,
		next,
		time.Now().UTC(),
		chatID,
		from,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) ReduceAmount(ctx context.Context, db *gorm.DB, chatID int64, delta decimal.Decimal) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE orders SET amount = amount - ?, updated_at = ?
		 WHERE chat_id = ? AND state IN ? AND amount >= ?`,
		delta,
		time.Now().UTC(),
		chatID,
		[]domain.State{domain.StateNormal, domain.StateOverdue},
		delta,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) ListByGroupID(ctx context.Context, db *gorm.DB, groupID string) ([]domain.Order, error) {
	var orders []domain.Order
	err := db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Order("created_at desc, id desc").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}
