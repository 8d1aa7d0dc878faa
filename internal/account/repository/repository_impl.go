package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/lendora/internal/account/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, account *domain.PaymentAccount) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO payment_accounts (id, account_type, account_number, account_name, balance, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		account.ID,
		account.AccountType,
		account.AccountNumber,
		account.AccountName,
		account.Balance,
		account.CreatedAt,
		account.UpdatedAt,
	).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB) ([]domain.PaymentAccount, error) {
	var accounts []domain.PaymentAccount
	err := db.WithContext(ctx).
		Order("account_type asc, created_at asc, id asc").
		Find(&accounts).Error
	if err != nil {
		return nil, err
	}
	return accounts, nil
}

func (r *repo) ListByType(ctx context.Context, db *gorm.DB, accountType domain.Type) ([]domain.PaymentAccount, error) {
	var accounts []domain.PaymentAccount
	err := db.WithContext(ctx).
		Where("account_type = ?", accountType).
		Order("created_at asc, id asc").
		Find(&accounts).Error
	if err != nil {
		return nil, err
	}
	return accounts, nil
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.PaymentAccount, error) {
	var account domain.PaymentAccount
	err := db.WithContext(ctx).
		Where("id = ?", id).
		Take(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *repo) FindFirstByType(ctx context.Context, db *gorm.DB, accountType domain.Type) (*domain.PaymentAccount, error) {
	var account domain.PaymentAccount
	err := db.WithContext(ctx).
		Where("account_type = ?", accountType).
		Order("created_at asc, id asc").
		Take(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, id snowflake.ID, patch domain.UpdatePatch) (bool, error) {
	parts := make([]string, 0, 4)
	args := make([]any, 0, 5)
	if patch.AccountNumber != nil {
		parts = append(parts, "account_number = ?")
		args = append(args, *patch.AccountNumber)
	}
	if patch.AccountName != nil {
		parts = append(parts, "account_name = ?")
		args = append(args, *patch.AccountName)
	}
	if patch.Balance != nil {
		parts = append(parts, "balance = ?")
		args = append(args, *patch.Balance)
	}
	if len(parts) == 0 {
		return false, domain.ErrEmptyPatch
	}
	parts = append(parts, "updated_at = ?")
	args = append(args, time.Now().UTC(), id)

	result := db.WithContext(ctx).Exec(
		fmt.Sprintf("UPDATE payment_accounts SET %s WHERE id = ?", strings.Join(parts, ", ")),
		args...,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) (bool, error) {
	result := db.WithContext(ctx).Exec(
		"DELETE FROM payment_accounts WHERE id = ?", id)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
