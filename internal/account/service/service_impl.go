package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	accountdomain "github.com/smallbiznis/lendora/internal/account/domain"
	"github.com/smallbiznis/lendora/internal/clock"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  accountdomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  accountdomain.Repository
}

func NewService(p Params) accountdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("account.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req accountdomain.CreateRequest) (*accountdomain.PaymentAccount, error) {
	if !req.AccountType.Valid() {
		return nil, accountdomain.ErrInvalidType
	}
	number := strings.TrimSpace(req.AccountNumber)
	if number == "" {
		return nil, accountdomain.ErrInvalidNumber
	}
	name := strings.TrimSpace(req.AccountName)
	if name == "" {
		return nil, accountdomain.ErrInvalidName
	}
	if req.Balance.IsNegative() {
		return nil, accountdomain.ErrInvalidBalance
	}

	now := s.clock.Now()
	account := &accountdomain.PaymentAccount{
		ID:            s.genID.Generate(),
		AccountType:   req.AccountType,
		AccountNumber: number,
		AccountName:   name,
		Balance:       req.Balance,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.Insert(ctx, s.db, account); err != nil {
		return nil, err
	}
	return account, nil
}

func (s *Service) List(ctx context.Context) ([]accountdomain.PaymentAccount, error) {
	return s.repo.List(ctx, s.db)
}

func (s *Service) ListByType(ctx context.Context, accountType accountdomain.Type) ([]accountdomain.PaymentAccount, error) {
	if !accountType.Valid() {
		return nil, accountdomain.ErrInvalidType
	}
	return s.repo.ListByType(ctx, s.db, accountType)
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (*accountdomain.PaymentAccount, error) {
	account, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, accountdomain.ErrNotFound
	}
	return account, nil
}

func (s *Service) GetByType(ctx context.Context, accountType accountdomain.Type) (*accountdomain.PaymentAccount, error) {
	if !accountType.Valid() {
		return nil, accountdomain.ErrInvalidType
	}
	account, err := s.repo.FindFirstByType(ctx, s.db, accountType)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, accountdomain.ErrNotFound
	}
	return account, nil
}

func (s *Service) Update(ctx context.Context, id snowflake.ID, patch accountdomain.UpdatePatch) (*accountdomain.PaymentAccount, error) {
	if patch.Empty() {
		return nil, accountdomain.ErrEmptyPatch
	}
	if patch.AccountNumber != nil && strings.TrimSpace(*patch.AccountNumber) == "" {
		return nil, accountdomain.ErrInvalidNumber
	}
	if patch.AccountName != nil && strings.TrimSpace(*patch.AccountName) == "" {
		return nil, accountdomain.ErrInvalidName
	}
	if patch.Balance != nil && patch.Balance.IsNegative() {
		return nil, accountdomain.ErrInvalidBalance
	}

	ok, err := s.repo.Update(ctx, s.db, id, patch)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, accountdomain.ErrNotFound
	}
	return s.GetByID(ctx, id)
}

func (s *Service) SetBalance(ctx context.Context, id snowflake.ID, balance decimal.Decimal) (*accountdomain.PaymentAccount, error) {
	return s.Update(ctx, id, accountdomain.UpdatePatch{Balance: &balance})
}

func (s *Service) Delete(ctx context.Context, id snowflake.ID) error {
	ok, err := s.repo.Delete(ctx, s.db, id)
	if err != nil {
		return err
	}
	if !ok {
		return accountdomain.ErrNotFound
	}
	return nil
}
