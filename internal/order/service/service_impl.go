package service

import (
	"context"

	orderdomain "github.com/smallbiznis/lendora/internal/order/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB   *gorm.DB
	Log  *zap.Logger
	Repo orderdomain.Repository
}

type Service struct {
	db   *gorm.DB
	log  *zap.Logger
	repo orderdomain.Repository
}

func NewService(p Params) orderdomain.Service {
	return &Service{
		db:   p.DB,
		log:  p.Log.Named("order.service"),
		repo: p.Repo,
	}
}

func (s *Service) GetByChatID(ctx context.Context, chatID int64) (*orderdomain.Order, error) {
	order, err := s.repo.FindActiveByChatID(ctx, s.db, chatID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, orderdomain.ErrNotFound
	}
	return order, nil
}

func (s *Service) ListByGroupID(ctx context.Context, groupID string) ([]orderdomain.Order, error) {
	return s.repo.ListByGroupID(ctx, s.db, groupID)
}
