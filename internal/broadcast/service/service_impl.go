package service

import (
	"context"
	"fmt"
	"strings"

	broadcastdomain "github.com/smallbiznis/lendora/internal/broadcast/domain"
	"github.com/smallbiznis/lendora/internal/clock"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	Clock     clock.Clock
	Repo      broadcastdomain.Repository
	Registrar broadcastdomain.Registrar
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	clock     clock.Clock
	repo      broadcastdomain.Repository
	registrar broadcastdomain.Registrar
}

func NewService(p Params) broadcastdomain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("broadcast.service"),
		clock:     p.Clock,
		repo:      p.Repo,
		registrar: p.Registrar,
	}
}

func (s *Service) Configure(ctx context.Context, req broadcastdomain.ConfigureRequest) (*broadcastdomain.BroadcastSlot, error) {
	if !broadcastdomain.ValidSlot(req.Slot) {
		return nil, broadcastdomain.ErrSlotOutOfRange
	}
	canonical, err := broadcastdomain.NormalizeTime(req.Time)
	if err != nil {
		return nil, err
	}
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, broadcastdomain.ErrEmptyMessage
	}

	row := &broadcastdomain.BroadcastSlot{
		Slot:      req.Slot,
		SendTime:  canonical,
		ChatID:    req.ChatID,
		ChatTitle: strings.TrimSpace(req.ChatTitle),
		Message:   message,
		IsActive:  true,
		UpdatedAt: s.clock.Now(),
	}
	if err := s.repo.Upsert(ctx, s.db, row); err != nil {
		return nil, err
	}
	if err := s.reconcile(ctx); err != nil {
		return nil, err
	}
	return row, nil
}

func (s *Service) SetActive(ctx context.Context, slot int, active bool) (*broadcastdomain.BroadcastSlot, error) {
	if !broadcastdomain.ValidSlot(slot) {
		return nil, broadcastdomain.ErrSlotOutOfRange
	}
	ok, err := s.repo.SetActive(ctx, s.db, slot, active)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, broadcastdomain.ErrSlotNotFound
	}
	if err := s.reconcile(ctx); err != nil {
		return nil, err
	}
	return s.Get(ctx, slot)
}

func (s *Service) Delete(ctx context.Context, slot int) error {
	if !broadcastdomain.ValidSlot(slot) {
		return broadcastdomain.ErrSlotOutOfRange
	}
	ok, err := s.repo.Delete(ctx, s.db, slot)
	if err != nil {
		return err
	}
	if !ok {
		return broadcastdomain.ErrSlotNotFound
	}
	return s.reconcile(ctx)
}

func (s *Service) Get(ctx context.Context, slot int) (*broadcastdomain.BroadcastSlot, error) {
	if !broadcastdomain.ValidSlot(slot) {
		return nil, broadcastdomain.ErrSlotOutOfRange
	}
	row, err := s.repo.Find(ctx, s.db, slot)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, broadcastdomain.ErrSlotNotFound
	}
	return row, nil
}

func (s *Service) List(ctx context.Context) ([]broadcastdomain.BroadcastSlot, error) {
	return s.repo.List(ctx, s.db)
}

func (s *Service) reconcile(ctx context.Context) error {
	if err := s.registrar.Reconcile(ctx); err != nil {
		s.log.Error("scheduler rebuild failed after slot change", zap.Error(err))
		return fmt.Errorf("reconcile broadcast jobs: %w", err)
	}
	return nil
}
