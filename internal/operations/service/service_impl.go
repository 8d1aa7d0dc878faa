package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/lendora/internal/clock"
	ledgerdomain "github.com/smallbiznis/lendora/internal/ledger/domain"
	obsmetrics "github.com/smallbiznis/lendora/internal/observability/metrics"
	opsdomain "github.com/smallbiznis/lendora/internal/operations/domain"
	orderdomain "github.com/smallbiznis/lendora/internal/order/domain"
	"github.com/smallbiznis/lendora/internal/period"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	Periods    *period.Resolver
	OrderRepo  orderdomain.Repository
	LedgerSvc  ledgerdomain.Service
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	periods    *period.Resolver
	orderRepo  orderdomain.Repository
	ledgerSvc  ledgerdomain.Service
	obsMetrics *obsmetrics.Metrics
}

func NewService(p Params) opsdomain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("operations.service"),
		genID:      p.GenID,
		clock:      p.Clock,
		periods:    p.Periods,
		orderRepo:  p.OrderRepo,
		ledgerSvc:  p.LedgerSvc,
		obsMetrics: p.ObsMetrics,
	}
}

func (s *Service) CreateOrder(ctx context.Context, req opsdomain.CreateOrderRequest) (opsdomain.Result, error) {
	const op = "create_order"
	if req.Amount.IsNegative() || req.Amount.IsZero() {
		return s.reject(op, opsdomain.Result{}, orderdomain.ErrInvalidAmount)
	}
	if strings.TrimSpace(req.GroupID) == "" {
		return s.reject(op, opsdomain.Result{}, fmt.Errorf("group id is required: %w", orderdomain.ErrInvalidState))
	}

	now := s.clock.Now()
	order := orderdomain.Order{
		ID:           s.genID.Generate(),
		ChatID:       req.ChatID,
		GroupID:      strings.TrimSpace(req.GroupID),
		Customer:     strings.TrimSpace(req.Customer),
		Amount:       req.Amount,
		OrderDate:    now,
		WeekdayGroup: s.periods.WeekdayGroup(),
		State:        orderdomain.StateNormal,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	clientCategory := ledgerdomain.CategoryNewClients
	if req.ReturningClient {
		clientCategory = ledgerdomain.CategoryOldClients
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.orderRepo.FindActiveByChatIDForUpdate(ctx, tx, req.ChatID)
		if err != nil {
			return err
		}
		if existing != nil {
			return orderdomain.ErrActiveOrderExists
		}
		if err := s.orderRepo.Insert(ctx, tx, &order); err != nil {
			return err
		}
		if err := s.ledgerSvc.Apply(ctx, tx, ledgerdomain.Delta{
			Category: ledgerdomain.CategoryValid,
			Amount:   req.Amount,
			Count:    1,
			GroupID:  order.GroupID,
		}); err != nil {
			return err
		}
		return s.ledgerSvc.Apply(ctx, tx, ledgerdomain.Delta{
			Category: clientCategory,
			Count:    1,
			GroupID:  order.GroupID,
		})
	})
	if err != nil {
		return s.fail(op, err)
	}

	s.record(op, obsmetrics.OutcomeOK)
	return opsdomain.Result{Order: order}, nil
}

func (s *Service) MarkNormal(ctx context.Context, chatID int64) (opsdomain.Result, error) {
	return s.transition(ctx, "mark_normal", chatID, orderdomain.StateNormal, nil)
}

func (s *Service) MarkOverdue(ctx context.Context, chatID int64) (opsdomain.Result, error) {
	return s.transition(ctx, "mark_overdue", chatID, orderdomain.StateOverdue, nil)
}

func (s *Service) CompleteOrder(ctx context.Context, chatID int64) (opsdomain.Result, error) {
	return s.transition(ctx, "complete_order", chatID, orderdomain.StateEnd,
		func(tx *gorm.DB, order *orderdomain.Order) error {
			if err := s.ledgerSvc.Apply(ctx, tx, ledgerdomain.Delta{
				Category: ledgerdomain.CategoryValid,
				Amount:   order.Amount.Neg(),
				Count:    -1,
				GroupID:  order.GroupID,
			}); err != nil {
				return err
			}
			if err := s.ledgerSvc.Apply(ctx, tx, ledgerdomain.Delta{
				Category: ledgerdomain.CategoryCompleted,
				Amount:   order.Amount,
				Count:    1,
				GroupID:  order.GroupID,
			}); err != nil {
				return err
			}
			return s.ledgerSvc.ApplyLiquidCapital(ctx, tx, order.Amount)
		})
}

func (s *Service) MarkBreach(ctx context.Context, chatID int64) (opsdomain.Result, error) {
	// Funds are not recovered on breach, so liquid capital is untouched.
	return s.transition(ctx, "mark_breach", chatID, orderdomain.StateBreach,
		func(tx *gorm.DB, order *orderdomain.Order) error {
			if err := s.ledgerSvc.Apply(ctx, tx, ledgerdomain.Delta{
				Category: ledgerdomain.CategoryValid,
				Amount:   order.Amount.Neg(),
				Count:    -1,
				GroupID:  order.GroupID,
			}); err != nil {
				return err
			}
			return s.ledgerSvc.Apply(ctx, tx, ledgerdomain.Delta{
				Category: ledgerdomain.CategoryBreach,
				Amount:   order.Amount,
				Count:    1,
				GroupID:  order.GroupID,
			})
		})
}

func (s *Service) SettleBreach(ctx context.Context, chatID int64, amount decimal.Decimal) (opsdomain.Result, error) {
	const op = "settle_breach"
	if amount.IsNegative() || amount.IsZero() {
		return s.reject(op, opsdomain.Result{}, orderdomain.ErrInvalidAmount)
	}

	result, err := s.transition(ctx, op, chatID, orderdomain.StateBreachEnd,
		func(tx *gorm.DB, order *orderdomain.Order) error {
			if err := s.ledgerSvc.Apply(ctx, tx, ledgerdomain.Delta{
				Category: ledgerdomain.CategoryBreachEnd,
				Amount:   amount,
				Count:    1,
				GroupID:  order.GroupID,
			}); err != nil {
				return err
			}
			return s.ledgerSvc.ApplyLiquidCapital(ctx, tx, amount)
		})
	if err != nil {
		return result, err
	}
	result.Settled = amount
	return result, nil
}

func (s *Service) ReducePrincipal(ctx context.Context, chatID int64, amount decimal.Decimal) (opsdomain.Result, error) {
	const op = "reduce_principal"
	if amount.IsNegative() || amount.IsZero() {
		return s.reject(op, opsdomain.Result{}, orderdomain.ErrInvalidAmount)
	}

	var result opsdomain.Result
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := s.orderRepo.FindActiveByChatIDForUpdate(ctx, tx, chatID)
		if err != nil {
			return err
		}
		if order == nil {
			return orderdomain.ErrNotFound
		}
		if order.State != orderdomain.StateNormal && order.State != orderdomain.StateOverdue {
			return orderdomain.ErrPreconditionFailed
		}
		if amount.GreaterThan(order.Amount) {
			return fmt.Errorf("reduction %s exceeds remaining %s: %w",
				amount.StringFixed(2), order.Amount.StringFixed(2), orderdomain.ErrPreconditionFailed)
		}

		ok, err := s.orderRepo.ReduceAmount(ctx, tx, chatID, amount)
		if err != nil {
			return err
		}
		if !ok {
			return orderdomain.ErrPreconditionFailed
		}

		if err := s.ledgerSvc.Apply(ctx, tx, ledgerdomain.Delta{
			Category: ledgerdomain.CategoryValid,
			Amount:   amount.Neg(),
			GroupID:  order.GroupID,
		}); err != nil {
			return err
		}
		if err := s.ledgerSvc.Apply(ctx, tx, ledgerdomain.Delta{
			Category: ledgerdomain.CategoryCompleted,
			Amount:   amount,
			GroupID:  order.GroupID,
		}); err != nil {
			return err
		}
		if err := s.ledgerSvc.ApplyLiquidCapital(ctx, tx, amount); err != nil {
			return err
		}

		order.Amount = order.Amount.Sub(amount)
		order.UpdatedAt = s.clock.Now()
		result = opsdomain.Result{Order: *order, Settled: amount}
		return nil
	})
	if err != nil {
		return s.fail(op, err)
	}

	s.record(op, obsmetrics.OutcomeOK)
	return result, nil
}

func (s *Service) RecordInterest(ctx context.Context, chatID int64, amount decimal.Decimal) error {
	const op = "record_interest"
	if amount.IsNegative() || amount.IsZero() {
		_, err := s.reject(op, opsdomain.Result{}, orderdomain.ErrInvalidAmount)
		return err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		groupID := ""
		order, err := s.orderRepo.FindActiveByChatID(ctx, tx, chatID)
		if err != nil {
			return err
		}
		if order != nil {
			groupID = order.GroupID
		}

		if err := s.ledgerSvc.Apply(ctx, tx, ledgerdomain.Delta{
			Category: ledgerdomain.CategoryInterest,
			Amount:   amount,
			GroupID:  groupID,
		}); err != nil {
			return err
		}
		return s.ledgerSvc.ApplyLiquidCapital(ctx, tx, amount)
	})
	if err != nil {
		_, err = s.fail(op, err)
		return err
	}

	s.record(op, obsmetrics.OutcomeOK)
	return nil
}

// transition runs one guarded state change plus its ledger effects as a
// single transaction. The effects callback sees the pre-transition order.
func (s *Service) transition(
	ctx context.Context,
	op string,
	chatID int64,
	target orderdomain.State,
	effects func(tx *gorm.DB, order *orderdomain.Order) error,
) (opsdomain.Result, error) {
	var result opsdomain.Result
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := s.orderRepo.FindActiveByChatIDForUpdate(ctx, tx, chatID)
		if err != nil {
			return err
		}
		if order == nil {
			return orderdomain.ErrNotFound
		}
		if !orderdomain.CanTransition(order.State, target) {
			return fmt.Errorf("cannot move %s order to %s: %w", order.State, target, orderdomain.ErrPreconditionFailed)
		}

		updated, err := s.orderRepo.UpdateState(ctx, tx, chatID, orderdomain.AllowedSources(target), target)
		if err != nil {
			return err
		}
		if !updated {
			// A concurrent transition won the guard.
			return orderdomain.ErrPreconditionFailed
		}

		if effects != nil {
			if err := effects(tx, order); err != nil {
				return err
			}
		}

		order.State = target
		result = opsdomain.Result{Order: *order}
		return nil
	})
	if err != nil {
		return s.fail(op, err)
	}

	s.record(op, obsmetrics.OutcomeOK)
	return result, nil
}

func (s *Service) reject(op string, result opsdomain.Result, err error) (opsdomain.Result, error) {
	s.record(op, classify(err))
	return result, err
}

func (s *Service) fail(op string, err error) (opsdomain.Result, error) {
	outcome := classify(err)
	if outcome == obsmetrics.OutcomeStorage {
		// A storage failure inside the transaction means the whole unit
		// rolled back; flag it apart from operator input rejections.
		s.log.Error("financial transaction aborted",
			zap.String("operation", op),
			zap.Error(err),
		)
	}
	s.record(op, outcome)
	return opsdomain.Result{}, err
}

func (s *Service) record(op, outcome string) {
	if s.obsMetrics != nil {
		s.obsMetrics.RecordOperation(op, outcome)
	}
}

func classify(err error) string {
	switch {
	case err == nil:
		return obsmetrics.OutcomeOK
	case errors.Is(err, orderdomain.ErrPreconditionFailed),
		errors.Is(err, orderdomain.ErrActiveOrderExists):
		return obsmetrics.OutcomePrecondition
	case errors.Is(err, orderdomain.ErrNotFound):
		return obsmetrics.OutcomeNotFound
	case errors.Is(err, orderdomain.ErrInvalidAmount),
		errors.Is(err, orderdomain.ErrInvalidState):
		return obsmetrics.OutcomeValidation
	default:
		return obsmetrics.OutcomeStorage
	}
}
