package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	ledgerdomain "github.com/smallbiznis/lendora/internal/ledger/domain"
	obsmetrics "github.com/smallbiznis/lendora/internal/observability/metrics"
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
	Periods    *period.Resolver
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	periods    *period.Resolver
	obsMetrics *obsmetrics.Metrics
}

func NewService(p Params) ledgerdomain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("ledger.service"),
		genID:      p.GenID,
		periods:    p.Periods,
		obsMetrics: p.ObsMetrics,
	}
}

func (s *Service) Apply(ctx context.Context, tx *gorm.DB, d ledgerdomain.Delta) error {
	if tx == nil {
		return ledgerdomain.ErrNilTransaction
	}
	spec, ok := ledgerdomain.Lookup(d.Category)
	if !ok {
		return ledgerdomain.ErrUnknownCategory
	}
	if !d.Amount.IsZero() && spec.AmountColumn == "" {
		return fmt.Errorf("category %s carries no monetary field: %w", d.Category, ledgerdomain.ErrInvalidDelta)
	}
	if d.Count != 0 && spec.CountColumn == "" {
		return fmt.Errorf("category %s carries no count field: %w", d.Category, ledgerdomain.ErrInvalidDelta)
	}
	if d.Amount.IsZero() && d.Count == 0 {
		return nil
	}

	if !spec.DailyOnly {
		if err := s.bumpGlobal(ctx, tx, spec, d); err != nil {
			return fmt.Errorf("global tier: %w", err)
		}
	}

	if spec.Flow {
		key := s.periods.Current()
		if err := s.bumpDaily(ctx, tx, key, "", spec, d); err != nil {
			return fmt.Errorf("daily tier: %w", err)
		}
		if d.GroupID != "" && !spec.GlobalOnly {
			if err := s.bumpDaily(ctx, tx, key, d.GroupID, spec, d); err != nil {
				return fmt.Errorf("daily group tier: %w", err)
			}
		}
	}

	if d.GroupID != "" && !spec.GlobalOnly {
		if err := s.bumpGroup(ctx, tx, spec, d); err != nil {
			return fmt.Errorf("group tier: %w", err)
		}
	}

	if s.obsMetrics != nil {
		s.obsMetrics.RecordLedgerApply(string(d.Category))
	}
	return nil
}

func (s *Service) ApplyLiquidCapital(ctx context.Context, tx *gorm.DB, amount decimal.Decimal) error {
	if err := s.Apply(ctx, tx, ledgerdomain.Delta{Category: ledgerdomain.CategoryLiquidFunds, Amount: amount}); err != nil {
		return err
	}
	return s.Apply(ctx, tx, ledgerdomain.Delta{Category: ledgerdomain.CategoryLiquidFlow, Amount: amount})
}

func (s *Service) Totals(ctx context.Context) (ledgerdomain.GlobalLedger, error) {
	var row ledgerdomain.GlobalLedger
	err := s.db.WithContext(ctx).
		Where("id = ?", ledgerdomain.GlobalLedgerID).
		Take(&row).Error
	if err != nil {
		return ledgerdomain.GlobalLedger{}, err
	}
	return row, nil
}

func (s *Service) DailyRows(ctx context.Context, key period.Key) ([]ledgerdomain.DailyLedger, error) {
	var rows []ledgerdomain.DailyLedger
	err := s.db.WithContext(ctx).
		Where("period = ?", string(key)).
		Order("group_id asc").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *Service) GroupRows(ctx context.Context) ([]ledgerdomain.GroupLedger, error) {
	var rows []ledgerdomain.GroupLedger
	err := s.db.WithContext(ctx).
		Order("group_id asc").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// setClause builds the delta assignments for one tier. Column names come
// from the static category table only, never from caller-supplied strings.
func setClause(spec ledgerdomain.Spec, d ledgerdomain.Delta) (string, []any) {
	parts := make([]string, 0, 3)
	args := make([]any, 0, 3)
	if !d.Amount.IsZero() {
		parts = append(parts, fmt.Sprintf("%s = %s + ?", spec.AmountColumn, spec.AmountColumn))
		args = append(args, d.Amount)
	}
	if d.Count != 0 {
		parts = append(parts, fmt.Sprintf("%s = %s + ?", spec.CountColumn, spec.CountColumn))
		args = append(args, d.Count)
	}
	parts = append(parts, "updated_at = ?")
	args = append(args, time.Now().UTC())
	return strings.Join(parts, ", "), args
}

func (s *Service) bumpGlobal(ctx context.Context, tx *gorm.DB, spec ledgerdomain.Spec, d ledgerdomain.Delta) error {
	set, args := setClause(spec, d)
	args = append(args, ledgerdomain.GlobalLedgerID)
	result := tx.WithContext(ctx).Exec(
		"UPDATE global_ledgers SET "+set+" WHERE id = ?", args...)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (s *Service) bumpDaily(ctx context.Context, tx *gorm.DB, key period.Key, groupID string, spec ledgerdomain.Spec, d ledgerdomain.Delta) error {
	if err := tx.WithContext(ctx).Exec(
		`INSERT INTO daily_ledgers (id, period, group_id, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (period, group_id) DO NOTHING`,
		s.genID.Generate(),
		string(key),
		groupID,
		time.Now().UTC(),
	).Error; err != nil {
		return err
	}

	set, args := setClause(spec, d)
	args = append(args, string(key), groupID)
	return tx.WithContext(ctx).Exec(
		"UPDATE daily_ledgers SET "+set+" WHERE period = ? AND group_id = ?", args...).Error
}

func (s *Service) bumpGroup(ctx context.Context, tx *gorm.DB, spec ledgerdomain.Spec, d ledgerdomain.Delta) error {
	if err := tx.WithContext(ctx).Exec(
		`INSERT INTO group_ledgers (id, group_id, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT (group_id) DO NOTHING`,
		s.genID.Generate(),
		d.GroupID,
		time.Now().UTC(),
	).Error; err != nil {
		return err
	}

	set, args := setClause(spec, d)
	args = append(args, d.GroupID)
	return tx.WithContext(ctx).Exec(
		"UPDATE group_ledgers SET "+set+" WHERE group_id = ?", args...).Error
}
