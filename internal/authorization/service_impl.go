package authorization

import (
	"context"
	"errors"
	"time"

	"github.com/smallbiznis/lendora/internal/clock"
	"github.com/smallbiznis/lendora/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Operator is a chat operator granted access at runtime, on top of the
// admin IDs fixed in configuration.
type Operator struct {
	OperatorID int64     `gorm:"primaryKey;autoIncrement:false" json:"operator_id"`
	GrantedBy  int64     `gorm:"not null" json:"granted_by"`
	CreatedAt  time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (Operator) TableName() string { return "authorized_operators" }

var (
	ErrNotAuthorized = errors.New("operator_not_authorized")
	ErrAdminOnly     = errors.New("admin_only")
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Cfg   config.Config
	Clock clock.Clock
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	cfg   config.Config
	clock clock.Clock
}

func NewService(p Params) *Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("authorization.service"),
		cfg:   p.Cfg,
		clock: p.Clock,
	}
}

// IsAdmin reports whether the operator is in the configured admin set.
func (s *Service) IsAdmin(operatorID int64) bool {
	return s.cfg.IsAdminOperator(operatorID)
}

// IsAuthorized reports whether the operator may issue commands: either a
// configured admin or present in the authorized_operators table.
func (s *Service) IsAuthorized(ctx context.Context, operatorID int64) (bool, error) {
	if s.IsAdmin(operatorID) {
		return true, nil
	}
	var count int64
	err := s.db.WithContext(ctx).
		Model(&Operator{}).
		Where("operator_id = ?", operatorID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Grant adds an operator. Only admins may grant; grants are idempotent.
func (s *Service) Grant(ctx context.Context, adminID, operatorID int64) error {
	if !s.IsAdmin(adminID) {
		return ErrAdminOnly
	}
	return s.db.WithContext(ctx).Exec(
		`INSERT INTO authorized_operators (operator_id, granted_by, created_at) VALUES (?, ?, ?)
		 ON CONFLICT (operator_id) DO NOTHING`,
		operatorID,
		adminID,
		s.clock.Now(),
	).Error
}

// Revoke removes a runtime grant. Configured admins cannot be revoked.
func (s *Service) Revoke(ctx context.Context, adminID, operatorID int64) error {
	if !s.IsAdmin(adminID) {
		return ErrAdminOnly
	}
	result := s.db.WithContext(ctx).Exec(
		"DELETE FROM authorized_operators WHERE operator_id = ?", operatorID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotAuthorized
	}
	return nil
}

var Module = fx.Module("authorization.service",
	fx.Provide(NewService),
)
