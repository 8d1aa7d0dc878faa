package migration

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	accountdomain "github.com/smallbiznis/lendora/internal/account/domain"
	"github.com/smallbiznis/lendora/internal/authorization"
	broadcastdomain "github.com/smallbiznis/lendora/internal/broadcast/domain"
	ledgerdomain "github.com/smallbiznis/lendora/internal/ledger/domain"
	orderdomain "github.com/smallbiznis/lendora/internal/order/domain"
	"gorm.io/gorm"
)

//go:embed sql/*.sql
var embeddedMigrations embed.FS

const migrationsDir = "sql"

// RunMigrations applies the embedded postgres schema. The sqlite path
// uses AutoMigrate instead; the SQL files carry postgres types.
func RunMigrations(db *sql.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}

	sub, err := fs.Sub(embeddedMigrations, migrationsDir)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", upErr)
	}
	// Do not call migrator.Close here because it would close the shared *sql.DB.

	return nil
}

// AutoMigrate builds the schema through gorm for the embedded sqlite
// deployment and for tests.
func AutoMigrate(conn *gorm.DB) error {
	return conn.AutoMigrate(
		&orderdomain.Order{},
		&ledgerdomain.GlobalLedger{},
		&ledgerdomain.DailyLedger{},
		&ledgerdomain.GroupLedger{},
		&accountdomain.PaymentAccount{},
		&broadcastdomain.BroadcastSlot{},
		&authorization.Operator{},
	)
}
