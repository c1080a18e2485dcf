package infra

import (
	"time"

	"github.com/jmoris/STPark-sub000/internal/config"
	"github.com/jmoris/STPark-sub000/internal/model"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase opens the Postgres connection pool and runs migrations.
func NewDatabase(cfg *config.Config) (*gorm.DB, error) {
	gormLogLevel := logger.Warn
	if cfg.Env == "development" {
		gormLogLevel = logger.Info
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger:         logger.Default.LogMode(gormLogLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if err := migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Sector{},
		&model.Street{},
		&model.Operator{},
		&model.PricingProfile{},
		&model.PricingRule{},
		&model.SessionDiscount{},
		&model.ParkingSession{},
		&model.Shift{},
		&model.ShiftOperation{},
		&model.CashAdjustment{},
		&model.Payment{},
		&model.Debt{},
	); err != nil {
		return err
	}
	applySchemaPatches(db)
	return nil
}

// applySchemaPatches creates constraints AutoMigrate cannot express. Every
// statement is idempotent, so re-running on startup is safe.
func applySchemaPatches(db *gorm.DB) {
	patches := []string{
		// One OPEN shift per operator and device. COALESCE folds the nullable
		// device into the key so a NULL device still conflicts with itself.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_shifts_one_open
		   ON shifts (tenant_id, operator_id, COALESCE(device_id, ''))
		   WHERE status = 'OPEN'`,
		// Gateway confirmations are idempotent by provider transaction id.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_payments_provider_tx
		   ON payments (provider_tx_id)
		   WHERE provider_tx_id IS NOT NULL`,
		// One ACTIVE session per plate and tenant.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_sessions_one_active_plate
		   ON parking_sessions (tenant_id, plate)
		   WHERE status = 'ACTIVE'`,
		`CREATE INDEX IF NOT EXISTS idx_debts_plate_status
		   ON debts (tenant_id, plate, status)`,
		`CREATE INDEX IF NOT EXISTS idx_shift_operations_shift_kind
		   ON shift_operations (shift_id, kind)`,
	}
	for _, stmt := range patches {
		if err := db.Exec(stmt).Error; err != nil {
			log.Warn().Err(err).Msg("schema patch failed")
		}
	}
}
