package database

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/dmehra2102/prod-golang-projects/medbook/internal/config"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain/appointment"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain/billing"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain/clinical"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain/doctor"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain/patient"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain/schedule"
)

// SlotUniqueIndex is the partial unique index that makes booking atomic:
// at most one non-cancelled appointment per (doctor, instant).
const SlotUniqueIndex = "uq_appointments_doctor_slot"

func Connect(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Silent),
		PrepareStmt:                              true,
		DisableForeignKeyConstraintWhenMigrating: false,
		DisableAutomaticPing:                     false,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DSN(),
		PreferSimpleProtocol: false,
	}), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	// Configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return db, nil
}

func Migrate(db *gorm.DB, log *zap.Logger) error {
	log.Info("running database migrations")
	start := time.Now()

	schemas := []string{"clinical", "auth", "audit", "billing"} // logical namespace
	for _, schema := range schemas {
		if err := db.Exec(fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", schema)).Error; err != nil {
			return fmt.Errorf("creating schema %s: %w", schema, err)
		}
	}

	models := []any{
		&domain.User{},
		&domain.AuditLog{},
		&patient.Patient{},
		&doctor.Specialty{},
		&doctor.Doctor{},
		&schedule.Block{},
		&appointment.Appointment{},
		&clinical.Medication{},
		&clinical.MedicalRecord{},
		&clinical.Treatment{},
		&clinical.Prescription{},
		&clinical.Exam{},
		&billing.Invoice{},
		&billing.Payment{},
	}

	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("auto-migrating models: %w", err)
	}

	if err := createIndexes(db, log); err != nil {
		return fmt.Errorf("creating indexes: %w", err)
	}

	log.Info("migrations completed", zap.Duration("duration", time.Since(start)))
	return nil
}

func createIndexes(db *gorm.DB, log *zap.Logger) error {
	indexes := []struct {
		name     string
		query    string
		required bool
	}{
		{
			name:     SlotUniqueIndex,
			query:    `CREATE UNIQUE INDEX IF NOT EXISTS ` + SlotUniqueIndex + ` ON clinical.appointments (doctor_id, scheduled_at) WHERE status <> 'cancelled'`,
			required: true,
		},
		{
			name:  "idx_appointments_time_range",
			query: `CREATE INDEX IF NOT EXISTS idx_appointments_time_range ON clinical.appointments (scheduled_at, status)`,
		},
		// Directory search on doctor names
		{
			name:  "idx_doctors_name_trgm",
			query: `CREATE INDEX IF NOT EXISTS idx_doctors_name_trgm ON clinical.doctors USING gin ((first_name || ' ' || last_name) gin_trgm_ops) WHERE is_active`,
		},
	}

	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS pg_trgm").Error; err != nil {
		log.Warn("pg_trgm extension unavailable, name search will scan", zap.Error(err))
	}

	for _, idx := range indexes {
		if err := db.Exec(idx.query).Error; err != nil {
			if idx.required {
				return fmt.Errorf("index %s: %w", idx.name, err)
			}
			log.Warn("optional index not created", zap.String("index", idx.name), zap.Error(err))
		}
	}

	return nil
}
