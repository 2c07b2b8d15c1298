// Package postgres implements the repositories on gorm and PostgreSQL.
// Booking atomicity rests on the partial unique index created by
// database.Migrate; the repositories translate its violation into
// appointment.ErrSlotTaken.
package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/dmehra2102/prod-golang-projects/medbook/pkg/database"
)

const uniqueViolation = "23505"

// Store bundles the repositories sharing one connection pool.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Appointments() *AppointmentRepo { return &AppointmentRepo{db: s.db} }
func (s *Store) Schedules() *ScheduleRepo       { return &ScheduleRepo{db: s.db} }
func (s *Store) Doctors() *DoctorRepo           { return &DoctorRepo{db: s.db} }
func (s *Store) Patients() *PatientRepo         { return &PatientRepo{db: s.db} }
func (s *Store) Users() *UserRepo               { return &UserRepo{db: s.db} }
func (s *Store) AuditLogs() *AuditRepo          { return &AuditRepo{db: s.db} }
func (s *Store) Ownership() *OwnershipResolver  { return &OwnershipResolver{db: s.db} }

// isSlotViolation reports a unique violation of the booking index.
func isSlotViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && pgErr.ConstraintName == database.SlotUniqueIndex
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
