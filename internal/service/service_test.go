package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dmehra2102/prod-golang-projects/medbook/internal/clock"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain/doctor"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain/patient"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain/schedule"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/repository/memory"
	"github.com/dmehra2102/prod-golang-projects/medbook/pkg/metrics"
)

// Wednesday 2026-10-14 08:00 UTC. The next Monday is 2026-10-19.
var (
	testNow    = time.Date(2026, 10, 14, 8, 0, 0, 0, time.UTC)
	nextMonday = time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
)

func mondayAt(hhmm string) time.Time {
	return schedule.MustTimeOfDay(hhmm).On(nextMonday)
}

type testEnv struct {
	store   *memory.Store
	clock   *clock.Fixed
	metrics *metrics.Collector
	audit   *AuditService
	log     *zap.Logger

	doctorID  uuid.UUID
	patientID uuid.UUID

	doctor  domain.Actor
	patient domain.Actor
	admin   domain.Actor
	super   domain.Actor

	shutdown bool
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := memory.NewStore()
	m := metrics.NewCollector("test", prometheus.NewRegistry())
	log := zap.NewNop()

	env := &testEnv{
		store:   store,
		clock:   clock.NewFixed(testNow),
		metrics: m,
		audit:   NewAuditService(store.AuditLogs(), m, log),
		log:     log,
	}
	t.Cleanup(env.flushAudit)

	doctorUser := uuid.New()
	env.doctorID = store.AddDoctor(doctor.Doctor{UserID: doctorUser, FirstName: "Marta", LastName: "Quiroga", IsActive: true})
	env.patientID = env.addPatient()

	require.NoError(t, store.Schedules().CreateBlock(t.Context(), &schedule.Block{
		DoctorID: env.doctorID,
		Weekday:  time.Monday,
		Start:    schedule.MustTimeOfDay("09:00"),
		End:      schedule.MustTimeOfDay("11:00"),
	}))

	env.doctor = doctorActor(doctorUser, env.doctorID)
	env.patient = patientActor(env.patientID)
	env.admin = domain.Actor{UserID: uuid.New(), Roles: []domain.Role{domain.RoleAdmin}}
	env.super = domain.Actor{UserID: uuid.New(), Roles: []domain.Role{domain.RoleSuperAdmin}}
	return env
}

func (e *testEnv) addPatient() uuid.UUID {
	return e.store.AddPatient(patientRecord())
}

// flushAudit drains the audit worker so persisted entries can be asserted.
func (e *testEnv) flushAudit() {
	if e.shutdown {
		return
	}
	e.shutdown = true
	e.audit.Shutdown()
}

func (e *testEnv) scheduling(cache SlotCache) *SchedulingService {
	return NewSchedulingService(SchedulingDeps{
		Schedules:    e.store.Schedules(),
		Appointments: e.store.Appointments(),
		Doctors:      e.store.Doctors(),
		Patients:     e.store.Patients(),
		Resolver:     e.store.Ownership(),
		Clock:        e.clock,
		Cache:        cache,
		Audit:        e.audit,
		Metrics:      e.metrics,
		Log:          e.log,
		SlotWidth:    30 * time.Minute,
	})
}

func patientRecord() patient.Patient {
	return patient.Patient{
		UserID:      uuid.New(),
		FirstName:   "Tomás",
		LastName:    "Herrera",
		DateOfBirth: time.Date(1984, 7, 21, 0, 0, 0, 0, time.UTC),
		Gender:      patient.GenderMale,
	}
}

func patientActor(patientID uuid.UUID) domain.Actor {
	return domain.Actor{UserID: uuid.New(), Roles: []domain.Role{domain.RolePatient}, PatientID: &patientID}
}

func doctorActor(userID, doctorID uuid.UUID) domain.Actor {
	return domain.Actor{UserID: userID, Roles: []domain.Role{domain.RoleDoctor}, DoctorID: &doctorID}
}
