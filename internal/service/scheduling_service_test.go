package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain/appointment"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain/doctor"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain/patient"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/scheduling"
)

type mockSlotCache struct {
	mock.Mock
}

func (m *mockSlotCache) Get(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]scheduling.Slot, int64, bool, error) {
	args := m.Called(ctx, doctorID, date)
	slots, _ := args.Get(0).([]scheduling.Slot)
	return slots, args.Get(1).(int64), args.Bool(2), args.Error(3)
}

func (m *mockSlotCache) Set(ctx context.Context, doctorID uuid.UUID, date time.Time, gen int64, slots []scheduling.Slot) error {
	return m.Called(ctx, doctorID, date, gen, slots).Error(0)
}

func (m *mockSlotCache) Invalidate(ctx context.Context, doctorID uuid.UUID) error {
	return m.Called(ctx, doctorID).Error(0)
}

func (e *testEnv) seedAppointment(t *testing.T, patientID uuid.UUID, at time.Time, status appointment.Status) *appointment.Appointment {
	t.Helper()
	a := &appointment.Appointment{PatientID: patientID, DoctorID: e.doctorID, ScheduledAt: at, Status: status, Version: 1}
	require.NoError(t, e.store.Appointments().AtomicCreate(t.Context(), a))
	return a
}

func TestGetAvailableSlots_ConfirmedBookingRemovesSlot(t *testing.T) {
	env := newTestEnv(t)
	svc := env.scheduling(nil)
	env.seedAppointment(t, env.patientID, mondayAt("10:00"), appointment.StatusConfirmed)

	slots, err := svc.GetAvailableSlots(t.Context(), env.patient, env.doctorID, nextMonday)
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00", "09:30", "10:30"}, scheduling.Labels(slots))
}

func TestGetAvailableSlots_IdempotentRequery(t *testing.T) {
	env := newTestEnv(t)
	svc := env.scheduling(nil)
	env.seedAppointment(t, env.patientID, mondayAt("09:30"), appointment.StatusPending)

	first, err := svc.GetAvailableSlots(t.Context(), env.patient, env.doctorID, nextMonday)
	require.NoError(t, err)
	second, err := svc.GetAvailableSlots(t.Context(), env.patient, env.doctorID, nextMonday)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestGetAvailableSlots_Rejections(t *testing.T) {
	env := newTestEnv(t)
	svc := env.scheduling(nil)

	_, err := svc.GetAvailableSlots(t.Context(), env.patient, env.doctorID, testNow.AddDate(0, 0, -1))
	assert.ErrorIs(t, err, appointment.ErrInvalidDate)

	_, err = svc.GetAvailableSlots(t.Context(), env.patient, uuid.New(), nextMonday)
	assert.ErrorIs(t, err, doctor.ErrDoctorNotFound)

	_, err = svc.GetAvailableSlots(t.Context(), domain.Actor{}, env.doctorID, nextMonday)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestGetAvailableSlots_TodayIsNotPast(t *testing.T) {
	env := newTestEnv(t)
	svc := env.scheduling(nil)

	slots, err := svc.GetAvailableSlots(t.Context(), env.patient, env.doctorID, testNow)
	require.NoError(t, err)
	assert.Empty(t, slots, "no Wednesday blocks")
}

func TestGetAvailableSlots_UsesCache(t *testing.T) {
	env := newTestEnv(t)
	cache := new(mockSlotCache)
	svc := env.scheduling(cache)

	cached := []scheduling.Slot{{Start: mondayAt("09:00")}}
	cache.On("Get", mock.Anything, env.doctorID, nextMonday).Return(nil, int64(7), false, nil).Once()
	cache.On("Set", mock.Anything, env.doctorID, nextMonday, int64(7), mock.MatchedBy(func(s []scheduling.Slot) bool {
		return len(s) == 4
	})).Return(nil).Once()
	cache.On("Get", mock.Anything, env.doctorID, nextMonday).Return(cached, int64(7), true, nil).Once()

	first, err := svc.GetAvailableSlots(t.Context(), env.patient, env.doctorID, nextMonday)
	require.NoError(t, err)
	assert.Len(t, first, 4)

	second, err := svc.GetAvailableSlots(t.Context(), env.patient, env.doctorID, nextMonday)
	require.NoError(t, err)
	assert.Equal(t, cached, second)

	cache.AssertExpectations(t)
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.SlotQueriesTotal.WithLabelValues("cache")))
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.SlotQueriesTotal.WithLabelValues("store")))
}

func TestBookAppointment_PatientBooksOwnSlot(t *testing.T) {
	env := newTestEnv(t)
	cache := new(mockSlotCache)
	cache.On("Invalidate", mock.Anything, env.doctorID).Return(nil).Once()
	svc := env.scheduling(cache)

	a, err := svc.BookAppointment(t.Context(), env.patient, &appointment.CreateAppointmentCommand{
		PatientID:   env.patientID,
		DoctorID:    env.doctorID,
		ScheduledAt: mondayAt("09:30"),
		Reason:      "  annual check-up ",
	})
	require.NoError(t, err)
	assert.Equal(t, appointment.StatusPending, a.Status)
	assert.Equal(t, "annual check-up", a.Reason)
	assert.Equal(t, env.patient.UserID, a.CreatedBy)
	cache.AssertExpectations(t)

	cache.On("Get", mock.Anything, env.doctorID, nextMonday).Return(nil, int64(0), false, nil)
	cache.On("Set", mock.Anything, env.doctorID, nextMonday, int64(0), mock.Anything).Return(nil)
	slots, err := svc.GetAvailableSlots(t.Context(), env.patient, env.doctorID, nextMonday)
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00", "10:00", "10:30"}, scheduling.Labels(slots))

	env.flushAudit()
	logs, total, err := env.store.AuditLogs().List(context.Background(), &domain.ListAuditLogsQuery{ResourceID: a.ID.String()})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, domain.ActionCreate, logs[0].Action)
	assert.Equal(t, "patient", logs[0].UserRoles)
}

func TestBookAppointment_NonOwnerPatientForbidden(t *testing.T) {
	env := newTestEnv(t)
	svc := env.scheduling(nil)
	intruder := patientActor(env.addPatient())

	_, err := svc.BookAppointment(t.Context(), intruder, &appointment.CreateAppointmentCommand{
		PatientID:   env.patientID,
		DoctorID:    env.doctorID,
		ScheduledAt: mondayAt("09:00"),
	})
	require.ErrorIs(t, err, domain.ErrForbidden)
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.BookingsTotal.WithLabelValues("denied")))

	page, err := svc.ListAppointments(t.Context(), env.admin, &appointment.ListAppointmentsQuery{})
	require.NoError(t, err)
	assert.Zero(t, page.TotalCount, "nothing was created")
}

func TestBookAppointment_Rejections(t *testing.T) {
	env := newTestEnv(t)
	svc := env.scheduling(nil)
	env.seedAppointment(t, env.addPatient(), mondayAt("10:00"), appointment.StatusPending)

	inactiveID := env.store.AddPatient(func() patient.Patient {
		p := patientRecord()
		p.Status = patient.StatusInactive
		return p
	}())

	tests := []struct {
		name string
		cmd  appointment.CreateAppointmentCommand
		want error
	}{
		{"past datetime", appointment.CreateAppointmentCommand{PatientID: env.patientID, DoctorID: env.doctorID, ScheduledAt: testNow.Add(-time.Hour)}, appointment.ErrInvalidDate},
		{"outside blocks", appointment.CreateAppointmentCommand{PatientID: env.patientID, DoctorID: env.doctorID, ScheduledAt: mondayAt("12:00")}, appointment.ErrOutsideAvailability},
		{"off the slot grid", appointment.CreateAppointmentCommand{PatientID: env.patientID, DoctorID: env.doctorID, ScheduledAt: mondayAt("09:15")}, appointment.ErrOutsideAvailability},
		{"slot taken", appointment.CreateAppointmentCommand{PatientID: env.patientID, DoctorID: env.doctorID, ScheduledAt: mondayAt("10:00")}, appointment.ErrSlotTaken},
		{"unknown doctor", appointment.CreateAppointmentCommand{PatientID: env.patientID, DoctorID: uuid.New(), ScheduledAt: mondayAt("09:00")}, doctor.ErrDoctorNotFound},
		{"inactive patient", appointment.CreateAppointmentCommand{PatientID: inactiveID, DoctorID: env.doctorID, ScheduledAt: mondayAt("09:00")}, patient.ErrPatientInactive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.BookAppointment(t.Context(), env.admin, &tt.cmd)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestBookAppointment_ReasonTooLong(t *testing.T) {
	env := newTestEnv(t)
	svc := env.scheduling(nil)

	long := make([]byte, maxReasonLength+1)
	for i := range long {
		long[i] = 'x'
	}
	_, err := svc.BookAppointment(t.Context(), env.patient, &appointment.CreateAppointmentCommand{
		PatientID: env.patientID, DoctorID: env.doctorID, ScheduledAt: mondayAt("09:00"), Reason: string(long),
	})
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestChangeAppointmentStatus_DoctorLifecycle(t *testing.T) {
	env := newTestEnv(t)
	svc := env.scheduling(nil)
	a := env.seedAppointment(t, env.patientID, mondayAt("09:00"), appointment.StatusPending)

	confirmed, err := svc.ChangeAppointmentStatus(t.Context(), env.doctor, a.ID, appointment.StatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, appointment.StatusConfirmed, confirmed.Status)
	assert.Equal(t, 2, confirmed.Version)

	completed, err := svc.ChangeAppointmentStatus(t.Context(), env.doctor, a.ID, appointment.StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, appointment.StatusCompleted, completed.Status)
	require.NotNil(t, completed.CompletedAt)

	stored, err := env.store.Appointments().GetByID(t.Context(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, appointment.StatusCompleted, stored.Status)

	_, err = svc.ChangeAppointmentStatus(t.Context(), env.admin, a.ID, appointment.StatusCancelled)
	assert.ErrorIs(t, err, appointment.ErrInvalidTransition, "terminal states are final even for admins")
}

func TestChangeAppointmentStatus_ConfirmThenPendingIsInvalid(t *testing.T) {
	env := newTestEnv(t)
	svc := env.scheduling(nil)
	a := env.seedAppointment(t, env.patientID, mondayAt("09:00"), appointment.StatusPending)

	_, err := svc.ChangeAppointmentStatus(t.Context(), env.doctor, a.ID, appointment.StatusConfirmed)
	require.NoError(t, err)

	_, err = svc.ChangeAppointmentStatus(t.Context(), env.doctor, a.ID, appointment.StatusPending)
	require.ErrorIs(t, err, appointment.ErrInvalidTransition)

	var terr *appointment.TransitionError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, appointment.StatusConfirmed, terr.From)

	stored, err := env.store.Appointments().GetByID(t.Context(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, appointment.StatusConfirmed, stored.Status)
	assert.Equal(t, 2, stored.Version)
}

func TestChangeAppointmentStatus_PatientRules(t *testing.T) {
	env := newTestEnv(t)
	svc := env.scheduling(nil)
	a := env.seedAppointment(t, env.patientID, mondayAt("09:00"), appointment.StatusPending)

	_, err := svc.ChangeAppointmentStatus(t.Context(), env.patient, a.ID, appointment.StatusConfirmed)
	assert.ErrorIs(t, err, domain.ErrForbidden, "patients cannot confirm")

	stranger := patientActor(env.addPatient())
	_, err = svc.ChangeAppointmentStatus(t.Context(), stranger, a.ID, appointment.StatusCancelled)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	cancelled, err := svc.ChangeAppointmentStatus(t.Context(), env.patient, a.ID, appointment.StatusCancelled)
	require.NoError(t, err)
	require.NotNil(t, cancelled.CancelledBy)
	assert.Equal(t, env.patient.UserID, *cancelled.CancelledBy)

	slots, err := svc.GetAvailableSlots(t.Context(), env.patient, env.doctorID, nextMonday)
	require.NoError(t, err)
	assert.Contains(t, scheduling.Labels(slots), "09:00", "cancelling frees the slot")
}

func TestChangeAppointmentStatus_BadInput(t *testing.T) {
	env := newTestEnv(t)
	svc := env.scheduling(nil)

	_, err := svc.ChangeAppointmentStatus(t.Context(), env.admin, uuid.New(), appointment.StatusConfirmed)
	assert.ErrorIs(t, err, appointment.ErrAppointmentNotFound)

	_, err = svc.ChangeAppointmentStatus(t.Context(), env.admin, uuid.New(), appointment.Status("no_show"))
	assert.ErrorIs(t, err, appointment.ErrInvalidStatus)
}

func TestGetAppointment_RelatedDoctorMayRead(t *testing.T) {
	env := newTestEnv(t)
	svc := env.scheduling(nil)
	a := env.seedAppointment(t, env.patientID, mondayAt("09:00"), appointment.StatusPending)

	otherUser := uuid.New()
	otherDoctorID := env.store.AddDoctor(doctor.Doctor{UserID: otherUser, FirstName: "Iván", LastName: "Soto", IsActive: true})
	other := doctorActor(otherUser, otherDoctorID)

	_, err := svc.GetAppointment(t.Context(), other, a.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	require.NoError(t, env.store.Appointments().AtomicCreate(t.Context(), &appointment.Appointment{
		PatientID: env.patientID, DoctorID: otherDoctorID, ScheduledAt: mondayAt("15:00"),
	}))

	got, err := svc.GetAppointment(t.Context(), other, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)

	_, err = svc.GetAppointment(t.Context(), env.admin, uuid.New())
	assert.ErrorIs(t, err, appointment.ErrAppointmentNotFound)
}

func TestListAppointments_Scoping(t *testing.T) {
	env := newTestEnv(t)
	svc := env.scheduling(nil)
	otherPatient := env.addPatient()
	env.seedAppointment(t, env.patientID, mondayAt("09:00"), appointment.StatusPending)
	env.seedAppointment(t, otherPatient, mondayAt("09:30"), appointment.StatusPending)

	own, err := svc.ListAppointments(t.Context(), env.patient, &appointment.ListAppointmentsQuery{})
	require.NoError(t, err)
	require.EqualValues(t, 1, own.TotalCount)
	assert.Equal(t, env.patientID, own.Appointments[0].PatientID)

	_, err = svc.ListAppointments(t.Context(), env.patient, &appointment.ListAppointmentsQuery{PatientID: &otherPatient})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	mine, err := svc.ListAppointments(t.Context(), env.doctor, &appointment.ListAppointmentsQuery{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, mine.TotalCount)

	all, err := svc.ListAppointments(t.Context(), env.admin, &appointment.ListAppointmentsQuery{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, all.TotalCount)

	nobody := domain.Actor{UserID: uuid.New(), Roles: []domain.Role{domain.RoleDoctor}}
	_, err = svc.ListAppointments(t.Context(), nobody, &appointment.ListAppointmentsQuery{})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestDeleteAppointment_AdminOnly(t *testing.T) {
	env := newTestEnv(t)
	svc := env.scheduling(nil)
	a := env.seedAppointment(t, env.patientID, mondayAt("09:00"), appointment.StatusConfirmed)

	for _, actor := range []domain.Actor{env.patient, env.doctor} {
		assert.ErrorIs(t, svc.DeleteAppointment(t.Context(), actor, a.ID), domain.ErrForbidden)
	}

	require.NoError(t, svc.DeleteAppointment(t.Context(), env.super, a.ID))
	_, err := env.store.Appointments().GetByID(t.Context(), a.ID)
	assert.ErrorIs(t, err, appointment.ErrAppointmentNotFound)

	assert.ErrorIs(t, svc.DeleteAppointment(t.Context(), env.admin, a.ID), appointment.ErrAppointmentNotFound)
}
