package appointment

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain"
)

var now = time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)

type fixture struct {
	appt    *Appointment
	patient domain.Actor
	doctor  domain.Actor
	admin   domain.Actor
	super   domain.Actor
	other   domain.Actor
}

func newFixture(status Status) fixture {
	patientID := uuid.New()
	doctorID := uuid.New()
	otherPatientID := uuid.New()

	return fixture{
		appt: &Appointment{
			ID:          uuid.New(),
			PatientID:   patientID,
			DoctorID:    doctorID,
			ScheduledAt: now.Add(48 * time.Hour),
			Status:      status,
			Version:     1,
		},
		patient: domain.Actor{UserID: uuid.New(), Roles: []domain.Role{domain.RolePatient}, PatientID: &patientID},
		doctor:  domain.Actor{UserID: uuid.New(), Roles: []domain.Role{domain.RoleDoctor}, DoctorID: &doctorID},
		admin:   domain.Actor{UserID: uuid.New(), Roles: []domain.Role{domain.RoleAdmin}},
		super:   domain.Actor{UserID: uuid.New(), Roles: []domain.Role{domain.RoleSuperAdmin}},
		other:   domain.Actor{UserID: uuid.New(), Roles: []domain.Role{domain.RolePatient}, PatientID: &otherPatientID},
	}
}

func TestTransition_AllowedTable(t *testing.T) {
	tests := []struct {
		name    string
		from    Status
		to      Status
		actorOf func(f fixture) domain.Actor
	}{
		{"doctor confirms", StatusPending, StatusConfirmed, func(f fixture) domain.Actor { return f.doctor }},
		{"admin confirms", StatusPending, StatusConfirmed, func(f fixture) domain.Actor { return f.admin }},
		{"superadmin confirms", StatusPending, StatusConfirmed, func(f fixture) domain.Actor { return f.super }},
		{"patient cancels pending", StatusPending, StatusCancelled, func(f fixture) domain.Actor { return f.patient }},
		{"doctor cancels pending", StatusPending, StatusCancelled, func(f fixture) domain.Actor { return f.doctor }},
		{"doctor completes", StatusConfirmed, StatusCompleted, func(f fixture) domain.Actor { return f.doctor }},
		{"admin completes", StatusConfirmed, StatusCompleted, func(f fixture) domain.Actor { return f.admin }},
		{"patient cancels confirmed", StatusConfirmed, StatusCancelled, func(f fixture) domain.Actor { return f.patient }},
		{"superadmin cancels confirmed", StatusConfirmed, StatusCancelled, func(f fixture) domain.Actor { return f.super }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(tt.from)
			got, err := Transition(f.appt, tt.to, tt.actorOf(f), now)
			require.NoError(t, err)
			assert.Equal(t, tt.to, got.Status)
			assert.Equal(t, 2, got.Version)
			assert.Equal(t, tt.from, f.appt.Status, "input must not be mutated")
		})
	}
}

func TestTransition_StampsTimestamps(t *testing.T) {
	f := newFixture(StatusPending)

	confirmed, err := Transition(f.appt, StatusConfirmed, f.doctor, now)
	require.NoError(t, err)
	require.NotNil(t, confirmed.ConfirmedAt)

	cancelled, err := Transition(confirmed, StatusCancelled, f.patient, now)
	require.NoError(t, err)
	require.NotNil(t, cancelled.CancelledAt)
	require.NotNil(t, cancelled.CancelledBy)
	assert.Equal(t, f.patient.UserID, *cancelled.CancelledBy)
	assert.Nil(t, cancelled.CompletedAt)
}

func TestTransition_TerminalStatesRejectEverything(t *testing.T) {
	for _, from := range []Status{StatusCompleted, StatusCancelled} {
		f := newFixture(from)
		actors := []domain.Actor{f.patient, f.doctor, f.admin, f.super}
		for _, actor := range actors {
			for _, to := range []Status{StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled} {
				_, err := Transition(f.appt, to, actor, now)
				assert.ErrorIs(t, err, ErrInvalidTransition, "%s -> %s by %v", from, to, actor.Roles)

				var te *TransitionError
				require.True(t, errors.As(err, &te))
				assert.Equal(t, from, te.From)
			}
		}
	}
}

func TestTransition_UnrelatedActorIsForbiddenFirst(t *testing.T) {
	// Even from a terminal state, an unrelated actor sees Forbidden rather
	// than learning anything about the appointment's status.
	for _, from := range []Status{StatusPending, StatusCompleted} {
		f := newFixture(from)
		_, err := Transition(f.appt, StatusCancelled, f.other, now)
		assert.ErrorIs(t, err, domain.ErrForbidden)
		assert.NotErrorIs(t, err, ErrInvalidTransition)
	}

	f := newFixture(StatusPending)
	otherDoctorID := uuid.New()
	otherDoctor := domain.Actor{UserID: uuid.New(), Roles: []domain.Role{domain.RoleDoctor}, DoctorID: &otherDoctorID}
	_, err := Transition(f.appt, StatusConfirmed, otherDoctor, now)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = Transition(f.appt, StatusConfirmed, domain.Actor{}, now)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestTransition_PatientCannotConfirmOrComplete(t *testing.T) {
	f := newFixture(StatusPending)
	_, err := Transition(f.appt, StatusConfirmed, f.patient, now)
	var denied *domain.DeniedError
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, "transition-role", denied.Rule)

	f = newFixture(StatusConfirmed)
	_, err = Transition(f.appt, StatusCompleted, f.patient, now)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestTransition_UndefinedEdges(t *testing.T) {
	tests := []struct {
		from, to Status
	}{
		{StatusPending, StatusPending},
		{StatusPending, StatusCompleted},
		{StatusConfirmed, StatusPending},
		{StatusConfirmed, StatusConfirmed},
		{StatusPending, Status("archived")},
	}

	for _, tt := range tests {
		f := newFixture(tt.from)
		_, err := Transition(f.appt, tt.to, f.admin, now)
		assert.ErrorIs(t, err, ErrInvalidTransition, "%s -> %s", tt.from, tt.to)
	}
}

func TestTransition_ConfirmThenBackToPending(t *testing.T) {
	f := newFixture(StatusPending)

	confirmed, err := Transition(f.appt, StatusConfirmed, f.doctor, now)
	require.NoError(t, err)

	_, err = Transition(confirmed, StatusPending, f.doctor, now)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestStatus(t *testing.T) {
	assert.True(t, StatusCancelled.IsTerminal())
	assert.False(t, StatusConfirmed.IsTerminal())
	assert.False(t, Status("noshow").IsValid())
	assert.True(t, (&Appointment{Status: StatusPending}).CanTransitionTo(StatusConfirmed))
	assert.False(t, (&Appointment{Status: StatusCancelled}).IsActive())
}

func TestListAppointmentsQuery_Paging(t *testing.T) {
	q := &ListAppointmentsQuery{Page: 0, PageSize: 500}
	q.Normalize()
	assert.Equal(t, 1, q.Page)
	assert.Equal(t, defaultPageSize, q.PageSize)
	assert.Equal(t, 0, q.Offset())

	q = &ListAppointmentsQuery{Page: 3, PageSize: 10}
	q.Normalize()
	assert.Equal(t, 20, q.Offset())

	page := NewPage(nil, 21, q)
	assert.Equal(t, 3, page.TotalPages)
	assert.EqualValues(t, 21, page.TotalCount)
}
