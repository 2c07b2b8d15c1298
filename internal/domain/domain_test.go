package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestActor_Relations(t *testing.T) {
	doctorID := uuid.New()
	patientID := uuid.New()

	a := Actor{
		UserID:    uuid.New(),
		Roles:     []Role{RoleDoctor, RolePatient},
		DoctorID:  &doctorID,
		PatientID: &patientID,
	}

	assert.True(t, a.IsDoctor(doctorID))
	assert.False(t, a.IsDoctor(uuid.New()))
	assert.True(t, a.IsPatient(patientID))
	assert.False(t, a.IsStaffAdmin())
	assert.False(t, a.IsAnonymous())
	assert.Equal(t, []string{"doctor", "patient"}, a.RoleStrings())
}

func TestActor_LinkWithoutRoleIsNotARelation(t *testing.T) {
	doctorID := uuid.New()
	a := Actor{UserID: uuid.New(), Roles: []Role{RolePatient}, DoctorID: &doctorID}

	assert.False(t, a.IsDoctor(doctorID))
}

func TestActor_Anonymous(t *testing.T) {
	assert.True(t, Actor{}.IsAnonymous())
	assert.True(t, Actor{UserID: uuid.New(), Roles: []Role{RoleSuperAdmin}}.IsStaffAdmin())
}

func TestUser_IsLocked(t *testing.T) {
	now := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	until := now.Add(time.Minute)

	u := &User{LockedUntil: &until}
	assert.True(t, u.IsLocked(now))
	assert.False(t, u.IsLocked(until.Add(time.Second)))
	assert.False(t, (&User{}).IsLocked(now))
}

func TestRole_IsValid(t *testing.T) {
	assert.True(t, RoleSuperAdmin.IsValid())
	assert.False(t, Role("nurse").IsValid())
}
