package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain/doctor"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain/schedule"
)

func (e *testEnv) schedules(cache SlotCache) *ScheduleService {
	return NewScheduleService(e.store.Schedules(), e.store.Doctors(), cache, e.audit, e.metrics, e.log)
}

func TestAddBlock_OwnerDoctorInvalidatesCache(t *testing.T) {
	env := newTestEnv(t)
	cache := &mockSlotCache{}
	cache.On("Invalidate", mock.Anything, env.doctorID).Return(nil).Once()

	b, err := env.schedules(cache).AddBlock(t.Context(), env.doctor, &schedule.CreateBlockCommand{
		DoctorID: env.doctorID,
		Weekday:  time.Tuesday,
		Start:    schedule.MustTimeOfDay("14:00"),
		End:      schedule.MustTimeOfDay("16:00"),
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, b.ID)
	cache.AssertExpectations(t)

	blocks, err := env.store.Schedules().ListBlocks(t.Context(), env.doctorID)
	require.NoError(t, err)
	assert.Len(t, blocks, 2)
}

func TestAddBlock_Rejections(t *testing.T) {
	env := newTestEnv(t)
	svc := env.schedules(nil)
	otherDoctor := env.store.AddDoctor(doctor.Doctor{UserID: uuid.New(), FirstName: "Iván", LastName: "Soto", IsActive: true})

	tests := []struct {
		name  string
		actor domain.Actor
		cmd   schedule.CreateBlockCommand
		want  error
	}{
		{
			name:  "patient cannot add availability",
			actor: env.patient,
			cmd:   schedule.CreateBlockCommand{DoctorID: env.doctorID, Weekday: time.Friday, Start: schedule.MustTimeOfDay("09:00"), End: schedule.MustTimeOfDay("10:00")},
			want:  domain.ErrForbidden,
		},
		{
			name:  "doctor cannot edit a colleague",
			actor: env.doctor,
			cmd:   schedule.CreateBlockCommand{DoctorID: otherDoctor, Weekday: time.Friday, Start: schedule.MustTimeOfDay("09:00"), End: schedule.MustTimeOfDay("10:00")},
			want:  domain.ErrForbidden,
		},
		{
			name:  "end before start",
			actor: env.doctor,
			cmd:   schedule.CreateBlockCommand{DoctorID: env.doctorID, Weekday: time.Friday, Start: schedule.MustTimeOfDay("10:00"), End: schedule.MustTimeOfDay("09:00")},
			want:  schedule.ErrInvalidBlock,
		},
		{
			name:  "unknown doctor",
			actor: env.admin,
			cmd:   schedule.CreateBlockCommand{DoctorID: uuid.New(), Weekday: time.Friday, Start: schedule.MustTimeOfDay("09:00"), End: schedule.MustTimeOfDay("10:00")},
			want:  doctor.ErrDoctorNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AddBlock(t.Context(), tt.actor, &tt.cmd)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestAddBlock_OverlapIsAllowed(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.schedules(nil).AddBlock(t.Context(), env.doctor, &schedule.CreateBlockCommand{
		DoctorID: env.doctorID,
		Weekday:  time.Monday,
		Start:    schedule.MustTimeOfDay("10:00"),
		End:      schedule.MustTimeOfDay("12:00"),
	})
	require.NoError(t, err)

	slots, err := env.scheduling(nil).GetAvailableSlots(t.Context(), env.patient, env.doctorID, nextMonday)
	require.NoError(t, err)
	assert.Len(t, slots, 6, "09:00-12:00 as a union")
}

func TestRemoveBlock(t *testing.T) {
	env := newTestEnv(t)
	blocks, err := env.store.Schedules().ListBlocks(t.Context(), env.doctorID)
	require.NoError(t, err)
	require.Len(t, blocks, 1)

	svc := env.schedules(nil)
	assert.ErrorIs(t, svc.RemoveBlock(t.Context(), env.patient, blocks[0].ID), domain.ErrForbidden)
	assert.ErrorIs(t, svc.RemoveBlock(t.Context(), env.doctor, uuid.New()), schedule.ErrBlockNotFound)
	require.NoError(t, svc.RemoveBlock(t.Context(), env.doctor, blocks[0].ID))

	slots, err := env.scheduling(nil).GetAvailableSlots(t.Context(), env.patient, env.doctorID, nextMonday)
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestListBlocks_ReadableByOwnerOnly(t *testing.T) {
	env := newTestEnv(t)
	svc := env.schedules(nil)

	blocks, err := svc.ListBlocks(t.Context(), env.doctor, env.doctorID)
	require.NoError(t, err)
	assert.Len(t, blocks, 1)

	_, err = svc.ListBlocks(t.Context(), env.patient, env.doctorID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = svc.ListBlocks(t.Context(), env.admin, uuid.New())
	assert.ErrorIs(t, err, doctor.ErrDoctorNotFound)
}
