package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/dmehra2102/prod-golang-projects/medbook/internal/access"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/clock"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain/appointment"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain/doctor"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain/patient"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain/schedule"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/scheduling"
	"github.com/dmehra2102/prod-golang-projects/medbook/pkg/metrics"
)

const maxReasonLength = 1000

type SchedulingDeps struct {
	Schedules    schedule.Repository
	Appointments appointment.Repository
	Doctors      doctor.Repository
	Patients     patient.Repository
	Resolver     access.OwnershipResolver
	Clock        clock.Clock
	Cache        SlotCache // optional
	Audit        *AuditService
	Metrics      *metrics.Collector
	Log          *zap.Logger
	SlotWidth    time.Duration
}

// SchedulingService answers slot queries and drives the appointment
// lifecycle. The actor is always passed in explicitly.
type SchedulingService struct {
	schedules    schedule.Repository
	appointments appointment.Repository
	doctors      doctor.Repository
	patients     patient.Repository
	resolver     access.OwnershipResolver
	clock        clock.Clock
	cache        SlotCache
	auditSvc     *AuditService
	metrics      *metrics.Collector
	guard        guard
	log          *zap.Logger
	slotWidth    time.Duration
}

func NewSchedulingService(d SchedulingDeps) *SchedulingService {
	if d.Cache == nil {
		d.Cache = NopSlotCache{}
	}
	if d.SlotWidth <= 0 {
		d.SlotWidth = scheduling.DefaultSlotWidth
	}
	return &SchedulingService{
		schedules:    d.Schedules,
		appointments: d.Appointments,
		doctors:      d.Doctors,
		patients:     d.Patients,
		resolver:     d.Resolver,
		clock:        d.Clock,
		cache:        d.Cache,
		auditSvc:     d.Audit,
		metrics:      d.Metrics,
		guard:        newGuard(d.Metrics, d.Log),
		log:          d.Log,
		slotWidth:    d.SlotWidth,
	}
}

// GetAvailableSlots lists the bookable starts of doctorID on the calendar
// day of date. A past day is rejected with ErrInvalidDate.
func (s *SchedulingService) GetAvailableSlots(ctx context.Context, actor domain.Actor, doctorID uuid.UUID, date time.Time) (_ []scheduling.Slot, err error) {
	ctx, span := tracer.Start(ctx, "SchedulingService.GetAvailableSlots", trace.WithAttributes(
		attribute.String("doctor_id", doctorID.String()),
		attribute.String("date", date.Format(clock.DateLayout)),
	))
	defer func() { endSpan(span, err) }()

	if err := s.guard.check(actor, access.Global(access.ResourceAvailability), access.OpRead); err != nil {
		return nil, err
	}

	day := clock.StartOfDay(date, s.clock.Location())
	if clock.IsPastDate(s.clock, day) {
		return nil, appointment.ErrInvalidDate
	}

	if _, err := s.doctors.GetByID(ctx, doctorID); err != nil {
		return nil, err
	}

	cached, gen, hit, cerr := s.cache.Get(ctx, doctorID, day)
	if cerr != nil {
		s.log.Warn("slot cache read failed", zap.String("doctor_id", doctorID.String()), zap.Error(cerr))
	} else if hit {
		s.metrics.SlotQueriesTotal.WithLabelValues("cache").Inc()
		span.SetAttributes(attribute.Bool("cache_hit", true))
		return cached, nil
	}

	start := time.Now()
	slots, err := s.computeSlots(ctx, doctorID, day)
	if err != nil {
		return nil, err
	}
	s.metrics.SlotQueriesTotal.WithLabelValues("store").Inc()
	s.metrics.SlotQueryDuration.Observe(time.Since(start).Seconds())

	// Without a generation from Get the listing could land on a live key.
	if cerr == nil {
		if err := s.cache.Set(ctx, doctorID, day, gen, slots); err != nil {
			s.log.Warn("slot cache write failed", zap.String("doctor_id", doctorID.String()), zap.Error(err))
		}
	}

	return slots, nil
}

func (s *SchedulingService) computeSlots(ctx context.Context, doctorID uuid.UUID, day time.Time) ([]scheduling.Slot, error) {
	blocks, err := s.schedules.BlocksFor(ctx, doctorID, day.Weekday())
	if err != nil {
		return nil, fmt.Errorf("loading availability blocks: %w", err)
	}

	existing, err := s.schedules.AppointmentsFor(ctx, doctorID, day)
	if err != nil {
		return nil, fmt.Errorf("loading appointments: %w", err)
	}

	candidates := scheduling.GenerateCandidates(blocks, day, s.slotWidth)
	return scheduling.FilterAvailable(doctorID, candidates, existing), nil
}

// BookAppointment creates a pending appointment in one of the doctor's
// slots. The slot is re-checked at write time; losing the race returns
// ErrSlotTaken.
func (s *SchedulingService) BookAppointment(ctx context.Context, actor domain.Actor, cmd *appointment.CreateAppointmentCommand) (_ *appointment.Appointment, err error) {
	ctx, span := tracer.Start(ctx, "SchedulingService.BookAppointment", trace.WithAttributes(
		attribute.String("doctor_id", cmd.DoctorID.String()),
	))
	defer func() { endSpan(span, err) }()

	outcome := "error"
	defer func() { s.metrics.BookingsTotal.WithLabelValues(outcome).Inc() }()

	res := access.Resource{
		Type:           access.ResourceAppointment,
		OwnerPatientID: &cmd.PatientID,
		OwnerDoctorID:  &cmd.DoctorID,
	}
	if err := s.guard.check(actor, res, access.OpCreate); err != nil {
		outcome = "denied"
		return nil, err
	}

	reason := strings.TrimSpace(cmd.Reason)
	if len(reason) > maxReasonLength {
		outcome = "invalid"
		return nil, &ValidationError{Fields: []string{fmt.Sprintf("reason must be at most %d characters", maxReasonLength)}}
	}

	now := s.clock.Now()
	at := cmd.ScheduledAt.In(s.clock.Location())
	if !at.After(now) {
		outcome = "invalid"
		return nil, appointment.ErrInvalidDate
	}

	p, err := s.patients.GetByID(ctx, cmd.PatientID)
	if err != nil {
		return nil, err
	}
	if !p.IsActive() {
		outcome = "invalid"
		return nil, patient.ErrPatientInactive
	}
	if _, err := s.doctors.GetByID(ctx, cmd.DoctorID); err != nil {
		return nil, err
	}

	day := clock.StartOfDay(at, s.clock.Location())
	blocks, err := s.schedules.BlocksFor(ctx, cmd.DoctorID, day.Weekday())
	if err != nil {
		return nil, fmt.Errorf("loading availability blocks: %w", err)
	}
	if !scheduling.Contains(scheduling.GenerateCandidates(blocks, day, s.slotWidth), at) {
		outcome = "invalid"
		return nil, appointment.ErrOutsideAvailability
	}

	a := &appointment.Appointment{
		CreatedAt:   now,
		UpdatedAt:   now,
		PatientID:   cmd.PatientID,
		DoctorID:    cmd.DoctorID,
		ScheduledAt: at,
		Status:      appointment.StatusPending,
		Reason:      reason,
		Version:     1,
		CreatedBy:   actor.UserID,
	}

	if err := s.appointments.AtomicCreate(ctx, a); err != nil {
		if errors.Is(err, appointment.ErrSlotTaken) {
			outcome = "slot_taken"
			return nil, err
		}
		s.log.Error("failed to create appointment", zap.Error(err))
		return nil, fmt.Errorf("creating appointment: %w", err)
	}
	outcome = "created"

	s.invalidate(ctx, a.DoctorID)
	s.auditSvc.LogAsync(ctx, AuditEntry{
		Actor:        actor,
		Action:       domain.ActionCreate,
		ResourceType: string(access.ResourceAppointment),
		ResourceID:   a.ID.String(),
	})

	s.log.Info("appointment booked",
		zap.String("appointment_id", a.ID.String()),
		zap.String("doctor_id", a.DoctorID.String()),
		zap.Time("scheduled_at", a.ScheduledAt),
	)

	return a, nil
}

// ChangeAppointmentStatus moves an appointment through the lifecycle. The
// policy gates update-status, the state machine validates the edge, and
// the write is a compare-and-set on the status just read.
func (s *SchedulingService) ChangeAppointmentStatus(ctx context.Context, actor domain.Actor, id uuid.UUID, target appointment.Status) (_ *appointment.Appointment, err error) {
	ctx, span := tracer.Start(ctx, "SchedulingService.ChangeAppointmentStatus", trace.WithAttributes(
		attribute.String("appointment_id", id.String()),
		attribute.String("target", string(target)),
	))
	defer func() { endSpan(span, err) }()

	if !target.IsValid() {
		return nil, fmt.Errorf("%w: %q", appointment.ErrInvalidStatus, target)
	}

	outcome := "error"
	defer func() { s.metrics.TransitionsTotal.WithLabelValues(string(target), outcome).Inc() }()

	a, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.guard.check(actor, appointmentResource(a), access.OpUpdateStatus); err != nil {
		outcome = "denied"
		return nil, err
	}

	next, err := appointment.Transition(a, target, actor, s.clock.Now())
	if err != nil {
		outcome = "invalid"
		if errors.Is(err, domain.ErrForbidden) {
			outcome = "denied"
		}
		return nil, err
	}

	if err := s.appointments.AtomicUpdateStatus(ctx, next, a.Status); err != nil {
		if errors.Is(err, appointment.ErrStatusConflict) || errors.Is(err, appointment.ErrAppointmentNotFound) {
			outcome = "conflict"
			return nil, err
		}
		s.log.Error("failed to update appointment status", zap.String("appointment_id", id.String()), zap.Error(err))
		return nil, fmt.Errorf("updating appointment status: %w", err)
	}
	outcome = "ok"

	s.invalidate(ctx, a.DoctorID)
	s.auditSvc.LogAsync(ctx, AuditEntry{
		Actor:        actor,
		Action:       domain.ActionStatusChange,
		ResourceType: string(access.ResourceAppointment),
		ResourceID:   id.String(),
		Changes:      statusChange(a.Status, next.Status),
	})

	s.log.Info("appointment status changed",
		zap.String("appointment_id", id.String()),
		zap.String("from", string(a.Status)),
		zap.String("to", string(next.Status)),
	)

	return next, nil
}

func statusChange(from, to appointment.Status) string {
	b, _ := json.Marshal(map[string]appointment.Status{"from": from, "to": to})
	return string(b)
}

func (s *SchedulingService) GetAppointment(ctx context.Context, actor domain.Actor, id uuid.UUID) (*appointment.Appointment, error) {
	res, err := s.resolver.Resolve(ctx, access.ResourceAppointment, id)
	if err != nil {
		if errors.Is(err, access.ErrResourceNotFound) {
			return nil, appointment.ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("resolving appointment ownership: %w", err)
	}

	if err := s.guard.check(actor, res, access.OpRead); err != nil {
		return nil, err
	}

	a, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		Actor:        actor,
		Action:       domain.ActionRead,
		ResourceType: string(access.ResourceAppointment),
		ResourceID:   id.String(),
	})

	return a, nil
}

// ListAppointments scopes non-admins to themselves when the query names no
// patient or doctor, then lets the policy judge the resulting scope.
func (s *SchedulingService) ListAppointments(ctx context.Context, actor domain.Actor, q *appointment.ListAppointmentsQuery) (*appointment.PagedAppointments, error) {
	if q.PatientID == nil && q.DoctorID == nil && !actor.IsStaffAdmin() {
		switch {
		case actor.HasRole(domain.RolePatient) && actor.PatientID != nil:
			q.PatientID = actor.PatientID
		case actor.HasRole(domain.RoleDoctor) && actor.DoctorID != nil:
			q.DoctorID = actor.DoctorID
		}
	}

	res := access.Resource{
		Type:           access.ResourceAppointment,
		OwnerPatientID: q.PatientID,
		OwnerDoctorID:  q.DoctorID,
	}
	if err := s.guard.check(actor, res, access.OpRead); err != nil {
		return nil, err
	}

	q.Normalize()
	return s.appointments.List(ctx, q)
}

// DeleteAppointment hard-deletes outside the state machine. Admin only.
func (s *SchedulingService) DeleteAppointment(ctx context.Context, actor domain.Actor, id uuid.UUID) error {
	a, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.guard.check(actor, appointmentResource(a), access.OpDelete); err != nil {
		return err
	}

	if err := s.appointments.Delete(ctx, id); err != nil {
		if errors.Is(err, appointment.ErrAppointmentNotFound) {
			return err
		}
		return fmt.Errorf("deleting appointment: %w", err)
	}

	s.invalidate(ctx, a.DoctorID)
	s.auditSvc.LogAsync(ctx, AuditEntry{
		Actor:        actor,
		Action:       domain.ActionDelete,
		ResourceType: string(access.ResourceAppointment),
		ResourceID:   id.String(),
	})

	s.log.Warn("appointment hard-deleted",
		zap.String("appointment_id", id.String()),
		zap.String("by", actor.UserID.String()),
	)
	return nil
}

func (s *SchedulingService) invalidate(ctx context.Context, doctorID uuid.UUID) {
	if err := s.cache.Invalidate(ctx, doctorID); err != nil {
		s.log.Warn("slot cache invalidation failed", zap.String("doctor_id", doctorID.String()), zap.Error(err))
	}
}
