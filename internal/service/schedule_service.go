package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dmehra2102/prod-golang-projects/medbook/internal/access"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain/doctor"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain/schedule"
	"github.com/dmehra2102/prod-golang-projects/medbook/pkg/metrics"
)

// ScheduleService manages a doctor's weekly availability blocks.
type ScheduleService struct {
	repo     schedule.Repository
	doctors  doctor.Repository
	cache    SlotCache
	auditSvc *AuditService
	guard    guard
	log      *zap.Logger
}

func NewScheduleService(repo schedule.Repository, doctors doctor.Repository, cache SlotCache, auditSvc *AuditService, m *metrics.Collector, log *zap.Logger) *ScheduleService {
	if cache == nil {
		cache = NopSlotCache{}
	}
	return &ScheduleService{repo: repo, doctors: doctors, cache: cache, auditSvc: auditSvc, guard: newGuard(m, log), log: log}
}

func scheduleResource(doctorID uuid.UUID, blockID uuid.UUID) access.Resource {
	return access.Resource{Type: access.ResourceSchedule, ID: blockID, OwnerDoctorID: &doctorID}
}

func (s *ScheduleService) ListBlocks(ctx context.Context, actor domain.Actor, doctorID uuid.UUID) ([]*schedule.Block, error) {
	if err := s.guard.check(actor, scheduleResource(doctorID, uuid.Nil), access.OpRead); err != nil {
		return nil, err
	}
	if _, err := s.doctors.GetByID(ctx, doctorID); err != nil {
		return nil, err
	}
	return s.repo.ListBlocks(ctx, doctorID)
}

// AddBlock adds a weekly block. Overlap with existing blocks is allowed;
// slot generation treats overlapping blocks as their union.
func (s *ScheduleService) AddBlock(ctx context.Context, actor domain.Actor, cmd *schedule.CreateBlockCommand) (*schedule.Block, error) {
	if err := s.guard.check(actor, scheduleResource(cmd.DoctorID, uuid.Nil), access.OpCreate); err != nil {
		return nil, err
	}
	if _, err := s.doctors.GetByID(ctx, cmd.DoctorID); err != nil {
		return nil, err
	}

	b := &schedule.Block{
		DoctorID: cmd.DoctorID,
		Weekday:  cmd.Weekday,
		Start:    cmd.Start,
		End:      cmd.End,
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.repo.BlocksFor(ctx, cmd.DoctorID, cmd.Weekday)
	if err != nil {
		return nil, fmt.Errorf("loading blocks: %w", err)
	}
	for _, e := range existing {
		if e.Overlaps(b) {
			s.log.Info("availability block overlaps an existing one",
				zap.String("doctor_id", cmd.DoctorID.String()),
				zap.String("existing_block_id", e.ID.String()),
			)
			break
		}
	}

	if err := s.repo.CreateBlock(ctx, b); err != nil {
		s.log.Error("failed to create availability block", zap.Error(err))
		return nil, fmt.Errorf("creating block: %w", err)
	}

	s.invalidate(ctx, b.DoctorID)
	s.auditSvc.LogAsync(ctx, AuditEntry{
		Actor:        actor,
		Action:       domain.ActionCreate,
		ResourceType: string(access.ResourceSchedule),
		ResourceID:   b.ID.String(),
		Changes:      fmt.Sprintf(`{"weekday":%d,"start":%q,"end":%q}`, b.Weekday, b.Start, b.End),
	})

	return b, nil
}

// RemoveBlock deletes one block. Removing availability is an update of the
// doctor's schedule, so the owning doctor may do it.
func (s *ScheduleService) RemoveBlock(ctx context.Context, actor domain.Actor, blockID uuid.UUID) error {
	b, err := s.repo.GetBlock(ctx, blockID)
	if err != nil {
		return err
	}
	if err := s.guard.check(actor, scheduleResource(b.DoctorID, b.ID), access.OpUpdate); err != nil {
		return err
	}

	if err := s.repo.DeleteBlock(ctx, blockID); err != nil {
		return err
	}

	s.invalidate(ctx, b.DoctorID)
	s.auditSvc.LogAsync(ctx, AuditEntry{
		Actor:        actor,
		Action:       domain.ActionDelete,
		ResourceType: string(access.ResourceSchedule),
		ResourceID:   blockID.String(),
	})
	return nil
}

func (s *ScheduleService) invalidate(ctx context.Context, doctorID uuid.UUID) {
	if err := s.cache.Invalidate(ctx, doctorID); err != nil {
		s.log.Warn("slot cache invalidation failed", zap.String("doctor_id", doctorID.String()), zap.Error(err))
	}
}
