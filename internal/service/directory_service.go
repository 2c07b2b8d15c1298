package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/dmehra2102/prod-golang-projects/medbook/internal/access"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain/doctor"
	"github.com/dmehra2102/prod-golang-projects/medbook/pkg/metrics"
)

// DirectoryService serves the global catalogues.
type DirectoryService struct {
	doctors doctor.Repository
	guard   guard
}

func NewDirectoryService(doctors doctor.Repository, m *metrics.Collector, log *zap.Logger) *DirectoryService {
	return &DirectoryService{doctors: doctors, guard: newGuard(m, log)}
}

func (s *DirectoryService) ListDoctors(ctx context.Context, actor domain.Actor, q *doctor.ListDoctorsQuery) ([]*doctor.Doctor, int64, error) {
	if err := s.guard.check(actor, access.Global(access.ResourceDoctor), access.OpRead); err != nil {
		return nil, 0, err
	}
	q.Normalize()
	return s.doctors.List(ctx, q)
}

func (s *DirectoryService) ListSpecialties(ctx context.Context, actor domain.Actor) ([]*doctor.Specialty, error) {
	if err := s.guard.check(actor, access.Global(access.ResourceSpecialty), access.OpRead); err != nil {
		return nil, err
	}
	return s.doctors.ListSpecialties(ctx)
}
