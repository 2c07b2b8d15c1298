package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dmehra2102/prod-golang-projects/medbook/internal/access"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/medbook/pkg/metrics"
)

// ResourceService answers "may this actor do op on that resource" for any
// resource type, resolving the ownership chain fresh on each call.
type ResourceService struct {
	resolver access.OwnershipResolver
	guard    guard
}

func NewResourceService(resolver access.OwnershipResolver, m *metrics.Collector, log *zap.Logger) *ResourceService {
	return &ResourceService{resolver: resolver, guard: newGuard(m, log)}
}

// Authorize returns the decision. A missing resource is ErrResourceNotFound;
// a deny is a Decision, not an error.
func (s *ResourceService) Authorize(ctx context.Context, actor domain.Actor, t access.ResourceType, id uuid.UUID, op access.Operation) (access.Decision, error) {
	if !op.IsValid() {
		return access.Decision{}, &ValidationError{Fields: []string{fmt.Sprintf("unknown operation %q", op)}}
	}

	res, err := s.resolver.Resolve(ctx, t, id)
	if err != nil {
		return access.Decision{}, err
	}

	d := s.guard.policy.CanAccess(actor, res, op)
	s.guard.metrics.ObserveDecision(d.Rule, d.Allowed)
	return d, nil
}
