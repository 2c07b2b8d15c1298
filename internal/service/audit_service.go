package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/medbook/pkg/metrics"
)

type AuditRepository interface {
	Create(ctx context.Context, entry *domain.AuditLog) error
	List(ctx context.Context, q *domain.ListAuditLogsQuery) ([]*domain.AuditLog, int64, error)
}

type AuditService struct {
	repo    AuditRepository
	metrics *metrics.Collector
	log     *zap.Logger
	entries chan *domain.AuditLog
	done    chan struct{}
}

const auditBufferSize = 10_000

func NewAuditService(repo AuditRepository, m *metrics.Collector, log *zap.Logger) *AuditService {
	return newAuditService(repo, m, log, auditBufferSize)
}

func newAuditService(repo AuditRepository, m *metrics.Collector, log *zap.Logger, size int) *AuditService {
	svc := &AuditService{
		repo:    repo,
		metrics: m,
		log:     log,
		entries: make(chan *domain.AuditLog, size),
		done:    make(chan struct{}),
	}
	go svc.worker()
	return svc
}

// LogAsync enqueues an audit entry for async persistence.
// If the buffer is full, the entry is dropped and a warning is emitted.
func (s *AuditService) LogAsync(ctx context.Context, entry AuditEntry) {
	meta := RequestMetaFrom(ctx)
	al := &domain.AuditLog{
		UserID:       entry.Actor.UserID,
		UserRoles:    strings.Join(entry.Actor.RoleStrings(), ","),
		Action:       entry.Action,
		ResourceType: entry.ResourceType,
		ResourceID:   entry.ResourceID,
		IPAddress:    meta.IPAddress,
		RequestID:    meta.RequestID,
		Changes:      entry.Changes,
	}

	select {
	case s.entries <- al:
	default:
		s.metrics.AuditBufferDropped.Inc()
		s.log.Warn("audit log buffer full, dropping entry",
			zap.String("action", string(entry.Action)),
			zap.String("resource", entry.ResourceType),
		)
	}
}

func (s *AuditService) List(ctx context.Context, q *domain.ListAuditLogsQuery) ([]*domain.AuditLog, int64, error) {
	return s.repo.List(ctx, q)
}

// Shutdown stops accepting entries and waits for the backlog to drain.
// LogAsync must not be called afterwards.
func (s *AuditService) Shutdown() {
	close(s.entries)
	select {
	case <-s.done:
	case <-time.After(10 * time.Second):
		s.log.Warn("audit service shutdown timed out; some entries may be lost")
	}
}

func (s *AuditService) worker() {
	defer close(s.done)
	for entry := range s.entries {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := s.repo.Create(ctx, entry); err != nil {
			s.log.Error("failed to persist audit log", zap.Error(err))
		} else {
			s.metrics.AuditEntriesTotal.Inc()
		}
		cancel()
	}
}
