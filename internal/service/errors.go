package service

import (
	"context"
	"strings"

	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain"
)

type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Fields, "; ")
}

type AuditEntry struct {
	Actor        domain.Actor
	Action       domain.AuditAction
	ResourceType string
	ResourceID   string
	Changes      string
}

// RequestMeta is the transport detail recorded alongside audit entries.
type RequestMeta struct {
	IPAddress string
	RequestID string
}

type requestMetaKey struct{}

func WithRequestMeta(ctx context.Context, m RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey{}, m)
}

func RequestMetaFrom(ctx context.Context) RequestMeta {
	m, _ := ctx.Value(requestMetaKey{}).(RequestMeta)
	return m
}
