package service

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/dmehra2102/prod-golang-projects/medbook/internal/access"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain/appointment"
	"github.com/dmehra2102/prod-golang-projects/medbook/pkg/metrics"
)

var tracer = otel.Tracer("github.com/dmehra2102/prod-golang-projects/medbook/internal/service")

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// guard runs the access policy and records the outcome. Every service
// operation goes through it before touching data.
type guard struct {
	policy  access.Policy
	metrics *metrics.Collector
	log     *zap.Logger
}

func newGuard(m *metrics.Collector, log *zap.Logger) guard {
	return guard{policy: access.NewPolicy(), metrics: m, log: log}
}

func (g guard) check(actor domain.Actor, res access.Resource, op access.Operation) error {
	d := g.policy.CanAccess(actor, res, op)
	g.metrics.ObserveDecision(d.Rule, d.Allowed)
	if !d.Allowed {
		g.log.Debug("access denied",
			zap.String("user_id", actor.UserID.String()),
			zap.Strings("roles", actor.RoleStrings()),
			zap.String("resource", string(res.Type)),
			zap.String("resource_id", res.ID.String()),
			zap.String("operation", string(op)),
			zap.String("rule", d.Rule),
		)
	}
	return d.Err()
}

func appointmentResource(a *appointment.Appointment) access.Resource {
	patientID, doctorID := a.PatientID, a.DoctorID
	return access.Resource{
		Type:           access.ResourceAppointment,
		ID:             a.ID,
		OwnerPatientID: &patientID,
		OwnerDoctorID:  &doctorID,
	}
}
