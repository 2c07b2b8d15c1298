package access

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
)

var ErrResourceNotFound = errors.New("resource not found")

type ResourceType string

const (
	ResourceAppointment   ResourceType = "appointment"
	ResourcePatient       ResourceType = "patient"
	ResourceMedicalRecord ResourceType = "medical_record"
	ResourceTreatment     ResourceType = "treatment"
	ResourcePrescription  ResourceType = "prescription"
	ResourceExam          ResourceType = "exam"
	ResourceInvoice       ResourceType = "invoice"
	ResourcePayment       ResourceType = "payment"
	ResourceSchedule      ResourceType = "schedule"

	// Global catalogues, readable by anyone signed in.
	ResourceSpecialty    ResourceType = "specialty"
	ResourceMedication   ResourceType = "medication"
	ResourceDoctor       ResourceType = "doctor"
	ResourceAvailability ResourceType = "availability"

	// Back-office resources with no owner.
	ResourceUser     ResourceType = "user"
	ResourceAuditLog ResourceType = "audit_log"
)

func ParseResourceType(s string) (ResourceType, error) {
	t := ResourceType(s)
	switch t {
	case ResourceAppointment, ResourcePatient, ResourceMedicalRecord, ResourceTreatment,
		ResourcePrescription, ResourceExam, ResourceInvoice, ResourcePayment, ResourceSchedule,
		ResourceSpecialty, ResourceMedication, ResourceDoctor, ResourceAvailability,
		ResourceUser, ResourceAuditLog:
		return t, nil
	}
	return "", fmt.Errorf("unknown resource type %q", s)
}

// IsGlobal reports catalogue resources without an owner.
func (t ResourceType) IsGlobal() bool {
	switch t {
	case ResourceSpecialty, ResourceMedication, ResourceDoctor, ResourceAvailability:
		return true
	}
	return false
}

// IsClinical reports the sub-resources a treating doctor may write.
func (t ResourceType) IsClinical() bool {
	switch t {
	case ResourceMedicalRecord, ResourceTreatment, ResourcePrescription, ResourceExam:
		return true
	}
	return false
}

// Resource describes a resource for an authorization decision: its type and
// ownership chain. It carries no payload.
type Resource struct {
	Type ResourceType
	ID   uuid.UUID

	OwnerPatientID *uuid.UUID
	OwnerDoctorID  *uuid.UUID

	// RelatedDoctorIDs are the doctors holding at least one non-cancelled
	// appointment with OwnerPatientID. Resolved fresh for every request.
	RelatedDoctorIDs []uuid.UUID
}

func (r Resource) IsRelatedDoctor(id uuid.UUID) bool {
	return slices.Contains(r.RelatedDoctorIDs, id)
}

func Global(t ResourceType) Resource {
	return Resource{Type: t}
}

// OwnershipResolver walks foreign keys to build a Resource. Implementations
// must not cache results across requests.
type OwnershipResolver interface {
	// Resolve describes an existing resource. Returns ErrResourceNotFound
	// when any link of the chain is missing.
	Resolve(ctx context.Context, t ResourceType, id uuid.UUID) (Resource, error)

	// ForPatient describes a not-yet-created resource of type t that will
	// belong to patientID.
	ForPatient(ctx context.Context, t ResourceType, patientID uuid.UUID) (Resource, error)
}
