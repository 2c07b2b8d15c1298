package access

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain"
)

var allOps = []Operation{OpRead, OpCreate, OpUpdate, OpDelete, OpUpdateStatus, OpManageRoles, OpViewAuditLog, OpCreateAdmin}

var ownedTypes = []ResourceType{
	ResourceAppointment, ResourcePatient, ResourceMedicalRecord, ResourceTreatment,
	ResourcePrescription, ResourceExam, ResourceInvoice, ResourcePayment,
}

func ptr(id uuid.UUID) *uuid.UUID { return &id }

func patientActor(id uuid.UUID) domain.Actor {
	return domain.Actor{UserID: uuid.New(), Roles: []domain.Role{domain.RolePatient}, PatientID: ptr(id)}
}

func doctorActor(id uuid.UUID) domain.Actor {
	return domain.Actor{UserID: uuid.New(), Roles: []domain.Role{domain.RoleDoctor}, DoctorID: ptr(id)}
}

func TestCanAccess_AnonymousDeniedEverything(t *testing.T) {
	p := NewPolicy()
	for _, op := range allOps {
		d := p.CanAccess(domain.Actor{}, Global(ResourceSpecialty), op)
		assert.False(t, d.Allowed)
		assert.Equal(t, RuleAnonymous, d.Rule)
	}
}

func TestCanAccess_AdminAllowsAllButSuperAdminOps(t *testing.T) {
	p := NewPolicy()
	admin := domain.Actor{UserID: uuid.New(), Roles: []domain.Role{domain.RoleAdmin}}
	res := Resource{Type: ResourcePrescription, ID: uuid.New(), OwnerPatientID: ptr(uuid.New())}

	for _, op := range allOps {
		d := p.CanAccess(admin, res, op)
		if op.SuperAdminOnly() {
			assert.False(t, d.Allowed, op)
			assert.Equal(t, RuleSuperAdminOnly, d.Rule)
		} else {
			assert.True(t, d.Allowed, op)
			assert.Equal(t, RuleAdmin, d.Rule)
		}
	}
}

func TestCanAccess_SuperAdminAllowsEverything(t *testing.T) {
	p := NewPolicy()
	super := domain.Actor{UserID: uuid.New(), Roles: []domain.Role{domain.RoleSuperAdmin}}

	for _, op := range allOps {
		assert.True(t, p.CanAccess(super, Global(ResourceAuditLog), op).Allowed, op)
		assert.True(t, p.CanAccess(super, Resource{Type: ResourceExam, OwnerPatientID: ptr(uuid.New())}, op).Allowed, op)
	}
}

func TestCanAccess_SuperAdminOnlyOpsDeniedToEveryoneElse(t *testing.T) {
	p := NewPolicy()
	patientID := uuid.New()
	doctorID := uuid.New()
	res := Resource{Type: ResourceUser, OwnerPatientID: ptr(patientID), OwnerDoctorID: ptr(doctorID)}

	for _, actor := range []domain.Actor{patientActor(patientID), doctorActor(doctorID)} {
		for _, op := range []Operation{OpManageRoles, OpViewAuditLog, OpCreateAdmin} {
			assert.False(t, p.CanAccess(actor, res, op).Allowed)
		}
	}
}

func TestCanAccess_OwningPatient(t *testing.T) {
	p := NewPolicy()
	patientID := uuid.New()
	actor := patientActor(patientID)

	for _, typ := range ownedTypes {
		res := Resource{Type: typ, ID: uuid.New(), OwnerPatientID: ptr(patientID)}

		assert.True(t, p.CanAccess(actor, res, OpRead).Allowed, typ)
		assert.True(t, p.CanAccess(actor, res, OpUpdate).Allowed, typ)

		d := p.CanAccess(actor, res, OpDelete)
		assert.False(t, d.Allowed, typ)
		assert.Equal(t, RuleDeleteAdmin, d.Rule)
	}

	appt := Resource{Type: ResourceAppointment, OwnerPatientID: ptr(patientID), OwnerDoctorID: ptr(uuid.New())}
	assert.True(t, p.CanAccess(actor, appt, OpCreate).Allowed, "patients book for themselves")
	assert.True(t, p.CanAccess(actor, appt, OpUpdateStatus).Allowed)

	record := Resource{Type: ResourceMedicalRecord, OwnerPatientID: ptr(patientID)}
	assert.False(t, p.CanAccess(actor, record, OpCreate).Allowed, "patients do not author clinical records")
}

func TestCanAccess_PatientNonEscalation(t *testing.T) {
	p := NewPolicy()
	actor := patientActor(uuid.New())
	someoneElse := uuid.New()

	for _, typ := range append(ownedTypes, ResourceSchedule, ResourceUser, ResourceAuditLog) {
		res := Resource{
			Type:             typ,
			ID:               uuid.New(),
			OwnerPatientID:   ptr(someoneElse),
			OwnerDoctorID:    ptr(uuid.New()),
			RelatedDoctorIDs: []uuid.UUID{uuid.New()},
		}
		for _, op := range allOps {
			d := p.CanAccess(actor, res, op)
			assert.False(t, d.Allowed, "%s %s", op, typ)
		}
	}
}

func TestCanAccess_PatientLinkWithoutRole(t *testing.T) {
	p := NewPolicy()
	patientID := uuid.New()
	// A doctor whose user also carries a patient link, but not the patient role.
	actor := domain.Actor{UserID: uuid.New(), Roles: []domain.Role{domain.RoleDoctor}, DoctorID: ptr(uuid.New()), PatientID: ptr(patientID)}

	res := Resource{Type: ResourceInvoice, OwnerPatientID: ptr(patientID)}
	assert.False(t, p.CanAccess(actor, res, OpRead).Allowed)
}

func TestCanAccess_OwningDoctor(t *testing.T) {
	p := NewPolicy()
	doctorID := uuid.New()
	actor := doctorActor(doctorID)

	sched := Resource{Type: ResourceSchedule, OwnerDoctorID: ptr(doctorID)}
	assert.True(t, p.CanAccess(actor, sched, OpRead).Allowed)
	assert.True(t, p.CanAccess(actor, sched, OpCreate).Allowed)
	assert.True(t, p.CanAccess(actor, sched, OpUpdate).Allowed)
	assert.False(t, p.CanAccess(actor, sched, OpDelete).Allowed)

	appt := Resource{Type: ResourceAppointment, OwnerDoctorID: ptr(doctorID), OwnerPatientID: ptr(uuid.New())}
	d := p.CanAccess(actor, appt, OpUpdateStatus)
	assert.True(t, d.Allowed)
	assert.Equal(t, RuleOwnerDoctor, d.Rule)
	assert.True(t, p.CanAccess(actor, appt, OpRead).Allowed)
	assert.False(t, p.CanAccess(actor, appt, OpUpdate).Allowed)

	otherSched := Resource{Type: ResourceSchedule, OwnerDoctorID: ptr(uuid.New())}
	assert.False(t, p.CanAccess(actor, otherSched, OpRead).Allowed)
	assert.False(t, p.CanAccess(actor, otherSched, OpCreate).Allowed)
}

func TestCanAccess_TreatingDoctor(t *testing.T) {
	p := NewPolicy()
	doctorID := uuid.New()
	patientID := uuid.New()
	actor := doctorActor(doctorID)

	for _, typ := range []ResourceType{ResourceMedicalRecord, ResourceTreatment, ResourcePrescription, ResourceExam} {
		related := Resource{Type: typ, OwnerPatientID: ptr(patientID), RelatedDoctorIDs: []uuid.UUID{uuid.New(), doctorID}}
		assert.True(t, p.CanAccess(actor, related, OpRead).Allowed, typ)
		assert.True(t, p.CanAccess(actor, related, OpCreate).Allowed, typ)
		assert.True(t, p.CanAccess(actor, related, OpUpdate).Allowed, typ)
		assert.False(t, p.CanAccess(actor, related, OpDelete).Allowed, typ)

		unrelated := Resource{Type: typ, OwnerPatientID: ptr(patientID), RelatedDoctorIDs: []uuid.UUID{uuid.New()}}
		for _, op := range allOps {
			assert.False(t, p.CanAccess(actor, unrelated, op).Allowed, "%s %s", op, typ)
		}
	}

	invoice := Resource{Type: ResourceInvoice, OwnerPatientID: ptr(patientID), RelatedDoctorIDs: []uuid.UUID{doctorID}}
	d := p.CanAccess(actor, invoice, OpRead)
	assert.True(t, d.Allowed)
	assert.Equal(t, RuleTreatingDoctor, d.Rule)
	assert.False(t, p.CanAccess(actor, invoice, OpUpdate).Allowed, "financial records are not clinical")
}

func TestCanAccess_GlobalResources(t *testing.T) {
	p := NewPolicy()
	actors := []domain.Actor{patientActor(uuid.New()), doctorActor(uuid.New())}

	for _, typ := range []ResourceType{ResourceSpecialty, ResourceMedication, ResourceDoctor, ResourceAvailability} {
		for _, actor := range actors {
			assert.True(t, p.CanAccess(actor, Global(typ), OpRead).Allowed)
			d := p.CanAccess(actor, Global(typ), OpCreate)
			assert.False(t, d.Allowed)
			assert.Equal(t, RuleGlobalWrite, d.Rule)
			assert.False(t, p.CanAccess(actor, Global(typ), OpDelete).Allowed)
		}
		admin := domain.Actor{UserID: uuid.New(), Roles: []domain.Role{domain.RoleAdmin}}
		assert.True(t, p.CanAccess(admin, Global(typ), OpUpdate).Allowed)
	}
}

func TestDecision_Err(t *testing.T) {
	assert.NoError(t, allow(RuleAdmin, "").Err())

	err := NewPolicy().Check(patientActor(uuid.New()), Resource{Type: ResourceExam, OwnerPatientID: ptr(uuid.New())}, OpRead)
	require.ErrorIs(t, err, domain.ErrForbidden)

	var denied *domain.DeniedError
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, RuleDefaultDeny, denied.Rule)
}

func TestParseResourceType(t *testing.T) {
	typ, err := ParseResourceType("prescription")
	require.NoError(t, err)
	assert.Equal(t, ResourcePrescription, typ)
	assert.True(t, typ.IsClinical())

	_, err = ParseResourceType("spaceship")
	assert.Error(t, err)
}
