// Package access decides whether an actor may perform an operation on a
// resource. The decision is a pure function of its inputs.
package access

import (
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain"
)

type Operation string

const (
	OpRead         Operation = "read"
	OpCreate       Operation = "create"
	OpUpdate       Operation = "update"
	OpDelete       Operation = "delete"
	OpUpdateStatus Operation = "update-status"

	// Reserved to superadmin.
	OpManageRoles  Operation = "manage-roles"
	OpViewAuditLog Operation = "view-audit-log"
	OpCreateAdmin  Operation = "create-admin"
)

func (o Operation) IsValid() bool {
	switch o {
	case OpRead, OpCreate, OpUpdate, OpDelete, OpUpdateStatus, OpManageRoles, OpViewAuditLog, OpCreateAdmin:
		return true
	}
	return false
}

func (o Operation) SuperAdminOnly() bool {
	return o == OpManageRoles || o == OpViewAuditLog || o == OpCreateAdmin
}

// Rule names, reported on every decision.
const (
	RuleAnonymous      = "anonymous"
	RuleSuperAdminOnly = "superadmin-only"
	RuleSuperAdmin     = "superadmin"
	RuleAdmin          = "admin"
	RuleGlobalRead     = "global-read"
	RuleGlobalWrite    = "global-write"
	RuleOwnerPatient   = "owner-patient"
	RuleOwnerDoctor    = "owner-doctor"
	RuleTreatingDoctor = "treating-doctor"
	RuleDeleteAdmin    = "delete-admin-only"
	RuleDefaultDeny    = "default-deny"
)

type Decision struct {
	Allowed bool
	Rule    string
	Reason  string
}

// Err returns nil for an allow and a *domain.DeniedError otherwise.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return &domain.DeniedError{Rule: d.Rule, Reason: d.Reason}
}

func allow(rule, reason string) Decision {
	return Decision{Allowed: true, Rule: rule, Reason: reason}
}

func deny(rule, reason string) Decision {
	return Decision{Allowed: false, Rule: rule, Reason: reason}
}

// Policy is the single authorization predicate shared by every resource.
// It has no configuration and no bypass switches.
type Policy struct{}

func NewPolicy() Policy {
	return Policy{}
}

// CanAccess evaluates the rules in priority order: admin, owning patient,
// owning or treating doctor, deny.
func (Policy) CanAccess(actor domain.Actor, res Resource, op Operation) Decision {
	if actor.IsAnonymous() {
		return deny(RuleAnonymous, "no authenticated roles")
	}

	if op.SuperAdminOnly() {
		if actor.HasRole(domain.RoleSuperAdmin) {
			return allow(RuleSuperAdmin, string(op)+" requires superadmin")
		}
		return deny(RuleSuperAdminOnly, string(op)+" requires superadmin")
	}

	if actor.IsStaffAdmin() {
		return allow(RuleAdmin, "admin privileges")
	}

	if res.Type.IsGlobal() {
		if op == OpRead {
			return allow(RuleGlobalRead, "catalogue is readable by any authenticated actor")
		}
		return deny(RuleGlobalWrite, "catalogue writes require admin")
	}

	if op == OpDelete {
		return deny(RuleDeleteAdmin, "only admins delete "+string(res.Type))
	}

	if res.OwnerPatientID != nil && actor.IsPatient(*res.OwnerPatientID) {
		switch op {
		case OpRead, OpUpdate:
			return allow(RuleOwnerPatient, "actor owns the resource")
		case OpUpdateStatus, OpCreate:
			// Patients book and cancel their own appointments; which status
			// moves they may make is left to the state machine.
			if res.Type == ResourceAppointment {
				return allow(RuleOwnerPatient, "actor owns the appointment")
			}
		}
	}

	if actor.HasRole(domain.RoleDoctor) && actor.DoctorID != nil {
		doctorID := *actor.DoctorID

		if res.OwnerDoctorID != nil && *res.OwnerDoctorID == doctorID {
			switch {
			case op == OpRead:
				return allow(RuleOwnerDoctor, "actor is the owning doctor")
			case res.Type == ResourceAppointment && (op == OpUpdateStatus || op == OpCreate):
				return allow(RuleOwnerDoctor, "actor is the assigned doctor")
			case res.Type == ResourceSchedule && (op == OpCreate || op == OpUpdate):
				return allow(RuleOwnerDoctor, "actor manages their own schedule")
			}
		}

		if res.OwnerPatientID != nil && res.IsRelatedDoctor(doctorID) {
			switch {
			case op == OpRead:
				return allow(RuleTreatingDoctor, "actor has an appointment with the owning patient")
			case res.Type.IsClinical() && (op == OpCreate || op == OpUpdate):
				return allow(RuleTreatingDoctor, "actor treats the owning patient")
			}
		}
	}

	return deny(RuleDefaultDeny, "no rule grants "+string(op)+" on "+string(res.Type))
}

// Check is CanAccess returning an error for a deny.
func (p Policy) Check(actor domain.Actor, res Resource, op Operation) error {
	return p.CanAccess(actor, res, op).Err()
}
