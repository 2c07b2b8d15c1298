package memory

import (
	"context"
	"slices"

	"github.com/google/uuid"

	"github.com/dmehra2102/prod-golang-projects/medbook/internal/access"
)

// OwnershipResolver walks the in-memory foreign keys on every call.
type OwnershipResolver struct {
	s *Store
}

var _ access.OwnershipResolver = (*OwnershipResolver)(nil)

func (o *OwnershipResolver) Resolve(ctx context.Context, t access.ResourceType, id uuid.UUID) (access.Resource, error) {
	o.s.mu.RLock()
	defer o.s.mu.RUnlock()

	res := access.Resource{Type: t, ID: id}

	switch t {
	case access.ResourceAppointment:
		a, ok := o.s.appointments[id]
		if !ok {
			return res, access.ErrResourceNotFound
		}
		res.OwnerPatientID = &a.PatientID
		res.OwnerDoctorID = &a.DoctorID

	case access.ResourcePatient:
		if _, ok := o.s.patients[id]; !ok {
			return res, access.ErrResourceNotFound
		}
		res.OwnerPatientID = &id

	case access.ResourceMedicalRecord:
		rec, ok := o.s.records[id]
		if !ok {
			return res, access.ErrResourceNotFound
		}
		res.OwnerPatientID = &rec.PatientID

	case access.ResourceTreatment:
		if !o.treatmentChain(id, &res) {
			return res, access.ErrResourceNotFound
		}

	case access.ResourcePrescription:
		p, ok := o.s.prescriptions[id]
		if !ok || !o.treatmentChain(p.TreatmentID, &res) {
			return res, access.ErrResourceNotFound
		}

	case access.ResourceExam:
		e, ok := o.s.exams[id]
		if !ok || !o.treatmentChain(e.TreatmentID, &res) {
			return res, access.ErrResourceNotFound
		}

	case access.ResourceInvoice:
		inv, ok := o.s.invoices[id]
		if !ok {
			return res, access.ErrResourceNotFound
		}
		res.OwnerPatientID = &inv.PatientID

	case access.ResourcePayment:
		pay, ok := o.s.payments[id]
		if !ok {
			return res, access.ErrResourceNotFound
		}
		inv, ok := o.s.invoices[pay.InvoiceID]
		if !ok {
			return res, access.ErrResourceNotFound
		}
		res.OwnerPatientID = &inv.PatientID

	case access.ResourceSchedule:
		b, ok := o.s.blocks[id]
		if !ok {
			return res, access.ErrResourceNotFound
		}
		res.OwnerDoctorID = &b.DoctorID

	case access.ResourceDoctor:
		if d, ok := o.s.doctors[id]; !ok || !d.IsActive {
			return res, access.ErrResourceNotFound
		}

	case access.ResourceSpecialty:
		if _, ok := o.s.specialties[id]; !ok {
			return res, access.ErrResourceNotFound
		}

	case access.ResourceMedication:
		if _, ok := o.s.medications[id]; !ok {
			return res, access.ErrResourceNotFound
		}

	case access.ResourceUser:
		if _, ok := o.s.users[id]; !ok {
			return res, access.ErrResourceNotFound
		}

	case access.ResourceAvailability, access.ResourceAuditLog:
		// not addressable by id

	default:
		return res, access.ErrResourceNotFound
	}

	if res.OwnerPatientID != nil {
		res.RelatedDoctorIDs = o.relatedDoctors(*res.OwnerPatientID)
	}
	return res, nil
}

func (o *OwnershipResolver) ForPatient(ctx context.Context, t access.ResourceType, patientID uuid.UUID) (access.Resource, error) {
	o.s.mu.RLock()
	defer o.s.mu.RUnlock()

	if _, ok := o.s.patients[patientID]; !ok {
		return access.Resource{Type: t}, access.ErrResourceNotFound
	}
	return access.Resource{
		Type:             t,
		OwnerPatientID:   &patientID,
		RelatedDoctorIDs: o.relatedDoctors(patientID),
	}, nil
}

// treatmentChain fills the owner of treatment id: its medical record's
// patient and its authoring doctor. Caller holds the read lock.
func (o *OwnershipResolver) treatmentChain(id uuid.UUID, res *access.Resource) bool {
	t, ok := o.s.treatments[id]
	if !ok {
		return false
	}
	rec, ok := o.s.records[t.MedicalRecordID]
	if !ok {
		return false
	}
	res.OwnerPatientID = &rec.PatientID
	res.OwnerDoctorID = &t.DoctorID
	return true
}

// relatedDoctors lists doctors with a non-cancelled appointment with the
// patient. Caller holds the read lock.
func (o *OwnershipResolver) relatedDoctors(patientID uuid.UUID) []uuid.UUID {
	var out []uuid.UUID
	for _, a := range o.s.appointments {
		if a.PatientID == patientID && a.IsActive() && !slices.Contains(out, a.DoctorID) {
			out = append(out, a.DoctorID)
		}
	}
	slices.SortFunc(out, func(a, b uuid.UUID) int {
		return slices.Compare(a[:], b[:])
	})
	return out
}
