package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dmehra2102/prod-golang-projects/medbook/internal/access"
)

// OwnershipResolver walks foreign keys with one query per resource and one
// for related doctors. Nothing is cached between calls.
type OwnershipResolver struct {
	db *gorm.DB
}

var _ access.OwnershipResolver = (*OwnershipResolver)(nil)

type owners struct {
	PatientID *uuid.UUID
	DoctorID  *uuid.UUID
}

// ownerQueries select (patient_id, doctor_id) for one row of each owned type.
var ownerQueries = map[access.ResourceType]string{
	access.ResourceAppointment:   `SELECT patient_id, doctor_id FROM clinical.appointments WHERE id = ?`,
	access.ResourcePatient:       `SELECT id AS patient_id, NULL::uuid AS doctor_id FROM clinical.patients WHERE id = ? AND deleted_at IS NULL`,
	access.ResourceMedicalRecord: `SELECT patient_id, NULL::uuid AS doctor_id FROM clinical.medical_records WHERE id = ?`,
	access.ResourceTreatment: `SELECT mr.patient_id, t.doctor_id
		FROM clinical.treatments t
		JOIN clinical.medical_records mr ON mr.id = t.medical_record_id
		WHERE t.id = ?`,
	access.ResourcePrescription: `SELECT mr.patient_id, t.doctor_id
		FROM clinical.prescriptions p
		JOIN clinical.treatments t ON t.id = p.treatment_id
		JOIN clinical.medical_records mr ON mr.id = t.medical_record_id
		WHERE p.id = ?`,
	access.ResourceExam: `SELECT mr.patient_id, t.doctor_id
		FROM clinical.exams e
		JOIN clinical.treatments t ON t.id = e.treatment_id
		JOIN clinical.medical_records mr ON mr.id = t.medical_record_id
		WHERE e.id = ?`,
	access.ResourceInvoice: `SELECT patient_id, NULL::uuid AS doctor_id FROM billing.invoices WHERE id = ?`,
	access.ResourcePayment: `SELECT i.patient_id, NULL::uuid AS doctor_id
		FROM billing.payments p
		JOIN billing.invoices i ON i.id = p.invoice_id
		WHERE p.id = ?`,
	access.ResourceSchedule: `SELECT NULL::uuid AS patient_id, doctor_id FROM clinical.availability_blocks WHERE id = ?`,
}

// existsQueries check catalogue and back-office rows that have no owner.
var existsQueries = map[access.ResourceType]string{
	access.ResourceDoctor:     `SELECT count(*) FROM clinical.doctors WHERE id = ? AND is_active`,
	access.ResourceSpecialty:  `SELECT count(*) FROM clinical.specialties WHERE id = ?`,
	access.ResourceMedication: `SELECT count(*) FROM clinical.medications WHERE id = ?`,
	access.ResourceUser:       `SELECT count(*) FROM auth.users WHERE id = ? AND deleted_at IS NULL`,
}

func (o *OwnershipResolver) Resolve(ctx context.Context, t access.ResourceType, id uuid.UUID) (access.Resource, error) {
	res := access.Resource{Type: t, ID: id}
	db := o.db.WithContext(ctx)

	switch {
	case ownerQueries[t] != "":
		var ow owners
		tx := db.Raw(ownerQueries[t], id).Scan(&ow)
		if tx.Error != nil {
			return res, fmt.Errorf("resolving %s owner: %w", t, tx.Error)
		}
		if tx.RowsAffected == 0 {
			return res, access.ErrResourceNotFound
		}
		res.OwnerPatientID = ow.PatientID
		res.OwnerDoctorID = ow.DoctorID

	case existsQueries[t] != "":
		var n int64
		if err := db.Raw(existsQueries[t], id).Scan(&n).Error; err != nil {
			return res, fmt.Errorf("resolving %s: %w", t, err)
		}
		if n == 0 {
			return res, access.ErrResourceNotFound
		}

	case t == access.ResourceAvailability || t == access.ResourceAuditLog:
		// not addressable by id

	default:
		return res, access.ErrResourceNotFound
	}

	if res.OwnerPatientID != nil {
		related, err := o.relatedDoctors(db, *res.OwnerPatientID)
		if err != nil {
			return res, err
		}
		res.RelatedDoctorIDs = related
	}
	return res, nil
}

func (o *OwnershipResolver) ForPatient(ctx context.Context, t access.ResourceType, patientID uuid.UUID) (access.Resource, error) {
	db := o.db.WithContext(ctx)
	res := access.Resource{Type: t}

	var n int64
	if err := db.Raw(`SELECT count(*) FROM clinical.patients WHERE id = ? AND deleted_at IS NULL`, patientID).Scan(&n).Error; err != nil {
		return res, fmt.Errorf("resolving patient: %w", err)
	}
	if n == 0 {
		return res, access.ErrResourceNotFound
	}

	related, err := o.relatedDoctors(db, patientID)
	if err != nil {
		return res, err
	}
	res.OwnerPatientID = &patientID
	res.RelatedDoctorIDs = related
	return res, nil
}

func (o *OwnershipResolver) relatedDoctors(db *gorm.DB, patientID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := db.Raw(`SELECT DISTINCT doctor_id FROM clinical.appointments
		WHERE patient_id = ? AND status <> 'cancelled'
		ORDER BY doctor_id`, patientID).Scan(&ids).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("resolving related doctors: %w", err)
	}
	return ids, nil
}
