// Package clinical holds the patient-owned clinical records. Ownership runs
// prescription/exam → treatment → medical record → patient; the access layer
// walks these foreign keys to find the owning patient.
package clinical

import (
	"time"

	"github.com/google/uuid"
)

// SOAPNote represents the structured clinical note format.
type SOAPNote struct {
	Subjective string `json:"subjective"`
	Objective  string `json:"objective"`
	Assessment string `json:"assessment"`
	Plan       string `json:"plan"`
}

type Vitals struct {
	BloodPressureSystolic  *int     `json:"bp_systolic"`
	BloodPressureDiastolic *int     `json:"bp_diastolic"`
	HeartRateBPM           *int     `json:"heart_rate_bpm"`
	TemperatureCelsius     *float64 `json:"temperature_celsius"`
	WeightKg               *float64 `json:"weight_kg"`
}

// MedicalRecord is the root clinical document of one patient.
type MedicalRecord struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	PatientID uuid.UUID `gorm:"column:patient_id;type:uuid;not null;index"`

	BloodType         string   `gorm:"column:blood_type;type:varchar(5)"`
	Allergies         []string `gorm:"column:allergies;serializer:json"`
	ChronicConditions []string `gorm:"column:chronic_conditions;serializer:json"`
	Notes             string   `gorm:"column:notes;type:text"`

	CreatedBy uuid.UUID `gorm:"column:created_by;type:uuid;not null"`
}

func (MedicalRecord) TableName() string {
	return "clinical.medical_records"
}

type Treatment struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`

	MedicalRecordID uuid.UUID  `gorm:"column:medical_record_id;type:uuid;not null;index"`
	DoctorID        uuid.UUID  `gorm:"column:doctor_id;type:uuid;not null;index"`
	AppointmentID   *uuid.UUID `gorm:"column:appointment_id;type:uuid;index"`

	Diagnosis string     `gorm:"column:diagnosis;type:text;not null"`
	SOAPNote  *SOAPNote  `gorm:"column:soap_note;serializer:json"`
	Vitals    *Vitals    `gorm:"column:vitals;serializer:json"`
	StartedAt time.Time  `gorm:"column:started_at;not null"`
	EndedAt   *time.Time `gorm:"column:ended_at"`
}

func (Treatment) TableName() string {
	return "clinical.treatments"
}

type Prescription struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`

	TreatmentID  uuid.UUID `gorm:"column:treatment_id;type:uuid;not null;index"`
	MedicationID uuid.UUID `gorm:"column:medication_id;type:uuid;not null;index"`

	DosageAmount    string `gorm:"column:dosage_amount;type:varchar(50);not null"`     // e.g. "500mg"
	DosageFrequency string `gorm:"column:dosage_frequency;type:varchar(100);not null"` // e.g. "twice daily"
	Duration        string `gorm:"column:duration;type:varchar(100)"`
	Instructions    string `gorm:"column:instructions;type:text"`
}

func (Prescription) TableName() string {
	return "clinical.prescriptions"
}

type Exam struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`

	TreatmentID uuid.UUID `gorm:"column:treatment_id;type:uuid;not null;index"`

	Name         string     `gorm:"column:name;type:varchar(255);not null"`
	Result       string     `gorm:"column:result;type:text"`
	PerformedAt  *time.Time `gorm:"column:performed_at"`
	AttachmentID *uuid.UUID `gorm:"column:attachment_id;type:uuid"`
}

func (Exam) TableName() string {
	return "clinical.exams"
}

// Medication is a global catalogue entry.
type Medication struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name        string    `gorm:"column:name;type:varchar(255);not null;uniqueIndex"`
	GenericName string    `gorm:"column:generic_name;type:varchar(255)"`
}

func (Medication) TableName() string {
	return "clinical.medications"
}
